package routes

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

var exampleQuestions = []string{
	"Why did the Mahabharata war happen?",
	"Who killed Karna, and why?",
	"Why did the Pandavas have to go live in the forest for 12 years?",
	"Who was the wife of all five Pandavas, and how did that marriage come to be?",
	"What was the role of Krishna during the Kurukshetra war? Did he fight?",
	"Describe the relationship between Karna and Kunti. How did it affect the war?",
	"Who killed Ghatotakach?",
	"Who were the siblings of Karna?",
	"Why did Bhishma take a vow of celibacy, and how did that impact the throne of Hastinapur?",
	"Who killed Dronacharya and how was he tricked into giving up his weapons?",
}

func GetExamplesHandler(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string][]string{"examples": exampleQuestions})
}
