package main

import (
	"github.com/vedasage/sage/internal/server"
	"github.com/vedasage/sage/internal/util"
	"github.com/vedasage/sage/pkg/logger"
	"github.com/vedasage/sage/pkg/logger/console"

	_ "github.com/lib/pq"
)

func main() {
	util.LoadEnv()

	debug := util.GetEnvBool("DEBUG", false)

	consoleLogger := console.NewConsoleLogger(console.ConsoleLoggerParams{
		Debug: debug,
	})
	logger.Init(consoleLogger)

	server.Init()
}
