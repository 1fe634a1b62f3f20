package openai

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/openai/openai-go/v3"

	"github.com/vedasage/sage/pkg/ai"
)

// GenerateSpeech renders text to mp3 audio using the configured speech model.
func (c *SageOpenAIClient) GenerateSpeech(
	ctx context.Context,
	text string,
	opts ...ai.GenerateOption,
) ([]byte, error) {
	if c.speechModel == "" {
		return nil, fmt.Errorf("speech model not configured")
	}
	if text == "" {
		return nil, fmt.Errorf("no text provided")
	}

	options := ai.GenerateOptions{
		Voice: c.speechVoice,
	}
	for _, o := range opts {
		o(&options)
	}

	params := openai.AudioSpeechNewParams{
		Model:          openai.SpeechModel(c.speechModel),
		Input:          text,
		Voice:          openai.AudioSpeechNewParamsVoice(options.Voice),
		ResponseFormat: openai.AudioSpeechNewParamsResponseFormatMP3,
	}

	start := time.Now()
	response, err := c.ChatClient.Audio.Speech.New(ctx, params)
	if err != nil {
		return nil, err
	}
	defer response.Body.Close()

	audio, err := io.ReadAll(response.Body)
	if err != nil {
		return nil, err
	}

	// Speech responses carry no token usage, only record timing.
	c.modifyMetrics(ai.ModelMetrics{
		DurationMs: time.Since(start).Milliseconds(),
	})

	return audio, nil
}
