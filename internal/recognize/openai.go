package recognize

import (
	"context"
	"errors"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"github.com/voxnote/apiserver/config"
)

// OpenAIClient transcribes audio through the OpenAI audio/transcriptions API.
type OpenAIClient struct {
	client *openai.Client
	model  string
}

// NewOpenAIClient constructs an OpenAI Whisper backend from config.
func NewOpenAIClient(cfg config.RecognizerConfig) (*OpenAIClient, error) {
	if strings.TrimSpace(cfg.OpenAIAPIKey) == "" {
		return nil, errors.New("openai api key is required")
	}

	model := strings.TrimSpace(cfg.OpenAIModel)
	if model == "" {
		model = openai.Whisper1
	}

	return newOpenAIClient(openai.DefaultConfig(cfg.OpenAIAPIKey), model), nil
}

func newOpenAIClient(clientCfg openai.ClientConfig, model string) *OpenAIClient {
	return &OpenAIClient{
		client: openai.NewClientWithConfig(clientCfg),
		model:  model,
	}
}

// Transcribe uploads the audio file and returns its transcript.
func (o *OpenAIClient) Transcribe(ctx context.Context, audioPath string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultRequestTimeout)
	defer cancel()

	resp, err := o.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    o.model,
		FilePath: audioPath,
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrServiceUnavailable, err)
	}

	text := strings.TrimSpace(resp.Text)
	if text == "" {
		return "", ErrUnintelligible
	}
	return text, nil
}
