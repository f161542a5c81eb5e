package audio

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/edubyte/eubyte-backend/internal/config"
)

// Recognizer turns a normalized WAV file into text.
type Recognizer interface {
	Recognize(ctx context.Context, wavPath string) (string, error)
}

// WhisperRecognizer calls an OpenAI-compatible /audio/transcriptions endpoint.
type WhisperRecognizer struct {
	client   *openai.Client
	model    string
	language string
	timeout  time.Duration
}

func NewWhisperRecognizer(cfg config.STTConfig) (*WhisperRecognizer, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("speech-to-text api key is empty")
	}
	oc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	oc.HTTPClient = &http.Client{}
	return &WhisperRecognizer{
		client:   openai.NewClientWithConfig(oc),
		model:    cfg.Model,
		language: cfg.Language,
		timeout:  cfg.Timeout,
	}, nil
}

func (w *WhisperRecognizer) Recognize(ctx context.Context, wavPath string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()

	resp, err := w.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    w.model,
		FilePath: wavPath,
		Language: w.language,
		Format:   openai.AudioResponseFormatJSON,
	})
	if err != nil {
		return "", err
	}
	return resp.Text, nil
}
