package provider

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/edubyte/eubyte-backend/internal/config"
)

// OpenAIProvider speaks the chat-completions protocol, either against OpenAI itself
// or against an Azure-hosted deployment.
type OpenAIProvider struct {
	client *openai.Client
	cfg    config.ProviderConfig
}

func NewOpenAIProvider(cfg config.ProviderConfig) (*OpenAIProvider, error) {
	if !cfg.Configured() {
		return nil, errors.New("openai api key is empty")
	}
	oc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	oc.HTTPClient = &http.Client{}
	return &OpenAIProvider{client: openai.NewClientWithConfig(oc), cfg: cfg}, nil
}

// NewAzureProvider targets {base_url}/openai/deployments/{deployment}/chat/completions.
func NewAzureProvider(cfg config.ProviderConfig) (*OpenAIProvider, error) {
	if !cfg.Configured() {
		return nil, errors.New("azure api key is empty")
	}
	deployment := cfg.Deployment
	if deployment == "" {
		deployment = cfg.Model
	}
	oc := openai.DefaultAzureConfig(cfg.APIKey, strings.TrimRight(cfg.BaseURL, "/"))
	if cfg.APIVersion != "" {
		oc.APIVersion = cfg.APIVersion
	}
	oc.AzureModelMapperFunc = func(string) string { return deployment }
	oc.HTTPClient = &http.Client{}
	return &OpenAIProvider{client: openai.NewClientWithConfig(oc), cfg: cfg}, nil
}

func (p *OpenAIProvider) Model() string { return p.cfg.Model }

func (p *OpenAIProvider) Reply(ctx context.Context, turn Turn) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, p.cfg.Timeout)
	defer cancel()

	user := openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser}
	if turn.Image != nil {
		user.MultiContent = []openai.ChatMessagePart{
			{Type: openai.ChatMessagePartTypeText, Text: turn.promptText()},
			{
				Type: openai.ChatMessagePartTypeImageURL,
				ImageURL: &openai.ChatMessageImageURL{
					URL:    turn.Image.DataURL(),
					Detail: openai.ImageURLDetailAuto,
				},
			},
		}
	} else {
		user.Content = turn.Text
	}

	req := openai.ChatCompletionRequest{
		Model: p.cfg.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: p.cfg.Persona},
			user,
		},
		Temperature: p.cfg.Temperature,
		TopP:        p.cfg.TopP,
		MaxTokens:   p.cfg.MaxTokens,
	}

	resp, err := p.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no choices in %s response", p.cfg.Model)
	}

	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return "", fmt.Errorf("empty %s response (finish reason %q)", p.cfg.Model, resp.Choices[0].FinishReason)
	}
	return text, nil
}
