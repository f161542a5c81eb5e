package provider

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/edubyte/eubyte-backend/internal/config"
)

// GeminiProvider sends turns to the Gemini generateContent API.
type GeminiProvider struct {
	client    *genai.Client
	model     string
	timeout   time.Duration
	genConfig *genai.GenerateContentConfig
}

func NewGeminiProvider(ctx context.Context, cfg config.ProviderConfig) (*GeminiProvider, error) {
	if !cfg.Configured() {
		return nil, errors.New("gemini api key is empty")
	}

	cc := &genai.ClientConfig{
		APIKey:     cfg.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: &http.Client{},
	}
	if cfg.BaseURL != "" {
		cc.HTTPOptions.BaseURL = strings.TrimRight(cfg.BaseURL, "/") + "/"
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	gc := &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: cfg.Persona}}},
		Temperature:       genai.Ptr(cfg.Temperature),
		TopP:              genai.Ptr(cfg.TopP),
		MaxOutputTokens:   int32(cfg.MaxTokens),
	}
	if cfg.TopK > 0 {
		gc.TopK = genai.Ptr(cfg.TopK)
	}

	return &GeminiProvider{
		client:    client,
		model:     cfg.Model,
		timeout:   cfg.Timeout,
		genConfig: gc,
	}, nil
}

func (p *GeminiProvider) Model() string { return p.model }

func (p *GeminiProvider) Reply(ctx context.Context, turn Turn) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	parts := []*genai.Part{genai.NewPartFromText(turn.promptText())}
	if turn.Image != nil {
		parts = append(parts, genai.NewPartFromBytes(turn.Image.Data, turn.Image.MIMEType))
	}
	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}

	resp, err := p.client.Models.GenerateContent(ctx, p.model, contents, p.genConfig)
	if err != nil {
		return "", err
	}

	if fb := resp.PromptFeedback; fb != nil && fb.BlockReason != "" && fb.BlockReason != genai.BlockedReasonUnspecified {
		reason := string(resp.PromptFeedback.BlockReason)
		if resp.PromptFeedback.BlockReasonMessage != "" {
			reason = resp.PromptFeedback.BlockReasonMessage
		}
		return "", fmt.Errorf("gemini blocked the prompt: %s", reason)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", errors.New("gemini returned no candidates")
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", fmt.Errorf("gemini returned empty content, finish reason: %s", resp.Candidates[0].FinishReason)
	}
	return text, nil
}
