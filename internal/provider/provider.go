package provider

import (
	"context"
	"errors"
)

var (
	// ErrEmptyTurn is returned when a chat turn carries neither text nor image.
	ErrEmptyTurn = errors.New("no message provided")
	// ErrUnknownBot is returned for bot selectors outside the closed set.
	ErrUnknownBot = errors.New("unknown bot")
	// ErrBotUnavailable is returned for bots whose backend is not configured.
	ErrBotUnavailable = errors.New("bot unavailable")
	// ErrUpstream wraps every failure of the AI backend call.
	ErrUpstream = errors.New("upstream provider error")
	// ErrTimeout wraps upstream calls that ran past their deadline.
	ErrTimeout = errors.New("upstream provider timeout")
	// ErrInvalidImage is returned for attachments that are not decodable images.
	ErrInvalidImage = errors.New("invalid image")
)

// Turn is one user message: text, an optional image, or both.
type Turn struct {
	Text  string
	Image *Image
}

// defaultImagePrompt is sent when the user attaches an image without any text.
const defaultImagePrompt = "Describe this image."

func (t Turn) promptText() string {
	if t.Text == "" && t.Image != nil {
		return defaultImagePrompt
	}
	return t.Text
}

// ChatProvider is one backend adapter. Reply sends the adapter's fixed persona plus
// the turn and returns the model's raw Markdown text.
type ChatProvider interface {
	Model() string
	Reply(ctx context.Context, turn Turn) (string, error)
}

// MockProvider answers locally without calling any external API.
type MockProvider struct{}

func (m MockProvider) Model() string { return "mock-eubyte" }

func (m MockProvider) Reply(_ context.Context, turn Turn) (string, error) {
	// canned reply for offline development
	reply := "Understood. (mock) You asked: \"" + turn.Text + "\""
	if turn.Image != nil {
		reply += " with an attached " + turn.Image.MIMEType + " image"
	}
	return reply, nil
}
