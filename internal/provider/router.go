package provider

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strings"
	"time"

	"github.com/edubyte/eubyte-backend/internal"
	"github.com/edubyte/eubyte-backend/internal/logger"
	"github.com/edubyte/eubyte-backend/internal/render"
)

// Reply is a routed answer, already rendered to HTML.
type Reply struct {
	HTML    string
	Bot     BotID
	Model   string
	Latency time.Duration
}

type binding struct {
	provider ChatProvider
	model    string
	// reason is set when the bot has no usable backend.
	reason string
}

// Router resolves bot selectors to adapters. It is built once at startup and is
// read-only afterwards.
type Router struct {
	bots map[BotID]binding
	log  *slog.Logger
}

func NewRouter(log *slog.Logger) *Router {
	if log == nil {
		log = slog.Default()
	}
	return &Router{bots: make(map[BotID]binding), log: log.With("component", "router")}
}

// Register binds an adapter to a bot.
func (r *Router) Register(id BotID, p ChatProvider) {
	r.bots[id] = binding{provider: p, model: p.Model()}
}

// RegisterUnavailable records a bot that cannot answer, so callers get a clear
// ErrBotUnavailable instead of an unknown-bot error.
func (r *Router) RegisterUnavailable(id BotID, model, reason string) {
	r.bots[id] = binding{model: model, reason: reason}
}

// Bots describes every known bot in display order.
func (r *Router) Bots() internal.BotList {
	list := internal.BotList{Default: string(DefaultBot)}
	for _, id := range AllBots {
		b, ok := r.bots[id]
		if !ok {
			continue
		}
		list.Bots = append(list.Bots, internal.BotInfo{
			ID:        string(id),
			Name:      id.DisplayName(),
			Model:     b.model,
			Available: b.provider != nil,
		})
	}
	return list
}

// Resolve maps a selector to a registered bot without calling it.
func (r *Router) Resolve(selector string) (BotID, error) {
	id, err := ParseBot(selector)
	if err != nil {
		return "", err
	}
	if _, ok := r.bots[id]; !ok {
		return "", fmt.Errorf("%w: %s is not registered", ErrBotUnavailable, id)
	}
	return id, nil
}

// Route validates the turn, sends it to the selected bot and renders the answer.
// Upstream failures come back wrapped in ErrTimeout or ErrUpstream.
func (r *Router) Route(ctx context.Context, selector string, turn Turn) (Reply, error) {
	turn.Text = strings.TrimSpace(turn.Text)
	if turn.Text == "" && turn.Image == nil {
		return Reply{}, ErrEmptyTurn
	}

	id, err := r.Resolve(selector)
	if err != nil {
		return Reply{}, err
	}
	b := r.bots[id]
	if b.provider == nil {
		return Reply{Bot: id, Model: b.model}, fmt.Errorf("%w: %s: %s", ErrBotUnavailable, id, b.reason)
	}

	start := time.Now()
	text, err := b.provider.Reply(ctx, turn)
	out := Reply{Bot: id, Model: b.model, Latency: time.Since(start)}
	if err != nil {
		err = classify(ctx, err)
		r.log.WarnContext(ctx, "Provider call failed",
			"bot", id, "model", b.model, "duration_ms", out.Latency.Milliseconds(), "error", err)
		return out, fmt.Errorf("%s: %w", id, err)
	}

	html, err := render.Markdown(text)
	if err != nil {
		return out, fmt.Errorf("%w: render %s reply: %v", ErrUpstream, id, err)
	}
	out.HTML = html

	r.log.InfoContext(ctx, "Provider replied",
		"bot", id, "model", b.model, "duration_ms", out.Latency.Milliseconds(), "reply_len", len(text))
	r.log.DebugContext(ctx, "Reply preview", "bot", id, "text", logger.TruncateString(text, 120))
	return out, nil
}

func classify(ctx context.Context, err error) error {
	var ne net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded),
		errors.As(err, &ne) && ne.Timeout():
		return fmt.Errorf("%w: %w", ErrTimeout, err)
	case errors.Is(err, context.Canceled) && ctx.Err() != nil:
		return err
	default:
		return fmt.Errorf("%w: %w", ErrUpstream, err)
	}
}
