package provider

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/edubyte/eubyte-backend/internal/weather"
)

// WeatherSource fetches a weather record for a place name.
type WeatherSource interface {
	Fetch(ctx context.Context, place string) weather.Record
}

// WeatherProvider wraps a chat backend: when the message names a place, the
// live weather for it is fetched and folded into the prompt before delegating.
type WeatherProvider struct {
	backend ChatProvider
	source  WeatherSource
	log     *slog.Logger
}

func NewWeatherProvider(backend ChatProvider, source WeatherSource, log *slog.Logger) *WeatherProvider {
	if log == nil {
		log = slog.Default()
	}
	return &WeatherProvider{backend: backend, source: source, log: log.With("component", "weather_bot")}
}

func (w *WeatherProvider) Model() string { return w.backend.Model() }

func (w *WeatherProvider) Reply(ctx context.Context, turn Turn) (string, error) {
	turn.Text = w.Augment(ctx, turn.Text)
	return w.backend.Reply(ctx, turn)
}

// Augment builds the prompt sent to the backend. Weather lookup failures are
// narrated into the prompt and never abort the turn.
func (w *WeatherProvider) Augment(ctx context.Context, message string) string {
	place, ok := weather.ExtractLocation(message)
	if !ok {
		if weather.MentionsWeather(message) {
			return message
		}
		return "The user did not mention a place or the weather. Answer briefly and offer to " +
			"look up the weather for any city they name.\n\nUser message: " + message
	}

	rec := w.source.Fetch(ctx, place)
	if rec.Err != nil {
		w.log.WarnContext(ctx, "Weather data unavailable", "place", place, "error", rec.Err)
	} else {
		w.log.DebugContext(ctx, "Weather data attached", "place", place, "forecast_days", len(rec.Forecast))
	}
	return fmt.Sprintf("Weather data for %s:\n%s\n\nUser question: %s", place, weather.Format(rec), message)
}
