package provider

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/edubyte/eubyte-backend/internal/config"
)

// Backend names accepted by weather.backend.
const (
	BackendAzure  = "azure"
	BackendOpenAI = "openai"
	BackendGemini = "gemini"
)

// BuildRouter wires every bot from configuration. Bots without credentials are
// registered as unavailable, or answered by MockProvider when
// providers.mock_when_unconfigured is set.
func BuildRouter(ctx context.Context, cfg *config.Config, wx WeatherSource, log *slog.Logger) (*Router, error) {
	if log == nil {
		log = slog.Default()
	}
	r := NewRouter(log)

	bots := []struct {
		id      BotID
		backend string
		pc      config.ProviderConfig
	}{
		{BotEubyte, BackendAzure, cfg.Providers.Azure},
		{BotGPT, BackendOpenAI, cfg.Providers.OpenAI},
		{BotGemini, BackendGemini, cfg.Providers.Gemini},
	}
	for _, b := range bots {
		p, err := r.bind(ctx, b.id, b.backend, b.pc, cfg.Providers.MockWhenUnconfigured)
		if err != nil {
			return nil, err
		}
		if p != nil {
			r.Register(b.id, p)
		}
	}

	pc, err := backendConfig(cfg.Providers, cfg.Weather.Backend)
	if err != nil {
		return nil, err
	}
	pc.Persona = cfg.Weather.Persona
	backend, err := r.bind(ctx, BotWeather, cfg.Weather.Backend, pc, cfg.Providers.MockWhenUnconfigured)
	if err != nil {
		return nil, err
	}
	if backend != nil {
		r.Register(BotWeather, NewWeatherProvider(backend, wx, log))
	}

	return r, nil
}

// bind builds the adapter for one bot. A nil provider with a nil error means the
// bot was registered as unavailable.
func (r *Router) bind(ctx context.Context, id BotID, backend string, pc config.ProviderConfig, mock bool) (ChatProvider, error) {
	if !pc.Configured() {
		if mock {
			r.log.WarnContext(ctx, "No credential, answering with mock provider", "bot", id, "backend", backend)
			return MockProvider{}, nil
		}
		r.log.WarnContext(ctx, "No credential, bot unavailable", "bot", id, "backend", backend)
		r.RegisterUnavailable(id, pc.Model, backend+" credential not configured")
		return nil, nil
	}

	var (
		p   ChatProvider
		err error
	)
	switch backend {
	case BackendAzure:
		p, err = NewAzureProvider(pc)
	case BackendOpenAI:
		p, err = NewOpenAIProvider(pc)
	case BackendGemini:
		p, err = NewGeminiProvider(ctx, pc)
	default:
		err = fmt.Errorf("unsupported backend %q", backend)
	}
	if err != nil {
		return nil, fmt.Errorf("bot %s: %w", id, err)
	}
	r.log.InfoContext(ctx, "Bot ready", "bot", id, "backend", backend, "model", p.Model())
	return p, nil
}

func backendConfig(pcs config.ProvidersConfig, backend string) (config.ProviderConfig, error) {
	switch backend {
	case BackendAzure:
		return pcs.Azure, nil
	case BackendOpenAI:
		return pcs.OpenAI, nil
	case BackendGemini:
		return pcs.Gemini, nil
	default:
		return config.ProviderConfig{}, fmt.Errorf("unsupported weather backend %q", backend)
	}
}
