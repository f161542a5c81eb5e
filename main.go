// Command eubyte-backend serves the Eubyte chat, transcription and weather API.
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"github.com/edubyte/eubyte-backend/internal/audio"
	"github.com/edubyte/eubyte-backend/internal/config"
	"github.com/edubyte/eubyte-backend/internal/logger"
	"github.com/edubyte/eubyte-backend/internal/provider"
	"github.com/edubyte/eubyte-backend/internal/server"
	"github.com/edubyte/eubyte-backend/internal/store"
	"github.com/edubyte/eubyte-backend/internal/weather"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx)
	stop()
	os.Exit(code)
}

// run wires every component, serves until ctx is cancelled and returns the exit code.
func run(ctx context.Context) int {
	configPath := flag.String("config", envOr("EUBYTE_CONFIG", "./config.yaml"), "Path to configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("Failed to load configuration", "path", *configPath, "error", err)
		return 1
	}

	log := logger.NewLogger(cfg.Log.Level, cfg.Log.JSON)
	log.Info("Logger initialized", "level", cfg.Log.Level, "json", cfg.Log.JSON)

	st, err := store.Open(cfg.Store, log)
	if err != nil {
		log.Error("Failed to open exchange store", "driver", cfg.Store.Driver, "error", err)
		return 1
	}
	defer func() {
		if err := st.Close(); err != nil {
			log.Warn("Failed to close exchange store", "error", err)
		}
	}()

	pruner, err := store.NewPruner(st, cfg.Store.Retention, cfg.Store.PruneSchedule, log)
	if err != nil {
		log.Error("Failed to create ledger pruner", "error", err)
		return 1
	}

	wx := weather.NewClient(cfg.Weather, log)
	if !wx.Configured() {
		log.Warn("Weather API key not set; weather lookups will report unavailable")
	}

	router, err := provider.BuildRouter(ctx, cfg, wx, log)
	if err != nil {
		log.Error("Failed to build bot router", "error", err)
		return 1
	}
	for _, b := range router.Bots().Bots {
		log.Info("Bot registered", "bot", b.ID, "model", b.Model, "available", b.Available)
	}

	gin.SetMode(gin.ReleaseMode)
	engine := server.New(server.Deps{
		Config:      cfg.Server,
		Router:      router,
		Transcriber: newTranscriber(cfg, log),
		Weather:     wx,
		Store:       st,
		Log:         log,
	})
	srv := server.NewHTTPServer(cfg.Server, engine)

	pruner.Start()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("HTTP server listening", "addr", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("Shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.Server.ShutdownTimeout)
		defer cancel()
		err := srv.Shutdown(shutdownCtx)
		if perr := pruner.Stop(); perr != nil {
			log.Warn("Failed to stop ledger pruner", "error", perr)
		}
		return err
	})

	if err := g.Wait(); err != nil {
		log.Error("Server stopped with error", "error", err)
		return 1
	}
	log.Info("Server stopped gracefully")
	return 0
}

// newTranscriber builds the audio pipeline. Without a speech-to-text key the
// OpenAI key is reused; with neither, uploads still decode but end in a service error.
func newTranscriber(cfg *config.Config, log *slog.Logger) *audio.Transcriber {
	stt := cfg.Audio.STT
	if stt.APIKey == "" {
		stt.APIKey = cfg.Providers.OpenAI.APIKey
	}

	var rec audio.Recognizer
	if w, err := audio.NewWhisperRecognizer(stt); err != nil {
		log.Warn("Speech recognition disabled", "error", err)
	} else {
		rec = w
	}
	return audio.NewTranscriber(rec, audio.FFmpeg{Path: cfg.Audio.FFmpegPath, Timeout: cfg.Audio.FFmpegTimeout}, cfg.Audio.ScratchDir, log)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
