// Package server exposes the chat, transcription and weather endpoints over gin.
package server

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/edubyte/eubyte-backend/internal"
	"github.com/edubyte/eubyte-backend/internal/audio"
	"github.com/edubyte/eubyte-backend/internal/config"
	"github.com/edubyte/eubyte-backend/internal/logger"
	"github.com/edubyte/eubyte-backend/internal/provider"
	"github.com/edubyte/eubyte-backend/internal/store"
	"github.com/edubyte/eubyte-backend/internal/weather"
)

// ChatRouter routes chat turns to bots.
type ChatRouter interface {
	Route(ctx context.Context, selector string, turn provider.Turn) (provider.Reply, error)
	Bots() internal.BotList
}

type Transcriber interface {
	Transcribe(ctx context.Context, raw []byte) audio.Result
}

// WeatherAPI is the passthrough side of the weather client.
type WeatherAPI interface {
	Raw(ctx context.Context, kind string, q weather.Query) ([]byte, error)
}

type Deps struct {
	Config      config.ServerConfig
	Router      ChatRouter
	Transcriber Transcriber
	Weather     WeatherAPI
	Store       store.Store
	Log         *slog.Logger
}

type Server struct {
	cfg         config.ServerConfig
	router      ChatRouter
	transcriber Transcriber
	weather     WeatherAPI
	store       store.Store
	log         *slog.Logger
	started     time.Time
}

// New builds the gin engine with every route registered.
func New(d Deps) *gin.Engine {
	if d.Log == nil {
		d.Log = slog.Default()
	}
	s := &Server{
		cfg:         d.Config,
		router:      d.Router,
		transcriber: d.Transcriber,
		weather:     d.Weather,
		store:       d.Store,
		log:         d.Log.With("component", "server"),
		started:     time.Now(),
	}

	r := gin.New()
	r.Use(gin.Recovery(), logger.Middleware(d.Log), cors(d.Config.AllowedOrigins), bodyLimit(d.Config.MaxUploadBytes))

	r.GET("/health", s.health)
	r.GET("/", s.index)
	if dir := d.Config.StaticDir; dir != "" {
		if st, err := os.Stat(dir); err == nil && st.IsDir() {
			r.Static("/static", dir)
		}
	}

	api := r.Group("/api")
	api.POST("/chat", s.chat)
	api.POST("/transcribe", s.transcribe)
	api.GET("/weather", s.weatherLookup)
	api.GET("/bots", s.bots)
	api.GET("/exchanges", s.exchanges)

	return r
}

// NewHTTPServer wraps the engine for the configured address.
func NewHTTPServer(cfg config.ServerConfig, h http.Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.Addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// cors echoes allowed origins back; "*" allows any origin.
func cors(allowed []string) gin.HandlerFunc {
	allowAll := slices.Contains(allowed, "*")
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin != "" && (allowAll || slices.Contains(allowed, origin)) {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
			c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
			c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			c.Writer.Header().Add("Vary", "Origin")
		}
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

func bodyLimit(limit int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limit > 0 && c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
		}
		c.Next()
	}
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"ok":      true,
		"started": s.started.UTC().Format(time.RFC3339),
		"uptime":  time.Since(s.started).Round(time.Second).String(),
	})
}

func (s *Server) index(c *gin.Context) {
	if s.cfg.StaticDir != "" {
		p := filepath.Join(s.cfg.StaticDir, "index.html")
		if _, err := os.Stat(p); err == nil {
			c.File(p)
			return
		}
	}
	c.JSON(http.StatusNotFound, internal.ErrorResponse{Error: "no UI bundled; use the /api endpoints"})
}

// record appends an exchange without letting ledger failures affect the reply.
func (s *Server) record(c *gin.Context, ex internal.Exchange) {
	if s.store == nil {
		return
	}
	ex.CreatedAt = time.Now().UTC()
	if err := s.store.Append(context.WithoutCancel(c.Request.Context()), ex); err != nil {
		s.log.WarnContext(c.Request.Context(), "Failed to record exchange", "kind", ex.Kind, "error", err)
	}
}
