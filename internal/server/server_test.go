package server

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/edubyte/eubyte-backend/internal"
	"github.com/edubyte/eubyte-backend/internal/audio"
	"github.com/edubyte/eubyte-backend/internal/config"
	"github.com/edubyte/eubyte-backend/internal/provider"
	"github.com/edubyte/eubyte-backend/internal/store"
	"github.com/edubyte/eubyte-backend/internal/weather"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubProvider struct {
	model string
	reply string
	err   error
	last  provider.Turn
}

func (p *stubProvider) Model() string { return p.model }

func (p *stubProvider) Reply(_ context.Context, turn provider.Turn) (string, error) {
	p.last = turn
	return p.reply, p.err
}

type stubTranscriber struct {
	result audio.Result
	got    []byte
}

func (s *stubTranscriber) Transcribe(_ context.Context, raw []byte) audio.Result {
	s.got = raw
	return s.result
}

type stubWeather struct {
	body  []byte
	err   error
	kind  string
	query weather.Query
}

func (s *stubWeather) Raw(_ context.Context, kind string, q weather.Query) ([]byte, error) {
	s.kind, s.query = kind, q
	return s.body, s.err
}

type fixture struct {
	engine  *gin.Engine
	eubyte  *stubProvider
	gpt     *stubProvider
	gemini  *stubProvider
	audio   *stubTranscriber
	weather *stubWeather
	store   *store.MemoryStore
}

func newFixture(t *testing.T, cfg config.ServerConfig) *fixture {
	t.Helper()
	f := &fixture{
		eubyte:  &stubProvider{model: "gpt-4o", reply: "**Hi!** 👋"},
		gpt:     &stubProvider{model: "gpt-4o", err: errors.New("rate limited")},
		gemini:  &stubProvider{model: "gemini-2.0-flash", err: context.DeadlineExceeded},
		audio:   &stubTranscriber{result: audio.Result{Kind: audio.KindOK, Text: "hello", Format: "wav"}},
		weather: &stubWeather{body: []byte(`{"name":"London","main":{"temp":12.3}}`)},
		store:   store.NewMemoryStore(),
	}
	r := provider.NewRouter(nil)
	r.Register(provider.BotEubyte, f.eubyte)
	r.Register(provider.BotGPT, f.gpt)
	r.Register(provider.BotGemini, f.gemini)
	r.RegisterUnavailable(provider.BotWeather, "gpt-4o", "azure credential not configured")

	if cfg.MaxUploadBytes == 0 {
		cfg.MaxUploadBytes = 1 << 20
	}
	f.engine = New(Deps{
		Config:      cfg,
		Router:      r,
		Transcriber: f.audio,
		Weather:     f.weather,
		Store:       f.store,
	})
	return f
}

func (f *fixture) do(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	f.engine.ServeHTTP(w, req)
	return w
}

func postJSON(path, body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %s: %v", w.Body.String(), err)
	}
	return v
}

func TestChat(t *testing.T) {
	png := base64.StdEncoding.EncodeToString([]byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00"))

	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantInBody string
	}{
		{"default bot", `{"message":"hello"}`, http.StatusOK, "<strong>Hi!</strong> 👋"},
		{"named bot", `{"message":"hello","bot":"Eubyte"}`, http.StatusOK, "<strong>Hi!</strong>"},
		{"image only", `{"image":{"format":"png","data":"data:image/png;base64,` + png + `"}}`, http.StatusOK, "<strong>Hi!</strong>"},
		{"empty", `{"message":"   "}`, http.StatusBadRequest, "no message provided"},
		{"unknown bot", `{"message":"hi","bot":"claude"}`, http.StatusBadRequest, "unknown bot"},
		{"bad image", `{"message":"hi","image":{"format":"png","data":"aGVsbG8gd29ybGQ="}}`, http.StatusBadRequest, "invalid image"},
		{"malformed json", `{"message":`, http.StatusBadRequest, "invalid request body"},
		{"unavailable bot", `{"message":"weather in Paris","bot":"WeatherBot"}`, http.StatusServiceUnavailable, "bot unavailable"},
		{"upstream failure", `{"message":"hi","bot":"gpt"}`, http.StatusBadGateway, "rate limited"},
		{"upstream timeout", `{"message":"hi","bot":"gemini"}`, http.StatusGatewayTimeout, "timeout"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, config.ServerConfig{})
			w := f.do(postJSON("/api/chat", tt.body))
			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (%s)", w.Code, tt.wantStatus, w.Body.String())
			}
			if tt.wantStatus == http.StatusOK {
				resp := decode[internal.ChatResponse](t, w)
				if !strings.Contains(resp.Response, tt.wantInBody) {
					t.Errorf("response = %q, want %q", resp.Response, tt.wantInBody)
				}
				return
			}
			resp := decode[internal.ErrorResponse](t, w)
			if !strings.Contains(resp.Error, tt.wantInBody) {
				t.Errorf("error = %q, want %q", resp.Error, tt.wantInBody)
			}
		})
	}
}

func TestChatRecordsExchanges(t *testing.T) {
	f := newFixture(t, config.ServerConfig{})
	f.do(postJSON("/api/chat", `{"message":"hello"}`))
	f.do(postJSON("/api/chat", `{"message":"hi","bot":"gpt"}`))

	w := f.do(httptest.NewRequest(http.MethodGet, "/api/exchanges?limit=10", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	list := decode[internal.ExchangeList](t, w)
	if len(list.Exchanges) != 2 {
		t.Fatalf("exchanges = %+v", list.Exchanges)
	}
	failed, ok := list.Exchanges[0], list.Exchanges[1]
	if failed.Bot != "gpt" || failed.Status != http.StatusBadGateway || failed.Error == "" {
		t.Errorf("failed exchange = %+v", failed)
	}
	if ok.Bot != "eubyte" || ok.Status != http.StatusOK || ok.Model != "gpt-4o" || ok.Kind != internal.ExchangeChat {
		t.Errorf("ok exchange = %+v", ok)
	}

	if w := f.do(httptest.NewRequest(http.MethodGet, "/api/exchanges?limit=zero", nil)); w.Code != http.StatusBadRequest {
		t.Errorf("bad limit status = %d", w.Code)
	}
}

func multipartAudio(t *testing.T, field string, data []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile(field, "recording.webm")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := fw.Write(data); err != nil {
		t.Fatal(err)
	}
	if err := mw.Close(); err != nil {
		t.Fatal(err)
	}
	req := httptest.NewRequest(http.MethodPost, "/api/transcribe", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestTranscribe(t *testing.T) {
	tests := []struct {
		name       string
		result     audio.Result
		wantStatus int
		wantText   string
	}{
		{"ok", audio.Result{Kind: audio.KindOK, Text: "hello world", Format: "webm"}, http.StatusOK, "hello world"},
		{"unintelligible", audio.Result{Kind: audio.KindUnintelligible, Text: audio.UnintelligibleText}, http.StatusOK, audio.UnintelligibleText},
		{"format", audio.Result{Kind: audio.KindFormat, Text: "Could not process the audio format: ffmpeg: bad"}, http.StatusUnprocessableEntity, "ffmpeg: bad"},
		{"service", audio.Result{Kind: audio.KindService, Text: "Speech recognition failed: 500"}, http.StatusBadGateway, "Speech recognition failed"},
		{"timeout", audio.Result{Kind: audio.KindTimeout, Text: "Speech recognition timed out: context deadline exceeded"}, http.StatusGatewayTimeout, "timed out"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, config.ServerConfig{})
			f.audio.result = tt.result

			w := f.do(multipartAudio(t, "audio", []byte("RIFF....WAVE")))
			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (%s)", w.Code, tt.wantStatus, w.Body.String())
			}
			if string(f.audio.got) != "RIFF....WAVE" {
				t.Errorf("transcriber got %q", f.audio.got)
			}
			if tt.wantStatus == http.StatusOK {
				if got := decode[internal.TranscribeResponse](t, w).Transcription; got != tt.wantText {
					t.Errorf("transcription = %q", got)
				}
				return
			}
			if got := decode[internal.ErrorResponse](t, w).Error; !strings.Contains(got, tt.wantText) {
				t.Errorf("error = %q", got)
			}
		})
	}
}

func TestTranscribeMissingFile(t *testing.T) {
	f := newFixture(t, config.ServerConfig{})
	w := f.do(multipartAudio(t, "file", []byte("x")))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", w.Code)
	}
	if f.audio.got != nil {
		t.Error("transcriber called without an audio field")
	}
}

func TestWeather(t *testing.T) {
	t.Run("location passthrough", func(t *testing.T) {
		f := newFixture(t, config.ServerConfig{})
		w := f.do(httptest.NewRequest(http.MethodGet, "/api/weather?location=London&type=forecast", nil))
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d", w.Code)
		}
		if w.Body.String() != string(f.weather.body) {
			t.Errorf("body = %s", w.Body.String())
		}
		if f.weather.kind != "forecast" || f.weather.query.Location != "London" {
			t.Errorf("kind=%q query=%+v", f.weather.kind, f.weather.query)
		}
	})

	t.Run("coordinates default to current", func(t *testing.T) {
		f := newFixture(t, config.ServerConfig{})
		w := f.do(httptest.NewRequest(http.MethodGet, "/api/weather?lat=51.5&lon=-0.12", nil))
		if w.Code != http.StatusOK || f.weather.kind != "current" || f.weather.query.Lat != "51.5" {
			t.Errorf("status=%d kind=%q query=%+v", w.Code, f.weather.kind, f.weather.query)
		}
	})

	tests := []struct {
		name       string
		url        string
		err        error
		wantStatus int
	}{
		{"missing location", "/api/weather", nil, http.StatusBadRequest},
		{"only lat", "/api/weather?lat=10", nil, http.StatusBadRequest},
		{"bad latitude", "/api/weather?lat=200&lon=1", nil, http.StatusBadRequest},
		{"bad type", "/api/weather?location=Paris&type=hourly", nil, http.StatusBadRequest},
		{"upstream status", "/api/weather?location=Atlantis", &weather.StatusError{StatusCode: 404, Message: "city not found"}, http.StatusNotFound},
		{"not configured", "/api/weather?location=Paris", weather.ErrNotConfigured, http.StatusServiceUnavailable},
		{"transport", "/api/weather?location=Paris", fmt.Errorf("request weather: %w", errors.New("connection refused")), http.StatusBadGateway},
		{"upstream timeout", "/api/weather?location=Paris", fmt.Errorf("%w: request weather: %w", weather.ErrTimeout, context.DeadlineExceeded), http.StatusGatewayTimeout},
		{"request deadline", "/api/weather?location=Paris", context.DeadlineExceeded, http.StatusGatewayTimeout},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, config.ServerConfig{})
			f.weather.err = tt.err
			w := f.do(httptest.NewRequest(http.MethodGet, tt.url, nil))
			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (%s)", w.Code, tt.wantStatus, w.Body.String())
			}
			resp := decode[internal.WeatherErrorResponse](t, w)
			if resp.Error == "" || resp.Success {
				t.Errorf("body = %+v", resp)
			}
		})
	}
}

func TestBotsAndHealth(t *testing.T) {
	f := newFixture(t, config.ServerConfig{})

	w := f.do(httptest.NewRequest(http.MethodGet, "/api/bots", nil))
	list := decode[internal.BotList](t, w)
	if list.Default != "eubyte" || len(list.Bots) != 4 {
		t.Fatalf("bots = %+v", list)
	}
	if list.Bots[3].ID != "weather" || list.Bots[3].Available {
		t.Errorf("weather bot = %+v", list.Bots[3])
	}

	w = f.do(httptest.NewRequest(http.MethodGet, "/health", nil))
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"ok":true`) {
		t.Errorf("health = %d %s", w.Code, w.Body.String())
	}
}

func TestCORS(t *testing.T) {
	f := newFixture(t, config.ServerConfig{AllowedOrigins: []string{"http://localhost:5000"}})

	req := httptest.NewRequest(http.MethodOptions, "/api/chat", nil)
	req.Header.Set("Origin", "http://localhost:5000")
	w := f.do(req)
	if w.Code != http.StatusNoContent {
		t.Errorf("preflight status = %d", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:5000" {
		t.Errorf("allow origin = %q", got)
	}

	req = postJSON("/api/chat", `{"message":"hi"}`)
	req.Header.Set("Origin", "https://evil.example")
	w = f.do(req)
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("foreign origin allowed: %q", got)
	}
}

func TestBodyLimit(t *testing.T) {
	f := newFixture(t, config.ServerConfig{MaxUploadBytes: 64})
	w := f.do(postJSON("/api/chat", `{"message":"`+strings.Repeat("a", 200)+`"}`))
	if w.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("status = %d, want 413", w.Code)
	}
}

func TestIndex(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "index.html"), []byte("<h1>Eubyte</h1>"), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "app.js"), []byte("console.log(1)"), 0o600); err != nil {
		t.Fatal(err)
	}

	f := newFixture(t, config.ServerConfig{StaticDir: dir})
	if w := f.do(httptest.NewRequest(http.MethodGet, "/", nil)); w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "Eubyte") {
		t.Errorf("index = %d %s", w.Code, w.Body.String())
	}
	if w := f.do(httptest.NewRequest(http.MethodGet, "/static/app.js", nil)); w.Code != http.StatusOK {
		t.Errorf("static = %d", w.Code)
	}

	bare := newFixture(t, config.ServerConfig{})
	if w := bare.do(httptest.NewRequest(http.MethodGet, "/", nil)); w.Code != http.StatusNotFound {
		t.Errorf("index without UI = %d", w.Code)
	}
}
