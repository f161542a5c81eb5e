package server

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/edubyte/eubyte-backend/internal"
	"github.com/edubyte/eubyte-backend/internal/audio"
	"github.com/edubyte/eubyte-backend/internal/provider"
	"github.com/edubyte/eubyte-backend/internal/store"
	"github.com/edubyte/eubyte-backend/internal/weather"
)

func (s *Server) chat(c *gin.Context) {
	var req internal.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		status := http.StatusBadRequest
		if isTooLarge(err) {
			status = http.StatusRequestEntityTooLarge
		}
		c.JSON(status, internal.ErrorResponse{Error: "invalid request body: " + err.Error()})
		return
	}

	turn := provider.Turn{Text: req.Message}
	if req.Image != nil {
		img, err := provider.DecodeImage(*req.Image)
		if err != nil {
			c.JSON(http.StatusBadRequest, internal.ErrorResponse{Error: err.Error()})
			return
		}
		turn.Image = img
	}

	reply, err := s.router.Route(c.Request.Context(), req.Bot, turn)
	ex := internal.Exchange{
		Kind:      internal.ExchangeChat,
		Bot:       string(reply.Bot),
		Model:     reply.Model,
		LatencyMS: reply.Latency.Milliseconds(),
	}
	if err != nil {
		ex.Status = chatStatus(err)
		ex.Error = err.Error()
		s.record(c, ex)
		c.JSON(ex.Status, internal.ErrorResponse{Error: err.Error()})
		return
	}

	ex.Status = http.StatusOK
	s.record(c, ex)
	c.JSON(http.StatusOK, internal.ChatResponse{Response: reply.HTML})
}

// chatStatus maps router errors onto HTTP statuses.
func chatStatus(err error) int {
	switch {
	case errors.Is(err, provider.ErrEmptyTurn),
		errors.Is(err, provider.ErrUnknownBot),
		errors.Is(err, provider.ErrInvalidImage):
		return http.StatusBadRequest
	case errors.Is(err, provider.ErrBotUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, provider.ErrTimeout):
		return http.StatusGatewayTimeout
	case errors.Is(err, provider.ErrUpstream):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) transcribe(c *gin.Context) {
	fh, err := c.FormFile("audio")
	if err != nil {
		if isTooLarge(err) {
			c.JSON(http.StatusRequestEntityTooLarge, internal.ErrorResponse{Error: "audio upload too large"})
			return
		}
		c.JSON(http.StatusBadRequest, internal.ErrorResponse{Error: "No audio file provided"})
		return
	}
	f, err := fh.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, internal.ErrorResponse{Error: "could not read audio upload: " + err.Error()})
		return
	}
	raw, err := io.ReadAll(f)
	f.Close()
	if err != nil {
		c.JSON(http.StatusBadRequest, internal.ErrorResponse{Error: "could not read audio upload: " + err.Error()})
		return
	}

	res := s.transcriber.Transcribe(c.Request.Context(), raw)
	status := transcribeStatus(res.Kind)

	ex := internal.Exchange{Kind: internal.ExchangeTranscribe, Model: res.Format, Status: status}
	if status != http.StatusOK {
		ex.Error = res.Text
	}
	s.record(c, ex)

	if status != http.StatusOK {
		c.JSON(status, internal.ErrorResponse{Error: res.Text})
		return
	}
	c.JSON(http.StatusOK, internal.TranscribeResponse{Transcription: res.Text})
}

func transcribeStatus(k audio.Kind) int {
	switch k {
	case audio.KindOK, audio.KindUnintelligible:
		return http.StatusOK
	case audio.KindEmpty:
		return http.StatusBadRequest
	case audio.KindFormat:
		return http.StatusUnprocessableEntity
	case audio.KindTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusBadGateway
	}
}

func (s *Server) weatherLookup(c *gin.Context) {
	var q internal.WeatherQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, internal.WeatherErrorResponse{Error: err.Error()})
		return
	}
	if q.Location == "" && (q.Lat == "" || q.Lon == "") {
		c.JSON(http.StatusBadRequest, internal.WeatherErrorResponse{Error: "Location or coordinates required"})
		return
	}
	kind := q.Type
	if kind == "" {
		kind = "current"
	}

	body, err := s.weather.Raw(c.Request.Context(), kind, weather.Query{Location: q.Location, Lat: q.Lat, Lon: q.Lon})
	if err != nil {
		var serr *weather.StatusError
		switch {
		case errors.As(err, &serr):
			c.JSON(serr.StatusCode, internal.WeatherErrorResponse{Error: serr.Message})
		case errors.Is(err, weather.ErrTimeout), errors.Is(err, context.DeadlineExceeded):
			c.JSON(http.StatusGatewayTimeout, internal.WeatherErrorResponse{Error: err.Error()})
		case errors.Is(err, weather.ErrNotConfigured):
			c.JSON(http.StatusServiceUnavailable, internal.WeatherErrorResponse{Error: err.Error()})
		case errors.Is(err, weather.ErrInvalidQuery):
			c.JSON(http.StatusBadRequest, internal.WeatherErrorResponse{Error: err.Error()})
		default:
			s.log.WarnContext(c.Request.Context(), "Weather passthrough failed", "error", err)
			c.JSON(http.StatusBadGateway, internal.WeatherErrorResponse{Error: err.Error()})
		}
		return
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", body)
}

func (s *Server) bots(c *gin.Context) {
	c.JSON(http.StatusOK, s.router.Bots())
}

func (s *Server) exchanges(c *gin.Context) {
	limit := store.DefaultRecentLimit
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			c.JSON(http.StatusBadRequest, internal.ErrorResponse{Error: "limit must be a positive integer"})
			return
		}
		limit = n
	}
	if s.store == nil {
		c.JSON(http.StatusOK, internal.ExchangeList{Exchanges: []internal.Exchange{}})
		return
	}
	list, err := s.store.Recent(c.Request.Context(), limit)
	if err != nil {
		s.log.ErrorContext(c.Request.Context(), "Failed to read exchanges", "error", err)
		c.JSON(http.StatusInternalServerError, internal.ErrorResponse{Error: "could not read exchanges"})
		return
	}
	if list == nil {
		list = []internal.Exchange{}
	}
	c.JSON(http.StatusOK, internal.ExchangeList{Exchanges: list})
}

func isTooLarge(err error) bool {
	var mbe *http.MaxBytesError
	return errors.As(err, &mbe)
}
