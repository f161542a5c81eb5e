// Package weather looks up current conditions and a short forecast for a place named
// in chat text, and narrates them for the weather bot's prompt.
package weather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/edubyte/eubyte-backend/internal/config"
)

var (
	// ErrNotConfigured is returned when no weather API key is set.
	ErrNotConfigured = errors.New("weather provider not configured")
	// ErrUpstream wraps non-2xx answers and undecodable bodies.
	ErrUpstream = errors.New("weather provider error")
	// ErrInvalidQuery is returned for lookups without a location or coordinates.
	ErrInvalidQuery = errors.New("location or coordinates required")
	// ErrTimeout marks requests that ran out of time in transport.
	ErrTimeout = errors.New("weather provider timeout")
)

// StatusError carries the upstream status so passthrough callers can relay it.
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("weather provider returned %d: %s", e.StatusCode, e.Message)
}

func (e *StatusError) Unwrap() error { return ErrUpstream }

// Client talks to an OpenWeatherMap compatible API ("weather" and "forecast"
// endpoints, metric units).
type Client struct {
	baseURL    string
	apiKey     string
	maxRetries uint64
	http       *http.Client
	log        *slog.Logger
}

func NewClient(cfg config.WeatherConfig, log *slog.Logger) *Client {
	if log == nil {
		log = slog.Default()
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		maxRetries: cfg.MaxRetries,
		http:       &http.Client{Timeout: cfg.Timeout},
		log:        log.With("component", "weather_client"),
	}
}

func (c *Client) Configured() bool { return c.apiKey != "" }

// Query selects a place either by name or by coordinates.
type Query struct {
	Location string
	Lat      string
	Lon      string
}

func (q Query) values() (url.Values, error) {
	v := url.Values{}
	switch {
	case strings.TrimSpace(q.Location) != "":
		v.Set("q", strings.TrimSpace(q.Location))
	case q.Lat != "" && q.Lon != "":
		v.Set("lat", q.Lat)
		v.Set("lon", q.Lon)
	default:
		return nil, ErrInvalidQuery
	}
	v.Set("units", "metric")
	return v, nil
}

type currentResponse struct {
	Name string `json:"name"`
	Main struct {
		Temp      float64 `json:"temp"`
		FeelsLike float64 `json:"feels_like"`
		Humidity  int     `json:"humidity"`
	} `json:"main"`
	Weather []struct {
		Main        string `json:"main"`
		Description string `json:"description"`
	} `json:"weather"`
	Wind struct {
		Speed float64 `json:"speed"`
	} `json:"wind"`
	Sys struct {
		Country string `json:"country"`
	} `json:"sys"`
}

type forecastResponse struct {
	List []struct {
		Dt    int64  `json:"dt"`
		DtTxt string `json:"dt_txt"`
		Main  struct {
			Temp float64 `json:"temp"`
		} `json:"main"`
		Weather []struct {
			Main string `json:"main"`
		} `json:"weather"`
	} `json:"list"`
}

// Fetch builds a Record for place. The forecast is only requested after the current
// conditions succeeded; a failed forecast keeps the current data.
func (c *Client) Fetch(ctx context.Context, place string) Record {
	rec := Record{Query: place}
	if !c.Configured() {
		rec.Err = ErrNotConfigured
		return rec
	}

	q := Query{Location: place}

	var cur currentResponse
	if err := c.getJSON(ctx, "weather", q, &cur); err != nil {
		c.log.WarnContext(ctx, "Current weather lookup failed", "place", place, "error", err)
		rec.Err = fmt.Errorf("current conditions for %q: %w", place, err)
		return rec
	}

	rec.Current = &Current{
		Temperature: cur.Main.Temp,
		FeelsLike:   cur.Main.FeelsLike,
		Humidity:    cur.Main.Humidity,
		WindSpeed:   cur.Wind.Speed,
		Place:       cur.Name,
		Country:     cur.Sys.Country,
	}
	if len(cur.Weather) > 0 {
		rec.Current.Description = cur.Weather[0].Description
	}
	if rec.Current.Place == "" {
		rec.Current.Place = place
	}

	var fc forecastResponse
	if err := c.getJSON(ctx, "forecast", q, &fc); err != nil {
		c.log.WarnContext(ctx, "Forecast lookup failed, keeping current conditions", "place", place, "error", err)
		rec.ForecastErr = fmt.Errorf("forecast for %q: %w", place, err)
		return rec
	}

	entries := make([]ForecastEntry, 0, len(fc.List))
	for _, item := range fc.List {
		e := ForecastEntry{Dt: item.Dt, DtTxt: item.DtTxt, Temp: item.Main.Temp}
		if len(item.Weather) > 0 {
			e.Weather = item.Weather[0].Main
		}
		entries = append(entries, e)
	}
	rec.Forecast = SummarizeForecast(entries, ForecastDays)

	c.log.DebugContext(ctx, "Weather fetched", "place", place, "forecast_days", len(rec.Forecast))
	return rec
}

// Raw performs one lookup ("weather" for current, "forecast") and returns the upstream
// body untouched. Non-2xx answers come back as *StatusError together with the body.
func (c *Client) Raw(ctx context.Context, kind string, q Query) ([]byte, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}
	return c.get(ctx, endpointFor(kind), q)
}

func endpointFor(kind string) string {
	if kind == "forecast" {
		return "forecast"
	}
	return "weather"
}

func (c *Client) getJSON(ctx context.Context, endpoint string, q Query, out any) error {
	body, err := c.get(ctx, endpoint, q)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%w: decode %s response: %v", ErrUpstream, endpoint, err)
	}
	return nil
}

// get issues an idempotent GET with bounded exponential backoff. Transport errors,
// 429 and 5xx are retried; any other non-2xx is permanent.
func (c *Client) get(ctx context.Context, endpoint string, q Query) ([]byte, error) {
	params, err := q.values()
	if err != nil {
		return nil, err
	}
	params.Set("appid", c.apiKey)
	target := c.baseURL + "/" + endpoint + "?" + params.Encode()

	var body []byte
	op := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
		if err != nil {
			return backoff.Permanent(transportError(endpoint, err))
		}
		resp, err := c.http.Do(req)
		if err != nil {
			return transportError(endpoint, err)
		}
		defer resp.Body.Close()

		b, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("read %s response: %w", endpoint, err)
		}
		body = b

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			serr := &StatusError{StatusCode: resp.StatusCode, Message: upstreamMessage(b, resp.Status)}
			if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
				return serr
			}
			return backoff.Permanent(serr)
		}
		return nil
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 200 * time.Millisecond
	policy.MaxInterval = 2 * time.Second
	b := backoff.WithContext(backoff.WithMaxRetries(policy, c.maxRetries), ctx)

	notify := func(err error, wait time.Duration) {
		c.log.DebugContext(ctx, "Retrying weather request", "endpoint", endpoint, "wait", wait, "error", err)
	}
	if err := backoff.RetryNotify(op, b, notify); err != nil {
		return body, err
	}
	return body, nil
}

// transportError drops the request URL from err: it carries the appid key.
func transportError(endpoint string, err error) error {
	var ue *url.Error
	if !errors.As(err, &ue) {
		return fmt.Errorf("request %s: %w", endpoint, err)
	}
	if ue.Timeout() {
		return fmt.Errorf("%w: request %s: %w", ErrTimeout, endpoint, ue.Err)
	}
	return fmt.Errorf("request %s: %w", endpoint, ue.Err)
}

// upstreamMessage extracts OpenWeatherMap's {"message": "..."} error text.
func upstreamMessage(body []byte, status string) string {
	var e struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &e); err == nil && e.Message != "" {
		return e.Message
	}
	return status
}
