package internal

import "time"

// ImageInput is the image attached to a chat turn as sent by the browser.
// Data is either a data URL ("data:image/png;base64,...") or bare base64.
type ImageInput struct {
	Format string `json:"format"`
	Data   string `json:"data" binding:"required"`
}

type ChatRequest struct {
	Message string      `json:"message"`
	Image   *ImageInput `json:"image"`
	Bot     string      `json:"bot"`
}

type ChatResponse struct {
	Response string `json:"response"`
}

type TranscribeResponse struct {
	Transcription string `json:"transcription"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

// WeatherErrorResponse keeps the legacy weather endpoint's error shape.
type WeatherErrorResponse struct {
	Error   string `json:"error"`
	Success bool   `json:"success"`
}

// WeatherQuery binds GET /api/weather.
type WeatherQuery struct {
	Location string `form:"location"`
	Lat      string `form:"lat" binding:"omitempty,latitude"`
	Lon      string `form:"lon" binding:"omitempty,longitude"`
	Type     string `form:"type" binding:"omitempty,oneof=current forecast"`
}

// --- Bots ---
type BotInfo struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Model     string `json:"model"`
	Available bool   `json:"available"`
}

type BotList struct {
	Default string    `json:"default"`
	Bots    []BotInfo `json:"bots"`
}

// --- Exchange ledger ---
type ExchangeKind string

const (
	ExchangeChat       ExchangeKind = "chat"
	ExchangeTranscribe ExchangeKind = "transcribe"
)

type Exchange struct {
	ID        int64        `json:"id" db:"id"`
	Kind      ExchangeKind `json:"kind" db:"kind"`
	Bot       string       `json:"bot" db:"bot"`
	Model     string       `json:"model" db:"model"`
	Status    int          `json:"status" db:"status"`
	LatencyMS int64        `json:"latency_ms" db:"latency_ms"`
	Error     string       `json:"error,omitempty" db:"error"`
	CreatedAt time.Time    `json:"created_at" db:"created_at"`
}

type ExchangeList struct {
	Exchanges []Exchange `json:"exchanges"`
}
