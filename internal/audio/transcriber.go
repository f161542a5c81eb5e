// Package audio turns uploaded voice recordings of unknown container format into text.
//
// Decoding tries an ordered list of format hypotheses until one yields PCM; the
// result is normalized to mono 16-bit WAV and handed to a speech recognizer. All
// intermediate files live in a per-call scratch directory that is always removed.
package audio

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"path/filepath"
	"strings"
	"time"

	goaudio "github.com/go-audio/audio"
)

// Kind classifies a transcription outcome.
type Kind int

const (
	KindOK Kind = iota
	// KindUnintelligible: audio decoded but contained no recognizable speech.
	KindUnintelligible
	// KindFormat: no hypothesis could decode the upload.
	KindFormat
	// KindService: scratch space or the recognizer failed.
	KindService
	// KindEmpty: no bytes were uploaded.
	KindEmpty
	// KindTimeout: transcoding or recognition ran out of time.
	KindTimeout
)

func (k Kind) String() string {
	switch k {
	case KindOK:
		return "ok"
	case KindUnintelligible:
		return "unintelligible"
	case KindFormat:
		return "format_error"
	case KindService:
		return "service_error"
	case KindEmpty:
		return "empty"
	case KindTimeout:
		return "timeout"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// UnintelligibleText is returned as the transcription when no speech was recognized.
const UnintelligibleText = "Sorry, I could not understand the audio."

// Result is the outcome of one Transcribe call. Format names the hypothesis that
// decoded the audio, if any.
type Result struct {
	Text   string
	Kind   Kind
	Format string
}

type Transcriber struct {
	decoders   []Decoder
	recognizer Recognizer
	scratchDir string
	log        *slog.Logger
}

// NewTranscriber wires the default hypotheses around conv. A nil recognizer makes
// every decodable upload end in KindService.
func NewTranscriber(rec Recognizer, conv Converter, scratchDir string, log *slog.Logger) *Transcriber {
	return NewTranscriberWithDecoders(rec, Hypotheses(conv), scratchDir, log)
}

func NewTranscriberWithDecoders(rec Recognizer, decoders []Decoder, scratchDir string, log *slog.Logger) *Transcriber {
	if log == nil {
		log = slog.Default()
	}
	return &Transcriber{
		decoders:   decoders,
		recognizer: rec,
		scratchDir: scratchDir,
		log:        log.With("component", "transcriber"),
	}
}

// Transcribe never returns an error: every failure is reported through Result.Kind.
func (t *Transcriber) Transcribe(ctx context.Context, raw []byte) Result {
	if len(raw) == 0 {
		return Result{Kind: KindEmpty, Text: "No audio data received."}
	}
	start := time.Now()

	scratch, err := NewScratch(t.scratchDir)
	if err != nil {
		t.log.ErrorContext(ctx, "Scratch space unavailable", "error", err)
		return Result{Kind: KindService, Text: "Audio processing is unavailable: " + err.Error()}
	}
	defer func() {
		if err := scratch.Release(); err != nil {
			t.log.WarnContext(ctx, "Failed to remove scratch dir", "dir", scratch.Dir, "error", err)
		}
	}()

	buf, format, err := t.decode(ctx, raw, scratch)
	if err != nil {
		if isTimeout(err) {
			t.log.WarnContext(ctx, "Audio decoding timed out", "bytes", len(raw), "error", err)
			return Result{Kind: KindTimeout, Text: "Audio processing timed out: " + err.Error()}
		}
		t.log.WarnContext(ctx, "No audio hypothesis matched", "bytes", len(raw), "error", err)
		return Result{Kind: KindFormat, Text: "Could not process the audio format: " + err.Error()}
	}

	mono := toMono16(buf)
	if isSilent(mono) {
		t.log.InfoContext(ctx, "Decoded audio is silent", "format", format, "peak", peak(mono))
		return Result{Kind: KindUnintelligible, Text: UnintelligibleText, Format: format}
	}

	if t.recognizer == nil {
		return Result{Kind: KindService, Text: "Speech recognition is not configured.", Format: format}
	}

	wavPath := filepath.Join(scratch.Dir, "normalized.wav")
	if err := writeWAV(wavPath, mono); err != nil {
		return Result{Kind: KindService, Text: "Could not prepare audio: " + err.Error(), Format: format}
	}

	text, err := t.recognizer.Recognize(ctx, wavPath)
	if err != nil {
		t.log.ErrorContext(ctx, "Speech recognition failed", "format", format, "error", err)
		if isTimeout(err) {
			return Result{Kind: KindTimeout, Text: "Speech recognition timed out: " + err.Error(), Format: format}
		}
		return Result{Kind: KindService, Text: "Speech recognition failed: " + err.Error(), Format: format}
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return Result{Kind: KindUnintelligible, Text: UnintelligibleText, Format: format}
	}

	t.log.InfoContext(ctx, "Audio transcribed",
		"format", format,
		"sample_rate", mono.Format.SampleRate,
		"samples", len(mono.Data),
		"duration_ms", time.Since(start).Milliseconds())
	return Result{Kind: KindOK, Text: text, Format: format}
}

// decode walks the hypotheses in order and returns the first PCM buffer produced.
// The returned error is the last hypothesis's failure.
func (t *Transcriber) decode(ctx context.Context, raw []byte, scratch *Scratch) (*goaudio.IntBuffer, string, error) {
	var lastErr error
	for _, d := range t.decoders {
		if err := ctx.Err(); err != nil {
			return nil, "", err
		}
		buf, err := tryDecode(ctx, d, raw, scratch)
		if err == nil && (buf == nil || buf.Format == nil || buf.Format.NumChannels < 1 || len(buf.Data) == 0) {
			err = errNoSamples
		}
		if err != nil {
			t.log.DebugContext(ctx, "Audio hypothesis failed", "format", d.Name(), "error", err)
			lastErr = fmt.Errorf("%s: %w", d.Name(), err)
			continue
		}
		return buf, d.Name(), nil
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("no decoders configured")
	}
	return nil, "", lastErr
}

func tryDecode(ctx context.Context, d Decoder, raw []byte, scratch *Scratch) (buf *goaudio.IntBuffer, err error) {
	defer func() {
		if r := recover(); r != nil {
			buf, err = nil, fmt.Errorf("decoder panic: %v", r)
		}
	}()
	return d.Decode(ctx, raw, scratch)
}

func isTimeout(err error) bool {
	var ne net.Error
	return errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &ne) && ne.Timeout())
}
