package audio

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// ConvertOptions tunes one transcoding attempt.
type ConvertOptions struct {
	// InputFormat forces the demuxer (ffmpeg -f); empty lets ffmpeg probe the input.
	InputFormat string
	SampleRate  int
	Channels    int
	// Tolerant asks the converter to skip over corrupt frames instead of failing.
	Tolerant bool
}

// Converter transcodes the file at in into a 16-bit PCM WAV file at out.
type Converter interface {
	Convert(ctx context.Context, in, out string, opts ConvertOptions) error
}

// FFmpeg runs the ffmpeg binary found at Path. A positive Timeout bounds each run;
// the process is killed when it expires.
type FFmpeg struct {
	Path    string
	Timeout time.Duration
}

func (f FFmpeg) Convert(ctx context.Context, in, out string, opts ConvertOptions) error {
	args := []string{"-hide_banner", "-loglevel", "error", "-nostdin", "-y"}
	if opts.Tolerant {
		args = append(args, "-err_detect", "ignore_err", "-fflags", "+discardcorrupt")
	}
	if opts.InputFormat != "" {
		args = append(args, "-f", opts.InputFormat)
	}
	args = append(args, "-i", in, "-vn", "-acodec", "pcm_s16le")
	if opts.Channels > 0 {
		args = append(args, "-ac", strconv.Itoa(opts.Channels))
	}
	if opts.SampleRate > 0 {
		args = append(args, "-ar", strconv.Itoa(opts.SampleRate))
	}
	args = append(args, "-f", "wav", out)

	if f.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, f.Path, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if cerr := ctx.Err(); cerr != nil {
			return fmt.Errorf("ffmpeg: %w", cerr)
		}
		msg := strings.TrimSpace(stderr.String())
		if i := strings.LastIndexByte(msg, '\n'); i >= 0 {
			msg = msg[i+1:]
		}
		return fmt.Errorf("ffmpeg: %w: %s", err, msg)
	}
	return nil
}
