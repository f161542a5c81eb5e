package audio

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/gabriel-vasile/mimetype"
	goaudio "github.com/go-audio/audio"
	"github.com/jfreymuth/oggvorbis"
)

// Decoder is one format hypothesis: it turns raw upload bytes into PCM or fails.
type Decoder interface {
	Name() string
	Decode(ctx context.Context, raw []byte, scratch *Scratch) (*goaudio.IntBuffer, error)
}

// ErrFormatMismatch is returned by a hypothesis whose container signature does not match.
var ErrFormatMismatch = errors.New("container signature mismatch")

// LastResortSampleRate is what the error-tolerant conversion forces.
const LastResortSampleRate = 16000

// Hypotheses returns the decoders in the order they are tried: browser recorders
// mostly send WebM, then Ogg, then plain WAV; anything else goes through ffmpeg's
// probing and finally an error-tolerant ffmpeg pass.
func Hypotheses(conv Converter) []Decoder {
	return []Decoder{
		webmDecoder{conv: conv},
		oggDecoder{},
		wavDecoder{},
		autoDecoder{conv: conv},
		lastResortDecoder{conv: conv},
	}
}

type webmDecoder struct{ conv Converter }

func (webmDecoder) Name() string { return "webm" }

func (d webmDecoder) Decode(ctx context.Context, raw []byte, scratch *Scratch) (*goaudio.IntBuffer, error) {
	if mt := mimetype.Detect(raw); !mt.Is("video/webm") {
		return nil, fmt.Errorf("%w: detected %s", ErrFormatMismatch, mt.String())
	}
	return convertAndRead(ctx, d.conv, raw, scratch, "webm", ".webm", ConvertOptions{InputFormat: "webm"})
}

type oggDecoder struct{}

func (oggDecoder) Name() string { return "ogg" }

func (oggDecoder) Decode(_ context.Context, raw []byte, _ *Scratch) (*goaudio.IntBuffer, error) {
	if !bytes.HasPrefix(raw, []byte("OggS")) {
		return nil, fmt.Errorf("%w: no OggS capture pattern", ErrFormatMismatch)
	}
	samples, format, err := oggvorbis.ReadAll(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("decode ogg vorbis: %w", err)
	}
	if len(samples) == 0 || format.Channels < 1 {
		return nil, errNoSamples
	}
	return floatsToBuffer(samples, format.Channels, format.SampleRate), nil
}

type wavDecoder struct{}

func (wavDecoder) Name() string { return "wav" }

func (wavDecoder) Decode(_ context.Context, raw []byte, _ *Scratch) (*goaudio.IntBuffer, error) {
	return decodeWAV(bytes.NewReader(raw))
}

type autoDecoder struct{ conv Converter }

func (autoDecoder) Name() string { return "auto" }

func (d autoDecoder) Decode(ctx context.Context, raw []byte, scratch *Scratch) (*goaudio.IntBuffer, error) {
	ext := mimetype.Detect(raw).Extension()
	if ext == "" {
		ext = ".bin"
	}
	return convertAndRead(ctx, d.conv, raw, scratch, "auto", ext, ConvertOptions{})
}

type lastResortDecoder struct{ conv Converter }

func (lastResortDecoder) Name() string { return "ffmpeg" }

func (d lastResortDecoder) Decode(ctx context.Context, raw []byte, scratch *Scratch) (*goaudio.IntBuffer, error) {
	return convertAndRead(ctx, d.conv, raw, scratch, "ffmpeg", ".raw", ConvertOptions{
		SampleRate: LastResortSampleRate,
		Channels:   1,
		Tolerant:   true,
	})
}

// convertAndRead writes raw to scratch, runs the converter and decodes its WAV output.
func convertAndRead(ctx context.Context, conv Converter, raw []byte, scratch *Scratch, name, ext string, opts ConvertOptions) (*goaudio.IntBuffer, error) {
	if conv == nil {
		return nil, errors.New("no converter configured")
	}
	in, err := scratch.WriteFile(name+"-in"+ext, raw)
	if err != nil {
		return nil, err
	}
	out := scratch.Path(name + "-out.wav")
	if err := conv.Convert(ctx, in, out, opts); err != nil {
		return nil, err
	}
	buf, err := readWAVFile(out)
	if err != nil {
		return nil, fmt.Errorf("read converted audio: %w", err)
	}
	return buf, nil
}
