package audio

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

const (
	// TargetBitDepth is the sample size handed to the recognizer.
	TargetBitDepth = 16
	// SilenceThreshold is the peak amplitude (16-bit scale, roughly -44 dBFS) under
	// which decoded audio counts as silent.
	SilenceThreshold = 200

	wavFormatPCM = 1
)

var (
	errNotWAV    = errors.New("not a RIFF/WAVE stream")
	errNoSamples = errors.New("decoded stream has no samples")
)

func decodeWAV(r io.ReadSeeker) (*goaudio.IntBuffer, error) {
	d := wav.NewDecoder(r)
	if !d.IsValidFile() {
		return nil, errNotWAV
	}
	buf, err := d.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("decode wav: %w", err)
	}
	if buf == nil || len(buf.Data) == 0 || buf.Format == nil || buf.Format.NumChannels < 1 {
		return nil, errNoSamples
	}
	return buf, nil
}

func readWAVFile(path string) (*goaudio.IntBuffer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return decodeWAV(f)
}

// writeWAV stores a mono 16-bit buffer as a canonical PCM WAV file.
func writeWAV(path string, buf *goaudio.IntBuffer) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	enc := wav.NewEncoder(f, buf.Format.SampleRate, TargetBitDepth, buf.Format.NumChannels, wavFormatPCM)
	if err := enc.Write(buf); err != nil {
		f.Close()
		return fmt.Errorf("encode wav: %w", err)
	}
	if err := enc.Close(); err != nil {
		f.Close()
		return fmt.Errorf("finalize wav: %w", err)
	}
	return f.Close()
}

// toMono16 averages interleaved channels and rescales samples to 16 bits.
func toMono16(buf *goaudio.IntBuffer) *goaudio.IntBuffer {
	ch := buf.Format.NumChannels
	depth := buf.SourceBitDepth
	if depth == 0 {
		depth = TargetBitDepth
	}

	frames := len(buf.Data) / ch
	out := make([]int, frames)
	for i := 0; i < frames; i++ {
		sum := 0
		for c := 0; c < ch; c++ {
			sum += rescale(buf.Data[i*ch+c], depth)
		}
		out[i] = sum / ch
	}
	return &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: 1, SampleRate: buf.Format.SampleRate},
		Data:           out,
		SourceBitDepth: TargetBitDepth,
	}
}

func rescale(v, depth int) int {
	switch {
	case depth == 8:
		// 8-bit WAV samples are unsigned
		return (v - 128) << 8
	case depth > TargetBitDepth:
		return v >> (depth - TargetBitDepth)
	case depth < TargetBitDepth:
		return v << (TargetBitDepth - depth)
	default:
		return v
	}
}

// floatsToBuffer converts interleaved [-1, 1] samples to a 16-bit buffer.
func floatsToBuffer(samples []float32, channels, sampleRate int) *goaudio.IntBuffer {
	data := make([]int, len(samples))
	for i, s := range samples {
		v := math.Max(-1, math.Min(1, float64(s)))
		data[i] = int(math.Round(v * math.MaxInt16))
	}
	return &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: channels, SampleRate: sampleRate},
		Data:           data,
		SourceBitDepth: TargetBitDepth,
	}
}

func peak(buf *goaudio.IntBuffer) int {
	p := 0
	for _, v := range buf.Data {
		if v < 0 {
			v = -v
		}
		if v > p {
			p = v
		}
	}
	return p
}

func isSilent(buf *goaudio.IntBuffer) bool {
	return peak(buf) < SilenceThreshold
}
