package audio

import (
	"fmt"
	"os"
	"path/filepath"
)

// Scratch is a per-request working directory for intermediate audio files.
type Scratch struct {
	Dir string
}

// NewScratch creates a unique directory under baseDir (the OS temp dir when empty).
func NewScratch(baseDir string) (*Scratch, error) {
	dir, err := os.MkdirTemp(baseDir, "eubyte-audio-*")
	if err != nil {
		return nil, fmt.Errorf("create scratch dir: %w", err)
	}
	return &Scratch{Dir: dir}, nil
}

func (s *Scratch) Path(name string) string {
	return filepath.Join(s.Dir, name)
}

// WriteFile stores data under name and returns the full path.
func (s *Scratch) WriteFile(name string, data []byte) (string, error) {
	p := s.Path(name)
	if err := os.WriteFile(p, data, 0o600); err != nil {
		return "", fmt.Errorf("write scratch file %s: %w", name, err)
	}
	return p, nil
}

// Release removes the directory and everything in it.
func (s *Scratch) Release() error {
	if s == nil || s.Dir == "" {
		return nil
	}
	return os.RemoveAll(s.Dir)
}
