package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// Stager turns locations into local files. Remote inputs are downloaded into TempDir before
// the run; remote outputs are written to TempDir and uploaded by the returned publish func.
type Stager struct {
	Backends map[Scheme]Backend
	TempDir  string

	temps []string
}

func NewStager(tempDir string, s3 Backend) *Stager {
	s := &Stager{
		Backends: map[Scheme]Backend{SchemeFile: POSIXBackend{}},
		TempDir:  tempDir,
	}
	if s3 != nil {
		s.Backends[SchemeS3] = s3
	}
	return s
}

func (s *Stager) backend(loc Location) (Backend, error) {
	b, ok := s.Backends[loc.Scheme]
	if !ok || b == nil {
		return nil, fmt.Errorf("%w: no backend configured for %s", ErrBadLocation, loc)
	}
	return b, nil
}

func (s *Stager) tempPath(kind string) string {
	dir := s.TempDir
	if dir == "" {
		dir = os.TempDir()
	}
	p := filepath.Join(dir, fmt.Sprintf("huffpar-%s-%s", kind, uuid.NewString()))
	s.temps = append(s.temps, p)
	return p
}

// Input returns a local path with the content of loc.
func (s *Stager) Input(ctx context.Context, loc Location) (string, error) {
	if !loc.IsRemote() {
		return loc.Path, nil
	}
	b, err := s.backend(loc)
	if err != nil {
		return "", err
	}
	tmp := s.tempPath("in")
	if err := b.Download(ctx, loc, tmp); err != nil {
		return "", err
	}
	return tmp, nil
}

// Output returns the local path to write and a func that publishes it to loc once the
// file is complete.
func (s *Stager) Output(loc Location) (string, func(context.Context) error, error) {
	if !loc.IsRemote() {
		return loc.Path, func(context.Context) error { return nil }, nil
	}
	b, err := s.backend(loc)
	if err != nil {
		return "", nil, err
	}
	tmp := s.tempPath("out")
	return tmp, func(ctx context.Context) error { return b.Upload(ctx, tmp, loc) }, nil
}

// Cleanup removes every temporary file handed out so far.
func (s *Stager) Cleanup() {
	for _, p := range s.temps {
		if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			logger.Warnf("Failed to remove staging file %s: %v", p, err)
		}
	}
	s.temps = nil
}
