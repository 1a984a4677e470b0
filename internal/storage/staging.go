// Package storage implements the local staging area for contact-form
// attachments. Files live in a flat directory between multipart parse and
// the explicit post-send release call; a crash in between leaves orphans,
// which is accepted for this workload.
//
// Stored names are generated handles (uuid prefix + sanitized base name)
// rather than the client-supplied filename, so two simultaneous uploads of
// "invoice.pdf" never collide and path traversal via the name is impossible.
// The handle is returned to the client, which quotes it back on DELETE.
package storage

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ErrBadHandle is returned when a release handle contains path separators
// or otherwise cannot name a staged file.
var ErrBadHandle = errors.New("invalid staging handle")

// StagedFile identifies one staged attachment. OriginalName is kept only as
// the display name for the mail attachment; Handle is the stored filename
// and the key for Release.
type StagedFile struct {
	Handle       string
	OriginalName string
	Path         string
}

// Staging writes and deletes staged attachments under a single directory.
type Staging struct {
	dir string
	log zerolog.Logger
}

// NewStaging creates the staging directory if needed and returns a Staging
// rooted there.
func NewStaging(dir string, log zerolog.Logger) (*Staging, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("staging directory must not be empty")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create staging directory: %w", err)
	}
	return &Staging{
		dir: dir,
		log: log.With().Str("component", "upload-staging").Logger(),
	}, nil
}

// Stage writes the content of r to the staging directory under a generated
// handle and returns the staged file's identity.
func (s *Staging) Stage(originalName string, r io.Reader) (StagedFile, error) {
	display := sanitizeName(originalName)
	handle := uuid.NewString()[:8] + "_" + display
	path := filepath.Join(s.dir, handle)

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return StagedFile{}, fmt.Errorf("stage %q: %w", display, err)
	}
	defer f.Close()

	n, err := io.Copy(f, r)
	if err != nil {
		// Half-written file is useless; best-effort cleanup.
		os.Remove(path)
		return StagedFile{}, fmt.Errorf("stage %q: %w", display, err)
	}

	s.log.Debug().Str("handle", handle).Int64("bytes", n).Msg("file staged")
	return StagedFile{Handle: handle, OriginalName: display, Path: path}, nil
}

// Release deletes the staged file named by handle. Every failure, including
// a missing file, is reported as an error; callers do not distinguish
// not-found from other filesystem failures.
func (s *Staging) Release(handle string) error {
	if !validHandle(handle) {
		return ErrBadHandle
	}
	if err := os.Remove(filepath.Join(s.dir, handle)); err != nil {
		return fmt.Errorf("release %q: %w", handle, err)
	}
	s.log.Debug().Str("handle", handle).Msg("file released")
	return nil
}

// validHandle rejects anything that could escape the staging directory.
func validHandle(handle string) bool {
	if handle == "" || handle == "." || handle == ".." {
		return false
	}
	if strings.ContainsAny(handle, `/\`) {
		return false
	}
	return filepath.Base(handle) == handle
}

// sanitizeName reduces a client-supplied filename to a safe base name.
func sanitizeName(name string) string {
	// Normalize Windows separators before taking the base.
	name = strings.ReplaceAll(name, `\`, "/")
	name = filepath.Base(name)
	if name == "." || name == ".." || name == "/" || name == "" {
		return "attachment"
	}
	return name
}
