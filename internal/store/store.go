// Package store persists timeline records and an append-only log of the
// writes made to them in a single SQLite file.
package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const dbFileName = "planline.sqlite"

var (
	ErrNotFound = errors.New("timeline not found")
	ErrNoFields = errors.New("no fields to update")
)

// InvalidFieldError reports a rejected field value in a create or update.
type InvalidFieldError struct {
	Field  string
	Reason string
}

func (e InvalidFieldError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Origin identifies who made a write. Source is "api" for the HTTP server and
// "cli" for local commands; the server's watcher only rebroadcasts writes it
// did not make itself.
type Origin struct {
	Actor  string
	Source string
}

const (
	SourceAPI = "api"
	SourceCLI = "cli"
)

func (o Origin) normalized() Origin {
	o.Actor = strings.TrimSpace(o.Actor)
	if o.Actor == "" {
		o.Actor = "anonymous"
	}
	o.Source = strings.TrimSpace(o.Source)
	if o.Source == "" {
		o.Source = SourceCLI
	}
	return o
}

type Store struct {
	Dir string
}

var nowFunc = time.Now

// DefaultDir is <config dir>/data.
func DefaultDir() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "data"), nil
}

func (s Store) Ensure() error {
	if strings.TrimSpace(s.Dir) == "" {
		return errors.New("store dir is empty")
	}
	return os.MkdirAll(s.Dir, 0o755)
}

// Path is the SQLite file backing the store.
func (s Store) Path() string {
	return filepath.Join(filepath.Clean(s.Dir), dbFileName)
}
