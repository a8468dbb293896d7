package storage

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/cespare/xxhash/v2"

	"github.com/eugenenazirov/coffee-env/internal/environment"
)

// Store provides read access to the published environment record.
type Store interface {
	Environment() environment.Environment
	Document() []byte
	ETag() string
	LoadedAt() time.Time
}

// Snapshot holds a validated environment frozen at construction time.
// It has no setters, so reads need no locking.
type Snapshot struct {
	env      environment.Environment
	document []byte
	etag     string
	loadedAt time.Time
}

// NewSnapshot validates env and freezes it. A nil clock defaults to time.Now in UTC.
func NewSnapshot(env environment.Environment, clock func() time.Time) (*Snapshot, error) {
	if err := env.Validate(); err != nil {
		return nil, fmt.Errorf("invalid environment: %w", err)
	}

	document, err := json.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("encode environment: %w", err)
	}

	if clock == nil {
		clock = func() time.Time {
			return time.Now().UTC()
		}
	}

	return &Snapshot{
		env:      env,
		document: document,
		etag:     strconv.Quote(strconv.FormatUint(xxhash.Sum64(document), 16)),
		loadedAt: clock(),
	}, nil
}

// Environment returns a copy of the stored record.
func (s *Snapshot) Environment() environment.Environment {
	return s.env
}

// ETag returns a strong entity tag for the record's JSON encoding.
func (s *Snapshot) ETag() string {
	return s.etag
}

// LoadedAt reports when the snapshot was taken.
func (s *Snapshot) LoadedAt() time.Time {
	return s.loadedAt
}

// Document returns a copy of the canonical JSON encoding the ETag is computed from.
func (s *Snapshot) Document() []byte {
	out := make([]byte, len(s.document))
	copy(out, s.document)
	return out
}
