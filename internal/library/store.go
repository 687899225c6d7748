package library

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog/log"
)

// Store holds the current Catalog snapshot. Readers never block; loads are serialised.
//
// A failed first load leaves the store in a permanent error state until a later load
// succeeds. A failed reload keeps serving the previous snapshot.
type Store struct {
	opts    Options
	current atomic.Pointer[Catalog]
	loadErr atomic.Pointer[loadFailure]

	// loadMu serialises Load. Current never takes it.
	loadMu sync.Mutex
}

type loadFailure struct{ err error }

// NewStore creates a Store for the given dataset options. Nothing is loaded yet.
func NewStore(opts Options) *Store {
	return &Store{opts: opts}
}

// NewStaticStore wraps an already built catalogue.
func NewStaticStore(c *Catalog) *Store {
	s := &Store{}
	s.current.Store(c)
	return s
}

// Load (re)loads the dataset and swaps the snapshot on success.
func (s *Store) Load(ctx context.Context) (*Catalog, error) {
	s.loadMu.Lock()
	defer s.loadMu.Unlock()

	catalog, err := Load(ctx, s.opts)
	if err != nil {
		if s.current.Load() == nil {
			s.loadErr.Store(&loadFailure{err: err})
		}
		log.Error().Err(err).Str("source", s.opts.Source).Msg("Failed to load prompt library")
		return nil, err
	}

	s.current.Store(catalog)
	s.loadErr.Store(nil)
	log.Info().
		Str("source", s.opts.Source).
		Int("prompts", catalog.Count()).
		Str("version", catalog.Version()).
		Msg("Prompt library ready")
	return catalog, nil
}

// Current returns the active snapshot, or the error that prevented the first load.
func (s *Store) Current() (*Catalog, error) {
	if c := s.current.Load(); c != nil {
		return c, nil
	}
	if f := s.loadErr.Load(); f != nil {
		return nil, f.err
	}
	return nil, ErrNotLoaded
}
