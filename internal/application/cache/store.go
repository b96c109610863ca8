package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/ericlunden/foodlab-core/internal/application"
	"github.com/ericlunden/foodlab-core/internal/domain/analysis"
	domain "github.com/ericlunden/foodlab-core/internal/domain/cache"
)

// DefaultTTL is the age after which a cached analysis expires.
const DefaultTTL = 30 * 24 * time.Hour

// Store owns the set of previously computed analyses, keyed by content
// fingerprint. Persistence is whole-snapshot: every mutating operation reads
// all blobs, applies its delta in memory and writes all blobs back, so the
// backend's per-call atomicity is inherited verbatim. Readers and writers
// serialize on one mutex; safe for concurrent use.
//
// Expiry is lazy: entries past the TTL are deleted when observed by Lookup
// or ListAll, never by a background sweep.
type Store struct {
	backend domain.Backend
	clock   application.Clock
	ttl     time.Duration
	logger  zerolog.Logger

	mu sync.Mutex
}

// New builds a Store around the given backend and clock. A non-positive ttl
// falls back to DefaultTTL.
func New(backend domain.Backend, clock application.Clock, ttl time.Duration, logger zerolog.Logger) *Store {
	if clock == nil {
		clock = application.SystemClock{}
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Store{
		backend: backend,
		clock:   clock,
		ttl:     ttl,
		logger:  logger.With().Str("component", "cachestore").Logger(),
	}
}

// ComputeKey returns the deterministic content fingerprint for an identity.
func (s *Store) ComputeKey(id domain.Identity) string { return id.CacheKey() }

// Lookup returns the entry for key if present and within the TTL. An expired
// entry is deleted as a side effect of being observed and reported as a miss.
// A miss is (nil, nil); only backend faults are errors.
func (s *Store) Lookup(ctx context.Context, key string) (*domain.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, dirty, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	var hit *domain.Entry
	now := s.clock.Now()
	kept := entries[:0]
	for i := range entries {
		e := entries[i]
		if e.Key == key {
			if e.Expired(now, s.ttl) {
				dirty = true
				s.logger.Debug().Str("key", key).Time("created_at", e.CreatedAt).Msg("expired entry dropped on lookup")
				continue
			}
			found := e
			hit = &found
		}
		kept = append(kept, e)
	}

	if dirty {
		if err := s.persist(ctx, kept); err != nil {
			return nil, err
		}
	}
	return hit, nil
}

// Insert writes an already-normalized analysis under key. An existing entry
// with the same key is overwritten with a refreshed timestamp, preserving its
// favorite flag. An entry with a different key but the same dedup signature
// (normalized food name + input method) is deleted first, so at most one
// entry per logical food item survives even across key-scheme changes.
func (s *Store) Insert(ctx context.Context, key string, a analysis.NormalizedAnalysis, tags domain.Tags) (*domain.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, _, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	entry := domain.Entry{
		Key:         key,
		FoodName:    a.FoodName,
		Analysis:    a,
		CreatedAt:   s.clock.Now(),
		ScanType:    tags.ScanType,
		InputMethod: tags.InputMethod,
	}

	kept := make([]domain.Entry, 0, len(entries)+1)
	for _, e := range entries {
		if e.Key == key {
			entry.Favorite = e.Favorite
			continue
		}
		if e.DedupSignature() == entry.DedupSignature() {
			s.logger.Debug().Str("old_key", e.Key).Str("new_key", key).Msg("superseding entry with equal dedup signature")
			continue
		}
		kept = append(kept, e)
	}

	// newest first
	kept = append([]domain.Entry{entry}, kept...)
	if err := s.persist(ctx, kept); err != nil {
		return nil, err
	}

	s.logger.Debug().Str("key", key).Str("food", entry.FoodName).Msg("cached analysis")
	return &entry, nil
}

// SetFavorite toggles the favorite flag. Idempotent; unknown keys are a no-op.
func (s *Store) SetFavorite(ctx context.Context, key string, favorite bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, dirty, err := s.load(ctx)
	if err != nil {
		return err
	}
	for i := range entries {
		if entries[i].Key == key && entries[i].Favorite != favorite {
			entries[i].Favorite = favorite
			dirty = true
		}
	}
	if !dirty {
		return nil
	}
	return s.persist(ctx, entries)
}

// Delete removes the entry for key. Idempotent; unknown keys are a no-op.
func (s *Store) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, dirty, err := s.load(ctx)
	if err != nil {
		return err
	}
	kept := entries[:0]
	for _, e := range entries {
		if e.Key == key {
			dirty = true
			continue
		}
		kept = append(kept, e)
	}
	if !dirty {
		return nil
	}
	return s.persist(ctx, kept)
}

// ListAll returns a fresh snapshot of every live entry in the given order.
// Expired entries are dropped (and the drop persisted) as a side effect of
// being observed; a single corrupt blob never aborts the listing.
func (s *Store) ListAll(ctx context.Context, order domain.Sort) ([]domain.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, dirty, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	kept := entries[:0]
	for _, e := range entries {
		if e.Expired(now, s.ttl) {
			dirty = true
			continue
		}
		kept = append(kept, e)
	}
	if dirty {
		if err := s.persist(ctx, kept); err != nil {
			return nil, err
		}
	}

	out := make([]domain.Entry, len(kept))
	copy(out, kept)
	sortEntries(out, order)
	return out, nil
}

// Flush prunes expired entries and writes the snapshot back. Called once at
// shutdown; every mutation already persists synchronously, so this is only a
// final tidy-up.
func (s *Store) Flush(ctx context.Context) error {
	_, err := s.ListAll(ctx, domain.SortNewest)
	return err
}

// load reads and decodes the backend snapshot. The second return is true when
// the in-memory set already differs from what the backend holds (corrupt
// blobs were skipped) and should be written back by the caller.
func (s *Store) load(ctx context.Context) ([]domain.Entry, bool, error) {
	blobs, err := s.backend.ReadAll(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("read cache snapshot: %w", err)
	}

	entries := make([]domain.Entry, 0, len(blobs))
	dirty := false
	for i, blob := range blobs {
		var e domain.Entry
		if err := json.Unmarshal(blob, &e); err != nil {
			decErr := &domain.DecodeError{Position: i, Err: err}
			s.logger.Warn().Err(decErr).Msg("dropping corrupt cache entry")
			dirty = true
			continue
		}
		entries = append(entries, e)
	}
	return entries, dirty, nil
}

func (s *Store) persist(ctx context.Context, entries []domain.Entry) error {
	blobs := make([][]byte, 0, len(entries))
	for i := range entries {
		blob, err := json.Marshal(entries[i])
		if err != nil {
			// Entries are plain data; this only fires on a programming error.
			return fmt.Errorf("encode cache entry %q: %w", entries[i].Key, err)
		}
		blobs = append(blobs, blob)
	}
	if err := s.backend.WriteAll(ctx, blobs); err != nil {
		return fmt.Errorf("write cache snapshot: %w", err)
	}
	return nil
}

func sortEntries(entries []domain.Entry, order domain.Sort) {
	switch order {
	case domain.SortScoreAsc:
		sort.SliceStable(entries, func(i, j int) bool {
			return entries[i].Analysis.OverallScore < entries[j].Analysis.OverallScore
		})
	case domain.SortScoreDesc:
		sort.SliceStable(entries, func(i, j int) bool {
			return entries[i].Analysis.OverallScore > entries[j].Analysis.OverallScore
		})
	case domain.SortName:
		sort.SliceStable(entries, func(i, j int) bool {
			return strings.ToLower(entries[i].FoodName) < strings.ToLower(entries[j].FoodName)
		})
	default: // newest first
		sort.SliceStable(entries, func(i, j int) bool {
			return entries[i].CreatedAt.After(entries[j].CreatedAt)
		})
	}
}
