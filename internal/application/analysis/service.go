package analysis

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/ericlunden/foodlab-core/internal/application"
	appcache "github.com/ericlunden/foodlab-core/internal/application/cache"
	domain "github.com/ericlunden/foodlab-core/internal/domain/analysis"
	domcache "github.com/ericlunden/foodlab-core/internal/domain/cache"
	"github.com/ericlunden/foodlab-core/internal/domain/faults"
)

// Service orchestrates the resolve pipeline: fingerprint, cache lookup, and
// on a miss the producer call followed by normalization and insert. Designed
// to be used concurrently; the cache store carries its own lock and that lock
// is never held while a producer call is in flight.
type Service struct {
	Cache  *appcache.Store
	Clock  application.Clock
	Faults faults.Repository // optional fault audit, may be nil
	Logger zerolog.Logger
}

// Resolve returns the normalized analysis for the given input identity.
//
// A cache hit is returned as-is: cached records are already normalized and
// re-normalizing them would be wasted work. On a miss the producer runs
// detached from the caller's cancellation — if the caller abandons the
// context mid-flight, a successfully completed producer result is still
// normalized and cached in the background; only delivery to the abandoned
// caller is dropped. Producer failures are never cached.
func (s *Service) Resolve(ctx context.Context, id domcache.Identity, scanType, inputMethod string, producer domain.Producer) (domain.NormalizedAnalysis, error) {
	key := s.Cache.ComputeKey(id)

	entry, err := s.Cache.Lookup(ctx, key)
	if err != nil {
		return domain.NormalizedAnalysis{}, err
	}
	if entry != nil {
		s.Logger.Debug().Str("key", key).Msg("cache hit")
		return entry.Analysis, nil
	}

	type outcome struct {
		normalized domain.NormalizedAnalysis
		err        error
	}
	done := make(chan outcome, 1)

	prodCtx := context.WithoutCancel(ctx)
	go func() {
		raw, perr := producer.Produce(prodCtx)
		if perr != nil {
			perr = s.providerFailure(prodCtx, key, scanType, inputMethod, perr)
			done <- outcome{err: perr}
			return
		}

		normalized := domain.Normalize(raw)
		if _, ierr := s.Cache.Insert(prodCtx, key, normalized, domcache.Tags{ScanType: scanType, InputMethod: inputMethod}); ierr != nil {
			done <- outcome{err: ierr}
			return
		}
		done <- outcome{normalized: normalized}
	}()

	select {
	case <-ctx.Done():
		return domain.NormalizedAnalysis{}, ctx.Err()
	case out := <-done:
		return out.normalized, out.err
	}
}

// Lookup exposes a direct cache read by key.
func (s *Service) Lookup(ctx context.Context, key string) (*domcache.Entry, error) {
	return s.Cache.Lookup(ctx, key)
}

// ListAll returns a fresh snapshot of the cached history in the given order.
func (s *Service) ListAll(ctx context.Context, order domcache.Sort) ([]domcache.Entry, error) {
	return s.Cache.ListAll(ctx, order)
}

// SetFavorite toggles the favorite flag on a cached entry.
func (s *Service) SetFavorite(ctx context.Context, key string, favorite bool) error {
	return s.Cache.SetFavorite(ctx, key, favorite)
}

// Delete removes a cached entry.
func (s *Service) Delete(ctx context.Context, key string) error {
	return s.Cache.Delete(ctx, key)
}

// ComputeKey exposes the deterministic content fingerprint.
func (s *Service) ComputeKey(id domcache.Identity) string {
	return s.Cache.ComputeKey(id)
}

// LatestFaults lists recent provider faults, newest first.
func (s *Service) LatestFaults(ctx context.Context, limit int) ([]*faults.Fault, error) {
	if s.Faults == nil {
		return nil, nil
	}
	return s.Faults.Latest(ctx, limit)
}

// providerFailure normalizes a producer error to a ProviderError and records
// it in the fault audit, best effort.
func (s *Service) providerFailure(ctx context.Context, key, scanType, inputMethod string, err error) error {
	var pe *domain.ProviderError
	if !errors.As(err, &pe) {
		err = &domain.ProviderError{Op: "produce", Err: err}
	}

	s.Logger.Warn().Err(err).Str("key", key).Str("input_method", inputMethod).Msg("producer failed")

	if s.Faults != nil {
		fault := &faults.Fault{
			Key:         key,
			ScanType:    scanType,
			InputMethod: inputMethod,
			Message:     err.Error(),
			CreatedAt:   s.now(),
		}
		if serr := s.Faults.Save(ctx, fault); serr != nil {
			s.Logger.Warn().Err(serr).Msg("fault audit save failed")
		}
	}
	return err
}

func (s *Service) now() time.Time {
	if s.Clock != nil {
		return s.Clock.Now()
	}
	return time.Now()
}
