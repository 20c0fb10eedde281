// Package services holds the calorie tracking contract: input validation, the one-entry-per-date
// and parent-must-exist invariants, and the "missing is null/false, not an error" read semantics.
package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/cppla/caltrack/repository"
	"github.com/cppla/caltrack/utils"
)

// Options configures a CalorieService. Zero values fall back to no cache and a no-op logger.
type Options struct {
	Cache    Cache
	CacheTTL time.Duration
	Logger   *zap.Logger
}

// CalorieService implements every remote procedure on top of a Repository.
type CalorieService struct {
	repo     repository.Repository
	cache    Cache
	cacheTTL time.Duration
	log      *zap.Logger

	// gen counts invalidations. A read only fills the cache if no mutation
	// invalidated it between the repository read and the fill.
	genMu sync.RWMutex
	gen   uint64
}

// NewCalorieService wires the service. The repository stays owned by the caller.
func NewCalorieService(repo repository.Repository, opts Options) *CalorieService {
	s := &CalorieService{
		repo:     repo,
		cache:    opts.Cache,
		cacheTTL: opts.CacheTTL,
		log:      opts.Logger,
	}
	if s.cache == nil {
		s.cache = noopCache{}
	}
	if s.cacheTTL <= 0 {
		s.cacheTTL = defaultCacheTTL
	}
	if s.log == nil {
		s.log = zap.NewNop()
	}
	return s
}

// Stats returns table counters for the dashboard endpoint.
func (s *CalorieService) Stats(ctx context.Context) (repository.Stats, error) {
	st, err := s.repo.Stats(ctx)
	if err != nil {
		return st, s.fail(ctx, "stats", err)
	}
	return st, nil
}

// fail logs err with the operation name and hands it back unchanged.
// Caller mistakes are warnings; everything else is an error.
func (s *CalorieService) fail(ctx context.Context, op string, err error, fields ...zap.Field) error {
	fields = append(fields, zap.String("op", op), zap.Error(err))
	if rid := utils.RequestIDFrom(ctx); rid != "" {
		fields = append(fields, zap.String("request_id", rid))
	}
	if IsClientError(err) {
		s.log.Warn("calorie procedure rejected", fields...)
	} else {
		s.log.Error("calorie procedure failed", fields...)
	}
	return err
}

func (s *CalorieService) invalidate(ctx context.Context) {
	s.genMu.Lock()
	defer s.genMu.Unlock()
	s.gen++
	s.cache.InvalidateByPrefix(ctx, cachePrefix)
}

// cacheGen must be taken before the repository read whose result is passed to fillCache.
func (s *CalorieService) cacheGen() uint64 {
	s.genMu.RLock()
	defer s.genMu.RUnlock()
	return s.gen
}

func (s *CalorieService) fillCache(ctx context.Context, key string, gen uint64, v interface{}) {
	s.genMu.RLock()
	defer s.genMu.RUnlock()
	if s.gen != gen {
		return
	}
	s.cache.SetJSON(ctx, key, v, s.cacheTTL)
}

func isNotFound(err error) bool {
	return errors.Is(err, repository.ErrNotFound)
}
