package db

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"roster-server-go/query"
	"roster-server-go/resource"
)

// CachedStore is a read-through cache in front of a resource.Store.
//
// FindByID and Exists consult the cache first. Every successful write invalidates the
// cached entry, and a load only fills the cache when no write committed while it ran.
// LoadForUpdate always reads the store. Cache failures are logged and fall through to
// the store, they never fail the operation. Page queries always go to the store.
type CachedStore[T resource.Record[T]] struct {
	next   resource.Store[T]
	cache  Cache
	kind   string
	ttl    time.Duration
	logger *slog.Logger
}

// NewCachedStore wraps next. Entries expire after ttl.
func NewCachedStore[T resource.Record[T]](next resource.Store[T], cache Cache, kind string, ttl time.Duration, logger *slog.Logger) *CachedStore[T] {
	if logger == nil {
		logger = slog.Default()
	}
	return &CachedStore[T]{
		next:   next,
		cache:  cache,
		kind:   kind,
		ttl:    ttl,
		logger: logger.With("cache", kind),
	}
}

func (s *CachedStore[T]) Insert(ctx context.Context, rec T) (int64, error) {
	return s.next.Insert(ctx, rec)
}

func (s *CachedStore[T]) UpdateFull(ctx context.Context, id int64, rec T) (T, error) {
	updated, err := s.next.UpdateFull(ctx, id, rec)
	if err != nil {
		return updated, err
	}
	s.evict(ctx, id)
	return updated, nil
}

func (s *CachedStore[T]) Exists(ctx context.Context, id int64) (bool, error) {
	if _, ok := s.lookup(ctx, id); ok {
		return true, nil
	}
	return s.next.Exists(ctx, id)
}

func (s *CachedStore[T]) FindByID(ctx context.Context, id int64) (T, bool, error) {
	if rec, ok := s.lookup(ctx, id); ok {
		return rec, true, nil
	}

	key := recordKey(s.kind, id)
	version, verr := s.cache.Version(ctx, key)
	if verr != nil {
		s.logger.Warn("cache read failed", "id", id, "error", verr)
	}

	rec, ok, err := s.next.FindByID(ctx, id)
	if err != nil || !ok {
		return rec, ok, err
	}
	if verr == nil {
		s.fill(ctx, id, version, rec)
	}
	return rec, true, nil
}

// LoadForUpdate reads id from the store, bypassing the cache, for read-modify-write.
func (s *CachedStore[T]) LoadForUpdate(ctx context.Context, id int64) (T, bool, error) {
	return s.next.FindByID(ctx, id)
}

func (s *CachedStore[T]) FindAll(ctx context.Context, f query.Filter, p query.PageRequest) (query.Page[T], error) {
	return s.next.FindAll(ctx, f, p)
}

func (s *CachedStore[T]) DeleteByID(ctx context.Context, id int64) error {
	if err := s.next.DeleteByID(ctx, id); err != nil {
		return err
	}
	s.evict(ctx, id)
	return nil
}

func (s *CachedStore[T]) lookup(ctx context.Context, id int64) (T, bool) {
	var rec T
	data, ok, err := s.cache.Get(ctx, recordKey(s.kind, id))
	if err != nil {
		s.logger.Warn("cache read failed", "id", id, "error", err)
		return rec, false
	}
	if !ok {
		return rec, false
	}
	if err := json.Unmarshal(data, &rec); err != nil {
		s.logger.Warn("dropping undecodable cache entry", "id", id, "error", err)
		s.evict(ctx, id)
		return rec, false
	}
	return rec, true
}

func (s *CachedStore[T]) fill(ctx context.Context, id, version int64, rec T) {
	data, err := json.Marshal(rec)
	if err != nil {
		s.logger.Warn("cache encode failed", "id", id, "error", err)
		return
	}
	stored, err := s.cache.SetIfVersion(ctx, recordKey(s.kind, id), version, data, s.ttl)
	if err != nil {
		s.logger.Warn("cache write failed", "id", id, "error", err)
		return
	}
	if !stored {
		s.logger.Debug("skipped cache fill raced by a write", "id", id)
	}
}

func (s *CachedStore[T]) evict(ctx context.Context, id int64) {
	if err := s.cache.Invalidate(ctx, recordKey(s.kind, id)); err != nil {
		s.logger.Warn("cache evict failed", "id", id, "error", err)
	}
}
