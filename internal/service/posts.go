package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/nicekwell/postboard/internal/cache"
	"github.com/nicekwell/postboard/internal/metrics"
	"github.com/nicekwell/postboard/internal/models"
	"github.com/nicekwell/postboard/internal/repository"
)

const (
	DefaultCacheKey = "posts:all"
	DefaultCacheTTL = 30 * time.Second

	StatusOK          = "ok"
	StatusUnreachable = "unreachable"
	StatusDegraded    = "degraded"
)

// ErrInvalidInput is wrapped with a field-specific message by Create.
var ErrInvalidInput = errors.New("invalid input")

// Health is the composite dependency status reported by GET /health.
type Health struct {
	Store string `json:"store"`
	Cache string `json:"cache"`
}

// PostService reads posts through the cache and writes them straight to the
// store. Replicas share nothing but the store and the cache, so the only
// freshness guarantee is TTL plus invalidation after each committed write.
type PostService struct {
	Repo     repository.PostRepository
	Cache    *cache.Client
	CacheKey string
	TTL      time.Duration
	Logger   *zap.Logger
	Metrics  *metrics.Metrics
}

func (s *PostService) List(ctx context.Context) ([]models.Post, error) {
	key := s.cacheKey()

	res := s.Cache.Get(ctx, key)
	if res.Outcome == cache.Hit {
		var items []models.Post
		err := json.Unmarshal(res.Value, &items)
		if err == nil {
			return items, nil
		}
		// Falls through to a store read, and the Set below overwrites the entry.
		s.warn("cached posts undecodable, reading store", zap.String("key", key), zap.Error(err))
	}

	items, err := s.Repo.ListPosts(ctx)
	s.Metrics.StoreOperation("list_posts", err)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []models.Post{}
	}

	// A degraded cache is skipped entirely; there is no point paying another
	// timeout on the way out.
	if res.Outcome != cache.Degraded {
		b, err := json.Marshal(items)
		if err != nil {
			s.warn("encode posts for cache failed", zap.Error(err))
			return items, nil
		}
		s.Cache.Set(ctx, key, b, s.ttl())
	}
	return items, nil
}

func (s *PostService) Create(ctx context.Context, title, body string) (models.Post, error) {
	if strings.TrimSpace(title) == "" {
		return models.Post{}, fmt.Errorf("%w: title is required", ErrInvalidInput)
	}
	if strings.TrimSpace(body) == "" {
		return models.Post{}, fmt.Errorf("%w: body is required", ErrInvalidInput)
	}

	post, err := s.Repo.InsertPost(ctx, title, body)
	s.Metrics.StoreOperation("insert_post", err)
	if err != nil {
		return models.Post{}, err
	}

	// Invalidate only after the insert has committed. The delete must still
	// run if the client hangs up now, or a stale list would live out its TTL.
	if s.Cache.Delete(context.WithoutCancel(ctx), s.cacheKey()) == cache.Degraded {
		s.warn("cache invalidation skipped", zap.Uint64("post_id", post.ID))
	}
	return post, nil
}

// Health pings the store and the cache concurrently. Each ping is bounded by
// its client's own timeout.
func (s *PostService) Health(ctx context.Context) Health {
	out := Health{Store: StatusOK, Cache: StatusOK}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		var err error
		if s.Repo == nil {
			err = repository.ErrUnavailable
		} else {
			err = s.Repo.Ping(ctx)
		}
		s.Metrics.StoreOperation("ping", err)
		if err != nil {
			out.Store = StatusUnreachable
		}
	}()
	go func() {
		defer wg.Done()
		if err := s.Cache.Ping(ctx); err != nil {
			out.Cache = StatusDegraded
		}
	}()
	wg.Wait()
	return out
}

func (s *PostService) cacheKey() string {
	if s.CacheKey == "" {
		return DefaultCacheKey
	}
	return s.CacheKey
}

func (s *PostService) ttl() time.Duration {
	if s.TTL <= 0 {
		return DefaultCacheTTL
	}
	return s.TTL
}

func (s *PostService) warn(msg string, fields ...zap.Field) {
	if s.Logger != nil {
		s.Logger.Warn(msg, fields...)
	}
}
