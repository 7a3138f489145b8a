package service

import (
	"context"
	"sync"
	"time"

	"github.com/nicekwell/postboard/internal/cache"
	"github.com/nicekwell/postboard/internal/models"
	"github.com/nicekwell/postboard/internal/repository"
)

// eventLog records the order of store and cache side effects across stubs.
type eventLog struct {
	mu     sync.Mutex
	events []string
}

func (l *eventLog) add(e string) {
	if l == nil {
		return
	}
	l.mu.Lock()
	l.events = append(l.events, e)
	l.mu.Unlock()
}

func (l *eventLog) list() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.events...)
}

// stubRepo is a test-only in-memory PostRepository.
type stubRepo struct {
	mu     sync.Mutex
	posts  []models.Post
	nextID uint64
	clock  time.Time

	down     bool
	reads    int
	inserts  int
	log      *eventLog
	onInsert func()
}

var _ repository.PostRepository = (*stubRepo)(nil)

func newStubRepo() *stubRepo {
	return &stubRepo{nextID: 1, clock: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (s *stubRepo) ListPosts(ctx context.Context) ([]models.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.down {
		return nil, repository.ErrUnavailable
	}
	s.reads++
	s.log.add("store:list")
	out := make([]models.Post, 0, len(s.posts))
	for i := len(s.posts) - 1; i >= 0; i-- {
		out = append(out, s.posts[i])
	}
	return out, nil
}

func (s *stubRepo) InsertPost(ctx context.Context, title, body string) (models.Post, error) {
	s.mu.Lock()
	if s.down {
		s.mu.Unlock()
		return models.Post{}, repository.ErrUnavailable
	}
	s.clock = s.clock.Add(time.Second)
	p := models.Post{ID: s.nextID, Title: title, Body: body, CreatedAt: s.clock}
	s.nextID++
	s.inserts++
	s.posts = append(s.posts, p)
	s.log.add("store:insert")
	hook := s.onInsert
	s.mu.Unlock()
	if hook != nil {
		hook()
	}
	return p, nil
}

func (s *stubRepo) Ping(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.down {
		return repository.ErrUnavailable
	}
	return nil
}

func (s *stubRepo) counts() (reads, inserts int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reads, s.inserts
}

// recordingStore wraps a cache.Store and logs deletes into the shared eventLog.
type recordingStore struct {
	cache.Store
	log *eventLog
}

func (s recordingStore) Delete(ctx context.Context, key string) error {
	err := s.Store.Delete(ctx, key)
	if err == nil {
		s.log.add("cache:delete")
	}
	return err
}

// downStore behaves like an unreachable cache.
type downStore struct{}

func (downStore) Get(context.Context, string) ([]byte, bool, error) {
	return nil, false, errCacheDown
}
func (downStore) Set(context.Context, string, []byte, time.Duration) error { return errCacheDown }
func (downStore) Delete(context.Context, string) error                    { return errCacheDown }
func (downStore) Ping(context.Context) error                              { return errCacheDown }
func (downStore) Close() error                                            { return nil }
