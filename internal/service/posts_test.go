package service

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/nicekwell/postboard/internal/cache"
	"github.com/nicekwell/postboard/internal/repository"
)

var errCacheDown = errors.New("dial tcp redis:6379: connect: connection refused")

func newService(repo *stubRepo, store cache.Store) *PostService {
	return &PostService{
		Repo:  repo,
		Cache: &cache.Client{Store: store, Timeout: time.Second},
		TTL:   30 * time.Second,
	}
}

func TestCreateThenListNewestFirst(t *testing.T) {
	repo := newStubRepo()
	svc := newService(repo, cache.NewMemoryStore())
	ctx := context.Background()

	p, err := svc.Create(ctx, "A", "B")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if p.ID != 1 || p.Title != "A" || p.Body != "B" || p.CreatedAt.IsZero() {
		t.Fatalf("unexpected post %+v", p)
	}
	if _, err := svc.Create(ctx, "C", "D"); err != nil {
		t.Fatalf("create: %v", err)
	}

	items, err := svc.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(items) != 2 || items[0].ID != 2 || items[1].ID != 1 {
		t.Fatalf("items=%+v want ids [2 1]", items)
	}
}

func TestListIsCacheAside(t *testing.T) {
	repo := newStubRepo()
	svc := newService(repo, cache.NewMemoryStore())
	ctx := context.Background()
	if _, err := svc.Create(ctx, "A", "B"); err != nil {
		t.Fatal(err)
	}

	first, err := svc.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if reads, _ := repo.counts(); reads != 1 {
		t.Fatalf("cold read: store reads=%d want=1", reads)
	}

	second, err := svc.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if reads, _ := repo.counts(); reads != 1 {
		t.Fatalf("warm read hit the store: reads=%d want=1", reads)
	}
	if len(first) != 1 || len(second) != 1 || !first[0].CreatedAt.Equal(second[0].CreatedAt) || first[0].ID != second[0].ID {
		t.Fatalf("cached list differs: %+v vs %+v", first, second)
	}
}

func TestListRereadsStoreAfterTTL(t *testing.T) {
	repo := newStubRepo()
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	var mu sync.Mutex
	clock := func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return now
	}
	advance := func(d time.Duration) {
		mu.Lock()
		now = now.Add(d)
		mu.Unlock()
	}
	svc := newService(repo, cache.NewMemoryStoreWithClock(clock))
	ctx := context.Background()

	if _, err := svc.List(ctx); err != nil {
		t.Fatal(err)
	}
	advance(29 * time.Second)
	if _, err := svc.List(ctx); err != nil {
		t.Fatal(err)
	}
	if reads, _ := repo.counts(); reads != 1 {
		t.Fatalf("within ttl: reads=%d want=1", reads)
	}

	advance(2 * time.Second)
	if _, err := svc.List(ctx); err != nil {
		t.Fatal(err)
	}
	if reads, _ := repo.counts(); reads != 2 {
		t.Fatalf("after ttl: reads=%d want=2", reads)
	}
}

func TestReadAfterWriteSeesNewPost(t *testing.T) {
	repo := newStubRepo()
	svc := newService(repo, cache.NewMemoryStore())
	ctx := context.Background()

	// Warm the cache with an empty list first.
	items, err := svc.List(ctx)
	if err != nil || len(items) != 0 {
		t.Fatalf("items=%v err=%v", items, err)
	}
	p, err := svc.Create(ctx, "fresh", "post")
	if err != nil {
		t.Fatal(err)
	}
	items, err = svc.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 1 || items[0].ID != p.ID {
		t.Fatalf("list after write=%+v, want new post %d", items, p.ID)
	}
}

func TestInvalidationHappensAfterCommit(t *testing.T) {
	log := &eventLog{}
	repo := newStubRepo()
	repo.log = log
	svc := newService(repo, recordingStore{Store: cache.NewMemoryStore(), log: log})

	if _, err := svc.Create(context.Background(), "A", "B"); err != nil {
		t.Fatal(err)
	}
	want := []string{"store:insert", "cache:delete"}
	if got := log.list(); !reflect.DeepEqual(got, want) {
		t.Fatalf("events=%v want=%v", got, want)
	}
}

func TestInvalidationSurvivesClientDisconnect(t *testing.T) {
	repo := newStubRepo()
	svc := newService(repo, cache.NewMemoryStore())
	ctx := context.Background()
	if _, err := svc.List(ctx); err != nil {
		t.Fatal(err)
	}

	reqCtx, cancel := context.WithCancel(ctx)
	repo.onInsert = cancel
	if _, err := svc.Create(reqCtx, "A", "B"); err != nil {
		t.Fatal(err)
	}
	items, err := svc.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 1 {
		t.Fatalf("stale cached list served after write: %+v", items)
	}
}

func TestCreateValidation(t *testing.T) {
	tests := []struct {
		name, title, body string
	}{
		{"empty title", "", "x"},
		{"blank title", "   ", "x"},
		{"empty body", "x", ""},
		{"blank body", "x", "\n\t"},
	}
	repo := newStubRepo()
	svc := newService(repo, cache.NewMemoryStore())
	for _, tt := range tests {
		_, err := svc.Create(context.Background(), tt.title, tt.body)
		if !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("%s: err=%v want ErrInvalidInput", tt.name, err)
		}
	}
	if _, inserts := repo.counts(); inserts != 0 {
		t.Fatalf("invalid input reached the store: inserts=%d", inserts)
	}
}

func TestDegradedCacheIsTransparent(t *testing.T) {
	repo := newStubRepo()
	svc := newService(repo, downStore{})
	ctx := context.Background()

	p, err := svc.Create(ctx, "A", "B")
	if err != nil {
		t.Fatalf("create with cache down: %v", err)
	}
	items, err := svc.List(ctx)
	if err != nil {
		t.Fatalf("list with cache down: %v", err)
	}
	if len(items) != 1 || items[0].ID != p.ID {
		t.Fatalf("items=%+v", items)
	}
	if _, err := svc.List(ctx); err != nil {
		t.Fatal(err)
	}
	if reads, _ := repo.counts(); reads != 2 {
		t.Fatalf("every read should go to the store: reads=%d", reads)
	}

	h := svc.Health(ctx)
	if h != (Health{Store: StatusOK, Cache: StatusDegraded}) {
		t.Fatalf("health=%+v", h)
	}
}

func TestStoreDownSurfacesUnavailable(t *testing.T) {
	repo := newStubRepo()
	repo.down = true
	svc := newService(repo, cache.NewMemoryStore())
	ctx := context.Background()

	if _, err := svc.List(ctx); !errors.Is(err, repository.ErrUnavailable) {
		t.Fatalf("list err=%v", err)
	}
	if _, err := svc.Create(ctx, "A", "B"); !errors.Is(err, repository.ErrUnavailable) {
		t.Fatalf("create err=%v", err)
	}
	if h := svc.Health(ctx); h != (Health{Store: StatusUnreachable, Cache: StatusOK}) {
		t.Fatalf("health=%+v", h)
	}
}

func TestCorruptCacheEntryFallsBackToStore(t *testing.T) {
	repo := newStubRepo()
	mem := cache.NewMemoryStore()
	svc := newService(repo, mem)
	ctx := context.Background()
	if _, err := svc.Create(ctx, "A", "B"); err != nil {
		t.Fatal(err)
	}
	_ = mem.Set(ctx, DefaultCacheKey, []byte("{not json"), time.Minute)

	items, err := svc.List(ctx)
	if err != nil || len(items) != 1 {
		t.Fatalf("items=%v err=%v", items, err)
	}
	// The entry was rewritten, so the next read is a hit.
	if _, err := svc.List(ctx); err != nil {
		t.Fatal(err)
	}
	if reads, _ := repo.counts(); reads != 1 {
		t.Fatalf("reads=%d want=1", reads)
	}
}

func TestConcurrentWritersAndReaders(t *testing.T) {
	repo := newStubRepo()
	svc := newService(repo, cache.NewMemoryStore())
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			if _, err := svc.Create(ctx, "t", "b"); err != nil {
				t.Errorf("create: %v", err)
			}
		}()
		go func() {
			defer wg.Done()
			if _, err := svc.List(ctx); err != nil {
				t.Errorf("list: %v", err)
			}
		}()
	}
	wg.Wait()

	// A list racing a write may cache a pre-write snapshot until its TTL runs
	// out. Drop it so the final read goes to the store.
	_ = svc.Cache.Delete(ctx, DefaultCacheKey)
	items, err := svc.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 20 {
		t.Fatalf("len=%d want=20", len(items))
	}
}
