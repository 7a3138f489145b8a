package gormrepository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/nicekwell/postboard/internal/models"
	"github.com/nicekwell/postboard/internal/repository"
)

const defaultQueryTimeout = 3 * time.Second

type Store struct {
	db      *gorm.DB
	timeout time.Duration
}

var _ repository.PostRepository = (*Store)(nil)

func New(db *gorm.DB, timeout time.Duration) *Store {
	if timeout <= 0 {
		timeout = defaultQueryTimeout
	}
	return &Store{db: db, timeout: timeout}
}

func (s *Store) ListPosts(ctx context.Context) ([]models.Post, error) {
	if s == nil || s.db == nil {
		return nil, repository.ErrUnavailable
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	items := make([]models.Post, 0)
	err := s.db.WithContext(ctx).
		Model(&models.Post{}).
		Order("created_at DESC").
		Order("id DESC").
		Find(&items).Error
	if err != nil {
		return nil, unavailable("list posts", err)
	}
	return items, nil
}

func (s *Store) InsertPost(ctx context.Context, title, body string) (models.Post, error) {
	if s == nil || s.db == nil {
		return models.Post{}, repository.ErrUnavailable
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var item models.Post
	err := s.db.WithContext(ctx).
		Raw("INSERT INTO posts (title, body) VALUES (?, ?) RETURNING id, title, body, created_at", title, body).
		Scan(&item).Error
	if err != nil {
		return models.Post{}, unavailable("insert post", err)
	}
	if item.ID == 0 {
		return models.Post{}, unavailable("insert post", sql.ErrNoRows)
	}
	item.CreatedAt = item.CreatedAt.UTC()
	return item, nil
}

func (s *Store) Ping(ctx context.Context) error {
	if s == nil || s.db == nil {
		return repository.ErrUnavailable
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	sqldb, err := s.db.DB()
	if err != nil {
		return unavailable("ping", err)
	}
	if err := sqldb.PingContext(ctx); err != nil {
		return unavailable("ping", err)
	}
	return nil
}

// unavailable keeps the driver error in the chain for logging while letting
// callers match on repository.ErrUnavailable.
func unavailable(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, repository.ErrUnavailable, err)
}
