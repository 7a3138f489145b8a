package repository

import (
	"context"
	"errors"

	"github.com/nicekwell/postboard/internal/models"
)

// ErrUnavailable marks a store failure the caller cannot fix by changing its
// input: connection refused, pool exhausted, timeout, or a server-side error.
var ErrUnavailable = errors.New("store unavailable")

// PostRepository is the store contract used by the posts service.
type PostRepository interface {
	// ListPosts returns every post, newest first.
	ListPosts(ctx context.Context) ([]models.Post, error)
	// InsertPost persists a post and returns it with the store-assigned ID and
	// creation time.
	InsertPost(ctx context.Context, title, body string) (models.Post, error)
	Ping(ctx context.Context) error
}
