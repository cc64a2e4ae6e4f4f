package repository

import (
	"context"
	"errors"

	"github.com/d60-Lab/postboard/internal/model"
)

var (
	// ErrNotFound is returned when a post (or the targeted comment) does not exist,
	// including when the id is not a well-formed identifier for the store.
	ErrNotFound = errors.New("record not found")
	// ErrNotOwner is returned when a guarded mutation finds a record owned by someone else.
	ErrNotOwner = errors.New("record owned by another user")
	// ErrConflict is returned when an optimistic update keeps losing to concurrent writers.
	ErrConflict = errors.New("concurrent update conflict")
)

// MaxConflictRetries bounds optimistic-lock retries in the SQL store and toggle retries in mongo.
const MaxConflictRetries = 5

// PostRepository 帖子仓储。likes/comments 的变更必须是原子的，不允许整文档覆盖写。
type PostRepository interface {
	// Create 持久化新帖子并回填 ID
	Create(ctx context.Context, post *model.Post) error
	// List 按 date 倒序返回全部帖子
	List(ctx context.Context) ([]*model.Post, error)
	FindByID(ctx context.Context, id string) (*model.Post, error)
	// Delete removes the post only if it is owned by ownerID.
	Delete(ctx context.Context, id, ownerID string) error
	// ToggleLike adds userID's like when absent and removes it otherwise.
	ToggleLike(ctx context.Context, id, userID string) (*model.Post, error)
	// PrependComment inserts c at the head of the post's comments.
	PrependComment(ctx context.Context, id string, c model.Comment) (*model.Post, error)
	// RemoveComment deletes the comment only if it is authored by userID.
	RemoveComment(ctx context.Context, id, commentID, userID string) (*model.Post, error)
}
