package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/d60-Lab/postboard/internal/model"
)

// SQLPostRepository stores posts in a relational table. Likes and comments are JSON
// columns; every mutation is a compare-and-swap on the version column.
type SQLPostRepository struct {
	db *gorm.DB
}

// NewSQLPostRepository 创建基于 gorm 的帖子仓储
func NewSQLPostRepository(db *gorm.DB) *SQLPostRepository {
	return &SQLPostRepository{db: db}
}

func (r *SQLPostRepository) Create(ctx context.Context, post *model.Post) error {
	if post.ID == "" {
		post.ID = uuid.New().String()
	}
	post.Normalize()
	post.Version = 0
	return r.db.WithContext(ctx).Create(post).Error
}

func (r *SQLPostRepository) List(ctx context.Context) ([]*model.Post, error) {
	var posts []*model.Post
	if err := r.db.WithContext(ctx).Order("date DESC").Find(&posts).Error; err != nil {
		return nil, err
	}
	for _, p := range posts {
		p.Normalize()
	}
	return posts, nil
}

func (r *SQLPostRepository) FindByID(ctx context.Context, id string) (*model.Post, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}
	var post model.Post
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&post).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	post.Normalize()
	return &post, nil
}

func (r *SQLPostRepository) Delete(ctx context.Context, id, ownerID string) error {
	res := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, ownerID).
		Delete(&model.Post{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *SQLPostRepository) ToggleLike(ctx context.Context, id, userID string) (*model.Post, error) {
	return r.mutate(ctx, id, func(p *model.Post) error {
		p.ToggleLike(userID)
		return nil
	})
}

func (r *SQLPostRepository) PrependComment(ctx context.Context, id string, c model.Comment) (*model.Post, error) {
	return r.mutate(ctx, id, func(p *model.Post) error {
		p.PrependComment(c)
		return nil
	})
}

func (r *SQLPostRepository) RemoveComment(ctx context.Context, id, commentID, userID string) (*model.Post, error) {
	return r.mutate(ctx, id, func(p *model.Post) error {
		c, ok := p.FindComment(commentID)
		if !ok {
			return ErrNotFound
		}
		if c.User != userID {
			return ErrNotOwner
		}
		p.RemoveComment(commentID)
		return nil
	})
}

// mutate 读取-修改-条件写回；version 不匹配说明有并发写入，重新读取后重试
func (r *SQLPostRepository) mutate(ctx context.Context, id string, fn func(p *model.Post) error) (*model.Post, error) {
	for attempt := 0; attempt < MaxConflictRetries; attempt++ {
		post, err := r.FindByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if err := fn(post); err != nil {
			return nil, err
		}

		prev := post.Version
		res := r.db.WithContext(ctx).
			Model(&model.Post{ID: id}).
			Where("version = ?", prev).
			Select("likes", "comments", "version").
			Updates(&model.Post{Likes: post.Likes, Comments: post.Comments, Version: prev + 1})
		if res.Error != nil {
			return nil, res.Error
		}
		if res.RowsAffected == 1 {
			post.Version = prev + 1
			return post, nil
		}
	}
	return nil, fmt.Errorf("post %s: %w", id, ErrConflict)
}

// InitSchema 初始化帖子表结构
func (r *SQLPostRepository) InitSchema() error {
	if err := r.db.AutoMigrate(&model.Post{}); err != nil {
		return fmt.Errorf("failed to migrate posts table: %w", err)
	}
	return nil
}
