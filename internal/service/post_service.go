package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/d60-Lab/postboard/internal/auth"
	"github.com/d60-Lab/postboard/internal/model"
	"github.com/d60-Lab/postboard/internal/repository"
	"github.com/d60-Lab/postboard/pkg/logger"
)

// ProfileLookup resolves a user id to the display fields copied onto posts and comments.
type ProfileLookup interface {
	Lookup(ctx context.Context, userID string) (*model.Profile, error)
}

// PostService 帖子、点赞、评论
type PostService interface {
	CreatePost(ctx context.Context, who auth.Principal, text string) (*model.Post, error)
	ListPosts(ctx context.Context) ([]*model.Post, error)
	GetPost(ctx context.Context, postID string) (*model.Post, error)
	DeletePost(ctx context.Context, who auth.Principal, postID string) error
	ToggleLike(ctx context.Context, who auth.Principal, postID string) (*model.Post, error)
	AddComment(ctx context.Context, who auth.Principal, postID, text string) ([]model.Comment, error)
	RemoveComment(ctx context.Context, who auth.Principal, postID, commentID string) ([]model.Comment, error)
}

type postService struct {
	posts    repository.PostRepository
	profiles ProfileLookup
}

func NewPostService(posts repository.PostRepository, profiles ProfileLookup) PostService {
	return &postService{posts: posts, profiles: profiles}
}

func (s *postService) CreatePost(ctx context.Context, who auth.Principal, text string) (*model.Post, error) {
	if strings.TrimSpace(text) == "" {
		return nil, textRequired(text)
	}
	author, err := s.profiles.Lookup(ctx, who.UserID)
	if err != nil {
		return nil, err
	}
	post, err := model.NewPost(*author, text)
	if err != nil {
		return nil, textRequired(text)
	}
	if err := s.posts.Create(ctx, post); err != nil {
		return nil, &StoreError{Op: "create post", Err: err}
	}
	logger.Info("post created", zap.String("post", post.ID), zap.String("user", who.UserID))
	return post, nil
}

func (s *postService) ListPosts(ctx context.Context) ([]*model.Post, error) {
	posts, err := s.posts.List(ctx)
	if err != nil {
		return nil, &StoreError{Op: "list posts", Err: err}
	}
	if posts == nil {
		posts = []*model.Post{}
	}
	return posts, nil
}

func (s *postService) GetPost(ctx context.Context, postID string) (*model.Post, error) {
	post, err := s.posts.FindByID(ctx, postID)
	if err != nil {
		return nil, postErr("get post", err)
	}
	return post, nil
}

func (s *postService) DeletePost(ctx context.Context, who auth.Principal, postID string) error {
	post, err := s.posts.FindByID(ctx, postID)
	if err != nil {
		return postErr("get post", err)
	}
	if post.UserID != who.UserID {
		return ErrNotPostOwner
	}
	// 删除条件带上 owner，读取之后被并发删除时返回 not found
	if err := s.posts.Delete(ctx, postID, who.UserID); err != nil {
		return postErr("delete post", err)
	}
	logger.Info("post removed", zap.String("post", postID), zap.String("user", who.UserID))
	return nil
}

func (s *postService) ToggleLike(ctx context.Context, who auth.Principal, postID string) (*model.Post, error) {
	post, err := s.posts.ToggleLike(ctx, postID, who.UserID)
	if err != nil {
		return nil, postErr("toggle like", err)
	}
	return post, nil
}

func (s *postService) AddComment(ctx context.Context, who auth.Principal, postID, text string) ([]model.Comment, error) {
	if strings.TrimSpace(text) == "" {
		return nil, textRequired(text)
	}
	if _, err := s.posts.FindByID(ctx, postID); err != nil {
		return nil, postErr("get post", err)
	}
	author, err := s.profiles.Lookup(ctx, who.UserID)
	if err != nil {
		return nil, err
	}
	comment, err := model.NewComment(*author, text)
	if err != nil {
		return nil, textRequired(text)
	}
	post, err := s.posts.PrependComment(ctx, postID, comment)
	if err != nil {
		return nil, postErr("add comment", err)
	}
	return post.Comments, nil
}

// RemoveComment 只有评论作者可以删除；帖子作者不享有额外权限
func (s *postService) RemoveComment(ctx context.Context, who auth.Principal, postID, commentID string) ([]model.Comment, error) {
	post, err := s.posts.FindByID(ctx, postID)
	if err != nil {
		return nil, postErr("get post", err)
	}
	comment, ok := post.FindComment(commentID)
	if !ok {
		return nil, ErrCommentNotFound
	}
	if comment.User != who.UserID {
		return nil, ErrNotCommentOwner
	}

	post, err = s.posts.RemoveComment(ctx, postID, commentID, who.UserID)
	switch {
	case err == nil:
		return post.Comments, nil
	case errors.Is(err, repository.ErrNotFound):
		// post 存在但评论已被并发删除，或 post 本身被删
		if _, ferr := s.posts.FindByID(ctx, postID); errors.Is(ferr, repository.ErrNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, ErrCommentNotFound
	case errors.Is(err, repository.ErrNotOwner):
		return nil, ErrNotCommentOwner
	default:
		return nil, &StoreError{Op: "remove comment", Err: err}
	}
}

func postErr(op string, err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return ErrPostNotFound
	}
	return &StoreError{Op: op, Err: err}
}
