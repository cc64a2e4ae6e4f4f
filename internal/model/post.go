package model

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrBlankText is returned when a post or comment body is empty after trimming.
var ErrBlankText = errors.New("text is required")

// Post 帖子主体，likes/comments 作为内嵌数组随帖子一起存取
type Post struct {
	ID       string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Text     string    `json:"text" gorm:"type:text;not null"`
	Name     string    `json:"name" gorm:"type:varchar(100)"`
	Avatar   string    `json:"avatar" gorm:"type:varchar(255)"`
	UserID   string    `json:"user" gorm:"column:user_id;type:varchar(36);index:idx_post_user;not null"`
	Likes    []Like    `json:"likes" gorm:"serializer:json;type:text"`
	Comments []Comment `json:"comments" gorm:"serializer:json;type:text"`
	Date     time.Time `json:"date" gorm:"column:date;index:idx_post_date;not null"`
	// 乐观锁版本号，仅 SQL 存储使用
	Version int64 `json:"-" gorm:"not null;default:0"`
}

func (Post) TableName() string { return "posts" }

// Like marks that a user likes a post. A user appears at most once per post.
type Like struct {
	User string `json:"user"`
}

// Comment 内嵌在 Post 中的评论，最新的在最前
type Comment struct {
	ID     string    `json:"id"`
	Text   string    `json:"text"`
	Name   string    `json:"name"`
	Avatar string    `json:"avatar"`
	User   string    `json:"user"`
	Date   time.Time `json:"date"`
}

// NewPost builds an unsaved post owned by author. The store assigns the ID.
// text is kept as given; whitespace only matters for the blank check.
func NewPost(author Profile, text string) (*Post, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrBlankText
	}
	return &Post{
		Text:     text,
		Name:     author.Name,
		Avatar:   author.Avatar,
		UserID:   author.ID,
		Likes:    []Like{},
		Comments: []Comment{},
		Date:     time.Now().UTC(),
	}, nil
}

// NewComment builds a comment with a fresh id and the author's display fields as of now.
func NewComment(author Profile, text string) (Comment, error) {
	if strings.TrimSpace(text) == "" {
		return Comment{}, ErrBlankText
	}
	return Comment{
		ID:     uuid.New().String(),
		Text:   text,
		Name:   author.Name,
		Avatar: author.Avatar,
		User:   author.ID,
		Date:   time.Now().UTC(),
	}, nil
}

// LikedBy reports the index of userID's like, or -1.
func (p *Post) LikedBy(userID string) int {
	for i, l := range p.Likes {
		if l.User == userID {
			return i
		}
	}
	return -1
}

// ToggleLike adds userID's like if absent and removes it otherwise.
// It reports whether the post is liked by userID afterwards.
func (p *Post) ToggleLike(userID string) bool {
	if i := p.LikedBy(userID); i >= 0 {
		p.Likes = append(p.Likes[:i:i], p.Likes[i+1:]...)
		return false
	}
	p.Likes = append(p.Likes, Like{User: userID})
	return true
}

// FindComment returns the comment with the given id.
func (p *Post) FindComment(commentID string) (Comment, bool) {
	for _, c := range p.Comments {
		if c.ID == commentID {
			return c, true
		}
	}
	return Comment{}, false
}

// PrependComment puts c at the head of the comment list.
func (p *Post) PrependComment(c Comment) {
	p.Comments = append([]Comment{c}, p.Comments...)
}

// RemoveComment drops the comment with the given id keeping the order of the rest.
func (p *Post) RemoveComment(commentID string) bool {
	for i, c := range p.Comments {
		if c.ID == commentID {
			p.Comments = append(p.Comments[:i:i], p.Comments[i+1:]...)
			return true
		}
	}
	return false
}

// Normalize replaces nil collections with empty ones so they encode as [].
func (p *Post) Normalize() {
	if p.Likes == nil {
		p.Likes = []Like{}
	}
	if p.Comments == nil {
		p.Comments = []Comment{}
	}
}
