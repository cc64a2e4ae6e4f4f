package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/d60-Lab/postboard/internal/model"
)

type likeDocument struct {
	User string `bson:"user"`
}

type commentDocument struct {
	ID     string    `bson:"_id"`
	Text   string    `bson:"text"`
	Name   string    `bson:"name"`
	Avatar string    `bson:"avatar"`
	User   string    `bson:"user"`
	Date   time.Time `bson:"date"`
}

// postDocument 是帖子在 mongo 中的存储形态
type postDocument struct {
	ID       primitive.ObjectID `bson:"_id"`
	Text     string             `bson:"text"`
	Name     string             `bson:"name"`
	Avatar   string             `bson:"avatar"`
	User     string             `bson:"user"`
	Likes    []likeDocument     `bson:"likes"`
	Comments []commentDocument  `bson:"comments"`
	Date     time.Time          `bson:"date"`
}

func newCommentDocument(c model.Comment) commentDocument {
	return commentDocument{ID: c.ID, Text: c.Text, Name: c.Name, Avatar: c.Avatar, User: c.User, Date: c.Date}
}

func (d *postDocument) toModel() *model.Post {
	p := &model.Post{
		ID:       d.ID.Hex(),
		Text:     d.Text,
		Name:     d.Name,
		Avatar:   d.Avatar,
		UserID:   d.User,
		Likes:    make([]model.Like, 0, len(d.Likes)),
		Comments: make([]model.Comment, 0, len(d.Comments)),
		Date:     d.Date,
	}
	for _, l := range d.Likes {
		p.Likes = append(p.Likes, model.Like{User: l.User})
	}
	for _, c := range d.Comments {
		p.Comments = append(p.Comments, model.Comment{ID: c.ID, Text: c.Text, Name: c.Name, Avatar: c.Avatar, User: c.User, Date: c.Date})
	}
	return p
}

// MongoPostRepository keeps each post as one document with embedded likes and comments.
// Mutations are single-document atomic updates ($push / $pull) guarded by filters.
type MongoPostRepository struct {
	coll *mongo.Collection
}

func NewMongoPostRepository(coll *mongo.Collection) *MongoPostRepository {
	return &MongoPostRepository{coll: coll}
}

// EnsureIndexes creates the indexes the list and ownership queries rely on.
func (r *MongoPostRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "date", Value: -1}}},
		{Keys: bson.D{{Key: "user", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("create post indexes: %w", err)
	}
	return nil
}

func (r *MongoPostRepository) Create(ctx context.Context, post *model.Post) error {
	post.Normalize()
	doc := postDocument{
		ID:       primitive.NewObjectID(),
		Text:     post.Text,
		Name:     post.Name,
		Avatar:   post.Avatar,
		User:     post.UserID,
		Likes:    make([]likeDocument, 0, len(post.Likes)),
		Comments: make([]commentDocument, 0, len(post.Comments)),
		Date:     post.Date,
	}
	for _, l := range post.Likes {
		doc.Likes = append(doc.Likes, likeDocument{User: l.User})
	}
	for _, c := range post.Comments {
		doc.Comments = append(doc.Comments, newCommentDocument(c))
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert post: %w", err)
	}
	post.ID = doc.ID.Hex()
	return nil
}

func (r *MongoPostRepository) List(ctx context.Context) ([]*model.Post, error) {
	opts := options.Find().SetSort(bson.D{{Key: "date", Value: -1}})
	cursor, err := r.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("find posts: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []postDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode posts: %w", err)
	}
	posts := make([]*model.Post, 0, len(docs))
	for i := range docs {
		posts = append(posts, docs[i].toModel())
	}
	return posts, nil
}

func (r *MongoPostRepository) FindByID(ctx context.Context, id string) (*model.Post, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}
	var doc postDocument
	if err := r.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find post: %w", err)
	}
	return doc.toModel(), nil
}

func (r *MongoPostRepository) Delete(ctx context.Context, id, ownerID string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrNotFound
	}
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": oid, "user": ownerID})
	if err != nil {
		return fmt.Errorf("delete post: %w", err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// ToggleLike 先尝试“未点赞则 push”，失败再尝试“已点赞则 pull”。
// 两个条件更新都未命中只可能是帖子不存在，或恰好与并发的切换交错，此时重试。
func (r *MongoPostRepository) ToggleLike(ctx context.Context, id, userID string) (*model.Post, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}
	for attempt := 0; attempt < MaxConflictRetries; attempt++ {
		post, err := r.updateOne(ctx,
			bson.M{"_id": oid, "likes.user": bson.M{"$ne": userID}},
			bson.M{"$push": bson.M{"likes": likeDocument{User: userID}}})
		if !errors.Is(err, ErrNotFound) {
			return post, err
		}

		post, err = r.updateOne(ctx,
			bson.M{"_id": oid, "likes.user": userID},
			bson.M{"$pull": bson.M{"likes": bson.M{"user": userID}}})
		if !errors.Is(err, ErrNotFound) {
			return post, err
		}

		n, err := r.coll.CountDocuments(ctx, bson.M{"_id": oid})
		if err != nil {
			return nil, fmt.Errorf("count post: %w", err)
		}
		if n == 0 {
			return nil, ErrNotFound
		}
	}
	return nil, fmt.Errorf("post %s: %w", id, ErrConflict)
}

func (r *MongoPostRepository) PrependComment(ctx context.Context, id string, c model.Comment) (*model.Post, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}
	return r.updateOne(ctx,
		bson.M{"_id": oid},
		bson.M{"$push": bson.M{"comments": bson.M{
			"$each":     []commentDocument{newCommentDocument(c)},
			"$position": 0,
		}}})
}

func (r *MongoPostRepository) RemoveComment(ctx context.Context, id, commentID, userID string) (*model.Post, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}
	post, err := r.updateOne(ctx,
		bson.M{"_id": oid, "comments": bson.M{"$elemMatch": bson.M{"_id": commentID, "user": userID}}},
		bson.M{"$pull": bson.M{"comments": bson.M{"_id": commentID}}})
	if !errors.Is(err, ErrNotFound) {
		return post, err
	}

	// 区分“评论不存在”与“不是评论作者”
	current, err := r.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, ok := current.FindComment(commentID); ok {
		return nil, ErrNotOwner
	}
	return nil, ErrNotFound
}

func (r *MongoPostRepository) updateOne(ctx context.Context, filter, update bson.M) (*model.Post, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var doc postDocument
	if err := r.coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("update post: %w", err)
	}
	return doc.toModel(), nil
}
