package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"github.com/d60-Lab/postboard/internal/model"
)

func docD(t *testing.T, doc postDocument) bson.D {
	t.Helper()
	raw, err := bson.Marshal(doc)
	require.NoError(t, err)
	var d bson.D
	require.NoError(t, bson.Unmarshal(raw, &d))
	return d
}

func samplePost() postDocument {
	return postDocument{
		ID:       primitive.NewObjectID(),
		Text:     "hello",
		Name:     alice.Name,
		Avatar:   alice.Avatar,
		User:     alice.ID,
		Likes:    []likeDocument{},
		Comments: []commentDocument{},
		Date:     time.Now().UTC().Truncate(time.Millisecond),
	}
}

func TestMongoPostRepository(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ctx := context.Background()

	mt.Run("create assigns object id", func(mt *mtest.T) {
		repo := NewMongoPostRepository(mt.Coll)
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		p, err := model.NewPost(alice, "hello")
		require.NoError(mt, err)
		require.NoError(mt, repo.Create(ctx, p))

		_, err = primitive.ObjectIDFromHex(p.ID)
		assert.NoError(mt, err)
	})

	mt.Run("find by id", func(mt *mtest.T) {
		repo := NewMongoPostRepository(mt.Coll)
		doc := samplePost()
		ns := mt.Coll.Database().Name() + "." + mt.Coll.Name()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, docD(mt.T, doc)))

		got, err := repo.FindByID(ctx, doc.ID.Hex())
		require.NoError(mt, err)
		assert.Equal(mt, doc.ID.Hex(), got.ID)
		assert.Equal(mt, "hello", got.Text)
		assert.Equal(mt, alice.ID, got.UserID)
		assert.NotNil(mt, got.Likes)
	})

	mt.Run("malformed id is not found", func(mt *mtest.T) {
		repo := NewMongoPostRepository(mt.Coll)

		_, err := repo.FindByID(ctx, "xyz")
		assert.ErrorIs(mt, err, ErrNotFound)
		assert.ErrorIs(mt, repo.Delete(ctx, "xyz", alice.ID), ErrNotFound)
	})

	mt.Run("missing document is not found", func(mt *mtest.T) {
		repo := NewMongoPostRepository(mt.Coll)
		ns := mt.Coll.Database().Name() + "." + mt.Coll.Name()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch))

		_, err := repo.FindByID(ctx, primitive.NewObjectID().Hex())
		assert.ErrorIs(mt, err, ErrNotFound)
	})

	mt.Run("list", func(mt *mtest.T) {
		repo := NewMongoPostRepository(mt.Coll)
		newer, older := samplePost(), samplePost()
		older.Date = newer.Date.Add(-time.Minute)
		ns := mt.Coll.Database().Name() + "." + mt.Coll.Name()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, docD(mt.T, newer), docD(mt.T, older)))

		posts, err := repo.List(ctx)
		require.NoError(mt, err)
		require.Len(mt, posts, 2)
		assert.Equal(mt, newer.ID.Hex(), posts[0].ID)
	})

	mt.Run("delete by non owner matches nothing", func(mt *mtest.T) {
		repo := NewMongoPostRepository(mt.Coll)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}))

		err := repo.Delete(ctx, primitive.NewObjectID().Hex(), bob.ID)
		assert.ErrorIs(mt, err, ErrNotFound)
	})

	mt.Run("toggle like pushes when absent", func(mt *mtest.T) {
		repo := NewMongoPostRepository(mt.Coll)
		doc := samplePost()
		doc.Likes = []likeDocument{{User: bob.ID}}
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "value", Value: docD(mt.T, doc)}))

		got, err := repo.ToggleLike(ctx, doc.ID.Hex(), bob.ID)
		require.NoError(mt, err)
		assert.Equal(mt, []model.Like{{User: bob.ID}}, got.Likes)
	})

	mt.Run("toggle like pulls when present", func(mt *mtest.T) {
		repo := NewMongoPostRepository(mt.Coll)
		doc := samplePost()
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{Key: "value", Value: nil}),
			mtest.CreateSuccessResponse(bson.E{Key: "value", Value: docD(mt.T, doc)}),
		)

		got, err := repo.ToggleLike(ctx, doc.ID.Hex(), bob.ID)
		require.NoError(mt, err)
		assert.Empty(mt, got.Likes)
	})

	mt.Run("toggle like on missing post", func(mt *mtest.T) {
		repo := NewMongoPostRepository(mt.Coll)
		ns := mt.Coll.Database().Name() + "." + mt.Coll.Name()
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{Key: "value", Value: nil}),
			mtest.CreateSuccessResponse(bson.E{Key: "value", Value: nil}),
			mtest.CreateCursorResponse(0, ns, mtest.FirstBatch),
		)

		_, err := repo.ToggleLike(ctx, primitive.NewObjectID().Hex(), bob.ID)
		assert.ErrorIs(mt, err, ErrNotFound)
	})

	mt.Run("prepend comment", func(mt *mtest.T) {
		repo := NewMongoPostRepository(mt.Coll)
		c, err := model.NewComment(bob, "nice")
		require.NoError(mt, err)
		doc := samplePost()
		doc.Comments = []commentDocument{newCommentDocument(c)}
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "value", Value: docD(mt.T, doc)}))

		got, err := repo.PrependComment(ctx, doc.ID.Hex(), c)
		require.NoError(mt, err)
		require.Len(mt, got.Comments, 1)
		assert.Equal(mt, c.ID, got.Comments[0].ID)
		assert.Equal(mt, "nice", got.Comments[0].Text)
	})

	mt.Run("remove comment by non author", func(mt *mtest.T) {
		repo := NewMongoPostRepository(mt.Coll)
		c, err := model.NewComment(bob, "mine")
		require.NoError(mt, err)
		doc := samplePost()
		doc.Comments = []commentDocument{newCommentDocument(c)}
		ns := mt.Coll.Database().Name() + "." + mt.Coll.Name()
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{Key: "value", Value: nil}),
			mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, docD(mt.T, doc)),
		)

		_, err = repo.RemoveComment(ctx, doc.ID.Hex(), c.ID, alice.ID)
		assert.ErrorIs(mt, err, ErrNotOwner)
	})

	mt.Run("remove missing comment", func(mt *mtest.T) {
		repo := NewMongoPostRepository(mt.Coll)
		doc := samplePost()
		ns := mt.Coll.Database().Name() + "." + mt.Coll.Name()
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{Key: "value", Value: nil}),
			mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, docD(mt.T, doc)),
		)

		_, err := repo.RemoveComment(ctx, doc.ID.Hex(), "nope", alice.ID)
		assert.ErrorIs(mt, err, ErrNotFound)
	})
}
