package repository

import (
	"context"
	"testing"

	"github.com/raushankrgupta/wardrobe-stylist/apierr"
	"github.com/raushankrgupta/wardrobe-stylist/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

func TestMongoUsers(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ctx := context.Background()

	mt.Run("duplicate email is a conflict", func(mt *mtest.T) {
		repo := NewMongoUserRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{
			Index:   0,
			Code:    11000,
			Message: "E11000 duplicate key error",
		}))

		err := repo.Create(ctx, &models.User{Email: "ann@example.com"})
		assert.ErrorIs(mt, err, apierr.ErrAlreadyExists)
	})

	mt.Run("get by email", func(mt *mtest.T) {
		repo := NewMongoUserRepository(mt.DB)
		id := primitive.NewObjectID()
		ns := mt.DB.Name() + "." + UsersCollection
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, bson.D{
			{Key: "_id", Value: id},
			{Key: "email", Value: "ann@example.com"},
			{Key: "name", Value: "Ann"},
			{Key: "recommendations_used", Value: 1},
		}))

		u, err := repo.GetByEmail(ctx, "Ann@Example.com")
		require.NoError(mt, err)
		assert.Equal(mt, id, u.ID)
		assert.Equal(mt, "Ann", u.Name)
		assert.Equal(mt, 1, u.RecommendationsUsed)
	})

	mt.Run("missing user", func(mt *mtest.T) {
		repo := NewMongoUserRepository(mt.DB)
		ns := mt.DB.Name() + "." + UsersCollection
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch))

		_, err := repo.GetByEmail(ctx, "nobody@example.com")
		assert.ErrorIs(mt, err, apierr.ErrNotFound)
	})

	mt.Run("exhausted quota", func(mt *mtest.T) {
		repo := NewMongoUserRepository(mt.DB)
		id := primitive.NewObjectID()
		ns := mt.DB.Name() + "." + UsersCollection
		mt.AddMockResponses(
			bson.D{{Key: "ok", Value: 1}, {Key: "value", Value: nil}},
			mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, bson.D{
				{Key: "_id", Value: id},
				{Key: "recommendations_used", Value: 3},
				{Key: "free_recommendations_limit", Value: 3},
			}),
		)

		_, err := repo.ConsumeRecommendation(ctx, id)
		assert.ErrorIs(mt, err, apierr.ErrQuotaExceeded)
	})

	mt.Run("wrong reset code counts an attempt", func(mt *mtest.T) {
		repo := NewMongoUserRepository(mt.DB)
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}, bson.E{Key: "nModified", Value: 0}),
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}, bson.E{Key: "nModified", Value: 1}),
		)

		err := repo.ResetPassword(ctx, "ann@example.com", "000000", "hash")
		assert.ErrorIs(mt, err, apierr.ErrUnauthorized)

		var updates []string
		for _, evt := range mt.GetAllStartedEvents() {
			if evt.CommandName == "update" {
				updates = append(updates, evt.Command.String())
			}
		}
		require.Len(mt, updates, 2)
		assert.Contains(mt, updates[0], "otp_expires_at")
		assert.Contains(mt, updates[0], "otp_attempts")
		assert.Contains(mt, updates[1], "$inc")
	})

	mt.Run("valid reset code", func(mt *mtest.T) {
		repo := NewMongoUserRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}, bson.E{Key: "nModified", Value: 1}))

		require.NoError(mt, repo.ResetPassword(ctx, "ann@example.com", "123456", "hash"))
	})
}

func TestMongoWardrobe(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ctx := context.Background()

	mt.Run("delete of a foreign item is forbidden", func(mt *mtest.T) {
		repo := NewMongoWardrobeRepository(mt.DB)
		ns := mt.DB.Name() + "." + WardrobeCollection
		mt.AddMockResponses(
			bson.D{{Key: "ok", Value: 1}, {Key: "value", Value: nil}},
			mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, bson.D{{Key: "n", Value: int32(1)}}),
		)

		_, err := repo.Delete(ctx, primitive.NewObjectID(), primitive.NewObjectID())
		assert.ErrorIs(mt, err, apierr.ErrForbidden)
	})

	mt.Run("delete of a missing item", func(mt *mtest.T) {
		repo := NewMongoWardrobeRepository(mt.DB)
		ns := mt.DB.Name() + "." + WardrobeCollection
		mt.AddMockResponses(
			bson.D{{Key: "ok", Value: 1}, {Key: "value", Value: nil}},
			mtest.CreateCursorResponse(0, ns, mtest.FirstBatch),
		)

		_, err := repo.Delete(ctx, primitive.NewObjectID(), primitive.NewObjectID())
		assert.ErrorIs(mt, err, apierr.ErrNotFound)
	})

	mt.Run("list by user", func(mt *mtest.T) {
		repo := NewMongoWardrobeRepository(mt.DB)
		ns := mt.DB.Name() + "." + WardrobeCollection
		userID := primitive.NewObjectID()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch,
			bson.D{{Key: "_id", Value: primitive.NewObjectID()}, {Key: "user_id", Value: userID}, {Key: "name", Value: "Tee"}, {Key: "category", Value: "Tops"}},
			bson.D{{Key: "_id", Value: primitive.NewObjectID()}, {Key: "user_id", Value: userID}, {Key: "name", Value: "Jeans"}, {Key: "category", Value: "Bottoms"}},
		))

		items, err := repo.ListByUser(ctx, userID)
		require.NoError(mt, err)
		require.Len(mt, items, 2)
		assert.Equal(mt, "Tee", items[0].Name)
		assert.Equal(mt, models.CategoryBottoms, items[1].Category)
	})
}
