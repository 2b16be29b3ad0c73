package users

import (
	"context"
	"testing"
	"time"

	"github.com/dmitrijs2005/issuedesk/internal/common"
	"github.com/dmitrijs2005/issuedesk/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

func userDoc(id primitive.ObjectID, email string, extra ...bson.E) bson.D {
	d := bson.D{
		{Key: "_id", Value: id},
		{Key: "name", Value: "Ann"},
		{Key: "email", Value: email},
		{Key: "password", Value: "hash"},
		{Key: "role", Value: "user"},
		{Key: "createdAt", Value: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)},
		{Key: "updatedAt", Value: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)},
	}
	return append(d, extra...)
}

func TestMongoRepository(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ns := func(mt *mtest.T) string { return mt.DB.Name() + "." + CollectionName }

	mt.Run("create", func(mt *mtest.T) {
		repo := NewMongoRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		u, err := repo.Create(context.Background(), &models.User{Name: "Ann", Email: "a@x.com", PasswordHash: "h", Role: models.RoleUser})
		require.NoError(mt, err)
		assert.Len(mt, u.ID, 24)
		assert.Equal(mt, models.RoleUser, u.Role)
	})

	mt.Run("create duplicate", func(mt *mtest.T) {
		repo := NewMongoRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{Index: 0, Code: 11000, Message: "duplicate key error"}))

		_, err := repo.Create(context.Background(), &models.User{Email: "a@x.com"})
		assert.ErrorIs(mt, err, common.ErrorAlreadyExists)
	})

	mt.Run("find by email with reset", func(mt *mtest.T) {
		repo := NewMongoRepository(mt.DB)
		id := primitive.NewObjectID()
		exp := time.Date(2026, 1, 1, 0, 10, 0, 0, time.UTC)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns(mt), mtest.FirstBatch,
			userDoc(id, "a@x.com",
				bson.E{Key: "resetPasswordOTP", Value: "123456"},
				bson.E{Key: "resetPasswordOTPExpires", Value: exp})))

		u, err := repo.FindByEmail(context.Background(), "a@x.com")
		require.NoError(mt, err)
		assert.Equal(mt, id.Hex(), u.ID)
		require.NotNil(mt, u.Reset)
		assert.Equal(mt, "123456", u.Reset.Code)
		assert.True(mt, exp.Equal(u.Reset.ExpiresAt))
	})

	mt.Run("find by email missing", func(mt *mtest.T) {
		repo := NewMongoRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns(mt), mtest.FirstBatch))

		_, err := repo.FindByEmail(context.Background(), "ghost@x.com")
		assert.ErrorIs(mt, err, common.ErrorNotFound)
	})

	mt.Run("find by id", func(mt *mtest.T) {
		repo := NewMongoRepository(mt.DB)
		id := primitive.NewObjectID()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns(mt), mtest.FirstBatch, userDoc(id, "a@x.com")))

		u, err := repo.FindByID(context.Background(), id.Hex())
		require.NoError(mt, err)
		assert.Equal(mt, "a@x.com", u.Email)
		assert.Nil(mt, u.Reset)
	})

	mt.Run("find by invalid id", func(mt *mtest.T) {
		repo := NewMongoRepository(mt.DB)
		_, err := repo.FindByID(context.Background(), "admin-bypass")
		assert.ErrorIs(mt, err, common.ErrorInvalidID)
	})

	mt.Run("list", func(mt *mtest.T) {
		repo := NewMongoRepository(mt.DB)
		mt.AddMockResponses(
			mtest.CreateCursorResponse(1, ns(mt), mtest.FirstBatch,
				userDoc(primitive.NewObjectID(), "a@x.com"),
				userDoc(primitive.NewObjectID(), "b@x.com")),
			mtest.CreateCursorResponse(0, ns(mt), mtest.NextBatch),
		)

		all, err := repo.List(context.Background())
		require.NoError(mt, err)
		require.Len(mt, all, 2)
		assert.Equal(mt, "b@x.com", all[1].Email)
	})

	mt.Run("set role", func(mt *mtest.T) {
		repo := NewMongoRepository(mt.DB)
		id := primitive.NewObjectID()
		doc := userDoc(id, "a@x.com")
		doc[4] = bson.E{Key: "role", Value: "admin"}
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "value", Value: doc}))

		u, err := repo.SetRole(context.Background(), "a@x.com", models.RoleAdmin)
		require.NoError(mt, err)
		assert.Equal(mt, models.RoleAdmin, u.Role)
	})

	mt.Run("set password reset", func(mt *mtest.T) {
		repo := NewMongoRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}, bson.E{Key: "nModified", Value: 1}))

		err := repo.SetPasswordReset(context.Background(), "a@x.com", models.PasswordReset{Code: "123456", ExpiresAt: time.Now()})
		require.NoError(mt, err)
	})

	mt.Run("set password reset unknown email", func(mt *mtest.T) {
		repo := NewMongoRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}, bson.E{Key: "nModified", Value: 0}))

		err := repo.SetPasswordReset(context.Background(), "ghost@x.com", models.PasswordReset{Code: "1", ExpiresAt: time.Now()})
		assert.ErrorIs(mt, err, common.ErrorNotFound)
	})

	mt.Run("consume password reset", func(mt *mtest.T) {
		repo := NewMongoRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}, bson.E{Key: "nModified", Value: 1}))

		require.NoError(mt, repo.ConsumePasswordReset(context.Background(), "a@x.com", "123456", time.Now(), "new"))
	})

	mt.Run("consume password reset no match", func(mt *mtest.T) {
		repo := NewMongoRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}, bson.E{Key: "nModified", Value: 0}))

		err := repo.ConsumePasswordReset(context.Background(), "a@x.com", "000000", time.Now(), "new")
		assert.ErrorIs(mt, err, common.ErrorInvalidOTP)
	})
}
