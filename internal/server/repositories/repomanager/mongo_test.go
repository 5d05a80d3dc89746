package repomanager

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

func TestMongoRepositoryManager(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("implements manager", func(mt *mtest.T) {
		var m RepositoryManager = NewMongoRepositoryManager(nil, mt.DB)
		assert.NotNil(mt, m.Users())
		assert.NotNil(mt, m.OTPs())
		assert.NotNil(mt, m.Faculties())
		assert.True(mt, primitive.IsValidObjectID(m.NewID()))
		assert.NoError(mt, m.Close(context.Background()))
	})

	mt.Run("run migrations creates indexes", func(mt *mtest.T) {
		m := NewMongoRepositoryManager(nil, mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse(), mtest.CreateSuccessResponse())

		require.NoError(mt, m.RunMigrations(context.Background()))

		var commands []string
		for _, e := range mt.GetAllStartedEvents() {
			commands = append(commands, e.CommandName)
		}
		assert.Equal(mt, []string{"createIndexes", "createIndexes"}, commands)
	})

	mt.Run("run migrations error", func(mt *mtest.T) {
		m := NewMongoRepositoryManager(nil, mt.DB)
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{Code: 85, Message: "index options conflict"}))

		err := m.RunMigrations(context.Background())
		require.Error(mt, err)
		assert.Contains(mt, err.Error(), "users indexes")
	})

	mt.Run("in tx runs fn with same repositories", func(mt *mtest.T) {
		m := NewMongoRepositoryManager(nil, mt.DB)

		called := false
		err := m.InTx(context.Background(), func(ctx context.Context, repos Repositories) error {
			called = true
			assert.Same(mt, m.users, repos.Users())
			return nil
		})
		require.NoError(mt, err)
		assert.True(mt, called)
	})
}
