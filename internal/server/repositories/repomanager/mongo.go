package repomanager

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/facultyreview/internal/server/repositories/faculties"
	"github.com/dmitrijs2005/facultyreview/internal/server/repositories/otps"
	"github.com/dmitrijs2005/facultyreview/internal/server/repositories/users"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// MongoRepositoryManager vends MongoDB-backed repositories. Standalone
// servers have no multi-document transactions, so InTx runs fn directly;
// callers order their writes so a partial failure is recoverable.
type MongoRepositoryManager struct {
	client    *mongo.Client
	users     *users.MongoRepository
	otps      *otps.MongoRepository
	faculties *faculties.MongoRepository
}

func NewMongoRepositoryManager(client *mongo.Client, db *mongo.Database) *MongoRepositoryManager {
	return &MongoRepositoryManager{
		client:    client,
		users:     users.NewMongoRepository(db),
		otps:      otps.NewMongoRepository(db),
		faculties: faculties.NewMongoRepository(db),
	}
}

func (m *MongoRepositoryManager) Users() users.Repository         { return m.users }
func (m *MongoRepositoryManager) OTPs() otps.Repository           { return m.otps }
func (m *MongoRepositoryManager) Faculties() faculties.Repository { return m.faculties }

func (m *MongoRepositoryManager) NewID() string {
	return primitive.NewObjectID().Hex()
}

// RunMigrations creates the indexes the repositories rely on.
func (m *MongoRepositoryManager) RunMigrations(ctx context.Context) error {
	if err := m.users.EnsureIndexes(ctx); err != nil {
		return fmt.Errorf("users indexes: %w", err)
	}
	if err := m.otps.EnsureIndexes(ctx); err != nil {
		return fmt.Errorf("otps indexes: %w", err)
	}
	return nil
}

func (m *MongoRepositoryManager) InTx(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) error {
	return fn(ctx, m)
}

func (m *MongoRepositoryManager) Close(ctx context.Context) error {
	if m.client == nil {
		return nil
	}
	return m.client.Disconnect(ctx)
}

// OpenMongo connects to uri and checks connectivity.
func OpenMongo(ctx context.Context, uri, database string) (*MongoRepositoryManager, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	return NewMongoRepositoryManager(client, client.Database(database)), nil
}
