package repomanager

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/issuedesk/internal/server/repositories/issues"
	"github.com/dmitrijs2005/issuedesk/internal/server/repositories/users"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// MongoRepositoryManager keeps users and issues in the "users" and "issues"
// collections of one database.
type MongoRepositoryManager struct {
	client *mongo.Client
	users  *users.MongoRepository
	issues *issues.MongoRepository
}

func NewMongoRepositoryManager(ctx context.Context, uri, database string) (*MongoRepositoryManager, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo connect error: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("mongo ping error: %w", err)
	}
	return newMongoManager(client, client.Database(database)), nil
}

func newMongoManager(client *mongo.Client, db *mongo.Database) *MongoRepositoryManager {
	return &MongoRepositoryManager{
		client: client,
		users:  users.NewMongoRepository(db),
		issues: issues.NewMongoRepository(db),
	}
}

func (m *MongoRepositoryManager) Users() users.Repository   { return m.users }
func (m *MongoRepositoryManager) Issues() issues.Repository { return m.issues }

// RunMigrations creates the collection indexes. Creating an existing index
// is a no-op, so this is safe on every start.
func (m *MongoRepositoryManager) RunMigrations(ctx context.Context) error {
	if err := m.users.EnsureIndexes(ctx); err != nil {
		return err
	}
	return m.issues.EnsureIndexes(ctx)
}

func (m *MongoRepositoryManager) Close(ctx context.Context) error {
	if m.client == nil {
		return nil
	}
	return m.client.Disconnect(ctx)
}
