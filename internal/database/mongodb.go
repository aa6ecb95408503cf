package database

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// MongoDB wraps the MongoDB client and database
type MongoDB struct {
	client       *mongo.Client
	database     *mongo.Database
	dbName       string
	transactions bool
}

// Collection names
const (
	CollectionUsers             = "users"
	CollectionAdmins            = "admins"
	CollectionProjects          = "projects"
	CollectionProjectApprovals  = "project_approvals"
	CollectionProjectUsers      = "project_users"
	CollectionProjectTags       = "project_tags"
	CollectionProjectStatistics = "project_statistics"
	CollectionTasks             = "tasks"
	CollectionTaskHistory       = "task_history"
	CollectionComments          = "comments"
	CollectionNotifications     = "notifications"
)

// NewMongoDB creates a new MongoDB connection with connection pooling.
// dbName overrides the database named in the URI when non-empty.
func NewMongoDB(uri, dbName string, transactions bool) (*MongoDB, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	clientOptions := options.Client().
		ApplyURI(uri).
		SetMaxPoolSize(50).
		SetMinPoolSize(5).
		SetMaxConnIdleTime(30 * time.Second).
		SetServerSelectionTimeout(5 * time.Second).
		SetConnectTimeout(10 * time.Second)

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	if dbName == "" {
		dbName = extractDBName(uri)
	}

	db := &MongoDB{
		client:       client,
		database:     client.Database(dbName),
		dbName:       dbName,
		transactions: transactions,
	}

	log.Printf("✅ Connected to MongoDB database: %s (transactions: %v)", dbName, transactions)

	return db, nil
}

// extractDBName extracts the database name from MongoDB URI
// mongodb://localhost:27017/collabhub?authSource=admin -> collabhub
func extractDBName(uri string) string {
	rest := uri
	if i := strings.Index(rest, "://"); i != -1 {
		rest = rest[i+3:]
	}
	if i := strings.IndexByte(rest, '?'); i != -1 {
		rest = rest[:i]
	}
	if i := strings.IndexByte(rest, '/'); i != -1 && i+1 < len(rest) {
		return rest[i+1:]
	}
	return "collabhub"
}

// Initialize creates indexes for all collections. The unique indexes back the
// uniqueness rules the services check before writing.
func (m *MongoDB) Initialize(ctx context.Context) error {
	log.Println("📦 Initializing MongoDB indexes...")

	unique := options.Index().SetUnique(true)

	specs := []struct {
		collection string
		indexes    []mongo.IndexModel
	}{
		{CollectionUsers, []mongo.IndexModel{
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: unique},
			{Keys: bson.D{{Key: "state", Value: 1}}},
		}},
		{CollectionAdmins, []mongo.IndexModel{
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: unique},
		}},
		{CollectionProjects, []mongo.IndexModel{
			{Keys: bson.D{{Key: "name", Value: 1}}, Options: unique},
			{Keys: bson.D{{Key: "creatorId", Value: 1}, {Key: "status", Value: 1}}},
		}},
		{CollectionProjectApprovals, []mongo.IndexModel{
			{Keys: bson.D{{Key: "projectId", Value: 1}, {Key: "approvalDate", Value: -1}}},
		}},
		{CollectionProjectUsers, []mongo.IndexModel{
			{Keys: bson.D{{Key: "projectId", Value: 1}, {Key: "userId", Value: 1}}, Options: unique},
			{Keys: bson.D{{Key: "userId", Value: 1}}},
		}},
		{CollectionProjectTags, []mongo.IndexModel{
			{Keys: bson.D{{Key: "projectId", Value: 1}, {Key: "tagName", Value: 1}}, Options: unique},
		}},
		{CollectionProjectStatistics, []mongo.IndexModel{
			{Keys: bson.D{{Key: "projectId", Value: 1}}, Options: unique},
		}},
		{CollectionTasks, []mongo.IndexModel{
			{Keys: bson.D{{Key: "projectId", Value: 1}, {Key: "title", Value: 1}}, Options: unique},
			{Keys: bson.D{{Key: "creatorId", Value: 1}}},
			{Keys: bson.D{{Key: "assignees", Value: 1}}},
		}},
		{CollectionTaskHistory, []mongo.IndexModel{
			{Keys: bson.D{{Key: "taskId", Value: 1}, {Key: "actionTime", Value: -1}}},
		}},
		{CollectionComments, []mongo.IndexModel{
			{Keys: bson.D{{Key: "projectId", Value: 1}, {Key: "createdAt", Value: 1}}},
		}},
		{CollectionNotifications, []mongo.IndexModel{
			{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "projectId", Value: 1}}, Options: unique},
		}},
	}

	for _, spec := range specs {
		if err := m.createIndexes(ctx, spec.collection, spec.indexes); err != nil {
			return fmt.Errorf("failed to create %s indexes: %w", spec.collection, err)
		}
	}

	log.Println("✅ MongoDB indexes initialized")
	return nil
}

func (m *MongoDB) createIndexes(ctx context.Context, collectionName string, indexes []mongo.IndexModel) error {
	collection := m.database.Collection(collectionName)
	_, err := collection.Indexes().CreateMany(ctx, indexes)
	return err
}

// Collection returns a collection handle
func (m *MongoDB) Collection(name string) *mongo.Collection {
	return m.database.Collection(name)
}

// Client returns the underlying MongoDB client
func (m *MongoDB) Client() *mongo.Client {
	return m.client
}

// Database returns the underlying MongoDB database
func (m *MongoDB) Database() *mongo.Database {
	return m.database
}

// Close closes the MongoDB connection
func (m *MongoDB) Close(ctx context.Context) error {
	log.Println("🔌 Closing MongoDB connection...")
	return m.client.Disconnect(ctx)
}

// Ping checks if the database connection is alive
func (m *MongoDB) Ping(ctx context.Context) error {
	return m.client.Ping(ctx, readpref.Primary())
}

// WithTransaction executes a function within a transaction
func (m *MongoDB) WithTransaction(ctx context.Context, fn func(sessCtx mongo.SessionContext) error) error {
	session, err := m.client.StartSession()
	if err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sessCtx mongo.SessionContext) (interface{}, error) {
		return nil, fn(sessCtx)
	})
	return err
}

// RunInTransaction runs fn inside a multi-document transaction when the
// deployment supports it (replica set or sharded cluster). Standalone servers
// run fn directly and accept partial writes on failure.
func (m *MongoDB) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if !m.transactions {
		return fn(ctx)
	}
	return m.WithTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		return fn(sessCtx)
	})
}
