package services

import (
	"context"
	"fmt"

	"collabhub/internal/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// NewMongoStores wires every store against one MongoDB database
func NewMongoStores(db *database.MongoDB) *Stores {
	return &Stores{
		Users:         NewUserStore(db),
		Admins:        NewAdminStore(db),
		Projects:      NewProjectStore(db),
		Approvals:     NewApprovalStore(db),
		Memberships:   NewMembershipStore(db),
		Tags:          NewTagStore(db),
		Tasks:         NewTaskStore(db),
		TaskHistory:   NewTaskHistoryStore(db),
		Comments:      NewCommentStore(db),
		Statistics:    NewStatisticStore(db),
		Notifications: NewNotificationStore(db),
		Tx:            db,
	}
}

// findAll runs a query and decodes every document
func findAll[T any](ctx context.Context, coll *mongo.Collection, filter interface{}, opts ...*options.FindOptions) ([]*T, error) {
	cursor, err := coll.Find(ctx, filter, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", coll.Name(), err)
	}
	defer cursor.Close(ctx)

	out := make([]*T, 0)
	if err := cursor.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", coll.Name(), err)
	}
	return out, nil
}

// findOne decodes a single document, translating ErrNoDocuments
func findOne[T any](ctx context.Context, coll *mongo.Collection, filter interface{}) (*T, error) {
	var doc T
	if err := coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		return nil, database.Translate("get "+coll.Name(), err)
	}
	return &doc, nil
}

// replaceByID replaces a whole document, reporting ErrNotFound when no row matched
func replaceByID(ctx context.Context, coll *mongo.Collection, id string, doc interface{}) error {
	result, err := coll.ReplaceOne(ctx, bson.M{"_id": id}, doc)
	if err != nil {
		return database.Translate("update "+coll.Name(), err)
	}
	if result.MatchedCount == 0 {
		return database.ErrNotFound
	}
	return nil
}

// deleteOne removes a document matching filter
func deleteOne(ctx context.Context, coll *mongo.Collection, filter interface{}) error {
	result, err := coll.DeleteOne(ctx, filter)
	if err != nil {
		return database.Translate("delete "+coll.Name(), err)
	}
	if result.DeletedCount == 0 {
		return database.ErrNotFound
	}
	return nil
}
