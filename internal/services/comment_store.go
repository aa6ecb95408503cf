package services

import (
	"context"
	"time"

	"collabhub/internal/database"
	"collabhub/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoCommentStore handles project comments in MongoDB
type MongoCommentStore struct {
	collection *mongo.Collection
}

// NewCommentStore creates a new comment store
func NewCommentStore(db *database.MongoDB) *MongoCommentStore {
	return &MongoCommentStore{collection: db.Collection(database.CollectionComments)}
}

func (s *MongoCommentStore) Create(ctx context.Context, comment *models.Comment) error {
	_, err := s.collection.InsertOne(ctx, comment)
	return database.Translate("create comment", err)
}

func (s *MongoCommentStore) GetByID(ctx context.Context, id string) (*models.Comment, error) {
	return findOne[models.Comment](ctx, s.collection, bson.M{"_id": id})
}

// ListByProject returns comments oldest first without file payloads
func (s *MongoCommentStore) ListByProject(ctx context.Context, projectID string) ([]*models.Comment, error) {
	return findAll[models.Comment](ctx, s.collection,
		bson.M{"projectId": projectID},
		options.Find().
			SetSort(bson.D{{Key: "createdAt", Value: 1}}).
			SetProjection(bson.M{"fileData": 0}),
	)
}

// MongoStatisticStore handles derived project statistics
type MongoStatisticStore struct {
	collection *mongo.Collection
}

// NewStatisticStore creates a new statistic store
func NewStatisticStore(db *database.MongoDB) *MongoStatisticStore {
	return &MongoStatisticStore{collection: db.Collection(database.CollectionProjectStatistics)}
}

func (s *MongoStatisticStore) Get(ctx context.Context, projectID string) (*models.ProjectStatistic, error) {
	return findOne[models.ProjectStatistic](ctx, s.collection, bson.M{"projectId": projectID})
}

// Upsert writes the counters for a project, keeping the row id stable
func (s *MongoStatisticStore) Upsert(ctx context.Context, stat *models.ProjectStatistic) error {
	_, err := s.collection.UpdateOne(ctx,
		bson.M{"projectId": stat.ProjectID},
		bson.M{
			"$set": bson.M{
				"totalTasks":           stat.TotalTasks,
				"completedTasks":       stat.CompletedTasks,
				"overdueTasks":         stat.OverdueTasks,
				"completionPercentage": stat.CompletionPercentage,
				"lastUpdated":          stat.LastUpdated,
			},
			"$setOnInsert": bson.M{"_id": stat.ID},
		},
		options.Update().SetUpsert(true),
	)
	return database.Translate("upsert project statistic", err)
}

func (s *MongoStatisticStore) ListProjectIDs(ctx context.Context) ([]string, error) {
	values, err := s.collection.Distinct(ctx, "projectId", bson.M{})
	if err != nil {
		return nil, database.Translate("list statistic projects", err)
	}
	ids := make([]string, 0, len(values))
	for _, v := range values {
		if id, ok := v.(string); ok {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// MongoNotificationStore handles unread counters
type MongoNotificationStore struct {
	collection *mongo.Collection
}

// NewNotificationStore creates a new notification store
func NewNotificationStore(db *database.MongoDB) *MongoNotificationStore {
	return &MongoNotificationStore{collection: db.Collection(database.CollectionNotifications)}
}

// Increment bumps the counter for each user with an upserting $inc
func (s *MongoNotificationStore) Increment(ctx context.Context, projectID string, userIDs []string) error {
	if len(userIDs) == 0 {
		return nil
	}

	now := time.Now()
	writes := make([]mongo.WriteModel, 0, len(userIDs))
	for _, userID := range userIDs {
		writes = append(writes, mongo.NewUpdateOneModel().
			SetFilter(bson.M{"userId": userID, "projectId": projectID}).
			SetUpdate(bson.M{
				"$inc": bson.M{"unreadMessages": 1},
				"$set": bson.M{"updatedAt": now},
			}).
			SetUpsert(true))
	}

	_, err := s.collection.BulkWrite(ctx, writes, options.BulkWrite().SetOrdered(false))
	return database.Translate("increment notifications", err)
}

func (s *MongoNotificationStore) Get(ctx context.Context, userID, projectID string) (*models.Notification, error) {
	return findOne[models.Notification](ctx, s.collection, bson.M{"userId": userID, "projectId": projectID})
}

func (s *MongoNotificationStore) ListByUser(ctx context.Context, userID string) ([]*models.Notification, error) {
	return findAll[models.Notification](ctx, s.collection,
		bson.M{"userId": userID},
		options.Find().SetSort(bson.D{{Key: "updatedAt", Value: -1}}),
	)
}

// Reset zeroes the counter; a missing row is created at zero
func (s *MongoNotificationStore) Reset(ctx context.Context, userID, projectID string) error {
	_, err := s.collection.UpdateOne(ctx,
		bson.M{"userId": userID, "projectId": projectID},
		bson.M{"$set": bson.M{"unreadMessages": 0, "updatedAt": time.Now()}},
		options.Update().SetUpsert(true),
	)
	return database.Translate("reset notifications", err)
}
