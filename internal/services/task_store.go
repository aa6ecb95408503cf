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

// MongoTaskStore handles CRUD for tasks in MongoDB
type MongoTaskStore struct {
	collection *mongo.Collection
}

// NewTaskStore creates a new task store
func NewTaskStore(db *database.MongoDB) *MongoTaskStore {
	return &MongoTaskStore{collection: db.Collection(database.CollectionTasks)}
}

var tasksByCreation = options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}})

// Create inserts a task; a title already used in the project yields ErrDuplicate
func (s *MongoTaskStore) Create(ctx context.Context, task *models.Task) error {
	_, err := s.collection.InsertOne(ctx, task)
	return database.Translate("create task", err)
}

func (s *MongoTaskStore) GetByID(ctx context.Context, id string) (*models.Task, error) {
	return findOne[models.Task](ctx, s.collection, bson.M{"_id": id})
}

func (s *MongoTaskStore) GetByTitle(ctx context.Context, projectID, title string) (*models.Task, error) {
	return findOne[models.Task](ctx, s.collection, bson.M{"projectId": projectID, "title": title})
}

func (s *MongoTaskStore) ListByProject(ctx context.Context, projectID string) ([]*models.Task, error) {
	return findAll[models.Task](ctx, s.collection, bson.M{"projectId": projectID}, tasksByCreation)
}

func (s *MongoTaskStore) ListByCreator(ctx context.Context, userID string) ([]*models.Task, error) {
	return findAll[models.Task](ctx, s.collection, bson.M{"creatorId": userID}, tasksByCreation)
}

// ListByAssignee matches tasks whose assignees array contains userID
func (s *MongoTaskStore) ListByAssignee(ctx context.Context, userID string) ([]*models.Task, error) {
	return findAll[models.Task](ctx, s.collection, bson.M{"assignees": userID}, tasksByCreation)
}

func (s *MongoTaskStore) Update(ctx context.Context, task *models.Task) error {
	return replaceByID(ctx, s.collection, task.ID, task)
}

// Delete removes a task only if both its id and project match
func (s *MongoTaskStore) Delete(ctx context.Context, projectID, taskID string) error {
	return deleteOne(ctx, s.collection, bson.M{"_id": taskID, "projectId": projectID})
}

// CountByProject counts total, completed and overdue tasks for a project
func (s *MongoTaskStore) CountByProject(ctx context.Context, projectID string, now time.Time) (models.TaskCounts, error) {
	var counts models.TaskCounts

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"projectId": projectID}}},
		{{Key: "$group", Value: bson.M{
			"_id":   nil,
			"total": bson.M{"$sum": 1},
			"completed": bson.M{"$sum": bson.M{
				"$cond": bson.A{bson.M{"$eq": bson.A{"$status", models.TaskStatusCompleted}}, 1, 0},
			}},
			"overdue": bson.M{"$sum": bson.M{
				"$cond": bson.A{bson.M{"$and": bson.A{
					bson.M{"$ne": bson.A{"$status", models.TaskStatusCompleted}},
					bson.M{"$gt": bson.A{"$deadline", nil}},
					bson.M{"$lt": bson.A{"$deadline", now}},
				}}, 1, 0},
			}},
		}}},
	}

	cursor, err := s.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return counts, database.Translate("count tasks", err)
	}
	defer cursor.Close(ctx)

	var rows []struct {
		Total     int `bson:"total"`
		Completed int `bson:"completed"`
		Overdue   int `bson:"overdue"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return counts, database.Translate("decode task counts", err)
	}
	if len(rows) > 0 {
		counts.Total = rows[0].Total
		counts.Completed = rows[0].Completed
		counts.Overdue = rows[0].Overdue
	}
	return counts, nil
}

// MongoTaskHistoryStore handles the append-only task audit trail
type MongoTaskHistoryStore struct {
	collection *mongo.Collection
}

// NewTaskHistoryStore creates a new task history store
func NewTaskHistoryStore(db *database.MongoDB) *MongoTaskHistoryStore {
	return &MongoTaskHistoryStore{collection: db.Collection(database.CollectionTaskHistory)}
}

func (s *MongoTaskHistoryStore) Append(ctx context.Context, entries ...*models.TaskHistory) error {
	if len(entries) == 0 {
		return nil
	}
	docs := make([]interface{}, len(entries))
	for i, e := range entries {
		docs[i] = e
	}
	_, err := s.collection.InsertMany(ctx, docs)
	return database.Translate("append task history", err)
}

func (s *MongoTaskHistoryStore) ListByTask(ctx context.Context, taskID string) ([]*models.TaskHistory, error) {
	return findAll[models.TaskHistory](ctx, s.collection,
		bson.M{"taskId": taskID},
		options.Find().SetSort(bson.D{{Key: "actionTime", Value: -1}}),
	)
}
