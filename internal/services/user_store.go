package services

import (
	"context"

	"collabhub/internal/database"
	"collabhub/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoUserStore handles user documents in MongoDB
type MongoUserStore struct {
	collection *mongo.Collection
}

// NewUserStore creates a new user store
func NewUserStore(db *database.MongoDB) *MongoUserStore {
	return &MongoUserStore{collection: db.Collection(database.CollectionUsers)}
}

// Create inserts a new user; a taken email yields ErrDuplicate
func (s *MongoUserStore) Create(ctx context.Context, user *models.User) error {
	_, err := s.collection.InsertOne(ctx, user)
	return database.Translate("create user", err)
}

// GetByID returns a user by ID
func (s *MongoUserStore) GetByID(ctx context.Context, id string) (*models.User, error) {
	return findOne[models.User](ctx, s.collection, bson.M{"_id": id})
}

// GetByEmail returns a user by email
func (s *MongoUserStore) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return findOne[models.User](ctx, s.collection, bson.M{"email": email})
}

// ListByIDs returns the users whose ids are in ids
func (s *MongoUserStore) ListByIDs(ctx context.Context, ids []string) ([]*models.User, error) {
	if len(ids) == 0 {
		return []*models.User{}, nil
	}
	return findAll[models.User](ctx, s.collection, bson.M{"_id": bson.M{"$in": ids}})
}

// ListByStates returns users in any of the given states, oldest first
func (s *MongoUserStore) ListByStates(ctx context.Context, states ...models.UserState) ([]*models.User, error) {
	return findAll[models.User](ctx, s.collection,
		bson.M{"state": bson.M{"$in": states}},
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}}),
	)
}

// Update replaces the stored user
func (s *MongoUserStore) Update(ctx context.Context, user *models.User) error {
	return replaceByID(ctx, s.collection, user.ID, user)
}

// Delete removes a user
func (s *MongoUserStore) Delete(ctx context.Context, id string) error {
	return deleteOne(ctx, s.collection, bson.M{"_id": id})
}

// MongoAdminStore handles admin documents in MongoDB
type MongoAdminStore struct {
	collection *mongo.Collection
}

// NewAdminStore creates a new admin store
func NewAdminStore(db *database.MongoDB) *MongoAdminStore {
	return &MongoAdminStore{collection: db.Collection(database.CollectionAdmins)}
}

func (s *MongoAdminStore) Create(ctx context.Context, admin *models.Admin) error {
	_, err := s.collection.InsertOne(ctx, admin)
	return database.Translate("create admin", err)
}

func (s *MongoAdminStore) GetByID(ctx context.Context, id string) (*models.Admin, error) {
	return findOne[models.Admin](ctx, s.collection, bson.M{"_id": id})
}

func (s *MongoAdminStore) GetByEmail(ctx context.Context, email string) (*models.Admin, error) {
	return findOne[models.Admin](ctx, s.collection, bson.M{"email": email})
}

func (s *MongoAdminStore) Update(ctx context.Context, admin *models.Admin) error {
	return replaceByID(ctx, s.collection, admin.ID, admin)
}

func (s *MongoAdminStore) Delete(ctx context.Context, id string) error {
	return deleteOne(ctx, s.collection, bson.M{"_id": id})
}

// Count returns the number of admins
func (s *MongoAdminStore) Count(ctx context.Context) (int64, error) {
	n, err := s.collection.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, database.Translate("count admins", err)
	}
	return n, nil
}
