package services

import (
	"context"

	"collabhub/internal/database"
	"collabhub/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoProjectStore handles CRUD for projects in MongoDB
type MongoProjectStore struct {
	collection *mongo.Collection
}

// NewProjectStore creates a new project store
func NewProjectStore(db *database.MongoDB) *MongoProjectStore {
	return &MongoProjectStore{collection: db.Collection(database.CollectionProjects)}
}

var projectsByCreation = options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})

// Create inserts a new project; a taken name yields ErrDuplicate
func (s *MongoProjectStore) Create(ctx context.Context, project *models.Project) error {
	_, err := s.collection.InsertOne(ctx, project)
	return database.Translate("create project", err)
}

// GetByID returns a project by ID
func (s *MongoProjectStore) GetByID(ctx context.Context, id string) (*models.Project, error) {
	return findOne[models.Project](ctx, s.collection, bson.M{"_id": id})
}

// GetByName returns a project by its unique name
func (s *MongoProjectStore) GetByName(ctx context.Context, name string) (*models.Project, error) {
	return findOne[models.Project](ctx, s.collection, bson.M{"name": name})
}

// ListByCreator returns non-archived projects created by an email
func (s *MongoProjectStore) ListByCreator(ctx context.Context, creatorEmail string) ([]*models.Project, error) {
	return findAll[models.Project](ctx, s.collection, bson.M{
		"creatorId": creatorEmail,
		"status":    bson.M{"$ne": models.ProjectStatusArchived},
	}, projectsByCreation)
}

// ListByIDs returns non-archived projects among ids
func (s *MongoProjectStore) ListByIDs(ctx context.Context, ids []string) ([]*models.Project, error) {
	if len(ids) == 0 {
		return []*models.Project{}, nil
	}
	return findAll[models.Project](ctx, s.collection, bson.M{
		"_id":    bson.M{"$in": ids},
		"status": bson.M{"$ne": models.ProjectStatusArchived},
	}, projectsByCreation)
}

// ListByStatus returns every project in a status
func (s *MongoProjectStore) ListByStatus(ctx context.Context, status models.ProjectStatus) ([]*models.Project, error) {
	return findAll[models.Project](ctx, s.collection, bson.M{"status": status}, projectsByCreation)
}

// ListAll returns every project
func (s *MongoProjectStore) ListAll(ctx context.Context) ([]*models.Project, error) {
	return findAll[models.Project](ctx, s.collection, bson.M{}, projectsByCreation)
}

// Update replaces the stored project
func (s *MongoProjectStore) Update(ctx context.Context, project *models.Project) error {
	return replaceByID(ctx, s.collection, project.ID, project)
}

// MongoApprovalStore handles project approval records
type MongoApprovalStore struct {
	collection *mongo.Collection
}

// NewApprovalStore creates a new approval store
func NewApprovalStore(db *database.MongoDB) *MongoApprovalStore {
	return &MongoApprovalStore{collection: db.Collection(database.CollectionProjectApprovals)}
}

func (s *MongoApprovalStore) Create(ctx context.Context, approval *models.ProjectApproval) error {
	_, err := s.collection.InsertOne(ctx, approval)
	return database.Translate("create project approval", err)
}

func (s *MongoApprovalStore) ListByProject(ctx context.Context, projectID string) ([]*models.ProjectApproval, error) {
	return findAll[models.ProjectApproval](ctx, s.collection,
		bson.M{"projectId": projectID},
		options.Find().SetSort(bson.D{{Key: "approvalDate", Value: -1}}),
	)
}

// MongoMembershipStore handles ProjectUser rows
type MongoMembershipStore struct {
	collection *mongo.Collection
}

// NewMembershipStore creates a new membership store
func NewMembershipStore(db *database.MongoDB) *MongoMembershipStore {
	return &MongoMembershipStore{collection: db.Collection(database.CollectionProjectUsers)}
}

// Add inserts a membership; an existing (project, user) pair yields ErrDuplicate
func (s *MongoMembershipStore) Add(ctx context.Context, member *models.ProjectUser) error {
	_, err := s.collection.InsertOne(ctx, member)
	return database.Translate("add project member", err)
}

func (s *MongoMembershipStore) Exists(ctx context.Context, projectID, userID string) (bool, error) {
	n, err := s.collection.CountDocuments(ctx, bson.M{"projectId": projectID, "userId": userID}, options.Count().SetLimit(1))
	if err != nil {
		return false, database.Translate("check project member", err)
	}
	return n > 0, nil
}

func (s *MongoMembershipStore) ListByProject(ctx context.Context, projectID string) ([]*models.ProjectUser, error) {
	return findAll[models.ProjectUser](ctx, s.collection,
		bson.M{"projectId": projectID},
		options.Find().SetSort(bson.D{{Key: "joinedAt", Value: 1}}),
	)
}

func (s *MongoMembershipStore) ListByUser(ctx context.Context, userID string) ([]*models.ProjectUser, error) {
	return findAll[models.ProjectUser](ctx, s.collection, bson.M{"userId": userID})
}

// MongoTagStore handles project tags
type MongoTagStore struct {
	collection *mongo.Collection
}

// NewTagStore creates a new tag store
func NewTagStore(db *database.MongoDB) *MongoTagStore {
	return &MongoTagStore{collection: db.Collection(database.CollectionProjectTags)}
}

// AddMany inserts tags in order; a tag already on the project yields ErrDuplicate
func (s *MongoTagStore) AddMany(ctx context.Context, tags []*models.ProjectTag) error {
	if len(tags) == 0 {
		return nil
	}
	docs := make([]interface{}, len(tags))
	for i, t := range tags {
		docs[i] = t
	}
	_, err := s.collection.InsertMany(ctx, docs)
	return database.Translate("add project tags", err)
}

func (s *MongoTagStore) ListByProject(ctx context.Context, projectID string) ([]*models.ProjectTag, error) {
	return findAll[models.ProjectTag](ctx, s.collection,
		bson.M{"projectId": projectID},
		options.Find().SetSort(bson.D{{Key: "taggedAt", Value: 1}}),
	)
}

func (s *MongoTagStore) NamesByProjects(ctx context.Context, projectIDs []string) (map[string][]string, error) {
	out := make(map[string][]string, len(projectIDs))
	if len(projectIDs) == 0 {
		return out, nil
	}
	tags, err := findAll[models.ProjectTag](ctx, s.collection,
		bson.M{"projectId": bson.M{"$in": projectIDs}},
		options.Find().SetSort(bson.D{{Key: "taggedAt", Value: 1}}),
	)
	if err != nil {
		return nil, err
	}
	for _, t := range tags {
		out[t.ProjectID] = append(out[t.ProjectID], t.TagName)
	}
	return out, nil
}
