// Package memstore keeps every entity in process memory. It backs
// STORE_BACKEND=memory runs and the service and handler test suites, and
// enforces the same uniqueness rules as the MongoDB indexes.
package memstore

import (
	"context"
	"sync"

	"collabhub/internal/models"
	"collabhub/internal/services"
)

// table holds rows by id and remembers insertion order
type table[T any] struct {
	rows  map[string]*T
	order []string
}

func newTable[T any]() *table[T] {
	return &table[T]{rows: make(map[string]*T)}
}

func (t *table[T]) get(id string) (*T, bool) {
	v, ok := t.rows[id]
	return v, ok
}

func (t *table[T]) put(id string, v *T) {
	if _, ok := t.rows[id]; !ok {
		t.order = append(t.order, id)
	}
	t.rows[id] = v
}

func (t *table[T]) remove(id string) bool {
	if _, ok := t.rows[id]; !ok {
		return false
	}
	delete(t.rows, id)
	for i, v := range t.order {
		if v == id {
			t.order = append(t.order[:i], t.order[i+1:]...)
			break
		}
	}
	return true
}

// filter returns the rows matching keep in insertion order
func (t *table[T]) filter(keep func(*T) bool) []*T {
	out := make([]*T, 0)
	for _, id := range t.order {
		if v := t.rows[id]; keep(v) {
			out = append(out, v)
		}
	}
	return out
}

func (t *table[T]) count() int {
	return len(t.rows)
}

func clone[T any](v *T) *T {
	c := *v
	return &c
}

func cloneAll[T any](rows []*T) []*T {
	out := make([]*T, len(rows))
	for i, v := range rows {
		out[i] = clone(v)
	}
	return out
}

func reversed[T any](rows []*T) []*T {
	for i, j := 0, len(rows)-1; i < j; i, j = i+1, j-1 {
		rows[i], rows[j] = rows[j], rows[i]
	}
	return rows
}

func idSet(ids []string) map[string]bool {
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}

// DB is the shared state behind every store. One lock guards all tables.
type DB struct {
	mu sync.RWMutex

	users         *table[models.User]
	admins        *table[models.Admin]
	projects      *table[models.Project]
	approvals     *table[models.ProjectApproval]
	memberships   *table[models.ProjectUser]
	tags          *table[models.ProjectTag]
	tasks         *table[models.Task]
	history       *table[models.TaskHistory]
	comments      *table[models.Comment]
	statistics    *table[models.ProjectStatistic]
	notifications *table[models.Notification]
}

// NewDB creates an empty in-memory database
func NewDB() *DB {
	return &DB{
		users:         newTable[models.User](),
		admins:        newTable[models.Admin](),
		projects:      newTable[models.Project](),
		approvals:     newTable[models.ProjectApproval](),
		memberships:   newTable[models.ProjectUser](),
		tags:          newTable[models.ProjectTag](),
		tasks:         newTable[models.Task](),
		history:       newTable[models.TaskHistory](),
		comments:      newTable[models.Comment](),
		statistics:    newTable[models.ProjectStatistic](),
		notifications: newTable[models.Notification](),
	}
}

// RunInTransaction runs fn directly. Writes are not rolled back on error,
// matching MongoDB with MONGODB_TRANSACTIONS=false.
func (db *DB) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// Stores wires every store interface against this database
func (db *DB) Stores() *services.Stores {
	return &services.Stores{
		Users:         &UserStore{db: db},
		Admins:        &AdminStore{db: db},
		Projects:      &ProjectStore{db: db},
		Approvals:     &ApprovalStore{db: db},
		Memberships:   &MembershipStore{db: db},
		Tags:          &TagStore{db: db},
		Tasks:         &TaskStore{db: db},
		TaskHistory:   &TaskHistoryStore{db: db},
		Comments:      &CommentStore{db: db},
		Statistics:    &StatisticStore{db: db},
		Notifications: &NotificationStore{db: db},
		Tx:            db,
	}
}

// New returns stores over a fresh database
func New() *services.Stores {
	return NewDB().Stores()
}
