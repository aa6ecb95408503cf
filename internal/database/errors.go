package database

import (
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"
)

var (
	// ErrNotFound is returned when a lookup matches no document
	ErrNotFound = errors.New("not found")
	// ErrDuplicate is returned when a write would violate a unique index
	ErrDuplicate = errors.New("duplicate key")
)

// Translate maps driver errors onto the package sentinels. op names the
// failed operation for the wrapped message.
func Translate(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return fmt.Errorf("%s: %w", op, ErrDuplicate)
	default:
		return fmt.Errorf("failed to %s: %w", op, err)
	}
}
