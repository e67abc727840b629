package driven

import (
	"context"
	"errors"

	"github.com/ericfisherdev/credpanel/internal/domain/model"
)

// Sentinel errors returned by UserStore implementations.
var (
	ErrUserNotFound = errors.New("user not found")
	ErrEmailTaken   = errors.New("email already registered")
)

// UserStore defines the driven port for the user directory.
type UserStore interface {
	Create(ctx context.Context, user model.User) error
	GetByID(ctx context.Context, id string) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	ListAll(ctx context.Context) ([]model.User, error)

	// GetByIDs returns the users that exist among ids, keyed by id.
	// Unknown ids are omitted.
	GetByIDs(ctx context.Context, ids []string) (map[string]model.User, error)

	UpdatePasswordHash(ctx context.Context, id, hash string) error
}
