package driven

import (
	"context"
	"errors"
	"time"

	"github.com/ericfisherdev/credpanel/internal/domain/model"
)

// Sentinel errors returned by ClientStore implementations.
var (
	// ErrClientNotFound indicates the requested client does not exist.
	ErrClientNotFound = errors.New("client not found")

	// ErrClientNameTaken indicates another client already uses the name.
	ErrClientNameTaken = errors.New("client name already exists")
)

// ClientStore defines the driven port for client persistence.
// credential_count is owned by CredentialStore; Update never writes it.
type ClientStore interface {
	Create(ctx context.Context, client model.Client) error
	GetByID(ctx context.Context, id string) (*model.Client, error)
	ListAll(ctx context.Context) ([]model.Client, error)
	Update(ctx context.Context, client model.Client) error
	Touch(ctx context.Context, id string, at time.Time) error

	// Delete removes the client together with all of its credentials and
	// their viewer rows in one transaction.
	Delete(ctx context.Context, id string) error
}
