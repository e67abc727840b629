package driven

import (
	"context"
	"errors"

	"github.com/ericfisherdev/credpanel/internal/domain/model"
)

// ErrCredentialNotFound indicates the requested credential does not exist.
var ErrCredentialNotFound = errors.New("credential not found")

// CredentialStore defines the driven port for credential persistence. Values in
// the Encrypted* fields are stored as given; the store never sees plaintext.
//
// Every method that touches more than one row runs in a single transaction.
type CredentialStore interface {
	// Create inserts the credential, one viewer row per entry in ViewerIDs,
	// and increments the owning client's credential_count. Returns
	// ErrClientNotFound if ClientID does not reference a client.
	Create(ctx context.Context, cred model.Credential) error

	// GetByID returns the credential with its viewer ids loaded, or nil, nil
	// if it does not exist.
	GetByID(ctx context.Context, id string) (*model.Credential, error)

	// ListByClient returns the client's credentials in creation order.
	ListByClient(ctx context.Context, clientID string) ([]model.Credential, error)

	// ListAll returns every credential in creation order.
	ListAll(ctx context.Context) ([]model.Credential, error)

	// Update overwrites the credential's fields and moves it between clients
	// when ClientID changed, adjusting both counters. Owner, legacy flag and
	// viewer rows are written only when replaceViewers is true, all in the
	// same transaction. Returns ErrCredentialNotFound if the row is gone and
	// ErrClientNotFound if the destination client does not exist.
	Update(ctx context.Context, cred model.Credential, replaceViewers bool) error

	// Delete removes the credential and its viewer rows and decrements the
	// client's credential_count, never below zero. Returns
	// ErrCredentialNotFound if the row does not exist.
	Delete(ctx context.Context, id string) error
}
