package model

import (
	"slices"
	"time"
)

// Credential is a stored secret. Password, URL and Notes hold ciphertext as
// persisted; the application layer decrypts them on the way out.
//
// IsLegacy credentials are visible to every authenticated user and have no
// viewer rows. Restricted credentials always carry an OwnerID.
type Credential struct {
	ID          string
	ClientID    string
	Name        string
	Environment Environment
	ServiceType ServiceType
	Username    string

	EncryptedPassword string
	EncryptedURL      *string
	EncryptedNotes    *string

	Tags      []string
	OwnerID   *string
	IsLegacy  bool
	ViewerIDs []string // Loaded with the credential; empty when IsLegacy.

	CreatedAt   time.Time
	LastUpdated time.Time
}

// IsOwnedBy reports whether userID is the credential's owner.
func (c *Credential) IsOwnedBy(userID string) bool {
	return c.OwnerID != nil && *c.OwnerID == userID
}

// HasViewer reports whether userID is on the viewer list.
func (c *Credential) HasViewer(userID string) bool {
	return slices.Contains(c.ViewerIDs, userID)
}

// CredentialViewer grants one user read access to one restricted credential.
type CredentialViewer struct {
	ID           string
	CredentialID string
	UserID       string
	CreatedAt    time.Time
}
