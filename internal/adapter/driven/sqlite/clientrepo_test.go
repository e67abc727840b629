package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/credpanel/internal/domain/model"
	"github.com/ericfisherdev/credpanel/internal/domain/port/driven"
)

func TestClientRepo_CreateAndGet(t *testing.T) {
	db := setupTestDB(t)
	repo := NewClientRepo(db)
	ctx := context.Background()

	err := repo.Create(ctx, model.Client{
		ID: "c1", Name: "Acme", Description: "Rockets", Initials: "AC", Color: "#ff0000",
	})
	require.NoError(t, err)

	client, err := repo.GetByID(ctx, "c1")
	require.NoError(t, err)
	require.NotNil(t, client)
	assert.Equal(t, "Acme", client.Name)
	assert.Equal(t, "Rockets", client.Description)
	assert.Equal(t, 0, client.CredentialCount)
	assert.False(t, client.CreatedAt.IsZero())
	assert.False(t, client.LastAccessed.IsZero())
}

func TestClientRepo_GetMissing(t *testing.T) {
	db := setupTestDB(t)

	client, err := NewClientRepo(db).GetByID(context.Background(), "missing")
	require.NoError(t, err)
	assert.Nil(t, client)
}

func TestClientRepo_DuplicateName(t *testing.T) {
	db := setupTestDB(t)
	repo := NewClientRepo(db)
	seedClient(t, db, "c1")

	err := repo.Create(context.Background(), model.Client{ID: "c2", Name: "Client c1", Initials: "X", Color: "#000"})
	assert.ErrorIs(t, err, driven.ErrClientNameTaken)
}

func TestClientRepo_Update(t *testing.T) {
	db := setupTestDB(t)
	repo := NewClientRepo(db)
	ctx := context.Background()
	seedClient(t, db, "c1")
	seedClient(t, db, "c2")

	client, err := repo.GetByID(ctx, "c1")
	require.NoError(t, err)
	client.Name = "Renamed"
	client.Color = "#00ff00"
	require.NoError(t, repo.Update(ctx, *client))

	got, err := repo.GetByID(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, "Renamed", got.Name)
	assert.Equal(t, "#00ff00", got.Color)

	client.Name = "Client c2"
	assert.ErrorIs(t, repo.Update(ctx, *client), driven.ErrClientNameTaken)

	assert.ErrorIs(t, repo.Update(ctx, model.Client{ID: "ghost", Name: "G"}), driven.ErrClientNotFound)
}

func TestClientRepo_Touch(t *testing.T) {
	db := setupTestDB(t)
	repo := NewClientRepo(db)
	ctx := context.Background()
	seedClient(t, db, "c1")

	at := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)
	require.NoError(t, repo.Touch(ctx, "c1", at))

	client, err := repo.GetByID(ctx, "c1")
	require.NoError(t, err)
	assert.True(t, at.Equal(client.LastAccessed))

	assert.ErrorIs(t, repo.Touch(ctx, "ghost", at), driven.ErrClientNotFound)
}

func TestClientRepo_DeleteCascades(t *testing.T) {
	db := setupTestDB(t)
	clients := NewClientRepo(db)
	creds := NewCredentialRepo(db)
	ctx := context.Background()

	seedUser(t, db, "owner")
	seedUser(t, db, "viewer")
	seedClient(t, db, "c1")
	seedClient(t, db, "c2")

	restricted := newCredential("cr1", "c1")
	restricted.IsLegacy = false
	restricted.OwnerID = strPtr("owner")
	restricted.ViewerIDs = []string{"viewer"}
	require.NoError(t, creds.Create(ctx, restricted))
	require.NoError(t, creds.Create(ctx, newCredential("cr2", "c1")))
	require.NoError(t, creds.Create(ctx, newCredential("other", "c2")))

	require.NoError(t, clients.Delete(ctx, "c1"))

	gone, err := clients.GetByID(ctx, "c1")
	require.NoError(t, err)
	assert.Nil(t, gone)

	remaining, err := creds.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.Equal(t, "other", remaining[0].ID)

	var viewerRows int
	require.NoError(t, db.Reader.QueryRowContext(ctx, `SELECT COUNT(*) FROM credential_viewers`).Scan(&viewerRows))
	assert.Equal(t, 0, viewerRows)

	assert.ErrorIs(t, clients.Delete(ctx, "c1"), driven.ErrClientNotFound)
}
