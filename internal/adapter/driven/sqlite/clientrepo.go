package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ericfisherdev/credpanel/internal/domain/model"
	"github.com/ericfisherdev/credpanel/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.ClientStore = (*ClientRepo)(nil)

// ClientRepo is the SQLite implementation of the ClientStore port interface.
type ClientRepo struct {
	db *DB
}

// NewClientRepo creates a new ClientRepo backed by the given DB.
func NewClientRepo(db *DB) *ClientRepo {
	return &ClientRepo{db: db}
}

const clientColumns = `id, name, description, logo, initials, color, credential_count, last_accessed, created_at`

// Create inserts a new client with a zero credential count. Returns
// ErrClientNameTaken if the name is in use.
func (r *ClientRepo) Create(ctx context.Context, client model.Client) error {
	const query = `INSERT INTO clients (` + clientColumns + `) VALUES (?, ?, ?, ?, ?, ?, 0, ?, ?)`

	now := time.Now().UTC()
	createdAt := client.CreatedAt
	if createdAt.IsZero() {
		createdAt = now
	}
	lastAccessed := client.LastAccessed
	if lastAccessed.IsZero() {
		lastAccessed = createdAt
	}

	_, err := r.db.Writer.ExecContext(ctx, query,
		client.ID, client.Name, client.Description, client.Logo, client.Initials, client.Color,
		formatTime(lastAccessed), formatTime(createdAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("create client %s: %w", client.Name, driven.ErrClientNameTaken)
		}
		return fmt.Errorf("create client %s: %w", client.Name, err)
	}
	return nil
}

// GetByID returns the client, or nil, nil if it does not exist.
func (r *ClientRepo) GetByID(ctx context.Context, id string) (*model.Client, error) {
	const query = `SELECT ` + clientColumns + ` FROM clients WHERE id = ?`

	client, err := scanClient(r.db.Reader.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get client %s: %w", id, err)
	}
	return client, nil
}

// ListAll returns all clients ordered by name.
func (r *ClientRepo) ListAll(ctx context.Context) ([]model.Client, error) {
	const query = `SELECT ` + clientColumns + ` FROM clients ORDER BY name`

	rows, err := r.db.Reader.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list clients: %w", err)
	}
	defer rows.Close()

	var clients []model.Client
	for rows.Next() {
		client, err := scanClient(rows)
		if err != nil {
			return nil, fmt.Errorf("scan client: %w", err)
		}
		clients = append(clients, *client)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate clients: %w", err)
	}

	return clients, nil
}

// Update writes the descriptive columns of the client. credential_count and
// timestamps are left alone.
func (r *ClientRepo) Update(ctx context.Context, client model.Client) error {
	const query = `
		UPDATE clients
		SET name = ?, description = ?, logo = ?, initials = ?, color = ?
		WHERE id = ?
	`

	result, err := r.db.Writer.ExecContext(ctx, query,
		client.Name, client.Description, client.Logo, client.Initials, client.Color, client.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("update client %s: %w", client.ID, driven.ErrClientNameTaken)
		}
		return fmt.Errorf("update client %s: %w", client.ID, err)
	}

	return requireAffected(result, fmt.Sprintf("update client %s", client.ID), driven.ErrClientNotFound)
}

// Touch sets last_accessed to at.
func (r *ClientRepo) Touch(ctx context.Context, id string, at time.Time) error {
	const query = `UPDATE clients SET last_accessed = ? WHERE id = ?`

	result, err := r.db.Writer.ExecContext(ctx, query, formatTime(at), id)
	if err != nil {
		return fmt.Errorf("touch client %s: %w", id, err)
	}

	return requireAffected(result, fmt.Sprintf("touch client %s", id), driven.ErrClientNotFound)
}

// Delete removes the client, its credentials and their viewer rows in a
// single transaction. Child rows are deleted explicitly, not through
// ON DELETE CASCADE.
func (r *ClientRepo) Delete(ctx context.Context, id string) error {
	tx, err := r.db.Writer.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // Rollback after commit is a no-op.

	const deleteViewers = `
		DELETE FROM credential_viewers
		WHERE credential_id IN (SELECT id FROM credentials WHERE client_id = ?)
	`
	if _, err := tx.ExecContext(ctx, deleteViewers, id); err != nil {
		return fmt.Errorf("delete viewers for client %s: %w", id, err)
	}

	const deleteCredentials = `DELETE FROM credentials WHERE client_id = ?`
	if _, err := tx.ExecContext(ctx, deleteCredentials, id); err != nil {
		return fmt.Errorf("delete credentials for client %s: %w", id, err)
	}

	const deleteClient = `DELETE FROM clients WHERE id = ?`
	result, err := tx.ExecContext(ctx, deleteClient, id)
	if err != nil {
		return fmt.Errorf("delete client %s: %w", id, err)
	}
	if err := requireAffected(result, fmt.Sprintf("delete client %s", id), driven.ErrClientNotFound); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete client %s: %w", id, err)
	}
	return nil
}

// requireAffected returns notFound wrapped with op when result touched no rows.
func requireAffected(result sql.Result, op string, notFound error) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%s: %w", op, notFound)
	}
	return nil
}

func scanClient(s scanner) (*model.Client, error) {
	var client model.Client
	var lastAccessed, createdAt string

	err := s.Scan(
		&client.ID, &client.Name, &client.Description, &client.Logo, &client.Initials, &client.Color,
		&client.CredentialCount, &lastAccessed, &createdAt,
	)
	if err != nil {
		return nil, err
	}

	client.LastAccessed, err = parseTime(lastAccessed)
	if err != nil {
		return nil, fmt.Errorf("parse last_accessed: %w", err)
	}
	client.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}

	return &client, nil
}
