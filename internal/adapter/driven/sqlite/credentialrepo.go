package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ericfisherdev/credpanel/internal/domain/model"
	"github.com/ericfisherdev/credpanel/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.CredentialStore = (*CredentialRepo)(nil)

// CredentialRepo is the SQLite implementation of the CredentialStore port
// interface. Secret columns hold whatever ciphertext the caller supplies.
type CredentialRepo struct {
	db *DB
}

// NewCredentialRepo creates a new CredentialRepo backed by the given DB.
func NewCredentialRepo(db *DB) *CredentialRepo {
	return &CredentialRepo{db: db}
}

const credentialColumns = `
	id, client_id, name, environment, service_type, username,
	encrypted_password, encrypted_url, encrypted_notes, tags,
	owner_id, is_legacy, created_at, last_updated
`

// Create inserts the credential and its viewer rows and bumps the client's
// credential_count, all in one transaction.
func (r *CredentialRepo) Create(ctx context.Context, cred model.Credential) error {
	tags, err := encodeTags(cred.Tags)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	if cred.CreatedAt.IsZero() {
		cred.CreatedAt = now
	}
	if cred.LastUpdated.IsZero() {
		cred.LastUpdated = cred.CreatedAt
	}

	tx, err := r.db.Writer.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // Rollback after commit is a no-op.

	// The counter bump doubles as the client existence check.
	const bumpCount = `UPDATE clients SET credential_count = credential_count + 1 WHERE id = ?`
	result, err := tx.ExecContext(ctx, bumpCount, cred.ClientID)
	if err != nil {
		return fmt.Errorf("increment credential count for client %s: %w", cred.ClientID, err)
	}
	if err := requireAffected(result, fmt.Sprintf("create credential %s", cred.ID), driven.ErrClientNotFound); err != nil {
		return err
	}

	const insertQuery = `INSERT INTO credentials (` + credentialColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	if _, err := tx.ExecContext(ctx, insertQuery,
		cred.ID, cred.ClientID, cred.Name, string(cred.Environment), string(cred.ServiceType), cred.Username,
		cred.EncryptedPassword, cred.EncryptedURL, cred.EncryptedNotes, tags,
		cred.OwnerID, boolToInt(cred.IsLegacy), formatTime(cred.CreatedAt), formatTime(cred.LastUpdated),
	); err != nil {
		return fmt.Errorf("insert credential %s: %w", cred.ID, err)
	}

	if err := insertViewers(ctx, tx, cred.ID, cred.ViewerIDs, now); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit credential %s: %w", cred.ID, err)
	}
	return nil
}

// GetByID returns the credential with its viewers, or nil, nil.
func (r *CredentialRepo) GetByID(ctx context.Context, id string) (*model.Credential, error) {
	tx, err := r.db.readTx(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback() //nolint:errcheck // Read-only transaction.

	const query = `SELECT ` + credentialColumns + ` FROM credentials WHERE id = ?`
	cred, err := scanCredential(tx.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get credential %s: %w", id, err)
	}

	const viewersQuery = `SELECT credential_id, user_id FROM credential_viewers WHERE credential_id = ? ORDER BY created_at, rowid`
	viewers, err := loadViewers(ctx, tx, viewersQuery, id)
	if err != nil {
		return nil, err
	}
	cred.ViewerIDs = viewers[id]

	return cred, nil
}

// ListByClient returns the client's credentials in creation order.
func (r *CredentialRepo) ListByClient(ctx context.Context, clientID string) ([]model.Credential, error) {
	const query = `SELECT ` + credentialColumns + ` FROM credentials WHERE client_id = ? ORDER BY created_at, rowid`
	const viewersQuery = `
		SELECT v.credential_id, v.user_id
		FROM credential_viewers v
		JOIN credentials c ON c.id = v.credential_id
		WHERE c.client_id = ?
		ORDER BY v.created_at, v.rowid
	`
	return r.list(ctx, query, viewersQuery, clientID)
}

// ListAll returns every credential in creation order.
func (r *CredentialRepo) ListAll(ctx context.Context) ([]model.Credential, error) {
	const query = `SELECT ` + credentialColumns + ` FROM credentials ORDER BY created_at, rowid`
	const viewersQuery = `SELECT credential_id, user_id FROM credential_viewers ORDER BY created_at, rowid`
	return r.list(ctx, query, viewersQuery)
}

func (r *CredentialRepo) list(ctx context.Context, query, viewersQuery string, args ...any) ([]model.Credential, error) {
	tx, err := r.db.readTx(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback() //nolint:errcheck // Read-only transaction.

	rows, err := tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list credentials: %w", err)
	}
	defer rows.Close()

	var creds []model.Credential
	for rows.Next() {
		cred, err := scanCredential(rows)
		if err != nil {
			return nil, fmt.Errorf("scan credential: %w", err)
		}
		creds = append(creds, *cred)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate credentials: %w", err)
	}
	_ = rows.Close()

	viewers, err := loadViewers(ctx, tx, viewersQuery, args...)
	if err != nil {
		return nil, err
	}
	for i := range creds {
		creds[i].ViewerIDs = viewers[creds[i].ID]
	}

	return creds, nil
}

// Update overwrites the credential's field columns. When cred.ClientID
// differs from the stored client the credential moves, and both clients'
// credential_count change with it. owner_id, is_legacy and the viewer rows
// are only written when replaceViewers is set, so a field-only update never
// disturbs a concurrent visibility change. Everything runs in one transaction.
func (r *CredentialRepo) Update(ctx context.Context, cred model.Credential, replaceViewers bool) error {
	tags, err := encodeTags(cred.Tags)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	if cred.LastUpdated.IsZero() {
		cred.LastUpdated = now
	}

	tx, err := r.db.Writer.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // Rollback after commit is a no-op.

	var storedClientID string
	err = tx.QueryRowContext(ctx, `SELECT client_id FROM credentials WHERE id = ?`, cred.ID).Scan(&storedClientID)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("update credential %s: %w", cred.ID, driven.ErrCredentialNotFound)
	}
	if err != nil {
		return fmt.Errorf("lookup credential %s: %w", cred.ID, err)
	}
	if cred.ClientID == "" {
		cred.ClientID = storedClientID
	}

	if cred.ClientID != storedClientID {
		if err := moveCredentialCount(ctx, tx, storedClientID, cred.ClientID); err != nil {
			return err
		}
	}

	const updateFields = `
		UPDATE credentials
		SET client_id = ?, name = ?, environment = ?, service_type = ?, username = ?,
		    encrypted_password = ?, encrypted_url = ?, encrypted_notes = ?, tags = ?,
		    last_updated = ?
		WHERE id = ?
	`
	_, err = tx.ExecContext(ctx, updateFields,
		cred.ClientID, cred.Name, string(cred.Environment), string(cred.ServiceType), cred.Username,
		cred.EncryptedPassword, cred.EncryptedURL, cred.EncryptedNotes, tags,
		formatTime(cred.LastUpdated),
		cred.ID,
	)
	if err != nil {
		return fmt.Errorf("update credential %s: %w", cred.ID, err)
	}

	if replaceViewers {
		const updateVisibility = `UPDATE credentials SET owner_id = ?, is_legacy = ? WHERE id = ?`
		if _, err := tx.ExecContext(ctx, updateVisibility, cred.OwnerID, boolToInt(cred.IsLegacy), cred.ID); err != nil {
			return fmt.Errorf("update visibility of credential %s: %w", cred.ID, err)
		}

		const deleteViewers = `DELETE FROM credential_viewers WHERE credential_id = ?`
		if _, err := tx.ExecContext(ctx, deleteViewers, cred.ID); err != nil {
			return fmt.Errorf("delete viewers for credential %s: %w", cred.ID, err)
		}
		if err := insertViewers(ctx, tx, cred.ID, cred.ViewerIDs, now); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit credential %s: %w", cred.ID, err)
	}
	return nil
}

// moveCredentialCount shifts one credential from one client's counter to
// another's. The increment doubles as the destination existence check.
func moveCredentialCount(ctx context.Context, tx *sql.Tx, from, to string) error {
	const bumpCount = `UPDATE clients SET credential_count = credential_count + 1 WHERE id = ?`
	result, err := tx.ExecContext(ctx, bumpCount, to)
	if err != nil {
		return fmt.Errorf("increment credential count for client %s: %w", to, err)
	}
	if err := requireAffected(result, fmt.Sprintf("move credential to client %s", to), driven.ErrClientNotFound); err != nil {
		return err
	}

	const dropCount = `UPDATE clients SET credential_count = MAX(credential_count - 1, 0) WHERE id = ?`
	if _, err := tx.ExecContext(ctx, dropCount, from); err != nil {
		return fmt.Errorf("decrement credential count for client %s: %w", from, err)
	}
	return nil
}

// Delete removes the credential and its viewers and decrements the client's
// credential_count, floored at zero.
func (r *CredentialRepo) Delete(ctx context.Context, id string) error {
	tx, err := r.db.Writer.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // Rollback after commit is a no-op.

	var clientID string
	err = tx.QueryRowContext(ctx, `SELECT client_id FROM credentials WHERE id = ?`, id).Scan(&clientID)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("delete credential %s: %w", id, driven.ErrCredentialNotFound)
	}
	if err != nil {
		return fmt.Errorf("lookup credential %s: %w", id, err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM credential_viewers WHERE credential_id = ?`, id); err != nil {
		return fmt.Errorf("delete viewers for credential %s: %w", id, err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM credentials WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete credential %s: %w", id, err)
	}

	const dropCount = `UPDATE clients SET credential_count = MAX(credential_count - 1, 0) WHERE id = ?`
	if _, err := tx.ExecContext(ctx, dropCount, clientID); err != nil {
		return fmt.Errorf("decrement credential count for client %s: %w", clientID, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete credential %s: %w", id, err)
	}
	return nil
}

func insertViewers(ctx context.Context, tx *sql.Tx, credentialID string, userIDs []string, at time.Time) error {
	const query = `INSERT OR IGNORE INTO credential_viewers (id, credential_id, user_id, created_at) VALUES (?, ?, ?, ?)`

	for _, userID := range userIDs {
		if _, err := tx.ExecContext(ctx, query, uuid.NewString(), credentialID, userID, formatTime(at)); err != nil {
			return fmt.Errorf("insert viewer %s for credential %s: %w", userID, credentialID, err)
		}
	}
	return nil
}

// loadViewers groups viewer user ids by credential id.
func loadViewers(ctx context.Context, q queryer, query string, args ...any) (map[string][]string, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query credential viewers: %w", err)
	}
	defer rows.Close()

	viewers := make(map[string][]string)
	for rows.Next() {
		var credentialID, userID string
		if err := rows.Scan(&credentialID, &userID); err != nil {
			return nil, fmt.Errorf("scan credential viewer: %w", err)
		}
		viewers[credentialID] = append(viewers[credentialID], userID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate credential viewers: %w", err)
	}

	return viewers, nil
}

func scanCredential(s scanner) (*model.Credential, error) {
	var cred model.Credential
	var environment, serviceType, tags, createdAt, lastUpdated string
	var encryptedURL, encryptedNotes, ownerID sql.NullString
	var isLegacy int

	err := s.Scan(
		&cred.ID, &cred.ClientID, &cred.Name, &environment, &serviceType, &cred.Username,
		&cred.EncryptedPassword, &encryptedURL, &encryptedNotes, &tags,
		&ownerID, &isLegacy, &createdAt, &lastUpdated,
	)
	if err != nil {
		return nil, err
	}

	cred.Environment = model.Environment(environment)
	cred.ServiceType = model.ServiceType(serviceType)
	cred.EncryptedURL = nullStringPtr(encryptedURL)
	cred.EncryptedNotes = nullStringPtr(encryptedNotes)
	cred.OwnerID = nullStringPtr(ownerID)
	cred.IsLegacy = isLegacy != 0

	if err := json.Unmarshal([]byte(tags), &cred.Tags); err != nil {
		return nil, fmt.Errorf("decode tags: %w", err)
	}
	if cred.Tags == nil {
		cred.Tags = []string{}
	}

	cred.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	cred.LastUpdated, err = parseTime(lastUpdated)
	if err != nil {
		return nil, fmt.Errorf("parse last_updated: %w", err)
	}

	return &cred, nil
}

func encodeTags(tags []string) (string, error) {
	if tags == nil {
		tags = []string{}
	}
	data, err := json.Marshal(tags)
	if err != nil {
		return "", fmt.Errorf("encode tags: %w", err)
	}
	return string(data), nil
}

func nullStringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
