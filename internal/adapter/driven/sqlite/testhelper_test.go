package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"testing"
	"time"

	"github.com/ericfisherdev/credpanel/internal/domain/model"
)

// setupTestDB creates a named shared in-memory SQLite database for testing.
// Writer and reader connections share the same in-memory database via cache=shared.
// A unique name derived from t.Name() ensures isolation between parallel tests.
func setupTestDB(t *testing.T) *DB {
	t.Helper()

	// Percent-encode the test name so it's a safe SQLite URI filename component
	// and cannot be misinterpreted as query parameters in the "file:%s?..." DSN.
	safeName := url.PathEscape(t.Name())
	// WAL mode is not applicable to in-memory databases; omit journal_mode pragma.
	dsn := fmt.Sprintf(
		"file:%s?mode=memory&cache=shared&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)&_pragma=foreign_keys(ON)&_pragma=cache_size(-64000)",
		safeName,
	)

	writer, err := sql.Open("sqlite", dsn)
	if err != nil {
		t.Fatalf("create test db writer: %v", err)
	}
	writer.SetMaxOpenConns(1)
	if err := writer.PingContext(context.Background()); err != nil {
		_ = writer.Close()
		t.Fatalf("ping test db writer: %v", err)
	}

	reader, err := sql.Open("sqlite", dsn)
	if err != nil {
		_ = writer.Close()
		t.Fatalf("create test db reader: %v", err)
	}
	reader.SetMaxOpenConns(4)
	if err := reader.PingContext(context.Background()); err != nil {
		_ = reader.Close()
		_ = writer.Close()
		t.Fatalf("ping test db reader: %v", err)
	}

	db := &DB{Writer: writer, Reader: reader, path: dsn}

	if err := RunMigrations(db.Writer); err != nil {
		_ = db.Close()
		t.Fatalf("run migrations: %v", err)
	}

	t.Cleanup(func() { _ = db.Close() })

	return db
}

func strPtr(s string) *string { return &s }

// seedUser inserts a user with the given id and returns it.
func seedUser(t *testing.T, db *DB, id string) model.User {
	t.Helper()

	user := model.User{
		ID:           id,
		Name:         "User " + id,
		Email:        id + "@example.com",
		PasswordHash: "hash-" + id,
		Role:         model.DefaultRole,
		CreatedAt:    time.Now().UTC(),
	}
	if err := NewUserRepo(db).Create(context.Background(), user); err != nil {
		t.Fatalf("seed user %s: %v", id, err)
	}
	return user
}

// seedClient inserts a client with the given id and returns it.
func seedClient(t *testing.T, db *DB, id string) model.Client {
	t.Helper()

	client := model.Client{
		ID:       id,
		Name:     "Client " + id,
		Initials: "CL",
		Color:    "#3366ff",
	}
	if err := NewClientRepo(db).Create(context.Background(), client); err != nil {
		t.Fatalf("seed client %s: %v", id, err)
	}
	return client
}

// newCredential builds a legacy credential for clientID owned by nobody.
func newCredential(id, clientID string) model.Credential {
	return model.Credential{
		ID:                id,
		ClientID:          clientID,
		Name:              "cred " + id,
		Environment:       model.EnvironmentDevelopment,
		ServiceType:       model.ServiceTypeDatabase,
		Username:          "admin",
		EncryptedPassword: "ct-password",
		Tags:              []string{"db"},
		IsLegacy:          true,
	}
}
