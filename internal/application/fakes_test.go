package application

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/ericfisherdev/credpanel/internal/domain/model"
	"github.com/ericfisherdev/credpanel/internal/domain/port/driven"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// --- in-memory stores ---

type memStore struct {
	mu      sync.Mutex
	users   map[string]model.User
	clients map[string]model.Client
	creds   []model.Credential

	failUpdate error
}

func newMemStore() *memStore {
	return &memStore{
		users:   map[string]model.User{},
		clients: map[string]model.Client{},
	}
}

func (m *memStore) addUser(id string) model.User {
	u := model.User{ID: id, Name: "Name " + id, Email: id + "@example.com", Role: model.DefaultRole}
	m.users[id] = u
	return u
}

func (m *memStore) addClient(id string) {
	m.clients[id] = model.Client{ID: id, Name: "Client " + id, Initials: "C", Color: "#000"}
}

func (m *memStore) count(clientID string) int {
	return m.clients[clientID].CredentialCount
}

func cloneCred(c model.Credential) model.Credential {
	c.Tags = slices.Clone(c.Tags)
	c.ViewerIDs = slices.Clone(c.ViewerIDs)
	if c.OwnerID != nil {
		o := *c.OwnerID
		c.OwnerID = &o
	}
	return c
}

type memCredentials struct{ *memStore }

func (m memCredentials) Create(_ context.Context, cred model.Credential) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	client, ok := m.clients[cred.ClientID]
	if !ok {
		return driven.ErrClientNotFound
	}
	client.CredentialCount++
	m.clients[cred.ClientID] = client
	m.creds = append(m.creds, cloneCred(cred))
	return nil
}

func (m memCredentials) GetByID(_ context.Context, id string) (*model.Credential, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.creds {
		if c.ID == id {
			out := cloneCred(c)
			return &out, nil
		}
	}
	return nil, nil
}

func (m memCredentials) ListByClient(_ context.Context, clientID string) ([]model.Credential, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Credential
	for _, c := range m.creds {
		if c.ClientID == clientID {
			out = append(out, cloneCred(c))
		}
	}
	return out, nil
}

func (m memCredentials) ListAll(_ context.Context) ([]model.Credential, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.Credential, 0, len(m.creds))
	for _, c := range m.creds {
		out = append(out, cloneCred(c))
	}
	return out, nil
}

func (m memCredentials) Update(_ context.Context, cred model.Credential, replaceViewers bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failUpdate != nil {
		return m.failUpdate
	}
	for i, c := range m.creds {
		if c.ID == cred.ID {
			next := cloneCred(cred)
			if next.ClientID != c.ClientID {
				to, ok := m.clients[next.ClientID]
				if !ok {
					return driven.ErrClientNotFound
				}
				to.CredentialCount++
				m.clients[next.ClientID] = to
				from := m.clients[c.ClientID]
				from.CredentialCount = max(from.CredentialCount-1, 0)
				m.clients[c.ClientID] = from
			}
			if !replaceViewers {
				next.OwnerID = c.OwnerID
				next.IsLegacy = c.IsLegacy
				next.ViewerIDs = slices.Clone(c.ViewerIDs)
			}
			m.creds[i] = next
			return nil
		}
	}
	return driven.ErrCredentialNotFound
}

func (m memCredentials) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, c := range m.creds {
		if c.ID == id {
			m.creds = slices.Delete(m.creds, i, i+1)
			client := m.clients[c.ClientID]
			client.CredentialCount = max(client.CredentialCount-1, 0)
			m.clients[c.ClientID] = client
			return nil
		}
	}
	return driven.ErrCredentialNotFound
}

type memClients struct{ *memStore }

func (m memClients) Create(_ context.Context, client model.Client) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.clients {
		if c.Name == client.Name {
			return driven.ErrClientNameTaken
		}
	}
	client.CredentialCount = 0
	m.clients[client.ID] = client
	return nil
}

func (m memClients) GetByID(_ context.Context, id string) (*model.Client, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.clients[id]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (m memClients) ListAll(_ context.Context) ([]model.Client, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.Client, 0, len(m.clients))
	for _, c := range m.clients {
		out = append(out, c)
	}
	slices.SortFunc(out, func(a, b model.Client) int { return strings.Compare(a.Name, b.Name) })
	return out, nil
}

func (m memClients) Update(_ context.Context, client model.Client) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.clients[client.ID]
	if !ok {
		return driven.ErrClientNotFound
	}
	for id, c := range m.clients {
		if id != client.ID && c.Name == client.Name {
			return driven.ErrClientNameTaken
		}
	}
	client.CredentialCount = existing.CredentialCount
	m.clients[client.ID] = client
	return nil
}

func (m memClients) Touch(_ context.Context, id string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.clients[id]
	if !ok {
		return driven.ErrClientNotFound
	}
	c.LastAccessed = at
	m.clients[id] = c
	return nil
}

func (m memClients) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.clients[id]; !ok {
		return driven.ErrClientNotFound
	}
	delete(m.clients, id)
	m.creds = slices.DeleteFunc(m.creds, func(c model.Credential) bool { return c.ClientID == id })
	return nil
}

type memUsers struct{ *memStore }

func (m memUsers) Create(_ context.Context, user model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == user.Email {
			return driven.ErrEmailTaken
		}
	}
	m.users[user.ID] = user
	return nil
}

func (m memUsers) GetByID(_ context.Context, id string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (m memUsers) GetByEmail(_ context.Context, email string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, nil
}

func (m memUsers) ListAll(_ context.Context) ([]model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.User, 0, len(m.users))
	for _, u := range m.users {
		out = append(out, u)
	}
	slices.SortFunc(out, func(a, b model.User) int { return strings.Compare(a.Name, b.Name) })
	return out, nil
}

func (m memUsers) GetByIDs(_ context.Context, ids []string) (map[string]model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := map[string]model.User{}
	for _, id := range ids {
		if u, ok := m.users[id]; ok {
			out[id] = u
		}
	}
	return out, nil
}

func (m memUsers) UpdatePasswordHash(_ context.Context, id, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return driven.ErrUserNotFound
	}
	u.PasswordHash = hash
	m.users[id] = u
	return nil
}

// --- crypto and auth fakes ---

// fakeCipher prefixes values so tests can tell stored ciphertext from plaintext.
type fakeCipher struct{}

func (fakeCipher) Encrypt(p *string) (*string, error) {
	if p == nil {
		return nil, nil
	}
	out := "enc:" + *p
	return &out, nil
}

func (fakeCipher) Decrypt(c *string) *string {
	if c == nil {
		return nil
	}
	out := strings.TrimPrefix(*c, "enc:")
	return &out
}

type fakeHasher struct{}

func (fakeHasher) Hash(p string) (string, error) { return "hashed:" + p, nil }

func (fakeHasher) Verify(hash, p string) bool { return hash == "hashed:"+p }

type fakeTokens struct{}

func (fakeTokens) IssueAccess(userID string) (string, error) { return "access." + userID, nil }

func (fakeTokens) ParseAccess(token string) (string, error) {
	id, ok := strings.CutPrefix(token, "access.")
	if !ok || id == "" {
		return "", driven.ErrInvalidToken
	}
	return id, nil
}

func (fakeTokens) IssueReset(email string) (string, error) { return "reset." + email, nil }

func (fakeTokens) ParseReset(token string) (string, error) {
	email, ok := strings.CutPrefix(token, "reset.")
	if !ok || email == "" {
		return "", driven.ErrInvalidToken
	}
	return email, nil
}

type sentMail struct {
	email string
	link  string
}

type fakeMailer struct {
	sent []sentMail
	err  error
}

func (f *fakeMailer) SendPasswordReset(_ context.Context, email, link string) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, sentMail{email: email, link: link})
	return nil
}

var errBoom = errors.New("boom")
