package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ericfisherdev/credpanel/internal/domain/model"
	"github.com/ericfisherdev/credpanel/internal/domain/port/driven"
)

// CredentialInput carries the plaintext fields of a new credential.
// AllowedUserIDs nil or empty creates a legacy credential.
type CredentialInput struct {
	ClientID       string
	Name           string
	Environment    model.Environment
	ServiceType    model.ServiceType
	Username       string
	Password       string
	URL            *string
	Notes          *string
	Tags           []string
	AllowedUserIDs []string
}

// CredentialUpdate is a partial update. Unset fields keep their stored value.
// A set URL or Notes with a nil Value clears the field. A set AllowedUserIDs
// drives a visibility transition; nil or empty means legacy. A set ClientID
// moves the credential to that client.
type CredentialUpdate struct {
	ClientID       Patch[string]
	Name           Patch[string]
	Environment    Patch[model.Environment]
	ServiceType    Patch[model.ServiceType]
	Username       Patch[string]
	Password       Patch[string]
	URL            Patch[*string]
	Notes          Patch[*string]
	Tags           Patch[[]string]
	AllowedUserIDs Patch[[]string]
}

// AllowedUser identifies a viewer of a restricted credential.
type AllowedUser struct {
	ID    string
	Name  string
	Email string
}

// CredentialView is a credential as seen by one user, with secrets decrypted.
type CredentialView struct {
	ID           string
	ClientID     string
	Name         string
	Environment  model.Environment
	ServiceType  model.ServiceType
	Username     string
	Password     string
	URL          *string
	Notes        *string
	Tags         []string
	OwnerID      *string
	OwnerName    *string
	IsLegacy     bool
	IsOwner      bool
	AllowedUsers []AllowedUser
	ViewerCount  int
	CreatedAt    time.Time
	LastUpdated  time.Time
}

// CredentialService implements credential CRUD and re-sharing on top of the
// driven ports. Every operation takes the authenticated acting user.
type CredentialService struct {
	credentials driven.CredentialStore
	clients     driven.ClientStore
	users       driven.UserStore
	cipher      driven.FieldCipher
	logger      *slog.Logger
	now         func() time.Time
}

// NewCredentialService creates a CredentialService with the required dependencies.
func NewCredentialService(
	credentials driven.CredentialStore,
	clients driven.ClientStore,
	users driven.UserStore,
	cipher driven.FieldCipher,
	logger *slog.Logger,
) *CredentialService {
	return &CredentialService{
		credentials: credentials,
		clients:     clients,
		users:       users,
		cipher:      cipher,
		logger:      logger,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// Create stores a new credential under in.ClientID. The creator always
// becomes the owner. Without allowed users the credential is legacy;
// otherwise it is restricted to the creator and the allowed users that exist.
func (s *CredentialService) Create(ctx context.Context, actor model.User, in CredentialInput) (*CredentialView, error) {
	if err := validateCredentialInput(in); err != nil {
		return nil, err
	}

	client, err := s.clients.GetByID(ctx, in.ClientID)
	if err != nil {
		return nil, fmt.Errorf("load client %s: %w", in.ClientID, err)
	}
	if client == nil {
		return nil, notFound("client not found")
	}

	password, err := s.encrypt(&in.Password)
	if err != nil {
		return nil, err
	}
	url, err := s.encrypt(blankToNil(in.URL))
	if err != nil {
		return nil, err
	}
	notes, err := s.encrypt(blankToNil(in.Notes))
	if err != nil {
		return nil, err
	}

	now := s.now()
	owner := actor.ID
	cred := model.Credential{
		ID:                uuid.NewString(),
		ClientID:          in.ClientID,
		Name:              strings.TrimSpace(in.Name),
		Environment:       in.Environment,
		ServiceType:       in.ServiceType,
		Username:          in.Username,
		EncryptedPassword: *password,
		EncryptedURL:      url,
		EncryptedNotes:    notes,
		Tags:              normalizeTags(in.Tags),
		OwnerID:           &owner,
		IsLegacy:          true,
		CreatedAt:         now,
		LastUpdated:       now,
	}

	if len(in.AllowedUserIDs) > 0 {
		viewers, err := s.resolveViewers(ctx, in.AllowedUserIDs)
		if err != nil {
			return nil, err
		}
		applyVisibility(&cred, actor.ID, len(in.AllowedUserIDs), viewers)
	}

	if err := s.credentials.Create(ctx, cred); err != nil {
		if errors.Is(err, driven.ErrClientNotFound) {
			return nil, notFound("client not found")
		}
		return nil, fmt.Errorf("create credential: %w", err)
	}

	s.logger.InfoContext(ctx, "credential created",
		"credential_id", cred.ID,
		"client_id", cred.ClientID,
		"owner_id", actor.ID,
		"legacy", cred.IsLegacy,
		"viewers", len(cred.ViewerIDs),
	)

	return s.view(ctx, actor, cred)
}

// Get returns a single credential. A credential that exists but is hidden
// from actor yields ErrForbidden rather than ErrNotFound.
func (s *CredentialService) Get(ctx context.Context, actor model.User, id string) (*CredentialView, error) {
	cred, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !CanView(cred, actor.ID) {
		return nil, forbidden("you don't have permission to view this credential")
	}

	return s.view(ctx, actor, *cred)
}

// ListByClient returns the client's credentials visible to actor in creation order.
func (s *CredentialService) ListByClient(ctx context.Context, actor model.User, clientID string) ([]CredentialView, error) {
	creds, err := s.credentials.ListByClient(ctx, clientID)
	if err != nil {
		return nil, fmt.Errorf("list credentials for client %s: %w", clientID, err)
	}

	return s.views(ctx, actor, creds)
}

// ListAll returns every credential visible to actor in creation order.
func (s *CredentialService) ListAll(ctx context.Context, actor model.User) ([]CredentialView, error) {
	creds, err := s.credentials.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list credentials: %w", err)
	}

	return s.views(ctx, actor, creds)
}

// Update applies a partial update. Every check runs before anything is
// written, so a rejected visibility change leaves the other fields untouched
// too. Field changes and the viewer replacement commit in one transaction.
func (s *CredentialService) Update(ctx context.Context, actor model.User, id string, upd CredentialUpdate) (*CredentialView, error) {
	cred, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !CanView(cred, actor.ID) {
		return nil, forbidden("you don't have permission to access this credential")
	}
	if upd.AllowedUserIDs.Set && !CanModifyVisibility(cred, actor.ID) {
		return nil, forbidden("only the owner can modify who has access to this credential")
	}
	if err := validateCredentialUpdate(upd); err != nil {
		return nil, err
	}

	if upd.ClientID.Set && upd.ClientID.Value != cred.ClientID {
		client, err := s.clients.GetByID(ctx, upd.ClientID.Value)
		if err != nil {
			return nil, fmt.Errorf("load client %s: %w", upd.ClientID.Value, err)
		}
		if client == nil {
			return nil, notFound("client not found")
		}
	}

	next := *cred
	upd.ClientID.apply(&next.ClientID)
	upd.Name.apply(&next.Name)
	next.Name = strings.TrimSpace(next.Name)
	upd.Environment.apply(&next.Environment)
	upd.ServiceType.apply(&next.ServiceType)
	upd.Username.apply(&next.Username)
	if upd.Tags.Set {
		next.Tags = normalizeTags(upd.Tags.Value)
	}

	if upd.Password.Set {
		password, err := s.encrypt(&upd.Password.Value)
		if err != nil {
			return nil, err
		}
		next.EncryptedPassword = *password
	}
	if upd.URL.Set {
		if next.EncryptedURL, err = s.encrypt(blankToNil(upd.URL.Value)); err != nil {
			return nil, err
		}
	}
	if upd.Notes.Set {
		if next.EncryptedNotes, err = s.encrypt(blankToNil(upd.Notes.Value)); err != nil {
			return nil, err
		}
	}

	if upd.AllowedUserIDs.Set {
		viewers, err := s.resolveViewers(ctx, upd.AllowedUserIDs.Value)
		if err != nil {
			return nil, err
		}
		applyVisibility(&next, actor.ID, len(upd.AllowedUserIDs.Value), viewers)
	}

	next.LastUpdated = s.now()

	if err := s.save(ctx, next, upd.AllowedUserIDs.Set); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "credential updated",
		"credential_id", next.ID,
		"client_id", next.ClientID,
		"user_id", actor.ID,
		"visibility_changed", upd.AllowedUserIDs.Set,
	)

	// A field-only save keeps the stored visibility, which may differ from cred.
	saved, err := s.load(ctx, next.ID)
	if err != nil {
		return nil, err
	}
	return s.view(ctx, actor, *saved)
}

// UpdateVisibility replaces the viewer list. Only the recorded owner may call
// it; an ownerless credential cannot be claimed through this path.
func (s *CredentialService) UpdateVisibility(ctx context.Context, actor model.User, id string, allowedUserIDs []string) (*CredentialView, error) {
	cred, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !cred.IsOwnedBy(actor.ID) {
		return nil, forbidden("only the owner can modify who has access to this credential")
	}

	viewers, err := s.resolveViewers(ctx, allowedUserIDs)
	if err != nil {
		return nil, err
	}

	next := *cred
	applyVisibility(&next, actor.ID, len(allowedUserIDs), viewers)
	next.LastUpdated = s.now()

	if err := s.save(ctx, next, true); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "credential visibility updated",
		"credential_id", next.ID,
		"legacy", next.IsLegacy,
		"viewers", len(next.ViewerIDs),
	)

	return s.view(ctx, actor, next)
}

// Delete removes a credential. Restricted credentials can only be deleted by
// their owner.
func (s *CredentialService) Delete(ctx context.Context, actor model.User, id string) error {
	cred, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if !CanDelete(cred, actor.ID) {
		return forbidden("only the owner can delete this credential")
	}

	if err := s.credentials.Delete(ctx, id); err != nil {
		if errors.Is(err, driven.ErrCredentialNotFound) {
			return notFound("credential not found")
		}
		return fmt.Errorf("delete credential %s: %w", id, err)
	}

	s.logger.InfoContext(ctx, "credential deleted", "credential_id", id, "user_id", actor.ID)
	return nil
}

func (s *CredentialService) load(ctx context.Context, id string) (*model.Credential, error) {
	cred, err := s.credentials.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load credential %s: %w", id, err)
	}
	if cred == nil {
		return nil, notFound("credential not found")
	}
	return cred, nil
}

func (s *CredentialService) save(ctx context.Context, cred model.Credential, replaceViewers bool) error {
	if err := s.credentials.Update(ctx, cred, replaceViewers); err != nil {
		if errors.Is(err, driven.ErrCredentialNotFound) {
			return notFound("credential not found")
		}
		if errors.Is(err, driven.ErrClientNotFound) {
			return notFound("client not found")
		}
		return fmt.Errorf("update credential %s: %w", cred.ID, err)
	}
	return nil
}

func (s *CredentialService) encrypt(plaintext *string) (*string, error) {
	ciphertext, err := s.cipher.Encrypt(plaintext)
	if err != nil {
		return nil, fmt.Errorf("encrypt field: %w", err)
	}
	return ciphertext, nil
}

// resolveViewers de-duplicates ids in first-seen order and drops those that
// do not name an existing user.
func (s *CredentialService) resolveViewers(ctx context.Context, ids []string) ([]string, error) {
	unique := dedupe(ids)
	if len(unique) == 0 {
		return nil, nil
	}

	found, err := s.users.GetByIDs(ctx, unique)
	if err != nil {
		return nil, fmt.Errorf("look up viewers: %w", err)
	}

	viewers := make([]string, 0, len(unique))
	for _, id := range unique {
		if _, ok := found[id]; ok {
			viewers = append(viewers, id)
		}
	}
	return viewers, nil
}

func (s *CredentialService) view(ctx context.Context, actor model.User, cred model.Credential) (*CredentialView, error) {
	views, err := s.buildViews(ctx, actor, []model.Credential{cred})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

// views filters creds down to those actor can see and converts them.
func (s *CredentialService) views(ctx context.Context, actor model.User, creds []model.Credential) ([]CredentialView, error) {
	visible := make([]model.Credential, 0, len(creds))
	for i := range creds {
		if CanView(&creds[i], actor.ID) {
			visible = append(visible, creds[i])
		}
	}
	return s.buildViews(ctx, actor, visible)
}

// buildViews decrypts secrets and resolves owner and viewer names with a
// single user lookup.
func (s *CredentialService) buildViews(ctx context.Context, actor model.User, creds []model.Credential) ([]CredentialView, error) {
	var ids []string
	for _, c := range creds {
		if c.OwnerID != nil {
			ids = append(ids, *c.OwnerID)
		}
		if !c.IsLegacy {
			ids = append(ids, c.ViewerIDs...)
		}
	}

	users := map[string]model.User{}
	if ids = dedupe(ids); len(ids) > 0 {
		var err error
		if users, err = s.users.GetByIDs(ctx, ids); err != nil {
			return nil, fmt.Errorf("look up credential users: %w", err)
		}
	}

	views := make([]CredentialView, 0, len(creds))
	for _, c := range creds {
		views = append(views, s.toView(actor, c, users))
	}
	return views, nil
}

func (s *CredentialService) toView(actor model.User, c model.Credential, users map[string]model.User) CredentialView {
	v := CredentialView{
		ID:           c.ID,
		ClientID:     c.ClientID,
		Name:         c.Name,
		Environment:  c.Environment,
		ServiceType:  c.ServiceType,
		Username:     c.Username,
		URL:          s.cipher.Decrypt(c.EncryptedURL),
		Notes:        s.cipher.Decrypt(c.EncryptedNotes),
		Tags:         c.Tags,
		OwnerID:      c.OwnerID,
		IsLegacy:     c.IsLegacy,
		IsOwner:      c.IsOwnedBy(actor.ID),
		AllowedUsers: []AllowedUser{},
		CreatedAt:    c.CreatedAt,
		LastUpdated:  c.LastUpdated,
	}
	if v.Tags == nil {
		v.Tags = []string{}
	}
	if password := s.cipher.Decrypt(&c.EncryptedPassword); password != nil {
		v.Password = *password
	}

	if c.OwnerID != nil {
		if owner, ok := users[*c.OwnerID]; ok {
			name := owner.Name
			v.OwnerName = &name
		}
	}

	if !c.IsLegacy {
		v.ViewerCount = len(c.ViewerIDs)
		for _, id := range c.ViewerIDs {
			if u, ok := users[id]; ok {
				v.AllowedUsers = append(v.AllowedUsers, AllowedUser{ID: u.ID, Name: u.Name, Email: u.Email})
			}
		}
	}

	return v
}

func validateCredentialInput(in CredentialInput) error {
	return validateStruct(credentialFields{
		ClientID:    strings.TrimSpace(in.ClientID),
		Name:        strings.TrimSpace(in.Name),
		Password:    in.Password,
		Environment: in.Environment,
		ServiceType: in.ServiceType,
	})
}

// credentialFields holds the validate rules shared by create and update.
type credentialFields struct {
	ClientID    string            `label:"client_id" validate:"required"`
	Name        string            `label:"name" validate:"required"`
	Password    string            `label:"password" validate:"required"`
	Environment model.Environment `label:"environment" validate:"oneof=development staging production"`
	ServiceType model.ServiceType `label:"service_type" validate:"oneof=database api cloud env other"`
}

// validateCredentialUpdate checks only the fields the update sets, by
// filling the rest with values that pass.
func validateCredentialUpdate(upd CredentialUpdate) error {
	f := credentialFields{
		ClientID:    "unchanged",
		Name:        "unchanged",
		Password:    "unchanged",
		Environment: model.EnvironmentDevelopment,
		ServiceType: model.ServiceTypeOther,
	}
	if upd.ClientID.Set {
		f.ClientID = strings.TrimSpace(upd.ClientID.Value)
	}
	if upd.Name.Set {
		f.Name = strings.TrimSpace(upd.Name.Value)
	}
	if upd.Password.Set {
		f.Password = upd.Password.Value
	}
	if upd.Environment.Set {
		f.Environment = upd.Environment.Value
	}
	if upd.ServiceType.Set {
		f.ServiceType = upd.ServiceType.Value
	}
	return validateStruct(f)
}

// blankToNil treats an empty optional field as absent.
func blankToNil(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	return s
}

// normalizeTags trims tags and drops blanks and repeats, keeping first-seen order.
func normalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

func dedupe(ids []string) []string {
	out := make([]string, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
