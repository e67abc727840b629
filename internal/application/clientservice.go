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

// ClientInput carries the fields of a new client.
type ClientInput struct {
	Name        string
	Description string
	Logo        string
	Initials    string
	Color       string
}

// ClientUpdate is a partial client update.
type ClientUpdate struct {
	Name        Patch[string]
	Description Patch[string]
	Logo        Patch[string]
	Initials    Patch[string]
	Color       Patch[string]
}

// ClientService manages the client registry.
type ClientService struct {
	clients driven.ClientStore
	logger  *slog.Logger
	now     func() time.Time
}

// NewClientService creates a ClientService.
func NewClientService(clients driven.ClientStore, logger *slog.Logger) *ClientService {
	return &ClientService{
		clients: clients,
		logger:  logger,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// List returns all clients ordered by name.
func (s *ClientService) List(ctx context.Context) ([]model.Client, error) {
	clients, err := s.clients.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list clients: %w", err)
	}
	return clients, nil
}

// Get returns one client.
func (s *ClientService) Get(ctx context.Context, id string) (*model.Client, error) {
	client, err := s.clients.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load client %s: %w", id, err)
	}
	if client == nil {
		return nil, notFound("client not found")
	}
	return client, nil
}

// Create adds a client. Names are unique.
func (s *ClientService) Create(ctx context.Context, in ClientInput) (*model.Client, error) {
	now := s.now()
	client := model.Client{
		ID:           uuid.NewString(),
		Name:         strings.TrimSpace(in.Name),
		Description:  in.Description,
		Logo:         in.Logo,
		Initials:     strings.TrimSpace(in.Initials),
		Color:        strings.TrimSpace(in.Color),
		LastAccessed: now,
		CreatedAt:    now,
	}
	if err := validateClient(client); err != nil {
		return nil, err
	}

	if err := s.clients.Create(ctx, client); err != nil {
		if errors.Is(err, driven.ErrClientNameTaken) {
			return nil, invalid("a client with this name already exists")
		}
		return nil, fmt.Errorf("create client: %w", err)
	}

	s.logger.InfoContext(ctx, "client created", "client_id", client.ID, "name", client.Name)
	return &client, nil
}

// Update applies a partial update to a client.
func (s *ClientService) Update(ctx context.Context, id string, upd ClientUpdate) (*model.Client, error) {
	client, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	upd.Name.apply(&client.Name)
	upd.Description.apply(&client.Description)
	upd.Logo.apply(&client.Logo)
	upd.Initials.apply(&client.Initials)
	upd.Color.apply(&client.Color)
	client.Name = strings.TrimSpace(client.Name)
	client.Initials = strings.TrimSpace(client.Initials)
	client.Color = strings.TrimSpace(client.Color)

	if err := validateClient(*client); err != nil {
		return nil, err
	}

	if err := s.clients.Update(ctx, *client); err != nil {
		switch {
		case errors.Is(err, driven.ErrClientNameTaken):
			return nil, invalid("a client with this name already exists")
		case errors.Is(err, driven.ErrClientNotFound):
			return nil, notFound("client not found")
		}
		return nil, fmt.Errorf("update client %s: %w", id, err)
	}

	return client, nil
}

// Touch records that the client was opened.
func (s *ClientService) Touch(ctx context.Context, id string) error {
	if err := s.clients.Touch(ctx, id, s.now()); err != nil {
		if errors.Is(err, driven.ErrClientNotFound) {
			return notFound("client not found")
		}
		return fmt.Errorf("touch client %s: %w", id, err)
	}
	return nil
}

// Delete removes a client with all of its credentials.
func (s *ClientService) Delete(ctx context.Context, id string) error {
	if err := s.clients.Delete(ctx, id); err != nil {
		if errors.Is(err, driven.ErrClientNotFound) {
			return notFound("client not found")
		}
		return fmt.Errorf("delete client %s: %w", id, err)
	}

	s.logger.InfoContext(ctx, "client deleted", "client_id", id)
	return nil
}

type clientFields struct {
	Name     string `validate:"required"`
	Initials string `validate:"required"`
	Color    string `validate:"required"`
}

func validateClient(c model.Client) error {
	return validateStruct(clientFields{Name: c.Name, Initials: c.Initials, Color: c.Color})
}
