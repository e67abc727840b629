package httphandler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/ericfisherdev/credpanel/internal/application"
	"github.com/ericfisherdev/credpanel/internal/domain/model"
)

// writeJSON marshals v to JSON and writes it to the response with the given
// status code. If marshaling fails, a 500 error is written instead.
func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"internal server error"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

// writeError writes a JSON error response with the given status code and message.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// errorResponse is the standard error response body.
type errorResponse struct {
	Error string `json:"error"`
}

// MessageResponse is a plain acknowledgement.
type MessageResponse struct {
	Message string `json:"message"`
}

// HealthResponse is the JSON representation of the health check endpoint.
type HealthResponse struct {
	Status string `json:"status"`
	Time   string `json:"time"`
}

// UserResponse is the public view of a user. The password hash is never sent.
type UserResponse struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Email  string  `json:"email"`
	Role   string  `json:"role"`
	Avatar *string `json:"avatar"`
}

// TokenResponse is returned by register and login.
type TokenResponse struct {
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type"`
	User        UserResponse `json:"user"`
}

// ClientResponse is the JSON representation of a client.
type ClientResponse struct {
	ID              string  `json:"id"`
	Name            string  `json:"name"`
	Description     *string `json:"description"`
	Logo            *string `json:"logo"`
	Initials        string  `json:"initials"`
	Color           string  `json:"color"`
	CredentialCount int     `json:"credential_count"`
	LastAccessed    string  `json:"last_accessed"`
	CreatedAt       string  `json:"created_at"`
}

// AllowedUserResponse identifies one viewer of a restricted credential.
type AllowedUserResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// CredentialResponse is a credential with its secrets decrypted for the caller.
type CredentialResponse struct {
	ID          string   `json:"id"`
	ClientID    string   `json:"client_id"`
	Name        string   `json:"name"`
	Environment string   `json:"environment"`
	ServiceType string   `json:"service_type"`
	Username    string   `json:"username"`
	Password    string   `json:"password"`
	URL         *string  `json:"url"`
	Notes       *string  `json:"notes"`
	NotesHTML   string   `json:"notes_html"`
	Tags        []string `json:"tags"`
	LastUpdated string   `json:"last_updated"`
	CreatedAt   string   `json:"created_at"`

	// Visibility
	OwnerID      *string               `json:"owner_id"`
	OwnerName    *string               `json:"owner_name"`
	IsLegacy     bool                  `json:"is_legacy"`
	IsOwner      bool                  `json:"is_owner"`
	AllowedUsers []AllowedUserResponse `json:"allowed_users"`
	ViewerCount  int                   `json:"viewer_count"`
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

// emptyToNil maps optional display strings to JSON null.
func emptyToNil(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func toUserResponse(u model.User) UserResponse {
	return UserResponse{
		ID:     u.ID,
		Name:   u.Name,
		Email:  u.Email,
		Role:   u.Role,
		Avatar: emptyToNil(u.Avatar),
	}
}

func toTokenResponse(s *application.Session) TokenResponse {
	return TokenResponse{
		AccessToken: s.Token,
		TokenType:   "bearer",
		User:        toUserResponse(s.User),
	}
}

func toClientResponse(c model.Client) ClientResponse {
	return ClientResponse{
		ID:              c.ID,
		Name:            c.Name,
		Description:     emptyToNil(c.Description),
		Logo:            emptyToNil(c.Logo),
		Initials:        c.Initials,
		Color:           c.Color,
		CredentialCount: c.CredentialCount,
		LastAccessed:    formatTime(c.LastAccessed),
		CreatedAt:       formatTime(c.CreatedAt),
	}
}

func toCredentialResponse(v application.CredentialView) CredentialResponse {
	allowed := make([]AllowedUserResponse, 0, len(v.AllowedUsers))
	for _, u := range v.AllowedUsers {
		allowed = append(allowed, AllowedUserResponse{ID: u.ID, Name: u.Name, Email: u.Email})
	}

	tags := v.Tags
	if tags == nil {
		tags = []string{}
	}

	var notesHTML string
	if v.Notes != nil {
		notesHTML = RenderMarkdown(*v.Notes)
	}

	return CredentialResponse{
		ID:           v.ID,
		ClientID:     v.ClientID,
		Name:         v.Name,
		Environment:  string(v.Environment),
		ServiceType:  string(v.ServiceType),
		Username:     v.Username,
		Password:     v.Password,
		URL:          v.URL,
		Notes:        v.Notes,
		NotesHTML:    notesHTML,
		Tags:         tags,
		LastUpdated:  formatTime(v.LastUpdated),
		CreatedAt:    formatTime(v.CreatedAt),
		OwnerID:      v.OwnerID,
		OwnerName:    v.OwnerName,
		IsLegacy:     v.IsLegacy,
		IsOwner:      v.IsOwner,
		AllowedUsers: allowed,
		ViewerCount:  v.ViewerCount,
	}
}

func toCredentialResponses(views []application.CredentialView) []CredentialResponse {
	resp := make([]CredentialResponse, 0, len(views))
	for _, v := range views {
		resp = append(resp, toCredentialResponse(v))
	}
	return resp
}
