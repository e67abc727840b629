package httphandler

import (
	"encoding/json"

	"github.com/ericfisherdev/credpanel/internal/application"
	"github.com/ericfisherdev/credpanel/internal/domain/model"
)

// optional records whether a JSON key was present and whether it was null.
// A missing key leaves the zero optional; json calls UnmarshalJSON for null.
type optional[T any] struct {
	set   bool
	null  bool
	value T
}

// UnmarshalJSON implements json.Unmarshaler.
func (o *optional[T]) UnmarshalJSON(data []byte) error {
	o.set = true
	if string(data) == "null" {
		o.null = true
		var zero T
		o.value = zero
		return nil
	}
	return json.Unmarshal(data, &o.value)
}

// patch treats null as an explicit zero value.
func (o optional[T]) patch() application.Patch[T] {
	return application.Patch[T]{Set: o.set, Value: o.value}
}

// patchNonNull treats null the same as a missing key.
func (o optional[T]) patchNonNull() application.Patch[T] {
	return application.Patch[T]{Set: o.set && !o.null, Value: o.value}
}

// RegisterRequest is the JSON body for the register endpoint.
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

// LoginRequest is the JSON body for the login endpoint.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// ChangePasswordRequest is the JSON body for the change password endpoint.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// ForgotPasswordRequest is the JSON body for the forgot password endpoint.
type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

// ResetPasswordRequest is the JSON body for the reset password endpoint.
type ResetPasswordRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"new_password"`
}

// CreateClientRequest is the JSON body for creating a client.
type CreateClientRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Logo        string `json:"logo"`
	Initials    string `json:"initials"`
	Color       string `json:"color"`
}

// UpdateClientRequest is a partial client update. Null clears a field.
type UpdateClientRequest struct {
	Name        optional[string] `json:"name"`
	Description optional[string] `json:"description"`
	Logo        optional[string] `json:"logo"`
	Initials    optional[string] `json:"initials"`
	Color       optional[string] `json:"color"`
}

// CreateCredentialRequest is the JSON body for creating a credential.
// allowed_user_ids null or empty creates a credential visible to all users.
type CreateCredentialRequest struct {
	ClientID       string   `json:"client_id"`
	Name           string   `json:"name"`
	Environment    string   `json:"environment"`
	ServiceType    string   `json:"service_type"`
	Username       string   `json:"username"`
	Password       string   `json:"password"`
	URL            *string  `json:"url"`
	Notes          *string  `json:"notes"`
	Tags           []string `json:"tags"`
	AllowedUserIDs []string `json:"allowed_user_ids"`
}

// UpdateCredentialRequest is a partial credential update. A client_id moves
// the credential to another client. Null clears url, notes and tags, makes
// the credential legacy for allowed_user_ids, and is ignored for the
// remaining fields.
type UpdateCredentialRequest struct {
	ClientID       optional[string]   `json:"client_id"`
	Name           optional[string]   `json:"name"`
	Environment    optional[string]   `json:"environment"`
	ServiceType    optional[string]   `json:"service_type"`
	Username       optional[string]   `json:"username"`
	Password       optional[string]   `json:"password"`
	URL            optional[*string]  `json:"url"`
	Notes          optional[*string]  `json:"notes"`
	Tags           optional[[]string] `json:"tags"`
	AllowedUserIDs optional[[]string] `json:"allowed_user_ids"`
}

func (req UpdateCredentialRequest) toUpdate() application.CredentialUpdate {
	env := req.Environment.patchNonNull()
	svc := req.ServiceType.patchNonNull()

	return application.CredentialUpdate{
		ClientID:       req.ClientID.patchNonNull(),
		Name:           req.Name.patchNonNull(),
		Environment:    application.Patch[model.Environment]{Set: env.Set, Value: model.Environment(env.Value)},
		ServiceType:    application.Patch[model.ServiceType]{Set: svc.Set, Value: model.ServiceType(svc.Value)},
		Username:       req.Username.patchNonNull(),
		Password:       req.Password.patchNonNull(),
		URL:            req.URL.patch(),
		Notes:          req.Notes.patch(),
		Tags:           req.Tags.patch(),
		AllowedUserIDs: req.AllowedUserIDs.patch(),
	}
}
