package httphandler

import (
	"net/http"

	"github.com/ericfisherdev/credpanel/internal/application"
	"github.com/ericfisherdev/credpanel/internal/domain/model"
)

// ListCredentials returns the credentials visible to the caller, optionally
// narrowed to one client with ?client_id=.
func (h *Handler) ListCredentials(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r.Context())

	var (
		views []application.CredentialView
		err   error
	)
	if clientID := r.URL.Query().Get("client_id"); clientID != "" {
		views, err = h.credentials.ListByClient(r.Context(), user, clientID)
	} else {
		views, err = h.credentials.ListAll(r.Context(), user)
	}
	if err != nil {
		h.writeServiceError(w, r, err, "failed to list credentials")
		return
	}

	writeJSON(w, http.StatusOK, toCredentialResponses(views))
}

// ListClientCredentials returns the client's credentials visible to the caller.
func (h *Handler) ListClientCredentials(w http.ResponseWriter, r *http.Request) {
	views, err := h.credentials.ListByClient(r.Context(), userFromContext(r.Context()), r.PathValue("id"))
	if err != nil {
		h.writeServiceError(w, r, err, "failed to list client credentials")
		return
	}

	writeJSON(w, http.StatusOK, toCredentialResponses(views))
}

// GetCredential returns one credential with its secrets decrypted.
func (h *Handler) GetCredential(w http.ResponseWriter, r *http.Request) {
	view, err := h.credentials.Get(r.Context(), userFromContext(r.Context()), r.PathValue("id"))
	if err != nil {
		h.writeServiceError(w, r, err, "failed to get credential")
		return
	}

	writeJSON(w, http.StatusOK, toCredentialResponse(*view))
}

// CreateCredential stores a new credential.
func (h *Handler) CreateCredential(w http.ResponseWriter, r *http.Request) {
	var req CreateCredentialRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	view, err := h.credentials.Create(r.Context(), userFromContext(r.Context()), application.CredentialInput{
		ClientID:       req.ClientID,
		Name:           req.Name,
		Environment:    model.Environment(req.Environment),
		ServiceType:    model.ServiceType(req.ServiceType),
		Username:       req.Username,
		Password:       req.Password,
		URL:            req.URL,
		Notes:          req.Notes,
		Tags:           req.Tags,
		AllowedUserIDs: req.AllowedUserIDs,
	})
	if err != nil {
		h.writeServiceError(w, r, err, "failed to create credential")
		return
	}

	writeJSON(w, http.StatusCreated, toCredentialResponse(*view))
}

// UpdateCredential applies a partial update. Keys left out of the body keep
// their stored value.
func (h *Handler) UpdateCredential(w http.ResponseWriter, r *http.Request) {
	var req UpdateCredentialRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	view, err := h.credentials.Update(r.Context(), userFromContext(r.Context()), r.PathValue("id"), req.toUpdate())
	if err != nil {
		h.writeServiceError(w, r, err, "failed to update credential")
		return
	}

	writeJSON(w, http.StatusOK, toCredentialResponse(*view))
}

// UpdateCredentialVisibility replaces the viewer list. The body is a JSON
// array of user ids; an empty array makes the credential visible to all.
func (h *Handler) UpdateCredentialVisibility(w http.ResponseWriter, r *http.Request) {
	var ids []string
	if !decodeJSON(w, r, &ids) {
		return
	}

	view, err := h.credentials.UpdateVisibility(r.Context(), userFromContext(r.Context()), r.PathValue("id"), ids)
	if err != nil {
		h.writeServiceError(w, r, err, "failed to update credential visibility")
		return
	}

	writeJSON(w, http.StatusOK, toCredentialResponse(*view))
}

// DeleteCredential removes a credential.
func (h *Handler) DeleteCredential(w http.ResponseWriter, r *http.Request) {
	if err := h.credentials.Delete(r.Context(), userFromContext(r.Context()), r.PathValue("id")); err != nil {
		h.writeServiceError(w, r, err, "failed to delete credential")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
