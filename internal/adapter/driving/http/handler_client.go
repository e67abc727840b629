package httphandler

import (
	"net/http"

	"github.com/ericfisherdev/credpanel/internal/application"
)

// ListClients returns all clients ordered by name.
func (h *Handler) ListClients(w http.ResponseWriter, r *http.Request) {
	clients, err := h.clients.List(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err, "failed to list clients")
		return
	}

	resp := make([]ClientResponse, 0, len(clients))
	for _, c := range clients {
		resp = append(resp, toClientResponse(c))
	}

	writeJSON(w, http.StatusOK, resp)
}

// GetClient returns a single client.
func (h *Handler) GetClient(w http.ResponseWriter, r *http.Request) {
	client, err := h.clients.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		h.writeServiceError(w, r, err, "failed to get client")
		return
	}

	writeJSON(w, http.StatusOK, toClientResponse(*client))
}

// CreateClient adds a client.
func (h *Handler) CreateClient(w http.ResponseWriter, r *http.Request) {
	var req CreateClientRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	client, err := h.clients.Create(r.Context(), application.ClientInput{
		Name:        req.Name,
		Description: req.Description,
		Logo:        req.Logo,
		Initials:    req.Initials,
		Color:       req.Color,
	})
	if err != nil {
		h.writeServiceError(w, r, err, "failed to create client")
		return
	}

	writeJSON(w, http.StatusCreated, toClientResponse(*client))
}

// UpdateClient applies a partial update to a client.
func (h *Handler) UpdateClient(w http.ResponseWriter, r *http.Request) {
	var req UpdateClientRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	client, err := h.clients.Update(r.Context(), r.PathValue("id"), application.ClientUpdate{
		Name:        req.Name.patch(),
		Description: req.Description.patch(),
		Logo:        req.Logo.patch(),
		Initials:    req.Initials.patch(),
		Color:       req.Color.patch(),
	})
	if err != nil {
		h.writeServiceError(w, r, err, "failed to update client")
		return
	}

	writeJSON(w, http.StatusOK, toClientResponse(*client))
}

// TouchClient records that the caller opened the client.
func (h *Handler) TouchClient(w http.ResponseWriter, r *http.Request) {
	if err := h.clients.Touch(r.Context(), r.PathValue("id")); err != nil {
		h.writeServiceError(w, r, err, "failed to update client access time")
		return
	}

	writeJSON(w, http.StatusOK, MessageResponse{Message: "Last accessed updated"})
}

// DeleteClient removes a client and all of its credentials.
func (h *Handler) DeleteClient(w http.ResponseWriter, r *http.Request) {
	if err := h.clients.Delete(r.Context(), r.PathValue("id")); err != nil {
		h.writeServiceError(w, r, err, "failed to delete client")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
