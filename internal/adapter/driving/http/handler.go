package httphandler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/ericfisherdev/credpanel/internal/application"
)

// maxBodyBytes caps request bodies read by decodeJSON.
const maxBodyBytes = 1 << 20

// Handler is the HTTP driving adapter that serves the REST API.
type Handler struct {
	auth        *application.AuthService
	clients     *application.ClientService
	credentials *application.CredentialService
	logger      *slog.Logger
}

// NewHandler creates a Handler with all required dependencies.
func NewHandler(
	auth *application.AuthService,
	clients *application.ClientService,
	credentials *application.CredentialService,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		auth:        auth,
		clients:     clients,
		credentials: credentials,
		logger:      logger,
	}
}

// NewServeMux creates an http.Handler with all routes registered and wrapped
// with CORS, logging and recovery middleware. Every route except auth entry
// points and health requires a bearer token.
func NewServeMux(h *Handler, corsOrigins []string, logger *slog.Logger) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/v1/auth/register", h.Register)
	mux.HandleFunc("POST /api/v1/auth/login", h.Login)
	mux.HandleFunc("POST /api/v1/auth/logout", h.Logout)
	mux.HandleFunc("POST /api/v1/auth/forgot-password", h.ForgotPassword)
	mux.HandleFunc("POST /api/v1/auth/reset-password", h.ResetPassword)
	mux.Handle("POST /api/v1/auth/change-password", h.requireUser(h.ChangePassword))

	mux.Handle("GET /api/v1/users/me", h.requireUser(h.Me))
	mux.Handle("GET /api/v1/users", h.requireUser(h.ListUsers))

	mux.Handle("GET /api/v1/clients", h.requireUser(h.ListClients))
	mux.Handle("POST /api/v1/clients", h.requireUser(h.CreateClient))
	mux.Handle("GET /api/v1/clients/{id}", h.requireUser(h.GetClient))
	mux.Handle("PUT /api/v1/clients/{id}", h.requireUser(h.UpdateClient))
	mux.Handle("PUT /api/v1/clients/{id}/access", h.requireUser(h.TouchClient))
	mux.Handle("DELETE /api/v1/clients/{id}", h.requireUser(h.DeleteClient))
	mux.Handle("GET /api/v1/clients/{id}/credentials", h.requireUser(h.ListClientCredentials))

	mux.Handle("GET /api/v1/credentials", h.requireUser(h.ListCredentials))
	mux.Handle("POST /api/v1/credentials", h.requireUser(h.CreateCredential))
	mux.Handle("GET /api/v1/credentials/{id}", h.requireUser(h.GetCredential))
	mux.Handle("PUT /api/v1/credentials/{id}", h.requireUser(h.UpdateCredential))
	mux.Handle("PUT /api/v1/credentials/{id}/visibility", h.requireUser(h.UpdateCredentialVisibility))
	mux.Handle("DELETE /api/v1/credentials/{id}", h.requireUser(h.DeleteCredential))

	mux.HandleFunc("GET /api/v1/health", h.Health)

	// Recovery innermost so panics are caught before logging.
	wrapped := recoveryMiddleware(logger, mux)
	wrapped = loggingMiddleware(logger, wrapped)
	wrapped = corsMiddleware(corsOrigins, wrapped)

	return wrapped
}

// Health returns a simple health check response.
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status: "ok",
		Time:   time.Now().UTC().Format(time.RFC3339),
	})
}

// writeServiceError maps application errors to status codes. Anything that
// is not an application sentinel is logged and reported as a 500.
func (h *Handler) writeServiceError(w http.ResponseWriter, r *http.Request, err error, logMsg string) {
	var status int
	switch {
	case errors.Is(err, application.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, application.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, application.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, application.ErrUnauthorized):
		status = http.StatusUnauthorized
	default:
		h.logger.ErrorContext(r.Context(), logMsg, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	msg := http.StatusText(status)
	var appErr *application.Error
	if errors.As(err, &appErr) {
		msg = appErr.Error()
	}
	writeError(w, status, msg)
}

// decodeJSON reads the request body into v, writing a 400 and returning
// false when the body is missing or malformed.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}
