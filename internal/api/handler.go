package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"fileshare-backend/internal/access"
	"fileshare-backend/internal/auth"
	"fileshare-backend/internal/blob"
	"fileshare-backend/internal/models"
	"fileshare-backend/internal/repository"
	"fileshare-backend/internal/service"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// Handler bundles the dependencies of the HTTP handlers.
type Handler struct {
	users        *service.UserService
	files        *service.FileService
	grants       *service.GrantService
	links        *service.LinkService
	revocation   *service.RevocationService
	evaluator    *access.Evaluator
	tokenService *auth.TokenService
	blobs        blob.Store
	validate     *validator.Validate
	logger       *zap.Logger
	corsOrigin   string
}

// NewHandler creates a handler instance.
func NewHandler(
	users *service.UserService,
	files *service.FileService,
	grants *service.GrantService,
	links *service.LinkService,
	revocation *service.RevocationService,
	evaluator *access.Evaluator,
	tokenService *auth.TokenService,
	blobs blob.Store,
	logger *zap.Logger,
	corsOrigin string,
) *Handler {
	return &Handler{
		users:        users,
		files:        files,
		grants:       grants,
		links:        links,
		revocation:   revocation,
		evaluator:    evaluator,
		tokenService: tokenService,
		blobs:        blobs,
		validate:     validator.New(),
		logger:       logger,
		corsOrigin:   corsOrigin,
	}
}

// === Response helpers ===

func (h *Handler) respondWithError(w http.ResponseWriter, code int, message string) {
	h.respondWithJSON(w, code, map[string]interface{}{
		"error": map[string]interface{}{
			"code":    code,
			"message": message,
		},
	})
}

func (h *Handler) respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		h.logger.Error("marshaling response", zap.Error(err))
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":{"code":500,"message":"internal error"}}`))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}

// respondServiceError maps the error taxonomy onto HTTP statuses. Used on
// owner-facing mutating calls only; access-path denials go through the
// uniform denial instead.
func (h *Handler) respondServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, models.ErrNotOwner):
		h.respondWithError(w, http.StatusForbidden, "caller is not the owner")
	case errors.Is(err, models.ErrNotFound):
		h.respondWithError(w, http.StatusNotFound, "not found")
	case errors.Is(err, models.ErrInvalidTTL):
		h.respondWithError(w, http.StatusBadRequest, "ttl must not be negative")
	case errors.Is(err, models.ErrAlreadyRevoked):
		h.respondWithError(w, http.StatusConflict, "share link already revoked")
	case errors.Is(err, repository.ErrDuplicateEmail):
		h.respondWithError(w, http.StatusConflict, "email already registered")
	case errors.Is(err, models.ErrTokenSpaceExhausted), errors.Is(err, models.ErrUnavailable):
		// Both are retryable by the caller.
		h.respondWithError(w, http.StatusServiceUnavailable, "temporarily unavailable, retry")
	default:
		h.logger.Error("unhandled service error", zap.Error(err))
		h.respondWithError(w, http.StatusInternalServerError, "internal error")
	}
}

// === Auth and user handlers ===

// handleSignup (POST /auth/signup)
func (h *Handler) handleSignup(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email" validate:"required,email"`
		Name     string `json:"name" validate:"required"`
		Password string `json:"password" validate:"required,min=8"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondWithError(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.respondWithError(w, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}

	user, err := h.users.Register(r.Context(), req.Email, req.Name, req.Password)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}

	h.respondWithJSON(w, http.StatusCreated, user)
}

// handleLogin (POST /auth/login)
func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondWithError(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.respondWithError(w, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}

	token, err := h.users.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.respondWithError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	h.respondWithJSON(w, http.StatusOK, map[string]string{"token": token})
}

// handleFindUserByEmail (POST /users/find-by-email)
func (h *Handler) handleFindUserByEmail(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email" validate:"required,email"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondWithError(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.respondWithError(w, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}

	user, err := h.users.FindByEmail(r.Context(), req.Email)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}

	h.respondWithJSON(w, http.StatusOK, map[string]string{
		"id":    user.ID.String(),
		"email": user.Email,
		"name":  user.Name,
	})
}
