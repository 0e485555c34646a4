package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type (
	// GrantResponse is the owner-facing view of a user grant.
	GrantResponse struct {
		GranteeID string     `json:"granteeId"`
		CreatedAt time.Time  `json:"createdAt"`
		ExpiresAt *time.Time `json:"expiresAt,omitempty"`
		Active    bool       `json:"active"`
	}

	// LinkResponse is the owner-facing view of a share link. Revoked and
	// expired links appear here for audit; this is the only place a caller
	// can tell the two apart.
	LinkResponse struct {
		Token     string     `json:"token"`
		CreatedAt time.Time  `json:"createdAt"`
		ExpiresAt *time.Time `json:"expiresAt,omitempty"`
		Revoked   bool       `json:"revoked"`
		Expired   bool       `json:"expired"`
	}
)

// handleShareWithUsers (POST /files/share/users/{fileID}) creates one grant
// per listed user. TTL zero means the grant never expires.
func (h *Handler) handleShareWithUsers(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(r)
	if !ok {
		h.respondWithError(w, http.StatusUnauthorized, "invalid user context")
		return
	}

	fileID, err := h.fileIDParam(r)
	if err != nil {
		h.respondWithError(w, http.StatusBadRequest, "invalid file id")
		return
	}

	var req struct {
		UserIDs          []string `json:"userIds" validate:"required,min=1"`
		ExpiresInSeconds int64    `json:"expiresInSeconds"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondWithError(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.respondWithError(w, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}

	ttl := time.Duration(req.ExpiresInSeconds) * time.Second

	grants := make([]GrantResponse, 0, len(req.UserIDs))
	for _, raw := range req.UserIDs {
		granteeID, err := uuid.Parse(raw)
		if err != nil {
			h.respondWithError(w, http.StatusBadRequest, "invalid user id: "+raw)
			return
		}

		grant, err := h.grants.Share(r.Context(), fileID, user.ID, granteeID, ttl)
		if err != nil {
			h.respondServiceError(w, err)
			return
		}
		grants = append(grants, GrantResponse{
			GranteeID: grant.GranteeID.String(),
			CreatedAt: grant.CreatedAt,
			ExpiresAt: grant.ExpiresAt,
			Active:    true,
		})
	}

	h.respondWithJSON(w, http.StatusCreated, map[string]interface{}{"grants": grants})
}

// handleRevokeUserGrant (POST /files/revoke/user/{fileID})
func (h *Handler) handleRevokeUserGrant(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(r)
	if !ok {
		h.respondWithError(w, http.StatusUnauthorized, "invalid user context")
		return
	}

	fileID, err := h.fileIDParam(r)
	if err != nil {
		h.respondWithError(w, http.StatusBadRequest, "invalid file id")
		return
	}

	var req struct {
		UserID string `json:"userId" validate:"required,uuid"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondWithError(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.respondWithError(w, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}
	granteeID, err := uuid.Parse(req.UserID)
	if err != nil {
		h.respondWithError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	if err := h.revocation.RevokeUserGrant(r.Context(), fileID, user.ID, granteeID); err != nil {
		h.respondServiceError(w, err)
		return
	}

	h.respondWithJSON(w, http.StatusOK, map[string]string{"message": "grant revoked"})
}

// handleMintLink (POST /files/share/link/{fileID}) mints a fresh bearer
// token for the file. TTL zero means the link never expires.
func (h *Handler) handleMintLink(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(r)
	if !ok {
		h.respondWithError(w, http.StatusUnauthorized, "invalid user context")
		return
	}

	fileID, err := h.fileIDParam(r)
	if err != nil {
		h.respondWithError(w, http.StatusBadRequest, "invalid file id")
		return
	}

	var req struct {
		ExpiresInSeconds int64 `json:"expiresInSeconds"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondWithError(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}

	link, err := h.links.Mint(r.Context(), fileID, user.ID, time.Duration(req.ExpiresInSeconds)*time.Second)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}

	h.respondWithJSON(w, http.StatusCreated, map[string]interface{}{
		"token":     link.Token,
		"expiresAt": link.ExpiresAt,
	})
}

// handleRevokeLink (POST /files/revoke/link/{token})
func (h *Handler) handleRevokeLink(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(r)
	if !ok {
		h.respondWithError(w, http.StatusUnauthorized, "invalid user context")
		return
	}

	token := chi.URLParam(r, "token")
	if token == "" {
		h.respondWithError(w, http.StatusBadRequest, "missing token")
		return
	}

	if err := h.revocation.RevokeLink(r.Context(), token, user.ID); err != nil {
		h.respondServiceError(w, err)
		return
	}

	h.respondWithJSON(w, http.StatusOK, map[string]string{"message": "link revoked"})
}

// handleListShares (GET /files/shares/{fileID}) is the owner's audit view:
// every grant and link on the file, newest first, expired and revoked
// entries included.
func (h *Handler) handleListShares(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(r)
	if !ok {
		h.respondWithError(w, http.StatusUnauthorized, "invalid user context")
		return
	}

	fileID, err := h.fileIDParam(r)
	if err != nil {
		h.respondWithError(w, http.StatusBadRequest, "invalid file id")
		return
	}

	// One clock read covers both listings.
	now := time.Now()

	grants, err := h.grants.ListByFile(r.Context(), fileID, user.ID)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	links, err := h.links.ListByFile(r.Context(), fileID, user.ID)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}

	grantViews := make([]GrantResponse, 0, len(grants))
	for _, g := range grants {
		grantViews = append(grantViews, GrantResponse{
			GranteeID: g.GranteeID.String(),
			CreatedAt: g.CreatedAt,
			ExpiresAt: g.ExpiresAt,
			Active:    g.ActiveAt(now),
		})
	}

	linkViews := make([]LinkResponse, 0, len(links))
	for _, l := range links {
		linkViews = append(linkViews, LinkResponse{
			Token:     l.Token,
			CreatedAt: l.CreatedAt,
			ExpiresAt: l.ExpiresAt,
			Revoked:   l.Revoked,
			Expired:   l.ExpiredAt(now),
		})
	}

	h.respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"users": grantViews,
		"links": linkViews,
	})
}
