package api

import (
	"fmt"
	"io"
	"net/http"
	"time"

	"fileshare-backend/internal/access"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// deniedMessage is the single response body for every access-path denial.
// Unknown token, revoked link, expired link, missing grant and nonexistent
// file all produce byte-identical responses, so an unauthorized caller
// learns nothing about whether the file or token ever existed.
const deniedMessage = "file not found or access denied"

func (h *Handler) respondDenied(w http.ResponseWriter) {
	h.respondWithError(w, http.StatusNotFound, deniedMessage)
}

// handleProbe (GET /files/access-info/{token}) returns file metadata for a
// valid bearer token without transferring any bytes.
func (h *Handler) handleProbe(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")

	now := time.Now()
	decision, err := h.evaluator.EvaluateByToken(r.Context(), token, now)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	if !decision.Allowed {
		h.respondDenied(w)
		return
	}

	file, err := h.files.Get(r.Context(), decision.FileID)
	if err != nil {
		h.respondDenied(w)
		return
	}

	// The "shared by" line in the download page needs the owner's name.
	owner, err := h.users.GetByID(r.Context(), file.OwnerID)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}

	h.respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"filename":    file.Filename,
		"size":        file.Size,
		"contentType": file.ContentType,
		"owner":       map[string]string{"name": owner.Name},
		"createdAt":   file.CreatedAt,
		"expiresAt":   decision.Link.ExpiresAt,
	})
}

// handleFetchByToken (GET /files/access-link/{token}) streams file bytes to
// an anonymous bearer-token holder.
func (h *Handler) handleFetchByToken(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")

	now := time.Now()
	decision, err := h.evaluator.EvaluateByToken(r.Context(), token, now)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	if !decision.Allowed {
		h.respondDenied(w)
		return
	}

	h.streamFile(w, r, decision)
}

// handleDownload (GET /files/download/{fileID}) streams file bytes to an
// authenticated user who owns the file or holds an active grant on it.
// Denials here are as uniform as on the token path: an unknown file and a
// file the caller may not touch answer identically.
func (h *Handler) handleDownload(w http.ResponseWriter, r *http.Request) {
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

	now := time.Now()
	decision, err := h.evaluator.EvaluateAsUser(r.Context(), fileID, user.ID, now)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	if !decision.Allowed {
		h.respondDenied(w)
		return
	}

	h.streamFile(w, r, decision)
}

// streamFile copies blob bytes to the response for an allowed decision. The
// request context rides along into the blob store, so a client disconnect
// cancels the transfer and frees the connection promptly.
func (h *Handler) streamFile(w http.ResponseWriter, r *http.Request, decision access.Decision) {
	file, err := h.files.Get(r.Context(), decision.FileID)
	if err != nil {
		h.respondDenied(w)
		return
	}

	body, err := h.blobs.Read(r.Context(), file.ID)
	if err != nil {
		h.logger.Error("reading blob",
			zap.String("file_id", file.ID.String()),
			zap.Error(err),
		)
		h.respondWithError(w, http.StatusServiceUnavailable, "temporarily unavailable, retry")
		return
	}
	defer body.Close()

	w.Header().Set("Content-Type", file.ContentType)
	w.Header().Set("Content-Length", fmt.Sprintf("%d", file.Size))
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.Filename))
	w.WriteHeader(http.StatusOK)

	if _, err := io.Copy(w, body); err != nil {
		// Headers are gone; nothing to send. Usually the client went away.
		h.logger.Debug("streaming aborted",
			zap.String("file_id", file.ID.String()),
			zap.Error(err),
		)
	}
}
