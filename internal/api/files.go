package api

import (
	"net/http"

	"fileshare-backend/internal/models"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// maxUploadBytes caps multipart uploads at 100 MiB.
const maxUploadBytes = 100 << 20

func (h *Handler) currentUser(r *http.Request) (*models.User, bool) {
	user, ok := r.Context().Value(userContextKey).(*models.User)
	return user, ok && user != nil
}

func (h *Handler) fileIDParam(r *http.Request) (uuid.UUID, error) {
	return uuid.Parse(chi.URLParam(r, "fileID"))
}

// handleUpload (POST /files/upload) accepts a multipart form with a single
// "file" field, stores the bytes and registers the metadata.
func (h *Handler) handleUpload(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(r)
	if !ok {
		h.respondWithError(w, http.StatusUnauthorized, "invalid user context")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		h.respondWithError(w, http.StatusBadRequest, "invalid multipart payload")
		return
	}

	part, header, err := r.FormFile("file")
	if err != nil {
		h.respondWithError(w, http.StatusBadRequest, "missing 'file' field")
		return
	}
	defer part.Close()

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	file, err := h.files.Upload(r.Context(), user.ID, header.Filename, contentType, header.Size, part)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}

	h.respondWithJSON(w, http.StatusCreated, file)
}

// handleListFiles (GET /files/list)
func (h *Handler) handleListFiles(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(r)
	if !ok {
		h.respondWithError(w, http.StatusUnauthorized, "invalid user context")
		return
	}

	files, err := h.files.ListByOwner(r.Context(), user.ID)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}

	h.respondWithJSON(w, http.StatusOK, files)
}

// handleDeleteFile (DELETE /files/{fileID})
func (h *Handler) handleDeleteFile(w http.ResponseWriter, r *http.Request) {
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

	if err := h.files.Delete(r.Context(), fileID, user.ID); err != nil {
		h.respondServiceError(w, err)
		return
	}

	h.respondWithJSON(w, http.StatusOK, map[string]string{"message": "file deleted"})
}
