package service

import (
	"context"
	"io"
	"time"

	"fileshare-backend/internal/blob"
	"fileshare-backend/internal/models"
	"fileshare-backend/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// FileService handles the file registry: uploads, owner listings and soft
// deletion. Everything beyond that runs through the access evaluator.
type FileService struct {
	store repository.Store
	blobs blob.Store

	logger *zap.Logger
}

// NewFileService creates a file service.
func NewFileService(store repository.Store, blobs blob.Store, logger *zap.Logger) *FileService {
	return &FileService{
		store:  store,
		blobs:  blobs,
		logger: logger,
	}
}

// Upload stores the file bytes and registers the metadata record. The bytes
// land in the blob store first; if the metadata insert then fails, the
// orphaned object is removed best-effort.
func (s *FileService) Upload(ctx context.Context, ownerID uuid.UUID, filename, contentType string, size int64, body io.Reader) (*models.File, error) {
	file := &models.File{
		ID:          uuid.New(),
		OwnerID:     ownerID,
		Filename:    filename,
		Size:        size,
		ContentType: contentType,
		CreatedAt:   time.Now(),
	}

	if err := s.blobs.Write(ctx, file.ID, contentType, body); err != nil {
		return nil, err
	}

	if err := s.store.CreateFile(ctx, file); err != nil {
		if cleanupErr := s.blobs.Delete(ctx, file.ID); cleanupErr != nil {
			s.logger.Warn("orphaned blob after failed file insert",
				zap.String("file_id", file.ID.String()),
				zap.Error(cleanupErr),
			)
		}
		return nil, err
	}

	return file, nil
}

// Get fetches file metadata. Soft-deleted files come back as ErrNotFound.
func (s *FileService) Get(ctx context.Context, id uuid.UUID) (*models.File, error) {
	return s.store.GetFile(ctx, id)
}

// ListByOwner returns a user's files, newest first.
func (s *FileService) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*models.File, error) {
	return s.store.ListFilesByOwner(ctx, ownerID)
}

// Delete soft-deletes the metadata record and removes the bytes. Only the
// owner may delete. Grants and links on the file stay in place for audit but
// stop granting access the moment the file row is marked deleted.
func (s *FileService) Delete(ctx context.Context, fileID, requesterID uuid.UUID) error {
	file, err := s.store.GetFile(ctx, fileID)
	if err != nil {
		return err
	}
	if file.OwnerID != requesterID {
		return models.ErrNotOwner
	}

	if err := s.store.SoftDeleteFile(ctx, fileID); err != nil {
		return err
	}

	if err := s.blobs.Delete(ctx, fileID); err != nil {
		// The metadata row is already gone from every read path; a leaked
		// object is an operational issue, not a correctness one.
		s.logger.Warn("deleting blob after soft delete",
			zap.String("file_id", fileID.String()),
			zap.Error(err),
		)
	}
	return nil
}
