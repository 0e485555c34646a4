package service

import (
	"context"
	"time"

	"fileshare-backend/internal/models"
	"fileshare-backend/internal/repository"

	"github.com/google/uuid"
)

// GrantService handles user-to-user shares. Only the file owner may create,
// list or revoke grants on a file.
type GrantService struct {
	store repository.Store
	now   func() time.Time
}

// NewGrantService creates a grant service.
func NewGrantService(store repository.Store) *GrantService {
	return &GrantService{
		store: store,
		now:   time.Now,
	}
}

// Share grants a user access to a file for ttl. A ttl of zero means the
// grant never expires; a negative ttl is rejected. An existing grant for the
// same (file, grantee) pair is superseded: the new expiry replaces the old
// one unconditionally, so re-sharing with a shorter ttl shortens the grant.
func (s *GrantService) Share(ctx context.Context, fileID, granterID, granteeID uuid.UUID, ttl time.Duration) (*models.UserGrant, error) {
	if ttl < 0 {
		return nil, models.ErrInvalidTTL
	}

	file, err := s.store.GetFile(ctx, fileID)
	if err != nil {
		return nil, err
	}
	if file.OwnerID != granterID {
		return nil, models.ErrNotOwner
	}

	// The grantee must be a real account; a typo'd ID should fail here, not
	// produce a grant nobody can use.
	if _, err := s.store.GetUserByID(ctx, granteeID); err != nil {
		return nil, err
	}

	now := s.now()
	grant := &models.UserGrant{
		ID:        uuid.New(),
		FileID:    fileID,
		GranteeID: granteeID,
		GranterID: granterID,
		CreatedAt: now,
	}
	if ttl > 0 {
		expires := now.Add(ttl)
		grant.ExpiresAt = &expires
	}

	if err := s.store.UpsertGrant(ctx, grant); err != nil {
		return nil, err
	}
	return grant, nil
}

// Revoke removes an active grant with immediate effect on subsequent
// evaluations. Returns ErrNotFound when no active grant exists for the pair,
// including when one exists but has already expired.
func (s *GrantService) Revoke(ctx context.Context, fileID, granterID, granteeID uuid.UUID) error {
	file, err := s.store.GetFile(ctx, fileID)
	if err != nil {
		return err
	}
	if file.OwnerID != granterID {
		return models.ErrNotOwner
	}

	return s.store.DeleteActiveGrant(ctx, fileID, granteeID, s.now())
}

// ListByFile returns all grants on a file for the owner's audit view,
// newest first, including expired ones.
func (s *GrantService) ListByFile(ctx context.Context, fileID, requesterID uuid.UUID) ([]*models.UserGrant, error) {
	file, err := s.store.GetFile(ctx, fileID)
	if err != nil {
		return nil, err
	}
	if file.OwnerID != requesterID {
		return nil, models.ErrNotOwner
	}

	return s.store.ListGrantsByFile(ctx, fileID)
}
