package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"fileshare-backend/internal/repository"
)

// RevocationService is a thin orchestration layer over the two revoke
// operations plus the maintenance sweep. Correctness never depends on the
// sweep: expiry is enforced at evaluation time whether or not expired rows
// are still physically present.
type RevocationService struct {
	store  repository.Store
	grants *GrantService
	links  *LinkService
	logger *zap.Logger
}

// NewRevocationService creates a revocation service.
func NewRevocationService(store repository.Store, grants *GrantService, links *LinkService, logger *zap.Logger) *RevocationService {
	return &RevocationService{
		store:  store,
		grants: grants,
		links:  links,
		logger: logger,
	}
}

// RevokeUserGrant revokes a user-to-user share.
func (s *RevocationService) RevokeUserGrant(ctx context.Context, fileID, granterID, granteeID uuid.UUID) error {
	return s.grants.Revoke(ctx, fileID, granterID, granteeID)
}

// RevokeLink revokes a share link.
func (s *RevocationService) RevokeLink(ctx context.Context, token string, requesterID uuid.UUID) error {
	return s.links.Revoke(ctx, token, requesterID)
}

// PurgeExpired physically deletes grants and links whose expiry passed
// before the given instant, returning how many rows went away. Records that
// never expire, and revoked-but-unexpired links, are kept for audit.
// Evaluation outcomes are identical before and after a purge.
func (s *RevocationService) PurgeExpired(ctx context.Context, before time.Time) (int64, error) {
	grants, err := s.store.DeleteExpiredGrants(ctx, before)
	if err != nil {
		return 0, err
	}
	links, err := s.store.DeleteExpiredLinks(ctx, before)
	if err != nil {
		return grants, err
	}

	if grants+links > 0 {
		s.logger.Info("purged expired records",
			zap.Int64("grants", grants),
			zap.Int64("links", links),
			zap.Time("before", before),
		)
	}
	return grants + links, nil
}
