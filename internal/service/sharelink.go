package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"fileshare-backend/internal/models"
	"fileshare-backend/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// tokenBytes is the entropy per share token: 32 bytes = 256 bits, well over
// the 128-bit floor for unguessable bearer tokens.
const tokenBytes = 32

// mintRetries bounds collision retries during minting. With 256-bit tokens a
// single collision already means the random source is broken, so the bound
// exists only to fail fast instead of looping.
const mintRetries = 3

// LinkService mints, resolves and revokes anonymous share links.
type LinkService struct {
	store  repository.Store
	logger *zap.Logger
	now    func() time.Time
}

// NewLinkService creates a link service.
func NewLinkService(store repository.Store, logger *zap.Logger) *LinkService {
	return &LinkService{
		store:  store,
		logger: logger,
		now:    time.Now,
	}
}

func newShareToken() (string, error) {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("reading random bytes: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// Mint creates a share link on a file. A ttl of zero means the link never
// expires; a negative ttl is rejected. The token → file binding is
// write-once; tokens are never recycled, even after revocation.
func (s *LinkService) Mint(ctx context.Context, fileID, creatorID uuid.UUID, ttl time.Duration) (*models.ShareLink, error) {
	if ttl < 0 {
		return nil, models.ErrInvalidTTL
	}

	file, err := s.store.GetFile(ctx, fileID)
	if err != nil {
		return nil, err
	}
	if file.OwnerID != creatorID {
		return nil, models.ErrNotOwner
	}

	now := s.now()
	link := &models.ShareLink{
		FileID:    fileID,
		CreatorID: creatorID,
		CreatedAt: now,
	}
	if ttl > 0 {
		expires := now.Add(ttl)
		link.ExpiresAt = &expires
	}

	for attempt := 0; attempt < mintRetries; attempt++ {
		token, err := newShareToken()
		if err != nil {
			return nil, err
		}
		link.Token = token

		err = s.store.InsertLink(ctx, link)
		if err == nil {
			return link, nil
		}
		if !errors.Is(err, repository.ErrDuplicateToken) {
			return nil, err
		}
	}

	// Repeated collisions in a 2^256 space mean the random source is not
	// random. Operationally alarming, so it is logged loudly.
	s.logger.Error("share token collisions exhausted retries",
		zap.String("file_id", fileID.String()),
		zap.Int("retries", mintRetries),
	)
	return nil, models.ErrTokenSpaceExhausted
}

// Resolve maps a token to its share link by exact match. Unknown tokens
// return ErrNotFound; there is deliberately no fuzzy or prefix lookup.
func (s *LinkService) Resolve(ctx context.Context, token string) (*models.ShareLink, error) {
	return s.store.GetLink(ctx, token)
}

// Revoke marks a link revoked. Only the link's creator may revoke it.
// Revoking twice is an error (ErrAlreadyRevoked) rather than an idempotent
// success, matching Revoke on grants where a second call gets ErrNotFound.
// The store's guarded update decides races: of two concurrent revokes
// exactly one succeeds.
func (s *LinkService) Revoke(ctx context.Context, token string, requesterID uuid.UUID) error {
	link, err := s.store.GetLink(ctx, token)
	if err != nil {
		return err
	}
	if link.CreatorID != requesterID {
		return models.ErrNotOwner
	}

	return s.store.MarkLinkRevoked(ctx, token)
}

// ListByFile returns all links on a file for the owner's audit view, newest
// first, including revoked and expired ones.
func (s *LinkService) ListByFile(ctx context.Context, fileID, requesterID uuid.UUID) ([]*models.ShareLink, error) {
	file, err := s.store.GetFile(ctx, fileID)
	if err != nil {
		return nil, err
	}
	if file.OwnerID != requesterID {
		return nil, models.ErrNotOwner
	}

	return s.store.ListLinksByFile(ctx, fileID)
}
