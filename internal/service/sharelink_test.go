package service

import (
	"context"
	"testing"
	"time"

	"fileshare-backend/internal/models"
	"fileshare-backend/internal/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newLinkFixture(t *testing.T) (*LinkService, repository.Store, uuid.UUID, uuid.UUID) {
	t.Helper()
	store := repository.NewInMemoryStore()
	ownerID, fileID := seedOwnerAndFile(t, store)

	svc := NewLinkService(store, zap.NewNop())
	svc.now = func() time.Time { return testClock }
	return svc, store, ownerID, fileID
}

func TestMint(t *testing.T) {
	ctx := context.Background()
	svc, _, ownerID, fileID := newLinkFixture(t)

	link, err := svc.Mint(ctx, fileID, ownerID, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, fileID, link.FileID)
	assert.Equal(t, ownerID, link.CreatorID)
	assert.False(t, link.Revoked)
	require.NotNil(t, link.ExpiresAt)
	assert.Equal(t, testClock.Add(time.Hour), *link.ExpiresAt)

	// 32 random bytes base64url-encoded: 43 characters of entropy.
	assert.Len(t, link.Token, 43)

	resolved, err := svc.Resolve(ctx, link.Token)
	require.NoError(t, err)
	assert.Equal(t, fileID, resolved.FileID)
}

func TestMintRejections(t *testing.T) {
	ctx := context.Background()
	svc, store, ownerID, fileID := newLinkFixture(t)
	otherID := seedUser(t, store, "other@example.com")

	_, err := svc.Mint(ctx, fileID, ownerID, -time.Second)
	assert.ErrorIs(t, err, models.ErrInvalidTTL)

	_, err = svc.Mint(ctx, fileID, otherID, time.Hour)
	assert.ErrorIs(t, err, models.ErrNotOwner)

	_, err = svc.Mint(ctx, uuid.New(), ownerID, time.Hour)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestMintZeroTTLNeverExpires(t *testing.T) {
	ctx := context.Background()
	svc, _, ownerID, fileID := newLinkFixture(t)

	link, err := svc.Mint(ctx, fileID, ownerID, 0)
	require.NoError(t, err)
	assert.Nil(t, link.ExpiresAt)
}

func TestMintTokensNeverCollide(t *testing.T) {
	ctx := context.Background()
	svc, _, ownerID, fileID := newLinkFixture(t)

	const sample = 2000
	seen := make(map[string]struct{}, sample)
	for i := 0; i < sample; i++ {
		link, err := svc.Mint(ctx, fileID, ownerID, 0)
		require.NoError(t, err)
		if _, dup := seen[link.Token]; dup {
			t.Fatalf("duplicate token after %d mints", i)
		}
		seen[link.Token] = struct{}{}
	}
}

// collidingStore forces every insert into the duplicate-token path,
// simulating a broken random source.
type collidingStore struct {
	repository.Store
	attempts int
}

func (s *collidingStore) InsertLink(ctx context.Context, link *models.ShareLink) error {
	s.attempts++
	return repository.ErrDuplicateToken
}

func TestMintExhaustsRetries(t *testing.T) {
	ctx := context.Background()
	inner := repository.NewInMemoryStore()
	ownerID, fileID := seedOwnerAndFile(t, inner)

	store := &collidingStore{Store: inner}
	svc := NewLinkService(store, zap.NewNop())
	svc.now = func() time.Time { return testClock }

	_, err := svc.Mint(ctx, fileID, ownerID, time.Hour)
	assert.ErrorIs(t, err, models.ErrTokenSpaceExhausted)
	assert.Equal(t, mintRetries, store.attempts)
}

func TestRevokeLink(t *testing.T) {
	ctx := context.Background()
	svc, store, ownerID, fileID := newLinkFixture(t)
	otherID := seedUser(t, store, "other@example.com")

	link, err := svc.Mint(ctx, fileID, ownerID, 0)
	require.NoError(t, err)

	err = svc.Revoke(ctx, link.Token, otherID)
	assert.ErrorIs(t, err, models.ErrNotOwner)

	err = svc.Revoke(ctx, "unknown-token", ownerID)
	assert.ErrorIs(t, err, models.ErrNotFound)

	require.NoError(t, svc.Revoke(ctx, link.Token, ownerID))

	// Revoking twice is an error, not an idempotent success.
	err = svc.Revoke(ctx, link.Token, ownerID)
	assert.ErrorIs(t, err, models.ErrAlreadyRevoked)

	// The binding survives revocation; the token is burned, not recycled.
	resolved, err := svc.Resolve(ctx, link.Token)
	require.NoError(t, err)
	assert.True(t, resolved.Revoked)
	assert.Equal(t, fileID, resolved.FileID)
}

func TestListLinksIncludesRevokedAndExpired(t *testing.T) {
	ctx := context.Background()
	svc, store, ownerID, fileID := newLinkFixture(t)
	otherID := seedUser(t, store, "other@example.com")

	active, err := svc.Mint(ctx, fileID, ownerID, 0)
	require.NoError(t, err)
	expired, err := svc.Mint(ctx, fileID, ownerID, time.Second)
	require.NoError(t, err)
	revoked, err := svc.Mint(ctx, fileID, ownerID, 0)
	require.NoError(t, err)
	require.NoError(t, svc.Revoke(ctx, revoked.Token, ownerID))

	_, err = svc.ListByFile(ctx, fileID, otherID)
	assert.ErrorIs(t, err, models.ErrNotOwner)

	links, err := svc.ListByFile(ctx, fileID, ownerID)
	require.NoError(t, err)
	require.Len(t, links, 3)

	byToken := make(map[string]*models.ShareLink, len(links))
	for _, l := range links {
		byToken[l.Token] = l
	}
	assert.Contains(t, byToken, active.Token)
	assert.Contains(t, byToken, expired.Token)
	assert.True(t, byToken[revoked.Token].Revoked)
}
