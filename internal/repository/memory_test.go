package repository

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"fileshare-backend/internal/models"

	"github.com/google/uuid"
)

func grantWithExpiry(fileID, granteeID uuid.UUID, createdAt time.Time, expiresAt *time.Time) *models.UserGrant {
	return &models.UserGrant{
		ID:        uuid.New(),
		FileID:    fileID,
		GranteeID: granteeID,
		GranterID: uuid.New(),
		CreatedAt: createdAt,
		ExpiresAt: expiresAt,
	}
}

func TestUpsertGrantSupersedes(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()
	fileID := uuid.New()
	granteeID := uuid.New()
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	long := base.Add(24 * time.Hour)
	if err := store.UpsertGrant(ctx, grantWithExpiry(fileID, granteeID, base, &long)); err != nil {
		t.Fatalf("first upsert failed: %v", err)
	}

	// Re-sharing with a shorter ttl shortens the grant.
	short := base.Add(time.Hour)
	if err := store.UpsertGrant(ctx, grantWithExpiry(fileID, granteeID, base.Add(time.Minute), &short)); err != nil {
		t.Fatalf("second upsert failed: %v", err)
	}

	grants, err := store.ListGrantsByFile(ctx, fileID)
	if err != nil {
		t.Fatalf("listing grants: %v", err)
	}
	if len(grants) != 1 {
		t.Fatalf("expected exactly one grant after supersede, got %d", len(grants))
	}
	if grants[0].ExpiresAt == nil || !grants[0].ExpiresAt.Equal(short) {
		t.Errorf("expiry not replaced: got %v, want %v", grants[0].ExpiresAt, short)
	}
}

func TestDeleteActiveGrant(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	expired := base.Add(-time.Hour)
	future := base.Add(time.Hour)

	tests := []struct {
		name      string
		expiresAt *time.Time
		wantErr   error
	}{
		{"active with future expiry", &future, nil},
		{"active without expiry", nil, nil},
		{"already expired", &expired, models.ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := NewInMemoryStore()
			fileID := uuid.New()
			granteeID := uuid.New()

			if err := store.UpsertGrant(ctx, grantWithExpiry(fileID, granteeID, base.Add(-2*time.Hour), tt.expiresAt)); err != nil {
				t.Fatalf("upsert failed: %v", err)
			}

			err := store.DeleteActiveGrant(ctx, fileID, granteeID, base)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("DeleteActiveGrant = %v, want %v", err, tt.wantErr)
			}
		})
	}

	t.Run("no grant at all", func(t *testing.T) {
		store := NewInMemoryStore()
		err := store.DeleteActiveGrant(ctx, uuid.New(), uuid.New(), base)
		if !errors.Is(err, models.ErrNotFound) {
			t.Fatalf("DeleteActiveGrant = %v, want ErrNotFound", err)
		}
	})
}

func TestInsertLinkRejectsDuplicateToken(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()

	link := &models.ShareLink{
		Token:     "fixed-token",
		FileID:    uuid.New(),
		CreatorID: uuid.New(),
		CreatedAt: time.Now(),
	}
	if err := store.InsertLink(ctx, link); err != nil {
		t.Fatalf("first insert failed: %v", err)
	}

	err := store.InsertLink(ctx, &models.ShareLink{
		Token:     "fixed-token",
		FileID:    uuid.New(),
		CreatorID: uuid.New(),
		CreatedAt: time.Now(),
	})
	if !errors.Is(err, ErrDuplicateToken) {
		t.Fatalf("second insert = %v, want ErrDuplicateToken", err)
	}

	// The original binding survives the rejected insert.
	got, err := store.GetLink(ctx, "fixed-token")
	if err != nil {
		t.Fatalf("GetLink failed: %v", err)
	}
	if got.FileID != link.FileID {
		t.Errorf("binding changed: got %s, want %s", got.FileID, link.FileID)
	}
}

func TestMarkLinkRevokedGuarded(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()

	if err := store.MarkLinkRevoked(ctx, "unknown"); !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("revoking unknown token = %v, want ErrNotFound", err)
	}

	err := store.InsertLink(ctx, &models.ShareLink{
		Token:     "tok",
		FileID:    uuid.New(),
		CreatorID: uuid.New(),
		CreatedAt: time.Now(),
	})
	if err != nil {
		t.Fatalf("insert failed: %v", err)
	}

	if err := store.MarkLinkRevoked(ctx, "tok"); err != nil {
		t.Fatalf("first revoke failed: %v", err)
	}
	// The flag flip is guarded in the store itself, so a second revoke is
	// rejected even without any caller-side read of the flag.
	if err := store.MarkLinkRevoked(ctx, "tok"); !errors.Is(err, models.ErrAlreadyRevoked) {
		t.Fatalf("second revoke = %v, want ErrAlreadyRevoked", err)
	}
}

func TestMarkLinkRevokedConcurrent(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()

	err := store.InsertLink(ctx, &models.ShareLink{
		Token:     "tok",
		FileID:    uuid.New(),
		CreatorID: uuid.New(),
		CreatedAt: time.Now(),
	})
	if err != nil {
		t.Fatalf("insert failed: %v", err)
	}

	const revokers = 16
	results := make(chan error, revokers)
	var wg sync.WaitGroup
	for i := 0; i < revokers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- store.MarkLinkRevoked(ctx, "tok")
		}()
	}
	wg.Wait()
	close(results)

	var succeeded, alreadyRevoked int
	for err := range results {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, models.ErrAlreadyRevoked):
			alreadyRevoked++
		default:
			t.Fatalf("unexpected revoke error: %v", err)
		}
	}
	if succeeded != 1 {
		t.Errorf("%d revokes succeeded, want exactly 1", succeeded)
	}
	if alreadyRevoked != revokers-1 {
		t.Errorf("%d revokes saw ErrAlreadyRevoked, want %d", alreadyRevoked, revokers-1)
	}
}

func TestListOrdering(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()
	fileID := uuid.New()
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		err := store.InsertLink(ctx, &models.ShareLink{
			Token:     uuid.New().String(),
			FileID:    fileID,
			CreatorID: uuid.New(),
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		})
		if err != nil {
			t.Fatalf("insert failed: %v", err)
		}
	}

	links, err := store.ListLinksByFile(ctx, fileID)
	if err != nil {
		t.Fatalf("listing links: %v", err)
	}
	if len(links) != 3 {
		t.Fatalf("expected 3 links, got %d", len(links))
	}
	for i := 1; i < len(links); i++ {
		if links[i].CreatedAt.After(links[i-1].CreatedAt) {
			t.Errorf("links not ordered newest first at index %d", i)
		}
	}
}

func TestPurgeKeepsActiveRecords(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()
	fileID := uuid.New()
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	expired := base.Add(-time.Hour)
	future := base.Add(time.Hour)

	store.UpsertGrant(ctx, grantWithExpiry(fileID, uuid.New(), base, &expired))
	store.UpsertGrant(ctx, grantWithExpiry(fileID, uuid.New(), base, &future))
	store.UpsertGrant(ctx, grantWithExpiry(fileID, uuid.New(), base, nil))

	store.InsertLink(ctx, &models.ShareLink{Token: "a", FileID: fileID, CreatedAt: base, ExpiresAt: &expired})
	store.InsertLink(ctx, &models.ShareLink{Token: "b", FileID: fileID, CreatedAt: base, ExpiresAt: &future})
	store.InsertLink(ctx, &models.ShareLink{Token: "c", FileID: fileID, CreatedAt: base})

	grants, err := store.DeleteExpiredGrants(ctx, base)
	if err != nil {
		t.Fatalf("DeleteExpiredGrants failed: %v", err)
	}
	links, err := store.DeleteExpiredLinks(ctx, base)
	if err != nil {
		t.Fatalf("DeleteExpiredLinks failed: %v", err)
	}

	if grants != 1 || links != 1 {
		t.Errorf("purged (%d grants, %d links), want (1, 1)", grants, links)
	}

	remaining, _ := store.ListGrantsByFile(ctx, fileID)
	if len(remaining) != 2 {
		t.Errorf("expected 2 grants to survive, got %d", len(remaining))
	}
	remainingLinks, _ := store.ListLinksByFile(ctx, fileID)
	if len(remainingLinks) != 2 {
		t.Errorf("expected 2 links to survive, got %d", len(remainingLinks))
	}
}

func TestSoftDeletedFileBehavesAsAbsent(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()
	ownerID := uuid.New()

	file := &models.File{
		ID:        uuid.New(),
		OwnerID:   ownerID,
		Filename:  "report.pdf",
		CreatedAt: time.Now(),
	}
	if err := store.CreateFile(ctx, file); err != nil {
		t.Fatalf("CreateFile failed: %v", err)
	}

	if err := store.SoftDeleteFile(ctx, file.ID); err != nil {
		t.Fatalf("SoftDeleteFile failed: %v", err)
	}

	if _, err := store.GetFile(ctx, file.ID); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("GetFile after delete = %v, want ErrNotFound", err)
	}
	files, _ := store.ListFilesByOwner(ctx, ownerID)
	if len(files) != 0 {
		t.Errorf("deleted file still listed")
	}
	if err := store.SoftDeleteFile(ctx, file.ID); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("second delete = %v, want ErrNotFound", err)
	}
}
