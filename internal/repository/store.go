package repository

import (
	"context"
	"errors"
	"time"

	"fileshare-backend/internal/models"

	"github.com/google/uuid"
)

// ErrDuplicateToken signals a share-token collision on insert. The link
// service retries generation a bounded number of times when it sees this.
var ErrDuplicateToken = errors.New("share token already exists")

// ErrDuplicateEmail signals that an account with the email already exists.
var ErrDuplicateEmail = errors.New("email already registered")

// UserStore defines the account operations the service layer needs.
type UserStore interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// FileStore defines file-metadata operations. Soft-deleted files behave as
// absent everywhere except the physical row.
type FileStore interface {
	CreateFile(ctx context.Context, file *models.File) error
	GetFile(ctx context.Context, id uuid.UUID) (*models.File, error)
	ListFilesByOwner(ctx context.Context, ownerID uuid.UUID) ([]*models.File, error)
	SoftDeleteFile(ctx context.Context, id uuid.UUID) error
}

// GrantStore defines user-grant operations. UpsertGrant must supersede any
// existing grant for the same (file, grantee) pair atomically: a single
// statement or an equivalent compare-and-swap, never check-then-write in the
// caller.
type GrantStore interface {
	UpsertGrant(ctx context.Context, grant *models.UserGrant) error
	GetGrant(ctx context.Context, fileID, granteeID uuid.UUID) (*models.UserGrant, error)
	ListGrantsByFile(ctx context.Context, fileID uuid.UUID) ([]*models.UserGrant, error)
	// DeleteActiveGrant hard-deletes the grant for (file, grantee) if it is
	// still active at now; returns ErrNotFound when no active grant exists.
	DeleteActiveGrant(ctx context.Context, fileID, granteeID uuid.UUID, now time.Time) error
	DeleteExpiredGrants(ctx context.Context, before time.Time) (int64, error)
}

// LinkStore defines share-link operations. InsertLink must rely on a storage
// level uniqueness guarantee for the token and report collisions as
// ErrDuplicateToken. MarkLinkRevoked must flip the flag atomically
// (guarded update, not check-then-write): of two concurrent revokes exactly
// one succeeds and the other gets ErrAlreadyRevoked.
type LinkStore interface {
	InsertLink(ctx context.Context, link *models.ShareLink) error
	GetLink(ctx context.Context, token string) (*models.ShareLink, error)
	ListLinksByFile(ctx context.Context, fileID uuid.UUID) ([]*models.ShareLink, error)
	MarkLinkRevoked(ctx context.Context, token string) error
	DeleteExpiredLinks(ctx context.Context, before time.Time) (int64, error)
}

// Store is the aggregate interface over all persistence operations.
// Services depend on this to ease dependency injection.
type Store interface {
	UserStore
	FileStore
	GrantStore
	LinkStore
}
