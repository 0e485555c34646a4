package models

import (
	"time"

	"github.com/google/uuid"
)

// User represents an account in the system
type User struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"-"` // never exposed in JSON
	CreatedAt    time.Time `json:"createdAt"`
}

// File represents the metadata of a stored file. Files are owned by exactly
// one user and are immutable except for the soft-delete flag.
type File struct {
	ID          uuid.UUID `json:"id"`
	OwnerID     uuid.UUID `json:"ownerId"`
	Filename    string    `json:"filename"`
	Size        int64     `json:"size"`
	ContentType string    `json:"contentType"`
	CreatedAt   time.Time `json:"createdAt"`
	Deleted     bool      `json:"-"`
}

// UserGrant gives one user access to one file until it expires or is revoked.
// At most one active grant exists per (file, grantee) pair; creating another
// replaces the previous one.
type UserGrant struct {
	ID        uuid.UUID  `json:"id"`
	FileID    uuid.UUID  `json:"fileId"`
	GranteeID uuid.UUID  `json:"granteeId"`
	GranterID uuid.UUID  `json:"granterId"`
	CreatedAt time.Time  `json:"createdAt"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"` // nil = never expires
}

// ActiveAt reports whether the grant is still usable at the given instant.
// Active while now <= expires-at; the same boundary rule as ShareLink.
func (g *UserGrant) ActiveAt(now time.Time) bool {
	return g.ExpiresAt == nil || !now.After(*g.ExpiresAt)
}

// ShareLink is an anonymous bearer grant: whoever presents the token may
// access the file. The token → file binding is write-once and tokens are
// never reused, even after revocation.
type ShareLink struct {
	Token     string     `json:"token"`
	FileID    uuid.UUID  `json:"fileId"`
	CreatorID uuid.UUID  `json:"creatorId"`
	CreatedAt time.Time  `json:"createdAt"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"` // nil = never expires
	Revoked   bool       `json:"revoked"`
}

// ExpiredAt reports whether the link has passed its expiry at the given
// instant. A revoked link may be unexpired; the two predicates are checked
// independently.
func (l *ShareLink) ExpiredAt(now time.Time) bool {
	return l.ExpiresAt != nil && now.After(*l.ExpiresAt)
}
