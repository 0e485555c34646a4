// Package access decides, per request, whether a principal may reach a file.
// Decisions are never cached: every evaluation reads current store state, so
// a committed revocation is observed by the next evaluation.
package access

import (
	"context"
	"errors"
	"time"

	"fileshare-backend/internal/models"
	"fileshare-backend/internal/repository"

	"github.com/google/uuid"
)

// Reason explains a denial.
type Reason string

const (
	ReasonNotFound     Reason = "not-found"
	ReasonExpired      Reason = "expired"
	ReasonRevoked      Reason = "revoked"
	ReasonUnauthorized Reason = "unauthorized"
)

// Decision is the outcome of one evaluation. It is ephemeral and must not be
// persisted or reused across requests.
type Decision struct {
	Allowed bool
	Reason  Reason // set when denied

	// FileID is the file the decision binds to; set whenever the file could
	// be resolved, allowed or not.
	FileID uuid.UUID

	// Exactly one of the following describes the effective grant on allow.
	Owner bool              // principal owns the file
	Grant *models.UserGrant // access via a user-to-user grant
	Link  *models.ShareLink // access via a bearer token
}

func deny(reason Reason) Decision {
	return Decision{Allowed: false, Reason: reason}
}

// Evaluator answers access questions against the grant store. Both entry
// points are pure reads; the caller captures now exactly once per request
// and every time comparison inside a single evaluation uses that instant.
type Evaluator struct {
	store repository.Store
}

// NewEvaluator creates an evaluator over the given store.
func NewEvaluator(store repository.Store) *Evaluator {
	return &Evaluator{store: store}
}

// EvaluateAsUser decides whether an authenticated user may access a file:
// allowed if the user owns it or holds an active grant on it. An unknown or
// soft-deleted file denies with not-found; the API layer is responsible for
// making that indistinguishable from unauthorized on the wire.
func (e *Evaluator) EvaluateAsUser(ctx context.Context, fileID, userID uuid.UUID, now time.Time) (Decision, error) {
	file, err := e.store.GetFile(ctx, fileID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return deny(ReasonNotFound), nil
		}
		return Decision{}, err
	}

	if file.OwnerID == userID {
		return Decision{Allowed: true, FileID: file.ID, Owner: true}, nil
	}

	grant, err := e.store.GetGrant(ctx, fileID, userID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return Decision{Reason: ReasonUnauthorized, FileID: file.ID}, nil
		}
		return Decision{}, err
	}

	if !grant.ActiveAt(now) {
		// An expired grant denies the same way as no grant at all.
		return Decision{Reason: ReasonUnauthorized, FileID: file.ID}, nil
	}

	return Decision{Allowed: true, FileID: file.ID, Grant: grant}, nil
}

// EvaluateByToken decides whether a bearer token grants access to the file
// it was minted for. Revocation and expiry are independent predicates over
// the same resolved link, both checked against the single now the caller
// captured.
func (e *Evaluator) EvaluateByToken(ctx context.Context, token string, now time.Time) (Decision, error) {
	link, err := e.store.GetLink(ctx, token)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return deny(ReasonNotFound), nil
		}
		return Decision{}, err
	}

	if link.Revoked {
		return Decision{Reason: ReasonRevoked, FileID: link.FileID}, nil
	}
	if link.ExpiredAt(now) {
		return Decision{Reason: ReasonExpired, FileID: link.FileID}, nil
	}

	// The binding is write-once, but the file may have been soft-deleted
	// after the link was minted.
	file, err := e.store.GetFile(ctx, link.FileID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return deny(ReasonNotFound), nil
		}
		return Decision{}, err
	}

	return Decision{Allowed: true, FileID: file.ID, Link: link}, nil
}
