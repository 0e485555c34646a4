package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"fileshare-backend/internal/models"

	"github.com/google/uuid"
)

type grantKey struct {
	fileID    uuid.UUID
	granteeID uuid.UUID
}

// InMemoryStore is an in-memory implementation of the Store interface, used
// for tests and local development. All operations run under one mutex, which
// makes the supersede-on-create and unique-token-insert paths atomic.
type InMemoryStore struct {
	mu           sync.RWMutex
	usersByID    map[uuid.UUID]*models.User
	usersByEmail map[string]*models.User
	filesByID    map[uuid.UUID]*models.File
	grants       map[grantKey]*models.UserGrant
	linksByToken map[string]*models.ShareLink
}

// NewInMemoryStore creates an empty in-memory store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		usersByID:    make(map[uuid.UUID]*models.User),
		usersByEmail: make(map[string]*models.User),
		filesByID:    make(map[uuid.UUID]*models.File),
		grants:       make(map[grantKey]*models.UserGrant),
		linksByToken: make(map[string]*models.ShareLink),
	}
}

// --- UserStore ---

func (s *InMemoryStore) CreateUser(ctx context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.usersByEmail[user.Email]; exists {
		return ErrDuplicateEmail
	}

	u := *user
	s.usersByID[u.ID] = &u
	s.usersByEmail[u.Email] = &u
	return nil
}

func (s *InMemoryStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, exists := s.usersByEmail[email]
	if !exists {
		return nil, models.ErrNotFound
	}
	u := *user
	return &u, nil
}

func (s *InMemoryStore) GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, exists := s.usersByID[id]
	if !exists {
		return nil, models.ErrNotFound
	}
	u := *user
	return &u, nil
}

// --- FileStore ---

func (s *InMemoryStore) CreateFile(ctx context.Context, file *models.File) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	f := *file
	s.filesByID[f.ID] = &f
	return nil
}

func (s *InMemoryStore) GetFile(ctx context.Context, id uuid.UUID) (*models.File, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	file, exists := s.filesByID[id]
	if !exists || file.Deleted {
		return nil, models.ErrNotFound
	}
	f := *file
	return &f, nil
}

func (s *InMemoryStore) ListFilesByOwner(ctx context.Context, ownerID uuid.UUID) ([]*models.File, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	// Empty slice rather than nil, for JSON consistency.
	files := []*models.File{}
	for _, file := range s.filesByID {
		if file.OwnerID == ownerID && !file.Deleted {
			f := *file
			files = append(files, &f)
		}
	}
	sort.Slice(files, func(i, j int) bool {
		return files[i].CreatedAt.After(files[j].CreatedAt)
	})
	return files, nil
}

func (s *InMemoryStore) SoftDeleteFile(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	file, exists := s.filesByID[id]
	if !exists || file.Deleted {
		return models.ErrNotFound
	}
	file.Deleted = true
	return nil
}

// --- GrantStore ---

func (s *InMemoryStore) UpsertGrant(ctx context.Context, grant *models.UserGrant) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Replaces any prior grant for the pair; the new expiry wins even when
	// it is shorter than the old one.
	g := *grant
	s.grants[grantKey{g.FileID, g.GranteeID}] = &g
	return nil
}

func (s *InMemoryStore) GetGrant(ctx context.Context, fileID, granteeID uuid.UUID) (*models.UserGrant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	grant, exists := s.grants[grantKey{fileID, granteeID}]
	if !exists {
		return nil, models.ErrNotFound
	}
	g := *grant
	return &g, nil
}

func (s *InMemoryStore) ListGrantsByFile(ctx context.Context, fileID uuid.UUID) ([]*models.UserGrant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	grants := []*models.UserGrant{}
	for _, grant := range s.grants {
		if grant.FileID == fileID {
			g := *grant
			grants = append(grants, &g)
		}
	}
	sort.Slice(grants, func(i, j int) bool {
		return grants[i].CreatedAt.After(grants[j].CreatedAt)
	})
	return grants, nil
}

func (s *InMemoryStore) DeleteActiveGrant(ctx context.Context, fileID, granteeID uuid.UUID, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := grantKey{fileID, granteeID}
	grant, exists := s.grants[key]
	if !exists || !grant.ActiveAt(now) {
		return models.ErrNotFound
	}
	delete(s.grants, key)
	return nil
}

func (s *InMemoryStore) DeleteExpiredGrants(ctx context.Context, before time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var count int64
	for key, grant := range s.grants {
		if grant.ExpiresAt != nil && grant.ExpiresAt.Before(before) {
			delete(s.grants, key)
			count++
		}
	}
	return count, nil
}

// --- LinkStore ---

func (s *InMemoryStore) InsertLink(ctx context.Context, link *models.ShareLink) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.linksByToken[link.Token]; exists {
		return ErrDuplicateToken
	}
	l := *link
	s.linksByToken[l.Token] = &l
	return nil
}

func (s *InMemoryStore) GetLink(ctx context.Context, token string) (*models.ShareLink, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	// Exact map lookup only; nothing resembling prefix matching.
	link, exists := s.linksByToken[token]
	if !exists {
		return nil, models.ErrNotFound
	}
	l := *link
	return &l, nil
}

func (s *InMemoryStore) ListLinksByFile(ctx context.Context, fileID uuid.UUID) ([]*models.ShareLink, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	links := []*models.ShareLink{}
	for _, link := range s.linksByToken {
		if link.FileID == fileID {
			l := *link
			links = append(links, &l)
		}
	}
	sort.Slice(links, func(i, j int) bool {
		return links[i].CreatedAt.After(links[j].CreatedAt)
	})
	return links, nil
}

func (s *InMemoryStore) MarkLinkRevoked(ctx context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	link, exists := s.linksByToken[token]
	if !exists {
		return models.ErrNotFound
	}
	// Flag check and flip happen under the same write lock, so concurrent
	// revokes serialize: one wins, the rest see the flag already set.
	if link.Revoked {
		return models.ErrAlreadyRevoked
	}
	link.Revoked = true
	return nil
}

func (s *InMemoryStore) DeleteExpiredLinks(ctx context.Context, before time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var count int64
	for token, link := range s.linksByToken {
		if link.ExpiresAt != nil && link.ExpiresAt.Before(before) {
			delete(s.linksByToken, token)
			count++
		}
	}
	return count, nil
}
