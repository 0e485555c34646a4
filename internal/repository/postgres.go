package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fileshare-backend/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore is the Store implementation backed by PostgreSQL.
type PostgresStore struct {
	db *pgxpool.Pool
}

// NewPostgresStore creates a PostgresStore with a fresh connection pool.
func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	return &PostgresStore{db: pool}, nil
}

// Close closes the connection pool.
func (s *PostgresStore) Close() {
	s.db.Close()
}

// RunMigrations executes a migration SQL script.
func (s *PostgresStore) RunMigrations(ctx context.Context, migrationSQL string) error {
	_, err := s.db.Exec(ctx, migrationSQL)
	if err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	return nil
}

const pgUniqueViolation = "23505"

// storeErr maps driver failures onto the shared taxonomy. Anything that is
// not a server-reported SQL error is assumed to be a transport problem and
// surfaces as ErrUnavailable, never as ErrNotFound.
func storeErr(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%s: %w: %v", op, models.ErrUnavailable, err)
}

// --- UserStore ---

func (s *PostgresStore) CreateUser(ctx context.Context, user *models.User) error {
	sql := `
        INSERT INTO users (id, email, name, password_hash, created_at)
        VALUES ($1, $2, $3, $4, $5)`

	_, err := s.db.Exec(ctx, sql,
		user.ID,
		user.Email,
		user.Name,
		user.PasswordHash,
		user.CreatedAt,
	)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return ErrDuplicateEmail
		}
		return storeErr("creating user", err)
	}
	return nil
}

func (s *PostgresStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	sql := `
        SELECT id, email, name, password_hash, created_at
        FROM users
        WHERE email = $1`

	user := &models.User{}
	err := s.db.QueryRow(ctx, sql, email).Scan(
		&user.ID,
		&user.Email,
		&user.Name,
		&user.PasswordHash,
		&user.CreatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, storeErr("fetching user by email", err)
	}
	return user, nil
}

func (s *PostgresStore) GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	sql := `
        SELECT id, email, name, password_hash, created_at
        FROM users
        WHERE id = $1`

	user := &models.User{}
	err := s.db.QueryRow(ctx, sql, id).Scan(
		&user.ID,
		&user.Email,
		&user.Name,
		&user.PasswordHash,
		&user.CreatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, storeErr("fetching user by id", err)
	}
	return user, nil
}

// --- FileStore ---

func (s *PostgresStore) CreateFile(ctx context.Context, file *models.File) error {
	sql := `
        INSERT INTO files (id, owner_id, filename, size, content_type, created_at, deleted)
        VALUES ($1, $2, $3, $4, $5, $6, false)`

	_, err := s.db.Exec(ctx, sql,
		file.ID,
		file.OwnerID,
		file.Filename,
		file.Size,
		file.ContentType,
		file.CreatedAt,
	)

	if err != nil {
		return storeErr("creating file", err)
	}
	return nil
}

func (s *PostgresStore) GetFile(ctx context.Context, id uuid.UUID) (*models.File, error) {
	sql := `
        SELECT id, owner_id, filename, size, content_type, created_at
        FROM files
        WHERE id = $1 AND deleted = false`

	file := &models.File{}
	err := s.db.QueryRow(ctx, sql, id).Scan(
		&file.ID,
		&file.OwnerID,
		&file.Filename,
		&file.Size,
		&file.ContentType,
		&file.CreatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, storeErr("fetching file", err)
	}
	return file, nil
}

func (s *PostgresStore) ListFilesByOwner(ctx context.Context, ownerID uuid.UUID) ([]*models.File, error) {
	sql := `
        SELECT id, owner_id, filename, size, content_type, created_at
        FROM files
        WHERE owner_id = $1 AND deleted = false
        ORDER BY created_at DESC`

	rows, err := s.db.Query(ctx, sql, ownerID)
	if err != nil {
		return nil, storeErr("listing files", err)
	}
	defer rows.Close()

	// Empty slice rather than nil, for JSON consistency.
	files := []*models.File{}

	for rows.Next() {
		file := &models.File{}
		err := rows.Scan(
			&file.ID,
			&file.OwnerID,
			&file.Filename,
			&file.Size,
			&file.ContentType,
			&file.CreatedAt,
		)
		if err != nil {
			return nil, storeErr("scanning file row", err)
		}
		files = append(files, file)
	}

	if err = rows.Err(); err != nil {
		return nil, storeErr("iterating file rows", err)
	}

	return files, nil
}

func (s *PostgresStore) SoftDeleteFile(ctx context.Context, id uuid.UUID) error {
	sql := `UPDATE files SET deleted = true WHERE id = $1 AND deleted = false`

	tag, err := s.db.Exec(ctx, sql, id)
	if err != nil {
		return storeErr("soft-deleting file", err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

// --- GrantStore ---

// UpsertGrant supersedes any existing grant for the (file, grantee) pair in a
// single statement, so concurrent creates cannot produce two active grants.
// The incoming expiry always wins, including when it is shorter.
func (s *PostgresStore) UpsertGrant(ctx context.Context, grant *models.UserGrant) error {
	sql := `
        INSERT INTO user_grants (id, file_id, grantee_id, granter_id, created_at, expires_at)
        VALUES ($1, $2, $3, $4, $5, $6)
        ON CONFLICT (file_id, grantee_id) DO UPDATE
        SET granter_id = EXCLUDED.granter_id,
            created_at = EXCLUDED.created_at,
            expires_at = EXCLUDED.expires_at`

	_, err := s.db.Exec(ctx, sql,
		grant.ID,
		grant.FileID,
		grant.GranteeID,
		grant.GranterID,
		grant.CreatedAt,
		grant.ExpiresAt,
	)

	if err != nil {
		return storeErr("upserting grant", err)
	}
	return nil
}

func (s *PostgresStore) GetGrant(ctx context.Context, fileID, granteeID uuid.UUID) (*models.UserGrant, error) {
	sql := `
        SELECT id, file_id, grantee_id, granter_id, created_at, expires_at
        FROM user_grants
        WHERE file_id = $1 AND grantee_id = $2`

	grant := &models.UserGrant{}
	err := s.db.QueryRow(ctx, sql, fileID, granteeID).Scan(
		&grant.ID,
		&grant.FileID,
		&grant.GranteeID,
		&grant.GranterID,
		&grant.CreatedAt,
		&grant.ExpiresAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, storeErr("fetching grant", err)
	}
	return grant, nil
}

func (s *PostgresStore) ListGrantsByFile(ctx context.Context, fileID uuid.UUID) ([]*models.UserGrant, error) {
	sql := `
        SELECT id, file_id, grantee_id, granter_id, created_at, expires_at
        FROM user_grants
        WHERE file_id = $1
        ORDER BY created_at DESC`

	rows, err := s.db.Query(ctx, sql, fileID)
	if err != nil {
		return nil, storeErr("listing grants", err)
	}
	defer rows.Close()

	grants := []*models.UserGrant{}

	for rows.Next() {
		grant := &models.UserGrant{}
		err := rows.Scan(
			&grant.ID,
			&grant.FileID,
			&grant.GranteeID,
			&grant.GranterID,
			&grant.CreatedAt,
			&grant.ExpiresAt,
		)
		if err != nil {
			return nil, storeErr("scanning grant row", err)
		}
		grants = append(grants, grant)
	}

	if err = rows.Err(); err != nil {
		return nil, storeErr("iterating grant rows", err)
	}

	return grants, nil
}

// DeleteActiveGrant deletes in one statement guarded by the expiry predicate,
// so a revoke racing an expiry cannot delete a grant that was already
// inactive.
func (s *PostgresStore) DeleteActiveGrant(ctx context.Context, fileID, granteeID uuid.UUID, now time.Time) error {
	sql := `
        DELETE FROM user_grants
        WHERE file_id = $1 AND grantee_id = $2
          AND (expires_at IS NULL OR expires_at >= $3)`

	tag, err := s.db.Exec(ctx, sql, fileID, granteeID, now)
	if err != nil {
		return storeErr("deleting grant", err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) DeleteExpiredGrants(ctx context.Context, before time.Time) (int64, error) {
	sql := `DELETE FROM user_grants WHERE expires_at IS NOT NULL AND expires_at < $1`

	tag, err := s.db.Exec(ctx, sql, before)
	if err != nil {
		return 0, storeErr("purging grants", err)
	}
	return tag.RowsAffected(), nil
}

// --- LinkStore ---

func (s *PostgresStore) InsertLink(ctx context.Context, link *models.ShareLink) error {
	sql := `
        INSERT INTO share_links (token, file_id, creator_id, created_at, expires_at, revoked)
        VALUES ($1, $2, $3, $4, $5, false)`

	_, err := s.db.Exec(ctx, sql,
		link.Token,
		link.FileID,
		link.CreatorID,
		link.CreatedAt,
		link.ExpiresAt,
	)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return ErrDuplicateToken
		}
		return storeErr("inserting share link", err)
	}
	return nil
}

func (s *PostgresStore) GetLink(ctx context.Context, token string) (*models.ShareLink, error) {
	// Exact equality only. No LIKE, no prefix matching.
	sql := `
        SELECT token, file_id, creator_id, created_at, expires_at, revoked
        FROM share_links
        WHERE token = $1`

	link := &models.ShareLink{}
	err := s.db.QueryRow(ctx, sql, token).Scan(
		&link.Token,
		&link.FileID,
		&link.CreatorID,
		&link.CreatedAt,
		&link.ExpiresAt,
		&link.Revoked,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, storeErr("fetching share link", err)
	}
	return link, nil
}

func (s *PostgresStore) ListLinksByFile(ctx context.Context, fileID uuid.UUID) ([]*models.ShareLink, error) {
	sql := `
        SELECT token, file_id, creator_id, created_at, expires_at, revoked
        FROM share_links
        WHERE file_id = $1
        ORDER BY created_at DESC`

	rows, err := s.db.Query(ctx, sql, fileID)
	if err != nil {
		return nil, storeErr("listing share links", err)
	}
	defer rows.Close()

	links := []*models.ShareLink{}

	for rows.Next() {
		link := &models.ShareLink{}
		err := rows.Scan(
			&link.Token,
			&link.FileID,
			&link.CreatorID,
			&link.CreatedAt,
			&link.ExpiresAt,
			&link.Revoked,
		)
		if err != nil {
			return nil, storeErr("scanning share link row", err)
		}
		links = append(links, link)
	}

	if err = rows.Err(); err != nil {
		return nil, storeErr("iterating share link rows", err)
	}

	return links, nil
}

// MarkLinkRevoked flips the flag with a guarded single-statement update, so
// of two racing revokes only one sees a row to change.
func (s *PostgresStore) MarkLinkRevoked(ctx context.Context, token string) error {
	sql := `UPDATE share_links SET revoked = true WHERE token = $1 AND revoked = false`

	tag, err := s.db.Exec(ctx, sql, token)
	if err != nil {
		return storeErr("revoking share link", err)
	}
	if tag.RowsAffected() == 0 {
		// Zero rows means either an unknown token or one already revoked.
		if _, err := s.GetLink(ctx, token); err != nil {
			return err
		}
		return models.ErrAlreadyRevoked
	}
	return nil
}

func (s *PostgresStore) DeleteExpiredLinks(ctx context.Context, before time.Time) (int64, error) {
	sql := `DELETE FROM share_links WHERE expires_at IS NOT NULL AND expires_at < $1`

	tag, err := s.db.Exec(ctx, sql, before)
	if err != nil {
		return 0, storeErr("purging share links", err)
	}
	return tag.RowsAffected(), nil
}
