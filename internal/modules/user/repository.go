package user

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var _ Repository = (*PostgresUserRepository)(nil)

// PostgresUserRepository is a PostgreSQL implementation of the Repository
// interface defined by the domain layer
type PostgresUserRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresUserRepository creates a new PostgresUserRepository
func NewPostgresUserRepository(pool *pgxpool.Pool) *PostgresUserRepository {
	return &PostgresUserRepository{pool: pool}
}

// publicColumns is the projection used everywhere a user leaves the module.
// password_hash and refresh_token are intentionally absent
const publicColumns = `id, username, email, full_name, avatar_url, cover_image_url, created_at, updated_at`

func scanPublicUser(row pgx.Row) (*User, error) {
	var u User
	err := row.Scan(
		&u.ID,
		&u.Username,
		&u.Email,
		&u.FullName,
		&u.AvatarURL,
		&u.CoverImageURL,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to scan user row: %w", err)
	}
	return &u, nil
}

func scanFullUser(row pgx.Row) (*User, error) {
	var u User
	err := row.Scan(
		&u.ID,
		&u.Username,
		&u.Email,
		&u.FullName,
		&u.AvatarURL,
		&u.CoverImageURL,
		&u.PasswordHash,
		&u.RefreshToken,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to scan user row: %w", err)
	}
	return &u, nil
}

// Create inserts a new user. Unique violations on username or email are mapped
// to ErrUserAlreadyExists
func (r *PostgresUserRepository) Create(ctx context.Context, u *User) error {
	query := `
		INSERT INTO users (id, username, email, full_name, avatar_url, cover_image_url, password_hash, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.pool.Exec(ctx, query,
		u.ID,
		u.Username,
		u.Email,
		u.FullName,
		u.AvatarURL,
		u.CoverImageURL,
		u.PasswordHash,
		u.CreatedAt,
		u.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrUserAlreadyExists
		}
		return fmt.Errorf("failed to insert user: %w", err)
	}

	return nil
}

// FindPublicByID loads a user without its credential hash and refresh token
func (r *PostgresUserRepository) FindPublicByID(ctx context.Context, id uuid.UUID) (*User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE id = $1`, publicColumns)
	return scanPublicUser(r.pool.QueryRow(ctx, query, id))
}

// FindByCredentialKey looks a user up by username or email, full row included.
// Usernames are stored lowercase, emails compared case-insensitively
func (r *PostgresUserRepository) FindByCredentialKey(ctx context.Context, usernameOrEmail string) (*User, error) {
	query := `
		SELECT id, username, email, full_name, avatar_url, cover_image_url, password_hash, refresh_token, created_at, updated_at
		FROM users
		WHERE username = lower($1) OR lower(email) = lower($1)
	`
	return scanFullUser(r.pool.QueryRow(ctx, query, usernameOrEmail))
}

// FindByIDWithSecrets loads the full row, including the stored refresh token
func (r *PostgresUserRepository) FindByIDWithSecrets(ctx context.Context, id uuid.UUID) (*User, error) {
	query := `
		SELECT id, username, email, full_name, avatar_url, cover_image_url, password_hash, refresh_token, created_at, updated_at
		FROM users
		WHERE id = $1
	`
	return scanFullUser(r.pool.QueryRow(ctx, query, id))
}

// UpdateRefreshToken overwrites the single stored refresh token (nil clears it).
// It touches no other column, so rotation never trips over unrelated fields
func (r *PostgresUserRepository) UpdateRefreshToken(ctx context.Context, id uuid.UUID, token *string) error {
	query := `UPDATE users SET refresh_token = $2 WHERE id = $1`

	tag, err := r.pool.Exec(ctx, query, id, token)
	if err != nil {
		return fmt.Errorf("failed to update refresh token: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}

	return nil
}

// UpdatePasswordHash stores a new credential hash
func (r *PostgresUserRepository) UpdatePasswordHash(ctx context.Context, id uuid.UUID, hash string) error {
	query := `UPDATE users SET password_hash = $2, updated_at = now() WHERE id = $1`

	tag, err := r.pool.Exec(ctx, query, id, hash)
	if err != nil {
		return fmt.Errorf("failed to update password hash: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}

	return nil
}

// UpdateAccountDetails updates the mutable profile fields and returns the
// refreshed public projection
func (r *PostgresUserRepository) UpdateAccountDetails(ctx context.Context, id uuid.UUID, fullName, email string) (*User, error) {
	query := fmt.Sprintf(`
		UPDATE users SET full_name = $2, email = $3, updated_at = now()
		WHERE id = $1
		RETURNING %s`, publicColumns)

	u, err := scanPublicUser(r.pool.QueryRow(ctx, query, id, fullName, email))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, ErrUserAlreadyExists
		}
		return nil, err
	}
	return u, nil
}

// UpdateAvatarURL stores a new avatar location and returns the public projection
func (r *PostgresUserRepository) UpdateAvatarURL(ctx context.Context, id uuid.UUID, url string) (*User, error) {
	query := fmt.Sprintf(`
		UPDATE users SET avatar_url = $2, updated_at = now()
		WHERE id = $1
		RETURNING %s`, publicColumns)

	return scanPublicUser(r.pool.QueryRow(ctx, query, id, url))
}

// UpdateCoverImageURL stores a new cover image location and returns the public projection
func (r *PostgresUserRepository) UpdateCoverImageURL(ctx context.Context, id uuid.UUID, url string) (*User, error) {
	query := fmt.Sprintf(`
		UPDATE users SET cover_image_url = $2, updated_at = now()
		WHERE id = $1
		RETURNING %s`, publicColumns)

	return scanPublicUser(r.pool.QueryRow(ctx, query, id, url))
}
