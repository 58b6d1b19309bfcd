package user

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrUserNotFound      = errors.New("user does not exist")
	ErrUserAlreadyExists = errors.New("user with email or username already exists")

	ErrInvalidCredentials  = errors.New("invalid user credentials")
	ErrUnauthorizedRequest = errors.New("unauthorized request")
	ErrInvalidAccessToken  = errors.New("invalid access token")

	ErrInvalidRefreshToken = errors.New("invalid refresh token")
	ErrRefreshTokenReused  = errors.New("refresh token is expired or used")

	ErrInvalidOldPassword = errors.New("invalid old password")
)

// User is the principal of the system. PasswordHash and RefreshToken are never
// serialized; repository projections that feed handlers leave them zero-valued
type User struct {
	ID            uuid.UUID `json:"id"`
	Username      string    `json:"username"`
	Email         string    `json:"email"`
	FullName      string    `json:"full_name"`
	AvatarURL     string    `json:"avatar_url"`
	CoverImageURL string    `json:"cover_image_url"`
	PasswordHash  string    `json:"-"`
	RefreshToken  *string   `json:"-"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// sanitized returns a copy with the secret-bearing fields zeroed, safe to
// hand to any externally-facing layer
func (u *User) sanitized() *User {
	cp := *u
	cp.PasswordHash = ""
	cp.RefreshToken = nil
	return &cp
}

// TokenPair is the pair of credentials handed to a client on login and refresh
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// Repository is the persistence collaborator for users.
//
// FindPublicByID deliberately excludes PasswordHash and RefreshToken from the
// projection; FindByCredentialKey and FindByIDWithSecrets load the full row and
// must only be used by the credential and refresh flows. UpdateRefreshToken
// writes that single column and skips every other validation, so token rotation
// can never be blocked by unrelated fields
type Repository interface {
	Create(ctx context.Context, u *User) error
	FindPublicByID(ctx context.Context, id uuid.UUID) (*User, error)
	FindByCredentialKey(ctx context.Context, usernameOrEmail string) (*User, error)
	FindByIDWithSecrets(ctx context.Context, id uuid.UUID) (*User, error)
	UpdateRefreshToken(ctx context.Context, id uuid.UUID, token *string) error
	UpdatePasswordHash(ctx context.Context, id uuid.UUID, hash string) error
	UpdateAccountDetails(ctx context.Context, id uuid.UUID, fullName, email string) (*User, error)
	UpdateAvatarURL(ctx context.Context, id uuid.UUID, url string) (*User, error)
	UpdateCoverImageURL(ctx context.Context, id uuid.UUID, url string) (*User, error)
}
