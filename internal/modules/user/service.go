package user

import (
	"context"
	"crypto/subtle"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/gmarinz/viewtube/internal/modules/auth"
	"github.com/gmarinz/viewtube/internal/platform/blobstore"
	"github.com/gmarinz/viewtube/pkg/clock"
	"github.com/gmarinz/viewtube/pkg/logger/ctxlogger"
	"github.com/google/uuid"
)

// RegisterParams holds all the required data for the Register use case
type RegisterParams struct {
	FullName   string
	Email      string
	Username   string
	Password   string
	Avatar     *blobstore.Upload
	CoverImage *blobstore.Upload
}

// Service encapsulates the application's business logic (use cases) for the user module
type Service struct {
	repo      Repository
	tokens    *auth.TokenCodec
	passwords *auth.PasswordManager
	blobs     blobstore.Store
	clock     clock.Clock
}

// NewService creates a new instance of the user Service
func NewService(
	repo Repository,
	tokens *auth.TokenCodec,
	passwords *auth.PasswordManager,
	blobs blobstore.Store,
	clk clock.Clock,
) *Service {
	return &Service{
		repo:      repo,
		tokens:    tokens,
		passwords: passwords,
		blobs:     blobs,
		clock:     clk,
	}
}

// Register is the use case for creating a new user. The avatar is required,
// the cover image optional; both are uploaded to blob storage before the row
// is written so a stored user always has resolvable image URLs
func (s *Service) Register(ctx context.Context, params RegisterParams) (*User, error) {
	avatarURL, err := s.blobs.Upload(ctx, "avatars", *params.Avatar)
	if err != nil {
		return nil, fmt.Errorf("failed to upload avatar: %w", err)
	}

	coverImageURL := ""
	if params.CoverImage != nil {
		coverImageURL, err = s.blobs.Upload(ctx, "covers", *params.CoverImage)
		if err != nil {
			return nil, fmt.Errorf("failed to upload cover image: %w", err)
		}
	}

	passwordHash, err := s.passwords.Hash(params.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := s.clock.Now().UTC()
	u := &User{
		ID:            uuid.New(),
		Username:      strings.ToLower(params.Username),
		Email:         params.Email,
		FullName:      params.FullName,
		AvatarURL:     avatarURL,
		CoverImageURL: coverImageURL,
		PasswordHash:  passwordHash,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.repo.Create(ctx, u); err != nil {
		return nil, err
	}

	return u.sanitized(), nil
}

// Login verifies the credential key (username or email) and password, then
// issues a fresh token pair. A missing user and a wrong password are distinct
// outcomes: the first is a not-found, the second an authentication failure
func (s *Service) Login(ctx context.Context, usernameOrEmail, password string) (*User, *TokenPair, error) {
	u, err := s.repo.FindByCredentialKey(ctx, usernameOrEmail)
	if err != nil {
		return nil, nil, err
	}

	match, err := s.passwords.Verify(password, u.PasswordHash)
	if err != nil || !match {
		return nil, nil, ErrInvalidCredentials
	}

	pair, err := s.issueTokenPair(ctx, u)
	if err != nil {
		return nil, nil, err
	}

	return u.sanitized(), pair, nil
}

// Refresh exchanges a valid, current refresh token for a new pair. The checks
// run in a fixed order, each a distinct failure mode:
//
//  1. missing token             -> ErrUnauthorizedRequest
//  2. decode/expiry failure     -> ErrInvalidRefreshToken
//  3. principal no longer exists -> ErrInvalidRefreshToken
//  4. stored-value byte mismatch -> ErrRefreshTokenReused
//
// Step 4 is the anti-replay check: issuing a new pair overwrites the stored
// value, so a consumed token can never byte-match again
func (s *Service) Refresh(ctx context.Context, incomingRefreshToken string) (*TokenPair, error) {
	log := ctxlogger.GetLogger(ctx)

	if incomingRefreshToken == "" {
		return nil, ErrUnauthorizedRequest
	}

	userID, err := s.tokens.VerifyRefresh(incomingRefreshToken)
	if err != nil {
		// decode details go to the log only, never into the response
		log.Warn("refresh token failed verification", slog.String("reason", err.Error()))
		return nil, ErrInvalidRefreshToken
	}

	u, err := s.repo.FindByIDWithSecrets(ctx, userID)
	if err != nil {
		return nil, ErrInvalidRefreshToken
	}

	if u.RefreshToken == nil ||
		subtle.ConstantTimeCompare([]byte(*u.RefreshToken), []byte(incomingRefreshToken)) != 1 {
		return nil, ErrRefreshTokenReused
	}

	return s.issueTokenPair(ctx, u)
}

// Logout clears the stored refresh token. The access token used to reach this
// call stays valid until it expires; only the refresh path is cut
func (s *Service) Logout(ctx context.Context, userID uuid.UUID) error {
	if err := s.repo.UpdateRefreshToken(ctx, userID, nil); err != nil {
		return fmt.Errorf("failed to clear refresh token: %w", err)
	}
	return nil
}

// ChangePassword verifies the old password before storing a new hash
func (s *Service) ChangePassword(ctx context.Context, userID uuid.UUID, oldPassword, newPassword string) error {
	u, err := s.repo.FindByIDWithSecrets(ctx, userID)
	if err != nil {
		return err
	}

	match, err := s.passwords.Verify(oldPassword, u.PasswordHash)
	if err != nil || !match {
		return ErrInvalidOldPassword
	}

	hash, err := s.passwords.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash new password: %w", err)
	}

	return s.repo.UpdatePasswordHash(ctx, userID, hash)
}

// UpdateAccount is the use case for updating the mutable profile fields
func (s *Service) UpdateAccount(ctx context.Context, userID uuid.UUID, fullName, email string) (*User, error) {
	return s.repo.UpdateAccountDetails(ctx, userID, fullName, email)
}

// UpdateAvatar uploads a replacement avatar and stores its URL
func (s *Service) UpdateAvatar(ctx context.Context, userID uuid.UUID, up blobstore.Upload) (*User, error) {
	url, err := s.blobs.Upload(ctx, "avatars", up)
	if err != nil {
		return nil, fmt.Errorf("failed to upload avatar: %w", err)
	}
	return s.repo.UpdateAvatarURL(ctx, userID, url)
}

// UpdateCoverImage uploads a replacement cover image and stores its URL
func (s *Service) UpdateCoverImage(ctx context.Context, userID uuid.UUID, up blobstore.Upload) (*User, error) {
	url, err := s.blobs.Upload(ctx, "covers", up)
	if err != nil {
		return nil, fmt.Errorf("failed to upload cover image: %w", err)
	}
	return s.repo.UpdateCoverImageURL(ctx, userID, url)
}

// issueTokenPair produces an access/refresh pair and persists the refresh
// token onto the user record. The pair is only valid to return once the
// persistence write has completed; any failure here is fatal to the call
func (s *Service) issueTokenPair(ctx context.Context, u *User) (*TokenPair, error) {
	accessToken, err := s.tokens.IssueAccess(auth.Identity{
		ID:       u.ID,
		Email:    u.Email,
		Username: u.Username,
		FullName: u.FullName,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to issue access token: %w", err)
	}

	refreshToken, err := s.tokens.IssueRefresh(u.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to issue refresh token: %w", err)
	}

	if err := s.repo.UpdateRefreshToken(ctx, u.ID, &refreshToken); err != nil {
		return nil, fmt.Errorf("failed to persist refresh token: %w", err)
	}

	return &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}

// AccessTokenTTL and RefreshTokenTTL expose the codec TTLs so the HTTP layer
// can align cookie lifetimes with token lifetimes
func (s *Service) AccessTokenTTL() time.Duration  { return s.tokens.AccessTTL() }
func (s *Service) RefreshTokenTTL() time.Duration { return s.tokens.RefreshTTL() }
