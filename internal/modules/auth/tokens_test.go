package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCodec(accessTTL, refreshTTL time.Duration) *TokenCodec {
	return NewTokenCodec("access-secret", "refresh-secret", accessTTL, refreshTTL)
}

func TestTokenCodec_AccessRoundTrip(t *testing.T) {
	t.Parallel()

	codec := newTestCodec(time.Minute, time.Hour)
	id := Identity{
		ID:       uuid.New(),
		Email:    "alice@example.com",
		Username: "alice",
		FullName: "Alice Doe",
	}

	token, err := codec.IssueAccess(id)
	require.NoError(t, err)

	claims, err := codec.VerifyAccess(token)
	require.NoError(t, err)

	gotID, err := claims.UserID()
	require.NoError(t, err)
	assert.Equal(t, id.ID, gotID)
	assert.Equal(t, id.Email, claims.Email)
	assert.Equal(t, id.Username, claims.Username)
	assert.Equal(t, id.FullName, claims.FullName)
}

func TestTokenCodec_RefreshRoundTrip(t *testing.T) {
	t.Parallel()

	codec := newTestCodec(time.Minute, time.Hour)
	userID := uuid.New()

	token, err := codec.IssueRefresh(userID)
	require.NoError(t, err)

	gotID, err := codec.VerifyRefresh(token)
	require.NoError(t, err)
	assert.Equal(t, userID, gotID)
}

func TestTokenCodec_CrossPurposeRejection(t *testing.T) {
	t.Parallel()

	codec := newTestCodec(time.Minute, time.Hour)
	userID := uuid.New()

	refresh, err := codec.IssueRefresh(userID)
	require.NoError(t, err)

	// a refresh token is well-formed but must not verify as an access token
	_, err = codec.VerifyAccess(refresh)
	require.ErrorIs(t, err, ErrInvalidSignature)

	access, err := codec.IssueAccess(Identity{ID: userID})
	require.NoError(t, err)

	_, err = codec.VerifyRefresh(access)
	require.ErrorIs(t, err, ErrInvalidSignature)
}

func TestTokenCodec_ExpiredAccessToken(t *testing.T) {
	t.Parallel()

	codec := newTestCodec(-time.Second, time.Hour)

	token, err := codec.IssueAccess(Identity{ID: uuid.New()})
	require.NoError(t, err)

	_, err = codec.VerifyAccess(token)
	require.ErrorIs(t, err, ErrTokenExpired)
}

func TestTokenCodec_ExpiredRefreshToken(t *testing.T) {
	t.Parallel()

	codec := newTestCodec(time.Minute, -time.Second)

	token, err := codec.IssueRefresh(uuid.New())
	require.NoError(t, err)

	_, err = codec.VerifyRefresh(token)
	require.ErrorIs(t, err, ErrTokenExpired)
}

func TestTokenCodec_MalformedToken(t *testing.T) {
	t.Parallel()

	codec := newTestCodec(time.Minute, time.Hour)

	_, err := codec.VerifyAccess("not.a.jwt")
	require.ErrorIs(t, err, ErrTokenMalformed)

	_, err = codec.VerifyRefresh("")
	require.ErrorIs(t, err, ErrTokenMalformed)
}

func TestTokenCodec_WrongSecret(t *testing.T) {
	t.Parallel()

	codec := newTestCodec(time.Minute, time.Hour)
	other := NewTokenCodec("other-access", "other-refresh", time.Minute, time.Hour)

	token, err := codec.IssueAccess(Identity{ID: uuid.New()})
	require.NoError(t, err)

	_, err = other.VerifyAccess(token)
	require.ErrorIs(t, err, ErrInvalidSignature)
}
