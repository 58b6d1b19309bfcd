package user

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gmarinz/viewtube/internal/modules/auth"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractToken(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name                string
		cookieValue         string
		authorizationHeader string
		want                string
	}{
		{
			name:        "cookie only",
			cookieValue: "cookie-token",
			want:        "cookie-token",
		},
		{
			name:                "header only",
			authorizationHeader: "Bearer header-token",
			want:                "header-token",
		},
		{
			name:                "cookie wins over header",
			cookieValue:         "cookie-token",
			authorizationHeader: "Bearer header-token",
			want:                "cookie-token",
		},
		{
			name:                "header without bearer prefix is ignored",
			authorizationHeader: "Basic dXNlcjpwYXNz",
			want:                "",
		},
		{
			name: "nothing present",
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, ExtractToken(tt.cookieValue, tt.authorizationHeader))
		})
	}
}

func newAuthTestContext(t *testing.T) (echo.Context, *httptest.ResponseRecorder, *http.Request) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/users/current-user", nil)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec, req
}

func okHandler(c echo.Context) error { return c.NoContent(http.StatusOK) }

func TestRequireAuth_MissingToken(t *testing.T) {
	t.Parallel()

	repo := newFakeRepo()
	codec := auth.NewTokenCodec("access-secret", "refresh-secret", 15*time.Minute, 240*time.Hour)
	mw := RequireAuth(codec, repo)

	c, _, _ := newAuthTestContext(t)
	err := mw(okHandler)(c)
	require.ErrorIs(t, err, ErrUnauthorizedRequest)
	assert.Zero(t, repo.findPublicCalls, "no lookup should happen without a token")
}

func TestRequireAuth_CookieToken(t *testing.T) {
	t.Parallel()

	repo := newFakeRepo()
	seeded := seedUser(t, repo, "alice", "alice@example.com", "correct horse")
	codec := auth.NewTokenCodec("access-secret", "refresh-secret", 15*time.Minute, 240*time.Hour)

	token, err := codec.IssueAccess(auth.Identity{
		ID:       seeded.ID,
		Email:    seeded.Email,
		Username: seeded.Username,
		FullName: seeded.FullName,
	})
	require.NoError(t, err)

	c, _, req := newAuthTestContext(t)
	req.AddCookie(&http.Cookie{Name: AccessTokenCookie, Value: token})

	err = RequireAuth(codec, repo)(func(c echo.Context) error {
		u := CurrentUser(c)
		require.NotNil(t, u)
		assert.Equal(t, seeded.ID, u.ID)
		assert.Empty(t, u.PasswordHash)
		return c.NoContent(http.StatusOK)
	})(c)
	require.NoError(t, err)
}

func TestRequireAuth_BearerToken(t *testing.T) {
	t.Parallel()

	repo := newFakeRepo()
	seeded := seedUser(t, repo, "alice", "alice@example.com", "correct horse")
	codec := auth.NewTokenCodec("access-secret", "refresh-secret", 15*time.Minute, 240*time.Hour)

	token, err := codec.IssueAccess(auth.Identity{ID: seeded.ID, Username: seeded.Username})
	require.NoError(t, err)

	c, _, req := newAuthTestContext(t)
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)

	err = RequireAuth(codec, repo)(okHandler)(c)
	require.NoError(t, err)
}

func TestRequireAuth_RefreshTokenRejected(t *testing.T) {
	t.Parallel()

	repo := newFakeRepo()
	seeded := seedUser(t, repo, "alice", "alice@example.com", "correct horse")
	codec := auth.NewTokenCodec("access-secret", "refresh-secret", 15*time.Minute, 240*time.Hour)

	// a refresh token is signed with the other secret; verification must fail
	// before any principal lookup happens
	token, err := codec.IssueRefresh(seeded.ID)
	require.NoError(t, err)

	c, _, req := newAuthTestContext(t)
	req.AddCookie(&http.Cookie{Name: AccessTokenCookie, Value: token})

	err = RequireAuth(codec, repo)(okHandler)(c)
	require.ErrorIs(t, err, ErrInvalidAccessToken)
	assert.Zero(t, repo.findPublicCalls)
}

func TestRequireAuth_ExpiredToken(t *testing.T) {
	t.Parallel()

	repo := newFakeRepo()
	seeded := seedUser(t, repo, "alice", "alice@example.com", "correct horse")
	expired := auth.NewTokenCodec("access-secret", "refresh-secret", -time.Minute, 240*time.Hour)
	codec := auth.NewTokenCodec("access-secret", "refresh-secret", 15*time.Minute, 240*time.Hour)

	token, err := expired.IssueAccess(auth.Identity{ID: seeded.ID})
	require.NoError(t, err)

	c, _, req := newAuthTestContext(t)
	req.AddCookie(&http.Cookie{Name: AccessTokenCookie, Value: token})

	err = RequireAuth(codec, repo)(okHandler)(c)
	require.ErrorIs(t, err, ErrInvalidAccessToken)
}

func TestRequireAuth_DeletedUser(t *testing.T) {
	t.Parallel()

	repo := newFakeRepo()
	codec := auth.NewTokenCodec("access-secret", "refresh-secret", 15*time.Minute, 240*time.Hour)

	token, err := codec.IssueAccess(auth.Identity{ID: uuid.New(), Username: "ghost"})
	require.NoError(t, err)

	c, _, req := newAuthTestContext(t)
	req.AddCookie(&http.Cookie{Name: AccessTokenCookie, Value: token})

	err = RequireAuth(codec, repo)(okHandler)(c)
	require.ErrorIs(t, err, ErrInvalidAccessToken)
}

func TestOptionalAuth_Anonymous(t *testing.T) {
	t.Parallel()

	repo := newFakeRepo()
	codec := auth.NewTokenCodec("access-secret", "refresh-secret", 15*time.Minute, 240*time.Hour)

	c, _, _ := newAuthTestContext(t)
	err := OptionalAuth(codec, repo)(func(c echo.Context) error {
		assert.Nil(t, CurrentUser(c))
		return c.NoContent(http.StatusOK)
	})(c)
	require.NoError(t, err)
}

func TestOptionalAuth_InvalidTokenContinues(t *testing.T) {
	t.Parallel()

	repo := newFakeRepo()
	codec := auth.NewTokenCodec("access-secret", "refresh-secret", 15*time.Minute, 240*time.Hour)

	c, _, req := newAuthTestContext(t)
	req.AddCookie(&http.Cookie{Name: AccessTokenCookie, Value: "garbage"})

	err := OptionalAuth(codec, repo)(func(c echo.Context) error {
		assert.Nil(t, CurrentUser(c))
		return c.NoContent(http.StatusOK)
	})(c)
	require.NoError(t, err)
}

func TestOptionalAuth_ValidToken(t *testing.T) {
	t.Parallel()

	repo := newFakeRepo()
	seeded := seedUser(t, repo, "alice", "alice@example.com", "correct horse")
	codec := auth.NewTokenCodec("access-secret", "refresh-secret", 15*time.Minute, 240*time.Hour)

	token, err := codec.IssueAccess(auth.Identity{ID: seeded.ID, Username: seeded.Username})
	require.NoError(t, err)

	c, _, req := newAuthTestContext(t)
	req.AddCookie(&http.Cookie{Name: AccessTokenCookie, Value: token})

	err = OptionalAuth(codec, repo)(func(c echo.Context) error {
		u := CurrentUser(c)
		require.NotNil(t, u)
		assert.Equal(t, seeded.ID, u.ID)
		return c.NoContent(http.StatusOK)
	})(c)
	require.NoError(t, err)
}
