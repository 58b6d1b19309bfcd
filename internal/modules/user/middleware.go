package user

import (
	"log/slog"
	"strings"

	"github.com/gmarinz/viewtube/internal/modules/auth"
	"github.com/gmarinz/viewtube/pkg/logger/ctxlogger"
	"github.com/labstack/echo/v4"
)

const (
	// AccessTokenCookie and RefreshTokenCookie are the cookie names shared by
	// the handlers and the middleware
	AccessTokenCookie  = "accessToken"
	RefreshTokenCookie = "refreshToken"

	bearerPrefix = "Bearer "

	principalKey = "_auth_user"
)

// ExtractToken is the prioritized token lookup: the cookie value wins, the
// Authorization header (with its Bearer prefix stripped) is the fallback.
// It is a pure function so the precedence rule is testable without echo
func ExtractToken(cookieValue, authorizationHeader string) string {
	if cookieValue != "" {
		return cookieValue
	}
	if strings.HasPrefix(authorizationHeader, bearerPrefix) {
		return strings.TrimSpace(strings.TrimPrefix(authorizationHeader, bearerPrefix))
	}
	return ""
}

func tokenFromRequest(c echo.Context) string {
	cookieValue := ""
	if cookie, err := c.Cookie(AccessTokenCookie); err == nil {
		cookieValue = cookie.Value
	}
	return ExtractToken(cookieValue, c.Request().Header.Get(echo.HeaderAuthorization))
}

// RequireAuth gates every protected operation. It extracts the access token,
// verifies it, loads the public projection of the principal and attaches it to
// the request. All failure causes collapse into the same unauthorized outcome;
// the distinction between them lives in the logs only. No writes happen here
func RequireAuth(tokens *auth.TokenCodec, repo Repository) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := tokenFromRequest(c)
			if token == "" {
				return ErrUnauthorizedRequest
			}

			claims, err := tokens.VerifyAccess(token)
			if err != nil {
				ctxlogger.GetLogger(c.Request().Context()).
					Warn("access token failed verification", slog.String("reason", err.Error()))
				return ErrInvalidAccessToken
			}

			userID, err := claims.UserID()
			if err != nil {
				return ErrInvalidAccessToken
			}

			// covers principals deleted after the token was issued
			u, err := repo.FindPublicByID(c.Request().Context(), userID)
			if err != nil {
				return ErrInvalidAccessToken
			}

			c.Set(principalKey, u)
			return next(c)
		}
	}
}

// OptionalAuth attaches the principal when a valid access token is present and
// silently continues otherwise. Used by endpoints whose response merely varies
// with the viewer (e.g. channel profiles)
func OptionalAuth(tokens *auth.TokenCodec, repo Repository) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := tokenFromRequest(c)
			if token == "" {
				return next(c)
			}

			claims, err := tokens.VerifyAccess(token)
			if err != nil {
				return next(c)
			}

			userID, err := claims.UserID()
			if err != nil {
				return next(c)
			}

			if u, err := repo.FindPublicByID(c.Request().Context(), userID); err == nil {
				c.Set(principalKey, u)
			}
			return next(c)
		}
	}
}

// CurrentUser returns the principal attached by RequireAuth, or nil when the
// request is unauthenticated
func CurrentUser(c echo.Context) *User {
	if u, ok := c.Get(principalKey).(*User); ok {
		return u
	}
	return nil
}
