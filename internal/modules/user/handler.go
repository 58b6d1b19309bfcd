package user

import (
	"mime/multipart"
	"net/http"
	"time"

	"github.com/gmarinz/viewtube/internal/platform/blobstore"
	"github.com/gmarinz/viewtube/pkg/httpx"
	"github.com/labstack/echo/v4"
)

// CookieOptions configures the token cookies set on login and refresh.
// Both cookies are HTTP-only; Secure should only be disabled in local development
type CookieOptions struct {
	Secure bool
}

// Handler holds dependencies for user-related HTTP handlers
type Handler struct {
	svc     *Service
	cookies CookieOptions
}

// NewHandler creates a new instance of Handler
func NewHandler(svc *Service, cookies CookieOptions) *Handler {
	return &Handler{svc: svc, cookies: cookies}
}

// RegisterRoutes sets up the API routes for the user module. requireAuth gates
// every protected operation
func (h *Handler) RegisterRoutes(apiRouteGroup *echo.Group, requireAuth echo.MiddlewareFunc) {
	usersGroup := apiRouteGroup.Group("/users")

	usersGroup.POST("/register", h.registerHandler)
	usersGroup.POST("/login", h.loginHandler)
	usersGroup.POST("/refresh-token", h.refreshTokenHandler)

	usersGroup.POST("/logout", h.logoutHandler, requireAuth)
	usersGroup.POST("/change-password", h.changePasswordHandler, requireAuth)
	usersGroup.GET("/current-user", h.currentUserHandler, requireAuth)
	usersGroup.PATCH("/update-account", h.updateAccountHandler, requireAuth)
	usersGroup.PATCH("/avatar", h.updateAvatarHandler, requireAuth)
	usersGroup.PATCH("/cover-image", h.updateCoverImageHandler, requireAuth)
}

// RegisterRequest defines the expected multipart form fields for registration.
// The avatar file is required and handled separately from the bound fields
type RegisterRequest struct {
	FullName string `form:"full_name" validate:"required,min=1,max=100"`
	Email    string `form:"email" validate:"required,email"`
	Username string `form:"username" validate:"required,min=3,max=30,alphanum"`
	Password string `form:"password" validate:"required,min=8,max=72"`
}

// LoginRequest accepts either a username or an email as the credential key
type LoginRequest struct {
	Username string `json:"username" validate:"required_without=Email"`
	Email    string `json:"email" validate:"required_without=Username"`
	Password string `json:"password" validate:"required"`
}

// RefreshTokenRequest is the body-delivered fallback for the refresh token;
// the cookie takes precedence when both are present
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// ChangePasswordRequest defines the expected JSON body for a password change
type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=8,max=72"`
}

// UpdateAccountRequest defines the expected JSON body for profile updates
type UpdateAccountRequest struct {
	FullName string `json:"full_name" validate:"required,min=1,max=100"`
	Email    string `json:"email" validate:"required,email"`
}

// loginResponse carries the sanitized user next to both tokens, mirroring the
// cookie-delivered artifacts for clients that prefer header auth
type loginResponse struct {
	User         *User  `json:"user"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

func (h *Handler) registerHandler(c echo.Context) error {
	var req RegisterRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body format")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	avatar, err := formUpload(c, "avatar")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "avatar file is required")
	}
	defer avatar.close()

	params := RegisterParams{
		FullName: req.FullName,
		Email:    req.Email,
		Username: req.Username,
		Password: req.Password,
		Avatar:   &avatar.upload,
	}

	// cover image is optional
	if cover, err := formUpload(c, "cover_image"); err == nil {
		defer cover.close()
		params.CoverImage = &cover.upload
	}

	created, err := h.svc.Register(c.Request().Context(), params)
	if err != nil {
		return err
	}

	return httpx.SendSuccess(c, http.StatusCreated, created)
}

func (h *Handler) loginHandler(c echo.Context) error {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body format")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	credentialKey := req.Username
	if credentialKey == "" {
		credentialKey = req.Email
	}

	u, pair, err := h.svc.Login(c.Request().Context(), credentialKey, req.Password)
	if err != nil {
		return err
	}

	h.setTokenCookies(c, pair)

	return httpx.SendSuccess(c, http.StatusOK, loginResponse{
		User:         u,
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	})
}

func (h *Handler) refreshTokenHandler(c echo.Context) error {
	incoming := ""
	if cookie, err := c.Cookie(RefreshTokenCookie); err == nil {
		incoming = cookie.Value
	}
	if incoming == "" {
		var req RefreshTokenRequest
		// body is optional here; a bind failure is the same as an absent token
		if err := c.Bind(&req); err == nil {
			incoming = req.RefreshToken
		}
	}

	pair, err := h.svc.Refresh(c.Request().Context(), incoming)
	if err != nil {
		return err
	}

	h.setTokenCookies(c, pair)

	return httpx.SendSuccess(c, http.StatusOK, pair)
}

func (h *Handler) logoutHandler(c echo.Context) error {
	principal := CurrentUser(c)

	if err := h.svc.Logout(c.Request().Context(), principal.ID); err != nil {
		return err
	}

	h.clearTokenCookies(c)

	return httpx.SendSuccess(c, http.StatusOK, map[string]string{
		"message": "user logged out successfully",
	})
}

func (h *Handler) changePasswordHandler(c echo.Context) error {
	var req ChangePasswordRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body format")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	principal := CurrentUser(c)
	if err := h.svc.ChangePassword(c.Request().Context(), principal.ID, req.OldPassword, req.NewPassword); err != nil {
		return err
	}

	return httpx.SendSuccess(c, http.StatusOK, map[string]string{
		"message": "password changed successfully",
	})
}

func (h *Handler) currentUserHandler(c echo.Context) error {
	return httpx.SendSuccess(c, http.StatusOK, CurrentUser(c))
}

func (h *Handler) updateAccountHandler(c echo.Context) error {
	var req UpdateAccountRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body format")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	principal := CurrentUser(c)
	updated, err := h.svc.UpdateAccount(c.Request().Context(), principal.ID, req.FullName, req.Email)
	if err != nil {
		return err
	}

	return httpx.SendSuccess(c, http.StatusOK, updated)
}

func (h *Handler) updateAvatarHandler(c echo.Context) error {
	up, err := formUpload(c, "avatar")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "avatar file is missing")
	}
	defer up.close()

	principal := CurrentUser(c)
	updated, err := h.svc.UpdateAvatar(c.Request().Context(), principal.ID, up.upload)
	if err != nil {
		return err
	}

	return httpx.SendSuccess(c, http.StatusOK, updated)
}

func (h *Handler) updateCoverImageHandler(c echo.Context) error {
	up, err := formUpload(c, "cover_image")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "cover image file is missing")
	}
	defer up.close()

	principal := CurrentUser(c)
	updated, err := h.svc.UpdateCoverImage(c.Request().Context(), principal.ID, up.upload)
	if err != nil {
		return err
	}

	return httpx.SendSuccess(c, http.StatusOK, updated)
}

// ----- cookie + upload helpers ----- //

func (h *Handler) setTokenCookies(c echo.Context, pair *TokenPair) {
	c.SetCookie(h.tokenCookie(AccessTokenCookie, pair.AccessToken, h.svc.AccessTokenTTL()))
	c.SetCookie(h.tokenCookie(RefreshTokenCookie, pair.RefreshToken, h.svc.RefreshTokenTTL()))
}

func (h *Handler) clearTokenCookies(c echo.Context) {
	for _, name := range []string{AccessTokenCookie, RefreshTokenCookie} {
		cookie := h.tokenCookie(name, "", 0)
		cookie.MaxAge = -1
		c.SetCookie(cookie)
	}
}

func (h *Handler) tokenCookie(name, value string, ttl time.Duration) *http.Cookie {
	cookie := &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.cookies.Secure,
		SameSite: http.SameSiteStrictMode,
	}
	if ttl > 0 {
		cookie.Expires = time.Now().Add(ttl)
	}
	return cookie
}

type openedUpload struct {
	upload blobstore.Upload
	file   multipart.File
}

func (o *openedUpload) close() { _ = o.file.Close() }

// formUpload opens the named multipart file and wraps it for the blob store
func formUpload(c echo.Context, field string) (*openedUpload, error) {
	fh, err := c.FormFile(field)
	if err != nil {
		return nil, err
	}

	file, err := fh.Open()
	if err != nil {
		return nil, err
	}

	return &openedUpload{
		file: file,
		upload: blobstore.Upload{
			Body:        file,
			Filename:    fh.Filename,
			ContentType: fh.Header.Get(echo.HeaderContentType),
			Size:        fh.Size,
		},
	}, nil
}
