package channel

import (
	"net/http"

	"github.com/gmarinz/viewtube/internal/modules/user"
	"github.com/gmarinz/viewtube/pkg/httpx"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// Handler holds dependencies for channel-related HTTP handlers
type Handler struct {
	svc *Service
}

// NewHandler creates a new instance of Handler
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes sets up the API routes for the channel module. Profile pages
// only need optional authentication; everything else is protected
func (h *Handler) RegisterRoutes(apiRouteGroup *echo.Group, requireAuth, optionalAuth echo.MiddlewareFunc) {
	channelsGroup := apiRouteGroup.Group("/channels")
	channelsGroup.GET("/:username", h.getProfileHandler, optionalAuth)
	channelsGroup.POST("/:username/subscribe", h.subscribeHandler, requireAuth)
	channelsGroup.DELETE("/:username/subscribe", h.unsubscribeHandler, requireAuth)

	historyGroup := apiRouteGroup.Group("/users/history", requireAuth)
	historyGroup.GET("", h.watchHistoryHandler)
	historyGroup.POST("/:videoID", h.recordViewHandler)
}

func (h *Handler) getProfileHandler(c echo.Context) error {
	username := c.Param("username")
	if username == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "username is missing")
	}

	var viewerID *uuid.UUID
	if viewer := user.CurrentUser(c); viewer != nil {
		viewerID = &viewer.ID
	}

	profile, err := h.svc.GetProfile(c.Request().Context(), username, viewerID)
	if err != nil {
		return err
	}

	return httpx.SendSuccess(c, http.StatusOK, profile)
}

func (h *Handler) subscribeHandler(c echo.Context) error {
	principal := user.CurrentUser(c)

	if err := h.svc.Subscribe(c.Request().Context(), principal.ID, c.Param("username")); err != nil {
		return err
	}

	return httpx.SendSuccess(c, http.StatusCreated, map[string]string{
		"message": "subscribed successfully",
	})
}

func (h *Handler) unsubscribeHandler(c echo.Context) error {
	principal := user.CurrentUser(c)

	if err := h.svc.Unsubscribe(c.Request().Context(), principal.ID, c.Param("username")); err != nil {
		return err
	}

	return httpx.SendSuccess(c, http.StatusOK, map[string]string{
		"message": "unsubscribed successfully",
	})
}

func (h *Handler) watchHistoryHandler(c echo.Context) error {
	principal := user.CurrentUser(c)

	entries, err := h.svc.WatchHistory(c.Request().Context(), principal.ID)
	if err != nil {
		return err
	}

	return httpx.SendSuccess(c, http.StatusOK, entries)
}

func (h *Handler) recordViewHandler(c echo.Context) error {
	videoID, err := uuid.Parse(c.Param("videoID"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid video id format")
	}

	principal := user.CurrentUser(c)
	if err := h.svc.RecordView(c.Request().Context(), principal.ID, videoID); err != nil {
		return err
	}

	return httpx.SendSuccess(c, http.StatusNoContent, nil)
}
