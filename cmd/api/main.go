package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gmarinz/viewtube/internal/modules/auth"
	"github.com/gmarinz/viewtube/internal/modules/channel"
	"github.com/gmarinz/viewtube/internal/modules/user"
	"github.com/gmarinz/viewtube/internal/platform/blobstore"
	"github.com/gmarinz/viewtube/internal/platform/config"
	"github.com/gmarinz/viewtube/internal/platform/postgres"
	"github.com/gmarinz/viewtube/pkg/clock"
	"github.com/gmarinz/viewtube/pkg/httpx"
	"github.com/gmarinz/viewtube/pkg/logger"
	"github.com/gmarinz/viewtube/pkg/logger/ctxlogger"
	"github.com/gmarinz/viewtube/pkg/validatorx"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config to api: %s\n", err)
		os.Exit(1)
	}

	if err := run(ctx, cfg); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	baseLogger := logger.NewSlog(logger.SlogConfig{
		Level:     logger.Level(cfg.Log.Level),
		Format:    logger.Format(cfg.Log.Format),
		AddSource: cfg.Log.AddSource,
	})
	slog.SetDefault(baseLogger)

	e := echo.New()
	e.HideBanner = true
	e.Server.ReadTimeout = cfg.Server.ReadTimeout
	e.Server.WriteTimeout = cfg.Server.WriteTimeout
	e.Server.IdleTimeout = cfg.Server.IdleTimeout
	e.Validator = validatorx.NewValidator()
	e.HTTPErrorHandler = customErrorHandler

	e.Use(middleware.Recover())
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: func() string {
			return uuid.NewString()
		},
	}))
	e.Use(middleware.BodyLimit(cfg.Server.BodyLimit))
	e.Use(ContextualLoggerMiddleware(baseLogger))
	e.Use(RequestLoggerMiddleware())

	if err := postgres.RunMigrations(ctx, cfg.DSN()); err != nil {
		return err
	}

	pgConn, err := postgres.NewPostgresConnection(ctx, cfg)
	if err != nil {
		return err
	}
	defer pgConn.Close()

	blobs, err := blobstore.NewS3Store(ctx, cfg)
	if err != nil {
		return err
	}

	clk := clock.SystemClock{}

	// ----- Auth leaves ----- //

	tokenCodec := auth.NewTokenCodec(
		cfg.Auth.AccessTokenSecret,
		cfg.Auth.RefreshTokenSecret,
		cfg.Auth.AccessTokenTTL,
		cfg.Auth.RefreshTokenTTL,
	)
	passwordManager := auth.NewPasswordManager(cfg.Auth.PasswordPepper)

	// ----- User module dependencies ----- //

	userRepo := user.NewPostgresUserRepository(pgConn.Pool)
	userSvc := user.NewService(userRepo, tokenCodec, passwordManager, blobs, clk)
	userHandler := user.NewHandler(userSvc, user.CookieOptions{Secure: cfg.Auth.SecureCookies})

	requireAuth := user.RequireAuth(tokenCodec, userRepo)
	optionalAuth := user.OptionalAuth(tokenCodec, userRepo)

	// ----- Channel module dependencies ----- //

	channelRepo := channel.NewPostgresChannelRepository(pgConn.Pool)
	channelSvc := channel.NewService(channelRepo)
	channelHandler := channel.NewHandler(channelSvc)

	apiRouteGroup := e.Group("/api/v1")
	userHandler.RegisterRoutes(apiRouteGroup, requireAuth)
	channelHandler.RegisterRoutes(apiRouteGroup, requireAuth, optionalAuth)

	errCh := make(chan error, 1)
	go func() {
		errCh <- e.Start(":" + cfg.Server.Port)
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-ctx.Done():
		baseLogger.Info("shutting down server")
		if err := e.Shutdown(context.Background()); err != nil {
			return fmt.Errorf("failed to shut down server: %w", err)
		}
	}

	return nil
}

// ContextualLoggerMiddleware creates a request-scoped logger containing the request ID
// and injects it into the standard `context.Context` for use in downstream handlers and services
func ContextualLoggerMiddleware(baseLogger *slog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			requestID := c.Response().Header().Get(echo.HeaderXRequestID)
			requestLogger := baseLogger.With(slog.String("request_id", requestID))

			ctx := c.Request().Context()
			ctxWithLogger := ctxlogger.SetLogger(ctx, requestLogger)
			c.SetRequest(c.Request().WithContext(ctxWithLogger))

			return next(c)
		}
	}
}

// RequestLoggerMiddleware configures and returns Echo's built-in request logger middleware.
// It uses the contextual logger (injected by ContextualLoggerMiddleware) to ensure
// that every access log automatically includes the corresponding request ID
func RequestLoggerMiddleware() echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:   true,
		LogMethod:   true,
		LogURI:      true,
		LogError:    true,
		HandleError: true,
		LogLatency:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			logger := ctxlogger.GetLogger(c.Request().Context())

			if v.Error == nil {
				logger.LogAttrs(c.Request().Context(), slog.LevelInfo, "HTTP_REQUEST",
					slog.String("method", v.Method),
					slog.String("uri", v.URI),
					slog.Int("status", v.Status),
					slog.String("latency", v.Latency.String()),
				)
			} else {
				logger.LogAttrs(c.Request().Context(), slog.LevelError, "HTTP_REQUEST_ERROR",
					slog.String("method", v.Method),
					slog.String("uri", v.URI),
					slog.Int("status", v.Status),
					slog.String("latency", v.Latency.String()),
					slog.String("error", v.Error.Error()),
				)
			}
			return nil
		},
	})
}

// customErrorHandler is the centralized error handler for the entire API.
// It intercepts any error returned from a handler, inspects its type, and
// formats a standardized JSON error response using the httpx.APIError structure.
// Authentication failures all collapse into 401s whose message never carries
// decode detail; the distinction lives in the logs only
func customErrorHandler(err error, c echo.Context) {
	log := ctxlogger.GetLogger(c.Request().Context())
	if c.Response().Committed {
		return
	}

	// 1. Handle custom validation errors from the validatorx package
	var valErr validatorx.ValidationError
	if errors.As(err, &valErr) {
		errResp := httpx.NewAPIError(
			"VALIDATION_ERROR",
			"One or more fields failed validation",
			valErr.Errors,
		)
		httpx.SendAPIError(c, http.StatusBadRequest, errResp)
		return
	}

	// 2. Handle known domain errors from the USER and CHANNEL modules
	var httpStatus int
	var errResp httpx.APIError
	switch {
	case errors.Is(err, user.ErrUserNotFound),
		errors.Is(err, channel.ErrChannelNotFound),
		errors.Is(err, channel.ErrVideoNotFound):
		httpStatus = http.StatusNotFound // 404
		errResp = httpx.NewAPIError("RESOURCE_NOT_FOUND", err.Error(), nil)

	case errors.Is(err, user.ErrInvalidCredentials),
		errors.Is(err, user.ErrUnauthorizedRequest),
		errors.Is(err, user.ErrInvalidAccessToken),
		errors.Is(err, user.ErrInvalidRefreshToken),
		errors.Is(err, user.ErrRefreshTokenReused):
		httpStatus = http.StatusUnauthorized // 401
		errResp = httpx.NewAPIError("UNAUTHORIZED", err.Error(), nil)

	case errors.Is(err, user.ErrUserAlreadyExists),
		errors.Is(err, channel.ErrAlreadySubscribed):
		httpStatus = http.StatusConflict // 409
		errResp = httpx.NewAPIError("CONFLICT", err.Error(), nil)

	case errors.Is(err, user.ErrInvalidOldPassword),
		errors.Is(err, channel.ErrSelfSubscription),
		errors.Is(err, channel.ErrSubscriptionAbsent):
		httpStatus = http.StatusBadRequest // 400
		errResp = httpx.NewAPIError("BUSINESS_RULE_VIOLATION", err.Error(), nil)
	}

	if httpStatus != 0 {
		httpx.SendAPIError(c, httpStatus, errResp)
		return
	}

	// 3. Handle generic Echo HTTP errors
	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		errResp = httpx.NewAPIError("HTTP_ERROR", fmt.Sprintf("%v", httpErr.Message), nil)
		httpx.SendAPIError(c, httpErr.Code, errResp)
		return
	}

	// 4. Fallback for any other unexpected error
	log.Error("unhandled internal error", slog.String("error", err.Error()))
	errResp = httpx.NewAPIError(
		"INTERNAL_SERVER_ERROR",
		"An unexpected error occurred",
		nil,
	)
	httpx.SendAPIError(c, http.StatusInternalServerError, errResp) // 500
}
