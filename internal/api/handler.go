package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/zhejian/shortcodes/internal/middleware"
	"github.com/zhejian/shortcodes/internal/model"
	"github.com/zhejian/shortcodes/internal/service"
)

// Handler holds HTTP handlers and dependencies.
// It follows the dependency injection pattern, receiving
// interfaces rather than concrete implementations for testability.
type Handler struct {
	links  service.LinkServiceInterface // Shortening and resolution
	db     DBInterface                  // Database connection for health checks; nil when not used
	cache  CacheInterface               // Cache connection for health checks; nil when disabled
	logger *slog.Logger                 // Structured logger for validation/error logging
}

// DBInterface defines the database operations needed by the handler.
// This interface allows for easy mocking in unit tests without
// requiring a real database connection.
type DBInterface interface {
	Ping(ctx context.Context) error // Check database connectivity
}

// CacheInterface defines the cache operations needed by the handler.
type CacheInterface interface {
	Ping(ctx context.Context) error
}

// NewHandler creates a new handler instance with the provided dependencies.
// db and cache may be nil; health then reports them as disabled.
func NewHandler(links service.LinkServiceInterface, db DBInterface, cache CacheInterface, logger *slog.Logger) *Handler {
	return &Handler{
		links:  links,
		db:     db,
		cache:  cache,
		logger: logger,
	}
}

// RegisterRoutes registers all route definitions on the given Gin engine.
// The caller is responsible for creating the engine and adding middleware
// before calling this method, so middleware runs in the correct order.
func (h *Handler) RegisterRoutes(r *gin.Engine) {
	// Health check endpoint
	r.GET("/health", h.healthCheck)

	r.GET("/destination", h.getDestination)
	r.POST("/shorten-url", h.shortenURL)

	// Browser-facing redirect
	r.GET("/s/:shortCode", h.redirect)
}

// healthCheck handles GET /health
// Response codes:
//   - 200 OK: All configured dependencies are healthy
//   - 503 Service Unavailable: One or more dependencies are down
func (h *Handler) healthCheck(c *gin.Context) {
	ctx := c.Request.Context()

	status := "ok"
	code := http.StatusOK
	deps := gin.H{}

	check := func(name string, p interface{ Ping(context.Context) error }) {
		if p == nil {
			deps[name] = "disabled"
			return
		}
		if err := p.Ping(ctx); err != nil {
			h.logger.WarnContext(ctx, "health check failed",
				slog.String("dependency", name),
				slog.String("error", err.Error()))
			status = "degraded"
			code = http.StatusServiceUnavailable
			deps[name] = "down"
			return
		}
		deps[name] = "up"
	}

	check("database", h.db)
	check("cache", h.cache)

	c.JSON(code, gin.H{"status": status, "dependencies": deps})
}

// getDestination handles GET /destination?shortCode=&password=
// Response codes:
//   - 200 OK: {destination}
//   - 401 Unauthorized: password missing or incorrect
//   - 404 Not Found: unknown short code
//   - 410 Gone: short code has expired
func (h *Handler) getDestination(c *gin.Context) {
	req := resolveRequest(c, c.Query("shortCode"))
	resp, err := h.links.Resolve(c.Request.Context(), req)
	if err != nil {
		h.handleError(c, err, "resolve", req.ShortCode)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// redirect handles GET /s/:shortCode with the same outcomes as
// getDestination, answering 302 Found on success.
func (h *Handler) redirect(c *gin.Context) {
	req := resolveRequest(c, c.Param("shortCode"))
	resp, err := h.links.Resolve(c.Request.Context(), req)
	if err != nil {
		h.handleError(c, err, "redirect", req.ShortCode)
		return
	}

	c.Redirect(http.StatusFound, resp.Destination)
}

// shortenURL handles POST /shorten-url
// Request body: ShortenRequest (JSON)
// Response codes:
//   - 201 Created: {shortCode, shortUrl, expirationDate?}
//   - 400 Bad Request: malformed body or a rejected field
//   - 409 Conflict: custom code claimed by a concurrent request
//   - 500 Internal Server Error: Unexpected error
func (h *Handler) shortenURL(c *gin.Context) {
	ctx := c.Request.Context()
	var req model.ShortenRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.WarnContext(ctx, "invalid request body",
			slog.String("error", err.Error()),
			slog.String("path", c.Request.URL.Path))
		c.JSON(http.StatusBadRequest, model.ErrorResponse{
			Error:   http.StatusText(http.StatusBadRequest),
			Field:   "body",
			Message: "Invalid request body",
		})
		return
	}

	resp, err := h.links.Shorten(ctx, &req)
	if err != nil {
		h.handleError(c, err, "shorten", req.CustomShortCode)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

// resolveRequest reads the optional password. A present but empty
// password is kept, so it fails against a protected link.
func resolveRequest(c *gin.Context, code string) *model.ResolveRequest {
	req := &model.ResolveRequest{ShortCode: code}
	if password, ok := c.GetQuery("password"); ok {
		req.Password = &password
	}
	return req
}

// handleError maps service errors to HTTP responses.
func (h *Handler) handleError(c *gin.Context, err error, op, code string) {
	var validationErr *service.ValidationError
	switch {
	case errors.As(err, &validationErr):
		c.JSON(http.StatusBadRequest, model.ErrorResponse{
			Error:   http.StatusText(http.StatusBadRequest),
			Field:   validationErr.Field,
			Message: validationErr.Reason.Error(),
		})
	case errors.Is(err, service.ErrNotFound):
		h.errorResponse(c, http.StatusNotFound, "Short code not found")
	case errors.Is(err, service.ErrExpired):
		h.errorResponse(c, http.StatusGone, "Short code has expired")
	case errors.Is(err, service.ErrUnauthorized):
		h.errorResponse(c, http.StatusUnauthorized, "Password missing or incorrect")
	case errors.Is(err, service.ErrConflict):
		h.errorResponse(c, http.StatusConflict, "Short code is already taken")
	default:
		_ = c.Error(err)
		ctx := c.Request.Context()
		h.logger.ErrorContext(ctx, "unexpected error",
			slog.String("op", op),
			slog.String("request_id", middleware.RequestIDFromContext(ctx)),
			slog.String("code", code),
			slog.String("error", err.Error()))
		h.errorResponse(c, http.StatusInternalServerError, "Internal server error")
	}
}

// errorResponse sends a standardized JSON error response.
func (h *Handler) errorResponse(c *gin.Context, status int, message string) {
	c.JSON(status, model.ErrorResponse{
		Error:   http.StatusText(status), // e.g., "Bad Request", "Not Found"
		Message: message,
	})
}
