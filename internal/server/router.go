package server

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/swe-students-fall2025/5-final-superfunteam/internal/auth"
	"github.com/swe-students-fall2025/5-final-superfunteam/internal/domain"
	"github.com/swe-students-fall2025/5-final-superfunteam/internal/printers"
	"github.com/swe-students-fall2025/5-final-superfunteam/internal/spaces"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
	"gorm.io/gorm"
)

const (
	identityContextKey = "crowdstatus_identity"
	reasonUnauthorized = "unauthorized"
)

var (
	errMissingPrinterService = errors.New("printer service dependency required")
	errMissingSpaceService   = errors.New("study space service dependency required")
	errMissingSessions       = errors.New("session validator dependency required")
	errMissingIssuer         = errors.New("session issuer dependency required")
	errMissingDatabase       = errors.New("database dependency required")
)

// SessionValidator resolves the session attached to a request.
type SessionValidator interface {
	ValidateRequest(r *http.Request) (auth.SessionClaims, error)
	CookieName() string
	Revoke(claims auth.SessionClaims)
}

// SessionIssuer signs new sessions for verified identities.
type SessionIssuer interface {
	Issue(identity domain.Identity) (string, time.Time, error)
	TTL() time.Duration
}

// IdentityVerifier turns a single sign-on assertion into an identity.
type IdentityVerifier interface {
	VerifyIdentity(ctx context.Context, assertion string) (domain.Identity, error)
}

// Dependencies wires the HTTP layer to its collaborators. Only the service
// for the configured variant is required.
type Dependencies struct {
	Variant        domain.Variant
	PrinterService *printers.Service
	SpaceService   *spaces.Service
	Sessions       SessionValidator
	Issuer         SessionIssuer
	// SSO is optional; the callback route is mounted only when it is set.
	SSO            IdentityVerifier
	Database       *gorm.DB
	Logger         *zap.Logger
	AllowedOrigins []string
	ReportRate     rate.Limit
	ReportBurst    int
	DevLogin       bool
	SecureCookies  bool
}

// NewHTTPHandler builds the gin engine serving the configured variant.
func NewHTTPHandler(deps Dependencies) (http.Handler, error) {
	switch deps.Variant {
	case domain.VariantPrinters:
		if deps.PrinterService == nil {
			return nil, errMissingPrinterService
		}
	case domain.VariantSpaces:
		if deps.SpaceService == nil {
			return nil, errMissingSpaceService
		}
	default:
		return nil, errors.New("unknown variant " + string(deps.Variant))
	}
	if deps.Sessions == nil {
		return nil, errMissingSessions
	}
	if deps.Issuer == nil {
		return nil, errMissingIssuer
	}
	if deps.Database == nil {
		return nil, errMissingDatabase
	}

	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	reportRate := deps.ReportRate
	if reportRate <= 0 {
		reportRate = rate.Limit(1)
	}
	reportBurst := deps.ReportBurst
	if reportBurst <= 0 {
		reportBurst = 5
	}

	handler := &httpHandler{
		printers:      deps.PrinterService,
		spaces:        deps.SpaceService,
		sessions:      deps.Sessions,
		issuer:        deps.Issuer,
		sso:           deps.SSO,
		db:            deps.Database,
		logger:        logger,
		secureCookies: deps.SecureCookies,
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestLogger(logger))
	router.Use(corsMiddleware(deps.AllowedOrigins))
	router.Use(handler.resolveIdentity)

	router.GET("/health", handler.handleHealth)

	authGroup := router.Group("/auth")
	if handler.sso != nil {
		authGroup.POST("/sso/callback", handler.handleSSOCallback)
	}
	authGroup.POST("/logout", handler.handleLogout)
	authGroup.GET("/session", handler.handleSession)
	if deps.DevLogin {
		logger.Warn("debug login endpoint enabled")
		authGroup.POST("/dev-login", handler.handleDevLogin)
	}

	limitWrites := NewIPRateLimiter(reportRate, reportBurst).Middleware()
	api := router.Group("/api")
	switch deps.Variant {
	case domain.VariantPrinters:
		api.GET("/printers", handler.handleListPrinters)
		api.POST("/printers", handler.handleCreatePrinter)
		api.GET("/printers/:id", handler.handleGetPrinter)
		api.PUT("/printers/:id", handler.handleUpdatePrinter)
		api.DELETE("/printers/:id", handler.handleDeletePrinter)
		api.GET("/reports", handler.handleListReports)
		api.POST("/reports", handler.gateAnonymous(deps.PrinterService.RequiresIdentity(), "reports.submit"), limitWrites, handler.handleSubmitReport)
	case domain.VariantSpaces:
		api.GET("/spaces", handler.handleListSpaces)
		api.POST("/spaces", handler.handleCreateSpace)
		api.GET("/spaces/:id", handler.handleGetSpace)
		api.PUT("/spaces/:id", handler.handleUpdateSpace)
		api.DELETE("/spaces/:id", handler.handleDeleteSpace)
		api.GET("/reviews", handler.handleListReviews)
		api.POST("/reviews", handler.gateAnonymous(deps.SpaceService.RequiresIdentity(), "reviews.submit"), limitWrites, handler.handleSubmitReview)
	}

	return router, nil
}

type httpHandler struct {
	printers      *printers.Service
	spaces        *spaces.Service
	sessions      SessionValidator
	issuer        SessionIssuer
	sso           IdentityVerifier
	db            *gorm.DB
	logger        *zap.Logger
	secureCookies bool
}

func corsMiddleware(allowedOrigins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	origins := make([]string, 0, len(allowedOrigins))
	wildcard := len(allowedOrigins) == 0
	for _, origin := range allowedOrigins {
		trimmed := strings.TrimSpace(origin)
		if trimmed == "*" {
			wildcard = true
		}
		if trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	if wildcard || len(origins) == 0 {
		// Credentialed requests cannot use a literal "*", so echo the origin.
		cfg.AllowOriginFunc = func(string) bool { return true }
	} else {
		cfg.AllowOrigins = origins
	}
	return cors.New(cfg)
}

func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		started := time.Now()
		c.Next()
		logger.Info("http request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(started)),
			zap.String("client_ip", c.ClientIP()),
		)
	}
}

// resolveIdentity attaches the verified caller, if any, to the request. An
// invalid session downgrades the request to anonymous; write policy is
// enforced by the services.
func (h *httpHandler) resolveIdentity(c *gin.Context) {
	claims, err := h.sessions.ValidateRequest(c.Request)
	switch {
	case err == nil:
		c.Set(identityContextKey, claims.Identity())
	case errors.Is(err, auth.ErrMissingSessionToken):
	case errors.Is(err, auth.ErrExpiredSessionToken), errors.Is(err, jwt.ErrTokenExpired), errors.Is(err, auth.ErrRevokedSessionToken):
		h.logger.Info("session validation failed", zap.Error(err))
	default:
		h.logger.Warn("session validation failed", zap.Error(err))
	}
	c.Next()
}

// gateAnonymous refuses unauthenticated writes on routes that require a
// caller. It runs ahead of the rate limiter so refused requests leave the
// address's bucket untouched.
func (h *httpHandler) gateAnonymous(required bool, operation string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if required && !identityFrom(c).Verified() {
			h.respondError(c, domain.NewServiceError(operation, reasonUnauthorized, domain.ErrUnauthorized))
			return
		}
		c.Next()
	}
}

func identityFrom(c *gin.Context) *domain.Identity {
	value, ok := c.Get(identityContextKey)
	if !ok {
		return nil
	}
	identity, _ := value.(*domain.Identity)
	return identity
}
