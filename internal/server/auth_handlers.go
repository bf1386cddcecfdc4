package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/swe-students-fall2025/5-final-superfunteam/internal/auth"
	"github.com/swe-students-fall2025/5-final-superfunteam/internal/domain"
	"go.uber.org/zap"
)

type ssoCallbackPayload struct {
	Assertion string `json:"assertion"`
}

type devLoginPayload struct {
	NetID       string `json:"netid"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
}

type sessionResponse struct {
	domain.Identity
	AccessToken string     `json:"access_token,omitempty"`
	TokenType   string     `json:"token_type,omitempty"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
}

func (h *httpHandler) handleSSOCallback(c *gin.Context) {
	var payload ssoCallbackPayload
	if err := bindBody(c, &payload); err != nil {
		h.respondError(c, err)
		return
	}
	if strings.TrimSpace(payload.Assertion) == "" {
		h.respondBadRequest(c, "assertion", "is required")
		return
	}

	identity, err := h.sso.VerifyIdentity(c.Request.Context(), payload.Assertion)
	if err != nil {
		h.logger.Warn("sso assertion rejected", zap.Error(err))
		h.respondError(c, domain.NewServiceError("auth.sso", "rejected", domain.ErrUnauthorized))
		return
	}
	h.startSession(c, identity)
}

func (h *httpHandler) handleDevLogin(c *gin.Context) {
	var payload devLoginPayload
	if err := bindBody(c, &payload); err != nil {
		h.respondError(c, err)
		return
	}
	netID, err := auth.NormalizeNetID(payload.NetID)
	if err != nil {
		h.respondBadRequest(c, "netid", "must look like abc123")
		return
	}
	displayName := strings.TrimSpace(payload.DisplayName)
	if displayName == "" {
		displayName = netID
	}
	h.logger.Warn("debug login issued", zap.String("netid", netID))
	h.startSession(c, domain.Identity{
		NetID:       netID,
		Email:       strings.ToLower(strings.TrimSpace(payload.Email)),
		DisplayName: displayName,
	})
}

func (h *httpHandler) startSession(c *gin.Context, identity domain.Identity) {
	token, expiresAt, err := h.issuer.Issue(identity)
	if err != nil {
		h.logger.Error("failed to issue session", zap.String("netid", identity.NetID), zap.Error(err))
		h.respondError(c, domain.NewServiceError("auth.session", "issue_failed", err))
		return
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.sessions.CookieName(), token, int(h.issuer.TTL().Seconds()), "/", "", h.secureCookies, true)
	h.logger.Info("session started", zap.String("netid", identity.NetID))
	c.JSON(http.StatusOK, sessionResponse{
		Identity:    identity,
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresAt:   &expiresAt,
	})
}

func (h *httpHandler) handleLogout(c *gin.Context) {
	if claims, err := h.sessions.ValidateRequest(c.Request); err == nil {
		h.sessions.Revoke(claims)
		h.logger.Info("session ended", zap.String("netid", claims.NetID))
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.sessions.CookieName(), "", -1, "/", "", h.secureCookies, true)
	c.Status(http.StatusNoContent)
}

func (h *httpHandler) handleSession(c *gin.Context) {
	identity := identityFrom(c)
	if !identity.Verified() {
		h.respondError(c, domain.NewServiceError("auth.session", "missing", domain.ErrUnauthorized))
		return
	}
	c.JSON(http.StatusOK, sessionResponse{Identity: *identity})
}
