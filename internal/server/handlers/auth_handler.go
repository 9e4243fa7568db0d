package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/stockroom/internal/service/auth"
	"github.com/mamadbah2/stockroom/pkg/clients/supabase"
)

// AuthService is the account API the handler drives.
type AuthService interface {
	SignIn(ctx context.Context, email, password string) (auth.Session, error)
	SignOut(ctx context.Context, session auth.Session) error
	RequestPasswordReset(ctx context.Context, email string) error
	UpdatePassword(ctx context.Context, session auth.Session, password string) error
}

// AuthHandler serves sign-in, sign-out and password flows.
type AuthHandler struct {
	svc    AuthService
	logger *zap.Logger
}

// NewAuthHandler constructs the HTTP handler adapter.
func NewAuthHandler(svc AuthService, logger *zap.Logger) *AuthHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthHandler{svc: svc, logger: logger}
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type recoverRequest struct {
	Email string `json:"email" binding:"required"`
}

type passwordRequest struct {
	Password string `json:"password" binding:"required"`
}

// Login exchanges credentials for a session and sets the session cookie.
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Abort(c, http.StatusBadRequest, CodeInvalidRequest, "email and password are required")
		return
	}

	session, err := h.svc.SignIn(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		var apiErr *supabase.APIError
		if errors.As(err, &apiErr) && apiErr.Status < http.StatusInternalServerError {
			Abort(c, http.StatusUnauthorized, CodeInvalidCredentials, "invalid email or password")
			return
		}
		respondError(c, h.logger, err)
		return
	}

	maxAge := 0
	if !session.ExpiresAt.IsZero() {
		maxAge = int(time.Until(session.ExpiresAt).Seconds())
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(SessionCookie, session.Token, maxAge, "/", "", c.Request.TLS != nil, true)

	c.JSON(http.StatusOK, gin.H{"session": session, "access_token": session.Token})
}

// Logout revokes the token and clears the cookie.
func (h *AuthHandler) Logout(c *gin.Context) {
	if err := h.svc.SignOut(c.Request.Context(), CurrentSession(c)); err != nil {
		h.logger.Warn("sign out failed", zap.Error(err))
	}
	c.SetCookie(SessionCookie, "", -1, "/", "", c.Request.TLS != nil, true)
	c.Status(http.StatusNoContent)
}

// Recover mails a password reset link.
func (h *AuthHandler) Recover(c *gin.Context) {
	var req recoverRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Abort(c, http.StatusBadRequest, CodeInvalidRequest, "email is required")
		return
	}
	if err := h.svc.RequestPasswordReset(c.Request.Context(), req.Email); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.Status(http.StatusAccepted)
}

// UpdatePassword sets a new password for an authenticated or recovering user.
func (h *AuthHandler) UpdatePassword(c *gin.Context) {
	var req passwordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Abort(c, http.StatusBadRequest, CodeInvalidRequest, "password is required")
		return
	}
	if err := h.svc.UpdatePassword(c.Request.Context(), CurrentSession(c), req.Password); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Session reports the state of the caller's session.
func (h *AuthHandler) Session(c *gin.Context) {
	c.JSON(http.StatusOK, CurrentSession(c))
}
