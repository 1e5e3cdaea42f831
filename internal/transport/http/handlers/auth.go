package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ZelseeH/CyberB/internal/transport/http/middleware"
	"github.com/ZelseeH/CyberB/internal/usecase"
)

// AuthHandler exposes the authentication endpoints.
type AuthHandler struct {
	auth   *usecase.AuthService
	logger *zap.Logger
}

func NewAuthHandler(auth *usecase.AuthService, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{auth: auth, logger: logger}
}

// Login authenticates with a password or an OTP answer and issues a session
// token.
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid request payload"))
		return
	}

	result, err := h.auth.Login(c.Request.Context(), usecase.LoginInput{
		Username:  req.Username,
		Password:  req.Password,
		OTPAnswer: req.OTPAnswer,
		IPAddress: c.ClientIP(),
	})
	if err != nil {
		respondUsecaseError(c, err)
		return
	}

	if result.OTPRequired {
		c.JSON(http.StatusOK, LoginResponse{OTPRequired: true})
		return
	}

	view := newAccountView(result.Account)
	c.JSON(http.StatusOK, LoginResponse{
		Token:              result.Token,
		ExpiresAt:          &result.ExpiresAt,
		Account:            &view,
		MustChangePassword: result.MustChangePassword,
		PasswordExpired:    result.PasswordExpired,
	})
}

// Verify returns the live account behind a valid token. RequireAuth has
// already done the validation.
func (h *AuthHandler) Verify(c *gin.Context) {
	account := middleware.GetAccount(c)
	if account == nil {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "authentication required"))
		return
	}

	c.JSON(http.StatusOK, newAccountView(*account))
}

// Logout records the logout; the client discards the token.
func (h *AuthHandler) Logout(c *gin.Context) {
	token := bearerToken(c)
	if token != "" {
		h.auth.Logout(c.Request.Context(), token, c.ClientIP())
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "logged out"})
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
