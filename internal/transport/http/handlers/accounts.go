package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ZelseeH/CyberB/internal/transport/http/middleware"
	"github.com/ZelseeH/CyberB/internal/usecase"
)

// AccountsHandler exposes self-service profile endpoints and the
// administrative account panel.
type AccountsHandler struct {
	accounts *usecase.AccountService
	password *usecase.PasswordService
	logger   *zap.Logger
}

func NewAccountsHandler(accounts *usecase.AccountService, password *usecase.PasswordService, logger *zap.Logger) *AccountsHandler {
	return &AccountsHandler{accounts: accounts, password: password, logger: logger}
}

// Profile returns the authenticated account.
func (h *AccountsHandler) Profile(c *gin.Context) {
	account := middleware.GetAccount(c)
	if account == nil {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "authentication required"))
		return
	}

	c.JSON(http.StatusOK, newAccountView(*account))
}

// ChangePassword replaces the authenticated account's own password.
func (h *AccountsHandler) ChangePassword(c *gin.Context) {
	account := middleware.GetAccount(c)
	if account == nil {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "authentication required"))
		return
	}

	var req ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid request payload"))
		return
	}

	if err := h.password.ChangePassword(c.Request.Context(), account.ID, req.OldPassword, req.NewPassword, c.ClientIP()); err != nil {
		respondUsecaseError(c, err)
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "password changed"})
}

// List returns every account, for the admin panel.
func (h *AccountsHandler) List(c *gin.Context) {
	accounts, err := h.accounts.List(c.Request.Context())
	if err != nil {
		respondUsecaseError(c, err)
		return
	}

	views := make([]AccountView, 0, len(accounts))
	for _, account := range accounts {
		views = append(views, newAccountView(account))
	}

	c.JSON(http.StatusOK, views)
}

// Create adds an account with the default password or an OTP credential.
func (h *AccountsHandler) Create(c *gin.Context) {
	var req CreateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid request payload"))
		return
	}

	account, err := h.accounts.Create(c.Request.Context(), usecase.CreateInput{
		Username:           req.Username,
		FullName:           req.FullName,
		IsAdmin:            req.IsAdmin,
		PasswordExpiryDays: req.PasswordExpiryDays,
		OTP:                req.OTP,
		ActorName:          actorName(c),
		IPAddress:          c.ClientIP(),
	})
	if err != nil {
		respondUsecaseError(c, err)
		return
	}

	c.JSON(http.StatusCreated, newAccountView(*account))
}

// Update edits the mutable profile fields of the target account and, when an
// OTP is supplied, issues it as the account's one-time credential.
func (h *AccountsHandler) Update(c *gin.Context) {
	var req UpdateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid request payload"))
		return
	}

	if err := h.accounts.UpdateProfile(c.Request.Context(), c.Param("id"), req.FullName, req.PasswordExpiryDays, actorName(c), c.ClientIP()); err != nil {
		respondUsecaseError(c, err)
		return
	}

	resp := UpdateAccountResponse{Message: "account updated"}

	if req.OTP != "" {
		outcome, err := h.password.AdminReset(c.Request.Context(), usecase.ResetInput{
			TargetID:  c.Param("id"),
			Mode:      usecase.ResetModeOTP,
			Value:     req.OTP,
			ActorName: actorName(c),
			IPAddress: c.ClientIP(),
		})
		if err != nil {
			respondUsecaseError(c, err)
			return
		}
		resp.OTP = outcome.OTP
	}

	c.JSON(http.StatusOK, resp)
}

// Block toggles the blocked flag of the target account.
func (h *AccountsHandler) Block(c *gin.Context) {
	var req BlockRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Blocked == nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid request payload"))
		return
	}

	if err := h.accounts.SetBlocked(c.Request.Context(), c.Param("id"), *req.Blocked, actorName(c), c.ClientIP()); err != nil {
		respondUsecaseError(c, err)
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "account updated"})
}

// ResetPassword issues an OTP or directly resets the target's password.
func (h *AccountsHandler) ResetPassword(c *gin.Context) {
	var req ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid request payload"))
		return
	}

	if req.Mode != usecase.ResetModeOTP && req.Mode != usecase.ResetModeDirect {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "mode must be 'otp' or 'direct'"))
		return
	}

	outcome, err := h.password.AdminReset(c.Request.Context(), usecase.ResetInput{
		TargetID:  c.Param("id"),
		Mode:      req.Mode,
		Value:     req.Value,
		ActorName: actorName(c),
		IPAddress: c.ClientIP(),
	})
	if err != nil {
		respondUsecaseError(c, err)
		return
	}

	c.JSON(http.StatusOK, ResetPasswordResponse{ViaOTP: outcome.ViaOTP, OTP: outcome.OTP})
}

// Delete removes the target account.
func (h *AccountsHandler) Delete(c *gin.Context) {
	if err := h.accounts.Delete(c.Request.Context(), c.Param("id"), actorName(c), c.ClientIP()); err != nil {
		respondUsecaseError(c, err)
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "account deleted"})
}
