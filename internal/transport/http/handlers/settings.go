package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ZelseeH/CyberB/internal/core/domain"
	"github.com/ZelseeH/CyberB/internal/usecase"
)

// SettingsHandler exposes the password policy and system settings endpoints.
type SettingsHandler struct {
	settings *usecase.SettingsService
}

func NewSettingsHandler(settings *usecase.SettingsService) *SettingsHandler {
	return &SettingsHandler{settings: settings}
}

func (h *SettingsHandler) GetPasswordPolicy(c *gin.Context) {
	policy, err := h.settings.PasswordPolicy(c.Request.Context())
	if err != nil {
		respondUsecaseError(c, err)
		return
	}

	c.JSON(http.StatusOK, PasswordPolicyPayload{
		MinLength:            policy.MinLength,
		RequireCapitalLetter: policy.RequireCapitalLetter,
		RequireSpecialChar:   policy.RequireSpecialChar,
		RequireDigits:        policy.RequireDigits,
	})
}

func (h *SettingsHandler) UpdatePasswordPolicy(c *gin.Context) {
	var req PasswordPolicyPayload
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid request payload"))
		return
	}

	policy := domain.PasswordPolicy{
		MinLength:            req.MinLength,
		RequireCapitalLetter: req.RequireCapitalLetter,
		RequireSpecialChar:   req.RequireSpecialChar,
		RequireDigits:        req.RequireDigits,
	}

	if err := h.settings.UpdatePasswordPolicy(c.Request.Context(), policy, actorName(c), c.ClientIP()); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, err.Error()))
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "password policy updated"})
}

func (h *SettingsHandler) GetSystemSettings(c *gin.Context) {
	settings, err := h.settings.SystemSettings(c.Request.Context())
	if err != nil {
		respondUsecaseError(c, err)
		return
	}

	c.JSON(http.StatusOK, SystemSettingsPayload{
		FailedLoginLimit:   settings.FailedLoginLimit,
		IdleTimeoutMinutes: settings.IdleTimeoutMinutes,
	})
}

func (h *SettingsHandler) UpdateSystemSettings(c *gin.Context) {
	var req SystemSettingsPayload
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid request payload"))
		return
	}

	settings := domain.SystemSettings{
		FailedLoginLimit:   req.FailedLoginLimit,
		IdleTimeoutMinutes: req.IdleTimeoutMinutes,
	}

	if err := h.settings.UpdateSystemSettings(c.Request.Context(), settings, actorName(c), c.ClientIP()); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, err.Error()))
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "system settings updated"})
}
