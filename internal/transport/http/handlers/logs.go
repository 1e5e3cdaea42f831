package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ZelseeH/CyberB/internal/usecase"
)

// LogsHandler exposes the administrative audit log.
type LogsHandler struct {
	audit *usecase.AuditRecorder
}

func NewLogsHandler(audit *usecase.AuditRecorder) *LogsHandler {
	return &LogsHandler{audit: audit}
}

// List returns audit entries newest first.
func (h *LogsHandler) List(c *gin.Context) {
	entries, err := h.audit.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "internal error"))
		return
	}

	views := make([]AuditEntryView, 0, len(entries))
	for _, entry := range entries {
		views = append(views, AuditEntryView{
			ID:          entry.ID,
			Username:    entry.Username,
			Action:      entry.Action,
			Description: entry.Description,
			IPAddress:   entry.IPAddress,
			CreatedAt:   entry.CreatedAt,
		})
	}

	c.JSON(http.StatusOK, views)
}
