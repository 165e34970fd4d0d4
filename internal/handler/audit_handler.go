package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/dataroom-api/internal/service"
	"github.com/noah-isme/dataroom-api/pkg/response"
)

// AuditHandler exposes the audit trail export endpoint.
type AuditHandler struct {
	audit *service.AuditService
}

// NewAuditHandler constructs AuditHandler.
func NewAuditHandler(audit *service.AuditService) *AuditHandler {
	return &AuditHandler{audit: audit}
}

// Export godoc
// @Summary Export a room's audit trail
// @Tags Audit
// @Produce text/csv
// @Param id path string true "Room ID"
// @Param format query string false "csv or pdf" default(csv)
// @Success 200
// @Failure 403 {object} response.Envelope
// @Router /rooms/{id}/audit/export [get]
func (h *AuditHandler) Export(c *gin.Context) {
	format := c.DefaultQuery("format", service.ExportFormatCSV)
	content, contentType, err := h.audit.ExportRoomTrail(c.Request.Context(), currentUser(c), c.Param("id"), format)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=audit-trail.%s", format))
	c.Data(http.StatusOK, contentType, content)
}
