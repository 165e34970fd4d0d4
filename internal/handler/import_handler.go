package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/dataroom-api/internal/dto"
	"github.com/noah-isme/dataroom-api/internal/service"
	appErrors "github.com/noah-isme/dataroom-api/pkg/errors"
	"github.com/noah-isme/dataroom-api/pkg/response"
)

// ImportHandler exposes the document import endpoint.
type ImportHandler struct {
	imports *service.ImportService
}

// NewImportHandler constructs ImportHandler.
func NewImportHandler(imports *service.ImportService) *ImportHandler {
	return &ImportHandler{imports: imports}
}

// Import godoc
// @Summary Import documents from Google Drive
// @Tags Import
// @Accept json
// @Produce json
// @Param payload body dto.ImportRequest true "Drive file ids and optional target room"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /import [post]
func (h *ImportHandler) Import(c *gin.Context) {
	var req dto.ImportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	results, err := h.imports.Import(c.Request.Context(), currentUser(c), req, requestContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"results": results})
}
