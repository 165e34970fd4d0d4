package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/dataroom-api/internal/service"
	"github.com/noah-isme/dataroom-api/pkg/response"
)

// DriveHandler exposes remote document browsing.
type DriveHandler struct {
	drive *service.DriveService
}

// NewDriveHandler constructs DriveHandler.
func NewDriveHandler(drive *service.DriveService) *DriveHandler {
	return &DriveHandler{drive: drive}
}

// List godoc
// @Summary List the caller's Google Drive documents
// @Tags Drive
// @Produce json
// @Param query query string false "Drive search query"
// @Param page_token query string false "Page token from a previous response"
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Failure 502 {object} response.Envelope
// @Router /drive/files [get]
func (h *DriveHandler) List(c *gin.Context) {
	page, err := h.drive.List(c.Request.Context(), currentUser(c), c.Query("query"), c.Query("page_token"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, page)
}
