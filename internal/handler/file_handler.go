package handler

import (
	"net/http"
	"os"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/dataroom-api/internal/models"
	"github.com/noah-isme/dataroom-api/internal/service"
	appErrors "github.com/noah-isme/dataroom-api/pkg/errors"
	"github.com/noah-isme/dataroom-api/pkg/response"
)

// FileHandler exposes owner-scoped file endpoints.
type FileHandler struct {
	files *service.FileService
}

// NewFileHandler constructs FileHandler.
func NewFileHandler(files *service.FileService) *FileHandler {
	return &FileHandler{files: files}
}

// List godoc
// @Summary List the caller's imported files
// @Tags Files
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /files [get]
func (h *FileHandler) List(c *gin.Context) {
	files, err := h.files.ListFiles(c.Request.Context(), currentUser(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, files)
}

// Preview godoc
// @Summary Stream an owned file's raw bytes
// @Tags Files
// @Produce octet-stream
// @Param id path string true "File ID"
// @Success 200
// @Failure 404 {object} response.Envelope
// @Router /files/{id}/preview [get]
func (h *FileHandler) Preview(c *gin.Context) {
	file, handle, err := h.files.PreviewFile(c.Request.Context(), currentUser(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	defer handle.Close()
	serveFile(c, file, handle)
}

// Delete godoc
// @Summary Delete an owned file
// @Tags Files
// @Param id path string true "File ID"
// @Success 204
// @Failure 404 {object} response.Envelope
// @Router /files/{id} [delete]
func (h *FileHandler) Delete(c *gin.Context) {
	if err := h.files.DeleteFile(c.Request.Context(), currentUser(c), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// serveFile streams stored bytes with the declared MIME type.
func serveFile(c *gin.Context, file *models.File, handle *os.File) {
	info, err := handle.Stat()
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "file content missing from storage"))
		return
	}
	contentType := "application/octet-stream"
	if file.MimeType != nil && *file.MimeType != "" {
		contentType = *file.MimeType
	}
	c.DataFromReader(http.StatusOK, info.Size(), contentType, handle, nil)
}
