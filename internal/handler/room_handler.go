package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/dataroom-api/internal/dto"
	"github.com/noah-isme/dataroom-api/internal/service"
	appErrors "github.com/noah-isme/dataroom-api/pkg/errors"
	"github.com/noah-isme/dataroom-api/pkg/response"
)

// RoomHandler exposes room, membership and room-file endpoints.
type RoomHandler struct {
	rooms *service.RoomService
}

// NewRoomHandler constructs RoomHandler.
func NewRoomHandler(rooms *service.RoomService) *RoomHandler {
	return &RoomHandler{rooms: rooms}
}

// Create godoc
// @Summary Create a room
// @Tags Rooms
// @Accept json
// @Produce json
// @Param payload body dto.CreateRoomRequest true "Room payload"
// @Success 201 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /rooms [post]
func (h *RoomHandler) Create(c *gin.Context) {
	var req dto.CreateRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	room, err := h.rooms.CreateRoom(c.Request.Context(), currentUser(c), req, requestContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, room)
}

// List godoc
// @Summary List the caller's rooms
// @Tags Rooms
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /rooms [get]
func (h *RoomHandler) List(c *gin.Context) {
	rooms, err := h.rooms.ListRooms(c.Request.Context(), currentUser(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rooms)
}

// AddMember godoc
// @Summary Add a member to a room or update their role
// @Tags Rooms
// @Accept json
// @Produce json
// @Param id path string true "Room ID"
// @Param payload body dto.AddMemberRequest true "Member payload"
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /rooms/{id}/members [post]
func (h *RoomHandler) AddMember(c *gin.Context) {
	var req dto.AddMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	member, err := h.rooms.AddMember(c.Request.Context(), currentUser(c), c.Param("id"), req, requestContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, member)
}

// ListMembers godoc
// @Summary List a room's members
// @Tags Rooms
// @Produce json
// @Param id path string true "Room ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /rooms/{id}/members [get]
func (h *RoomHandler) ListMembers(c *gin.Context) {
	members, err := h.rooms.ListMembers(c.Request.Context(), currentUser(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, members)
}

// ListFiles godoc
// @Summary List the files linked into a room
// @Tags Rooms
// @Produce json
// @Param id path string true "Room ID"
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /rooms/{id}/files [get]
func (h *RoomHandler) ListFiles(c *gin.Context) {
	files, err := h.rooms.ListRoomFiles(c.Request.Context(), currentUser(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, files)
}

// LinkFile godoc
// @Summary Link an owned file into a room
// @Tags Rooms
// @Accept json
// @Param id path string true "Room ID"
// @Param payload body dto.LinkFileRequest true "File to link"
// @Success 204
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /rooms/{id}/files [post]
func (h *RoomHandler) LinkFile(c *gin.Context) {
	var req dto.LinkFileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	if err := h.rooms.LinkFile(c.Request.Context(), currentUser(c), c.Param("id"), req.FileID, requestContext(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// PreviewFile godoc
// @Summary Stream a room file's raw bytes
// @Tags Rooms
// @Produce octet-stream
// @Param id path string true "Room ID"
// @Param fileId path string true "File ID"
// @Success 200
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /rooms/{id}/files/{fileId}/preview [get]
func (h *RoomHandler) PreviewFile(c *gin.Context) {
	file, handle, err := h.rooms.PreviewRoomFile(c.Request.Context(), currentUser(c), c.Param("id"), c.Param("fileId"), requestContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	defer handle.Close()
	serveFile(c, file, handle)
}

// DeleteFile godoc
// @Summary Delete a room file owned by the caller
// @Tags Rooms
// @Param id path string true "Room ID"
// @Param fileId path string true "File ID"
// @Success 204
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /rooms/{id}/files/{fileId} [delete]
func (h *RoomHandler) DeleteFile(c *gin.Context) {
	if err := h.rooms.DeleteRoomFile(c.Request.Context(), currentUser(c), c.Param("id"), c.Param("fileId"), requestContext(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
