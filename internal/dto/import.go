package dto

// ImportRequest asks the server to import files from the connected provider,
// optionally linking every imported file into a room.
type ImportRequest struct {
	DriveFileIDs []string `json:"drive_file_ids" binding:"required"`
	RoomID       string   `json:"room_id,omitempty"`
}
