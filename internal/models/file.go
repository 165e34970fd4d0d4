package models

import "time"

// File is an imported document owned by the importing user. DriveFileID and
// SHA256 are the two dedup axes: within one owner's records each non-null
// value may appear at most once, enforced by unique constraints.
type File struct {
	ID          string    `db:"id" json:"id"`
	UserID      string    `db:"user_id" json:"user_id"`
	DriveFileID *string   `db:"drive_file_id" json:"drive_file_id,omitempty"`
	Name        string    `db:"name" json:"name"`
	MimeType    *string   `db:"mime_type" json:"mime_type,omitempty"`
	SizeBytes   *int64    `db:"size_bytes" json:"size_bytes,omitempty"`
	LocalPath   string    `db:"local_path" json:"-"`
	SHA256      *string   `db:"sha256" json:"sha256,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// RoomFile is a file row joined with its uploader for room listings.
type RoomFile struct {
	File
	UploadedBy string `db:"uploaded_by" json:"uploaded_by"`
}
