package models

// Import outcome statuses reported per file in a batch.
const (
	ImportStatusImported  = "imported"
	ImportStatusDuplicate = "duplicate"
	ImportStatusError     = "error"
)

// Duplicate detection axes; external id is checked before content hash.
const (
	DuplicateByDriveFileID = "drive_file_id"
	DuplicateBySHA256      = "sha256"
)

// Import error reasons surfaced to the caller.
const (
	ImportErrorMetadataFailed = "metadata_failed"
	ImportErrorDownloadFailed = "download_failed"
)

// ImportResult is the per-file outcome of an import batch. Results preserve
// the order of the requested ids regardless of completion order.
type ImportResult struct {
	DriveFileID string `json:"file_id"`
	Status      string `json:"status"`
	FileID      string `json:"id,omitempty"`
	DuplicateBy string `json:"by,omitempty"`
	Error       string `json:"error,omitempty"`
}
