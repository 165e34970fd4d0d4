package service

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"strconv"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/dataroom-api/internal/drive"
	"github.com/noah-isme/dataroom-api/internal/dto"
	"github.com/noah-isme/dataroom-api/internal/models"
	"github.com/noah-isme/dataroom-api/internal/repository"
	appErrors "github.com/noah-isme/dataroom-api/pkg/errors"
	"github.com/noah-isme/dataroom-api/pkg/storage"
)

// Payloads at or below this size are fetched buffered; larger ones are
// streamed to disk to bound memory use.
const maxBufferedSize = 20 << 20

const defaultImportConcurrency = 4

type importTokenRepository interface {
	FindByUserAndProvider(ctx context.Context, userID, provider string) (*models.OAuthToken, error)
	UpdateAccessToken(ctx context.Context, userID, provider, accessToken string) error
}

type importFileRepository interface {
	Create(ctx context.Context, file *models.File) error
	FindByOwnerAndDriveID(ctx context.Context, userID, driveFileID string) (*models.File, error)
	FindByOwnerAndSHA256(ctx context.Context, userID, sha256 string) (*models.File, error)
}

type importRoomRepository interface {
	GetMembership(ctx context.Context, userID, roomID string) (*models.Membership, error)
	LinkFile(ctx context.Context, link *models.FileRoomLink) error
}

type importStorage interface {
	AllocatePath(name string) string
	WriteFile(path string, data []byte) (string, error)
	WriteStream(path string, r io.Reader) (string, int64, error)
	Remove(path string) error
}

// ContentClient is the slice of the remote client the import engine consumes.
type ContentClient interface {
	Metadata(ctx context.Context, fileID string) (*drive.Metadata, error)
	Download(ctx context.Context, fileID string) ([]byte, error)
	DownloadStream(ctx context.Context, fileID string) (io.ReadCloser, error)
	List(ctx context.Context, query, pageToken string) (*drive.ListPage, error)
	AccessToken() string
	Refreshed() bool
}

type ContentClientFactory func(tokens drive.TokenBundle) ContentClient

type importObserver interface {
	ObserveImport(status string)
}

// ImportService pulls remote documents into owned local storage, deduplicating
// on external id and content hash in that order.
type ImportService struct {
	tokens      importTokenRepository
	files       importFileRepository
	rooms       importRoomRepository
	storage     importStorage
	audit       auditRecorder
	metrics     importObserver
	logger      *zap.Logger
	newClient   ContentClientFactory
	concurrency int
}

// NewImportService constructs an ImportService instance. metrics may be nil.
func NewImportService(tokens importTokenRepository, files importFileRepository, rooms importRoomRepository, store importStorage, audit auditRecorder, metrics importObserver, logger *zap.Logger, newClient ContentClientFactory, concurrency int) *ImportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if concurrency <= 0 {
		concurrency = defaultImportConcurrency
	}
	return &ImportService{
		tokens:      tokens,
		files:       files,
		rooms:       rooms,
		storage:     store,
		audit:       audit,
		metrics:     metrics,
		logger:      logger,
		newClient:   newClient,
		concurrency: concurrency,
	}
}

// Import fans out one import per requested id with bounded concurrency and
// reports per-file outcomes in request order. One file's failure never aborts
// the others. If a target room is given, every imported file is linked into it
// in a single pass after all imports settle.
func (s *ImportService) Import(ctx context.Context, actor *models.User, req dto.ImportRequest, reqCtx models.RequestContext) ([]models.ImportResult, error) {
	if actor == nil {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "authentication required")
	}
	if len(req.DriveFileIDs) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "file_ids must not be empty")
	}

	// The room permission is a precondition: verified before any transfer so
	// an unauthorized caller cannot import first and fail only on linking.
	if req.RoomID != "" {
		membership, err := s.rooms.GetMembership(ctx, actor.ID, req.RoomID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrForbidden, "not a member of this room")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load membership")
		}
		if !membership.Role.AtLeast(models.RoleEditor) {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "editor role required to import into a room")
		}
	}

	token, err := s.tokens.FindByUserAndProvider(ctx, actor.ID, models.ProviderGoogle)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrUnauthorized, "no connected google account")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load provider token")
	}

	bundle := drive.TokenBundle{AccessToken: token.AccessToken}
	if token.RefreshToken != nil {
		bundle.RefreshToken = *token.RefreshToken
	}
	client := s.newClient(bundle)

	results := make([]models.ImportResult, len(req.DriveFileIDs))
	sem := make(chan struct{}, s.concurrency)
	var wg sync.WaitGroup
	for i, id := range req.DriveFileIDs {
		wg.Add(1)
		go func(i int, id string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			results[i] = s.importOne(ctx, actor, client, id)
		}(i, id)
	}
	wg.Wait()

	// A refreshed access token is persisted once per batch so the next import
	// starts from a valid token.
	if client.Refreshed() {
		if err := s.tokens.UpdateAccessToken(ctx, actor.ID, models.ProviderGoogle, client.AccessToken()); err != nil {
			s.logger.Warn("failed to persist refreshed access token",
				zap.String("user_id", actor.ID),
				zap.Error(err))
		}
	}

	if s.metrics != nil {
		for _, result := range results {
			s.metrics.ObserveImport(result.Status)
		}
	}

	if req.RoomID != "" {
		s.linkImported(ctx, actor, req.RoomID, results, reqCtx)
	}

	return results, nil
}

func (s *ImportService) importOne(ctx context.Context, actor *models.User, client ContentClient, driveFileID string) models.ImportResult {
	result := models.ImportResult{DriveFileID: driveFileID}

	meta, err := client.Metadata(ctx, driveFileID)
	if err != nil {
		s.logger.Warn("metadata fetch failed",
			zap.String("drive_file_id", driveFileID),
			zap.Error(err))
		result.Status = models.ImportStatusError
		result.Error = models.ImportErrorMetadataFailed
		return result
	}

	name := storage.SanitizeName(meta.Name, driveFileID)
	var size *int64
	if parsed, err := strconv.ParseInt(meta.Size, 10, 64); err == nil {
		size = &parsed
	}

	// External-id dedup comes first: a known id is rejected before any
	// content transfer.
	if existing, err := s.files.FindByOwnerAndDriveID(ctx, actor.ID, driveFileID); err == nil {
		result.Status = models.ImportStatusDuplicate
		result.DuplicateBy = models.DuplicateByDriveFileID
		result.FileID = existing.ID
		return result
	} else if !errors.Is(err, sql.ErrNoRows) {
		result.Status = models.ImportStatusError
		result.Error = models.ImportErrorDownloadFailed
		return result
	}

	path := s.storage.AllocatePath(name)

	hash, written, err := s.fetchContent(ctx, client, driveFileID, path, size)
	if err != nil {
		s.logger.Warn("content fetch failed",
			zap.String("drive_file_id", driveFileID),
			zap.Error(err))
		if removeErr := s.storage.Remove(path); removeErr != nil {
			s.logger.Warn("failed to remove partial file", zap.String("path", path), zap.Error(removeErr))
		}
		result.Status = models.ImportStatusError
		result.Error = models.ImportErrorDownloadFailed
		return result
	}
	if size == nil {
		size = &written
	}

	// Content-hash dedup runs after the bytes land; the duplicate path must
	// not leave an orphaned file behind.
	if existing, err := s.files.FindByOwnerAndSHA256(ctx, actor.ID, hash); err == nil {
		s.removeOrphan(path)
		result.Status = models.ImportStatusDuplicate
		result.DuplicateBy = models.DuplicateBySHA256
		result.FileID = existing.ID
		return result
	} else if !errors.Is(err, sql.ErrNoRows) {
		s.removeOrphan(path)
		result.Status = models.ImportStatusError
		result.Error = models.ImportErrorDownloadFailed
		return result
	}

	file := &models.File{
		ID:          uuid.NewString(),
		UserID:      actor.ID,
		DriveFileID: &driveFileID,
		Name:        name,
		LocalPath:   path,
		SHA256:      &hash,
		SizeBytes:   size,
	}
	if meta.MimeType != "" {
		file.MimeType = &meta.MimeType
	}

	if err := s.files.Create(ctx, file); err != nil {
		// A uniqueness violation here is a concurrent import winning the
		// race: a late-detected duplicate, not a failure.
		switch {
		case errors.Is(err, repository.ErrDuplicateDriveFileID):
			s.removeOrphan(path)
			result.Status = models.ImportStatusDuplicate
			result.DuplicateBy = models.DuplicateByDriveFileID
			if existing, err := s.files.FindByOwnerAndDriveID(ctx, actor.ID, driveFileID); err == nil {
				result.FileID = existing.ID
			}
			return result
		case errors.Is(err, repository.ErrDuplicateSHA256):
			s.removeOrphan(path)
			result.Status = models.ImportStatusDuplicate
			result.DuplicateBy = models.DuplicateBySHA256
			if existing, err := s.files.FindByOwnerAndSHA256(ctx, actor.ID, hash); err == nil {
				result.FileID = existing.ID
			}
			return result
		}
		s.logger.Error("failed to persist file record",
			zap.String("drive_file_id", driveFileID),
			zap.Error(err))
		s.removeOrphan(path)
		result.Status = models.ImportStatusError
		result.Error = models.ImportErrorDownloadFailed
		return result
	}

	result.Status = models.ImportStatusImported
	result.FileID = file.ID
	return result
}

// fetchContent transfers the remote bytes to path and returns their hash.
// Small payloads are fetched buffered; large or unknown-size ones are
// streamed, and a failed buffered fetch falls back to streaming once.
func (s *ImportService) fetchContent(ctx context.Context, client ContentClient, driveFileID, path string, declaredSize *int64) (string, int64, error) {
	if declaredSize == nil || *declaredSize <= maxBufferedSize {
		data, err := client.Download(ctx, driveFileID)
		if err == nil {
			hash, werr := s.storage.WriteFile(path, data)
			return hash, int64(len(data)), werr
		}
		if errors.Is(err, drive.ErrUnauthorized) {
			return "", 0, err
		}
	}

	rc, err := client.DownloadStream(ctx, driveFileID)
	if err != nil {
		return "", 0, err
	}
	defer rc.Close()
	return s.storage.WriteStream(path, rc)
}

// linkImported links every imported outcome into the room in one pass.
// Linking is idempotent and a single link failure does not affect the import
// results already reported.
func (s *ImportService) linkImported(ctx context.Context, actor *models.User, roomID string, results []models.ImportResult, reqCtx models.RequestContext) {
	for _, result := range results {
		if result.Status != models.ImportStatusImported {
			continue
		}
		link := &models.FileRoomLink{
			ID:     uuid.NewString(),
			FileID: result.FileID,
			RoomID: roomID,
		}
		if err := s.rooms.LinkFile(ctx, link); err != nil {
			s.logger.Warn("failed to link imported file",
				zap.String("file_id", result.FileID),
				zap.String("room_id", roomID),
				zap.Error(err))
			continue
		}
		fileID := result.FileID
		s.audit.Record(ctx, &models.AuditLog{
			ActorUserID: &actor.ID,
			Action:      models.AuditActionFileLink,
			ObjectType:  strPtr("file"),
			ObjectID:    &fileID,
			RoomID:      &roomID,
			IPAddress:   reqCtx.IP,
			UserAgent:   reqCtx.UserAgent,
		})
	}
}

func (s *ImportService) removeOrphan(path string) {
	if err := s.storage.Remove(path); err != nil {
		s.logger.Warn("failed to remove orphaned file", zap.String("path", path), zap.Error(err))
	}
}
