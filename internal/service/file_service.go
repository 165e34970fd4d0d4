package service

import (
	"context"
	"database/sql"
	"errors"
	"os"

	"go.uber.org/zap"

	"github.com/noah-isme/dataroom-api/internal/models"
	appErrors "github.com/noah-isme/dataroom-api/pkg/errors"
)

type fileRepository interface {
	FindByID(ctx context.Context, id string) (*models.File, error)
	ListByOwner(ctx context.Context, userID string) ([]models.File, error)
	Delete(ctx context.Context, id string) error
}

// FileService covers owner-scoped file operations: a caller only ever sees
// their own records. A file that exists but belongs to someone else is
// indistinguishable from one that does not exist.
type FileService struct {
	files   fileRepository
	storage fileContentStore
	logger  *zap.Logger
}

// NewFileService constructs a FileService instance.
func NewFileService(files fileRepository, storage fileContentStore, logger *zap.Logger) *FileService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FileService{files: files, storage: storage, logger: logger}
}

// ListFiles returns the actor's imported files.
func (s *FileService) ListFiles(ctx context.Context, actor *models.User) ([]models.File, error) {
	if actor == nil {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "authentication required")
	}
	files, err := s.files.ListByOwner(ctx, actor.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list files")
	}
	return files, nil
}

// PreviewFile opens an owned file for reading. The caller owns closing the
// returned handle.
func (s *FileService) PreviewFile(ctx context.Context, actor *models.User, fileID string) (*models.File, *os.File, error) {
	file, err := s.ownedFile(ctx, actor, fileID)
	if err != nil {
		return nil, nil, err
	}
	handle, err := s.storage.Open(file.LocalPath)
	if err != nil {
		return nil, nil, appErrors.Clone(appErrors.ErrNotFound, "file content missing from storage")
	}
	return file, handle, nil
}

// DeleteFile removes an owned file: bytes first (best-effort), then the
// record, cascading its room links.
func (s *FileService) DeleteFile(ctx context.Context, actor *models.User, fileID string) error {
	file, err := s.ownedFile(ctx, actor, fileID)
	if err != nil {
		return err
	}

	if err := s.storage.Remove(file.LocalPath); err != nil {
		s.logger.Warn("failed to remove file content",
			zap.String("file_id", file.ID),
			zap.Error(err))
	}
	if err := s.files.Delete(ctx, file.ID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete file record")
	}
	return nil
}

func (s *FileService) ownedFile(ctx context.Context, actor *models.User, fileID string) (*models.File, error) {
	if actor == nil {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "authentication required")
	}
	file, err := s.files.FindByID(ctx, fileID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "file not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load file")
	}
	if file.UserID != actor.ID {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "file not found")
	}
	return file, nil
}
