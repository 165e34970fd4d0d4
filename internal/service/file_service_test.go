package service

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/dataroom-api/internal/models"
	appErrors "github.com/noah-isme/dataroom-api/pkg/errors"
)

type fileRepoStub struct {
	files   map[string]*models.File
	deleted []string
}

func newFileRepoStub() *fileRepoStub {
	return &fileRepoStub{files: map[string]*models.File{}}
}

func (s *fileRepoStub) FindByID(_ context.Context, id string) (*models.File, error) {
	file, ok := s.files[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	clone := *file
	return &clone, nil
}

func (s *fileRepoStub) ListByOwner(_ context.Context, userID string) ([]models.File, error) {
	var out []models.File
	for _, file := range s.files {
		if file.UserID == userID {
			out = append(out, *file)
		}
	}
	return out, nil
}

func (s *fileRepoStub) Delete(_ context.Context, id string) error {
	delete(s.files, id)
	s.deleted = append(s.deleted, id)
	return nil
}

func fileServiceFixture(t *testing.T) (*FileService, *fileRepoStub, string) {
	t.Helper()
	repo := newFileRepoStub()
	return NewFileService(repo, &contentStoreStub{}, nil), repo, t.TempDir()
}

func TestListFilesScopedToOwner(t *testing.T) {
	svc, repo, _ := fileServiceFixture(t)
	repo.files["f1"] = &models.File{ID: "f1", UserID: "alice"}
	repo.files["f2"] = &models.File{ID: "f2", UserID: "bob"}

	files, err := svc.ListFiles(context.Background(), &models.User{ID: "alice"})
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "f1", files[0].ID)
}

func TestListFilesRequiresAuthentication(t *testing.T) {
	svc, _, _ := fileServiceFixture(t)

	_, err := svc.ListFiles(context.Background(), nil)
	requireAppError(t, err, appErrors.ErrUnauthorized.Code)
}

// A file owned by someone else must be indistinguishable from a missing one.
func TestForeignFileLooksMissing(t *testing.T) {
	svc, repo, _ := fileServiceFixture(t)
	repo.files["f1"] = &models.File{ID: "f1", UserID: "bob", LocalPath: "/nowhere"}

	_, _, err := svc.PreviewFile(context.Background(), &models.User{ID: "alice"}, "f1")
	requireAppError(t, err, appErrors.ErrNotFound.Code)

	err = svc.DeleteFile(context.Background(), &models.User{ID: "alice"}, "f1")
	requireAppError(t, err, appErrors.ErrNotFound.Code)
	assert.Contains(t, repo.files, "f1")
}

func TestPreviewFileOpensContent(t *testing.T) {
	svc, repo, dir := fileServiceFixture(t)
	path := filepath.Join(dir, "doc.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello"), 0o644))
	repo.files["f1"] = &models.File{ID: "f1", UserID: "alice", LocalPath: path}

	file, handle, err := svc.PreviewFile(context.Background(), &models.User{ID: "alice"}, "f1")
	require.NoError(t, err)
	defer handle.Close()
	assert.Equal(t, "f1", file.ID)

	buf := make([]byte, 5)
	_, err = handle.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(buf))
}

func TestPreviewFileMissingContent(t *testing.T) {
	svc, repo, dir := fileServiceFixture(t)
	repo.files["f1"] = &models.File{ID: "f1", UserID: "alice", LocalPath: filepath.Join(dir, "gone.txt")}

	_, _, err := svc.PreviewFile(context.Background(), &models.User{ID: "alice"}, "f1")
	requireAppError(t, err, appErrors.ErrNotFound.Code)
}

func TestDeleteFileRemovesRecordAndBytes(t *testing.T) {
	svc, repo, dir := fileServiceFixture(t)
	path := filepath.Join(dir, "doc.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello"), 0o644))
	repo.files["f1"] = &models.File{ID: "f1", UserID: "alice", LocalPath: path}

	require.NoError(t, svc.DeleteFile(context.Background(), &models.User{ID: "alice"}, "f1"))
	assert.Equal(t, []string{"f1"}, repo.deleted)
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

// Missing bytes must not block deleting the record.
func TestDeleteFileToleratesMissingBytes(t *testing.T) {
	svc, repo, dir := fileServiceFixture(t)
	repo.files["f1"] = &models.File{ID: "f1", UserID: "alice", LocalPath: filepath.Join(dir, "gone.txt")}

	require.NoError(t, svc.DeleteFile(context.Background(), &models.User{ID: "alice"}, "f1"))
	assert.Equal(t, []string{"f1"}, repo.deleted)
}
