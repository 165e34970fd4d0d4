package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/dataroom-api/internal/models"
	"github.com/noah-isme/dataroom-api/internal/repository"
)

const seedOwnerEmail = "demo@example.com"

var seedDocuments = []struct {
	name    string
	content string
}{
	{"welcome.txt", "Welcome to the demo data room.\n\nThis room is readable without signing in.\n"},
	{"getting-started.txt", "Connect a Google account to import your own documents,\nthen share them by linking files into rooms.\n"},
}

type seedRoomRepository interface {
	FindRoomByID(ctx context.Context, id string) (*models.Room, error)
	CreateRoom(ctx context.Context, room *models.Room) error
	UpsertMembership(ctx context.Context, membership *models.Membership) error
	LinkFile(ctx context.Context, link *models.FileRoomLink) error
}

type seedFileRepository interface {
	Create(ctx context.Context, file *models.File) error
	FindByOwnerAndSHA256(ctx context.Context, userID, sha256 string) (*models.File, error)
}

// SeedService bootstraps a demo room with sample documents so a fresh
// deployment has something to show. Running it twice is harmless.
type SeedService struct {
	users    roomUserRepository
	rooms    seedRoomRepository
	files    seedFileRepository
	storage  importStorage
	logger   *zap.Logger
	roomID   string
	roomName string
}

// NewSeedService constructs a SeedService instance. roomID is typically the
// configured public room id; empty means a random id.
func NewSeedService(users roomUserRepository, rooms seedRoomRepository, files seedFileRepository, store importStorage, logger *zap.Logger, roomID, roomName string) *SeedService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if roomID == "" {
		roomID = uuid.NewString()
	}
	if roomName == "" {
		roomName = "Demo Room"
	}
	return &SeedService{
		users:    users,
		rooms:    rooms,
		files:    files,
		storage:  store,
		logger:   logger,
		roomID:   roomID,
		roomName: roomName,
	}
}

// Run creates the demo owner, room and sample files if they do not exist.
func (s *SeedService) Run(ctx context.Context) error {
	owner, err := s.users.FindOrCreateByEmail(ctx, seedOwnerEmail)
	if err != nil {
		return err
	}

	if _, err := s.rooms.FindRoomByID(ctx, s.roomID); err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			return err
		}
		room := &models.Room{ID: s.roomID, Name: s.roomName}
		if err := s.rooms.CreateRoom(ctx, room); err != nil {
			return err
		}
		s.logger.Info("seeded demo room", zap.String("room_id", s.roomID))
	}

	membership := &models.Membership{
		ID:     uuid.NewString(),
		UserID: owner.ID,
		RoomID: s.roomID,
		Role:   models.RoleOwner,
	}
	if err := s.rooms.UpsertMembership(ctx, membership); err != nil {
		return err
	}

	for _, doc := range seedDocuments {
		fileID, err := s.seedFile(ctx, owner, doc.name, []byte(doc.content))
		if err != nil {
			return err
		}
		link := &models.FileRoomLink{
			ID:     uuid.NewString(),
			FileID: fileID,
			RoomID: s.roomID,
		}
		if err := s.rooms.LinkFile(ctx, link); err != nil {
			return err
		}
	}
	return nil
}

// seedFile writes one sample document, reusing an existing record when the
// same content was seeded before.
func (s *SeedService) seedFile(ctx context.Context, owner *models.User, name string, content []byte) (string, error) {
	path := s.storage.AllocatePath(name)
	hash, err := s.storage.WriteFile(path, content)
	if err != nil {
		return "", err
	}

	if existing, err := s.files.FindByOwnerAndSHA256(ctx, owner.ID, hash); err == nil {
		s.removeSeedOrphan(path)
		return existing.ID, nil
	} else if !errors.Is(err, sql.ErrNoRows) {
		s.removeSeedOrphan(path)
		return "", err
	}

	size := int64(len(content))
	mime := "text/plain"
	file := &models.File{
		ID:        uuid.NewString(),
		UserID:    owner.ID,
		Name:      name,
		MimeType:  &mime,
		SizeBytes: &size,
		LocalPath: path,
		SHA256:    &hash,
	}
	if err := s.files.Create(ctx, file); err != nil {
		if errors.Is(err, repository.ErrDuplicateSHA256) {
			s.removeSeedOrphan(path)
			if existing, ferr := s.files.FindByOwnerAndSHA256(ctx, owner.ID, hash); ferr == nil {
				return existing.ID, nil
			}
		}
		s.removeSeedOrphan(path)
		return "", err
	}
	return file.ID, nil
}

func (s *SeedService) removeSeedOrphan(path string) {
	if err := s.storage.Remove(path); err != nil {
		s.logger.Warn("failed to remove seed file", zap.String("path", path), zap.Error(err))
	}
}
