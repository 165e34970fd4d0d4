package service

import (
	"context"
	"database/sql"
	"errors"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/dataroom-api/internal/dto"
	"github.com/noah-isme/dataroom-api/internal/models"
	appErrors "github.com/noah-isme/dataroom-api/pkg/errors"
)

type roomRepository interface {
	CreateRoom(ctx context.Context, room *models.Room) error
	FindRoomByID(ctx context.Context, id string) (*models.Room, error)
	ListRoomsForUser(ctx context.Context, userID string) ([]models.RoomWithRole, error)
	GetMembership(ctx context.Context, userID, roomID string) (*models.Membership, error)
	UpsertMembership(ctx context.Context, membership *models.Membership) error
	ListMembers(ctx context.Context, roomID string) ([]models.Member, error)
	LinkFile(ctx context.Context, link *models.FileRoomLink) error
	GetLink(ctx context.Context, fileID, roomID string) (*models.FileRoomLink, error)
}

type roomUserRepository interface {
	FindOrCreateByEmail(ctx context.Context, email string) (*models.User, error)
}

type roomFileRepository interface {
	FindByID(ctx context.Context, id string) (*models.File, error)
	ListByRoom(ctx context.Context, roomID string) ([]models.RoomFile, error)
	Delete(ctx context.Context, id string) error
}

type fileContentStore interface {
	Open(path string) (*os.File, error)
	Remove(path string) error
}

type auditRecorder interface {
	Record(ctx context.Context, entry *models.AuditLog)
}

// RoomService owns the role lattice and every room-scoped operation. All
// authorization decisions funnel through authorize; the public-room carve-out
// is evaluated only when no authenticated identity is present.
type RoomService struct {
	rooms        roomRepository
	users        roomUserRepository
	files        roomFileRepository
	storage      fileContentStore
	audit        auditRecorder
	validator    *validator.Validate
	logger       *zap.Logger
	publicRoomID string
}

// NewRoomService constructs a RoomService instance.
func NewRoomService(rooms roomRepository, users roomUserRepository, files roomFileRepository, storage fileContentStore, audit auditRecorder, validate *validator.Validate, logger *zap.Logger, publicRoomID string) *RoomService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	svc := &RoomService{
		rooms:        rooms,
		users:        users,
		files:        files,
		storage:      storage,
		audit:        audit,
		validator:    validate,
		logger:       logger,
		publicRoomID: publicRoomID,
	}
	_ = svc.validator.RegisterValidation("room_role", func(fl validator.FieldLevel) bool {
		_, err := models.ParseRole(fl.Field().String())
		return err == nil
	})
	return svc
}

// authorize resolves the caller's standing in the room. An anonymous caller is
// admitted as an implicit viewer only when publicRead is set and the room is
// the configured public room; an authenticated caller is never routed through
// that branch, regardless of membership.
func (s *RoomService) authorize(ctx context.Context, actor *models.User, roomID string, min models.Role, publicRead bool) (*models.Room, error) {
	room, err := s.rooms.FindRoomByID(ctx, roomID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "room not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load room")
	}

	if actor == nil {
		if publicRead && s.publicRoomID != "" && roomID == s.publicRoomID {
			return room, nil
		}
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "authentication required")
	}

	membership, err := s.rooms.GetMembership(ctx, actor.ID, roomID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "not a member of this room")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load membership")
	}
	if !membership.Role.AtLeast(min) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "insufficient role for this operation")
	}
	return room, nil
}

// CreateRoom creates a room and enrolls the creator as owner.
func (s *RoomService) CreateRoom(ctx context.Context, actor *models.User, req dto.CreateRoomRequest, reqCtx models.RequestContext) (*models.RoomWithRole, error) {
	if actor == nil {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "authentication required")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload")
	}

	room := &models.Room{
		ID:   uuid.NewString(),
		Name: req.Name,
	}
	if err := s.rooms.CreateRoom(ctx, room); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create room")
	}

	membership := &models.Membership{
		ID:     uuid.NewString(),
		UserID: actor.ID,
		RoomID: room.ID,
		Role:   models.RoleOwner,
	}
	if err := s.rooms.UpsertMembership(ctx, membership); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to enroll room owner")
	}

	s.audit.Record(ctx, &models.AuditLog{
		ActorUserID: &actor.ID,
		Action:      models.AuditActionRoomCreate,
		ObjectType:  strPtr("room"),
		ObjectID:    &room.ID,
		RoomID:      &room.ID,
		IPAddress:   reqCtx.IP,
		UserAgent:   reqCtx.UserAgent,
	})

	return &models.RoomWithRole{Room: *room, Role: models.RoleOwner}, nil
}

// ListRooms returns the rooms the actor belongs to, with their role in each.
func (s *RoomService) ListRooms(ctx context.Context, actor *models.User) ([]models.RoomWithRole, error) {
	if actor == nil {
		// Anonymous callers see only the public room, as implicit viewers.
		if s.publicRoomID != "" {
			if room, err := s.rooms.FindRoomByID(ctx, s.publicRoomID); err == nil {
				return []models.RoomWithRole{{Room: *room, Role: models.RoleViewer}}, nil
			}
		}
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "authentication required")
	}
	rooms, err := s.rooms.ListRoomsForUser(ctx, actor.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list rooms")
	}
	return rooms, nil
}

// AddMember adds a user to the room or updates their role in place. The target
// identity is created on first sight. Requires admin or owner.
func (s *RoomService) AddMember(ctx context.Context, actor *models.User, roomID string, req dto.AddMemberRequest, reqCtx models.RequestContext) (*models.Member, error) {
	if _, err := s.authorize(ctx, actor, roomID, models.RoleAdmin, false); err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload")
	}

	role, err := models.ParseRole(req.Role)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
	}

	target, err := s.users.FindOrCreateByEmail(ctx, req.Email)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve member")
	}

	membership := &models.Membership{
		ID:     uuid.NewString(),
		UserID: target.ID,
		RoomID: roomID,
		Role:   role,
	}
	if err := s.rooms.UpsertMembership(ctx, membership); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save membership")
	}

	s.audit.Record(ctx, &models.AuditLog{
		ActorUserID: &actor.ID,
		Action:      models.AuditActionMemberAdd,
		ObjectType:  strPtr("user"),
		ObjectID:    &target.ID,
		RoomID:      &roomID,
		IPAddress:   reqCtx.IP,
		UserAgent:   reqCtx.UserAgent,
	})

	return &models.Member{Email: target.Email, Role: role}, nil
}

// ListMembers returns the room's membership roster. Any member may call it.
func (s *RoomService) ListMembers(ctx context.Context, actor *models.User, roomID string) ([]models.Member, error) {
	if _, err := s.authorize(ctx, actor, roomID, models.RoleViewer, false); err != nil {
		return nil, err
	}
	members, err := s.rooms.ListMembers(ctx, roomID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list members")
	}
	return members, nil
}

// ListRoomFiles returns the files linked into the room. Any member may call
// it; unauthenticated callers are admitted for the public room only.
func (s *RoomService) ListRoomFiles(ctx context.Context, actor *models.User, roomID string) ([]models.RoomFile, error) {
	if _, err := s.authorize(ctx, actor, roomID, models.RoleViewer, true); err != nil {
		return nil, err
	}
	files, err := s.files.ListByRoom(ctx, roomID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list room files")
	}
	return files, nil
}

// LinkFile links a file owned by the actor into the room. Requires editor or
// higher. Linking is idempotent: relinking an already-linked file succeeds.
func (s *RoomService) LinkFile(ctx context.Context, actor *models.User, roomID, fileID string, reqCtx models.RequestContext) error {
	if _, err := s.authorize(ctx, actor, roomID, models.RoleEditor, false); err != nil {
		return err
	}

	file, err := s.files.FindByID(ctx, fileID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "file not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load file")
	}
	if file.UserID != actor.ID {
		return appErrors.Clone(appErrors.ErrNotFound, "file not found")
	}

	link := &models.FileRoomLink{
		ID:     uuid.NewString(),
		FileID: fileID,
		RoomID: roomID,
	}
	if err := s.rooms.LinkFile(ctx, link); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to link file")
	}

	s.audit.Record(ctx, &models.AuditLog{
		ActorUserID: &actor.ID,
		Action:      models.AuditActionFileLink,
		ObjectType:  strPtr("file"),
		ObjectID:    &fileID,
		RoomID:      &roomID,
		IPAddress:   reqCtx.IP,
		UserAgent:   reqCtx.UserAgent,
	})

	return nil
}

// PreviewRoomFile opens a file linked into the room for reading. Any member
// may call it; unauthenticated callers are admitted for the public room only.
// The caller owns closing the returned handle.
func (s *RoomService) PreviewRoomFile(ctx context.Context, actor *models.User, roomID, fileID string, reqCtx models.RequestContext) (*models.File, *os.File, error) {
	if _, err := s.authorize(ctx, actor, roomID, models.RoleViewer, true); err != nil {
		return nil, nil, err
	}

	file, err := s.roomFile(ctx, roomID, fileID)
	if err != nil {
		return nil, nil, err
	}

	handle, err := s.storage.Open(file.LocalPath)
	if err != nil {
		return nil, nil, appErrors.Clone(appErrors.ErrNotFound, "file content missing from storage")
	}

	entry := &models.AuditLog{
		Action:     models.AuditActionFilePreview,
		ObjectType: strPtr("file"),
		ObjectID:   &fileID,
		RoomID:     &roomID,
		IPAddress:  reqCtx.IP,
		UserAgent:  reqCtx.UserAgent,
	}
	if actor != nil {
		entry.ActorUserID = &actor.ID
	}
	s.audit.Record(ctx, entry)

	return file, handle, nil
}

// DeleteRoomFile removes a file linked into the room: bytes first
// (best-effort), then the record, cascading its room links. Requires editor or
// higher and the acting identity must be the file's recorded owner.
func (s *RoomService) DeleteRoomFile(ctx context.Context, actor *models.User, roomID, fileID string, reqCtx models.RequestContext) error {
	if _, err := s.authorize(ctx, actor, roomID, models.RoleEditor, false); err != nil {
		return err
	}

	file, err := s.roomFile(ctx, roomID, fileID)
	if err != nil {
		return err
	}
	if file.UserID != actor.ID {
		return appErrors.Clone(appErrors.ErrForbidden, "only the file owner may delete it")
	}

	if err := s.storage.Remove(file.LocalPath); err != nil {
		s.logger.Warn("failed to remove file content",
			zap.String("file_id", file.ID),
			zap.Error(err))
	}
	if err := s.files.Delete(ctx, file.ID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete file record")
	}

	s.audit.Record(ctx, &models.AuditLog{
		ActorUserID: &actor.ID,
		Action:      models.AuditActionFileDelete,
		ObjectType:  strPtr("file"),
		ObjectID:    &fileID,
		RoomID:      &roomID,
		IPAddress:   reqCtx.IP,
		UserAgent:   reqCtx.UserAgent,
	})

	return nil
}

// roomFile loads a file after verifying the (file, room) link exists.
func (s *RoomService) roomFile(ctx context.Context, roomID, fileID string) (*models.File, error) {
	if _, err := s.rooms.GetLink(ctx, fileID, roomID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "file not found in room")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load file link")
	}

	file, err := s.files.FindByID(ctx, fileID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "file not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load file")
	}
	return file, nil
}

func strPtr(s string) *string {
	return &s
}
