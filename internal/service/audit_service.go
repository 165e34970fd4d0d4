package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/dataroom-api/internal/models"
	appErrors "github.com/noah-isme/dataroom-api/pkg/errors"
	"github.com/noah-isme/dataroom-api/pkg/export"
)

// Supported audit export formats.
const (
	ExportFormatCSV = "csv"
	ExportFormatPDF = "pdf"
)

type auditRepository interface {
	Create(ctx context.Context, entry *models.AuditLog) error
	ListByRoom(ctx context.Context, roomID string) ([]models.AuditLog, error)
}

type auditRoomRepository interface {
	FindRoomByID(ctx context.Context, id string) (*models.Room, error)
	GetMembership(ctx context.Context, userID, roomID string) (*models.Membership, error)
}

// AuditService appends immutable entries for privileged actions and exports
// a room's trail for its administrators.
type AuditService struct {
	entries auditRepository
	rooms   auditRoomRepository
	csv     *export.CSVExporter
	pdf     *export.PDFExporter
	logger  *zap.Logger
}

// NewAuditService constructs an AuditService instance.
func NewAuditService(entries auditRepository, rooms auditRoomRepository, logger *zap.Logger) *AuditService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuditService{
		entries: entries,
		rooms:   rooms,
		csv:     export.NewCSVExporter(),
		pdf:     export.NewPDFExporter(),
		logger:  logger,
	}
}

// Record appends one audit entry. The trail is advisory: a failed write is
// logged and swallowed so it never aborts the action it describes.
func (s *AuditService) Record(ctx context.Context, entry *models.AuditLog) {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if err := s.entries.Create(ctx, entry); err != nil {
		s.logger.Warn("failed to record audit entry",
			zap.String("action", entry.Action),
			zap.Error(err))
	}
}

// ExportRoomTrail renders the room's audit trail in the requested format.
// Requires admin or owner on the room.
func (s *AuditService) ExportRoomTrail(ctx context.Context, actor *models.User, roomID, format string) ([]byte, string, error) {
	if format != ExportFormatCSV && format != ExportFormatPDF {
		return nil, "", appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", format))
	}

	room, err := s.rooms.FindRoomByID(ctx, roomID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, "", appErrors.Clone(appErrors.ErrNotFound, "room not found")
		}
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load room")
	}
	if actor == nil {
		return nil, "", appErrors.Clone(appErrors.ErrUnauthorized, "authentication required")
	}
	membership, err := s.rooms.GetMembership(ctx, actor.ID, roomID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, "", appErrors.Clone(appErrors.ErrForbidden, "not a member of this room")
		}
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load membership")
	}
	if !membership.Role.AtLeast(models.RoleAdmin) {
		return nil, "", appErrors.Clone(appErrors.ErrForbidden, "admin role required to export the audit trail")
	}

	trail, err := s.entries.ListByRoom(ctx, roomID)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load audit trail")
	}

	dataset := auditDataset(trail)
	switch format {
	case ExportFormatPDF:
		content, err := s.pdf.Render(dataset, fmt.Sprintf("Audit Trail - %s", room.Name))
		if err != nil {
			return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf")
		}
		return content, "application/pdf", nil
	default:
		content, err := s.csv.Render(dataset)
		if err != nil {
			return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv")
		}
		return content, "text/csv", nil
	}
}

func auditDataset(trail []models.AuditLog) export.Dataset {
	dataset := export.Dataset{
		Headers: []string{"Time", "Actor", "Action", "Object Type", "Object ID", "IP Address", "User Agent"},
	}
	for _, entry := range trail {
		row := map[string]string{
			"Time":       entry.CreatedAt.UTC().Format(time.RFC3339),
			"Action":     entry.Action,
			"IP Address": entry.IPAddress,
			"User Agent": entry.UserAgent,
		}
		if entry.ActorUserID != nil {
			row["Actor"] = *entry.ActorUserID
		}
		if entry.ObjectType != nil {
			row["Object Type"] = *entry.ObjectType
		}
		if entry.ObjectID != nil {
			row["Object ID"] = *entry.ObjectID
		}
		dataset.Rows = append(dataset.Rows, row)
	}
	return dataset
}
