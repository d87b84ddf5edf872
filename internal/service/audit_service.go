package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
	"gorm.io/datatypes"

	"github.com/campushq/campus-api/internal/authz"
	"github.com/campushq/campus-api/internal/dto"
	"github.com/campushq/campus-api/internal/models"
	"github.com/campushq/campus-api/internal/repository"
)

// AuditEntry captures the details required to persist a governance event.
type AuditEntry struct {
	CentreID   uint
	ActorID    uint
	ActorRole  models.Role
	Action     string
	EntityType string
	EntityID   *uint
	Metadata   map[string]interface{}
}

// AuditRecorder defines behaviour for recording governance events.
type AuditRecorder interface {
	Record(ctx context.Context, entry AuditEntry) error
}

// AuditService records and queries the append-only governance log.
type AuditService interface {
	AuditRecorder
	List(ctx context.Context, actor authz.Actor, page, pageSize int) ([]dto.AuditLogResponse, int64, error)
}

type auditService struct {
	repo    repository.AuditLogRepository
	nats    *nats.Conn
	subject string
	logger  zerolog.Logger
}

// NewAuditService constructs the audit service. The NATS connection is
// optional; when nil, events are persisted without fan-out.
func NewAuditService(repo repository.AuditLogRepository, natsConn *nats.Conn, subject string, logger zerolog.Logger) AuditService {
	return &auditService{
		repo:    repo,
		nats:    natsConn,
		subject: subject,
		logger:  logger.With().Str("component", "audit_service").Logger(),
	}
}

func (s *auditService) Record(ctx context.Context, entry AuditEntry) error {
	if strings.TrimSpace(entry.Action) == "" {
		return fmt.Errorf("audit action is required")
	}
	if strings.TrimSpace(entry.EntityType) == "" {
		return fmt.Errorf("audit entity type is required")
	}

	model := models.AuditLog{
		CentreID:   entry.CentreID,
		ActorID:    entry.ActorID,
		ActorRole:  entry.ActorRole,
		Action:     strings.ToLower(strings.TrimSpace(entry.Action)),
		EntityType: strings.ToLower(strings.TrimSpace(entry.EntityType)),
		EntityID:   entry.EntityID,
		Metadata:   datatypes.JSONMap(entry.Metadata),
	}

	if err := s.repo.Create(ctx, &model); err != nil {
		return fmt.Errorf("failed to persist audit event: %w", err)
	}

	s.publish(model)

	return nil
}

// publish mirrors the persisted event to NATS. Fan-out is best effort; a
// failed publish never fails the mutation it accompanies.
func (s *auditService) publish(model models.AuditLog) {
	if s.nats == nil || s.subject == "" {
		return
	}

	payload, err := json.Marshal(dto.NewAuditLogResponse(model))
	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to serialize audit event")
		return
	}

	if err := s.nats.Publish(s.subject, payload); err != nil {
		s.logger.Warn().Err(err).Str("subject", s.subject).Msg("failed to publish audit event")
	}
}

func (s *auditService) List(ctx context.Context, actor authz.Actor, page, pageSize int) ([]dto.AuditLogResponse, int64, error) {
	filter := repository.AuditLogFilter{Page: page, PageSize: pageSize}
	if actor.Role != models.RoleSuperAdmin {
		centreID := actor.CentreID
		filter.CentreID = &centreID
	}

	entries, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	return dto.NewAuditLogResponseSlice(entries), total, nil
}
