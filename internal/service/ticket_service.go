package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/campushq/campus-api/internal/authz"
	"github.com/campushq/campus-api/internal/dto"
	"github.com/campushq/campus-api/internal/models"
	"github.com/campushq/campus-api/internal/repository"
)

// Ticket error sentinels.
var (
	ErrTicketNotFound     = errors.New("ticket not found")
	ErrTicketAtMaxLevel   = errors.New("ticket is already at the highest priority")
	ErrTicketNotEscalable = errors.New("only open or in-progress tickets can be escalated")
)

// TicketService manages support tickets and their escalation workflow.
type TicketService interface {
	Create(ctx context.Context, actor authz.Actor, payload dto.TicketCreateRequest) (dto.TicketResponse, error)
	Get(ctx context.Context, actor authz.Actor, id uint) (dto.TicketResponse, error)
	List(ctx context.Context, actor authz.Actor, page, pageSize int) ([]dto.TicketResponse, int64, error)
	Escalate(ctx context.Context, actor authz.Actor, id uint) (dto.TicketResponse, error)
	Resolve(ctx context.Context, actor authz.Actor, id uint) (dto.TicketResponse, error)
}

type ticketService struct {
	repo      repository.TicketRepository
	audit     AuditRecorder
	validator *validator.Validate
	sanitizer *bluemonday.Policy
	logger    zerolog.Logger
	now       func() time.Time
}

// NewTicketService builds a new ticket service.
func NewTicketService(repo repository.TicketRepository, audit AuditRecorder, validate *validator.Validate, logger zerolog.Logger) TicketService {
	return &ticketService{
		repo:      repo,
		audit:     audit,
		validator: validate,
		sanitizer: bluemonday.StrictPolicy(),
		logger:    logger.With().Str("component", "ticket_service").Logger(),
		now:       time.Now,
	}
}

func (s *ticketService) Create(ctx context.Context, actor authz.Actor, payload dto.TicketCreateRequest) (dto.TicketResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.TicketResponse{}, err
	}

	subject := strings.TrimSpace(s.sanitizer.Sanitize(payload.Subject))
	description := strings.TrimSpace(s.sanitizer.Sanitize(payload.Description))
	if subject == "" || description == "" {
		return dto.TicketResponse{}, errors.New("subject and description must not be empty after sanitization")
	}

	now := s.now().UTC()
	ticket := models.Ticket{
		CentreID:    actor.CentreID,
		OpenedByID:  actor.UserID,
		Type:        payload.Type,
		Priority:    models.TicketPriority(payload.Priority),
		Status:      models.TicketStatusOpen,
		Subject:     subject,
		Description: description,
		SLADueAt:    now.Add(models.TicketSLA),
		CreatedAt:   now,
	}

	if err := s.repo.Create(ctx, &ticket); err != nil {
		return dto.TicketResponse{}, err
	}

	s.logger.Info().Uint("ticket_id", ticket.ID).Str("number", ticket.Number).Msg("ticket created")

	return dto.NewTicketResponse(ticket), nil
}

func (s *ticketService) Get(ctx context.Context, actor authz.Actor, id uint) (dto.TicketResponse, error) {
	ticket, err := s.load(ctx, id)
	if err != nil {
		return dto.TicketResponse{}, err
	}

	if err := authz.Decide(actor, authz.Resource{CentreID: ticket.CentreID, OwnerID: ticket.OpenedByID}); err != nil {
		return dto.TicketResponse{}, err
	}

	return dto.NewTicketResponse(ticket), nil
}

func (s *ticketService) List(ctx context.Context, actor authz.Actor, page, pageSize int) ([]dto.TicketResponse, int64, error) {
	filter := repository.TicketFilter{Page: page, PageSize: pageSize}

	switch {
	case actor.Role == models.RoleSuperAdmin:
		// Unscoped.
	case actor.Role.IsStaff():
		centreID := actor.CentreID
		filter.CentreID = &centreID
	default:
		centreID := actor.CentreID
		openedBy := actor.UserID
		filter.CentreID = &centreID
		filter.OpenedByID = &openedBy
	}

	tickets, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	return dto.NewTicketResponseSlice(tickets), total, nil
}

// Escalate bumps the ticket one priority level and records an audit event.
// An URGENT ticket has nowhere to go and is rejected rather than silently
// accepted.
func (s *ticketService) Escalate(ctx context.Context, actor authz.Actor, id uint) (dto.TicketResponse, error) {
	ticket, err := s.load(ctx, id)
	if err != nil {
		return dto.TicketResponse{}, err
	}

	if err := authz.DecideTenant(actor, ticket.CentreID); err != nil {
		return dto.TicketResponse{}, err
	}

	if ticket.Status != models.TicketStatusOpen && ticket.Status != models.TicketStatusInProgress {
		return dto.TicketResponse{}, ErrTicketNotEscalable
	}

	previous := ticket.Priority
	next, ok := previous.Escalated()
	if !ok {
		return dto.TicketResponse{}, ErrTicketAtMaxLevel
	}

	ticket.Priority = next
	if err := s.repo.Update(ctx, &ticket); err != nil {
		return dto.TicketResponse{}, err
	}

	entityID := ticket.ID
	if err := s.audit.Record(ctx, AuditEntry{
		CentreID:   ticket.CentreID,
		ActorID:    actor.UserID,
		ActorRole:  actor.Role,
		Action:     "ticket.escalate",
		EntityType: "ticket",
		EntityID:   &entityID,
		Metadata:   map[string]interface{}{"from": string(previous), "to": string(next), "number": ticket.Number},
	}); err != nil {
		return dto.TicketResponse{}, err
	}

	s.logger.Info().Uint("ticket_id", ticket.ID).Str("priority", string(next)).Msg("ticket escalated")

	return dto.NewTicketResponse(ticket), nil
}

func (s *ticketService) Resolve(ctx context.Context, actor authz.Actor, id uint) (dto.TicketResponse, error) {
	ticket, err := s.load(ctx, id)
	if err != nil {
		return dto.TicketResponse{}, err
	}

	if !actor.Role.IsStaff() {
		return dto.TicketResponse{}, authz.ErrForbidden
	}
	if err := authz.DecideTenant(actor, ticket.CentreID); err != nil {
		return dto.TicketResponse{}, err
	}

	ticket.Status = models.TicketStatusResolved
	if err := s.repo.Update(ctx, &ticket); err != nil {
		return dto.TicketResponse{}, err
	}

	s.logger.Info().Uint("ticket_id", ticket.ID).Msg("ticket resolved")

	return dto.NewTicketResponse(ticket), nil
}

func (s *ticketService) load(ctx context.Context, id uint) (models.Ticket, error) {
	ticket, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Ticket{}, ErrTicketNotFound
		}
		return models.Ticket{}, err
	}

	return ticket, nil
}
