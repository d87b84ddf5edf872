package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/campushq/campus-api/internal/authz"
	"github.com/campushq/campus-api/internal/dto"
	"github.com/campushq/campus-api/internal/models"
	"github.com/campushq/campus-api/internal/repository"
)

// ErrCatchUpNotFound indicates the requested catch-up does not exist.
var ErrCatchUpNotFound = errors.New("catch-up not found")

// CatchUpService manages remedial catch-up tasks and the overdue sweep.
type CatchUpService interface {
	Create(ctx context.Context, actor authz.Actor, payload dto.CatchUpCreateRequest) (dto.CatchUpResponse, error)
	List(ctx context.Context, actor authz.Actor, page, pageSize int) ([]dto.CatchUpResponse, int64, error)
	Complete(ctx context.Context, actor authz.Actor, id uint) (dto.CatchUpResponse, error)
	// SweepOverdue bulk-transitions every catch-up past its due date from
	// PENDING or IN_PROGRESS to OVERDUE. Idempotent and retry safe.
	SweepOverdue(ctx context.Context, reference time.Time) (int64, error)
}

type catchUpService struct {
	repo      repository.CatchUpRepository
	users     repository.UserRepository
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewCatchUpService builds a new catch-up service.
func NewCatchUpService(repo repository.CatchUpRepository, users repository.UserRepository, validate *validator.Validate, logger zerolog.Logger) CatchUpService {
	return &catchUpService{
		repo:      repo,
		users:     users,
		validator: validate,
		logger:    logger.With().Str("component", "catchup_service").Logger(),
	}
}

func (s *catchUpService) Create(ctx context.Context, actor authz.Actor, payload dto.CatchUpCreateRequest) (dto.CatchUpResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.CatchUpResponse{}, err
	}

	dueDate, err := time.Parse(time.RFC3339, payload.DueDate)
	if err != nil {
		return dto.CatchUpResponse{}, fmt.Errorf("invalid due date: %w", err)
	}

	student, err := s.users.GetByID(ctx, payload.StudentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.CatchUpResponse{}, ErrUserNotFound
		}
		return dto.CatchUpResponse{}, err
	}

	if err := authz.DecideTenant(actor, student.CentreID); err != nil {
		return dto.CatchUpResponse{}, err
	}

	catchUp := models.CatchUp{
		CentreID:  student.CentreID,
		StudentID: student.ID,
		ClassID:   payload.ClassID,
		Title:     payload.Title,
		DueDate:   dueDate,
		Status:    models.CatchUpPending,
	}

	if err := s.repo.Create(ctx, &catchUp); err != nil {
		return dto.CatchUpResponse{}, err
	}

	s.logger.Info().Uint("catchup_id", catchUp.ID).Uint("student_id", student.ID).Msg("catch-up created")

	return dto.NewCatchUpResponse(catchUp), nil
}

func (s *catchUpService) List(ctx context.Context, actor authz.Actor, page, pageSize int) ([]dto.CatchUpResponse, int64, error) {
	filter := repository.CatchUpFilter{Page: page, PageSize: pageSize}

	switch {
	case actor.Role == models.RoleSuperAdmin:
		// Unscoped.
	case actor.Role.IsStaff():
		centreID := actor.CentreID
		filter.CentreID = &centreID
	case actor.Role == models.RoleStudent:
		centreID := actor.CentreID
		studentID := actor.UserID
		filter.CentreID = &centreID
		filter.StudentID = &studentID
	default:
		// Parents list per child through the student filter; without a
		// child id there is nothing to show.
		return []dto.CatchUpResponse{}, 0, nil
	}

	catchUps, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	return dto.NewCatchUpResponseSlice(catchUps), total, nil
}

func (s *catchUpService) Complete(ctx context.Context, actor authz.Actor, id uint) (dto.CatchUpResponse, error) {
	catchUp, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.CatchUpResponse{}, ErrCatchUpNotFound
		}
		return dto.CatchUpResponse{}, err
	}

	if err := authz.Decide(actor, authz.Resource{CentreID: catchUp.CentreID, OwnerID: catchUp.StudentID}); err != nil {
		return dto.CatchUpResponse{}, err
	}

	catchUp.Status = models.CatchUpCompleted
	if err := s.repo.Update(ctx, &catchUp); err != nil {
		return dto.CatchUpResponse{}, err
	}

	s.logger.Info().Uint("catchup_id", catchUp.ID).Msg("catch-up completed")

	return dto.NewCatchUpResponse(catchUp), nil
}

func (s *catchUpService) SweepOverdue(ctx context.Context, reference time.Time) (int64, error) {
	affected, err := s.repo.MarkOverdue(ctx, reference)
	if err != nil {
		return 0, fmt.Errorf("overdue sweep failed: %w", err)
	}

	s.logger.Info().Int64("transitioned", affected).Time("reference", reference).Msg("overdue sweep completed")

	return affected, nil
}
