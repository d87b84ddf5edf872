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

// Academic error sentinels.
var (
	ErrCourseNotFound    = errors.New("course not found")
	ErrClassNotFound     = errors.New("class not found")
	ErrSessionNotFound   = errors.New("session not found")
	ErrInvalidTransition = errors.New("invalid session status transition")
)

// AcademicService manages courses, classes and live session scheduling.
type AcademicService interface {
	CreateCourse(ctx context.Context, actor authz.Actor, payload dto.CourseCreateRequest) (dto.CourseResponse, error)
	ListCourses(ctx context.Context, actor authz.Actor, search string, page, pageSize int) ([]dto.CourseResponse, int64, error)
	GetCourse(ctx context.Context, actor authz.Actor, id uint) (dto.CourseResponse, error)

	CreateClass(ctx context.Context, actor authz.Actor, payload dto.ClassCreateRequest) (dto.ClassResponse, error)
	ListClasses(ctx context.Context, actor authz.Actor, centreID *uint, page, pageSize int) ([]dto.ClassResponse, int64, error)
	GetClass(ctx context.Context, actor authz.Actor, id uint) (dto.ClassResponse, error)

	ScheduleSession(ctx context.Context, actor authz.Actor, payload dto.SessionCreateRequest) (dto.SessionResponse, error)
	ListSessions(ctx context.Context, actor authz.Actor, classID uint) ([]dto.SessionResponse, error)
	TransitionSession(ctx context.Context, actor authz.Actor, id uint, target models.SessionStatus) (dto.SessionResponse, error)
}

type academicService struct {
	courses   repository.CourseRepository
	classes   repository.ClassRepository
	sessions  repository.SessionRepository
	audit     AuditRecorder
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewAcademicService builds a new academic service.
func NewAcademicService(courses repository.CourseRepository, classes repository.ClassRepository, sessions repository.SessionRepository, audit AuditRecorder, validate *validator.Validate, logger zerolog.Logger) AcademicService {
	return &academicService{
		courses:   courses,
		classes:   classes,
		sessions:  sessions,
		audit:     audit,
		validator: validate,
		logger:    logger.With().Str("component", "academic_service").Logger(),
	}
}

func (s *academicService) CreateCourse(ctx context.Context, actor authz.Actor, payload dto.CourseCreateRequest) (dto.CourseResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.CourseResponse{}, err
	}

	course := models.Course{
		CentreID:    actor.CentreID,
		Title:       payload.Title,
		Description: payload.Description,
		Subject:     payload.Subject,
		TeacherID:   payload.TeacherID,
	}

	if err := s.courses.Create(ctx, &course); err != nil {
		return dto.CourseResponse{}, err
	}

	s.logger.Info().Uint("course_id", course.ID).Msg("course created")

	return dto.NewCourseResponse(course), nil
}

func (s *academicService) ListCourses(ctx context.Context, actor authz.Actor, search string, page, pageSize int) ([]dto.CourseResponse, int64, error) {
	filter := repository.CourseFilter{Search: search, Page: page, PageSize: pageSize}
	if actor.Role != models.RoleSuperAdmin {
		centreID := actor.CentreID
		filter.CentreID = &centreID
	}

	courses, total, err := s.courses.List(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	return dto.NewCourseResponseSlice(courses), total, nil
}

func (s *academicService) GetCourse(ctx context.Context, actor authz.Actor, id uint) (dto.CourseResponse, error) {
	course, err := s.courses.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.CourseResponse{}, ErrCourseNotFound
		}
		return dto.CourseResponse{}, err
	}

	if err := authz.DecideTenant(actor, course.CentreID); err != nil {
		return dto.CourseResponse{}, err
	}

	return dto.NewCourseResponse(course), nil
}

func (s *academicService) CreateClass(ctx context.Context, actor authz.Actor, payload dto.ClassCreateRequest) (dto.ClassResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.ClassResponse{}, err
	}

	course, err := s.courses.GetByID(ctx, payload.CourseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ClassResponse{}, ErrCourseNotFound
		}
		return dto.ClassResponse{}, err
	}

	if err := authz.DecideTenant(actor, course.CentreID); err != nil {
		return dto.ClassResponse{}, err
	}

	class := models.Class{
		CentreID:  course.CentreID,
		CourseID:  course.ID,
		Name:      payload.Name,
		TeacherID: payload.TeacherID,
		Capacity:  payload.Capacity,
	}

	if err := s.classes.Create(ctx, &class); err != nil {
		return dto.ClassResponse{}, err
	}

	s.logger.Info().Uint("class_id", class.ID).Uint("course_id", course.ID).Msg("class created")

	return dto.NewClassResponse(class), nil
}

// ListClasses pins every caller except super_admin to their own centre; the
// optional centreID query is only honoured for the platform role.
func (s *academicService) ListClasses(ctx context.Context, actor authz.Actor, centreID *uint, page, pageSize int) ([]dto.ClassResponse, int64, error) {
	filter := repository.ClassFilter{Page: page, PageSize: pageSize}
	if actor.Role == models.RoleSuperAdmin {
		filter.CentreID = centreID
	} else {
		own := actor.CentreID
		filter.CentreID = &own
	}

	classes, total, err := s.classes.List(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	return dto.NewClassResponseSlice(classes), total, nil
}

func (s *academicService) GetClass(ctx context.Context, actor authz.Actor, id uint) (dto.ClassResponse, error) {
	class, err := s.classes.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ClassResponse{}, ErrClassNotFound
		}
		return dto.ClassResponse{}, err
	}

	if err := authz.DecideTenant(actor, class.CentreID); err != nil {
		return dto.ClassResponse{}, err
	}

	return dto.NewClassResponse(class), nil
}

func (s *academicService) ScheduleSession(ctx context.Context, actor authz.Actor, payload dto.SessionCreateRequest) (dto.SessionResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.SessionResponse{}, err
	}

	scheduledAt, err := time.Parse(time.RFC3339, payload.ScheduledAt)
	if err != nil {
		return dto.SessionResponse{}, fmt.Errorf("invalid scheduled time: %w", err)
	}

	class, err := s.classes.GetByID(ctx, payload.ClassID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SessionResponse{}, ErrClassNotFound
		}
		return dto.SessionResponse{}, err
	}

	if err := authz.DecideTenant(actor, class.CentreID); err != nil {
		return dto.SessionResponse{}, err
	}

	session := models.LiveSession{
		CentreID:        class.CentreID,
		ClassID:         class.ID,
		Title:           payload.Title,
		ScheduledAt:     scheduledAt,
		DurationMinutes: payload.DurationMinutes,
		Status:          models.SessionScheduled,
		MeetingURL:      payload.MeetingURL,
	}

	if err := s.sessions.Create(ctx, &session); err != nil {
		return dto.SessionResponse{}, err
	}

	s.logger.Info().Uint("session_id", session.ID).Uint("class_id", class.ID).Msg("session scheduled")

	return dto.NewSessionResponse(session), nil
}

func (s *academicService) ListSessions(ctx context.Context, actor authz.Actor, classID uint) ([]dto.SessionResponse, error) {
	class, err := s.classes.GetByID(ctx, classID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrClassNotFound
		}
		return nil, err
	}

	if err := authz.DecideTenant(actor, class.CentreID); err != nil {
		return nil, err
	}

	sessions, err := s.sessions.ListByClass(ctx, classID)
	if err != nil {
		return nil, err
	}

	return dto.NewSessionResponseSlice(sessions), nil
}

func (s *academicService) TransitionSession(ctx context.Context, actor authz.Actor, id uint, target models.SessionStatus) (dto.SessionResponse, error) {
	session, err := s.sessions.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SessionResponse{}, ErrSessionNotFound
		}
		return dto.SessionResponse{}, err
	}

	if err := authz.DecideTenant(actor, session.CentreID); err != nil {
		return dto.SessionResponse{}, err
	}

	if !session.CanTransitionTo(target) {
		return dto.SessionResponse{}, ErrInvalidTransition
	}

	previous := session.Status
	session.Status = target
	if err := s.sessions.Update(ctx, &session); err != nil {
		return dto.SessionResponse{}, err
	}

	entityID := session.ID
	if err := s.audit.Record(ctx, AuditEntry{
		CentreID:   session.CentreID,
		ActorID:    actor.UserID,
		ActorRole:  actor.Role,
		Action:     "session.transition",
		EntityType: "live_session",
		EntityID:   &entityID,
		Metadata:   map[string]interface{}{"from": string(previous), "to": string(target)},
	}); err != nil {
		return dto.SessionResponse{}, err
	}

	s.logger.Info().Uint("session_id", session.ID).Str("status", string(target)).Msg("session transitioned")

	return dto.NewSessionResponse(session), nil
}
