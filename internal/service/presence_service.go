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
	"github.com/campushq/campus-api/internal/observability"
	"github.com/campushq/campus-api/internal/repository"
)

// MaxHeartbeatGap bounds the credit a single heartbeat may add. A gap at or
// above this threshold means the client was gone (stale tab, suspended
// laptop) and starts a fresh presence window instead of inflating the
// counter by the full elapsed wall time.
const MaxHeartbeatGap = 120 * time.Second

// ErrEnrollmentNotFound indicates the requested enrollment does not exist.
var ErrEnrollmentNotFound = errors.New("enrollment not found")

// PresenceService converts a stream of per-student presence events into an
// accumulated active-duration counter.
type PresenceService interface {
	Record(ctx context.Context, actor authz.Actor, payload dto.RecordPresenceRequest) (dto.RecordPresenceResponse, error)
	Enroll(ctx context.Context, actor authz.Actor, sessionID, studentID uint) (dto.EnrollmentResponse, error)
	ListBySession(ctx context.Context, actor authz.Actor, sessionID uint) ([]dto.EnrollmentResponse, error)
}

type presenceService struct {
	enrollments repository.EnrollmentRepository
	sessions    repository.SessionRepository
	validator   *validator.Validate
	logger      zerolog.Logger
	now         func() time.Time
}

// NewPresenceService builds a new presence service.
func NewPresenceService(enrollments repository.EnrollmentRepository, sessions repository.SessionRepository, validate *validator.Validate, logger zerolog.Logger) PresenceService {
	return &presenceService{
		enrollments: enrollments,
		sessions:    sessions,
		validator:   validate,
		logger:      logger.With().Str("component", "presence_service").Logger(),
		now:         time.Now,
	}
}

// Record applies one presence event. The accumulation runs under the
// enrollment row lock so concurrent heartbeats from multiple tabs serialize
// and never double count. Client clocks are not trusted: every delta is
// anchored on the server's own clock.
func (s *presenceService) Record(ctx context.Context, actor authz.Actor, payload dto.RecordPresenceRequest) (dto.RecordPresenceResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.RecordPresenceResponse{}, err
	}

	kind := models.PresenceKind(payload.Event)
	if !kind.Valid() {
		return dto.RecordPresenceResponse{}, fmt.Errorf("unknown presence event %q", payload.Event)
	}

	enrollment, err := s.enrollments.GetByID(ctx, payload.EnrollmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.RecordPresenceResponse{}, ErrEnrollmentNotFound
		}
		return dto.RecordPresenceResponse{}, err
	}

	// Only the enrolled student or staff may report presence; parents can
	// view their children's records but never emit events for them.
	if actor.Role == models.RoleParent {
		return dto.RecordPresenceResponse{}, authz.ErrForbidden
	}
	if err := authz.Decide(actor, authz.Resource{CentreID: enrollment.CentreID, OwnerID: enrollment.StudentID}); err != nil {
		return dto.RecordPresenceResponse{}, err
	}

	serverNow := s.now().UTC()

	updated, err := s.enrollments.ApplyPresence(ctx, enrollment.ID, func(enrollment *models.Enrollment) (models.PresenceEvent, error) {
		applyPresence(enrollment, kind, serverNow)

		return models.PresenceEvent{
			EnrollmentID: enrollment.ID,
			SessionID:    enrollment.SessionID,
			StudentID:    enrollment.StudentID,
			Kind:         kind,
			OccurredAt:   serverNow,
		}, nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.RecordPresenceResponse{}, ErrEnrollmentNotFound
		}
		return dto.RecordPresenceResponse{}, err
	}

	observability.PresenceEvents().WithLabelValues(string(kind)).Inc()
	s.logger.Debug().
		Uint("enrollment_id", updated.ID).
		Str("kind", string(kind)).
		Int64("active_ms", updated.ActiveMs).
		Msg("presence recorded")

	return dto.RecordPresenceResponse{ActiveMs: updated.ActiveMs, Timestamp: serverNow}, nil
}

// applyPresence mutates the enrollment for one event at serverNow.
//
// Only a HEARTBEAT with a prior baseline accumulates time, and only when the
// gap stays under MaxHeartbeatGap; the first heartbeat has nothing to diff
// against and contributes zero. JOIN stamps joinedAt once, on the first-ever
// event. Every event, whatever its kind, advances lastActiveAt.
func applyPresence(enrollment *models.Enrollment, kind models.PresenceKind, serverNow time.Time) {
	lastActive := enrollment.LastActiveAt

	if kind == models.PresenceHeartbeat && lastActive != nil {
		gap := serverNow.Sub(*lastActive)
		if gap >= 0 && gap < MaxHeartbeatGap {
			enrollment.ActiveMs += gap.Milliseconds()
		}
	}

	if kind == models.PresenceJoin && lastActive == nil {
		joined := serverNow
		enrollment.JoinedAt = &joined
	}

	active := serverNow
	enrollment.LastActiveAt = &active
}

func (s *presenceService) Enroll(ctx context.Context, actor authz.Actor, sessionID, studentID uint) (dto.EnrollmentResponse, error) {
	session, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.EnrollmentResponse{}, ErrSessionNotFound
		}
		return dto.EnrollmentResponse{}, err
	}

	// Staff enroll anyone in their centre; a student may enroll only themselves.
	if err := authz.Decide(actor, authz.Resource{CentreID: session.CentreID, OwnerID: studentID}); err != nil {
		return dto.EnrollmentResponse{}, err
	}
	if actor.Role == models.RoleParent {
		return dto.EnrollmentResponse{}, authz.ErrForbidden
	}

	enrollment := models.Enrollment{
		CentreID:  session.CentreID,
		SessionID: session.ID,
		StudentID: studentID,
	}

	if err := s.enrollments.Create(ctx, &enrollment); err != nil {
		return dto.EnrollmentResponse{}, err
	}

	s.logger.Info().Uint("enrollment_id", enrollment.ID).Uint("session_id", sessionID).Msg("student enrolled")

	return dto.NewEnrollmentResponse(enrollment), nil
}

func (s *presenceService) ListBySession(ctx context.Context, actor authz.Actor, sessionID uint) ([]dto.EnrollmentResponse, error) {
	session, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}

	if !actor.Role.IsStaff() {
		return nil, authz.ErrForbidden
	}
	if err := authz.DecideTenant(actor, session.CentreID); err != nil {
		return nil, err
	}

	enrollments, err := s.enrollments.ListBySession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	responses := make([]dto.EnrollmentResponse, 0, len(enrollments))
	for _, enrollment := range enrollments {
		responses = append(responses, dto.NewEnrollmentResponse(enrollment))
	}

	return responses, nil
}
