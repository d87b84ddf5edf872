package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/campushq/campus-api/internal/authz"
	"github.com/campushq/campus-api/internal/dto"
	"github.com/campushq/campus-api/internal/models"
	"github.com/campushq/campus-api/internal/repository"
)

// DashboardService produces the aggregated student dashboard.
type DashboardService interface {
	StudentDashboard(ctx context.Context, actor authz.Actor) (dto.StudentDashboardResponse, error)
}

type dashboardService struct {
	gamification repository.GamificationRepository
	enrollments  repository.EnrollmentRepository
	catchUps     repository.CatchUpRepository
	cache        *redis.Client
	cacheTTL     time.Duration
	logger       zerolog.Logger
}

// NewDashboardService builds the dashboard aggregator.
func NewDashboardService(gamification repository.GamificationRepository, enrollments repository.EnrollmentRepository, catchUps repository.CatchUpRepository, cache *redis.Client, ttl time.Duration, logger zerolog.Logger) DashboardService {
	return &dashboardService{
		gamification: gamification,
		enrollments:  enrollments,
		catchUps:     catchUps,
		cache:        cache,
		cacheTTL:     ttl,
		logger:       logger.With().Str("component", "dashboard_service").Logger(),
	}
}

func (s *dashboardService) StudentDashboard(ctx context.Context, actor authz.Actor) (dto.StudentDashboardResponse, error) {
	if actor.Role != models.RoleStudent {
		return dto.StudentDashboardResponse{}, authz.ErrForbidden
	}

	cacheKey := fmt.Sprintf("dashboard:student:%d", actor.UserID)

	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, cacheKey).Result(); err == nil {
			var response dto.StudentDashboardResponse
			if unmarshalErr := json.Unmarshal([]byte(cached), &response); unmarshalErr == nil {
				s.logger.Debug().Uint("student_id", actor.UserID).Msg("dashboard cache hit")
				return response, nil
			}
		} else if err != redis.Nil {
			s.logger.Warn().Err(err).Msg("failed to read dashboard cache")
		}
	}

	response, err := s.buildResponse(ctx, actor.UserID)
	if err != nil {
		return dto.StudentDashboardResponse{}, err
	}

	if s.cache != nil {
		payload, err := json.Marshal(response)
		if err == nil {
			if err := s.cache.Set(ctx, cacheKey, payload, s.cacheTTL).Err(); err != nil {
				s.logger.Warn().Err(err).Msg("failed to store dashboard cache")
			}
		}
	}

	return response, nil
}

func (s *dashboardService) buildResponse(ctx context.Context, studentID uint) (dto.StudentDashboardResponse, error) {
	response := dto.StudentDashboardResponse{
		Profile: dto.ProfileResponse{UserID: studentID, Level: 1},
	}

	profile, err := s.gamification.ProfileByUserID(ctx, studentID)
	if err == nil {
		response.Profile = dto.NewProfileResponse(profile)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return dto.StudentDashboardResponse{}, err
	}

	badges, err := s.gamification.ListBadges(ctx, studentID)
	if err != nil {
		return dto.StudentDashboardResponse{}, err
	}
	response.Badges = make([]dto.BadgeResponse, 0, len(badges))
	for _, badge := range badges {
		response.Badges = append(response.Badges, dto.NewBadgeResponse(badge))
	}

	enrollments, err := s.enrollments.ListByStudent(ctx, studentID)
	if err != nil {
		return dto.StudentDashboardResponse{}, err
	}
	response.Enrollments = make([]dto.EnrollmentResponse, 0, len(enrollments))
	for _, enrollment := range enrollments {
		response.Enrollments = append(response.Enrollments, dto.NewEnrollmentResponse(enrollment))
		response.TotalActiveMs += enrollment.ActiveMs
	}

	studentFilter := studentID
	catchUps, _, err := s.catchUps.List(ctx, repository.CatchUpFilter{StudentID: &studentFilter})
	if err != nil {
		return dto.StudentDashboardResponse{}, err
	}
	response.PendingCatchUps = make([]dto.CatchUpResponse, 0)
	for _, catchUp := range catchUps {
		switch catchUp.Status {
		case models.CatchUpPending, models.CatchUpInProgress:
			response.PendingCatchUps = append(response.PendingCatchUps, dto.NewCatchUpResponse(catchUp))
		case models.CatchUpOverdue:
			response.OverdueCatchUps++
		}
	}

	return response, nil
}
