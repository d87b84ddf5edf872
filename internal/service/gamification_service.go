package service

import (
	"context"
	"errors"
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

// ErrProfileNotFound indicates the user has no gamification history yet.
var ErrProfileNotFound = errors.New("gamification profile not found")

// ErrUserNotFound indicates the target user does not exist.
var ErrUserNotFound = errors.New("user not found")

// GamificationService maintains the XP ledger and its derived profile.
type GamificationService interface {
	AwardXP(ctx context.Context, actor authz.Actor, payload dto.AwardXPRequest) (dto.AwardXPResponse, error)
	DeductXP(ctx context.Context, actor authz.Actor, payload dto.DeductXPRequest) (dto.AwardXPResponse, error)
	AwardBadge(ctx context.Context, actor authz.Actor, payload dto.AwardBadgeRequest) (dto.BadgeResponse, error)
	Profile(ctx context.Context, actor authz.Actor, userID uint) (dto.ProfileResponse, error)
	Transactions(ctx context.Context, actor authz.Actor, userID uint, page, pageSize int) ([]dto.XPTransactionResponse, int64, error)
	Leaderboard(ctx context.Context, actor authz.Actor, limit int) (dto.LeaderboardResponse, error)
}

type gamificationService struct {
	repo        repository.GamificationRepository
	users       repository.UserRepository
	leaderboard repository.LeaderboardStore
	audit       AuditRecorder
	validator   *validator.Validate
	logger      zerolog.Logger
	now         func() time.Time
}

// NewGamificationService builds a new gamification service.
func NewGamificationService(repo repository.GamificationRepository, users repository.UserRepository, leaderboard repository.LeaderboardStore, audit AuditRecorder, validate *validator.Validate, logger zerolog.Logger) GamificationService {
	return &gamificationService{
		repo:        repo,
		users:       users,
		leaderboard: leaderboard,
		audit:       audit,
		validator:   validate,
		logger:      logger.With().Str("component", "gamification_service").Logger(),
		now:         time.Now,
	}
}

// AwardXP appends a positive ledger entry and recomputes level and streak in
// the same transaction, so the profile summary can never drift from the
// ledger. Grants are bounded; corrections go through DeductXP.
func (s *gamificationService) AwardXP(ctx context.Context, actor authz.Actor, payload dto.AwardXPRequest) (dto.AwardXPResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.AwardXPResponse{}, err
	}

	target, err := s.targetUser(ctx, actor, payload.UserID)
	if err != nil {
		return dto.AwardXPResponse{}, err
	}

	now := s.now().UTC()
	var oldLevel int

	profile, err := s.repo.ApplyAward(ctx, target.ID, target.CentreID, func(profile *models.GamificationProfile) (models.XPTransaction, error) {
		oldLevel = profile.Level

		profile.XP += payload.XP
		profile.Level = models.LevelForXP(profile.XP)
		profile.Streak = models.NextStreak(profile.Streak, profile.LastActivityAt, now)
		activity := now
		profile.LastActivityAt = &activity

		return models.XPTransaction{
			UserID:    target.ID,
			Amount:    payload.XP,
			Reason:    payload.Reason,
			AwardedBy: actor.UserID,
		}, nil
	})
	if err != nil {
		return dto.AwardXPResponse{}, err
	}

	s.mirrorLeaderboard(ctx, profile)
	observability.XPAwards().WithLabelValues("grant").Inc()

	levelUp := profile.Level > oldLevel
	s.logger.Info().
		Uint("user_id", target.ID).
		Int64("xp", payload.XP).
		Bool("level_up", levelUp).
		Msg("xp awarded")

	return dto.AwardXPResponse{
		Profile: dto.NewProfileResponse(profile),
		Awarded: dto.AwardedXP{XP: payload.XP, Reason: payload.Reason, LevelUp: levelUp},
	}, nil
}

// DeductXP appends a negative ledger entry, clamping the profile at zero.
// Deductions are corrections, not activity: streak and lastActivityAt stay
// untouched, and the action is audited.
func (s *gamificationService) DeductXP(ctx context.Context, actor authz.Actor, payload dto.DeductXPRequest) (dto.AwardXPResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.AwardXPResponse{}, err
	}

	target, err := s.targetUser(ctx, actor, payload.UserID)
	if err != nil {
		return dto.AwardXPResponse{}, err
	}

	var deducted int64

	profile, err := s.repo.ApplyAward(ctx, target.ID, target.CentreID, func(profile *models.GamificationProfile) (models.XPTransaction, error) {
		deducted = payload.XP
		if deducted > profile.XP {
			deducted = profile.XP
		}

		profile.XP -= deducted
		profile.Level = models.LevelForXP(profile.XP)

		return models.XPTransaction{
			UserID:    target.ID,
			Amount:    -deducted,
			Reason:    payload.Reason,
			AwardedBy: actor.UserID,
		}, nil
	})
	if err != nil {
		return dto.AwardXPResponse{}, err
	}

	s.mirrorLeaderboard(ctx, profile)
	observability.XPAwards().WithLabelValues("deduct").Inc()

	entityID := target.ID
	if err := s.audit.Record(ctx, AuditEntry{
		CentreID:   target.CentreID,
		ActorID:    actor.UserID,
		ActorRole:  actor.Role,
		Action:     "xp.deduct",
		EntityType: "gamification_profile",
		EntityID:   &entityID,
		Metadata:   map[string]interface{}{"xp": deducted, "reason": payload.Reason},
	}); err != nil {
		return dto.AwardXPResponse{}, err
	}

	return dto.AwardXPResponse{
		Profile: dto.NewProfileResponse(profile),
		Awarded: dto.AwardedXP{XP: -deducted, Reason: payload.Reason, LevelUp: false},
	}, nil
}

func (s *gamificationService) AwardBadge(ctx context.Context, actor authz.Actor, payload dto.AwardBadgeRequest) (dto.BadgeResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.BadgeResponse{}, err
	}

	target, err := s.targetUser(ctx, actor, payload.UserID)
	if err != nil {
		return dto.BadgeResponse{}, err
	}

	badge := models.Badge{
		UserID:    target.ID,
		CentreID:  target.CentreID,
		Name:      payload.Name,
		Type:      payload.Type,
		AwardedBy: actor.UserID,
	}

	if err := s.repo.CreateBadge(ctx, &badge); err != nil {
		return dto.BadgeResponse{}, err
	}

	entityID := badge.ID
	if err := s.audit.Record(ctx, AuditEntry{
		CentreID:   target.CentreID,
		ActorID:    actor.UserID,
		ActorRole:  actor.Role,
		Action:     "badge.award",
		EntityType: "badge",
		EntityID:   &entityID,
		Metadata:   map[string]interface{}{"name": payload.Name, "type": payload.Type, "user_id": target.ID},
	}); err != nil {
		return dto.BadgeResponse{}, err
	}

	s.logger.Info().Uint("badge_id", badge.ID).Uint("user_id", target.ID).Msg("badge awarded")

	return dto.NewBadgeResponse(badge), nil
}

func (s *gamificationService) Profile(ctx context.Context, actor authz.Actor, userID uint) (dto.ProfileResponse, error) {
	target, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ProfileResponse{}, ErrUserNotFound
		}
		return dto.ProfileResponse{}, err
	}

	if err := authz.Decide(actor, authz.Resource{CentreID: target.CentreID, OwnerID: target.ID}); err != nil {
		return dto.ProfileResponse{}, err
	}

	profile, err := s.repo.ProfileByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ProfileResponse{}, ErrProfileNotFound
		}
		return dto.ProfileResponse{}, err
	}

	return dto.NewProfileResponse(profile), nil
}

// Transactions lists the ledger entries behind a profile. Access follows the
// same owner-or-staff rule as the profile itself.
func (s *gamificationService) Transactions(ctx context.Context, actor authz.Actor, userID uint, page, pageSize int) ([]dto.XPTransactionResponse, int64, error) {
	target, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, 0, ErrUserNotFound
		}
		return nil, 0, err
	}

	if err := authz.Decide(actor, authz.Resource{CentreID: target.CentreID, OwnerID: target.ID}); err != nil {
		return nil, 0, err
	}

	entries, total, err := s.repo.ListTransactions(ctx, repository.XPTransactionFilter{
		UserID:   userID,
		Page:     page,
		PageSize: pageSize,
	})
	if err != nil {
		return nil, 0, err
	}

	return dto.NewXPTransactionResponseSlice(entries), total, nil
}

func (s *gamificationService) Leaderboard(ctx context.Context, actor authz.Actor, limit int) (dto.LeaderboardResponse, error) {
	entries, err := s.leaderboard.Top(ctx, actor.CentreID, limit)
	if err != nil {
		return dto.LeaderboardResponse{}, err
	}

	return dto.LeaderboardResponse{CentreID: actor.CentreID, Entries: entries}, nil
}

// targetUser loads the award target and checks the actor may act on it.
// Route middleware already restricts these calls to staff; the tenant check
// here keeps staff confined to their own centre.
func (s *gamificationService) targetUser(ctx context.Context, actor authz.Actor, userID uint) (models.User, error) {
	target, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.User{}, ErrUserNotFound
		}
		return models.User{}, err
	}

	if err := authz.DecideTenant(actor, target.CentreID); err != nil {
		return models.User{}, err
	}

	return target, nil
}

// mirrorLeaderboard pushes the new total to Redis. The database is the
// source of truth; a failed mirror is logged and the award still succeeds.
func (s *gamificationService) mirrorLeaderboard(ctx context.Context, profile models.GamificationProfile) {
	if s.leaderboard == nil {
		return
	}

	if err := s.leaderboard.SetScore(ctx, profile.CentreID, profile.UserID, profile.XP); err != nil {
		s.logger.Warn().Err(err).Uint("user_id", profile.UserID).Msg("failed to update leaderboard")
	}
}
