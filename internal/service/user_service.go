package service

import (
	"context"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/campushq/campus-api/internal/authz"
	"github.com/campushq/campus-api/internal/dto"
	"github.com/campushq/campus-api/internal/models"
	"github.com/campushq/campus-api/internal/repository"
)

// ErrParentLinkInvalid indicates a link request whose accounts cannot be
// joined: the parent must hold the parent role, the child the student role,
// and both must belong to the same centre.
var ErrParentLinkInvalid = errors.New("parent link requires a parent and a student in the same centre")

// UserService manages platform accounts and parent links.
type UserService interface {
	Create(ctx context.Context, actor authz.Actor, payload dto.UserCreateRequest) (dto.UserResponse, error)
	Get(ctx context.Context, actor authz.Actor, id uint) (dto.UserResponse, error)
	List(ctx context.Context, actor authz.Actor, role string, page, pageSize int) ([]dto.UserResponse, int64, error)
	// LinkChild attaches a student to a parent account so the parent gains
	// read access to the child's records.
	LinkChild(ctx context.Context, actor authz.Actor, parentID uint, payload dto.LinkChildRequest) error
	// ResolveActor fills in the child links for parent actors so ownership
	// checks can see through the parent relationship.
	ResolveActor(ctx context.Context, actor authz.Actor) (authz.Actor, error)
}

type userService struct {
	repo      repository.UserRepository
	audit     AuditRecorder
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewUserService builds a new user service.
func NewUserService(repo repository.UserRepository, audit AuditRecorder, validate *validator.Validate, logger zerolog.Logger) UserService {
	return &userService{
		repo:      repo,
		audit:     audit,
		validator: validate,
		logger:    logger.With().Str("component", "user_service").Logger(),
	}
}

func (s *userService) Create(ctx context.Context, actor authz.Actor, payload dto.UserCreateRequest) (dto.UserResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.UserResponse{}, err
	}

	user := models.User{
		CentreID: actor.CentreID,
		Name:     payload.Name,
		Email:    payload.Email,
		Role:     models.Role(payload.Role),
	}

	if err := s.repo.Create(ctx, &user); err != nil {
		return dto.UserResponse{}, err
	}

	entityID := user.ID
	if err := s.audit.Record(ctx, AuditEntry{
		CentreID:   user.CentreID,
		ActorID:    actor.UserID,
		ActorRole:  actor.Role,
		Action:     "user.create",
		EntityType: "user",
		EntityID:   &entityID,
		Metadata:   map[string]interface{}{"role": payload.Role, "email": payload.Email},
	}); err != nil {
		return dto.UserResponse{}, err
	}

	s.logger.Info().Uint("user_id", user.ID).Str("role", payload.Role).Msg("user created")

	return dto.NewUserResponse(user), nil
}

func (s *userService) Get(ctx context.Context, actor authz.Actor, id uint) (dto.UserResponse, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.UserResponse{}, ErrUserNotFound
		}
		return dto.UserResponse{}, err
	}

	if err := authz.Decide(actor, authz.Resource{CentreID: user.CentreID, OwnerID: user.ID}); err != nil {
		return dto.UserResponse{}, err
	}

	return dto.NewUserResponse(user), nil
}

func (s *userService) List(ctx context.Context, actor authz.Actor, role string, page, pageSize int) ([]dto.UserResponse, int64, error) {
	filter := repository.UserFilter{Role: models.Role(role), Page: page, PageSize: pageSize}
	if actor.Role != models.RoleSuperAdmin {
		centreID := actor.CentreID
		filter.CentreID = &centreID
	}

	users, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	return dto.NewUserResponseSlice(users), total, nil
}

func (s *userService) LinkChild(ctx context.Context, actor authz.Actor, parentID uint, payload dto.LinkChildRequest) error {
	if err := s.validator.Struct(payload); err != nil {
		return err
	}

	parent, err := s.loadUser(ctx, parentID)
	if err != nil {
		return err
	}

	child, err := s.loadUser(ctx, payload.ChildID)
	if err != nil {
		return err
	}

	if parent.Role != models.RoleParent || child.Role != models.RoleStudent || parent.CentreID != child.CentreID {
		return ErrParentLinkInvalid
	}

	if err := authz.DecideTenant(actor, parent.CentreID); err != nil {
		return err
	}

	if err := s.repo.LinkChild(ctx, parent.ID, child.ID); err != nil {
		return err
	}

	entityID := parent.ID
	if err := s.audit.Record(ctx, AuditEntry{
		CentreID:   parent.CentreID,
		ActorID:    actor.UserID,
		ActorRole:  actor.Role,
		Action:     "user.link_child",
		EntityType: "user",
		EntityID:   &entityID,
		Metadata:   map[string]interface{}{"child_id": child.ID},
	}); err != nil {
		return err
	}

	s.logger.Info().Uint("parent_id", parent.ID).Uint("child_id", child.ID).Msg("parent link created")

	return nil
}

func (s *userService) loadUser(ctx context.Context, id uint) (models.User, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.User{}, ErrUserNotFound
		}
		return models.User{}, err
	}

	return user, nil
}

func (s *userService) ResolveActor(ctx context.Context, actor authz.Actor) (authz.Actor, error) {
	if actor.Role != models.RoleParent {
		return actor, nil
	}

	childIDs, err := s.repo.ChildIDs(ctx, actor.UserID)
	if err != nil {
		return authz.Actor{}, err
	}

	actor.ChildIDs = childIDs
	return actor, nil
}
