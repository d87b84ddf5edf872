package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/campushq/campus-api/internal/models"
)

// UserFilter narrows user listings.
type UserFilter struct {
	CentreID *uint
	Role     models.Role
	Page     int
	PageSize int
}

// UserRepository defines persistence operations for platform accounts.
type UserRepository interface {
	GetByID(ctx context.Context, id uint) (models.User, error)
	Create(ctx context.Context, user *models.User) error
	List(ctx context.Context, filter UserFilter) ([]models.User, int64, error)
	// ChildIDs returns the ids of every child linked to the given parent.
	ChildIDs(ctx context.Context, parentID uint) ([]uint, error)
	LinkChild(ctx context.Context, parentID, childID uint) error
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository instantiates a GORM-backed repository.
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) GetByID(ctx context.Context, id uint) (models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return models.User{}, err
	}

	return user, nil
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

func (r *userRepository) List(ctx context.Context, filter UserFilter) ([]models.User, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.User{})

	if filter.CentreID != nil {
		query = query.Where("centre_id = ?", *filter.CentreID)
	}

	if filter.Role != "" {
		query = query.Where("role = ?", filter.Role)
	}

	countQuery := query.Session(&gorm.Session{})
	var total int64
	if err := countQuery.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if filter.PageSize > 0 {
		page := filter.Page
		if page <= 0 {
			page = 1
		}
		offset := (page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	var users []models.User
	if err := query.Order("name ASC").Find(&users).Error; err != nil {
		return nil, 0, err
	}

	return users, total, nil
}

func (r *userRepository) ChildIDs(ctx context.Context, parentID uint) ([]uint, error) {
	var ids []uint
	if err := r.db.WithContext(ctx).Model(&models.ParentLink{}).Where("parent_id = ?", parentID).Pluck("child_id", &ids).Error; err != nil {
		return nil, err
	}

	return ids, nil
}

func (r *userRepository) LinkChild(ctx context.Context, parentID, childID uint) error {
	return r.db.WithContext(ctx).Create(&models.ParentLink{ParentID: parentID, ChildID: childID}).Error
}
