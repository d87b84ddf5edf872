package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/campushq/campus-api/internal/models"
)

// ClassFilter narrows class listings.
type ClassFilter struct {
	CentreID  *uint
	CourseID  *uint
	TeacherID *uint
	Page      int
	PageSize  int
}

// ClassRepository defines persistence operations for classes.
type ClassRepository interface {
	List(ctx context.Context, filter ClassFilter) ([]models.Class, int64, error)
	GetByID(ctx context.Context, id uint) (models.Class, error)
	Create(ctx context.Context, class *models.Class) error
	Update(ctx context.Context, class *models.Class) error
}

type classRepository struct {
	db *gorm.DB
}

// NewClassRepository instantiates a GORM-backed repository.
func NewClassRepository(db *gorm.DB) ClassRepository {
	return &classRepository{db: db}
}

func (r *classRepository) List(ctx context.Context, filter ClassFilter) ([]models.Class, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Class{})

	if filter.CentreID != nil {
		query = query.Where("centre_id = ?", *filter.CentreID)
	}

	if filter.CourseID != nil {
		query = query.Where("course_id = ?", *filter.CourseID)
	}

	if filter.TeacherID != nil {
		query = query.Where("teacher_id = ?", *filter.TeacherID)
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

	var classes []models.Class
	if err := query.Order("name ASC").Find(&classes).Error; err != nil {
		return nil, 0, err
	}

	return classes, total, nil
}

func (r *classRepository) GetByID(ctx context.Context, id uint) (models.Class, error) {
	var class models.Class
	if err := r.db.WithContext(ctx).First(&class, id).Error; err != nil {
		return models.Class{}, err
	}

	return class, nil
}

func (r *classRepository) Create(ctx context.Context, class *models.Class) error {
	return r.db.WithContext(ctx).Create(class).Error
}

func (r *classRepository) Update(ctx context.Context, class *models.Class) error {
	return r.db.WithContext(ctx).Save(class).Error
}
