package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/campushq/campus-api/internal/models"
)

// CatchUpFilter narrows catch-up listings.
type CatchUpFilter struct {
	CentreID  *uint
	StudentID *uint
	Status    models.CatchUpStatus
	Page      int
	PageSize  int
}

// CatchUpRepository persists catch-up tasks.
type CatchUpRepository interface {
	Create(ctx context.Context, catchUp *models.CatchUp) error
	GetByID(ctx context.Context, id uint) (models.CatchUp, error)
	Update(ctx context.Context, catchUp *models.CatchUp) error
	List(ctx context.Context, filter CatchUpFilter) ([]models.CatchUp, int64, error)
	// MarkOverdue transitions every PENDING or IN_PROGRESS catch-up whose due
	// date precedes the reference time to OVERDUE. A single idempotent bulk
	// update; re-running it is harmless.
	MarkOverdue(ctx context.Context, reference time.Time) (int64, error)
}

type catchUpRepository struct {
	db *gorm.DB
}

// NewCatchUpRepository instantiates a GORM-backed repository.
func NewCatchUpRepository(db *gorm.DB) CatchUpRepository {
	return &catchUpRepository{db: db}
}

func (r *catchUpRepository) Create(ctx context.Context, catchUp *models.CatchUp) error {
	return r.db.WithContext(ctx).Create(catchUp).Error
}

func (r *catchUpRepository) GetByID(ctx context.Context, id uint) (models.CatchUp, error) {
	var catchUp models.CatchUp
	if err := r.db.WithContext(ctx).First(&catchUp, id).Error; err != nil {
		return models.CatchUp{}, err
	}

	return catchUp, nil
}

func (r *catchUpRepository) Update(ctx context.Context, catchUp *models.CatchUp) error {
	return r.db.WithContext(ctx).Save(catchUp).Error
}

func (r *catchUpRepository) List(ctx context.Context, filter CatchUpFilter) ([]models.CatchUp, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.CatchUp{})

	if filter.CentreID != nil {
		query = query.Where("centre_id = ?", *filter.CentreID)
	}

	if filter.StudentID != nil {
		query = query.Where("student_id = ?", *filter.StudentID)
	}

	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
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

	var catchUps []models.CatchUp
	if err := query.Order("due_date ASC").Find(&catchUps).Error; err != nil {
		return nil, 0, err
	}

	return catchUps, total, nil
}

func (r *catchUpRepository) MarkOverdue(ctx context.Context, reference time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.CatchUp{}).
		Where("due_date < ?", reference).
		Where("status IN ?", []models.CatchUpStatus{models.CatchUpPending, models.CatchUpInProgress}).
		Update("status", models.CatchUpOverdue)
	if result.Error != nil {
		return 0, result.Error
	}

	return result.RowsAffected, nil
}
