package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/campushq/campus-api/internal/models"
)

// EnrollmentRepository defines persistence operations for session enrollments
// and their presence event log.
type EnrollmentRepository interface {
	GetByID(ctx context.Context, id uint) (models.Enrollment, error)
	Create(ctx context.Context, enrollment *models.Enrollment) error
	ListBySession(ctx context.Context, sessionID uint) ([]models.Enrollment, error)
	ListByStudent(ctx context.Context, studentID uint) ([]models.Enrollment, error)
	// ApplyPresence runs mutate against the enrollment inside one transaction
	// while holding a row lock, then persists the updated row together with
	// the presence event returned by mutate. Concurrent presence events for
	// the same enrollment serialize on the lock.
	ApplyPresence(ctx context.Context, enrollmentID uint, mutate func(enrollment *models.Enrollment) (models.PresenceEvent, error)) (models.Enrollment, error)
}

type enrollmentRepository struct {
	db *gorm.DB
}

// NewEnrollmentRepository instantiates a GORM-backed repository.
func NewEnrollmentRepository(db *gorm.DB) EnrollmentRepository {
	return &enrollmentRepository{db: db}
}

func (r *enrollmentRepository) GetByID(ctx context.Context, id uint) (models.Enrollment, error) {
	var enrollment models.Enrollment
	if err := r.db.WithContext(ctx).First(&enrollment, id).Error; err != nil {
		return models.Enrollment{}, err
	}

	return enrollment, nil
}

func (r *enrollmentRepository) Create(ctx context.Context, enrollment *models.Enrollment) error {
	return r.db.WithContext(ctx).Create(enrollment).Error
}

func (r *enrollmentRepository) ListBySession(ctx context.Context, sessionID uint) ([]models.Enrollment, error) {
	var enrollments []models.Enrollment
	if err := r.db.WithContext(ctx).Where("session_id = ?", sessionID).Order("id ASC").Find(&enrollments).Error; err != nil {
		return nil, err
	}

	return enrollments, nil
}

func (r *enrollmentRepository) ListByStudent(ctx context.Context, studentID uint) ([]models.Enrollment, error) {
	var enrollments []models.Enrollment
	if err := r.db.WithContext(ctx).Where("student_id = ?", studentID).Order("id ASC").Find(&enrollments).Error; err != nil {
		return nil, err
	}

	return enrollments, nil
}

func (r *enrollmentRepository) ApplyPresence(ctx context.Context, enrollmentID uint, mutate func(enrollment *models.Enrollment) (models.PresenceEvent, error)) (models.Enrollment, error) {
	var updated models.Enrollment

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var enrollment models.Enrollment
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&enrollment, enrollmentID).Error; err != nil {
			return err
		}

		event, err := mutate(&enrollment)
		if err != nil {
			return err
		}

		if err := tx.Save(&enrollment).Error; err != nil {
			return err
		}

		if err := tx.Create(&event).Error; err != nil {
			return err
		}

		updated = enrollment
		return nil
	})
	if err != nil {
		return models.Enrollment{}, err
	}

	return updated, nil
}
