package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/campushq/campus-api/internal/models"
)

// SessionRepository defines persistence operations for live sessions.
type SessionRepository interface {
	GetByID(ctx context.Context, id uint) (models.LiveSession, error)
	Create(ctx context.Context, session *models.LiveSession) error
	Update(ctx context.Context, session *models.LiveSession) error
	ListByClass(ctx context.Context, classID uint) ([]models.LiveSession, error)
}

type sessionRepository struct {
	db *gorm.DB
}

// NewSessionRepository instantiates a GORM-backed repository.
func NewSessionRepository(db *gorm.DB) SessionRepository {
	return &sessionRepository{db: db}
}

func (r *sessionRepository) GetByID(ctx context.Context, id uint) (models.LiveSession, error) {
	var session models.LiveSession
	if err := r.db.WithContext(ctx).First(&session, id).Error; err != nil {
		return models.LiveSession{}, err
	}

	return session, nil
}

func (r *sessionRepository) Create(ctx context.Context, session *models.LiveSession) error {
	return r.db.WithContext(ctx).Create(session).Error
}

func (r *sessionRepository) Update(ctx context.Context, session *models.LiveSession) error {
	return r.db.WithContext(ctx).Save(session).Error
}

func (r *sessionRepository) ListByClass(ctx context.Context, classID uint) ([]models.LiveSession, error) {
	var sessions []models.LiveSession
	if err := r.db.WithContext(ctx).Where("class_id = ?", classID).Order("scheduled_at ASC").Find(&sessions).Error; err != nil {
		return nil, err
	}

	return sessions, nil
}
