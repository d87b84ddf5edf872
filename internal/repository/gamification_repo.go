package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/campushq/campus-api/internal/models"
)

// XPTransactionFilter narrows ledger queries.
type XPTransactionFilter struct {
	UserID   uint
	Page     int
	PageSize int
}

// GamificationRepository persists XP profiles, the transaction ledger and badges.
type GamificationRepository interface {
	ProfileByUserID(ctx context.Context, userID uint) (models.GamificationProfile, error)
	// ApplyAward runs mutate against the user's profile inside one transaction
	// while holding a row lock, creating the profile first if the user has no
	// gamification history yet. The ledger entry returned by mutate is
	// appended in the same transaction, so profile and ledger never diverge.
	ApplyAward(ctx context.Context, userID, centreID uint, mutate func(profile *models.GamificationProfile) (models.XPTransaction, error)) (models.GamificationProfile, error)
	ListTransactions(ctx context.Context, filter XPTransactionFilter) ([]models.XPTransaction, int64, error)
	CreateBadge(ctx context.Context, badge *models.Badge) error
	ListBadges(ctx context.Context, userID uint) ([]models.Badge, error)
}

type gamificationRepository struct {
	db *gorm.DB
}

// NewGamificationRepository instantiates a GORM-backed repository.
func NewGamificationRepository(db *gorm.DB) GamificationRepository {
	return &gamificationRepository{db: db}
}

func (r *gamificationRepository) ProfileByUserID(ctx context.Context, userID uint) (models.GamificationProfile, error) {
	var profile models.GamificationProfile
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&profile).Error; err != nil {
		return models.GamificationProfile{}, err
	}

	return profile, nil
}

func (r *gamificationRepository) ApplyAward(ctx context.Context, userID, centreID uint, mutate func(profile *models.GamificationProfile) (models.XPTransaction, error)) (models.GamificationProfile, error) {
	var updated models.GamificationProfile

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var profile models.GamificationProfile
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("user_id = ?", userID).First(&profile).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			profile = models.GamificationProfile{UserID: userID, CentreID: centreID, Level: 1}
			if err := tx.Create(&profile).Error; err != nil {
				return err
			}
		} else if err != nil {
			return err
		}

		entry, err := mutate(&profile)
		if err != nil {
			return err
		}

		if err := tx.Save(&profile).Error; err != nil {
			return err
		}

		if err := tx.Create(&entry).Error; err != nil {
			return err
		}

		updated = profile
		return nil
	})
	if err != nil {
		return models.GamificationProfile{}, err
	}

	return updated, nil
}

func (r *gamificationRepository) ListTransactions(ctx context.Context, filter XPTransactionFilter) ([]models.XPTransaction, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.XPTransaction{})

	if filter.UserID != 0 {
		query = query.Where("user_id = ?", filter.UserID)
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

	var transactions []models.XPTransaction
	if err := query.Order("created_at DESC").Find(&transactions).Error; err != nil {
		return nil, 0, err
	}

	return transactions, total, nil
}

func (r *gamificationRepository) CreateBadge(ctx context.Context, badge *models.Badge) error {
	return r.db.WithContext(ctx).Create(badge).Error
}

func (r *gamificationRepository) ListBadges(ctx context.Context, userID uint) ([]models.Badge, error) {
	var badges []models.Badge
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at DESC").Find(&badges).Error; err != nil {
		return nil, err
	}

	return badges, nil
}
