package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/campushq/campus-api/internal/models"
)

// TicketFilter narrows ticket listings.
type TicketFilter struct {
	CentreID   *uint
	OpenedByID *uint
	Status     models.TicketStatus
	Priority   models.TicketPriority
	Page       int
	PageSize   int
}

// TicketRepository persists support tickets and the per-year number sequence.
type TicketRepository interface {
	// Create assigns the next ticket number for the creation year and inserts
	// the ticket in one transaction. The sequence row is locked so numbers
	// are unique and strictly increasing within a year.
	Create(ctx context.Context, ticket *models.Ticket) error
	GetByID(ctx context.Context, id uint) (models.Ticket, error)
	Update(ctx context.Context, ticket *models.Ticket) error
	List(ctx context.Context, filter TicketFilter) ([]models.Ticket, int64, error)
}

type ticketRepository struct {
	db *gorm.DB
}

// NewTicketRepository instantiates a GORM-backed repository.
func NewTicketRepository(db *gorm.DB) TicketRepository {
	return &ticketRepository{db: db}
}

func (r *ticketRepository) Create(ctx context.Context, ticket *models.Ticket) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		year := ticket.CreatedAt.Year()
		if year == 1 {
			year = time.Now().UTC().Year()
		}

		var seq models.TicketSequence
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("year = ?", year).First(&seq).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			seq = models.TicketSequence{Year: year}
			if err := tx.Create(&seq).Error; err != nil {
				return err
			}
		} else if err != nil {
			return err
		}

		seq.LastValue++
		if err := tx.Save(&seq).Error; err != nil {
			return err
		}

		ticket.Number = models.FormatTicketNumber(year, seq.LastValue)
		return tx.Create(ticket).Error
	})
}

func (r *ticketRepository) GetByID(ctx context.Context, id uint) (models.Ticket, error) {
	var ticket models.Ticket
	if err := r.db.WithContext(ctx).First(&ticket, id).Error; err != nil {
		return models.Ticket{}, err
	}

	return ticket, nil
}

func (r *ticketRepository) Update(ctx context.Context, ticket *models.Ticket) error {
	return r.db.WithContext(ctx).Save(ticket).Error
}

func (r *ticketRepository) List(ctx context.Context, filter TicketFilter) ([]models.Ticket, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Ticket{})

	if filter.CentreID != nil {
		query = query.Where("centre_id = ?", *filter.CentreID)
	}

	if filter.OpenedByID != nil {
		query = query.Where("opened_by_id = ?", *filter.OpenedByID)
	}

	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}

	if filter.Priority != "" {
		query = query.Where("priority = ?", filter.Priority)
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

	var tickets []models.Ticket
	if err := query.Order("created_at DESC").Find(&tickets).Error; err != nil {
		return nil, 0, err
	}

	return tickets, total, nil
}
