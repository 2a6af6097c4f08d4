package repositories

import (
	"time"

	"loglite/internal/database/models"

	"gorm.io/gorm"
)

type EventRepository interface {
	Create(event *models.Event) error
	FindByID(appID string, id uint64) (*models.Event, error)
	FindByIDs(ids []uint64) ([]*models.Event, error)
	SelectExpiredIDs(cutoff time.Time, limit int) ([]uint64, error)
	DeleteByIDs(ids []uint64) error
}

type eventRepo struct {
	db *gorm.DB
}

func NewEventRepository(db *gorm.DB) EventRepository {
	return &eventRepo{db: db}
}

// Create persists a single event row. The Event Writer (C3) calls this
// before the corresponding index add, never after.
func (r *eventRepo) Create(event *models.Event) error {
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}
	return r.db.Create(event).Error
}

func (r *eventRepo) FindByID(appID string, id uint64) (*models.Event, error) {
	var event models.Event
	if err := r.db.Where("app_id = ? AND id = ?", appID, id).First(&event).Error; err != nil {
		return nil, err
	}
	return &event, nil
}

// FindByIDs hydrates full event rows for a set of ids returned by a search,
// preserving the relational store's role as ground truth (spec.md §9).
func (r *eventRepo) FindByIDs(ids []uint64) ([]*models.Event, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var events []*models.Event
	err := r.db.Where("id IN ?", ids).Find(&events).Error
	return events, err
}

// SelectExpiredIDs returns up to limit event ids with ts before cutoff,
// ordered oldest-first, for the Retention Collector (spec.md §4.5 step 1).
func (r *eventRepo) SelectExpiredIDs(cutoff time.Time, limit int) ([]uint64, error) {
	var ids []uint64
	err := r.db.Model(&models.Event{}).
		Where("ts < ?", cutoff).
		Order("ts ASC").
		Limit(limit).
		Pluck("id", &ids).Error
	return ids, err
}

func (r *eventRepo) DeleteByIDs(ids []uint64) error {
	if len(ids) == 0 {
		return nil
	}
	return r.db.Where("id IN ?", ids).Delete(&models.Event{}).Error
}
