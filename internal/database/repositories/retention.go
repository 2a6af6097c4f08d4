package repositories

import (
	"loglite/internal/database/models"

	"gorm.io/gorm"
)

// RetentionAttemptRepository persists the id set a retention cycle has
// committed to deleting, so a crash between the relational delete and the
// index delete can still clean the index on the next cycle (spec.md §4.5).
type RetentionAttemptRepository interface {
	Record(ids []uint64) error
	Pending() ([]uint64, error)
	Clear(ids []uint64) error
}

type retentionAttemptRepo struct {
	db *gorm.DB
}

func NewRetentionAttemptRepository(db *gorm.DB) RetentionAttemptRepository {
	return &retentionAttemptRepo{db: db}
}

func (r *retentionAttemptRepo) Record(ids []uint64) error {
	if len(ids) == 0 {
		return nil
	}
	attempts := make([]models.RetentionAttempt, 0, len(ids))
	for _, id := range ids {
		attempts = append(attempts, models.RetentionAttempt{EventID: id})
	}
	return r.db.Create(&attempts).Error
}

func (r *retentionAttemptRepo) Pending() ([]uint64, error) {
	var ids []uint64
	err := r.db.Model(&models.RetentionAttempt{}).Distinct().Pluck("event_id", &ids).Error
	return ids, err
}

func (r *retentionAttemptRepo) Clear(ids []uint64) error {
	if len(ids) == 0 {
		return nil
	}
	return r.db.Where("event_id IN ?", ids).Delete(&models.RetentionAttempt{}).Error
}
