package repositories

import (
	"time"

	"loglite/internal/database/models"

	"gorm.io/gorm"
)

type OffsetRepository interface {
	Get(sourceID uint64, filePath string) (int64, error)
	Upsert(sourceID uint64, filePath string, offsetBytes int64) error
}

type offsetRepo struct {
	db *gorm.DB
}

func NewOffsetRepository(db *gorm.DB) OffsetRepository {
	return &offsetRepo{db: db}
}

// Get returns the committed offset for (sourceID, filePath), defaulting to
// 0 when no row exists yet (spec.md §4.4 step 3).
func (r *offsetRepo) Get(sourceID uint64, filePath string) (int64, error) {
	var off models.TailOffset
	err := r.db.Where("source_id = ? AND file_path = ?", sourceID, filePath).First(&off).Error
	if err == gorm.ErrRecordNotFound {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return off.OffsetBytes, nil
}

// Upsert records the byte position committed to storage after a successful
// admission call (spec.md §4.4 step 6 / §5 ordering guarantee).
func (r *offsetRepo) Upsert(sourceID uint64, filePath string, offsetBytes int64) error {
	now := time.Now().UTC()
	return r.db.Exec(
		`INSERT INTO tail_offsets (source_id, file_path, offset_bytes, updated_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(source_id, file_path) DO UPDATE SET
		   offset_bytes = excluded.offset_bytes,
		   updated_at = excluded.updated_at`,
		sourceID, filePath, offsetBytes, now,
	).Error
}
