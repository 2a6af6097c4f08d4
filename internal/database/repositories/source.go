package repositories

import (
	"time"

	"loglite/internal/database/models"

	"gorm.io/gorm"
)

type SourceRepository interface {
	Create(source *models.Source) error
	FindByID(id uint64) (*models.Source, error)
	FindByAppID(appID string) ([]*models.Source, error)
	FindAllEnabled() ([]*models.Source, error)
	Update(source *models.Source) error
	Delete(id uint64) error
}

type sourceRepo struct {
	db *gorm.DB
}

func NewSourceRepository(db *gorm.DB) SourceRepository {
	return &sourceRepo{db: db}
}

func (r *sourceRepo) Create(source *models.Source) error {
	if source.CreatedAt.IsZero() {
		source.CreatedAt = time.Now().UTC()
	}
	if source.Encoding == "" {
		source.Encoding = "utf-8"
	}
	return r.db.Create(source).Error
}

func (r *sourceRepo) FindByID(id uint64) (*models.Source, error) {
	var source models.Source
	if err := r.db.First(&source, id).Error; err != nil {
		return nil, err
	}
	return &source, nil
}

func (r *sourceRepo) FindByAppID(appID string) ([]*models.Source, error) {
	var sources []*models.Source
	err := r.db.Where("app_id = ?", appID).Order("id ASC").Find(&sources).Error
	return sources, err
}

// FindAllEnabled returns every enabled tail source across all apps; this is
// the set the Tailer loads once per tick (spec.md §4.4 step 1).
func (r *sourceRepo) FindAllEnabled() ([]*models.Source, error) {
	var sources []*models.Source
	err := r.db.Where("enabled = ? AND kind = ?", true, "tail").Order("id ASC").Find(&sources).Error
	return sources, err
}

func (r *sourceRepo) Update(source *models.Source) error {
	return r.db.Save(source).Error
}

func (r *sourceRepo) Delete(id uint64) error {
	return r.db.Delete(&models.Source{}, id).Error
}
