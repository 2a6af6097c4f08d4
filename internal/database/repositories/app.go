package repositories

import (
	"errors"
	"strings"
	"time"

	"loglite/internal/database/models"

	"gorm.io/gorm"
)

// ErrDuplicateApp is returned when an App with the same AppID already exists.
var ErrDuplicateApp = errors.New("app already exists")

type AppRepository interface {
	Create(app *models.App) error
	FindByAppID(appID string) (*models.App, error)
	FindAll() ([]*models.App, error)
}

type appRepo struct {
	db *gorm.DB
}

func NewAppRepository(db *gorm.DB) AppRepository {
	return &appRepo{db: db}
}

func (r *appRepo) Create(app *models.App) error {
	if app.CreatedAt.IsZero() {
		app.CreatedAt = time.Now().UTC()
	}
	if err := r.db.Create(app).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) || strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return ErrDuplicateApp
		}
		return err
	}
	return nil
}

func (r *appRepo) FindByAppID(appID string) (*models.App, error) {
	var app models.App
	if err := r.db.Where("app_id = ?", appID).First(&app).Error; err != nil {
		return nil, err
	}
	return &app, nil
}

func (r *appRepo) FindAll() ([]*models.App, error) {
	var apps []*models.App
	err := r.db.Order("created_at DESC").Find(&apps).Error
	return apps, err
}
