package models

import "time"

// App is a tenant namespace. AppID is a stable slug+hash derived from Name
// and never changes; Name is the human label and is not required to be unique.
type App struct {
	AppID     string `gorm:"primaryKey;size:80"`
	Name      string `gorm:"not null"`
	CreatedAt time.Time
}

func (App) TableName() string {
	return "apps"
}
