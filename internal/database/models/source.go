package models

import "time"

// Source describes where the Tailer should look for log files on behalf
// of an App. Today the only Kind is "tail".
type Source struct {
	ID          uint64 `gorm:"primaryKey;autoIncrement"`
	AppID       string `gorm:"not null;index:idx_source_app"`
	Kind        string `gorm:"not null;default:tail"`
	Path        string `gorm:"not null"`
	Recursive   bool
	Encoding    string `gorm:"default:utf-8"`
	IncludeGlob string
	ExcludeGlob string
	Enabled     bool `gorm:"default:true"`
	CreatedAt   time.Time
}

func (Source) TableName() string {
	return "app_sources"
}
