package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Fields is the free-form structured payload attached to an Event. It is
// stored as a JSON text column, the same "extensibility without schema
// changes" approach the teacher used for proxy-specific metadata.
type Fields map[string]any

func (f Fields) Value() (driver.Value, error) {
	if len(f) == 0 {
		return "{}", nil
	}
	b, err := json.Marshal(f)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (f *Fields) Scan(value any) error {
	if value == nil {
		*f = Fields{}
		return nil
	}
	var raw []byte
	switch v := value.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("fields: unsupported scan type %T", value)
	}
	if len(raw) == 0 {
		*f = Fields{}
		return nil
	}
	m := Fields{}
	if err := json.Unmarshal(raw, &m); err != nil {
		return err
	}
	*f = m
	return nil
}

// Event is the canonical record persisted by the Event Writer (C3) and
// deleted only by the Retention Collector (C5). It is never updated.
type Event struct {
	ID         uint64    `gorm:"primaryKey;autoIncrement:false"`
	AppID      string    `gorm:"not null;index:idx_event_app_id"`
	Ts         time.Time `gorm:"not null;index:idx_event_ts"`
	Host       string
	Source     string `gorm:"index:idx_event_source"`
	Sourcetype string `gorm:"index:idx_event_sourcetype"`
	Severity   *int
	Message    string    `gorm:"not null"`
	Fields     Fields    `gorm:"type:text"`
	CreatedAt  time.Time `gorm:"autoCreateTime"`
}

func (Event) TableName() string {
	return "events"
}

// RetentionAttempt records the id set a retention cycle committed to
// deleting from the relational store before attempting the index delete,
// so a mid-cycle crash can resume cleaning the index on the next cycle.
type RetentionAttempt struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement"`
	EventID   uint64    `gorm:"not null;index:idx_retention_attempt_event"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

func (RetentionAttempt) TableName() string {
	return "retention_attempts"
}
