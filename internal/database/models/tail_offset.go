package models

import "time"

// TailOffset tracks the last byte position the Tailer has committed for a
// given (source, file) pair. It is the Tailer's only persisted state;
// nothing about a partial trailing line is ever kept in memory across ticks.
type TailOffset struct {
	SourceID    uint64 `gorm:"primaryKey;autoIncrement:false;index:idx_offset_lookup"`
	FilePath    string `gorm:"primaryKey;size:1024"`
	OffsetBytes int64  `gorm:"not null;default:0"`
	UpdatedAt   time.Time
}

func (TailOffset) TableName() string {
	return "tail_offsets"
}
