package models

import "time"

// SequenceCounter stores the last issued value for a named monotonic
// counter, one row per category code (ENG, MGR, INV, ...). The Seq column
// is only ever advanced by the atomic increment in pkg/sequence, never by
// read-modify-write in application code.
type SequenceCounter struct {
	Category  string    `gorm:"primaryKey;size:10" json:"category"`
	Seq       int64     `gorm:"not null;default:0" json:"seq"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (SequenceCounter) TableName() string { return "sequence_counters" }
