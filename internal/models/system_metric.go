package models

import "time"

// SystemMetric is a rolling operational counter. Advisory only: it may lag
// the ledger under partial failure, the ledger row is the source of truth.
type SystemMetric struct {
	Event        string    `gorm:"primaryKey" json:"event"`
	Total        int64     `json:"total"`
	LastOccurred time.Time `json:"lastOccurred"`
}
