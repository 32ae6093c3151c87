// Package models contains data structures for the application's domain models.
package models

import "time"

// ClickEvent is one synthetic ad click. Column types follow the dialect
// mapping: timestamptz, numeric, boolean and text on PostgreSQL.
type ClickEvent struct {
	ClickTS      time.Time `gorm:"column:click_ts;not null" json:"click_ts"`
	AdCost       float64   `gorm:"column:ad_cost;not null" json:"ad_cost"`
	IsConversion bool      `gorm:"column:is_conversion;not null" json:"is_conversion"`
	UserID       string    `gorm:"column:user_id;not null" json:"user_id"`
}

// TableName specifies the table name for GORM when no explicit table is given.
func (ClickEvent) TableName() string {
	return "clicks"
}
