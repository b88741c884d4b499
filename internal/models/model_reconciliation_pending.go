package models

import (
	"time"

	"gorm.io/datatypes"
)

// ReconciliationPending marks a user whose gateway-side cancellation
// succeeded but whose local mirror write failed after exhausting retries.
// A periodic out-of-band sweep picks these rows up and fixes the mirror.
type ReconciliationPending struct {
	ID         string         `gorm:"column:id;type:uuid;primary_key" json:"id"`
	UserID     string         `gorm:"column:user_id;type:varchar(64);not null;index" json:"user_id"`
	CustomerID string         `gorm:"column:customer_id;type:varchar(64);not null" json:"customer_id"`
	// Kind names the write that failed, e.g. "cancellation_mirror".
	Kind      string         `gorm:"column:kind;type:varchar(64);not null" json:"kind"`
	Payload   datatypes.JSON `gorm:"column:payload;type:jsonb" json:"payload"`
	CreatedAt time.Time      `json:"created_at"`
}

func (ReconciliationPending) TableName() string { return "reconciliation_pending" }
