package models

import (
	"time"

	"github.com/casaflow/billing/pkg/types"

	"gorm.io/datatypes"
)

// AdminActivityDetails captures the full refund decision for the audit trail:
// amounts, ids, reason text, which cancellation branch was taken, and the
// credit-note outcome.
type AdminActivityDetails struct {
	RefundID        string `json:"refund_id"`
	Amount          int64  `json:"amount"`
	Currency        string `json:"currency"`
	ChargeID        string `json:"charge_id"`
	Reason          string `json:"reason,omitempty"`
	CancelImmediate bool   `json:"cancel_immediately"`
	CreditNoteID    string `json:"credit_note_id,omitempty"`
	CreditNoteError string `json:"credit_note_error,omitempty"`
	// ReconcileError records a mirror-write failure that survived the retry
	// budget; the gateway state is authoritative in that case.
	ReconcileError string    `json:"reconcile_error,omitempty"`
	Timestamp      time.Time `json:"timestamp"`
}

// AdminActivityLog is append-only. Rows are never mutated after insert.
type AdminActivityLog struct {
	ID           string                                       `gorm:"column:id;type:uuid;primary_key" json:"id"`
	AdminUserID  string                                       `gorm:"column:admin_user_id;type:varchar(64);not null;index" json:"admin_user_id"`
	Action       types.AdminAction                            `gorm:"column:action;type:varchar(64);not null" json:"action"`
	TargetUserID string                                       `gorm:"column:target_user_id;type:varchar(64);not null;index" json:"target_user_id"`
	Details      datatypes.JSONType[*AdminActivityDetails]    `gorm:"column:details;type:jsonb;default:'{}'" json:"details"`
	CreatedAt    time.Time                                    `json:"created_at"`
}

func (AdminActivityLog) TableName() string {
	return "admin_activity_log"
}
