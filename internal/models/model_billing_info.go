package models

import (
	"time"

	"github.com/casaflow/billing/pkg/types"
)

// BillingInfo is the per-user billing row the rest of the product reads to
// gate feature access. The orchestrator mutates it as the terminal step of
// cancellation reconciliation, so it must reflect the gateway's true state
// after every refund operation.
type BillingInfo struct {
	UserID             string                   `gorm:"column:user_id;type:varchar(64);primary_key" json:"user_id"`
	StripeCustomerID   string                   `gorm:"column:stripe_customer_id;type:varchar(64);uniqueIndex" json:"stripe_customer_id"`
	SubscriptionPlan   types.SubscriptionPlan   `gorm:"column:subscription_plan;type:varchar(32);not null;default:'free'" json:"subscription_plan"`
	SubscriptionStatus types.SubscriptionStatus `gorm:"column:subscription_status;type:varchar(32)" json:"subscription_status"`
	// SubscriptionEndsAt is set when cancellation is scheduled at period end;
	// nil for immediate cancellations and for subscriptions with no pending end.
	SubscriptionEndsAt *time.Time `gorm:"column:subscription_ends_at;default:null" json:"subscription_ends_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

func (BillingInfo) TableName() string {
	return "billing_info"
}

// BillingInfoPatch carries the fields the orchestrator may change. Nil fields
// are left untouched; SubscriptionEndsAt uses the double pointer so the patch
// can distinguish "leave as is" from "set to null".
type BillingInfoPatch struct {
	SubscriptionPlan   *types.SubscriptionPlan
	SubscriptionStatus *types.SubscriptionStatus
	SubscriptionEndsAt **time.Time
}
