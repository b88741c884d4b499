package models

import (
	"time"

	"github.com/casaflow/billing/pkg/types"
)

// SubscriptionMirror is the local copy of the gateway subscription object,
// kept in sync after cancellation actions and webhook events. It also carries
// the payment-method display fields so the preview does not need an extra
// gateway call for display-only data.
type SubscriptionMirror struct {
	CustomerID         string                   `gorm:"column:customer_id;type:varchar(64);primary_key" json:"customer_id"`
	Status             types.SubscriptionStatus `gorm:"column:status;type:varchar(32);not null" json:"status"`
	CancelAtPeriodEnd  bool                     `gorm:"column:cancel_at_period_end;not null;default:false" json:"cancel_at_period_end"`
	PaymentMethodBrand string                   `gorm:"column:payment_method_brand;type:varchar(32)" json:"payment_method_brand"`
	PaymentMethodLast4 string                   `gorm:"column:payment_method_last4;type:varchar(4)" json:"payment_method_last4"`
	UpdatedAt          time.Time                `json:"updated_at"`
}

func (SubscriptionMirror) TableName() string {
	return "subscription_mirror"
}

// SubscriptionMirrorPatch carries the fields cancellation reconciliation may
// change. Nil fields are left untouched.
type SubscriptionMirrorPatch struct {
	Status            *types.SubscriptionStatus
	CancelAtPeriodEnd *bool
}
