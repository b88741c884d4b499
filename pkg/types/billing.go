package types

type SubscriptionPlan string

const (
	SubscriptionPlanFree SubscriptionPlan = "free"
	SubscriptionPlanPro  SubscriptionPlan = "pro"
)

type SubscriptionStatus string

const (
	SubscriptionStatusActive   SubscriptionStatus = "active"
	SubscriptionStatusTrialing SubscriptionStatus = "trialing"
	SubscriptionStatusPastDue  SubscriptionStatus = "past_due"
	SubscriptionStatusCanceled SubscriptionStatus = "canceled"
)

type AdminAction string

const (
	AdminActionRefundSubscription AdminAction = "refund_subscription"
)

type CreditNoteStatus string

const (
	CreditNoteStatusIssued CreditNoteStatus = "issued"
	CreditNoteStatusVoid   CreditNoteStatus = "void"
)
