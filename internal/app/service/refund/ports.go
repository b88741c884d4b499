package refund

import (
	"context"
	"time"

	models "github.com/casaflow/billing/internal/models"
	types "github.com/casaflow/billing/pkg/types"
)

// Charge is the gateway charge snapshot the preview is built around.
// Amounts are minor units on the wire; conversion to major units happens only
// at the presentation boundary (RefundResult).
type Charge struct {
	ID          string    `json:"id"`
	Amount      int64     `json:"amount"`
	Currency    string    `json:"currency"`
	CreatedAt   time.Time `json:"created_at"`
	Refunded    bool      `json:"refunded"`
	Description string    `json:"description,omitempty"`
	// InvoiceID is empty for charges without a linked invoice (manually
	// created charges commonly lack one).
	InvoiceID string `json:"invoice_id,omitempty"`
}

type Subscription struct {
	ID                 string                   `json:"id"`
	Status             types.SubscriptionStatus `json:"status"`
	CurrentPeriodStart time.Time                `json:"current_period_start"`
	CurrentPeriodEnd   time.Time                `json:"current_period_end"`
	CancelAtPeriodEnd  bool                     `json:"cancel_at_period_end"`
	PlanAmount         int64                    `json:"plan_amount"`
	PlanInterval       string                   `json:"plan_interval"`
	PlanCurrency       string                   `json:"plan_currency"`
}

type Refund struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Status   string `json:"status"`
}

type Invoice struct {
	ID            string `json:"id"`
	Total         int64  `json:"total"`
	Currency      string `json:"currency"`
	CustomerID    string `json:"customer_id"`
	CustomerEmail string `json:"customer_email,omitempty"`
	CustomerName  string `json:"customer_name,omitempty"`
}

// CreditNote is the gateway-side note object as returned by CreateCreditNote.
type CreditNote struct {
	ID        string
	Number    string
	Status    types.CreditNoteStatus
	Currency  string
	Total     int64
	Subtotal  int64
	Tax       int64
	Reason    string
	Memo      string
	PDFURL    string
	CreatedAt time.Time
}

type CreateCreditNoteRequest struct {
	InvoiceID string
	// RefundID links the note to the refund and seeds the provider-side
	// idempotency key, so a retried call cannot double-issue.
	RefundID string
	Amount   int64
	Memo     string
}

// Gateway is the narrow payments-provider contract the refund flow consumes.
// Implementations return *GatewayError for provider-side failures.
type Gateway interface {
	// LatestCharge returns the single most recent charge for the customer,
	// or ErrNoChargesFound if the customer has never been charged.
	LatestCharge(ctx context.Context, customerID string) (*Charge, error)
	// ActiveSubscription returns nil (not an error) when the customer has no
	// active subscription. At most one active subscription is expected.
	ActiveSubscription(ctx context.Context, customerID string) (*Subscription, error)
	// RefundCharge is NOT idempotent at the provider level; callers must
	// guard against duplicate invocation.
	RefundCharge(ctx context.Context, chargeID string, reason string) (*Refund, error)
	CancelSubscriptionNow(ctx context.Context, subscriptionID string) error
	ScheduleCancelAtPeriodEnd(ctx context.Context, subscriptionID string) error
	CreateCreditNote(ctx context.Context, req *CreateCreditNoteRequest) (*CreditNote, error)
	// InvoiceForCharge returns nil (not an error) when the charge has no
	// linked invoice.
	InvoiceForCharge(ctx context.Context, chargeID string) (*Invoice, error)
	DownloadPDF(ctx context.Context, url string) ([]byte, error)
}

// Ledger is the relational-store contract.
type Ledger interface {
	// CustomerIDByUser resolves the gateway customer id for a local user,
	// or ErrCustomerNotFound.
	CustomerIDByUser(ctx context.Context, userID string) (string, error)
	// SubscriptionMirror returns nil (not an error) when no mirror row exists.
	SubscriptionMirror(ctx context.Context, customerID string) (*models.SubscriptionMirror, error)
	PatchBillingInfo(ctx context.Context, userID string, patch *models.BillingInfoPatch) error
	PatchSubscriptionMirror(ctx context.Context, customerID string, patch *models.SubscriptionMirrorPatch) error
	// CreditNoteByRefundID returns nil (not an error) when absent.
	CreditNoteByRefundID(ctx context.Context, refundID string) (*models.CreditNote, error)
	UpsertCreditNote(ctx context.Context, note *models.CreditNote) error
	AppendAuditRecord(ctx context.Context, rec *models.AdminActivityLog) error
	AppendReconciliationPending(ctx context.Context, rec *models.ReconciliationPending) error
}

// BlobStore is the object-storage contract for cached credit-note PDFs.
// Uploads are best-effort; callers treat failure as non-fatal.
type BlobStore interface {
	Upload(ctx context.Context, path string, data []byte, contentType string) error
}

type PaymentMethod struct {
	Brand string `json:"brand"`
	Last4 string `json:"last4"`
}

// RefundPreview is the consistent snapshot an admin reviews before
// committing. Building it never mutates gateway or store state.
type RefundPreview struct {
	CustomerID string  `json:"customer_id"`
	Charge     *Charge `json:"charge"`
	// Subscription is nil when the customer has no active subscription,
	// e.g. after a one-time charge.
	Subscription *Subscription `json:"subscription,omitempty"`
	// PaymentMethod is sourced from the local mirror, not the gateway.
	PaymentMethod *PaymentMethod `json:"payment_method,omitempty"`
}

type ExecuteRequest struct {
	UserID            string `json:"user_id"`
	AdminUserID       string `json:"admin_user_id"`
	Reason            string `json:"reason,omitempty"`
	CancelImmediately bool   `json:"cancel_immediately"`
}

type CreditNoteOutcome struct {
	ID     string `json:"id,omitempty"`
	Number string `json:"number,omitempty"`
	Error  string `json:"error,omitempty"`
}

// RefundResult is the operation outcome returned to the caller. Amount is in
// major units; everything upstream of this struct stays in minor units.
type RefundResult struct {
	RefundID             string             `json:"refund_id"`
	Amount               float64            `json:"amount"`
	Currency             string             `json:"currency"`
	CancelledImmediately bool               `json:"cancelled_immediately"`
	CreditNote           *CreditNoteOutcome `json:"credit_note,omitempty"`
}

// RefundManager is the single orchestration entrypoint exposed to the admin
// surface: a read-only preview and the committing execute.
type RefundManager interface {
	Preview(ctx context.Context, userID string) (*RefundPreview, error)
	Execute(ctx context.Context, req *ExecuteRequest) (*RefundResult, error)
}

func minorToMajor(amount int64) float64 {
	return float64(amount) / 100
}
