package models

import (
	"time"

	"github.com/casaflow/billing/pkg/types"
)

// CreditNote mirrors the gateway's credit-note object. RefundID is the
// natural idempotency key: at most one note exists per refund, enforced by
// the unique index and the issuance guard in the refund service.
type CreditNote struct {
	ExternalID string                 `gorm:"column:external_id;type:varchar(64);primary_key" json:"external_id"`
	InvoiceID  string                 `gorm:"column:invoice_id;type:varchar(64);not null" json:"invoice_id"`
	CustomerID string                 `gorm:"column:customer_id;type:varchar(64);not null;index" json:"customer_id"`
	RefundID   string                 `gorm:"column:refund_id;type:varchar(64);not null;uniqueIndex" json:"refund_id"`
	Number     string                 `gorm:"column:number;type:varchar(64)" json:"number"`
	Status     types.CreditNoteStatus `gorm:"column:status;type:varchar(32);not null" json:"status"`
	Currency   string                 `gorm:"column:currency;type:varchar(8);not null" json:"currency"`
	Total      int64                  `gorm:"column:total;type:bigint;not null" json:"total"`
	Subtotal   int64                  `gorm:"column:subtotal;type:bigint;not null" json:"subtotal"`
	Tax        int64                  `gorm:"column:tax;type:bigint;not null;default:0" json:"tax"`
	Reason     string                 `gorm:"column:reason;type:varchar(64)" json:"reason"`
	Memo       string                 `gorm:"column:memo;type:text" json:"memo"`
	// CreatedAtExternal is the gateway-side creation time.
	CreatedAtExternal time.Time `gorm:"column:created_at_external" json:"created_at_external"`
	CustomerEmail     string    `gorm:"column:customer_email;type:varchar(255)" json:"customer_email"`
	CustomerName      string    `gorm:"column:customer_name;type:varchar(255)" json:"customer_name"`
	// PDFURL is the gateway-hosted document; it stays the fallback when the
	// cached copy is missing.
	PDFURL         string     `gorm:"column:pdf_url;type:text" json:"pdf_url"`
	PDFStoragePath string     `gorm:"column:pdf_storage_path;type:text" json:"pdf_storage_path"`
	PDFCachedAt    *time.Time `gorm:"column:pdf_cached_at;default:null" json:"pdf_cached_at"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

func (CreditNote) TableName() string {
	return "credit_note"
}

func (n *CreditNote) HasCachedPDF() bool {
	return n != nil && n.PDFStoragePath != "" && n.PDFCachedAt != nil
}
