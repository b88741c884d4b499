package refund

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	models "github.com/casaflow/billing/internal/models"
	"github.com/casaflow/billing/pkg/logctx"

	"github.com/samber/lo"
)

// errSkippedNoInvoice marks the legitimate no-invoice case; the caller
// records it as a non-fatal detail, not a failure.
var errSkippedNoInvoice = errors.New("charge has no linked invoice")

// issueCreditNote issues at most one credit note per refund id. Retried calls
// (e.g. a client retry of the whole execute request after a timeout) return
// the existing record unchanged.
func (s *Service) issueCreditNote(ctx context.Context, pre *RefundPreview, ref *Refund, reason string) (*models.CreditNote, error) {
	lg := logctx.FromCtx(ctx, s.log)

	existing, err := s.store.CreditNoteByRefundID(ctx, ref.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up credit note: %w", err)
	}
	if existing != nil {
		lg.Infow("credit_note_exists", "refund_id", ref.ID, "credit_note_id", existing.ExternalID)
		return existing, nil
	}

	inv, err := s.gw.InvoiceForCharge(ctx, pre.Charge.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve invoice: %w", err)
	}
	if inv == nil {
		return nil, errSkippedNoInvoice
	}

	// The note covers exactly the refunded amount, even when that is only
	// part of the invoice total.
	if ref.Amount != inv.Total {
		lg.Infow("credit_note_partial_refund", "refund_id", ref.ID, "refund_amount", ref.Amount, "invoice_total", inv.Total)
	}

	memo := "Refund issued"
	if reason != "" {
		memo = fmt.Sprintf("Refund issued: %s", reason)
	}

	cn, err := s.gw.CreateCreditNote(ctx, &CreateCreditNoteRequest{
		InvoiceID: inv.ID,
		RefundID:  ref.ID,
		Amount:    ref.Amount,
		Memo:      memo,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create credit note: %w", err)
	}

	rec := &models.CreditNote{
		ExternalID:        cn.ID,
		InvoiceID:         inv.ID,
		CustomerID:        pre.CustomerID,
		RefundID:          ref.ID,
		Number:            cn.Number,
		Status:            cn.Status,
		Currency:          cn.Currency,
		Total:             cn.Total,
		Subtotal:          cn.Subtotal,
		Tax:               cn.Tax,
		Reason:            cn.Reason,
		Memo:              cn.Memo,
		CreatedAtExternal: cn.CreatedAt,
		CustomerEmail:     inv.CustomerEmail,
		CustomerName:      inv.CustomerName,
		PDFURL:            cn.PDFURL,
	}
	if err := s.store.UpsertCreditNote(ctx, rec); err != nil {
		return nil, fmt.Errorf("failed to persist credit note: %w", err)
	}

	s.cachePDF(ctx, rec)

	return rec, nil
}

// cachePDF copies the gateway-hosted PDF into our own bucket. Any failure is
// logged and swallowed; the gateway URL remains a valid fallback.
func (s *Service) cachePDF(ctx context.Context, rec *models.CreditNote) {
	if rec.PDFURL == "" || s.blobs == nil {
		return
	}
	lg := logctx.FromCtx(ctx, s.log)

	data, err := s.gw.DownloadPDF(ctx, rec.PDFURL)
	if err != nil {
		lg.Warnw("credit_note_pdf_download_failed", "credit_note_id", rec.ExternalID, "err", err)
		return
	}
	path := pdfStoragePath(rec)
	if err := s.blobs.Upload(ctx, path, data, "application/pdf"); err != nil {
		lg.Warnw("credit_note_pdf_upload_failed", "credit_note_id", rec.ExternalID, "path", path, "err", err)
		return
	}

	rec.PDFStoragePath = path
	rec.PDFCachedAt = lo.ToPtr(time.Now().UTC())
	if err := s.store.UpsertCreditNote(ctx, rec); err != nil {
		lg.Warnw("credit_note_pdf_record_update_failed", "credit_note_id", rec.ExternalID, "err", err)
	}
}

// pdfStoragePath namespaces cached PDFs by the note's gateway-side creation
// year/month, e.g. credit-notes/2026/09/cn-1abc.pdf.
func pdfStoragePath(rec *models.CreditNote) string {
	name := rec.Number
	if name == "" {
		name = rec.ExternalID
	}
	at := rec.CreatedAtExternal
	if at.IsZero() {
		at = time.Now().UTC()
	}
	return fmt.Sprintf("credit-notes/%04d/%02d/%s.pdf", at.Year(), int(at.Month()), sanitizeBlobName(name))
}

// sanitizeBlobName keeps [A-Za-z0-9._-] and maps everything else to '-'.
func sanitizeBlobName(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '_', r == '-':
			b.WriteRune(r)
		default:
			b.WriteRune('-')
		}
	}
	return b.String()
}
