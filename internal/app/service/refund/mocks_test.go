package refund

import (
	"context"

	models "github.com/casaflow/billing/internal/models"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
)

type stubGateway struct {
	charge        *Charge
	chargeErr     error
	sub           *Subscription
	subErr        error
	refund        *Refund
	refundErr     error
	cancelNowErr  error
	scheduleErr   error
	creditNote    *CreditNote
	creditNoteErr error
	invoice       *Invoice
	invoiceErr    error
	pdf           []byte
	pdfErr        error

	refundCalls       int
	cancelNowCalls    int
	scheduleCalls     int
	creditNoteCalls   int
	lastCreditNoteReq *CreateCreditNoteRequest
	lastRefundReason  string
}

func (g *stubGateway) LatestCharge(_ context.Context, _ string) (*Charge, error) {
	if g.chargeErr != nil {
		return nil, g.chargeErr
	}
	return g.charge, nil
}

func (g *stubGateway) ActiveSubscription(_ context.Context, _ string) (*Subscription, error) {
	if g.subErr != nil {
		return nil, g.subErr
	}
	return g.sub, nil
}

func (g *stubGateway) RefundCharge(_ context.Context, _ string, reason string) (*Refund, error) {
	g.refundCalls++
	g.lastRefundReason = reason
	if g.refundErr != nil {
		return nil, g.refundErr
	}
	return g.refund, nil
}

func (g *stubGateway) CancelSubscriptionNow(_ context.Context, _ string) error {
	g.cancelNowCalls++
	return g.cancelNowErr
}

func (g *stubGateway) ScheduleCancelAtPeriodEnd(_ context.Context, _ string) error {
	g.scheduleCalls++
	return g.scheduleErr
}

func (g *stubGateway) CreateCreditNote(_ context.Context, req *CreateCreditNoteRequest) (*CreditNote, error) {
	g.creditNoteCalls++
	g.lastCreditNoteReq = req
	if g.creditNoteErr != nil {
		return nil, g.creditNoteErr
	}
	return g.creditNote, nil
}

func (g *stubGateway) InvoiceForCharge(_ context.Context, _ string) (*Invoice, error) {
	if g.invoiceErr != nil {
		return nil, g.invoiceErr
	}
	return g.invoice, nil
}

func (g *stubGateway) DownloadPDF(_ context.Context, _ string) ([]byte, error) {
	if g.pdfErr != nil {
		return nil, g.pdfErr
	}
	return g.pdf, nil
}

type stubLedger struct {
	customerID      string
	customerErr     error
	mirror          *models.SubscriptionMirror
	mirrorErr       error
	existingNote    *models.CreditNote
	noteLookupErr   error
	patchBillingErr error
	patchMirrorErr  error
	upsertErr       error
	auditErr        error
	pendingErr      error

	billingPatches []*models.BillingInfoPatch
	mirrorPatches  []*models.SubscriptionMirrorPatch
	upserts        []*models.CreditNote
	audits         []*models.AdminActivityLog
	pendings       []*models.ReconciliationPending
}

func (l *stubLedger) CustomerIDByUser(_ context.Context, _ string) (string, error) {
	if l.customerErr != nil {
		return "", l.customerErr
	}
	return l.customerID, nil
}

func (l *stubLedger) SubscriptionMirror(_ context.Context, _ string) (*models.SubscriptionMirror, error) {
	if l.mirrorErr != nil {
		return nil, l.mirrorErr
	}
	return l.mirror, nil
}

func (l *stubLedger) PatchBillingInfo(_ context.Context, _ string, patch *models.BillingInfoPatch) error {
	if l.patchBillingErr != nil {
		return l.patchBillingErr
	}
	l.billingPatches = append(l.billingPatches, patch)
	return nil
}

func (l *stubLedger) PatchSubscriptionMirror(_ context.Context, _ string, patch *models.SubscriptionMirrorPatch) error {
	if l.patchMirrorErr != nil {
		return l.patchMirrorErr
	}
	l.mirrorPatches = append(l.mirrorPatches, patch)
	return nil
}

func (l *stubLedger) CreditNoteByRefundID(_ context.Context, _ string) (*models.CreditNote, error) {
	if l.noteLookupErr != nil {
		return nil, l.noteLookupErr
	}
	return l.existingNote, nil
}

func (l *stubLedger) UpsertCreditNote(_ context.Context, note *models.CreditNote) error {
	if l.upsertErr != nil {
		return l.upsertErr
	}
	copied := *note
	l.upserts = append(l.upserts, &copied)
	return nil
}

func (l *stubLedger) AppendAuditRecord(_ context.Context, rec *models.AdminActivityLog) error {
	if l.auditErr != nil {
		return l.auditErr
	}
	l.audits = append(l.audits, rec)
	return nil
}

func (l *stubLedger) AppendReconciliationPending(_ context.Context, rec *models.ReconciliationPending) error {
	if l.pendingErr != nil {
		return l.pendingErr
	}
	l.pendings = append(l.pendings, rec)
	return nil
}

type stubBlobs struct {
	uploadErr error

	paths    []string
	payloads [][]byte
}

func (b *stubBlobs) Upload(_ context.Context, path string, data []byte, _ string) error {
	if b.uploadErr != nil {
		return b.uploadErr
	}
	b.paths = append(b.paths, path)
	b.payloads = append(b.payloads, data)
	return nil
}

// newTestService wires stubs into a Service with retries disabled so failure
// paths resolve immediately.
func newTestService(gw *stubGateway, store *stubLedger, blobs *stubBlobs) *Service {
	return &Service{
		log:        zap.NewNop().Sugar(),
		gw:         gw,
		store:      store,
		blobs:      blobs,
		newBackOff: func() backoff.BackOff { return &backoff.StopBackOff{} },
	}
}
