package refund

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	models "github.com/casaflow/billing/internal/models"
	"github.com/casaflow/billing/pkg/logctx"
	"github.com/casaflow/billing/pkg/metrics"
	"github.com/casaflow/billing/pkg/tool"
	types "github.com/casaflow/billing/pkg/types"

	"github.com/cenkalti/backoff/v4"
	"github.com/samber/lo"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

// refundReason is the provider-side reason code attached to every refund.
const refundReason = "requested_by_customer"

type Service struct {
	log   *zap.SugaredLogger
	gw    Gateway
	store Ledger
	blobs BlobStore

	// newBackOff builds the retry policy for mirror writes after a
	// successful gateway cancellation.
	newBackOff func() backoff.BackOff
}

func NewService(log *zap.SugaredLogger, gw Gateway, store Ledger, blobs BlobStore) RefundManager {
	return &Service{
		log:   log,
		gw:    gw,
		store: store,
		blobs: blobs,
		newBackOff: func() backoff.BackOff {
			return backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 3)
		},
	}
}

// Execute runs the full refund orchestration. The refund call is the only
// fatal step: once it commits, credit-note issuance, subscription
// reconciliation and audit logging are each caught and recorded rather than
// unwound. Financially correct beats administratively complete.
func (s *Service) Execute(ctx context.Context, req *ExecuteRequest) (*RefundResult, error) {
	if req == nil || req.UserID == "" {
		return nil, fmt.Errorf("missing user id")
	}
	lg := logctx.FromCtx(ctx, s.log)

	// Precondition: rebuild the preview fresh. The gateway is the single
	// source of truth for "has this charge been refunded"; two near
	// simultaneous admin clicks both land here and only one proceeds.
	pre, err := s.Preview(ctx, req.UserID)
	if err != nil {
		return nil, err
	}
	if pre.Charge.Refunded {
		metrics.RefundTotal.WithLabelValues("already_refunded").Inc()
		return nil, fmt.Errorf("charge %s: %w", pre.Charge.ID, ErrAlreadyRefunded)
	}

	ref, err := s.gw.RefundCharge(ctx, pre.Charge.ID, refundReason)
	if err != nil {
		// Nothing has been written yet; abort the whole operation and
		// surface the gateway error to the caller.
		metrics.RefundTotal.WithLabelValues("failed").Inc()
		return nil, fmt.Errorf("failed to refund charge %s: %w", pre.Charge.ID, err)
	}
	lg.Infow("refund_committed", "refund_id", ref.ID, "charge_id", pre.Charge.ID, "amount", ref.Amount, "currency", ref.Currency)

	result := &RefundResult{
		RefundID:             ref.ID,
		Amount:               minorToMajor(ref.Amount),
		Currency:             ref.Currency,
		CancelledImmediately: pre.Subscription != nil && req.CancelImmediately,
	}

	details := &models.AdminActivityDetails{
		RefundID:        ref.ID,
		Amount:          ref.Amount,
		Currency:        ref.Currency,
		ChargeID:        pre.Charge.ID,
		Reason:          req.Reason,
		CancelImmediate: req.CancelImmediately,
		Timestamp:       time.Now().UTC(),
	}

	// Credit note, best-effort. The refund is the financially authoritative
	// action; the note is a paper-trail convenience.
	note, cnErr := s.issueCreditNote(ctx, pre, ref, req.Reason)
	switch {
	case cnErr == nil:
		result.CreditNote = &CreditNoteOutcome{ID: note.ExternalID, Number: note.Number}
		details.CreditNoteID = note.ExternalID
		metrics.CreditNoteTotal.WithLabelValues("issued").Inc()
	case errors.Is(cnErr, errSkippedNoInvoice):
		result.CreditNote = &CreditNoteOutcome{Error: cnErr.Error()}
		details.CreditNoteError = cnErr.Error()
		metrics.CreditNoteTotal.WithLabelValues("skipped_no_invoice").Inc()
		lg.Infow("credit_note_skipped", "refund_id", ref.ID, "reason", cnErr.Error())
	default:
		result.CreditNote = &CreditNoteOutcome{Error: cnErr.Error()}
		details.CreditNoteError = cnErr.Error()
		metrics.CreditNoteTotal.WithLabelValues("failed").Inc()
		lg.Errorw("credit_note_failed", "refund_id", ref.ID, "err", cnErr)
	}

	// Subscription reconciliation uses the preview's snapshot, captured
	// before the refund, so a gateway-side change between preview and
	// execute cannot flip the branch.
	if pre.Subscription != nil {
		if rerr := s.reconcileSubscription(ctx, req, pre); rerr != nil {
			details.ReconcileError = rerr.Error()
			lg.Errorw("subscription_reconcile_failed", "refund_id", ref.ID, "subscription_id", pre.Subscription.ID, "err", rerr)
		}
	}

	audit := &models.AdminActivityLog{
		ID:           tool.GenerateUUIDV7(),
		AdminUserID:  req.AdminUserID,
		Action:       types.AdminActionRefundSubscription,
		TargetUserID: req.UserID,
		Details:      datatypes.NewJSONType(details),
	}
	if aerr := s.store.AppendAuditRecord(ctx, audit); aerr != nil {
		lg.Errorw("audit_append_failed", "refund_id", ref.ID, "err", aerr)
	}

	metrics.RefundTotal.WithLabelValues("success").Inc()
	return result, nil
}

func (s *Service) reconcileSubscription(ctx context.Context, req *ExecuteRequest, pre *RefundPreview) error {
	sub := pre.Subscription

	var mirrorPatch *models.SubscriptionMirrorPatch
	var billingPatch *models.BillingInfoPatch

	if req.CancelImmediately {
		if err := s.gw.CancelSubscriptionNow(ctx, sub.ID); err != nil {
			return fmt.Errorf("failed to cancel subscription: %w", err)
		}
		mirrorPatch = &models.SubscriptionMirrorPatch{
			Status:            lo.ToPtr(types.SubscriptionStatusCanceled),
			CancelAtPeriodEnd: lo.ToPtr(false),
		}
		billingPatch = &models.BillingInfoPatch{
			SubscriptionPlan:   lo.ToPtr(types.SubscriptionPlanFree),
			SubscriptionStatus: lo.ToPtr(types.SubscriptionStatusCanceled),
			SubscriptionEndsAt: lo.ToPtr[*time.Time](nil),
		}
	} else {
		if err := s.gw.ScheduleCancelAtPeriodEnd(ctx, sub.ID); err != nil {
			return fmt.Errorf("failed to schedule cancellation: %w", err)
		}
		// Plan and status stay untouched; paid access runs to period end.
		mirrorPatch = &models.SubscriptionMirrorPatch{
			CancelAtPeriodEnd: lo.ToPtr(true),
		}
		billingPatch = &models.BillingInfoPatch{
			SubscriptionEndsAt: lo.ToPtr(lo.ToPtr(sub.CurrentPeriodEnd)),
		}
	}

	return s.writeMirrors(ctx, req.UserID, pre.CustomerID, mirrorPatch, billingPatch)
}

// writeMirrors applies the two reconciliation writes with backoff. If the
// retry budget is exhausted the gateway is authoritative but unmirrored, so a
// reconciliation_pending row is left for the out-of-band sweep.
func (s *Service) writeMirrors(ctx context.Context, userID, customerID string, mp *models.SubscriptionMirrorPatch, bp *models.BillingInfoPatch) error {
	op := func() error {
		if err := s.store.PatchSubscriptionMirror(ctx, customerID, mp); err != nil {
			return fmt.Errorf("subscription mirror: %w", err)
		}
		if err := s.store.PatchBillingInfo(ctx, userID, bp); err != nil {
			return fmt.Errorf("billing info: %w", err)
		}
		return nil
	}

	err := backoff.Retry(op, backoff.WithContext(s.newBackOff(), ctx))
	if err == nil {
		return nil
	}

	metrics.ReconciliationRetryExhausted.Inc()
	payload, _ := json.Marshal(map[string]any{
		"subscription_mirror_patch": mp,
		"billing_info_patch":        bp,
		"error":                     err.Error(),
	})
	pending := &models.ReconciliationPending{
		ID:         tool.GenerateUUIDV7(),
		UserID:     userID,
		CustomerID: customerID,
		Kind:       "cancellation_mirror",
		Payload:    payload,
	}
	if perr := s.store.AppendReconciliationPending(ctx, pending); perr != nil {
		logctx.FromCtx(ctx, s.log).Errorw("reconciliation_pending_append_failed", "user_id", userID, "err", perr)
	}
	return fmt.Errorf("mirror writes failed after retries: %w", err)
}
