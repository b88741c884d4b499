package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/casaflow/billing/internal/app/service/eventlog"
	models "github.com/casaflow/billing/internal/models"
	"github.com/casaflow/billing/pkg/config"
	"github.com/casaflow/billing/pkg/logctx"
	types "github.com/casaflow/billing/pkg/types"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"
	stripe "github.com/stripe/stripe-go/v74"
	stripewebhook "github.com/stripe/stripe-go/v74/webhook"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

// ErrSignatureVerification marks an event whose Stripe-Signature header did
// not validate against the configured endpoint secret.
var ErrSignatureVerification = errors.New("signature verification failed")

// Store is the slice of the ledger the webhook handler needs to keep the
// local mirror in sync with gateway-side subscription changes.
type Store interface {
	UserIDByCustomer(ctx context.Context, customerID string) (string, error)
	PatchSubscriptionMirror(ctx context.Context, customerID string, patch *models.SubscriptionMirrorPatch) error
	PatchBillingInfo(ctx context.Context, userID string, patch *models.BillingInfoPatch) error
}

type Handler struct {
	cfg      *config.Config
	store    Store
	eventSvc *eventlog.Service
	Logger   *zap.SugaredLogger
}

func NewHandler(cfg *config.Config, store Store, events *eventlog.Service, log *zap.SugaredLogger) *Handler {
	return &Handler{cfg: cfg, store: store, eventSvc: events, Logger: log}
}

// HandleRequest verifies the event signature and dispatches it. The raw body
// is required for signature verification, so it is read here rather than
// bound by gin.
func (h *Handler) HandleRequest(c *gin.Context) error {
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("failed to read payload: %w", err)
	}

	event, err := stripewebhook.ConstructEvent(payload, c.GetHeader("Stripe-Signature"), h.cfg.Stripe.WebhookSecret)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSignatureVerification, err)
	}

	return h.HandleEvent(c.Request.Context(), event)
}

// HandleEvent applies a verified event. Unrecognized event types are logged
// and acknowledged so the provider stops retrying them.
func (h *Handler) HandleEvent(ctx context.Context, event stripe.Event) (resErr error) {
	var traceID string
	if v, ok := ctx.Value("traceID").(string); ok {
		traceID = v
	}

	h.logEvent(ctx, event, traceID, models.WebhookEventLogStatusReceived)

	defer func() {
		status := models.WebhookEventLogStatusHandled
		if resErr != nil {
			status = models.WebhookEventLogStatusHandleFailed
		}
		h.logEvent(ctx, event, traceID, status)
	}()

	switch event.Type {
	case "customer.subscription.updated", "customer.subscription.deleted":
		var sub stripe.Subscription
		if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
			resErr = fmt.Errorf("failed to parse subscription event: %w", err)
			return resErr
		}
		resErr = h.syncSubscription(ctx, &sub)
		return resErr
	default:
		logctx.FromCtx(ctx, h.Logger).Infow("webhook_event_ignored", "event_id", event.ID, "event_type", event.Type)
		return nil
	}
}

func (h *Handler) logEvent(ctx context.Context, event stripe.Event, traceID string, status models.WebhookEventLogStatus) {
	if h.eventSvc == nil {
		return
	}
	h.eventSvc.Save(ctx, &models.WebhookEventLog{
		EventID:   event.ID,
		EventType: string(event.Type),
		TraceID:   traceID,
		Data:      datatypes.JSON(event.Data.Raw),
		Status:    status,
	})
}

// syncSubscription applies the same mapping rules the refund orchestrator
// uses for cancellation reconciliation, driven by the gateway's own view.
func (h *Handler) syncSubscription(ctx context.Context, sub *stripe.Subscription) error {
	if sub.Customer == nil || sub.Customer.ID == "" {
		return fmt.Errorf("subscription event without customer")
	}
	customerID := sub.Customer.ID

	status := types.SubscriptionStatus(sub.Status)
	if err := h.store.PatchSubscriptionMirror(ctx, customerID, &models.SubscriptionMirrorPatch{
		Status:            lo.ToPtr(status),
		CancelAtPeriodEnd: lo.ToPtr(sub.CancelAtPeriodEnd),
	}); err != nil {
		return fmt.Errorf("failed to patch subscription mirror: %w", err)
	}

	userID, err := h.store.UserIDByCustomer(ctx, customerID)
	if err != nil {
		return fmt.Errorf("failed to resolve user: %w", err)
	}

	patch := &models.BillingInfoPatch{SubscriptionStatus: lo.ToPtr(status)}
	switch status {
	case types.SubscriptionStatusActive, types.SubscriptionStatusTrialing, types.SubscriptionStatusPastDue:
		patch.SubscriptionPlan = lo.ToPtr(types.SubscriptionPlanPro)
		if sub.CancelAtPeriodEnd {
			patch.SubscriptionEndsAt = lo.ToPtr(lo.ToPtr(time.Unix(sub.CurrentPeriodEnd, 0).UTC()))
		} else {
			patch.SubscriptionEndsAt = lo.ToPtr[*time.Time](nil)
		}
	default:
		patch.SubscriptionPlan = lo.ToPtr(types.SubscriptionPlanFree)
		patch.SubscriptionEndsAt = lo.ToPtr[*time.Time](nil)
	}

	if err := h.store.PatchBillingInfo(ctx, userID, patch); err != nil {
		return fmt.Errorf("failed to patch billing info: %w", err)
	}
	return nil
}
