package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/casaflow/billing/internal/app/service/refund"
	models "github.com/casaflow/billing/internal/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Service is the relational-store adapter behind the refund flow and the
// webhook handler.
type Service struct {
	db  *gorm.DB
	log *zap.SugaredLogger
}

func New(db *gorm.DB, log *zap.SugaredLogger) *Service {
	return &Service{db: db, log: log}
}

func (s *Service) CustomerIDByUser(ctx context.Context, userID string) (string, error) {
	var row models.BillingInfo
	err := s.db.WithContext(ctx).
		Select("stripe_customer_id").
		Where("user_id = ?", userID).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", fmt.Errorf("user %s: %w", userID, refund.ErrCustomerNotFound)
		}
		return "", err
	}
	if row.StripeCustomerID == "" {
		return "", fmt.Errorf("user %s: %w", userID, refund.ErrCustomerNotFound)
	}
	return row.StripeCustomerID, nil
}

// UserIDByCustomer is the reverse lookup, used by the webhook handler to map
// gateway events back to a local user.
func (s *Service) UserIDByCustomer(ctx context.Context, customerID string) (string, error) {
	var row models.BillingInfo
	err := s.db.WithContext(ctx).
		Select("user_id").
		Where("stripe_customer_id = ?", customerID).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", fmt.Errorf("customer %s: %w", customerID, refund.ErrCustomerNotFound)
		}
		return "", err
	}
	return row.UserID, nil
}

func (s *Service) SubscriptionMirror(ctx context.Context, customerID string) (*models.SubscriptionMirror, error) {
	var row models.SubscriptionMirror
	err := s.db.WithContext(ctx).Where("customer_id = ?", customerID).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

func (s *Service) PatchBillingInfo(ctx context.Context, userID string, patch *models.BillingInfoPatch) error {
	updates := map[string]any{}
	if patch.SubscriptionPlan != nil {
		updates["subscription_plan"] = *patch.SubscriptionPlan
	}
	if patch.SubscriptionStatus != nil {
		updates["subscription_status"] = *patch.SubscriptionStatus
	}
	if patch.SubscriptionEndsAt != nil {
		updates["subscription_ends_at"] = *patch.SubscriptionEndsAt
	}
	if len(updates) == 0 {
		return nil
	}
	res := s.db.WithContext(ctx).Model(&models.BillingInfo{}).Where("user_id = ?", userID).Updates(updates)
	if res.Error != nil {
		return fmt.Errorf("failed to update billing info: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("billing info row missing for user %s", userID)
	}
	return nil
}

func (s *Service) PatchSubscriptionMirror(ctx context.Context, customerID string, patch *models.SubscriptionMirrorPatch) error {
	updates := map[string]any{}
	if patch.Status != nil {
		updates["status"] = *patch.Status
	}
	if patch.CancelAtPeriodEnd != nil {
		updates["cancel_at_period_end"] = *patch.CancelAtPeriodEnd
	}
	if len(updates) == 0 {
		return nil
	}
	if err := s.db.WithContext(ctx).Model(&models.SubscriptionMirror{}).Where("customer_id = ?", customerID).Updates(updates).Error; err != nil {
		return fmt.Errorf("failed to update subscription mirror: %w", err)
	}
	return nil
}

func (s *Service) CreditNoteByRefundID(ctx context.Context, refundID string) (*models.CreditNote, error) {
	var row models.CreditNote
	err := s.db.WithContext(ctx).Where("refund_id = ?", refundID).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

// UpsertCreditNote inserts or refreshes a note keyed by the gateway-side id.
func (s *Service) UpsertCreditNote(ctx context.Context, note *models.CreditNote) error {
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "external_id"}},
		UpdateAll: true,
	}).Create(note).Error
}

func (s *Service) AppendAuditRecord(ctx context.Context, rec *models.AdminActivityLog) error {
	return s.db.WithContext(ctx).Create(rec).Error
}

func (s *Service) AppendReconciliationPending(ctx context.Context, rec *models.ReconciliationPending) error {
	return s.db.WithContext(ctx).Create(rec).Error
}
