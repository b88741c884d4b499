package eventlog

import (
	"context"

	"github.com/casaflow/billing/internal/models"
	"github.com/casaflow/billing/pkg/logctx"
	"github.com/casaflow/billing/pkg/tool"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Service struct {
	db  *gorm.DB
	log *zap.SugaredLogger
}

func New(db *gorm.DB, log *zap.SugaredLogger) *Service { return &Service{db: db, log: log} }

// Save asynchronously persists a webhook event log. Nil input is ignored.
func (s *Service) Save(ctx context.Context, log *models.WebhookEventLog) {
	go func() {
		if log == nil {
			return
		}
		if log.ID == "" {
			log.ID = tool.GenerateUUIDV7()
		}
		if err := s.db.Save(log).Error; err != nil {
			logctx.FromCtx(ctx, s.log).Errorf("failed to save webhook event log: %v", err)
		}
	}()
}
