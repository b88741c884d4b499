package app

import (
    "github.com/casaflow/billing/internal/app/api/server"
    "github.com/casaflow/billing/internal/app/service/eventlog"
    "github.com/casaflow/billing/internal/app/service/ledger"
    "github.com/casaflow/billing/internal/app/service/refund"
    "github.com/casaflow/billing/internal/app/service/webhook"
    "github.com/casaflow/billing/internal/platform/db"
    "github.com/casaflow/billing/internal/platform/objstore"
    stripegw "github.com/casaflow/billing/internal/platform/stripe"
    "github.com/casaflow/billing/pkg/config"
    "github.com/casaflow/billing/pkg/logger"
	"time"

	"go.uber.org/fx"
)

const (
	DefaultStartTimeout = 15 * time.Second
	DefaultStopTimeout  = 10 * time.Second
)

var Module = fx.Options(
    logger.Module,
    config.Module,
    db.Module,
    server.Module,
    stripegw.Module,
    objstore.Module,
    ledger.Module,
    refund.Module,
    eventlog.Module,
    webhook.Module,
)
