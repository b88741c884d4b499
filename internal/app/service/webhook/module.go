package webhook

import (
	"github.com/casaflow/billing/internal/app/service/ledger"

	"go.uber.org/fx"
)

var Module = fx.Options(
	fx.Provide(func(s *ledger.Service) Store { return s }),
	fx.Provide(NewHandler),
)
