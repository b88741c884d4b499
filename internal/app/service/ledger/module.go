package ledger

import (
	"github.com/casaflow/billing/internal/app/service/refund"

	"go.uber.org/fx"
)

// Module exposes the store adapter, both concretely and as the refund
// service's Ledger port.
var Module = fx.Options(
	fx.Provide(New),
	fx.Provide(func(s *Service) refund.Ledger { return s }),
)
