package billing

import (
	"github.com/scsaalabs/memberhub/internal/billing/domain"
	"github.com/scsaalabs/memberhub/internal/billing/stripe"
	"github.com/scsaalabs/memberhub/internal/billing/webhook"
	"go.uber.org/fx"
)

var Module = fx.Module("billing",
	fx.Provide(
		stripe.NewAdapter,
		func(a *stripe.Adapter) domain.Verifier { return a },
		func(a *stripe.Adapter) domain.EventParser { return a },
		func(a *stripe.Adapter) domain.SubscriptionAPI { return a },
		webhook.NewProcessor,
	),
)
