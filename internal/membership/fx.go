package membership

import (
	"github.com/scsaalabs/memberhub/internal/membership/repository"
	"go.uber.org/fx"
)

var Module = fx.Module("membership",
	fx.Provide(repository.Provide),
)
