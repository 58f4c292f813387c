package account

import (
	"github.com/scsaalabs/memberhub/internal/account/repository"
	"go.uber.org/fx"
)

var Module = fx.Module("account",
	fx.Provide(repository.Provide),
)
