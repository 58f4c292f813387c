package announcement

import (
	"github.com/scsaalabs/memberhub/internal/announcement/repository"
	"github.com/scsaalabs/memberhub/internal/announcement/service"
	"go.uber.org/fx"
)

var Module = fx.Module("announcement.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
