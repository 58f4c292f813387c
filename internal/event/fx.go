package event

import (
	"github.com/scsaalabs/memberhub/internal/event/repository"
	"github.com/scsaalabs/memberhub/internal/event/service"
	"go.uber.org/fx"
)

var Module = fx.Module("event.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
