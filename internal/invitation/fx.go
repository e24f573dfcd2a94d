package invitation

import (
	"github.com/platebook/platebook/internal/invitation/repository"
	"github.com/platebook/platebook/internal/invitation/service"
	"go.uber.org/fx"
)

var Module = fx.Module("invitation",
	fx.Provide(
		repository.NewRepository,
		service.NewService,
	),
)
