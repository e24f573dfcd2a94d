package recipe

import (
	"github.com/platebook/platebook/internal/recipe/repository"
	"github.com/platebook/platebook/internal/recipe/service"
	"go.uber.org/fx"
)

var Module = fx.Module("recipe",
	fx.Provide(
		repository.NewRepository,
		service.NewService,
	),
)
