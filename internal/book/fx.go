package book

import (
	"github.com/platebook/platebook/internal/book/repository"
	"github.com/platebook/platebook/internal/book/service"
	"go.uber.org/fx"
)

var Module = fx.Module("book",
	fx.Provide(
		repository.NewRepository,
		service.NewService,
	),
)
