package auth

import (
	"github.com/platebook/platebook/internal/auth/repository"
	"github.com/platebook/platebook/internal/auth/service"
	"go.uber.org/fx"
)

var Module = fx.Module("auth.service",
	fx.Provide(repository.New),
	fx.Provide(service.New),
)
