package audit

import (
	"github.com/platebook/platebook/internal/audit/repository"
	"github.com/platebook/platebook/internal/audit/service"
	"go.uber.org/fx"
)

var Module = fx.Module("audit.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
