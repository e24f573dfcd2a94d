package ocr

import (
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("providers.ocr",
	fx.Provide(func(logger *zap.Logger) Provider {
		return NewSimulated(logger)
	}),
)
