package storage

import (
	"context"

	"github.com/platebook/platebook/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("providers.storage",
	fx.Provide(NewFromConfig),
)

func NewFromConfig(cfg config.Config, logger *zap.Logger) Provider {
	if cfg.Storage.Bucket == "" || cfg.Storage.PublicBucket == "" {
		logger.Warn("object storage not configured, uploads are disabled")
		return &NoOpProvider{}
	}

	provider, err := NewS3(context.Background(), cfg.Storage)
	if err != nil {
		logger.Error("failed to initialize object storage", zap.Error(err))
		return &NoOpProvider{}
	}
	return provider
}
