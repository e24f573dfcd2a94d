package pdf

import (
	"context"
	"io"
)

type Provider interface {
	GenerateBook(ctx context.Context, data interface{}) (io.Reader, error)
	GenerateRecipeCard(ctx context.Context, data interface{}) (io.Reader, error)
}

type NoOpProvider struct{}

func (p *NoOpProvider) GenerateBook(ctx context.Context, data interface{}) (io.Reader, error) {
	return nil, nil
}

func (p *NoOpProvider) GenerateRecipeCard(ctx context.Context, data interface{}) (io.Reader, error) {
	return nil, nil
}
