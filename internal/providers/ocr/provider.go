package ocr

import "context"

// Provider extracts raw text from a stored recipe photo.
type Provider interface {
	ExtractText(ctx context.Context, imageKey string) (string, error)
}

type NoOpProvider struct{}

func (p *NoOpProvider) ExtractText(ctx context.Context, imageKey string) (string, error) {
	return "", nil
}
