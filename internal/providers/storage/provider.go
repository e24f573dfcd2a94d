package storage

import (
	"context"
	"io"
	"time"
)

// Provider stores original recipe photos and import uploads in a private
// bucket, and published book snapshots in a public one.
type Provider interface {
	Put(ctx context.Context, key string, body io.Reader, contentType string) error
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
	PresignGet(ctx context.Context, key string, lifetime time.Duration) (string, error)

	PutPublic(ctx context.Context, key string, body []byte, contentType string) error
	DeletePublic(ctx context.Context, key string) error
	PublicURL(key string) string
}

// NoOpProvider is used when no bucket is configured, e.g. local development
// without an object store.
type NoOpProvider struct{}

func (p *NoOpProvider) Put(ctx context.Context, key string, body io.Reader, contentType string) error {
	return nil
}

func (p *NoOpProvider) Get(ctx context.Context, key string) ([]byte, error) {
	return nil, nil
}

func (p *NoOpProvider) Delete(ctx context.Context, key string) error {
	return nil
}

func (p *NoOpProvider) PresignGet(ctx context.Context, key string, lifetime time.Duration) (string, error) {
	return "", nil
}

func (p *NoOpProvider) PutPublic(ctx context.Context, key string, body []byte, contentType string) error {
	return nil
}

func (p *NoOpProvider) DeletePublic(ctx context.Context, key string) error {
	return nil
}

func (p *NoOpProvider) PublicURL(key string) string {
	return ""
}
