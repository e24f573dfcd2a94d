package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, recipe *Recipe) error
	GetByID(ctx context.Context, id snowflake.ID) (*Recipe, error)
	ListByBook(ctx context.Context, bookID snowflake.ID) ([]Recipe, error)
	Update(ctx context.Context, id snowflake.ID, fields map[string]any) error
	Delete(ctx context.Context, id snowflake.ID) error
	CountByBook(ctx context.Context, bookID snowflake.ID) (int64, error)
}
