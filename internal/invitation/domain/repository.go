package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, invitation RecipeBookInvitation) error
	GetByID(ctx context.Context, id snowflake.ID) (*RecipeBookInvitation, error)
	GetPendingByToken(ctx context.Context, token string) (*RecipeBookInvitation, error)
	ListByBook(ctx context.Context, bookID snowflake.ID) ([]RecipeBookInvitation, error)
	MarkAccepted(ctx context.Context, id snowflake.ID) error
	Delete(ctx context.Context, id snowflake.ID) (int64, error)
}
