package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// BookListItem is a row in a user's book overview, covering both owned
// books and memberships.
type BookListItem struct {
	ID          snowflake.ID
	Name        string
	Description string
	IsPublic    bool
	Role        string
	RecipeCount int64
	CreatedAt   time.Time
}

// MemberListItem joins a membership row with the user's profile fields.
type MemberListItem struct {
	ID          snowflake.ID
	UserID      snowflake.ID
	Role        string
	DisplayName string
	Email       string
	CreatedAt   time.Time
}

type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateBook(ctx context.Context, book RecipeBook) error
	GetBook(ctx context.Context, id snowflake.ID) (*RecipeBook, error)
	UpdateBook(ctx context.Context, id snowflake.ID, fields map[string]any) error
	DeleteBook(ctx context.Context, id snowflake.ID) error
	ListBooksByUser(ctx context.Context, userID snowflake.ID) ([]BookListItem, error)
	ListMembers(ctx context.Context, bookID snowflake.ID) ([]MemberListItem, error)
	AddMember(ctx context.Context, member RecipeBookMember) error
	RemoveMember(ctx context.Context, bookID snowflake.ID, userID snowflake.ID) (int64, error)
}
