package domain

import (
	"context"
	"errors"
	"io"
	"time"
)

type Service interface {
	Create(ctx context.Context, userID string, req CreateBookRequest) (*BookResponse, error)
	Get(ctx context.Context, userID string, bookID string) (*BookDetailResponse, error)
	ListByUser(ctx context.Context, userID string) ([]BookListResponseItem, error)
	Update(ctx context.Context, userID string, bookID string, req UpdateBookRequest) (*BookResponse, error)
	Delete(ctx context.Context, userID string, bookID string) error
	Members(ctx context.Context, userID string, bookID string) ([]MemberResponse, error)
	RemoveMember(ctx context.Context, userID string, bookID string, memberUserID string) error
	Join(ctx context.Context, userID string, bookID string) error
	Leave(ctx context.Context, userID string, bookID string) error
	Publish(ctx context.Context, userID string, bookID string) (*BookResponse, error)
	Unpublish(ctx context.Context, userID string, bookID string) (*BookResponse, error)
	ExportPDF(ctx context.Context, userID string, bookID string) (io.Reader, error)
}

type CreateBookRequest struct {
	Name        string
	Description string
}

type UpdateBookRequest struct {
	Name        *string
	Description *string
}

type BookResponse struct {
	ID          string `json:"id"`
	OwnerID     string `json:"owner_id"`
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Description string `json:"description"`
	IsPublic    bool   `json:"is_public"`
	PublicURL   string `json:"public_url,omitempty"`
}

type BookDetailResponse struct {
	BookResponse
	Role        string           `json:"role"`
	RecipeCount int64            `json:"recipe_count"`
	Members     []MemberResponse `json:"members"`
}

type BookListResponseItem struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	IsPublic    bool      `json:"is_public"`
	Role        string    `json:"role"`
	RecipeCount int64     `json:"recipe_count"`
	CreatedAt   time.Time `json:"created_at"`
}

type MemberResponse struct {
	UserID      string    `json:"user_id"`
	DisplayName string    `json:"display_name"`
	Email       string    `json:"email"`
	Role        string    `json:"role"`
	JoinedAt    time.Time `json:"joined_at"`
}

// RoleOwner is a presentation-only role for the book owner; it is never
// stored in recipe_book_members.
const RoleOwner = "owner"

var (
	ErrInvalidName   = errors.New("invalid_name")
	ErrInvalidBook   = errors.New("invalid_book")
	ErrInvalidUser   = errors.New("invalid_user")
	ErrInvalidMember = errors.New("invalid_member")
	ErrBookNotFound  = errors.New("book_not_found")
	ErrForbidden     = errors.New("forbidden")
)
