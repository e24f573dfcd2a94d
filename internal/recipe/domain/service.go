package domain

import (
	"context"
	"errors"
	"time"
)

type Service interface {
	Create(ctx context.Context, userID string, req CreateRecipeRequest) (*RecipeResponse, error)
	Get(ctx context.Context, userID string, recipeID string) (*RecipeResponse, error)
	ListByBook(ctx context.Context, userID string, bookID string) ([]RecipeResponse, error)
	Update(ctx context.Context, userID string, recipeID string, req UpdateRecipeRequest) (*RecipeResponse, error)
	Delete(ctx context.Context, userID string, recipeID string) error
}

type CreateRecipeRequest struct {
	BookID       string
	Title        string
	Description  string
	Category     string
	Ingredients  []string
	Instructions []string
	CookTime     string
	Servings     *int
	ImagePath    string
	OCRSource    bool
}

type UpdateRecipeRequest struct {
	Title        *string
	Description  *string
	Category     *string
	Ingredients  []string
	Instructions []string
	CookTime     *string
	Servings     *int
	ImagePath    *string
}

type RecipeResponse struct {
	ID           string    `json:"id"`
	BookID       string    `json:"book_id"`
	CreatedBy    string    `json:"created_by"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	Category     string    `json:"category"`
	Ingredients  []string  `json:"ingredients"`
	Instructions []string  `json:"instructions"`
	CookTime     string    `json:"cook_time"`
	Servings     *int      `json:"servings"`
	ImagePath    string    `json:"image_path"`
	OCRSource    bool      `json:"ocr_source"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

var (
	ErrInvalidTitle    = errors.New("invalid_title")
	ErrInvalidCategory = errors.New("invalid_category")
	ErrInvalidBook     = errors.New("invalid_book")
	ErrInvalidUser     = errors.New("invalid_user")
	ErrInvalidRecipe   = errors.New("invalid_recipe")
	ErrRecipeNotFound  = errors.New("recipe_not_found")
	ErrForbidden       = errors.New("forbidden")
)
