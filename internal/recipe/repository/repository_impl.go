package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/platebook/platebook/internal/recipe/domain"
	"gorm.io/gorm"
)

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) domain.Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) domain.Repository {
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, recipe *domain.Recipe) error {
	return r.db.WithContext(ctx).Exec(
		`INSERT INTO recipes (id, book_id, created_by, title, description, category,
		                      ingredients, instructions, cook_time, servings, image_path,
		                      ocr_source, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		recipe.ID,
		recipe.BookID,
		recipe.CreatedBy,
		recipe.Title,
		recipe.Description,
		recipe.Category,
		recipe.Ingredients,
		recipe.Instructions,
		recipe.CookTime,
		recipe.Servings,
		recipe.ImagePath,
		recipe.OCRSource,
		recipe.CreatedAt,
		recipe.CreatedAt,
	).Error
}

func (r *repository) GetByID(ctx context.Context, id snowflake.ID) (*domain.Recipe, error) {
	var recipe domain.Recipe
	err := r.db.WithContext(ctx).First(&recipe, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrRecipeNotFound
	}
	if err != nil {
		return nil, err
	}
	return &recipe, nil
}

func (r *repository) ListByBook(ctx context.Context, bookID snowflake.ID) ([]domain.Recipe, error) {
	var recipes []domain.Recipe
	err := r.db.WithContext(ctx).
		Where("book_id = ?", bookID).
		Order("created_at DESC").
		Find(&recipes).Error
	if err != nil {
		return nil, err
	}

	return recipes, nil
}

func (r *repository) Update(ctx context.Context, id snowflake.ID, fields map[string]any) error {
	tx := r.db.WithContext(ctx).Model(&domain.Recipe{}).Where("id = ?", id).Updates(fields)
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return domain.ErrRecipeNotFound
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, id snowflake.ID) error {
	return r.db.WithContext(ctx).Exec(`DELETE FROM recipes WHERE id = ?`, id).Error
}

func (r *repository) CountByBook(ctx context.Context, bookID snowflake.ID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&domain.Recipe{}).
		Where("book_id = ?", bookID).
		Count(&count).Error
	return count, err
}
