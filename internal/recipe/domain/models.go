// Package domain contains persistence models for the recipe service.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// Recipe belongs to exactly one recipe book.
type Recipe struct {
	ID           snowflake.ID                 `gorm:"primaryKey" json:"id"`
	BookID       snowflake.ID                 `gorm:"column:book_id;not null;index" json:"book_id"`
	CreatedBy    snowflake.ID                 `gorm:"column:created_by;not null" json:"created_by"`
	Title        string                       `gorm:"type:text;not null" json:"title"`
	Description  string                       `gorm:"type:text" json:"description"`
	Category     string                       `gorm:"type:text;not null;default:'Other'" json:"category"`
	Ingredients  datatypes.JSONSlice[string]  `gorm:"type:jsonb;not null;default:'[]'" json:"ingredients"`
	Instructions datatypes.JSONSlice[string]  `gorm:"type:jsonb;not null;default:'[]'" json:"instructions"`
	CookTime     string                       `gorm:"column:cook_time;type:text" json:"cook_time"`
	Servings     *int                         `gorm:"column:servings" json:"servings"`
	ImagePath    string                       `gorm:"column:image_path;type:text" json:"image_path"`
	OCRSource    bool                         `gorm:"column:ocr_source;not null;default:false" json:"ocr_source"`
	CreatedAt    time.Time                    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt    time.Time                    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Recipe) TableName() string { return "recipes" }

// Categories is the fixed set a recipe may be filed under.
var Categories = []string{
	"Breakfast",
	"Lunch",
	"Dinner",
	"Dessert",
	"Snack",
	"Appetizer",
	"Beverage",
	"Side Dish",
	"Main Course",
	"Salad",
	"Soup",
	"Baked Goods",
	"Other",
}

// ValidCategory reports whether the category is one of Categories. The
// match is exact, including case.
func ValidCategory(category string) bool {
	for _, c := range Categories {
		if c == category {
			return true
		}
	}
	return false
}
