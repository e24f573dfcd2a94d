// Package domain contains persistence models for the recipe book service.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// RecipeBook is a named collection of recipes with exactly one owner. The
// owner is never listed in recipe_book_members.
type RecipeBook struct {
	ID             snowflake.ID      `gorm:"primaryKey" json:"id"`
	OwnerID        snowflake.ID      `gorm:"column:owner_id;not null;index" json:"owner_id"`
	Name           string            `gorm:"type:text;not null" json:"name"`
	Slug           string            `gorm:"type:text" json:"slug"`
	Description    string            `gorm:"type:text" json:"description"`
	IsPublic       bool              `gorm:"column:is_public;not null;default:false" json:"is_public"`
	CoverImagePath string            `gorm:"column:cover_image_path;type:text" json:"cover_image_path"`
	Metadata       datatypes.JSONMap `gorm:"type:jsonb;not null;default:'{}'" json:"metadata"`
	CreatedAt      time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt      time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (RecipeBook) TableName() string { return "recipe_books" }

// RecipeBookMember is a (book, user, role) association.
type RecipeBookMember struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	BookID    snowflake.ID `gorm:"column:book_id;not null;index;uniqueIndex:ux_book_user,priority:1" json:"book_id"`
	UserID    snowflake.ID `gorm:"not null;index;uniqueIndex:ux_book_user,priority:2" json:"user_id"`
	Role      string       `gorm:"type:text;not null" json:"role"`
	CreatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (RecipeBookMember) TableName() string { return "recipe_book_members" }
