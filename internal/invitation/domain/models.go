// Package domain contains persistence models for the invitation service.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

const (
	StatusPending  = "pending"
	StatusAccepted = "accepted"
)

// RecipeBookInvitation is an offer to join a book under a given role. The
// token is the sole lookup key handed to the invitee; revoked invitations
// are deleted outright rather than flagged.
type RecipeBookInvitation struct {
	ID         snowflake.ID `gorm:"primaryKey" json:"id"`
	BookID     snowflake.ID `gorm:"column:book_id;not null;index" json:"book_id"`
	Email      string       `gorm:"type:text;not null" json:"email"`
	Role       string       `gorm:"type:text;not null" json:"role"`
	Token      string       `gorm:"type:text;not null;uniqueIndex" json:"-"`
	Status     string       `gorm:"type:text;not null;default:'pending'" json:"status"`
	InvitedBy  snowflake.ID `gorm:"column:invited_by;not null" json:"invited_by"`
	CreatedAt  time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	AcceptedAt *time.Time   `gorm:"column:accepted_at" json:"accepted_at"`
}

// TableName sets the database table name.
func (RecipeBookInvitation) TableName() string { return "recipe_book_invitations" }
