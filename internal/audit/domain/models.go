// Package domain contains the audit trail models. Entries are scoped to a
// recipe book where one applies; login events carry no book.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

type ActorType string

const (
	ActorTypeUser   ActorType = "user"
	ActorTypeSystem ActorType = "system"
)

type AuditLog struct {
	ID         snowflake.ID      `gorm:"primaryKey" json:"id"`
	BookID     *snowflake.ID     `gorm:"column:book_id;index" json:"book_id"`
	ActorType  string            `gorm:"column:actor_type;not null" json:"actor_type"`
	ActorID    *string           `gorm:"column:actor_id" json:"actor_id"`
	Action     string            `gorm:"not null" json:"action"`
	TargetType string            `gorm:"column:target_type;not null" json:"target_type"`
	TargetID   *string           `gorm:"column:target_id" json:"target_id"`
	Metadata   datatypes.JSONMap `gorm:"type:jsonb" json:"metadata"`
	IPAddress  *string           `gorm:"column:ip_address" json:"ip_address"`
	UserAgent  *string           `gorm:"column:user_agent" json:"user_agent"`
	CreatedAt  time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (AuditLog) TableName() string { return "audit_logs" }

type AuditCursor struct {
	ID        snowflake.ID
	CreatedAt time.Time
}

type ListFilter struct {
	BookID     snowflake.ID
	Action     string
	TargetType string
	TargetID   string
	ActorType  string
	StartAt    *time.Time
	EndAt      *time.Time
	Cursor     *AuditCursor
	Limit      int
}
