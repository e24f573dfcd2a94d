package event

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	BookPublishedTopic      = "book.published"
	InvitationAcceptedTopic = "invitation.accepted"
	RecipeImportedTopic     = "recipe.imported"
)

type EventPublisher interface {
	Publish(ctx context.Context, topic string, payload []byte) error
}

type outboxPublisher struct {
	db    *gorm.DB
	genID *snowflake.Node
}

func NewOutboxPublisher(db *gorm.DB, genID *snowflake.Node) EventPublisher {
	return &outboxPublisher{
		db:    db,
		genID: genID,
	}
}

type bookPayload struct {
	BookID string `json:"book_id"`
}

// Publish appends the event to the outbox table inside the caller's
// transaction context. Downstream consumers drain the table themselves.
func (p *outboxPublisher) Publish(ctx context.Context, topic string, payload []byte) error {
	var parsed bookPayload
	if err := json.Unmarshal(payload, &parsed); err != nil {
		return err
	}

	bookID := strings.TrimSpace(parsed.BookID)
	if bookID == "" {
		return errors.New("missing book_id")
	}

	parsedID, err := snowflake.ParseString(bookID)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	return p.db.WithContext(ctx).Exec(
		`INSERT INTO outbox_events (id, book_id, event_type, payload, published, created_at)
		 VALUES (?, ?, ?, ?, false, ?)`,
		p.genID.Generate(),
		parsedID,
		topic,
		datatypes.JSON(payload),
		now,
	).Error
}
