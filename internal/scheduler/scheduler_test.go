package scheduler

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/platebook/platebook/internal/clock"
	"github.com/platebook/platebook/internal/event"
	"github.com/platebook/platebook/pkg/db"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newTestScheduler(t *testing.T, handler Handler) (*Scheduler, *gorm.DB, *snowflake.Node) {
	t.Helper()

	dbConn, err := db.NewTest()
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}

	err = dbConn.Exec(`CREATE TABLE outbox_events (
		id INTEGER PRIMARY KEY,
		book_id INTEGER,
		event_type TEXT NOT NULL,
		payload TEXT NOT NULL DEFAULT '{}',
		published BOOLEAN NOT NULL DEFAULT FALSE,
		created_at DATETIME NOT NULL,
		published_at DATETIME
	)`).Error
	if err != nil {
		t.Fatalf("create outbox table: %v", err)
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("snowflake node: %v", err)
	}

	sched, err := New(Params{
		DB:      dbConn,
		Log:     zap.NewNop(),
		Clock:   clock.NewFakeClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)),
		Handler: handler,
	})
	if err != nil {
		t.Fatalf("new scheduler: %v", err)
	}

	return sched, dbConn, node
}

func publishTestEvent(t *testing.T, dbConn *gorm.DB, node *snowflake.Node, topic string, bookID snowflake.ID) {
	t.Helper()

	payload, err := json.Marshal(map[string]string{"book_id": bookID.String()})
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}

	publisher := event.NewOutboxPublisher(dbConn, node)
	if err := publisher.Publish(context.Background(), topic, payload); err != nil {
		t.Fatalf("publish event: %v", err)
	}
}

func TestDispatchMarksDeliveredEventsPublished(t *testing.T) {
	var delivered []string
	sched, dbConn, node := newTestScheduler(t, func(ctx context.Context, ev Event) error {
		delivered = append(delivered, ev.EventType)
		return nil
	})

	bookID := node.Generate()
	publishTestEvent(t, dbConn, node, event.BookPublishedTopic, bookID)
	publishTestEvent(t, dbConn, node, event.InvitationAcceptedTopic, bookID)

	if err := sched.Dispatch(context.Background()); err != nil {
		t.Fatalf("dispatch: %v", err)
	}

	if len(delivered) != 2 {
		t.Fatalf("expected 2 deliveries, got %d", len(delivered))
	}
	if delivered[0] != event.BookPublishedTopic {
		t.Fatalf("expected insertion order, got %v", delivered)
	}

	var pending int64
	if err := dbConn.Table("outbox_events").Where("published = ?", false).Count(&pending).Error; err != nil {
		t.Fatalf("count pending: %v", err)
	}
	if pending != 0 {
		t.Fatalf("expected no pending events, got %d", pending)
	}
}

func TestDispatchRetriesFailedDeliveries(t *testing.T) {
	attempts := 0
	sched, dbConn, node := newTestScheduler(t, func(ctx context.Context, ev Event) error {
		attempts++
		if attempts == 1 {
			return errors.New("downstream unavailable")
		}
		return nil
	})

	publishTestEvent(t, dbConn, node, event.RecipeImportedTopic, node.Generate())

	if err := sched.Dispatch(context.Background()); err != nil {
		t.Fatalf("dispatch: %v", err)
	}

	var pending int64
	if err := dbConn.Table("outbox_events").Where("published = ?", false).Count(&pending).Error; err != nil {
		t.Fatalf("count pending: %v", err)
	}
	if pending != 1 {
		t.Fatalf("expected event to stay pending after failure, got %d pending", pending)
	}

	if err := sched.Dispatch(context.Background()); err != nil {
		t.Fatalf("dispatch retry: %v", err)
	}

	if err := dbConn.Table("outbox_events").Where("published = ?", false).Count(&pending).Error; err != nil {
		t.Fatalf("count pending: %v", err)
	}
	if pending != 0 {
		t.Fatalf("expected event published after retry, got %d pending", pending)
	}
}

func TestNewRequiresCoreDependencies(t *testing.T) {
	_, err := New(Params{})
	if !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig, got %v", err)
	}
}
