// Package scheduler drains the outbox table on a fixed interval. Each
// pending event is handed to the configured handler and only marked
// published once the handler returns without error, so delivery is
// at-least-once.
package scheduler

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/platebook/platebook/internal/clock"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var ErrInvalidConfig = errors.New("scheduler requires db, log and clock")

// Event is one undelivered outbox row.
type Event struct {
	ID        snowflake.ID
	BookID    snowflake.ID
	EventType string
	Payload   datatypes.JSON
	CreatedAt time.Time
}

// Handler delivers a single event. Returning an error leaves the row
// pending so the next run retries it.
type Handler func(ctx context.Context, event Event) error

type Params struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	Clock   clock.Clock
	Config  Config  `optional:"true"`
	Handler Handler `optional:"true"`
}

type Scheduler struct {
	db      *gorm.DB
	log     *zap.Logger
	cfg     Config
	clock   clock.Clock
	handler Handler
}

func New(p Params) (*Scheduler, error) {
	if p.DB == nil || p.Log == nil || p.Clock == nil {
		return nil, ErrInvalidConfig
	}

	s := &Scheduler{
		db:      p.DB,
		log:     p.Log.Named("scheduler"),
		cfg:     p.Config.withDefaults(),
		clock:   p.Clock,
		handler: p.Handler,
	}
	if s.handler == nil {
		s.handler = s.logDelivery
	}
	return s, nil
}

func (s *Scheduler) RunForever(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.RunInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.Dispatch(ctx); err != nil {
				s.log.Warn("outbox dispatch failed", zap.Error(err))
			}
		}
	}
}

// Dispatch delivers one batch of pending events in insertion order.
func (s *Scheduler) Dispatch(ctx context.Context) error {
	var events []Event
	err := s.db.WithContext(ctx).
		Raw(`SELECT id, book_id, event_type, payload, created_at
		     FROM outbox_events
		     WHERE published = false
		     ORDER BY created_at ASC, id ASC
		     LIMIT ?`, s.cfg.BatchSize).
		Scan(&events).Error
	if err != nil {
		return err
	}

	for _, event := range events {
		if err := s.handler(ctx, event); err != nil {
			s.log.Warn("event delivery failed",
				zap.String("event_type", event.EventType),
				zap.String("event_id", event.ID.String()),
				zap.Error(err),
			)
			continue
		}

		if err := s.markPublished(ctx, event.ID); err != nil {
			return err
		}
	}
	return nil
}

func (s *Scheduler) markPublished(ctx context.Context, id snowflake.ID) error {
	return s.db.WithContext(ctx).Exec(
		`UPDATE outbox_events SET published = true, published_at = ? WHERE id = ?`,
		s.clock.Now(), id,
	).Error
}

func (s *Scheduler) logDelivery(ctx context.Context, event Event) error {
	_ = ctx
	s.log.Info("event delivered",
		zap.String("event_type", event.EventType),
		zap.String("event_id", event.ID.String()),
		zap.String("book_id", event.BookID.String()),
	)
	return nil
}
