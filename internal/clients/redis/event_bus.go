package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/proposalpilot-backend/internal/platform/logger"
)

const DefaultChannel = "proposal.events"

type EventType string

const (
	EventProposalCreated  EventType = "proposal.created"
	EventProposalDeleted  EventType = "proposal.deleted"
	EventQuestionDrafted  EventType = "question.drafted"
	EventQuestionUpdated  EventType = "question.updated"
	EventQuestionImproved EventType = "question.improved"
	EventBulkCompleted    EventType = "proposal.bulk_generated"
)

// Event is a question lifecycle notification. Payload is event specific.
type Event struct {
	Type       EventType      `json:"type"`
	ProposalID uuid.UUID      `json:"proposal_id"`
	CompanyID  uuid.UUID      `json:"company_id"`
	QuestionID string         `json:"question_id,omitempty"`
	Status     string         `json:"status,omitempty"`
	Payload    map[string]any `json:"payload,omitempty"`
	At         time.Time      `json:"at"`
}

type EventBus interface {
	Publish(ctx context.Context, ev Event) error
	Subscribe(ctx context.Context, onEvent func(Event)) error
	Close() error
}

type Config struct {
	Addr    string
	Channel string
}

type eventBus struct {
	log     *logger.Logger
	rdb     goredis.UniversalClient
	channel string
}

func NewEventBus(ctx context.Context, log *logger.Logger, cfg Config) (EventBus, error) {
	if log == nil {
		log = logger.Nop()
	}
	if cfg.Addr == "" {
		return nil, fmt.Errorf("missing REDIS_ADDR")
	}
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        cfg.Addr,
		DialTimeout: 5 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return newEventBus(log, rdb, cfg.Channel), nil
}

func newEventBus(log *logger.Logger, rdb goredis.UniversalClient, channel string) *eventBus {
	if channel == "" {
		channel = DefaultChannel
	}
	return &eventBus{log: log.With("service", "RedisEventBus"), rdb: rdb, channel: channel}
}

func (b *eventBus) Publish(ctx context.Context, ev Event) error {
	if b == nil || b.rdb == nil {
		return fmt.Errorf("redis event bus not initialized")
	}
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}
	raw, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return b.rdb.Publish(ctx, b.channel, raw).Err()
}

// Subscribe forwards events to onEvent until ctx is done.
func (b *eventBus) Subscribe(ctx context.Context, onEvent func(Event)) error {
	if b == nil || b.rdb == nil {
		return fmt.Errorf("redis event bus not initialized")
	}
	if onEvent == nil {
		return fmt.Errorf("onEvent callback required")
	}

	sub := b.rdb.Subscribe(ctx, b.channel)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("redis subscribe: %w", err)
	}

	go func() {
		defer sub.Close()
		ch := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case m, ok := <-ch:
				if !ok || m == nil {
					return
				}
				var ev Event
				if err := json.Unmarshal([]byte(m.Payload), &ev); err != nil {
					b.log.Warn("bad proposal event payload", "error", err)
					continue
				}
				onEvent(ev)
			}
		}
	}()
	return nil
}

func (b *eventBus) Close() error {
	if b == nil || b.rdb == nil {
		return nil
	}
	return b.rdb.Close()
}

// Nop discards every event. Used when REDIS_ADDR is unset.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }
func (Nop) Subscribe(context.Context, func(Event)) error { return nil }
func (Nop) Close() error { return nil }
