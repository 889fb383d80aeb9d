package redis

import (
	"context"
	"encoding/json"
	"net"
	"testing"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/proposalpilot-backend/internal/platform/logger"
)

func TestNewEventBusRequiresAddr(t *testing.T) {
	if _, err := NewEventBus(context.Background(), nil, Config{}); err == nil {
		t.Fatalf("expected missing REDIS_ADDR error")
	}
}

func TestNewEventBusPingFailure(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	addr := ln.Addr().String()
	_ = ln.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if _, err := NewEventBus(ctx, nil, Config{Addr: addr}); err == nil {
		t.Fatalf("expected ping failure against closed port")
	}
}

func TestNewEventBusDefaultsChannel(t *testing.T) {
	rdb := goredis.NewClient(&goredis.Options{Addr: "127.0.0.1:1"})
	defer rdb.Close()
	b := newEventBus(logger.Nop(), rdb, "")
	if b.channel != DefaultChannel {
		t.Fatalf("channel = %q, want %q", b.channel, DefaultChannel)
	}
}

func TestEventJSONShape(t *testing.T) {
	ev := Event{
		Type:       EventQuestionDrafted,
		ProposalID: uuid.New(),
		QuestionID: "q1",
		Status:     "drafted",
		At:         time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
	raw, err := json.Marshal(ev)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var m map[string]any
	_ = json.Unmarshal(raw, &m)
	if m["type"] != "question.drafted" || m["question_id"] != "q1" || m["status"] != "drafted" {
		t.Fatalf("unexpected event json %s", raw)
	}
	if _, ok := m["payload"]; ok {
		t.Fatalf("empty payload should be omitted: %s", raw)
	}
}

func TestNopBus(t *testing.T) {
	var bus EventBus = Nop{}
	if err := bus.Publish(context.Background(), Event{}); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if err := bus.Subscribe(context.Background(), func(Event) {}); err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	if err := bus.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}

func TestNilBusPublishErrors(t *testing.T) {
	var b *eventBus
	if err := b.Publish(context.Background(), Event{}); err == nil {
		t.Fatalf("nil bus should error")
	}
	if err := b.Close(); err != nil {
		t.Fatalf("nil Close should be a no-op: %v", err)
	}
}
