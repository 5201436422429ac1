package state

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cloudwego/eino/schema"
)

func TestSessionHistorySkipsToolTraffic(t *testing.T) {
	t.Parallel()

	now := time.Now()
	s := NewSession("s1", now)
	s.Append(now,
		schema.UserMessage("find italian downtown"),
		schema.AssistantMessage("", []schema.ToolCall{{ID: "call_1", Function: schema.FunctionCall{Name: "search_restaurants", Arguments: `{"cuisine":"Italian"}`}}}),
		schema.ToolMessage(`{"success":true}`, "call_1"),
		schema.AssistantMessage("Bella Kitchen is a good fit.", nil),
	)

	got := s.History()
	if len(got) != 2 {
		t.Fatalf("History() len = %d, want 2", len(got))
	}
	if got[0].Role != schema.User || got[1].Content != "Bella Kitchen is a good fit." {
		t.Fatalf("History() = %+v", got)
	}
}

func TestSessionTrimDropsOrphanToolResults(t *testing.T) {
	t.Parallel()

	now := time.Now()
	s := NewSession("s1", now)
	s.Append(now,
		schema.UserMessage("one"),
		schema.AssistantMessage("", []schema.ToolCall{{ID: "c1"}}),
		schema.ToolMessage("r1", "c1"),
		schema.AssistantMessage("done", nil),
	)

	s.Trim(2)
	if len(s.Messages) != 1 || s.Messages[0].Content != "done" {
		t.Fatalf("Trim() kept %+v", s.Messages)
	}
}

func TestMemoryStore(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := NewMemoryStore()

	if _, err := store.Load(ctx, "missing"); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("Load() error = %v, want ErrSessionNotFound", err)
	}
	if err := store.Save(ctx, &Session{}); !errors.Is(err, ErrInvalidSession) {
		t.Fatalf("Save() error = %v, want ErrInvalidSession", err)
	}

	s := NewSession("s1", time.Now())
	s.Append(time.Now(), schema.UserMessage("hello"))
	if err := store.Save(ctx, s); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	s.Append(time.Now(), schema.UserMessage("not saved"))
	loaded, err := store.Load(ctx, "s1")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(loaded.Messages) != 1 {
		t.Fatalf("store shares state with caller: %d messages", len(loaded.Messages))
	}

	if err := store.Delete(ctx, "s1"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := store.Load(ctx, "s1"); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("Load() after Delete error = %v", err)
	}
}
