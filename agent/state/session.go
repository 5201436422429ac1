package state

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino/schema"
)

// Session is one conversation's transcript. The system prompt is not stored;
// it is rendered fresh on every turn.
type Session struct {
	ID        string            `json:"id"`
	Messages  []*schema.Message `json:"messages"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

func NewSession(id string, now time.Time) *Session {
	now = now.UTC()
	return &Session{
		ID:        id,
		Messages:  []*schema.Message{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (s *Session) Append(now time.Time, msgs ...*schema.Message) {
	for _, m := range msgs {
		if m != nil {
			s.Messages = append(s.Messages, m)
		}
	}
	s.UpdatedAt = now.UTC()
}

// History returns the user and assistant turns that carry text, skipping tool
// traffic.
func (s *Session) History() []*schema.Message {
	out := make([]*schema.Message, 0, len(s.Messages))
	for _, m := range s.Messages {
		switch m.Role {
		case schema.User:
			out = append(out, m)
		case schema.Assistant:
			if len(m.ToolCalls) == 0 && strings.TrimSpace(m.Content) != "" {
				out = append(out, m)
			}
		}
	}
	return out
}

// Trim keeps at most max messages. The kept window never starts with a tool
// result whose originating call was dropped.
func (s *Session) Trim(max int) {
	if max <= 0 || len(s.Messages) <= max {
		return
	}
	kept := s.Messages[len(s.Messages)-max:]
	for len(kept) > 0 && kept[0].Role == schema.Tool {
		kept = kept[1:]
	}
	s.Messages = append([]*schema.Message(nil), kept...)
}

func (s *Session) Validate() error {
	if s == nil {
		return ErrNilSession
	}
	if strings.TrimSpace(s.ID) == "" {
		return ErrInvalidSession
	}
	for i, m := range s.Messages {
		if m == nil {
			return fmt.Errorf("message %d is nil", i)
		}
		switch m.Role {
		case schema.User, schema.Assistant, schema.Tool, schema.System:
		default:
			return fmt.Errorf("message %d has unknown role %q", i, m.Role)
		}
	}
	return nil
}

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrNilSession      = errors.New("session is nil")
	ErrInvalidSession  = errors.New("session id is empty")
)
