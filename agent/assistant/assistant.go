package assistant

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog"
	contractx "github.com/tanpawarit/GoodFoods-Reservation-Agent/agent/contract"
	statex "github.com/tanpawarit/GoodFoods-Reservation-Agent/agent/state"
	"github.com/tanpawarit/GoodFoods-Reservation-Agent/pkg/clock"
	logx "github.com/tanpawarit/GoodFoods-Reservation-Agent/pkg/logger"
)

const (
	DefaultMaxToolRounds = 5
	DefaultMaxMessages   = 60
)

var (
	ErrInvalidMessage  = errors.New("message text is empty")
	ErrToolRoundsLimit = errors.New("tool call limit reached before a final answer")
)

// Assistant runs one conversational turn at a time: the model may request tool
// calls, which are dispatched through the tool registry and fed back until it
// produces a plain answer.
type Assistant struct {
	store  statex.Store
	tools  contractx.ToolInvoker
	runner compose.Runnable[map[string]any, *schema.Message]
	clock  clock.Clock
	logger zerolog.Logger

	maxToolRounds int
	maxMessages   int
}

type Option func(*Assistant)

func WithClock(c clock.Clock) Option {
	return func(a *Assistant) {
		if c != nil {
			a.clock = c
		}
	}
}

func WithMaxToolRounds(n int) Option {
	return func(a *Assistant) {
		if n > 0 {
			a.maxToolRounds = n
		}
	}
}

// WithMaxMessages bounds the stored transcript. Zero disables trimming.
func WithMaxMessages(n int) Option {
	return func(a *Assistant) {
		if n >= 0 {
			a.maxMessages = n
		}
	}
}

func New(
	ctx context.Context,
	chatModel einomodel.ToolCallingChatModel,
	tools contractx.ToolInvoker,
	store statex.Store,
	systemPrompt string,
	opts ...Option,
) (*Assistant, error) {
	if chatModel == nil {
		return nil, errors.New("chat model is required")
	}
	if tools == nil {
		return nil, errors.New("tool invoker is required")
	}
	if store == nil {
		return nil, errors.New("session store is required")
	}
	if strings.TrimSpace(systemPrompt) == "" {
		return nil, contractx.ErrPromptMissing
	}

	toolModel, err := chatModel.WithTools(tools.ToolInfos())
	if err != nil {
		return nil, fmt.Errorf("%w: bind tools: %v", contractx.ErrModelInvoke, err)
	}
	runner, err := compileTurnGraph(ctx, toolModel, systemPrompt)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", contractx.ErrModelInvoke, err)
	}

	a := &Assistant{
		store:         store,
		tools:         tools,
		runner:        runner,
		clock:         clock.NewRealClock(),
		logger:        logx.Component("assistant"),
		maxToolRounds: DefaultMaxToolRounds,
		maxMessages:   DefaultMaxMessages,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(a)
		}
	}
	return a, nil
}

// HandleMessage appends text to the session, runs the tool loop and returns the
// assistant's reply. The session is saved only when the turn completes.
func (a *Assistant) HandleMessage(ctx context.Context, sessionID string, text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", ErrInvalidMessage
	}

	sess, err := a.loadOrCreate(ctx, sessionID)
	if err != nil {
		return "", err
	}
	sess.Append(a.clock.Now(), schema.UserMessage(text))

	for round := 0; ; round++ {
		msg, err := a.runner.Invoke(ctx, map[string]any{
			"today":     a.clock.Now().Format("2006-01-02 (Monday)"),
			messagesKey: sess.Messages,
		})
		if err != nil {
			return "", fmt.Errorf("%w: %v", contractx.ErrModelInvoke, err)
		}
		if msg == nil {
			return "", fmt.Errorf("%w: model returned no message", contractx.ErrSchemaViolation)
		}
		sess.Append(a.clock.Now(), msg)

		if len(msg.ToolCalls) == 0 {
			reply := strings.TrimSpace(msg.Content)
			if reply == "" {
				return "", fmt.Errorf("%w: empty assistant reply", contractx.ErrSchemaViolation)
			}
			sess.Trim(a.maxMessages)
			if err := a.store.Save(ctx, sess); err != nil {
				return "", fmt.Errorf("save session: %w", err)
			}
			return reply, nil
		}

		if round >= a.maxToolRounds {
			a.logger.Warn().Str("session_id", sessionID).Int("rounds", round).Msg("tool round limit reached")
			return "", ErrToolRoundsLimit
		}
		sess.Append(a.clock.Now(), a.runTools(ctx, msg.ToolCalls)...)
	}
}

func (a *Assistant) runTools(ctx context.Context, calls []schema.ToolCall) []*schema.Message {
	out := make([]*schema.Message, 0, len(calls))
	for _, call := range calls {
		name := call.Function.Name
		var res contractx.ToolResult

		args := map[string]any{}
		raw := strings.TrimSpace(call.Function.Arguments)
		if raw != "" {
			if err := json.Unmarshal([]byte(raw), &args); err != nil {
				res = contractx.Failure(name, contractx.Validation("Invalid JSON arguments for %s", name))
			}
		}
		if res.Tool == "" {
			res = a.tools.Invoke(ctx, name, args)
		}

		content, err := json.Marshal(res)
		if err != nil {
			content = []byte(fmt.Sprintf(`{"tool":%q,"success":false,"message":"unencodable tool result"}`, name))
		}
		a.logger.Debug().Str("tool", name).Str("call_id", call.ID).Bool("success", res.Success).Msg("tool result")
		out = append(out, schema.ToolMessage(string(content), call.ID))
	}
	return out
}

func (a *Assistant) loadOrCreate(ctx context.Context, sessionID string) (*statex.Session, error) {
	sess, err := a.store.Load(ctx, sessionID)
	if errors.Is(err, statex.ErrSessionNotFound) {
		return statex.NewSession(sessionID, a.clock.Now()), nil
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	return sess, nil
}

// History returns the visible turns of a session. Unknown sessions are empty.
func (a *Assistant) History(ctx context.Context, sessionID string) ([]*schema.Message, error) {
	sess, err := a.store.Load(ctx, sessionID)
	if errors.Is(err, statex.ErrSessionNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return sess.History(), nil
}

func (a *Assistant) Reset(ctx context.Context, sessionID string) error {
	return a.store.Delete(ctx, sessionID)
}
