// Package agent drives conversational administration of a Hive metastore:
// it retrieves knowledge for each user turn, lets the configured model plan
// tool calls, executes them against the Hive gateway, and returns an answer
// grounded in the observed results.
package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/hivegate/hive-agent/src/models"
	"github.com/hivegate/hive-agent/src/rag"
	"github.com/hivegate/hive-agent/src/session"
	"github.com/hivegate/hive-agent/src/tools"
)

const defaultSystemPrompt = `You are a Hive metastore administration agent. You help users manage
databases and tables through the available tools: listing databases and
tables, inspecting table metadata, creating tables, and deleting tables.
Users write table references as 'schema.table'; for 'public.measure' the
schema is 'public' and the table name is 'measure'. Always answer based on
actual tool results, never on assumptions about the metastore state.`

// Degraded answers the user sees when the turn cannot complete normally.
const (
	answerModelUnavailable = "The language model is currently unavailable. Please try again in a moment."
	answerTooManySteps     = "I could not complete this request within the allowed number of steps. Please try a more specific request."
)

// turnState tracks where a turn is in its lifecycle.
type turnState int

const (
	stateAwaitingModel turnState = iota
	stateExecutingTool
	stateDone
	stateFailed
)

// Agent is safe for concurrent use; per-session turn locks serialize the
// turns of each conversation.
type Agent struct {
	model     models.Model
	registry  *tools.Registry
	retriever *rag.Retriever
	sessions  *session.Manager

	systemPrompt  string
	maxToolRounds int
	tokenBudget   int
	retryBackoff  time.Duration

	logger *slog.Logger
	tracer trace.Tracer

	turnCounter metric.Int64Counter
	toolCounter metric.Int64Counter
}

// Options configure a new Agent. Model, Registry and Sessions are required;
// everything else has a usable default.
type Options struct {
	Model         models.Model
	Registry      *tools.Registry
	Retriever     *rag.Retriever
	Sessions      *session.Manager
	SystemPrompt  string
	MaxToolRounds int
	TokenBudget   int
	RetryBackoff  time.Duration
	Logger        *slog.Logger
	Tracer        trace.Tracer
	Meter         metric.Meter
}

// Reply is the outcome of one completed turn.
type Reply struct {
	SessionKey string
	Answer     string
}

func New(opts Options) (*Agent, error) {
	if opts.Model == nil {
		return nil, errors.New("agent requires a completion model")
	}
	if opts.Registry == nil {
		return nil, errors.New("agent requires a tool registry")
	}
	if opts.Sessions == nil {
		return nil, errors.New("agent requires a session manager")
	}

	a := &Agent{
		model:         opts.Model,
		registry:      opts.Registry,
		retriever:     opts.Retriever,
		sessions:      opts.Sessions,
		systemPrompt:  opts.SystemPrompt,
		maxToolRounds: opts.MaxToolRounds,
		tokenBudget:   opts.TokenBudget,
		retryBackoff:  opts.RetryBackoff,
		logger:        opts.Logger,
		tracer:        opts.Tracer,
	}
	if a.systemPrompt == "" {
		a.systemPrompt = defaultSystemPrompt
	}
	if a.maxToolRounds <= 0 {
		a.maxToolRounds = 5
	}
	if a.tokenBudget <= 0 {
		a.tokenBudget = 3000
	}
	if a.retryBackoff <= 0 {
		a.retryBackoff = 500 * time.Millisecond
	}
	if a.logger == nil {
		a.logger = slog.Default()
	}
	if a.tracer == nil {
		a.tracer = noop.NewTracerProvider().Tracer("agent")
	}
	if opts.Meter != nil {
		var err error
		a.turnCounter, err = opts.Meter.Int64Counter("agent.turns")
		if err != nil {
			return nil, fmt.Errorf("create turn counter: %w", err)
		}
		a.toolCounter, err = opts.Meter.Int64Counter("agent.tool_calls")
		if err != nil {
			return nil, fmt.Errorf("create tool counter: %w", err)
		}
	}
	return a, nil
}

// HandleTurn runs one full user turn against the session identified by
// sessionKey; an empty key starts a new session. The user always gets an
// answer: infrastructure failures degrade to an apologetic text rather
// than an error, so only misuse (empty input) returns one.
func (a *Agent) HandleTurn(ctx context.Context, sessionKey, userInput string) (Reply, error) {
	userInput = strings.TrimSpace(userInput)
	if userInput == "" {
		return Reply{}, errors.New("empty user input")
	}

	sess := a.sessions.GetOrCreate(sessionKey)
	sess.AcquireTurn()
	defer sess.ReleaseTurn()

	ctx, span := a.tracer.Start(ctx, "agent.turn",
		trace.WithAttributes(attribute.String("session", sess.Key())))
	defer span.End()

	if err := sess.Append(session.Message{Role: models.RoleUser, Content: userInput}); err != nil {
		return Reply{}, err
	}

	var contextBlock string
	if a.retriever != nil {
		contextBlock, _ = a.retriever.Retrieve(ctx, userInput)
	}

	state := stateAwaitingModel
	answer := ""
	for round := 0; state == stateAwaitingModel || state == stateExecutingTool; {
		comp, err := a.chatWithRetry(ctx, models.Request{
			System:   a.systemPrompt,
			Context:  contextBlock,
			Messages: a.windowedHistory(sess),
			Tools:    a.registry.Specs(),
		})
		if err != nil {
			a.logger.Error("model unavailable after retry", "session", sess.Key(), "error", err)
			answer = answerModelUnavailable
			state = stateFailed
			break
		}

		// A completion carrying both text and tool calls executes the
		// tools; the text is planning chatter, not the answer.
		if len(comp.ToolCalls) > 0 {
			round++
			if round > a.maxToolRounds {
				a.logger.Warn("tool round cap exceeded", "session", sess.Key(), "cap", a.maxToolRounds)
				answer = answerTooManySteps
				state = stateFailed
				break
			}
			state = stateExecutingTool
			if err := a.executeToolCall(ctx, sess, comp.ToolCalls[0]); err != nil {
				return Reply{}, err
			}
			state = stateAwaitingModel
			continue
		}

		answer = strings.TrimSpace(comp.Text)
		if answer == "" {
			answer = "I have no further information for this request."
		}
		state = stateDone
	}

	if err := sess.Append(session.Message{Role: models.RoleAssistant, Content: answer}); err != nil {
		return Reply{}, err
	}
	if a.turnCounter != nil {
		a.turnCounter.Add(ctx, 1, metric.WithAttributes(
			attribute.Bool("degraded", state == stateFailed)))
	}
	return Reply{SessionKey: sess.Key(), Answer: answer}, nil
}

// ResetSession clears the transcript of one session. Unknown keys are a
// no-op so clients can reset freely.
func (a *Agent) ResetSession(sessionKey string) {
	if sess, ok := a.sessions.Get(sessionKey); ok {
		sess.Reset()
	}
}

// Sessions exposes the underlying manager for transport layers.
func (a *Agent) Sessions() *session.Manager { return a.sessions }

// chatWithRetry retries exactly once after a backoff. Two consecutive
// failures mean the backend is down, not flaky.
func (a *Agent) chatWithRetry(ctx context.Context, req models.Request) (models.Completion, error) {
	comp, err := a.model.Chat(ctx, req)
	if err == nil {
		return comp, nil
	}
	a.logger.Warn("model call failed, retrying once", "model", a.model.Name(), "error", err)

	select {
	case <-ctx.Done():
		return models.Completion{}, ctx.Err()
	case <-time.After(a.retryBackoff):
	}
	return a.model.Chat(ctx, req)
}

// executeToolCall runs one call and appends exactly one tool message with
// the normalized result, success or not. The model reads failures as data
// and can correct itself on the next round.
func (a *Agent) executeToolCall(ctx context.Context, sess *session.Session, call models.ToolCall) error {
	ctx, span := a.tracer.Start(ctx, "agent.tool",
		trace.WithAttributes(attribute.String("tool", call.Name)))
	defer span.End()

	outcome := a.registry.Invoke(ctx, call.Name, call.Arguments)
	if a.toolCounter != nil {
		a.toolCounter.Add(ctx, 1, metric.WithAttributes(
			attribute.String("tool", call.Name),
			attribute.Bool("ok", outcome.OK)))
	}

	var payload any
	if outcome.OK {
		payload = outcome.Payload
	} else {
		a.logger.Warn("tool call failed", "tool", call.Name, "kind", outcome.Kind, "message", outcome.Message)
		payload = map[string]any{
			"error":   true,
			"kind":    outcome.Kind,
			"message": outcome.Message,
		}
	}
	content, err := json.Marshal(payload)
	if err != nil {
		content = []byte(fmt.Sprintf(`{"error":true,"kind":"execution","message":%q}`, err.Error()))
	}

	id := call.ID
	if id == "" {
		id = uuid.NewString()
	}
	return sess.Append(session.Message{
		Role:       models.RoleTool,
		Content:    string(content),
		ToolCallID: id,
		ToolName:   call.Name,
		ToolArgs:   call.Arguments,
	})
}

// windowedHistory converts the transcript for the model, dropping the
// oldest messages when the estimated token count exceeds the budget. The
// newest message always survives.
func (a *Agent) windowedHistory(sess *session.Session) []models.ChatMessage {
	history := sess.History()
	msgs := make([]models.ChatMessage, len(history))
	total := 0
	for i, m := range history {
		msgs[i] = models.ChatMessage{
			Role:       m.Role,
			Content:    m.Content,
			ToolCallID: m.ToolCallID,
			ToolName:   m.ToolName,
			ToolArgs:   m.ToolArgs,
		}
		total += estimateTokens(m.Content)
	}
	for len(msgs) > 1 && total > a.tokenBudget {
		total -= estimateTokens(msgs[0].Content)
		msgs = msgs[1:]
	}
	return msgs
}

// estimateTokens is the usual rough heuristic of four bytes per token.
func estimateTokens(s string) int {
	return len(s) / 4
}
