package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/aretw0/easel/internal/logging"
	"github.com/aretw0/easel/pkg/domain"
	"github.com/aretw0/easel/pkg/ports"
	"github.com/google/uuid"
)

const (
	// DefaultEditModel is used when an edit request names no model.
	DefaultEditModel = "gpt-4"
	// DefaultSlideModel is used for slide rewrites.
	DefaultSlideModel = "gpt-4.1"

	editTemperature  = 0.3
	editMaxTokens    = 2048
	slideTemperature = 0.2

	contextPreamble = "Current canvas state:\n"
)

// Orchestrator drives the generation service on behalf of a session.
type Orchestrator struct {
	gen        ports.Generator
	history    ports.HistoryStore
	logger     *slog.Logger
	editModel  string
	slideModel string
	maxInput   int
	now        func() time.Time
	newID      func() string
}

// Option configures the Orchestrator.
type Option func(*Orchestrator)

// WithHistory records every exchange in store.
func WithHistory(store ports.HistoryStore) Option {
	return func(o *Orchestrator) {
		o.history = store
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithEditModel overrides DefaultEditModel.
func WithEditModel(model string) Option {
	return func(o *Orchestrator) {
		if model != "" {
			o.editModel = model
		}
	}
}

// WithSlideModel overrides DefaultSlideModel.
func WithSlideModel(model string) Option {
	return func(o *Orchestrator) {
		if model != "" {
			o.slideModel = model
		}
	}
}

// WithMaxInputSize bounds instructions, in bytes.
func WithMaxInputSize(n int) Option {
	return func(o *Orchestrator) {
		if n > 0 {
			o.maxInput = n
		}
	}
}

// WithClock overrides the time source used to stamp messages.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) {
		o.now = now
	}
}

// WithMessageIDs overrides the message id generator.
func WithMessageIDs(fn func() string) Option {
	return func(o *Orchestrator) {
		o.newID = fn
	}
}

// New creates an Orchestrator over gen.
// Without WithHistory, exchanges are not recorded.
func New(gen ports.Generator, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		gen:        gen,
		logger:     logging.NewNop(),
		editModel:  DefaultEditModel,
		slideModel: DefaultSlideModel,
		maxInput:   DefaultMaxInstructionBytes,
		now:        time.Now,
		newID:      func() string { return "msg-" + uuid.NewString() },
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// EditRequest asks for commands against a canvas context.
type EditRequest struct {
	SessionID   string
	Instruction string
	// Context is marshalled as is; usually a runtime.CanvasContext or the
	// client's raw JSON.
	Context any
	Model   string
}

// EditReply is the model's answer. Commands are untrusted raw commands.
type EditReply struct {
	Message  string `json:"message"`
	Commands []any  `json:"commands"`
}

// RequestEdit sends the instruction and canvas context to the model and
// returns its message and commands.
//
// Errors: ErrEmptyInstruction and sanitizer errors for bad input,
// ErrNotConfigured without an API key, ErrUpstream when the call fails.
// A reply that is not valid JSON is not an error: its raw text becomes the
// message and no commands are returned.
func (o *Orchestrator) RequestEdit(ctx context.Context, req EditRequest) (*EditReply, error) {
	if strings.TrimSpace(req.Instruction) == "" {
		return nil, ErrEmptyInstruction
	}
	instruction, err := CleanInstruction(req.Instruction, o.maxInput)
	if err != nil {
		return nil, err
	}
	if !o.gen.Configured() {
		return nil, ErrNotConfigured
	}

	state, err := json.MarshalIndent(req.Context, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal canvas context: %w", err)
	}

	if err := o.record(ctx, req.SessionID, domain.RoleUser, instruction, nil); err != nil {
		return nil, err
	}

	model := req.Model
	if model == "" {
		model = o.editModel
	}

	res, err := o.gen.Complete(ctx, ports.Completion{
		Model: model,
		Messages: []ports.Message{
			{Role: string(domain.RoleSystem), Content: EditSystemPrompt},
			{Role: string(domain.RoleUser), Content: contextPreamble + string(state)},
			{Role: string(domain.RoleUser), Content: instruction},
		},
		Temperature: editTemperature,
		MaxTokens:   editMaxTokens,
	})
	if err != nil {
		o.logger.Error("edit request failed", "session_id", req.SessionID, "model", model, "err", err)
		return nil, fmt.Errorf("%w: %w", ErrUpstream, err)
	}

	reply := ParseEditReply(res.Content)
	if err := o.record(ctx, req.SessionID, domain.RoleAssistant, reply.Message, reply.Commands); err != nil {
		return nil, err
	}

	o.logger.Info("edit request completed",
		"session_id", req.SessionID,
		"model", model,
		"commands", len(reply.Commands),
	)
	return reply, nil
}

func (o *Orchestrator) record(ctx context.Context, sessionID string, role domain.Role, content string, commands []any) error {
	if o.history == nil {
		return nil
	}
	msg := domain.ChatMessage{
		ID:        o.newID(),
		Role:      role,
		Content:   content,
		Commands:  commands,
		Timestamp: o.now().UTC(),
	}
	if err := o.history.Append(ctx, sessionID, msg); err != nil {
		return fmt.Errorf("failed to record %s message: %w", role, err)
	}
	return nil
}

// History returns the session's chat log, or nil without a history store.
func (o *Orchestrator) History(ctx context.Context, sessionID string) ([]domain.ChatMessage, error) {
	if o.history == nil {
		return nil, nil
	}
	return o.history.List(ctx, sessionID)
}

// ClearHistory empties the session's chat log.
func (o *Orchestrator) ClearHistory(ctx context.Context, sessionID string) error {
	if o.history == nil {
		return nil
	}
	return o.history.Clear(ctx, sessionID)
}

// SlideRequest asks for a rewrite of a whole slide.
type SlideRequest struct {
	HTML   string
	CSS    string
	Prompt string
}

// TransformSlide asks the model to rewrite the slide according to the prompt.
// The reply must be a JSON object with string html and css fields; anything
// else is ErrMalformedResponse.
func (o *Orchestrator) TransformSlide(ctx context.Context, req SlideRequest) (*domain.SlideCode, error) {
	if strings.TrimSpace(req.Prompt) == "" {
		return nil, ErrEmptyInstruction
	}
	if !o.gen.Configured() {
		return nil, ErrNotConfigured
	}

	payload, err := json.Marshal(struct {
		CurrentHTML string `json:"currentHtml"`
		CurrentCSS  string `json:"currentCss"`
		Instruction string `json:"instruction"`
	}{req.HTML, req.CSS, req.Prompt})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal slide: %w", err)
	}

	res, err := o.gen.Complete(ctx, ports.Completion{
		Model: o.slideModel,
		Messages: []ports.Message{
			{Role: string(domain.RoleSystem), Content: SlideSystemPrompt},
			{Role: string(domain.RoleUser), Content: string(payload)},
		},
		Temperature: slideTemperature,
	})
	if err != nil {
		o.logger.Error("slide transform failed", "model", o.slideModel, "err", err)
		return nil, fmt.Errorf("%w: %w", ErrUpstream, err)
	}

	code, err := ParseSlide(res.Content)
	if err != nil {
		o.logger.Warn("unexpected slide reply", "err", err, "raw", res.Content)
		return nil, err
	}
	return code, nil
}
