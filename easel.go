package easel

import (
	"context"
	"log/slog"

	"github.com/aretw0/easel/internal/logging"
	"github.com/aretw0/easel/internal/runtime"
	"github.com/aretw0/easel/pkg/domain"
	"github.com/aretw0/easel/pkg/orchestrator"
	"github.com/aretw0/easel/pkg/session"
)

// KeyStore holds the generation service's API key, replaceable at runtime.
type KeyStore interface {
	SetAPIKey(key string)
	Configured() bool
}

// Editor ties the interpreter, the orchestrator and the session workspaces
// together. It is what the HTTP and MCP adapters drive.
type Editor struct {
	interp   *runtime.Interpreter
	orch     *orchestrator.Orchestrator
	sessions *session.Manager
	keys     KeyStore
	ids      runtime.IDGenerator
	logger   *slog.Logger
	onChange func(sessionID string, ctx runtime.CanvasContext)
}

// Option configures the Editor.
type Option func(*Editor)

// WithInterpreter replaces the default interpreter.
func WithInterpreter(i *runtime.Interpreter) Option {
	return func(e *Editor) {
		e.interp = i
	}
}

// WithKeyStore lets callers replace the API key at runtime.
func WithKeyStore(k KeyStore) Option {
	return func(e *Editor) {
		e.keys = k
	}
}

// WithIDGenerator overrides runtime.NewID for created elements.
func WithIDGenerator(ids runtime.IDGenerator) Option {
	return func(e *Editor) {
		e.ids = ids
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Editor) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithChangeListener is called, under the session lock, after every
// mutation of a session's document.
func WithChangeListener(fn func(sessionID string, ctx runtime.CanvasContext)) Option {
	return func(e *Editor) {
		e.onChange = fn
	}
}

// New creates an Editor.
func New(sessions *session.Manager, orch *orchestrator.Orchestrator, opts ...Option) *Editor {
	e := &Editor{
		sessions: sessions,
		orch:     orch,
		ids:      runtime.NewID,
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.interp == nil {
		e.interp = runtime.NewInterpreter(runtime.WithLogger(e.logger))
	}
	return e
}

// ApplyResult is the outcome of applying a batch to a session.
type ApplyResult struct {
	Report   domain.Report        `json:"report"`
	Elements []domain.TextElement `json:"elements"`
}

// Apply runs raw commands against the session's document.
func (e *Editor) Apply(ctx context.Context, sessionID string, commands []any) (*ApplyResult, error) {
	var res *ApplyResult
	err := e.sessions.WithWorkspace(ctx, sessionID, func(ws *session.Workspace) error {
		res = e.apply(ws, commands)
		return nil
	})
	return res, err
}

func (e *Editor) apply(ws *session.Workspace, commands []any) *ApplyResult {
	doc := ws.Document()
	report := e.interp.Apply(doc, commands, e.ids)
	e.logger.Info("commands applied",
		"session_id", ws.ID,
		"total", len(report.Outcomes),
		"applied", report.Applied(),
	)
	if report.Applied() > 0 {
		e.changed(ws)
	}
	return &ApplyResult{Report: report, Elements: doc.Elements()}
}

func (e *Editor) changed(ws *session.Workspace) {
	if e.onChange != nil {
		e.onChange(ws.ID, e.interp.Serialize(ws.Document()))
	}
}

// Context serializes the session's document for the model.
func (e *Editor) Context(ctx context.Context, sessionID string) (runtime.CanvasContext, error) {
	var out runtime.CanvasContext
	err := e.sessions.WithWorkspace(ctx, sessionID, func(ws *session.Workspace) error {
		out = e.interp.Serialize(ws.Document())
		return nil
	})
	return out, err
}

// Save stores elements as the session's snapshot and live document.
func (e *Editor) Save(ctx context.Context, sessionID string, elements []domain.TextElement, meta map[string]any) (*domain.Snapshot, error) {
	var snap *domain.Snapshot
	err := e.sessions.WithWorkspace(ctx, sessionID, func(ws *session.Workspace) error {
		var err error
		if snap, err = ws.Save(elements, meta); err != nil {
			return err
		}
		e.changed(ws)
		return nil
	})
	return snap, err
}

// Load restores the session's snapshot into its live document.
// It returns nil, nil when nothing was saved.
func (e *Editor) Load(ctx context.Context, sessionID string) (*domain.Snapshot, error) {
	var snap *domain.Snapshot
	err := e.sessions.WithWorkspace(ctx, sessionID, func(ws *session.Workspace) error {
		var err error
		if snap, err = ws.Load(); err != nil {
			return err
		}
		if snap != nil {
			e.changed(ws)
		}
		return nil
	})
	return snap, err
}

// Clear deletes the session's snapshot and empties its document.
func (e *Editor) Clear(ctx context.Context, sessionID string) error {
	return e.sessions.WithWorkspace(ctx, sessionID, func(ws *session.Workspace) error {
		if err := ws.Clear(); err != nil {
			return err
		}
		e.changed(ws)
		return nil
	})
}

// ChatRequest is one natural-language instruction.
type ChatRequest struct {
	SessionID   string
	Instruction string
	Model       string
	// CanvasContext is sent to the model as is. When nil, the session's own
	// document is serialized instead.
	CanvasContext any
	// Apply runs the returned commands against the session's document.
	Apply bool
}

// ChatResult is the model's reply, plus the report when applied.
type ChatResult struct {
	Message  string               `json:"message"`
	Commands []any                `json:"commands"`
	Report   *domain.Report       `json:"report,omitempty"`
	Elements []domain.TextElement `json:"elements,omitempty"`
}

// Chat asks the model for edits. The session stays locked for the whole
// exchange so that applied commands target the context the model saw.
func (e *Editor) Chat(ctx context.Context, req ChatRequest) (*ChatResult, error) {
	var res *ChatResult
	err := e.sessions.WithWorkspace(ctx, req.SessionID, func(ws *session.Workspace) error {
		canvas := req.CanvasContext
		if canvas == nil {
			canvas = e.interp.Serialize(ws.Document())
		}

		reply, err := e.orch.RequestEdit(ctx, orchestrator.EditRequest{
			SessionID:   ws.ID,
			Instruction: req.Instruction,
			Context:     canvas,
			Model:       req.Model,
		})
		if err != nil {
			return err
		}

		res = &ChatResult{Message: reply.Message, Commands: reply.Commands}
		if req.Apply {
			applied := e.apply(ws, reply.Commands)
			res.Report = &applied.Report
			res.Elements = applied.Elements
		}
		return nil
	})
	return res, err
}

// History returns the session's chat log.
func (e *Editor) History(ctx context.Context, sessionID string) ([]domain.ChatMessage, error) {
	return e.orch.History(ctx, normalize(sessionID))
}

// ClearHistory empties the session's chat log.
func (e *Editor) ClearHistory(ctx context.Context, sessionID string) error {
	return e.orch.ClearHistory(ctx, normalize(sessionID))
}

// TransformSlide rewrites a whole HTML/CSS slide.
func (e *Editor) TransformSlide(ctx context.Context, req orchestrator.SlideRequest) (*domain.SlideCode, error) {
	return e.orch.TransformSlide(ctx, req)
}

// SetAPIKey replaces the generation service's key. It is a no-op without a KeyStore.
func (e *Editor) SetAPIKey(key string) {
	if e.keys != nil {
		e.keys.SetAPIKey(key)
	}
}

// Configured reports whether the generation service has a key.
func (e *Editor) Configured() bool {
	return e.keys != nil && e.keys.Configured()
}

// Canvas returns the canvas the interpreter clamps against.
func (e *Editor) Canvas() domain.Canvas {
	return e.interp.Canvas()
}

func normalize(sessionID string) string {
	if sessionID == "" {
		return session.DefaultSessionID
	}
	return sessionID
}
