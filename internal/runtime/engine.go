package runtime

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/aretw0/easel/internal/logging"
	"github.com/aretw0/easel/pkg/domain"
	"github.com/aretw0/easel/pkg/schema"
	"github.com/google/uuid"
)

// IDGenerator returns a fresh, unique element id.
type IDGenerator func() string

// NewID is the default IDGenerator.
func NewID() string {
	return "tb-" + uuid.NewString()
}

// Hooks observe the interpreter without influencing it.
type Hooks struct {
	// OnOutcome is called once per command, after it was attempted.
	OnOutcome func(domain.Outcome)
}

// Interpreter applies batches of edit commands to a document.
//
// Application is sequential, single pass and best-effort: every command is
// attempted independently, a failing or unknown command is recorded in the
// Report and skipped, and nothing is rolled back.
type Interpreter struct {
	canvas domain.Canvas
	logger *slog.Logger
	hooks  Hooks
}

// Option configures the Interpreter.
type Option func(*Interpreter)

// WithCanvas overrides the canvas used for clamping.
func WithCanvas(c domain.Canvas) Option {
	return func(i *Interpreter) {
		i.canvas = c
	}
}

// WithLogger sets the logger used for skipped and failed commands.
func WithLogger(logger *slog.Logger) Option {
	return func(i *Interpreter) {
		if logger != nil {
			i.logger = logger
		}
	}
}

// WithHooks registers observability hooks.
func WithHooks(h Hooks) Option {
	return func(i *Interpreter) {
		i.hooks = h
	}
}

// NewInterpreter creates an interpreter for the default canvas.
func NewInterpreter(opts ...Option) *Interpreter {
	i := &Interpreter{
		canvas: domain.DefaultCanvas,
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Canvas returns the canvas the interpreter clamps against.
func (i *Interpreter) Canvas() domain.Canvas {
	return i.canvas
}

// Apply decodes and applies raw commands in input order.
// It never returns an error; the Report tells what happened to each command.
func (i *Interpreter) Apply(doc *domain.Document, raw []any, ids IDGenerator) domain.Report {
	report := domain.Report{Outcomes: make([]domain.Outcome, 0, len(raw))}
	for idx, r := range raw {
		cmd, err := schema.Decode(r)
		var out domain.Outcome
		if err != nil {
			out = i.decodeFailure(idx, r, err)
		} else {
			out = i.execute(doc, idx, cmd, ids)
		}
		i.record(&report, out)
	}
	return report
}

// Execute applies already decoded commands in input order.
func (i *Interpreter) Execute(doc *domain.Document, cmds []domain.Command, ids IDGenerator) domain.Report {
	report := domain.Report{Outcomes: make([]domain.Outcome, 0, len(cmds))}
	for idx, cmd := range cmds {
		i.record(&report, i.execute(doc, idx, cmd, ids))
	}
	return report
}

func (i *Interpreter) record(report *domain.Report, out domain.Outcome) {
	switch out.Status {
	case domain.OutcomeApplied:
		i.logger.Debug("command applied", "index", out.Index, "action", out.Action, "element_id", out.ElementID)
	case domain.OutcomeNotFound:
		i.logger.Warn("element not found", "index", out.Index, "action", out.Action, "target_id", out.TargetID)
	case domain.OutcomeUnknownAction:
		i.logger.Warn("unknown action", "index", out.Index, "action", out.Action)
	default:
		i.logger.Error("command skipped", "index", out.Index, "action", out.Action, "status", out.Status, "err", out.Err)
	}
	if i.hooks.OnOutcome != nil {
		i.hooks.OnOutcome(out)
	}
	report.Outcomes = append(report.Outcomes, out)
}

func (i *Interpreter) decodeFailure(idx int, raw any, err error) domain.Outcome {
	out := domain.Outcome{Index: idx, Err: err, Reason: err.Error()}
	if m, ok := raw.(map[string]any); ok {
		if a, ok := m["action"].(string); ok {
			out.Action = domain.Action(a)
		}
		if t, ok := m["targetId"].(string); ok {
			out.TargetID = t
		}
	}
	if errors.Is(err, domain.ErrUnknownAction) {
		out.Status = domain.OutcomeUnknownAction
	} else {
		out.Status = domain.OutcomeInvalid
	}
	return out
}

// execute runs one command, converting a panic into a failed outcome so a
// single bad command never aborts the batch.
func (i *Interpreter) execute(doc *domain.Document, idx int, cmd domain.Command, ids IDGenerator) (out domain.Outcome) {
	out = domain.Outcome{Index: idx}
	if cmd == nil {
		out.Status = domain.OutcomeInvalid
		out.Reason = "nil command"
		return out
	}
	out.Action = cmd.Action()
	out.TargetID = cmd.Target()

	defer func() {
		if r := recover(); r != nil {
			out.Status = domain.OutcomeFailed
			out.Err = fmt.Errorf("panic: %v", r)
			out.Reason = out.Err.Error()
		}
	}()

	var (
		elementID string
		err       error
	)
	switch c := cmd.(type) {
	case domain.CreateCommand:
		elementID, err = i.create(doc, c, ids)
	case domain.ModifyCommand:
		elementID, err = i.modify(doc, c)
	case domain.MoveCommand:
		elementID, err = i.move(doc, c)
	case domain.DeleteCommand:
		elementID, err = i.remove(doc, c)
	default:
		err = fmt.Errorf("%w: %T", domain.ErrUnknownAction, cmd)
	}

	switch {
	case err == nil:
		out.Status = domain.OutcomeApplied
		out.ElementID = elementID
	case errors.Is(err, domain.ErrElementNotFound):
		out.Status = domain.OutcomeNotFound
	case errors.Is(err, domain.ErrUnknownAction):
		out.Status = domain.OutcomeUnknownAction
	default:
		out.Status = domain.OutcomeFailed
	}
	if err != nil {
		out.Err = err
		out.Reason = err.Error()
	}
	return out
}
