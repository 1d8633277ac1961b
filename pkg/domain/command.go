package domain

// Action is the tag that distinguishes edit commands.
type Action string

const (
	ActionCreate  Action = "create"
	ActionModify  Action = "modify"
	ActionRestyle Action = "restyle" // alias of modify
	ActionResize  Action = "resize"  // alias of modify; text boxes have no explicit size
	ActionMove    Action = "move"
	ActionDelete  Action = "delete"
)

// RawCommand is the untrusted wire form of a single command as produced by
// the model. A batch travels as []any because the model may emit entries that
// are not objects at all.
type RawCommand = map[string]any

// Command is a decoded edit command. The concrete types are CreateCommand,
// ModifyCommand, MoveCommand and DeleteCommand.
type Command interface {
	Action() Action
	Target() string
}

// PointPatch is a position where each axis is optional.
type PointPatch struct {
	X *int `json:"x,omitempty" mapstructure:"x"`
	Y *int `json:"y,omitempty" mapstructure:"y"`
}

// Delta is a relative displacement. Missing axes are zero.
type Delta struct {
	DX int `json:"dx" mapstructure:"dx"`
	DY int `json:"dy" mapstructure:"dy"`
}

// CreateCommand adds a new element.
type CreateCommand struct {
	Type     string
	Position *PointPatch
	Content  *string
	Style    StylePatch
}

func (CreateCommand) Action() Action { return ActionCreate }
func (CreateCommand) Target() string { return "" }

// ModifyCommand overwrites the fields present on an existing element.
// Alias records which tag produced it (modify, restyle or resize).
type ModifyCommand struct {
	Alias    Action
	Type     string
	TargetID string
	Position *PointPatch
	Content  *string
	Style    StylePatch
}

func (c ModifyCommand) Action() Action {
	if c.Alias == "" {
		return ActionModify
	}
	return c.Alias
}
func (c ModifyCommand) Target() string { return c.TargetID }

// MoveCommand repositions an element, absolutely, relatively, or both
// (absolute first).
type MoveCommand struct {
	Type     string
	TargetID string
	Position *PointPatch
	Delta    *Delta
}

func (MoveCommand) Action() Action   { return ActionMove }
func (c MoveCommand) Target() string { return c.TargetID }

// DeleteCommand removes an element.
type DeleteCommand struct {
	Type     string
	TargetID string
}

func (DeleteCommand) Action() Action   { return ActionDelete }
func (c DeleteCommand) Target() string { return c.TargetID }

// IsModify reports whether the action is modify or one of its aliases.
func (a Action) IsModify() bool {
	return a == ActionModify || a == ActionRestyle || a == ActionResize
}

// Known reports whether the interpreter handles this action.
func (a Action) Known() bool {
	switch a {
	case ActionCreate, ActionMove, ActionDelete:
		return true
	}
	return a.IsModify()
}
