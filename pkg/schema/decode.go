package schema

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"strings"

	"github.com/aretw0/easel/pkg/domain"
	"github.com/mitchellh/mapstructure"
)

// envelope mirrors the wire shape of a command before it is narrowed to one
// of the four command kinds.
type envelope struct {
	Action     string      `mapstructure:"action"`
	Type       string      `mapstructure:"type"`
	TargetID   string      `mapstructure:"targetId"`
	Properties *properties `mapstructure:"properties"`
}

type properties struct {
	Position *domain.PointPatch `mapstructure:"position"`
	Delta    *delta             `mapstructure:"delta"`
	Content  *string            `mapstructure:"content"`
	Style    domain.StylePatch  `mapstructure:"style"`
}

type delta struct {
	DX *int `mapstructure:"dx"`
	DY *int `mapstructure:"dy"`
}

// Decode validates one raw command and returns its typed form.
//
// It returns an error wrapping domain.ErrUnknownAction when the action tag is
// not handled, and a *DecodeError listing the offending fields when the
// command is malformed.
func Decode(raw any) (domain.Command, error) {
	m, ok := raw.(map[string]any)
	if !ok {
		return nil, newDecodeError("command", "expected an object", raw)
	}

	var env envelope
	if err := decodeInto(m, &env); err != nil {
		return nil, err
	}

	action := domain.Action(strings.ToLower(strings.TrimSpace(env.Action)))
	if action == "" {
		return nil, newDecodeError("action", "required", nil)
	}
	if !action.Known() {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownAction, env.Action)
	}

	props := env.Properties
	if props == nil {
		props = &properties{}
	}

	if action != domain.ActionCreate && strings.TrimSpace(env.TargetID) == "" {
		return nil, newDecodeError("targetId", "required for "+string(action), nil)
	}

	switch {
	case action == domain.ActionCreate:
		return domain.CreateCommand{
			Type:     env.Type,
			Position: props.Position,
			Content:  props.Content,
			Style:    props.Style,
		}, nil
	case action.IsModify():
		return domain.ModifyCommand{
			Alias:    action,
			Type:     env.Type,
			TargetID: env.TargetID,
			Position: props.Position,
			Content:  props.Content,
			Style:    props.Style,
		}, nil
	case action == domain.ActionMove:
		cmd := domain.MoveCommand{
			Type:     env.Type,
			TargetID: env.TargetID,
			Position: props.Position,
		}
		if props.Delta != nil {
			cmd.Delta = &domain.Delta{DX: deref(props.Delta.DX), DY: deref(props.Delta.DY)}
		}
		return cmd, nil
	default:
		return domain.DeleteCommand{Type: env.Type, TargetID: env.TargetID}, nil
	}
}

// DecodeAll decodes a batch. Entries that fail to decode yield a nil command
// and their error at the same index.
func DecodeAll(raw []any) ([]domain.Command, []error) {
	cmds := make([]domain.Command, len(raw))
	errs := make([]error, len(raw))
	for i, r := range raw {
		cmds[i], errs[i] = Decode(r)
	}
	return cmds, errs
}

func decodeInto(input map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       roundFloatHook,
		WeaklyTypedInput: true,
		Result:           out,
		TagName:          "mapstructure",
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(input); err != nil {
		var me *mapstructure.Error
		if !errors.As(err, &me) {
			return newDecodeError("command", err.Error(), nil)
		}
		de := &DecodeError{}
		for _, msg := range me.Errors {
			de.Fields = append(de.Fields, &FieldError{Field: fieldOf(msg), Reason: msg})
		}
		return de
	}
	return nil
}

// maxCoord bounds decoded numbers so that position plus delta cannot
// overflow before clamping.
const maxCoord = 1 << 53

// roundFloatHook rounds JSON numbers to the nearest pixel instead of truncating.
// Finite values beyond ±maxCoord saturate.
func roundFloatHook(from, to reflect.Type, data any) (any, error) {
	if to.Kind() != reflect.Int {
		return data, nil
	}
	var v float64
	switch n := data.(type) {
	case float64:
		v = n
	case float32:
		v = float64(n)
	default:
		return data, nil
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil, fmt.Errorf("non-finite number %v", v)
	}
	return int(math.Max(-maxCoord, math.Min(math.Round(v), maxCoord))), nil
}

// fieldOf extracts the quoted field name mapstructure puts at the start of
// its messages ("'properties.position' expected a map, ...").
func fieldOf(msg string) string {
	if strings.HasPrefix(msg, "'") {
		if end := strings.Index(msg[1:], "'"); end >= 0 {
			return msg[1 : end+1]
		}
	}
	return "command"
}

func deref(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}
