package schema

import (
	"errors"
	"fmt"
	"strings"
)

// FieldError reports one malformed part of a command envelope.
type FieldError struct {
	Field  string // Dotted path inside the envelope, e.g. "properties.position"
	Reason string
	Value  any // Offending value, if any
}

func (e *FieldError) Error() string {
	if e.Value == nil {
		return fmt.Sprintf("%s: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("%s: %s (got %T)", e.Field, e.Reason, e.Value)
}

// DecodeError groups the field errors found while decoding one command.
type DecodeError struct {
	Fields []error
}

func newDecodeError(field, reason string, value any) *DecodeError {
	return &DecodeError{Fields: []error{&FieldError{Field: field, Reason: reason, Value: value}}}
}

func (e *DecodeError) Error() string {
	parts := make([]string, len(e.Fields))
	for i, err := range e.Fields {
		parts[i] = err.Error()
	}
	return "malformed command: " + strings.Join(parts, "; ")
}

func (e *DecodeError) Unwrap() []error {
	return e.Fields
}

// FieldErrors returns the field errors carried by err, or nil when err is
// not a decode failure.
func FieldErrors(err error) []*FieldError {
	var de *DecodeError
	if !errors.As(err, &de) {
		return nil
	}
	out := make([]*FieldError, 0, len(de.Fields))
	for _, f := range de.Fields {
		var fe *FieldError
		if errors.As(f, &fe) {
			out = append(out, fe)
		}
	}
	return out
}
