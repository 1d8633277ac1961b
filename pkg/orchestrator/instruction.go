package orchestrator

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// DefaultMaxInstructionBytes bounds an instruction before it reaches the model.
const DefaultMaxInstructionBytes = 4096

var (
	ErrInstructionTooLong  = errors.New("instruction too long")
	ErrInstructionEncoding = errors.New("instruction is not valid UTF-8")
)

// CleanInstruction rejects instructions over limit bytes or with broken UTF-8
// and drops control runes, keeping line breaks and tabs.
func CleanInstruction(s string, limit int) (string, error) {
	if limit <= 0 {
		limit = DefaultMaxInstructionBytes
	}
	if n := len(s); n > limit {
		return "", fmt.Errorf("%w: %d bytes, limit %d", ErrInstructionTooLong, n, limit)
	}
	if !utf8.ValidString(s) {
		return "", ErrInstructionEncoding
	}
	if strings.IndexFunc(s, dropRune) < 0 {
		return s, nil
	}
	return strings.Map(func(r rune) rune {
		if dropRune(r) {
			return -1
		}
		return r
	}, s), nil
}

func dropRune(r rune) bool {
	switch r {
	case '\n', '\r', '\t':
		return false
	}
	return unicode.IsControl(r)
}
