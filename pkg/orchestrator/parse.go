package orchestrator

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/aretw0/easel/pkg/domain"
)

var (
	jsonFence     = regexp.MustCompile("(?i)```json\\s*")
	anyFence      = regexp.MustCompile("```\\s*")
	leadingFence  = regexp.MustCompile("(?i)^```(?:json)?\\s*")
	trailingFence = regexp.MustCompile("\\s*```$")
)

// ParseEditReply extracts {message, commands} from a model reply.
//
// Every markdown fence is removed before parsing. Text that is not JSON is
// returned whole as the message. A missing or empty message falls back to
// the raw text, and commands that are not an array become empty.
func ParseEditReply(raw string) *EditReply {
	reply := &EditReply{Message: raw, Commands: []any{}}

	cleaned := strings.TrimSpace(anyFence.ReplaceAllString(jsonFence.ReplaceAllString(raw, ""), ""))
	var parsed any
	if err := json.Unmarshal([]byte(cleaned), &parsed); err != nil {
		return reply
	}
	obj, ok := parsed.(map[string]any)
	if !ok {
		return reply
	}

	if msg, ok := obj["message"].(string); ok && msg != "" {
		reply.Message = msg
	}
	if cmds, ok := obj["commands"].([]any); ok {
		reply.Commands = cmds
	}
	return reply
}

// ParseSlide strictly decodes a {html, css} reply, tolerating one
// surrounding markdown fence.
func ParseSlide(raw string) (*domain.SlideCode, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, fmt.Errorf("%w: empty response", ErrMalformedResponse)
	}

	cleaned := strings.TrimSpace(trailingFence.ReplaceAllString(leadingFence.ReplaceAllString(raw, ""), ""))
	var parsed map[string]any
	if err := json.Unmarshal([]byte(cleaned), &parsed); err != nil {
		return nil, fmt.Errorf("%w: not valid JSON", ErrMalformedResponse)
	}

	html, okHTML := parsed["html"].(string)
	css, okCSS := parsed["css"].(string)
	if !okHTML || !okCSS {
		return nil, fmt.Errorf("%w: missing required \"html\" and \"css\" fields", ErrMalformedResponse)
	}
	return &domain.SlideCode{HTML: html, CSS: css}, nil
}
