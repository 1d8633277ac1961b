package orchestrator_test

import (
	"testing"

	"github.com/aretw0/easel/pkg/orchestrator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEditReply(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		message  string
		commands int
	}{
		{"plain json", `{"message":"Hi","commands":[{"action":"create"},{"action":"delete"}]}`, "Hi", 2},
		{"json fence", "```json\n{\"message\":\"Hi\",\"commands\":[]}\n```", "Hi", 0},
		{"upper fence", "```JSON {\"message\":\"Hi\",\"commands\":[{}]}```", "Hi", 1},
		{"bare fence", "```\n{\"message\":\"Hi\"}\n```", "Hi", 0},
		{"not json", "Sure! I moved it.", "Sure! I moved it.", 0},
		{"missing message", `{"commands":[{"action":"create"}]}`, `{"commands":[{"action":"create"}]}`, 1},
		{"empty message", `{"message":"","commands":[]}`, `{"message":"","commands":[]}`, 0},
		{"commands not array", `{"message":"Hi","commands":{"action":"create"}}`, "Hi", 0},
		{"json array", `[1,2]`, `[1,2]`, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reply := orchestrator.ParseEditReply(tt.raw)
			assert.Equal(t, tt.message, reply.Message)
			assert.NotNil(t, reply.Commands)
			assert.Len(t, reply.Commands, tt.commands)
		})
	}
}

func TestParseSlide(t *testing.T) {
	code, err := orchestrator.ParseSlide("```json\n{\"html\":\"<b>x</b>\",\"css\":\"\"}\n```")
	require.NoError(t, err)
	assert.Equal(t, "<b>x</b>", code.HTML)
	assert.Equal(t, "", code.CSS)

	for _, raw := range []string{
		"",
		"not json",
		`{"html":"x"}`,
		`{"html":1,"css":"y"}`,
		`null`,
		`["html","css"]`,
	} {
		_, err := orchestrator.ParseSlide(raw)
		assert.ErrorIs(t, err, orchestrator.ErrMalformedResponse, raw)
	}
}
