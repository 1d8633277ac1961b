package orchestrator_test

import (
	"strings"
	"testing"

	"github.com/aretw0/easel/pkg/orchestrator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanInstruction(t *testing.T) {
	out, err := orchestrator.CleanInstruction("line one\nline\ttwo\r\n", 0)
	require.NoError(t, err)
	assert.Equal(t, "line one\nline\ttwo\r\n", out)

	out, err = orchestrator.CleanInstruction("a\x00b\x1bc", 0)
	require.NoError(t, err)
	assert.Equal(t, "abc", out)

	_, err = orchestrator.CleanInstruction("\xff\xfe", 0)
	assert.ErrorIs(t, err, orchestrator.ErrInstructionEncoding)

	_, err = orchestrator.CleanInstruction(strings.Repeat("a", orchestrator.DefaultMaxInstructionBytes+1), 0)
	assert.ErrorIs(t, err, orchestrator.ErrInstructionTooLong)

	_, err = orchestrator.CleanInstruction("12345", 4)
	assert.ErrorIs(t, err, orchestrator.ErrInstructionTooLong)
}
