package tui

import (
	"bytes"
	"strings"
	"testing"

	"github.com/aretw0/easel/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReportMarkdown(t *testing.T) {
	t.Run("All Applied", func(t *testing.T) {
		md := ReportMarkdown(2, []domain.Outcome{
			{Index: 0, Status: domain.OutcomeApplied},
			{Index: 1, Status: domain.OutcomeApplied},
		})
		assert.Equal(t, "**Applied 2 of 2 commands.**\n", md)
	})

	t.Run("Skipped Rows", func(t *testing.T) {
		md := ReportMarkdown(1, []domain.Outcome{
			{Index: 0, Action: domain.ActionCreate, Status: domain.OutcomeApplied},
			{Index: 1, Action: domain.ActionDelete, TargetID: "tb-9", Status: domain.OutcomeNotFound, Reason: "a|b"},
		})
		assert.Contains(t, md, "Applied 1 of 2")
		assert.Contains(t, md, "| 1 | delete | tb-9 | not_found | a\\|b |")
		assert.NotContains(t, md, "| 0 |")
	})
}

func TestRenderers(t *testing.T) {
	out, err := Plain("**hi**")
	require.NoError(t, err)
	assert.Equal(t, "**hi**\n", out)

	render := NewRenderer(80)
	out, err = render("# Title")
	require.NoError(t, err)
	assert.Contains(t, out, "Title")
}

func TestPrintBanner(t *testing.T) {
	var buf bytes.Buffer
	PrintBanner(&buf, "v1.2.3")
	assert.True(t, strings.Contains(buf.String(), "canvas editor v1.2.3"))
}
