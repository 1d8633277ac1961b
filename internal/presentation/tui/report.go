package tui

import (
	"fmt"
	"strings"

	"github.com/aretw0/easel/pkg/domain"
)

// ReportMarkdown summarizes a batch as a markdown table of skipped commands.
func ReportMarkdown(applied int, outcomes []domain.Outcome) string {
	var b strings.Builder
	fmt.Fprintf(&b, "**Applied %d of %d commands.**\n", applied, len(outcomes))

	var skipped []domain.Outcome
	for _, o := range outcomes {
		if !o.Applied() {
			skipped = append(skipped, o)
		}
	}
	if len(skipped) == 0 {
		return b.String()
	}

	b.WriteString("\n| # | action | target | status | reason |\n|---|---|---|---|---|\n")
	for _, o := range skipped {
		fmt.Fprintf(&b, "| %d | %s | %s | %s | %s |\n",
			o.Index, cell(string(o.Action)), cell(o.TargetID), o.Status, cell(o.Reason))
	}
	return b.String()
}

func cell(s string) string {
	if s == "" {
		return "-"
	}
	return strings.ReplaceAll(s, "|", "\\|")
}
