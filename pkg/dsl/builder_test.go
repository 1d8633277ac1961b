package dsl_test

import (
	"testing"

	"github.com/aretw0/easel/internal/runtime"
	"github.com/aretw0/easel/pkg/domain"
	"github.com/aretw0/easel/pkg/dsl"
	"github.com/aretw0/easel/pkg/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuilder_WireShape(t *testing.T) {
	b := dsl.New()
	b.Create("Hello").At(10, 20).FontSize(24).Bold()
	b.Move("tb-1").By(5, -5)
	b.Delete("tb-2")

	got := b.Build()
	require.Len(t, got, 3)
	assert.Equal(t, 3, b.Len())

	assert.Equal(t, domain.RawCommand{
		"action": "create",
		"type":   "text",
		"properties": map[string]any{
			"position": map[string]any{"x": 10, "y": 20},
			"content":  "Hello",
			"style":    map[string]any{"fontSize": 24, "bold": true},
		},
	}, got[0])
	assert.Equal(t, domain.RawCommand{
		"action":     "move",
		"targetId":   "tb-1",
		"properties": map[string]any{"delta": map[string]any{"dx": 5, "dy": -5}},
	}, got[1])
	assert.Equal(t, domain.RawCommand{"action": "delete", "targetId": "tb-2"}, got[2])
}

func TestBuilder_Decodes(t *testing.T) {
	b := dsl.New()
	b.Create("Title").AtX(100).Font("Georgia").Color("#dc2626").Italic().Underline()
	b.Modify("tb-1").Content("Renamed").AtY(40).Plain()

	cmds, errs := schema.DecodeAll(b.Build())
	for _, err := range errs {
		require.NoError(t, err)
	}
	require.Len(t, cmds, 2)

	create, ok := cmds[0].(domain.CreateCommand)
	require.True(t, ok, "expected CreateCommand, got %T", cmds[0])
	assert.Equal(t, "Title", *create.Content)
	assert.Equal(t, 100, *create.Position.X)
	assert.Nil(t, create.Position.Y)
	assert.Equal(t, "Georgia", *create.Style.FontFamily)
	assert.True(t, *create.Style.Italic)

	mod, ok := cmds[1].(domain.ModifyCommand)
	require.True(t, ok, "expected ModifyCommand, got %T", cmds[1])
	assert.Equal(t, "tb-1", mod.Target())
	assert.False(t, *mod.Style.Bold)
	assert.False(t, *mod.Style.Underline)
}

func TestBuilder_AppliesThroughInterpreter(t *testing.T) {
	b := dsl.New()
	b.Create("Far away").At(5000, -3)

	in := runtime.NewInterpreter()
	doc, err := domain.NewDocument()
	require.NoError(t, err)
	report := in.Apply(doc, b.Build(), func() string { return "tb-1" })

	assert.Equal(t, 1, report.Applied())
	el, ok := doc.Find("tb-1")
	require.True(t, ok)
	assert.Equal(t, 640, el.X)
	assert.Equal(t, 0, el.Y)
}
