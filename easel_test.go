package easel_test

import (
	"context"
	"errors"
	"testing"

	"github.com/aretw0/easel"
	"github.com/aretw0/easel/internal/runtime"
	"github.com/aretw0/easel/internal/testutils"
	"github.com/aretw0/easel/pkg/adapters/memory"
	"github.com/aretw0/easel/pkg/domain"
	"github.com/aretw0/easel/pkg/orchestrator"
	"github.com/aretw0/easel/pkg/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEditor(t *testing.T, reply string) (*easel.Editor, *testutils.StubGenerator, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	gen := testutils.NewStubGenerator(reply)
	n := 0
	ed := easel.New(
		session.NewManager(store),
		orchestrator.New(gen, orchestrator.WithHistory(memory.NewHistory())),
		easel.WithKeyStore(gen),
		easel.WithIDGenerator(func() string { n++; return "tb-" + string(rune('0'+n)) }),
	)
	return ed, gen, store
}

func TestEditor_Apply(t *testing.T) {
	ed, _, _ := newEditor(t, "")
	ctx := context.Background()

	res, err := ed.Apply(ctx, "s1", []any{
		map[string]any{"action": "create", "properties": map[string]any{"content": "Hello", "position": map[string]any{"x": 10, "y": 20}}},
		map[string]any{"action": "delete", "targetId": "nope"},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Report.Applied())
	assert.Equal(t, domain.OutcomeNotFound, res.Report.Outcomes[1].Status)
	require.Len(t, res.Elements, 1)
	assert.Equal(t, "tb-1", res.Elements[0].ID)

	// Other sessions are untouched.
	other, err := ed.Context(ctx, "s2")
	require.NoError(t, err)
	assert.Empty(t, other.Elements)
}

func TestEditor_SaveLoadClear(t *testing.T) {
	ed, _, store := newEditor(t, "")
	ctx := context.Background()

	el := domain.TextElement{ID: "a", X: 1, Y: 2, Content: "x", Style: domain.DefaultStyle()}
	snap, err := ed.Save(ctx, "", []domain.TextElement{el}, map[string]any{"title": "deck"})
	require.NoError(t, err)
	assert.False(t, snap.UpdatedAt.IsZero())

	stored, err := store.Load(ctx, session.DefaultSessionID)
	require.NoError(t, err)
	assert.Equal(t, []domain.TextElement{el}, stored.Elements)

	loaded, err := ed.Load(ctx, session.DefaultSessionID)
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, "deck", loaded.Meta["title"])

	require.NoError(t, ed.Clear(ctx, ""))
	loaded, err = ed.Load(ctx, "")
	require.NoError(t, err)
	assert.Nil(t, loaded)

	cc, err := ed.Context(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, cc.Elements)
}

func TestEditor_SaveRejectsDuplicates(t *testing.T) {
	ed, _, _ := newEditor(t, "")
	el := domain.TextElement{ID: "a", Style: domain.DefaultStyle()}

	_, err := ed.Save(context.Background(), "s", []domain.TextElement{el, el}, nil)
	assert.ErrorIs(t, err, domain.ErrDuplicateElement)
}

func TestEditor_ChatApplies(t *testing.T) {
	reply := `{"message":"Added a title","commands":[{"action":"create","properties":{"content":"Title","position":{"x":700,"y":40}}}]}`
	ed, gen, _ := newEditor(t, reply)
	ctx := context.Background()

	res, err := ed.Chat(ctx, easel.ChatRequest{SessionID: "s", Instruction: "add a title", Apply: true})
	require.NoError(t, err)
	assert.Equal(t, "Added a title", res.Message)
	require.NotNil(t, res.Report)
	assert.Equal(t, 1, res.Report.Applied())
	require.Len(t, res.Elements, 1)
	assert.Equal(t, 640, res.Elements[0].X)

	// The session's own document was serialized as context.
	prompt := gen.LastPrompt()
	require.Len(t, prompt, 3)
	assert.Contains(t, prompt[1].Content, `"canvasDimensions"`)

	history, err := ed.History(ctx, "s")
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, domain.RoleUser, history[0].Role)
	assert.Equal(t, domain.RoleAssistant, history[1].Role)

	require.NoError(t, ed.ClearHistory(ctx, "s"))
	history, err = ed.History(ctx, "s")
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestEditor_ChatWithoutApply(t *testing.T) {
	reply := `{"message":"ok","commands":[{"action":"create","properties":{"content":"x"}}]}`
	ed, gen, _ := newEditor(t, reply)
	ctx := context.Background()

	res, err := ed.Chat(ctx, easel.ChatRequest{
		Instruction:   "add",
		CanvasContext: map[string]any{"elements": []any{}, "marker": "client"},
	})
	require.NoError(t, err)
	assert.Nil(t, res.Report)
	assert.Len(t, res.Commands, 1)
	assert.Contains(t, gen.LastPrompt()[1].Content, `"marker": "client"`)

	cc, err := ed.Context(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, cc.Elements)
}

func TestEditor_ChatErrors(t *testing.T) {
	ed, gen, _ := newEditor(t, "")
	ctx := context.Background()

	_, err := ed.Chat(ctx, easel.ChatRequest{Instruction: "   "})
	assert.ErrorIs(t, err, orchestrator.ErrEmptyInstruction)

	gen.Fail(errors.New("boom"))
	_, err = ed.Chat(ctx, easel.ChatRequest{Instruction: "hi"})
	assert.ErrorIs(t, err, orchestrator.ErrUpstream)

	ed.SetAPIKey("")
	assert.False(t, ed.Configured())
	_, err = ed.Chat(ctx, easel.ChatRequest{Instruction: "hi"})
	assert.ErrorIs(t, err, orchestrator.ErrNotConfigured)

	ed.SetAPIKey("sk-new")
	assert.True(t, ed.Configured())
}

func TestEditor_ChangeListener(t *testing.T) {
	var got []string
	ed := easel.New(
		session.NewManager(memory.NewStore()),
		orchestrator.New(&testutils.StubGenerator{}),
		easel.WithChangeListener(func(id string, cc runtime.CanvasContext) {
			got = append(got, id)
		}),
	)
	ctx := context.Background()

	_, err := ed.Apply(ctx, "s", []any{map[string]any{"action": "delete", "targetId": "x"}})
	require.NoError(t, err)
	assert.Empty(t, got, "a batch that applied nothing is not a change")

	_, err = ed.Apply(ctx, "s", []any{map[string]any{"action": "create", "properties": map[string]any{"content": "x"}}})
	require.NoError(t, err)
	require.NoError(t, ed.Clear(ctx, "s"))
	assert.Equal(t, []string{"s", "s"}, got)
}

func TestEditor_NoKeyStore(t *testing.T) {
	ed := easel.New(session.NewManager(memory.NewStore()), orchestrator.New(&testutils.StubGenerator{}))
	ed.SetAPIKey("ignored")
	assert.False(t, ed.Configured())
	assert.Equal(t, domain.DefaultCanvas, ed.Canvas())
}
