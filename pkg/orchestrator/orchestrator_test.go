package orchestrator_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/aretw0/easel/pkg/adapters/memory"
	"github.com/aretw0/easel/pkg/domain"
	"github.com/aretw0/easel/pkg/orchestrator"
	"github.com/aretw0/easel/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGenerator struct {
	reply      string
	err        error
	configured bool
	calls      []ports.Completion
}

func (f *fakeGenerator) Complete(_ context.Context, req ports.Completion) (*ports.CompletionResult, error) {
	f.calls = append(f.calls, req)
	if f.err != nil {
		return nil, f.err
	}
	return &ports.CompletionResult{Content: f.reply}, nil
}

func (f *fakeGenerator) Configured() bool { return f.configured }

var fixed = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func setup(reply string) (*orchestrator.Orchestrator, *fakeGenerator, *memory.History) {
	gen := &fakeGenerator{reply: reply, configured: true}
	history := memory.NewHistory()
	n := 0
	o := orchestrator.New(gen,
		orchestrator.WithHistory(history),
		orchestrator.WithClock(func() time.Time { return fixed }),
		orchestrator.WithMessageIDs(func() string { n++; return "msg-" + string(rune('0'+n)) }),
	)
	return o, gen, history
}

func TestRequestEdit_BuildsThreeMessages(t *testing.T) {
	o, gen, _ := setup(`{"message":"ok","commands":[]}`)
	canvas := map[string]any{"canvasDimensions": map[string]any{"width": 720, "height": 540}, "elements": []any{}}

	_, err := o.RequestEdit(context.Background(), orchestrator.EditRequest{
		SessionID:   "s",
		Instruction: "add a title",
		Context:     canvas,
	})
	require.NoError(t, err)

	require.Len(t, gen.calls, 1)
	call := gen.calls[0]
	assert.Equal(t, "gpt-4", call.Model)
	assert.Equal(t, 0.3, call.Temperature)
	assert.Equal(t, 2048, call.MaxTokens)
	require.Len(t, call.Messages, 3)
	assert.Equal(t, "system", call.Messages[0].Role)
	assert.Equal(t, orchestrator.EditSystemPrompt, call.Messages[0].Content)
	assert.Equal(t, "user", call.Messages[1].Role)
	assert.True(t, strings.HasPrefix(call.Messages[1].Content, "Current canvas state:\n{\n  \"canvasDimensions\""))
	assert.Equal(t, "add a title", call.Messages[2].Content)
}

func TestRequestEdit_ModelOverride(t *testing.T) {
	o, gen, _ := setup(`{}`)
	_, err := o.RequestEdit(context.Background(), orchestrator.EditRequest{Instruction: "x", Model: "gpt-4o"})
	require.NoError(t, err)
	assert.Equal(t, "gpt-4o", gen.calls[0].Model)
}

func TestRequestEdit_ParsesFencedReply(t *testing.T) {
	o, _, _ := setup("```json\n{\"message\":\"Added\",\"commands\":[{\"action\":\"create\"}]}\n```")

	reply, err := o.RequestEdit(context.Background(), orchestrator.EditRequest{Instruction: "add"})
	require.NoError(t, err)
	assert.Equal(t, "Added", reply.Message)
	assert.Len(t, reply.Commands, 1)
}

func TestRequestEdit_RecordsHistory(t *testing.T) {
	o, _, history := setup(`{"message":"Done","commands":[{"action":"delete","targetId":"a"}]}`)
	ctx := context.Background()

	_, err := o.RequestEdit(ctx, orchestrator.EditRequest{SessionID: "s", Instruction: "remove it"})
	require.NoError(t, err)

	msgs, err := history.List(ctx, "s")
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, domain.ChatMessage{ID: "msg-1", Role: domain.RoleUser, Content: "remove it", Timestamp: fixed}, msgs[0])
	assert.Equal(t, domain.RoleAssistant, msgs[1].Role)
	assert.Equal(t, "Done", msgs[1].Content)
	assert.Len(t, msgs[1].Commands, 1)

	got, err := o.History(ctx, "s")
	require.NoError(t, err)
	assert.Len(t, got, 2)
	require.NoError(t, o.ClearHistory(ctx, "s"))
	got, err = o.History(ctx, "s")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestRequestEdit_EmptyInstruction(t *testing.T) {
	o, gen, history := setup(`{}`)
	for _, in := range []string{"", "   \n\t"} {
		_, err := o.RequestEdit(context.Background(), orchestrator.EditRequest{SessionID: "s", Instruction: in})
		assert.ErrorIs(t, err, orchestrator.ErrEmptyInstruction)
	}
	assert.Empty(t, gen.calls)
	msgs, _ := history.List(context.Background(), "s")
	assert.Empty(t, msgs)
}

func TestRequestEdit_NotConfigured(t *testing.T) {
	o, gen, history := setup(`{}`)
	gen.configured = false

	_, err := o.RequestEdit(context.Background(), orchestrator.EditRequest{SessionID: "s", Instruction: "x"})
	assert.ErrorIs(t, err, orchestrator.ErrNotConfigured)
	assert.Empty(t, gen.calls)
	msgs, _ := history.List(context.Background(), "s")
	assert.Empty(t, msgs, "nothing recorded before the key check")
}

func TestRequestEdit_UpstreamFailure(t *testing.T) {
	o, gen, history := setup("")
	gen.err = errors.New("rate limited")

	_, err := o.RequestEdit(context.Background(), orchestrator.EditRequest{SessionID: "s", Instruction: "x"})
	assert.ErrorIs(t, err, orchestrator.ErrUpstream)
	assert.ErrorContains(t, err, "rate limited")

	msgs, _ := history.List(context.Background(), "s")
	require.Len(t, msgs, 1, "user message is kept, no assistant message")
	assert.Equal(t, domain.RoleUser, msgs[0].Role)
}

func TestRequestEdit_SanitizesInstruction(t *testing.T) {
	o, gen, _ := setup(`{}`)

	_, err := o.RequestEdit(context.Background(), orchestrator.EditRequest{Instruction: "make it \x1b[31mred\x07"})
	require.NoError(t, err)
	assert.Equal(t, "make it [31mred", gen.calls[0].Messages[2].Content)

	big := orchestrator.New(gen, orchestrator.WithMaxInputSize(8))
	_, err = big.RequestEdit(context.Background(), orchestrator.EditRequest{Instruction: "far too long"})
	assert.ErrorIs(t, err, orchestrator.ErrInstructionTooLong)
}

func TestRequestEdit_WithoutHistory(t *testing.T) {
	gen := &fakeGenerator{reply: `{"message":"m"}`, configured: true}
	o := orchestrator.New(gen)

	reply, err := o.RequestEdit(context.Background(), orchestrator.EditRequest{Instruction: "x"})
	require.NoError(t, err)
	assert.Equal(t, "m", reply.Message)

	msgs, err := o.History(context.Background(), "default")
	assert.NoError(t, err)
	assert.Nil(t, msgs)
}

func TestTransformSlide(t *testing.T) {
	o, gen, _ := setup("```json\n{\"html\":\"<h1>Hi</h1>\",\"css\":\"h1{color:red}\"}\n```")

	code, err := o.TransformSlide(context.Background(), orchestrator.SlideRequest{
		HTML: "<p>old</p>", CSS: "", Prompt: "make a red title",
	})
	require.NoError(t, err)
	assert.Equal(t, &domain.SlideCode{HTML: "<h1>Hi</h1>", CSS: "h1{color:red}"}, code)

	call := gen.calls[0]
	assert.Equal(t, "gpt-4.1", call.Model)
	assert.Equal(t, 0.2, call.Temperature)
	require.Len(t, call.Messages, 2)
	assert.Equal(t, orchestrator.SlideSystemPrompt, call.Messages[0].Content)
	assert.JSONEq(t, `{"currentHtml":"<p>old</p>","currentCss":"","instruction":"make a red title"}`, call.Messages[1].Content)
}

func TestTransformSlide_Errors(t *testing.T) {
	o, gen, _ := setup(`{"html":"x"}`)
	ctx := context.Background()

	_, err := o.TransformSlide(ctx, orchestrator.SlideRequest{Prompt: "  "})
	assert.ErrorIs(t, err, orchestrator.ErrEmptyInstruction)

	_, err = o.TransformSlide(ctx, orchestrator.SlideRequest{Prompt: "p"})
	assert.ErrorIs(t, err, orchestrator.ErrMalformedResponse)

	gen.err = errors.New("boom")
	_, err = o.TransformSlide(ctx, orchestrator.SlideRequest{Prompt: "p"})
	assert.ErrorIs(t, err, orchestrator.ErrUpstream)

	gen.configured = false
	_, err = o.TransformSlide(ctx, orchestrator.SlideRequest{Prompt: "p"})
	assert.ErrorIs(t, err, orchestrator.ErrNotConfigured)
}
