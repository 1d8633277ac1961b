package domain_test

import (
	"encoding/json"
	"testing"

	"github.com/aretw0/easel/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ids(doc *domain.Document) []string {
	var out []string
	for _, el := range doc.Elements() {
		out = append(out, el.ID)
	}
	return out
}

func TestDocument_AppendRejectsDuplicates(t *testing.T) {
	doc, err := domain.NewDocument(domain.TextElement{ID: "a"})
	require.NoError(t, err)

	require.NoError(t, doc.Append(domain.TextElement{ID: "b"}))
	err = doc.Append(domain.TextElement{ID: "a"})
	assert.ErrorIs(t, err, domain.ErrDuplicateElement)
	assert.Equal(t, []string{"a", "b"}, ids(doc))
}

func TestDocument_Remove(t *testing.T) {
	doc, err := domain.NewDocument(
		domain.TextElement{ID: "a"},
		domain.TextElement{ID: "b"},
		domain.TextElement{ID: "c"},
	)
	require.NoError(t, err)

	require.NoError(t, doc.Remove("a"))
	assert.Equal(t, []string{"b", "c"}, ids(doc))
	assert.ErrorIs(t, doc.Remove("a"), domain.ErrElementNotFound)
	assert.Equal(t, -1, doc.Index("a"))
}

func TestDocument_ReplaceIsAtomic(t *testing.T) {
	doc, err := domain.NewDocument(domain.TextElement{ID: "keep"})
	require.NoError(t, err)

	err = doc.Replace([]domain.TextElement{{ID: "x"}, {ID: "x"}})
	assert.ErrorIs(t, err, domain.ErrDuplicateElement)
	assert.Equal(t, []string{"keep"}, ids(doc))

	_, err = domain.NewDocument(domain.TextElement{ID: "d"}, domain.TextElement{ID: "d"})
	assert.ErrorIs(t, err, domain.ErrDuplicateElement)
}

func TestDocument_ElementsIsACopy(t *testing.T) {
	doc, err := domain.NewDocument(domain.TextElement{ID: "a", Content: "orig"})
	require.NoError(t, err)

	els := doc.Elements()
	els[0].Content = "changed"
	assert.Equal(t, "orig", doc.Elements()[0].Content)

	el, ok := doc.Find("a")
	require.True(t, ok)
	el.Content = "in place"
	assert.Equal(t, "in place", doc.Elements()[0].Content)
}

func TestDocument_Clear(t *testing.T) {
	doc, err := domain.NewDocument(domain.TextElement{ID: "a"})
	require.NoError(t, err)
	doc.Clear()
	assert.Equal(t, 0, doc.Len())
	require.NoError(t, doc.Append(domain.TextElement{ID: "a"}))
}

func TestTextElement_FlatJSON(t *testing.T) {
	el := domain.TextElement{ID: "tb-1", X: 1, Y: 2, Content: "hi", Style: domain.DefaultStyle()}

	data, err := json.Marshal(el)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"tb-1","x":1,"y":2,"content":"hi","fontSize":14,"fontFamily":"Inter",
		"color":"#1f2937","bold":false,"italic":false,"underline":false}`, string(data))
}

func TestSnapshot_Clone(t *testing.T) {
	s := &domain.Snapshot{
		Elements: []domain.TextElement{{ID: "a"}},
		Meta:     map[string]any{"title": "deck"},
	}
	c := s.Clone()
	c.Elements[0].ID = "b"
	c.Meta["title"] = "other"

	assert.Equal(t, "a", s.Elements[0].ID)
	assert.Equal(t, "deck", s.Meta["title"])
	assert.Nil(t, (*domain.Snapshot)(nil).Clone())
}

func TestReport_Counts(t *testing.T) {
	r := domain.Report{Outcomes: []domain.Outcome{
		{Status: domain.OutcomeApplied},
		{Status: domain.OutcomeNotFound},
		{Status: domain.OutcomeApplied},
		{Status: domain.OutcomeInvalid},
	}}
	assert.Equal(t, 2, r.Applied())
	assert.Len(t, r.Skipped(), 2)
	assert.Equal(t, 1, r.Count(domain.OutcomeInvalid))
}

func TestAction_Known(t *testing.T) {
	for _, a := range []domain.Action{"create", "modify", "restyle", "resize", "move", "delete"} {
		assert.True(t, a.Known(), a)
	}
	assert.False(t, domain.Action("rotate").Known())
	assert.True(t, domain.ActionResize.IsModify())
	assert.False(t, domain.ActionMove.IsModify())
}

func TestSnapshot_JSONKeepsPostedShape(t *testing.T) {
	posted := `{"elements":[{"id":"a","x":10,"y":20,"content":"Hi"}],"title":"deck","slides":[1,2],"updatedAt":"2024-05-01T12:00:00Z"}`

	var snap domain.Snapshot
	require.NoError(t, json.Unmarshal([]byte(posted), &snap))
	require.Len(t, snap.Elements, 1)
	assert.Equal(t, "Hi", snap.Elements[0].Content)
	assert.Equal(t, "deck", snap.Meta["title"])
	assert.Equal(t, 2024, snap.UpdatedAt.Year())

	data, err := json.Marshal(&snap)
	require.NoError(t, err)

	var out map[string]any
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, "deck", out["title"])
	assert.Equal(t, []any{1.0, 2.0}, out["slides"])
	assert.Equal(t, "2024-05-01T12:00:00Z", out["updatedAt"])
	assert.NotContains(t, out, "meta")

	var again domain.Snapshot
	require.NoError(t, json.Unmarshal(data, &again))
	assert.Equal(t, snap, again)
}
