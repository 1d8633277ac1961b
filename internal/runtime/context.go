package runtime

import "github.com/aretw0/easel/pkg/domain"

// ElementTypeText is the only element kind the canvas has.
const ElementTypeText = "text"

// CanvasContext is the projection of a document handed to the generation
// service so it can reason about existing elements.
type CanvasContext struct {
	CanvasDimensions Dimensions       `json:"canvasDimensions"`
	Elements         []ContextElement `json:"elements"`
}

// Dimensions is the canvas size.
type Dimensions struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// ContextElement describes one element with a fully defaulted style.
type ContextElement struct {
	ID       string       `json:"id"`
	Type     string       `json:"type"`
	Content  string       `json:"content"`
	Position domain.Point `json:"position"`
	Style    domain.Style `json:"style"`
}

// Serialize projects the document into a CanvasContext.
// It is pure: it neither mutates the document nor depends on anything else.
func Serialize(doc *domain.Document, canvas domain.Canvas) CanvasContext {
	ctx := CanvasContext{
		CanvasDimensions: Dimensions{Width: canvas.Width, Height: canvas.Height},
		Elements:         []ContextElement{},
	}
	if doc == nil {
		return ctx
	}
	for _, el := range doc.Elements() {
		ctx.Elements = append(ctx.Elements, ContextElement{
			ID:       el.ID,
			Type:     ElementTypeText,
			Content:  el.Content,
			Position: el.Position(),
			Style:    el.Style.WithDefaults(),
		})
	}
	return ctx
}

// Serialize projects doc against the interpreter's canvas.
func (i *Interpreter) Serialize(doc *domain.Document) CanvasContext {
	return Serialize(doc, i.canvas)
}
