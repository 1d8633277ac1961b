package runtime

import (
	"errors"
	"fmt"

	"github.com/aretw0/easel/pkg/domain"
)

var errNoIDGenerator = errors.New("no id generator")

func (i *Interpreter) create(doc *domain.Document, c domain.CreateCommand, ids IDGenerator) (string, error) {
	if ids == nil {
		return "", errNoIDGenerator
	}

	pos := domain.DefaultPosition
	if c.Position != nil {
		if c.Position.X != nil {
			pos.X = *c.Position.X
		}
		if c.Position.Y != nil {
			pos.Y = *c.Position.Y
		}
	}

	el := domain.TextElement{
		ID:    ids(),
		X:     i.canvas.ClampX(pos.X),
		Y:     i.canvas.ClampY(pos.Y),
		Style: domain.DefaultStyle().Merge(c.Style).WithDefaults(),
	}
	if c.Content != nil {
		el.Content = *c.Content
	}

	if err := doc.Append(el); err != nil {
		return "", fmt.Errorf("create: %w", err)
	}
	return el.ID, nil
}

func (i *Interpreter) modify(doc *domain.Document, c domain.ModifyCommand) (string, error) {
	el, ok := doc.Find(c.TargetID)
	if !ok {
		return "", fmt.Errorf("%s %q: %w", c.Action(), c.TargetID, domain.ErrElementNotFound)
	}

	if c.Content != nil {
		el.Content = *c.Content
	}
	i.place(el, c.Position)
	el.Style = el.Style.Merge(c.Style)
	return el.ID, nil
}

func (i *Interpreter) move(doc *domain.Document, c domain.MoveCommand) (string, error) {
	el, ok := doc.Find(c.TargetID)
	if !ok {
		return "", fmt.Errorf("move %q: %w", c.TargetID, domain.ErrElementNotFound)
	}

	i.place(el, c.Position)
	if c.Delta != nil {
		el.X = i.canvas.ClampX(el.X + c.Delta.DX)
		el.Y = i.canvas.ClampY(el.Y + c.Delta.DY)
	}
	return el.ID, nil
}

func (i *Interpreter) remove(doc *domain.Document, c domain.DeleteCommand) (string, error) {
	if err := doc.Remove(c.TargetID); err != nil {
		return "", fmt.Errorf("delete: %w", err)
	}
	return c.TargetID, nil
}

// place sets each axis present in p, clamped independently.
func (i *Interpreter) place(el *domain.TextElement, p *domain.PointPatch) {
	if p == nil {
		return
	}
	if p.X != nil {
		el.X = i.canvas.ClampX(*p.X)
	}
	if p.Y != nil {
		el.Y = i.canvas.ClampY(*p.Y)
	}
}
