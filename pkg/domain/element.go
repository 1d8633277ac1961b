package domain

import "fmt"

// TextElement is one text box on the canvas.
// Its JSON form is flat, matching the browser's text box shape.
type TextElement struct {
	ID      string `json:"id"`
	X       int    `json:"x"`
	Y       int    `json:"y"`
	Content string `json:"content"`
	Style
}

// Position returns the element's top-left corner.
func (e TextElement) Position() Point {
	return Point{X: e.X, Y: e.Y}
}

// Document is the ordered collection of elements on a canvas.
// Insertion order is paint order. Ids are unique.
type Document struct {
	elements []TextElement
}

// NewDocument builds a document from existing elements.
func NewDocument(elements ...TextElement) (*Document, error) {
	d := &Document{}
	if err := d.Replace(elements); err != nil {
		return nil, err
	}
	return d, nil
}

// Len returns the number of elements.
func (d *Document) Len() int {
	return len(d.elements)
}

// Elements returns a copy of the elements in paint order.
func (d *Document) Elements() []TextElement {
	out := make([]TextElement, len(d.elements))
	copy(out, d.elements)
	return out
}

// Index returns the position of the element with the given id, or -1.
func (d *Document) Index(id string) int {
	for i := range d.elements {
		if d.elements[i].ID == id {
			return i
		}
	}
	return -1
}

// Find returns a pointer to the element with the given id for in-place mutation.
// The pointer is invalidated by Append, Remove, Replace and Clear.
func (d *Document) Find(id string) (*TextElement, bool) {
	i := d.Index(id)
	if i < 0 {
		return nil, false
	}
	return &d.elements[i], true
}

// Append adds an element at the end of the paint order.
func (d *Document) Append(e TextElement) error {
	if d.Index(e.ID) >= 0 {
		return fmt.Errorf("%w: %q", ErrDuplicateElement, e.ID)
	}
	d.elements = append(d.elements, e)
	return nil
}

// Remove deletes the element with the given id, preserving the order of the rest.
func (d *Document) Remove(id string) error {
	i := d.Index(id)
	if i < 0 {
		return fmt.Errorf("%w: %q", ErrElementNotFound, id)
	}
	d.elements = append(d.elements[:i], d.elements[i+1:]...)
	return nil
}

// Replace swaps the whole element set, rejecting duplicate ids.
// On error the document is left untouched.
func (d *Document) Replace(elements []TextElement) error {
	seen := make(map[string]struct{}, len(elements))
	for _, e := range elements {
		if _, dup := seen[e.ID]; dup {
			return fmt.Errorf("%w: %q", ErrDuplicateElement, e.ID)
		}
		seen[e.ID] = struct{}{}
	}
	d.elements = make([]TextElement, len(elements))
	copy(d.elements, elements)
	return nil
}

// Clear removes every element.
func (d *Document) Clear() {
	d.elements = nil
}
