package dsl

import "github.com/aretw0/easel/pkg/domain"

// Builder accumulates a batch of commands in insertion order.
type Builder struct {
	commands []*CommandBuilder
}

// New creates an empty batch.
func New() *Builder {
	return &Builder{}
}

// Create adds a create command for a text element with the given content.
func (b *Builder) Create(content string) *CommandBuilder {
	return b.add(domain.ActionCreate, "").Content(content)
}

// Modify adds a modify command for the element with the given id.
func (b *Builder) Modify(id string) *CommandBuilder {
	return b.add(domain.ActionModify, id)
}

// Move adds a move command for the element with the given id.
func (b *Builder) Move(id string) *CommandBuilder {
	return b.add(domain.ActionMove, id)
}

// Delete adds a delete command for the element with the given id.
func (b *Builder) Delete(id string) *CommandBuilder {
	return b.add(domain.ActionDelete, id)
}

// Len returns the number of commands in the batch.
func (b *Builder) Len() int {
	return len(b.commands)
}

// Build returns the batch in wire form, ready for Editor.Apply.
func (b *Builder) Build() []any {
	out := make([]any, 0, len(b.commands))
	for _, c := range b.commands {
		out = append(out, c.raw())
	}
	return out
}

func (b *Builder) add(action domain.Action, target string) *CommandBuilder {
	c := &CommandBuilder{action: action, target: target}
	b.commands = append(b.commands, c)
	return c
}
