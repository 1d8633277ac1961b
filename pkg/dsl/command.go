package dsl

import "github.com/aretw0/easel/pkg/domain"

// CommandBuilder provides a fluent API for configuring one command.
// Setters that do not apply to the command's action are ignored by the
// interpreter, not by the builder.
type CommandBuilder struct {
	action   domain.Action
	target   string
	position map[string]any
	delta    map[string]any
	content  *string
	style    map[string]any
}

// At sets the absolute position. Out-of-bounds values are clamped on apply.
func (c *CommandBuilder) At(x, y int) *CommandBuilder {
	c.position = map[string]any{"x": x, "y": y}
	return c
}

// AtX sets only the horizontal position.
func (c *CommandBuilder) AtX(x int) *CommandBuilder {
	if c.position == nil {
		c.position = map[string]any{}
	}
	c.position["x"] = x
	return c
}

// AtY sets only the vertical position.
func (c *CommandBuilder) AtY(y int) *CommandBuilder {
	if c.position == nil {
		c.position = map[string]any{}
	}
	c.position["y"] = y
	return c
}

// By sets a relative offset for move commands.
func (c *CommandBuilder) By(dx, dy int) *CommandBuilder {
	c.delta = map[string]any{"dx": dx, "dy": dy}
	return c
}

// Content sets the text of the element.
func (c *CommandBuilder) Content(s string) *CommandBuilder {
	c.content = &s
	return c
}

// FontSize sets the font size in pixels.
func (c *CommandBuilder) FontSize(n int) *CommandBuilder {
	return c.setStyle("fontSize", n)
}

// Font sets the font family.
func (c *CommandBuilder) Font(family string) *CommandBuilder {
	return c.setStyle("fontFamily", family)
}

// Color sets the text color, typically a hex string.
func (c *CommandBuilder) Color(color string) *CommandBuilder {
	return c.setStyle("color", color)
}

// Bold turns bold on.
func (c *CommandBuilder) Bold() *CommandBuilder {
	return c.setStyle("bold", true)
}

// Italic turns italic on.
func (c *CommandBuilder) Italic() *CommandBuilder {
	return c.setStyle("italic", true)
}

// Underline turns underline on.
func (c *CommandBuilder) Underline() *CommandBuilder {
	return c.setStyle("underline", true)
}

// Plain turns bold, italic and underline off.
func (c *CommandBuilder) Plain() *CommandBuilder {
	c.setStyle("bold", false)
	c.setStyle("italic", false)
	return c.setStyle("underline", false)
}

func (c *CommandBuilder) setStyle(key string, v any) *CommandBuilder {
	if c.style == nil {
		c.style = map[string]any{}
	}
	c.style[key] = v
	return c
}

func (c *CommandBuilder) raw() domain.RawCommand {
	out := domain.RawCommand{"action": string(c.action)}
	if c.action == domain.ActionCreate {
		out["type"] = "text"
	}
	if c.target != "" {
		out["targetId"] = c.target
	}

	props := map[string]any{}
	if c.position != nil {
		props["position"] = c.position
	}
	if c.delta != nil {
		props["delta"] = c.delta
	}
	if c.content != nil {
		props["content"] = *c.content
	}
	if c.style != nil {
		props["style"] = c.style
	}
	if len(props) > 0 {
		out["properties"] = props
	}
	return out
}
