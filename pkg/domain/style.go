package domain

// Style defaults applied whenever partial style data is accepted.
const (
	DefaultFontSize   = 14
	DefaultFontFamily = "Inter"
	DefaultColor      = "#1f2937"
)

// Style holds the typographic attributes of a text element.
type Style struct {
	FontSize   int    `json:"fontSize" mapstructure:"fontSize"`
	FontFamily string `json:"fontFamily" mapstructure:"fontFamily"`
	Color      string `json:"color" mapstructure:"color"`
	Bold       bool   `json:"bold" mapstructure:"bold"`
	Italic     bool   `json:"italic" mapstructure:"italic"`
	Underline  bool   `json:"underline" mapstructure:"underline"`
}

// StylePatch is a partial Style. A nil field means "leave unchanged".
type StylePatch struct {
	FontSize   *int    `json:"fontSize,omitempty" mapstructure:"fontSize"`
	FontFamily *string `json:"fontFamily,omitempty" mapstructure:"fontFamily"`
	Color      *string `json:"color,omitempty" mapstructure:"color"`
	Bold       *bool   `json:"bold,omitempty" mapstructure:"bold"`
	Italic     *bool   `json:"italic,omitempty" mapstructure:"italic"`
	Underline  *bool   `json:"underline,omitempty" mapstructure:"underline"`
}

// DefaultStyle returns the style every new element starts from.
func DefaultStyle() Style {
	return Style{
		FontSize:   DefaultFontSize,
		FontFamily: DefaultFontFamily,
		Color:      DefaultColor,
	}
}

// Merge overwrites every field present in the patch and returns the result.
// No defaulting happens here: absent fields keep the receiver's value.
func (s Style) Merge(p StylePatch) Style {
	if p.FontSize != nil {
		s.FontSize = *p.FontSize
	}
	if p.FontFamily != nil {
		s.FontFamily = *p.FontFamily
	}
	if p.Color != nil {
		s.Color = *p.Color
	}
	if p.Bold != nil {
		s.Bold = *p.Bold
	}
	if p.Italic != nil {
		s.Italic = *p.Italic
	}
	if p.Underline != nil {
		s.Underline = *p.Underline
	}
	return s
}

// WithDefaults fills zero-valued fields with the defaults.
// Boolean attributes already default to false.
func (s Style) WithDefaults() Style {
	if s.FontSize == 0 {
		s.FontSize = DefaultFontSize
	}
	if s.FontFamily == "" {
		s.FontFamily = DefaultFontFamily
	}
	if s.Color == "" {
		s.Color = DefaultColor
	}
	return s
}

// IsEmpty reports whether the patch carries no field at all.
func (p StylePatch) IsEmpty() bool {
	return p.FontSize == nil && p.FontFamily == nil && p.Color == nil &&
		p.Bold == nil && p.Italic == nil && p.Underline == nil
}
