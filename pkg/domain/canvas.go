package domain

// Canvas describes the drawable area and the footprint reserved for each
// element when bounding its position.
type Canvas struct {
	Width      int `json:"width" yaml:"width"`
	Height     int `json:"height" yaml:"height"`
	AllowanceX int `json:"-" yaml:"allowance_x"`
	AllowanceY int `json:"-" yaml:"allowance_y"`
}

// DefaultCanvas is the 720x540 slide canvas with an 80x30 element allowance.
var DefaultCanvas = Canvas{
	Width:      720,
	Height:     540,
	AllowanceX: 80,
	AllowanceY: 30,
}

// DefaultPosition is where an element lands when no position is given.
var DefaultPosition = Point{X: 50, Y: 50}

// Point is an integer pixel position.
type Point struct {
	X int `json:"x" mapstructure:"x"`
	Y int `json:"y" mapstructure:"y"`
}

// MaxX is the largest x an element may take.
func (c Canvas) MaxX() int { return c.Width - c.AllowanceX }

// MaxY is the largest y an element may take.
func (c Canvas) MaxY() int { return c.Height - c.AllowanceY }

// ClampX bounds v to [0, MaxX].
func (c Canvas) ClampX(v int) int { return Clamp(v, 0, c.MaxX()) }

// ClampY bounds v to [0, MaxY].
func (c Canvas) ClampY(v int) int { return Clamp(v, 0, c.MaxY()) }

// Contains reports whether p is a valid element position.
func (c Canvas) Contains(p Point) bool {
	return p.X >= 0 && p.X <= c.MaxX() && p.Y >= 0 && p.Y <= c.MaxY()
}

// Clamp returns max(lo, min(v, hi)).
func Clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}
