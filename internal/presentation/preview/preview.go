// Package preview rasterizes a canvas context to PNG.
//
// Text is set in the Go font family regardless of the element's fontFamily;
// size, color, weight, slant and underline are honoured.
package preview

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/aretw0/easel/internal/runtime"
	"github.com/aretw0/easel/pkg/domain"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gobolditalic"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

// ContentType is the MIME type Render produces.
const ContentType = "image/png"

type fontSet struct {
	regular, bold, italic, boldItalic *opentype.Font
}

func (f *fontSet) pick(s domain.Style) *opentype.Font {
	switch {
	case s.Bold && s.Italic:
		return f.boldItalic
	case s.Bold:
		return f.bold
	case s.Italic:
		return f.italic
	}
	return f.regular
}

var loadFonts = sync.OnceValues(func() (*fontSet, error) {
	parse := func(name string, data []byte) (*opentype.Font, error) {
		f, err := opentype.Parse(data)
		if err != nil {
			return nil, fmt.Errorf("preview: failed to parse %s: %w", name, err)
		}
		return f, nil
	}
	var (
		set fontSet
		err error
	)
	if set.regular, err = parse("goregular", goregular.TTF); err != nil {
		return nil, err
	}
	if set.bold, err = parse("gobold", gobold.TTF); err != nil {
		return nil, err
	}
	if set.italic, err = parse("goitalic", goitalic.TTF); err != nil {
		return nil, err
	}
	if set.boldItalic, err = parse("gobolditalic", gobolditalic.TTF); err != nil {
		return nil, err
	}
	return &set, nil
})

// Image draws every element, in paint order, on a white canvas.
// Positions are the top-left corner of the text box.
func Image(cc runtime.CanvasContext) (*image.RGBA, error) {
	fonts, err := loadFonts()
	if err != nil {
		return nil, err
	}

	img := image.NewRGBA(image.Rect(0, 0, cc.CanvasDimensions.Width, cc.CanvasDimensions.Height))
	draw.Draw(img, img.Bounds(), image.White, image.Point{}, draw.Src)

	for _, el := range cc.Elements {
		if err := drawElement(img, fonts, el); err != nil {
			return nil, fmt.Errorf("preview: element %s: %w", el.ID, err)
		}
	}
	return img, nil
}

// Render encodes the canvas as PNG to w.
func Render(w io.Writer, cc runtime.CanvasContext) error {
	img, err := Image(cc)
	if err != nil {
		return err
	}
	return png.Encode(w, img)
}

func drawElement(dst draw.Image, fonts *fontSet, el runtime.ContextElement) error {
	style := el.Style.WithDefaults()
	face, err := opentype.NewFace(fonts.pick(style), &opentype.FaceOptions{
		Size:    float64(style.FontSize),
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return err
	}
	defer func() {
		_ = face.Close()
	}()

	col := ParseColor(style.Color)
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(col),
		Face: face,
	}

	metrics := face.Metrics()
	baseline := fixed.I(el.Position.Y) + metrics.Ascent
	thickness := max(1, style.FontSize/14)

	for _, line := range strings.Split(el.Content, "\n") {
		d.Dot = fixed.Point26_6{X: fixed.I(el.Position.X), Y: baseline}
		width := d.MeasureString(line).Ceil()
		d.DrawString(line)

		if style.Underline && width > 0 {
			y := baseline.Ceil() + thickness + 1
			rect := image.Rect(el.Position.X, y, el.Position.X+width, y+thickness)
			draw.Draw(dst, rect, image.NewUniform(col), image.Point{}, draw.Over)
		}
		baseline += metrics.Height
	}
	return nil
}

// ParseColor reads "#rgb" and "#rrggbb". Anything else yields the default text color.
func ParseColor(s string) color.RGBA {
	fallback := color.RGBA{R: 0x1f, G: 0x29, B: 0x37, A: 0xff}

	hex := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) != 6 {
		return fallback
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return fallback
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}
}
