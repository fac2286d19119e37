package display

import (
	"image"
	"unicode/utf8"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// Cell size of the bitmap font used for image and window output.
const (
	CellWidth  = 7
	CellHeight = 13
)

// glyphCanvas draws character frames into a grayscale image, one font cell
// per frame cell.
type glyphCanvas struct {
	img    *image.Gray
	drawer font.Drawer
	width  int
	height int
	ascent int
}

func newGlyphCanvas(width, height int) *glyphCanvas {
	face := basicfont.Face7x13
	img := image.NewGray(image.Rect(0, 0, width*CellWidth, height*CellHeight))
	return &glyphCanvas{
		img:    img,
		drawer: font.Drawer{Dst: img, Src: image.White, Face: face},
		width:  width,
		height: height,
		ascent: face.Metrics().Ascent.Ceil(),
	}
}

// draw renders frame, clearing the previous contents first. Blank cells
// and runes the face lacks stay black.
func (c *glyphCanvas) draw(frame []rune) *image.Gray {
	for i := range c.img.Pix {
		c.img.Pix[i] = 0
	}
	var buf [4]byte
	for y := 0; y < c.height; y++ {
		for x := 0; x < c.width; x++ {
			r := frame[y*c.width+x]
			if r == ' ' || r == 0 {
				continue
			}
			c.drawer.Dot = fixed.P(x*CellWidth, y*CellHeight+c.ascent)
			n := utf8.EncodeRune(buf[:], r)
			c.drawer.DrawBytes(buf[:n])
		}
	}
	return c.img
}
