package overlay

import (
	"image"
	"image/color"
	"math"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
)

var (
	discColor      = color.NRGBA{A: 153}
	innerDiscColor = color.NRGBA{R: 50, G: 50, B: 50, A: 204}
	tickColor      = color.White
	northColor     = color.NRGBA{R: 0x00, G: 0xD9, B: 0xFF, A: 0xFF}
	southColor     = color.NRGBA{R: 0x66, G: 0x66, B: 0x66, A: 0xFF}
)

// drawCompass draws a rosette of the given size with its top-left corner at
// (x, y). The needle is rotated clockwise by heading degrees.
func drawCompass(dst draw.Image, heading, x, y, size float64) {
	cx, cy := x+size/2, y+size/2
	radius := size/2 - 5

	fill(dst, circle{cx, cy, size / 2}, discColor)
	fill(dst, circle{cx, cy, radius}, innerDiscColor)

	for i := 0; i < 4; i++ {
		angle := float64(i)*math.Pi/2 - math.Pi/2
		fill(dst, segment{
			x1: cx + math.Cos(angle)*(radius-10), y1: cy + math.Sin(angle)*(radius-10),
			x2: cx + math.Cos(angle)*radius, y2: cy + math.Sin(angle)*radius,
			width: 2,
		}, tickColor)
	}

	face := basicfont.Face7x13
	labelW := font.MeasureString(face, "N").Ceil()
	m := face.Metrics()
	baseline := int(cy-radius+15) + (m.Ascent.Ceil()-m.Descent.Ceil())/2
	drawString(dst, face, tickColor, int(cx)-labelW/2, baseline, "N")

	theta := heading * math.Pi / 180
	rotate := func(px, py float64) (float64, float64) {
		return cx + px*math.Cos(theta) - py*math.Sin(theta), cy + px*math.Sin(theta) + py*math.Cos(theta)
	}

	nx, ny := rotate(0, -radius+15)
	lx, ly := rotate(-6, 0)
	rx, ry := rotate(6, 0)
	fill(dst, triangle{nx, ny, lx, ly, rx, ry}, northColor)

	sx, sy := rotate(0, radius-15)
	lx, ly = rotate(-4, 0)
	rx, ry = rotate(4, 0)
	fill(dst, triangle{sx, sy, lx, ly, rx, ry}, southColor)
}

// shape is an alpha mask evaluated at pixel centres.
type shape interface {
	contains(x, y float64) bool
	rect() image.Rectangle
}

type mask struct{ s shape }

func (m mask) ColorModel() color.Model { return color.AlphaModel }
func (m mask) Bounds() image.Rectangle { return m.s.rect() }
func (m mask) At(x, y int) color.Color {
	if m.s.contains(float64(x)+0.5, float64(y)+0.5) {
		return color.Alpha{A: 0xFF}
	}
	return color.Alpha{}
}

func fill(dst draw.Image, s shape, c color.Color) {
	r := s.rect().Intersect(dst.Bounds())
	if r.Empty() {
		return
	}
	draw.DrawMask(dst, r, image.NewUniform(c), image.Point{}, mask{s}, r.Min, draw.Over)
}

func boundsOf(minX, minY, maxX, maxY float64) image.Rectangle {
	return image.Rect(int(math.Floor(minX)), int(math.Floor(minY)), int(math.Ceil(maxX))+1, int(math.Ceil(maxY))+1)
}

type circle struct{ cx, cy, r float64 }

func (c circle) contains(x, y float64) bool {
	dx, dy := x-c.cx, y-c.cy
	return dx*dx+dy*dy <= c.r*c.r
}

func (c circle) rect() image.Rectangle {
	return boundsOf(c.cx-c.r, c.cy-c.r, c.cx+c.r, c.cy+c.r)
}

type triangle struct{ x1, y1, x2, y2, x3, y3 float64 }

func (t triangle) contains(x, y float64) bool {
	d1 := cross(x, y, t.x1, t.y1, t.x2, t.y2)
	d2 := cross(x, y, t.x2, t.y2, t.x3, t.y3)
	d3 := cross(x, y, t.x3, t.y3, t.x1, t.y1)
	neg := d1 < 0 || d2 < 0 || d3 < 0
	pos := d1 > 0 || d2 > 0 || d3 > 0
	return !(neg && pos)
}

func (t triangle) rect() image.Rectangle {
	return boundsOf(
		math.Min(t.x1, math.Min(t.x2, t.x3)), math.Min(t.y1, math.Min(t.y2, t.y3)),
		math.Max(t.x1, math.Max(t.x2, t.x3)), math.Max(t.y1, math.Max(t.y2, t.y3)),
	)
}

func cross(px, py, ax, ay, bx, by float64) float64 {
	return (px-bx)*(ay-by) - (ax-bx)*(py-by)
}

type segment struct{ x1, y1, x2, y2, width float64 }

func (s segment) contains(x, y float64) bool {
	dx, dy := s.x2-s.x1, s.y2-s.y1
	lenSq := dx*dx + dy*dy
	t := 0.0
	if lenSq > 0 {
		t = math.Max(0, math.Min(1, ((x-s.x1)*dx+(y-s.y1)*dy)/lenSq))
	}
	px, py := s.x1+t*dx, s.y1+t*dy
	half := s.width / 2
	return (x-px)*(x-px)+(y-py)*(y-py) <= half*half
}

func (s segment) rect() image.Rectangle {
	half := s.width / 2
	return boundsOf(
		math.Min(s.x1, s.x2)-half, math.Min(s.y1, s.y2)-half,
		math.Max(s.x1, s.x2)+half, math.Max(s.y1, s.y2)+half,
	)
}
