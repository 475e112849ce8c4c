// Package overlay stamps capture metadata onto site photos: a compass
// rosette in the top-left corner and a timestamp/location block in the
// bottom-right.
package overlay

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	_ "image/gif" // Register GIF decoder
	"image/jpeg"
	_ "image/png" // Register PNG decoder
	"math"
	"time"

	"SPX-VAL/internal/models"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/inconsolata"
	"golang.org/x/image/math/fixed"
	_ "golang.org/x/image/webp" // Register WebP decoder
)

const (
	JPEGQuality = 95

	compassMargin   = 15
	compassFraction = 0.15

	textPadding = 15
	lineHeight  = 24
	cornerInset = 10

	timestampLayout = "02 Jan 2006 3:04:05 pm"
)

var (
	panelColor  = color.NRGBA{A: 153}
	textColor   = color.White
	shadowColor = color.Black
)

// Options are the capture inputs. Location and Heading are optional; the
// result is fully determined by the source image and these values.
type Options struct {
	Location *models.LocationData
	Heading  *float64
	Address  string
	Time     time.Time
}

// Lines returns the text block, top to bottom.
func Lines(opts Options) []string {
	lines := []string{opts.Time.Format(timestampLayout)}
	if opts.Location == nil {
		return lines
	}

	lines = append(lines, fmt.Sprintf("%.6fN %.6fE", opts.Location.Latitude, opts.Location.Longitude))
	if opts.Heading != nil {
		lines = append(lines, fmt.Sprintf("%d° %s", int(math.Round(*opts.Heading)), HeadingToDirection(*opts.Heading)))
	}

	address := opts.Address
	if address == "" {
		address = opts.Location.Address
	}
	if address != "" {
		lines = append(lines, address)
	}
	return lines
}

// Apply draws the overlay onto a copy of src.
func Apply(src image.Image, opts Options) *image.RGBA {
	bounds := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(dst, dst.Bounds(), src, bounds.Min, draw.Src)

	width, height := dst.Bounds().Dx(), dst.Bounds().Dy()
	if opts.Heading != nil {
		size := float64(min(width, height)) * compassFraction
		drawCompass(dst, *opts.Heading, compassMargin, compassMargin, size)
	}
	drawTextBlock(dst, Lines(opts))

	return dst
}

// Render decodes a captured image, applies the overlay and encodes the
// result as JPEG.
func Render(data []byte, opts Options) ([]byte, image.Image, error) {
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, nil, fmt.Errorf("decode image: %w", err)
	}

	out := Apply(src, opts)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, out, &jpeg.Options{Quality: JPEGQuality}); err != nil {
		return nil, nil, fmt.Errorf("encode jpeg: %w", err)
	}
	return buf.Bytes(), out, nil
}

func drawTextBlock(dst *image.RGBA, lines []string) {
	if len(lines) == 0 {
		return
	}

	face := inconsolata.Bold8x16
	maxWidth := 0
	for _, line := range lines {
		if w := font.MeasureString(face, line).Ceil(); w > maxWidth {
			maxWidth = w
		}
	}

	width, height := dst.Bounds().Dx(), dst.Bounds().Dy()
	panelW := maxWidth + textPadding*2
	panelH := len(lines)*lineHeight + textPadding*2
	panel := image.Rect(width-panelW-cornerInset, height-panelH-cornerInset, width-cornerInset, height-cornerInset)
	draw.Draw(dst, panel, image.NewUniform(panelColor), image.Point{}, draw.Over)

	descent := face.Metrics().Descent.Ceil()
	right := width - textPadding - cornerInset
	for i, line := range lines {
		bottom := height - textPadding - cornerInset - (len(lines)-i-1)*lineHeight
		x := right - font.MeasureString(face, line).Ceil()
		y := bottom - descent

		drawString(dst, face, shadowColor, x+1, y+1, line)
		drawString(dst, face, textColor, x, y, line)
	}
}

func drawString(dst draw.Image, face font.Face, c color.Color, x, y int, s string) {
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(c),
		Face: face,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(s)
}
