// Package qr renders text to QR code PNG files.
package qr

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"

	qrcode "github.com/skip2/go-qrcode"
)

// Fixed encoding parameters.
const (
	PointSize = 3 // pixels per module
	Margin    = 2 // modules of quiet zone
)

// ErrLibraryNotFound means the rendering library is not installed at any
// known location.
var ErrLibraryNotFound = errors.New("qr library not found")

// Renderer writes a QR code for text to a PNG file.
type Renderer interface {
	// Check reports whether the renderer can be used.
	Check() error
	WritePNG(text, path string) error
}

// Options selects and configures a renderer.
type Options struct {
	Backend     string
	SearchPaths []string
}

// New returns the renderer named by opts.Backend ("builtin" when empty).
func New(opts Options) (Renderer, error) {
	switch opts.Backend {
	case "", "builtin":
		return Builtin{}, nil
	case "qrencode":
		return NewExec(opts.SearchPaths), nil
	}
	return nil, fmt.Errorf("unknown qr backend %q", opts.Backend)
}

// Builtin renders with the linked go-qrcode encoder.
type Builtin struct{}

// Check always succeeds; the encoder is compiled in.
func (Builtin) Check() error { return nil }

// WritePNG encodes text and writes the PNG to path.
func (Builtin) WritePNG(text, path string) error {
	code, err := qrcode.New(text, qrcode.Low)
	if err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	code.DisableBorder = true

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, draw(code.Bitmap())); err != nil {
		f.Close()
		return fmt.Errorf("write png: %w", err)
	}
	return f.Close()
}

var palette = color.Palette{color.White, color.Black}

func draw(bitmap [][]bool) image.Image {
	size := (len(bitmap) + 2*Margin) * PointSize
	img := image.NewPaletted(image.Rect(0, 0, size, size), palette)
	for y, row := range bitmap {
		for x, dark := range row {
			if !dark {
				continue
			}
			x0 := (x + Margin) * PointSize
			y0 := (y + Margin) * PointSize
			for dy := 0; dy < PointSize; dy++ {
				for dx := 0; dx < PointSize; dx++ {
					img.SetColorIndex(x0+dx, y0+dy, 1)
				}
			}
		}
	}
	return img
}
