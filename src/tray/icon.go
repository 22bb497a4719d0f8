package tray

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"sync"
)

var (
	iconOnce sync.Once
	iconPNG  []byte
)

// Icon returns the 32x32 clipboard tray icon as PNG bytes.
func Icon() []byte {
	iconOnce.Do(func() {
		iconPNG = drawIcon(32)
	})
	return iconPNG
}

func drawIcon(size int) []byte {
	img := image.NewNRGBA(image.Rect(0, 0, size, size))
	board := color.NRGBA{R: 0x8d, G: 0x6e, B: 0x63, A: 0xff}
	paper := color.NRGBA{R: 0xfa, G: 0xfa, B: 0xfa, A: 0xff}
	clip := color.NRGBA{R: 0x00, G: 0x78, B: 0xd4, A: 0xff}
	line := color.NRGBA{R: 0x90, G: 0x90, B: 0x90, A: 0xff}

	unit := size / 16
	fill := func(x0, y0, x1, y1 int, c color.NRGBA) {
		for y := y0 * unit; y < y1*unit; y++ {
			for x := x0 * unit; x < x1*unit; x++ {
				img.SetNRGBA(x, y, c)
			}
		}
	}
	fill(2, 2, 14, 16, board)
	fill(4, 4, 12, 14, paper)
	fill(5, 1, 11, 4, clip)
	for _, y := range []int{6, 8, 10, 12} {
		fill(5, y, 11, y+1, line)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil
	}
	return buf.Bytes()
}
