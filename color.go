package thumbkit

import (
	"image"

	"github.com/lucasb-eyer/go-colorful"
)

// AverageColor computes the mean color of an image, sampling a bounded grid
// of pixels so the cost stays flat regardless of image size. The result is
// typically used as a placeholder fill behind a still-loading thumbnail.
func AverageColor(img image.Image) colorful.Color {
	const maxSamples = 64 // per axis

	b := img.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		return colorful.Color{}
	}
	stepX := b.Dx() / maxSamples
	if stepX < 1 {
		stepX = 1
	}
	stepY := b.Dy() / maxSamples
	if stepY < 1 {
		stepY = 1
	}

	var sumR, sumG, sumB float64
	var n int
	for y := b.Min.Y; y < b.Max.Y; y += stepY {
		for x := b.Min.X; x < b.Max.X; x += stepX {
			r, g, bl, _ := img.At(x, y).RGBA()
			sumR += float64(r) / 65535
			sumG += float64(g) / 65535
			sumB += float64(bl) / 65535
			n++
		}
	}
	return colorful.Color{R: sumR / float64(n), G: sumG / float64(n), B: sumB / float64(n)}
}

// AverageColorHex returns the mean color of an image as a "#rrggbb" string.
func AverageColorHex(img image.Image) string {
	return AverageColor(img).Hex()
}
