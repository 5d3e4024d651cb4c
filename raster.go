package pdftakeoff

import (
	"image"

	"golang.org/x/image/draw"
)

// Raster is a rendered page bitmap.
type Raster struct {
	Image  image.Image
	Page   int // 1-based page number
	Zoom   float64
	Width  int
	Height int
}

// PageRasterizer renders a page (1-based page number) at a zoom level.
// Implementations must be pure functions of their inputs.
type PageRasterizer interface {
	RenderPage(pageNumber int, zoom float64) (*Raster, error)
}

// toGray converts img to a contiguous 8-bit grayscale image with origin (0, 0).
func toGray(img image.Image) *image.Gray {
	if g, ok := img.(*image.Gray); ok && g.Bounds().Min == (image.Point{}) && g.Stride == g.Bounds().Dx() {
		return g
	}
	b := img.Bounds()
	gray := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(gray, gray.Bounds(), img, b.Min, draw.Src)
	return gray
}

// downsample shrinks img so its longest side is at most maxDim. It returns
// the factor applied (1 when img already fits).
func downsample(img image.Image, maxDim int) (image.Image, float64) {
	b := img.Bounds()
	longest := max(b.Dx(), b.Dy())
	if maxDim <= 0 || longest <= maxDim {
		return img, 1
	}

	scale := float64(maxDim) / float64(longest)
	w := max(1, int(float64(b.Dx())*scale))
	h := max(1, int(float64(b.Dy())*scale))
	dst := image.NewGray(image.Rect(0, 0, w, h))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst, scale
}
