package pdftakeoff

import (
	"image"
	"math"
)

// edgeMap is a binary edge image.
type edgeMap struct {
	width, height int
	pix           []bool
}

func (e *edgeMap) at(x, y int) bool {
	return e.pix[y*e.width+x]
}

func (e *edgeMap) count() int {
	n := 0
	for _, v := range e.pix {
		if v {
			n++
		}
	}
	return n
}

// gaussianKernel5 is a normalized 5-tap kernel for sigma ≈ 1.
var gaussianKernel5 = [5]float32{0.0545, 0.2442, 0.4026, 0.2442, 0.0545}

// blur applies a separable 5x5 Gaussian, replicating border pixels.
func blur(src []float32, w, h int) []float32 {
	tmp := make([]float32, len(src))
	dst := make([]float32, len(src))

	for y := 0; y < h; y++ {
		row := y * w
		for x := 0; x < w; x++ {
			var sum float32
			for k := -2; k <= 2; k++ {
				xx := min(max(x+k, 0), w-1)
				sum += src[row+xx] * gaussianKernel5[k+2]
			}
			tmp[row+x] = sum
		}
	}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var sum float32
			for k := -2; k <= 2; k++ {
				yy := min(max(y+k, 0), h-1)
				sum += tmp[yy*w+x] * gaussianKernel5[k+2]
			}
			dst[y*w+x] = sum
		}
	}
	return dst
}

// cannyEdges runs Canny edge detection: Gaussian smoothing, Sobel gradients
// (L1 magnitude), non-maximum suppression and hysteresis between low and high.
func cannyEdges(gray *image.Gray, low, high float64) *edgeMap {
	b := gray.Bounds()
	w, h := b.Dx(), b.Dy()
	edges := &edgeMap{width: w, height: h, pix: make([]bool, w*h)}
	if w < 3 || h < 3 {
		return edges
	}

	src := make([]float32, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			src[y*w+x] = float32(gray.Pix[y*gray.Stride+x])
		}
	}
	smooth := blur(src, w, h)

	mag := make([]float32, w*h)
	sector := make([]uint8, w*h)
	for y := 1; y < h-1; y++ {
		for x := 1; x < w-1; x++ {
			i := y*w + x
			p := func(dx, dy int) float32 { return smooth[i+dy*w+dx] }

			gx := -p(-1, -1) - 2*p(-1, 0) - p(-1, 1) + p(1, -1) + 2*p(1, 0) + p(1, 1)
			gy := -p(-1, -1) - 2*p(0, -1) - p(1, -1) + p(-1, 1) + 2*p(0, 1) + p(1, 1)
			mag[i] = float32(math.Abs(float64(gx)) + math.Abs(float64(gy)))
			sector[i] = gradientSector(gx, gy)
		}
	}

	// Non-maximum suppression: keep pixels that peak along the gradient.
	thin := make([]float32, w*h)
	for y := 1; y < h-1; y++ {
		for x := 1; x < w-1; x++ {
			i := y*w + x
			m := mag[i]
			if m <= float32(low) {
				continue
			}
			var a, c float32
			switch sector[i] {
			case 0: // horizontal gradient, compare left/right
				a, c = mag[i-1], mag[i+1]
			case 1: // 45°, gradient along (1, 1)
				a, c = mag[i-w-1], mag[i+w+1]
			case 2: // vertical gradient, compare up/down
				a, c = mag[i-w], mag[i+w]
			default: // 135°, gradient along (-1, 1)
				a, c = mag[i-w+1], mag[i+w-1]
			}
			if m > a && m >= c {
				thin[i] = m
			}
		}
	}

	// Hysteresis: grow strong edges through connected weak edges.
	stack := make([]int, 0, 1024)
	for i, m := range thin {
		if m >= float32(high) && !edges.pix[i] {
			edges.pix[i] = true
			stack = append(stack, i)
		}
		for len(stack) > 0 {
			j := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			x, y := j%w, j/w
			for dy := -1; dy <= 1; dy++ {
				for dx := -1; dx <= 1; dx++ {
					nx, ny := x+dx, y+dy
					if nx < 0 || ny < 0 || nx >= w || ny >= h {
						continue
					}
					k := ny*w + nx
					if !edges.pix[k] && thin[k] > float32(low) {
						edges.pix[k] = true
						stack = append(stack, k)
					}
				}
			}
		}
	}

	return edges
}

// gradientSector quantizes a gradient direction into one of four sectors:
// 0 (≈0°), 1 (≈45°), 2 (≈90°) and 3 (≈135°), with y pointing down.
func gradientSector(gx, gy float32) uint8 {
	angle := math.Atan2(float64(gy), float64(gx)) * 180 / math.Pi
	if angle < 0 {
		angle += 180
	}
	switch {
	case angle < 22.5 || angle >= 157.5:
		return 0
	case angle < 67.5:
		return 1
	case angle < 112.5:
		return 2
	default:
		return 3
	}
}
