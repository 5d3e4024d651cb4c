package pdftakeoff

import (
	"context"
	"math"
	"math/rand/v2"
)

// houghParams configures the probabilistic Hough transform.
type houghParams struct {
	rho           float64 // distance resolution in pixels
	theta         float64 // angle resolution in radians
	threshold     int     // minimum votes for a line hypothesis
	minLineLength float64 // shorter segments are discarded
	maxLineGap    float64 // largest gap bridged between collinear pixels
}

// segment is a raw detected segment in edge-map pixel coordinates.
type segment struct {
	x0, y0, x1, y1 int
}

// probabilisticHough extracts line segments from an edge map. Edge pixels
// are visited in random order; each votes in the (theta, rho) accumulator
// and, once a bin reaches the threshold, the corresponding line is walked in
// both directions through the edge map, bridging gaps up to maxLineGap.
// Pixels on a walked line are removed so they cannot seed another segment.
func probabilisticHough(ctx context.Context, edges *edgeMap, p houghParams, rng *rand.Rand) ([]segment, error) {
	w, h := edges.width, edges.height
	if w == 0 || h == 0 {
		return nil, nil
	}

	numAngle := int(math.Round(math.Pi / p.theta))
	numRho := int(math.Round(float64((w+h)*2+1) / p.rho))
	rhoOffset := (numRho - 1) / 2

	cosTab := make([]float64, numAngle)
	sinTab := make([]float64, numAngle)
	for n := 0; n < numAngle; n++ {
		angle := float64(n) * p.theta
		cosTab[n] = math.Cos(angle) / p.rho
		sinTab[n] = math.Sin(angle) / p.rho
	}

	accum := make([]int32, numAngle*numRho)
	mask := make([]bool, w*h)
	voted := make([]bool, w*h)

	var points []int
	for i, e := range edges.pix {
		if e {
			mask[i] = true
			points = append(points, i)
		}
	}
	rng.Shuffle(len(points), func(i, j int) {
		points[i], points[j] = points[j], points[i]
	})

	rhoBin := func(n, x, y int) int {
		return n*numRho + int(math.Round(float64(x)*cosTab[n]+float64(y)*sinTab[n])) + rhoOffset
	}

	maxGap := int(math.Round(p.maxLineGap))
	var segments []segment

	for count, idx := range points {
		if count%4096 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		if !mask[idx] {
			continue
		}
		x, y := idx%w, idx/w

		// Vote and track the strongest bin for this pixel.
		maxVal := int32(p.threshold - 1)
		maxN := -1
		for n := 0; n < numAngle; n++ {
			bin := rhoBin(n, x, y)
			accum[bin]++
			if accum[bin] > maxVal {
				maxVal = accum[bin]
				maxN = n
			}
		}
		voted[idx] = true
		if maxN < 0 {
			continue
		}

		// Direction along the line is perpendicular to its normal (cos, sin).
		a := -sinTab[maxN]
		b := cosTab[maxN]
		var dx, dy float64
		if math.Abs(a) > math.Abs(b) {
			dx = math.Copysign(1, a)
			dy = b / math.Abs(a)
		} else {
			dy = math.Copysign(1, b)
			dx = a / math.Abs(b)
		}

		var ends [2][2]int
		for k := 0; k < 2; k++ {
			sx, sy := dx, dy
			if k == 1 {
				sx, sy = -dx, -dy
			}
			ends[k] = [2]int{x, y}
			gap := 0
			for j := 0; ; j++ {
				px := int(math.Round(float64(x) + float64(j)*sx))
				py := int(math.Round(float64(y) + float64(j)*sy))
				if px < 0 || px >= w || py < 0 || py >= h {
					break
				}
				if mask[py*w+px] {
					gap = 0
					ends[k] = [2]int{px, py}
				} else {
					gap++
					if gap > maxGap {
						break
					}
				}
			}
		}

		good := math.Abs(float64(ends[1][0]-ends[0][0])) >= p.minLineLength ||
			math.Abs(float64(ends[1][1]-ends[0][1])) >= p.minLineLength

		// Consume the walked pixels, withdrawing their votes for good lines.
		for k := 0; k < 2; k++ {
			sx, sy := dx, dy
			if k == 1 {
				sx, sy = -dx, -dy
			}
			for j := 0; ; j++ {
				px := int(math.Round(float64(x) + float64(j)*sx))
				py := int(math.Round(float64(y) + float64(j)*sy))
				if px < 0 || px >= w || py < 0 || py >= h {
					break
				}
				i := py*w + px
				if mask[i] {
					if good && voted[i] {
						for n := 0; n < numAngle; n++ {
							accum[rhoBin(n, px, py)]--
						}
						voted[i] = false
					}
					mask[i] = false
				}
				if px == ends[k][0] && py == ends[k][1] {
					break
				}
			}
		}

		if good {
			segments = append(segments, segment{
				x0: ends[1][0], y0: ends[1][1],
				x1: ends[0][0], y1: ends[0][1],
			})
		}
	}

	return segments, nil
}
