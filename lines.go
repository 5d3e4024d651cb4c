package pdftakeoff

import (
	"image"
	"math"
	"sort"
)

// intersectionMergeDistance is the distance below which two intersections
// are reported once.
const intersectionMergeDistance = 1.0

// segmentsToLines converts raw segments found on a (possibly downsampled)
// image back into full-resolution page coordinates.
func segmentsToLines(segments []segment, scale float64, origin image.Point) []DetectedLine {
	if scale <= 0 {
		scale = 1
	}
	lines := make([]DetectedLine, 0, len(segments))
	for _, s := range segments {
		start := Point2D{
			X: float64(s.x0)/scale + float64(origin.X),
			Y: float64(s.y0)/scale + float64(origin.Y),
		}
		end := Point2D{
			X: float64(s.x1)/scale + float64(origin.X),
			Y: float64(s.y1)/scale + float64(origin.Y),
		}
		if start == end {
			continue
		}
		lines = append(lines, newDetectedLine(start, end))
	}
	return lines
}

// limitLines keeps at most maxLines lines, preferring the longest. The
// result preserves the input order.
func limitLines(lines []DetectedLine, maxLines int) []DetectedLine {
	if maxLines <= 0 || len(lines) <= maxLines {
		return lines
	}

	order := make([]int, len(lines))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		return lines[order[i]].Length > lines[order[j]].Length
	})
	keep := order[:maxLines]
	sort.Ints(keep)

	limited := make([]DetectedLine, 0, maxLines)
	for _, i := range keep {
		limited = append(limited, lines[i])
	}
	return limited
}

// findIntersections computes the pairwise crossings of lines. Pairs whose
// bounding boxes do not touch are skipped before solving, parallel pairs
// produce nothing, and crossings closer than intersectionMergeDistance to
// an earlier one are dropped.
func findIntersections(lines []DetectedLine, maxLines int) []Point2D {
	lines = limitLines(lines, maxLines)

	bounds := make([]Rect, len(lines))
	for i, l := range lines {
		bounds[i] = l.Bounds()
	}

	type cell struct{ x, y int64 }
	seen := make(map[cell][]Point2D)
	var points []Point2D

	for i := 0; i < len(lines); i++ {
		for j := i + 1; j < len(lines); j++ {
			if !rectsOverlap(bounds[i], bounds[j]) {
				continue
			}
			p, ok := SegmentIntersection(lines[i].Start, lines[i].End, lines[j].Start, lines[j].End)
			if !ok {
				continue
			}

			c := cell{int64(math.Floor(p.X)), int64(math.Floor(p.Y))}
			duplicate := false
			for dx := int64(-1); dx <= 1 && !duplicate; dx++ {
				for dy := int64(-1); dy <= 1 && !duplicate; dy++ {
					for _, q := range seen[cell{c.x + dx, c.y + dy}] {
						if Distance(p, q) < intersectionMergeDistance {
							duplicate = true
							break
						}
					}
				}
			}
			if duplicate {
				continue
			}
			seen[c] = append(seen[c], p)
			points = append(points, p)
		}
	}

	return points
}

// axisSlack is the angular slack, in degrees, for a line to count as
// horizontal or vertical when merging.
const axisSlack = 1.0

// axisSpan is a horizontal or vertical line: pos is its y (horizontal) or
// x (vertical) and [lo, hi] its extent along the other axis.
type axisSpan struct {
	pos, lo, hi float64
}

// mergeAxisLines collapses the doubled edges a thick stroke produces.
// Horizontal and vertical lines whose positions lie within snapTolerance are
// moved to their average position, then spans on the same position that
// overlap or are separated by at most joinTolerance are joined. Other lines
// are appended unchanged.
func mergeAxisLines(lines []DetectedLine, snapTolerance, joinTolerance float64) []DetectedLine {
	if snapTolerance <= 0 || len(lines) < 2 {
		return lines
	}

	var horizontal, vertical []axisSpan
	var other []DetectedLine
	for _, l := range lines {
		switch {
		case angularDistance(l.Angle, 0) <= axisSlack || angularDistance(l.Angle, 180) <= axisSlack:
			horizontal = append(horizontal, axisSpan{
				pos: (l.Start.Y + l.End.Y) / 2,
				lo:  math.Min(l.Start.X, l.End.X),
				hi:  math.Max(l.Start.X, l.End.X),
			})
		case angularDistance(l.Angle, 90) <= axisSlack:
			vertical = append(vertical, axisSpan{
				pos: (l.Start.X + l.End.X) / 2,
				lo:  math.Min(l.Start.Y, l.End.Y),
				hi:  math.Max(l.Start.Y, l.End.Y),
			})
		default:
			other = append(other, l)
		}
	}

	merged := make([]DetectedLine, 0, len(lines))
	for _, s := range joinSpans(snapSpans(horizontal, snapTolerance), joinTolerance) {
		merged = append(merged, newDetectedLine(Point2D{X: s.lo, Y: s.pos}, Point2D{X: s.hi, Y: s.pos}))
	}
	for _, s := range joinSpans(snapSpans(vertical, snapTolerance), joinTolerance) {
		merged = append(merged, newDetectedLine(Point2D{X: s.pos, Y: s.lo}, Point2D{X: s.pos, Y: s.hi}))
	}
	return append(merged, other...)
}

// snapSpans clusters spans whose positions are within tolerance of the
// running cluster average and moves every member to that average.
func snapSpans(spans []axisSpan, tolerance float64) []axisSpan {
	if len(spans) == 0 {
		return spans
	}
	sort.Slice(spans, func(i, j int) bool {
		return spans[i].pos < spans[j].pos
	})

	type cluster struct {
		value   float64
		members []int
	}
	var clusters []cluster
	for i, s := range spans {
		if n := len(clusters); n > 0 && math.Abs(clusters[n-1].value-s.pos) <= tolerance {
			c := &clusters[n-1]
			sum := c.value * float64(len(c.members))
			c.members = append(c.members, i)
			c.value = (sum + s.pos) / float64(len(c.members))
			continue
		}
		clusters = append(clusters, cluster{value: s.pos, members: []int{i}})
	}

	snapped := make([]axisSpan, len(spans))
	copy(snapped, spans)
	for _, c := range clusters {
		for _, i := range c.members {
			snapped[i].pos = c.value
		}
	}
	return snapped
}

// joinSpans joins spans sharing a position whose extents overlap or are at
// most tolerance apart. The result is ordered by position, then extent.
func joinSpans(spans []axisSpan, tolerance float64) []axisSpan {
	if len(spans) == 0 {
		return spans
	}
	sort.Slice(spans, func(i, j int) bool {
		if spans[i].pos != spans[j].pos {
			return spans[i].pos < spans[j].pos
		}
		return spans[i].lo < spans[j].lo
	})

	joined := []axisSpan{spans[0]}
	for _, s := range spans[1:] {
		last := &joined[len(joined)-1]
		if s.pos == last.pos && s.lo <= last.hi+tolerance {
			last.hi = math.Max(last.hi, s.hi)
			continue
		}
		joined = append(joined, s)
	}
	return joined
}
