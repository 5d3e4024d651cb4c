package pdftakeoff

import (
	"sort"

	"github.com/samber/lo"
)

// SnapSource identifies where a snap candidate came from.
type SnapSource string

const (
	SourceUserPoint     SnapSource = "user_point"
	SourceIntersection  SnapSource = "intersection"
	SourceLineEndpoint  SnapSource = "line_endpoint"
	SourceLineMidpoint  SnapSource = "line_midpoint"
	SourcePerpendicular SnapSource = "perpendicular"
)

// snapPriority ranks sources; a lower number wins over any higher number
// regardless of distance.
var snapPriority = map[SnapSource]int{
	SourceUserPoint:     1,
	SourceIntersection:  2,
	SourceLineEndpoint:  3,
	SourceLineMidpoint:  4,
	SourcePerpendicular: 5,
}

// Priority returns the fixed rank of the source (1 is strongest).
func (s SnapSource) Priority() int {
	if p, ok := snapPriority[s]; ok {
		return p
	}
	return len(snapPriority) + 1
}

// SnapCandidate is a potential replacement for a raw cursor position.
type SnapCandidate struct {
	Point    Point2D
	Distance float64 // distance to the cursor in pixels
	Source   SnapSource
	Priority int
}

func newSnapCandidate(cursor, p Point2D, source SnapSource) SnapCandidate {
	return SnapCandidate{
		Point:    p,
		Distance: Distance(cursor, p),
		Source:   source,
		Priority: source.Priority(),
	}
}

// SnapOptions configures the snap resolver.
type SnapOptions struct {
	// Threshold is the maximum cursor distance in pixels (default: 15)
	Threshold float64 `yaml:"threshold"`

	// Disabled lists sources that never produce candidates
	Disabled []SnapSource `yaml:"disabled"`
}

// DefaultSnapOptions returns options with every source enabled.
func DefaultSnapOptions() SnapOptions {
	return SnapOptions{Threshold: 15}
}

func (o SnapOptions) enabled(source SnapSource) bool {
	return !lo.Contains(o.Disabled, source)
}

// SnapTargets is everything the resolver may snap to on the current page,
// expressed at the current zoom.
type SnapTargets struct {
	UserPoints    []Point2D
	Intersections []Point2D
	Lines         []DetectedLine
}

// SnapResolver selects the best snap point for a cursor position.
type SnapResolver struct {
	options SnapOptions
}

// NewSnapResolver creates a resolver. A non-positive threshold falls back to
// the default.
func NewSnapResolver(options SnapOptions) *SnapResolver {
	if options.Threshold <= 0 {
		options.Threshold = DefaultSnapOptions().Threshold
	}
	return &SnapResolver{options: options}
}

// Threshold returns the snap radius in pixels.
func (r *SnapResolver) Threshold() float64 {
	return r.options.Threshold
}

// Candidates enumerates every candidate within the threshold of cursor,
// ordered best first.
func (r *SnapResolver) Candidates(cursor Point2D, targets SnapTargets) []SnapCandidate {
	threshold := r.options.Threshold
	reach := Rect{X0: cursor.X, Y0: cursor.Y, X1: cursor.X, Y1: cursor.Y}
	reach = expandRect(reach, threshold)

	var candidates []SnapCandidate
	add := func(p Point2D, source SnapSource) {
		if !reach.Contains(p) {
			return
		}
		c := newSnapCandidate(cursor, p, source)
		if c.Distance <= threshold {
			candidates = append(candidates, c)
		}
	}

	if r.options.enabled(SourceUserPoint) {
		for _, p := range targets.UserPoints {
			add(p, SourceUserPoint)
		}
	}
	if r.options.enabled(SourceIntersection) {
		for _, p := range targets.Intersections {
			add(p, SourceIntersection)
		}
	}

	for _, line := range targets.Lines {
		// Skip lines whose bounding box is out of reach of the cursor.
		if !rectsOverlap(expandRect(line.Bounds(), threshold), reach) {
			continue
		}
		if r.options.enabled(SourceLineEndpoint) {
			add(line.Start, SourceLineEndpoint)
			add(line.End, SourceLineEndpoint)
		}
		if r.options.enabled(SourceLineMidpoint) {
			add(line.Midpoint(), SourceLineMidpoint)
		}
		if r.options.enabled(SourcePerpendicular) && line.Length > 0 {
			add(ClosestPointOnSegment(cursor, line.Start, line.End), SourcePerpendicular)
		}
	}

	sortCandidates(candidates)
	return candidates
}

// Resolve returns the best candidate for cursor, or false when nothing lies
// within the threshold.
func (r *SnapResolver) Resolve(cursor Point2D, targets SnapTargets) (SnapCandidate, bool) {
	candidates := r.Candidates(cursor, targets)
	if len(candidates) == 0 {
		return SnapCandidate{}, false
	}
	return candidates[0], true
}

// SelectCandidate picks the winner among candidates within threshold by
// (priority, distance) ascending.
func SelectCandidate(candidates []SnapCandidate, threshold float64) (SnapCandidate, bool) {
	inRange := lo.Filter(candidates, func(c SnapCandidate, _ int) bool {
		return c.Distance <= threshold
	})
	if len(inRange) == 0 {
		return SnapCandidate{}, false
	}
	sortCandidates(inRange)
	return inRange[0], true
}

func sortCandidates(candidates []SnapCandidate) {
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].Priority != candidates[j].Priority {
			return candidates[i].Priority < candidates[j].Priority
		}
		return candidates[i].Distance < candidates[j].Distance
	})
}
