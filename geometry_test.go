package pdftakeoff

import (
	"math"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDistance(t *testing.T) {
	tests := []struct {
		name     string
		p1, p2   Point2D
		expected float64
	}{
		{"same point", Point2D{3, 4}, Point2D{3, 4}, 0},
		{"3-4-5 triangle", Point2D{0, 0}, Point2D{3, 4}, 5},
		{"horizontal", Point2D{-2, 1}, Point2D{8, 1}, 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, Distance(tt.p1, tt.p2), 1e-12)
			assert.Equal(t, Distance(tt.p1, tt.p2), Distance(tt.p2, tt.p1), "distance must be symmetric")
		})
	}
}

func TestShoelaceArea(t *testing.T) {
	square := []Point2D{{0, 0}, {10, 0}, {10, 10}, {0, 10}}

	t.Run("square", func(t *testing.T) {
		assert.InDelta(t, 100, ShoelaceArea(square), 1e-9)
	})

	t.Run("orientation does not matter", func(t *testing.T) {
		reversed := slices.Clone(square)
		slices.Reverse(reversed)
		assert.InDelta(t, ShoelaceArea(square), ShoelaceArea(reversed), 1e-9)
	})

	t.Run("starting vertex does not matter", func(t *testing.T) {
		for shift := 1; shift < len(square); shift++ {
			rotated := append(slices.Clone(square[shift:]), square[:shift]...)
			assert.InDelta(t, 100, ShoelaceArea(rotated), 1e-9)
		}
	})

	t.Run("triangle", func(t *testing.T) {
		assert.InDelta(t, 6, ShoelaceArea([]Point2D{{0, 0}, {4, 0}, {0, 3}}), 1e-9)
	})

	t.Run("degenerate", func(t *testing.T) {
		assert.Zero(t, ShoelaceArea([]Point2D{{0, 0}, {5, 5}}))
		assert.Zero(t, ShoelaceArea(nil))
	})
}

func TestPerimeter(t *testing.T) {
	square := []Point2D{{0, 0}, {10, 0}, {10, 10}, {0, 10}}
	assert.InDelta(t, 40, Perimeter(square, true), 1e-9)
	assert.InDelta(t, 30, Perimeter(square, false), 1e-9)
	assert.Zero(t, Perimeter(square[:1], true))
}

func TestAngleBetween(t *testing.T) {
	tests := []struct {
		name      string
		p0, v, p2 Point2D
		expected  float64
	}{
		{"right angle", Point2D{10, 0}, Point2D{0, 0}, Point2D{0, 10}, 90},
		{"straight", Point2D{-10, 0}, Point2D{0, 0}, Point2D{10, 0}, 180},
		{"collinear same side", Point2D{5, 0}, Point2D{0, 0}, Point2D{10, 0}, 0},
		{"45 degrees", Point2D{10, 0}, Point2D{0, 0}, Point2D{10, 10}, 45},
		{"unsigned", Point2D{0, 10}, Point2D{0, 0}, Point2D{10, 0}, 90},
		{"zero-length ray", Point2D{0, 0}, Point2D{0, 0}, Point2D{10, 0}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, AngleBetween(tt.p0, tt.v, tt.p2), 1e-9)
		})
	}
}

func TestSegmentIntersection(t *testing.T) {
	tests := []struct {
		name     string
		a1, a2   Point2D
		b1, b2   Point2D
		expected Point2D
		ok       bool
	}{
		{
			name: "cross",
			a1:   Point2D{0, 5}, a2: Point2D{10, 5},
			b1: Point2D{5, 0}, b2: Point2D{5, 10},
			expected: Point2D{5, 5}, ok: true,
		},
		{
			name: "touching endpoints",
			a1:   Point2D{0, 0}, a2: Point2D{10, 0},
			b1: Point2D{10, 0}, b2: Point2D{10, 10},
			expected: Point2D{10, 0}, ok: true,
		},
		{
			name: "parallel",
			a1:   Point2D{0, 0}, a2: Point2D{10, 0},
			b1: Point2D{0, 5}, b2: Point2D{10, 5},
		},
		{
			name: "collinear overlapping",
			a1:   Point2D{0, 0}, a2: Point2D{10, 0},
			b1: Point2D{5, 0}, b2: Point2D{15, 0},
		},
		{
			name: "lines cross outside segments",
			a1:   Point2D{0, 0}, a2: Point2D{1, 0},
			b1: Point2D{5, -5}, b2: Point2D{5, 5},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, ok := SegmentIntersection(tt.a1, tt.a2, tt.b1, tt.b2)
			require.Equal(t, tt.ok, ok)
			if ok {
				assert.InDelta(t, tt.expected.X, p.X, 1e-9)
				assert.InDelta(t, tt.expected.Y, p.Y, 1e-9)
			}
		})
	}
}

func TestClosestPointOnSegment(t *testing.T) {
	a, b := Point2D{0, 0}, Point2D{10, 0}

	p := ClosestPointOnSegment(Point2D{4, 7}, a, b)
	assert.InDelta(t, 4, p.X, 1e-12)
	assert.Zero(t, p.Y)
	assert.Equal(t, a, ClosestPointOnSegment(Point2D{-5, 3}, a, b), "clamped to start")
	assert.Equal(t, b, ClosestPointOnSegment(Point2D{50, -3}, a, b), "clamped to end")
	assert.Equal(t, a, ClosestPointOnSegment(Point2D{1, 1}, a, a), "degenerate segment")
}

func TestMidpoint(t *testing.T) {
	assert.Equal(t, Point2D{5, 5}, Midpoint(Point2D{0, 0}, Point2D{10, 10}))
}

func TestNewDetectedLine(t *testing.T) {
	l := newDetectedLine(Point2D{10, 10}, Point2D{0, 0})
	assert.InDelta(t, math.Sqrt(200), l.Length, 1e-9)
	assert.GreaterOrEqual(t, l.Angle, 0.0)
	assert.Less(t, l.Angle, 180.0)
	assert.Equal(t, Point2D{5, 5}, l.Midpoint())
	assert.Equal(t, Rect{X0: 0, Y0: 0, X1: 10, Y1: 10}, l.Bounds())
}
