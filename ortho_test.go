package pdftakeoff

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConstrainOrthogonal(t *testing.T) {
	origin := Point2D{0, 0}
	opts := DefaultOrthoOptions()

	tests := []struct {
		name        string
		ref         Point2D
		candidate   Point2D
		expected    Point2D
		constrained bool
	}{
		{"near horizontal snaps exactly", origin, Point2D{10, 0.5}, Point2D{10, 0}, true},
		{"near vertical snaps exactly", origin, Point2D{0.3, 10}, Point2D{0, 10}, true},
		{"near horizontal leftwards", origin, Point2D{-10, 0.4}, Point2D{-10, 0}, true},
		{"offset reference", Point2D{100, 50}, Point2D{90, 49.5}, Point2D{90, 50}, true},
		{"exact diagonal unchanged", origin, Point2D{10, 10}, Point2D{10, 10}, false},
		{"exact horizontal unchanged", origin, Point2D{10, 0}, Point2D{10, 0}, false},
		{"outside tolerance unchanged", origin, Point2D{10, 2}, Point2D{10, 2}, false},
		{"coincident points unchanged", origin, origin, origin, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, constrained := ConstrainOrthogonal(tt.ref, tt.candidate, opts)
			assert.Equal(t, tt.constrained, constrained)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestConstrainOrthogonalDiagonal(t *testing.T) {
	got, constrained := ConstrainOrthogonal(Point2D{0, 0}, Point2D{10, 10.5}, DefaultOrthoOptions())
	assert.True(t, constrained)
	assert.InDelta(t, got.X, got.Y, 1e-9, "result lies on the 45° ray")
	assert.InDelta(t, 10.25, got.X, 1e-9)
}

func TestConstrainOrthogonalPreserveLength(t *testing.T) {
	opts := OrthoOptions{Tolerance: 5, Mode: OrthoPreserveLength}
	candidate := Point2D{10, 0.5}

	got, constrained := ConstrainOrthogonal(Point2D{0, 0}, candidate, opts)
	assert.True(t, constrained)
	assert.InDelta(t, math.Hypot(10, 0.5), got.X, 1e-9)
	assert.InDelta(t, 0, got.Y, 1e-12)
	assert.InDelta(t, Distance(Point2D{}, candidate), Distance(Point2D{}, got), 1e-9)
}

func TestConstrainOrthogonalTolerance(t *testing.T) {
	candidate := Point2D{10, 2} // about 11.3° off horizontal

	_, constrained := ConstrainOrthogonal(Point2D{0, 0}, candidate, OrthoOptions{Tolerance: 5})
	assert.False(t, constrained)

	got, constrained := ConstrainOrthogonal(Point2D{0, 0}, candidate, OrthoOptions{Tolerance: 15})
	assert.True(t, constrained)
	assert.Equal(t, Point2D{10, 0}, got)
}
