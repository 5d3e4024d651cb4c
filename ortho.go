package pdftakeoff

import "math"

// OrthoMode selects how a constrained point is placed on the canonical direction.
type OrthoMode string

const (
	// OrthoProject drops the point perpendicularly onto the canonical ray.
	OrthoProject OrthoMode = "project"
	// OrthoPreserveLength keeps the segment length and rotates the point onto
	// the canonical ray.
	OrthoPreserveLength OrthoMode = "preserve-length"
)

// OrthoOptions configures the orthogonal constraint.
type OrthoOptions struct {
	// Tolerance is the maximum deviation in degrees from a canonical
	// direction for the constraint to apply (default: 5)
	Tolerance float64 `yaml:"tolerance"`

	// Mode selects projection or length preservation (default: project)
	Mode OrthoMode `yaml:"mode"`
}

// DefaultOrthoOptions returns a 5° tolerance in projection mode.
func DefaultOrthoOptions() OrthoOptions {
	return OrthoOptions{Tolerance: 5, Mode: OrthoProject}
}

const diag = math.Sqrt2 / 2

// canonicalDirections holds exact unit vectors for 0°, 45°, ... 315° so that
// axis-aligned results carry no trigonometric rounding.
var canonicalDirections = [8]Point2D{
	{1, 0}, {diag, diag}, {0, 1}, {-diag, diag},
	{-1, 0}, {-diag, -diag}, {0, -1}, {diag, -diag},
}

// ConstrainOrthogonal snaps candidate onto the nearest 45° direction from
// ref when it deviates by at most the tolerance. It reports whether the
// point was changed. A candidate already on a canonical direction, or equal
// to ref, is returned unchanged.
func ConstrainOrthogonal(ref, candidate Point2D, options OrthoOptions) (Point2D, bool) {
	dx, dy := candidate.X-ref.X, candidate.Y-ref.Y
	if dx == 0 && dy == 0 {
		return candidate, false
	}

	angle := normalizeAngle(angleOf(ref, candidate))
	canonical := normalizeAngle(quantizeAngle(angle, 45))
	deviation := angularDistance(angle, canonical)
	if deviation > options.Tolerance || deviation < 1e-9 {
		return candidate, false
	}

	dir := canonicalDirections[int(canonical/45)%8]
	var length float64
	switch options.Mode {
	case OrthoPreserveLength:
		length = math.Hypot(dx, dy)
	default:
		length = dx*dir.X + dy*dir.Y
	}

	return Point2D{X: ref.X + dir.X*length, Y: ref.Y + dir.Y*length}, true
}
