package pdftakeoff

import "github.com/pkg/errors"

// toolRule describes how a tool collects points and what it computes.
type toolRule struct {
	minPoints int
	// autoFinalize finalizes as soon as minPoints is reached; otherwise the
	// tool collects until validated.
	autoFinalize bool
	// exponent is the power of the calibration factor applied to the raw
	// value; 0 leaves the value unconverted.
	exponent int
	compute  func(points []Point2D) float64
}

var toolRules = map[MeasurementType]toolRule{
	MeasurementDistance: {
		minPoints:    2,
		autoFinalize: true,
		exponent:     1,
		compute:      func(p []Point2D) float64 { return Distance(p[0], p[1]) },
	},
	MeasurementCalibration: {
		minPoints:    2,
		autoFinalize: true,
		exponent:     1,
		compute:      func(p []Point2D) float64 { return Distance(p[0], p[1]) },
	},
	MeasurementAngle: {
		minPoints:    3,
		autoFinalize: true,
		compute:      func(p []Point2D) float64 { return AngleBetween(p[0], p[1], p[2]) },
	},
	MeasurementSurface: {
		minPoints: 3,
		exponent:  2,
		compute:   ShoelaceArea,
	},
	MeasurementPerimeter: {
		minPoints: 3,
		exponent:  1,
		compute:   func(p []Point2D) float64 { return Perimeter(p, true) },
	},
}

// ParseTool validates a tool name.
func ParseTool(s string) (MeasurementType, error) {
	t := MeasurementType(s)
	if _, ok := toolRules[t]; !ok {
		return "", errors.Wrapf(ErrUnknownTool, "%q", s)
	}
	return t, nil
}

// MinPoints returns the number of points the tool needs to finalize.
func (t MeasurementType) MinPoints() int {
	return toolRules[t].minPoints
}

// AutoFinalizes reports whether the tool finalizes on its last point rather
// than on an explicit validation.
func (t MeasurementType) AutoFinalizes() bool {
	return toolRules[t].autoFinalize
}

// State is the measurement workflow state.
type State int

const (
	StateIdle State = iota
	StateCollecting
	StateFinalizing
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateCollecting:
		return "collecting"
	case StateFinalizing:
		return "finalizing"
	default:
		return "unknown"
	}
}
