package pdftakeoff

import "github.com/pkg/errors"

var (
	// ErrInvalidCalibrationInput is returned when a calibration is attempted
	// with a non-positive pixel distance or real-world value.
	ErrInvalidCalibrationInput = errors.New("invalid calibration input")

	// ErrInsufficientPoints is returned when a measurement is finalized with
	// fewer points than its tool requires.
	ErrInsufficientPoints = errors.New("insufficient points")

	// ErrNoActiveTool is returned when a point is added with no tool selected.
	ErrNoActiveTool = errors.New("no active measurement tool")

	// ErrNoPendingCalibration is returned when a calibration is committed
	// without a measured reference distance.
	ErrNoPendingCalibration = errors.New("no pending calibration")

	// ErrMeasurementNotFound is returned when a measurement ID is unknown.
	ErrMeasurementNotFound = errors.New("measurement not found")

	// ErrUnknownUnit is returned for unit strings outside the supported set.
	ErrUnknownUnit = errors.New("unknown unit")

	// ErrUnknownTool is returned for tool names outside the supported set.
	ErrUnknownTool = errors.New("unknown measurement tool")
)
