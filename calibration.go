package pdftakeoff

import (
	"math"
	"sync"

	"github.com/flanksource/commons/logger"
	"github.com/pkg/errors"
)

// Unit is a real-world length unit a calibration converts pixels into.
type Unit string

const (
	UnitPixel      Unit = "pi" // uncalibrated: one unit per pixel
	UnitPoint      Unit = "po"
	UnitMeter      Unit = "m"
	UnitCentimeter Unit = "cm"
	UnitMillimeter Unit = "mm"
	UnitFoot       Unit = "ft"
	UnitInch       Unit = "in"
)

var knownUnits = []Unit{UnitPixel, UnitPoint, UnitMeter, UnitCentimeter, UnitMillimeter, UnitFoot, UnitInch}

// ParseUnit validates a unit string.
func ParseUnit(s string) (Unit, error) {
	for _, u := range knownUnits {
		if string(u) == s {
			return u, nil
		}
	}
	return "", errors.Wrapf(ErrUnknownUnit, "%q", s)
}

// Area returns the label used for squared quantities of this unit.
func (u Unit) Area() string {
	return string(u) + "²"
}

const (
	// minPixelDistance is the smallest reference length accepted for calibration.
	minPixelDistance = 1e-6

	// Factors outside this range are accepted but logged as implausible.
	maxPlausibleFactor = 10.0
	minPlausibleFactor = 1e-4
)

// CalibrationFactor converts pixels at reference zoom 1.0 to real-world units.
type CalibrationFactor struct {
	Value float64 // real-world units per pixel
	Unit  Unit
}

// DefaultCalibrationFactor returns the uncalibrated factor {1, "pi"}.
func DefaultCalibrationFactor() CalibrationFactor {
	return CalibrationFactor{Value: 1.0, Unit: UnitPixel}
}

// NewCalibrationFactor derives a factor from a known length: realValue units
// span pixelDistance pixels.
func NewCalibrationFactor(pixelDistance, realValue float64, unit Unit) (CalibrationFactor, error) {
	if !(pixelDistance > minPixelDistance) {
		return CalibrationFactor{}, errors.Wrapf(ErrInvalidCalibrationInput, "pixel distance %g must be positive", pixelDistance)
	}
	if !(realValue > 0) {
		return CalibrationFactor{}, errors.Wrapf(ErrInvalidCalibrationInput, "real value %g must be positive", realValue)
	}
	if unit == "" {
		unit = UnitPixel
	}
	if _, err := ParseUnit(string(unit)); err != nil {
		return CalibrationFactor{}, errors.Wrap(ErrInvalidCalibrationInput, err.Error())
	}
	return CalibrationFactor{Value: realValue / pixelDistance, Unit: unit}, nil
}

// Plausible reports whether the factor lies in the range expected for plan
// sheets. Implausible factors usually indicate a mistyped reference length.
func (c CalibrationFactor) Plausible() bool {
	return c.Value <= maxPlausibleFactor && c.Value >= minPlausibleFactor
}

// ToReal converts a pixel quantity to real-world units. Use exponent 1 for
// lengths and 2 for areas.
func (c CalibrationFactor) ToReal(pixelQuantity float64, exponent int) float64 {
	return pixelQuantity * math.Pow(c.Value, float64(exponent))
}

// Calibration holds the session's active calibration factor. The factor is
// replaced wholesale; readers always observe a complete factor.
type Calibration struct {
	mu     sync.RWMutex
	factor CalibrationFactor
}

// NewCalibration returns a calibration initialized to the default factor.
func NewCalibration() *Calibration {
	return &Calibration{factor: DefaultCalibrationFactor()}
}

// Factor returns the active calibration factor.
func (c *Calibration) Factor() CalibrationFactor {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.factor
}

// Set replaces the active factor with one derived from a known length.
// Invalid input leaves the previous factor in place.
func (c *Calibration) Set(pixelDistance, realValue float64, unit Unit) (CalibrationFactor, error) {
	factor, err := NewCalibrationFactor(pixelDistance, realValue, unit)
	if err != nil {
		return c.Factor(), err
	}
	if !factor.Plausible() {
		logger.Warnf("calibration factor %g %s/px is outside the plausible range [%g, %g]",
			factor.Value, factor.Unit, minPlausibleFactor, maxPlausibleFactor)
	}

	c.mu.Lock()
	c.factor = factor
	c.mu.Unlock()
	return factor, nil
}

// Reset restores the default factor.
func (c *Calibration) Reset() {
	c.mu.Lock()
	c.factor = DefaultCalibrationFactor()
	c.mu.Unlock()
}

// ToReal converts using the active factor.
func (c *Calibration) ToReal(pixelQuantity float64, exponent int) float64 {
	return c.Factor().ToReal(pixelQuantity, exponent)
}
