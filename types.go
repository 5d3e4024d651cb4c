package pdftakeoff

import (
	"slices"
	"time"
)

// Point2D is a pixel-space coordinate on a rendered page. A point is only
// meaningful together with the zoom level that was active when it was
// captured.
type Point2D struct {
	X float64
	Y float64
}

// Rect represents an axis-aligned bounding box in pixel coordinates.
type Rect struct {
	X0 float64 // Left
	Y0 float64 // Top
	X1 float64 // Right
	Y1 float64 // Bottom
}

// Contains reports whether p lies inside the rectangle (edges included).
func (r Rect) Contains(p Point2D) bool {
	return p.X >= r.X0 && p.X <= r.X1 && p.Y >= r.Y0 && p.Y <= r.Y1
}

// MeasurementType identifies the kind of measurement, which is also the
// name of the tool that captures it.
type MeasurementType string

const (
	MeasurementDistance    MeasurementType = "distance"
	MeasurementSurface     MeasurementType = "surface"
	MeasurementPerimeter   MeasurementType = "perimeter"
	MeasurementAngle       MeasurementType = "angle"
	MeasurementCalibration MeasurementType = "calibration"
)

// Product is a catalog entry attached to a measurement for costing.
type Product struct {
	Name      string  `json:"name" yaml:"name"`
	Category  string  `json:"category" yaml:"category"`
	UnitPrice float64 `json:"unitPrice" yaml:"unitPrice"`
	Unit      string  `json:"unit,omitempty" yaml:"unit,omitempty"`
}

// Measurement is a finalized, immutable measurement record.
//
// Value is computed once at finalize time using the calibration factor that
// was active at that moment. Later calibration changes do not touch it.
type Measurement struct {
	ID         string
	Type       MeasurementType
	Label      string
	Points     []Point2D
	PageNumber int
	ZoomLevel  float64
	Value      float64
	Unit       string
	Product    *Product
	Timestamp  time.Time
}

// clone returns a copy that shares no slices or pointers with m.
func (m Measurement) clone() Measurement {
	m.Points = slices.Clone(m.Points)
	if m.Product != nil {
		p := *m.Product
		m.Product = &p
	}
	return m
}

// DetectedLine is a line segment found on a page raster. Lines are
// recomputed per (page, zoom) and never persisted.
type DetectedLine struct {
	Start  Point2D
	End    Point2D
	Angle  float64 // Direction in degrees, normalized to [0, 180)
	Length float64
}

// Midpoint returns the midpoint of the line.
func (l DetectedLine) Midpoint() Point2D {
	return Midpoint(l.Start, l.End)
}

// Bounds returns the bounding box of the line.
func (l DetectedLine) Bounds() Rect {
	return segmentBounds(l.Start, l.End)
}

// newDetectedLine builds a line from two endpoints, filling in angle and length.
func newDetectedLine(start, end Point2D) DetectedLine {
	angle := normalizeAngle(angleOf(start, end))
	if angle >= 180 {
		angle -= 180
	}
	return DetectedLine{
		Start:  start,
		End:    end,
		Angle:  angle,
		Length: Distance(start, end),
	}
}

// PageKey identifies a rendered page at a given zoom level.
type PageKey struct {
	Page int
	Zoom float64
}
