package pdftakeoff

import "github.com/flanksource/commons/logger"

// effectiveZoom returns zoom, or 1.0 with a warning when zoom is missing or
// non-positive.
func effectiveZoom(zoom float64, what string) float64 {
	if zoom > 0 {
		return zoom
	}
	logger.Warnf("%s has no usable zoom level (%g), assuming 1.0", what, zoom)
	return 1.0
}

// RescalePoint maps a point captured at fromZoom to its position at toZoom.
func RescalePoint(p Point2D, fromZoom, toZoom float64) Point2D {
	from := effectiveZoom(fromZoom, "source point")
	to := effectiveZoom(toZoom, "target view")
	s := to / from
	return Point2D{X: p.X * s, Y: p.Y * s}
}

// RescalePoints maps points captured at fromZoom to toZoom. The input slice
// is not modified.
func RescalePoints(points []Point2D, fromZoom, toZoom float64) []Point2D {
	from := effectiveZoom(fromZoom, "source points")
	to := effectiveZoom(toZoom, "target view")
	s := to / from

	scaled := make([]Point2D, len(points))
	for i, p := range points {
		scaled[i] = Point2D{X: p.X * s, Y: p.Y * s}
	}
	return scaled
}

// PointsAt returns the measurement's points rescaled for display at zoom.
// A measurement stored without a zoom level is treated as captured at 1.0.
func (m Measurement) PointsAt(zoom float64) []Point2D {
	from := m.ZoomLevel
	if from <= 0 {
		logger.Warnf("measurement %s has stale zoom level %g, assuming 1.0", m.ID, from)
		from = 1.0
	}
	return RescalePoints(m.Points, from, zoom)
}
