package pdftakeoff

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clickAll(t *testing.T, s *Session, points ...Point2D) ClickResult {
	t.Helper()
	var last ClickResult
	for _, p := range points {
		res, err := s.Click(p)
		require.NoError(t, err)
		require.True(t, res.Accepted, "click at %v was ignored", p)
		last = res
	}
	return last
}

func calibratedSession(t *testing.T, pixels, real float64, unit Unit) *Session {
	t.Helper()
	cal := NewCalibration()
	_, err := cal.Set(pixels, real, unit)
	require.NoError(t, err)
	return NewSession(cal)
}

func TestSessionDistance(t *testing.T) {
	s := NewSession(nil)
	fixed := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return fixed }
	require.NoError(t, s.SetTool(MeasurementDistance))
	assert.Equal(t, StateIdle, s.State())

	res := clickAll(t, s, Point2D{0, 0})
	assert.Nil(t, res.Measurement)
	assert.Equal(t, StateCollecting, s.State())

	res = clickAll(t, s, Point2D{30, 40})
	require.NotNil(t, res.Measurement)
	m := res.Measurement
	assert.Equal(t, MeasurementDistance, m.Type)
	assert.InDelta(t, 50, m.Value, 1e-9)
	assert.Equal(t, "pi", m.Unit)
	assert.Equal(t, 1, m.PageNumber)
	assert.Equal(t, 1.0, m.ZoomLevel)
	assert.Equal(t, "distance 1", m.Label)
	assert.Equal(t, fixed, m.Timestamp)
	assert.NotEmpty(t, m.ID)

	assert.Equal(t, StateIdle, s.State())
	assert.Empty(t, s.Points())
	assert.Len(t, s.Measurements(1), 1)
}

func TestSessionSurface(t *testing.T) {
	s := calibratedSession(t, 100, 10, UnitPixel)
	require.NoError(t, s.SetTool(MeasurementSurface))

	res := clickAll(t, s, Point2D{0, 0}, Point2D{10, 0}, Point2D{10, 10}, Point2D{0, 10})
	assert.Nil(t, res.Measurement, "surface waits for validation")
	assert.Len(t, s.Points(), 4)

	m, err := s.Validate()
	require.NoError(t, err)
	assert.InDelta(t, 1.0, m.Value, 1e-9)
	assert.Equal(t, "pi²", m.Unit)
	assert.Empty(t, s.Points())
}

func TestSessionPerimeter(t *testing.T) {
	s := NewSession(nil)
	require.NoError(t, s.SetTool(MeasurementPerimeter))
	clickAll(t, s, Point2D{0, 0}, Point2D{10, 0}, Point2D{10, 10}, Point2D{0, 10})

	m, err := s.Validate()
	require.NoError(t, err)
	assert.InDelta(t, 40, m.Value, 1e-9)
}

func TestSessionAngle(t *testing.T) {
	s := calibratedSession(t, 100, 1, UnitMeter)
	require.NoError(t, s.SetTool(MeasurementAngle))

	res := clickAll(t, s, Point2D{100, 0}, Point2D{0, 0}, Point2D{0, 100})
	require.NotNil(t, res.Measurement)
	assert.InDelta(t, 90, res.Measurement.Value, 1e-9)
	assert.Equal(t, "°", res.Measurement.Unit, "angles are never calibrated")
}

func TestSessionValidateInsufficientPoints(t *testing.T) {
	s := NewSession(nil)
	require.NoError(t, s.SetTool(MeasurementSurface))
	clickAll(t, s, Point2D{0, 0}, Point2D{50, 0})

	m, err := s.Validate()
	require.ErrorIs(t, err, ErrInsufficientPoints)
	assert.Nil(t, m)
	assert.Len(t, s.Points(), 2, "points are kept")
	assert.Equal(t, StateCollecting, s.State())
	assert.Empty(t, s.AllMeasurements())
}

func TestSessionNoTool(t *testing.T) {
	s := NewSession(nil)
	_, err := s.Click(Point2D{1, 1})
	assert.ErrorIs(t, err, ErrNoActiveTool)
	_, err = s.Validate()
	assert.ErrorIs(t, err, ErrNoActiveTool)

	assert.ErrorIs(t, s.SetTool("lasso"), ErrUnknownTool)
}

func TestSessionDuplicateClick(t *testing.T) {
	s := NewSession(nil)
	require.NoError(t, s.SetTool(MeasurementSurface))
	clickAll(t, s, Point2D{0, 0})

	res, err := s.Click(Point2D{3, 4})
	require.NoError(t, err)
	assert.False(t, res.Accepted)
	assert.Len(t, s.Points(), 1)

	clickAll(t, s, Point2D{10, 0})
	assert.Len(t, s.Points(), 2)
}

func TestSessionContextChangeDiscardsPoints(t *testing.T) {
	tests := []struct {
		name   string
		change func(s *Session) error
	}{
		{"zoom", func(s *Session) error { return s.SetZoom(2) }},
		{"page", func(s *Session) error { return s.SetPage(3) }},
		{"tool", func(s *Session) error { return s.SetTool(MeasurementPerimeter) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewSession(nil)
			require.NoError(t, s.SetTool(MeasurementSurface))
			clickAll(t, s, Point2D{0, 0}, Point2D{50, 0})

			require.NoError(t, tt.change(s))
			assert.Empty(t, s.Points())
			assert.Equal(t, StateIdle, s.State())
		})
	}
}

func TestSessionSameZoomKeepsPoints(t *testing.T) {
	s := NewSession(nil)
	require.NoError(t, s.SetTool(MeasurementSurface))
	clickAll(t, s, Point2D{0, 0}, Point2D{50, 0})

	require.NoError(t, s.SetZoom(1.0))
	require.NoError(t, s.SetPage(1))
	assert.Len(t, s.Points(), 2)

	assert.Error(t, s.SetZoom(0))
	assert.Error(t, s.SetPage(0))
	assert.Len(t, s.Points(), 2)
}

func TestSessionZoomNormalization(t *testing.T) {
	s := calibratedSession(t, 100, 10, UnitMeter)
	require.NoError(t, s.SetZoom(2))
	require.NoError(t, s.SetTool(MeasurementDistance))

	res := clickAll(t, s, Point2D{0, 0}, Point2D{200, 0})
	require.NotNil(t, res.Measurement)
	assert.InDelta(t, 10, res.Measurement.Value, 1e-9, "200px at zoom 2 is 100px at zoom 1")
	assert.Equal(t, 2.0, res.Measurement.ZoomLevel)

	require.NoError(t, s.SetTool(MeasurementSurface))
	clickAll(t, s, Point2D{0, 0}, Point2D{20, 0}, Point2D{20, 20}, Point2D{0, 20})
	m, err := s.Validate()
	require.NoError(t, err)
	assert.InDelta(t, 1.0, m.Value, 1e-9, "400px² at zoom 2 is 100px² at zoom 1")
	assert.Equal(t, "m²", m.Unit)
}

func TestSessionCalibrationFlow(t *testing.T) {
	s := NewSession(nil)
	require.NoError(t, s.SetTool(MeasurementCalibration))

	res := clickAll(t, s, Point2D{0, 0}, Point2D{200, 0})
	assert.Nil(t, res.Measurement)
	require.NotNil(t, res.Calibration)
	assert.InDelta(t, 200, res.Calibration.PixelDistance, 1e-9)
	assert.Empty(t, s.AllMeasurements(), "calibration does not produce a measurement")

	t.Run("invalid value keeps pending", func(t *testing.T) {
		_, err := s.CommitCalibration(-1, UnitMeter)
		require.ErrorIs(t, err, ErrInvalidCalibrationInput)
		assert.NotNil(t, s.PendingCalibration())
		assert.Equal(t, DefaultCalibrationFactor(), s.Calibration().Factor())
	})

	f, err := s.CommitCalibration(5, UnitMeter)
	require.NoError(t, err)
	assert.InDelta(t, 0.025, f.Value, 1e-12)
	assert.Nil(t, s.PendingCalibration())

	_, err = s.CommitCalibration(5, UnitMeter)
	assert.ErrorIs(t, err, ErrNoPendingCalibration)

	require.NoError(t, s.SetTool(MeasurementDistance))
	res = clickAll(t, s, Point2D{0, 0}, Point2D{0, 200})
	assert.InDelta(t, 5, res.Measurement.Value, 1e-9)
	assert.Equal(t, "m", res.Measurement.Unit)
}

func TestSessionCalibrationAtZoom(t *testing.T) {
	s := NewSession(nil)
	require.NoError(t, s.SetZoom(2))
	require.NoError(t, s.SetTool(MeasurementCalibration))

	res := clickAll(t, s, Point2D{0, 0}, Point2D{400, 0})
	require.NotNil(t, res.Calibration)
	assert.InDelta(t, 200, res.Calibration.PixelDistance, 1e-9)

	s.CancelCalibration()
	assert.Nil(t, s.PendingCalibration())
}

func TestSessionValuesAreFrozen(t *testing.T) {
	s := calibratedSession(t, 100, 1, UnitMeter)
	require.NoError(t, s.SetTool(MeasurementDistance))
	res := clickAll(t, s, Point2D{0, 0}, Point2D{100, 0})
	require.InDelta(t, 1, res.Measurement.Value, 1e-9)

	_, err := s.Calibration().Set(100, 2, UnitMeter)
	require.NoError(t, err)
	assert.InDelta(t, 1, s.AllMeasurements()[0].Value, 1e-9)
}

func TestSessionLabelAndProduct(t *testing.T) {
	s := NewSession(nil)
	require.NoError(t, s.SetTool(MeasurementDistance))

	product := &Product{Name: "Skirting", Category: "joinery", UnitPrice: 12.5, Unit: "m"}
	s.SetProduct(product)
	s.SetLabel("north wall")
	product.UnitPrice = 99

	res := clickAll(t, s, Point2D{0, 0}, Point2D{100, 0})
	assert.Equal(t, "north wall", res.Measurement.Label)
	require.NotNil(t, res.Measurement.Product)
	assert.Equal(t, 12.5, res.Measurement.Product.UnitPrice)

	res = clickAll(t, s, Point2D{0, 50}, Point2D{100, 50})
	assert.Equal(t, "distance 2", res.Measurement.Label, "labels apply to one measurement")

	s.SetProduct(nil)
	res = clickAll(t, s, Point2D{0, 90}, Point2D{100, 90})
	assert.Nil(t, res.Measurement.Product)
}

func TestSessionUndoAndClear(t *testing.T) {
	s := NewSession(nil)
	require.NoError(t, s.SetTool(MeasurementSurface))
	assert.False(t, s.Undo())

	clickAll(t, s, Point2D{0, 0}, Point2D{50, 0}, Point2D{50, 50})
	assert.True(t, s.Undo())
	assert.Equal(t, []Point2D{{0, 0}, {50, 0}}, s.Points())

	s.Clear()
	assert.Empty(t, s.Points())
	assert.Equal(t, StateIdle, s.State())
}

func TestSessionDeleteMeasurement(t *testing.T) {
	s := NewSession(nil)
	require.NoError(t, s.SetTool(MeasurementDistance))
	res := clickAll(t, s, Point2D{0, 0}, Point2D{100, 0})

	require.NoError(t, s.DeleteMeasurement(res.Measurement.ID))
	assert.Empty(t, s.AllMeasurements())
	assert.ErrorIs(t, s.DeleteMeasurement(res.Measurement.ID), ErrMeasurementNotFound)
}

func TestSessionMeasurementsPerPage(t *testing.T) {
	s := NewSession(nil)
	require.NoError(t, s.SetTool(MeasurementDistance))
	clickAll(t, s, Point2D{0, 0}, Point2D{100, 0})
	require.NoError(t, s.SetPage(2))
	clickAll(t, s, Point2D{0, 0}, Point2D{100, 0})
	clickAll(t, s, Point2D{0, 50}, Point2D{100, 50})

	assert.Len(t, s.Measurements(1), 1)
	assert.Len(t, s.Measurements(2), 2)
	assert.Len(t, s.AllMeasurements(), 3)
}

func TestSessionMeasurementsAreCopies(t *testing.T) {
	s := NewSession(nil)
	require.NoError(t, s.SetTool(MeasurementDistance))
	s.SetProduct(&Product{Name: "Skirting", Category: "joinery", UnitPrice: 12.5})
	res := clickAll(t, s, Point2D{0, 0}, Point2D{100, 0})

	res.Measurement.Points[0].X = 999
	s.Measurements(1)[0].Points[1].Y = 42
	s.AllMeasurements()[0].Product.UnitPrice = 1

	loaded := []Measurement{{ID: "m-1", Type: MeasurementDistance, Points: []Point2D{{0, 0}, {10, 0}}, PageNumber: 1}}
	s.LoadMeasurements(loaded)
	loaded[0].Points[0].X = 7

	stored := s.AllMeasurements()
	require.Len(t, stored, 2)
	assert.Equal(t, []Point2D{{0, 0}, {100, 0}}, stored[0].Points)
	assert.Equal(t, 12.5, stored[0].Product.UnitPrice)
	assert.Equal(t, []Point2D{{0, 0}, {10, 0}}, stored[1].Points)
}

type staticLineSource struct {
	result *DetectionResult
}

func (s staticLineSource) Lines(context.Context, int, float64) (*DetectionResult, error) {
	return s.result, nil
}

func TestSessionResolve(t *testing.T) {
	s := NewSession(nil)
	s.SetLineSource(staticLineSource{result: &DetectionResult{
		Lines: []DetectedLine{
			newDetectedLine(Point2D{0, 100}, Point2D{300, 100}),
			newDetectedLine(Point2D{150, 0}, Point2D{150, 300}),
		},
		Intersections: []Point2D{{150, 100}},
	}})
	require.NoError(t, s.SetTool(MeasurementDistance))
	ctx := context.Background()

	res, err := s.Resolve(ctx, Point2D{156, 104}, false)
	require.NoError(t, err)
	require.NotNil(t, res.Snap)
	assert.Equal(t, SourceIntersection, res.Snap.Source)
	assert.Equal(t, Point2D{150, 100}, res.Point)

	res, err = s.Resolve(ctx, Point2D{250, 250}, false)
	require.NoError(t, err)
	assert.Nil(t, res.Snap)
	assert.Equal(t, Point2D{250, 250}, res.Point)

	clickAll(t, s, Point2D{150, 100})
	res, err = s.Resolve(ctx, Point2D{350, 116}, true)
	require.NoError(t, err)
	assert.Nil(t, res.Snap)
	assert.True(t, res.Constrained)
	assert.Equal(t, Point2D{350, 100}, res.Point)

	// A snapped point already on an axis is left alone.
	res, err = s.Resolve(ctx, Point2D{250, 104}, true)
	require.NoError(t, err)
	require.NotNil(t, res.Snap)
	assert.Equal(t, SourcePerpendicular, res.Snap.Source)
	assert.False(t, res.Constrained)
	assert.InDelta(t, 250, res.Point.X, 1e-9)
	assert.Equal(t, 100.0, res.Point.Y)
}

func TestSessionResolveSnapsToUserPoints(t *testing.T) {
	s := NewSession(nil)
	require.NoError(t, s.SetTool(MeasurementDistance))
	clickAll(t, s, Point2D{10, 10}, Point2D{200, 10})

	res, err := s.Resolve(context.Background(), Point2D{205, 14}, false)
	require.NoError(t, err)
	require.NotNil(t, res.Snap)
	assert.Equal(t, SourceUserPoint, res.Snap.Source)
	assert.Equal(t, Point2D{200, 10}, res.Point)

	require.NoError(t, s.SetZoom(2))
	res, err = s.Resolve(context.Background(), Point2D{405, 22}, false)
	require.NoError(t, err)
	require.NotNil(t, res.Snap)
	assert.Equal(t, Point2D{400, 20}, res.Point, "stored points are rescaled to the view zoom")
}
