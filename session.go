package pdftakeoff

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/flanksource/commons/logger"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// PendingCalibration is a measured reference distance waiting for the user
// to supply its real-world length.
type PendingCalibration struct {
	PixelDistance float64 // normalized to zoom 1.0
	Points        []Point2D
	PageNumber    int
	ZoomLevel     float64
}

// ClickResult describes the outcome of a click.
type ClickResult struct {
	Point    Point2D
	Accepted bool // false when the click duplicated an in-progress point

	// Set when the click completed a fixed-count tool.
	Measurement *Measurement
	Calibration *PendingCalibration
}

// Resolution is a cursor position after snapping and the orthogonal constraint.
type Resolution struct {
	Point       Point2D
	Snap        *SnapCandidate // nil when nothing was in range
	Constrained bool           // true when the orthogonal constraint moved the point
}

// Session is a measurement workflow for one document. It owns the
// in-progress points and the finalized measurements, and converts values
// with a shared Calibration. A Session is not safe for concurrent use.
type Session struct {
	config      Config
	calibration *Calibration
	snapper     *SnapResolver
	lines       LineSource
	now         func() time.Time

	tool   MeasurementType
	state  State
	page   int
	zoom   float64
	points []Point2D

	label   string
	product *Product

	measurements []Measurement
	pending      *PendingCalibration
}

// NewSession creates a session with the default configuration.
func NewSession(calibration *Calibration) *Session {
	return NewSessionWithConfig(calibration, DefaultConfig())
}

// NewSessionWithConfig creates a session with a custom configuration. A nil
// calibration starts from the default factor.
func NewSessionWithConfig(calibration *Calibration, config Config) *Session {
	if calibration == nil {
		calibration = NewCalibration()
	}
	return &Session{
		config:      config,
		calibration: calibration,
		snapper:     NewSnapResolver(config.Snap),
		now:         time.Now,
		page:        1,
		zoom:        1.0,
	}
}

// SetLineSource attaches the detected-line provider used for snapping.
func (s *Session) SetLineSource(lines LineSource) {
	s.lines = lines
}

// Calibration returns the session's calibration.
func (s *Session) Calibration() *Calibration { return s.calibration }

// Tool returns the active tool, or "" when none is selected.
func (s *Session) Tool() MeasurementType { return s.tool }

// State returns the workflow state.
func (s *Session) State() State { return s.state }

// Page returns the current 1-based page number.
func (s *Session) Page() int { return s.page }

// Zoom returns the current zoom level.
func (s *Session) Zoom() float64 { return s.zoom }

// Points returns a copy of the in-progress points.
func (s *Session) Points() []Point2D { return slices.Clone(s.points) }

// PendingCalibration returns the reference distance awaiting a real value.
func (s *Session) PendingCalibration() *PendingCalibration { return s.pending }

// SetTool selects the active tool. Any in-progress points are discarded.
// An empty tool deselects.
func (s *Session) SetTool(tool MeasurementType) error {
	if tool != "" {
		if _, err := ParseTool(string(tool)); err != nil {
			return err
		}
	}
	s.discard("tool change")
	s.pending = nil
	s.tool = tool
	return nil
}

// SetPage switches to another page, discarding in-progress points.
func (s *Session) SetPage(page int) error {
	if page < 1 {
		return errors.Errorf("invalid page number %d", page)
	}
	if page != s.page {
		s.discard("page change")
		s.page = page
	}
	return nil
}

// SetZoom changes the render zoom, discarding in-progress points since they
// are bound to the previous scale.
func (s *Session) SetZoom(zoom float64) error {
	if !(zoom > 0) {
		return errors.Errorf("invalid zoom level %g", zoom)
	}
	if zoom != s.zoom {
		s.discard("zoom change")
		s.zoom = zoom
	}
	return nil
}

// SetLabel sets the label for the next finalized measurement.
func (s *Session) SetLabel(label string) { s.label = label }

// SetProduct sets the product attached to subsequent measurements. Nil
// detaches.
func (s *Session) SetProduct(product *Product) {
	if product == nil {
		s.product = nil
		return
	}
	p := *product
	s.product = &p
}

// Resolve applies snapping and then, when ortho is set and a point has
// already been placed, the orthogonal constraint relative to the last point.
func (s *Session) Resolve(ctx context.Context, cursor Point2D, ortho bool) (Resolution, error) {
	targets := SnapTargets{UserPoints: s.userPoints()}
	if s.lines != nil {
		result, err := s.lines.Lines(ctx, s.page, s.zoom)
		if err != nil {
			return Resolution{Point: cursor}, errors.Wrap(err, "failed to load detected lines")
		}
		targets.Lines = result.Lines
		targets.Intersections = result.Intersections
	}

	res := Resolution{Point: cursor}
	if c, ok := s.snapper.Resolve(cursor, targets); ok {
		res.Point = c.Point
		res.Snap = &c
	}
	if ortho && len(s.points) > 0 {
		if p, ok := ConstrainOrthogonal(s.points[len(s.points)-1], res.Point, s.config.Ortho); ok {
			res.Point = p
			res.Constrained = true
		}
	}
	return res, nil
}

// userPoints returns the points of measurements on the current page at the
// current zoom.
func (s *Session) userPoints() []Point2D {
	var points []Point2D
	for _, m := range s.measurements {
		if m.PageNumber == s.page {
			points = append(points, m.PointsAt(s.zoom)...)
		}
	}
	return points
}

// Click adds a resolved point to the active measurement. Clicks closer than
// DuplicateClickRadius to an in-progress point are ignored. Fixed-count
// tools finalize on their last point.
func (s *Session) Click(p Point2D) (ClickResult, error) {
	rule, ok := toolRules[s.tool]
	if !ok {
		return ClickResult{Point: p}, ErrNoActiveTool
	}

	for _, q := range s.points {
		if Distance(p, q) < s.config.DuplicateClickRadius {
			logger.Debugf("ignoring click at (%.1f, %.1f): duplicates (%.1f, %.1f)", p.X, p.Y, q.X, q.Y)
			return ClickResult{Point: p}, nil
		}
	}

	s.points = append(s.points, p)
	s.state = StateCollecting
	result := ClickResult{Point: p, Accepted: true}

	if rule.autoFinalize && len(s.points) >= rule.minPoints {
		result.Measurement, result.Calibration = s.finalize(rule)
	}
	return result, nil
}

// Validate finalizes an open-count tool (surface or perimeter), closing the
// ring. With too few points it returns ErrInsufficientPoints and changes
// nothing.
func (s *Session) Validate() (*Measurement, error) {
	rule, ok := toolRules[s.tool]
	if !ok {
		return nil, ErrNoActiveTool
	}
	if len(s.points) < rule.minPoints {
		return nil, errors.Wrapf(ErrInsufficientPoints, "%s needs %d points, have %d",
			s.tool, rule.minPoints, len(s.points))
	}

	m, _ := s.finalize(rule)
	return m, nil
}

// Undo removes the last in-progress point. It reports whether a point was removed.
func (s *Session) Undo() bool {
	if len(s.points) == 0 {
		return false
	}
	s.points = s.points[:len(s.points)-1]
	if len(s.points) == 0 {
		s.state = StateIdle
	}
	return true
}

// Clear discards the in-progress points.
func (s *Session) Clear() {
	s.discard("clear")
}

func (s *Session) discard(reason string) {
	if len(s.points) > 0 {
		logger.Debugf("discarding %d in-progress points (%s)", len(s.points), reason)
	}
	s.reset()
}

func (s *Session) reset() {
	s.points = nil
	s.state = StateIdle
}

// finalize computes the measurement from the in-progress points. The
// calibration tool yields a pending calibration instead of a measurement.
func (s *Session) finalize(rule toolRule) (*Measurement, *PendingCalibration) {
	s.state = StateFinalizing
	points := slices.Clone(s.points)
	raw := rule.compute(points)
	defer s.reset()

	if s.tool == MeasurementCalibration {
		s.pending = &PendingCalibration{
			PixelDistance: raw / s.zoom,
			Points:        points,
			PageNumber:    s.page,
			ZoomLevel:     s.zoom,
		}
		return nil, s.pending
	}

	factor := s.calibration.Factor()
	var value float64
	var unit string
	switch rule.exponent {
	case 0:
		value, unit = raw, "°"
	case 2:
		value, unit = factor.ToReal(raw/(s.zoom*s.zoom), 2), factor.Unit.Area()
	default:
		value, unit = factor.ToReal(raw/s.zoom, 1), string(factor.Unit)
	}

	m := Measurement{
		ID:         uuid.NewString(),
		Type:       s.tool,
		Label:      s.nextLabel(),
		Points:     points,
		PageNumber: s.page,
		ZoomLevel:  s.zoom,
		Value:      value,
		Unit:       unit,
		Timestamp:  s.now(),
	}
	if s.product != nil {
		p := *s.product
		m.Product = &p
	}
	s.label = ""
	s.measurements = append(s.measurements, m)

	out := m.clone()
	return &out, nil
}

func (s *Session) nextLabel() string {
	if s.label != "" {
		return s.label
	}
	n := 1
	for _, m := range s.measurements {
		if m.Type == s.tool {
			n++
		}
	}
	return fmt.Sprintf("%s %d", s.tool, n)
}

// CommitCalibration sets the calibration factor from the pending reference
// distance and the real-world length it represents. On invalid input the
// pending distance is kept so the caller can retry.
func (s *Session) CommitCalibration(realValue float64, unit Unit) (CalibrationFactor, error) {
	if s.pending == nil {
		return s.calibration.Factor(), ErrNoPendingCalibration
	}
	factor, err := s.calibration.Set(s.pending.PixelDistance, realValue, unit)
	if err != nil {
		return factor, err
	}
	s.pending = nil
	return factor, nil
}

// CancelCalibration drops the pending reference distance.
func (s *Session) CancelCalibration() {
	s.pending = nil
}

// Measurements returns the finalized measurements on a page.
func (s *Session) Measurements(page int) []Measurement {
	var out []Measurement
	for _, m := range s.measurements {
		if m.PageNumber == page {
			out = append(out, m.clone())
		}
	}
	return out
}

// AllMeasurements returns every finalized measurement in creation order.
func (s *Session) AllMeasurements() []Measurement {
	out := make([]Measurement, 0, len(s.measurements))
	for _, m := range s.measurements {
		out = append(out, m.clone())
	}
	return out
}

// LoadMeasurements appends previously persisted measurements. Their values
// are kept as stored.
func (s *Session) LoadMeasurements(measurements []Measurement) {
	for _, m := range measurements {
		s.measurements = append(s.measurements, m.clone())
	}
}

// DeleteMeasurement removes a finalized measurement by ID.
func (s *Session) DeleteMeasurement(id string) error {
	i := slices.IndexFunc(s.measurements, func(m Measurement) bool { return m.ID == id })
	if i < 0 {
		return errors.Wrapf(ErrMeasurementNotFound, "%q", id)
	}
	s.measurements = slices.Delete(s.measurements, i, i+1)
	return nil
}
