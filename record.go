package pdftakeoff

import (
	"time"

	"github.com/pkg/errors"
)

// MeasurementRecord is the plain record exchanged with persistence.
// Points are stored as [x, y] pairs.
type MeasurementRecord struct {
	ID         string       `json:"id,omitempty"`
	Type       string       `json:"type"`
	Label      string       `json:"label"`
	Value      float64      `json:"value"`
	Unit       string       `json:"unit"`
	PageNumber int          `json:"pageNumber"`
	ZoomLevel  float64      `json:"zoomLevel,omitempty"`
	Points     [][2]float64 `json:"points"`
	Product    *Product     `json:"product,omitempty"`
	Timestamp  *time.Time   `json:"timestamp,omitempty"`
}

// ToRecord converts a measurement to its persisted form.
func (m Measurement) ToRecord() MeasurementRecord {
	points := make([][2]float64, len(m.Points))
	for i, p := range m.Points {
		points[i] = [2]float64{p.X, p.Y}
	}
	rec := MeasurementRecord{
		ID:         m.ID,
		Type:       string(m.Type),
		Label:      m.Label,
		Value:      m.Value,
		Unit:       m.Unit,
		PageNumber: m.PageNumber,
		ZoomLevel:  m.ZoomLevel,
		Points:     points,
		Product:    m.Product,
	}
	if !m.Timestamp.IsZero() {
		ts := m.Timestamp
		rec.Timestamp = &ts
	}
	return rec
}

// FromRecord rebuilds a measurement from its persisted form. The stored
// value is kept; it is not recomputed. Records without a zoom level keep
// ZoomLevel 0 and are rescaled as if captured at 1.0.
func FromRecord(rec MeasurementRecord) (Measurement, error) {
	t := MeasurementType(rec.Type)
	rule, ok := toolRules[t]
	if !ok || t == MeasurementCalibration {
		return Measurement{}, errors.Wrapf(ErrUnknownTool, "record type %q", rec.Type)
	}
	if len(rec.Points) < rule.minPoints {
		return Measurement{}, errors.Wrapf(ErrInsufficientPoints, "%s record has %d points", rec.Type, len(rec.Points))
	}

	points := make([]Point2D, len(rec.Points))
	for i, p := range rec.Points {
		points[i] = Point2D{X: p[0], Y: p[1]}
	}
	m := Measurement{
		ID:         rec.ID,
		Type:       t,
		Label:      rec.Label,
		Points:     points,
		PageNumber: rec.PageNumber,
		ZoomLevel:  rec.ZoomLevel,
		Value:      rec.Value,
		Unit:       rec.Unit,
		Product:    rec.Product,
	}
	if rec.Timestamp != nil {
		m.Timestamp = *rec.Timestamp
	}
	return m, nil
}
