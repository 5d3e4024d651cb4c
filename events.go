package pdftakeoff

import (
	"context"
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// EventKind names a discrete UI event.
type EventKind string

const (
	EventTool              EventKind = "tool"
	EventPage              EventKind = "page"
	EventZoom              EventKind = "zoom"
	EventClick             EventKind = "click"
	EventValidate          EventKind = "validate"
	EventClear             EventKind = "clear"
	EventUndo              EventKind = "undo"
	EventLabel             EventKind = "label"
	EventProduct           EventKind = "product"
	EventCalibrate         EventKind = "calibrate"
	EventCancelCalibration EventKind = "cancel-calibration"
	EventDelete            EventKind = "delete"
)

// Event is one UI interaction. Only the fields relevant to Kind are read.
type Event struct {
	Kind EventKind `yaml:"event" json:"event"`

	Tool string  `yaml:"tool,omitempty" json:"tool,omitempty"`
	Page int     `yaml:"page,omitempty" json:"page,omitempty"`
	Zoom float64 `yaml:"zoom,omitempty" json:"zoom,omitempty"`

	// Click position and resolution flags.
	X     float64 `yaml:"x,omitempty" json:"x,omitempty"`
	Y     float64 `yaml:"y,omitempty" json:"y,omitempty"`
	Snap  bool    `yaml:"snap,omitempty" json:"snap,omitempty"`
	Ortho bool    `yaml:"ortho,omitempty" json:"ortho,omitempty"`

	Label   string   `yaml:"label,omitempty" json:"label,omitempty"`
	Product *Product `yaml:"product,omitempty" json:"product,omitempty"`

	// Real-world length for a calibrate event.
	Value float64 `yaml:"value,omitempty" json:"value,omitempty"`
	Unit  string  `yaml:"unit,omitempty" json:"unit,omitempty"`

	ID string `yaml:"id,omitempty" json:"id,omitempty"`
}

// EventResult carries whatever an event produced.
type EventResult struct {
	Click       *ClickResult
	Measurement *Measurement
	Factor      *CalibrationFactor
}

// Apply dispatches an event to the session.
func (s *Session) Apply(ctx context.Context, e Event) (EventResult, error) {
	switch e.Kind {
	case EventTool:
		return EventResult{}, s.SetTool(MeasurementType(e.Tool))
	case EventPage:
		return EventResult{}, s.SetPage(e.Page)
	case EventZoom:
		return EventResult{}, s.SetZoom(e.Zoom)
	case EventClick:
		p := Point2D{X: e.X, Y: e.Y}
		if e.Snap || e.Ortho {
			res, err := s.resolveForEvent(ctx, p, e)
			if err != nil {
				return EventResult{}, err
			}
			p = res.Point
		}
		click, err := s.Click(p)
		if err != nil {
			return EventResult{}, err
		}
		return EventResult{Click: &click, Measurement: click.Measurement}, nil
	case EventValidate:
		m, err := s.Validate()
		return EventResult{Measurement: m}, err
	case EventClear:
		s.Clear()
	case EventUndo:
		s.Undo()
	case EventLabel:
		s.SetLabel(e.Label)
	case EventProduct:
		s.SetProduct(e.Product)
	case EventCalibrate:
		if e.Unit == "" {
			e.Unit = string(UnitPixel)
		}
		unit, err := ParseUnit(e.Unit)
		if err != nil {
			return EventResult{}, errors.Wrap(ErrInvalidCalibrationInput, err.Error())
		}
		factor, err := s.CommitCalibration(e.Value, unit)
		if err != nil {
			return EventResult{}, err
		}
		return EventResult{Factor: &factor}, nil
	case EventCancelCalibration:
		s.CancelCalibration()
	case EventDelete:
		return EventResult{}, s.DeleteMeasurement(e.ID)
	default:
		return EventResult{}, errors.Errorf("unknown event %q", e.Kind)
	}
	return EventResult{}, nil
}

// resolveForEvent resolves a click, skipping snapping when the event asked
// only for the orthogonal constraint.
func (s *Session) resolveForEvent(ctx context.Context, p Point2D, e Event) (Resolution, error) {
	if e.Snap {
		return s.Resolve(ctx, p, e.Ortho)
	}
	res := Resolution{Point: p}
	if len(s.points) > 0 {
		if q, ok := ConstrainOrthogonal(s.points[len(s.points)-1], p, s.config.Ortho); ok {
			res.Point, res.Constrained = q, true
		}
	}
	return res, nil
}

// LoadEvents reads an event script. YAML and JSON are both accepted.
func LoadEvents(path string) ([]Event, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read event script")
	}
	var events []Event
	if err := yaml.Unmarshal(data, &events); err != nil {
		return nil, errors.Wrapf(err, "failed to parse event script %s", path)
	}
	return events, nil
}
