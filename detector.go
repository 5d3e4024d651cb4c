package pdftakeoff

import (
	"context"
	"image"
	"math"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/pkg/errors"
)

// DetectorConfig configures raster line detection.
type DetectorConfig struct {
	// CannyLow and CannyHigh are the hysteresis thresholds on gradient
	// magnitude (default: 50 and 150)
	CannyLow  float64 `yaml:"cannyLow"`
	CannyHigh float64 `yaml:"cannyHigh"`

	// AutoThresholds derives the Canny thresholds from the median page
	// intensity instead of CannyLow/CannyHigh (default: false)
	AutoThresholds bool `yaml:"autoThresholds"`

	// HoughThreshold is the minimum accumulator votes for a line (default: 50)
	HoughThreshold int `yaml:"houghThreshold"`

	// MinLineLength is the shortest segment kept, in pixels (default: 50)
	MinLineLength float64 `yaml:"minLineLength"`

	// MaxLineGap is the widest gap bridged inside a segment, in pixels (default: 10)
	MaxLineGap float64 `yaml:"maxLineGap"`

	// MaxDimension downsamples frames whose longest side exceeds it (default: 4096)
	MaxDimension int `yaml:"maxDimension"`

	// MergeTolerance collapses horizontal and vertical lines closer than this
	// many pixels into one, joining gaps up to MaxLineGap. Zero keeps every
	// detected line (default: 0)
	MergeTolerance float64 `yaml:"mergeTolerance"`

	// MaxIntersectionLines caps the lines considered for intersections,
	// keeping the longest (default: 500)
	MaxIntersectionLines int `yaml:"maxIntersectionLines"`

	// Seed makes the randomized Hough pass reproducible (default: 1)
	Seed uint64 `yaml:"seed"`
}

// DefaultDetectorConfig returns the default detection parameters.
func DefaultDetectorConfig() DetectorConfig {
	return DetectorConfig{
		CannyLow:             50,
		CannyHigh:            150,
		HoughThreshold:       50,
		MinLineLength:        50,
		MaxLineGap:           10,
		MaxDimension:         4096,
		MaxIntersectionLines: 500,
		Seed:                 1,
	}
}

// cannyThresholds returns the hysteresis thresholds for gray.
func (c DetectorConfig) cannyThresholds(gray *image.Gray) (float64, float64) {
	if !c.AutoThresholds {
		return c.CannyLow, c.CannyHigh
	}

	// Sample the page intensity; a full sort of a plan sheet is wasteful.
	const stride = 16
	samples := make([]float64, 0, len(gray.Pix)/stride+1)
	for i := 0; i < len(gray.Pix); i += stride {
		samples = append(samples, float64(gray.Pix[i]))
	}
	median := calculateMedian(samples)
	const sigma = 0.33
	return math.Max(0, (1-sigma)*median), math.Min(255, (1+sigma)*median)
}

// LineDetector finds straight line segments on a page raster.
type LineDetector interface {
	DetectLines(ctx context.Context, img image.Image) ([]DetectedLine, error)
}

// HoughDetector is a pure-Go detector: Canny edges followed by a
// probabilistic Hough transform.
type HoughDetector struct {
	config DetectorConfig
}

// NewHoughDetector creates a detector with the given configuration.
func NewHoughDetector(config DetectorConfig) *HoughDetector {
	return &HoughDetector{config: config}
}

// DetectLines implements LineDetector.
func (d *HoughDetector) DetectLines(ctx context.Context, img image.Image) ([]DetectedLine, error) {
	small, scale := downsample(img, d.config.MaxDimension)
	gray := toGray(small)

	low, high := d.config.cannyThresholds(gray)
	edges := cannyEdges(gray, low, high)

	threshold := d.config.HoughThreshold
	if threshold < 1 {
		threshold = 1
	}
	rng := rand.New(rand.NewPCG(d.config.Seed, d.config.Seed^0x9e3779b97f4a7c15))
	segments, err := probabilisticHough(ctx, edges, houghParams{
		rho:           1,
		theta:         math.Pi / 180,
		threshold:     threshold,
		minLineLength: d.config.MinLineLength * scale,
		maxLineGap:    d.config.MaxLineGap * scale,
	}, rng)
	if err != nil {
		return nil, errors.Wrap(err, "hough transform interrupted")
	}

	return segmentsToLines(segments, scale, img.Bounds().Min), nil
}

// DetectionResult holds the lines and intersections found on one page at
// one zoom level.
type DetectionResult struct {
	Key           PageKey
	Lines         []DetectedLine
	Intersections []Point2D
	Duration      time.Duration
}

// Detect runs detector over raster and derives the intersection set.
func Detect(ctx context.Context, detector LineDetector, raster *Raster, config DetectorConfig) (*DetectionResult, error) {
	if raster == nil || raster.Image == nil {
		return nil, errors.New("no raster to detect lines on")
	}
	start := time.Now()

	lines, err := detector.DetectLines(ctx, raster.Image)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to detect lines on page %d", raster.Page)
	}
	lines = mergeAxisLines(lines, config.MergeTolerance, config.MaxLineGap)

	return &DetectionResult{
		Key:           PageKey{Page: raster.Page, Zoom: raster.Zoom},
		Lines:         lines,
		Intersections: findIntersections(lines, config.MaxIntersectionLines),
		Duration:      time.Since(start),
	}, nil
}

// LineSource supplies detected lines for a page at a zoom level.
type LineSource interface {
	Lines(ctx context.Context, page int, zoom float64) (*DetectionResult, error)
}

type cacheEntry struct {
	done   chan struct{}
	result *DetectionResult
	err    error
}

// LineCache renders and detects each (page, zoom) at most once. Concurrent
// requests for the same key wait for the first; different keys proceed in
// parallel. Failed detections are not cached.
type LineCache struct {
	rasterizer PageRasterizer
	detector   LineDetector
	config     Config

	mu      sync.Mutex
	entries map[PageKey]*cacheEntry
}

// NewLineCache creates a cache over a rasterizer and detector.
func NewLineCache(rasterizer PageRasterizer, detector LineDetector, config Config) *LineCache {
	return &LineCache{
		rasterizer: rasterizer,
		detector:   detector,
		config:     config,
		entries:    make(map[PageKey]*cacheEntry),
	}
}

// Lines implements LineSource.
func (c *LineCache) Lines(ctx context.Context, page int, zoom float64) (*DetectionResult, error) {
	key := PageKey{Page: page, Zoom: zoom}

	c.mu.Lock()
	for {
		e, ok := c.entries[key]
		if !ok {
			break
		}
		c.mu.Unlock()
		select {
		case <-e.done:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		// A detection abandoned by its own caller is retried for ours.
		if !isContextErr(e.err) || ctx.Err() != nil {
			return e.result, e.err
		}
		c.mu.Lock()
	}
	e := &cacheEntry{done: make(chan struct{})}
	c.entries[key] = e
	c.mu.Unlock()

	e.result, e.err = c.detect(ctx, key)
	if e.err != nil {
		c.mu.Lock()
		if c.entries[key] == e {
			delete(c.entries, key)
		}
		c.mu.Unlock()
	}
	close(e.done)

	return e.result, e.err
}

func isContextErr(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

func (c *LineCache) detect(ctx context.Context, key PageKey) (*DetectionResult, error) {
	raster, err := c.rasterizer.RenderPage(key.Page, key.Zoom)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to render page %d at zoom %g", key.Page, key.Zoom)
	}
	raster.Page, raster.Zoom = key.Page, key.Zoom

	result, err := Detect(ctx, c.detector, raster, c.config.Detection)
	if err != nil {
		return nil, err
	}
	if c.config.EnableMetricsLogging {
		logDetectionMetrics(result)
	}
	return result, nil
}

// Prewarm detects lines for several pages concurrently and returns the
// first error encountered.
func (c *LineCache) Prewarm(ctx context.Context, pages []int, zoom float64) error {
	var wg sync.WaitGroup
	errs := make([]error, len(pages))
	for i, page := range pages {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = c.Lines(ctx, page, zoom)
		}()
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

// Invalidate drops every cached zoom level of page.
func (c *LineCache) Invalidate(page int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for key := range c.entries {
		if key.Page == page {
			delete(c.entries, key)
		}
	}
}

// Len returns the number of cached (page, zoom) entries.
func (c *LineCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
