//go:build gocv

package pdftakeoff

import (
	"context"
	"image"
	"math"

	"github.com/pkg/errors"
	"gocv.io/x/gocv"
)

// OpenCVDetector detects lines with OpenCV's Canny and probabilistic Hough
// implementations. It is only built with the gocv build tag.
type OpenCVDetector struct {
	config DetectorConfig
}

// NewOpenCVDetector creates an OpenCV-backed detector.
func NewOpenCVDetector(config DetectorConfig) *OpenCVDetector {
	return &OpenCVDetector{config: config}
}

// NewDefaultDetector returns the OpenCV detector in gocv builds.
func NewDefaultDetector(config DetectorConfig) LineDetector {
	return NewOpenCVDetector(config)
}

// DetectLines implements LineDetector.
func (d *OpenCVDetector) DetectLines(ctx context.Context, img image.Image) ([]DetectedLine, error) {
	small, scale := downsample(img, d.config.MaxDimension)
	gray := toGray(small)

	mat, err := gocv.NewMatFromBytes(gray.Rect.Dy(), gray.Rect.Dx(), gocv.MatTypeCV8UC1, gray.Pix)
	if err != nil {
		return nil, errors.Wrap(err, "failed to convert raster")
	}
	defer mat.Close()

	blurred := gocv.NewMat()
	defer blurred.Close()
	gocv.GaussianBlur(mat, &blurred, image.Point{X: 5, Y: 5}, 0, 0, gocv.BorderDefault)

	low, high := d.config.cannyThresholds(gray)
	edges := gocv.NewMat()
	defer edges.Close()
	gocv.Canny(blurred, &edges, float32(low), float32(high))

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	lines := gocv.NewMat()
	defer lines.Close()
	gocv.HoughLinesPWithParams(edges, &lines, 1, float32(math.Pi/180), d.config.HoughThreshold,
		float32(d.config.MinLineLength*scale), float32(d.config.MaxLineGap*scale))

	segments := make([]segment, 0, lines.Rows())
	for i := 0; i < lines.Rows(); i++ {
		v := lines.GetVeciAt(i, 0)
		segments = append(segments, segment{
			x0: int(v[0]), y0: int(v[1]),
			x1: int(v[2]), y1: int(v[3]),
		})
	}

	return segmentsToLines(segments, scale, img.Bounds().Min), nil
}
