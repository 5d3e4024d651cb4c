//go:build !gocv

package pdftakeoff

// NewDefaultDetector returns the pure-Go Hough detector. Builds with the gocv
// tag return the OpenCV detector instead.
func NewDefaultDetector(config DetectorConfig) LineDetector {
	return NewHoughDetector(config)
}
