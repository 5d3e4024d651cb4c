package pdftakeoff

import (
	"time"

	"github.com/flanksource/commons/logger"
)

// logDetectionMetrics logs the detection metrics in a readable format
func logDetectionMetrics(result *DetectionResult) {
	logger.Infof("┌─────────────────────────────────────────────┐")
	logger.Infof("│ Line Detection Metrics                      │")
	logger.Infof("├─────────────────────────────────────────────┤")
	logger.Infof("│ Page:          %-28d │", result.Key.Page)
	logger.Infof("│ Zoom:          %-28g │", result.Key.Zoom)
	logger.Infof("│ Time:          %-28v │", result.Duration.Round(time.Millisecond))
	logger.Infof("│ Lines:         %-28d │", len(result.Lines))
	logger.Infof("│ Intersections: %-28d │", len(result.Intersections))
	logger.Infof("└─────────────────────────────────────────────┘")
}
