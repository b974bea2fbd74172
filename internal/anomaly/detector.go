// Package anomaly flags price history that should not be judged automatically.
package anomaly

import (
	"fmt"
	"math"
	"strconv"

	"github.com/newthinker/kachi/internal/core"
)

// DefaultGapThreshold is the day-over-day relative move treated as a data gap.
const DefaultGapThreshold = 0.20

// Detector scans daily series for abrupt gaps and split events.
type Detector struct {
	gapThreshold float64
}

// New creates a detector. A non-positive threshold selects DefaultGapThreshold.
func New(gapThreshold float64) *Detector {
	if gapThreshold <= 0 {
		gapThreshold = DefaultGapThreshold
	}
	return &Detector{gapThreshold: gapThreshold}
}

// Detect returns one message per anomaly, in series order.
func (d *Detector) Detect(daily []core.DailyPoint) []string {
	alerts := []string{}
	for i := 1; i < len(daily); i++ {
		prev, cur := daily[i-1], daily[i]
		if prev.AdjustedClose > 0 {
			gap := math.Abs(cur.AdjustedClose-prev.AdjustedClose) / prev.AdjustedClose
			if gap > d.gapThreshold {
				alerts = append(alerts, fmt.Sprintf("price gap detected: %.1f%% on %s", gap*100, cur.Date))
			}
		}
		if cur.SplitCoefficient != 0 && cur.SplitCoefficient != 1 {
			alerts = append(alerts, fmt.Sprintf("split event: coefficient %s on %s",
				strconv.FormatFloat(cur.SplitCoefficient, 'f', -1, 64), cur.Date))
		}
	}
	return alerts
}

// Detect runs a detector with the default threshold.
func Detect(daily []core.DailyPoint) []string {
	return New(DefaultGapThreshold).Detect(daily)
}
