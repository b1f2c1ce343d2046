package retention

import (
	"math"
	"time"
)

// decayFraction returns the fraction of baseline retention that remains
// after the given idle duration, according to the calibration table.
//
// Between adjacent calibration points the fraction is interpolated
// linearly in log(days) space, which fits the observed points closely
// without inventing a different curve shape. Beyond the last point the
// final segment's log-linear slope continues, floored at 0. Before the
// first point the fraction is interpolated linearly in plain days between
// 1.0 at zero idle time and the first point (log space is undefined at
// zero).
func decayFraction(elapsed time.Duration, calibration []CalibrationPoint) float64 {
	if len(calibration) == 0 {
		return 1.0
	}

	days := elapsed.Hours() / 24
	if days <= 0 {
		return 1.0
	}

	first := calibration[0]
	if days <= first.Days {
		return 1.0 + (first.Fraction-1.0)*(days/first.Days)
	}

	for i := 0; i < len(calibration)-1; i++ {
		lo, hi := calibration[i], calibration[i+1]
		if days <= hi.Days {
			return logLerp(days, lo, hi)
		}
	}

	// Extrapolate the last segment's slope.
	lo := calibration[len(calibration)-2]
	hi := calibration[len(calibration)-1]
	fraction := logLerp(days, lo, hi)
	if fraction < 0 {
		return 0
	}
	return fraction
}

// logLerp interpolates the fraction at the given day count on the
// log-linear segment between two calibration points.
func logLerp(days float64, lo, hi CalibrationPoint) float64 {
	span := math.Log(hi.Days) - math.Log(lo.Days)
	t := (math.Log(days) - math.Log(lo.Days)) / span
	return lo.Fraction + (hi.Fraction-lo.Fraction)*t
}

// Decay returns the retention score for a note with the given baseline
// weight that was last touched at updatedAt, observed at now. The result
// is clamped to [0,1].
func Decay(baseline float64, updatedAt, now time.Time, calibration []CalibrationPoint) float64 {
	score := baseline * decayFraction(now.Sub(updatedAt), calibration)
	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}
