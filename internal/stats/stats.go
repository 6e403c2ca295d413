// Package stats reduces repeated measurements to the figures zbench reports.
package stats

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/stat"
)

// ErrNoSamples is returned when asked to summarise an empty sample.
var ErrNoSamples = errors.New("stats: no samples")

// MeanStdErr returns the arithmetic mean of samples and the standard error of
// that mean: the sample standard deviation (n-1 denominator) over sqrt(n).
// A single sample has a standard error of zero.
func MeanStdErr(samples []float64) (mean, stderr float64, err error) {
	n := len(samples)
	if n == 0 {
		return 0, 0, ErrNoSamples
	}
	if n == 1 {
		return samples[0], 0, nil
	}
	mean, std := stat.MeanStdDev(samples, nil)
	return mean, std / math.Sqrt(float64(n)), nil
}

// Ratio returns output over input. It is zero when input is not positive.
func Ratio(output, input float64) float64 {
	if input <= 0 {
		return 0
	}
	return output / input
}

// RelativePercent returns tv/tb*100 rounded to two decimal places.
func RelativePercent(tv, tb float64) float64 {
	return math.Round(tv/tb*100*100) / 100
}
