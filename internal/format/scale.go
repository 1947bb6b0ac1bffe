package format

import "fmt"

var timeUnits = [...]string{"ns", "µs", "ms", "s"}

// ScaleNanos expresses a mean and standard deviation given in nanoseconds in
// the largest unit that keeps the mean at or below 1000. Both values are
// divided by the same factor.
func ScaleNanos(mean, stddev float64) (float64, float64, string) {
	unit := 0
	for unit < len(timeUnits)-1 && mean > 1000 {
		mean /= 1000
		stddev /= 1000
		unit++
	}
	return mean, stddev, timeUnits[unit]
}

// BenchmarkLine renders one benchmark result:
//
//	answer (iterations: N, mean: x unit, stddev: y unit)
//
// hasStdDev false prints "n/a" in place of the standard deviation.
func BenchmarkLine(answer string, iterations int, meanNanos, stddevNanos float64, hasStdDev bool) string {
	mean, sd, unit := ScaleNanos(meanNanos, stddevNanos)
	stddev := "        n/a"
	if hasStdDev {
		stddev = fmt.Sprintf("%11.6f", sd)
	}
	return fmt.Sprintf("%-20s (iterations: %d, mean: %11.6f %2s, stddev: %s %2s)",
		answer, iterations, mean, unit, stddev, unit)
}
