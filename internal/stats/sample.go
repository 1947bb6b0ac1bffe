// Package stats implements a constant-memory running summary of a stream of
// measurements.
package stats

import "math"

// Sample accumulates a mean and an unbiased standard deviation using
// Welford's online update. No individual measurement is retained.
//
// The zero value is an empty sample ready for use. A Sample is not safe for
// concurrent use; callers serialize writes.
type Sample struct {
	n    uint64
	mean float64
	m2   float64
}

// Push folds x into the running summary.
func (s *Sample) Push(x float64) {
	s.n++
	delta := x - s.mean
	s.mean += delta / float64(s.n)
	s.m2 += delta * (x - s.mean)
}

// Mean returns the arithmetic mean and true, or false when the sample is empty.
func (s *Sample) Mean() (float64, bool) {
	if s.n == 0 {
		return 0, false
	}
	return s.mean, true
}

// StdDev returns the Bessel-corrected sample standard deviation and true, or
// false when fewer than two values have been pushed.
func (s *Sample) StdDev() (float64, bool) {
	if s.n < 2 {
		return 0, false
	}
	return math.Sqrt(s.m2 / float64(s.n-1)), true
}

// Len returns how many values have been pushed since the last Clear.
func (s *Sample) Len() int { return int(s.n) }

// IsEmpty reports whether no values have been pushed since the last Clear.
func (s *Sample) IsEmpty() bool { return s.n == 0 }

// Clear resets the sample to empty. Calling it on an empty sample is a no-op.
func (s *Sample) Clear() { *s = Sample{} }

// Summary is a point-in-time copy of a Sample suitable for presentation.
type Summary struct {
	N         int
	Mean      float64
	HasMean   bool
	StdDev    float64
	HasStdDev bool
}

// Summary captures the current state of s.
func (s *Sample) Summary() Summary {
	mean, okMean := s.Mean()
	sd, okSD := s.StdDev()
	return Summary{N: s.Len(), Mean: mean, HasMean: okMean, StdDev: sd, HasStdDev: okSD}
}
