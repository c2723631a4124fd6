// Package sweep samples linear binaural frequency sweeps for display.
package sweep

import (
	"errors"
	"math"
)

// ErrTooFewSteps is returned when fewer than two sample points are requested.
var ErrTooFewSteps = errors.New("sweep needs at least 2 steps")

// Range is a channel's start and end frequency in Hz.
type Range struct {
	Start float64
	End   float64
}

// Constant returns a range that holds one frequency.
func Constant(freq float64) Range {
	return Range{Start: freq, End: freq}
}

// Point is one sample of a stereo sweep. Time is whole seconds.
type Point struct {
	Time  int
	Left  float64
	Right float64
}

// Interpolate returns steps evenly spaced points across duration seconds:
//
//	freq(i) = start + (end - start) * i / (steps - 1)
//	time(i) = floor(duration * i / (steps - 1))
//
// The first and last points carry the exact start and end frequencies.
func Interpolate(left, right Range, duration float64, steps int) ([]Point, error) {
	if steps < 2 {
		return nil, ErrTooFewSteps
	}

	last := steps - 1
	points := make([]Point, steps)
	for i := range points {
		points[i] = Point{
			Time:  int(math.Floor(duration * float64(i) / float64(last))),
			Left:  at(left, i, last),
			Right: at(right, i, last),
		}
	}
	return points, nil
}

func at(r Range, i, last int) float64 {
	switch i {
	case 0:
		return r.Start
	case last:
		return r.End
	}
	return r.Start + (r.End-r.Start)*float64(i)/float64(last)
}
