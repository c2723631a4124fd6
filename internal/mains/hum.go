package mains

// HumTolerance is how close, in Hz, a carrier may come to a mains harmonic
// before it is reported.
const HumTolerance = 1.0

// HarmonicCount is the number of mains harmonics checked, starting with the
// fundamental.
const HarmonicCount = 4

// Harmonic is one multiple of the mains frequency.
type Harmonic struct {
	Order     int     // 1 for the fundamental
	Frequency float64 // Hz
}

// Conflicts returns the harmonics of mainsHz that a carrier running from
// start to end Hz passes within HumTolerance of. A constant carrier has
// start == end. The result is ordered by harmonic.
func Conflicts(start, end float64, mainsHz int) []Harmonic {
	if mainsHz <= 0 {
		return nil
	}
	lo, hi := min(start, end), max(start, end)

	var hits []Harmonic
	for order := 1; order <= HarmonicCount; order++ {
		f := float64(order * mainsHz)
		if f >= lo-HumTolerance && f <= hi+HumTolerance {
			hits = append(hits, Harmonic{Order: order, Frequency: f})
		}
	}
	return hits
}
