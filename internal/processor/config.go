package processor

import "github.com/linuxmatters/binmix/internal/params"

// DefaultBinauralGain is the gain in dB applied to the binaural tone.
const DefaultBinauralGain = 0.5

// Config holds the settings of a mixing run.
type Config struct {
	BuildDir     string  // intermediates, cache entries and output
	BinauralGain float64 // dB applied to the synthesized tone
	EffectGain   float64 // dB for effects that leave GAIN empty

	// MainsFrequency enables the hum check against 50 or 60 Hz
	// harmonics. Zero disables it.
	MainsFrequency int
}

// DefaultConfig returns the settings used when none are given.
func DefaultConfig() *Config {
	return &Config{
		BuildDir:     DefaultBuildDir,
		BinauralGain: DefaultBinauralGain,
		EffectGain:   params.DefaultEffectGain,
	}
}
