package params

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// DefaultEffectGain is the gain in dB applied to an effect whose GAIN field is
// left empty.
const DefaultEffectGain = 0.5

const (
	binauralSeparator = ":"
	sweepSeparator    = "-"
	effectSeparator   = ":"

	optionRepeat         = "repeat="
	repeatTimesSuffix    = "x"
	repeatDurationSuffix = "s"
	repeatEndless        = "inf"
)

// Argument kinds reported by ParseError.
const (
	KindBinaural = "binaural"
	KindEffect   = "effect"
)

// ParseError reports a malformed binaural or effect argument. Input is the
// original string and Err the underlying cause.
type ParseError struct {
	Kind  string
	Input string
	Err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("invalid --%s format %q: %v", e.Kind, e.Input, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// ParseBinaural parses LEFT[-LEFT_END]:RIGHT[-RIGHT_END], e.g. "46-70:48-74"
// or "100:104".
func ParseBinaural(s string) (BinauralParams, error) {
	p, err := parseBinaural(s)
	if err != nil {
		return BinauralParams{}, &ParseError{Kind: KindBinaural, Input: s, Err: err}
	}
	return p, nil
}

func parseBinaural(s string) (BinauralParams, error) {
	left, right, ok := strings.Cut(s, binauralSeparator)
	if !ok {
		return BinauralParams{}, errors.New("missing ':' between left and right channels")
	}
	if strings.Contains(right, binauralSeparator) {
		return BinauralParams{}, errors.New("expected exactly one ':' between left and right channels")
	}

	leftFreq, leftEnd, err := parseChannel(left)
	if err != nil {
		return BinauralParams{}, fmt.Errorf("left channel: %w", err)
	}
	rightFreq, rightEnd, err := parseChannel(right)
	if err != nil {
		return BinauralParams{}, fmt.Errorf("right channel: %w", err)
	}

	return BinauralParams{
		LeftFreq:  leftFreq,
		LeftEnd:   leftEnd,
		RightFreq: rightFreq,
		RightEnd:  rightEnd,
	}, nil
}

// parseChannel parses FREQ or FREQ-END.
func parseChannel(s string) (float64, *float64, error) {
	parts := strings.Split(s, sweepSeparator)
	if len(parts) > 2 {
		return 0, nil, fmt.Errorf("%q: expected FREQ or FREQ-END", s)
	}

	freq, err := parseFrequency(parts[0])
	if err != nil {
		return 0, nil, err
	}
	if len(parts) == 1 {
		return freq, nil, nil
	}

	end, err := parseFrequency(parts[1])
	if err != nil {
		return 0, nil, err
	}
	return freq, &end, nil
}

func parseFrequency(s string) (float64, error) {
	f, err := parseFinite(s)
	if err != nil {
		return 0, err
	}
	if f <= 0 {
		return 0, fmt.Errorf("frequency must be positive, got %s", s)
	}
	return f, nil
}

// ParseEffect parses FILE:GAIN:OFFSET[:repeat=SPEC]. An empty GAIN takes
// defaultGain. SPEC is "<int>x", "<float>s" or "inf".
func ParseEffect(s string, defaultGain float64) (EffectParams, error) {
	e, err := parseEffect(s, defaultGain)
	if err != nil {
		return EffectParams{}, &ParseError{Kind: KindEffect, Input: s, Err: err}
	}
	return e, nil
}

func parseEffect(s string, defaultGain float64) (EffectParams, error) {
	parts := strings.Split(s, effectSeparator)
	if len(parts) < 2 {
		return EffectParams{}, errors.New("missing required fields, expected FILE:GAIN:OFFSET")
	}

	file := parts[0]
	if file == "" {
		return EffectParams{}, errors.New("effect file is required")
	}

	gain := defaultGain
	if parts[1] != "" {
		g, err := parseFinite(parts[1])
		if err != nil {
			return EffectParams{}, fmt.Errorf("gain: %w", err)
		}
		gain = g
	}

	if len(parts) < 3 || parts[2] == "" {
		return EffectParams{}, errors.New("offset (seconds) is required")
	}
	offset, err := parseFinite(parts[2])
	if err != nil {
		return EffectParams{}, fmt.Errorf("offset: %w", err)
	}
	if offset < 0 {
		return EffectParams{}, fmt.Errorf("offset must not be negative, got %s", parts[2])
	}

	var repeat *Repeat
	for _, opt := range parts[3:] {
		spec, ok := strings.CutPrefix(opt, optionRepeat)
		if !ok {
			return EffectParams{}, fmt.Errorf("unknown option %q", opt)
		}
		if repeat != nil {
			return EffectParams{}, errors.New("repeat given more than once")
		}
		r, err := ParseRepeat(spec)
		if err != nil {
			return EffectParams{}, err
		}
		repeat = &r
	}

	return EffectParams{
		File:   file,
		Gain:   gain,
		Offset: offset,
		Repeat: repeat,
	}, nil
}

// ParseRepeat parses the value of a repeat= clause.
func ParseRepeat(spec string) (Repeat, error) {
	switch {
	case spec == repeatEndless:
		return Endless(), nil

	case strings.HasSuffix(spec, repeatTimesSuffix):
		n, err := strconv.Atoi(strings.TrimSuffix(spec, repeatTimesSuffix))
		if err != nil {
			return Repeat{}, fmt.Errorf("invalid repeat times %q: %w", spec, err)
		}
		return Times(n)

	case strings.HasSuffix(spec, repeatDurationSuffix):
		d, err := parseFinite(strings.TrimSuffix(spec, repeatDurationSuffix))
		if err != nil {
			return Repeat{}, fmt.Errorf("invalid repeat duration %q: %w", spec, err)
		}
		return Duration(d)

	default:
		return Repeat{}, fmt.Errorf("invalid repeat value %q: use times (3%s), duration (2.5%s) or endless (%s)",
			spec, repeatTimesSuffix, repeatDurationSuffix, repeatEndless)
	}
}

// parseFinite parses a decimal number, rejecting NaN and infinities.
func parseFinite(s string) (float64, error) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(f) || isInf(f) {
		return 0, fmt.Errorf("%q is not a finite number", s)
	}
	return f, nil
}

func isInf(f float64) bool {
	return math.IsInf(f, 0)
}
