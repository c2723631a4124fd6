package logging

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/linuxmatters/binmix/internal/mains"
	"github.com/linuxmatters/binmix/internal/params"
	"github.com/linuxmatters/binmix/internal/processor"
)

// MixTip is one piece of advice about a finished mix.
type MixTip struct {
	Priority int    // Higher = more important (1-10)
	Message  string // Human-readable advice (1-2 sentences)
	RuleID   string // Identifier for testing/logging (e.g., "no_beat")
}

// MaxMixTips is the maximum number of tips to return.
const MaxMixTips = 5

// Thresholds for the binaural rules.
const (
	maxCarrierHz  = 1000.0 // beats fade above this carrier
	minBeatHz     = 0.5
	maxBeatHz     = 35.0 // wider differences are heard as two tones
	hotGainDB     = 6.0
	floatEpsilon  = 1e-9
	tipWrapWidth  = 76
	tipWrapIndent = "  "
)

type tipRule func(res *processor.Result, cfg *processor.Config) *MixTip

// GenerateMixTips inspects a completed run and returns prioritised advice.
// cfg may be nil.
func GenerateMixTips(res *processor.Result, cfg *processor.Config) []MixTip {
	if res == nil || res.Plan == nil {
		return nil
	}

	rules := []tipRule{
		tipMainsHum,
		tipNoBeat,
		tipBeatTooSlow,
		tipBeatTooWide,
		tipCarrierTooHigh,
		tipEffectPastEnd,
		tipHotGain,
	}

	var tips []MixTip
	fired := make(map[string]bool)
	for _, rule := range rules {
		if tip := rule(res, cfg); tip != nil {
			tips = append(tips, *tip)
			fired[tip.RuleID] = true
		}
	}

	tips = applyExclusions(tips, fired)

	sort.SliceStable(tips, func(i, j int) bool {
		return tips[i].Priority > tips[j].Priority
	})

	if len(tips) > MaxMixTips {
		tips = tips[:MaxMixTips]
	}
	return tips
}

// applyExclusions drops tips made redundant by a more specific one.
func applyExclusions(tips []MixTip, fired map[string]bool) []MixTip {
	var result []MixTip
	for _, tip := range tips {
		if tip.RuleID == "beat_too_slow" && fired["no_beat"] {
			continue
		}
		result = append(result, tip)
	}
	return result
}

// FormatMixTips renders tips as a wrapped bullet list.
func FormatMixTips(tips []MixTip) string {
	var b strings.Builder
	for _, tip := range tips {
		b.WriteString("• ")
		b.WriteString(wrapText(tip.Message, tipWrapWidth, tipWrapIndent))
		b.WriteString("\n")
	}
	return b.String()
}

// wrapText wraps text at word boundaries to fit within maxWidth columns.
// Continuation lines are prefixed with indent.
func wrapText(text string, maxWidth int, indent string) string {
	words := strings.Fields(text)
	var lines []string
	currentLine := ""

	for _, word := range words {
		if currentLine == "" {
			currentLine = word
		} else if len(currentLine)+1+len(word) <= maxWidth {
			currentLine += " " + word
		} else {
			lines = append(lines, currentLine)
			currentLine = word
		}
	}
	if currentLine != "" {
		lines = append(lines, currentLine)
	}

	return strings.Join(lines, "\n"+indent)
}

// beatRange returns the smallest and largest absolute beat over the sweep.
// Both channels sweep linearly, so the difference does too.
func beatRange(bp *params.BinauralParams) (lo, hi float64) {
	leftStart, leftEnd := bp.LeftRange()
	rightStart, rightEnd := bp.RightRange()
	start, end := rightStart-leftStart, rightEnd-leftEnd
	if start*end < 0 {
		return 0, max(math.Abs(start), math.Abs(end))
	}
	return min(math.Abs(start), math.Abs(end)), max(math.Abs(start), math.Abs(end))
}

// tipMainsHum fires when a carrier passes a harmonic of the local mains.
func tipMainsHum(res *processor.Result, cfg *processor.Config) *MixTip {
	bp := res.Plan.Binaural
	if bp == nil || cfg == nil || cfg.MainsFrequency <= 0 {
		return nil
	}
	leftStart, leftEnd := bp.LeftRange()
	rightStart, rightEnd := bp.RightRange()
	hits := append(mains.Conflicts(leftStart, leftEnd, cfg.MainsFrequency),
		mains.Conflicts(rightStart, rightEnd, cfg.MainsFrequency)...)
	if len(hits) == 0 {
		return nil
	}
	return &MixTip{
		Priority: 9,
		RuleID:   "mains_hum",
		Message: fmt.Sprintf("A carrier passes %g Hz, a harmonic of %d Hz mains power. Listeners may hear it as electrical hum; shift both carriers by a few Hz.",
			hits[0].Frequency, cfg.MainsFrequency),
	}
}

// tipNoBeat fires when both carriers are identical for the whole track.
func tipNoBeat(res *processor.Result, _ *processor.Config) *MixTip {
	bp := res.Plan.Binaural
	if bp == nil {
		return nil
	}
	if _, hi := beatRange(bp); hi > floatEpsilon {
		return nil
	}
	return &MixTip{
		Priority: 8,
		RuleID:   "no_beat",
		Message:  "Left and right carriers are identical, so there is no binaural beat. Offset one channel by the beat you want, e.g. 100:104 for 4 Hz.",
	}
}

// tipBeatTooSlow fires when the beat drops below minBeatHz.
func tipBeatTooSlow(res *processor.Result, _ *processor.Config) *MixTip {
	bp := res.Plan.Binaural
	if bp == nil {
		return nil
	}
	if lo, _ := beatRange(bp); lo >= minBeatHz {
		return nil
	}
	return &MixTip{
		Priority: 5,
		RuleID:   "beat_too_slow",
		Message:  fmt.Sprintf("The beat falls below %g Hz, which is too slow for most listeners to perceive.", minBeatHz),
	}
}

// tipBeatTooWide fires when the carriers are so far apart that they are
// heard as two separate tones rather than a beat.
func tipBeatTooWide(res *processor.Result, _ *processor.Config) *MixTip {
	bp := res.Plan.Binaural
	if bp == nil {
		return nil
	}
	if _, hi := beatRange(bp); hi <= maxBeatHz {
		return nil
	}
	return &MixTip{
		Priority: 6,
		RuleID:   "beat_too_wide",
		Message:  fmt.Sprintf("The carriers differ by more than %g Hz and will be heard as two tones. Keep the difference under %g Hz.", maxBeatHz, maxBeatHz),
	}
}

// tipCarrierTooHigh fires when either carrier exceeds maxCarrierHz.
func tipCarrierTooHigh(res *processor.Result, _ *processor.Config) *MixTip {
	bp := res.Plan.Binaural
	if bp == nil {
		return nil
	}
	leftStart, leftEnd := bp.LeftRange()
	rightStart, rightEnd := bp.RightRange()
	if max(leftStart, leftEnd, rightStart, rightEnd) <= maxCarrierHz {
		return nil
	}
	return &MixTip{
		Priority: 7,
		RuleID:   "carrier_too_high",
		Message:  fmt.Sprintf("Binaural beats are faint with carriers above %g Hz. Carriers between 100 and 500 Hz work best.", maxCarrierHz),
	}
}

// tipEffectPastEnd fires when an effect starts after the base track ends,
// which lengthens the mix with the effect playing over silence.
func tipEffectPastEnd(res *processor.Result, _ *processor.Config) *MixTip {
	if res.Duration <= 0 {
		return nil
	}
	for _, fx := range res.Plan.Effects {
		if fx.Offset < res.Duration {
			continue
		}
		return &MixTip{
			Priority: 8,
			RuleID:   "effect_past_end",
			Message: fmt.Sprintf("%s starts at %ss but the track is only %ss long, so the mix runs past the original ending.",
				fx.File, formatNumber(fx.Offset), formatNumber(res.Duration)),
		}
	}
	return nil
}

// tipHotGain fires when any gain is high enough to risk clipping.
func tipHotGain(res *processor.Result, cfg *processor.Config) *MixTip {
	var hot []string
	if cfg != nil && res.Plan.Binaural != nil && cfg.BinauralGain > hotGainDB {
		hot = append(hot, "the binaural tone")
	}
	for _, fx := range res.Plan.Effects {
		if fx.Gain > hotGainDB {
			hot = append(hot, fx.File)
		}
	}
	if len(hot) == 0 {
		return nil
	}
	return &MixTip{
		Priority: 6,
		RuleID:   "gain_clipping",
		Message:  fmt.Sprintf("Gain above %g dB on %s may clip the mix. Lower it, or check the peaks of the output.", hotGainDB, strings.Join(hot, ", ")),
	}
}
