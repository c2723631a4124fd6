package logging

import (
	"strings"
	"testing"

	"github.com/linuxmatters/binmix/internal/params"
	"github.com/linuxmatters/binmix/internal/processor"
)

func TestWrapText(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		maxWidth int
		indent   string
		want     string
	}{
		{
			name:     "short_text_no_wrap",
			text:     "Hello world",
			maxWidth: 20,
			indent:   "  ",
			want:     "Hello world",
		},
		{
			name:     "long_text_wraps",
			text:     "Shift both carriers by a few Hz to avoid the hum",
			maxWidth: 30,
			indent:   "  ",
			want:     "Shift both carriers by a few\n  Hz to avoid the hum",
		},
		{
			name:     "single_long_word",
			text:     "supercalifragilisticexpialidocious",
			maxWidth: 10,
			indent:   "  ",
			want:     "supercalifragilisticexpialidocious",
		},
		{
			name:     "empty_input",
			text:     "",
			maxWidth: 20,
			indent:   "  ",
			want:     "",
		},
		{
			name:     "exact_fit",
			text:     "exactly twenty chars",
			maxWidth: 20,
			indent:   "  ",
			want:     "exactly twenty chars",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := wrapText(tt.text, tt.maxWidth, tt.indent)
			if got != tt.want {
				t.Errorf("wrapText() = %q, want %q", got, tt.want)
			}
		})
	}
}

// tipResult builds a result for a binaural spec and effect specs over a
// track of duration seconds.
func tipResult(t *testing.T, binaural string, duration float64, effects ...string) *processor.Result {
	t.Helper()
	plan, err := processor.Parse(processor.Request{
		AudioPath: "song.mp3",
		Binaural:  binaural,
		Effects:   effects,
	}, params.DefaultEffectGain)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return &processor.Result{Duration: duration, Plan: plan}
}

func ruleIDs(tips []MixTip) []string {
	ids := make([]string, len(tips))
	for i, tip := range tips {
		ids[i] = tip.RuleID
	}
	return ids
}

func TestTipRules(t *testing.T) {
	tests := []struct {
		name     string
		rule     tipRule
		binaural string
		effects  []string
		mainsHz  int
		wantRule string // empty when the rule should not fire
	}{
		{"hum on fundamental", tipMainsHum, "50:54", nil, 50, "mains_hum"},
		{"hum on sweep", tipMainsHum, "100:104-125", nil, 60, "mains_hum"},
		{"hum check disabled", tipMainsHum, "50:54", nil, 0, ""},
		{"clear of hum", tipMainsHum, "210:214", nil, 50, ""},
		{"identical carriers", tipNoBeat, "100:100", nil, 0, "no_beat"},
		{"beat present", tipNoBeat, "100:104", nil, 0, ""},
		{"slow beat", tipBeatTooSlow, "100:100.2", nil, 0, "beat_too_slow"},
		{"beat crosses zero", tipBeatTooSlow, "100-110:105", nil, 0, "beat_too_slow"},
		{"theta beat", tipBeatTooSlow, "100:106", nil, 0, ""},
		{"wide beat", tipBeatTooWide, "100:150", nil, 0, "beat_too_wide"},
		{"gamma beat", tipBeatTooWide, "100:140", nil, 0, "beat_too_wide"},
		{"beta beat", tipBeatTooWide, "100:120", nil, 0, ""},
		{"high carrier", tipCarrierTooHigh, "1200:1204", nil, 0, "carrier_too_high"},
		{"sweep into high carrier", tipCarrierTooHigh, "900-1100:904-1104", nil, 0, "carrier_too_high"},
		{"normal carrier", tipCarrierTooHigh, "200:204", nil, 0, ""},
		{"effect after end", tipEffectPastEnd, "", []string{"gong.wav::5", "bell.wav::60"}, 0, "effect_past_end"},
		{"effects inside track", tipEffectPastEnd, "", []string{"gong.wav::59.9"}, 0, ""},
		{"hot effect", tipHotGain, "", []string{"gong.wav:9:5"}, 0, "gain_clipping"},
		{"moderate effect", tipHotGain, "", []string{"gong.wav:6:5"}, 0, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := tipResult(t, tt.binaural, 60, tt.effects...)
			cfg := processor.DefaultConfig()
			cfg.MainsFrequency = tt.mainsHz

			tip := tt.rule(res, cfg)
			if (tip != nil) != (tt.wantRule != "") {
				t.Fatalf("rule returned tip=%v, want %q", tip, tt.wantRule)
			}
			if tip != nil && tip.RuleID != tt.wantRule {
				t.Errorf("RuleID = %q, want %q", tip.RuleID, tt.wantRule)
			}
		})
	}
}

func TestTipMessages(t *testing.T) {
	res := tipResult(t, "", 60, "fx/bell.wav::75")
	tip := tipEffectPastEnd(res, nil)
	if tip == nil || !strings.Contains(tip.Message, "fx/bell.wav starts at 75s but the track is only 60s long") {
		t.Errorf("unexpected effect_past_end tip: %+v", tip)
	}

	res = tipResult(t, "100:104", 60, "gong.wav:8:5")
	cfg := processor.DefaultConfig()
	cfg.BinauralGain = 7
	tip = tipHotGain(res, cfg)
	if tip == nil || !strings.Contains(tip.Message, "the binaural tone, gong.wav") {
		t.Errorf("unexpected gain_clipping tip: %+v", tip)
	}
}

func TestGenerateMixTips(t *testing.T) {
	t.Run("nothing to say", func(t *testing.T) {
		res := tipResult(t, "200:204", 60, "gong.wav::5")
		if tips := GenerateMixTips(res, processor.DefaultConfig()); len(tips) != 0 {
			t.Errorf("GenerateMixTips() = %v, want none", ruleIDs(tips))
		}
	})

	t.Run("no beat suppresses slow beat", func(t *testing.T) {
		res := tipResult(t, "100:100", 60)
		got := ruleIDs(GenerateMixTips(res, nil))
		if len(got) != 1 || got[0] != "no_beat" {
			t.Errorf("GenerateMixTips() = %v, want [no_beat]", got)
		}
	})

	t.Run("sorted by priority", func(t *testing.T) {
		res := tipResult(t, "50:100", 60, "gong.wav:9:90")
		cfg := processor.DefaultConfig()
		cfg.MainsFrequency = 50

		got := ruleIDs(GenerateMixTips(res, cfg))
		want := []string{"mains_hum", "effect_past_end", "beat_too_wide", "gain_clipping"}
		if strings.Join(got, ",") != strings.Join(want, ",") {
			t.Errorf("GenerateMixTips() = %v, want %v", got, want)
		}
	})

	t.Run("nil result", func(t *testing.T) {
		if tips := GenerateMixTips(nil, nil); tips != nil {
			t.Errorf("GenerateMixTips(nil) = %v, want nil", tips)
		}
	})
}

func TestFormatMixTips(t *testing.T) {
	tips := []MixTip{{Priority: 1, RuleID: "x", Message: "Short advice."}}
	if got, want := FormatMixTips(tips), "• Short advice.\n"; got != want {
		t.Errorf("FormatMixTips() = %q, want %q", got, want)
	}
}
