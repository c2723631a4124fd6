// Package processor composes a base track with a binaural tone and timed
// sound effects by driving an audio engine.
package processor

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"time"

	"github.com/linuxmatters/binmix/internal/engine"
	"github.com/linuxmatters/binmix/internal/mains"
	"github.com/linuxmatters/binmix/internal/params"
)

var (
	// ErrNothingToDo is returned when neither a binaural tone nor any effect
	// was requested.
	ErrNothingToDo = errors.New("nothing to do: no binaural tone or effects requested")
	// ErrNoOutput is returned when every stage succeeded but no output exists.
	ErrNoOutput = errors.New("no output file was produced")
	// ErrEndlessPastEnd is returned for an endless effect whose offset is at
	// or beyond the end of the base track.
	ErrEndlessPastEnd = errors.New("endless effect starts at or after the end of the track")
	// ErrUnsupportedRepeat is returned for a repeat mode the overlay stage
	// does not know how to render.
	ErrUnsupportedRepeat = errors.New("unsupported repeat mode")
)

// Stage identifies a step of the pipeline.
type Stage int

const (
	StageProbe Stage = iota
	StageResample
	StageBinaural
	StageOverlay
	StageFinalize
)

func (s Stage) String() string {
	switch s {
	case StageProbe:
		return "Probe"
	case StageResample:
		return "Resample"
	case StageBinaural:
		return "Binaural"
	case StageOverlay:
		return "Overlay"
	case StageFinalize:
		return "Finalize"
	}
	return fmt.Sprintf("Stage(%d)", int(s))
}

// ProgressFunc receives progress updates. step is the number of completed
// units out of total within a stage; step == total means the stage is done.
type ProgressFunc func(stage Stage, step, total int, detail string)

// Request is one mixing job as given on the command line.
type Request struct {
	AudioPath string
	Binaural  string   // empty for no binaural tone
	Effects   []string // in overlay order
}

// Plan is a parsed Request.
type Plan struct {
	AudioPath string
	Binaural  *params.BinauralParams
	Effects   []params.EffectParams
}

// Parse validates the binaural and effect arguments of req. effectGain is used for
// effects that leave GAIN empty.
func Parse(req Request, effectGain float64) (*Plan, error) {
	plan := &Plan{AudioPath: req.AudioPath}
	if req.Binaural != "" {
		bp, err := params.ParseBinaural(req.Binaural)
		if err != nil {
			return nil, err
		}
		plan.Binaural = &bp
	}
	for _, spec := range req.Effects {
		fx, err := params.ParseEffect(spec, effectGain)
		if err != nil {
			return nil, err
		}
		plan.Effects = append(plan.Effects, fx)
	}
	return plan, nil
}

// StageTiming records how long a stage took.
type StageTiming struct {
	Stage   Stage
	Elapsed time.Duration
}

// Result describes a completed run.
type Result struct {
	OutputPath string
	Duration   float64 // base track, seconds
	SampleRate int
	Plan       *Plan
	Resampled  map[string]string // effect file -> cache artifact
	Warnings   []string
	Timings    []StageTiming
	Removed    []string // temporaries deleted at the end of the run
}

// Processor runs the mixing pipeline.
type Processor struct {
	Engine   engine.Engine
	Config   *Config
	Logger   *slog.Logger
	Progress ProgressFunc

	cache *ResampleCache
}

// New returns a Processor. A nil config uses DefaultConfig.
func New(eng engine.Engine, config *Config, logger *slog.Logger) *Processor {
	if config == nil {
		config = DefaultConfig()
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Processor{Engine: eng, Config: config, Logger: logger}
}

// Process parses req and runs it.
func (p *Processor) Process(req Request) (*Result, error) {
	plan, err := Parse(req, p.Config.EffectGain)
	if err != nil {
		return nil, err
	}
	return p.Run(plan)
}

// Run executes plan:
//   - probe the base track for duration and sample rate
//   - resample every effect to that rate through the cache
//   - synthesize the binaural tone and mix it with the base, or pass the
//     base through
//   - overlay each effect in the given order
//
// Temporaries are removed on every exit path. The output is written to
// <build-dir>/<base>-mixed<ext>.
func (p *Processor) Run(plan *Plan) (result *Result, err error) {
	if plan.Binaural == nil && len(plan.Effects) == 0 {
		return nil, ErrNothingToDo
	}

	log := p.Logger.With("input", plan.AudioPath)
	l := newLayout(p.Config.BuildDir, plan.AudioPath)
	tmp := &artifacts{}
	wroteOutput := false
	res := &Result{OutputPath: l.output, Plan: plan}

	defer func() {
		res.Removed = tmp.release(log)
		if err != nil && wroteOutput {
			if rmErr := os.Remove(l.output); rmErr == nil {
				log.Debug("removed incomplete output", "path", l.output)
			}
		}
	}()

	if err := os.MkdirAll(l.dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create build directory: %w", err)
	}
	log.Info("mixing", "output", l.output, "effects", len(plan.Effects), "binaural", plan.Binaural != nil)

	// Probe
	err = p.stage(res, StageProbe, func() error {
		p.progress(StageProbe, 0, 1, plan.AudioPath)
		duration, err := p.Engine.Duration(plan.AudioPath)
		if err != nil {
			return err
		}
		rate, err := p.Engine.SampleRate(plan.AudioPath)
		if err != nil {
			return err
		}
		res.Duration, res.SampleRate = duration, rate
		log.Info("probed base track", "duration", duration, "rate", rate)
		p.progress(StageProbe, 1, 1, fmt.Sprintf("%.2fs @ %d Hz", duration, rate))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("probe: %w", err)
	}

	// Resample
	if len(plan.Effects) > 0 {
		err = p.stage(res, StageResample, func() error {
			if p.cache == nil || p.cache.dir != l.dir {
				p.cache = NewResampleCache(p.Engine, l.dir, log)
			}
			p.progress(StageResample, 0, 1, fmt.Sprintf("%d effect(s) to %d Hz", len(plan.Effects), res.SampleRate))
			resolved, err := p.cache.Resolve(plan.Effects, res.SampleRate)
			if err != nil {
				return err
			}
			res.Resampled = resolved
			p.progress(StageResample, 1, 1, fmt.Sprintf("%d file(s)", len(resolved)))
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("resample: %w", err)
		}
	}

	// Binaural, or passthrough of the base
	err = p.stage(res, StageBinaural, func() error {
		wroteOutput = true
		if plan.Binaural == nil {
			p.progress(StageBinaural, 0, 1, "no binaural tone")
			if err := p.Engine.Passthrough(plan.AudioPath, l.output); err != nil {
				return err
			}
			p.progress(StageBinaural, 1, 1, "skipped")
			return nil
		}

		bp := plan.Binaural
		res.Warnings = append(res.Warnings, p.humWarnings(bp)...)
		for _, w := range res.Warnings {
			log.Warn(w)
		}

		p.progress(StageBinaural, 0, 1, bp.String())
		tone := tmp.track(l.binaural())
		leftStart, leftEnd := bp.LeftRange()
		rightStart, rightEnd := bp.RightRange()
		log.Debug("synthesizing binaural tone",
			"left_start", leftStart, "left_end", leftEnd,
			"right_start", rightStart, "right_end", rightEnd,
			"gain", p.Config.BinauralGain)
		if err := p.Engine.Synthesize(tone, engine.Tone{
			Duration:   res.Duration,
			SampleRate: res.SampleRate,
			LeftFreq:   bp.LeftFreq,
			LeftEnd:    bp.LeftEnd,
			RightFreq:  bp.RightFreq,
			RightEnd:   bp.RightEnd,
			Gain:       p.Config.BinauralGain,
		}); err != nil {
			return err
		}
		if err := p.Engine.Mix(l.output, plan.AudioPath, tone); err != nil {
			return err
		}
		p.progress(StageBinaural, 1, 1, bp.String())
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("binaural: %w", err)
	}

	// Overlay
	if len(plan.Effects) > 0 {
		err = p.stage(res, StageOverlay, func() error {
			running := l.output
			for i, fx := range plan.Effects {
				p.progress(StageOverlay, i, len(plan.Effects), fx.String())
				next, err := p.overlay(i, fx, res.Resampled[fx.File], running, res.Duration, l, tmp)
				if err != nil {
					return fmt.Errorf("overlay effect %d (%s): %w", i, fx.File, err)
				}
				log.Info("overlaid effect", "index", i, "file", fx.File, "offset", fx.Offset, "gain", fx.Gain)
				running = next
			}
			if err := p.Engine.Passthrough(running, l.output); err != nil {
				return fmt.Errorf("finalize overlay: %w", err)
			}
			p.progress(StageOverlay, len(plan.Effects), len(plan.Effects), "done")
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	// Finalize
	err = p.stage(res, StageFinalize, func() error {
		p.progress(StageFinalize, 0, 1, l.output)
		if _, err := os.Stat(l.output); err != nil {
			return fmt.Errorf("%w: %s", ErrNoOutput, l.output)
		}
		p.progress(StageFinalize, 1, 1, l.output)
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info("mix complete", "output", l.output)
	return res, nil
}

// overlay renders effect i onto running and returns the new running mix.
func (p *Processor) overlay(i int, fx params.EffectParams, clip, running string, baseDuration float64, l layout, tmp *artifacts) (string, error) {
	if clip == "" {
		return "", fmt.Errorf("no resampled copy of %s", fx.File)
	}

	extended, err := p.extend(i, fx, clip, baseDuration, l, tmp)
	if err != nil {
		return "", err
	}

	padded := tmp.track(l.effectStage(i, "pad"))
	if err := p.Engine.PadAndGain(extended, padded, fx.Offset, fx.Gain); err != nil {
		return "", err
	}

	next := tmp.track(l.effect(i))
	if err := p.Engine.Mix(next, running, padded); err != nil {
		return "", err
	}
	return next, nil
}

// extend applies the effect's repeat mode to clip.
func (p *Processor) extend(i int, fx params.EffectParams, clip string, baseDuration float64, l layout, tmp *artifacts) (string, error) {
	if fx.Repeat == nil {
		return clip, nil
	}

	switch fx.Repeat.Mode {
	case params.RepeatTimes:
		times := fx.Repeat.Count()
		if times == 1 {
			return clip, nil
		}
		out := tmp.track(l.effectStage(i, "repeat"))
		if err := p.Engine.Repeat(clip, out, times); err != nil {
			return "", err
		}
		return out, nil

	case params.RepeatDuration:
		return p.loop(i, clip, fx.Repeat.Value, l, tmp)

	case params.RepeatEndless:
		remaining := baseDuration - fx.Offset
		if remaining <= 0 {
			return "", fmt.Errorf("%w: offset %gs, track %gs", ErrEndlessPastEnd, fx.Offset, baseDuration)
		}
		return p.loop(i, clip, remaining, l, tmp)

	default:
		return "", fmt.Errorf("%w: %v", ErrUnsupportedRepeat, fx.Repeat.Mode)
	}
}

// loop repeats clip until it covers seconds, then trims it to exactly that.
func (p *Processor) loop(i int, clip string, seconds float64, l layout, tmp *artifacts) (string, error) {
	clipDuration, err := p.Engine.Duration(clip)
	if err != nil {
		return "", err
	}
	if clipDuration <= 0 {
		return "", fmt.Errorf("cannot loop empty clip %s", clip)
	}

	src := clip
	if times := int(math.Ceil(seconds / clipDuration)); times > 1 {
		src = tmp.track(l.effectStage(i, "repeat"))
		if err := p.Engine.Repeat(clip, src, times); err != nil {
			return "", err
		}
	}

	trimmed := tmp.track(l.effectStage(i, "trim"))
	if err := p.Engine.Trim(src, trimmed, seconds); err != nil {
		return "", err
	}
	return trimmed, nil
}

func (p *Processor) humWarnings(bp *params.BinauralParams) []string {
	if p.Config.MainsFrequency <= 0 {
		return nil
	}

	var warnings []string
	check := func(channel string, start, end float64) {
		for _, h := range mains.Conflicts(start, end, p.Config.MainsFrequency) {
			warnings = append(warnings, fmt.Sprintf(
				"%s carrier %s Hz is within %g Hz of the %d Hz mains harmonic at %g Hz",
				channel, carrierString(start, end), mains.HumTolerance, p.Config.MainsFrequency, h.Frequency))
		}
	}
	leftStart, leftEnd := bp.LeftRange()
	rightStart, rightEnd := bp.RightRange()
	check("left", leftStart, leftEnd)
	check("right", rightStart, rightEnd)
	return warnings
}

func carrierString(start, end float64) string {
	if start == end {
		return fmt.Sprintf("%g", start)
	}
	return fmt.Sprintf("%g-%g", start, end)
}

func (p *Processor) stage(res *Result, stage Stage, fn func() error) error {
	p.Logger.Debug("stage start", "stage", stage.String())
	start := time.Now()
	err := fn()
	elapsed := time.Since(start)
	res.Timings = append(res.Timings, StageTiming{Stage: stage, Elapsed: elapsed})
	if err != nil {
		p.Logger.Error("stage failed", "stage", stage.String(), "elapsed", elapsed, "error", err)
		return err
	}
	p.Logger.Debug("stage done", "stage", stage.String(), "elapsed", elapsed)
	return nil
}

func (p *Processor) progress(stage Stage, step, total int, detail string) {
	if p.Progress != nil {
		p.Progress(stage, step, total, detail)
	}
}
