package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/alecthomas/kong"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"github.com/mattn/go-isatty"

	"github.com/linuxmatters/binmix/internal/cli"
	"github.com/linuxmatters/binmix/internal/config"
	"github.com/linuxmatters/binmix/internal/engine"
	"github.com/linuxmatters/binmix/internal/logging"
	"github.com/linuxmatters/binmix/internal/mains"
	"github.com/linuxmatters/binmix/internal/processor"
	"github.com/linuxmatters/binmix/internal/ui"
)

var (
	version = "0.0.1"
)

// CLI defines the command-line interface
type CLI struct {
	Audio        string   `group:"Mix" short:"a" type:"existingfile" placeholder:"file" help:"Base audio track to mix into"`
	Binaural     string   `group:"Mix" short:"b" placeholder:"spec" help:"Binaural tone, LEFT[-END]:RIGHT[-END] in Hz"`
	BinauralGain float64  `group:"Mix" name:"binaural-gain" placeholder:"db" default:"${binaural_gain}" help:"Gain applied to the binaural tone in dB (legacy: -bg)"`
	Effects      []string `group:"Mix" name:"effect" short:"e" sep:"none" placeholder:"spec" help:"Sound effect FILE:GAIN:OFFSET[:repeat=R], applied in the order given"`
	EffectGain   float64  `group:"Mix" name:"effect-gain" placeholder:"db" default:"${effect_gain}" help:"Gain for effects that leave GAIN empty"`
	BuildDir     string   `group:"Output" name:"build-dir" type:"path" placeholder:"dir" default:"${build_dir}" help:"Directory for intermediates and the mixed output"`
	Engine       string   `group:"Output" enum:"sox,native" default:"${engine}" help:"Audio engine: sox or native (16-bit WAV only)"`
	Plot         bool     `group:"Display" help:"Print the binaural sweep and effects tables"`
	PlotSteps    int      `group:"Display" name:"plot-steps" placeholder:"n" default:"${plot_steps}" help:"Rows in the sweep table"`
	HumCheck     bool     `group:"Output" name:"hum-check" negatable:"" default:"${hum_check}" help:"Warn when a carrier sits on a mains hum harmonic"`
	Logs         bool     `group:"Output" help:"Save a run report next to the output"`
	Plain        bool     `group:"Display" help:"Print plain progress lines instead of the interactive display"`
	Debug        bool     `group:"Display" help:"Write a debug log to binmix-debug.log"`
	WriteConfig  bool     `name:"write-config" help:"Save the effective settings to the config file and exit"`
	Version      bool     `short:"v" help:"Show version information"`
}

func main() {
	os.Exit(run())
}

func run() int {
	settings, err := config.Load()
	if err != nil {
		cli.PrintError(fmt.Sprintf("config: %v", err))
		return 1
	}

	cliArgs := &CLI{}
	parser := kong.Must(cliArgs,
		kong.Name("binmix"),
		kong.Description("Mix a binaural tone and timed sound effects into an audio track"),
		kong.UsageOnError(),
		kongVars(settings),
		kong.Help(cli.StyledHelpPrinter(kong.HelpOptions{Compact: true})),
	)
	ctx, err := parser.Parse(rewriteArgs(os.Args[1:]))
	parser.FatalIfErrorf(err)

	// Handle version flag
	if cliArgs.Version {
		cli.PrintVersion(version)
		return 0
	}

	if cliArgs.WriteConfig {
		return writeConfig(settings, cliArgs)
	}

	// Validate input
	if cliArgs.Audio == "" {
		cli.PrintError("No audio file specified (--audio)")
		_ = ctx.PrintUsage(false)
		return 1
	}
	if cliArgs.PlotSteps < 2 {
		cli.PrintError(fmt.Sprintf("--plot-steps must be at least 2, got %d", cliArgs.PlotSteps))
		return 1
	}

	runID := uuid.Must(uuid.NewV7()).String()
	logger, closeLog, err := newLogger(cliArgs.Debug)
	if err != nil {
		cli.PrintError(err.Error())
		return 1
	}
	defer closeLog()
	logger = logger.With("run", runID)
	if settings.Path != "" {
		logger.Debug("loaded settings", "path", settings.Path)
	}

	plan, err := processor.Parse(processor.Request{
		AudioPath: cliArgs.Audio,
		Binaural:  cliArgs.Binaural,
		Effects:   cliArgs.Effects,
	}, cliArgs.EffectGain)
	if err != nil {
		cli.PrintError(err.Error())
		return 1
	}
	if plan.Binaural == nil && len(plan.Effects) == 0 {
		cli.PrintNotice("No binaural or effects specified. Nothing to do.")
		return 0
	}

	eng, err := newEngine(cliArgs.Engine, settings, logger)
	if err != nil {
		cli.PrintError(err.Error())
		return 1
	}

	procConfig := &processor.Config{
		BuildDir:     cliArgs.BuildDir,
		BinauralGain: cliArgs.BinauralGain,
		EffectGain:   cliArgs.EffectGain,
	}
	var detection mains.Detection
	if cliArgs.HumCheck {
		detection = mains.Detect()
		procConfig.MainsFrequency = detection.Frequency
		logger.Debug("mains detected", "timezone", detection.Timezone, "country", detection.Country, "hz", detection.Frequency)
	}

	proc := processor.New(eng, procConfig, logger)
	plain := cliArgs.Plain || !isTerminal(os.Stdout)

	startTime := time.Now()
	var result *processor.Result
	if plain {
		proc.Progress = plainProgress(os.Stdout)
		result, err = proc.Run(plan)
	} else {
		outputPath := filepath.Join(procConfig.BuildDir, processor.MixedFilename(plan.AudioPath))
		result, err = runInteractive(proc, plan, outputPath)
	}
	endTime := time.Now()

	if err != nil {
		if errors.Is(err, processor.ErrNothingToDo) {
			cli.PrintNotice(err.Error())
			return 0
		}
		cli.PrintError(err.Error())
		return 1
	}

	if plain {
		for _, w := range result.Warnings {
			cli.PrintWarning(w)
		}
		if tips := logging.GenerateMixTips(result, procConfig); len(tips) > 0 {
			fmt.Print(logging.FormatMixTips(tips))
		}
	}

	if cliArgs.Plot {
		if err := printPlot(os.Stdout, result, cliArgs.PlotSteps); err != nil {
			cli.PrintWarning(fmt.Sprintf("plot: %v", err))
		}
	}

	// Generate run report if --logs flag is set
	if cliArgs.Logs {
		reportPath, err := logging.GenerateReport(logging.ReportData{
			RunID:        runID,
			Engine:       cliArgs.Engine,
			StartTime:    startTime,
			EndTime:      endTime,
			Result:       result,
			Config:       procConfig,
			SweepSteps:   cliArgs.PlotSteps,
			MainsCountry: detection.Country,
		})
		if err != nil {
			cli.PrintWarning(fmt.Sprintf("failed to write report: %v", err))
		} else {
			cli.PrintKeyValue(os.Stdout, "Report", reportPath)
		}
	}

	cli.PrintSuccess(result.OutputPath)
	return 0
}

// kongVars seeds flag defaults from the settings file.
func kongVars(settings *config.Config) kong.Vars {
	return kong.Vars{
		"version":       version,
		"binaural_gain": strconv.FormatFloat(settings.BinauralGain, 'f', -1, 64),
		"effect_gain":   strconv.FormatFloat(settings.EffectGain, 'f', -1, 64),
		"build_dir":     settings.BuildDir,
		"engine":        settings.Engine,
		"plot_steps":    strconv.Itoa(settings.PlotSteps),
		"hum_check":     strconv.FormatBool(settings.HumCheck),
	}
}

// writeConfig saves the settings as overridden by the command line.
func writeConfig(settings *config.Config, cliArgs *CLI) int {
	settings.BinauralGain = cliArgs.BinauralGain
	settings.EffectGain = cliArgs.EffectGain
	settings.BuildDir = cliArgs.BuildDir
	settings.Engine = cliArgs.Engine
	settings.PlotSteps = cliArgs.PlotSteps
	settings.HumCheck = cliArgs.HumCheck
	if err := settings.Validate(); err != nil {
		cli.PrintError(err.Error())
		return 1
	}

	path := settings.Path
	if path == "" {
		var err error
		if path, err = config.DefaultPath(); err != nil {
			cli.PrintError(err.Error())
			return 1
		}
	}
	if err := settings.Save(path); err != nil {
		cli.PrintError(err.Error())
		return 1
	}
	cli.PrintKeyValue(os.Stdout, "Saved", path)
	return 0
}

// newLogger returns the debug logger and a function that closes its file.
// Without --debug everything is discarded.
func newLogger(debug bool) (*slog.Logger, func(), error) {
	if !debug {
		return slog.New(slog.DiscardHandler), func() {}, nil
	}
	f, err := os.Create("binmix-debug.log")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create debug log: %w", err)
	}
	handler := slog.NewTextHandler(f, &slog.HandlerOptions{Level: slog.LevelDebug})
	return slog.New(handler), func() { _ = f.Close() }, nil
}

// newEngine builds the named audio engine.
func newEngine(name string, settings *config.Config, logger *slog.Logger) (engine.Engine, error) {
	switch name {
	case config.EngineNative:
		return engine.NewNative(logger), nil
	case config.EngineSoX:
		sox := engine.NewSoX(settings.SoxPath, settings.SoxiPath, logger)
		if err := sox.CheckInstalled(); err != nil {
			return nil, err
		}
		return sox, nil
	}
	return nil, fmt.Errorf("unknown engine %q", name)
}

func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// plainProgress prints one line per progress update.
func plainProgress(w io.Writer) processor.ProgressFunc {
	return func(stage processor.Stage, step, total int, detail string) {
		mark := "…"
		if step >= total {
			mark = "✓"
		}
		fmt.Fprintf(w, "%s %-9s %d/%d %s\n", mark, stage, step, total, detail)
	}
}

type outcome struct {
	result *processor.Result
	err    error
}

// runInteractive runs the pipeline behind the Bubbletea progress display.
func runInteractive(proc *processor.Processor, plan *processor.Plan, outputPath string) (*processor.Result, error) {
	model := ui.NewModel(plan, outputPath)
	proc.Progress = ui.Forward(model.ProgressChan)

	// No alt screen, so the summary stays on the terminal
	p := tea.NewProgram(model)

	done := make(chan outcome, 1)
	go func() {
		result, err := proc.Run(plan)
		done <- outcome{result, err}
		p.Send(ui.RunCompleteMsg{Result: result, Err: err})
	}()

	if _, err := p.Run(); err != nil {
		cli.PrintWarning(fmt.Sprintf("UI error: %v", err))
	}

	// Quitting the display early does not stop the engine; wait for it so
	// temporaries are cleaned up.
	out := <-done
	return out.result, out.err
}

// printPlot prints the sweep and effects tables.
func printPlot(w io.Writer, result *processor.Result, steps int) error {
	plan := result.Plan
	if plan.Binaural != nil {
		table, err := logging.RenderSweep(*plan.Binaural, result.Duration, steps)
		if err != nil {
			return err
		}
		fmt.Fprintln(w)
		fmt.Fprint(w, table)
	}
	if len(plan.Effects) > 0 {
		fmt.Fprintln(w)
		fmt.Fprint(w, logging.RenderEffects(plan.Effects))
	}
	fmt.Fprintln(w)
	return nil
}
