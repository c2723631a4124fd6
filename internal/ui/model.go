// Package ui provides the Bubbletea terminal user interface for binmix
package ui

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/linuxmatters/binmix/internal/processor"
)

// Spinner frames for the running stage
var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// StageStatus represents the state of a single pipeline stage
type StageStatus int

const (
	StatusPending StageStatus = iota
	StatusRunning
	StatusDone
	StatusFailed
)

// StageProgress tracks progress for one stage
type StageProgress struct {
	Stage  processor.Stage
	Status StageStatus

	Step   int
	Total  int
	Detail string

	StartTime time.Time
	Elapsed   time.Duration
}

// Progress returns the completed fraction, 0.0 to 1.0.
func (s StageProgress) Progress() float64 {
	if s.Total <= 0 {
		return 0
	}
	return min(float64(s.Step)/float64(s.Total), 1)
}

// Model is the Bubbletea model for the mixing UI
type Model struct {
	Plan       *processor.Plan
	OutputPath string

	Stages  []StageProgress
	Current int // index into Stages, -1 before the first stage

	StartTime time.Time
	Done      bool
	Result    *processor.Result
	Err       error

	// Channel for receiving stage updates from the processor
	ProgressChan chan tea.Msg

	// Terminal dimensions
	Width  int
	Height int

	spinnerIndex int
}

// PlanStages returns the stages a plan runs through, in order.
func PlanStages(plan *processor.Plan) []processor.Stage {
	stages := []processor.Stage{processor.StageProbe}
	if len(plan.Effects) > 0 {
		stages = append(stages, processor.StageResample)
	}
	stages = append(stages, processor.StageBinaural)
	if len(plan.Effects) > 0 {
		stages = append(stages, processor.StageOverlay)
	}
	return append(stages, processor.StageFinalize)
}

// NewModel creates a UI model for one run of plan
func NewModel(plan *processor.Plan, outputPath string) Model {
	planned := PlanStages(plan)
	stages := make([]StageProgress, len(planned))
	for i, s := range planned {
		stages[i] = StageProgress{Stage: s, Status: StatusPending}
	}

	return Model{
		Plan:         plan,
		OutputPath:   outputPath,
		Stages:       stages,
		Current:      -1,
		StartTime:    time.Now(),
		ProgressChan: make(chan tea.Msg, 100), // Buffered channel
	}
}

// Forward returns a ProgressFunc that delivers updates to ch without
// blocking the pipeline. Updates are dropped while ch is full.
func Forward(ch chan<- tea.Msg) processor.ProgressFunc {
	return func(stage processor.Stage, step, total int, detail string) {
		select {
		case ch <- StageMsg{Stage: stage, Step: step, Total: total, Detail: detail}:
		default:
		}
	}
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return tea.Batch(waitForProgress(m.ProgressChan), tickCmd())
}

// Update handles messages and updates the model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height

	case tickMsg:
		if m.Done {
			return m, nil
		}
		m.spinnerIndex = (m.spinnerIndex + 1) % len(spinnerFrames)
		if m.Current >= 0 && m.Stages[m.Current].Status == StatusRunning {
			m.Stages[m.Current].Elapsed = time.Since(m.Stages[m.Current].StartTime)
		}
		return m, tickCmd()

	case StageMsg:
		m = m.applyStage(msg)
		return m, waitForProgress(m.ProgressChan)

	case RunCompleteMsg:
		m.Done = true
		m.Result = msg.Result
		m.Err = msg.Err
		m = m.finish()
		return m, tea.Quit
	}

	return m, nil
}

// applyStage moves the stage list forward to msg.Stage and records its
// progress. Stages that were skipped over are marked done.
func (m Model) applyStage(msg StageMsg) Model {
	idx := m.indexOf(msg.Stage)
	if idx < 0 {
		return m
	}
	m.Stages = append([]StageProgress(nil), m.Stages...)

	now := time.Now()
	for i := max(m.Current, 0); i < idx; i++ {
		if m.Stages[i].Status == StatusRunning || m.Stages[i].Status == StatusPending {
			m.Stages[i].Status = StatusDone
		}
	}

	s := &m.Stages[idx]
	if s.Status == StatusPending {
		s.StartTime = now
	}
	s.Status = StatusRunning
	s.Step, s.Total, s.Detail = msg.Step, msg.Total, msg.Detail
	s.Elapsed = now.Sub(s.StartTime)
	if msg.Total > 0 && msg.Step >= msg.Total {
		s.Status = StatusDone
	}
	m.Current = idx
	return m
}

// finish settles every stage once the run has ended.
func (m Model) finish() Model {
	m.Stages = append([]StageProgress(nil), m.Stages...)
	for i := range m.Stages {
		s := &m.Stages[i]
		switch {
		case m.Err == nil:
			s.Status = StatusDone
		case s.Status == StatusRunning:
			s.Status = StatusFailed
		}
	}
	if m.Err != nil && m.Current < 0 && len(m.Stages) > 0 {
		m.Stages[0].Status = StatusFailed
	}
	return m
}

func (m Model) indexOf(stage processor.Stage) int {
	for i, s := range m.Stages {
		if s.Stage == stage {
			return i
		}
	}
	return -1
}

// View renders the UI
func (m Model) View() string {
	if m.Width == 0 && !m.Done {
		return fmt.Sprintf("Initializing...\nStages: %d\n", len(m.Stages))
	}

	if m.Done {
		return renderCompletionSummary(m)
	}

	return renderProcessingView(m)
}

// tickCmd returns a command that sends a tick message every 100ms
func tickCmd() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// waitForProgress creates a command that waits for progress messages
func waitForProgress(progressChan chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		return <-progressChan
	}
}
