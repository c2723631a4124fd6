package ui

import (
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/linuxmatters/binmix/internal/params"
	"github.com/linuxmatters/binmix/internal/processor"
)

func testPlan(effects int) *processor.Plan {
	plan := &processor.Plan{
		AudioPath: "audio/song.mp3",
		Binaural:  &params.BinauralParams{LeftFreq: 100, RightFreq: 104},
	}
	for range effects {
		plan.Effects = append(plan.Effects, params.EffectParams{File: "gong.wav", Gain: 0.5})
	}
	return plan
}

func update(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	return next.(Model)
}

func statuses(m Model) []StageStatus {
	out := make([]StageStatus, len(m.Stages))
	for i, s := range m.Stages {
		out[i] = s.Status
	}
	return out
}

func equalStatuses(a, b []StageStatus) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestPlanStages(t *testing.T) {
	tests := []struct {
		name    string
		effects int
		want    []processor.Stage
	}{
		{"binaural only", 0, []processor.Stage{
			processor.StageProbe, processor.StageBinaural, processor.StageFinalize,
		}},
		{"with effects", 2, []processor.Stage{
			processor.StageProbe, processor.StageResample, processor.StageBinaural,
			processor.StageOverlay, processor.StageFinalize,
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := PlanStages(testPlan(tt.effects))
			if len(got) != len(tt.want) {
				t.Fatalf("PlanStages() = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("stage %d = %v, want %v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestStageMessagesAdvanceModel(t *testing.T) {
	m := NewModel(testPlan(2), "build/song-mixed.mp3")
	if m.Current != -1 {
		t.Fatalf("Current = %d before any stage, want -1", m.Current)
	}

	m = update(t, m, StageMsg{Stage: processor.StageProbe, Step: 0, Total: 1, Detail: "audio/song.mp3"})
	want := []StageStatus{StatusRunning, StatusPending, StatusPending, StatusPending, StatusPending}
	if got := statuses(m); !equalStatuses(got, want) {
		t.Errorf("after probe start: %v, want %v", got, want)
	}

	m = update(t, m, StageMsg{Stage: processor.StageProbe, Step: 1, Total: 1, Detail: "60.00s @ 48000 Hz"})
	if m.Stages[0].Status != StatusDone {
		t.Errorf("probe status = %v, want done", m.Stages[0].Status)
	}
	if m.Stages[0].Detail != "60.00s @ 48000 Hz" {
		t.Errorf("probe detail = %q", m.Stages[0].Detail)
	}

	// Skipping ahead settles the stages in between
	m = update(t, m, StageMsg{Stage: processor.StageOverlay, Step: 1, Total: 2, Detail: "gong.wav"})
	want = []StageStatus{StatusDone, StatusDone, StatusDone, StatusRunning, StatusPending}
	if got := statuses(m); !equalStatuses(got, want) {
		t.Errorf("after overlay step: %v, want %v", got, want)
	}
	if p := m.Stages[3].Progress(); p != 0.5 {
		t.Errorf("overlay progress = %v, want 0.5", p)
	}
}

func TestStageMessageForUnplannedStageIgnored(t *testing.T) {
	m := NewModel(testPlan(0), "build/song-mixed.mp3")
	m = update(t, m, StageMsg{Stage: processor.StageOverlay, Step: 0, Total: 1})
	if m.Current != -1 {
		t.Errorf("Current = %d, want -1", m.Current)
	}
}

func TestRunCompleteSuccess(t *testing.T) {
	m := NewModel(testPlan(0), "build/song-mixed.mp3")
	m = update(t, m, StageMsg{Stage: processor.StageProbe, Step: 0, Total: 1})

	res := &processor.Result{
		OutputPath: "build/song-mixed.mp3",
		Duration:   90,
		SampleRate: 44100,
		Plan:       m.Plan,
		Warnings:   []string{"left carrier 100 Hz is close to mains"},
	}
	next, cmd := m.Update(RunCompleteMsg{Result: res})
	m = next.(Model)

	if !m.Done {
		t.Fatal("model not done after RunCompleteMsg")
	}
	if cmd == nil {
		t.Error("expected a quit command")
	}
	for i, s := range m.Stages {
		if s.Status != StatusDone {
			t.Errorf("stage %d status = %v, want done", i, s.Status)
		}
	}

	view := m.View()
	for _, want := range []string{"Mix Complete", "build/song-mixed.mp3", "1:30.0 @ 44100 Hz", "100:104", "! left carrier"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q:\n%s", want, view)
		}
	}
}

func TestRunCompleteFailure(t *testing.T) {
	m := NewModel(testPlan(1), "build/song-mixed.mp3")
	m = update(t, m, StageMsg{Stage: processor.StageProbe, Step: 1, Total: 1})
	m = update(t, m, StageMsg{Stage: processor.StageResample, Step: 0, Total: 1})
	m = update(t, m, RunCompleteMsg{Err: errors.New("resample gong.wav: exit status 2")})

	want := []StageStatus{StatusDone, StatusFailed, StatusPending, StatusPending, StatusPending}
	if got := statuses(m); !equalStatuses(got, want) {
		t.Errorf("statuses = %v, want %v", got, want)
	}
	view := m.View()
	if !strings.Contains(view, "Mix failed") || !strings.Contains(view, "exit status 2") {
		t.Errorf("unexpected failure view:\n%s", view)
	}
}

func TestRunCompleteFailureBeforeAnyStage(t *testing.T) {
	m := NewModel(testPlan(0), "build/song-mixed.mp3")
	m = update(t, m, RunCompleteMsg{Err: errors.New("failed to create build directory")})
	if m.Stages[0].Status != StatusFailed {
		t.Errorf("first stage status = %v, want failed", m.Stages[0].Status)
	}
}

func TestForwardDropsWhenFull(t *testing.T) {
	ch := make(chan tea.Msg, 1)
	progress := Forward(ch)

	progress(processor.StageProbe, 0, 1, "first")
	progress(processor.StageProbe, 1, 1, "second") // must not block

	msg := (<-ch).(StageMsg)
	if msg.Detail != "first" {
		t.Errorf("Detail = %q, want first", msg.Detail)
	}
	select {
	case extra := <-ch:
		t.Errorf("unexpected message %v", extra)
	default:
	}
}

func TestFormatElapsed(t *testing.T) {
	tests := []struct {
		seconds float64
		want    string
	}{
		{0, "0.0s"},
		{12.34, "12.3s"},
		{90, "1:30.0"},
		{605.5, "10:05.5"},
	}
	for _, tt := range tests {
		d := secondsDuration(tt.seconds)
		if got := formatElapsed(d); got != tt.want {
			t.Errorf("formatElapsed(%v) = %q, want %q", d, got, tt.want)
		}
	}
}
