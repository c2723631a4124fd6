package ui

import (
	"time"

	"github.com/linuxmatters/binmix/internal/processor"
)

// StageMsg reports progress within a pipeline stage
type StageMsg struct {
	Stage  processor.Stage
	Step   int
	Total  int
	Detail string
}

// RunCompleteMsg indicates the mix has finished, successfully or not
type RunCompleteMsg struct {
	Result *processor.Result
	Err    error
}

// tickMsg drives the spinner and elapsed timers
type tickMsg time.Time
