package pipeline

import "github.com/vidsum/vidsum/internal/report"

// emitter serializes the progress events of one run. It enforces the
// channel contract: percents never decrease and exactly one terminal
// event is sent before close.
type emitter struct {
	ch       chan<- Event
	last     int
	terminal bool
}

func newEmitter(ch chan<- Event) *emitter {
	return &emitter{ch: ch}
}

func (e *emitter) progress(stage Stage, percent int, message string) {
	if e.terminal {
		return
	}
	if percent < e.last {
		percent = e.last
	}
	if percent > 99 {
		percent = 99
	}
	e.last = percent
	e.ch <- Event{Stage: stage, Percent: percent, Message: message}
}

func (e *emitter) complete(rep *report.Report, path string) {
	if e.terminal {
		return
	}
	e.terminal = true
	e.ch <- Event{
		Stage:      StageCompleted,
		Percent:    100,
		Message:    "summary ready",
		Terminal:   true,
		ReportPath: path,
		Report:     rep,
	}
}

func (e *emitter) fail(err *RunError) {
	if e.terminal {
		return
	}
	e.terminal = true
	e.ch <- Event{
		Stage:    StageFailed,
		Percent:  e.last,
		Message:  err.UserMessage,
		Terminal: true,
		Error:    err.UserMessage,
	}
}
