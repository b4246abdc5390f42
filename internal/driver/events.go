package driver

import "time"

// Stage identifies a step of the per-file analysis pipeline.
type Stage uint8

const (
	StageQueued Stage = iota
	StageParse
	StageBind
	StageCheck
)

// Status reports how a file is moving through a stage.
type Status uint8

const (
	StatusQueued Status = iota
	StatusWorking
	StatusDone
	StatusError
)

// Event is emitted as files progress through the pipeline. An empty File
// names a run-wide stage change.
type Event struct {
	File   string
	Stage  Stage
	Status Status
}

// PhaseStatus reports whether a timing phase started or finished.
type PhaseStatus int

const (
	PhaseStart PhaseStatus = iota
	PhaseEnd
)

// PhaseEvent describes a timing phase boundary.
type PhaseEvent struct {
	Name    string
	Status  PhaseStatus
	Elapsed time.Duration
}

// PhaseObserver receives phase events emitted during CheckFile.
type PhaseObserver func(PhaseEvent)
