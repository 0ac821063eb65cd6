// internal/services/pipeline_state.go
package services

import (
	"fmt"
	"sync"
)

// Stage is a step of a generation request.
type Stage string

const (
	StageIdle         Stage = "idle"
	StageUploading    Stage = "uploading"
	StageTranscribing Stage = "transcribing"
	StageGenerating   Stage = "generating"
	StageDone         Stage = "done"
	StageError        Stage = "error"
)

// Terminal reports whether no further transition is allowed.
func (s Stage) Terminal() bool {
	return s == StageDone || s == StageError
}

// PipelineKind selects the stage sequence of a request.
type PipelineKind string

const (
	PipelineAudio  PipelineKind = "audio"
	PipelineScript PipelineKind = "script"
)

var stageSequences = map[PipelineKind][]Stage{
	PipelineAudio:  {StageIdle, StageUploading, StageTranscribing, StageGenerating, StageDone},
	PipelineScript: {StageIdle, StageGenerating, StageDone},
}

// Transition checks that moving from one stage to the next is legal for kind.
// StageError is reachable from every non-terminal stage; otherwise only the
// next stage of the sequence is.
func Transition(kind PipelineKind, from, to Stage) error {
	seq, ok := stageSequences[kind]
	if !ok {
		return fmt.Errorf("unknown pipeline %q", kind)
	}
	if from.Terminal() {
		return fmt.Errorf("%s pipeline: stage %s is terminal", kind, from)
	}
	if to == StageError {
		return nil
	}
	for i := 0; i < len(seq)-1; i++ {
		if seq[i] == from {
			if seq[i+1] == to {
				return nil
			}
			break
		}
	}
	return fmt.Errorf("%s pipeline: illegal transition %s -> %s", kind, from, to)
}

// NextStage returns the stage after from in kind's sequence.
func NextStage(kind PipelineKind, from Stage) (Stage, bool) {
	seq := stageSequences[kind]
	for i := 0; i < len(seq)-1; i++ {
		if seq[i] == from {
			return seq[i+1], true
		}
	}
	return "", false
}

// Pipeline tracks the current stage of one request.
type Pipeline struct {
	kind  PipelineKind
	stage Stage
	mu    sync.Mutex
}

// NewPipeline starts a pipeline in StageIdle.
func NewPipeline(kind PipelineKind) *Pipeline {
	return &Pipeline{kind: kind, stage: StageIdle}
}

// Stage returns the current stage.
func (p *Pipeline) Stage() Stage {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stage
}

// Advance moves to stage to, rejecting illegal transitions.
func (p *Pipeline) Advance(to Stage) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := Transition(p.kind, p.stage, to); err != nil {
		return err
	}
	p.stage = to
	return nil
}
