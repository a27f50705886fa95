//revive:disable-next-line:var-naming // legacy package name widely used across the project
package model

import "time"

// PipelineState is the generation pipeline state of a case.
type PipelineState string

const (
	PipelineStateIdle      PipelineState = "idle"
	PipelineStateQueued    PipelineState = "queued"
	PipelineStateRunning   PipelineState = "running"
	PipelineStateCompleted PipelineState = "completed"
	PipelineStateFailed    PipelineState = "failed"
)

// Terminal reports whether the pipeline has stopped.
func (s PipelineState) Terminal() bool {
	return s == PipelineStateCompleted || s == PipelineStateFailed
}

// PipelineStep names the stage a running pipeline is in.
type PipelineStep string

const (
	PipelineStepAnalysis   PipelineStep = "analysis"
	PipelineStepSections   PipelineStep = "sections"
	PipelineStepGeneration PipelineStep = "generation"
)

// PipelineStatus is the backend's view of a case's pipeline run.
// CurrentStep is nil when the pipeline is not running.
type PipelineStatus struct {
	CaseID      string        `json:"case_id"`
	Status      PipelineState `json:"status"`
	CurrentStep *PipelineStep `json:"current_step"`
	Progress    float64       `json:"progress"`
	StartedAt   *time.Time    `json:"started_at,omitempty"`
	CompletedAt *time.Time    `json:"completed_at,omitempty"`
	Error       string        `json:"error,omitempty"`
}
