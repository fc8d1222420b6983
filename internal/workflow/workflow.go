// Package workflow owns the document processing pipeline: durable workflow
// instances, the orchestrator that advances them stage by stage, and the
// stores that persist their progress. Triggers are at-least-once; the
// orchestrator makes redelivery harmless by replaying from recorded results
// instead of repeating completed work.
package workflow

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Stage identifies a position in the pipeline.
type Stage string

const (
	StageStart           Stage = "Start"
	StageResolvingAccess Stage = "ResolvingAccess"
	StageAnalyzing       Stage = "Analyzing"
	StageMapping         Stage = "Mapping"
	StageSigning         Stage = "Signing"
	StageUploading       Stage = "Uploading"
	StageCompleted       Stage = "Completed"
)

// State is the lifecycle state of an instance.
type State string

const (
	StateRunning   State = "Running"
	StateCompleted State = "Completed"
	StateFailed    State = "Failed"
)

// Instance is a durable workflow execution. Results records the output of
// every completed stage; on redelivery the orchestrator consults it to skip
// work that already happened.
type Instance struct {
	ID           uuid.UUID                  `json:"id"`
	InputLocator string                     `json:"inputLocator"`
	CurrentStage Stage                      `json:"currentStage"`
	State        State                      `json:"state"`
	Results      map[Stage]json.RawMessage  `json:"results"`
	Failure      string                     `json:"failure,omitempty"`
	CreatedAt    time.Time                  `json:"createdAt"`
	UpdatedAt    time.Time                  `json:"updatedAt"`
}

// NewInstance creates a running instance for the given source document
// locator, positioned before the first stage.
func NewInstance(locator string) *Instance {
	now := time.Now().UTC()
	return &Instance{
		ID:           uuid.New(),
		InputLocator: locator,
		CurrentStage: StageStart,
		State:        StateRunning,
		Results:      make(map[Stage]json.RawMessage),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// Terminal reports whether the instance has finished, successfully or not.
func (i *Instance) Terminal() bool {
	return i.State == StateCompleted || i.State == StateFailed
}

// Result decodes the recorded output of a stage into v. The second return
// is false when the stage has not completed.
func (i *Instance) Result(stage Stage, v any) (bool, error) {
	raw, ok := i.Results[stage]
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return false, fmt.Errorf("decode %s result for %s: %w", stage, i.ID, err)
	}
	return true, nil
}

// RecordResult stores the output of a completed stage.
func (i *Instance) RecordResult(stage Stage, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s result for %s: %w", stage, i.ID, err)
	}
	i.Results[stage] = raw
	i.UpdatedAt = time.Now().UTC()
	return nil
}
