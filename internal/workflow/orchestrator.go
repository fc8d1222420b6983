package workflow

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/rsanzante/facturae-pipeline/internal/extraction"
)

// Orchestrator advances workflow instances through the pipeline. Progress
// is persisted after every stage, so a crash or redelivery resumes from the
// last recorded result rather than from the beginning.
type Orchestrator struct {
	store      Store
	activities Activities
	logger     *slog.Logger
}

// NewOrchestrator creates an orchestrator over the given store and stage
// implementations.
func NewOrchestrator(store Store, activities Activities, logger *slog.Logger) *Orchestrator {
	return &Orchestrator{
		store:      store,
		activities: activities,
		logger:     logger.With("system", "workflow"),
	}
}

// Start creates and persists a new instance for the locator. The instance
// is not advanced; dispatch happens separately so the trigger can return
// immediately.
func (o *Orchestrator) Start(ctx context.Context, locator string) (*Instance, error) {
	inst := NewInstance(locator)
	if err := o.store.Create(ctx, inst); err != nil {
		return nil, err
	}

	o.logger.Info("workflow accepted", "id", inst.ID, "locator", locator)
	return inst, nil
}

// Get returns the instance with the given id.
func (o *Orchestrator) Get(ctx context.Context, id uuid.UUID) (*Instance, error) {
	return o.store.Get(ctx, id)
}

// Run advances the instance to completion. Replaying a terminal instance is
// a no-op; replaying a running instance resumes after its last recorded
// stage. Any stage failure moves the instance to Failed without undoing
// recorded results.
func (o *Orchestrator) Run(ctx context.Context, id uuid.UUID) error {
	inst, err := o.store.Get(ctx, id)
	if err != nil {
		return err
	}
	if inst.Terminal() {
		o.logger.Info("workflow already terminal", "id", inst.ID, "state", inst.State)
		return nil
	}

	if err := o.advance(ctx, inst); err != nil {
		inst.State = StateFailed
		inst.Failure = err.Error()
		if saveErr := o.store.Save(ctx, inst); saveErr != nil {
			o.logger.Error("persist failed state", "id", inst.ID, "error", saveErr)
		}
		o.logger.Error("workflow failed", "id", inst.ID, "stage", inst.CurrentStage, "error", err)
		return err
	}

	inst.CurrentStage = StageCompleted
	inst.State = StateCompleted
	if err := o.store.Save(ctx, inst); err != nil {
		return err
	}

	o.logger.Info("workflow completed", "id", inst.ID)
	return nil
}

func (o *Orchestrator) advance(ctx context.Context, inst *Instance) error {
	grant, err := o.resolveAccess(ctx, inst)
	if err != nil {
		return err
	}

	fields, err := o.analyze(ctx, inst, grant)
	if err != nil {
		return err
	}

	mapped, err := o.mapDocument(ctx, inst, fields)
	if err != nil {
		return err
	}

	signed, err := o.sign(ctx, inst, mapped)
	if err != nil {
		return err
	}

	return o.upload(ctx, inst, grant, signed)
}

func (o *Orchestrator) resolveAccess(ctx context.Context, inst *Instance) (*AccessGrant, error) {
	var grant AccessGrant
	if ok, err := inst.Result(StageResolvingAccess, &grant); err != nil {
		return nil, err
	} else if ok {
		return &grant, nil
	}

	if err := o.transition(ctx, inst, StageResolvingAccess); err != nil {
		return nil, err
	}

	resolved, err := o.activities.ResolveAccess(ctx, inst.InputLocator)
	if err != nil {
		return nil, err
	}
	if err := o.record(ctx, inst, StageResolvingAccess, resolved); err != nil {
		return nil, err
	}
	return resolved, nil
}

func (o *Orchestrator) analyze(ctx context.Context, inst *Instance, grant *AccessGrant) (*extraction.FieldSet, error) {
	var fields extraction.FieldSet
	if ok, err := inst.Result(StageAnalyzing, &fields); err != nil {
		return nil, err
	} else if ok {
		return &fields, nil
	}

	if err := o.transition(ctx, inst, StageAnalyzing); err != nil {
		return nil, err
	}

	analyzed, err := o.activities.Analyze(ctx, grant)
	if err != nil {
		return nil, err
	}
	if err := o.record(ctx, inst, StageAnalyzing, analyzed); err != nil {
		return nil, err
	}
	return analyzed, nil
}

func (o *Orchestrator) mapDocument(ctx context.Context, inst *Instance, fields *extraction.FieldSet) (*MapResult, error) {
	var mapped MapResult
	if ok, err := inst.Result(StageMapping, &mapped); err != nil {
		return nil, err
	} else if ok {
		return &mapped, nil
	}

	if err := o.transition(ctx, inst, StageMapping); err != nil {
		return nil, err
	}

	result, err := o.activities.Map(ctx, fields)
	if err != nil {
		return nil, err
	}
	for _, w := range result.Warnings {
		o.logger.Warn("mapping inconsistency", "id", inst.ID, "field", w.Field, "detail", w.Detail)
	}
	if err := o.record(ctx, inst, StageMapping, result); err != nil {
		return nil, err
	}
	return result, nil
}

func (o *Orchestrator) sign(ctx context.Context, inst *Instance, mapped *MapResult) ([]byte, error) {
	var signed []byte
	if ok, err := inst.Result(StageSigning, &signed); err != nil {
		return nil, err
	} else if ok {
		return signed, nil
	}

	if err := o.transition(ctx, inst, StageSigning); err != nil {
		return nil, err
	}

	signed, err := o.activities.Sign(ctx, mapped.Document)
	if err != nil {
		return nil, err
	}
	if err := o.record(ctx, inst, StageSigning, signed); err != nil {
		return nil, err
	}
	return signed, nil
}

func (o *Orchestrator) upload(ctx context.Context, inst *Instance, grant *AccessGrant, signed []byte) error {
	var done UploadResult
	if ok, err := inst.Result(StageUploading, &done); err != nil || ok {
		return err
	}

	if err := o.transition(ctx, inst, StageUploading); err != nil {
		return err
	}

	result, err := o.activities.Upload(ctx, grant, signed)
	if err != nil {
		return err
	}
	return o.record(ctx, inst, StageUploading, result)
}

func (o *Orchestrator) transition(ctx context.Context, inst *Instance, stage Stage) error {
	inst.CurrentStage = stage
	inst.UpdatedAt = time.Now().UTC()
	if err := o.store.Save(ctx, inst); err != nil {
		return err
	}
	o.logger.Info("workflow stage", "id", inst.ID, "stage", stage)
	return nil
}

func (o *Orchestrator) record(ctx context.Context, inst *Instance, stage Stage, v any) error {
	if err := inst.RecordResult(stage, v); err != nil {
		return err
	}
	return o.store.Save(ctx, inst)
}
