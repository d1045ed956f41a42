// Package engine implements the orchestration engine: a per-instance state
// machine that sequences pipeline activities against a durable history log.
//
// The engine separates decision from effect. What to do next is a pure
// function of recorded history (Reduce); everything nondeterministic -- the
// network, the clock, model output -- happens inside an activity, and only the
// activity's recorded result feeds back into the decision. On restart the
// engine replays history and re-issues only the activity without a recorded
// success. Activities may therefore be invoked more than once for the same
// logical step and must be safely re-runnable.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/precislabs/precis/internal/history"
	"github.com/precislabs/precis/pkg/lifecycle"
	"github.com/precislabs/precis/pkg/retry"
)

// Activity is a single side-effecting, independently retryable unit of work.
// Input and output are serialized payloads recorded verbatim in history.
type Activity interface {
	Name() string
	Execute(ctx context.Context, input string) (string, error)
}

// Stage pairs an activity with the instance state that running it implies.
type Stage struct {
	Activity Activity
	State    history.State
}

// Engine drives workflow instances through their stages. Instances for
// distinct correlation keys run fully concurrently; within one instance
// execution is strictly sequential.
type Engine struct {
	store  history.Store
	stages []Stage
	policy retry.Policy
	logger *slog.Logger

	ctx     context.Context
	mu      sync.Mutex
	running map[string]struct{}
	wg      sync.WaitGroup
}

// New creates an Engine over the given store and stage sequence.
func New(store history.Store, policy retry.Policy, logger *slog.Logger, stages ...Stage) *Engine {
	return &Engine{
		store:   store,
		stages:  stages,
		policy:  policy,
		logger:  logger.With("system", "engine"),
		ctx:     context.Background(),
		running: make(map[string]struct{}),
	}
}

// Start binds the engine to the lifecycle coordinator: in-flight instances
// are resumed on startup, and shutdown waits for instance goroutines to
// observe cancellation.
func (e *Engine) Start(lc *lifecycle.Coordinator) error {
	e.ctx = lc.Context()

	lc.OnStartup(func() {
		e.wg.Add(1)
		go func() {
			defer e.wg.Done()
			if err := e.Resume(lc.Context()); err != nil {
				e.logger.Error("instance resume failed", "error", err)
			}
		}()
	})

	lc.OnShutdown(func() {
		<-lc.Context().Done()
		e.wg.Wait()
		e.logger.Info("engine drained")
	})

	return nil
}

// StartInstance registers a new workflow instance and begins executing it in
// the background. Store conflict errors (duplicate id, active correlation
// key) pass through unchanged so callers can treat redelivery as a no-op.
func (e *Engine) StartInstance(ctx context.Context, instanceID, correlationKey, input string) error {
	inst := history.Instance{
		ID:             instanceID,
		CorrelationKey: correlationKey,
		State:          history.StateScheduled,
		Input:          input,
	}

	if err := e.store.CreateInstance(ctx, inst); err != nil {
		return err
	}

	if _, err := e.store.Append(ctx, instanceID, history.Event{
		Type:  history.EventInstanceScheduled,
		Input: input,
	}); err != nil {
		return fmt.Errorf("record scheduling: %w", err)
	}

	e.logger.Info("instance scheduled", "instance_id", instanceID, "correlation_key", correlationKey)
	e.dispatch(instanceID)
	return nil
}

// resumeConcurrency bounds how many instances replay at once during Resume.
const resumeConcurrency = 4

// Resume drives every non-terminal instance to its next stopping point,
// at most resumeConcurrency at a time. Replay decides where each one left
// off; recorded successes are never re-issued. Resume returns once every
// resumed instance finishes or a store failure aborts the pass.
func (e *Engine) Resume(ctx context.Context) error {
	instances, err := e.store.ActiveInstances(ctx)
	if err != nil {
		return fmt.Errorf("load active instances: %w", err)
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(resumeConcurrency)
	for _, inst := range instances {
		if !e.claim(inst.ID) {
			continue
		}
		g.Go(func() error {
			defer e.release(inst.ID)
			e.logger.Info("resuming instance", "instance_id", inst.ID, "state", inst.State)
			return e.run(ctx, inst.ID)
		})
	}

	return g.Wait()
}

// claim marks an instance as running in this process. It returns false when
// another goroutine already holds it.
func (e *Engine) claim(instanceID string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, active := e.running[instanceID]; active {
		return false
	}
	e.running[instanceID] = struct{}{}
	return true
}

func (e *Engine) release(instanceID string) {
	e.mu.Lock()
	delete(e.running, instanceID)
	e.mu.Unlock()
}

// dispatch starts the run goroutine for an instance unless one is already
// active in this process.
func (e *Engine) dispatch(instanceID string) {
	if !e.claim(instanceID) {
		return
	}

	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		defer e.release(instanceID)

		if err := e.run(e.ctx, instanceID); err != nil {
			e.logger.Error("instance run aborted", "instance_id", instanceID, "error", err)
		}
	}()
}

// run advances one instance until it reaches a terminal state or the context
// is cancelled. Each iteration replays history, decides the next stage, and
// executes it under the retry policy, recording every attempt before acting
// on it.
func (e *Engine) run(ctx context.Context, instanceID string) error {
	for {
		if err := ctx.Err(); err != nil {
			return nil
		}

		events, err := e.store.Load(ctx, instanceID)
		if err != nil {
			return fmt.Errorf("load history: %w", err)
		}

		// An instance row without a scheduled event means the process died
		// between registration and the first append. The instance record
		// carries the input, so the history can be repaired and replayed.
		if len(events) == 0 {
			if err := e.repairSchedule(ctx, instanceID); err != nil {
				return err
			}
			continue
		}

		progress := Reduce(e.stages, events)
		if progress.Terminal() {
			// History won the race against the state row. Repair the
			// denormalized state so the correlation key frees up.
			if err := e.store.SetState(ctx, instanceID, progress.State); err != nil {
				return fmt.Errorf("set terminal state: %w", err)
			}
			return nil
		}

		if progress.NextIndex >= len(e.stages) {
			return e.complete(ctx, instanceID)
		}

		stage := e.stages[progress.NextIndex]
		if err := e.store.SetState(ctx, instanceID, stage.State); err != nil {
			return fmt.Errorf("set state: %w", err)
		}

		done, err := e.executeStage(ctx, instanceID, stage, progress)
		if err != nil {
			return err
		}
		if done {
			continue
		}
		return nil
	}
}

// repairSchedule appends the scheduled event for an instance whose history is
// empty, recovering the input from the instance record.
func (e *Engine) repairSchedule(ctx context.Context, instanceID string) error {
	inst, err := e.store.Instance(ctx, instanceID)
	if err != nil {
		return fmt.Errorf("load instance: %w", err)
	}

	if _, err := e.store.Append(ctx, instanceID, history.Event{
		Type:  history.EventInstanceScheduled,
		Input: inst.Input,
	}); err != nil {
		return fmt.Errorf("record scheduling: %w", err)
	}

	e.logger.Warn("repaired missing schedule event", "instance_id", instanceID)
	return nil
}

// executeStage runs one stage to a recorded success or failure verdict.
// It returns (true, nil) when a success was recorded and the pipeline should
// advance, (false, nil) when the instance reached Failed or the context was
// cancelled mid-wait.
func (e *Engine) executeStage(ctx context.Context, instanceID string, stage Stage, progress Progress) (bool, error) {
	logger := e.logger.With("instance_id", instanceID, "activity", stage.Activity.Name())

	for attempt := progress.Attempts + 1; ; attempt++ {
		result, execErr := stage.Activity.Execute(ctx, progress.NextInput)
		if execErr == nil {
			_, err := e.store.Append(ctx, instanceID, history.Event{
				Type:     history.EventActivityCompleted,
				Activity: stage.Activity.Name(),
				Attempt:  attempt,
				Input:    progress.NextInput,
				Result:   result,
			})
			if err != nil {
				return false, fmt.Errorf("record completion: %w", err)
			}

			logger.Info("activity completed", "attempt", attempt)
			return true, nil
		}

		kind := Classify(execErr)
		_, err := e.store.Append(ctx, instanceID, history.Event{
			Type:      history.EventActivityFailed,
			Activity:  stage.Activity.Name(),
			Attempt:   attempt,
			Input:     progress.NextInput,
			ErrorKind: kind,
			Error:     execErr.Error(),
		})
		if err != nil {
			return false, fmt.Errorf("record failure: %w", err)
		}

		logger.Warn("activity failed", "attempt", attempt, "kind", kind, "error", execErr)

		if kind.Permanent() || e.policy.Exhausted(attempt) {
			return false, e.fail(ctx, instanceID, stage.Activity.Name(), kind, execErr)
		}

		select {
		case <-ctx.Done():
			return false, nil
		case <-time.After(e.policy.Delay(attempt)):
		}
	}
}

func (e *Engine) complete(ctx context.Context, instanceID string) error {
	if _, err := e.store.Append(ctx, instanceID, history.Event{
		Type: history.EventInstanceCompleted,
	}); err != nil {
		return fmt.Errorf("record completion: %w", err)
	}

	if err := e.store.SetState(ctx, instanceID, history.StateCompleted); err != nil {
		return fmt.Errorf("set completed state: %w", err)
	}

	e.logger.Info("instance completed", "instance_id", instanceID)
	return nil
}

func (e *Engine) fail(ctx context.Context, instanceID, activity string, kind history.ErrorKind, cause error) error {
	if _, err := e.store.Append(ctx, instanceID, history.Event{
		Type:      history.EventInstanceFailed,
		Activity:  activity,
		ErrorKind: kind,
		Error:     cause.Error(),
	}); err != nil {
		return fmt.Errorf("record failure: %w", err)
	}

	if err := e.store.SetState(ctx, instanceID, history.StateFailed); err != nil {
		return fmt.Errorf("set failed state: %w", err)
	}

	e.logger.Error(
		"instance failed",
		"instance_id", instanceID,
		"activity", activity,
		"kind", kind,
		"error", cause,
	)
	return nil
}

// Wait blocks until all in-process instance goroutines finish. Intended for
// tests that need deterministic completion.
func (e *Engine) Wait() {
	e.wg.Wait()
}
