package ai

import "context"

// ResultBag is the loosely-typed payload returned by the planning service.
// Upstream exposes its output under varying keys; use ResponseText and the
// other probes in normalize.go instead of reading keys directly.
type ResultBag map[string]any

// RunResult is the outcome of one planning-service run. PlanID is the opaque
// external handle used to resume execution after a human approval.
type RunResult struct {
	PlanID string
	State  string
	Bag    ResultBag
}

// Runner abstracts the external planning/execution service: run a task,
// return a result bag. Calls may fail with transient or fatal errors.
type Runner interface {
	Run(ctx context.Context, task string) (*RunResult, error)
	ContinueRun(ctx context.Context, planID, reason string) (*RunResult, error)
}
