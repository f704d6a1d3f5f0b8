package requesttrace

import (
	"context"

	"github.com/google/uuid"
)

type contextKey string

const ctxRunInfo contextKey = "STORELENS_RUN_TRACE"

// ActorKind represents who initiated an operation.
type ActorKind string

const (
	// ActorKindOperator marks an operation started by a human at the CLI.
	ActorKindOperator ActorKind = "operator"
	// ActorKindScheduler marks an operation started by scheduled maintenance.
	ActorKindScheduler ActorKind = "scheduler"
	// ActorKindSystem marks internal operations with no external initiator.
	ActorKindSystem ActorKind = "system"
)

// RunInfo captures operation-scoped metadata needed for traceability and
// auditing. RunID ties every log line and side effect of one invocation
// together; Shop is set once the operation has resolved its target tenant.
type RunInfo struct {
	ActorKind ActorKind
	RunID     string
	Shop      *string
}

// NewRunID returns a fresh identifier for one operation.
func NewRunID() string {
	return uuid.NewString()
}

// Operator returns a RunInfo for a human-initiated operation.
// An empty runID gets a fresh one.
func Operator(runID string) RunInfo {
	return newRun(ActorKindOperator, runID)
}

// Scheduler returns a RunInfo for a cron-initiated operation.
func Scheduler(runID string) RunInfo {
	return newRun(ActorKindScheduler, runID)
}

// System returns a RunInfo for internal operations.
func System(runID string) RunInfo {
	return newRun(ActorKindSystem, runID)
}

func newRun(kind ActorKind, runID string) RunInfo {
	if runID == "" {
		runID = NewRunID()
	}
	return RunInfo{ActorKind: kind, RunID: runID}
}

// WithShop returns a copy of the RunInfo bound to a shop domain.
func (r RunInfo) WithShop(shopDomain string) RunInfo {
	r.Shop = &shopDomain
	return r
}

// IntoContext stores the RunInfo in the provided context.
func IntoContext(ctx context.Context, run RunInfo) context.Context {
	return context.WithValue(ctx, ctxRunInfo, run)
}

// FromContext extracts the RunInfo from context, returning false when not present.
func FromContext(ctx context.Context) (RunInfo, bool) {
	if ctx == nil {
		return RunInfo{}, false
	}
	v := ctx.Value(ctxRunInfo)
	if v == nil {
		return RunInfo{}, false
	}

	run, ok := v.(RunInfo)
	return run, ok
}

// FromContextOrSystem returns the RunInfo stored on the context, or a fresh
// system record when absent.
func FromContextOrSystem(ctx context.Context) RunInfo {
	if run, ok := FromContext(ctx); ok {
		return run
	}
	return System("")
}
