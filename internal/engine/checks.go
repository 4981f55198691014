package engine

import (
	"context"

	"giracore/pkg/domain"
)

// Check defines an evaluation executed within a transaction boundary.
type Check interface {
	Name() string
	Evaluate(ctx context.Context, view domain.TransactionView, changes []Change) (Result, error)
}

// CheckEngine orchestrates check evaluation.
type CheckEngine struct {
	checks []Check
}

// NewCheckEngine constructs an engine instance.
func NewCheckEngine() *CheckEngine {
	return &CheckEngine{}
}

// NewDefaultCheckEngine builds a check engine with the built-in policy set.
func NewDefaultCheckEngine() *CheckEngine {
	engine := NewCheckEngine()
	engine.Register(NewTransportConflictCheck())
	engine.Register(NewLogisticsWindowCheck())
	return engine
}

// Register appends a check to the engine.
func (e *CheckEngine) Register(check Check) {
	e.checks = append(e.checks, check)
}

// Evaluate executes all registered checks and aggregates their results.
func (e *CheckEngine) Evaluate(ctx context.Context, view domain.TransactionView, changes []Change) (Result, error) {
	var combined Result
	for _, check := range e.checks {
		res, err := check.Evaluate(ctx, view, changes)
		if err != nil {
			return Result{}, err
		}
		combined.Merge(res)
	}
	return combined, nil
}
