package jobs

import (
	"context"

	"github.com/phynics/monad-project-sub004/pkg/models"
)

// OutcomeKind is the terminal state one Reasoning Engine (C7) iteration of
// a Job reaches.
type OutcomeKind string

const (
	OutcomeComplete        OutcomeKind = "complete"
	OutcomeNeedInformation OutcomeKind = "needInformation"
	OutcomeError           OutcomeKind = "error"
)

// Outcome is C7's verdict for one Job run. Reason is only meaningful when
// Kind == OutcomeError.
type Outcome struct {
	Kind   OutcomeKind
	Reason string
}

// Runner drives a Job to completion using the Reasoning Engine, resolving
// the agent and constructing an executor bound to the job's session
// internally. A non-nil error here means the runner itself failed in a way
// C7 couldn't classify (e.g. the agent registry lookup failed); the
// Scheduler treats it the same as OutcomeError.
type Runner interface {
	Run(ctx context.Context, job models.Job) (Outcome, error)
}
