package domain

// OutcomeStatus classifies what happened to one command of a batch.
type OutcomeStatus string

const (
	OutcomeApplied       OutcomeStatus = "applied"
	OutcomeNotFound      OutcomeStatus = "not_found"
	OutcomeUnknownAction OutcomeStatus = "unknown_action"
	OutcomeInvalid       OutcomeStatus = "invalid"
	OutcomeFailed        OutcomeStatus = "failed"
)

// Outcome is the result of attempting a single command.
type Outcome struct {
	Index     int           `json:"index"`
	Action    Action        `json:"action,omitempty"`
	TargetID  string        `json:"targetId,omitempty"`
	ElementID string        `json:"elementId,omitempty"` // set for applied commands
	Status    OutcomeStatus `json:"status"`
	Reason    string        `json:"reason,omitempty"`
	Err       error         `json:"-"`
}

// Applied reports whether the command mutated the document.
func (o Outcome) Applied() bool {
	return o.Status == OutcomeApplied
}

// Report collects the outcomes of one batch, in input order.
type Report struct {
	Outcomes []Outcome `json:"outcomes"`
}

// Applied returns the number of commands that were found and applied.
func (r Report) Applied() int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Applied() {
			n++
		}
	}
	return n
}

// Skipped returns every outcome that did not apply.
func (r Report) Skipped() []Outcome {
	var out []Outcome
	for _, o := range r.Outcomes {
		if !o.Applied() {
			out = append(out, o)
		}
	}
	return out
}

// Count returns how many outcomes carry the given status.
func (r Report) Count(status OutcomeStatus) int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Status == status {
			n++
		}
	}
	return n
}
