package domain

// Outcome is the result of a connection request
type Outcome string

const (
	OutcomeCreated          Outcome = "created"
	OutcomeAlreadyExists    Outcome = "already_exists"
	OutcomeSelfLoopRejected Outcome = "self_loop_rejected"
	OutcomeCapacityExceeded Outcome = "capacity_exceeded"
)

// String returns the outcome identifier
func (o Outcome) String() string {
	return string(o)
}

// Mutated reports whether the outcome changed graph state
func (o Outcome) Mutated() bool {
	return o == OutcomeCreated
}

// Err maps rejected outcomes to their sentinel error.
// Created and AlreadyExists return nil.
func (o Outcome) Err() error {
	switch o {
	case OutcomeSelfLoopRejected:
		return ErrSelfLoop
	case OutcomeCapacityExceeded:
		return ErrCapacityExceeded
	}
	return nil
}
