package state

import "fmt"

// InvariantViolation reports a mutation that would leave the game state in an
// impossible condition. It is fatal to the run: the resolution engine never
// commits a round that produced one. The fields pin down exactly where
// consistency broke.
type InvariantViolation struct {
	Round     int
	Actor     string
	Field     string
	Attempted float64
	Msg       string
}

func (e *InvariantViolation) Error() string {
	return fmt.Sprintf("state invariant violation: round=%d actor=%q field=%s attempted=%v: %s",
		e.Round, e.Actor, e.Field, e.Attempted, e.Msg)
}

func violation(round int, actor, field string, attempted float64, msg string) *InvariantViolation {
	return &InvariantViolation{Round: round, Actor: actor, Field: field, Attempted: attempted, Msg: msg}
}
