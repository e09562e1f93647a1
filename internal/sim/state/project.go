package state

// Research project status values.
const (
	ProjectActive    = "active"
	ProjectCompleted = "completed"
	ProjectCancelled = "cancelled"
)

// ResearchProject is owned by exactly one character. Progress is monotonically
// non-decreasing while active and the status flips to completed exactly once
// progress reaches 1. Only an explicit cancel from the owner sets cancelled.
type ResearchProject struct {
	ID    string `json:"id"`
	Owner string `json:"owner"`
	Topic string `json:"topic"`

	// AnnualBudget is deducted from the owner's budget each round the
	// project stays active, accumulating into Invested.
	AnnualBudget float64 `json:"annual_budget"`
	Invested     float64 `json:"invested"`

	// Committed assets drawn down at start; half is refunded on cancel.
	CommittedCapital int64   `json:"committed_capital"`
	CommittedHuman   float64 `json:"committed_human"`

	Progress float64 `json:"progress"`
	Status   string  `json:"status"`

	StartedRound int `json:"started_round"`
	ClosedRound  int `json:"closed_round,omitempty"`
}

func (p *ResearchProject) clone() *ResearchProject {
	cp := *p
	return &cp
}
