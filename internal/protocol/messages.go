package protocol

// HELLO (actor -> server): claim a character seat for the run.
type HelloMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	Character       string `json:"character"`
	ActorName       string `json:"actor_name,omitempty"`
}

// WELCOME (server -> actor)
type WelcomeMsg struct {
	Type            string    `json:"type"`
	ProtocolVersion string    `json:"protocol_version"`
	Character       string    `json:"character"`
	GameContext     string    `json:"game_context"`
	RunParams       RunParams `json:"run_params"`
}

type RunParams struct {
	MaxRounds        int   `json:"max_rounds"`
	DecisionTimeoutS int   `json:"decision_timeout_s"`
	Seed             int64 `json:"seed"`
}

// VIEW (server -> actor): one per round, carrying the actor's projection of
// the new state plus the narrative summary of the round that produced it.
type ViewMsg struct {
	Type            string    `json:"type"`
	ProtocolVersion string    `json:"protocol_version"`
	Round           int       `json:"round"`
	Character       string    `json:"character"`
	View            StateView `json:"view"`
	Summary         string    `json:"summary,omitempty"`
}

// ACT (actor -> server): the actor's single proposal for the round.
type ActMsg struct {
	Type            string         `json:"type"`
	ProtocolVersion string         `json:"protocol_version"`
	Round           int            `json:"round"`
	Character       string         `json:"character"`
	Proposal        ActionProposal `json:"proposal"`
}

// RESULT (server -> actor): run termination notice.
type ResultMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	Rounds          int    `json:"rounds"`
	Reason          string `json:"reason"`
	FinalSummary    string `json:"final_summary,omitempty"`
}
