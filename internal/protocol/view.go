package protocol

// StateView is the actor-specific projection of the game state: the actor's
// own full private state, every other character's public state only, and the
// shared global facts. It is the only payload shape that ever crosses the
// engine/actor boundary, so the private/public split is enforced here once.
type StateView struct {
	Round int      `json:"round"`
	Actor string   `json:"actor"`
	Self  SelfView `json:"self"`

	// Others holds public state only, sorted by character name.
	Others []PublicView `json:"others"`

	Global GlobalView `json:"global"`
}

type AssetView struct {
	TechnicalCapability float64 `json:"technical_capability"`
	Capital             int64   `json:"capital"`
	HumanCapital        float64 `json:"human_capital"`
}

// SelfView is the full true state of the viewing actor.
type SelfView struct {
	Name       string             `json:"name"`
	Objectives string             `json:"objectives"`
	Strategy   string             `json:"strategy"`
	Budget     map[string]float64 `json:"budget"`
	Assets     AssetView          `json:"assets"`

	Projects []ProjectView `json:"projects"`

	// RecentOutcomes keeps the last few resolved outcomes of this actor's own
	// actions, espionage results included.
	RecentOutcomes []string `json:"recent_outcomes,omitempty"`

	// Inbox holds private messages delivered to this actor last round.
	Inbox []MessageView `json:"inbox,omitempty"`
}

// PublicView is the stated (possibly misrepresented) face of a character.
type PublicView struct {
	Name             string    `json:"name"`
	StatedObjectives string    `json:"stated_objectives"`
	StatedStrategy   string    `json:"stated_strategy"`
	StatedAssets     AssetView `json:"stated_assets"`
	PublicArtifacts  []string  `json:"public_artifacts,omitempty"`
}

type ProjectView struct {
	ProjectID string  `json:"project_id"`
	Topic     string  `json:"topic"`
	Progress  float64 `json:"progress"`
	Status    string  `json:"status"`
	Invested  float64 `json:"invested"`
}

type GlobalView struct {
	Round          int      `json:"round"`
	ResearchTopics []string `json:"research_topics,omitempty"`
	PublicEvents   []string `json:"public_events,omitempty"`
}

type MessageView struct {
	From  string `json:"from"`
	Round int    `json:"round"`
	Text  string `json:"text"`
}
