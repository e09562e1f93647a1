package state

import "sort"

// AssetBalance is a character's holdings. TechnicalCapability lives on a
// 0..100 scale and is clamped there on mutation (the one documented clamping
// exception); Capital and HumanCapital must never go negative and mutations
// that would take them below zero fail instead of clamping.
type AssetBalance struct {
	TechnicalCapability float64 `json:"technical_capability"`
	Capital             int64   `json:"capital"`
	HumanCapital        float64 `json:"human_capital"`
}

// TrueState is the private, authoritative side of a character. Only the
// character itself (and the resolution engine) ever sees it.
type TrueState struct {
	Objectives string             `json:"objectives"`
	Strategy   string             `json:"strategy"`
	Budget     map[string]float64 `json:"budget"`
	Assets     AssetBalance       `json:"assets"`
}

// PublicState is the stated, externally visible face. It is independently
// mutable from TrueState: a character may misrepresent itself.
type PublicState struct {
	StatedObjectives string       `json:"stated_objectives"`
	StatedStrategy   string       `json:"stated_strategy"`
	StatedAssets     AssetBalance `json:"stated_assets"`
	PublicArtifacts  []string     `json:"public_artifacts"`
}

// Message is a private note delivered from one character to another.
type Message struct {
	From  string `json:"from"`
	To    string `json:"to"`
	Round int    `json:"round"`
	Text  string `json:"text"`
}

// Character pairs a true and a public state under one identity key. Both
// sides always exist once the character is created.
type Character struct {
	Name   string      `json:"name"`
	True   TrueState   `json:"true_state"`
	Public PublicState `json:"public_state"`

	// RecentOutcomes keeps the last few resolved outcomes of this
	// character's own actions, newest last.
	RecentOutcomes []string `json:"recent_outcomes,omitempty"`

	// Inbox holds private messages awaiting delivery with the next view.
	Inbox []Message `json:"inbox,omitempty"`
}

const recentOutcomeKeep = 5

func (c *Character) addRecentOutcome(s string) {
	c.RecentOutcomes = append(c.RecentOutcomes, s)
	if n := len(c.RecentOutcomes); n > recentOutcomeKeep {
		c.RecentOutcomes = c.RecentOutcomes[n-recentOutcomeKeep:]
	}
}

func (c *Character) clone() *Character {
	cp := *c
	cp.True.Budget = make(map[string]float64, len(c.True.Budget))
	for k, v := range c.True.Budget {
		cp.True.Budget[k] = v
	}
	cp.Public.PublicArtifacts = append([]string(nil), c.Public.PublicArtifacts...)
	cp.RecentOutcomes = append([]string(nil), c.RecentOutcomes...)
	cp.Inbox = append([]Message(nil), c.Inbox...)
	return &cp
}

func (c *Character) budgetPeriods() []string {
	keys := make([]string, 0, len(c.True.Budget))
	for k := range c.True.Budget {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
