package state

import (
	"fmt"
	"sort"
)

// GameState is the aggregate root for one run. All mutation goes through the
// primitives below so that invariants are enforced in one place; no component
// writes character or project fields directly. The state is owned by the
// round orchestrator and handed to the resolution engine with exclusive,
// sequential write access for one round at a time.
type GameState struct {
	Characters map[string]*Character       `json:"characters"`
	Projects   map[string]*ResearchProject `json:"projects"`

	// Round is the global round counter; 0 before the first resolution.
	Round int `json:"round"`

	// Periods are the budget period labels in chronological order;
	// RoundsPerPeriod rounds elapse before the budget window advances.
	Periods         []string `json:"periods"`
	RoundsPerPeriod int      `json:"rounds_per_period"`

	// Events is the global public event log, append-only.
	Events []string `json:"events"`

	// Records is the append-only round history.
	Records []RoundRecord `json:"records"`

	NextProjectNum int `json:"next_project_num"`
}

func NewGameState(periods []string, roundsPerPeriod int) *GameState {
	if roundsPerPeriod <= 0 {
		roundsPerPeriod = 4
	}
	return &GameState{
		Characters:      make(map[string]*Character),
		Projects:        make(map[string]*ResearchProject),
		Periods:         append([]string(nil), periods...),
		RoundsPerPeriod: roundsPerPeriod,
		NextProjectNum:  1,
	}
}

// AddCharacter registers a character before round 1. Duplicate names fail.
func (g *GameState) AddCharacter(c *Character) error {
	if c == nil || c.Name == "" {
		return fmt.Errorf("character must have a name")
	}
	if _, ok := g.Characters[c.Name]; ok {
		return fmt.Errorf("duplicate character %q", c.Name)
	}
	if c.True.Budget == nil {
		c.True.Budget = map[string]float64{}
	}
	g.Characters[c.Name] = c
	return nil
}

func (g *GameState) Character(name string) *Character {
	return g.Characters[name]
}

// Names returns all character names in lexicographic order. This is the
// stable processing order the resolution engine relies on.
func (g *GameState) Names() []string {
	names := make([]string, 0, len(g.Characters))
	for n := range g.Characters {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// CurrentPeriod maps the round counter onto a budget period label. Past the
// last configured period the final label stays in effect.
func (g *GameState) CurrentPeriod() string {
	if len(g.Periods) == 0 {
		return ""
	}
	r := g.Round
	if r < 1 {
		r = 1
	}
	idx := (r - 1) / g.RoundsPerPeriod
	if idx >= len(g.Periods) {
		idx = len(g.Periods) - 1
	}
	return g.Periods[idx]
}

// IncrementRound advances the global round counter.
func (g *GameState) IncrementRound() {
	g.Round++
}

// ApplyBudgetDelta adjusts a character's budget for one period. A delta that
// would take the budget negative is an invariant violation, not a clamp.
func (g *GameState) ApplyBudgetDelta(name, period string, delta float64) error {
	c := g.Characters[name]
	if c == nil {
		return violation(g.Round, name, "budget", delta, "unknown character")
	}
	next := c.True.Budget[period] + delta
	if next < 0 {
		return violation(g.Round, name, "budget["+period+"]", next, "budget cannot go negative")
	}
	c.True.Budget[period] = next
	return nil
}

// AdjustAssets applies deltas to a character's true asset balance.
// TechnicalCapability is clamped to [0,100] (the documented clamping
// exception); Capital and HumanCapital fail on negative results.
func (g *GameState) AdjustAssets(name string, dTech float64, dCapital int64, dHuman float64) error {
	c := g.Characters[name]
	if c == nil {
		return violation(g.Round, name, "assets", 0, "unknown character")
	}
	capNext := c.True.Assets.Capital + dCapital
	if capNext < 0 {
		return violation(g.Round, name, "assets.capital", float64(capNext), "capital cannot go negative")
	}
	humanNext := c.True.Assets.HumanCapital + dHuman
	if humanNext < 0 {
		return violation(g.Round, name, "assets.human_capital", humanNext, "human capital cannot go negative")
	}
	techNext := c.True.Assets.TechnicalCapability + dTech
	if techNext < 0 {
		techNext = 0
	}
	if techNext > 100 {
		techNext = 100
	}
	c.True.Assets.Capital = capNext
	c.True.Assets.HumanCapital = humanNext
	c.True.Assets.TechnicalCapability = techNext
	return nil
}

// AddProject creates an active research project owned by name. Committed
// assets must already have been drawn down via AdjustAssets.
func (g *GameState) AddProject(owner, topic string, annualBudget float64, committedCapital int64, committedHuman float64) (*ResearchProject, error) {
	if g.Characters[owner] == nil {
		return nil, violation(g.Round, owner, "project.owner", 0, "unknown character")
	}
	p := &ResearchProject{
		ID:               fmt.Sprintf("P%d", g.NextProjectNum),
		Owner:            owner,
		Topic:            topic,
		AnnualBudget:     annualBudget,
		CommittedCapital: committedCapital,
		CommittedHuman:   committedHuman,
		Status:           ProjectActive,
		StartedRound:     g.Round,
	}
	g.NextProjectNum++
	g.Projects[p.ID] = p
	return p, nil
}

// UpdateProjectProgress advances an active project by a non-negative delta,
// accumulating invested budget. Returns true when the update completed the
// project. Progress never exceeds 1 and never decreases.
func (g *GameState) UpdateProjectProgress(id string, delta, invested float64) (bool, error) {
	p := g.Projects[id]
	if p == nil {
		return false, violation(g.Round, "", "project["+id+"]", delta, "unknown project")
	}
	if p.Status != ProjectActive {
		return false, violation(g.Round, p.Owner, "project["+id+"].status", delta, "progress update on non-active project")
	}
	if delta < 0 {
		return false, violation(g.Round, p.Owner, "project["+id+"].progress", delta, "progress must be non-decreasing")
	}
	p.Progress += delta
	if p.Progress > 1 {
		p.Progress = 1
	}
	p.Invested += invested
	if p.Progress >= 1 {
		p.Status = ProjectCompleted
		p.ClosedRound = g.Round
		return true, nil
	}
	return false, nil
}

// CancelProject moves an active project to cancelled. Only the owner may
// cancel; cancellation is the sole path to the cancelled status.
func (g *GameState) CancelProject(owner, id string) (*ResearchProject, error) {
	p := g.Projects[id]
	if p == nil || p.Owner != owner {
		return nil, fmt.Errorf("no project %q owned by %q", id, owner)
	}
	if p.Status != ProjectActive {
		return nil, fmt.Errorf("project %q is not active", id)
	}
	p.Status = ProjectCancelled
	p.ClosedRound = g.Round
	return p, nil
}

// ProjectsOwnedBy returns the character's projects sorted by ID.
func (g *GameState) ProjectsOwnedBy(name string) []*ResearchProject {
	var out []*ResearchProject
	for _, p := range g.Projects {
		if p.Owner == name {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// AppendEvent records a public event visible to every actor.
func (g *GameState) AppendEvent(s string) {
	g.Events = append(g.Events, s)
}

// DeliverMessage queues a private message into the recipient's inbox.
func (g *GameState) DeliverMessage(m Message) error {
	c := g.Characters[m.To]
	if c == nil {
		return fmt.Errorf("unknown recipient %q", m.To)
	}
	c.Inbox = append(c.Inbox, m)
	return nil
}

// NoteOutcome appends a resolved outcome line to a character's short memory.
func (g *GameState) NoteOutcome(name, line string) {
	if c := g.Characters[name]; c != nil {
		c.addRecentOutcome(fmt.Sprintf("Round %d: %s", g.Round, line))
	}
}

// ClearInbox drops delivered messages after they have been projected into a
// view, so each message is surfaced exactly once.
func (g *GameState) ClearInbox(name string) {
	if c := g.Characters[name]; c != nil {
		c.Inbox = nil
	}
}

// AppendRecord closes a round. Records are never mutated afterwards.
func (g *GameState) AppendRecord(rec RoundRecord) {
	g.Records = append(g.Records, rec)
}

// Clone deep-copies the aggregate. The resolution engine works on a clone and
// the orchestrator swaps it in only when the whole round succeeded, which is
// what makes partial application impossible.
func (g *GameState) Clone() *GameState {
	cp := &GameState{
		Characters:      make(map[string]*Character, len(g.Characters)),
		Projects:        make(map[string]*ResearchProject, len(g.Projects)),
		Round:           g.Round,
		Periods:         append([]string(nil), g.Periods...),
		RoundsPerPeriod: g.RoundsPerPeriod,
		Events:          append([]string(nil), g.Events...),
		Records:         append([]RoundRecord(nil), g.Records...),
		NextProjectNum:  g.NextProjectNum,
	}
	for n, c := range g.Characters {
		cp.Characters[n] = c.clone()
	}
	for id, p := range g.Projects {
		cp.Projects[id] = p.clone()
	}
	return cp
}
