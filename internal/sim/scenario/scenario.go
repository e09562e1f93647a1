// Package scenario loads static run content: the character roster, the shared
// game context, research topic and random event catalogs, and terminal
// conditions. Content is read once at run start and is read-only to the
// engine afterwards.
package scenario

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"statecraft.ai/internal/sim/state"
)

type Scenario struct {
	Name    string `yaml:"name"`
	Context string `yaml:"context"`

	RoundsPerPeriod int `yaml:"rounds_per_period"`

	// FundraiseCap bounds a single fundraise ask; 0 means uncapped.
	FundraiseCap float64 `yaml:"fundraise_cap"`

	// RestrictResearchTopics makes START_RESEARCH validate its topic against
	// the catalog. Off by default: topics are metadata for the actors.
	RestrictResearchTopics bool `yaml:"restrict_research_topics"`

	ResearchTopics []Topic  `yaml:"research_topics"`
	RandomEvents   []string `yaml:"random_events"`

	Characters []CharacterDef `yaml:"characters"`

	Terminal Terminal `yaml:"terminal"`
}

type Topic struct {
	Name        string  `yaml:"name"`
	Description string  `yaml:"description"`
	Difficulty  string  `yaml:"difficulty"`
	BaseCost    float64 `yaml:"base_cost"`
}

type CharacterDef struct {
	Name   string         `yaml:"name"`
	True   TrueStateDef   `yaml:"true_state"`
	Public PublicStateDef `yaml:"public_state"`
}

type TrueStateDef struct {
	Objectives string             `yaml:"objectives"`
	Strategy   string             `yaml:"strategy"`
	Budget     map[string]float64 `yaml:"budget"`
	Assets     AssetsDef          `yaml:"assets"`
}

type PublicStateDef struct {
	StatedObjectives string    `yaml:"stated_objectives"`
	StatedStrategy   string    `yaml:"stated_strategy"`
	StatedAssets     AssetsDef `yaml:"stated_assets"`
	PublicArtifacts  []string  `yaml:"public_artifacts"`
}

type AssetsDef struct {
	TechnicalCapability float64 `yaml:"technical_capability"`
	Capital             int64   `yaml:"capital"`
	HumanCapital        float64 `yaml:"human_capital"`
}

// Terminal describes scenario-defined stop conditions, evaluated against the
// committed state after each round.
type Terminal struct {
	AnyCapitalZero      bool `yaml:"any_capital_zero"`
	AnyProjectCompleted bool `yaml:"any_project_completed"`
}

func Load(path string) (*Scenario, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var s Scenario
	if err := yaml.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("scenario %s: %w", path, err)
	}
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("scenario %s: %w", path, err)
	}
	return &s, nil
}

// Validate runs the shape checks that are fatal before round 1: the scenario
// contract violation class of errors.
func (s *Scenario) Validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return fmt.Errorf("missing scenario name")
	}
	if len(s.Characters) < 2 {
		return fmt.Errorf("need at least 2 characters, got %d", len(s.Characters))
	}
	seen := map[string]bool{}
	for i, c := range s.Characters {
		if strings.TrimSpace(c.Name) == "" {
			return fmt.Errorf("character %d: missing name", i)
		}
		if seen[c.Name] {
			return fmt.Errorf("duplicate character %q", c.Name)
		}
		seen[c.Name] = true
		if c.True.Assets.Capital < 0 || c.True.Assets.HumanCapital < 0 {
			return fmt.Errorf("character %q: negative initial assets", c.Name)
		}
		if c.True.Assets.TechnicalCapability < 0 || c.True.Assets.TechnicalCapability > 100 {
			return fmt.Errorf("character %q: technical_capability outside [0,100]", c.Name)
		}
		for period, v := range c.True.Budget {
			if v < 0 {
				return fmt.Errorf("character %q: negative budget for %s", c.Name, period)
			}
		}
	}
	topicSeen := map[string]bool{}
	for i, t := range s.ResearchTopics {
		if strings.TrimSpace(t.Name) == "" {
			return fmt.Errorf("research topic %d: missing name", i)
		}
		if topicSeen[t.Name] {
			return fmt.Errorf("duplicate research topic %q", t.Name)
		}
		topicSeen[t.Name] = true
	}
	if s.FundraiseCap < 0 {
		return fmt.Errorf("fundraise_cap must be non-negative")
	}
	return nil
}

// InitialState builds the starting game state from the roster.
func (s *Scenario) InitialState() (*state.GameState, error) {
	periods := s.periods()
	g := state.NewGameState(periods, s.RoundsPerPeriod)
	for _, def := range s.Characters {
		budget := make(map[string]float64, len(def.True.Budget))
		for k, v := range def.True.Budget {
			budget[k] = v
		}
		c := &state.Character{
			Name: def.Name,
			True: state.TrueState{
				Objectives: def.True.Objectives,
				Strategy:   def.True.Strategy,
				Budget:     budget,
				Assets:     state.AssetBalance(def.True.Assets),
			},
			Public: state.PublicState{
				StatedObjectives: def.Public.StatedObjectives,
				StatedStrategy:   def.Public.StatedStrategy,
				StatedAssets:     state.AssetBalance(def.Public.StatedAssets),
				PublicArtifacts:  append([]string(nil), def.Public.PublicArtifacts...),
			},
		}
		if err := g.AddCharacter(c); err != nil {
			return nil, err
		}
	}
	return g, nil
}

// TopicNames returns the catalog topic names in declaration order.
func (s *Scenario) TopicNames() []string {
	names := make([]string, 0, len(s.ResearchTopics))
	for _, t := range s.ResearchTopics {
		names = append(names, t.Name)
	}
	return names
}

func (s *Scenario) HasTopic(name string) bool {
	for _, t := range s.ResearchTopics {
		if t.Name == name {
			return true
		}
	}
	return false
}

// periods collects every budget period label used by any character, sorted.
func (s *Scenario) periods() []string {
	set := map[string]bool{}
	for _, c := range s.Characters {
		for period := range c.True.Budget {
			set[period] = true
		}
	}
	out := make([]string, 0, len(set))
	for p := range set {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}
