package state

import (
	"sort"

	"statecraft.ai/internal/protocol"
)

const publicEventsKeep = 10

// ViewFor is the single projection from game state to an actor-facing
// payload. Every path that shows state to an actor goes through here, so the
// true/public boundary cannot be bypassed by a new call site: the viewer gets
// its own full true state, everyone else's public state only, and the shared
// global facts.
func (g *GameState) ViewFor(actor string, topics []string) (protocol.StateView, bool) {
	c := g.Characters[actor]
	if c == nil {
		return protocol.StateView{}, false
	}

	self := protocol.SelfView{
		Name:       c.Name,
		Objectives: c.True.Objectives,
		Strategy:   c.True.Strategy,
		Budget:     make(map[string]float64, len(c.True.Budget)),
		Assets:     assetView(c.True.Assets),
	}
	for k, v := range c.True.Budget {
		self.Budget[k] = v
	}
	for _, p := range g.ProjectsOwnedBy(actor) {
		self.Projects = append(self.Projects, protocol.ProjectView{
			ProjectID: p.ID,
			Topic:     p.Topic,
			Progress:  p.Progress,
			Status:    p.Status,
			Invested:  p.Invested,
		})
	}
	self.RecentOutcomes = append([]string(nil), c.RecentOutcomes...)
	for _, m := range c.Inbox {
		self.Inbox = append(self.Inbox, protocol.MessageView{From: m.From, Round: m.Round, Text: m.Text})
	}

	var others []protocol.PublicView
	for name, other := range g.Characters {
		if name == actor {
			continue
		}
		others = append(others, protocol.PublicView{
			Name:             other.Name,
			StatedObjectives: other.Public.StatedObjectives,
			StatedStrategy:   other.Public.StatedStrategy,
			StatedAssets:     assetView(other.Public.StatedAssets),
			PublicArtifacts:  append([]string(nil), other.Public.PublicArtifacts...),
		})
	}
	sort.Slice(others, func(i, j int) bool { return others[i].Name < others[j].Name })

	events := g.Events
	if len(events) > publicEventsKeep {
		events = events[len(events)-publicEventsKeep:]
	}

	return protocol.StateView{
		Round:  g.Round,
		Actor:  actor,
		Self:   self,
		Others: others,
		Global: protocol.GlobalView{
			Round:          g.Round,
			ResearchTopics: append([]string(nil), topics...),
			PublicEvents:   append([]string(nil), events...),
		},
	}, true
}

func assetView(a AssetBalance) protocol.AssetView {
	return protocol.AssetView{
		TechnicalCapability: a.TechnicalCapability,
		Capital:             a.Capital,
		HumanCapital:        a.HumanCapital,
	}
}
