package actor

import (
	"context"

	"statecraft.ai/internal/protocol"
)

// Scripted is a deterministic baseline actor. It cycles through a small
// fixed policy from its view alone, so local runs and tests produce the
// same proposals every time.
type Scripted struct {
	Name string
}

func NewScripted(name string) *Scripted {
	return &Scripted{Name: name}
}

func (s *Scripted) ProposeAction(_ context.Context, view protocol.StateView, _ []string) (protocol.ActionProposal, error) {
	round := view.Round + 1
	p := protocol.ActionProposal{Actor: s.Name, Round: round}

	budget := 0.0
	for _, v := range view.Self.Budget {
		if v > budget {
			budget = v
		}
	}

	switch round % 4 {
	case 1:
		p.Kind = protocol.ActFundraise
		p.Fundraise = &protocol.FundraiseParams{Amount: 1_000_000 + budget*0.05}
	case 2:
		if budget > 10_000_000 {
			p.Kind = protocol.ActInvestCapital
			p.Invest = &protocol.CapitalParams{Amount: budget * 0.1}
		} else {
			p.Kind = protocol.ActPass
		}
	case 3:
		if len(view.Self.Projects) == 0 && len(view.Global.ResearchTopics) > 0 && budget > 1_000_000 {
			p.Kind = protocol.ActStartResearch
			p.Research = &protocol.StartResearchParams{
				Topic:        view.Global.ResearchTopics[0],
				AnnualBudget: budget * 0.05,
				HumanCapital: view.Self.Assets.HumanCapital * 0.1,
			}
		} else {
			p.Kind = protocol.ActPass
		}
	default:
		if len(view.Others) > 0 && budget > 2_000_000 {
			p.Kind = protocol.ActEspionage
			p.Espionage = &protocol.EspionageParams{
				Target: view.Others[0].Name,
				Focus:  "research",
				Budget: 500_000,
			}
		} else {
			p.Kind = protocol.ActPass
		}
	}
	return p, nil
}
