package gamemaster

import (
	"fmt"
	"sort"

	"statecraft.ai/internal/sim/state"
)

// advanceResearch moves every active project forward by a rate derived from
// its committed human capital plus a seeded non-negative jitter, deducting
// the project's annual budget when the owner can afford it. Projects are
// walked in ID order so the rng draw sequence is stable.
func (gm *Gamemaster) advanceResearch(work *state.GameState) error {
	ids := make([]string, 0, len(work.Projects))
	for id, p := range work.Projects {
		if p.Status == state.ProjectActive {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)

	for _, id := range ids {
		p := work.Projects[id]

		rate := gm.tune.ResearchBaseRate + p.CommittedHuman/gm.tune.ResearchHumanScale
		if rate > gm.tune.ResearchMaxRate {
			rate = gm.tune.ResearchMaxRate
		}
		rate *= 1 + gm.tune.ResearchJitter*gm.rng.Float64()

		invested := 0.0
		period := work.CurrentPeriod()
		owner := work.Character(p.Owner)
		if owner != nil && owner.True.Budget[period] >= p.AnnualBudget {
			if err := work.ApplyBudgetDelta(p.Owner, period, -p.AnnualBudget); err != nil {
				return err
			}
			invested = p.AnnualBudget
		}

		completed, err := work.UpdateProjectProgress(id, rate, invested)
		if err != nil {
			return err
		}
		if completed {
			work.NoteOutcome(p.Owner, fmt.Sprintf("Research project %s on %q completed", p.ID, p.Topic))
		}
	}
	return nil
}

// rollLeak occasionally exposes one character's private financials to the
// public event log, reporter-investigation style.
func (gm *Gamemaster) rollLeak(work *state.GameState) {
	if gm.rng.Float64() >= gm.tune.LeakProb {
		return
	}
	names := work.Names()
	if len(names) == 0 {
		return
	}
	name := names[gm.rng.Intn(len(names))]
	c := work.Character(name)
	period := work.CurrentPeriod()
	work.AppendEvent(fmt.Sprintf(
		"Round %d: Leaked intelligence reports suggest %s has approximately $%.0f in budget and %.1f human capital",
		work.Round, name, c.True.Budget[period], c.True.Assets.HumanCapital))
}

// rollRandomEvent draws one scenario-defined external event.
func (gm *Gamemaster) rollRandomEvent(work *state.GameState) {
	if len(gm.scn.RandomEvents) == 0 {
		return
	}
	if gm.rng.Float64() >= gm.tune.RandomEventProb {
		return
	}
	ev := gm.scn.RandomEvents[gm.rng.Intn(len(gm.scn.RandomEvents))]
	work.AppendEvent(fmt.Sprintf("Round %d: %s", work.Round, ev))
}
