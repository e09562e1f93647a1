package gamemaster

import (
	"fmt"

	"statecraft.ai/internal/protocol"
	"statecraft.ai/internal/sim/state"
)

// Handlers check preconditions before touching the state, so a shortfall is a
// recorded rejection, not an invariant violation. A primitive that still
// fails afterwards indicates a resolution bug and is fatal to the run.

func (gm *Gamemaster) applyMessage(work *state.GameState, p protocol.ActionProposal) (state.ActionOutcome, error) {
	if work.Character(p.Message.To) == nil {
		return gm.reject(work, p, protocol.ErrInvalidTarget, fmt.Sprintf("recipient %q not found", p.Message.To)), nil
	}
	if err := work.DeliverMessage(state.Message{
		From:  p.Actor,
		To:    p.Message.To,
		Round: work.Round,
		Text:  p.Message.Text,
	}); err != nil {
		return state.ActionOutcome{}, err
	}
	detail := fmt.Sprintf("Sent a private message to %s", p.Message.To)
	work.NoteOutcome(p.Actor, detail)
	return state.ActionOutcome{Actor: p.Actor, Kind: p.Kind, OK: true, Detail: detail, Private: true}, nil
}

func (gm *Gamemaster) applyResource(work *state.GameState, p protocol.ActionProposal) (state.ActionOutcome, error) {
	switch p.Kind {
	case protocol.ActFundraise:
		return gm.applyFundraise(work, p)
	case protocol.ActStartResearch:
		return gm.applyStartResearch(work, p)
	case protocol.ActCancelResearch:
		return gm.applyCancelResearch(work, p)
	case protocol.ActInvestCapital:
		return gm.applyInvest(work, p)
	case protocol.ActDivestCapital:
		return gm.applyDivest(work, p)
	case protocol.ActLobby:
		return gm.applyCampaign(work, p, p.Lobby, true)
	case protocol.ActMarket:
		return gm.applyCampaign(work, p, p.Market, false)
	}
	return state.ActionOutcome{}, fmt.Errorf("kind %q routed to resource phase", p.Kind)
}

func (gm *Gamemaster) applyContested(work *state.GameState, p protocol.ActionProposal) (state.ActionOutcome, error) {
	switch p.Kind {
	case protocol.ActEspionage:
		return gm.applyEspionage(work, p)
	case protocol.ActPoachTalent:
		return gm.applyPoach(work, p)
	}
	return state.ActionOutcome{}, fmt.Errorf("kind %q routed to contested phase", p.Kind)
}

func (gm *Gamemaster) applyFundraise(work *state.GameState, p protocol.ActionProposal) (state.ActionOutcome, error) {
	amount := p.Fundraise.Amount
	if cap := gm.scn.FundraiseCap; cap > 0 && amount > cap {
		return gm.reject(work, p, protocol.ErrOverCap, fmt.Sprintf("fundraise ask %.0f exceeds scenario cap %.0f", amount, cap)), nil
	}
	if gm.rng.Float64() >= gm.tune.FundraiseSuccessProb {
		detail := fmt.Sprintf("Fundraising attempt for $%.0f was unsuccessful", amount)
		work.NoteOutcome(p.Actor, detail)
		return state.ActionOutcome{Actor: p.Actor, Kind: p.Kind, OK: true, Detail: detail}, nil
	}
	raised := amount * gm.tune.FundraiseHaircut
	if err := work.ApplyBudgetDelta(p.Actor, work.CurrentPeriod(), raised); err != nil {
		return state.ActionOutcome{}, err
	}
	detail := fmt.Sprintf("Successfully raised $%.0f", raised)
	work.NoteOutcome(p.Actor, detail)
	return state.ActionOutcome{Actor: p.Actor, Kind: p.Kind, OK: true, Detail: detail}, nil
}

func (gm *Gamemaster) applyStartResearch(work *state.GameState, p protocol.ActionProposal) (state.ActionOutcome, error) {
	c := work.Character(p.Actor)
	period := work.CurrentPeriod()
	r := p.Research
	if c.True.Budget[period] < r.AnnualBudget {
		return gm.reject(work, p, protocol.ErrNoResource, fmt.Sprintf("insufficient budget for research project on %q", r.Topic)), nil
	}
	if c.True.Assets.Capital < r.Capital || c.True.Assets.HumanCapital < r.HumanCapital {
		return gm.reject(work, p, protocol.ErrNoResource, fmt.Sprintf("insufficient assets to start research project on %q", r.Topic)), nil
	}
	if err := work.AdjustAssets(p.Actor, 0, -r.Capital, -r.HumanCapital); err != nil {
		return state.ActionOutcome{}, err
	}
	if err := work.ApplyBudgetDelta(p.Actor, period, -r.AnnualBudget); err != nil {
		return state.ActionOutcome{}, err
	}
	proj, err := work.AddProject(p.Actor, r.Topic, r.AnnualBudget, r.Capital, r.HumanCapital)
	if err != nil {
		return state.ActionOutcome{}, err
	}
	detail := fmt.Sprintf("Started research project %s on %q", proj.ID, r.Topic)
	work.NoteOutcome(p.Actor, detail)
	return state.ActionOutcome{Actor: p.Actor, Kind: p.Kind, OK: true, Detail: detail}, nil
}

func (gm *Gamemaster) applyCancelResearch(work *state.GameState, p protocol.ActionProposal) (state.ActionOutcome, error) {
	proj, err := work.CancelProject(p.Actor, p.Cancel.ProjectID)
	if err != nil {
		return gm.reject(work, p, protocol.ErrNoProject, fmt.Sprintf("no active project %q owned by %s", p.Cancel.ProjectID, p.Actor)), nil
	}
	refundCapital := int64(float64(proj.CommittedCapital) * gm.tune.CancelRefundFrac)
	refundHuman := proj.CommittedHuman * gm.tune.CancelRefundFrac
	if err := work.AdjustAssets(p.Actor, 0, refundCapital, refundHuman); err != nil {
		return state.ActionOutcome{}, err
	}
	detail := fmt.Sprintf("Cancelled research project %s on %q", proj.ID, proj.Topic)
	work.NoteOutcome(p.Actor, detail)
	return state.ActionOutcome{Actor: p.Actor, Kind: p.Kind, OK: true, Detail: detail}, nil
}

func (gm *Gamemaster) applyInvest(work *state.GameState, p protocol.ActionProposal) (state.ActionOutcome, error) {
	c := work.Character(p.Actor)
	period := work.CurrentPeriod()
	amount := p.Invest.Amount
	if c.True.Budget[period] < amount {
		return gm.reject(work, p, protocol.ErrNoResource, fmt.Sprintf("insufficient budget for capital investment of $%.0f", amount)), nil
	}
	if err := work.ApplyBudgetDelta(p.Actor, period, -amount); err != nil {
		return state.ActionOutcome{}, err
	}
	gained := int64(amount * gm.tune.InvestConversion)
	if err := work.AdjustAssets(p.Actor, 0, gained, 0); err != nil {
		return state.ActionOutcome{}, err
	}
	detail := fmt.Sprintf("Invested $%.0f in capital improvements", amount)
	work.NoteOutcome(p.Actor, detail)
	return state.ActionOutcome{Actor: p.Actor, Kind: p.Kind, OK: true, Detail: detail}, nil
}

func (gm *Gamemaster) applyDivest(work *state.GameState, p protocol.ActionProposal) (state.ActionOutcome, error) {
	c := work.Character(p.Actor)
	sold := int64(p.Divest.Amount)
	if c.True.Assets.Capital < sold {
		return gm.reject(work, p, protocol.ErrNoResource, fmt.Sprintf("insufficient capital to sell $%d", sold)), nil
	}
	if err := work.AdjustAssets(p.Actor, 0, -sold, 0); err != nil {
		return state.ActionOutcome{}, err
	}
	if err := work.ApplyBudgetDelta(p.Actor, work.CurrentPeriod(), float64(sold)*gm.tune.DivestConversion); err != nil {
		return state.ActionOutcome{}, err
	}
	detail := fmt.Sprintf("Sold $%d in capital assets", sold)
	work.NoteOutcome(p.Actor, detail)
	return state.ActionOutcome{Actor: p.Actor, Kind: p.Kind, OK: true, Detail: detail}, nil
}

func (gm *Gamemaster) applyCampaign(work *state.GameState, p protocol.ActionProposal, params *protocol.CampaignParams, lobby bool) (state.ActionOutcome, error) {
	c := work.Character(p.Actor)
	period := work.CurrentPeriod()
	label := "marketing"
	if lobby {
		label = "lobbying"
	}
	if c.True.Budget[period] < params.Budget {
		return gm.reject(work, p, protocol.ErrNoResource, fmt.Sprintf("insufficient budget for %s campaign", label)), nil
	}
	if err := work.ApplyBudgetDelta(p.Actor, period, -params.Budget); err != nil {
		return state.ActionOutcome{}, err
	}
	headline := truncate(params.Text, 80)
	if lobby && gm.rng.Float64() < gm.tune.LobbyBackfireProb {
		work.AppendEvent(fmt.Sprintf("Round %d: %s's lobbying campaign backfired: %s", work.Round, p.Actor, headline))
		detail := "Lobbying campaign backfired"
		work.NoteOutcome(p.Actor, detail)
		return state.ActionOutcome{Actor: p.Actor, Kind: p.Kind, OK: true, Detail: detail}, nil
	}
	work.AppendEvent(fmt.Sprintf("Round %d: %s launched a %s campaign: %s", work.Round, p.Actor, label, headline))
	detail := fmt.Sprintf("Launched %s campaign: %s", label, headline)
	work.NoteOutcome(p.Actor, detail)
	return state.ActionOutcome{Actor: p.Actor, Kind: p.Kind, OK: true, Detail: detail}, nil
}

func (gm *Gamemaster) applyEspionage(work *state.GameState, p protocol.ActionProposal) (state.ActionOutcome, error) {
	target := work.Character(p.Espionage.Target)
	if target == nil {
		return gm.reject(work, p, protocol.ErrInvalidTarget, fmt.Sprintf("espionage target %q not found", p.Espionage.Target)), nil
	}
	actor := work.Character(p.Actor)
	period := work.CurrentPeriod()
	if actor.True.Budget[period] < p.Espionage.Budget {
		return gm.reject(work, p, protocol.ErrNoResource, "insufficient budget for espionage"), nil
	}
	if err := work.ApplyBudgetDelta(p.Actor, period, -p.Espionage.Budget); err != nil {
		return state.ActionOutcome{}, err
	}
	prob := gm.tune.EspionageBaseProb + p.Espionage.Budget/gm.tune.EspionageBudgetScale
	if prob > gm.tune.EspionageMaxProb {
		prob = gm.tune.EspionageMaxProb
	}
	// Espionage results are visible only to the initiator.
	if gm.rng.Float64() >= prob {
		detail := fmt.Sprintf("Espionage on %s failed", p.Espionage.Target)
		work.NoteOutcome(p.Actor, detail)
		return state.ActionOutcome{Actor: p.Actor, Kind: p.Kind, OK: true, Detail: detail, Private: true}, nil
	}
	detail := fmt.Sprintf("Espionage on %s succeeded: budget≈$%.0f, tech=%.1f, capital=%d, human=%.1f",
		p.Espionage.Target,
		target.True.Budget[period],
		target.True.Assets.TechnicalCapability,
		target.True.Assets.Capital,
		target.True.Assets.HumanCapital)
	work.NoteOutcome(p.Actor, detail)
	return state.ActionOutcome{Actor: p.Actor, Kind: p.Kind, OK: true, Detail: detail, Private: true}, nil
}

func (gm *Gamemaster) applyPoach(work *state.GameState, p protocol.ActionProposal) (state.ActionOutcome, error) {
	target := work.Character(p.Poach.Target)
	if target == nil {
		return gm.reject(work, p, protocol.ErrInvalidTarget, fmt.Sprintf("poach target %q not found", p.Poach.Target)), nil
	}
	actor := work.Character(p.Actor)
	period := work.CurrentPeriod()
	if actor.True.Budget[period] < p.Poach.Budget {
		return gm.reject(work, p, protocol.ErrNoResource, "insufficient budget for poaching"), nil
	}
	if err := work.ApplyBudgetDelta(p.Actor, period, -p.Poach.Budget); err != nil {
		return state.ActionOutcome{}, err
	}
	prob := gm.tune.PoachBaseProb + p.Poach.Budget/gm.tune.PoachBudgetScale
	if prob > gm.tune.PoachMaxProb {
		prob = gm.tune.PoachMaxProb
	}
	if gm.rng.Float64() >= prob {
		detail := fmt.Sprintf("Poaching attempt on %s failed", p.Poach.Target)
		work.NoteOutcome(p.Actor, detail)
		return state.ActionOutcome{Actor: p.Actor, Kind: p.Kind, OK: true, Detail: detail, Private: true}, nil
	}
	transfer := target.True.Assets.HumanCapital * gm.tune.PoachTransferFrac
	if transfer > gm.tune.PoachTransferMax {
		transfer = gm.tune.PoachTransferMax
	}
	if err := work.AdjustAssets(p.Poach.Target, 0, 0, -transfer); err != nil {
		return state.ActionOutcome{}, err
	}
	if err := work.AdjustAssets(p.Actor, 0, 0, transfer); err != nil {
		return state.ActionOutcome{}, err
	}
	work.NoteOutcome(p.Poach.Target, fmt.Sprintf("Lost %.1f human capital to a poaching raid", transfer))
	detail := fmt.Sprintf("Poached talent from %s (gained %.1f human capital)", p.Poach.Target, transfer)
	work.NoteOutcome(p.Actor, detail)
	return state.ActionOutcome{Actor: p.Actor, Kind: p.Kind, OK: true, Detail: detail, Private: true}, nil
}

// reject records a state-dependent rejection: the proposal becomes a no-op
// with a reason, and the actor's short memory keeps the failed attempt.
func (gm *Gamemaster) reject(work *state.GameState, p protocol.ActionProposal, code, reason string) state.ActionOutcome {
	work.NoteOutcome(p.Actor, "Action rejected: "+reason)
	return state.ActionOutcome{Actor: p.Actor, Kind: p.Kind, OK: false, Code: code, Detail: reason}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
