package protocol

import (
	"fmt"
	"strings"
)

// ActionKind is the closed set of per-round moves an actor can submit.
type ActionKind string

const (
	ActPass           ActionKind = "PASS"
	ActFundraise      ActionKind = "FUNDRAISE"
	ActStartResearch  ActionKind = "START_RESEARCH"
	ActCancelResearch ActionKind = "CANCEL_RESEARCH"
	ActInvestCapital  ActionKind = "INVEST_CAPITAL"
	ActDivestCapital  ActionKind = "DIVEST_CAPITAL"
	ActEspionage      ActionKind = "ESPIONAGE"
	ActPoachTalent    ActionKind = "POACH_TALENT"
	ActLobby          ActionKind = "LOBBY"
	ActMarket         ActionKind = "MARKET"
	ActMessage        ActionKind = "MESSAGE"
)

var knownKinds = map[ActionKind]struct{}{
	ActPass:           {},
	ActFundraise:      {},
	ActStartResearch:  {},
	ActCancelResearch: {},
	ActInvestCapital:  {},
	ActDivestCapital:  {},
	ActEspionage:      {},
	ActPoachTalent:    {},
	ActLobby:          {},
	ActMarket:         {},
	ActMessage:        {},
}

func IsKnownKind(k ActionKind) bool {
	_, ok := knownKinds[k]
	return ok
}

// ActionProposal is one actor's structured intent for one round. Immutable
// once submitted; exactly one of the kind-specific payloads is set for the
// non-PASS kinds.
type ActionProposal struct {
	Actor string     `json:"actor"`
	Round int        `json:"round"`
	Kind  ActionKind `json:"kind"`

	// PASS bookkeeping: non-empty when the engine substituted the pass
	// (timeout, actor failure), empty for a deliberate pass.
	PassReason string `json:"pass_reason,omitempty"`

	Fundraise *FundraiseParams     `json:"fundraise,omitempty"`
	Research  *StartResearchParams `json:"research,omitempty"`
	Cancel    *CancelParams        `json:"cancel,omitempty"`
	Invest    *CapitalParams       `json:"invest,omitempty"`
	Divest    *CapitalParams       `json:"divest,omitempty"`
	Espionage *EspionageParams     `json:"espionage,omitempty"`
	Poach     *PoachParams         `json:"poach,omitempty"`
	Lobby     *CampaignParams      `json:"lobby,omitempty"`
	Market    *CampaignParams      `json:"market,omitempty"`
	Message   *MessageParams       `json:"message,omitempty"`
}

type FundraiseParams struct {
	Amount float64 `json:"amount"`
}

type StartResearchParams struct {
	Topic        string  `json:"topic"`
	AnnualBudget float64 `json:"annual_budget"`
	// Committed asset draw-down at project start.
	Capital      int64   `json:"capital"`
	HumanCapital float64 `json:"human_capital"`
}

type CancelParams struct {
	ProjectID string `json:"project_id"`
}

type CapitalParams struct {
	Amount float64 `json:"amount"`
}

type EspionageParams struct {
	Target string  `json:"target"`
	Focus  string  `json:"focus,omitempty"`
	Budget float64 `json:"budget"`
}

type PoachParams struct {
	Target string  `json:"target"`
	Budget float64 `json:"budget"`
}

type CampaignParams struct {
	Text   string  `json:"text"`
	Budget float64 `json:"budget"`
}

type MessageParams struct {
	To   string `json:"to"`
	Text string `json:"text"`
}

// Pass builds a substituted pass proposal carrying the substitution reason.
func Pass(actor string, round int, reason string) ActionProposal {
	return ActionProposal{Actor: actor, Round: round, Kind: ActPass, PassReason: reason}
}

// ValidateShape checks the state-independent part of the proposal contract:
// known kind, required payload present, positive amounts, non-self targets.
// State-dependent checks (target exists, sufficient budget) belong to the
// resolution engine. A nil return means the shape is acceptable.
func (p ActionProposal) ValidateShape() *Rejection {
	if strings.TrimSpace(p.Actor) == "" {
		return Reject(ErrBadRequest, "missing actor")
	}
	if !IsKnownKind(p.Kind) {
		return Reject(ErrUnknownKind, fmt.Sprintf("unknown action kind %q", p.Kind))
	}
	switch p.Kind {
	case ActPass:
		return nil
	case ActFundraise:
		if p.Fundraise == nil {
			return Reject(ErrBadRequest, "FUNDRAISE missing fundraise params")
		}
		if p.Fundraise.Amount <= 0 {
			return Reject(ErrBadRequest, "fundraise amount must be positive")
		}
	case ActStartResearch:
		if p.Research == nil {
			return Reject(ErrBadRequest, "START_RESEARCH missing research params")
		}
		if strings.TrimSpace(p.Research.Topic) == "" {
			return Reject(ErrBadRequest, "research topic must be non-empty")
		}
		if p.Research.AnnualBudget <= 0 {
			return Reject(ErrBadRequest, "research annual budget must be positive")
		}
		if p.Research.Capital < 0 || p.Research.HumanCapital < 0 {
			return Reject(ErrBadRequest, "committed assets must be non-negative")
		}
	case ActCancelResearch:
		if p.Cancel == nil || strings.TrimSpace(p.Cancel.ProjectID) == "" {
			return Reject(ErrBadRequest, "CANCEL_RESEARCH missing project id")
		}
	case ActInvestCapital:
		if p.Invest == nil || p.Invest.Amount <= 0 {
			return Reject(ErrBadRequest, "INVEST_CAPITAL amount must be positive")
		}
	case ActDivestCapital:
		if p.Divest == nil || p.Divest.Amount <= 0 {
			return Reject(ErrBadRequest, "DIVEST_CAPITAL amount must be positive")
		}
	case ActEspionage:
		if p.Espionage == nil {
			return Reject(ErrBadRequest, "ESPIONAGE missing espionage params")
		}
		if strings.TrimSpace(p.Espionage.Target) == "" {
			return Reject(ErrBadRequest, "espionage target must be non-empty")
		}
		if p.Espionage.Target == p.Actor {
			return Reject(ErrInvalidTarget, "espionage target cannot be self")
		}
		if p.Espionage.Budget <= 0 {
			return Reject(ErrBadRequest, "espionage budget must be positive")
		}
	case ActPoachTalent:
		if p.Poach == nil {
			return Reject(ErrBadRequest, "POACH_TALENT missing poach params")
		}
		if strings.TrimSpace(p.Poach.Target) == "" {
			return Reject(ErrBadRequest, "poach target must be non-empty")
		}
		if p.Poach.Target == p.Actor {
			return Reject(ErrInvalidTarget, "poach target cannot be self")
		}
		if p.Poach.Budget <= 0 {
			return Reject(ErrBadRequest, "poach budget must be positive")
		}
	case ActLobby:
		if p.Lobby == nil || strings.TrimSpace(p.Lobby.Text) == "" {
			return Reject(ErrBadRequest, "LOBBY missing campaign text")
		}
		if p.Lobby.Budget <= 0 {
			return Reject(ErrBadRequest, "lobby budget must be positive")
		}
	case ActMarket:
		if p.Market == nil || strings.TrimSpace(p.Market.Text) == "" {
			return Reject(ErrBadRequest, "MARKET missing campaign text")
		}
		if p.Market.Budget <= 0 {
			return Reject(ErrBadRequest, "market budget must be positive")
		}
	case ActMessage:
		if p.Message == nil || strings.TrimSpace(p.Message.To) == "" {
			return Reject(ErrBadRequest, "MESSAGE missing recipient")
		}
		if p.Message.To == p.Actor {
			return Reject(ErrInvalidTarget, "message recipient cannot be self")
		}
		if p.Message.Text == "" {
			return Reject(ErrBadRequest, "message text must be non-empty")
		}
	}
	return nil
}
