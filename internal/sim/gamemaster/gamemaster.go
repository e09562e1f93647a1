// Package gamemaster turns a round's complete proposal batch into the next
// game state. Resolution is single-threaded and runs in a fixed, documented
// phase order so that two runs with the same seed and the same batches
// produce bit-identical round records.
package gamemaster

import (
	"fmt"
	"log"
	"math/rand"
	"sort"

	"statecraft.ai/internal/protocol"
	"statecraft.ai/internal/sim/scenario"
	"statecraft.ai/internal/sim/state"
	"statecraft.ai/internal/sim/tuning"
)

// Gamemaster resolves rounds. All randomness comes from the single seeded rng
// threaded through every probabilistic step; nothing reads ambient
// randomness.
type Gamemaster struct {
	scn  *scenario.Scenario
	tune tuning.Tuning
	rng  *rand.Rand
	log  *log.Logger
}

func New(scn *scenario.Scenario, tune tuning.Tuning, seed int64, logger *log.Logger) *Gamemaster {
	return &Gamemaster{
		scn:  scn,
		tune: tune,
		rng:  rand.New(rand.NewSource(seed)),
		log:  logger,
	}
}

// Result is the full output of one resolved round.
type Result struct {
	State     *state.GameState
	Record    state.RoundRecord
	Views     map[string]protocol.StateView
	Summaries map[string]string
}

// Resolution phase order. Within each phase actors are processed in
// lexicographic name order, which is also the tie-break for contested
// actions: the lower name's effect applies first.
var resourceKinds = map[protocol.ActionKind]bool{
	protocol.ActFundraise:      true,
	protocol.ActStartResearch:  true,
	protocol.ActCancelResearch: true,
	protocol.ActInvestCapital:  true,
	protocol.ActDivestCapital:  true,
	protocol.ActLobby:          true,
	protocol.ActMarket:         true,
}

var contestedKinds = map[protocol.ActionKind]bool{
	protocol.ActEspionage:   true,
	protocol.ActPoachTalent: true,
}

// ResolveRound resolves one complete batch (one proposal per live actor)
// against g and returns the next state. The input state is never touched:
// effects apply to a clone and the caller commits the returned state only on
// success, so a fatal invariant violation can never leave a half-applied
// round behind.
func (gm *Gamemaster) ResolveRound(g *state.GameState, batch []protocol.ActionProposal) (*Result, error) {
	work := g.Clone()
	work.IncrementRound()
	round := work.Round

	eventsBefore := len(work.Events)

	proposals := make([]protocol.ActionProposal, len(batch))
	copy(proposals, batch)
	sort.SliceStable(proposals, func(i, j int) bool { return proposals[i].Actor < proposals[j].Actor })

	rec := state.RoundRecord{
		Round:     round,
		Proposals: proposals,
		Summaries: map[string]string{},
	}

	// Phase 1: validate every proposal independently. Invalid proposals
	// degrade to recorded rejections and never touch the state.
	valid := make([]bool, len(proposals))
	for i, p := range proposals {
		if work.Character(p.Actor) == nil {
			rec.Outcomes = append(rec.Outcomes, rejectOutcome(p, protocol.Reject(protocol.ErrInvalidTarget, fmt.Sprintf("unknown actor %q", p.Actor))))
			continue
		}
		if rej := p.ValidateShape(); rej != nil {
			rec.Outcomes = append(rec.Outcomes, rejectOutcome(p, rej))
			work.NoteOutcome(p.Actor, "Action rejected: "+rej.Reason)
			continue
		}
		if p.Kind == protocol.ActStartResearch && gm.scn.RestrictResearchTopics && !gm.scn.HasTopic(p.Research.Topic) {
			rej := protocol.Reject(protocol.ErrBadRequest, fmt.Sprintf("research topic %q is not in the catalog", p.Research.Topic))
			rec.Outcomes = append(rec.Outcomes, rejectOutcome(p, rej))
			work.NoteOutcome(p.Actor, "Action rejected: "+rej.Reason)
			continue
		}
		valid[i] = true
	}

	// Phase 2: private messages, delivered before effects so a recipient sees
	// them with this round's view.
	for i, p := range proposals {
		if !valid[i] || p.Kind != protocol.ActMessage {
			continue
		}
		out, err := gm.applyMessage(work, p)
		if err != nil {
			return nil, fmt.Errorf("round %d message phase: %w", round, err)
		}
		rec.Outcomes = append(rec.Outcomes, out)
	}

	// Phase 3: deterministic resource effects, lexicographic actor order.
	for i, p := range proposals {
		if !valid[i] || !resourceKinds[p.Kind] {
			continue
		}
		out, err := gm.applyResource(work, p)
		if err != nil {
			return nil, fmt.Errorf("round %d resource phase: %w", round, err)
		}
		rec.Outcomes = append(rec.Outcomes, out)
	}

	// Phase 4: contested/relational effects. Lexicographic order doubles as
	// the documented tie-break between simultaneous conflicting actions.
	for i, p := range proposals {
		if !valid[i] || !contestedKinds[p.Kind] {
			continue
		}
		out, err := gm.applyContested(work, p)
		if err != nil {
			return nil, fmt.Errorf("round %d contested phase: %w", round, err)
		}
		rec.Outcomes = append(rec.Outcomes, out)
	}

	// Deliberate passes still show up in the record.
	for i, p := range proposals {
		if !valid[i] || p.Kind != protocol.ActPass {
			continue
		}
		detail := "Passed"
		if p.PassReason != "" {
			detail = "Passed (" + p.PassReason + ")"
		}
		rec.Outcomes = append(rec.Outcomes, state.ActionOutcome{Actor: p.Actor, Kind: p.Kind, OK: true, Detail: detail})
	}

	// Phase 5: advance research projects.
	if err := gm.advanceResearch(work); err != nil {
		return nil, fmt.Errorf("round %d research phase: %w", round, err)
	}

	// Phase 6: information leaks.
	gm.rollLeak(work)

	// Phase 7: scenario random events.
	gm.rollRandomEvent(work)

	rec.Events = append([]string(nil), work.Events[eventsBefore:]...)

	// Phase 8: per-actor views and narrative summaries from the new state.
	views := make(map[string]protocol.StateView, len(work.Characters))
	topics := gm.scn.TopicNames()
	for _, name := range work.Names() {
		v, ok := work.ViewFor(name, topics)
		if !ok {
			return nil, fmt.Errorf("round %d: no view for %q", round, name)
		}
		views[name] = v
		rec.Summaries[name] = gm.renderSummary(work, name, &rec)
	}
	for _, name := range work.Names() {
		work.ClearInbox(name)
	}

	rec.Digest = work.Digest()
	work.AppendRecord(rec)

	if gm.log != nil {
		gm.log.Printf("round %d resolved: %d proposals, %d outcomes, digest=%s", round, len(proposals), len(rec.Outcomes), rec.Digest[:12])
	}

	return &Result{State: work, Record: rec, Views: views, Summaries: rec.Summaries}, nil
}

func rejectOutcome(p protocol.ActionProposal, rej *protocol.Rejection) state.ActionOutcome {
	return state.ActionOutcome{
		Actor:  p.Actor,
		Kind:   p.Kind,
		OK:     false,
		Code:   rej.Code,
		Detail: rej.Reason,
	}
}
