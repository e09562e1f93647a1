// Package runner drives the round loop: fan out one proposal request per
// live actor, wait at the barrier, hand the complete batch to the gamemaster
// exactly once, commit, deliver summaries, and decide termination.
package runner

import (
	"context"
	"fmt"
	"log"
	"time"

	"statecraft.ai/internal/actor"
	"statecraft.ai/internal/protocol"
	"statecraft.ai/internal/sim/gamemaster"
	"statecraft.ai/internal/sim/scenario"
	"statecraft.ai/internal/sim/state"
	"statecraft.ai/internal/sim/tuning"
)

// Config is the surface the engine consumes but does not own.
type Config struct {
	MaxRounds       int
	DecisionTimeout time.Duration
	Seed            int64
}

// RoundSink receives each committed round record (persistence is a
// collaborator's concern; nil sinks are fine).
type RoundSink interface {
	WriteRound(rec state.RoundRecord) error
}

// RunResult is the sole artifact downstream analysis consumes: the final
// state plus the ordered round records, every field serializable.
type RunResult struct {
	Scenario   string              `json:"scenario"`
	Seed       int64               `json:"seed"`
	Rounds     int                 `json:"rounds"`
	StopReason string              `json:"stop_reason"`
	FinalState *state.GameState    `json:"final_state"`
	Records    []state.RoundRecord `json:"records"`
}

type Runner struct {
	cfg    Config
	scn    *scenario.Scenario
	gm     *gamemaster.Gamemaster
	actors map[string]actor.Actor
	sink   RoundSink
	log    *log.Logger
}

// New wires a runner. actors must provide exactly one Actor per scenario
// character; a missing seat is a contract violation caught before round 1.
func New(cfg Config, scn *scenario.Scenario, tune tuning.Tuning, actors map[string]actor.Actor, sink RoundSink, logger *log.Logger) (*Runner, error) {
	if cfg.MaxRounds <= 0 {
		return nil, fmt.Errorf("max rounds must be positive")
	}
	if cfg.DecisionTimeout <= 0 {
		cfg.DecisionTimeout = 60 * time.Second
	}
	for _, def := range scn.Characters {
		if actors[def.Name] == nil {
			return nil, fmt.Errorf("no actor for character %q", def.Name)
		}
	}
	for name := range actors {
		found := false
		for _, def := range scn.Characters {
			if def.Name == name {
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("actor %q has no character in scenario %q", name, scn.Name)
		}
	}
	return &Runner{
		cfg:    cfg,
		scn:    scn,
		gm:     gamemaster.New(scn, tune, cfg.Seed, logger),
		actors: actors,
		sink:   sink,
		log:    logger,
	}, nil
}

type proposalResult struct {
	actor    string
	proposal protocol.ActionProposal
}

// Run executes the round loop until a stop condition. A fatal invariant
// violation aborts the remainder of the run; the returned result then holds
// the last committed state and records.
func (r *Runner) Run(ctx context.Context) (*RunResult, error) {
	g, err := r.scn.InitialState()
	if err != nil {
		return nil, fmt.Errorf("initial state: %w", err)
	}

	topics := r.scn.TopicNames()
	views := make(map[string]protocol.StateView, len(g.Characters))
	for _, name := range g.Names() {
		v, ok := g.ViewFor(name, topics)
		if !ok {
			return nil, fmt.Errorf("no view for %q", name)
		}
		views[name] = v
	}
	histories := make(map[string][]string, len(g.Characters))

	result := &RunResult{Scenario: r.scn.Name, Seed: r.cfg.Seed}

	for round := 1; round <= r.cfg.MaxRounds; round++ {
		if err := ctx.Err(); err != nil {
			result.finish(g, "cancelled")
			return result, err
		}

		batch := r.collectProposals(ctx, round, g.Names(), views, histories)

		res, err := r.gm.ResolveRound(g, batch)
		if err != nil {
			result.finish(g, "fatal")
			return result, fmt.Errorf("round %d: %w", round, err)
		}

		// Commit: swap in the resolved state, then everything downstream
		// (sink, summaries) sees only committed rounds.
		g = res.State
		if r.sink != nil {
			if err := r.sink.WriteRound(res.Record); err != nil && r.log != nil {
				r.log.Printf("round %d: sink write failed: %v", round, err)
			}
		}
		views = res.Views
		for name, summary := range res.Summaries {
			histories[name] = append(histories[name], summary)
		}

		if reason := r.terminalReason(g); reason != "" {
			result.finish(g, reason)
			return result, nil
		}
	}

	result.finish(g, "max_rounds")
	return result, nil
}

// collectProposals fans out one request per live actor and waits for the
// barrier: resolution starts only once every seat has answered, timed out,
// or failed. Timeouts and failures degrade to recorded pass actions.
func (r *Runner) collectProposals(ctx context.Context, round int, names []string, views map[string]protocol.StateView, histories map[string][]string) []protocol.ActionProposal {
	results := make(chan proposalResult, len(names))

	for _, name := range names {
		go func(name string) {
			results <- proposalResult{actor: name, proposal: r.askActor(ctx, round, name, views[name], histories[name])}
		}(name)
	}

	batch := make([]protocol.ActionProposal, 0, len(names))
	for range names {
		res := <-results
		batch = append(batch, res.proposal)
	}
	return batch
}

func (r *Runner) askActor(ctx context.Context, round int, name string, view protocol.StateView, history []string) protocol.ActionProposal {
	cctx, cancel := context.WithTimeout(ctx, r.cfg.DecisionTimeout)
	defer cancel()

	type answer struct {
		p   protocol.ActionProposal
		err error
	}
	ch := make(chan answer, 1)
	go func() {
		p, err := r.actors[name].ProposeAction(cctx, view, history)
		ch <- answer{p, err}
	}()

	select {
	case <-cctx.Done():
		if r.log != nil {
			r.log.Printf("round %d: %s timed out, substituting pass", round, name)
		}
		return protocol.Pass(name, round, "decision timeout")
	case a := <-ch:
		if a.err != nil {
			if r.log != nil {
				r.log.Printf("round %d: %s failed (%v), substituting pass", round, name, a.err)
			}
			return protocol.Pass(name, round, "actor failed: "+a.err.Error())
		}
		// Trust the seat identity, not the payload.
		a.p.Actor = name
		a.p.Round = round
		return a.p
	}
}

func (r *Runner) terminalReason(g *state.GameState) string {
	t := r.scn.Terminal
	if t.AnyCapitalZero {
		for _, name := range g.Names() {
			if g.Character(name).True.Assets.Capital == 0 {
				return fmt.Sprintf("capital_zero:%s", name)
			}
		}
	}
	if t.AnyProjectCompleted {
		for _, p := range g.Projects {
			if p.Status == state.ProjectCompleted {
				return fmt.Sprintf("project_completed:%s", p.ID)
			}
		}
	}
	return ""
}

func (res *RunResult) finish(g *state.GameState, reason string) {
	res.FinalState = g
	res.Records = g.Records
	res.Rounds = g.Round
	res.StopReason = reason
}
