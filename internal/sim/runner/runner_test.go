package runner

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"statecraft.ai/internal/actor"
	"statecraft.ai/internal/protocol"
	"statecraft.ai/internal/sim/scenario"
	"statecraft.ai/internal/sim/state"
	"statecraft.ai/internal/sim/tuning"
)

func testScenario() *scenario.Scenario {
	return &scenario.Scenario{
		Name:            "test",
		RoundsPerPeriod: 4,
		ResearchTopics:  []scenario.Topic{{Name: "Alignment Techniques"}},
		Characters: []scenario.CharacterDef{
			{Name: "Alpha", True: scenario.TrueStateDef{
				Budget: map[string]float64{"2024": 10_000_000},
				Assets: scenario.AssetsDef{TechnicalCapability: 50, Capital: 1_000_000, HumanCapital: 100},
			}},
			{Name: "Beta", True: scenario.TrueStateDef{
				Budget: map[string]float64{"2024": 5_000_000},
				Assets: scenario.AssetsDef{TechnicalCapability: 60, Capital: 2_000_000, HumanCapital: 50},
			}},
		},
	}
}

// quietTuning disables the probabilistic phases so assertions stay exact.
func quietTuning() tuning.Tuning {
	t := tuning.Defaults()
	t.FundraiseSuccessProb = 1
	t.LeakProb = 0
	t.RandomEventProb = 0
	t.ResearchJitter = 0
	return t
}

func passActor(name string) actor.Actor {
	return actor.Func(func(_ context.Context, view protocol.StateView, _ []string) (protocol.ActionProposal, error) {
		return protocol.ActionProposal{Actor: name, Round: view.Round + 1, Kind: protocol.ActPass}, nil
	})
}

type recordingSink struct {
	records []state.RoundRecord
}

func (s *recordingSink) WriteRound(rec state.RoundRecord) error {
	s.records = append(s.records, rec)
	return nil
}

func TestNew_SeatContract(t *testing.T) {
	scn := testScenario()
	cfg := Config{MaxRounds: 3, DecisionTimeout: time.Second}

	_, err := New(cfg, scn, quietTuning(), map[string]actor.Actor{"Alpha": passActor("Alpha")}, nil, nil)
	if err == nil {
		t.Fatal("expected missing seat to fail")
	}

	actors := map[string]actor.Actor{
		"Alpha": passActor("Alpha"),
		"Beta":  passActor("Beta"),
		"Gamma": passActor("Gamma"),
	}
	if _, err := New(cfg, scn, quietTuning(), actors, nil, nil); err == nil {
		t.Fatal("expected extra seat to fail")
	}
}

func TestRun_MaxRounds(t *testing.T) {
	scn := testScenario()
	sink := &recordingSink{}
	r, err := New(Config{MaxRounds: 5, DecisionTimeout: time.Second}, scn, quietTuning(), map[string]actor.Actor{
		"Alpha": passActor("Alpha"),
		"Beta":  passActor("Beta"),
	}, sink, nil)
	if err != nil {
		t.Fatal(err)
	}

	res, err := r.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if res.Rounds != 5 || res.StopReason != "max_rounds" {
		t.Fatalf("rounds=%d reason=%q", res.Rounds, res.StopReason)
	}
	if len(res.Records) != 5 || len(sink.records) != 5 {
		t.Fatalf("records=%d sink=%d", len(res.Records), len(sink.records))
	}
	for i, rec := range res.Records {
		if rec.Round != i+1 {
			t.Fatalf("record %d has round %d", i, rec.Round)
		}
		if rec.Digest != sink.records[i].Digest {
			t.Fatal("sink saw a different record than the result")
		}
	}
}

func TestRun_TimeoutSubstitutesPass(t *testing.T) {
	scn := testScenario()
	slow := actor.Func(func(ctx context.Context, _ protocol.StateView, _ []string) (protocol.ActionProposal, error) {
		<-ctx.Done()
		return protocol.ActionProposal{}, ctx.Err()
	})
	r, err := New(Config{MaxRounds: 1, DecisionTimeout: 50 * time.Millisecond}, scn, quietTuning(), map[string]actor.Actor{
		"Alpha": slow,
		"Beta":  passActor("Beta"),
	}, nil, nil)
	if err != nil {
		t.Fatal(err)
	}

	res, err := r.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	rec := res.Records[0]
	var alphaPass bool
	for _, p := range rec.Proposals {
		if p.Actor == "Alpha" && p.Kind == protocol.ActPass && p.PassReason == "decision timeout" {
			alphaPass = true
		}
	}
	if !alphaPass {
		t.Fatalf("timeout not degraded to pass: %+v", rec.Proposals)
	}
}

func TestRun_ActorErrorSubstitutesPass(t *testing.T) {
	scn := testScenario()
	broken := actor.Func(func(context.Context, protocol.StateView, []string) (protocol.ActionProposal, error) {
		return protocol.ActionProposal{}, errors.New("model unavailable")
	})
	r, err := New(Config{MaxRounds: 1, DecisionTimeout: time.Second}, scn, quietTuning(), map[string]actor.Actor{
		"Alpha": broken,
		"Beta":  passActor("Beta"),
	}, nil, nil)
	if err != nil {
		t.Fatal(err)
	}

	res, err := r.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	for _, p := range res.Records[0].Proposals {
		if p.Actor == "Alpha" {
			if p.Kind != protocol.ActPass || p.PassReason == "" {
				t.Fatalf("actor failure not degraded to pass: %+v", p)
			}
		}
	}
}

func TestRun_SeatIdentityTrumpsPayload(t *testing.T) {
	scn := testScenario()
	impostor := actor.Func(func(_ context.Context, _ protocol.StateView, _ []string) (protocol.ActionProposal, error) {
		// Claims to be Beta acting in a far-future round.
		return protocol.ActionProposal{Actor: "Beta", Round: 99, Kind: protocol.ActPass}, nil
	})
	r, err := New(Config{MaxRounds: 1, DecisionTimeout: time.Second}, scn, quietTuning(), map[string]actor.Actor{
		"Alpha": impostor,
		"Beta":  passActor("Beta"),
	}, nil, nil)
	if err != nil {
		t.Fatal(err)
	}

	res, err := r.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	alphaSeen := 0
	for _, p := range res.Records[0].Proposals {
		if p.Actor == "Alpha" {
			alphaSeen++
			if p.Round != 1 {
				t.Fatalf("round not corrected: %+v", p)
			}
		}
	}
	if alphaSeen != 1 {
		t.Fatalf("seat identity not enforced: %+v", res.Records[0].Proposals)
	}
}

func TestRun_TerminalProjectCompleted(t *testing.T) {
	scn := testScenario()
	scn.Terminal.AnyProjectCompleted = true

	started := false
	alpha := actor.Func(func(_ context.Context, view protocol.StateView, _ []string) (protocol.ActionProposal, error) {
		round := view.Round + 1
		if !started {
			started = true
			return protocol.ActionProposal{Actor: "Alpha", Round: round, Kind: protocol.ActStartResearch, Research: &protocol.StartResearchParams{
				Topic: "Alignment Techniques", AnnualBudget: 1_000, HumanCapital: 100,
			}}, nil
		}
		return protocol.ActionProposal{Actor: "Alpha", Round: round, Kind: protocol.ActPass}, nil
	})

	r, err := New(Config{MaxRounds: 30, DecisionTimeout: time.Second}, scn, quietTuning(), map[string]actor.Actor{
		"Alpha": alpha,
		"Beta":  passActor("Beta"),
	}, nil, nil)
	if err != nil {
		t.Fatal(err)
	}

	res, err := r.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	// 100 committed human capital pins the rate at the 0.3 cap, so the
	// project finishes after 4 rounds, well before the round limit.
	if res.StopReason != "project_completed:P1" {
		t.Fatalf("stop reason = %q", res.StopReason)
	}
	if res.Rounds >= 30 {
		t.Fatalf("run did not stop early: %d rounds", res.Rounds)
	}
}

func TestRun_Cancelled(t *testing.T) {
	scn := testScenario()
	ctx, cancel := context.WithCancel(context.Background())
	blocker := actor.Func(func(ctx context.Context, _ protocol.StateView, _ []string) (protocol.ActionProposal, error) {
		cancel()
		<-ctx.Done()
		return protocol.ActionProposal{}, ctx.Err()
	})
	r, err := New(Config{MaxRounds: 10, DecisionTimeout: time.Second}, scn, quietTuning(), map[string]actor.Actor{
		"Alpha": blocker,
		"Beta":  passActor("Beta"),
	}, nil, nil)
	if err != nil {
		t.Fatal(err)
	}

	res, err := r.Run(ctx)
	if err == nil {
		t.Fatal("expected context error")
	}
	if res.StopReason != "cancelled" {
		t.Fatalf("stop reason = %q", res.StopReason)
	}
}

func TestRun_DeterministicWithScriptedActors(t *testing.T) {
	run := func() []state.RoundRecord {
		scn := testScenario()
		actors := map[string]actor.Actor{
			"Alpha": actor.NewScripted("Alpha"),
			"Beta":  actor.NewScripted("Beta"),
		}
		r, err := New(Config{MaxRounds: 6, DecisionTimeout: time.Second, Seed: 7}, scn, tuning.Defaults(), actors, nil, nil)
		if err != nil {
			t.Fatal(err)
		}
		res, err := r.Run(context.Background())
		if err != nil {
			t.Fatal(err)
		}
		return res.Records
	}

	a := run()
	b := run()
	if len(a) != len(b) {
		t.Fatalf("round counts differ: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i].Digest != b[i].Digest {
			t.Fatalf("round %d: digests diverged across identical runs", i+1)
		}
	}
}

func TestRun_HistoriesGrowPerRound(t *testing.T) {
	scn := testScenario()
	var lens []int
	watcher := actor.Func(func(_ context.Context, view protocol.StateView, history []string) (protocol.ActionProposal, error) {
		lens = append(lens, len(history))
		return protocol.ActionProposal{Actor: "Alpha", Round: view.Round + 1, Kind: protocol.ActPass}, nil
	})
	r, err := New(Config{MaxRounds: 3, DecisionTimeout: time.Second}, scn, quietTuning(), map[string]actor.Actor{
		"Alpha": watcher,
		"Beta":  passActor("Beta"),
	}, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := r.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	want := fmt.Sprint([]int{0, 1, 2})
	if got := fmt.Sprint(lens); got != want {
		t.Fatalf("history lengths = %v, want %v", got, want)
	}
}
