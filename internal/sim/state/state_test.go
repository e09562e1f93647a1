package state

import (
	"errors"
	"strings"
	"testing"
)

func testState(t *testing.T) *GameState {
	t.Helper()
	g := NewGameState([]string{"2024", "2025"}, 4)
	chars := []*Character{
		{
			Name: "Alpha",
			True: TrueState{
				Objectives: "win",
				Strategy:   "spend",
				Budget:     map[string]float64{"2024": 1_000_000, "2025": 2_000_000},
				Assets:     AssetBalance{TechnicalCapability: 50, Capital: 100, HumanCapital: 40},
			},
			Public: PublicState{
				StatedObjectives: "help everyone",
				StatedAssets:     AssetBalance{TechnicalCapability: 90, Capital: 100, HumanCapital: 60},
			},
		},
		{
			Name: "Beta",
			True: TrueState{
				Budget: map[string]float64{"2024": 500_000},
				Assets: AssetBalance{TechnicalCapability: 70, Capital: 200, HumanCapital: 10},
			},
		},
	}
	for _, c := range chars {
		if err := g.AddCharacter(c); err != nil {
			t.Fatalf("add %s: %v", c.Name, err)
		}
	}
	return g
}

func TestAddCharacter_Duplicate(t *testing.T) {
	g := testState(t)
	if err := g.AddCharacter(&Character{Name: "Alpha"}); err == nil {
		t.Fatal("expected duplicate name to fail")
	}
}

func TestCurrentPeriod(t *testing.T) {
	g := testState(t)
	cases := []struct {
		round int
		want  string
	}{
		{0, "2024"},
		{1, "2024"},
		{4, "2024"},
		{5, "2025"},
		{8, "2025"},
		{9, "2025"}, // past the last period, the final label persists
		{100, "2025"},
	}
	for _, c := range cases {
		g.Round = c.round
		if got := g.CurrentPeriod(); got != c.want {
			t.Errorf("round %d: period = %q, want %q", c.round, got, c.want)
		}
	}
}

func TestApplyBudgetDelta_NegativeFails(t *testing.T) {
	g := testState(t)
	if err := g.ApplyBudgetDelta("Alpha", "2024", -1_000_001); err == nil {
		t.Fatal("expected negative budget to fail")
	}
	var iv *InvariantViolation
	err := g.ApplyBudgetDelta("Alpha", "2024", -1_500_000)
	if !errors.As(err, &iv) {
		t.Fatalf("expected InvariantViolation, got %T", err)
	}
	// The failed delta must not have been applied.
	if got := g.Character("Alpha").True.Budget["2024"]; got != 1_000_000 {
		t.Fatalf("budget changed by failed delta: %v", got)
	}
}

func TestAdjustAssets_TechClampedOthersFail(t *testing.T) {
	g := testState(t)

	if err := g.AdjustAssets("Alpha", 200, 0, 0); err != nil {
		t.Fatalf("tech increase: %v", err)
	}
	if got := g.Character("Alpha").True.Assets.TechnicalCapability; got != 100 {
		t.Fatalf("tech = %v, want clamp at 100", got)
	}
	if err := g.AdjustAssets("Alpha", -500, 0, 0); err != nil {
		t.Fatalf("tech decrease: %v", err)
	}
	if got := g.Character("Alpha").True.Assets.TechnicalCapability; got != 0 {
		t.Fatalf("tech = %v, want clamp at 0", got)
	}

	if err := g.AdjustAssets("Alpha", 0, -101, 0); err == nil {
		t.Fatal("expected negative capital to fail")
	}
	if err := g.AdjustAssets("Alpha", 0, 0, -41); err == nil {
		t.Fatal("expected negative human capital to fail")
	}
	// Failed adjustments leave the balance untouched.
	a := g.Character("Alpha").True.Assets
	if a.Capital != 100 || a.HumanCapital != 40 {
		t.Fatalf("assets changed by failed adjust: %+v", a)
	}
}

func TestProjectLifecycle(t *testing.T) {
	g := testState(t)
	g.Round = 1

	p, err := g.AddProject("Alpha", "Alignment Techniques", 250_000, 10, 5)
	if err != nil {
		t.Fatalf("add project: %v", err)
	}
	if p.ID != "P1" || p.Status != ProjectActive {
		t.Fatalf("unexpected project: %+v", p)
	}

	done, err := g.UpdateProjectProgress(p.ID, 0.6, 250_000)
	if err != nil || done {
		t.Fatalf("progress 0.6: done=%v err=%v", done, err)
	}
	done, err = g.UpdateProjectProgress(p.ID, 0.7, 250_000)
	if err != nil {
		t.Fatalf("progress to completion: %v", err)
	}
	if !done || p.Status != ProjectCompleted || p.Progress != 1 {
		t.Fatalf("expected completed at progress 1, got %+v", p)
	}
	if p.Invested != 500_000 {
		t.Fatalf("invested = %v", p.Invested)
	}

	// Completion is final.
	if _, err := g.UpdateProjectProgress(p.ID, 0.1, 0); err == nil {
		t.Fatal("expected progress on completed project to fail")
	}
	if _, err := g.CancelProject("Alpha", p.ID); err == nil {
		t.Fatal("expected cancel of completed project to fail")
	}

	q, err := g.AddProject("Beta", "Novel Architectures", 100_000, 0, 0)
	if err != nil {
		t.Fatalf("add second project: %v", err)
	}
	if q.ID != "P2" {
		t.Fatalf("project id = %q, want P2", q.ID)
	}
	if _, err := g.CancelProject("Alpha", q.ID); err == nil {
		t.Fatal("expected non-owner cancel to fail")
	}
	if _, err := g.CancelProject("Beta", q.ID); err != nil {
		t.Fatalf("owner cancel: %v", err)
	}
	if q.Status != ProjectCancelled {
		t.Fatalf("status = %q", q.Status)
	}
}

func TestNoteOutcome_KeepsRecentOnly(t *testing.T) {
	g := testState(t)
	g.Round = 3
	for i := 0; i < 8; i++ {
		g.NoteOutcome("Alpha", "did a thing")
	}
	got := g.Character("Alpha").RecentOutcomes
	if len(got) != recentOutcomeKeep {
		t.Fatalf("kept %d outcomes, want %d", len(got), recentOutcomeKeep)
	}
	if !strings.HasPrefix(got[0], "Round 3: ") {
		t.Fatalf("outcome missing round prefix: %q", got[0])
	}
}

func TestClone_Independent(t *testing.T) {
	g := testState(t)
	g.Round = 1
	if _, err := g.AddProject("Alpha", "Scaling & Compute", 1, 0, 0); err != nil {
		t.Fatal(err)
	}
	if err := g.DeliverMessage(Message{From: "Beta", To: "Alpha", Round: 1, Text: "hi"}); err != nil {
		t.Fatal(err)
	}

	cp := g.Clone()
	if cp.Digest() != g.Digest() {
		t.Fatal("clone digest differs from original")
	}

	// Mutating the clone must not leak into the original.
	if err := cp.ApplyBudgetDelta("Alpha", "2024", -100); err != nil {
		t.Fatal(err)
	}
	if err := cp.AdjustAssets("Beta", 5, 0, 0); err != nil {
		t.Fatal(err)
	}
	if _, err := cp.UpdateProjectProgress("P1", 0.5, 0); err != nil {
		t.Fatal(err)
	}
	cp.ClearInbox("Alpha")
	cp.AppendEvent("something happened")

	if g.Character("Alpha").True.Budget["2024"] != 1_000_000 {
		t.Fatal("clone budget mutation leaked")
	}
	if g.Character("Beta").True.Assets.TechnicalCapability != 70 {
		t.Fatal("clone asset mutation leaked")
	}
	if g.Projects["P1"].Progress != 0 {
		t.Fatal("clone project mutation leaked")
	}
	if len(g.Character("Alpha").Inbox) != 1 {
		t.Fatal("clone inbox mutation leaked")
	}
	if len(g.Events) != 0 {
		t.Fatal("clone event mutation leaked")
	}
}

func TestDigest_SensitiveToTrueState(t *testing.T) {
	g := testState(t)
	before := g.Digest()
	if err := g.ApplyBudgetDelta("Beta", "2024", -1); err != nil {
		t.Fatal(err)
	}
	if g.Digest() == before {
		t.Fatal("digest unchanged after budget mutation")
	}
}
