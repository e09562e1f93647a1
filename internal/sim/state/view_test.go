package state

import (
	"testing"
)

func TestViewFor_TruePublicBoundary(t *testing.T) {
	g := testState(t)
	g.Round = 2
	if err := g.DeliverMessage(Message{From: "Beta", To: "Alpha", Round: 2, Text: "psst"}); err != nil {
		t.Fatal(err)
	}
	g.NoteOutcome("Alpha", "Espionage on Beta succeeded")

	v, ok := g.ViewFor("Alpha", []string{"Alignment Techniques"})
	if !ok {
		t.Fatal("no view for Alpha")
	}

	// Self carries the full true state.
	if v.Self.Name != "Alpha" || v.Self.Objectives != "win" || v.Self.Strategy != "spend" {
		t.Fatalf("self view wrong: %+v", v.Self)
	}
	if v.Self.Budget["2024"] != 1_000_000 {
		t.Fatalf("self budget = %v", v.Self.Budget["2024"])
	}
	if v.Self.Assets.TechnicalCapability != 50 {
		t.Fatalf("self view carries stated assets, not true: %v", v.Self.Assets.TechnicalCapability)
	}
	if len(v.Self.Inbox) != 1 || v.Self.Inbox[0].From != "Beta" {
		t.Fatalf("inbox not projected: %+v", v.Self.Inbox)
	}
	if len(v.Self.RecentOutcomes) != 1 {
		t.Fatalf("recent outcomes not projected: %+v", v.Self.RecentOutcomes)
	}

	// Others carry the stated face only.
	if len(v.Others) != 1 || v.Others[0].Name != "Beta" {
		t.Fatalf("others = %+v", v.Others)
	}

	// Beta's view of Alpha must show Alpha's stated (overstated) assets, not
	// the true balance, and no budget at all.
	bv, ok := g.ViewFor("Beta", nil)
	if !ok {
		t.Fatal("no view for Beta")
	}
	if len(bv.Others) != 1 {
		t.Fatalf("others = %+v", bv.Others)
	}
	alpha := bv.Others[0]
	if alpha.StatedAssets.TechnicalCapability != 90 {
		t.Fatalf("Beta sees tech %v, want stated 90", alpha.StatedAssets.TechnicalCapability)
	}
	if alpha.StatedObjectives != "help everyone" {
		t.Fatalf("Beta sees objectives %q", alpha.StatedObjectives)
	}
	// Beta never sees Alpha's inbox, outcomes, or true budget through any
	// field of the view.
	if len(bv.Self.Inbox) != 0 {
		t.Fatalf("Beta inbox should be empty: %+v", bv.Self.Inbox)
	}
}

func TestViewFor_UnknownActor(t *testing.T) {
	g := testState(t)
	if _, ok := g.ViewFor("Gamma", nil); ok {
		t.Fatal("expected no view for unknown actor")
	}
}

func TestViewFor_PublicEventsTail(t *testing.T) {
	g := testState(t)
	for i := 0; i < publicEventsKeep+5; i++ {
		g.AppendEvent("event")
	}
	g.Events[len(g.Events)-1] = "newest"

	v, _ := g.ViewFor("Alpha", nil)
	got := v.Global.PublicEvents
	if len(got) != publicEventsKeep {
		t.Fatalf("kept %d events, want %d", len(got), publicEventsKeep)
	}
	if got[len(got)-1] != "newest" {
		t.Fatal("tail does not end with the newest event")
	}
}

func TestViewFor_CopiesDoNotAlias(t *testing.T) {
	g := testState(t)
	v, _ := g.ViewFor("Alpha", nil)
	v.Self.Budget["2024"] = -1
	if g.Character("Alpha").True.Budget["2024"] != 1_000_000 {
		t.Fatal("view budget aliases the state")
	}
}
