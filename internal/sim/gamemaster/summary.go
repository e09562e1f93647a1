package gamemaster

import (
	"fmt"
	"strings"

	"statecraft.ai/internal/sim/state"
)

// renderSummary builds the narrative one actor receives for the round. It is
// restricted to what the actor is entitled to see: its own outcomes (private
// ones included), other actors' public outcomes, public events, its own
// project status, and messages addressed to it.
func (gm *Gamemaster) renderSummary(work *state.GameState, name string, rec *state.RoundRecord) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Round %d:\n", rec.Round)

	wroteOwn := false
	for _, out := range rec.Outcomes {
		if out.Actor != name {
			continue
		}
		if !wroteOwn {
			b.WriteString("Your actions:\n")
			wroteOwn = true
		}
		if out.OK {
			fmt.Fprintf(&b, "  - %s\n", out.Detail)
		} else {
			fmt.Fprintf(&b, "  - Rejected (%s): %s\n", out.Code, out.Detail)
		}
	}

	wroteOthers := false
	for _, out := range rec.Outcomes {
		if out.Actor == name || out.Private {
			continue
		}
		if !wroteOthers {
			b.WriteString("Other players:\n")
			wroteOthers = true
		}
		if out.OK {
			fmt.Fprintf(&b, "  - %s: %s\n", out.Actor, out.Detail)
		} else {
			fmt.Fprintf(&b, "  - %s: action rejected\n", out.Actor)
		}
	}

	projects := work.ProjectsOwnedBy(name)
	wroteProjects := false
	for _, p := range projects {
		if p.Status == state.ProjectCancelled {
			continue
		}
		if !wroteProjects {
			b.WriteString("Your research:\n")
			wroteProjects = true
		}
		switch p.Status {
		case state.ProjectCompleted:
			fmt.Fprintf(&b, "  - %s (%s) is complete\n", p.ID, p.Topic)
		default:
			fmt.Fprintf(&b, "  - %s (%s) is %.0f%% complete\n", p.ID, p.Topic, p.Progress*100)
		}
	}

	if c := work.Character(name); c != nil && len(c.Inbox) > 0 {
		b.WriteString("Messages:\n")
		for _, m := range c.Inbox {
			fmt.Fprintf(&b, "  - From %s: %s\n", m.From, m.Text)
		}
	}

	if len(rec.Events) > 0 {
		b.WriteString("Public events:\n")
		for _, e := range rec.Events {
			fmt.Fprintf(&b, "  - %s\n", e)
		}
	}

	return b.String()
}
