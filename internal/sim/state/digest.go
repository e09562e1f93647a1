package state

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"math"
	"sort"
)

// Digest hashes the whole mutable state in a fixed order. Two runs that
// applied identical rounds produce identical digests, which is what replay
// verification checks tick by tick.
func (g *GameState) Digest() string {
	h := sha256.New()
	var tmp [8]byte

	writeU64 := func(v uint64) {
		binary.LittleEndian.PutUint64(tmp[:], v)
		h.Write(tmp[:])
	}
	writeF64 := func(v float64) {
		writeU64(math.Float64bits(v))
	}
	writeStr := func(s string) {
		writeU64(uint64(len(s)))
		h.Write([]byte(s))
	}

	writeU64(uint64(g.Round))
	writeU64(uint64(g.NextProjectNum))

	for _, name := range g.Names() {
		c := g.Characters[name]
		writeStr(c.Name)
		writeStr(c.True.Objectives)
		writeStr(c.True.Strategy)
		for _, period := range c.budgetPeriods() {
			writeStr(period)
			writeF64(c.True.Budget[period])
		}
		writeF64(c.True.Assets.TechnicalCapability)
		writeU64(uint64(c.True.Assets.Capital))
		writeF64(c.True.Assets.HumanCapital)

		writeStr(c.Public.StatedObjectives)
		writeStr(c.Public.StatedStrategy)
		writeF64(c.Public.StatedAssets.TechnicalCapability)
		writeU64(uint64(c.Public.StatedAssets.Capital))
		writeF64(c.Public.StatedAssets.HumanCapital)
		for _, a := range c.Public.PublicArtifacts {
			writeStr(a)
		}
		for _, line := range c.RecentOutcomes {
			writeStr(line)
		}
		for _, m := range c.Inbox {
			writeStr(m.From)
			writeU64(uint64(m.Round))
			writeStr(m.Text)
		}
	}

	ids := make([]string, 0, len(g.Projects))
	for id := range g.Projects {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		p := g.Projects[id]
		writeStr(p.ID)
		writeStr(p.Owner)
		writeStr(p.Topic)
		writeF64(p.AnnualBudget)
		writeF64(p.Invested)
		writeU64(uint64(p.CommittedCapital))
		writeF64(p.CommittedHuman)
		writeF64(p.Progress)
		writeStr(p.Status)
		writeU64(uint64(p.StartedRound))
		writeU64(uint64(p.ClosedRound))
	}

	for _, e := range g.Events {
		writeStr(e)
	}

	return hex.EncodeToString(h.Sum(nil))
}
