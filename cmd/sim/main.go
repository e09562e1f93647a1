// Command sim runs a complete simulation locally with scripted actors. It is
// the fastest way to exercise a scenario end to end: no network, one process,
// deterministic output for a given seed.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/google/uuid"

	"statecraft.ai/internal/actor"
	"statecraft.ai/internal/persistence/indexdb"
	runlog "statecraft.ai/internal/persistence/log"
	"statecraft.ai/internal/sim/runner"
	"statecraft.ai/internal/sim/scenario"
	"statecraft.ai/internal/sim/state"
	"statecraft.ai/internal/sim/tuning"
)

func main() {
	var (
		scenarioPath = flag.String("scenario", "configs/basic_ai_race.yaml", "scenario file")
		tuningPath   = flag.String("tuning", "", "tuning overrides (optional)")
		seed         = flag.Int64("seed", 1, "resolution seed")
		rounds       = flag.Int("rounds", 10, "maximum rounds")
		timeout      = flag.Duration("timeout", 60*time.Second, "per-round decision timeout")
		dataDir      = flag.String("data", "data", "output directory for run logs and the index db")
		printResult  = flag.Bool("print", false, "print the run result JSON to stdout")
	)
	flag.Parse()

	logger := log.New(os.Stderr, "[sim] ", log.LstdFlags|log.Lmsgprefix)

	scn, err := scenario.Load(*scenarioPath)
	if err != nil {
		logger.Fatalf("load scenario: %v", err)
	}

	tune := tuning.Defaults()
	if *tuningPath != "" {
		tune, err = tuning.Load(*tuningPath)
		if err != nil {
			logger.Fatalf("load tuning: %v", err)
		}
	}

	actors := make(map[string]actor.Actor, len(scn.Characters))
	for _, def := range scn.Characters {
		actors[def.Name] = actor.NewScripted(def.Name)
	}

	runID := uuid.NewString()
	logPath := filepath.Join(*dataDir, "runs", runID+".jsonl.zst")
	w, err := runlog.NewWriter(logPath, runlog.RunHeader{
		RunID:     runID,
		Scenario:  scn.Name,
		Seed:      *seed,
		MaxRounds: *rounds,
	})
	if err != nil {
		logger.Fatalf("open run log: %v", err)
	}
	defer w.Close()

	idx, err := indexdb.OpenSQLite(filepath.Join(*dataDir, "index.db"))
	if err != nil {
		logger.Fatalf("open index: %v", err)
	}
	defer idx.Close()
	idx.RecordRun(runID, scn.Name, *seed, *rounds)

	sink := multiSink{w, idx.RoundSink(runID)}

	r, err := runner.New(runner.Config{
		MaxRounds:       *rounds,
		DecisionTimeout: *timeout,
		Seed:            *seed,
	}, scn, tune, actors, sink, logger)
	if err != nil {
		logger.Fatalf("runner: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Printf("run %s: scenario=%s seed=%d rounds<=%d", runID, scn.Name, *seed, *rounds)
	res, err := r.Run(ctx)
	if res != nil {
		idx.FinishRun(runID, res.Rounds, res.StopReason)
	}
	if err != nil {
		logger.Fatalf("run failed after %d rounds: %v", res.Rounds, err)
	}

	logger.Printf("run %s: finished after %d rounds (%s)", runID, res.Rounds, res.StopReason)
	if *printResult {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(res); err != nil {
			logger.Fatalf("encode result: %v", err)
		}
	} else {
		fmt.Println(runID)
	}
}

// multiSink fans each committed round out to every sink; the first error wins
// but later sinks still see the record.
type multiSink []runner.RoundSink

func (m multiSink) WriteRound(rec state.RoundRecord) error {
	var first error
	for _, s := range m {
		if err := s.WriteRound(rec); err != nil && first == nil {
			first = err
		}
	}
	return first
}
