// Command server hosts one simulation run over websockets. Remote actors
// connect to /ws and claim character seats with HELLO; the run starts once
// every seat is claimed (or the wait deadline passes, leaving vacant seats to
// scripted stand-ins when -fill is set).
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/google/uuid"

	"statecraft.ai/internal/actor"
	"statecraft.ai/internal/persistence/indexdb"
	runlog "statecraft.ai/internal/persistence/log"
	"statecraft.ai/internal/protocol"
	"statecraft.ai/internal/sim/runner"
	"statecraft.ai/internal/sim/scenario"
	"statecraft.ai/internal/sim/state"
	"statecraft.ai/internal/sim/tuning"
	"statecraft.ai/internal/transport/ws"
)

func main() {
	var (
		addr         = flag.String("addr", ":8080", "listen address")
		scenarioPath = flag.String("scenario", "configs/basic_ai_race.yaml", "scenario file")
		tuningPath   = flag.String("tuning", "", "tuning overrides (optional)")
		seed         = flag.Int64("seed", 1, "resolution seed")
		rounds       = flag.Int("rounds", 10, "maximum rounds")
		timeout      = flag.Duration("timeout", 60*time.Second, "per-round decision timeout")
		seatWait     = flag.Duration("seat-wait", 5*time.Minute, "how long to wait for all seats")
		fill         = flag.Bool("fill", false, "fill unclaimed seats with scripted actors after seat-wait")
		dataDir      = flag.String("data", "data", "output directory for run logs and the index db")
	)
	flag.Parse()

	logger := log.New(os.Stderr, "[server] ", log.LstdFlags|log.Lmsgprefix)

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

	params := protocol.RunParams{
		MaxRounds:        *rounds,
		DecisionTimeoutS: int(timeout.Seconds()),
		Seed:             *seed,
	}
	seats := ws.NewServer(scn, params, logger)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", seats.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	srv := &http.Server{Addr: *addr, Handler: mux}

	go func() {
		logger.Printf("listening on %s", *addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("http server: %v", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	waitCtx, cancelWait := context.WithTimeout(ctx, *seatWait)
	err = seats.WaitForSeats(waitCtx)
	cancelWait()
	if err != nil {
		if !*fill || ctx.Err() != nil {
			logger.Fatalf("seats not claimed in time: %v", err)
		}
		logger.Printf("seat wait elapsed, filling vacant seats with scripted actors")
	}

	actors := make(map[string]actor.Actor, len(scn.Characters))
	for _, def := range scn.Characters {
		actors[def.Name] = seatOrScripted(seats, def.Name, *fill)
	}

	runID := uuid.NewString()
	w, err := runlog.NewWriter(filepath.Join(*dataDir, "runs", runID+".jsonl.zst"), runlog.RunHeader{
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

	logger.Printf("run %s: scenario=%s seed=%d rounds<=%d", runID, scn.Name, *seed, *rounds)
	res, runErr := r.Run(ctx)
	if res != nil {
		idx.FinishRun(runID, res.Rounds, res.StopReason)
		seats.BroadcastResult(res.Rounds, res.StopReason)
	}

	shutCtx, cancelShut := context.WithTimeout(context.Background(), 5*time.Second)
	_ = srv.Shutdown(shutCtx)
	cancelShut()

	if runErr != nil {
		logger.Fatalf("run failed after %d rounds: %v", res.Rounds, runErr)
	}
	logger.Printf("run %s: finished after %d rounds (%s)", runID, res.Rounds, res.StopReason)
}

// seatOrScripted prefers the websocket seat; with fill enabled, a seat error
// (vacant or disconnected) degrades to the scripted baseline for that round.
func seatOrScripted(seats *ws.Server, name string, fill bool) actor.Actor {
	remote := seats.Actor(name)
	if !fill {
		return remote
	}
	scripted := actor.NewScripted(name)
	return actor.Func(func(ctx context.Context, view protocol.StateView, history []string) (protocol.ActionProposal, error) {
		p, err := remote.ProposeAction(ctx, view, history)
		if err == nil {
			return p, nil
		}
		if ctx.Err() != nil {
			return p, err
		}
		return scripted.ProposeAction(ctx, view, history)
	})
}

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
