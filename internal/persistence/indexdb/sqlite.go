// Package indexdb maintains a SQLite read-model over finished and in-flight
// runs so distributional study across many runs can query rounds, digests,
// and rejections without re-reading the JSONL logs. The index never feeds
// back into resolution; losing it loses nothing the run log cannot rebuild.
package indexdb

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	_ "modernc.org/sqlite"

	"statecraft.ai/internal/sim/state"
)

type SQLiteIndex struct {
	db *sql.DB

	ch   chan req
	wg   sync.WaitGroup
	once sync.Once

	closed atomic.Bool
}

type reqKind int

const (
	reqRun reqKind = iota + 1
	reqRound
	reqFinish
)

type req struct {
	kind reqKind

	run    runRow
	runID  string
	round  state.RoundRecord
	finish finishRow
}

type runRow struct {
	RunID     string
	Scenario  string
	Seed      int64
	MaxRounds int
	StartedAt string
}

type finishRow struct {
	RunID      string
	Rounds     int
	StopReason string
	FinishedAt string
}

func OpenSQLite(path string) (*SQLiteIndex, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	s := &SQLiteIndex{
		db: db,
		ch: make(chan req, 4096),
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.loop()
	}()
	return s, nil
}

func initPragmas(db *sql.DB) error {
	// WAL suits the append-style workload; the index is secondary data.
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA foreign_keys=ON;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA temp_store=MEMORY;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			run_id TEXT PRIMARY KEY,
			scenario TEXT NOT NULL,
			seed INTEGER NOT NULL,
			max_rounds INTEGER NOT NULL,
			started_at TEXT NOT NULL,
			finished_at TEXT,
			rounds INTEGER,
			stop_reason TEXT
		);`,
		`CREATE TABLE IF NOT EXISTS rounds (
			run_id TEXT NOT NULL,
			round INTEGER NOT NULL,
			digest TEXT NOT NULL,
			proposals INTEGER NOT NULL,
			rejections INTEGER NOT NULL,
			raw_json TEXT NOT NULL,
			PRIMARY KEY (run_id, round)
		);`,
		`CREATE TABLE IF NOT EXISTS outcomes (
			run_id TEXT NOT NULL,
			round INTEGER NOT NULL,
			seq INTEGER NOT NULL,
			actor TEXT NOT NULL,
			kind TEXT NOT NULL,
			ok INTEGER NOT NULL,
			code TEXT,
			detail TEXT NOT NULL,
			PRIMARY KEY (run_id, round, seq)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_outcomes_actor ON outcomes(actor, run_id, round);`,
		`CREATE INDEX IF NOT EXISTS idx_outcomes_kind ON outcomes(kind, ok);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteIndex) Close() error {
	var err error
	s.once.Do(func() {
		s.closed.Store(true)
		close(s.ch)
		s.wg.Wait()
		err = s.db.Close()
	})
	return err
}

// RecordRun registers a run before its first round.
func (s *SQLiteIndex) RecordRun(runID, scenario string, seed int64, maxRounds int) {
	if s == nil || s.closed.Load() {
		return
	}
	r := runRow{
		RunID:     runID,
		Scenario:  scenario,
		Seed:      seed,
		MaxRounds: maxRounds,
		StartedAt: time.Now().UTC().Format(time.RFC3339Nano),
	}
	select {
	case s.ch <- req{kind: reqRun, run: r}:
	default:
	}
}

// RoundSink returns a sink bound to one run, suitable for the runner.
func (s *SQLiteIndex) RoundSink(runID string) *BoundSink {
	return &BoundSink{idx: s, runID: runID}
}

type BoundSink struct {
	idx   *SQLiteIndex
	runID string
}

func (b *BoundSink) WriteRound(rec state.RoundRecord) error {
	b.idx.writeRound(b.runID, rec)
	return nil
}

func (s *SQLiteIndex) writeRound(runID string, rec state.RoundRecord) {
	if s == nil || s.closed.Load() {
		return
	}
	select {
	case s.ch <- req{kind: reqRound, runID: runID, round: rec}:
	default:
		// Drop if the indexer falls behind; the JSONL run log remains the
		// source of truth.
	}
}

// FinishRun records the run outcome.
func (s *SQLiteIndex) FinishRun(runID string, rounds int, stopReason string) {
	if s == nil || s.closed.Load() {
		return
	}
	r := finishRow{
		RunID:      runID,
		Rounds:     rounds,
		StopReason: stopReason,
		FinishedAt: time.Now().UTC().Format(time.RFC3339Nano),
	}
	select {
	case s.ch <- req{kind: reqFinish, finish: r}:
	default:
	}
}

func (s *SQLiteIndex) loop() {
	insertRun, _ := s.db.Prepare(`INSERT OR REPLACE INTO runs(run_id,scenario,seed,max_rounds,started_at) VALUES(?,?,?,?,?)`)
	insertRound, _ := s.db.Prepare(`INSERT OR REPLACE INTO rounds(run_id,round,digest,proposals,rejections,raw_json) VALUES(?,?,?,?,?,?)`)
	insertOutcome, _ := s.db.Prepare(`INSERT OR REPLACE INTO outcomes(run_id,round,seq,actor,kind,ok,code,detail) VALUES(?,?,?,?,?,?,?,?)`)
	finishRun, _ := s.db.Prepare(`UPDATE runs SET finished_at=?, rounds=?, stop_reason=? WHERE run_id=?`)
	defer func() {
		for _, st := range []*sql.Stmt{insertRun, insertRound, insertOutcome, finishRun} {
			if st != nil {
				_ = st.Close()
			}
		}
	}()

	for r := range s.ch {
		switch r.kind {
		case reqRun:
			if insertRun == nil {
				continue
			}
			_, _ = insertRun.Exec(r.run.RunID, r.run.Scenario, r.run.Seed, r.run.MaxRounds, r.run.StartedAt)

		case reqRound:
			if insertRound == nil {
				continue
			}
			rejections := 0
			for _, o := range r.round.Outcomes {
				if !o.OK {
					rejections++
				}
			}
			b, _ := json.Marshal(r.round)
			if _, err := insertRound.Exec(r.runID, r.round.Round, r.round.Digest, len(r.round.Proposals), rejections, string(b)); err != nil {
				continue
			}
			if insertOutcome == nil {
				continue
			}
			for seq, o := range r.round.Outcomes {
				okVal := 0
				if o.OK {
					okVal = 1
				}
				_, _ = insertOutcome.Exec(r.runID, r.round.Round, seq, o.Actor, string(o.Kind), okVal, o.Code, o.Detail)
			}

		case reqFinish:
			if finishRun == nil {
				continue
			}
			_, _ = finishRun.Exec(r.finish.FinishedAt, r.finish.Rounds, r.finish.StopReason, r.finish.RunID)
		}
	}
}
