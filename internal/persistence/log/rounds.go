// Package log persists run logs as zstd-compressed JSONL: one header entry
// followed by one entry per committed round record. The log plus the seed is
// the source of truth for replay verification.
package log

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/klauspost/compress/zstd"

	"statecraft.ai/internal/sim/state"
)

// RunHeader is the first entry of every run log.
type RunHeader struct {
	RunID     string `json:"run_id"`
	Scenario  string `json:"scenario"`
	Seed      int64  `json:"seed"`
	MaxRounds int    `json:"max_rounds"`
	StartedAt string `json:"started_at"`
}

type entry struct {
	Kind   string             `json:"kind"` // "run" or "round"
	Run    *RunHeader         `json:"run,omitempty"`
	Record *state.RoundRecord `json:"record,omitempty"`
}

// Writer appends run-log entries to a single .jsonl.zst file. Safe for use
// from one goroutine at a time per method call.
type Writer struct {
	mu  sync.Mutex
	f   *os.File
	enc *zstd.Encoder
	w   *bufio.Writer
}

func NewWriter(path string, header RunHeader) (*Writer, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, err
	}
	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	w := &Writer{f: f, enc: enc, w: bufio.NewWriterSize(enc, 128*1024)}
	if header.StartedAt == "" {
		header.StartedAt = time.Now().UTC().Format(time.RFC3339Nano)
	}
	if err := w.write(entry{Kind: "run", Run: &header}); err != nil {
		_ = w.Close()
		return nil, err
	}
	return w, nil
}

// WriteRound appends one committed round record.
func (w *Writer) WriteRound(rec state.RoundRecord) error {
	return w.write(entry{Kind: "round", Record: &rec})
}

func (w *Writer) write(e entry) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.w == nil {
		return fmt.Errorf("run log writer is closed")
	}
	b, err := json.Marshal(e)
	if err != nil {
		return err
	}
	if _, err := w.w.Write(b); err != nil {
		return err
	}
	if err := w.w.WriteByte('\n'); err != nil {
		return err
	}
	return w.w.Flush()
}

func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	var err error
	if w.w != nil {
		_ = w.w.Flush()
		w.w = nil
	}
	if w.enc != nil {
		err = w.enc.Close()
		w.enc = nil
	}
	if w.f != nil {
		if cerr := w.f.Close(); err == nil {
			err = cerr
		}
		w.f = nil
	}
	return err
}

// Read loads a complete run log back into memory.
func Read(path string) (RunHeader, []state.RoundRecord, error) {
	var header RunHeader
	f, err := os.Open(path)
	if err != nil {
		return header, nil, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return header, nil, err
	}
	defer dec.Close()

	sc := bufio.NewScanner(dec)
	sc.Buffer(make([]byte, 0, 1024*1024), 16*1024*1024)

	var records []state.RoundRecord
	sawHeader := false
	for sc.Scan() {
		var e entry
		if err := json.Unmarshal(sc.Bytes(), &e); err != nil {
			return header, nil, fmt.Errorf("%s: bad entry: %w", path, err)
		}
		switch e.Kind {
		case "run":
			if e.Run == nil {
				return header, nil, fmt.Errorf("%s: run entry without header", path)
			}
			header = *e.Run
			sawHeader = true
		case "round":
			if e.Record == nil {
				return header, nil, fmt.Errorf("%s: round entry without record", path)
			}
			records = append(records, *e.Record)
		default:
			return header, nil, fmt.Errorf("%s: unknown entry kind %q", path, e.Kind)
		}
	}
	if err := sc.Err(); err != nil && err != io.EOF {
		return header, nil, err
	}
	if !sawHeader {
		return header, nil, fmt.Errorf("%s: missing run header", path)
	}
	return header, records, nil
}
