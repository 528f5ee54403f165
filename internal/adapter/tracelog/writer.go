// Package tracelog appends one JSON line per pipeline cycle to hourly
// zstd-compressed files: <dir>/<prefix>-YYYY-MM-DD-HH.jsonl.zst.
package tracelog

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/klauspost/compress/zstd"

	"thorplan/internal/app/ports"
)

const hourLayout = "2006-01-02-15"

type Writer struct {
	baseDir string
	prefix  string

	mu      sync.Mutex
	curHour string
	f       *os.File
	enc     *zstd.Encoder
	w       *bufio.Writer
}

func New(baseDir, prefix string) *Writer {
	if prefix == "" {
		prefix = "cycles"
	}
	return &Writer{baseDir: baseDir, prefix: prefix}
}

func (w *Writer) Trace(_ context.Context, t ports.CycleTrace) error {
	at := t.CompletedAt
	if at.IsZero() {
		at = time.Now()
	}
	return w.Write(at, t)
}

// Write appends v to the file of the hour containing at. Each line is
// flushed so a crash loses at most the zstd frame in progress.
func (w *Writer) Write(at time.Time, v any) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	hour := at.UTC().Format(hourLayout)
	if hour != w.curHour {
		if err := w.rotateLocked(hour); err != nil {
			return err
		}
	}
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if _, err := w.w.Write(b); err != nil {
		return err
	}
	if err := w.w.WriteByte('\n'); err != nil {
		return err
	}
	if err := w.w.Flush(); err != nil {
		return err
	}
	return w.enc.Flush()
}

func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.closeLocked()
}

func (w *Writer) Path(at time.Time) string {
	return filepath.Join(w.baseDir, fmt.Sprintf("%s-%s.jsonl.zst", w.prefix, at.UTC().Format(hourLayout)))
}

func (w *Writer) rotateLocked(hour string) error {
	if err := w.closeLocked(); err != nil {
		return err
	}
	if err := os.MkdirAll(w.baseDir, 0o755); err != nil {
		return err
	}
	path := filepath.Join(w.baseDir, fmt.Sprintf("%s-%s.jsonl.zst", w.prefix, hour))
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		_ = f.Close()
		return err
	}
	w.f = f
	w.enc = enc
	w.w = bufio.NewWriterSize(enc, 64*1024)
	w.curHour = hour
	return nil
}

func (w *Writer) closeLocked() error {
	var err error
	if w.w != nil {
		_ = w.w.Flush()
	}
	if w.enc != nil {
		err = w.enc.Close()
		w.enc = nil
	}
	if w.f != nil {
		_ = w.f.Close()
		w.f = nil
	}
	w.w = nil
	w.curHour = ""
	return err
}

// ReadTraces decodes every cycle trace in a file written by Writer.
func ReadTraces(path string) ([]ports.CycleTrace, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	dec, err := zstd.NewReader(f)
	if err != nil {
		return nil, err
	}
	defer dec.Close()

	out := make([]ports.CycleTrace, 0)
	jd := json.NewDecoder(dec)
	for {
		var t ports.CycleTrace
		if err := jd.Decode(&t); err != nil {
			if err == io.EOF {
				return out, nil
			}
			return out, fmt.Errorf("decode trace %d: %w", len(out), err)
		}
		out = append(out, t)
	}
}
