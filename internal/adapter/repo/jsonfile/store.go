// Package jsonfile keeps one JSON document per executed request under
// <dir>/objects/scene_<scene>_<counter>.json, optionally zstd compressed.
package jsonfile

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/klauspost/compress/zstd"
	"github.com/santhosh-tekuri/jsonschema/v5"

	"thorplan/internal/app/ports"
)

const (
	plainExt      = ".json"
	compressedExt = ".json.zst"
)

type Options struct {
	Dir      string
	Compress bool
}

type ActionRecordRepo struct {
	dir      string
	compress bool
	schema   *jsonschema.Schema
}

func New(opts Options) (*ActionRecordRepo, error) {
	if strings.TrimSpace(opts.Dir) == "" {
		return nil, errors.New("jsonfile: empty directory")
	}
	schema, err := compileRecordSchema()
	if err != nil {
		return nil, fmt.Errorf("compile record schema: %w", err)
	}
	dir := filepath.Join(opts.Dir, "objects")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create record dir: %w", err)
	}
	return &ActionRecordRepo{dir: dir, compress: opts.Compress, schema: schema}, nil
}

// FileName is the record file name without extension.
func FileName(scene, counter int) string {
	return fmt.Sprintf("scene_%d_%d", scene, counter)
}

func (r *ActionRecordRepo) Save(_ context.Context, rec ports.ActionRecord) error {
	body, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("encode record: %w", err)
	}
	if err := r.validate(body); err != nil {
		return err
	}
	base := FileName(rec.SceneNumber, rec.ActionCounter)
	for _, ext := range []string{plainExt, compressedExt} {
		if _, err := os.Stat(filepath.Join(r.dir, base+ext)); err == nil {
			return ports.ErrConflict
		}
	}
	ext := plainExt
	if r.compress {
		ext = compressedExt
	}
	path := filepath.Join(r.dir, base+ext)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return ports.ErrConflict
		}
		return fmt.Errorf("create record file: %w", err)
	}
	if err := writeBody(f, body, r.compress); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	return f.Close()
}

func writeBody(w io.Writer, body []byte, compress bool) error {
	if !compress {
		_, err := w.Write(body)
		return err
	}
	enc, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return err
	}
	if _, err := enc.Write(body); err != nil {
		_ = enc.Close()
		return err
	}
	return enc.Close()
}

func (r *ActionRecordRepo) validate(body []byte) error {
	var doc any
	if err := json.Unmarshal(body, &doc); err != nil {
		return err
	}
	if err := r.schema.Validate(doc); err != nil {
		return fmt.Errorf("record does not match schema: %w", err)
	}
	return nil
}

func (r *ActionRecordRepo) Get(_ context.Context, scene, counter int) (ports.ActionRecord, error) {
	base := FileName(scene, counter)
	for _, ext := range []string{plainExt, compressedExt} {
		rec, err := r.read(filepath.Join(r.dir, base+ext))
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		return rec, err
	}
	return ports.ActionRecord{}, ports.ErrNotFound
}

func (r *ActionRecordRepo) read(path string) (ports.ActionRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return ports.ActionRecord{}, err
	}
	defer f.Close()

	var src io.Reader = f
	if strings.HasSuffix(path, compressedExt) {
		dec, err := zstd.NewReader(f)
		if err != nil {
			return ports.ActionRecord{}, fmt.Errorf("open %s: %w", filepath.Base(path), err)
		}
		defer dec.Close()
		src = dec
	}
	body, err := io.ReadAll(src)
	if err != nil {
		return ports.ActionRecord{}, fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}
	var rec ports.ActionRecord
	dec := json.NewDecoder(bytes.NewReader(body))
	if err := dec.Decode(&rec); err != nil {
		return ports.ActionRecord{}, fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}
	return rec, nil
}

type entry struct {
	scene, counter int
	path           string
}

// List returns matching records, newest counter first. Files that do not
// follow the naming scheme are ignored.
func (r *ActionRecordRepo) List(_ context.Context, filter ports.RecordFilter) ([]ports.ActionRecord, error) {
	dirEntries, err := os.ReadDir(r.dir)
	if err != nil {
		return nil, fmt.Errorf("read record dir: %w", err)
	}
	entries := make([]entry, 0, len(dirEntries))
	for _, de := range dirEntries {
		if de.IsDir() {
			continue
		}
		scene, counter, ok := parseFileName(de.Name())
		if !ok {
			continue
		}
		if filter.SceneNumber != 0 && scene != filter.SceneNumber {
			continue
		}
		entries = append(entries, entry{scene: scene, counter: counter, path: filepath.Join(r.dir, de.Name())})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].counter != entries[j].counter {
			return entries[i].counter > entries[j].counter
		}
		return entries[i].scene < entries[j].scene
	})

	out := make([]ports.ActionRecord, 0)
	for _, e := range entries {
		if filter.Limit > 0 && len(out) >= filter.Limit {
			break
		}
		rec, err := r.read(e.path)
		if err != nil {
			return nil, err
		}
		if filter.ActionName != "" && rec.ActionName != filter.ActionName && rec.Problem != filter.ActionName {
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

func parseFileName(name string) (scene, counter int, ok bool) {
	switch {
	case strings.HasSuffix(name, compressedExt):
		name = strings.TrimSuffix(name, compressedExt)
	case strings.HasSuffix(name, plainExt):
		name = strings.TrimSuffix(name, plainExt)
	default:
		return 0, 0, false
	}
	parts := strings.Split(name, "_")
	if len(parts) != 3 || parts[0] != "scene" {
		return 0, 0, false
	}
	scene, err1 := strconv.Atoi(parts[1])
	counter, err2 := strconv.Atoi(parts[2])
	if err1 != nil || err2 != nil {
		return 0, 0, false
	}
	return scene, counter, true
}
