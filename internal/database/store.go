package database

import (
	"bytes"
	"crypto/sha256"
	"encoding/csv"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"food-dashboard/internal/models"

	log "github.com/sirupsen/logrus"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Snapshot is one whole-table read. Rows are in file order; a row's index
// is its identity.
type Snapshot struct {
	Table    Table
	Header   []string
	Rows     [][]string
	Revision string
}

func (s Snapshot) Len() int { return len(s.Rows) }

func (s Snapshot) Empty() bool { return len(s.Rows) == 0 }

// Store owns inventory.csv and waste_log.csv inside one directory. Every
// operation loads the whole file and, when it mutates, rewrites the whole
// file. The mutex keeps read-modify-write cycles from interleaving.
type Store struct {
	dir string
	mu  sync.Mutex
}

// Open prepares dir and creates any missing table file.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	s := &Store{dir: dir}
	if err := s.Initialize(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) Dir() string { return s.dir }

func (s *Store) Path(t Table) string {
	return filepath.Join(s.dir, t.Filename())
}

// Initialize writes a header-only file for each absent table. Existing files
// are left untouched.
func (s *Store) Initialize() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, t := range Tables() {
		f, err := os.OpenFile(s.Path(t), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if errors.Is(err, fs.ErrExist) {
			continue
		}
		if err != nil {
			return fmt.Errorf("create %s: %w", t.Filename(), err)
		}
		data, err := encode(t, nil)
		if err == nil {
			_, err = f.Write(data)
		}
		if cerr := f.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			return fmt.Errorf("write %s header: %w", t.Filename(), err)
		}
		log.WithField("table", t).Info("created empty table file")
	}
	return nil
}

func (s *Store) Load(t Table) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(t)
}

// Save overwrites the table with rows. Rows that would not load back are
// rejected before anything is written.
func (s *Store) Save(t Table, rows [][]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save(t, rows)
}

// Append adds row at the end of t and returns its position.
func (s *Store) Append(t Table, row []string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap, err := s.load(t)
	if err != nil {
		return 0, err
	}
	rows := append(snap.Rows, row)
	if err := s.save(t, rows); err != nil {
		return 0, err
	}
	return len(rows) - 1, nil
}

// Delete removes the row at position and returns it. When revision is not
// empty it must match the table's current revision, so a row previewed from
// an older read is never the wrong one.
func (s *Store) Delete(t Table, position int, revision string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap, err := s.load(t)
	if err != nil {
		return nil, err
	}
	if snap.Empty() {
		return nil, ErrEmptyTable
	}
	if revision != "" && revision != snap.Revision {
		return nil, ErrStaleRevision
	}
	if position < 0 || position >= len(snap.Rows) {
		return nil, fmt.Errorf("%w: position %d of %d", ErrRowNotFound, position, len(snap.Rows))
	}

	removed := snap.Rows[position]
	rows := append(snap.Rows[:position:position], snap.Rows[position+1:]...)
	if err := s.save(t, rows); err != nil {
		return nil, err
	}
	return removed, nil
}

// Reset rewrites every table with only its header.
func (s *Store) Reset() error {
	return s.ResetWith(nil)
}

// ResetWith hands the stored bytes of every table to before and then
// rewrites each table with only its header. The lock is held throughout, so
// before sees exactly what the reset wipes. An error from before leaves
// every table untouched.
func (s *Store) ResetWith(before func(raw map[Table][]byte) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if before != nil {
		raw := make(map[Table][]byte, len(Tables()))
		for _, t := range Tables() {
			data, err := os.ReadFile(s.Path(t))
			if err != nil {
				return fmt.Errorf("read %s: %w", t.Filename(), err)
			}
			raw[t] = data
		}
		if err := before(raw); err != nil {
			return err
		}
	}

	for _, t := range Tables() {
		if err := s.save(t, nil); err != nil {
			return err
		}
	}
	return nil
}

// Raw returns the table file exactly as stored.
func (s *Store) Raw(t Table) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.Path(t))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", t.Filename(), err)
	}
	return data, nil
}

func (s *Store) LoadInventory() ([]models.InventoryRecord, error) {
	snap, err := s.Load(Inventory)
	if err != nil {
		return nil, err
	}
	return InventoryRecords(snap)
}

func (s *Store) LoadWasteLog() ([]models.WasteRecord, error) {
	snap, err := s.Load(WasteLog)
	if err != nil {
		return nil, err
	}
	return WasteRecords(snap)
}

func (s *Store) AppendInventory(r models.InventoryRecord) (int, error) {
	return s.Append(Inventory, r.Row())
}

func (s *Store) AppendWaste(r models.WasteRecord) (int, error) {
	return s.Append(WasteLog, r.Row())
}

// InventoryRecords decodes an inventory snapshot.
func InventoryRecords(snap Snapshot) ([]models.InventoryRecord, error) {
	out := make([]models.InventoryRecord, 0, len(snap.Rows))
	for i, row := range snap.Rows {
		r, err := models.InventoryFromRow(row)
		if err != nil {
			return nil, &ParseError{Table: Inventory, Line: i + 2, Err: err}
		}
		out = append(out, r)
	}
	return out, nil
}

// WasteRecords decodes a waste log snapshot.
func WasteRecords(snap Snapshot) ([]models.WasteRecord, error) {
	out := make([]models.WasteRecord, 0, len(snap.Rows))
	for i, row := range snap.Rows {
		r, err := models.WasteFromRow(row)
		if err != nil {
			return nil, &ParseError{Table: WasteLog, Line: i + 2, Err: err}
		}
		out = append(out, r)
	}
	return out, nil
}

func (s *Store) load(t Table) (Snapshot, error) {
	data, err := os.ReadFile(s.Path(t))
	if err != nil {
		return Snapshot{}, fmt.Errorf("read %s: %w", t.Filename(), err)
	}
	return decode(t, data)
}

func (s *Store) save(t Table, rows [][]string) error {
	for i, row := range rows {
		if err := t.validate(row); err != nil {
			return fmt.Errorf("%s row %d: %w", t.Filename(), i, err)
		}
	}
	data, err := encode(t, rows)
	if err != nil {
		return fmt.Errorf("encode %s: %w", t.Filename(), err)
	}

	tmp, err := os.CreateTemp(s.dir, ".tmp-"+t.Filename()+"-*")
	if err != nil {
		return fmt.Errorf("save %s: %w", t.Filename(), err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("save %s: %w", t.Filename(), err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("save %s: %w", t.Filename(), err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("save %s: %w", t.Filename(), err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("save %s: %w", t.Filename(), err)
	}
	if err := os.Rename(tmp.Name(), s.Path(t)); err != nil {
		return fmt.Errorf("save %s: %w", t.Filename(), err)
	}
	return nil
}

func decode(t Table, data []byte) (Snapshot, error) {
	r := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(data, utf8BOM)))

	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return Snapshot{}, &ParseError{Table: t, Line: 1, Err: errors.New("missing header row")}
	}
	if err != nil {
		return Snapshot{}, csvParseError(t, err)
	}
	if !slices.Equal(header, t.Header()) {
		return Snapshot{}, &ParseError{Table: t, Line: 1, Err: fmt.Errorf("header %q, want %q", header, t.Header())}
	}

	rows := make([][]string, 0)
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return Snapshot{}, csvParseError(t, err)
		}
		if err := t.validate(rec); err != nil {
			line, _ := r.FieldPos(0)
			return Snapshot{}, &ParseError{Table: t, Line: line, Err: err}
		}
		rows = append(rows, rec)
	}

	return Snapshot{Table: t, Header: header, Rows: rows, Revision: revision(data)}, nil
}

func csvParseError(t Table, err error) error {
	line := 0
	var pe *csv.ParseError
	if errors.As(err, &pe) {
		line = pe.Line
	}
	return &ParseError{Table: t, Line: line, Err: err}
}

func encode(t Table, rows [][]string) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(t.Header()); err != nil {
		return nil, err
	}
	if err := w.WriteAll(rows); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func revision(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:8])
}
