package attendance

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"
)

// CSVStore keeps the ledger in a CSV file with a Name,Date,Time,Status header.
type CSVStore struct {
	mu   sync.Mutex
	path string
}

// NewCSVStore returns a store backed by path. The file is created on first append.
func NewCSVStore(path string) *CSVStore {
	return &CSVStore{path: path}
}

// Path returns the backing file path.
func (s *CSVStore) Path() string {
	return s.path
}

// Init creates the file with only a header row if it does not exist.
func (s *CSVStore) Init() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := os.Stat(s.path); err == nil {
		return nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("create ledger dir: %w", err)
	}
	f, err := os.Create(s.path)
	if err != nil {
		return err
	}
	defer f.Close()
	return WriteCSV(f, nil)
}

// Load reads every record. A missing or empty file has no records.
// Columns are located by header name; rows missing a column or failing to
// parse are skipped.
func (s *CSVStore) Load() ([]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.Open(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read ledger header: %w", err)
	}

	col := make(map[string]int, len(header))
	for i, h := range header {
		col[h] = i
	}
	for _, h := range Header {
		if _, ok := col[h]; !ok {
			return nil, fmt.Errorf("ledger header missing column %q", h)
		}
	}

	var records []Record
	for {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		var perr *csv.ParseError
		if errors.As(err, &perr) {
			log.Printf("warning: skipping malformed ledger row: %v", err)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("read ledger: %w", err)
		}
		if len(row) < len(header) {
			continue
		}
		records = append(records, Record{
			Name:   row[col["Name"]],
			Date:   row[col["Date"]],
			Time:   row[col["Time"]],
			Status: Status(row[col["Status"]]),
		})
	}
	return records, nil
}

// Append writes one row, adding the header first if the file is new or empty.
func (s *CSVStore) Append(rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("create ledger dir: %w", err)
	}

	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return err
	}

	w := csv.NewWriter(f)
	if info.Size() == 0 {
		if err := w.Write(Header); err != nil {
			return err
		}
	}
	if err := w.Write(rec.Row()); err != nil {
		return err
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	return f.Close()
}
