package attendance

import (
	"fmt"
	"io"
	"log"
	"sync"
	"time"
)

// Messages returned by Mark.
const (
	MsgMarked        = "Attendance marked successfully"
	MsgAlreadyMarked = "Attendance already marked today"
)

// Ledger marks each identity present at most once per calendar day.
// Mark is serialized so concurrent callers cannot both pass the per-day check.
type Ledger struct {
	mu    sync.Mutex
	store RecordStore
	now   func() time.Time
}

// NewLedger returns a ledger over store. A nil now uses time.Now.
func NewLedger(store RecordStore, now func() time.Time) *Ledger {
	if now == nil {
		now = time.Now
	}
	return &Ledger{store: store, now: now}
}

// Mark records name as present today unless it already has a record for today.
// A duplicate is reported as (false, MsgAlreadyMarked, nil). The error is set
// when the ledger could not be read or the new record could not be written;
// nothing is appended in either case.
func (l *Ledger) Mark(name string) (bool, string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	date := now.Format(DateLayout)

	marked, err := l.markedLocked(name, date)
	if err != nil {
		log.Printf("error: could not read attendance ledger: %v", err)
		return false, fmt.Sprintf("Error marking attendance: %v", err), err
	}
	if marked {
		return false, MsgAlreadyMarked, nil
	}

	rec := NewRecord(name, now)
	if err := l.store.Append(rec); err != nil {
		return false, fmt.Sprintf("Error marking attendance: %v", err), err
	}

	log.Printf("Attendance marked for %s at %s %s", name, rec.Date, rec.Time)
	return true, MsgMarked, nil
}

func (l *Ledger) markedLocked(name, date string) (bool, error) {
	if dc, ok := l.store.(dayChecker); ok {
		return dc.Marked(name, date)
	}

	records, err := l.store.Load()
	if err != nil {
		return false, err
	}
	for _, r := range records {
		if r.Name == name && r.Date == date {
			return true, nil
		}
	}
	return false, nil
}

// List returns every record in the ledger.
func (l *Ledger) List() ([]Record, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.store.Load()
}

// ByDate returns the records for one day, formatted as DateLayout.
func (l *Ledger) ByDate(date string) ([]Record, error) {
	all, err := l.List()
	if err != nil {
		return nil, err
	}
	var out []Record
	for _, r := range all {
		if r.Date == date {
			out = append(out, r)
		}
	}
	return out, nil
}

// Today returns the records for the current day.
func (l *Ledger) Today() ([]Record, error) {
	return l.ByDate(l.now().Format(DateLayout))
}

// Export writes the whole ledger as CSV.
func (l *Ledger) Export(w io.Writer) error {
	records, err := l.List()
	if err != nil {
		return err
	}
	return WriteCSV(w, records)
}
