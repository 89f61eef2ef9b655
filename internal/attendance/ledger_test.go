package attendance

import (
	"bytes"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
)

type memStore struct {
	mu        sync.Mutex
	records   []Record
	loadErr   error
	appendErr error
}

func (m *memStore) Load() ([]Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	return append([]Record(nil), m.records...), nil
}

func (m *memStore) Append(r Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.appendErr != nil {
		return m.appendErr
	}
	m.records = append(m.records, r)
	return nil
}

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

var day1 = time.Date(2026, 3, 2, 9, 15, 30, 0, time.Local)

func TestLedger_MarkSameDay(t *testing.T) {
	store := &memStore{}
	c := &clock{now: day1}
	l := NewLedger(store, c.Now)

	ok, msg, err := l.Mark("Alice")
	if err != nil || !ok || msg != MsgMarked {
		t.Fatalf("first Mark() = %v, %q, %v", ok, msg, err)
	}

	c.Set(day1.Add(3 * time.Hour))
	ok, msg, err = l.Mark("Alice")
	if err != nil || ok || msg != MsgAlreadyMarked {
		t.Fatalf("second Mark() = %v, %q, %v", ok, msg, err)
	}

	if len(store.records) != 1 {
		t.Fatalf("ledger has %d records, want 1", len(store.records))
	}
	want := Record{Name: "Alice", Date: "2026-03-02", Time: "09:15:30", Status: Present}
	if store.records[0] != want {
		t.Errorf("record = %+v, want %+v", store.records[0], want)
	}
}

func TestLedger_MarkNextDay(t *testing.T) {
	store := &memStore{}
	c := &clock{now: day1}
	l := NewLedger(store, c.Now)

	l.Mark("Alice")
	c.Set(day1.AddDate(0, 0, 1))
	ok, msg, _ := l.Mark("Alice")

	if !ok || msg != MsgMarked {
		t.Errorf("next-day Mark() = %v, %q", ok, msg)
	}
	if len(store.records) != 2 || store.records[0].Date == store.records[1].Date {
		t.Errorf("records = %+v, want two on distinct dates", store.records)
	}
}

func TestLedger_ManyCallsOneRecord(t *testing.T) {
	store := &memStore{}
	l := NewLedger(store, (&clock{now: day1}).Now)

	successes := 0
	for i := 0; i < 25; i++ {
		if ok, _, _ := l.Mark("Alice"); ok {
			successes++
		}
	}
	l.Mark("Bob")

	if successes != 1 {
		t.Errorf("Mark succeeded %d times, want 1", successes)
	}
	if len(store.records) != 2 {
		t.Errorf("ledger has %d records, want 2", len(store.records))
	}
}

func TestLedger_ConcurrentMark(t *testing.T) {
	store := &memStore{}
	l := NewLedger(store, (&clock{now: day1}).Now)

	var wg sync.WaitGroup
	var mu sync.Mutex
	successes := 0
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if ok, _, _ := l.Mark("Alice"); ok {
				mu.Lock()
				successes++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if successes != 1 || len(store.records) != 1 {
		t.Errorf("successes=%d records=%d, want 1 and 1", successes, len(store.records))
	}
}

func TestLedger_LoadFailureRefusesMark(t *testing.T) {
	store := &memStore{loadErr: errors.New("corrupt")}
	l := NewLedger(store, (&clock{now: day1}).Now)

	for i := 0; i < 3; i++ {
		ok, msg, err := l.Mark("Alice")
		if ok || err == nil || !strings.HasPrefix(msg, "Error marking attendance") {
			t.Errorf("Mark() #%d = %v, %q, %v, want read failure", i, ok, msg, err)
		}
	}
	if len(store.records) != 0 {
		t.Errorf("ledger has %d records, want none appended", len(store.records))
	}
}

func TestLedger_AppendFailure(t *testing.T) {
	store := &memStore{appendErr: errors.New("read-only")}
	l := NewLedger(store, (&clock{now: day1}).Now)

	ok, msg, err := l.Mark("Alice")
	if ok || err == nil || !strings.HasPrefix(msg, "Error marking attendance") {
		t.Errorf("Mark() = %v, %q, %v, want failure", ok, msg, err)
	}
}

func TestLedger_Queries(t *testing.T) {
	store := &memStore{}
	c := &clock{now: day1}
	l := NewLedger(store, c.Now)

	l.Mark("Alice")
	l.Mark("Bob")
	c.Set(day1.AddDate(0, 0, 1))
	l.Mark("Alice")

	all, err := l.List()
	if err != nil || len(all) != 3 {
		t.Fatalf("List() = %d records, %v", len(all), err)
	}

	first, _ := l.ByDate("2026-03-02")
	if len(first) != 2 {
		t.Errorf("ByDate(day1) = %d records, want 2", len(first))
	}

	today, _ := l.Today()
	if len(today) != 1 || today[0].Name != "Alice" {
		t.Errorf("Today() = %+v, want Alice only", today)
	}

	var buf bytes.Buffer
	if err := l.Export(&buf); err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 4 || lines[0] != "Name,Date,Time,Status" {
		t.Errorf("Export() = %q", buf.String())
	}
}

func TestLedger_WithCSVStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "attendance.csv")
	c := &clock{now: day1}
	l := NewLedger(NewCSVStore(path), c.Now)

	if ok, _, err := l.Mark("Alice"); !ok || err != nil {
		t.Fatalf("Mark() = %v, %v", ok, err)
	}

	// A fresh ledger over the same file sees the earlier record.
	again := NewLedger(NewCSVStore(path), c.Now)
	if ok, msg, _ := again.Mark("Alice"); ok || msg != MsgAlreadyMarked {
		t.Errorf("Mark() on reopened ledger = %v, %q", ok, msg)
	}
}
