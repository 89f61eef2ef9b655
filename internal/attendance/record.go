// Package attendance keeps the per-day attendance ledger.
package attendance

import (
	"encoding/csv"
	"io"
	"time"
)

// Layouts used for the Date and Time columns.
const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04:05"
)

// Status of an attendance record.
type Status string

// Present is the only status the ledger writes.
const Present Status = "Present"

// Header is the column order of the tabular ledger format.
var Header = []string{"Name", "Date", "Time", "Status"}

// Record is one row of the ledger.
type Record struct {
	ID     string `json:"-"`
	Name   string `json:"Name"`
	Date   string `json:"Date"`
	Time   string `json:"Time"`
	Status Status `json:"Status"`
}

// NewRecord returns a Present record for name stamped with t.
func NewRecord(name string, t time.Time) Record {
	return Record{
		Name:   name,
		Date:   t.Format(DateLayout),
		Time:   t.Format(TimeLayout),
		Status: Present,
	}
}

// Row returns the record in Header order.
func (r Record) Row() []string {
	return []string{r.Name, r.Date, r.Time, string(r.Status)}
}

// RecordStore is the append-only backing store for the ledger.
// A store with nothing in it, or nothing written yet, returns no records and no error.
type RecordStore interface {
	Load() ([]Record, error)
	Append(r Record) error
}

// dayChecker is implemented by stores that can answer the per-day lookup
// without loading every record.
type dayChecker interface {
	Marked(name, date string) (bool, error)
}

// WriteCSV writes records, with a header row, to w.
func WriteCSV(w io.Writer, records []Record) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return err
	}
	for _, r := range records {
		if err := cw.Write(r.Row()); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
