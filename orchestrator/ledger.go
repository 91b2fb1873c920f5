package orchestrator

import (
	"encoding/csv"
	"fmt"
	"os"
)

// Ledger collects per-record failures without stopping the batch. Entries
// keep insertion order and are never deduplicated.
type Ledger struct {
	entries []Failure
}

// Record appends one failure.
func (l *Ledger) Record(recordID, sourcePath string, err error) {
	l.entries = append(l.entries, Failure{
		RecordID:   recordID,
		SourcePath: sourcePath,
		Message:    err.Error(),
	})
}

func (l *Ledger) Len() int { return len(l.entries) }

// Entries returns the accumulated failures in insertion order.
func (l *Ledger) Entries() []Failure { return l.entries }

// WriteCSV persists the ledger as a tabular error report.
func (l *Ledger) WriteCSV(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create error report: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"record_id", "source_path", "error"}); err != nil {
		return fmt.Errorf("write error report: %w", err)
	}
	for _, e := range l.entries {
		if err := w.Write([]string{e.RecordID, e.SourcePath, e.Message}); err != nil {
			return fmt.Errorf("write error report: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("write error report: %w", err)
	}
	return nil
}
