package orchestrator

// Counter hands out batch-global output sequence numbers. Zero-based and
// gap-free: Next is called exactly once per persisted output unit.
type Counter struct {
	n int
}

func (c *Counter) Next() int {
	v := c.n
	c.n++
	return v
}

func (c *Counter) Total() int { return c.n }

// Failure is one ledger entry.
type Failure struct {
	RecordID   string
	SourcePath string
	Message    string
}

// BatchResult accumulates over one run and is finalized once after the last
// record.
type BatchResult struct {
	RunID            string
	Processed        int
	Failed           int
	Skipped          int // valid records too short for a single window
	SegmentsWritten  int
	DiscardedSamples int
	Errors           []Failure
	ErrorReport      string // path of processing_errors.csv, if written
}

// outcome is the per-record result the batch loop switches on, instead of
// recovering panics or broad errors at the loop boundary.
type outcome struct {
	recordID  string
	path      string
	written   int
	discarded int
	skip      bool
	err       error
}
