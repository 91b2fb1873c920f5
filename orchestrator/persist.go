package orchestrator

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"github.com/cardiokit/ecg-pipeline/segment"
)

// mkOutputDir creates the destination directory, tolerating a pre-existing
// one.
func mkOutputDir(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	return nil
}

// writeSegmentCSV writes one output unit: a time column plus one column per
// channel, header row included, no index column.
func writeSegmentCSV(path string, channels []string, seg segment.Segment) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	header := make([]string, 0, 1+len(channels))
	header = append(header, "time")
	header = append(header, channels...)
	if err := w.Write(header); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}

	row := make([]string, 1+len(seg.Values))
	for j := range seg.Time {
		row[0] = strconv.FormatFloat(seg.Time[j], 'g', -1, 64)
		for c := range seg.Values {
			row[c+1] = strconv.FormatFloat(seg.Values[c][j], 'g', -1, 64)
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// segmentFilename derives the deterministic output name from the batch-global
// sequence number.
func segmentFilename(seq int) string {
	return fmt.Sprintf("ecg_%05d.csv", seq)
}
