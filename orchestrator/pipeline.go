// Package orchestrator drives batch conversion runs: it walks the source
// records, feeds each through read → segment → write, and accumulates the
// batch result without aborting on individual record failures.
package orchestrator

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/cardiokit/ecg-pipeline/config"
	"github.com/cardiokit/ecg-pipeline/reader"
	"github.com/cardiokit/ecg-pipeline/segment"
)

const errorReportName = "processing_errors.csv"

// Batch is one conversion run. It owns the only two pieces of shared state:
// the output sequence counter and the error ledger. A Batch is not reused
// across runs.
type Batch struct {
	cfg     *config.Root
	runID   string
	counter Counter
	ledger  Ledger
	log     *log.Entry
}

func New(cfg *config.Root) *Batch {
	runID := uuid.NewString()
	return &Batch{
		cfg:   cfg,
		runID: runID,
		log:   log.WithField("run_id", runID),
	}
}

// RunMeasure converts every ECG_*.txt dump under the measurement directory
// into fixed-duration segment CSVs named by the batch-global counter.
func (b *Batch) RunMeasure(ctx context.Context) (*BatchResult, error) {
	if err := b.cfg.Validate(); err != nil {
		return nil, err
	}
	outDir := b.cfg.Output.Dir
	if err := mkOutputDir(outDir); err != nil {
		return nil, err
	}

	files, err := filepath.Glob(filepath.Join(b.cfg.Database.MeasureDir, "ECG_*.txt"))
	if err != nil {
		return nil, fmt.Errorf("scan measure dir: %w", err)
	}
	sort.Strings(files)

	fs := b.cfg.Database.SampleFrequency
	dur := b.cfg.Segmentation.Duration
	b.log.WithFields(log.Fields{
		"input":            b.cfg.Database.MeasureDir,
		"output":           outDir,
		"sample_frequency": fs,
		"segment_duration": dur,
		"files":            len(files),
	}).Info("measurement batch starting")

	res := &BatchResult{RunID: b.runID}
	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		b.account(res, b.measureOne(path, outDir, fs, dur))
	}
	b.finalize(res, outDir)
	return res, nil
}

// measureOne runs one dump through read → segment → write and reports the
// outcome instead of raising it.
func (b *Batch) measureOne(path, outDir string, fs, dur float64) outcome {
	out := outcome{recordID: recordID(path), path: path}

	samples, meta, err := reader.ReadText(path, fs)
	if err != nil {
		out.err = err
		return out
	}
	segs, discarded, err := segment.Split(samples, meta.SampleFrequency, dur)
	if err != nil {
		out.err = err
		return out
	}
	out.discarded = discarded
	if len(segs) == 0 {
		out.skip = true
		return out
	}
	for _, seg := range segs {
		name := segmentFilename(b.counter.Next())
		if err := writeSegmentCSV(filepath.Join(outDir, name), meta.Channels, seg); err != nil {
			out.err = err
			return out
		}
		out.written++
	}
	return out
}

// RunPhysionet converts every record listed in the waveform database index.
// Output is one whole-record CSV per source record named by the record stem,
// or counter-named windowed segments when output.mode is "segments".
func (b *Batch) RunPhysionet(ctx context.Context) (*BatchResult, error) {
	if err := b.cfg.ValidatePhysionet(); err != nil {
		return nil, err
	}
	root := b.cfg.Database.PhysionetDir
	outDir := filepath.Join(b.cfg.Output.Dir, b.cfg.RecordsFolder())
	if err := mkOutputDir(outDir); err != nil {
		return nil, err
	}

	entries, err := reader.ReadIndex(filepath.Join(root, "ptbxl_database.csv"), b.cfg.FilenameColumn())
	if err != nil {
		return nil, err
	}

	b.log.WithFields(log.Fields{
		"input":            root,
		"output":           outDir,
		"sample_frequency": b.cfg.Database.SampleFrequency,
		"mode":             b.cfg.Output.Mode,
		"records":          len(entries),
	}).Info("waveform batch starting")

	res := &BatchResult{RunID: b.runID}
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		b.account(res, b.waveformOne(entry, root, outDir))
	}
	b.finalize(res, outDir)
	return res, nil
}

func (b *Batch) waveformOne(entry reader.IndexEntry, root, outDir string) outcome {
	out := outcome{recordID: entry.RecordID, path: entry.Filename}

	frames, meta, err := reader.ReadWaveform(filepath.Join(root, filepath.FromSlash(entry.Filename)))
	if err != nil {
		out.err = err
		return out
	}
	// Reject rate mismatches at the read boundary, before any output.
	if meta.SampleFrequency != b.cfg.Database.SampleFrequency {
		out.err = fmt.Errorf("record sampled at %g Hz, configured for %g Hz",
			meta.SampleFrequency, b.cfg.Database.SampleFrequency)
		return out
	}

	if b.cfg.Output.Mode == config.ModeSegments {
		segs, discarded, err := segment.SplitFrames(frames, meta.SampleFrequency, b.cfg.Segmentation.Duration)
		if err != nil {
			out.err = err
			return out
		}
		out.discarded = discarded
		if len(segs) == 0 {
			out.skip = true
			return out
		}
		for _, seg := range segs {
			name := segmentFilename(b.counter.Next())
			if err := writeSegmentCSV(filepath.Join(outDir, name), meta.Channels, seg); err != nil {
				out.err = err
				return out
			}
			out.written++
		}
		return out
	}

	name := recordID(entry.Filename) + ".csv"
	if err := writeSegmentCSV(filepath.Join(outDir, name), meta.Channels, segment.Whole(frames, meta.SampleFrequency)); err != nil {
		out.err = err
		return out
	}
	out.written = 1
	return out
}

// account folds one record's outcome into the batch result and the ledger.
func (b *Batch) account(res *BatchResult, out outcome) {
	res.DiscardedSamples += out.discarded
	switch {
	case out.err != nil:
		res.Failed++
		b.ledger.Record(out.recordID, out.path, out.err)
		b.log.WithFields(log.Fields{"record": out.recordID, "path": out.path}).
			WithError(out.err).Error("record failed")
	case out.skip:
		res.Skipped++
		b.log.WithField("record", out.recordID).
			Warn("not enough samples for one segment, skipping")
	default:
		res.Processed++
		res.SegmentsWritten += out.written
		b.log.WithFields(log.Fields{"record": out.recordID, "outputs": out.written}).
			Info("record converted")
	}
}

// finalize writes the error report when failures exist and logs the summary.
func (b *Batch) finalize(res *BatchResult, outDir string) {
	if b.ledger.Len() > 0 {
		res.Errors = b.ledger.Entries()
		report := filepath.Join(outDir, errorReportName)
		if err := b.ledger.WriteCSV(report); err != nil {
			b.log.WithError(err).Error("could not write error report")
		} else {
			res.ErrorReport = report
			b.log.WithField("report", report).Info("error report written")
		}
	}
	b.log.WithFields(log.Fields{
		"processed":         res.Processed,
		"failed":            res.Failed,
		"skipped":           res.Skipped,
		"outputs":           res.SegmentsWritten,
		"discarded_samples": res.DiscardedSamples,
		"output":            outDir,
	}).Info("batch complete")
}

// recordID is the source filename without directory or extension.
func recordID(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
