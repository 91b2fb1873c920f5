package orchestrator_test

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/OpenPSG/edf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cardiokit/ecg-pipeline/config"
	"github.com/cardiokit/ecg-pipeline/orchestrator"
)

func measureConfig(in, out string) *config.Root {
	return &config.Root{
		Pipeline:     config.Pipeline{LogLevel: "info"},
		Database:     config.Database{MeasureDir: in, SampleFrequency: 10},
		Segmentation: config.Segmentation{Duration: 1}, // 10 samples per window
		Output:       config.Output{Dir: out, Mode: config.ModeWhole},
	}
}

// writeDump writes n well-formed "<index>;<value>" lines.
func writeDump(t *testing.T, dir, name string, n int) {
	t.Helper()
	var sb strings.Builder
	for i := 0; i < n; i++ {
		fmt.Fprintf(&sb, "%d;%d\n", i, i*7)
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(sb.String()), 0o644))
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestRunMeasureFaultIsolation(t *testing.T) {
	in, out := t.TempDir(), t.TempDir()
	writeDump(t, in, "ECG_1.txt", 25) // 2 windows, 5 discarded
	require.NoError(t, os.WriteFile(filepath.Join(in, "ECG_2.txt"), []byte("corrupted\nlines\nonly\n"), 0o644))
	writeDump(t, in, "ECG_3.txt", 15) // 1 window, 5 discarded

	res, err := orchestrator.New(measureConfig(in, out)).RunMeasure(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, res.Processed)
	assert.Equal(t, 1, res.Failed)
	assert.Equal(t, 0, res.Skipped)
	assert.Equal(t, 3, res.SegmentsWritten)
	assert.Equal(t, 10, res.DiscardedSamples)
	assert.NotEmpty(t, res.RunID)

	require.Len(t, res.Errors, 1)
	assert.Equal(t, "ECG_2", res.Errors[0].RecordID)

	// numbering is global, contiguous and gap-free across records
	for i := 0; i < 3; i++ {
		assert.FileExists(t, filepath.Join(out, fmt.Sprintf("ecg_%05d.csv", i)))
	}
	assert.NoFileExists(t, filepath.Join(out, "ecg_00003.csv"))

	// the failing record lands in the error report next to the outputs
	rows := readCSV(t, filepath.Join(out, "processing_errors.csv"))
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"record_id", "source_path", "error"}, rows[0])
	assert.Equal(t, "ECG_2", rows[1][0])
	assert.Equal(t, res.ErrorReport, filepath.Join(out, "processing_errors.csv"))
}

func TestRunMeasureSegmentContents(t *testing.T) {
	in, out := t.TempDir(), t.TempDir()
	writeDump(t, in, "ECG_1.txt", 20)

	res, err := orchestrator.New(measureConfig(in, out)).RunMeasure(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, res.SegmentsWritten)

	rows := readCSV(t, filepath.Join(out, "ecg_00000.csv"))
	require.Len(t, rows, 11)
	assert.Equal(t, []string{"time", "value"}, rows[0])
	assert.Equal(t, []string{"0", "0"}, rows[1])
	assert.Equal(t, []string{"0.1", "7"}, rows[2])

	// second window re-bases its time axis to zero
	rows = readCSV(t, filepath.Join(out, "ecg_00001.csv"))
	assert.Equal(t, []string{"0", "70"}, rows[1])
	assert.Equal(t, []string{"0.9", "133"}, rows[10])
}

func TestRunMeasureShortDumpSkipped(t *testing.T) {
	in, out := t.TempDir(), t.TempDir()
	writeDump(t, in, "ECG_1.txt", 5) // below one window

	res, err := orchestrator.New(measureConfig(in, out)).RunMeasure(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, res.Processed)
	assert.Equal(t, 0, res.Failed)
	assert.Equal(t, 1, res.Skipped)
	assert.Equal(t, 5, res.DiscardedSamples)
	assert.NoFileExists(t, filepath.Join(out, "ecg_00000.csv"))
	assert.NoFileExists(t, filepath.Join(out, "processing_errors.csv"))
}

func TestRunMeasureEmptyDirIsCleanNoOp(t *testing.T) {
	res, err := orchestrator.New(measureConfig(t.TempDir(), t.TempDir())).RunMeasure(context.Background())
	require.NoError(t, err)
	assert.Zero(t, res.Processed)
	assert.Zero(t, res.Failed)
	assert.Zero(t, res.SegmentsWritten)
}

func TestRunMeasureInvalidConfig(t *testing.T) {
	cfg := measureConfig(t.TempDir(), t.TempDir())
	cfg.Database.SampleFrequency = 0

	_, err := orchestrator.New(cfg).RunMeasure(context.Background())
	require.ErrorIs(t, err, config.ErrInvalid)
}

// writeLeadEDF fabricates a two-lead waveform record of full one-second data
// records at 100 Hz.
func writeLeadEDF(t *testing.T, path string, records int) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	signals := []edf.SignalHeader{
		{Label: "I", PhysicalDimension: "mV", PhysicalMin: -5, PhysicalMax: 5, DigitalMin: -2048, DigitalMax: 2047, SamplesPerRecord: 100},
		{Label: "II", PhysicalDimension: "mV", PhysicalMin: -5, PhysicalMax: 5, DigitalMin: -2048, DigitalMax: 2047, SamplesPerRecord: 100},
	}
	w, err := edf.Create(f, edf.Header{
		Version:            edf.Version0,
		PatientID:          "X",
		RecordingID:        "test",
		StartTime:          time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		DataRecordDuration: time.Second,
		SignalCount:        2,
		Signals:            signals,
	})
	require.NoError(t, err)

	chunk := make([]float64, 100)
	for i := range chunk {
		chunk[i] = float64(i) * 0.01
	}
	for i := 0; i < records; i++ {
		require.NoError(t, w.WriteRecord([][]float64{chunk, chunk}))
	}
	require.NoError(t, w.Close())
}

func physionetConfig(root, out string) *config.Root {
	return &config.Root{
		Pipeline:     config.Pipeline{LogLevel: "info"},
		Database:     config.Database{PhysionetDir: root, SampleFrequency: 100},
		Segmentation: config.Segmentation{Duration: 1},
		Output:       config.Output{Dir: out, Mode: config.ModeWhole},
	}
}

func writeIndex(t *testing.T, root string, rows ...string) {
	t.Helper()
	content := "ecg_id,filename_lr,filename_hr\n" + strings.Join(rows, "\n") + "\n"
	require.NoError(t, os.WriteFile(filepath.Join(root, "ptbxl_database.csv"), []byte(content), 0o644))
}

func TestRunPhysionetWholeRecords(t *testing.T) {
	root, out := t.TempDir(), t.TempDir()
	writeLeadEDF(t, filepath.Join(root, "records100", "00001_lr.edf"), 2)
	writeLeadEDF(t, filepath.Join(root, "records100", "00002_lr.edf"), 1)
	writeIndex(t, root,
		"1,records100/00001_lr.edf,records500/00001_hr.edf",
		"2,records100/00002_lr.edf,records500/00002_hr.edf",
		"3,records100/00003_lr.edf,records500/00003_hr.edf", // missing on disk
	)

	res, err := orchestrator.New(physionetConfig(root, out)).RunPhysionet(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, res.Processed)
	assert.Equal(t, 1, res.Failed)
	assert.Equal(t, 2, res.SegmentsWritten)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, "3", res.Errors[0].RecordID)

	// whole-record mode names outputs by the record stem
	rows := readCSV(t, filepath.Join(out, "records100", "00001_lr.csv"))
	require.Len(t, rows, 201)
	assert.Equal(t, []string{"time", "I", "II"}, rows[0])
	assert.Equal(t, "0", rows[1][0])
	assert.Equal(t, "0.01", rows[2][0])
	assert.FileExists(t, filepath.Join(out, "records100", "00002_lr.csv"))
	assert.FileExists(t, filepath.Join(out, "records100", "processing_errors.csv"))
}

func TestRunPhysionetSegmentsMode(t *testing.T) {
	root, out := t.TempDir(), t.TempDir()
	writeLeadEDF(t, filepath.Join(root, "records100", "00001_lr.edf"), 3) // 300 samples
	writeIndex(t, root, "1,records100/00001_lr.edf,records500/00001_hr.edf")

	cfg := physionetConfig(root, out)
	cfg.Output.Mode = config.ModeSegments
	cfg.Segmentation.Duration = 0.8 // 80 samples per window

	res, err := orchestrator.New(cfg).RunPhysionet(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, res.Processed)
	assert.Equal(t, 3, res.SegmentsWritten)
	assert.Equal(t, 60, res.DiscardedSamples)

	for i := 0; i < 3; i++ {
		rows := readCSV(t, filepath.Join(out, "records100", fmt.Sprintf("ecg_%05d.csv", i)))
		require.Len(t, rows, 81)
		assert.Equal(t, []string{"time", "I", "II"}, rows[0])
		assert.Equal(t, "0", rows[1][0])
	}
}

func TestRunPhysionetRejectsUnsupportedFrequency(t *testing.T) {
	cfg := physionetConfig(t.TempDir(), t.TempDir())
	cfg.Database.SampleFrequency = 250

	_, err := orchestrator.New(cfg).RunPhysionet(context.Background())
	require.ErrorIs(t, err, config.ErrInvalid)
}

func TestRunPhysionetRateMismatchIsRecordFailure(t *testing.T) {
	root, out := t.TempDir(), t.TempDir()
	// 100 Hz record, but the batch is configured for 500 Hz
	writeLeadEDF(t, filepath.Join(root, "records500", "00001_hr.edf"), 1)
	writeIndex(t, root, "1,records100/00001_lr.edf,records500/00001_hr.edf")

	cfg := physionetConfig(root, out)
	cfg.Database.SampleFrequency = 500

	res, err := orchestrator.New(cfg).RunPhysionet(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, res.Processed)
	assert.Equal(t, 1, res.Failed)
	assert.Contains(t, res.Errors[0].Message, "100 Hz")
}
