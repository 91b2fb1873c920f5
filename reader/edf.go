package reader

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/OpenPSG/edf"
)

// IndexEntry is one row of the waveform database index.
type IndexEntry struct {
	RecordID string
	Filename string // relative to the database root
}

// ReadIndex loads the database index CSV. Columns are matched by header name
// so the index may carry extra annotation columns; filenameColumn selects the
// path column for the configured resolution.
func ReadIndex(path, filenameColumn string) ([]IndexEntry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open index: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("read index header: %w", err)
	}
	idCol, fileCol := -1, -1
	for i, name := range header {
		switch strings.TrimSpace(name) {
		case "ecg_id":
			idCol = i
		case filenameColumn:
			fileCol = i
		}
	}
	if idCol < 0 || fileCol < 0 {
		return nil, fmt.Errorf("index %s: missing ecg_id or %s column", path, filenameColumn)
	}

	var entries []IndexEntry
	for {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read index row: %w", err)
		}
		entries = append(entries, IndexEntry{RecordID: row[idCol], Filename: row[fileCol]})
	}
	return entries, nil
}

// ReadWaveform reads every channel of an EDF file into a frame matrix. The
// sampling frequency is derived from the header; all channels must share it.
func ReadWaveform(path string) (*Frames, Metadata, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, Metadata{}, &ParseError{Path: path, Err: err}
	}
	defer f.Close()

	hdr, err := readWaveformHeader(f)
	if err != nil {
		return nil, Metadata{}, &ParseError{Path: path, Err: err}
	}

	fs := float64(hdr.samplesPerRecord[0]) / hdr.recordDuration
	for i, spr := range hdr.samplesPerRecord {
		if float64(spr)/hdr.recordDuration != fs {
			return nil, Metadata{}, &ParseError{
				Path: path,
				Err:  fmt.Errorf("channel %s sampled at a different rate", hdr.labels[i]),
			}
		}
	}

	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, Metadata{}, &ParseError{Path: path, Err: err}
	}
	r, err := edf.Open(f)
	if err != nil {
		return nil, Metadata{}, &ParseError{Path: path, Err: err}
	}

	frames := &Frames{Channels: make([][]float64, hdr.signalCount)}
	for i := 0; i < hdr.signalCount; i++ {
		sr, err := r.Signal(i)
		if err != nil {
			return nil, Metadata{}, &ParseError{Path: path, Err: err}
		}
		ch, err := readAll(sr)
		if err != nil {
			return nil, Metadata{}, &ParseError{Path: path, Err: err}
		}
		if i > 0 && len(ch) != len(frames.Channels[0]) {
			return nil, Metadata{}, &ParseError{
				Path: path,
				Err:  fmt.Errorf("channel %s has %d samples, expected %d", hdr.labels[i], len(ch), len(frames.Channels[0])),
			}
		}
		frames.Channels[i] = ch
	}

	meta := Metadata{
		SampleFrequency: fs,
		Channels:        hdr.labels,
		SampleCount:     frames.Len(),
	}
	return frames, meta, nil
}

func readAll(sr *edf.SignalReader) ([]float64, error) {
	var out []float64
	buf := make([]float64, 4096)
	for {
		n, err := sr.Read(buf)
		out = append(out, buf[:n]...)
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
	}
}

// waveformHeader holds the few EDF header fields the pipeline needs that the
// edf package does not expose on its Reader.
type waveformHeader struct {
	signalCount      int
	recordDuration   float64 // seconds
	labels           []string
	samplesPerRecord []int
}

// readWaveformHeader parses the fixed-width EDF header fields directly.
// Layout per the EDF spec: a 256-byte main header followed by per-signal
// arrays of 16-byte labels, then 80+8+8+8+8+8+80 bytes of per-signal
// calibration fields, then 8-byte samples-per-record counts.
func readWaveformHeader(r io.ReadSeeker) (*waveformHeader, error) {
	main := make([]byte, 256)
	if _, err := io.ReadFull(r, main); err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	dur, err := strconv.ParseFloat(strings.TrimSpace(string(main[244:252])), 64)
	if err != nil {
		return nil, fmt.Errorf("parse record duration: %w", err)
	}
	if dur <= 0 {
		return nil, fmt.Errorf("non-positive record duration %g", dur)
	}
	ns, err := strconv.Atoi(strings.TrimSpace(string(main[252:256])))
	if err != nil {
		return nil, fmt.Errorf("parse signal count: %w", err)
	}
	if ns < 1 {
		return nil, errors.New("no signals in header")
	}

	hdr := &waveformHeader{
		signalCount:      ns,
		recordDuration:   dur,
		labels:           make([]string, ns),
		samplesPerRecord: make([]int, ns),
	}

	b := make([]byte, 16)
	for i := 0; i < ns; i++ {
		if _, err := io.ReadFull(r, b); err != nil {
			return nil, fmt.Errorf("read signal labels: %w", err)
		}
		hdr.labels[i] = strings.TrimSpace(string(b))
	}

	if _, err := r.Seek(int64(256+ns*216), io.SeekStart); err != nil {
		return nil, fmt.Errorf("seek to sample counts: %w", err)
	}
	b = b[:8]
	for i := 0; i < ns; i++ {
		if _, err := io.ReadFull(r, b); err != nil {
			return nil, fmt.Errorf("read sample counts: %w", err)
		}
		spr, err := strconv.Atoi(strings.TrimSpace(string(b)))
		if err != nil || spr < 1 {
			return nil, fmt.Errorf("bad samples-per-record for signal %s", hdr.labels[i])
		}
		hdr.samplesPerRecord[i] = spr
	}
	return hdr, nil
}
