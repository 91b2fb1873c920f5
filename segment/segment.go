// Package segment cuts sample sequences into fixed-duration, non-overlapping
// windows with a time axis re-based to start at zero.
package segment

import (
	"errors"
	"fmt"

	"github.com/cardiokit/ecg-pipeline/reader"
)

// ErrWindowTooShort means the configured window holds less than one sample.
var ErrWindowTooShort = errors.New("segment window shorter than one sample")

// Segment is one window. Time is relative seconds starting at exactly 0;
// Values is channel-major, every channel the same length as Time.
type Segment struct {
	Time   []float64
	Values [][]float64
}

// Split cuts an indexed single-channel sequence into windows of
// floor(sampleFrequency×duration) samples. The trailing partial window is
// dropped; its sample count is returned. Relative time within a window is
// (index − first index)/fs, so gaps and non-zero start offsets in the source
// index survive into the time axis while every window still starts at 0.
// Zero windows is a valid outcome.
func Split(samples []reader.Sample, sampleFrequency, duration float64) ([]Segment, int, error) {
	k, err := samplesPerSegment(sampleFrequency, duration)
	if err != nil {
		return nil, 0, err
	}

	n := len(samples) / k
	segs := make([]Segment, 0, n)
	for i := 0; i < n; i++ {
		win := samples[i*k : (i+1)*k]
		t := make([]float64, k)
		v := make([]float64, k)
		base := win[0].Index
		for j, s := range win {
			t[j] = float64(s.Index-base) / sampleFrequency
			v[j] = s.Value
		}
		segs = append(segs, Segment{Time: t, Values: [][]float64{v}})
	}
	return segs, len(samples) - n*k, nil
}

// SplitFrames windows a multi-channel frame matrix. Frame indices are
// implicit and gap-free, so relative time within a window is j/fs.
func SplitFrames(frames *reader.Frames, sampleFrequency, duration float64) ([]Segment, int, error) {
	k, err := samplesPerSegment(sampleFrequency, duration)
	if err != nil {
		return nil, 0, err
	}

	total := frames.Len()
	n := total / k
	segs := make([]Segment, 0, n)
	for i := 0; i < n; i++ {
		t := make([]float64, k)
		for j := range t {
			t[j] = float64(j) / sampleFrequency
		}
		vals := make([][]float64, len(frames.Channels))
		for c, ch := range frames.Channels {
			vals[c] = ch[i*k : (i+1)*k]
		}
		segs = append(segs, Segment{Time: t, Values: vals})
	}
	return segs, total - n*k, nil
}

// Whole wraps an entire frame matrix as a single unwindowed segment, time
// running 0, 1/fs, 2/fs, … over the full record.
func Whole(frames *reader.Frames, sampleFrequency float64) Segment {
	t := make([]float64, frames.Len())
	for j := range t {
		t[j] = float64(j) / sampleFrequency
	}
	return Segment{Time: t, Values: frames.Channels}
}

func samplesPerSegment(sampleFrequency, duration float64) (int, error) {
	k := int(sampleFrequency * duration)
	if k < 1 {
		return 0, fmt.Errorf("%g Hz × %gs: %w", sampleFrequency, duration, ErrWindowTooShort)
	}
	return k, nil
}
