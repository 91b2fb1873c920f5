// Package reader parses raw ECG sources into sample sequences with
// normalized signal metadata.
package reader

// Sample is one (index, value) pair from a single-channel dump. Indices are
// strictly increasing within a record but need not start at zero or be
// gap-free.
type Sample struct {
	Index int64
	Value float64
}

// Metadata describes one record's signal. Produced once per record by a
// reader and not modified afterwards.
type Metadata struct {
	SampleFrequency float64 // Hz
	Channels        []string
	SampleCount     int // per channel
}

// Frames holds a multi-channel signal, one slice per channel, all of equal
// length, sampled on an implicit gap-free index.
type Frames struct {
	Channels [][]float64
}

// Len returns the per-channel sample count.
func (f *Frames) Len() int {
	if len(f.Channels) == 0 {
		return 0
	}
	return len(f.Channels[0])
}
