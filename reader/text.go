package reader

import (
	"bufio"
	"errors"
	"os"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"
)

// ReadText parses a single-channel measurement dump of "<index>;<value>"
// lines. Malformed lines (wrong field count, non-integer fields, index not
// strictly increasing) are skipped with a warning; the call fails only if no
// valid sample remains. The sampling frequency comes from configuration
// because the dump itself carries no rate.
func ReadText(path string, sampleFrequency float64) ([]Sample, Metadata, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, Metadata{}, &ParseError{Path: path, Err: err}
	}
	defer f.Close()

	var samples []Sample
	sc := bufio.NewScanner(f)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		s, ok := parseLine(line)
		if !ok {
			log.WithFields(log.Fields{"file": path, "line": lineNo}).
				Warnf("skipping invalid line %q", line)
			continue
		}
		if len(samples) > 0 && s.Index <= samples[len(samples)-1].Index {
			log.WithFields(log.Fields{"file": path, "line": lineNo}).
				Warnf("skipping non-increasing sample index %d", s.Index)
			continue
		}
		samples = append(samples, s)
	}
	if err := sc.Err(); err != nil {
		return nil, Metadata{}, &ParseError{Path: path, Err: err}
	}
	if len(samples) == 0 {
		return nil, Metadata{}, &ParseError{Path: path, Err: errors.New("no valid samples")}
	}

	meta := Metadata{
		SampleFrequency: sampleFrequency,
		Channels:        []string{"value"},
		SampleCount:     len(samples),
	}
	return samples, meta, nil
}

func parseLine(line string) (Sample, bool) {
	parts := strings.Split(line, ";")
	if len(parts) != 2 {
		return Sample{}, false
	}
	idx, err := strconv.ParseInt(strings.TrimSpace(parts[0]), 10, 64)
	if err != nil {
		return Sample{}, false
	}
	val, err := strconv.ParseInt(strings.TrimSpace(parts[1]), 10, 64)
	if err != nil {
		return Sample{}, false
	}
	return Sample{Index: idx, Value: float64(val)}, true
}
