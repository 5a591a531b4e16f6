// SPDX-License-Identifier: MIT

package usage

import (
	"regexp"
	"strings"
	"time"
)

type LineKind int

const (
	LineBlank LineKind = iota
	LineTimestamp
	LineHeader
	LineRecord // Candidate only; ParseRecordLine decides
)

func (k LineKind) String() string {
	switch k {
	case LineBlank:
		return "blank"
	case LineTimestamp:
		return "timestamp"
	case LineHeader:
		return "header"
	case LineRecord:
		return "record"
	default:
		return "unknown"
	}
}

// ctime(3) layout, eg "Thu Dec 18 04:37:01 2025".
const TimestampLayout = "Mon Jan 2 15:04:05 2006"

const headerPrefix = "JOBID"

// Return the trimmed line if it is a timestamp line.  Runs of whitespace between the fields are
// accepted (`date` pads single-digit days with a space) but the returned key is the line as
// written.

func ParseTimestampLine(line string) (string, bool) {
	s := strings.TrimSpace(line)
	if s == "" {
		return "", false
	}
	if _, err := time.Parse(TimestampLayout, strings.Join(strings.Fields(s), " ")); err != nil {
		return "", false
	}
	return s, true
}

func ClassifyLine(line string) LineKind {
	kind, _ := classify(line)
	return kind
}

func classify(line string) (LineKind, string) {
	if ts, ok := ParseTimestampLine(line); ok {
		return LineTimestamp, ts
	}
	s := strings.TrimSpace(line)
	switch {
	case s == "":
		return LineBlank, ""
	case strings.HasPrefix(s, headerPrefix):
		return LineHeader, ""
	default:
		return LineRecord, ""
	}
}

// The TRES field is lazy and the state is a maximal run of capitals, so that a trailing capital
// word is always the state and never part of the TRES string.
var recordRe = regexp.MustCompile(`^\s*(\d+)\s+(\S+)\s+(.*?)\s+([A-Z]+)\s*$`)

type RecordLine struct {
	JobID string
	User  string
	TRES  string
	State string
}

func ParseRecordLine(line string) (*RecordLine, bool) {
	m := recordRe.FindStringSubmatch(line)
	if m == nil {
		return nil, false
	}
	return &RecordLine{
		JobID: m[1],
		User:  m[2],
		TRES:  strings.TrimSpace(m[3]),
		State: m[4],
	}, true
}
