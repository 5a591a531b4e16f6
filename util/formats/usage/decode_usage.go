// SPDX-License-Identifier: MIT

package usage

import (
	"bufio"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/pkg/errors"
)

// A Parser builds a Result from lines presented to it in file order.  It never fails: lines it
// doesn't understand are counted and dropped.

type Parser struct {
	result  *Result
	current *Users
	stats   Stats
}

func NewParser() *Parser {
	return &Parser{result: NewResult()}
}

func (p *Parser) Result() *Result {
	return p.result
}

func (p *Parser) Stats() Stats {
	return p.stats
}

// Bytes that are not valid UTF-8 are dropped from the line, the same as in a tail window.

func (p *Parser) ParseLine(line string) {
	line = strings.TrimRight(line, "\r\n")
	if !utf8.ValidString(line) {
		line = strings.ToValidUTF8(line, "")
	}
	p.stats.Lines++

	kind, ts := classify(line)
	switch kind {
	case LineTimestamp:
		p.stats.Timestamps++
		p.current = Ensure(p.result, ts)
		return
	case LineBlank:
		return
	case LineHeader:
		p.stats.Headers++
		return
	}

	rec, ok := ParseRecordLine(line)
	if !ok {
		p.stats.Unrecognized++
		return
	}
	p.stats.Records++
	if p.current == nil {
		p.stats.Orphans++
		return
	}
	if p.addRecord(rec) {
		p.stats.Kept++
	} else {
		p.stats.NoGpu++
	}
}

// Returns false if the record was dropped for lack of a typed GPU.

func (p *Parser) addRecord(rec *RecordLine) bool {
	fields, _ := DecodeTRES(rec.TRES)

	type gpu struct {
		name  string
		count string
	}
	var gpus []gpu
	var cpu, node, billing *int64
	var mem *string
	for _, f := range fields {
		if name, ok := GpuType(f.Key); ok {
			gpus = append(gpus, gpu{name, f.Value})
			continue
		}
		switch f.Key {
		case "cpu":
			cpu = SafeInt(f.Value)
		case "mem":
			m := f.Value
			mem = &m
		case "node":
			node = SafeInt(f.Value)
		case "billing":
			billing = SafeInt(f.Value)
		}
	}
	if len(gpus) == 0 {
		return false
	}

	gpuTypes := Ensure(p.current, rec.User)
	for _, g := range gpus {
		Ensure(gpuTypes, g.name).Set(rec.JobID, &Job{
			GpuNumber: SafeInt(g.count),
			Cpu:       cpu,
			Mem:       mem,
			Node:      node,
			Billing:   billing,
			State:     rec.State,
		})
	}
	return true
}

func ParseLines(lines []string) (*Result, Stats) {
	p := NewParser()
	for _, l := range lines {
		p.ParseLine(l)
	}
	return p.Result(), p.Stats()
}

func ParseReader(input io.Reader) (*Result, Stats, error) {
	p := NewParser()
	rd := bufio.NewReader(input)
	for {
		// No limit on line length, an overlong line is just another unrecognized line.
		line, err := rd.ReadString('\n')
		if line != "" {
			p.ParseLine(line)
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, p.Stats(), errors.Wrap(err, "reading usage log")
		}
	}
	return p.Result(), p.Stats(), nil
}

func ParseFile(path string) (*Result, Stats, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, Stats{}, errors.Wrap(err, "opening usage log")
	}
	defer f.Close()
	result, stats, err := ParseReader(f)
	if err != nil {
		return nil, stats, errors.Wrapf(err, "%s", path)
	}
	return result, stats, nil
}
