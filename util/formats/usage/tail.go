// SPDX-License-Identifier: MIT

package usage

import (
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// The log grows by one block a minute, so the newest block is nearly always in the first window.
// The whole file is always tried last.
var DefaultTailWindows = []int64{
	4 * 1024 * 1024,
	16 * 1024 * 1024,
	64 * 1024 * 1024,
}

type TailOptions struct {
	Windows []int64 // Increasing; nil means DefaultTailWindows
	Log     *zap.SugaredLogger
}

// ParseLastBlock parses only the most recent timestamp block of the log without reading the
// whole file.  Trailing windows of increasing size are searched backwards for a timestamp line,
// and the first window that has one is parsed from that line to the end of the file.  That result
// is final, it is not checked against larger windows.  A file with no timestamp line at all is
// parsed in full, and an empty file yields an empty result.

func ParseLastBlock(path string, opts TailOptions) (*Result, Stats, error) {
	log := opts.Log
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	windows := opts.Windows
	if windows == nil {
		windows = DefaultTailWindows
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, Stats{}, errors.Wrap(err, "opening usage log")
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return nil, Stats{}, errors.Wrapf(err, "stat %s", path)
	}
	size := info.Size()
	if size == 0 {
		return NewResult(), Stats{}, nil
	}

	for _, window := range tailWindows(windows, size) {
		log.Debugf("Searching last %s of %s (%s)", humanize.IBytes(uint64(window)), path,
			humanize.IBytes(uint64(size)))
		buf := make([]byte, window)
		if _, err := f.ReadAt(buf, size-window); err != nil && err != io.EOF {
			return nil, Stats{}, errors.Wrapf(err, "reading %s", path)
		}
		lines := strings.Split(decodeLossy(buf), "\n")
		if ix := lastTimestampLine(lines); ix >= 0 {
			log.Infof("Last block of %s found within the last %s", path, humanize.IBytes(uint64(window)))
			result, stats := ParseLines(lines[ix:])
			return result, stats, nil
		}
	}

	log.Infof("No timestamp line found in %s, parsing all of it", path)
	return ParseFile(path)
}

// Window sizes to try, clamped to the file size, ending with the whole file.

func tailWindows(windows []int64, size int64) []int64 {
	var ws []int64
	for _, w := range windows {
		if w <= 0 {
			continue
		}
		if w >= size {
			break
		}
		if len(ws) > 0 && w <= ws[len(ws)-1] {
			continue
		}
		ws = append(ws, w)
	}
	return append(ws, size)
}

// A window that starts in the middle of a multibyte character is not valid UTF-8.  The invalid
// bytes are dropped.

func decodeLossy(buf []byte) string {
	if utf8.Valid(buf) {
		return string(buf)
	}
	return strings.ToValidUTF8(string(buf), "")
}

func lastTimestampLine(lines []string) int {
	for i := len(lines) - 1; i >= 0; i-- {
		if _, ok := ParseTimestampLine(lines[i]); ok {
			return i
		}
	}
	return -1
}
