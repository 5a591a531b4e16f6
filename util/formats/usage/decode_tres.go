// SPDX-License-Identifier: MIT

package usage

import (
	"regexp"
	"strconv"
	"strings"
)

// Given a TRES allocation string as printed by squeue, return it as an ordered key/value list.
//
// The field is a comma-separated list of key=value pairs.  Pieces without a `=` are dropped.  Keys
// and values are trimmed of whitespace and values are left as strings.  Should a key appear more
// than once the last value wins, but the key keeps the position of its first appearance.  Here's
// an example:
//
//   cpu=32,mem=64G,node=1,billing=32,gres/gpu=4,gres/gpu:a40=4

type TRES struct {
	Key   string
	Value string
}

func DecodeTRES(s string) (result []TRES, dropped []string) {
	index := make(map[string]int)
	for _, piece := range strings.Split(s, ",") {
		piece = strings.TrimSpace(piece)
		if piece == "" {
			continue
		}
		k, v, found := strings.Cut(piece, "=")
		if !found {
			dropped = append(dropped, piece)
			continue
		}
		k = strings.TrimSpace(k)
		v = strings.TrimSpace(v)
		if ix, found := index[k]; found {
			result[ix].Value = v
			continue
		}
		index[k] = len(result)
		result = append(result, TRES{k, v})
	}
	return
}

const typedGpuPrefix = "gres/gpu:"

// Return the gpu type named by a TRES key, if it is a typed GPU key.  The untyped `gres/gpu` key
// is not.

func GpuType(key string) (string, bool) {
	return strings.CutPrefix(key, typedGpuPrefix)
}

var leadingDigits = regexp.MustCompile(`^(\d+)`)

// Coerce a TRES value to an integer.  A value with a non-numeric suffix yields its leading digits
// ("4x" -> 4); a value with no leading digits yields nil.

func SafeInt(v string) *int64 {
	if n, err := strconv.ParseInt(v, 10, 64); err == nil {
		return &n
	}
	if m := leadingDigits.FindString(v); m != "" {
		if n, err := strconv.ParseInt(m, 10, 64); err == nil {
			return &n
		}
	}
	return nil
}
