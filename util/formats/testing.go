// SPDX-License-Identifier: MIT

package formats

import (
	"os"
	"path/filepath"
	"testing"
)

func assert(t *testing.T, c bool, msg string) {
	t.Helper()
	if !c {
		t.Fatal(msg)
	}
}

// Write a usage log into a fresh temp directory and return its name.
func writeLog(t *testing.T, content string) string {
	t.Helper()
	fn := filepath.Join(t.TempDir(), "uso_cluster.txt")
	if err := os.WriteFile(fn, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return fn
}
