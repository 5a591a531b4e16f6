package usage

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func job(t *testing.T, r *Result, path ...string) *Job {
	t.Helper()
	require.Len(t, path, 4)
	users, found := r.Get(path[0])
	require.True(t, found, path[0])
	gpus, found := users.Get(path[1])
	require.True(t, found, path[1])
	jobs, found := gpus.Get(path[2])
	require.True(t, found, path[2])
	j, found := jobs.Get(path[3])
	require.True(t, found, path[3])
	return j
}

func TestParseLinesSingleTypedGpu(t *testing.T) {
	r, stats := ParseLines([]string{
		"Thu Dec 18 04:37:01 2025",
		"JOBID USER TRES_ALLOC STATE",
		"61040 matbwyler cpu=32,mem=64G,node=1,billing=32,gres/gpu=4,gres/gpu:a40=4 RUNNING",
	})
	j := job(t, r, "Thu Dec 18 04:37:01 2025", "matbwyler", "a40", "61040")
	assert.EqualValues(t, 4, *j.GpuNumber)
	assert.EqualValues(t, 32, *j.Cpu)
	assert.Equal(t, "64G", *j.Mem)
	assert.EqualValues(t, 1, *j.Node)
	assert.EqualValues(t, 32, *j.Billing)
	assert.Equal(t, "RUNNING", j.State)

	// The untyped gres/gpu does not produce an entry of its own.
	users, _ := r.Get("Thu Dec 18 04:37:01 2025")
	gpus, _ := users.Get("matbwyler")
	assert.Equal(t, []string{"a40"}, gpus.Keys())
	assert.Equal(t, 1, stats.Kept)
}

func TestParseLinesDropsUntypedGpu(t *testing.T) {
	r, stats := ParseLines([]string{
		"Thu Dec 18 04:37:01 2025",
		"61040 matbwyler cpu=32,mem=64G,gres/gpu=4 RUNNING",
		"61041 jdoe cpu=8,mem=16G RUNNING",
	})
	users, found := r.Get("Thu Dec 18 04:37:01 2025")
	require.True(t, found)
	assert.Equal(t, 0, users.Len())
	assert.Equal(t, 2, stats.NoGpu)
}

func TestParseLinesRecordBeforeTimestamp(t *testing.T) {
	r, stats := ParseLines([]string{
		"61040 matbwyler cpu=32,gres/gpu:a40=4 RUNNING",
		"",
		"Thu Dec 18 04:37:01 2025",
	})
	require.Equal(t, 1, r.Len())
	users, _ := r.Get("Thu Dec 18 04:37:01 2025")
	assert.Equal(t, 0, users.Len())
	assert.Equal(t, 1, stats.Orphans)
}

func TestParseLinesTwoGpuTypes(t *testing.T) {
	r, _ := ParseLines([]string{
		"Thu Dec 18 04:37:01 2025",
		"61043 zhang3 cpu=4,mem=32G,node=1,billing=4,gres/gpu:a40=2,gres/gpu:a100=1 RUNNING",
	})
	a40 := job(t, r, "Thu Dec 18 04:37:01 2025", "zhang3", "a40", "61043")
	a100 := job(t, r, "Thu Dec 18 04:37:01 2025", "zhang3", "a100", "61043")
	assert.EqualValues(t, 2, *a40.GpuNumber)
	assert.EqualValues(t, 1, *a100.GpuNumber)
	a100.GpuNumber = a40.GpuNumber
	assert.Equal(t, a40, a100)
}

func TestParseLinesLastWriteWins(t *testing.T) {
	r, stats := ParseLines([]string{
		"Thu Dec 18 04:37:01 2025",
		"61040 matbwyler cpu=32,mem=64G,gres/gpu:a40=4 PENDING",
		"61099 other cpu=1,gres/gpu:a40=1 RUNNING",
		"61040 matbwyler cpu=16,gres/gpu:a40=2 RUNNING",
	})
	j := job(t, r, "Thu Dec 18 04:37:01 2025", "matbwyler", "a40", "61040")
	assert.EqualValues(t, 2, *j.GpuNumber)
	assert.EqualValues(t, 16, *j.Cpu)
	assert.Nil(t, j.Mem, "no merge with the earlier record")
	assert.Equal(t, "RUNNING", j.State)

	users, _ := r.Get("Thu Dec 18 04:37:01 2025")
	assert.Equal(t, []string{"matbwyler", "other"}, users.Keys())
	assert.Equal(t, 3, stats.Kept)
}

func TestParseLinesRepeatedTimestamp(t *testing.T) {
	r, _ := ParseLines([]string{
		"Thu Dec 18 04:37:01 2025",
		"1 a gres/gpu:a40=1 RUNNING",
		"Thu Dec 18 04:38:01 2025",
		"Thu Dec 18 04:37:01 2025",
		"2 b gres/gpu:a40=1 RUNNING",
	})
	assert.Equal(t, []string{"Thu Dec 18 04:37:01 2025", "Thu Dec 18 04:38:01 2025"}, r.Keys())
	users, _ := r.Get("Thu Dec 18 04:37:01 2025")
	assert.Equal(t, []string{"a", "b"}, users.Keys())
}

func TestParseLinesNumericCoercion(t *testing.T) {
	r, _ := ParseLines([]string{
		"Thu Dec 18 04:37:01 2025",
		"61044 jdoe cpu=4x,mem=abc,node=abc,gres/gpu:a30=many RUNNING",
	})
	j := job(t, r, "Thu Dec 18 04:37:01 2025", "jdoe", "a30", "61044")
	assert.EqualValues(t, 4, *j.Cpu)
	assert.Equal(t, "abc", *j.Mem)
	assert.Nil(t, j.Node)
	assert.Nil(t, j.Billing)
	assert.Nil(t, j.GpuNumber)
}

func TestParseReaderCRLF(t *testing.T) {
	r, stats, err := ParseReader(strings.NewReader(
		"Thu Dec 18 04:37:01 2025\r\nJOBID USER TRES_ALLOC STATE\r\n61040 u gres/gpu:a40=4 RUNNING\r\n"))
	require.NoError(t, err)
	j := job(t, r, "Thu Dec 18 04:37:01 2025", "u", "a40", "61040")
	assert.Equal(t, "RUNNING", j.State)
	assert.Equal(t, 3, stats.Lines)
}

func TestParseReaderLongLineWithoutNewline(t *testing.T) {
	r, stats, err := ParseReader(strings.NewReader(
		"Thu Dec 18 04:37:01 2025\n61040 u gres/gpu:a40=4 RUNNING\n" + strings.Repeat("z", 1<<21)))
	require.NoError(t, err)
	assert.Equal(t, 1, r.Len())
	assert.Equal(t, 3, stats.Lines)
	assert.Equal(t, 1, stats.Unrecognized)
}
