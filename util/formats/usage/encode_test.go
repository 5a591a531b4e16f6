package usage

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleResult() *Result {
	r, _ := ParseLines([]string{
		"Thu Dec 18 04:37:01 2025",
		"61040 matbwyler cpu=32,gres/gpu:a40=4 RUNNING",
	})
	return r
}

func TestEncodeJSONIndent(t *testing.T) {
	doc, err := EncodeJSON(sampleResult(), 2)
	require.NoError(t, err)
	want := `{
  "Thu Dec 18 04:37:01 2025": {
    "matbwyler": {
      "a40": {
        "61040": {
          "gpu_number": 4,
          "cpu": 32,
          "mem": null,
          "node": null,
          "billing": null,
          "state": "RUNNING"
        }
      }
    }
  }
}
`
	assert.Equal(t, want, string(doc))
}

func TestEncodeJSONNoIndent(t *testing.T) {
	for _, indent := range []int{0, -3} {
		doc, err := EncodeJSON(sampleResult(), indent)
		require.NoError(t, err)
		assert.True(t, bytes.HasPrefix(doc, []byte("{\n\"Thu Dec 18 04:37:01 2025\": {\n\"matbwyler\"")))
		assert.True(t, bytes.HasSuffix(doc, []byte("}\n")))
	}
}

func TestWriteJSONEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, NewResult(), 2))
	assert.Equal(t, "{}\n", buf.String())
}
