// SPDX-License-Identifier: MIT

package usage

import (
	"bytes"
	"encoding/json"
	"io"
	"strings"
)

// Encode the result as a JSON document indented by `indent` spaces per level.  An indent of zero
// or less still puts every member on its own line, just without indentation.  Non-ASCII text is
// written as UTF-8, not escaped.  The document is terminated by a newline.

func EncodeJSON(result *Result, indent int) ([]byte, error) {
	compact, err := result.MarshalJSON()
	if err != nil {
		return nil, err
	}
	if indent < 0 {
		indent = 0
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, compact, "", strings.Repeat(" ", indent)); err != nil {
		return nil, err
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

func WriteJSON(w io.Writer, result *Result, indent int) error {
	bs, err := EncodeJSON(result, indent)
	if err != nil {
		return err
	}
	_, err = w.Write(bs)
	return err
}
