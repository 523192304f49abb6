package content

import (
	"bytes"
	"encoding/json"
	"io"
)

// Encode writes items as a JSON array. HTML characters are not escaped.
// A nil slice is written as [].
func Encode(w io.Writer, items Items, indent bool) error {
	if items == nil {
		items = Items{}
	}
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if indent {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(items)
}

// JSON returns the compact JSON array for items, without a trailing newline.
func (items Items) JSON() ([]byte, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, items, false); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
