package display

import (
	"encoding/json"
	"fmt"
	"io"
)

// PrettyPrintJSON prints formatted JSON. Raw documents are re-indented.
func PrettyPrintJSON(w io.Writer, v interface{}) {
	if raw, ok := v.([]byte); ok {
		var doc interface{}
		if err := json.Unmarshal(raw, &doc); err != nil {
			fmt.Fprintln(w, string(raw))
			return
		}
		v = doc
	}

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		Fprintln(w, Red, "Error formatting JSON: "+err.Error())
		return
	}
	fmt.Fprintln(w, string(data))
}
