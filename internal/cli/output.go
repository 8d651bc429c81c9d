package cli

import (
	"encoding/json"
	"fmt"
	"io"
)

// printer writes either JSON documents or text lines.
type printer struct {
	format string
	w      io.Writer
}

func (p printer) json() bool { return p.format == "json" }

// emit writes v as indented JSON, or text() when the format is text.
func (p printer) emit(v any, text func(w io.Writer)) error {
	if p.json() {
		enc := json.NewEncoder(p.w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	text(p.w)
	return nil
}

func (p printer) linef(format string, args ...any) {
	_, _ = fmt.Fprintf(p.w, format+"\n", args...)
}
