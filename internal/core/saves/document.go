package saves

import (
	"bytes"
	"encoding/json"
	"fmt"
	"unicode/utf8"
)

// emptyDocument is stored when a save carries no data.
var emptyDocument = json.RawMessage(`{}`)

// Valid reports whether data is a JSON document. Unlike json.Valid it also
// rejects invalid UTF-8 inside strings.
func Valid(data []byte) bool {
	return utf8.Valid(data) && json.Valid(data)
}

// Normalize validates doc and returns its compact form. A missing document
// becomes an empty object.
func Normalize(doc json.RawMessage) (json.RawMessage, error) {
	if len(bytes.TrimSpace(doc)) == 0 {
		return emptyDocument, nil
	}
	if !utf8.Valid(doc) {
		return nil, fmt.Errorf("%w: document is not valid UTF-8", ErrInvalidInput)
	}

	var buf bytes.Buffer
	if err := json.Compact(&buf, doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return buf.Bytes(), nil
}

// ParseImport turns externally supplied text into a document. Any parse
// failure is reported as ErrInvalidInput.
func ParseImport(raw string) (json.RawMessage, error) {
	text := []byte(raw)
	if !Valid(text) {
		return nil, fmt.Errorf("%w: import text is not a JSON document", ErrInvalidInput)
	}
	return Normalize(text)
}

// Summarize builds the listing view of a stored document. Returns ErrCorrupt
// if data is not valid JSON.
func Summarize(id int, data []byte) (Summary, error) {
	var fields struct {
		Meta json.RawMessage `json:"meta"`
		Time json.RawMessage `json:"time"`
	}

	if !Valid(data) {
		return Summary{}, ErrCorrupt
	}

	// Non-object documents are valid saves without meta or time.
	if err := json.Unmarshal(data, &fields); err != nil {
		fields.Meta, fields.Time = nil, nil
	}

	return Summary{ID: id, Meta: orNull(fields.Meta), Time: orNull(fields.Time)}, nil
}

// Indent returns doc re-indented for humans.
func Indent(doc json.RawMessage) (json.RawMessage, error) {
	var buf bytes.Buffer
	if err := json.Indent(&buf, doc, "", "  "); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

func orNull(v json.RawMessage) json.RawMessage {
	if len(v) == 0 {
		return json.RawMessage(`null`)
	}
	return v
}
