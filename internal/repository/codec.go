package repository

import (
	"encoding/json"
	"fmt"
	"math"

	"simpletodo/internal/service"
)

// Record is the persisted shape of a task: {"text", "id", "isDone"}.
// ID is a pointer so records written without one can be told apart from id 0.
type Record struct {
	Text   string      `json:"text" yaml:"text" toml:"text"`
	ID     *service.ID `json:"id,omitempty" yaml:"id,omitempty" toml:"id,omitempty"`
	IsDone bool        `json:"isDone" yaml:"isDone" toml:"isDone"`
}

// Records converts tasks to their persisted shape, preserving order.
func Records(tasks []service.Task) []Record {
	out := make([]Record, len(tasks))
	for i, t := range tasks {
		id := t.ID
		out[i] = Record{Text: t.Text, ID: &id, IsDone: t.IsDone}
	}
	return out
}

// Encode serializes the whole collection.
func Encode(tasks []service.Task) ([]byte, error) {
	return json.Marshal(Records(tasks))
}

// Decode parses a persisted collection. Empty input and JSON null decode to
// no records. Only a payload that is not an array is an error; each element
// is read as-is with whatever fields it has (see decodeRecord).
func Decode(data []byte) ([]Record, error) {
	if len(data) == 0 {
		return nil, nil
	}
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode task collection: %w", err)
	}
	if raw == nil {
		return nil, nil
	}
	records := make([]Record, len(raw))
	for i, elem := range raw {
		records[i] = decodeRecord(elem)
	}
	return records, nil
}

// decodeRecord reads one element leniently. text is kept only when it is a
// string, isDone is coerced by truthiness, and an id ParseID rejects is
// dropped so the loader allocates a fresh one.
func decodeRecord(elem json.RawMessage) Record {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(elem, &fields); err != nil {
		return Record{}
	}

	var rec Record
	if raw, ok := fields["text"]; ok {
		var text string
		if json.Unmarshal(raw, &text) == nil {
			rec.Text = text
		}
	}
	if raw, ok := fields["isDone"]; ok {
		var v any
		if json.Unmarshal(raw, &v) == nil {
			rec.IsDone = truthy(v)
		}
	}
	if raw, ok := fields["id"]; ok {
		var v any
		if json.Unmarshal(raw, &v) == nil {
			if id, err := service.ParseID(v); err == nil {
				rec.ID = &id
			}
		}
	}
	return rec
}

func truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case float64:
		return x != 0 && !math.IsNaN(x)
	case string:
		return x != ""
	default:
		// arrays and objects
		return true
	}
}
