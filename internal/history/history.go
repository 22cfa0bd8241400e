/*
Package history persists generated plans as append-only JSON arrays.

Every backend follows the same read-modify-write contract: existing entries
are read, the new record is appended, and the whole list is written back.
Missing or unreadable history is treated as empty and never surfaced to the
caller.
*/
package history

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
)

// Store is an append-only log of plan records.
type Store interface {
	Append(ctx context.Context, record any) error
	List(ctx context.Context) ([]json.RawMessage, error)
}

// Recorder receives write outcomes. *telemetry.Metrics satisfies it.
type Recorder interface {
	HistoryWrite(kind string, err error)
}

// decodeEntries parses a stored JSON array. Anything that is not a JSON
// array yields an empty list and ok=false.
func decodeEntries(data []byte) (entries []json.RawMessage, ok bool) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, true
	}
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, false
	}
	return entries, true
}

// encodeEntries appends record and renders the full array indented by four
// spaces.
func encodeEntries(entries []json.RawMessage, record any) ([]byte, error) {
	raw, err := json.Marshal(record)
	if err != nil {
		return nil, fmt.Errorf("failed to encode history record: %w", err)
	}
	entries = append(entries, raw)

	out, err := json.MarshalIndent(entries, "", "    ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode history: %w", err)
	}
	return out, nil
}

type recorded struct {
	Store
	kind string
	rec  Recorder
}

// WithRecorder reports every Append outcome to rec under kind.
func WithRecorder(s Store, kind string, rec Recorder) Store {
	if rec == nil {
		return s
	}
	return &recorded{Store: s, kind: kind, rec: rec}
}

func (r *recorded) Append(ctx context.Context, record any) error {
	err := r.Store.Append(ctx, record)
	r.rec.HistoryWrite(r.kind, err)
	return err
}
