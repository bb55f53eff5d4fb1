// Package repository holds helpers shared by the storage adapters.
package repository

import (
	"encoding/json"
	"fmt"

	"condo-ballots/internal/domain/ballot"
)

// EncodeOptions renders an option set as the JSON array stored on the
// ballot row. A nil set is stored as [].
func EncodeOptions(opts []ballot.Option) ([]byte, error) {
	if opts == nil {
		opts = []ballot.Option{}
	}
	return json.Marshal(opts)
}

// DecodeOptions parses a stored option set and rejects malformed shapes
// instead of trusting the column contents.
func DecodeOptions(raw []byte) ([]ballot.Option, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var opts []ballot.Option
	if err := json.Unmarshal(raw, &opts); err != nil {
		return nil, fmt.Errorf("decode options: %w", err)
	}
	seen := make(map[string]struct{}, len(opts))
	for i, o := range opts {
		if o.ID == "" || o.Label == "" {
			return nil, fmt.Errorf("decode options: entry %d has empty id or label", i)
		}
		if _, dup := seen[o.ID]; dup {
			return nil, fmt.Errorf("decode options: duplicate id %q", o.ID)
		}
		seen[o.ID] = struct{}{}
	}
	if len(opts) == 0 {
		return nil, nil
	}
	return opts, nil
}

func EncodeSelection(ids []string) ([]byte, error) {
	if len(ids) == 0 {
		return nil, fmt.Errorf("encode selection: empty")
	}
	return json.Marshal(ids)
}

func DecodeSelection(raw []byte) ([]string, error) {
	var ids []string
	if err := json.Unmarshal(raw, &ids); err != nil {
		return nil, fmt.Errorf("decode selection: %w", err)
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("decode selection: empty")
	}
	for i, id := range ids {
		if id == "" {
			return nil, fmt.Errorf("decode selection: entry %d is empty", i)
		}
	}
	return ids, nil
}
