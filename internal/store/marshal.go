package store

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/roach88/pregen/internal/ir"
)

// timeLayout is the TEXT form of timestamps. Fixed width, so the column
// sorts chronologically.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse time %q: %w", s, err)
	}
	return t, nil
}

// marshalNames converts a name list to canonical JSON TEXT for storage.
func marshalNames(names []ir.TypeDesc) (string, error) {
	list := make([]string, len(names))
	for i, n := range names {
		list[i] = string(n)
	}
	data, err := ir.MarshalCanonical(list)
	if err != nil {
		return "", fmt.Errorf("marshal names: %w", err)
	}
	return string(data), nil
}

// unmarshalNames parses a JSON TEXT name list. An empty list yields nil.
func unmarshalNames(data string) ([]ir.TypeDesc, error) {
	if data == "" || data == "[]" {
		return nil, nil
	}
	var list []string
	if err := json.Unmarshal([]byte(data), &list); err != nil {
		return nil, fmt.Errorf("unmarshal names: %w", err)
	}
	names := make([]ir.TypeDesc, len(list))
	for i, n := range list {
		names[i] = ir.TypeDesc(n)
	}
	return names, nil
}
