package query

import (
	"fmt"
	"strconv"
	"strings"
)

// record is one key=value row from a response body. Values are stored
// unescaped; unknown keys are carried along and ignored by decoders.
type record map[string]string

// parseRecords splits the first data line of a response body into
// pipe-separated records of space-separated key=value fields.
func parseRecords(body string) []record {
	for _, line := range strings.Split(body, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		parts := strings.Split(line, "|")
		records := make([]record, 0, len(parts))
		for _, part := range parts {
			r := record{}
			for _, field := range strings.Fields(part) {
				key, value, ok := strings.Cut(field, "=")
				if !ok {
					// flag-style field with no value
					r[field] = ""
					continue
				}
				r[key] = Unescape(value)
			}
			records = append(records, r)
		}
		return records
	}
	return nil
}

func (r record) str(key string) (string, error) {
	v, ok := r[key]
	if !ok {
		return "", fmt.Errorf("missing required key %q", key)
	}
	return v, nil
}

func (r record) int64(key string) (int64, error) {
	v, err := r.str(key)
	if err != nil {
		return 0, err
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse %s=%q: %w", key, v, err)
	}
	return n, nil
}

func (r record) flag(key string) (bool, error) {
	n, err := r.int64(key)
	if err != nil {
		return false, err
	}
	return n != 0, nil
}

// decodeRows decodes every record of a response body with dec.
func decodeRows[T any](body string, dec func(record) (T, error)) ([]T, error) {
	records := parseRecords(body)
	out := make([]T, 0, len(records))
	for _, r := range records {
		v, err := dec(r)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// decodeFirst decodes the first record of a response body with dec.
func decodeFirst[T any](body string, dec func(record) (T, error)) (T, error) {
	var zero T
	rows, err := decodeRows(body, dec)
	if err != nil {
		return zero, err
	}
	if len(rows) == 0 {
		return zero, fmt.Errorf("response has no data rows")
	}
	return rows[0], nil
}
