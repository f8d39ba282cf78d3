package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/s0up4200/tokenmgmt/models"
)

// parseID parses a positive record id
func parseID(what, raw string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("invalid %s '%s': must be a positive integer", what, raw)
	}
	return id, nil
}

// parseIDs parses a list of record ids
func parseIDs(what string, raw []string) ([]int64, error) {
	ids := make([]int64, 0, len(raw))
	for _, r := range raw {
		id, err := parseID(what, r)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// parseFields turns key=value pairs into a record. Values that parse as
// JSON (numbers, booleans, null, arrays, objects, quoted strings) keep their
// type; anything else is sent as a plain string.
func parseFields(pairs []string) (models.Record, error) {
	rec := models.Record{}
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid field '%s': expected key=value", pair)
		}
		rec[key] = fieldValue(value)
	}
	return rec, nil
}

func fieldValue(raw string) any {
	dec := json.NewDecoder(bytes.NewReader([]byte(raw)))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil || dec.More() {
		return raw
	}
	return v
}
