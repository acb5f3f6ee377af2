package models

import (
	"encoding/json"
	"reflect"
	"strings"
	"sync"
)

// Extra holds JSON object members a type does not declare, so documents
// written by other versions keep every key through a decode/encode cycle.
type Extra map[string]json.RawMessage

var knownKeysCache sync.Map

// knownKeys lists the JSON member names declared by struct type t.
func knownKeys(t reflect.Type) []string {
	if cached, ok := knownKeysCache.Load(t); ok {
		return cached.([]string)
	}
	keys := make([]string, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "-" {
			continue
		}
		if name == "" {
			name = field.Name
		}
		keys = append(keys, name)
	}
	knownKeysCache.Store(t, keys)
	return keys
}

func isKnownKey(keys []string, key string) bool {
	for _, k := range keys {
		// encoding/json matches member names case-insensitively.
		if strings.EqualFold(k, key) {
			return true
		}
	}
	return false
}

// decodeWithExtra unmarshals data into known (a pointer to a struct) and
// returns the members known does not declare.
func decodeWithExtra(data []byte, known any) (Extra, error) {
	if err := json.Unmarshal(data, known); err != nil {
		return nil, err
	}
	var members map[string]json.RawMessage
	if err := json.Unmarshal(data, &members); err != nil {
		return nil, err
	}
	keys := knownKeys(reflect.TypeOf(known).Elem())
	var extra Extra
	for key, value := range members {
		if isKnownKey(keys, key) {
			continue
		}
		if extra == nil {
			extra = Extra{}
		}
		extra[key] = value
	}
	return extra, nil
}

// encodeWithExtra marshals known and merges extra members back in.
// Declared fields win over an extra member of the same name.
func encodeWithExtra(known any, extra Extra) ([]byte, error) {
	encoded, err := json.Marshal(known)
	if err != nil || len(extra) == 0 {
		return encoded, err
	}
	members := map[string]json.RawMessage{}
	if err := json.Unmarshal(encoded, &members); err != nil {
		return nil, err
	}
	keys := knownKeys(reflect.TypeOf(known))
	for key, value := range extra {
		if isKnownKey(keys, key) {
			continue
		}
		members[key] = value
	}
	return json.Marshal(members)
}
