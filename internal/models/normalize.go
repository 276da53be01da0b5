package models

import (
	"encoding/json"
	"fmt"
	"reflect"
)

// RawKey is the key non-mapping results are wrapped under.
const RawKey = "raw"

// NormalizeData turns a handler payload into a JSON object. Maps pass
// through, structs are flattened to their JSON fields, everything else is
// wrapped as {"raw": "<value>"}.
func NormalizeData(v interface{}) (map[string]interface{}, error) {
	switch data := v.(type) {
	case nil:
		return map[string]interface{}{RawKey: ""}, nil
	case map[string]interface{}:
		return data, nil
	case string:
		return map[string]interface{}{RawKey: data}, nil
	}

	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return map[string]interface{}{RawKey: ""}, nil
		}
		rv = rv.Elem()
	}

	if rv.Kind() != reflect.Struct && rv.Kind() != reflect.Map {
		return map[string]interface{}{RawKey: fmt.Sprint(rv.Interface())}, nil
	}

	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("flatten %T: %w", v, err)
	}
	var out map[string]interface{}
	if err := json.Unmarshal(b, &out); err != nil || out == nil {
		return map[string]interface{}{RawKey: string(b)}, nil
	}
	return out, nil
}
