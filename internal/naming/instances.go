package naming

import (
	"encoding/json"
	"fmt"
	"os"
)

// instancesWrapperKey is the reserved top-level key an instance-description
// file may wrap its mapping under.
const instancesWrapperKey = "__instances__"

// InstanceMap maps field id → instance index → human description, all keyed
// as strings to match the on-disk JSON form.
type InstanceMap map[string]map[string]string

// Lookup returns the description for (field, instance), or "".
func (m InstanceMap) Lookup(field, instance string) string {
	if m == nil {
		return ""
	}
	return m[field][instance]
}

// LoadInstanceMap reads an instance-description JSON file. The mapping may
// appear bare or wrapped under the reserved "__instances__" key.
func LoadInstanceMap(path string) (InstanceMap, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read instance map: %w", err)
	}
	var wrapped map[string]json.RawMessage
	if err := json.Unmarshal(data, &wrapped); err != nil {
		return nil, fmt.Errorf("parse instance map: %w", err)
	}
	if inner, ok := wrapped[instancesWrapperKey]; ok {
		var m InstanceMap
		if err := json.Unmarshal(inner, &m); err != nil {
			return nil, fmt.Errorf("parse instance map: %w", err)
		}
		return m, nil
	}
	var m InstanceMap
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse instance map: %w", err)
	}
	return m, nil
}
