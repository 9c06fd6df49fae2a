// Package products models the host's record of installed products.
package products

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Hive names the scope a record was read from
const (
	HiveMachine = "HKLM"
	HiveUser    = "HKCU"
	HiveLedger  = "ledger"
)

// Record is one installed-product entry. Attributes the pipeline does not
// model are kept in Values and written back unchanged.
type Record struct {
	ID            string
	Is64          bool
	IsUpgradeNode bool
	Hive          string
	Values        map[string]any
}

var modeledKeys = map[string]bool{
	"id":            true,
	"is64":          true,
	"isUpgradeNode": true,
	"hive":          true,
}

// String returns a printable value from the attribute bag, or ""
func (r Record) String(key string) string {
	v, ok := r.Values[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// DisplayName returns the DisplayName attribute falling back to the ID
func (r Record) DisplayName() string {
	if name := r.String("DisplayName"); name != "" {
		return name
	}
	return r.ID
}

func (r Record) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(r.Values)+4)
	for k, v := range r.Values {
		if !modeledKeys[k] {
			out[k] = v
		}
	}
	out["id"] = r.ID
	out["is64"] = r.Is64
	out["isUpgradeNode"] = r.IsUpgradeNode
	out["hive"] = r.Hive
	return json.Marshal(out)
}

func (r *Record) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*r = Record{}
	for k, v := range raw {
		var err error
		switch k {
		case "id":
			err = json.Unmarshal(v, &r.ID)
		case "is64":
			err = json.Unmarshal(v, &r.Is64)
		case "isUpgradeNode":
			err = json.Unmarshal(v, &r.IsUpgradeNode)
		case "hive":
			err = json.Unmarshal(v, &r.Hive)
		default:
			var val any
			dec := json.NewDecoder(bytes.NewReader(v))
			dec.UseNumber()
			err = dec.Decode(&val)
			if err == nil {
				if r.Values == nil {
					r.Values = make(map[string]any)
				}
				r.Values[k] = val
			}
		}
		if err != nil {
			return fmt.Errorf("failed to decode %q: %w", k, err)
		}
	}
	return nil
}
