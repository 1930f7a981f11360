package metrics

import (
	"encoding/json"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Value is a metric that may be "not applicable" for a given response,
// for example rise time when the output never crosses 10% of the final value.
type Value struct {
	V     float64
	Valid bool
}

func Of(v float64) Value { return Value{V: v, Valid: true} }

// NA is the not-applicable sentinel.
var NA = Value{}

func (v Value) String() string {
	if !v.Valid {
		return "n/a"
	}
	return strconv.FormatFloat(v.V, 'f', 4, 64)
}

// Or returns the number, or def when not applicable.
func (v Value) Or(def float64) float64 {
	if !v.Valid {
		return def
	}
	return v.V
}

func (v Value) MarshalJSON() ([]byte, error) {
	if !v.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(v.V)
}

func (v *Value) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*v = NA
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	*v = Of(f)
	return nil
}

func (v Value) MarshalYAML() (any, error) {
	if !v.Valid {
		return nil, nil
	}
	return v.V, nil
}

func (v *Value) UnmarshalYAML(node *yaml.Node) error {
	if node.ShortTag() == "!!null" {
		*v = NA
		return nil
	}
	var f float64
	if err := node.Decode(&f); err != nil {
		return err
	}
	*v = Of(f)
	return nil
}
