package inventory

import "encoding/json"

// Opt is a tri-state JSON field: absent (Set false), explicitly null
// (Set true, zero Value for pointer types), or a value. It keeps "field not
// supplied" and "field explicitly cleared" distinguishable in partial
// updates.
type Opt[T any] struct {
	Set   bool
	Value T
}

func (o *Opt[T]) UnmarshalJSON(b []byte) error {
	o.Set = true
	return json.Unmarshal(b, &o.Value)
}

func (o Opt[T]) MarshalJSON() ([]byte, error) {
	return json.Marshal(o.Value)
}
