package sessiondto

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// Number accepts a JSON number, a numeric string or null. Anything else decodes as
// absent instead of failing the whole payload.
type Number struct {
	Value float64
	Set   bool
}

func (n *Number) UnmarshalJSON(b []byte) error {
	*n = Number{}
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return nil
	}
	var f float64
	if err := json.Unmarshal(b, &f); err == nil {
		*n = Number{Value: f, Set: true}
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		if f, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			*n = Number{Value: f, Set: true}
		}
	}
	return nil
}

func (n Number) MarshalJSON() ([]byte, error) {
	if !n.Set {
		return []byte("null"), nil
	}
	return json.Marshal(n.Value)
}

// Ptr returns nil when the number was absent.
func (n Number) Ptr() *float64 {
	if !n.Set {
		return nil
	}
	v := n.Value
	return &v
}

// Int returns the value truncated to int64, or def when absent.
func (n Number) Int(def int64) int64 {
	if !n.Set {
		return def
	}
	return int64(n.Value)
}

// ID is an identifier that servers send as a string, a number or a nested object
// such as {"id": "..."}. It always normalizes to a trimmed string.
type ID string

var nestedIDKeys = []string{"id", "_id", "userId", "user_id", "uuid"}

func (id *ID) UnmarshalJSON(b []byte) error {
	*id = ""
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return nil
	}
	switch b[0] {
	case '"':
		var s string
		if err := json.Unmarshal(b, &s); err == nil {
			*id = ID(strings.TrimSpace(s))
		}
	case '{':
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(b, &obj); err != nil {
			return nil
		}
		for _, k := range nestedIDKeys {
			if raw, ok := obj[k]; ok {
				var inner ID
				_ = inner.UnmarshalJSON(raw)
				if inner != "" {
					*id = inner
					return nil
				}
			}
		}
	default:
		var num json.Number
		if err := json.Unmarshal(b, &num); err == nil {
			*id = ID(num.String())
		}
	}
	return nil
}

func (id ID) String() string { return string(id) }

// Text is a string field that decodes as empty when the server sends any other
// JSON type.
type Text string

func (t *Text) UnmarshalJSON(b []byte) error {
	*t = ""
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*t = Text(strings.TrimSpace(s))
	}
	return nil
}

func (t Text) String() string { return string(t) }

// Flag is a boolean field. Only a JSON true sets it; anything else decodes as false.
type Flag bool

func (f *Flag) UnmarshalJSON(b []byte) error {
	*f = false
	var v bool
	if err := json.Unmarshal(b, &v); err == nil {
		*f = Flag(v)
	}
	return nil
}
