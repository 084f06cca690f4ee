package normalize

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Number decodes a JSON number, a numeric string or null.
// Valid is false for null, an empty string or a missing field.
type Number struct {
	Value float64
	Valid bool
}

func (n *Number) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*n = Number{}
		return nil
	}

	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			*n = Number{}
			return nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return fmt.Errorf("number %q: %w", s, err)
		}
		return n.set(f)
	}

	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	return n.set(f)
}

func (n *Number) set(f float64) error {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return fmt.Errorf("number out of range: %v", f)
	}
	*n = Number{Value: f, Valid: true}
	return nil
}

func (n Number) MarshalJSON() ([]byte, error) {
	if !n.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(n.Value)
}

// Float is the value, or 0 when unknown.
func (n Number) Float() float64 {
	if !n.Valid {
		return 0
	}
	return n.Value
}

// NonNegative is the value clamped at 0.
func (n Number) NonNegative() float64 {
	if v := n.Float(); v > 0 {
		return v
	}
	return 0
}
