package normalize

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// ShapeKind is the top-level layout of a provider response.
type ShapeKind int

const (
	ArrayShape ShapeKind = iota + 1
	NamedFieldShape
	SingleObjectShape
)

func (k ShapeKind) String() string {
	switch k {
	case ArrayShape:
		return "array"
	case NamedFieldShape:
		return "named_field"
	case SingleObjectShape:
		return "single_object"
	default:
		return "unknown"
	}
}

var ErrUnsupportedShape = errors.New("unsupported response shape")

// Payload is a response resolved into its raw token items.
type Payload struct {
	Kind  ShapeKind
	Field string // set for NamedFieldShape
	Items []json.RawMessage
}

// ResolveShape inspects body once and flattens it into a list of items.
// fields are the list-holding keys the provider is known to use, checked in order.
// An object carrying none of them is taken to be a single token.
func ResolveShape(body []byte, fields ...string) (Payload, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return Payload{}, fmt.Errorf("%w: empty body", ErrUnsupportedShape)
	}

	switch trimmed[0] {
	case '[':
		var items []json.RawMessage
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return Payload{}, fmt.Errorf("invalid json array: %w", err)
		}
		return Payload{Kind: ArrayShape, Items: dropNulls(items)}, nil

	case '{':
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(trimmed, &obj); err != nil {
			return Payload{}, fmt.Errorf("invalid json object: %w", err)
		}
		for _, field := range fields {
			raw, ok := obj[field]
			if !ok {
				continue
			}
			items, err := fieldItems(raw)
			if err != nil {
				return Payload{}, fmt.Errorf("field %q: %w", field, err)
			}
			return Payload{Kind: NamedFieldShape, Field: field, Items: items}, nil
		}
		return Payload{Kind: SingleObjectShape, Items: []json.RawMessage{json.RawMessage(trimmed)}}, nil

	default:
		return Payload{}, fmt.Errorf("%w: top-level %q", ErrUnsupportedShape, trimmed[0])
	}
}

func fieldItems(raw json.RawMessage) ([]json.RawMessage, error) {
	trimmed := bytes.TrimSpace(raw)
	switch {
	case len(trimmed) == 0, bytes.Equal(trimmed, []byte("null")):
		return nil, nil
	case trimmed[0] == '[':
		var items []json.RawMessage
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, err
		}
		return dropNulls(items), nil
	case trimmed[0] == '{':
		return []json.RawMessage{json.RawMessage(trimmed)}, nil
	default:
		return nil, ErrUnsupportedShape
	}
}

func dropNulls(items []json.RawMessage) []json.RawMessage {
	out := items[:0]
	for _, item := range items {
		if t := bytes.TrimSpace(item); len(t) > 0 && !bytes.Equal(t, []byte("null")) {
			out = append(out, item)
		}
	}
	return out
}
