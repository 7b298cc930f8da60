package parser

import (
	"bytes"
	"encoding/json"
	"fmt"

	"channelapi/internal/tree"
)

// ParseJSON translates a JSON document into a tree, keeping object key order.
func ParseJSON(raw []byte) (*tree.Value, error) {
	v, err := tree.FromJSON(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedDocument, err)
	}
	return v, nil
}

// RenderJSON writes v as indented JSON.
func RenderJSON(v *tree.Value) ([]byte, error) {
	compact, err := v.MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("encode json: %w", err)
	}
	var out bytes.Buffer
	if err := json.Indent(&out, compact, "", "  "); err != nil {
		return nil, fmt.Errorf("indent json: %w", err)
	}
	out.WriteByte('\n')
	return out.Bytes(), nil
}
