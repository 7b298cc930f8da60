package postgres

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"channelapi/internal/model"
	"channelapi/internal/tree"
)

// encodeTree returns the JSON text for a json column; a nil tree is stored as NULL.
func encodeTree(v *tree.Value) ([]byte, error) {
	if v == nil {
		return nil, nil
	}
	b, err := v.MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	return b, nil
}

func decodeTree(raw []byte) (*tree.Value, error) {
	if raw == nil {
		return nil, nil
	}
	v, err := tree.FromJSON(raw)
	if err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	return v, nil
}

func encodeMappings(m []model.FieldMapping) ([]byte, error) {
	if m == nil {
		m = []model.FieldMapping{}
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("encode mappings: %w", err)
	}
	return b, nil
}

func decodeMappings(raw []byte) ([]model.FieldMapping, error) {
	out := make([]model.FieldMapping, 0)
	if raw == nil {
		return out, nil
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode mappings: %w", err)
	}
	return out, nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}
