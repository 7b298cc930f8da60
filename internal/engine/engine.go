// Package engine applies a channel's ordered field mappings to a parsed source document.
package engine

import (
	"fmt"
	"strings"

	"channelapi/internal/model"
	"channelapi/internal/tree"
)

// AbsentPolicy decides what a mapping writes when its source path resolves to nothing.
type AbsentPolicy string

const (
	// AbsentSkip leaves the target untouched: no value is written and no intermediate
	// mappings are created.
	AbsentSkip AbsentPolicy = "skip"
	// AbsentNull writes an explicit null at the target path.
	AbsentNull AbsentPolicy = "null"
)

// ParseAbsentPolicy converts a configuration string into an AbsentPolicy. Empty means AbsentSkip.
func ParseAbsentPolicy(s string) (AbsentPolicy, error) {
	switch p := AbsentPolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case "":
		return AbsentSkip, nil
	case AbsentSkip, AbsentNull:
		return p, nil
	default:
		return "", fmt.Errorf("unknown absent policy %q (want %q or %q)", s, AbsentSkip, AbsentNull)
	}
}

// Engine produces target documents from source documents. It holds no mutable state and
// is safe for concurrent use.
type Engine struct {
	absent AbsentPolicy
}

// New returns an Engine using the given absent-source policy.
func New(absent AbsentPolicy) *Engine {
	if absent == "" {
		absent = AbsentSkip
	}
	return &Engine{absent: absent}
}

// AbsentPolicy reports the policy the engine was built with.
func (e *Engine) AbsentPolicy() AbsentPolicy { return e.absent }

// Transform copies template into a fresh result and applies mappings in order. When several
// mappings write the same target path, the last one wins. Neither source nor template is modified,
// and the result shares no nodes with either.
func (e *Engine) Transform(source, template *tree.Value, mappings []model.FieldMapping) (*tree.Value, error) {
	var result *tree.Value
	if template == nil {
		result = tree.NewMapping()
	} else {
		result = template.Clone()
	}

	for i, m := range mappings {
		value, ok := tree.Get(source, m.SourcePath)
		if !ok {
			if e.absent == AbsentSkip {
				continue
			}
			value = tree.Null()
		} else {
			value = value.Clone()
		}

		if err := tree.Set(result, m.TargetPath, value); err != nil {
			return nil, fmt.Errorf("mapping %d (%s -> %s): %w", i, m.SourcePath, m.TargetPath, err)
		}
	}

	return result, nil
}
