// Package channelfile loads channel definitions from YAML files for offline use.
//
// A file looks like:
//
//	name: orders-to-invoice
//	sourceFormat: XML
//	targetFormat: JSON
//	targetTemplate:
//	  invoice:
//	    currency: EUR
//	mappings:
//	  - sourcePath: order.id
//	    targetPath: invoice.number
//	  - order.customer -> invoice.buyer
//
// Mapping entries are either objects or "source -> target" shorthand strings.
// Template key order is kept as written.
package channelfile

import (
	"fmt"
	"math"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"channelapi/internal/model"
	"channelapi/internal/tree"
)

const arrow = "->"

type file struct {
	Name           string    `yaml:"name"`
	Description    string    `yaml:"description"`
	SourceFormat   string    `yaml:"sourceFormat"`
	TargetFormat   string    `yaml:"targetFormat"`
	SourceTemplate template  `yaml:"sourceTemplate"`
	TargetTemplate template  `yaml:"targetTemplate"`
	Mappings       []mapping `yaml:"mappings"`
}

type template struct {
	value *tree.Value
}

// UnmarshalYAML converts the node into an ordered tree.
func (t *template) UnmarshalYAML(node *yaml.Node) error {
	v, err := FromNode(node)
	if err != nil {
		return err
	}
	t.value = v
	return nil
}

type mapping struct {
	model.FieldMapping
}

// UnmarshalYAML accepts either {sourcePath, targetPath} or "source -> target".
func (m *mapping) UnmarshalYAML(node *yaml.Node) error {
	var src, dst string
	switch node.Kind {
	case yaml.ScalarNode:
		left, right, ok := strings.Cut(node.Value, arrow)
		if !ok {
			return fmt.Errorf("line %d: mapping %q must look like \"source -> target\"", node.Line, node.Value)
		}
		src, dst = strings.TrimSpace(left), strings.TrimSpace(right)
	case yaml.MappingNode:
		var raw struct {
			SourcePath string `yaml:"sourcePath"`
			TargetPath string `yaml:"targetPath"`
		}
		if err := node.Decode(&raw); err != nil {
			return err
		}
		src, dst = raw.SourcePath, raw.TargetPath
	default:
		return fmt.Errorf("line %d: expected mapping object or string", node.Line)
	}

	sp, err := tree.ParsePath(src)
	if err != nil {
		return fmt.Errorf("line %d: sourcePath: %w", node.Line, err)
	}
	tp, err := tree.ParsePath(dst)
	if err != nil {
		return fmt.Errorf("line %d: targetPath: %w", node.Line, err)
	}
	m.SourcePath, m.TargetPath = sp, tp
	return nil
}

// LoadFile reads and parses a YAML channel file.
func LoadFile(path string) (*model.Channel, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read channel file %s: %w", path, err)
	}
	return Parse(data)
}

// Parse parses YAML data into a channel. The returned channel has no ID or owner.
func Parse(data []byte) (*model.Channel, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse channel YAML: %w", err)
	}

	src, err := model.ParseFormat(f.SourceFormat)
	if err != nil {
		return nil, fmt.Errorf("sourceFormat: %w", err)
	}
	dst, err := model.ParseFormat(f.TargetFormat)
	if err != nil {
		return nil, fmt.Errorf("targetFormat: %w", err)
	}

	target := f.TargetTemplate.value
	if target == nil || target.IsNull() {
		target = tree.NewMapping()
	}
	if !target.IsMapping() {
		return nil, fmt.Errorf("targetTemplate must be a mapping, got %s", target.Kind())
	}

	ch := &model.Channel{
		Name:           f.Name,
		SourceFormat:   src,
		TargetFormat:   dst,
		TargetTemplate: target,
		Mappings:       make([]model.FieldMapping, 0, len(f.Mappings)),
	}
	if f.Description != "" {
		d := f.Description
		ch.Description = &d
	}
	if v := f.SourceTemplate.value; v != nil && !v.IsNull() {
		ch.SourceTemplate = v
	}
	for _, m := range f.Mappings {
		ch.Mappings = append(ch.Mappings, m.FieldMapping)
	}
	return ch, nil
}

// FromNode converts a decoded YAML node into a tree, keeping mapping key order. Merge keys
// ("<<: *base") are expanded in place; keys written in the mapping itself override merged ones,
// and earlier merge sources override later ones.
func FromNode(node *yaml.Node) (*tree.Value, error) {
	switch node.Kind {
	case yaml.DocumentNode:
		if len(node.Content) == 0 {
			return tree.Null(), nil
		}
		return FromNode(node.Content[0])
	case yaml.AliasNode:
		return FromNode(node.Alias)
	case yaml.SequenceNode:
		items := make([]*tree.Value, 0, len(node.Content))
		for _, c := range node.Content {
			v, err := FromNode(c)
			if err != nil {
				return nil, err
			}
			items = append(items, v)
		}
		return tree.Sequence(items...), nil
	case yaml.MappingNode:
		return fromMapping(node)
	case yaml.ScalarNode:
		return scalar(node)
	default:
		return nil, fmt.Errorf("line %d: unsupported YAML node", node.Line)
	}
}

const mergeTag = "!!merge"

func fromMapping(node *yaml.Node) (*tree.Value, error) {
	explicit := make(map[string]bool)
	for i := 0; i+1 < len(node.Content); i += 2 {
		k := node.Content[i]
		if k.Kind != yaml.ScalarNode {
			return nil, fmt.Errorf("line %d: mapping keys must be scalars", k.Line)
		}
		if k.ShortTag() != mergeTag {
			explicit[k.Value] = true
		}
	}

	out := tree.NewMapping()
	for i := 0; i+1 < len(node.Content); i += 2 {
		k := node.Content[i]
		if k.ShortTag() == mergeTag {
			if err := merge(out, node.Content[i+1], explicit); err != nil {
				return nil, err
			}
			continue
		}
		v, err := FromNode(node.Content[i+1])
		if err != nil {
			return nil, err
		}
		out.Mapping().Set(k.Value, v)
	}
	return out, nil
}

// merge copies the entries of src, a mapping or a list of mappings, into out. Keys in skip and
// keys out already holds are left alone.
func merge(out *tree.Value, src *yaml.Node, skip map[string]bool) error {
	if src.Kind == yaml.AliasNode {
		src = src.Alias
	}
	switch src.Kind {
	case yaml.MappingNode:
		v, err := fromMapping(src)
		if err != nil {
			return err
		}
		v.Mapping().Range(func(k string, item *tree.Value) bool {
			if _, seen := out.Mapping().Get(k); !seen && !skip[k] {
				out.Mapping().Set(k, item)
			}
			return true
		})
		return nil
	case yaml.SequenceNode:
		for _, c := range src.Content {
			if c.Kind == yaml.SequenceNode {
				return fmt.Errorf("line %d: merge list entries must be mappings", c.Line)
			}
			if err := merge(out, c, skip); err != nil {
				return err
			}
		}
		return nil
	default:
		return fmt.Errorf("line %d: merge value must be a mapping or a list of mappings", src.Line)
	}
}

func scalar(node *yaml.Node) (*tree.Value, error) {
	switch node.ShortTag() {
	case "!!null":
		return tree.Null(), nil
	case "!!bool":
		var b bool
		if err := node.Decode(&b); err != nil {
			return nil, err
		}
		return tree.Bool(b), nil
	case "!!int", "!!float":
		var f float64
		if err := node.Decode(&f); err != nil {
			return nil, fmt.Errorf("line %d: %w", node.Line, err)
		}
		if math.IsInf(f, 0) || math.IsNaN(f) {
			return nil, fmt.Errorf("line %d: number %s is not finite", node.Line, node.Value)
		}
		return tree.Number(f), nil
	default:
		return tree.String(node.Value), nil
	}
}
