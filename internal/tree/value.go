// Package tree contains the generic document model shared by parsers, the path resolver
// and the mapping engine. A Value is a node in an acyclic tree; Mappings keep insertion order.
package tree

// Kind identifies which variant a Value holds.
type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindSequence
	KindMapping
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "boolean"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindSequence:
		return "sequence"
	case KindMapping:
		return "mapping"
	default:
		return "unknown"
	}
}

// Value is a tagged union over the document variants.
// The zero Value is Null.
type Value struct {
	kind  Kind
	b     bool
	n     float64
	s     string
	items []*Value
	m     *Mapping
}

// Null returns a new Null value.
func Null() *Value { return &Value{kind: KindNull} }

// Bool returns a new Boolean value.
func Bool(b bool) *Value { return &Value{kind: KindBool, b: b} }

// Number returns a new Number value.
func Number(n float64) *Value { return &Value{kind: KindNumber, n: n} }

// String returns a new String value.
func String(s string) *Value { return &Value{kind: KindString, s: s} }

// Sequence returns a new Sequence holding items in order.
func Sequence(items ...*Value) *Value {
	seq := make([]*Value, 0, len(items))
	for _, it := range items {
		if it == nil {
			it = Null()
		}
		seq = append(seq, it)
	}
	return &Value{kind: KindSequence, items: seq}
}

// NewMapping returns a new, empty Mapping value.
func NewMapping() *Value { return &Value{kind: KindMapping, m: newMapping()} }

// Kind reports the variant held by v. A nil Value reports KindNull.
func (v *Value) Kind() Kind {
	if v == nil {
		return KindNull
	}
	return v.kind
}

func (v *Value) IsNull() bool    { return v.Kind() == KindNull }
func (v *Value) IsMapping() bool { return v.Kind() == KindMapping }

// AsBool returns the boolean payload and whether v is a Boolean.
func (v *Value) AsBool() (bool, bool) {
	if v.Kind() != KindBool {
		return false, false
	}
	return v.b, true
}

// AsNumber returns the numeric payload and whether v is a Number.
func (v *Value) AsNumber() (float64, bool) {
	if v.Kind() != KindNumber {
		return 0, false
	}
	return v.n, true
}

// AsString returns the string payload and whether v is a String.
func (v *Value) AsString() (string, bool) {
	if v.Kind() != KindString {
		return "", false
	}
	return v.s, true
}

// Items returns the elements of a Sequence, or nil for any other kind.
// The returned slice is owned by v.
func (v *Value) Items() []*Value {
	if v.Kind() != KindSequence {
		return nil
	}
	return v.items
}

// Append adds an element to a Sequence. It is a no-op for other kinds.
func (v *Value) Append(item *Value) {
	if v.Kind() != KindSequence {
		return
	}
	if item == nil {
		item = Null()
	}
	v.items = append(v.items, item)
}

// Mapping returns the entries of a Mapping, or nil for any other kind.
func (v *Value) Mapping() *Mapping {
	if v.Kind() != KindMapping {
		return nil
	}
	return v.m
}

// Clone returns a deep copy of v sharing no nodes with it.
func (v *Value) Clone() *Value {
	if v == nil {
		return Null()
	}
	switch v.kind {
	case KindSequence:
		items := make([]*Value, len(v.items))
		for i, it := range v.items {
			items[i] = it.Clone()
		}
		return &Value{kind: KindSequence, items: items}
	case KindMapping:
		out := NewMapping()
		for i, k := range v.m.keys {
			out.m.Set(k, v.m.values[i].Clone())
		}
		return out
	default:
		cp := *v
		return &cp
	}
}

// Equal reports whether v and o are structurally equal. Mapping key order is ignored;
// Sequence order is not.
func (v *Value) Equal(o *Value) bool {
	if v.Kind() != o.Kind() {
		return false
	}
	switch v.Kind() {
	case KindNull:
		return true
	case KindBool:
		return v.b == o.b
	case KindNumber:
		return v.n == o.n
	case KindString:
		return v.s == o.s
	case KindSequence:
		if len(v.items) != len(o.items) {
			return false
		}
		for i := range v.items {
			if !v.items[i].Equal(o.items[i]) {
				return false
			}
		}
		return true
	case KindMapping:
		if v.m.Len() != o.m.Len() {
			return false
		}
		for i, k := range v.m.keys {
			ov, ok := o.m.Get(k)
			if !ok || !v.m.values[i].Equal(ov) {
				return false
			}
		}
		return true
	}
	return false
}

// Mapping is an ordered set of string-keyed entries. Keys are unique.
type Mapping struct {
	keys   []string
	values []*Value
	index  map[string]int
}

func newMapping() *Mapping {
	return &Mapping{index: make(map[string]int)}
}

// Len returns the number of entries.
func (m *Mapping) Len() int {
	if m == nil {
		return 0
	}
	return len(m.keys)
}

// Keys returns the keys in insertion order.
func (m *Mapping) Keys() []string {
	if m == nil {
		return nil
	}
	out := make([]string, len(m.keys))
	copy(out, m.keys)
	return out
}

// Get returns the value stored under key.
func (m *Mapping) Get(key string) (*Value, bool) {
	if m == nil {
		return nil, false
	}
	i, ok := m.index[key]
	if !ok {
		return nil, false
	}
	return m.values[i], true
}

// Set stores v under key. An existing key keeps its position and has its value replaced;
// a new key is appended.
func (m *Mapping) Set(key string, v *Value) {
	if v == nil {
		v = Null()
	}
	if i, ok := m.index[key]; ok {
		m.values[i] = v
		return
	}
	m.index[key] = len(m.keys)
	m.keys = append(m.keys, key)
	m.values = append(m.values, v)
}

// Range calls fn for every entry in order until fn returns false.
func (m *Mapping) Range(fn func(key string, v *Value) bool) {
	if m == nil {
		return
	}
	for i, k := range m.keys {
		if !fn(k, m.values[i]) {
			return
		}
	}
}
