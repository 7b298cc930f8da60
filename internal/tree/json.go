package tree

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"

	"github.com/tidwall/gjson"
)

// ErrInvalidJSON is returned when decoding text that is not a single valid JSON value.
var ErrInvalidJSON = errors.New("invalid json")

// FromJSON decodes a JSON document into a tree. Object member order is preserved; when a key
// repeats, the last value wins and keeps the first occurrence's position. Numbers outside the
// float64 range are rejected with ErrInvalidJSON.
func FromJSON(data []byte) (*Value, error) {
	if !gjson.ValidBytes(data) {
		return nil, ErrInvalidJSON
	}
	return fromResult(gjson.ParseBytes(data))
}

// MustFromJSON is like FromJSON but panics on invalid input. Intended for literals.
func MustFromJSON(s string) *Value {
	v, err := FromJSON([]byte(s))
	if err != nil {
		panic(fmt.Sprintf("tree: invalid json literal %q", s))
	}
	return v
}

func fromResult(r gjson.Result) (*Value, error) {
	switch r.Type {
	case gjson.False:
		return Bool(false), nil
	case gjson.True:
		return Bool(true), nil
	case gjson.Number:
		if math.IsInf(r.Num, 0) || math.IsNaN(r.Num) {
			return nil, fmt.Errorf("%w: number %s out of range", ErrInvalidJSON, r.Raw)
		}
		return Number(r.Num), nil
	case gjson.String:
		return String(r.Str), nil
	case gjson.JSON:
		var err error
		if r.IsArray() {
			seq := Sequence()
			r.ForEach(func(_, item gjson.Result) bool {
				var v *Value
				if v, err = fromResult(item); err != nil {
					return false
				}
				seq.Append(v)
				return true
			})
			if err != nil {
				return nil, err
			}
			return seq, nil
		}
		obj := NewMapping()
		r.ForEach(func(key, item gjson.Result) bool {
			var v *Value
			if v, err = fromResult(item); err != nil {
				return false
			}
			obj.m.Set(key.Str, v)
			return true
		})
		if err != nil {
			return nil, err
		}
		return obj, nil
	default:
		return Null(), nil
	}
}

// MarshalJSON encodes the tree keeping mapping insertion order.
func (v *Value) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	if err := v.encode(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// UnmarshalJSON replaces v with the decoded document.
func (v *Value) UnmarshalJSON(data []byte) error {
	parsed, err := FromJSON(data)
	if err != nil {
		return err
	}
	*v = *parsed
	return nil
}

func (v *Value) encode(buf *bytes.Buffer) error {
	switch v.Kind() {
	case KindNull:
		buf.WriteString("null")
	case KindBool:
		buf.WriteString(strconv.FormatBool(v.b))
	case KindNumber:
		b, err := json.Marshal(v.n)
		if err != nil {
			return err
		}
		buf.Write(b)
	case KindString:
		b, err := json.Marshal(v.s)
		if err != nil {
			return err
		}
		buf.Write(b)
	case KindSequence:
		buf.WriteByte('[')
		for i, it := range v.items {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := it.encode(buf); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case KindMapping:
		buf.WriteByte('{')
		for i, k := range v.m.keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			kb, err := json.Marshal(k)
			if err != nil {
				return err
			}
			buf.Write(kb)
			buf.WriteByte(':')
			if err := v.m.values[i].encode(buf); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	}
	return nil
}
