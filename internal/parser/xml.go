package parser

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode"

	"channelapi/internal/tree"
)

const (
	// AttributePrefix marks mapping keys that hold XML attributes.
	AttributePrefix = "@_"
	// TextKey holds the character data of an element that also has attributes or children.
	TextKey = "#text"
	// DefaultRootName wraps rendered trees that do not have exactly one top-level element.
	DefaultRootName = "root"
)

// element accumulates one open XML element while its content is being read.
type element struct {
	content  *tree.Value
	counts   map[string]int
	text     strings.Builder
	hasAttrs bool
	hasKids  bool
}

func newElement() *element {
	return &element{content: tree.NewMapping(), counts: make(map[string]int)}
}

// addChild stores a child under name. The first occurrence is stored as is; a second occurrence
// turns the entry into a Sequence at the same position, and later ones are appended to it.
func (e *element) addChild(name string, v *tree.Value) {
	e.hasKids = true
	entries := e.content.Mapping()
	switch e.counts[name] {
	case 0:
		entries.Set(name, v)
	case 1:
		first, _ := entries.Get(name)
		entries.Set(name, tree.Sequence(first, v))
	default:
		seq, _ := entries.Get(name)
		seq.Append(v)
	}
	e.counts[name]++
}

func (e *element) finish() *tree.Value {
	text := strings.TrimSpace(e.text.String())
	if !e.hasAttrs && !e.hasKids {
		return tree.String(text)
	}
	if text != "" {
		e.content.Mapping().Set(TextKey, tree.String(text))
	}
	return e.content
}

// ErrInvalidName is returned by RenderXML for a key that is not a legal XML element or attribute name.
var ErrInvalidName = errors.New("invalid xml name")

// qualifiedName keeps the literal namespace prefix, e.g. "soap:Envelope" or "xmlns:x".
func qualifiedName(n xml.Name) string {
	if n.Space == "" {
		return n.Local
	}
	return n.Space + ":" + n.Local
}

// ParseXML translates an XML document into a tree. The result is a Mapping keyed by the root tag.
// Each element becomes a Mapping; attributes are stored under AttributePrefix+name; a tag that
// repeats under the same parent becomes a Sequence; an element without attributes or child
// elements becomes its trimmed text. Tags and attribute names keep their namespace prefix as written.
func ParseXML(raw []byte) (*tree.Value, error) {
	dec := xml.NewDecoder(bytes.NewReader(raw))
	dec.Strict = true

	doc := newElement()
	stack := []*element{doc}
	names := []string{""}

	for {
		tok, err := dec.RawToken()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedDocument, err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if len(stack) == 1 && doc.hasKids {
				return nil, fmt.Errorf("%w: more than one root element", ErrMalformedDocument)
			}
			el := newElement()
			for _, a := range t.Attr {
				key := AttributePrefix + qualifiedName(a.Name)
				if _, dup := el.content.Mapping().Get(key); dup {
					return nil, fmt.Errorf("%w: attribute %q repeated", ErrMalformedDocument, qualifiedName(a.Name))
				}
				el.hasAttrs = true
				el.content.Mapping().Set(key, tree.String(a.Value))
			}
			stack = append(stack, el)
			names = append(names, qualifiedName(t.Name))
		case xml.EndElement:
			top := len(stack) - 1
			if top == 0 {
				return nil, fmt.Errorf("%w: unexpected end element </%s>", ErrMalformedDocument, qualifiedName(t.Name))
			}
			el, name := stack[top], names[top]
			if end := qualifiedName(t.Name); end != name {
				return nil, fmt.Errorf("%w: element <%s> closed by </%s>", ErrMalformedDocument, name, end)
			}
			stack, names = stack[:top], names[:top]
			stack[top-1].addChild(name, el.finish())
		case xml.CharData:
			if len(stack) == 1 {
				if len(bytes.TrimSpace(t)) > 0 {
					return nil, fmt.Errorf("%w: text outside of the root element", ErrMalformedDocument)
				}
				continue
			}
			stack[len(stack)-1].text.Write(t)
		}
	}

	if len(stack) > 1 {
		return nil, fmt.Errorf("%w: element <%s> is not closed", ErrMalformedDocument, names[len(names)-1])
	}
	if !doc.hasKids {
		return nil, fmt.Errorf("%w: no root element", ErrMalformedDocument)
	}
	return doc.content, nil
}

// RenderXML writes v as an XML document following the ParseXML conventions. A tree without
// exactly one top-level element, or whose single top-level entry is a Sequence, is wrapped in
// DefaultRootName. Keys that are not legal XML names yield ErrInvalidName.
func RenderXML(v *tree.Value) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(xml.Header)

	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")

	rootName, rootValue := DefaultRootName, v
	if keys := v.Mapping().Keys(); len(keys) == 1 && isElementKey(keys[0]) {
		if only, _ := v.Mapping().Get(keys[0]); only.Kind() != tree.KindSequence {
			rootName, rootValue = keys[0], only
		}
	}
	if rootValue.Kind() == tree.KindSequence {
		return nil, fmt.Errorf("encode xml: a sequence cannot be the document element")
	}

	if err := writeElement(enc, rootName, rootValue); err != nil {
		return nil, fmt.Errorf("encode xml: %w", err)
	}
	if err := enc.Flush(); err != nil {
		return nil, fmt.Errorf("encode xml: %w", err)
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

func isElementKey(k string) bool {
	return k != TextKey && !strings.HasPrefix(k, AttributePrefix)
}

func writeElement(enc *xml.Encoder, name string, v *tree.Value) error {
	if v.Kind() == tree.KindSequence {
		for _, item := range v.Items() {
			if err := writeElement(enc, name, item); err != nil {
				return err
			}
		}
		return nil
	}

	if !isXMLName(name) {
		return fmt.Errorf("%w: element %q", ErrInvalidName, name)
	}
	start := xml.StartElement{Name: xml.Name{Local: name}}
	entries := v.Mapping()
	var attrErr error
	entries.Range(func(k string, av *tree.Value) bool {
		if !strings.HasPrefix(k, AttributePrefix) {
			return true
		}
		attr := strings.TrimPrefix(k, AttributePrefix)
		if !isXMLName(attr) {
			attrErr = fmt.Errorf("%w: attribute %q of <%s>", ErrInvalidName, attr, name)
			return false
		}
		start.Attr = append(start.Attr, xml.Attr{Name: xml.Name{Local: attr}, Value: scalarText(av)})
		return true
	})
	if attrErr != nil {
		return attrErr
	}

	if err := enc.EncodeToken(start); err != nil {
		return err
	}

	if v.Kind() == tree.KindMapping {
		var err error
		entries.Range(func(k string, child *tree.Value) bool {
			switch {
			case k == TextKey:
				err = enc.EncodeToken(xml.CharData(scalarText(child)))
			case isElementKey(k):
				err = writeElement(enc, k, child)
			}
			return err == nil
		})
		if err != nil {
			return err
		}
	} else if text := scalarText(v); text != "" {
		if err := enc.EncodeToken(xml.CharData(text)); err != nil {
			return err
		}
	}

	return enc.EncodeToken(start.End())
}

// isXMLName reports whether s matches the XML Name production, with ':' allowed for prefixes.
func isXMLName(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_' || r == ':' || unicode.IsLetter(r):
		case i > 0 && (r == '-' || r == '.' || unicode.IsDigit(r) || unicode.Is(unicode.Mn, r) || unicode.Is(unicode.Mc, r)):
		default:
			return false
		}
	}
	return true
}

func scalarText(v *tree.Value) string {
	switch v.Kind() {
	case tree.KindBool:
		b, _ := v.AsBool()
		return strconv.FormatBool(b)
	case tree.KindNumber:
		n, _ := v.AsNumber()
		return strconv.FormatFloat(n, 'f', -1, 64)
	case tree.KindString:
		s, _ := v.AsString()
		return s
	case tree.KindSequence, tree.KindMapping:
		b, err := v.MarshalJSON()
		if err != nil {
			return ""
		}
		return string(b)
	default:
		return ""
	}
}
