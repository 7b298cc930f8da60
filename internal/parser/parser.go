// Package parser converts raw uploaded documents into tree values and renders trees back to text.
package parser

import (
	"errors"
	"fmt"
	"unicode/utf8"

	"channelapi/internal/model"
	"channelapi/internal/tree"
)

// ErrMalformedDocument is returned when raw text is not valid in the declared format.
var ErrMalformedDocument = errors.New("malformed document")

// Parse decodes raw UTF-8 text in the given format into a tree.
func Parse(format model.Format, raw []byte) (*tree.Value, error) {
	switch format {
	case model.FormatJSON, model.FormatXML:
	default:
		return nil, fmt.Errorf("%w: %q", model.ErrUnsupportedFormat, format)
	}

	if !utf8.Valid(raw) {
		return nil, fmt.Errorf("%w: document is not valid UTF-8", ErrMalformedDocument)
	}

	if format == model.FormatXML {
		return ParseXML(raw)
	}
	return ParseJSON(raw)
}

// Render serialises v in the given format.
func Render(format model.Format, v *tree.Value) ([]byte, error) {
	switch format {
	case model.FormatJSON:
		return RenderJSON(v)
	case model.FormatXML:
		return RenderXML(v)
	default:
		return nil, fmt.Errorf("%w: %q", model.ErrUnsupportedFormat, format)
	}
}
