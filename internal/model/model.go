package model

// Package model contains domain models/data structures shared across layers.
// Models carry no persistence tags; repositories own the column mapping.

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnsupportedFormat is returned for any document format outside XML and JSON.
var ErrUnsupportedFormat = errors.New("unsupported format")

// Format names a document notation a channel reads or writes.
type Format string

const (
	FormatXML  Format = "XML"
	FormatJSON Format = "JSON"
)

// ParseFormat normalises s (case-insensitive) into a supported Format.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToUpper(strings.TrimSpace(s))); f {
	case FormatXML, FormatJSON:
		return f, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, s)
	}
}

// Extension returns the file extension used for artifacts in this format.
func (f Format) Extension() string {
	return "." + strings.ToLower(string(f))
}

// ContentType returns the MIME type used for artifacts in this format.
func (f Format) ContentType() string {
	if f == FormatXML {
		return "application/xml"
	}
	return "application/json"
}
