// Package codec centralizes portable (non-binary) vocabulary encoding.
//
// The binary snapshot format in the persistence package is the durable,
// versioned representation. Codecs exist for interchange: exporting a
// vocabulary to YAML or JSON so it can be inspected, diffed, or consumed by
// implementations in other languages.
package codec

import "fmt"

// Codec encodes/decodes values.
// Implementations must be safe for concurrent use.
type Codec interface {
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
	Name() string
}

// ByName returns a built-in codec by its stable name.
func ByName(name string) (Codec, bool) {
	switch name {
	case "json":
		return JSON{}, true
	case "yaml":
		return YAML{}, true
	default:
		return nil, false
	}
}

// MustMarshal is a helper for internal tests.
func MustMarshal(c Codec, v any) []byte {
	if c == nil {
		c = Default
	}
	b, err := c.Marshal(v)
	if err != nil {
		panic(fmt.Errorf("codec %s marshal failed: %w", c.Name(), err))
	}
	return b
}

// Default is the default interchange codec.
var Default Codec = YAML{}
