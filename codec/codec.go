// Package codec centralizes snapshot-list and payload encoding.
//
// The persisted snapshot format is a codec-encoded array under a single
// backend key. Plain JSON is the default and the interoperable wire format;
// the compressing codecs trade that portability for storage footprint and
// are opt-in per store.
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
	case "go-json":
		return GoJSON{}, true
	case "zstd":
		return Zstd{}, true
	case "lz4":
		return LZ4{}, true
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

// Default is the default codec used by the library.
//
// NOTE: This is plain JSON on purpose: persisted snapshot lists stay
// readable by any consumer of the documented format.
var Default Codec = JSON{}
