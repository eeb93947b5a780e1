package canonical

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/gowebpki/jcs"
)

// ErrInvalidUTF8 is returned for a string or object key that is not valid UTF-8.
var ErrInvalidUTF8 = errors.New("string is not valid UTF-8")

// Canonicalize renders v as RFC 8785 canonical JSON: sorted keys at every
// level, arrays in order, no insignificant whitespace.
// It fails with ErrInvalidUTF8 rather than substituting U+FFFD, so distinct
// byte strings never share a canonical form.
func Canonicalize(v Value) (string, error) {
	// jcs only accepts an object or array at the top level.
	var buf bytes.Buffer
	buf.WriteByte('[')
	if err := write(&buf, v); err != nil {
		return "", err
	}
	buf.WriteByte(']')

	out, err := jcs.Transform(buf.Bytes())
	if err != nil {
		return "", fmt.Errorf("canonicalizing json: %w", err)
	}
	return string(out[1 : len(out)-1]), nil
}

// CanonicalizeJSON canonicalizes an arbitrary JSON document.
func CanonicalizeJSON(raw []byte) (string, error) {
	v, err := FromJSON(raw)
	if err != nil {
		return "", err
	}
	return Canonicalize(v)
}

func write(buf *bytes.Buffer, v Value) error {
	if isNull(v) {
		buf.WriteString("null")
		return nil
	}

	switch x := v.(type) {
	case String:
		return writeString(buf, string(x))
	case Bool:
		if x {
			buf.WriteString("true")
		} else {
			buf.WriteString("false")
		}
		return nil
	case List:
		buf.WriteByte('[')
		for i, item := range x {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := write(buf, item); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
		return nil
	case *Object:
		buf.WriteByte('{')
		for i, k := range x.Keys() {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeString(buf, k); err != nil {
				return err
			}
			buf.WriteByte(':')
			if err := write(buf, x.fields[k]); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
		return nil
	default:
		return fmt.Errorf("unsupported canonical value %T", v)
	}
}

func writeString(buf *bytes.Buffer, s string) error {
	if !utf8.ValidString(s) {
		return fmt.Errorf("%w: %q", ErrInvalidUTF8, s)
	}
	b, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encoding string: %w", err)
	}
	buf.Write(b)
	return nil
}
