// Package canonical produces deterministic JSON text from a closed set of value kinds.
//
// There is no number kind: numbers are carried as their decimal text in a
// String, so float formatting never influences the output. A Null set on an
// Object field removes the field; Null inside a List is kept.
package canonical

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"reflect"
	"sort"
	"strconv"
	"unicode/utf8"
)

// Value is one node of a canonical document.
type Value interface {
	isValue()
}

// String is a JSON string. Numbers are represented as String too.
type String string

// Bool is a JSON boolean.
type Bool bool

// Null is a JSON null.
type Null struct{}

// List is an ordered JSON array.
type List []Value

// Object is a JSON object whose keys are emitted in sorted order.
type Object struct {
	fields map[string]Value
}

func (String) isValue()  {}
func (Bool) isValue()    {}
func (Null) isValue()    {}
func (List) isValue()    {}
func (*Object) isValue() {}

// NewObject returns an empty Object.
func NewObject() *Object {
	return &Object{fields: make(map[string]Value)}
}

// Set stores v under key. A nil or Null value deletes the key.
func (o *Object) Set(key string, v Value) *Object {
	if isNull(v) {
		delete(o.fields, key)
		return o
	}
	o.fields[key] = v
	return o
}

// SetString stores *s under key, or omits the key when s is nil.
func (o *Object) SetString(key string, s *string) *Object {
	if s == nil {
		return o.Set(key, nil)
	}
	return o.Set(key, String(*s))
}

// SetNonEmpty stores s under key unless it is empty.
func (o *Object) SetNonEmpty(key, s string) *Object {
	if s == "" {
		return o.Set(key, nil)
	}
	return o.Set(key, String(s))
}

// Get returns the value stored under key.
func (o *Object) Get(key string) (Value, bool) {
	v, ok := o.fields[key]
	return v, ok
}

// Keys returns the object's keys in sorted order.
func (o *Object) Keys() []string {
	keys := make([]string, 0, len(o.fields))
	for k := range o.fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Len returns the number of fields.
func (o *Object) Len() int {
	return len(o.fields)
}

func isNull(v Value) bool {
	if v == nil {
		return true
	}
	if o, ok := v.(*Object); ok && o == nil {
		return true
	}
	_, ok := v.(Null)
	return ok
}

// FromJSON converts a JSON document into a Value.
// Numbers keep their literal text as a String, so {"x":1} and {"x":"1"}
// produce the same Value and a change between number and string is not
// visible in the canonical form. Object members whose value is null are
// dropped. Input that is not valid UTF-8 fails with ErrInvalidUTF8.
func FromJSON(raw []byte) (Value, error) {
	if !utf8.Valid(raw) {
		return nil, ErrInvalidUTF8
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("decoding json: %w", err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return nil, errors.New("decoding json: unexpected data after top-level value")
	}

	return FromAny(v)
}

// FromAny converts decoded Go data into a Value.
// Accepted inputs are nil, Value, string, bool, json.Number, integer and
// float kinds, map[string]any, map[string]string, []any and []string.
func FromAny(v any) (Value, error) {
	switch x := v.(type) {
	case nil:
		return Null{}, nil
	case Value:
		return x, nil
	case string:
		return String(x), nil
	case bool:
		return Bool(x), nil
	case json.Number:
		return String(x.String()), nil
	case map[string]any:
		obj := NewObject()
		for k, item := range x {
			cv, err := FromAny(item)
			if err != nil {
				return nil, fmt.Errorf("field %q: %w", k, err)
			}
			obj.Set(k, cv)
		}
		return obj, nil
	case map[string]string:
		obj := NewObject()
		for k, item := range x {
			obj.Set(k, String(item))
		}
		return obj, nil
	case []any:
		list := make(List, 0, len(x))
		for i, item := range x {
			cv, err := FromAny(item)
			if err != nil {
				return nil, fmt.Errorf("index %d: %w", i, err)
			}
			list = append(list, cv)
		}
		return list, nil
	case []string:
		list := make(List, 0, len(x))
		for _, item := range x {
			list = append(list, String(item))
		}
		return list, nil
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return String(strconv.FormatInt(rv.Int(), 10)), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return String(strconv.FormatUint(rv.Uint(), 10)), nil
	case reflect.Float32, reflect.Float64:
		f := rv.Float()
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, fmt.Errorf("unsupported float value %v", f)
		}
		bits := 64
		if rv.Kind() == reflect.Float32 {
			bits = 32
		}
		return String(strconv.FormatFloat(f, 'f', -1, bits)), nil
	}

	return nil, fmt.Errorf("unsupported type %T", v)
}
