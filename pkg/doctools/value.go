package doctools

import "encoding/json"

// Kind identifies which variant a Value holds.
type Kind int

// Value kinds, one per JSON type.
const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindArray
	KindObject
)

// String returns the JSON type name, or "unknown".
func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	default:
		return "unknown"
	}
}

// Value is a decoded JSON value. The zero Value is JSON null.
type Value struct {
	kind   Kind
	b      bool
	num    json.Number
	str    string
	arr    []Value
	fields map[string]Value
}

// Kind reports which variant v holds.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether v is JSON null.
func (v Value) IsNull() bool { return v.kind == KindNull }

// Bool returns the boolean payload and whether v is a bool.
func (v Value) Bool() (bool, bool) { return v.b, v.kind == KindBool }

// Number returns the numeric payload and whether v is a number.
func (v Value) Number() (json.Number, bool) { return v.num, v.kind == KindNumber }

// Str returns the string payload and whether v is a string.
func (v Value) Str() (string, bool) { return v.str, v.kind == KindString }

// Array returns the elements and whether v is an array.
func (v Value) Array() ([]Value, bool) { return v.arr, v.kind == KindArray }

// Object returns the members and whether v is an object.
func (v Value) Object() (map[string]Value, bool) { return v.fields, v.kind == KindObject }

// Get returns the member named key when v is an object.
func (v Value) Get(key string) (Value, bool) {
	if v.kind != KindObject {
		return Value{}, false
	}
	member, ok := v.fields[key]
	return member, ok
}

// Interface converts v back to the encoding/json dynamic representation.
func (v Value) Interface() any {
	switch v.kind {
	case KindBool:
		return v.b
	case KindNumber:
		return v.num
	case KindString:
		return v.str
	case KindArray:
		out := make([]any, len(v.arr))
		for i, el := range v.arr {
			out[i] = el.Interface()
		}
		return out
	case KindObject:
		out := make(map[string]any, len(v.fields))
		for k, el := range v.fields {
			out[k] = el.Interface()
		}
		return out
	default:
		return nil
	}
}

func valueOf(raw any) Value {
	switch t := raw.(type) {
	case bool:
		return Value{kind: KindBool, b: t}
	case json.Number:
		return Value{kind: KindNumber, num: t}
	case string:
		return Value{kind: KindString, str: t}
	case []any:
		arr := make([]Value, len(t))
		for i, el := range t {
			arr[i] = valueOf(el)
		}
		return Value{kind: KindArray, arr: arr}
	case map[string]any:
		fields := make(map[string]Value, len(t))
		for k, el := range t {
			fields[k] = valueOf(el)
		}
		return Value{kind: KindObject, fields: fields}
	default:
		return Value{kind: KindNull}
	}
}
