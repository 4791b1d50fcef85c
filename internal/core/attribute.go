package core

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// AttrKind is the type tag of an Attribute.
type AttrKind int

const (
	AttrString AttrKind = iota
	AttrInt
	AttrBool
	AttrInt64
	AttrDouble
	AttrObject
	AttrList
)

func (k AttrKind) String() string {
	switch k {
	case AttrInt:
		return "int"
	case AttrBool:
		return "bool"
	case AttrInt64:
		return "int64"
	case AttrDouble:
		return "double"
	case AttrObject:
		return "object"
	case AttrList:
		return "list"
	default:
		return "string"
	}
}

// Attribute is a typed user attribute value. The kind is fixed when the
// value is decoded and never re-inferred afterwards.
type Attribute struct {
	kind AttrKind
	num  int64
	b    bool
	f    float64
	s    string
	obj  map[string]any
	list []any
}

func IntAttr(v int32) Attribute { return Attribute{kind: AttrInt, num: int64(v)} }
func Int64Attr(v int64) Attribute { return Attribute{kind: AttrInt64, num: v} }
func BoolAttr(v bool) Attribute { return Attribute{kind: AttrBool, b: v} }
func DoubleAttr(v float64) Attribute { return Attribute{kind: AttrDouble, f: v} }
func StringAttr(v string) Attribute { return Attribute{kind: AttrString, s: v} }
func ObjectAttr(v map[string]any) Attribute { return Attribute{kind: AttrObject, obj: v} }
func ListAttr(v []any) Attribute { return Attribute{kind: AttrList, list: v} }
func (a Attribute) Kind() AttrKind { return a.kind }
func (a Attribute) Int() int32 { return int32(a.num) }
func (a Attribute) Int64() int64 { return a.num }
func (a Attribute) Bool() bool { return a.b }
func (a Attribute) Double() float64 { return a.f }
func (a Attribute) Str() string { return a.s }
func (a Attribute) Object() map[string]any { return a.obj }
func (a Attribute) List() []any { return a.list }

// Value returns the payload as a plain Go value.
func (a Attribute) Value() any {
	switch a.kind {
	case AttrInt:
		return int32(a.num)
	case AttrInt64:
		return a.num
	case AttrBool:
		return a.b
	case AttrDouble:
		return a.f
	case AttrObject:
		return a.obj
	case AttrList:
		return a.list
	default:
		return a.s
	}
}

// UnmarshalJSON decides the kind by probing in order: int32, bool, int64,
// double, object, list, and falls back to string.
func (a *Attribute) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil {
		return err
	}
	attr, err := probeAttribute(raw)
	if err != nil {
		return err
	}
	*a = attr
	return nil
}

func probeAttribute(raw any) (Attribute, error) {
	switch v := raw.(type) {
	case json.Number:
		s := v.String()
		if i, err := strconv.ParseInt(s, 10, 32); err == nil {
			return IntAttr(int32(i)), nil
		}
		if i, err := strconv.ParseInt(s, 10, 64); err == nil {
			return Int64Attr(i), nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return Attribute{}, fmt.Errorf("attribute number %q: %w", s, err)
		}
		return DoubleAttr(f), nil
	case bool:
		return BoolAttr(v), nil
	case map[string]any:
		return ObjectAttr(v), nil
	case []any:
		return ListAttr(v), nil
	case string:
		return StringAttr(v), nil
	case nil:
		return StringAttr(""), nil
	default:
		return StringAttr(fmt.Sprint(v)), nil
	}
}

var errNonFiniteDouble = errors.New("attribute double is not finite")

// MarshalJSON keeps integral doubles recognisable by always emitting a
// fractional part.
func (a Attribute) MarshalJSON() ([]byte, error) {
	switch a.kind {
	case AttrInt, AttrInt64:
		return []byte(strconv.FormatInt(a.num, 10)), nil
	case AttrBool:
		return []byte(strconv.FormatBool(a.b)), nil
	case AttrDouble:
		if math.IsNaN(a.f) || math.IsInf(a.f, 0) {
			return nil, errNonFiniteDouble
		}
		s := strconv.FormatFloat(a.f, 'g', -1, 64)
		if !strings.ContainsAny(s, ".eE") {
			s += ".0"
		}
		return []byte(s), nil
	case AttrObject:
		if a.obj == nil {
			return []byte("{}"), nil
		}
		return json.Marshal(a.obj)
	case AttrList:
		if a.list == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(a.list)
	default:
		return json.Marshal(a.s)
	}
}
