/*
Package marshal implements the bidirectional conversion between native Go
values and the store's tagged attribute representation (pkg/avalue), driven
by a pkg/schema.Schema.

The conversion is schema-directed: every property read on a write path is
looked up in the Schema, and properties absent from the Schema are ignored,
never transmitted (spec invariant). A property whose native value is
undefined (absent) on write is omitted from the marshalled item unless its
SchemaType provides a DefaultProvider.
*/
package marshal

import (
	"fmt"
	"strconv"
	"time"

	"github.com/cuemby/tablemapper/pkg/avalue"
	"github.com/cuemby/tablemapper/pkg/mapererr"
	"github.com/cuemby/tablemapper/pkg/schema"
)

// Item is a mapping from physical attribute name to attribute value.
type Item map[string]avalue.AttributeValue

// absent is the sentinel native.Value distinguishing "no value provided"
// from "nil/zero value provided".
type absentT struct{}

// Absent is the canonical "no value" marker a ValueSource returns for a
// missing property.
var Absent any = absentT{}

func isAbsent(v any) bool {
	if v == nil {
		return false // nil is a present value (coerces per-type, e.g. Null)
	}
	_, ok := v.(absentT)
	return ok
}

// ValueSource reads a named property off a native application value.
// Reflection-free by design: callers supply the lookup.
type ValueSource func(property string) any

// FromMap adapts a plain map[string]any as a ValueSource, the common case
// for CLI/manifest-driven input.
func FromMap(m map[string]any) ValueSource {
	return func(property string) any {
		v, ok := m[property]
		if !ok {
			return Absent
		}
		return v
	}
}

// MarshalItem iterates s's properties, marshals each with the native value
// read via src, and stores each non-absent result under its physical
// attribute name.
func MarshalItem(s schema.Schema, src ValueSource) (Item, error) {
	out := make(Item, len(s))
	for prop, t := range s {
		native := src(prop)
		val, err := MarshalValue(t, native)
		if err != nil {
			return nil, fmt.Errorf("property %q: %w", prop, err)
		}
		if val == nil {
			continue
		}
		out[schema.AttributeName(prop, t)] = *val
	}
	return out, nil
}

// MarshalKey is MarshalItem restricted to properties for which
// schema.IsKey holds for indexName (table primary key when indexName=="").
func MarshalKey(s schema.Schema, src ValueSource, indexName string) (Item, error) {
	out := make(Item)
	for prop, t := range s {
		if !schema.IsKey(t, indexName) {
			continue
		}
		native := src(prop)
		val, err := MarshalValue(t, native)
		if err != nil {
			return nil, fmt.Errorf("property %q: %w", prop, err)
		}
		if val == nil {
			continue
		}
		out[schema.AttributeName(prop, t)] = *val
	}
	return out, nil
}

// MarshalValue converts one native value to an attribute value according
// to t. A nil return (no error) means the value is absent and must be
// omitted from the enclosing item/list/map.
func MarshalValue(t schema.SchemaType, native any) (*avalue.AttributeValue, error) {
	if isAbsent(native) {
		if t.DefaultProvider == nil {
			return nil, nil
		}
		native = t.DefaultProvider()
	}

	switch t.Tag {
	case schema.Binary:
		return marshalBinary(native)
	case schema.Boolean:
		return marshalBoolean(native)
	case schema.Number:
		return marshalNumber(native)
	case schema.String:
		return marshalString(native)
	case schema.Date:
		return marshalDate(native)
	case schema.Null:
		v := avalue.Null()
		return &v, nil
	case schema.Document:
		return marshalDocument(t, native)
	case schema.List:
		return marshalList(t, native)
	case schema.Map:
		return marshalMap(t, native)
	case schema.Tuple:
		return marshalTuple(t, native)
	case schema.Set:
		return marshalSet(t, native)
	case schema.Collection, schema.Hash, schema.Any:
		return marshalAny(native)
	case schema.Custom:
		return marshalCustom(t, native)
	default:
		return nil, mapererr.NewInvalidSchema("unrecognized SchemaType tag %v", t.Tag)
	}
}

func marshalBinary(native any) (*avalue.AttributeValue, error) {
	var b []byte
	switch v := native.(type) {
	case nil:
		b = nil
	case []byte:
		b = v
	case string:
		b = []byte(v)
	default:
		return nil, mapererr.NewInvalidValue(native, "not coercible to Binary")
	}
	if len(b) == 0 {
		v := avalue.Null()
		return &v, nil
	}
	v := avalue.Bin(b)
	return &v, nil
}

func marshalBoolean(native any) (*avalue.AttributeValue, error) {
	switch v := native.(type) {
	case bool:
		r := avalue.Bool(v)
		return &r, nil
	case nil:
		r := avalue.Bool(false)
		return &r, nil
	default:
		return nil, mapererr.NewInvalidValue(native, "not coercible to Boolean")
	}
}

func marshalNumber(native any) (*avalue.AttributeValue, error) {
	s, err := numberToDecimalString(native)
	if err != nil {
		return nil, err
	}
	v := avalue.Num(s)
	return &v, nil
}

func numberToDecimalString(native any) (string, error) {
	switch v := native.(type) {
	case string:
		if _, err := strconv.ParseFloat(v, 64); err != nil {
			return "", mapererr.NewInvalidValue(native, "not a decimal number")
		}
		return v, nil
	case int:
		return strconv.FormatInt(int64(v), 10), nil
	case int32:
		return strconv.FormatInt(int64(v), 10), nil
	case int64:
		return strconv.FormatInt(v, 10), nil
	case uint64:
		return strconv.FormatUint(v, 10), nil
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 64), nil
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), nil
	default:
		return "", mapererr.NewInvalidValue(native, "not coercible to Number")
	}
}

func marshalString(native any) (*avalue.AttributeValue, error) {
	var s string
	switch v := native.(type) {
	case string:
		s = v
	case fmt.Stringer:
		s = v.String()
	case nil:
		s = ""
	default:
		return nil, mapererr.NewInvalidValue(native, "not coercible to String")
	}
	if s == "" {
		v := avalue.Null()
		return &v, nil
	}
	v := avalue.Str(s)
	return &v, nil
}

func marshalDate(native any) (*avalue.AttributeValue, error) {
	var sec int64
	switch v := native.(type) {
	case time.Time:
		sec = v.Unix()
	case string:
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return nil, mapererr.NewInvalidValue(native, "not a valid ISO-8601 date")
		}
		sec = t.Unix()
	case int:
		sec = int64(v)
	case int64:
		sec = v
	case float64:
		sec = int64(v)
	default:
		return nil, mapererr.NewInvalidValue(native, "not coercible to Date")
	}
	val := avalue.Num(strconv.FormatInt(sec, 10))
	return &val, nil
}

func marshalDocument(t schema.SchemaType, native any) (*avalue.AttributeValue, error) {
	src, ok := toValueSource(native)
	if !ok {
		return nil, mapererr.NewInvalidValue(native, "Document requires a map or ValueSource")
	}
	item, err := MarshalItem(t.Members, src)
	if err != nil {
		return nil, err
	}
	v := avalue.Map(map[string]avalue.AttributeValue(item))
	return &v, nil
}

func toValueSource(native any) (ValueSource, bool) {
	switch v := native.(type) {
	case ValueSource:
		return v, true
	case map[string]any:
		return FromMap(v), true
	case nil:
		return FromMap(nil), true
	default:
		return nil, false
	}
}

func marshalList(t schema.SchemaType, native any) (*avalue.AttributeValue, error) {
	if t.MemberType == nil {
		return nil, mapererr.NewInvalidSchema("List requires a MemberType")
	}
	elems, ok := toSlice(native)
	if !ok {
		if native == nil {
			v := avalue.List(nil)
			return &v, nil
		}
		return nil, mapererr.NewInvalidValue(native, "not coercible to List")
	}
	out := make([]avalue.AttributeValue, 0, len(elems))
	for _, e := range elems {
		mv, err := MarshalValue(*t.MemberType, e)
		if err != nil {
			return nil, err
		}
		if mv == nil {
			continue
		}
		out = append(out, *mv)
	}
	v := avalue.List(out)
	return &v, nil
}

func toSlice(native any) ([]any, bool) {
	switch v := native.(type) {
	case []any:
		return v, true
	case nil:
		return nil, true
	}
	return nil, false
}

func marshalMap(t schema.SchemaType, native any) (*avalue.AttributeValue, error) {
	if t.MemberType == nil {
		return nil, mapererr.NewInvalidSchema("Map requires a MemberType")
	}
	entries, err := toEntries(native)
	if err != nil {
		return nil, err
	}
	out := make(map[string]avalue.AttributeValue, len(entries))
	for _, e := range entries {
		mv, err := MarshalValue(*t.MemberType, e.value)
		if err != nil {
			return nil, err
		}
		if mv == nil {
			continue
		}
		out[e.key] = *mv
	}
	v := avalue.Map(out)
	return &v, nil
}

type mapEntry struct {
	key   string
	value any
}

func toEntries(native any) ([]mapEntry, error) {
	switch v := native.(type) {
	case map[string]any:
		out := make([]mapEntry, 0, len(v))
		for k, val := range v {
			out = append(out, mapEntry{k, val})
		}
		return out, nil
	case []mapEntry:
		return v, nil
	case nil:
		return nil, nil
	default:
		return nil, mapererr.NewInvalidValue(native, "not coercible to Map (expected map[string]any)")
	}
}

func marshalTuple(t schema.SchemaType, native any) (*avalue.AttributeValue, error) {
	elems, ok := toSlice(native)
	if !ok {
		return nil, mapererr.NewInvalidValue(native, "not coercible to Tuple")
	}
	out := make([]avalue.AttributeValue, 0, len(t.TupleMembers))
	for i, memberType := range t.TupleMembers {
		var e any = Absent
		if i < len(elems) {
			e = elems[i]
		}
		mv, err := MarshalValue(memberType, e)
		if err != nil {
			return nil, err
		}
		if mv == nil {
			continue
		}
		out = append(out, *mv)
	}
	v := avalue.List(out)
	return &v, nil
}

func marshalSet(t schema.SchemaType, native any) (*avalue.AttributeValue, error) {
	if t.MemberType == nil {
		return nil, mapererr.NewInvalidSchema("Set requires a MemberType")
	}
	elems, ok := toSlice(native)
	if !ok {
		if native == nil {
			v := avalue.Null()
			return &v, nil
		}
		return nil, mapererr.NewInvalidValue(native, "not coercible to Set")
	}

	seen := make(map[string]bool, len(elems))
	switch t.MemberType.Tag {
	case schema.Binary:
		var bs [][]byte
		for _, e := range elems {
			mv, err := MarshalValue(*t.MemberType, e)
			if err != nil {
				return nil, err
			}
			if mv == nil || avalue.IsNull(*mv) {
				continue
			}
			key := string(mv.B)
			if seen[key] {
				continue
			}
			seen[key] = true
			bs = append(bs, mv.B)
		}
		if len(bs) == 0 {
			v := avalue.Null()
			return &v, nil
		}
		v := avalue.BinarySet(bs)
		return &v, nil
	case schema.Number:
		var ns []string
		for _, e := range elems {
			mv, err := MarshalValue(*t.MemberType, e)
			if err != nil {
				return nil, err
			}
			if mv == nil || avalue.IsNull(*mv) {
				continue
			}
			if seen[*mv.N] {
				continue
			}
			seen[*mv.N] = true
			ns = append(ns, *mv.N)
		}
		if len(ns) == 0 {
			v := avalue.Null()
			return &v, nil
		}
		v := avalue.NumberSet(ns)
		return &v, nil
	case schema.String:
		var ss []string
		for _, e := range elems {
			mv, err := MarshalValue(*t.MemberType, e)
			if err != nil {
				return nil, err
			}
			if mv == nil || avalue.IsNull(*mv) {
				continue
			}
			if seen[*mv.S] {
				continue
			}
			seen[*mv.S] = true
			ss = append(ss, *mv.S)
		}
		if len(ss) == 0 {
			v := avalue.Null()
			return &v, nil
		}
		v := avalue.StringSet(ss)
		return &v, nil
	default:
		return nil, mapererr.NewInvalidSchema("Set member type must be Binary, Number, or String, got %v", t.MemberType.Tag)
	}
}

func marshalAny(native any) (*avalue.AttributeValue, error) {
	if native == nil {
		v := avalue.Null()
		return &v, nil
	}
	switch v := native.(type) {
	case string:
		r := avalue.Str(v)
		return &r, nil
	case bool:
		r := avalue.Bool(v)
		return &r, nil
	case []byte:
		r := avalue.Bin(v)
		return &r, nil
	case int, int32, int64, uint64, float32, float64:
		s, err := numberToDecimalString(v)
		if err != nil {
			return nil, err
		}
		r := avalue.Num(s)
		return &r, nil
	case []any:
		out := make([]avalue.AttributeValue, 0, len(v))
		for _, e := range v {
			mv, err := marshalAny(e)
			if err != nil {
				return nil, err
			}
			out = append(out, *mv)
		}
		r := avalue.List(out)
		return &r, nil
	case map[string]any:
		out := make(map[string]avalue.AttributeValue, len(v))
		for k, val := range v {
			mv, err := marshalAny(val)
			if err != nil {
				return nil, err
			}
			out[k] = *mv
		}
		r := avalue.Map(out)
		return &r, nil
	default:
		return nil, mapererr.NewInvalidValue(native, "Any/Hash/Collection cannot infer a tag for %T", native)
	}
}

func marshalCustom(t schema.SchemaType, native any) (*avalue.AttributeValue, error) {
	if t.Custom.Marshal == nil {
		return nil, mapererr.NewInvalidSchema("Custom SchemaType has no Marshal function")
	}
	raw, err := t.Custom.Marshal(native)
	if err != nil {
		return nil, err
	}
	if av, ok := raw.(avalue.AttributeValue); ok {
		return &av, nil
	}
	return nil, mapererr.NewInvalidValue(native, "Custom marshal function must return avalue.AttributeValue")
}
