package marshal

import (
	"strconv"
	"time"

	"github.com/cuemby/tablemapper/pkg/avalue"
	"github.com/cuemby/tablemapper/pkg/mapererr"
	"github.com/cuemby/tablemapper/pkg/schema"
)

// Sink receives a decoded native value for a schema property. The default
// Sink, ToMap, just populates a map[string]any.
type Sink func(property string, value any)

// ToMap returns a Sink that writes into dst.
func ToMap(dst map[string]any) Sink {
	return func(property string, value any) { dst[property] = value }
}

// UnmarshalItem walks s's properties, looks each physical attribute up in
// item, and unmarshals it into its native representation via UnmarshalValue,
// delivering each non-absent result to sink. A property whose attribute is
// missing from item is omitted, whatever its SchemaType's Tag — the reverse of MarshalItem's omit-on-absent rule.
func UnmarshalItem(s schema.Schema, item Item, sink Sink) error {
	for prop, t := range s {
		attr, ok := item[schema.AttributeName(prop, t)]
		if !ok {
			continue
		}
		native, err := UnmarshalValue(t, attr)
		if err != nil {
			return err
		}
		if native == nil {
			continue
		}
		sink(prop, native)
	}
	return nil
}

// UnmarshalItemToMap is the common-case convenience wrapper around
// UnmarshalItem.
func UnmarshalItemToMap(s schema.Schema, item Item) (map[string]any, error) {
	out := make(map[string]any, len(s))
	if err := UnmarshalItem(s, item, ToMap(out)); err != nil {
		return nil, err
	}
	return out, nil
}

// UnmarshalValue converts one attribute value back to its native
// representation according to t. A nil, nil return means the value decoded
// to "no value" (e.g. an explicit NULL attribute unmarshalling to a map
// property that should simply be left unset).
func UnmarshalValue(t schema.SchemaType, attr avalue.AttributeValue) (any, error) {
	if avalue.IsNull(attr) {
		// An explicit NULL attribute (written by MarshalValue for an empty
		// Binary/String/Set, or a real Null-tagged property) always decodes
		// to "no value" rather than a zero value, so it round-trips as
		// absent on the next MarshalItem.
		return nil, nil
	}

	switch t.Tag {
	case schema.Binary:
		return attr.B, nil
	case schema.Boolean:
		if attr.BOOL == nil {
			return nil, mapererr.NewProtocolViolation("expected BOOL attribute for Boolean property")
		}
		return *attr.BOOL, nil
	case schema.Number:
		if attr.N == nil {
			return nil, mapererr.NewProtocolViolation("expected N attribute for Number property")
		}
		return *attr.N, nil
	case schema.String:
		if attr.S == nil {
			return nil, mapererr.NewProtocolViolation("expected S attribute for String property")
		}
		return *attr.S, nil
	case schema.Date:
		if attr.N == nil {
			return nil, mapererr.NewProtocolViolation("expected N attribute for Date property")
		}
		sec, err := strconv.ParseInt(*attr.N, 10, 64)
		if err != nil {
			return nil, mapererr.NewInvalidValue(*attr.N, "not a valid unix timestamp")
		}
		return unixToTime(sec), nil
	case schema.Document:
		return unmarshalDocument(t, attr)
	case schema.List:
		return unmarshalList(t, attr)
	case schema.Map:
		return unmarshalMap(t, attr)
	case schema.Tuple:
		return unmarshalTuple(t, attr)
	case schema.Set:
		return unmarshalSet(t, attr)
	case schema.Collection, schema.Hash, schema.Any:
		return unmarshalAny(attr)
	case schema.Custom:
		return unmarshalCustom(t, attr)
	default:
		return nil, mapererr.NewInvalidSchema("unrecognized SchemaType tag %v", t.Tag)
	}
}

func unmarshalDocument(t schema.SchemaType, attr avalue.AttributeValue) (any, error) {
	if attr.M == nil {
		return nil, mapererr.NewProtocolViolation("expected M attribute for Document property")
	}
	var dst map[string]any
	if t.ValueConstructor != nil {
		v := t.ValueConstructor()
		m, ok := v.(map[string]any)
		if !ok {
			return nil, mapererr.NewInvalidSchema("Document ValueConstructor must produce a map[string]any")
		}
		dst = m
	} else {
		dst = make(map[string]any, len(t.Members))
	}
	if err := UnmarshalItem(t.Members, Item(attr.M), ToMap(dst)); err != nil {
		return nil, err
	}
	return dst, nil
}

func unmarshalList(t schema.SchemaType, attr avalue.AttributeValue) (any, error) {
	if t.MemberType == nil {
		return nil, mapererr.NewInvalidSchema("List requires a MemberType")
	}
	if attr.L == nil {
		return nil, mapererr.NewProtocolViolation("expected L attribute for List property")
	}
	out := make([]any, 0, len(attr.L))
	for _, elem := range attr.L {
		v, err := UnmarshalValue(*t.MemberType, elem)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func unmarshalMap(t schema.SchemaType, attr avalue.AttributeValue) (any, error) {
	if t.MemberType == nil {
		return nil, mapererr.NewInvalidSchema("Map requires a MemberType")
	}
	if attr.M == nil {
		return nil, mapererr.NewProtocolViolation("expected M attribute for Map property")
	}
	out := make(map[string]any, len(attr.M))
	for k, elem := range attr.M {
		v, err := UnmarshalValue(*t.MemberType, elem)
		if err != nil {
			return nil, err
		}
		out[k] = v
	}
	return out, nil
}

func unmarshalTuple(t schema.SchemaType, attr avalue.AttributeValue) (any, error) {
	if attr.L == nil {
		return nil, mapererr.NewProtocolViolation("expected L attribute for Tuple property")
	}
	out := make([]any, len(t.TupleMembers))
	for i, memberType := range t.TupleMembers {
		if i >= len(attr.L) {
			out[i] = nil
			continue
		}
		v, err := UnmarshalValue(memberType, attr.L[i])
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func unmarshalSet(t schema.SchemaType, attr avalue.AttributeValue) (any, error) {
	switch {
	case attr.BS != nil:
		out := make([]any, len(attr.BS))
		for i, b := range attr.BS {
			out[i] = b
		}
		return out, nil
	case attr.NS != nil:
		out := make([]any, len(attr.NS))
		for i, n := range attr.NS {
			out[i] = n
		}
		return out, nil
	case attr.SS != nil:
		out := make([]any, len(attr.SS))
		for i, s := range attr.SS {
			out[i] = s
		}
		return out, nil
	default:
		return nil, mapererr.NewProtocolViolation("expected SS, NS, or BS attribute for Set property")
	}
}

func unmarshalAny(attr avalue.AttributeValue) (any, error) {
	switch {
	case attr.S != nil:
		return *attr.S, nil
	case attr.N != nil:
		return *attr.N, nil
	case attr.BOOL != nil:
		return *attr.BOOL, nil
	case attr.B != nil:
		return attr.B, nil
	case attr.L != nil:
		out := make([]any, 0, len(attr.L))
		for _, elem := range attr.L {
			v, err := unmarshalAny(elem)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
		return out, nil
	case attr.M != nil:
		out := make(map[string]any, len(attr.M))
		for k, elem := range attr.M {
			v, err := unmarshalAny(elem)
			if err != nil {
				return nil, err
			}
			out[k] = v
		}
		return out, nil
	case attr.SS != nil, attr.NS != nil, attr.BS != nil:
		return unmarshalSet(schema.SchemaType{Tag: schema.Set}, attr)
	default:
		return nil, nil
	}
}

func unmarshalCustom(t schema.SchemaType, attr avalue.AttributeValue) (any, error) {
	if t.Custom.Unmarshal == nil {
		return nil, mapererr.NewInvalidSchema("Custom SchemaType has no Unmarshal function")
	}
	return t.Custom.Unmarshal(attr)
}

func unixToTime(sec int64) time.Time {
	return time.Unix(sec, 0).UTC()
}
