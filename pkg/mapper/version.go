package mapper

import (
	"strconv"

	"github.com/cuemby/tablemapper/pkg/avalue"
	"github.com/cuemby/tablemapper/pkg/expr"
	"github.com/cuemby/tablemapper/pkg/mapererr"
	"github.com/cuemby/tablemapper/pkg/marshal"
	"github.com/cuemby/tablemapper/pkg/schema"
)

// versionProperty returns s's versionAttribute property, if it declares
// one (§4.I step 3). At most one property may carry the flag; the first
// one found wins, matching the rest of the codebase's no-validation-pass
// stance on malformed schemas.
func versionProperty(s schema.Schema) (prop string, t schema.SchemaType, ok bool) {
	for p, st := range s {
		if st.Tag == schema.Number && st.VersionAttribute {
			return p, st, true
		}
	}
	return "", schema.SchemaType{}, false
}

func numericValue(native any) (int64, error) {
	switch v := native.(type) {
	case int:
		return int64(v), nil
	case int32:
		return int64(v), nil
	case int64:
		return v, nil
	case uint64:
		return int64(v), nil
	case float32:
		return int64(v), nil
	case float64:
		return int64(v), nil
	case string:
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return 0, mapererr.NewInvalidValue(native, "version attribute is not an integer")
		}
		return n, nil
	default:
		return 0, mapererr.NewInvalidValue(native, "version attribute not coercible to a number")
	}
}

// versionPut computes the version-attribute condition and the native
// override value to splice into the marshalled Put item. override is nil
// when the schema carries no version attribute.
func versionPut(s schema.Schema, src marshal.ValueSource, skip bool) (cond *expr.Condition, override map[string]any, err error) {
	prop, t, ok := versionProperty(s)
	if !ok {
		return nil, nil, nil
	}
	path := expr.Prop(prop)
	current := src(prop)

	if current == marshal.Absent {
		override = map[string]any{prop: 0}
		if skip {
			return nil, override, nil
		}
		c := expr.NotExists(path)
		return &c, override, nil
	}

	if skip {
		return nil, map[string]any{prop: current}, nil
	}

	n, err := numericValue(current)
	if err != nil {
		return nil, nil, err
	}
	val, err := marshal.MarshalValue(t, current)
	if err != nil {
		return nil, nil, err
	}
	c := expr.Compare(expr.Equals, path, *val)
	return &c, map[string]any{prop: n + 1}, nil
}

// versionUpdate computes the version-attribute condition and the extra SET
// clause to append to the caller's Update (§4.I step 3). Update expresses
// the increment as a Math expression (version = version + 1) rather than a
// precomputed literal, since the store evaluates it server-side.
func versionUpdate(s schema.Schema, src marshal.ValueSource, skip bool) (cond *expr.Condition, set *expr.SetClause, err error) {
	prop, t, ok := versionProperty(s)
	if !ok {
		return nil, nil, nil
	}
	path := expr.Prop(prop)
	current := src(prop)

	if current == marshal.Absent {
		sc := expr.SetClause{Path: path, Value: avalue.Num("0")}
		if skip {
			return nil, &sc, nil
		}
		c := expr.NotExists(path)
		return &c, &sc, nil
	}

	if skip {
		return nil, nil, nil
	}

	val, err := marshal.MarshalValue(t, current)
	if err != nil {
		return nil, nil, err
	}
	c := expr.Compare(expr.Equals, path, *val)
	math := expr.MathPath(path).PlusValue(avalue.Num("1"))
	sc := expr.SetClause{Path: path, Math: &math}
	return &c, &sc, nil
}

// versionDelete computes the version-attribute condition for Delete. There
// is nothing to initialize or increment (nothing is written on a delete),
// so skipVersionCheck simply suppresses the condition outright.
func versionDelete(s schema.Schema, src marshal.ValueSource, skip bool) (cond *expr.Condition, err error) {
	prop, t, ok := versionProperty(s)
	if !ok || skip {
		return nil, nil
	}
	path := expr.Prop(prop)
	current := src(prop)
	if current == marshal.Absent {
		c := expr.NotExists(path)
		return &c, nil
	}
	val, err := marshal.MarshalValue(t, current)
	if err != nil {
		return nil, err
	}
	c := expr.Compare(expr.Equals, path, *val)
	return &c, nil
}
