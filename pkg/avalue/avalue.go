// Package avalue defines the store's tagged-union attribute value — the
// wire representation every marshalled item and expression constant is
// built from.
package avalue

import "encoding/base64"

// AttributeValue is the store's tagged union. Exactly one field is
// meaningful per value; which one is determined by which field is
// non-nil/non-empty, mirroring the store's own JSON encoding
// ({"S": "..."} | {"N": "..."} | {"B": "..."} | ...).
type AttributeValue struct {
	S    *string          `json:"S,omitempty"`
	N    *string          `json:"N,omitempty"`
	B    []byte           `json:"B,omitempty"`
	BOOL *bool            `json:"BOOL,omitempty"`
	NULL bool             `json:"NULL,omitempty"`
	L    []AttributeValue `json:"L,omitempty"`
	M    map[string]AttributeValue `json:"M,omitempty"`
	SS   []string         `json:"SS,omitempty"`
	NS   []string         `json:"NS,omitempty"`
	BS   [][]byte         `json:"BS,omitempty"`
}

func Str(v string) AttributeValue { return AttributeValue{S: &v} }
func Num(v string) AttributeValue { return AttributeValue{N: &v} }
func Bin(v []byte) AttributeValue { return AttributeValue{B: v} }
func Bool(v bool) AttributeValue  { return AttributeValue{BOOL: &v} }
func Null() AttributeValue        { return AttributeValue{NULL: true} }
func List(v []AttributeValue) AttributeValue { return AttributeValue{L: v} }
func Map(v map[string]AttributeValue) AttributeValue { return AttributeValue{M: v} }
func StringSet(v []string) AttributeValue { return AttributeValue{SS: v} }
func NumberSet(v []string) AttributeValue { return AttributeValue{NS: v} }
func BinarySet(v [][]byte) AttributeValue { return AttributeValue{BS: v} }

// IsNull reports whether v carries no meaningful payload at all (the zero
// value) or is explicitly NULL.
func IsNull(v AttributeValue) bool {
	if v.NULL {
		return true
	}
	return v.S == nil && v.N == nil && v.B == nil && v.BOOL == nil &&
		v.L == nil && v.M == nil && v.SS == nil && v.NS == nil && v.BS == nil
}

// Scalar extracts the value's scalar payload as a string, in the
// tagged-union precedence Binary, Number, String — the order
// pkg/itemkey's item-identifier derivation relies on. ok is false if v has
// no scalar payload (NULL, or a collection-shaped tag).
func Scalar(v AttributeValue) (value string, ok bool) {
	switch {
	case v.B != nil:
		return base64.StdEncoding.EncodeToString(v.B), true
	case v.N != nil:
		return *v.N, true
	case v.S != nil:
		return *v.S, true
	default:
		return "", false
	}
}

// Equal reports whether two attribute values are identical: S, N and B
// values compare by type and content, BOOL and NULL by value. L, M, SS, NS
// and BS values never compare equal. Used by the reference store's
// condition evaluation.
func Equal(a, b AttributeValue) bool {
	as, aok := Scalar(a)
	bs, bok := Scalar(b)
	if aok != bok {
		return false
	}
	if aok {
		return as == bs && (a.B != nil) == (b.B != nil) && (a.N != nil) == (b.N != nil)
	}
	if a.BOOL != nil || b.BOOL != nil {
		if a.BOOL == nil || b.BOOL == nil {
			return false
		}
		return *a.BOOL == *b.BOOL
	}
	if a.NULL || b.NULL {
		return a.NULL == b.NULL
	}
	return false
}
