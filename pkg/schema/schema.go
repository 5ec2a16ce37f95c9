/*
Package schema defines the value-type algebra used by every other
tablemapper component: the tagged-variant SchemaType describing how one
logical property is represented in the store, and the Schema mapping that
ties property names to SchemaTypes for a table.

SchemaTypes nest by reference: a Document holds its members in a nested
Schema (a map), and the container variants hold their member type through
the MemberType pointer, so a Document whose members include itself does not
require Go to express an infinitely recursive value type.
*/
package schema

import "sort"

// Tag identifies which SchemaType variant a value carries.
type Tag int

const (
	Binary Tag = iota
	Boolean
	Number
	String
	Date
	Null
	Document
	Map
	List
	Tuple
	Set
	Collection
	Hash
	Any
	Custom
)

func (t Tag) String() string {
	switch t {
	case Binary:
		return "Binary"
	case Boolean:
		return "Boolean"
	case Number:
		return "Number"
	case String:
		return "String"
	case Date:
		return "Date"
	case Null:
		return "Null"
	case Document:
		return "Document"
	case Map:
		return "Map"
	case List:
		return "List"
	case Tuple:
		return "Tuple"
	case Set:
		return "Set"
	case Collection:
		return "Collection"
	case Hash:
		return "Hash"
	case Any:
		return "Any"
	case Custom:
		return "Custom"
	default:
		return "Unknown"
	}
}

// KeyRole identifies a SchemaType's participation in a table or index's
// primary key.
type KeyRole string

const (
	NoKey      KeyRole = ""
	HashKey    KeyRole = "HASH"
	RangeKey   KeyRole = "RANGE"
)

// CustomMarshaller lets a Custom SchemaType delegate marshal/unmarshal to
// caller-supplied functions.
type CustomMarshaller struct {
	Marshal   func(native any) (any, error)
	Unmarshal func(attr any) (any, error)
}

// SchemaType describes how one property is represented in the store.
//
// Only the fields relevant to Tag are meaningful; the zero value of the
// irrelevant fields is ignored. A SchemaType is immutable once constructed.
type SchemaType struct {
	Tag Tag

	// AttributeName overrides the physical attribute name; defaults to the
	// property name it is registered under in a Schema.
	AttributeName string

	// KeyType declares this property's role in the table's own primary
	// key. IndexKeyConfigurations declares roles for named secondary
	// indexes.
	KeyType                KeyRole
	IndexKeyConfigurations map[string]KeyRole

	// DefaultProvider is invoked on write when the native value is absent.
	DefaultProvider func() any

	// VersionAttribute marks a Number SchemaType as the item's optimistic
	// concurrency version counter (meaningful only when Tag == Number).
	VersionAttribute bool

	// Members backs Document (a nested Schema); TupleMembers backs Tuple
	// (an ordered sequence of member SchemaTypes).
	Members     Schema
	TupleMembers []SchemaType

	// ValueConstructor, for Document, builds the Go value the nested
	// members are unmarshalled into; nil means "populate a plain map".
	ValueConstructor func() any

	// MemberType backs Map, List, and Set.
	MemberType *SchemaType

	// Custom backs Tag == Custom.
	Custom CustomMarshaller
}

// IsKey reports whether t has a key role for the table's own primary key
// (indexName == "") or for the named secondary index.
func IsKey(t SchemaType, indexName string) bool {
	if indexName == "" {
		return t.KeyType == HashKey || t.KeyType == RangeKey
	}
	if t.IndexKeyConfigurations == nil {
		return false
	}
	role, ok := t.IndexKeyConfigurations[indexName]
	return ok && (role == HashKey || role == RangeKey)
}

// Schema maps property name to SchemaType. Property order is irrelevant;
// callers that need a canonical order use GetKeyProperties.
type Schema map[string]SchemaType

// AttributeName returns the physical attribute name for property, applying
// the SchemaType's override if present.
func AttributeName(property string, t SchemaType) string {
	if t.AttributeName != "" {
		return t.AttributeName
	}
	return property
}

// GetKeyProperties returns the physical attribute names of every property
// with a key role for the table's own primary key, sorted by property name
// to produce a canonical, deterministic order.
func GetKeyProperties(s Schema) []string {
	names := make([]string, 0, 2)
	for prop := range s {
		if IsKey(s[prop], "") {
			names = append(names, prop)
		}
	}
	sort.Strings(names)

	attrs := make([]string, len(names))
	for i, prop := range names {
		attrs[i] = AttributeName(prop, s[prop])
	}
	return attrs
}

// GetKeyPropertyNames is like GetKeyProperties but returns the Schema
// property names (pre-AttributeName-override) in the same canonical order;
// callers that need to look a SchemaType back up by property name use this.
func GetKeyPropertyNames(s Schema) []string {
	names := make([]string, 0, 2)
	for prop := range s {
		if IsKey(s[prop], "") {
			names = append(names, prop)
		}
	}
	sort.Strings(names)
	return names
}
