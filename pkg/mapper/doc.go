/*
Package mapper implements the data-mapper façade (§4.I): schema-driven
Get/Put/Delete/Update on single items plus Query/Scan, fronting a
store.Client the way pkg/client fronts a cluster-manager gRPC connection —
one method per operation, transport failures wrapped in mapererr.Transport,
construction-time side effects (the custom user-agent append) kept in the
constructor.

Items are handled without reflection via the Described protocol (§6, §9):
every table's item type exposes its own Schema, TableName, and a
marshal.ValueSource reading its fields. MapItem is the ready-made
Described for callers happy with a plain map[string]any; an item that also
implements Populatable is hydrated in place from the unmarshalled
response, the idiomatic stand-in for "the returned value is an instance
of the same type as the input".

Query and Scan return pkg/paginate Iterators (ParallelScan returns a
pkg/scan result/error/Coordinator triple); the façade's own job is
entirely request construction: recovering schema and table name,
synthesizing the version-attribute condition, and lowering the permissive
key-condition object form to a canonical expr.Condition tree.
*/
package mapper
