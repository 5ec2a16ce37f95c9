/*
Package paginate wraps a store.Client's Query and Scan RPCs in a pull-based
iterator (§4.G): each RPC's ExclusiveStartKey/Limit advances automatically
as the caller asks for more.

Next returns one unmarshalled item at a time; Pages returns whole pages
instead and disables Next on the same Iterator — a caller must pick one
view before advancing. A global limit, when set, clamps each RPC's Limit
to the remaining budget so the iterator never over-fetches past what the
caller asked for.

LastEvaluatedKey is resumable, but deliberately not always the server's own
continuation key: while a fetched page still has buffered, unyielded items,
resuming from the server's key would skip them, so the iterator reports the
last item it actually handed to the caller instead.
*/
package paginate
