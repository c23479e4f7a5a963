// Package resolve extracts normalized identifiers and timestamps from the
// heterogeneous nested JSON the upstream providers emit.
//
// The upstream schema varies across providers and over time, so every
// logical field is resolved through an explicit, ordered list of extraction
// strategies; the first non-null match wins. A miss is "unknown", never an
// error.
package resolve
