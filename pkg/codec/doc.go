// Package codec converts schemas to and from the plain-data wire tree
// (maps, lists and scalars) and encodes that tree as JSON, JSONC, YAML or
// CBOR.
//
// Writing is compact: optional field attributes (options, unit, required)
// are omitted when empty. Reading supplies the same defaults, so a schema
// survives a round trip with identical behaviour even if the bytes differ.
// Missing required keys are reported as *DecodeError values that carry the
// dotted path of the offending node.
package codec
