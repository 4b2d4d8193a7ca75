// # mztab: a codec for mzTab-M style metadata and record tables
//
// mzTab-M is a line-oriented, tab-delimited exchange format: a metadata block
// of indexed, typed elements (contacts, samples, assays, study variables, MS
// runs, ...) followed by record tables whose header mixes fixed ("stable")
// columns with dynamically named ("optional") columns tied to metadata elements.
//
// # Features
//
// - Parameter grammar: `[label, accession, name, value]` with quoting of fields holding a comma (`EncodeParameter`, `DecodeParameter`).
// - Closed value type (`Str`, `Num`, `Param`, `List`, `Null`) with the `null`, `NaN` and `Inf` sentinels and bar separated lists.
// - Indexed element references `type[id]` (`IndexedElement`, `ParseReference`, `ElementRegistry`).
// - Deterministic column ordering by `LogicalPosition` and case-insensitive header lookup (`ColumnFactory`, `ParseHeader`).
// - Metadata line encoding with suppression of empty lines (`EncodeMetadataLine`, `DecodeMetadataLine`).
// - Streaming `Reader`/`Writer` for tab-separated lines and a `Decoder`/`Encoder` for whole documents.
//
// # Errors
//
// Construction errors (`ErrDuplicateLogicalPosition`, `ErrInvalidIndex`,
// `ErrMissingIdentity`, `ErrUnknownElementType`) abort the call that caused them
// and leave the receiver unchanged. Decode errors (`ErrMalformedParameter`,
// `ErrUnknownHeader`, ...) are scoped to one field; the `Decoder` records them on
// the row and logs them unless `Decoder.Strict` is set.
//
// # Limitations
//
// Parameter names and values cannot contain a double quote: quoted fields have
// no escape for a nested quote, so such parameters are rejected on encode.
package mztab
