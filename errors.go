package jonx

import "errors"

// Sentinel errors for every error kind named by the JONX error taxonomy.
// Callers should match with errors.Is; wrapped errors carry additional
// context via fmt.Errorf("jonx: ...: %w", ...).
var (
	// ErrHeaderInvalid is returned when the magic bytes don't match or the
	// header is truncated.
	ErrHeaderInvalid = errors.New("jonx: invalid header")

	// ErrUnsupportedVersion is returned when the header's version field is
	// not recognized by this reader.
	ErrUnsupportedVersion = errors.New("jonx: unsupported version")

	// ErrFrameTruncated is returned when a frame's length or payload is cut
	// short by the underlying source.
	ErrFrameTruncated = errors.New("jonx: frame truncated")

	// ErrFrameCorrupt is returned when a frame's payload fails to
	// decompress.
	ErrFrameCorrupt = errors.New("jonx: frame corrupt")

	// ErrSchemaMalformed is returned when the schema frame's JSON is
	// missing fields/types, has duplicate names, or references an unknown
	// type tag.
	ErrSchemaMalformed = errors.New("jonx: schema malformed")

	// ErrColumnLengthMismatch is returned when a fixed-width column's
	// plaintext size is not N * width.
	ErrColumnLengthMismatch = errors.New("jonx: column length mismatch")

	// ErrColumnDecodeError is returned when a str/json column fails to
	// parse as a JSON array of exactly N elements.
	ErrColumnDecodeError = errors.New("jonx: column decode error")

	// ErrIndexInvalid is returned when a stored index is not a permutation
	// of [0, N) or is not correctly ordered against its column.
	ErrIndexInvalid = errors.New("jonx: index invalid")

	// ErrNotNumeric is returned when a numeric-only operation is requested
	// on a non-numeric column.
	ErrNotNumeric = errors.New("jonx: field is not numeric")

	// ErrUnknownField is returned when an operation references a field
	// absent from the schema.
	ErrUnknownField = errors.New("jonx: unknown field")

	// ErrValueOutOfRange is returned during encoding when a value exceeds
	// the narrowest available type's domain (e.g. an integer outside
	// int32, or a float overflowing float32, or a value producing NaN).
	ErrValueOutOfRange = errors.New("jonx: value out of range")

	// ErrFieldMissing is returned when a record is missing a field that is
	// part of the schema; JONX does not support nulls.
	ErrFieldMissing = errors.New("jonx: record is missing a schema field")

	// ErrClosed is returned by Writer.Encode when the Writer has already
	// written a complete file in an earlier successful Encode call.
	ErrClosed = errors.New("jonx: writer is closed")
)
