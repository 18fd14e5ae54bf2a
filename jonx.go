/*
Package jonx implements the JONX file format: a columnar, zstd-compressed
binary container for homogeneous record data originally expressed as a
sequence of JSON objects.

Data Structure Documentation

File

A file is a fixed 8-byte header, followed by a schema frame, one column
frame per field (in schema order), and a trailing index section.

	File layout:
	+--------+--------------+----------------+-------+----------------+---------------+
	| header | schema frame | column frame 1 |  ...  | column frame n | index section |
	+--------+--------------+----------------+-------+----------------+---------------+

	Header:
	+-------------------+------------------+
	| magic "JONX" (4B) | version u32 (4B) |
	+-------------------+------------------+

Frame

Every persistent block (schema, column, index) is a frame: a varint-free
length-prefixed zstd payload.

	Frame layout:
	+--------------------+--------------------------+
	| length u32_le (4B) | zstd_compressed payload  |
	+--------------------+--------------------------+

Index section

The index section is the final region of the file. It stores one argsort
permutation per numeric field that was assigned an index at encode time.

	+-----------------+--------------------------------------------+-------+
	| index_count (4B) | name_length(4B) name frame(permutation) |  ...  |
	+-----------------+--------------------------------------------+-------+
*/
package jonx

// magic is the 4-byte sequence every JONX file begins with.
var magic = [4]byte{'J', 'O', 'N', 'X'}

// CurrentVersion is the version this package writes.
const CurrentVersion uint32 = 1

const headerSize = 8

// PhysicalType is the closed enumeration of column types JONX supports.
type PhysicalType byte

// Supported physical types.
const (
	TypeInt16 PhysicalType = iota
	TypeInt32
	TypeFloat16
	TypeFloat32
	TypeBool
	TypeStr
	TypeJSON

	typeUnknown
)

var typeTags = map[PhysicalType]string{
	TypeInt16:   "int16",
	TypeInt32:   "int32",
	TypeFloat16: "float16",
	TypeFloat32: "float32",
	TypeBool:    "bool",
	TypeStr:     "str",
	TypeJSON:    "json",
}

var tagTypes = map[string]PhysicalType{
	"int16":   TypeInt16,
	"int32":   TypeInt32,
	"float16": TypeFloat16,
	"float32": TypeFloat32,
	"bool":    TypeBool,
	"str":     TypeStr,
	"json":    TypeJSON,
}

// String returns the wire tag for t (e.g. "int16").
func (t PhysicalType) String() string {
	if s, ok := typeTags[t]; ok {
		return s
	}
	return "unknown"
}

func (t PhysicalType) isValid() bool {
	_, ok := typeTags[t]
	return ok
}

// IsNumeric reports whether t is one of the four numeric types eligible
// for argsort indexing.
func (t PhysicalType) IsNumeric() bool {
	switch t {
	case TypeInt16, TypeInt32, TypeFloat16, TypeFloat32:
		return true
	default:
		return false
	}
}

func parseTag(tag string) (PhysicalType, bool) {
	t, ok := tagTypes[tag]
	return t, ok
}
