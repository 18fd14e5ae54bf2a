package jonx

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
)

// WriterOptions configure the encoder. Grounded on bsm/sntable's
// WriterOptions/norm() defaulting pattern; the teacher's block-size and
// restart-interval knobs have no JONX analogue (there is no streaming
// key-block layer here), so the only remaining knob is the zstd level
// spec.md §4.1 calls out.
type WriterOptions struct {
	// ZstdLevel is the compression level used for every frame. Default: 7,
	// matching spec.md §4.1's writer default. Readers accept any level.
	ZstdLevel int
}

func (o *WriterOptions) norm() *WriterOptions {
	var oo WriterOptions
	if o != nil {
		oo = *o
	}
	if oo.ZstdLevel < 1 {
		oo.ZstdLevel = defaultZstdLevel
	}
	return &oo
}

// Writer encodes a record sequence into a JONX file. Unlike the teacher's
// incremental per-key Append, a Writer holds every per-field value vector
// in memory for the duration of Encode — spec.md §5 explicitly allows this
// and requires no streaming-write path. Encode is one-shot: grounded on the
// teacher's own closed-writer guard (Append/Close returning errClosed once
// w.tmp is nilled out), a Writer refuses a second Encode call once the
// first has written a complete file, since the underlying stream already
// ends in a terminated index section and a second call would append a
// stray second file after it.
type Writer struct {
	w      io.Writer
	o      *WriterOptions
	closed bool
}

// NewWriter wraps w and returns a Writer.
func NewWriter(w io.Writer, o *WriterOptions) *Writer {
	return &Writer{w: w, o: o.norm()}
}

// Encode transposes records into per-field value vectors, infers each
// field's type, and writes the complete JONX file: header, schema frame,
// one column frame per field in schema order, then the index section.
func (w *Writer) Encode(records []map[string]any) error {
	if w.closed {
		return ErrClosed
	}

	fields, columns, err := transpose(records)
	if err != nil {
		return err
	}

	schema := &Schema{
		Fields:  fields,
		Types:   make(map[string]PhysicalType, len(fields)),
		NumRows: len(records),
	}
	for _, f := range fields {
		t, err := inferType(f, columns[f])
		if err != nil {
			return err
		}
		schema.Types[f] = t
	}

	codec, err := newFrameCodecAtLevel(w.o.ZstdLevel)
	if err != nil {
		return err
	}
	defer codec.Close()

	if err := writeHeader(w.w); err != nil {
		return err
	}

	schemaJSON, err := schema.marshalJSON()
	if err != nil {
		return fmt.Errorf("jonx: marshal schema: %w", err)
	}
	if err := codec.WriteFrame(w.w, schemaJSON); err != nil {
		return err
	}

	indexes := make(map[string][]uint32, len(fields))
	for _, f := range fields {
		t := schema.Types[f]
		plaintext, err := encodeColumn(t, columns[f])
		if err != nil {
			return err
		}
		if err := codec.WriteFrame(w.w, plaintext); err != nil {
			return err
		}
		if t.IsNumeric() {
			pi, err := argsortRaw(columns[f])
			if err != nil {
				return err
			}
			indexes[f] = pi
		}
	}

	if err := writeIndexSection(w.w, codec, fields, indexes); err != nil {
		return err
	}
	w.closed = true
	return nil
}

// transpose turns an ordered record sequence into an ordered field list
// (the first record's keys in alphabetical order, extended as new fields
// are first seen, in the order orderedKeys visits them) and per-field
// raw-value columns. A record missing a field that appears in the schema
// is an error, per spec.md §3 ("no null support").
func transpose(records []map[string]any) ([]string, map[string][]any, error) {
	var fields []string
	seen := make(map[string]struct{})
	for _, rec := range records {
		for _, f := range orderedKeys(rec) {
			if _, ok := seen[f]; !ok {
				seen[f] = struct{}{}
				fields = append(fields, f)
			}
		}
	}

	columns := make(map[string][]any, len(fields))
	for _, f := range fields {
		columns[f] = make([]any, len(records))
	}
	for i, rec := range records {
		for _, f := range fields {
			v, ok := rec[f]
			if !ok {
				return nil, nil, fmt.Errorf("%w: field %q, record %d", ErrFieldMissing, f, i)
			}
			columns[f][i] = v
		}
	}
	return fields, columns, nil
}

// orderedKeys returns rec's keys in a deterministic order. Go map
// iteration order is random, but the ordering here only matters for
// discovering which field name is "first seen"; transpose skips names
// already recorded in `seen` regardless of the order they're visited in.
// Sorting alphabetically (rather than reproducing a record's original key
// order, which map[string]any ingress has already discarded) makes schema
// field order deterministic across runs but not insertion order in the
// strict sense — round-trip is unaffected since the schema is self-describing.
func orderedKeys(rec map[string]any) []string {
	keys := make([]string, 0, len(rec))
	for k := range rec {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// argsortRaw computes the argsort permutation directly over a column's raw
// (pre-encoding) float64 values, used while the writer still holds the
// in-memory value vectors.
func argsortRaw(values []any) ([]uint32, error) {
	floats := make([]float64, len(values))
	for i, v := range values {
		f, ok := v.(float64)
		if !ok {
			return nil, ErrNotNumeric
		}
		floats[i] = f
	}

	pi := make([]uint32, len(values))
	for i := range pi {
		pi[i] = uint32(i)
	}
	sort.SliceStable(pi, func(a, b int) bool {
		return floats[pi[a]] < floats[pi[b]]
	})
	return pi, nil
}

func writeHeader(w io.Writer) error {
	var buf [headerSize]byte
	copy(buf[0:4], magic[:])
	binary.LittleEndian.PutUint32(buf[4:8], CurrentVersion)
	if _, err := w.Write(buf[:]); err != nil {
		return fmt.Errorf("jonx: write header: %w", err)
	}
	return nil
}

func writeIndexSection(w io.Writer, codec *frameCodec, fields []string, indexes map[string][]uint32) error {
	var countBuf [4]byte
	binary.LittleEndian.PutUint32(countBuf[:], uint32(len(indexes)))
	if _, err := w.Write(countBuf[:]); err != nil {
		return fmt.Errorf("jonx: write index count: %w", err)
	}

	for _, f := range fields {
		pi, ok := indexes[f]
		if !ok {
			continue
		}

		var nameLenBuf [4]byte
		binary.LittleEndian.PutUint32(nameLenBuf[:], uint32(len(f)))
		if _, err := w.Write(nameLenBuf[:]); err != nil {
			return fmt.Errorf("jonx: write index name length: %w", err)
		}
		if _, err := io.WriteString(w, f); err != nil {
			return fmt.Errorf("jonx: write index name: %w", err)
		}
		if err := codec.WriteFrame(w, encodeIndex(pi)); err != nil {
			return err
		}
	}
	return nil
}

// EncodeRecords is the writer entry point named by spec.md §6: it encodes
// records to w using opts (nil for defaults).
func EncodeRecords(records []map[string]any, w io.Writer, opts *WriterOptions) error {
	return NewWriter(w, opts).Encode(records)
}

// EncodeFile is a thin wrapper around EncodeRecords that reads a JSON
// array of records from srcJSONPath and writes a JONX file to dstPath, per
// spec.md §6. Parsing the source JSON is the opaque ingress collaborator
// named in spec.md §1; encoding/json plays that role here (see DESIGN.md).
func EncodeFile(srcJSONPath, dstPath string) error {
	raw, err := os.ReadFile(srcJSONPath)
	if err != nil {
		return fmt.Errorf("jonx: read %s: %w", srcJSONPath, err)
	}

	var records []map[string]any
	if err := json.Unmarshal(raw, &records); err != nil {
		return fmt.Errorf("jonx: parse %s: %w", srcJSONPath, err)
	}

	f, err := os.Create(dstPath)
	if err != nil {
		return fmt.Errorf("jonx: create %s: %w", dstPath, err)
	}
	defer f.Close()

	if err := EncodeRecords(records, f, nil); err != nil {
		return err
	}
	return f.Close()
}
