package jonx

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
)

// region is a byte span within the file: the frame's length prefix plus
// its compressed payload (offset points at the length prefix).
type region struct {
	offset int64
	length int64
}

// Reader is a lazy JONX reader. Grounded on bsm/sntable's Reader: header +
// schema are parsed eagerly at Open time; the column directory — mapping
// each field to its on-disk region — is populated lazily on first column
// access, per spec.md §4.5 step 4.
type Reader struct {
	r    io.ReaderAt
	size int64

	version uint32
	schema  *Schema

	columnsStart int64

	directory      map[string]region
	indexDirectory map[string]region
	directoryBuilt bool
}

// Open parses the 8-byte header and schema frame and returns a reader
// handle. No column data is read.
func Open(r io.ReaderAt, size int64) (*Reader, error) {
	var hdr [headerSize]byte
	if _, err := r.ReadAt(hdr[:], 0); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrHeaderInvalid, err)
	}
	if !bytes.Equal(hdr[0:4], magic[:]) {
		return nil, ErrHeaderInvalid
	}
	version := binary.LittleEndian.Uint32(hdr[4:8])
	if version != CurrentVersion {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, version)
	}

	codec, err := newFrameCodec()
	if err != nil {
		return nil, err
	}
	defer codec.Close()

	schemaPlain, schemaFrameLen, err := readFrameAt(codec, r, headerSize)
	if err != nil {
		return nil, err
	}
	schema, err := unmarshalSchema(schemaPlain)
	if err != nil {
		return nil, err
	}

	return &Reader{
		r:            r,
		size:         size,
		version:      version,
		schema:       schema,
		columnsStart: headerSize + schemaFrameLen,
	}, nil
}

// WarmUp populates the column and index directory with a single pass over
// the file. Per spec.md §5, directory population is not safe for
// concurrent mutation; callers sharing a Reader across goroutines should
// call WarmUp once before doing so, or otherwise serialize access.
func (r *Reader) WarmUp() error {
	return r.buildDirectory()
}

// buildDirectory walks the file once, from the end of the schema frame to
// EOF, recording each column's region (in schema order) and then each
// index's region. Frame lengths are read from 4-byte prefixes only; no
// frame payload is decompressed.
func (r *Reader) buildDirectory() error {
	if r.directoryBuilt {
		return nil
	}

	directory := make(map[string]region, len(r.schema.Fields))
	pos := r.columnsStart
	for _, f := range r.schema.Fields {
		frameLen, err := peekFrameLen(r.r, pos)
		if err != nil {
			return err
		}
		directory[f] = region{offset: pos, length: frameLen}
		pos += frameLen
	}

	indexDirectory := make(map[string]region)
	var countBuf [4]byte
	if _, err := r.r.ReadAt(countBuf[:], pos); err != nil {
		return fmt.Errorf("%w: %v", ErrFrameTruncated, err)
	}
	count := binary.LittleEndian.Uint32(countBuf[:])
	pos += 4

	for i := uint32(0); i < count; i++ {
		var nameLenBuf [4]byte
		if _, err := r.r.ReadAt(nameLenBuf[:], pos); err != nil {
			return fmt.Errorf("%w: %v", ErrFrameTruncated, err)
		}
		nameLen := binary.LittleEndian.Uint32(nameLenBuf[:])
		pos += 4

		nameBuf := make([]byte, nameLen)
		if _, err := r.r.ReadAt(nameBuf, pos); err != nil {
			return fmt.Errorf("%w: %v", ErrFrameTruncated, err)
		}
		pos += int64(nameLen)

		frameLen, err := peekFrameLen(r.r, pos)
		if err != nil {
			return err
		}
		indexDirectory[string(nameBuf)] = region{offset: pos, length: frameLen}
		pos += frameLen
	}

	r.directory = directory
	r.indexDirectory = indexDirectory
	r.directoryBuilt = true
	return nil
}

// peekFrameLen returns the total byte span (length prefix + payload) of
// the frame located at off, without decompressing it.
func peekFrameLen(r io.ReaderAt, off int64) (int64, error) {
	var lenBuf [4]byte
	if _, err := r.ReadAt(lenBuf[:], off); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrFrameTruncated, err)
	}
	return 4 + int64(binary.LittleEndian.Uint32(lenBuf[:])), nil
}

func (r *Reader) readColumnFrame(field string) ([]byte, error) {
	reg, ok := r.directory[field]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownField, field)
	}

	codec, err := newFrameCodec()
	if err != nil {
		return nil, err
	}
	defer codec.Close()

	plaintext, _, err := readFrameAt(codec, r.r, reg.offset)
	return plaintext, err
}

func (r *Reader) readIndexFrame(field string) ([]uint32, error) {
	reg, ok := r.indexDirectory[field]
	if !ok {
		return nil, nil
	}

	codec, err := newFrameCodec()
	if err != nil {
		return nil, err
	}
	defer codec.Close()

	plaintext, _, err := readFrameAt(codec, r.r, reg.offset)
	if err != nil {
		return nil, err
	}
	return decodeIndex(plaintext, r.schema.NumRows)
}

// GetColumn decompresses and decodes a single field's column frame.
func (r *Reader) GetColumn(field string) (any, error) {
	if !r.schema.HasField(field) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownField, field)
	}
	if err := r.buildDirectory(); err != nil {
		return nil, err
	}

	plaintext, err := r.readColumnFrame(field)
	if err != nil {
		return nil, err
	}
	return decodeColumn(r.schema.Types[field], plaintext, r.schema.NumRows)
}

// GetColumns is semantically {f: GetColumn(f) for f in fields}, performing
// a single directory walk per call per spec.md §4.5.
func (r *Reader) GetColumns(fields []string) (map[string]any, error) {
	if err := r.buildDirectory(); err != nil {
		return nil, err
	}

	out := make(map[string]any, len(fields))
	for _, f := range fields {
		v, err := r.GetColumn(f)
		if err != nil {
			return nil, err
		}
		out[f] = v
	}
	return out, nil
}

// FindMin returns the smallest value of a numeric column. With
// useIndex=true and an index present, this is O(1) (one index-frame
// decompress plus one column decompress); otherwise it's a full scan.
func (r *Reader) FindMin(field string, useIndex bool) (any, error) {
	return r.findExtremum(field, useIndex, true)
}

// FindMax returns the largest value of a numeric column.
func (r *Reader) FindMax(field string, useIndex bool) (any, error) {
	return r.findExtremum(field, useIndex, false)
}

func (r *Reader) findExtremum(field string, useIndex, min bool) (any, error) {
	if !r.IsNumeric(field) {
		return nil, fmt.Errorf("%w: %q", ErrNotNumeric, field)
	}
	if err := r.buildDirectory(); err != nil {
		return nil, err
	}

	col, err := r.GetColumn(field)
	if err != nil {
		return nil, err
	}
	n, err := numericLen(col)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, fmt.Errorf("jonx: %q has no rows", field)
	}

	if useIndex {
		if pi, err := r.readIndexFrame(field); err != nil {
			return nil, err
		} else if pi != nil {
			if min {
				return columnElement(col, int(pi[0])), nil
			}
			return columnElement(col, int(pi[len(pi)-1])), nil
		}
	}

	best := 0
	bestVal, err := numericValueAt(col, 0)
	if err != nil {
		return nil, err
	}
	for i := 1; i < n; i++ {
		v, err := numericValueAt(col, i)
		if err != nil {
			return nil, err
		}
		if (min && v < bestVal) || (!min && v > bestVal) {
			best, bestVal = i, v
		}
	}
	return columnElement(col, best), nil
}

// Sum returns the sum of a numeric column's values.
func (r *Reader) Sum(field string) (float64, error) {
	if !r.IsNumeric(field) {
		return 0, fmt.Errorf("%w: %q", ErrNotNumeric, field)
	}
	col, err := r.GetColumn(field)
	if err != nil {
		return 0, err
	}
	n, err := numericLen(col)
	if err != nil {
		return 0, err
	}

	var sum float64
	for i := 0; i < n; i++ {
		v, err := numericValueAt(col, i)
		if err != nil {
			return 0, err
		}
		sum += v
	}
	return sum, nil
}

// Avg returns the arithmetic mean of a numeric column's values.
func (r *Reader) Avg(field string) (float64, error) {
	sum, err := r.Sum(field)
	if err != nil {
		return 0, err
	}
	n, err := r.Count(field)
	if err != nil {
		return 0, err
	}
	if n == 0 {
		return 0, fmt.Errorf("jonx: %q has no rows", field)
	}
	return sum / float64(n), nil
}

// Count returns N. If a field is given, it must exist in the schema;
// every column shares the same row count.
func (r *Reader) Count(field ...string) (int, error) {
	if len(field) > 0 && !r.schema.HasField(field[0]) {
		return 0, fmt.Errorf("%w: %q", ErrUnknownField, field[0])
	}
	return r.schema.NumRows, nil
}

// IsNumeric is an O(1) lookup against the schema's type map.
func (r *Reader) IsNumeric(field string) bool {
	t, ok := r.schema.Types[field]
	return ok && t.IsNumeric()
}

// HasIndex reports whether field has a stored index. Building the
// directory the first time this (or any column access) is called costs one
// pass over the file's frame-length prefixes; afterwards this is O(1).
func (r *Reader) HasIndex(field string) bool {
	if err := r.buildDirectory(); err != nil {
		return false
	}
	_, ok := r.indexDirectory[field]
	return ok
}

// FileInfo is the metadata snapshot returned by Info.
type FileInfo struct {
	Schema        *Schema
	NumRows       int
	NumColumns    int
	IndexedFields []string
	FileSize      int64
}

// Info returns the schema, row count, column count, indexed field list,
// and file size, without decompressing any column.
func (r *Reader) Info() (FileInfo, error) {
	if err := r.buildDirectory(); err != nil {
		return FileInfo{}, err
	}

	var indexed []string
	for _, f := range r.schema.Fields {
		if _, ok := r.indexDirectory[f]; ok {
			indexed = append(indexed, f)
		}
	}

	return FileInfo{
		Schema:        r.schema,
		NumRows:       r.schema.NumRows,
		NumColumns:    len(r.schema.Fields),
		IndexedFields: indexed,
		FileSize:      r.size,
	}, nil
}

// Report is the structured result of CheckSchema and Validate.
type Report struct {
	Valid    bool
	Errors   []error
	Warnings []string
}

// CheckSchema verifies the schema's internal consistency: every declared
// field has a valid type tag, there are no duplicate field names, and
// every indexed field is numeric. It never decompresses a column payload.
func (r *Reader) CheckSchema() (Report, error) {
	errs := r.schema.checkConsistency()

	if err := r.buildDirectory(); err != nil {
		return Report{}, err
	}
	for f := range r.indexDirectory {
		if t, ok := r.schema.Types[f]; !ok || !t.IsNumeric() {
			errs = append(errs, fmt.Errorf("%w: indexed field %q is not numeric", ErrIndexInvalid, f))
		}
	}

	return Report{Valid: len(errs) == 0, Errors: errs}, nil
}

// Validate decompresses every column and index, re-verifies lengths, and
// re-checks that each index is a permutation correctly ordered against its
// column. Every error encountered is collected into one report rather than
// aborting at the first failure.
func (r *Reader) Validate() (Report, error) {
	report, err := r.CheckSchema()
	if err != nil {
		return Report{}, err
	}

	for _, f := range r.schema.Fields {
		col, err := r.GetColumn(f)
		if err != nil {
			report.Errors = append(report.Errors, fmt.Errorf("column %q: %w", f, err))
			continue
		}
		if !r.IsNumeric(f) {
			continue
		}

		pi, err := r.readIndexFrame(f)
		if err != nil {
			report.Errors = append(report.Errors, fmt.Errorf("index %q: %w", f, err))
			continue
		}
		if pi == nil {
			continue
		}
		if err := validateIndex(pi, col); err != nil {
			report.Errors = append(report.Errors, fmt.Errorf("index %q: %w", f, err))
			continue
		}

		fresh, err := buildIndex(col)
		if err != nil {
			report.Errors = append(report.Errors, fmt.Errorf("index %q: %w", f, err))
			continue
		}
		if !equalPermutations(pi, fresh) {
			report.Errors = append(report.Errors, fmt.Errorf("%w: index %q does not match a freshly computed argsort", ErrIndexInvalid, f))
		}
	}

	report.Valid = len(report.Errors) == 0
	return report, nil
}

// DecodeBytes fully materializes a JONX byte slice into its schema and an
// ordered record sequence, per spec.md §6's decode_bytes operation.
func DecodeBytes(b []byte) (*Schema, []map[string]any, error) {
	r, err := Open(bytes.NewReader(b), int64(len(b)))
	if err != nil {
		return nil, nil, err
	}

	cols, err := r.GetColumns(r.schema.Fields)
	if err != nil {
		return nil, nil, err
	}

	records := make([]map[string]any, r.schema.NumRows)
	for i := range records {
		rec := make(map[string]any, len(r.schema.Fields))
		for _, f := range r.schema.Fields {
			rec[f] = columnElement(cols[f], i)
		}
		records[i] = rec
	}
	return r.schema, records, nil
}
