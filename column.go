package jonx

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"

	"github.com/apache/arrow/go/v7/arrow/float16"
)

// encodeColumn serializes N values into the type-specific plaintext layout
// of spec.md §4.3. Fixed-width types use encoding/binary.LittleEndian,
// grounded on the teacher's own little-endian framing throughout
// writer.go/reader.go.
func encodeColumn(t PhysicalType, values []any) ([]byte, error) {
	switch t {
	case TypeInt16:
		buf := make([]byte, 2*len(values))
		for i, v := range values {
			f := v.(float64)
			binary.LittleEndian.PutUint16(buf[2*i:], uint16(int16(f)))
		}
		return buf, nil

	case TypeInt32:
		buf := make([]byte, 4*len(values))
		for i, v := range values {
			f := v.(float64)
			binary.LittleEndian.PutUint32(buf[4*i:], uint32(int32(f)))
		}
		return buf, nil

	case TypeFloat16:
		buf := make([]byte, 2*len(values))
		for i, v := range values {
			f := v.(float64)
			h := float16.New(float32(f))
			binary.LittleEndian.PutUint16(buf[2*i:], h.Uint16())
		}
		return buf, nil

	case TypeFloat32:
		buf := make([]byte, 4*len(values))
		for i, v := range values {
			f := v.(float64)
			binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(float32(f)))
		}
		return buf, nil

	case TypeBool:
		buf := make([]byte, len(values))
		for i, v := range values {
			if v.(bool) {
				buf[i] = 1
			}
		}
		return buf, nil

	case TypeStr:
		strs := make([]string, len(values))
		for i, v := range values {
			strs[i] = v.(string)
		}
		return json.Marshal(strs)

	case TypeJSON:
		return json.Marshal(values)

	default:
		return nil, fmt.Errorf("jonx: encode: unsupported type %v", t)
	}
}

// decodeColumn parses a column frame's plaintext into its typed Go
// representation. n is the schema's declared row count.
func decodeColumn(t PhysicalType, plaintext []byte, n int) (any, error) {
	switch t {
	case TypeInt16:
		if len(plaintext) != 2*n {
			return nil, fmt.Errorf("%w: want %d bytes, got %d", ErrColumnLengthMismatch, 2*n, len(plaintext))
		}
		out := make([]int16, n)
		for i := range out {
			out[i] = int16(binary.LittleEndian.Uint16(plaintext[2*i:]))
		}
		return out, nil

	case TypeInt32:
		if len(plaintext) != 4*n {
			return nil, fmt.Errorf("%w: want %d bytes, got %d", ErrColumnLengthMismatch, 4*n, len(plaintext))
		}
		out := make([]int32, n)
		for i := range out {
			out[i] = int32(binary.LittleEndian.Uint32(plaintext[4*i:]))
		}
		return out, nil

	case TypeFloat16:
		if len(plaintext) != 2*n {
			return nil, fmt.Errorf("%w: want %d bytes, got %d", ErrColumnLengthMismatch, 2*n, len(plaintext))
		}
		out := make([]float32, n)
		for i := range out {
			out[i] = float16BitsToFloat32(binary.LittleEndian.Uint16(plaintext[2*i:]))
		}
		return out, nil

	case TypeFloat32:
		if len(plaintext) != 4*n {
			return nil, fmt.Errorf("%w: want %d bytes, got %d", ErrColumnLengthMismatch, 4*n, len(plaintext))
		}
		out := make([]float32, n)
		for i := range out {
			out[i] = math.Float32frombits(binary.LittleEndian.Uint32(plaintext[4*i:]))
		}
		return out, nil

	case TypeBool:
		if len(plaintext) != n {
			return nil, fmt.Errorf("%w: want %d bytes, got %d", ErrColumnLengthMismatch, n, len(plaintext))
		}
		out := make([]bool, n)
		for i, b := range plaintext {
			out[i] = b != 0
		}
		return out, nil

	case TypeStr:
		var out []string
		if err := json.Unmarshal(plaintext, &out); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrColumnDecodeError, err)
		}
		if len(out) != n {
			return nil, fmt.Errorf("%w: want %d elements, got %d", ErrColumnDecodeError, n, len(out))
		}
		return out, nil

	case TypeJSON:
		var out []any
		if err := json.Unmarshal(plaintext, &out); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrColumnDecodeError, err)
		}
		if len(out) != n {
			return nil, fmt.Errorf("%w: want %d elements, got %d", ErrColumnDecodeError, n, len(out))
		}
		return out, nil

	default:
		return nil, fmt.Errorf("jonx: decode: unsupported type %v", t)
	}
}

// numericValueAt returns the float64 value of a numeric column's i-th
// element, used by index building, find_min/find_max, sum and avg.
func numericValueAt(col any, i int) (float64, error) {
	switch c := col.(type) {
	case []int16:
		return float64(c[i]), nil
	case []int32:
		return float64(c[i]), nil
	case []float32:
		return float64(c[i]), nil
	default:
		return 0, ErrNotNumeric
	}
}

// numericLen returns the element count of a decoded numeric column.
func numericLen(col any) (int, error) {
	switch c := col.(type) {
	case []int16:
		return len(c), nil
	case []int32:
		return len(c), nil
	case []float32:
		return len(c), nil
	default:
		return 0, ErrNotNumeric
	}
}

// columnElement returns the i-th decoded value of col as an `any`, matching
// whatever Go representation decodeColumn produced for that field's type.
func columnElement(col any, i int) any {
	switch c := col.(type) {
	case []int16:
		return c[i]
	case []int32:
		return c[i]
	case []float32:
		return c[i]
	case []bool:
		return c[i]
	case []string:
		return c[i]
	case []any:
		return c[i]
	default:
		return nil
	}
}

// float16BitsToFloat32 expands a raw IEEE 754-2008 binary16 bit pattern into
// its binary32 equivalent. github.com/apache/arrow/go/v7/arrow/float16's Num
// wraps an unexported uint16 field and offers no bits-to-Num constructor
// (only New(float32) plus the Float32()/Uint16() accessors), so decoding a
// stored float16 column has to do the sign/exponent/mantissa expansion by
// hand rather than going through that type.
func float16BitsToFloat32(bits uint16) float32 {
	sign := uint32(bits&0x8000) << 16
	exponent := uint32(bits&0x7c00) >> 10
	mantissa := uint32(bits & 0x03ff)

	switch {
	case exponent == 0:
		if mantissa == 0 {
			return math.Float32frombits(sign)
		}
		exponent = 127 - 14
		for mantissa&0x400 == 0 {
			mantissa <<= 1
			exponent--
		}
		mantissa &^= 0x400
		return math.Float32frombits(sign | exponent<<23 | mantissa<<13)
	case exponent == 0x1f:
		return math.Float32frombits(sign | 0x7f800000 | mantissa<<13)
	default:
		return math.Float32frombits(sign | (exponent+(127-15))<<23 | mantissa<<13)
	}
}
