package jonx

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/apache/arrow/go/v7/arrow/float16"
)

const (
	int16Min = -32768
	int16Max = 32767
	int32Min = -2147483648
	int32Max = 2147483647
)

// inferType implements spec.md §4.2's type inference over one field's raw
// JSON-decoded values (bool, float64, string, or anything else for json).
// Grounded on original_source/src/jsonplusplus/encoder.py's detect_type /
// detect_numeric_type_int / detect_numeric_type_float, generalized to also
// enforce the binary16 round-trip exactness spec.md requires in addition
// to the original's decimal-digit check.
func inferType(field string, values []any) (PhysicalType, error) {
	if len(values) == 0 {
		return TypeJSON, nil
	}

	if allBool(values) {
		return TypeBool, nil
	}
	if allNumber(values) {
		if allWholeNumbers(values) {
			return inferIntType(field, values)
		}
		return inferFloatType(field, values)
	}
	if allString(values) {
		return TypeStr, nil
	}
	return TypeJSON, nil
}

func allBool(values []any) bool {
	for _, v := range values {
		if _, ok := v.(bool); !ok {
			return false
		}
	}
	return true
}

func allNumber(values []any) bool {
	for _, v := range values {
		if _, ok := v.(float64); !ok {
			return false
		}
	}
	return true
}

func allString(values []any) bool {
	for _, v := range values {
		if _, ok := v.(string); !ok {
			return false
		}
	}
	return true
}

func allWholeNumbers(values []any) bool {
	for _, v := range values {
		f := v.(float64)
		if f != math.Trunc(f) {
			return false
		}
	}
	return true
}

func inferIntType(field string, values []any) (PhysicalType, error) {
	fitsInt16 := true
	for _, v := range values {
		f := v.(float64)
		if f < int32Min || f > int32Max {
			return 0, fmt.Errorf("%w: field %q value %v exceeds int32 domain", ErrValueOutOfRange, field, f)
		}
		if f < int16Min || f > int16Max {
			fitsInt16 = false
		}
	}
	if fitsInt16 {
		return TypeInt16, nil
	}
	return TypeInt32, nil
}

func inferFloatType(field string, values []any) (PhysicalType, error) {
	eligible := true
	for _, v := range values {
		f := v.(float64)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, fmt.Errorf("%w: field %q has a non-finite value", ErrValueOutOfRange, field)
		}
		if math.Abs(f) > math.MaxFloat32 {
			return 0, fmt.Errorf("%w: field %q value %v exceeds float32 domain", ErrValueOutOfRange, field, f)
		}
		if eligible && !isFloat16Eligible(f) {
			eligible = false
		}
	}
	if eligible {
		return TypeFloat16, nil
	}
	return TypeFloat32, nil
}

// isFloat16Eligible implements the Open-Question decision recorded in
// DESIGN.md: a value is float16-eligible only if its shortest exact
// decimal form uses at most 3 fractional digits AND it round-trips through
// binary16 within half a ULP of binary16.
func isFloat16Eligible(f float64) bool {
	if decimalFractionDigits(f) > 3 {
		return false
	}
	return float16RoundTrips(f)
}

func decimalFractionDigits(f float64) int {
	s := strconv.FormatFloat(f, 'f', -1, 64)
	dot := strings.IndexByte(s, '.')
	if dot < 0 {
		return 0
	}
	return len(s) - dot - 1
}

func float16RoundTrips(f float64) bool {
	f32 := float32(f)
	h := float16.New(f32)
	back := h.Float32()

	ulp := float16ULP(h)
	diff := math.Abs(float64(back) - float64(f32))
	return diff <= float64(ulp)/2
}

// float16ULP returns the unit in the last place for h's magnitude, derived
// by stepping the raw bit pattern by one and comparing. Adjacent uint16 bit
// patterns are adjacent representable binary16 values for any given
// sign/exponent, but float16.Num offers no bits-to-Num constructor to turn
// the stepped bit pattern back into a Num — so the neighbor is expanded to
// float32 directly via float16BitsToFloat32 instead.
func float16ULP(h float16.Num) float32 {
	bits := h.Uint16()
	var neighborBits uint16
	if bits == 0xFFFF {
		neighborBits = bits - 1
	} else {
		neighborBits = bits + 1
	}
	return float32(math.Abs(float64(float16BitsToFloat32(neighborBits)) - float64(h.Float32())))
}
