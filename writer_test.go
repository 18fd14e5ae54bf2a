package jonx_test

import (
	"bytes"

	"github.com/jonx-format/jonx"
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

var _ = Describe("Writer", func() {
	var buf *bytes.Buffer
	var subject *jonx.Writer

	BeforeEach(func() {
		buf = new(bytes.Buffer)
		subject = jonx.NewWriter(buf, nil)
	})

	It("should write an empty record sequence", func() {
		Expect(subject.Encode(nil)).To(Succeed())
		Expect(buf.Len()).To(BeNumerically(">", 0))

		schema, records, err := jonx.DecodeBytes(buf.Bytes())
		Expect(err).NotTo(HaveOccurred())
		Expect(schema.Fields).To(BeEmpty())
		Expect(schema.NumRows).To(Equal(0))
		Expect(records).To(BeEmpty())
	})

	It("should reject a record missing a field seen elsewhere", func() {
		records := []map[string]any{
			{"id": float64(1), "name": "Alice"},
			{"id": float64(2)},
		}
		err := subject.Encode(records)
		Expect(err).To(MatchError(jonx.ErrFieldMissing))
	})

	It("should reject an integer overflowing int32", func() {
		records := []map[string]any{
			{"x": float64(1 << 40)},
		}
		err := subject.Encode(records)
		Expect(err).To(MatchError(jonx.ErrValueOutOfRange))
	})

	It("should reject a float overflowing float32", func() {
		// 1e300 alone is whole-valued and would be checked against int32;
		// the fractional 0.5 makes this a float column.
		records := []map[string]any{
			{"x": 0.5},
			{"x": 1e300},
		}
		err := subject.Encode(records)
		Expect(err).To(MatchError(jonx.ErrValueOutOfRange))
	})

	It("should round-trip a mixed-type record sequence", func() {
		records := []map[string]any{
			{"id": float64(1), "name": "Alice", "score": 1.5, "active": true, "meta": map[string]any{"a": float64(1)}},
			{"id": float64(2), "name": "Bob", "score": 2.25, "active": false, "meta": []any{float64(1), float64(2)}},
		}
		Expect(subject.Encode(records)).To(Succeed())

		schema, decoded, err := jonx.DecodeBytes(buf.Bytes())
		Expect(err).NotTo(HaveOccurred())
		Expect(schema.Types["id"]).To(Equal(jonx.TypeInt16))
		Expect(schema.Types["name"]).To(Equal(jonx.TypeStr))
		Expect(schema.Types["score"]).To(Equal(jonx.TypeFloat16))
		Expect(schema.Types["active"]).To(Equal(jonx.TypeBool))
		Expect(schema.Types["meta"]).To(Equal(jonx.TypeJSON))
		Expect(decoded).To(HaveLen(2))
		Expect(decoded[0]["name"]).To(Equal("Alice"))
		Expect(decoded[1]["active"]).To(Equal(false))
	})

	It("should widen int16 to int32 when a later value exceeds the range", func() {
		records := []map[string]any{
			{"x": float64(100000)},
			{"x": float64(-1)},
		}
		Expect(subject.Encode(records)).To(Succeed())

		schema, _, err := jonx.DecodeBytes(buf.Bytes())
		Expect(err).NotTo(HaveOccurred())
		Expect(schema.Types["x"]).To(Equal(jonx.TypeInt32))
	})

	It("should reject a second Encode call on an already-written writer", func() {
		records := []map[string]any{{"id": float64(1)}}
		Expect(subject.Encode(records)).To(Succeed())

		err := subject.Encode(records)
		Expect(err).To(MatchError(jonx.ErrClosed))
	})
})
