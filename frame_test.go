package jonx_test

import (
	"bytes"
	"encoding/binary"

	"github.com/jonx-format/jonx"
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

var _ = Describe("Frame locality", func() {
	It("should reject a file with a bad magic", func() {
		buf := new(bytes.Buffer)
		Expect(jonx.EncodeRecords(sampleRecords(), buf, nil)).To(Succeed())

		data := buf.Bytes()
		data[0] = 'X'

		_, err := jonx.Open(bytes.NewReader(data), int64(len(data)))
		Expect(err).To(MatchError(jonx.ErrHeaderInvalid))
	})

	It("should reject an unsupported version", func() {
		buf := new(bytes.Buffer)
		Expect(jonx.EncodeRecords(sampleRecords(), buf, nil)).To(Succeed())

		data := buf.Bytes()
		binary.LittleEndian.PutUint32(data[4:8], 99)

		_, err := jonx.Open(bytes.NewReader(data), int64(len(data)))
		Expect(err).To(MatchError(jonx.ErrUnsupportedVersion))
	})

	It("should leave other columns readable when one column frame is corrupt", func() {
		records := []map[string]any{
			{"a": float64(1), "b": "one"},
			{"a": float64(2), "b": "two"},
		}

		buf := new(bytes.Buffer)
		Expect(jonx.EncodeRecords(records, buf, nil)).To(Succeed())
		data := buf.Bytes()

		// Manually walk the file layout documented in spec.md §6: header
		// (8B), schema frame, then column frames in schema order ("a"
		// before "b"). Corrupt a byte inside "b"'s compressed payload.
		schemaFrameLen := binary.LittleEndian.Uint32(data[8:12])
		colAOffset := 8 + 4 + int(schemaFrameLen)
		colAFrameLen := binary.LittleEndian.Uint32(data[colAOffset : colAOffset+4])
		colBOffset := colAOffset + 4 + int(colAFrameLen)

		corrupted := append([]byte(nil), data...)
		corrupted[colBOffset+4] ^= 0xFF
		corrupted[colBOffset+5] ^= 0xFF

		r, err := jonx.Open(bytes.NewReader(corrupted), int64(len(corrupted)))
		Expect(err).NotTo(HaveOccurred())

		colA, err := r.GetColumn("a")
		Expect(err).NotTo(HaveOccurred())
		Expect(colA).To(Equal([]int16{1, 2}))

		_, err = r.GetColumn("b")
		Expect(err).To(HaveOccurred())
	})
})
