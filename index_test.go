package jonx_test

import (
	"math/rand"

	"github.com/jonx-format/jonx"
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

var _ = Describe("Index", func() {
	var subject *jonx.Reader
	var values []float64

	BeforeEach(func() {
		rnd := rand.New(rand.NewSource(7))
		records := make([]map[string]any, 200)
		values = make([]float64, 200)
		for i := range records {
			v := rnd.Intn(1000) - 500
			values[i] = float64(v)
			records[i] = map[string]any{"v": float64(v)}
		}

		var err error
		subject, err = seedReader(records)
		Expect(err).NotTo(HaveOccurred())
	})

	It("should store a valid permutation of [0, N)", func() {
		report, err := subject.Validate()
		Expect(err).NotTo(HaveOccurred())
		Expect(report.Valid).To(BeTrue())
	})

	It("should agree on min/max with and without the index", func() {
		min, err := subject.FindMin("v", true)
		Expect(err).NotTo(HaveOccurred())

		scanMin, err := subject.FindMin("v", false)
		Expect(err).NotTo(HaveOccurred())
		Expect(min).To(Equal(scanMin))

		max, err := subject.FindMax("v", true)
		Expect(err).NotTo(HaveOccurred())

		scanMax, err := subject.FindMax("v", false)
		Expect(err).NotTo(HaveOccurred())
		Expect(max).To(Equal(scanMax))

		col, err := subject.GetColumn("v")
		Expect(err).NotTo(HaveOccurred())
		nums := col.([]int16)

		var wantMin, wantMax int16 = nums[0], nums[0]
		for _, n := range nums {
			if n < wantMin {
				wantMin = n
			}
			if n > wantMax {
				wantMax = n
			}
		}
		Expect(min).To(Equal(wantMin))
		Expect(max).To(Equal(wantMax))
	})

	It("should not have an index for a boolean field", func() {
		records := []map[string]any{{"ok": true}, {"ok": false}}
		r, err := seedReader(records)
		Expect(err).NotTo(HaveOccurred())
		Expect(r.HasIndex("ok")).To(BeFalse())
	})
})
