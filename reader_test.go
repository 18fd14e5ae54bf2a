package jonx_test

import (
	"github.com/jonx-format/jonx"
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

var _ = Describe("Reader", func() {
	var subject *jonx.Reader

	BeforeEach(func() {
		var err error
		subject, err = seedReader(sampleRecords())
		Expect(err).NotTo(HaveOccurred())
	})

	It("should report count and info without touching columns", func() {
		n, err := subject.Count()
		Expect(err).NotTo(HaveOccurred())
		Expect(n).To(Equal(3))

		info, err := subject.Info()
		Expect(err).NotTo(HaveOccurred())
		Expect(info.NumRows).To(Equal(3))
		Expect(info.NumColumns).To(Equal(4))
		Expect(info.IndexedFields).To(ConsistOf("id", "score"))
	})

	It("should report is_numeric and has_index", func() {
		Expect(subject.IsNumeric("id")).To(BeTrue())
		Expect(subject.IsNumeric("name")).To(BeFalse())
		Expect(subject.HasIndex("id")).To(BeTrue())
		Expect(subject.HasIndex("active")).To(BeFalse())
	})

	It("should get a single column", func() {
		col, err := subject.GetColumn("id")
		Expect(err).NotTo(HaveOccurred())
		Expect(col).To(Equal([]int16{1, 2, 3}))
	})

	It("should get a float16 column", func() {
		col, err := subject.GetColumn("score")
		Expect(err).NotTo(HaveOccurred())
		nums := col.([]float32)
		Expect(nums).To(HaveLen(3))
		Expect(float64(nums[0])).To(BeNumerically("~", 1.5, 0.001))
	})

	It("should get multiple columns in one call", func() {
		cols, err := subject.GetColumns([]string{"id", "name"})
		Expect(err).NotTo(HaveOccurred())
		Expect(cols).To(HaveKey("id"))
		Expect(cols).To(HaveKey("name"))
		Expect(cols["name"]).To(Equal([]string{"Alice", "Bob", "Carol"}))
	})

	It("should error on an unknown field", func() {
		_, err := subject.GetColumn("nope")
		Expect(err).To(MatchError(jonx.ErrUnknownField))
	})

	It("should find min/max using the index", func() {
		min, err := subject.FindMin("id", true)
		Expect(err).NotTo(HaveOccurred())
		Expect(min).To(Equal(int16(1)))

		max, err := subject.FindMax("id", true)
		Expect(err).NotTo(HaveOccurred())
		Expect(max).To(Equal(int16(3)))
	})

	It("should find min/max by scanning when the index is unused", func() {
		min, err := subject.FindMin("id", false)
		Expect(err).NotTo(HaveOccurred())
		Expect(min).To(Equal(int16(1)))

		max, err := subject.FindMax("id", false)
		Expect(err).NotTo(HaveOccurred())
		Expect(max).To(Equal(int16(3)))
	})

	It("should reject non-numeric fields for find_min/find_max", func() {
		_, err := subject.FindMin("name", true)
		Expect(err).To(MatchError(jonx.ErrNotNumeric))

		_, err = subject.FindMax("name", true)
		Expect(err).To(MatchError(jonx.ErrNotNumeric))
	})

	It("should sum and average a numeric column", func() {
		sum, err := subject.Sum("id")
		Expect(err).NotTo(HaveOccurred())
		Expect(sum).To(Equal(6.0))

		avg, err := subject.Avg("id")
		Expect(err).NotTo(HaveOccurred())
		Expect(avg).To(Equal(2.0))
	})

	It("should reject sum/avg on non-numeric fields", func() {
		_, err := subject.Sum("name")
		Expect(err).To(MatchError(jonx.ErrNotNumeric))

		_, err = subject.Avg("name")
		Expect(err).To(MatchError(jonx.ErrNotNumeric))
	})

	It("should pass check_schema", func() {
		report, err := subject.CheckSchema()
		Expect(err).NotTo(HaveOccurred())
		Expect(report.Valid).To(BeTrue())
		Expect(report.Errors).To(BeEmpty())
	})

	It("should pass validate", func() {
		report, err := subject.Validate()
		Expect(err).NotTo(HaveOccurred())
		Expect(report.Valid).To(BeTrue())
		Expect(report.Errors).To(BeEmpty())
	})
})
