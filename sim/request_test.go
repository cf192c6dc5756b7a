package sim

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/mmusim/mem/vm/replacement"
)

func strPtr(s string) *string {
	return &s
}

var _ = Describe("RunRequest", func() {
	var req RunRequest

	BeforeEach(func() {
		req = RunRequest{
			TLBEntries: 4,
			NumFrames:  8,
			RepPolicy:  "LRU",
			Addresses:  strPtr("1\n2\n"),
		}
	})

	It("should accept a well formed request", func() {
		c, err := req.Validate()

		Expect(err).NotTo(HaveOccurred())
		Expect(c.TLBEntries).To(Equal(4))
		Expect(c.NumFrames).To(Equal(8))
		Expect(c.Policy).To(Equal(replacement.LRU))
		Expect(c.PolicyName).To(Equal("LRU"))
		Expect(c.TestFile).To(BeEmpty())
	})

	It("should accept the clock policy names", func() {
		for _, name := range []string{"ClockSecondChance", "Clock", "SecondChance"} {
			req.RepPolicy = name

			c, err := req.Validate()

			Expect(err).NotTo(HaveOccurred())
			Expect(c.Policy).To(Equal(replacement.Clock))
			Expect(c.PolicyName).To(Equal("ClockSecondChance"))
		}
	})

	It("should accept an empty inline trace", func() {
		req.Addresses = strPtr("")

		_, err := req.Validate()

		Expect(err).NotTo(HaveOccurred())
	})

	DescribeTable("should reject",
		func(modify func(r *RunRequest)) {
			modify(&req)

			_, err := req.Validate()

			Expect(err).To(MatchError(ErrValidation))
		},
		Entry("zero TLB entries", func(r *RunRequest) { r.TLBEntries = 0 }),
		Entry("negative frames", func(r *RunRequest) { r.NumFrames = -1 }),
		Entry("an unknown policy", func(r *RunRequest) { r.RepPolicy = "FIFO" }),
		Entry("no source", func(r *RunRequest) { r.Addresses = nil }),
		Entry("two sources", func(r *RunRequest) { r.TestFile = strPtr("a.in") }),
		Entry("an empty test file name", func(r *RunRequest) {
			r.Addresses = nil
			r.TestFile = strPtr("")
		}),
	)
})
