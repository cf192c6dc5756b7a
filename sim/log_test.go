package sim

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Log", func() {
	It("should keep everything without a limit", func() {
		l := NewLog(0)

		for range 5 {
			l.Append("x")
		}

		Expect(l.Lines()).To(HaveLen(5))
		Expect(l.Truncated()).To(BeFalse())
	})

	It("should count the entries beyond the limit", func() {
		l := NewLog(2)

		l.Append("a")
		l.Appendf("b%d", 1)
		l.Append("c")
		l.Appendf("d%d", 2)
		l.Note("done")

		Expect(l.Truncated()).To(BeTrue())
		Expect(l.Dropped()).To(Equal(2))
		Expect(l.Lines()).To(Equal([]string{
			"a",
			"b1",
			"... 2 more log entries not shown (limit 2 entries)",
			"done",
		}))
	})

	It("should return copies", func() {
		l := NewLog(0)
		l.Append("a")

		lines := l.Lines()
		lines[0] = "changed"

		Expect(l.Lines()).To(Equal([]string{"a"}))
	})
})
