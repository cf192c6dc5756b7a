package replacement

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Kind", func() {
	It("should parse policy names", func() {
		k, ok := ParseKind("LRU")
		Expect(ok).To(BeTrue())
		Expect(k).To(Equal(LRU))

		k, ok = ParseKind("ClockSecondChance")
		Expect(ok).To(BeTrue())
		Expect(k).To(Equal(Clock))

		k, ok = ParseKind(" secondchance ")
		Expect(ok).To(BeTrue())
		Expect(k).To(Equal(Clock))
	})

	It("should reject unknown names", func() {
		_, ok := ParseKind("FIFO")
		Expect(ok).To(BeFalse())
	})

	It("should print the canonical name", func() {
		Expect(LRU.String()).To(Equal("LRU"))
		Expect(Clock.String()).To(Equal("ClockSecondChance"))
	})

	It("should panic on unknown kind", func() {
		Expect(func() { New(Kind(7), 2) }).To(Panic())
	})
})

var _ = Describe("LRU", func() {
	var p *lruPolicy

	BeforeEach(func() {
		p = New(LRU, 3).(*lruPolicy)
	})

	It("should return nothing when empty", func() {
		_, _, ok := p.Victim()
		Expect(ok).To(BeFalse())
	})

	It("should evict the least recently admitted page", func() {
		p.Admit(1, 0)
		p.Admit(2, 1)
		p.Admit(3, 2)

		page, frame, ok := p.Victim()

		Expect(ok).To(BeTrue())
		Expect(page).To(Equal(uint64(1)))
		Expect(frame).To(Equal(uint64(0)))
		Expect(p.Len()).To(Equal(2))
	})

	It("should move touched pages to the most recently used end", func() {
		p.Admit(1, 0)
		p.Admit(2, 1)
		p.Admit(3, 2)
		p.Touch(1, 0)
		p.Touch(2, 1)

		Expect(p.Order()).To(Equal([]uint64{3, 1, 2}))

		page, frame, ok := p.Victim()
		Expect(ok).To(BeTrue())
		Expect(page).To(Equal(uint64(3)))
		Expect(frame).To(Equal(uint64(2)))
	})

	It("should panic when touching a page that is not tracked", func() {
		Expect(func() { p.Touch(9, 0) }).To(Panic())
	})

	It("should forget pages", func() {
		p.Admit(1, 0)
		p.Admit(2, 1)
		p.Forget(1, 0)

		page, _, _ := p.Victim()
		Expect(page).To(Equal(uint64(2)))
	})
})

var _ = Describe("Clock", func() {
	var p *clockPolicy

	BeforeEach(func() {
		p = New(Clock, 3).(*clockPolicy)
		p.Admit(1, 0)
		p.Admit(2, 1)
		p.Admit(3, 2)
	})

	It("should set the reference bit on admission", func() {
		Expect(p.Referenced(0)).To(BeTrue())
		Expect(p.Referenced(1)).To(BeTrue())
		Expect(p.Referenced(2)).To(BeTrue())
	})

	It("should clear all bits and evict the first slot when all are referenced",
		func() {
			page, frame, ok := p.Victim()

			Expect(ok).To(BeTrue())
			Expect(page).To(Equal(uint64(1)))
			Expect(frame).To(Equal(uint64(0)))
			Expect(p.Referenced(1)).To(BeFalse())
			Expect(p.Referenced(2)).To(BeFalse())
			Expect(p.Hand()).To(Equal(1))
		})

	It("should give referenced pages a second chance", func() {
		p.Victim()
		p.Admit(4, 0)

		p.Touch(2, 1)

		page, frame, ok := p.Victim()

		Expect(ok).To(BeTrue())
		Expect(page).To(Equal(uint64(3)))
		Expect(frame).To(Equal(uint64(2)))
		Expect(p.Referenced(1)).To(BeFalse())
		Expect(p.Hand()).To(Equal(0))
	})

	It("should keep the hand across victims", func() {
		p.Victim()
		p.Admit(4, 0)

		page, _, _ := p.Victim()
		Expect(page).To(Equal(uint64(2)))
		Expect(p.Hand()).To(Equal(2))
	})

	It("should never evict a page whose bit was set when the hand reached it",
		func() {
			p.Victim()
			p.Admit(4, 0)
			p.Touch(2, 1)
			p.Touch(3, 2)

			// Hand is at frame 1. Pages 2 and 3 have bit 1, page 4 has bit 1
			// as well, so the sweep clears 2, 3, 4 and comes back to 2.
			page, frame, ok := p.Victim()

			Expect(ok).To(BeTrue())
			Expect(page).To(Equal(uint64(2)))
			Expect(frame).To(Equal(uint64(1)))
		})

	It("should panic when admitting into an occupied slot", func() {
		Expect(func() { p.Admit(9, 1) }).To(Panic())
	})

	It("should forget pages", func() {
		p.Forget(2, 1)
		Expect(p.Len()).To(Equal(2))
	})

	It("should return nothing when empty", func() {
		empty := New(Clock, 2)
		_, _, ok := empty.Victim()
		Expect(ok).To(BeFalse())
	})
})
