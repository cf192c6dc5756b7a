package sim

import (
	"errors"
	"strings"
	"testing/iotest"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("AddressScanner", func() {
	It("should skip blank lines and trim spaces", func() {
		pages, err := ParseAddresses("1\n\n  2 \r\n\t3\n\n")

		Expect(err).NotTo(HaveOccurred())
		Expect(pages).To(Equal([]uint64{1, 2, 3}))
	})

	It("should parse an empty trace", func() {
		pages, err := ParseAddresses("")

		Expect(err).NotTo(HaveOccurred())
		Expect(pages).To(BeEmpty())
	})

	It("should report the line of a malformed address", func() {
		s := NewAddressScanner(strings.NewReader("1\n\n0x10\n2\n"))

		Expect(s.Scan()).To(BeTrue())
		Expect(s.Page()).To(Equal(uint64(1)))
		Expect(s.Scan()).To(BeFalse())
		Expect(s.Line()).To(Equal(3))
		Expect(s.Err()).To(MatchError(ErrValidation))
		Expect(s.Err().Error()).To(ContainSubstring("line 3"))
		Expect(s.Scan()).To(BeFalse())
	})

	It("should reject negative numbers", func() {
		_, err := ParseAddresses("5\n-1\n")

		Expect(err).To(MatchError(ErrValidation))
	})

	It("should pass reader errors through", func() {
		readErr := errors.New("disk on fire")
		s := NewAddressScanner(iotest.ErrReader(readErr))

		Expect(s.Scan()).To(BeFalse())
		Expect(s.Err()).To(MatchError(readErr))
	})
})
