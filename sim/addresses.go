package sim

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// An AddressScanner reads page numbers from a text stream, one per line.
// Surrounding whitespace is ignored and blank lines are skipped. Any other
// line that is not a base-10 unsigned integer stops the scan with an error.
type AddressScanner struct {
	scanner *bufio.Scanner
	line    int
	page    uint64
	err     error
}

// NewAddressScanner creates an AddressScanner reading from r.
func NewAddressScanner(r io.Reader) *AddressScanner {
	return &AddressScanner{scanner: bufio.NewScanner(r)}
}

// Scan advances to the next address. It returns false at the end of the
// stream or on the first error.
func (s *AddressScanner) Scan() bool {
	if s.err != nil {
		return false
	}

	for s.scanner.Scan() {
		s.line++

		text := strings.TrimSpace(s.scanner.Text())
		if text == "" {
			continue
		}

		page, err := strconv.ParseUint(text, 10, 64)
		if err != nil {
			s.err = fmt.Errorf("%w: line %d: malformed address %q",
				ErrValidation, s.line, text)
			return false
		}

		s.page = page

		return true
	}

	if err := s.scanner.Err(); err != nil {
		s.err = fmt.Errorf("reading addresses after line %d: %w", s.line, err)
	}

	return false
}

// Page returns the address read by the last successful Scan.
func (s *AddressScanner) Page() uint64 {
	return s.page
}

// Line returns the 1-based number of the last line read.
func (s *AddressScanner) Line() int {
	return s.line
}

// Err returns the error that stopped the scan, if any.
func (s *AddressScanner) Err() error {
	return s.err
}

// ParseAddresses parses a whole trace held in memory.
func ParseAddresses(text string) ([]uint64, error) {
	var pages []uint64

	s := NewAddressScanner(strings.NewReader(text))
	for s.Scan() {
		pages = append(pages, s.Page())
	}

	if err := s.Err(); err != nil {
		return nil, err
	}

	return pages, nil
}
