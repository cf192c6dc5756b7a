package replacement

// clockSlot is one position of the clock. Slots are indexed by frame.
type clockSlot struct {
	page       uint64
	referenced bool
	used       bool
}

// clockPolicy implements the second-chance algorithm. The hand persists
// across faults and is only moved by Victim.
type clockPolicy struct {
	slots []clockSlot
	hand  int
	size  int
}

func newClockPolicy(numFrames int) *clockPolicy {
	return &clockPolicy{
		slots: make([]clockSlot, numFrames),
	}
}

func (p *clockPolicy) sealed() {}

func (p *clockPolicy) Kind() Kind {
	return Clock
}

func (p *clockPolicy) Admit(page, frame uint64) {
	slot := p.slotOf(frame)
	if slot.used && slot.page != page {
		panic("admitting a page into an occupied clock slot")
	}

	if !slot.used {
		p.size++
	}

	slot.page = page
	slot.used = true
	slot.referenced = true
}

func (p *clockPolicy) Touch(page, frame uint64) {
	slot := p.slotOf(frame)
	if !slot.used || slot.page != page {
		panic("touching a page that is not resident")
	}

	slot.referenced = true
}

// Victim sweeps from the hand. Referenced slots get their bit cleared and are
// skipped. Since bits are only cleared during the sweep, two full turns are
// always enough.
func (p *clockPolicy) Victim() (page, frame uint64, ok bool) {
	n := len(p.slots)
	if p.size == 0 {
		return 0, 0, false
	}

	for range 2 * n {
		idx := p.hand
		slot := &p.slots[idx]

		if slot.used {
			if !slot.referenced {
				page = slot.page
				*slot = clockSlot{}
				p.size--
				p.hand = (idx + 1) % n

				return page, uint64(idx), true
			}

			slot.referenced = false
		}

		p.hand = (idx + 1) % n
	}

	return 0, 0, false
}

func (p *clockPolicy) Forget(page, frame uint64) {
	slot := p.slotOf(frame)
	if !slot.used || slot.page != page {
		return
	}

	*slot = clockSlot{}
	p.size--
}

func (p *clockPolicy) Len() int {
	return p.size
}

// Hand returns the slot the next sweep starts from.
func (p *clockPolicy) Hand() int {
	return p.hand
}

// Referenced reports the reference bit of the page held in frame.
func (p *clockPolicy) Referenced(frame uint64) bool {
	return p.slotOf(frame).referenced
}

func (p *clockPolicy) slotOf(frame uint64) *clockSlot {
	if frame >= uint64(len(p.slots)) {
		panic("frame out of range")
	}

	return &p.slots[frame]
}
