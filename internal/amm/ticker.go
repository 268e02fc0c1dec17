package amm

import "strings"

// Slot names one of the pool's two fixed asset roles.
type Slot int

const (
	SlotPrimary Slot = iota
	SlotSecondary
)

func (s Slot) other() Slot {
	if s == SlotPrimary {
		return SlotSecondary
	}
	return SlotPrimary
}

// resolveSlot maps a ticker string to an asset slot. Matching is
// case-insensitive against the two configured symbols; anything else is
// an invalid-ticker error.
func (p *Pool) resolveSlot(ticker string) (Slot, error) {
	switch strings.ToUpper(strings.TrimSpace(ticker)) {
	case strings.ToUpper(p.primary.Symbol()):
		return SlotPrimary, nil
	case strings.ToUpper(p.secondary.Symbol()):
		return SlotSecondary, nil
	}
	return 0, ErrInvalidTicker
}

// resolveSlots maps a ticker to the ordered (send, receive) pair: the
// named asset is always the send side.
func (p *Pool) resolveSlots(ticker string) (send, receive Slot, err error) {
	send, err = p.resolveSlot(ticker)
	if err != nil {
		return 0, 0, err
	}
	return send, send.other(), nil
}
