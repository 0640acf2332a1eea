package core

import "sync/atomic"

// PendingSource reports raw watermark conditions. The FIFO engine is the only
// implementation bound to a controller.
type PendingSource interface {
	TxPending() bool
	RxPending() bool
}

// InterruptLine combines pending conditions with their enables
func InterruptLine(pendingTx, enableTx, pendingRx, enableRx bool) bool {
	return (pendingTx && enableTx) || (pendingRx && enableRx)
}

// Interrupts holds the host enables and reads pending flags through to their
// source. Nothing derived is cached, so the line is level-sensitive by
// construction.
type Interrupts struct {
	txEnable atomic.Bool
	rxEnable atomic.Bool
	source   func() PendingSource
}

func newInterrupts(source func() PendingSource) *Interrupts {
	return &Interrupts{source: source}
}

func (i *Interrupts) TxEnabled() bool { return i.txEnable.Load() }
func (i *Interrupts) RxEnabled() bool { return i.rxEnable.Load() }
func (i *Interrupts) SetTxEnabled(b bool) { i.txEnable.Store(b) }
func (i *Interrupts) SetRxEnabled(b bool) { i.rxEnable.Store(b) }

// Pending returns the current watermark conditions; both are false while no
// source is bound.
func (i *Interrupts) Pending() (tx, rx bool) {
	src := i.source()
	if src == nil {
		return false, false
	}
	return src.TxPending(), src.RxPending()
}

// Line returns the level of the interrupt output
func (i *Interrupts) Line() bool {
	tx, rx := i.Pending()
	return InterruptLine(tx, i.TxEnabled(), rx, i.RxEnabled())
}

// Reset clears the enables. Pending flags have no storage to clear.
func (i *Interrupts) Reset() {
	i.txEnable.Store(false)
	i.rxEnable.Store(false)
}
