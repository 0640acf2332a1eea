package core

// Read-only views of the control sub-states handed to the collaborators.
// The sub-state types implement them; collaborators never see a setter.

// ClockView is the serial clock state seen by the frame engine
type ClockView interface {
	Divisor() uint32
	Phase() uint8
	Polarity() uint8
	Mode() uint8
}

// DelayView is the delay state seen by the frame engine
type DelayView interface {
	Setup() uint32
	Hold() uint32
	InterCS() uint32
	InterFrame() uint32
}

// ChipSelectView is the chip-select state shared by both engines
type ChipSelectView interface {
	ID() uint32
	DefaultLevels() uint32
	DefaultLevel(line int) bool
	Mode() CSMode
	Lines() int
}

// FormatView is the frame format seen by both engines
type FormatView interface {
	Protocol() Protocol
	Endian() Endian
	Direction() Direction
	Length() uint32
}

// WatermarkView is the threshold state seen by the FIFO engine
type WatermarkView interface {
	TxMark() uint32
	RxMark() uint32
}

// FIFOBinding is everything the FIFO engine observes
type FIFOBinding struct {
	Format     FormatView
	ChipSelect ChipSelectView
	Watermark  WatermarkView
}

// TimingBinding is everything the frame/timing engine observes.
// SampleDelay is the configured input sampling delay in serial clock cycles.
type TimingBinding struct {
	Clock       ClockView
	Delay       DelayView
	ChipSelect  ChipSelectView
	Format      FormatView
	SampleDelay uint32
}

// FIFOEngine owns the tx and rx queues. Enqueue and dequeue never block:
// a full tx queue rejects, an empty rx queue reports ok == false.
type FIFOEngine interface {
	TryEnqueue(f Frame) bool
	TryDequeue() (f Frame, ok bool)

	// Watermark comparisons, evaluated on every call
	TxPending() bool
	RxPending() bool

	TxCount() int
	RxCount() int
}

// TxHandshake is the data-ready/data-accepted half of the link from the FIFO
// engine to the frame engine.
type TxHandshake interface {
	// TxReady reports that a frame is waiting to be shifted out
	TxReady() bool

	// TxFrame returns the waiting frame, as it should appear on the wire
	TxFrame() Frame

	// TxAccept tells the FIFO engine the waiting frame was taken
	TxAccept()
}

// RxHandshake is the link from the frame engine back to the FIFO engine
type RxHandshake interface {
	// RxReady reports that a received frame can be pushed
	RxReady() bool

	// RxPush delivers a frame as it was shifted in
	RxPush(f Frame)
}

// Handshake is the full data link between the two engines. The FIFO engine
// implements it and the frame engine consumes it; Control State is not involved.
type Handshake interface {
	TxHandshake
	RxHandshake
}

// Resetter is implemented by collaborators that return to an idle state on
// controller reset.
type Resetter interface {
	Reset()
}
