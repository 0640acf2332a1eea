package bus

import (
	"errors"
	"fmt"
)

// ErrAccessFault matches every *Fault
var ErrAccessFault = errors.New("bus: access fault")

// Reason says why an access faulted. It travels as the value of a fault
// message.
type Reason uint32

const (
	ReasonOutsideWindow Reason = 1
	ReasonMisaligned    Reason = 2
	ReasonNoRegister    Reason = 3
	ReasonRejected      Reason = 4 // the register refused the value
)

func (r Reason) String() string {
	switch r {
	case ReasonOutsideWindow:
		return "outside register window"
	case ReasonMisaligned:
		return "misaligned"
	case ReasonNoRegister:
		return "no register at offset"
	case ReasonRejected:
		return "write rejected"
	}
	return fmt.Sprintf("reason %d", uint32(r))
}

// Fault is a rejected bus access
type Fault struct {
	Addr   uint32
	Reason Reason
}

func (f *Fault) Error() string {
	return fmt.Sprintf("bus: access fault at %#08x: %v", f.Addr, f.Reason)
}

func (f *Fault) Is(target error) bool {
	return target == ErrAccessFault
}
