package bus

import (
	"errors"
	"fmt"
	"io"

	"spimaster/core"
	"spimaster/protocol"
)

// Server answers load/store blocks read from a serial link
type Server struct {
	acc Accessor
	rw  io.ReadWriter
	dec *protocol.Decoder

	// AfterStore, if set, runs after every successful store. Simulators
	// use it to advance the frame engine.
	AfterStore func(addr, v uint32)

	out []byte
}

// NewServer returns a server for acc on rw
func NewServer(acc Accessor, rw io.ReadWriter) *Server {
	return &Server{acc: acc, rw: rw, dec: protocol.NewDecoder(rw)}
}

// Serve handles requests until the link fails. A clean end of input
// returns nil.
func (s *Server) Serve() error {
	for {
		b, err := s.dec.Decode()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("bus: serve: %w", err)
		}
		if err := s.handle(b); err != nil {
			return err
		}
	}
}

func (s *Server) handle(b protocol.Block) error {
	req, err := protocol.DecodeMessage(b.Payload)
	if err != nil {
		core.DebugPrintln("[bus] dropped request: " + err.Error())
		return nil
	}

	resp := protocol.Message{Addr: req.Addr}
	switch req.Op {
	case protocol.OpLoad:
		v, err := s.acc.Load(req.Addr)
		resp.Op, resp.Value = protocol.OpValue, v
		if err != nil {
			resp.Op, resp.Value = protocol.OpFault, uint32(reasonOf(err))
		}
	case protocol.OpStore:
		resp.Op = protocol.OpAck
		if err := s.acc.Store(req.Addr, req.Value); err != nil {
			resp.Op, resp.Value = protocol.OpFault, uint32(reasonOf(err))
		} else if s.AfterStore != nil {
			s.AfterStore(req.Addr, req.Value)
		}
	default:
		core.DebugPrintln(fmt.Sprintf("[bus] unexpected %v from host", req.Op))
		return nil
	}

	s.out = s.out[:0]
	s.out, _ = protocol.AppendBlock(s.out, b.Seq, protocol.AppendMessage(nil, resp))
	if _, err := s.rw.Write(s.out); err != nil {
		return fmt.Errorf("bus: write response: %w", err)
	}
	return nil
}

func reasonOf(err error) Reason {
	var f *Fault
	if errors.As(err, &f) {
		return f.Reason
	}
	return ReasonRejected
}
