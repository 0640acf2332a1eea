package bus

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"spimaster/protocol"
)

// DefaultTimeout bounds the wait for a response
const DefaultTimeout = 2 * time.Second

var (
	ErrTimeout = errors.New("bus: response timeout")
	ErrClosed  = errors.New("bus: client closed")
)

// Client is an Accessor talking to a Server over a serial link
type Client struct {
	port    io.ReadWriteCloser
	timeout time.Duration

	mu  sync.Mutex // one transaction at a time
	seq uint8
	out []byte

	blocks chan protocol.Block
	stop   chan struct{}
	done   chan struct{}

	closeOnce sync.Once
	closeErr  error

	errMu   sync.Mutex
	readErr error
}

var _ Accessor = (*Client)(nil)

// NewClient starts a client on port. A zero timeout means DefaultTimeout.
func NewClient(port io.ReadWriteCloser, timeout time.Duration) *Client {
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	c := &Client{
		port:    port,
		timeout: timeout,
		seq:     protocol.SeqDest,
		blocks:  make(chan protocol.Block, 4),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	go c.readLoop()
	return c
}

// Load reads the register at addr
func (c *Client) Load(addr uint32) (uint32, error) {
	resp, err := c.roundTrip(protocol.Message{Op: protocol.OpLoad, Addr: addr})
	if err != nil {
		return 0, err
	}
	if resp.Op != protocol.OpValue {
		return 0, fmt.Errorf("bus: load %#08x: unexpected %v", addr, resp.Op)
	}
	return resp.Value, nil
}

// Store writes v to the register at addr
func (c *Client) Store(addr, v uint32) error {
	resp, err := c.roundTrip(protocol.Message{Op: protocol.OpStore, Addr: addr, Value: v})
	if err != nil {
		return err
	}
	if resp.Op != protocol.OpAck {
		return fmt.Errorf("bus: store %#08x: unexpected %v", addr, resp.Op)
	}
	return nil
}

// Close stops the reader and closes the port. Later calls return the
// result of the first.
func (c *Client) Close() error {
	c.closeOnce.Do(func() {
		close(c.stop)
		c.closeErr = c.port.Close()
		<-c.done
	})
	return c.closeErr
}

func (c *Client) roundTrip(req protocol.Message) (protocol.Message, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	seq := c.seq
	c.seq = protocol.NextSeq(seq)

	c.out = c.out[:0]
	c.out, _ = protocol.AppendBlock(c.out, seq, protocol.AppendMessage(nil, req))
	if _, err := c.port.Write(c.out); err != nil {
		return protocol.Message{}, fmt.Errorf("bus: write request: %w", err)
	}

	deadline := time.NewTimer(c.timeout)
	defer deadline.Stop()
	for {
		select {
		case b, ok := <-c.blocks:
			if !ok {
				return protocol.Message{}, c.closedErr()
			}
			if b.Seq != seq {
				// Late answer to a request that already timed out
				continue
			}
			resp, err := protocol.DecodeMessage(b.Payload)
			if err != nil {
				return protocol.Message{}, fmt.Errorf("bus: response: %w", err)
			}
			if resp.Addr != req.Addr {
				return protocol.Message{}, fmt.Errorf("bus: response for %#08x, expected %#08x", resp.Addr, req.Addr)
			}
			if resp.Op == protocol.OpFault {
				return protocol.Message{}, &Fault{Addr: resp.Addr, Reason: Reason(resp.Value)}
			}
			return resp, nil
		case <-deadline.C:
			return protocol.Message{}, fmt.Errorf("%w after %v", ErrTimeout, c.timeout)
		case <-c.stop:
			return protocol.Message{}, ErrClosed
		}
	}
}

func (c *Client) readLoop() {
	defer close(c.done)
	defer close(c.blocks)

	dec := protocol.NewDecoder(c.port)
	for {
		b, err := dec.Decode()
		if err != nil {
			c.errMu.Lock()
			c.readErr = err
			c.errMu.Unlock()
			return
		}
		select {
		case c.blocks <- b:
		case <-c.stop:
			return
		}
	}
}

func (c *Client) closedErr() error {
	c.errMu.Lock()
	defer c.errMu.Unlock()
	if c.readErr != nil && !errors.Is(c.readErr, io.EOF) {
		return fmt.Errorf("%w: %v", ErrClosed, c.readErr)
	}
	return ErrClosed
}
