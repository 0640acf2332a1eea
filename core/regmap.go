package core

import (
	"errors"
	"fmt"
	"sync"
)

var (
	ErrNoRegister = errors.New("no register at offset")
	ErrReadOnly   = errors.New("field is read-only")
)

// Access describes how a field behaves on host access
type Access uint8

const (
	AccessRW      Access = iota // plain read/write
	AccessRO                    // writes ignored
	AccessEnqueue               // write pushes into the tx queue, reads as zero
	AccessDequeue               // read pops from the rx queue, writes ignored
)

func (a Access) String() string {
	switch a {
	case AccessRW:
		return "RW"
	case AccessRO:
		return "RO"
	case AccessEnqueue:
		return "W/enqueue"
	case AccessDequeue:
		return "R/dequeue"
	}
	return "?"
}

// writable reports whether a register write reaches the field
func (a Access) writable() bool {
	return a == AccessRW || a == AccessEnqueue
}

// Field is a bit range of a register bound to one piece of controller state
type Field struct {
	Name   string
	Shift  uint // bit offset within the register
	Width  uint
	Access Access

	get   func() uint32
	set   func(v uint32)
	check func(v uint32) error // optional encoding check before set
}

// Get reads the field. For a dequeue field this pops one frame.
func (f *Field) Get() uint32 {
	if f.get == nil {
		return 0
	}
	return f.get() & Mask[uint32](f.Width)
}

// Set writes the field, truncated to its width. For an enqueue field this
// pushes one frame, silently dropped when the queue is full.
func (f *Field) Set(v uint32) error {
	if !f.Access.writable() || f.set == nil {
		return fmt.Errorf("%s: %w", f.Name, ErrReadOnly)
	}
	v &= Mask[uint32](f.Width)
	if f.check != nil {
		if err := f.check(v); err != nil {
			return fmt.Errorf("%s: %w", f.Name, err)
		}
	}
	f.set(v)
	return nil
}

// Register is a named 32-bit slot of the map
type Register struct {
	Name   string
	Offset uint32
	Fields []*Field // ascending Shift

	// Side-effecting registers replace field composition entirely so that a
	// single access dequeues or enqueues exactly once.
	read  func() uint32
	write func(v uint32)
}

// Field returns the named field or nil
func (r *Register) Field(name string) *Field {
	for _, f := range r.Fields {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// load composes the register value from its fields
func (r *Register) load() uint32 {
	if r.read != nil {
		return r.read()
	}
	var v uint32
	for _, f := range r.Fields {
		if f.Access == AccessRW || f.Access == AccessRO {
			v = insert(v, f.Shift, f.Width, f.Get())
		}
	}
	return v
}

// store checks every writable field, then writes them all. Either every
// writable field changes or none does.
func (r *Register) store(v uint32) error {
	if r.write != nil {
		r.write(v)
		return nil
	}
	for _, f := range r.Fields {
		if f.Access != AccessRW || f.check == nil {
			continue
		}
		if err := f.check(extract(v, f.Shift, f.Width)); err != nil {
			return fmt.Errorf("%s.%s: %w", r.Name, f.Name, err)
		}
	}
	for _, f := range r.Fields {
		if f.Access == AccessRW && f.set != nil {
			f.set(extract(v, f.Shift, f.Width))
		}
	}
	return nil
}

// Map is the ordered register table of a controller. Register accesses are
// serialized so each one resolves before the next is observed.
type Map struct {
	mu       sync.Mutex
	regs     []*Register
	byOffset map[uint32]*Register
	byName   map[string]*Register
}

func newMap(regs []*Register) *Map {
	m := &Map{
		regs:     regs,
		byOffset: make(map[uint32]*Register, len(regs)),
		byName:   make(map[string]*Register, len(regs)),
	}
	for _, r := range regs {
		if _, dup := m.byOffset[r.Offset]; dup {
			panic("core: duplicate register offset " + r.Name)
		}
		m.byOffset[r.Offset] = r
		m.byName[r.Name] = r
	}
	return m
}

// Registers returns the table in offset order
func (m *Map) Registers() []*Register {
	out := make([]*Register, len(m.regs))
	copy(out, m.regs)
	return out
}

// Lookup returns the named register
func (m *Map) Lookup(name string) (*Register, bool) {
	r, ok := m.byName[name]
	return r, ok
}

// At returns the register at a byte offset from the map base
func (m *Map) At(offset uint32) (*Register, bool) {
	r, ok := m.byOffset[offset]
	return r, ok
}

// Read performs a host load at offset
func (m *Map) Read(offset uint32) (uint32, error) {
	r, ok := m.byOffset[offset]
	if !ok {
		return 0, fmt.Errorf("%#x: %w", offset, ErrNoRegister)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	return r.load(), nil
}

// Write performs a host store at offset
func (m *Map) Write(offset uint32, v uint32) error {
	r, ok := m.byOffset[offset]
	if !ok {
		return fmt.Errorf("%#x: %w", offset, ErrNoRegister)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if err := r.store(v); err != nil {
		DebugPrintln("[regmap] write rejected: " + err.Error())
		return err
	}
	return nil
}

// GetField reads one field under the map lock
func (m *Map) GetField(register, field string) (uint32, error) {
	f, err := m.field(register, field)
	if err != nil {
		return 0, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	return f.Get(), nil
}

// SetField writes one field under the map lock, leaving the rest of the
// register untouched
func (m *Map) SetField(register, field string, v uint32) error {
	f, err := m.field(register, field)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	return f.Set(v)
}

func (m *Map) field(register, field string) (*Field, error) {
	r, ok := m.byName[register]
	if !ok {
		return nil, fmt.Errorf("%s: %w", register, ErrNoRegister)
	}
	f := r.Field(field)
	if f == nil {
		return nil, fmt.Errorf("%s: no field %s", register, field)
	}
	return f, nil
}
