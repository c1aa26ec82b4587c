// Package guestmem adapts wazero linear memory to the stackimage.Memory
// interface, so a stack image can be placed directly into a wasm guest's
// address space.
//
//	mem := guestmem.Wrap(mod.Memory())
//	base, size, err := builder.BuildInto(mem, guestStackTop)
//
// Linear memory addresses are 32-bit; the adapter range-checks the 64-bit
// addresses the library works with before narrowing them.
package guestmem

import (
	"math"

	"github.com/tetratelabs/wazero/api"

	stackimage "github.com/wippyai/stack-image"
	"github.com/wippyai/stack-image/errors"
)

// Wrap wraps a wazero api.Memory to implement stackimage.Memory.
func Wrap(mem api.Memory) stackimage.Memory {
	if mem == nil {
		return nil
	}
	return &Wrapper{Mem: mem}
}

// Wrapper adapts wazero api.Memory to the stackimage.Memory interface.
type Wrapper struct {
	Mem api.Memory
}

func (m *Wrapper) narrow(addr, length uint64) (uint32, error) {
	if addr+length > math.MaxUint32 || addr+length < addr {
		return 0, errors.New(errors.PhasePlace, errors.KindOutOfBounds).
			Detail("address 0x%x outside 32-bit linear memory", addr).
			Value(addr).
			Build()
	}
	return uint32(addr), nil
}

// Read reads bytes from linear memory.
func (m *Wrapper) Read(addr uint64, length uint64) ([]byte, error) {
	off, err := m.narrow(addr, length)
	if err != nil {
		return nil, err
	}
	data, ok := m.Mem.Read(off, uint32(length))
	if !ok {
		return nil, errors.OutOfBounds(errors.PhaseRead, addr, length, uint64(m.Mem.Size()))
	}
	return data, nil
}

// Write writes bytes to linear memory.
func (m *Wrapper) Write(addr uint64, data []byte) error {
	off, err := m.narrow(addr, uint64(len(data)))
	if err != nil {
		return err
	}
	if !m.Mem.Write(off, data) {
		return errors.OutOfBounds(errors.PhasePlace, addr, uint64(len(data)), uint64(m.Mem.Size()))
	}
	return nil
}

// ReadU32 reads an unsigned 32-bit little-endian value.
func (m *Wrapper) ReadU32(addr uint64) (uint32, error) {
	off, err := m.narrow(addr, 4)
	if err != nil {
		return 0, err
	}
	v, ok := m.Mem.ReadUint32Le(off)
	if !ok {
		return 0, errors.OutOfBounds(errors.PhaseRead, addr, 4, uint64(m.Mem.Size()))
	}
	return v, nil
}

// ReadU64 reads an unsigned 64-bit little-endian value.
func (m *Wrapper) ReadU64(addr uint64) (uint64, error) {
	off, err := m.narrow(addr, 8)
	if err != nil {
		return 0, err
	}
	v, ok := m.Mem.ReadUint64Le(off)
	if !ok {
		return 0, errors.OutOfBounds(errors.PhaseRead, addr, 8, uint64(m.Mem.Size()))
	}
	return v, nil
}

// WriteU32 writes an unsigned 32-bit little-endian value.
func (m *Wrapper) WriteU32(addr uint64, value uint32) error {
	off, err := m.narrow(addr, 4)
	if err != nil {
		return err
	}
	if !m.Mem.WriteUint32Le(off, value) {
		return errors.OutOfBounds(errors.PhasePlace, addr, 4, uint64(m.Mem.Size()))
	}
	return nil
}

// WriteU64 writes an unsigned 64-bit little-endian value.
func (m *Wrapper) WriteU64(addr uint64, value uint64) error {
	off, err := m.narrow(addr, 8)
	if err != nil {
		return err
	}
	if !m.Mem.WriteUint64Le(off, value) {
		return errors.OutOfBounds(errors.PhasePlace, addr, 8, uint64(m.Mem.Size()))
	}
	return nil
}
