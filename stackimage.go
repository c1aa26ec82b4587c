package stackimage

import (
	"encoding/binary"
	"math/bits"
)

// Memory represents a writable address space that a stack image can be
// placed into or read back from. Addresses are absolute in the target's
// address space, not offsets into a Go slice.
type Memory interface {
	Read(addr uint64, length uint64) ([]byte, error)
	Write(addr uint64, data []byte) error
	ReadU32(addr uint64) (uint32, error)
	ReadU64(addr uint64) (uint64, error)
	WriteU32(addr uint64, value uint32) error
	WriteU64(addr uint64, value uint64) error
}

// Target describes the machine model a stack image is encoded for: the
// width of one machine word (pointer width) and the byte order integers
// are stored in. Writer and reader must agree on the target.
type Target struct {
	ByteOrder binary.ByteOrder
	WordSize  int
}

// Native returns the target matching the host platform.
func Native() Target {
	return Target{
		ByteOrder: binary.NativeEndian,
		WordSize:  bits.UintSize / 8,
	}
}

// Target32 returns a 32-bit little-endian target, the model used by
// wasm32 guests and 32-bit ELF loaders.
func Target32() Target {
	return Target{ByteOrder: binary.LittleEndian, WordSize: 4}
}

// Target64 returns a 64-bit little-endian target.
func Target64() Target {
	return Target{ByteOrder: binary.LittleEndian, WordSize: 8}
}

// Valid reports whether the target describes a machine model this
// library can encode for.
func (t Target) Valid() bool {
	return t.ByteOrder != nil && (t.WordSize == 4 || t.WordSize == 8)
}

// PairSize returns the size in bytes of one auxiliary-vector entry,
// a {tag, value} pair of two machine words.
func (t Target) PairSize() int {
	return 2 * t.WordSize
}

// FitsWord reports whether v is representable in one target word.
func (t Target) FitsWord(v uint64) bool {
	return t.WordSize == 8 || v <= 0xFFFFFFFF
}

// Word decodes one machine word from the front of b.
func (t Target) Word(b []byte) uint64 {
	if t.WordSize == 4 {
		return uint64(t.ByteOrder.Uint32(b))
	}
	return t.ByteOrder.Uint64(b)
}

// PutWord encodes v as one machine word into the front of b. The value
// must fit the word size; callers check with FitsWord first.
func (t Target) PutWord(b []byte, v uint64) {
	if t.WordSize == 4 {
		t.ByteOrder.PutUint32(b, uint32(v))
		return
	}
	t.ByteOrder.PutUint64(b, v)
}
