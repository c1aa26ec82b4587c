package image

import (
	"unsafe"
)

// This file concentrates every unchecked memory access the package
// performs. Everything above it works on offsets into Go slices; only
// these helpers touch raw addresses.

// alignedBuffer returns a zeroed byte buffer of n bytes whose backing
// storage is word-aligned. The alignment comes from the uint64 backing
// array; Go's allocator never under-aligns it.
func alignedBuffer(n int) []byte {
	words := (n + 7) / 8
	if words == 0 {
		words = 1
	}
	backing := make([]uint64, words)
	return unsafe.Slice((*byte)(unsafe.Pointer(&backing[0])), n)
}

// bufferBase returns the address of the buffer's first byte.
func bufferBase(b []byte) uintptr {
	return uintptr(unsafe.Pointer(unsafe.SliceData(b)))
}

// rawWindow exposes the memory range [base, base+n) as a byte slice. The
// caller guarantees the range is mapped and writable.
func rawWindow(base uintptr, n int) []byte {
	return unsafe.Slice((*byte)(unsafe.Pointer(base)), n)
}

// derefCString reads the NUL-terminated string at addr from the current
// process's address space. The reader trusts that addr is valid; there is
// no bound it could check against.
func derefCString(addr uintptr) string {
	n := 0
	for *(*byte)(unsafe.Pointer(addr + uintptr(n))) != 0 {
		n++
	}
	return string(unsafe.Slice((*byte)(unsafe.Pointer(addr)), n))
}

// derefBytes copies n bytes at addr out of the current process's address
// space.
func derefBytes(addr uintptr, n int) []byte {
	out := make([]byte, n)
	copy(out, unsafe.Slice((*byte)(unsafe.Pointer(addr)), n))
	return out
}
