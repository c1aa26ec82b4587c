//go:build unix

package hostmem

import (
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/wippyai/stack-image/errors"
)

// Region is an anonymous private memory mapping.
type Region struct {
	data []byte
}

// Map creates a readable and writable anonymous mapping of at least size
// bytes, rounded up to the page size.
func Map(size int) (*Region, error) {
	if size <= 0 {
		return nil, errors.New(errors.PhasePlace, errors.KindInvalidData).
			Detail("mapping size must be positive, got %d", size).
			Build()
	}
	page := unix.Getpagesize()
	size = (size + page - 1) &^ (page - 1)

	data, err := unix.Mmap(-1, 0, size,
		unix.PROT_READ|unix.PROT_WRITE,
		unix.MAP_PRIVATE|unix.MAP_ANON)
	if err != nil {
		return nil, errors.Wrap(errors.PhasePlace, errors.KindOutOfBounds, err, "mmap failed")
	}
	return &Region{data: data}, nil
}

// Bytes returns the mapped memory. The slice is invalid after Unmap.
func (r *Region) Bytes() []byte {
	return r.data
}

// Addr returns the address of the first byte of the mapping.
func (r *Region) Addr() uintptr {
	return uintptr(unsafe.Pointer(unsafe.SliceData(r.data)))
}

// Top returns the address one past the last byte of the mapping, the
// value to hand to image.BuildOnStack.
func (r *Region) Top() uintptr {
	return r.Addr() + uintptr(len(r.data))
}

// Size returns the mapped size in bytes.
func (r *Region) Size() int {
	return len(r.data)
}

// Unmap releases the mapping. The Region must not be used afterwards.
func (r *Region) Unmap() error {
	if r.data == nil {
		return nil
	}
	data := r.data
	r.data = nil
	if err := unix.Munmap(data); err != nil {
		return errors.Wrap(errors.PhasePlace, errors.KindOutOfBounds, err, "munmap failed")
	}
	return nil
}
