//go:build !unix

package hostmem

import "github.com/wippyai/stack-image/errors"

// Region is an anonymous private memory mapping. Not available on this
// platform.
type Region struct{}

// Map returns an error on platforms without mmap support.
func Map(size int) (*Region, error) {
	return nil, errors.Unsupported(errors.PhasePlace, "anonymous memory mappings")
}

func (r *Region) Bytes() []byte { return nil }
func (r *Region) Addr() uintptr { return 0 }
func (r *Region) Top() uintptr  { return 0 }
func (r *Region) Size() int     { return 0 }
func (r *Region) Unmap() error  { return nil }
