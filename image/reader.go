package image

import (
	"bytes"

	stackimage "github.com/wippyai/stack-image"
	"github.com/wippyai/stack-image/auxv"
	"github.com/wippyai/stack-image/errors"
)

// Reader parses a finished stack image back into its logical entries. It
// performs no mutation and can be shared.
//
// Embedded pointers are absolute addresses in the address space the image
// was built for. With identity translation (NewReader) they are
// dereferenced directly through the current process's memory; the reader
// trusts them to be valid. With a base override (NewReaderAt) they are
// resolved as offsets into the reader's own copy of the buffer, which is
// the safe path when the image was built for a foreign address space.
type Reader struct {
	buf        []byte
	target     stackimage.Target
	base       uint64
	translated bool
}

// NewReader parses buf with identity address translation: embedded
// pointers are addresses in the current process.
func NewReader(buf []byte, t stackimage.Target) *Reader {
	return &Reader{buf: buf, target: t}
}

// NewReaderAt parses buf as an image built for the given base address:
// an embedded pointer p refers to buf[p-base].
func NewReaderAt(buf []byte, t stackimage.Target, base uint64) *Reader {
	return &Reader{buf: buf, target: t, base: base, translated: true}
}

// word reads one machine word at the given byte offset.
func (r *Reader) word(off int) (uint64, error) {
	if off < 0 || off+r.target.WordSize > len(r.buf) {
		return 0, errors.OutOfBounds(errors.PhaseRead, uint64(off), uint64(r.target.WordSize), uint64(len(r.buf)))
	}
	return r.target.Word(r.buf[off:]), nil
}

// Argc reads the argument count from the leading word.
func (r *Reader) Argc() (uint64, error) {
	return r.word(0)
}

// derefString recovers the NUL-terminated string an embedded pointer
// refers to.
func (r *Reader) derefString(addr uint64) (string, error) {
	if !r.translated {
		return derefCString(uintptr(addr)), nil
	}
	off, err := r.resolve(addr, 1)
	if err != nil {
		return "", err
	}
	end := bytes.IndexByte(r.buf[off:], 0)
	if end < 0 {
		return "", errors.InvalidData(errors.PhaseRead, nil, "string payload missing NUL terminator")
	}
	return string(r.buf[off : off+end]), nil
}

// derefRaw recovers n payload bytes an embedded pointer refers to.
func (r *Reader) derefRaw(addr uint64, n int) ([]byte, error) {
	if !r.translated {
		return derefBytes(uintptr(addr), n), nil
	}
	off, err := r.resolve(addr, n)
	if err != nil {
		return nil, err
	}
	out := make([]byte, n)
	copy(out, r.buf[off:off+n])
	return out, nil
}

// resolve maps an encoded absolute address to an offset in buf.
func (r *Reader) resolve(addr uint64, n int) (int, error) {
	if addr < r.base || addr-r.base+uint64(n) > uint64(len(r.buf)) {
		return 0, errors.New(errors.PhaseRead, errors.KindOutOfBounds).
			Detail("address 0x%x outside image [0x%x, 0x%x)", addr, r.base, r.base+uint64(len(r.buf))).
			Value(addr).
			Build()
	}
	return int(addr - r.base), nil
}

// scanPointerArray returns the byte offset one past the zero sentinel of
// the pointer array starting at off.
func (r *Reader) scanPointerArray(off int) (int, error) {
	for {
		w, err := r.word(off)
		if err != nil {
			return 0, err
		}
		off += r.target.WordSize
		if w == 0 {
			return off, nil
		}
	}
}

// envpStart returns the byte offset of the envp pointer array.
func (r *Reader) envpStart() (int, error) {
	return r.scanPointerArray(r.target.WordSize)
}

// auxvStart returns the byte offset of the auxv entries array.
func (r *Reader) auxvStart() (int, error) {
	off, err := r.envpStart()
	if err != nil {
		return 0, err
	}
	return r.scanPointerArray(off)
}

// AddrIter is a lazy, finite scan over one pointer array. It stops at the
// zero sentinel; the entry count is discovered by the scan, not stored in
// the image. Obtain a fresh iterator to restart.
type AddrIter struct {
	r    *Reader
	off  int
	err  error
	done bool
}

// Next returns the next raw pointer value, or false when the sentinel or
// an error is reached.
func (it *AddrIter) Next() (uint64, bool) {
	if it.done {
		return 0, false
	}
	w, err := it.r.word(it.off)
	if err != nil {
		it.err = err
		it.done = true
		return 0, false
	}
	if w == 0 {
		it.done = true
		return 0, false
	}
	it.off += it.r.target.WordSize
	return w, true
}

// Err returns the error that terminated the scan, if any.
func (it *AddrIter) Err() error { return it.err }

func failedAddrIter(r *Reader, err error) *AddrIter {
	return &AddrIter{r: r, err: err, done: true}
}

// ArgvAddrs scans the raw argv pointer values.
func (r *Reader) ArgvAddrs() *AddrIter {
	return &AddrIter{r: r, off: r.target.WordSize}
}

// EnvpAddrs scans the raw envp pointer values.
func (r *Reader) EnvpAddrs() *AddrIter {
	off, err := r.envpStart()
	if err != nil {
		return failedAddrIter(r, err)
	}
	return &AddrIter{r: r, off: off}
}

// StringIter dereferences each pointer of an AddrIter and recovers the
// NUL-terminated string behind it.
type StringIter struct {
	addrs *AddrIter
	err   error
}

// Next returns the next reconstructed string.
func (it *StringIter) Next() (string, bool) {
	if it.err != nil {
		return "", false
	}
	addr, ok := it.addrs.Next()
	if !ok {
		it.err = it.addrs.Err()
		return "", false
	}
	s, err := it.addrs.r.derefString(addr)
	if err != nil {
		it.err = err
		return "", false
	}
	return s, true
}

// Err returns the error that terminated the scan, if any.
func (it *StringIter) Err() error { return it.err }

// Args reconstructs the argument strings in order.
func (r *Reader) Args() *StringIter {
	return &StringIter{addrs: r.ArgvAddrs()}
}

// Env reconstructs the environment strings in order.
func (r *Reader) Env() *StringIter {
	return &StringIter{addrs: r.EnvpAddrs()}
}

// AuxIter is a lazy scan over the auxiliary vector, stopping at the Null
// sentinel pair.
type AuxIter struct {
	r    *Reader
	off  int
	err  error
	done bool
}

// Next returns the next reconstructed auxiliary entry. Immediate kinds
// come straight from the stored scalar; referenced kinds dereference the
// stored address to rebuild their payload.
func (it *AuxIter) Next() (auxv.Var, bool) {
	if it.done {
		return auxv.Var{}, false
	}
	tag, err := it.r.word(it.off)
	if err != nil {
		it.err = err
		it.done = true
		return auxv.Var{}, false
	}
	value, err := it.r.word(it.off + it.r.target.WordSize)
	if err != nil {
		it.err = err
		it.done = true
		return auxv.Var{}, false
	}
	if auxv.Tag(tag) == auxv.TagNull {
		it.done = true
		return auxv.Var{}, false
	}
	it.off += it.r.target.PairSize()

	v, err := it.r.rebuildAux(auxv.Tag(tag), value)
	if err != nil {
		it.err = err
		it.done = true
		return auxv.Var{}, false
	}
	return v, true
}

// Err returns the error that terminated the scan, if any.
func (it *AuxIter) Err() error { return it.err }

// rebuildAux reconstructs one entry from its raw pair.
func (r *Reader) rebuildAux(tag auxv.Tag, value uint64) (auxv.Var, error) {
	switch tag {
	case auxv.TagPlatform, auxv.TagBasePlatform, auxv.TagExecFn:
		s, err := r.derefString(value)
		if err != nil {
			return auxv.Var{}, err
		}
		switch tag {
		case auxv.TagPlatform:
			return auxv.Platform(s), nil
		case auxv.TagBasePlatform:
			return auxv.BasePlatform(s), nil
		default:
			return auxv.ExecFn(s), nil
		}
	case auxv.TagRandom:
		b, err := r.derefRaw(value, auxv.RandomLen)
		if err != nil {
			return auxv.Var{}, err
		}
		return auxv.Random(b), nil
	default:
		return auxv.Immediate(tag, value), nil
	}
}

// Auxv scans the auxiliary vector, terminator excluded.
func (r *Reader) Auxv() *AuxIter {
	off, err := r.auxvStart()
	if err != nil {
		return &AuxIter{r: r, err: err, done: true}
	}
	return &AuxIter{r: r, off: off}
}

// ArgvCount counts argv entries by scanning to the sentinel.
func (r *Reader) ArgvCount() (int, error) {
	return count(r.ArgvAddrs())
}

// EnvpCount counts envp entries by scanning to the sentinel.
func (r *Reader) EnvpCount() (int, error) {
	return count(r.EnvpAddrs())
}

// AuxvCount counts auxiliary entries, terminator excluded.
func (r *Reader) AuxvCount() (int, error) {
	it := r.Auxv()
	n := 0
	for _, ok := it.Next(); ok; _, ok = it.Next() {
		n++
	}
	return n, it.Err()
}

func count(it *AddrIter) (int, error) {
	n := 0
	for _, ok := it.Next(); ok; _, ok = it.Next() {
		n++
	}
	return n, it.Err()
}
