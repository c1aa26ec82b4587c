package auxv

import (
	"bytes"
	"fmt"

	"github.com/wippyai/stack-image/errors"
)

// RandomLen is the exact payload size of an AT_RANDOM entry.
const RandomLen = 16

// Var is one auxiliary-vector entry. The set of kinds is closed: an entry
// is either the Null terminator, an immediate kind carrying one word-sized
// scalar inline, or a referenced kind whose payload lives in the auxv data
// area and is reached through an absolute address.
//
// The zero value is the Null terminator.
type Var struct {
	data  []byte
	value uint64
	tag   Tag
}

// Null returns the terminator entry. Builders manage the terminator
// automatically; callers never need to add it themselves.
func Null() Var { return Var{tag: TagNull} }

// Immediate returns an entry whose scalar payload is stored inline in the
// entries array. Use this for tags without a dedicated constructor.
func Immediate(tag Tag, value uint64) Var {
	return Var{tag: tag, value: value}
}

// Dedicated constructors for the common immediate kinds.

func ExecFD(fd uint64) Var     { return Immediate(TagExecFD, fd) }
func Phdr(addr uint64) Var     { return Immediate(TagPhdr, addr) }
func Phent(size uint64) Var    { return Immediate(TagPhent, size) }
func Phnum(n uint64) Var       { return Immediate(TagPhnum, n) }
func Pagesz(size uint64) Var   { return Immediate(TagPagesz, size) }
func Base(addr uint64) Var     { return Immediate(TagBase, addr) }
func Flags(flags uint64) Var   { return Immediate(TagFlags, flags) }
func Entry(addr uint64) Var    { return Immediate(TagEntry, addr) }
func NotELF(v uint64) Var      { return Immediate(TagNotELF, v) }
func UID(id uint64) Var        { return Immediate(TagUID, id) }
func EUID(id uint64) Var       { return Immediate(TagEUID, id) }
func GID(id uint64) Var        { return Immediate(TagGID, id) }
func EGID(id uint64) Var       { return Immediate(TagEGID, id) }
func HwCap(caps uint64) Var    { return Immediate(TagHwCap, caps) }
func HwCap2(caps uint64) Var   { return Immediate(TagHwCap2, caps) }
func Clktck(hz uint64) Var     { return Immediate(TagClktck, hz) }
func Secure(v uint64) Var      { return Immediate(TagSecure, v) }
func Sysinfo(addr uint64) Var  { return Immediate(TagSysinfo, addr) }
func SysinfoEhdr(a uint64) Var { return Immediate(TagSysinfoEhdr, a) }
func MinSigStkSz(n uint64) Var { return Immediate(TagMinSigStkSz, n) }

// Platform returns an AT_PLATFORM entry with a NUL-terminated string
// payload in the auxv data area.
func Platform(s string) Var {
	return Var{tag: TagPlatform, data: []byte(s)}
}

// BasePlatform returns an AT_BASE_PLATFORM entry with a NUL-terminated
// string payload in the auxv data area.
func BasePlatform(s string) Var {
	return Var{tag: TagBasePlatform, data: []byte(s)}
}

// ExecFn returns an AT_EXECFN entry with a NUL-terminated string payload
// in the auxv data area.
func ExecFn(path string) Var {
	return Var{tag: TagExecFn, data: []byte(path)}
}

// Random returns an AT_RANDOM entry. The payload must be exactly RandomLen
// bytes; the length is checked by Validate at build time, not here.
func Random(b []byte) Var {
	data := make([]byte, len(b))
	copy(data, b)
	return Var{tag: TagRandom, data: data}
}

// Tag returns the entry's tag.
func (v Var) Tag() Tag { return v.tag }

// Value returns the inline scalar of an immediate entry. For referenced
// entries it is zero; the serialized value is the payload's address, known
// only once the image's base address is.
func (v Var) Value() uint64 { return v.value }

// IsNull reports whether the entry is the terminator.
func (v Var) IsNull() bool { return v.tag == TagNull }

// Referenced reports whether the entry's payload lives in the auxv data
// area.
func (v Var) Referenced() bool { return v.tag.Referenced() }

// Payload returns the referenced payload with any trailing NUL stripped.
// It returns nil for immediate entries.
func (v Var) Payload() []byte {
	if !v.Referenced() {
		return nil
	}
	if v.tag.NulTerminated() && len(v.data) > 0 && v.data[len(v.data)-1] == 0 {
		return v.data[:len(v.data)-1]
	}
	return v.data
}

// PayloadString returns the payload of a string-carrying entry.
func (v Var) PayloadString() (string, bool) {
	if !v.tag.NulTerminated() {
		return "", false
	}
	return string(v.Payload()), true
}

// PayloadSize returns the number of bytes the entry occupies in the auxv
// data area, including the trailing NUL for string payloads. Immediate
// entries occupy none.
func (v Var) PayloadSize() int {
	switch {
	case v.tag == TagRandom:
		return RandomLen
	case v.Referenced():
		return len(v.Payload()) + 1
	default:
		return 0
	}
}

// Validate checks the structural constraints of the entry: string payloads
// must not contain interim NUL bytes and an AT_RANDOM payload must be
// exactly RandomLen bytes.
func (v Var) Validate() error {
	switch {
	case v.tag == TagRandom:
		if len(v.data) != RandomLen {
			return errors.PayloadSize(errors.PhaseBuild, []string{v.tag.String()}, len(v.data), RandomLen)
		}
	case v.tag.NulTerminated():
		if pos := bytes.IndexByte(v.data, 0); pos >= 0 && pos != len(v.data)-1 {
			return errors.InteriorNUL(errors.PhaseBuild, []string{v.tag.String()}, pos)
		}
	}
	return nil
}

// Equal reports whether two entries have the same tag and the same
// payload, comparing string payloads NUL-normalized.
func (v Var) Equal(o Var) bool {
	if v.tag != o.tag || v.value != o.value {
		return false
	}
	return bytes.Equal(v.Payload(), o.Payload())
}

// String renders the entry for logs and the inspector.
func (v Var) String() string {
	switch {
	case v.IsNull():
		return "AT_NULL"
	case v.tag == TagRandom:
		return fmt.Sprintf("%s(%x)", v.tag, v.data)
	case v.Referenced():
		return fmt.Sprintf("%s(%q)", v.tag, v.Payload())
	default:
		return fmt.Sprintf("%s(%d)", v.tag, v.value)
	}
}

// Raw is the on-wire form of one auxv entry: a {tag, value} pair of two
// machine words. For referenced kinds Value is the absolute address of the
// payload, not the payload itself.
type Raw struct {
	Tag   uint64
	Value uint64
}
