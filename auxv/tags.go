package auxv

// Tag is the key of an auxiliary-vector entry. The values mirror the AT_*
// constants from the Linux UAPI (include/uapi/linux/auxvec.h) plus the
// architecture-independent entries from the System V gABI.
type Tag uint64

const (
	TagNull         Tag = 0  // end of vector
	TagIgnore       Tag = 1  // entry should be ignored
	TagExecFD       Tag = 2  // file descriptor of program
	TagPhdr         Tag = 3  // program headers for program
	TagPhent        Tag = 4  // size of program header entry
	TagPhnum        Tag = 5  // number of program headers
	TagPagesz       Tag = 6  // system page size
	TagBase         Tag = 7  // base address of interpreter
	TagFlags        Tag = 8  // flags
	TagEntry        Tag = 9  // entry point of program
	TagNotELF       Tag = 10 // program is not ELF
	TagUID          Tag = 11 // real uid
	TagEUID         Tag = 12 // effective uid
	TagGID          Tag = 13 // real gid
	TagEGID         Tag = 14 // effective gid
	TagPlatform     Tag = 15 // string identifying CPU for optimizations
	TagHwCap        Tag = 16 // arch dependent hints at CPU capabilities
	TagClktck       Tag = 17 // frequency at which times() increments
	TagSecure       Tag = 23 // secure mode boolean
	TagBasePlatform Tag = 24 // string identifying real platform, may differ from TagPlatform
	TagRandom       Tag = 25 // address of 16 random bytes
	TagHwCap2       Tag = 26 // extension of TagHwCap
	TagExecFn       Tag = 31 // filename of program
	TagSysinfo      Tag = 32 // entry point of the vDSO syscall stub
	TagSysinfoEhdr  Tag = 33 // address of the vDSO ELF header
	TagMinSigStkSz  Tag = 51 // minimal stack size for signal delivery
)

var tagNames = map[Tag]string{
	TagNull:         "AT_NULL",
	TagIgnore:       "AT_IGNORE",
	TagExecFD:       "AT_EXECFD",
	TagPhdr:         "AT_PHDR",
	TagPhent:        "AT_PHENT",
	TagPhnum:        "AT_PHNUM",
	TagPagesz:       "AT_PAGESZ",
	TagBase:         "AT_BASE",
	TagFlags:        "AT_FLAGS",
	TagEntry:        "AT_ENTRY",
	TagNotELF:       "AT_NOTELF",
	TagUID:          "AT_UID",
	TagEUID:         "AT_EUID",
	TagGID:          "AT_GID",
	TagEGID:         "AT_EGID",
	TagPlatform:     "AT_PLATFORM",
	TagHwCap:        "AT_HWCAP",
	TagClktck:       "AT_CLKTCK",
	TagSecure:       "AT_SECURE",
	TagBasePlatform: "AT_BASE_PLATFORM",
	TagRandom:       "AT_RANDOM",
	TagHwCap2:       "AT_HWCAP2",
	TagExecFn:       "AT_EXECFN",
	TagSysinfo:      "AT_SYSINFO",
	TagSysinfoEhdr:  "AT_SYSINFO_EHDR",
	TagMinSigStkSz:  "AT_MINSIGSTKSZ",
}

// String returns the AT_* name of the tag, or its decimal value for tags
// this library has no name for.
func (t Tag) String() string {
	if name, ok := tagNames[t]; ok {
		return name
	}
	return "AT_" + itoa(uint64(t))
}

// TagByName resolves an AT_* name to its tag.
func TagByName(name string) (Tag, bool) {
	for t, n := range tagNames {
		if n == name {
			return t, true
		}
	}
	return 0, false
}

// Referenced reports whether entries with this tag store their payload in
// the auxv data area instead of inline in the entries array.
func (t Tag) Referenced() bool {
	switch t {
	case TagPlatform, TagBasePlatform, TagExecFn, TagRandom:
		return true
	}
	return false
}

// NulTerminated reports whether the referenced payload is a NUL-terminated
// string. TagRandom is the only referenced tag with a raw byte payload.
func (t Tag) NulTerminated() bool {
	return t.Referenced() && t != TagRandom
}

func itoa(v uint64) string {
	if v == 0 {
		return "0"
	}
	var buf [20]byte
	i := len(buf)
	for v > 0 {
		i--
		buf[i] = byte('0' + v%10)
		v /= 10
	}
	return string(buf[i:])
}
