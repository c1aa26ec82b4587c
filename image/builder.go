package image

import (
	"bytes"

	"go.uber.org/zap"

	stackimage "github.com/wippyai/stack-image"
	"github.com/wippyai/stack-image/auxv"
	"github.com/wippyai/stack-image/errors"
)

// stackAlign is the alignment of the placed image's base address. The
// x86_64 calling convention requires a 16-byte aligned stack on entry;
// twice the word size gives the same guarantee for 32-bit targets.
func stackAlign(t stackimage.Target) uint64 {
	return uint64(2 * t.WordSize)
}

// Builder accumulates arguments, environment variables, and auxiliary
// entries, then serializes them into a stack image with one of the build
// calls. Insertion order is preserved and becomes output order.
//
// A Builder is single-use: exactly one build call consumes it.
type Builder struct {
	target stackimage.Target
	argv   [][]byte // normalized, exactly one trailing NUL each
	envv   [][]byte
	auxv   []auxv.Var
	built  bool
}

// NewBuilder creates a builder for the host machine model.
func NewBuilder() *Builder {
	return NewBuilderFor(stackimage.Native())
}

// NewBuilderFor creates a builder for an explicit target, e.g. a wasm32
// guest or a foreign-endian machine.
func NewBuilderFor(t stackimage.Target) *Builder {
	if !t.Valid() {
		panic(errors.InvalidData(errors.PhaseBuild, nil, "target word size must be 4 or 8 with a byte order"))
	}
	return &Builder{target: t}
}

// Target returns the machine model the builder encodes for.
func (b *Builder) Target() stackimage.Target { return b.target }

// normalize validates the NUL discipline of s and returns it with exactly
// one trailing NUL byte.
func normalize(s string, path string) ([]byte, error) {
	if pos := bytes.IndexByte([]byte(s), 0); pos >= 0 && pos != len(s)-1 {
		return nil, errors.InteriorNUL(errors.PhaseBuild, []string{path}, pos)
	}
	data := []byte(s)
	if len(data) == 0 || data[len(data)-1] != 0 {
		data = append(data, 0)
	}
	return data, nil
}

// AddArgument appends one argument string. A terminating NUL byte is not
// necessary; interim NUL bytes are rejected.
func (b *Builder) AddArgument(arg string) error {
	data, err := normalize(arg, "argv")
	if err != nil {
		return err
	}
	b.argv = append(b.argv, data)
	return nil
}

// AddEnvironmentVariable appends one environment string. The value must
// follow key=value syntax with a non-empty key; the value may be empty.
// NUL discipline is the same as for AddArgument.
func (b *Builder) AddEnvironmentVariable(env string) error {
	data, err := normalize(env, "envv")
	if err != nil {
		return err
	}
	key, _, found := bytes.Cut(data[:len(data)-1], []byte{'='})
	if !found {
		return errors.MalformedEnv([]string{"envv"}, "missing '=' separator")
	}
	if len(key) == 0 {
		return errors.MalformedEnv([]string{"envv"}, "empty key")
	}
	b.envv = append(b.envv, data)
	return nil
}

// AddAuxiliary appends one auxiliary entry. An explicit Null terminator is
// silently discarded; the build call manages the terminator itself.
// Payload constraints are checked at build time.
func (b *Builder) AddAuxiliary(v auxv.Var) {
	if v.IsNull() {
		return
	}
	b.auxv = append(b.auxv, v)
}

// regionSizes holds the exact byte sizes of the six regions that follow
// argc, in layout order for the entry arrays and data-area order auxv,
// argv, envv for the payloads.
type regionSizes struct {
	argvEntries int
	envvEntries int
	auxvEntries int
	auxvData    int
	argvData    int
	envvData    int
}

func (s regionSizes) total(t stackimage.Target) int {
	return t.WordSize + s.argvEntries + s.envvEntries + s.auxvEntries +
		s.auxvData + s.argvData + s.envvData
}

// sizes computes the six region sizes. Each entry array includes one
// trailing sentinel; string data sizes include one NUL per string.
func (b *Builder) sizes() regionSizes {
	var s regionSizes
	s.argvEntries = (len(b.argv) + 1) * b.target.WordSize
	s.envvEntries = (len(b.envv) + 1) * b.target.WordSize
	s.auxvEntries = (len(b.auxv) + 1) * b.target.PairSize()
	for _, arg := range b.argv {
		s.argvData += len(arg)
	}
	for _, env := range b.envv {
		s.envvData += len(env)
	}
	for _, v := range b.auxv {
		s.auxvData += v.PayloadSize()
	}
	return s
}

// TotalSize returns the exact byte size of the serialized image,
// sentinels included.
func (b *Builder) TotalSize() int {
	return b.sizes().total(b.target)
}

// prepare marks the builder consumed and validates auxiliary payloads.
func (b *Builder) prepare() error {
	if b.built {
		return errors.InvalidData(errors.PhaseBuild, nil, "builder already consumed by a build call")
	}
	b.built = true
	for _, v := range b.auxv {
		if err := v.Validate(); err != nil {
			return err
		}
	}
	s := b.sizes()
	Logger().Debug("computed stack image regions",
		zap.Int("argv_entries", s.argvEntries),
		zap.Int("envv_entries", s.envvEntries),
		zap.Int("auxv_entries", s.auxvEntries),
		zap.Int("auxv_data", s.auxvData),
		zap.Int("argv_data", s.argvData),
		zap.Int("envv_data", s.envvData),
		zap.Int("total", s.total(b.target)))
	return nil
}

// serialize drives one serializer over a zeroed destination buffer whose
// contents will be interpreted at the given base address.
func (b *Builder) serialize(buf []byte, base uint64) error {
	s, err := newSerializer(buf, b.target, base, b.sizes())
	if err != nil {
		return err
	}
	if err := s.writeArgc(len(b.argv)); err != nil {
		return err
	}
	for _, arg := range b.argv {
		if err := s.writeArgument(arg); err != nil {
			return err
		}
	}
	for _, env := range b.envv {
		if err := s.writeEnvironmentVariable(env); err != nil {
			return err
		}
	}
	for _, v := range b.auxv {
		if err := s.writeAuxiliary(v); err != nil {
			return err
		}
	}
	// The three sentinels need no writes: the buffer is zeroed and each
	// entry array was sized with one spare slot.
	return nil
}

// Image is a heap-built stack image. Bytes is the serialized region and
// Base the address its embedded pointers were computed for, which for the
// heap path is the buffer's own address.
type Image struct {
	Bytes  []byte
	Base   uint64
	Target stackimage.Target
}

// Reader returns a reader over the image with identity address
// translation.
func (img *Image) Reader() *Reader {
	return NewReader(img.Bytes, img.Target)
}

// Build serializes into a freshly allocated, zeroed, word-aligned heap
// buffer and returns ownership of it. Embedded pointers hold the buffer's
// real addresses, so the image is readable in-process with identity
// translation.
func (b *Builder) Build() (*Image, error) {
	if err := b.prepare(); err != nil {
		return nil, err
	}
	buf := alignedBuffer(b.TotalSize())
	base := uint64(bufferBase(buf))
	if err := b.serialize(buf, base); err != nil {
		return nil, err
	}
	return &Image{Bytes: buf, Base: base, Target: b.target}, nil
}

// BuildFor serializes for a foreign base address without writing there.
// The returned bytes are only valid once copied to base in the target
// address space. base must be word-aligned.
func (b *Builder) BuildFor(base uint64) ([]byte, error) {
	if err := b.prepare(); err != nil {
		return nil, err
	}
	return b.buildFor(base)
}

func (b *Builder) buildFor(base uint64) ([]byte, error) {
	if base%uint64(b.target.WordSize) != 0 {
		return nil, errors.Misaligned(errors.PhaseSerialize, base, b.target.WordSize)
	}
	buf := make([]byte, b.TotalSize())
	if err := b.serialize(buf, base); err != nil {
		return nil, err
	}
	return buf, nil
}

// BuildInto places the image below top in the given address space. The
// base address is aligned down to twice the word size to satisfy the
// 16-byte stack alignment requirement on 64-bit targets. It returns the
// base address and the image size; memory between base+size and top is
// left untouched.
func (b *Builder) BuildInto(mem stackimage.Memory, top uint64) (base, size uint64, err error) {
	if err := b.prepare(); err != nil {
		return 0, 0, err
	}
	total := uint64(b.TotalSize())
	if top < total {
		return 0, 0, errors.OutOfBounds(errors.PhasePlace, 0, total, top)
	}
	base = (top - total) &^ (stackAlign(b.target) - 1)
	buf, err := b.buildFor(base)
	if err != nil {
		return 0, 0, err
	}
	if err := mem.Write(base, buf); err != nil {
		return 0, 0, errors.Wrap(errors.PhasePlace, errors.KindInvalidData, err, "write image to destination memory")
	}
	return base, total, nil
}

// BuildOnStack places the image directly below top in the caller's own
// address space, writing through raw memory. The memory range
// [top-size, top) must be mapped, writable, and free of concurrent
// aliasing; none of that is checked here. Only valid for the native
// target.
func (b *Builder) BuildOnStack(top uintptr) (base uintptr, size int, err error) {
	if b.target != stackimage.Native() {
		return 0, 0, errors.Unsupported(errors.PhasePlace, "raw placement for a non-native target")
	}
	if err := b.prepare(); err != nil {
		return 0, 0, err
	}
	total := b.TotalSize()
	if uint64(top) < uint64(total) {
		return 0, 0, errors.OutOfBounds(errors.PhasePlace, 0, uint64(total), uint64(top))
	}
	base = (top - uintptr(total)) &^ uintptr(stackAlign(b.target)-1)
	window := rawWindow(base, total)
	clear(window)
	if err := b.serialize(window, uint64(base)); err != nil {
		return 0, 0, err
	}
	return base, total, nil
}
