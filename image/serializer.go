package image

import (
	stackimage "github.com/wippyai/stack-image"
	"github.com/wippyai/stack-image/auxv"
	"github.com/wippyai/stack-image/errors"
)

// serializer owns the destination buffer and six monotonic write cursors,
// one pair (entries cursor, data cursor) per logical array. It is the only
// type that writes layout bytes; all access goes through the
// bounds-checked putWord/putBytes primitives.
//
// Cursor layout, fixed region order. The data areas are ordered auxv,
// argv, envv, distinct from the entries order:
//
//	argc | argv entries | envv entries | auxv entries | auxv data | argv data | envv data
type serializer struct {
	buf    []byte
	target stackimage.Target
	base   uint64

	offArgv     int
	offEnvv     int
	offAuxv     int
	offAuxvData int
	offArgvData int
	offEnvvData int
}

// newSerializer derives the six initial cursor offsets by summing the
// region sizes in fixed order. The buffer must be zero-initialized and at
// least total bytes long; sentinel entries are never written explicitly.
func newSerializer(buf []byte, t stackimage.Target, base uint64, s regionSizes) (*serializer, error) {
	total := s.total(t)
	if len(buf) < total {
		return nil, errors.OutOfBounds(errors.PhaseSerialize, 0, uint64(total), uint64(len(buf)))
	}

	offArgv := t.WordSize // argc occupies offset 0
	offEnvv := offArgv + s.argvEntries
	offAuxv := offEnvv + s.envvEntries
	offAuxvData := offAuxv + s.auxvEntries
	offArgvData := offAuxvData + s.auxvData
	offEnvvData := offArgvData + s.argvData

	return &serializer{
		buf:         buf,
		target:      t,
		base:        base,
		offArgv:     offArgv,
		offEnvv:     offEnvv,
		offAuxv:     offAuxv,
		offAuxvData: offAuxvData,
		offArgvData: offArgvData,
		offEnvvData: offEnvvData,
	}, nil
}

// putWord stores one machine word at the given byte offset.
func (s *serializer) putWord(off int, v uint64) error {
	if off < 0 || off+s.target.WordSize > len(s.buf) {
		return errors.OutOfBounds(errors.PhaseSerialize, uint64(off), uint64(s.target.WordSize), uint64(len(s.buf)))
	}
	if !s.target.FitsWord(v) {
		return errors.Overflow(errors.PhaseSerialize, v, s.target.WordSize)
	}
	s.target.PutWord(s.buf[off:], v)
	return nil
}

// putBytes stores raw bytes at the given byte offset.
func (s *serializer) putBytes(off int, data []byte) error {
	if off < 0 || off+len(data) > len(s.buf) {
		return errors.OutOfBounds(errors.PhaseSerialize, uint64(off), uint64(len(data)), uint64(len(s.buf)))
	}
	copy(s.buf[off:], data)
	return nil
}

// checkOrdering re-verifies the six-way monotonic cursor invariant. A
// violation is an internal sizing bug, not caller input: construction
// must stop immediately rather than risk a malformed layout, so it
// panics.
func (s *serializer) checkOrdering() {
	ok := s.offArgv <= s.offEnvv &&
		s.offEnvv <= s.offAuxv &&
		s.offAuxv <= s.offAuxvData &&
		s.offAuxvData <= s.offArgvData &&
		s.offArgvData <= s.offEnvvData &&
		s.offEnvvData <= len(s.buf)
	if !ok {
		panic(errors.Ordering(
			"cursor invariant violated: argv=%d envv=%d auxv=%d auxv_data=%d argv_data=%d envv_data=%d len=%d",
			s.offArgv, s.offEnvv, s.offAuxv, s.offAuxvData, s.offArgvData, s.offEnvvData, len(s.buf)))
	}
}

// writeArgc stores the argument count as the leading word.
func (s *serializer) writeArgc(argc int) error {
	if err := s.putWord(0, uint64(argc)); err != nil {
		return err
	}
	s.checkOrdering()
	return nil
}

// writeCString stores the future absolute address of data at the entries
// cursor, copies the bytes to the data cursor, and advances both. data
// already carries its trailing NUL.
func (s *serializer) writeCString(data []byte, entryOff, dataOff *int) error {
	addr := s.base + uint64(*dataOff)
	if err := s.putWord(*entryOff, addr); err != nil {
		return err
	}
	*entryOff += s.target.WordSize

	if err := s.putBytes(*dataOff, data); err != nil {
		return err
	}
	*dataOff += len(data)
	return nil
}

// writeArgument stores one argument pointer and its string data.
func (s *serializer) writeArgument(arg []byte) error {
	if err := s.writeCString(arg, &s.offArgv, &s.offArgvData); err != nil {
		return err
	}
	s.checkOrdering()
	return nil
}

// writeEnvironmentVariable stores one envp pointer and its string data.
func (s *serializer) writeEnvironmentVariable(env []byte) error {
	if err := s.writeCString(env, &s.offEnvv, &s.offEnvvData); err != nil {
		return err
	}
	s.checkOrdering()
	return nil
}

// writePair stores a raw {tag, value} pair at the auxv entries cursor.
func (s *serializer) writePair(raw auxv.Raw) error {
	if err := s.putWord(s.offAuxv, raw.Tag); err != nil {
		return err
	}
	if err := s.putWord(s.offAuxv+s.target.WordSize, raw.Value); err != nil {
		return err
	}
	s.offAuxv += s.target.PairSize()
	return nil
}

// writeAuxiliary stores one auxiliary entry. Immediate kinds go inline
// into the entries array; referenced kinds store the payload's future
// address there and the payload itself in the auxv data area.
func (s *serializer) writeAuxiliary(v auxv.Var) error {
	if !v.Referenced() {
		if err := s.writePair(auxv.Raw{Tag: uint64(v.Tag()), Value: v.Value()}); err != nil {
			return err
		}
		s.checkOrdering()
		return nil
	}

	if err := v.Validate(); err != nil {
		return errors.Wrap(errors.PhaseSerialize, errors.KindInvalidData, err, "invalid auxiliary payload")
	}

	addr := s.base + uint64(s.offAuxvData)
	if err := s.writePair(auxv.Raw{Tag: uint64(v.Tag()), Value: addr}); err != nil {
		return err
	}

	payload := v.Payload()
	if err := s.putBytes(s.offAuxvData, payload); err != nil {
		return err
	}
	s.offAuxvData += len(payload)

	if v.Tag().NulTerminated() {
		if err := s.putBytes(s.offAuxvData, []byte{0}); err != nil {
			return err
		}
		s.offAuxvData++
	}

	s.checkOrdering()
	return nil
}
