package main

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"

	stackimage "github.com/wippyai/stack-image"
	"github.com/wippyai/stack-image/auxv"
	"github.com/wippyai/stack-image/image"
)

// imageSpec is the TOML description of a stack image:
//
//	word-size  = 8            # 4 or 8, default native
//	byte-order = "little"     # "little" or "big", default native
//	base       = 0x7fff0000   # default placement address
//	args       = ["/bin/cat", "-n"]
//	env        = ["PATH=/bin", "HOME=/root"]
//
//	[[aux]]
//	tag   = "AT_PAGESZ"
//	value = 4096
//
//	[[aux]]
//	tag  = "AT_EXECFN"
//	data = "/bin/cat"
//
//	[[aux]]
//	tag    = "AT_RANDOM"
//	random = "000102030405060708090a0b0c0d0e0f"
type imageSpec struct {
	WordSize  int       `toml:"word-size"`
	ByteOrder string    `toml:"byte-order"`
	Base      uint64    `toml:"base"`
	Args      []string  `toml:"args"`
	Env       []string  `toml:"env"`
	Aux       []auxSpec `toml:"aux"`
}

type auxSpec struct {
	Tag    string `toml:"tag"`
	Value  uint64 `toml:"value"`
	Data   string `toml:"data"`
	Random string `toml:"random"`
}

func loadSpec(path string) (*imageSpec, error) {
	var spec imageSpec
	if _, err := toml.DecodeFile(path, &spec); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return &spec, nil
}

func (s *imageSpec) target() (stackimage.Target, error) {
	t := stackimage.Native()
	if s.WordSize != 0 {
		if s.WordSize != 4 && s.WordSize != 8 {
			return t, fmt.Errorf("word-size must be 4 or 8, got %d", s.WordSize)
		}
		t.WordSize = s.WordSize
	}
	switch strings.ToLower(s.ByteOrder) {
	case "":
	case "little":
		t.ByteOrder = binary.LittleEndian
	case "big":
		t.ByteOrder = binary.BigEndian
	default:
		return t, fmt.Errorf("byte-order must be %q or %q, got %q", "little", "big", s.ByteOrder)
	}
	return t, nil
}

// builder constructs a populated image builder from the description.
func (s *imageSpec) builder() (*image.Builder, error) {
	t, err := s.target()
	if err != nil {
		return nil, err
	}
	b := image.NewBuilderFor(t)

	for _, arg := range s.Args {
		if err := b.AddArgument(arg); err != nil {
			return nil, err
		}
	}
	for _, env := range s.Env {
		if err := b.AddEnvironmentVariable(env); err != nil {
			return nil, err
		}
	}
	for i, a := range s.Aux {
		v, err := a.variable()
		if err != nil {
			return nil, fmt.Errorf("aux entry %d: %w", i, err)
		}
		b.AddAuxiliary(v)
	}
	return b, nil
}

func (a *auxSpec) variable() (auxv.Var, error) {
	tag, err := parseTag(a.Tag)
	if err != nil {
		return auxv.Var{}, err
	}

	switch {
	case a.Random != "":
		if tag != auxv.TagRandom {
			return auxv.Var{}, fmt.Errorf("random payload only valid for AT_RANDOM, not %s", tag)
		}
		raw, err := hex.DecodeString(a.Random)
		if err != nil {
			return auxv.Var{}, fmt.Errorf("random payload: %w", err)
		}
		if len(raw) != auxv.RandomLen {
			return auxv.Var{}, fmt.Errorf("random payload must be %d bytes, got %d", auxv.RandomLen, len(raw))
		}
		return auxv.Random(raw), nil

	case a.Data != "":
		switch tag {
		case auxv.TagPlatform:
			return auxv.Platform(a.Data), nil
		case auxv.TagBasePlatform:
			return auxv.BasePlatform(a.Data), nil
		case auxv.TagExecFn:
			return auxv.ExecFn(a.Data), nil
		default:
			return auxv.Var{}, fmt.Errorf("string payload not valid for %s", tag)
		}

	default:
		if tag.Referenced() {
			return auxv.Var{}, fmt.Errorf("%s requires a payload", tag)
		}
		return auxv.Immediate(tag, a.Value), nil
	}
}

// parseTag accepts either an AT_* name or a decimal tag value.
func parseTag(s string) (auxv.Tag, error) {
	if s == "" {
		return 0, fmt.Errorf("aux entry missing tag")
	}
	if tag, ok := auxv.TagByName(s); ok {
		return tag, nil
	}
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("unknown tag %q", s)
	}
	return auxv.Tag(n), nil
}
