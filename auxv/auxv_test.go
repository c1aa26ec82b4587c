package auxv

import (
	"bytes"
	"strings"
	"testing"

	"github.com/wippyai/stack-image/errors"
)

func TestTag_Referenced(t *testing.T) {
	referenced := []Tag{TagPlatform, TagBasePlatform, TagExecFn, TagRandom}
	for _, tag := range referenced {
		if !tag.Referenced() {
			t.Errorf("%s should be referenced", tag)
		}
	}
	immediate := []Tag{TagNull, TagUID, TagEGID, TagPagesz, TagEntry, TagHwCap2}
	for _, tag := range immediate {
		if tag.Referenced() {
			t.Errorf("%s should not be referenced", tag)
		}
	}
	if TagRandom.NulTerminated() {
		t.Error("AT_RANDOM payload is raw bytes, not a string")
	}
	if !TagExecFn.NulTerminated() {
		t.Error("AT_EXECFN payload is a NUL-terminated string")
	}
}

func TestTag_String(t *testing.T) {
	if got := TagSysinfoEhdr.String(); got != "AT_SYSINFO_EHDR" {
		t.Errorf("String() = %q, want AT_SYSINFO_EHDR", got)
	}
	if got := Tag(47).String(); got != "AT_47" {
		t.Errorf("String() = %q, want AT_47", got)
	}
}

func TestVar_PayloadSize(t *testing.T) {
	tests := []struct {
		name string
		v    Var
		want int
	}{
		{"immediate", UID(1000), 0},
		{"null", Null(), 0},
		{"string", Platform("x86_64"), 7},
		{"string with trailing NUL", Platform("x86_64\x00"), 7},
		{"empty string", Platform(""), 1},
		{"random", Random(make([]byte, 16)), 16},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.v.PayloadSize(); got != tt.want {
				t.Errorf("PayloadSize() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestVar_Validate(t *testing.T) {
	tests := []struct {
		name    string
		v       Var
		wantErr errors.Kind
	}{
		{"immediate always valid", EGID(11337), ""},
		{"valid string", ExecFn("/bin/true"), ""},
		{"trailing NUL ok", ExecFn("/bin/true\x00"), ""},
		{"interim NUL", ExecFn("/bin\x00/true"), errors.KindInteriorNUL},
		{"random exact", Random(make([]byte, 16)), ""},
		{"random short", Random(make([]byte, 3)), errors.KindPayloadSize},
		{"random long", Random(make([]byte, 17)), errors.KindPayloadSize},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.v.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate() = %v, want nil", err)
				}
				return
			}
			serr, ok := err.(*errors.Error)
			if !ok {
				t.Fatalf("Validate() = %v, want *errors.Error", err)
			}
			if serr.Kind != tt.wantErr {
				t.Errorf("kind = %q, want %q", serr.Kind, tt.wantErr)
			}
		})
	}
}

func TestVar_Equal(t *testing.T) {
	if !Platform("abc").Equal(Platform("abc\x00")) {
		t.Error("payloads should compare NUL-normalized")
	}
	if Platform("abc").Equal(BasePlatform("abc")) {
		t.Error("different tags should not be equal")
	}
	if !UID(5).Equal(UID(5)) || UID(5).Equal(UID(6)) {
		t.Error("immediate comparison broken")
	}
}

func TestVar_String(t *testing.T) {
	if got := UID(31337).String(); got != "AT_UID(31337)" {
		t.Errorf("String() = %q", got)
	}
	if got := ExecFn("/bin/sh").String(); !strings.Contains(got, `"/bin/sh"`) {
		t.Errorf("String() = %q", got)
	}
	if got := Null().String(); got != "AT_NULL" {
		t.Errorf("String() = %q", got)
	}
}

func TestRandom_CopiesInput(t *testing.T) {
	seed := []byte{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15}
	v := Random(seed)
	seed[0] = 0xFF
	if bytes.Equal(v.Payload(), seed) {
		t.Error("Random should copy the payload, not alias it")
	}
}
