package main

import (
	"os"
	"path/filepath"
	"testing"

	stackimage "github.com/wippyai/stack-image"
	"github.com/wippyai/stack-image/auxv"
	"github.com/wippyai/stack-image/image"
)

const sampleSpec = `
word-size  = 8
byte-order = "little"
base       = 0x10000
args       = ["/bin/cat", "-n"]
env        = ["PATH=/bin"]

[[aux]]
tag   = "AT_PAGESZ"
value = 4096

[[aux]]
tag  = "AT_EXECFN"
data = "/bin/cat"

[[aux]]
tag    = "AT_RANDOM"
random = "000102030405060708090a0b0c0d0e0f"
`

func writeSpec(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "image.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadSpecAndBuild(t *testing.T) {
	spec, err := loadSpec(writeSpec(t, sampleSpec))
	if err != nil {
		t.Fatal(err)
	}
	if spec.Base != 0x10000 {
		t.Errorf("base = 0x%x, want 0x10000", spec.Base)
	}

	b, err := spec.builder()
	if err != nil {
		t.Fatal(err)
	}
	buf, err := b.BuildFor(spec.Base)
	if err != nil {
		t.Fatal(err)
	}

	r := image.NewReaderAt(buf, stackimage.Target64(), spec.Base)
	if argc, err := r.Argc(); err != nil || argc != 2 {
		t.Fatalf("argc = %d, %v; want 2", argc, err)
	}

	it := r.Args()
	var args []string
	for s, ok := it.Next(); ok; s, ok = it.Next() {
		args = append(args, s)
	}
	if it.Err() != nil {
		t.Fatal(it.Err())
	}
	if len(args) != 2 || args[0] != "/bin/cat" || args[1] != "-n" {
		t.Errorf("args = %q", args)
	}

	aux := r.Auxv()
	var vars []auxv.Var
	for v, ok := aux.Next(); ok; v, ok = aux.Next() {
		vars = append(vars, v)
	}
	if aux.Err() != nil {
		t.Fatal(aux.Err())
	}
	if len(vars) != 3 {
		t.Fatalf("aux count = %d, want 3", len(vars))
	}
	if vars[0].Tag() != auxv.TagPagesz || vars[0].Value() != 4096 {
		t.Errorf("aux[0] = %v", vars[0])
	}
	if s, ok := vars[1].PayloadString(); !ok || s != "/bin/cat" {
		t.Errorf("aux[1] = %v", vars[1])
	}
	want := []byte{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15}
	if got := vars[2].Payload(); string(got) != string(want) {
		t.Errorf("aux[2] payload = %v", got)
	}
}

func TestSpecTargetValidation(t *testing.T) {
	for _, tt := range []struct {
		name string
		spec imageSpec
	}{
		{"bad word size", imageSpec{WordSize: 2}},
		{"bad byte order", imageSpec{ByteOrder: "middle"}},
	} {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := tt.spec.target(); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestAuxSpecErrors(t *testing.T) {
	for _, tt := range []struct {
		name string
		aux  auxSpec
	}{
		{"missing tag", auxSpec{}},
		{"unknown tag", auxSpec{Tag: "AT_BOGUS"}},
		{"string payload on immediate tag", auxSpec{Tag: "AT_UID", Data: "x"}},
		{"random payload on wrong tag", auxSpec{Tag: "AT_UID", Random: "00"}},
		{"short random payload", auxSpec{Tag: "AT_RANDOM", Random: "0001"}},
		{"bad random hex", auxSpec{Tag: "AT_RANDOM", Random: "zz"}},
		{"referenced tag without payload", auxSpec{Tag: "AT_PLATFORM"}},
	} {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := tt.aux.variable(); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestParseTagNumeric(t *testing.T) {
	tag, err := parseTag("42")
	if err != nil {
		t.Fatal(err)
	}
	if tag != auxv.Tag(42) {
		t.Errorf("tag = %d, want 42", tag)
	}
}
