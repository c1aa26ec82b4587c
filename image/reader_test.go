package image

import (
	"bytes"
	"testing"

	stackimage "github.com/wippyai/stack-image"
	"github.com/wippyai/stack-image/auxv"
)

func scenarioBuilder(t *testing.T, target stackimage.Target) (*Builder, []auxv.Var) {
	t.Helper()
	aux := []auxv.Var{
		auxv.EGID(11337),
		auxv.GID(21337),
		auxv.Random([]byte{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15}),
		auxv.UID(31337),
		auxv.ExecFn("ExecFn as &CStr"),
		auxv.Platform("Platform as &str"),
		auxv.BasePlatform("Base Platform as &str"),
	}

	b := NewBuilderFor(target)
	for _, arg := range []string{"first arg", "second arg"} {
		if err := b.AddArgument(arg); err != nil {
			t.Fatal(err)
		}
	}
	for _, env := range []string{"var1=foo", "var2=bar"} {
		if err := b.AddEnvironmentVariable(env); err != nil {
			t.Fatal(err)
		}
	}
	for _, v := range aux {
		b.AddAuxiliary(v)
	}
	return b, aux
}

func verifyScenario(t *testing.T, r *Reader, wantAux []auxv.Var) {
	t.Helper()

	argc, err := r.Argc()
	if err != nil {
		t.Fatal(err)
	}
	if argc != 2 {
		t.Errorf("argc = %d, want 2", argc)
	}

	if n, err := r.ArgvCount(); err != nil || n != 2 {
		t.Errorf("ArgvCount() = %d, %v, want 2", n, err)
	}
	if n, err := r.EnvpCount(); err != nil || n != 2 {
		t.Errorf("EnvpCount() = %d, %v, want 2", n, err)
	}
	if n, err := r.AuxvCount(); err != nil || n != 7 {
		t.Errorf("AuxvCount() = %d, %v, want 7", n, err)
	}

	var args []string
	it := r.Args()
	for s, ok := it.Next(); ok; s, ok = it.Next() {
		args = append(args, s)
	}
	if it.Err() != nil {
		t.Fatal(it.Err())
	}
	wantArgs := []string{"first arg", "second arg"}
	if len(args) != len(wantArgs) {
		t.Fatalf("args = %q", args)
	}
	for i := range wantArgs {
		if args[i] != wantArgs[i] {
			t.Errorf("args[%d] = %q, want %q", i, args[i], wantArgs[i])
		}
	}

	var env []string
	eit := r.Env()
	for s, ok := eit.Next(); ok; s, ok = eit.Next() {
		env = append(env, s)
	}
	wantEnv := []string{"var1=foo", "var2=bar"}
	for i := range wantEnv {
		if env[i] != wantEnv[i] {
			t.Errorf("env[%d] = %q, want %q", i, env[i], wantEnv[i])
		}
	}

	var aux []auxv.Var
	ait := r.Auxv()
	for v, ok := ait.Next(); ok; v, ok = ait.Next() {
		aux = append(aux, v)
	}
	if ait.Err() != nil {
		t.Fatal(ait.Err())
	}
	if len(aux) != len(wantAux) {
		t.Fatalf("auxv count = %d, want %d", len(aux), len(wantAux))
	}
	for i := range wantAux {
		if !aux[i].Equal(wantAux[i]) {
			t.Errorf("auxv[%d] = %v, want %v", i, aux[i], wantAux[i])
		}
	}

	for _, v := range aux {
		switch v.Tag() {
		case auxv.TagExecFn:
			if s, _ := v.PayloadString(); s != "ExecFn as &CStr" {
				t.Errorf("AT_EXECFN = %q", s)
			}
		case auxv.TagPlatform:
			if s, _ := v.PayloadString(); s != "Platform as &str" {
				t.Errorf("AT_PLATFORM = %q", s)
			}
		case auxv.TagBasePlatform:
			if s, _ := v.PayloadString(); s != "Base Platform as &str" {
				t.Errorf("AT_BASE_PLATFORM = %q", s)
			}
		case auxv.TagRandom:
			want := []byte{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15}
			if !bytes.Equal(v.Payload(), want) {
				t.Errorf("AT_RANDOM = %x", v.Payload())
			}
		}
	}
}

func TestRoundTrip_Heap(t *testing.T) {
	b, aux := scenarioBuilder(t, stackimage.Native())
	img, err := b.Build()
	if err != nil {
		t.Fatal(err)
	}
	verifyScenario(t, img.Reader(), aux)
}

func TestRoundTrip_ForeignBase(t *testing.T) {
	const base = 0x0000_7000_0000_0000
	b, aux := scenarioBuilder(t, stackimage.Native())
	buf, err := b.BuildFor(base)
	if err != nil {
		t.Fatal(err)
	}
	verifyScenario(t, NewReaderAt(buf, stackimage.Native(), base), aux)
}

func TestRoundTrip_Target32(t *testing.T) {
	const base = 0x0001_0000
	b, aux := scenarioBuilder(t, stackimage.Target32())
	buf, err := b.BuildFor(base)
	if err != nil {
		t.Fatal(err)
	}
	verifyScenario(t, NewReaderAt(buf, stackimage.Target32(), base), aux)
}

func TestReader_Restartable(t *testing.T) {
	b := NewBuilder()
	if err := b.AddArgument("one"); err != nil {
		t.Fatal(err)
	}
	if err := b.AddArgument("two"); err != nil {
		t.Fatal(err)
	}
	img, err := b.Build()
	if err != nil {
		t.Fatal(err)
	}
	r := img.Reader()

	for round := 0; round < 2; round++ {
		it := r.Args()
		n := 0
		for _, ok := it.Next(); ok; _, ok = it.Next() {
			n++
		}
		if n != 2 {
			t.Errorf("round %d: scanned %d args, want 2", round, n)
		}
	}
}

func TestReader_EmptyImage(t *testing.T) {
	b := NewBuilder()
	img, err := b.Build()
	if err != nil {
		t.Fatal(err)
	}
	r := img.Reader()

	argc, err := r.Argc()
	if err != nil {
		t.Fatal(err)
	}
	if argc != 0 {
		t.Errorf("argc = %d, want 0", argc)
	}
	for name, n := range map[string]func() (int, error){
		"argv": r.ArgvCount, "envp": r.EnvpCount, "auxv": r.AuxvCount,
	} {
		if got, err := n(); err != nil || got != 0 {
			t.Errorf("%s count = %d, %v, want 0", name, got, err)
		}
	}
}

func TestReader_TruncatedBuffer(t *testing.T) {
	r := NewReader([]byte{1, 2}, stackimage.Native())
	if _, err := r.Argc(); err == nil {
		t.Error("argc read from a 2-byte buffer should fail")
	}
	it := r.ArgvAddrs()
	if _, ok := it.Next(); ok {
		t.Error("scan should stop on a truncated buffer")
	}
	if it.Err() == nil {
		t.Error("scan error should be reported")
	}
}

func TestReaderAt_DanglingPointer(t *testing.T) {
	const base = 0x1000
	b := NewBuilder()
	if err := b.AddArgument("x"); err != nil {
		t.Fatal(err)
	}
	buf, err := b.BuildFor(base)
	if err != nil {
		t.Fatal(err)
	}

	// Corrupt the argv[0] pointer to point far outside the image.
	target := stackimage.Native()
	target.PutWord(buf[target.WordSize:], 0xdead_0000)

	it := NewReaderAt(buf, target, base).Args()
	if _, ok := it.Next(); ok {
		t.Error("dangling pointer should not yield a string")
	}
	if it.Err() == nil {
		t.Error("dangling pointer should surface as an error")
	}
}
