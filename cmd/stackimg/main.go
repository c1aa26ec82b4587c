package main

import (
	"encoding/binary"
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	stackimage "github.com/wippyai/stack-image"
	"github.com/wippyai/stack-image/image"
)

func main() {
	var (
		specFile    = flag.String("spec", "", "Path to TOML image description")
		outFile     = flag.String("o", "", "Write the built image to this file")
		baseFlag    = flag.Uint64("base", 0, "Placement address (overrides base from the spec)")
		inFile      = flag.String("in", "", "Inspect an existing image file")
		wordSize    = flag.Int("word", 0, "Word size of the inspected image (4 or 8, default native)")
		byteOrder   = flag.String("order", "little", "Byte order of the inspected image (little or big)")
		interactive = flag.Bool("i", false, "Interactive mode with TUI")
		verbose     = flag.Bool("v", false, "Verbose logging")
	)
	flag.Parse()

	if *verbose {
		l, err := zap.NewDevelopment()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer l.Sync()
		image.SetLogger(l)
	}

	switch {
	case *inFile != "":
		if err := inspect(*inFile, *baseFlag, *wordSize, *byteOrder); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

	case *specFile != "" && *interactive:
		if err := runInteractive(*specFile); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

	case *specFile != "":
		if err := build(*specFile, *outFile, *baseFlag); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

	default:
		fmt.Fprintln(os.Stderr, "Usage: stackimg -spec <image.toml> -o <image.bin> [-base addr]")
		fmt.Fprintln(os.Stderr, "       stackimg -spec <image.toml> -i  (interactive mode)")
		fmt.Fprintln(os.Stderr, "       stackimg -in <image.bin> -base addr [-word 4|8] [-order little|big]")
		os.Exit(1)
	}
}

func build(specFile, outFile string, baseFlag uint64) error {
	spec, err := loadSpec(specFile)
	if err != nil {
		return err
	}
	b, err := spec.builder()
	if err != nil {
		return err
	}

	base := spec.Base
	if baseFlag != 0 {
		base = baseFlag
	}

	buf, err := b.BuildFor(base)
	if err != nil {
		return fmt.Errorf("build: %w", err)
	}

	fmt.Printf("Image: %d bytes at base 0x%x\n", len(buf), base)
	fmt.Printf("Args: %d, env: %d, aux: %d\n", len(spec.Args), len(spec.Env), len(spec.Aux))

	if outFile == "" {
		return nil
	}
	if err := os.WriteFile(outFile, buf, 0o644); err != nil {
		return fmt.Errorf("write image: %w", err)
	}
	fmt.Printf("Wrote %s\n", outFile)
	return nil
}

func inspect(inFile string, base uint64, wordSize int, orderName string) error {
	buf, err := os.ReadFile(inFile)
	if err != nil {
		return fmt.Errorf("read file: %w", err)
	}

	t := stackimage.Native()
	if wordSize != 0 {
		if wordSize != 4 && wordSize != 8 {
			return fmt.Errorf("word size must be 4 or 8, got %d", wordSize)
		}
		t.WordSize = wordSize
	}
	switch orderName {
	case "little":
		t.ByteOrder = binary.LittleEndian
	case "big":
		t.ByteOrder = binary.BigEndian
	default:
		return fmt.Errorf("byte order must be little or big, got %q", orderName)
	}

	r := image.NewReaderAt(buf, t, base)

	argc, err := r.Argc()
	if err != nil {
		return fmt.Errorf("argc: %w", err)
	}
	fmt.Printf("Image: %s (%d bytes at base 0x%x)\n", inFile, len(buf), base)
	fmt.Printf("argc: %d\n", argc)

	fmt.Printf("\nArguments:\n")
	args := r.Args()
	for s, ok := args.Next(); ok; s, ok = args.Next() {
		fmt.Printf("  %q\n", s)
	}
	if err := args.Err(); err != nil {
		return fmt.Errorf("argv: %w", err)
	}

	fmt.Printf("\nEnvironment:\n")
	env := r.Env()
	for s, ok := env.Next(); ok; s, ok = env.Next() {
		fmt.Printf("  %q\n", s)
	}
	if err := env.Err(); err != nil {
		return fmt.Errorf("envp: %w", err)
	}

	fmt.Printf("\nAuxiliary vector:\n")
	aux := r.Auxv()
	for v, ok := aux.Next(); ok; v, ok = aux.Next() {
		fmt.Printf("  %s\n", v)
	}
	if err := aux.Err(); err != nil {
		return fmt.Errorf("auxv: %w", err)
	}

	return nil
}
