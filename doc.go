// Package stackimage encodes and decodes the initial process stack image:
// the region a loader places at the top of a new process's stack before
// jumping to its entry point, consisting of argc, the argv and envp pointer
// arrays, and the auxiliary vector.
//
// It is meant for authors of loaders, emulators, hypervisors, and bare-metal
// kernels that construct this layout themselves instead of relying on a host
// OS's process-creation call.
//
// # Architecture Overview
//
// The library is organized into several packages with distinct
// responsibilities:
//
//	stackimage/          Root package with the Memory interface and Target machine model
//	├── image/           Builder, serializer, and reader for the binary layout
//	├── auxv/            Auxiliary-vector tags and the Var entry model
//	├── guestmem/        wazero linear-memory adapter for wasm guests
//	├── hostmem/         mmap-backed host memory regions for native placement
//	├── errors/          Structured error types for debugging
//	└── cmd/stackimg/    CLI to build, dump, and interactively inspect images
//
// # Quick Start
//
// Build an image on the heap and read it back:
//
//	b := image.NewBuilder()
//	b.AddArgument("/bin/true")
//	b.AddEnvironmentVariable("HOME=/root")
//	b.AddAuxiliary(auxv.Pagesz(4096))
//
//	img, err := b.Build()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	r := image.NewReader(img.Bytes, img.Target)
//	argc, _ := r.Argc()
//
// # Binary Layout
//
// The produced region is, in fixed order:
//
//	[argc: 1 word]
//	[argv pointer array + NULL sentinel word]
//	[envp pointer array + NULL sentinel word]
//	[auxv {tag, value} pairs + Null sentinel pair]
//	[auxv data area]
//	[argv string data area]
//	[envp string data area]
//
// Pointer fields hold absolute addresses in the target address space; an
// image built for one base address must be rebuilt, not moved, to be valid
// at another.
package stackimage
