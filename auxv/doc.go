// Package auxv models auxiliary-vector entries: the {tag, value} pairs a
// loader hands to a new process alongside argv and envp.
//
// Entries come in two shapes. Immediate entries carry one word-sized
// scalar inline:
//
//	auxv.Pagesz(4096)
//	auxv.UID(1000)
//
// Referenced entries carry a string or fixed-size byte payload that lives
// in the image's auxv data area and is reached through an absolute
// address:
//
//	auxv.Platform("x86_64")
//	auxv.ExecFn("/bin/true")
//	auxv.Random(seed[:])
//
// The Null terminator closes the vector; builders append it automatically
// and discard explicit ones.
package auxv
