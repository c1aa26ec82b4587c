// Package image builds and parses initial process stack images.
//
// The write side is a Builder/serializer pair: the Builder accumulates
// arguments, environment variables, and auxiliary entries, computes the
// six exact region sizes, and drives one serializer over a zeroed
// destination. Four placement paths share that machinery:
//
//	Build        heap buffer, pointers valid in this process
//	BuildFor     serialize for a foreign base address, caller copies
//	BuildInto    write below a top-of-stack address through a Memory
//	BuildOnStack write below a top-of-stack address through raw memory
//
// The read side is the Reader, which scans a finished image lazily:
// pointer arrays are walked to their zero sentinels, the auxiliary vector
// to its Null pair, and embedded self-pointers are dereferenced through
// an address translation chosen at construction.
//
// Addresses are baked in at build time. An image is only valid at the
// base address it was built for; placing it elsewhere requires building
// again.
package image
