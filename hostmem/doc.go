// Package hostmem provides anonymous private memory mappings in the host
// process, suitable as destination regions for stack images built with
// image.BuildOnStack. A Region stays mapped until Unmap is called, so the
// addresses baked into an image placed there remain dereferenceable.
package hostmem
