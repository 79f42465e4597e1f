// Package wasm hosts completion add-ons compiled to WebAssembly.
//
// An add-on module must export:
//
//	memory                          linear memory
//	alloc(size i32) i32             returns a buffer of size bytes owned by the guest
//	complete(ptr i32, len i32) i32  handles a completion request
//
// The host writes a JSON request into a buffer obtained from alloc and calls
// complete with its location. complete returns the address of an 8-byte
// header: the little-endian pointer and length of a JSON array of
// completion items.
//
// Modules may import log_message(level i32, ptr i32, len i32) from the
// "host" module. Levels are 0 debug, 1 info, 2 warn and 3 error.
// WASI preview1 is available for modules built by standard toolchains.
package wasm
