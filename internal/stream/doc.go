// Package stream provides the byte-source collaborator consumed by the
// frame decoder.
//
// A Source is a plain io.Reader plus an idempotent Close. The package
// resolves capture files on disk, transparently unwrapping lz4-framed
// captures, and maps open failures onto a small error taxonomy
// (ErrNotFound, ErrLocked) so callers never match on platform error
// strings. Blocking I/O and decompression happen here, opaque to the
// decode loop.
package stream
