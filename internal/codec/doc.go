// Package codec implements the FastStorage frame decoder.
//
// The wire format is a continuous stream of variable-length records, each
// prefixed by a fixed 12-byte little-endian header (kind, size, time). The
// decoder:
//   - Reads one record per call, with no knowledge of the total count
//   - Fully decodes depth and trade records
//   - Skips records of any other kind by their declared size
//   - Fails fast on truncation (ErrUnexpectedEOF) and on headers whose
//     declared size cannot hold the fixed payload (ErrCorruptBlock)
//
// Decoded records are owned value copies; callers may retain them across
// subsequent Next calls even though the decoder reuses its read buffer.
package codec
