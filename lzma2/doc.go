// Package lzma2 encodes and decodes LZMA2 chunk sequences. The format
// adds the capabilities flushing, parallel compression and uncompressed
// segments to the LZMA algorithm.
//
// Encoder writes the chunk sequence of a byte slice; BlockEncoder builds
// one match-finder table for a block and hands out Encoders for slices of
// it, which can run concurrently. Decoder reads a chunk sequence back.
package lzma2
