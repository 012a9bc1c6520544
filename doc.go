// Package fastlzma2 implements a high-throughput LZMA2 codec: a
// self-framed container built on the radix match finder (package radix),
// the range-coded LZMA2 chunk format (package lzma2), and a worker pool
// (package pool) that encodes independent dictionary blocks in parallel.
//
// CCtx compresses and DCtx decompresses, each either in one call
// (Compress/Decompress) or incrementally through CStream/DStream for
// callers that want to push or pull bytes a few at a time.
package fastlzma2
