package beam

import (
	"bytes"
	"io"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/valyala/bytebufferpool"
	"h2beam/logger"
)

// Pooled zstd encoder/decoder, lifted from sourceproc/slug.go's
// EncodeSlug/DecodeSlug: a sync.Pool of *zstd.Encoder / *zstd.Decoder reset
// against a fresh buffer per use instead of allocating one per call.
var (
	zstdEncoderPool sync.Pool
	zstdDecoderPool sync.Pool
)

func init() {
	zstdEncoderPool = sync.Pool{
		New: func() interface{} {
			enc, err := zstd.NewWriter(nil)
			if err != nil {
				logger.Default.Debugf("beam: error creating zstd encoder: %v", err)
				return nil
			}
			return enc
		},
	}
	zstdDecoderPool = sync.Pool{
		New: func() interface{} {
			dec, err := zstd.NewReader(nil)
			if err != nil {
				logger.Default.Debugf("beam: error creating zstd decoder: %v", err)
				return nil
			}
			return dec
		},
	}
}

// compressFallbackChunk replaces a refused file's content with a
// zstd-compressed bytes-owned chunk, used when the file-beam-authorization
// callback declines to let a handle cross by reference. The chunk keeps
// its true byte count in origLen so flow control still sees the
// uncompressed size.
func compressFallbackChunk(raw []byte) *Chunk {
	enc, _ := zstdEncoderPool.Get().(*zstd.Encoder)
	if enc == nil {
		return newBytesChunk(raw)
	}
	defer zstdEncoderPool.Put(enc)

	var out bytes.Buffer
	enc.Reset(&out)
	if _, err := enc.Write(raw); err != nil {
		enc.Reset(nil)
		return newBytesChunk(raw)
	}
	if err := enc.Close(); err != nil {
		return newBytesChunk(raw)
	}

	buf := bytebufferpool.Get()
	_, _ = buf.Write(out.Bytes())
	return &Chunk{Kind: KindBytesOwned, Data: buf, compressed: true, origLen: int64(len(raw))}
}

// decompressChunkInPlace replaces c's compressed Data with its plaintext,
// run just before a compressed chunk is wrapped in a Proxy so Proxy.Read
// never has to know about compression.
func decompressChunkInPlace(c *Chunk) error {
	if !c.compressed || c.Data == nil {
		return nil
	}
	dec, _ := zstdDecoderPool.Get().(*zstd.Decoder)
	if dec == nil {
		return errNotImplemented
	}
	defer zstdDecoderPool.Put(dec)

	if err := dec.Reset(bytes.NewReader(c.Data.Bytes())); err != nil {
		return err
	}
	plain, err := io.ReadAll(dec)
	if err != nil {
		return err
	}

	c.Data.Reset()
	bytebufferpool.Put(c.Data)
	buf := bytebufferpool.Get()
	_, _ = buf.Write(plain)
	c.Data = buf
	c.compressed = false
	c.origLen = 0
	return nil
}
