package persistence

import (
	"fmt"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// CompressionType defines the compression algorithm used for snapshot bodies.
type CompressionType uint8

const (
	// CompressionNone stores the body uncompressed.
	CompressionNone CompressionType = 0
	// CompressionLZ4 uses LZ4 block compression (fast).
	CompressionLZ4 CompressionType = 1
	// CompressionZSTD uses ZSTD block compression (better ratio).
	CompressionZSTD CompressionType = 2
)

func (c CompressionType) String() string {
	switch c {
	case CompressionNone:
		return "None"
	case CompressionLZ4:
		return "LZ4"
	case CompressionZSTD:
		return "ZSTD"
	default:
		return fmt.Sprintf("Unknown(%d)", c)
	}
}

// ZSTD encoder/decoder pools for efficiency
var (
	zstdEncoderPool sync.Pool
	zstdDecoderPool sync.Pool
)

func getZstdEncoder() *zstd.Encoder {
	if v := zstdEncoderPool.Get(); v != nil {
		return v.(*zstd.Encoder)
	}
	enc, _ := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	return enc
}

func putZstdEncoder(enc *zstd.Encoder) {
	zstdEncoderPool.Put(enc)
}

func getZstdDecoder() *zstd.Decoder {
	if v := zstdDecoderPool.Get(); v != nil {
		return v.(*zstd.Decoder)
	}
	dec, _ := zstd.NewReader(nil)
	return dec
}

func putZstdDecoder(dec *zstd.Decoder) {
	zstdDecoderPool.Put(dec)
}

// compressBody compresses a snapshot body with the given algorithm.
// Returns (nil, true, nil) when compression would not shrink the body, in
// which case the caller stores it uncompressed.
func compressBody(data []byte, compression CompressionType) ([]byte, bool, error) {
	switch compression {
	case CompressionNone:
		return nil, true, nil
	case CompressionLZ4:
		buf := make([]byte, lz4.CompressBlockBound(len(data)))
		var c lz4.Compressor
		n, err := c.CompressBlock(data, buf)
		if err != nil {
			return nil, false, err
		}
		if n == 0 || n >= len(data) {
			// Incompressible
			return nil, true, nil
		}
		return buf[:n], false, nil
	case CompressionZSTD:
		enc := getZstdEncoder()
		defer putZstdEncoder(enc)
		compressed := enc.EncodeAll(data, nil)
		if len(compressed) >= len(data) {
			return nil, true, nil
		}
		return compressed, false, nil
	default:
		return nil, false, fmt.Errorf("unsupported compression type: %d", compression)
	}
}

// decompressBody reverses compressBody given the stored body and the
// original size recorded in the header.
func decompressBody(data []byte, compression CompressionType, uncompressedSize int) ([]byte, error) {
	switch compression {
	case CompressionLZ4:
		out := make([]byte, uncompressedSize)
		n, err := lz4.UncompressBlock(data, out)
		if err != nil {
			return nil, err
		}
		if n != uncompressedSize {
			return nil, fmt.Errorf("%w: lz4 body size %d, want %d", ErrTruncated, n, uncompressedSize)
		}
		return out, nil
	case CompressionZSTD:
		dec := getZstdDecoder()
		defer putZstdDecoder(dec)
		out, err := dec.DecodeAll(data, make([]byte, 0, uncompressedSize))
		if err != nil {
			return nil, err
		}
		if len(out) != uncompressedSize {
			return nil, fmt.Errorf("%w: zstd body size %d, want %d", ErrTruncated, len(out), uncompressedSize)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unsupported compression type: %d", compression)
	}
}
