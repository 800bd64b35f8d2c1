// Package compress implements the payload compression envelope used by
// container stores: a one-byte algorithm tag followed, for compressed
// payloads, by the little-endian uncompressed size and the compressed bytes.
package compress

import (
	"encoding/binary"
	"errors"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Type defines the compression algorithm used for a payload.
type Type uint8

const (
	// None stores the payload uncompressed.
	None Type = 0
	// LZ4 uses LZ4 block compression (fast, good for hot data).
	LZ4 Type = 1
	// ZSTD uses ZSTD block compression (better ratio, good for cold data).
	ZSTD Type = 2
)

const sizeHeaderLen = 4

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

// Encode wraps data in a compression envelope.
//
// If compression does not help (or the data is incompressible), the payload
// is stored uncompressed regardless of the requested type, so Decode never
// needs out-of-band configuration.
func Encode(data []byte, t Type) ([]byte, error) {
	if t == None || len(data) == 0 {
		return encodeNone(data), nil
	}

	var compressed []byte
	var err error

	switch t {
	case LZ4:
		compressed, err = compressLZ4(data)
	case ZSTD:
		compressed, err = compressZSTD(data)
	default:
		return nil, errors.New("compress: unknown compression type")
	}
	if err != nil {
		return nil, err
	}

	// Fall back to uncompressed when the ratio is not worth the decode cost.
	if len(compressed) == 0 || float64(len(compressed)) > float64(len(data))*0.9 {
		return encodeNone(data), nil
	}

	out := make([]byte, 1+sizeHeaderLen+len(compressed))
	out[0] = byte(t)
	binary.LittleEndian.PutUint32(out[1:], uint32(len(data)))
	copy(out[1+sizeHeaderLen:], compressed)
	return out, nil
}

func encodeNone(data []byte) []byte {
	out := make([]byte, 1+len(data))
	out[0] = byte(None)
	copy(out[1:], data)
	return out
}

func compressLZ4(data []byte) ([]byte, error) {
	bound := lz4.CompressBlockBound(len(data))
	compressed := make([]byte, bound)

	n, err := lz4.CompressBlock(data, compressed, nil)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, nil // incompressible
	}
	return compressed[:n], nil
}

func compressZSTD(data []byte) ([]byte, error) {
	enc := getZstdEncoder()
	defer putZstdEncoder(enc)

	return enc.EncodeAll(data, nil), nil
}

// Decode unwraps a compression envelope produced by Encode.
// The algorithm is detected from the leading type byte.
func Decode(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, errors.New("compress: empty envelope")
	}

	t := Type(data[0])
	if t == None {
		return data[1:], nil
	}

	if len(data) < 1+sizeHeaderLen {
		return nil, errors.New("compress: envelope too small for header")
	}
	uncompressedSize := binary.LittleEndian.Uint32(data[1:])
	payload := data[1+sizeHeaderLen:]
	out := make([]byte, uncompressedSize)

	switch t {
	case LZ4:
		n, err := lz4.UncompressBlock(payload, out)
		if err != nil {
			return nil, err
		}
		if uint32(n) != uncompressedSize {
			return nil, errors.New("compress: decompressed size mismatch")
		}
		return out, nil

	case ZSTD:
		dec := getZstdDecoder()
		defer putZstdDecoder(dec)

		decoded, err := dec.DecodeAll(payload, out[:0])
		if err != nil {
			return nil, err
		}
		if uint32(len(decoded)) != uncompressedSize {
			return nil, errors.New("compress: decompressed size mismatch")
		}
		return decoded, nil

	default:
		return nil, errors.New("compress: unknown compression type")
	}
}
