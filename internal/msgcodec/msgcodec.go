// Package msgcodec compresses message content for storage.
package msgcodec

import (
	"fmt"

	"github.com/klauspost/compress/zstd"
)

// Compression identifies the algorithm (if any) applied to stored content.
type Compression string

const (
	CompressionNone Compression = "none"
	CompressionZstd Compression = "zstd"
)

// minCompressSize is the smallest payload worth paying zstd's framing
// overhead for; shorter content is stored as-is.
const minCompressSize = 256

var (
	encoder *zstd.Encoder
	decoder *zstd.Decoder
)

func init() {
	var err error
	encoder, err = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		panic(fmt.Sprintf("msgcodec: init zstd encoder: %v", err))
	}
	decoder, err = zstd.NewReader(nil)
	if err != nil {
		panic(fmt.Sprintf("msgcodec: init zstd decoder: %v", err))
	}
}

// Encode compresses data when it is large enough to benefit, returning the
// stored bytes and the Compression that was applied.
func Encode(data []byte) ([]byte, Compression) {
	if len(data) < minCompressSize {
		return data, CompressionNone
	}
	return encoder.EncodeAll(data, make([]byte, 0, len(data)/2)), CompressionZstd
}

// Decode reverses Encode.
func Decode(data []byte, c Compression) ([]byte, error) {
	switch c {
	case CompressionZstd:
		return decoder.DecodeAll(data, nil)
	case CompressionNone, "":
		return data, nil
	default:
		return nil, fmt.Errorf("msgcodec: unsupported compression: %q", c)
	}
}
