package netcode

import (
	"encoding/binary"

	"github.com/pierrec/lz4/v4"
)

// lz4HeaderSize is magic(4) + originalSize(4, BE) + compressedSize(4, BE).
const lz4HeaderSize = 12

var lz4Magic = [4]byte{'L', 'Z', '4', 0x00}

// DefaultCompressionRatio is the threshold below which a compressed body
// is preferred over the uncompressed one, per spec.md section 4.1.
const DefaultCompressionRatio = 0.9

// DefaultCompressionThreshold is the minimum body length considered for
// compression at all; shorter bodies are sent as-is.
const DefaultCompressionThreshold = 128

// Compress LZ4-compresses body and prefixes it with the custom header. If
// the compressed form (header included) is not smaller than ratio*len(body),
// or body is too short to bother, the original bytes are returned unchanged.
func Compress(body []byte, ratio float64) []byte {
	if len(body) < DefaultCompressionThreshold {
		return body
	}

	bound := lz4.CompressBlockBound(len(body))
	dst := make([]byte, lz4HeaderSize+bound)
	var c lz4.Compressor
	n, err := c.CompressBlock(body, dst[lz4HeaderSize:])
	if err != nil || n <= 0 {
		return body
	}

	finalSize := lz4HeaderSize + n
	if float64(finalSize) >= ratio*float64(len(body)) {
		return body
	}

	copy(dst[0:4], lz4Magic[:])
	binary.BigEndian.PutUint32(dst[4:8], uint32(len(body)))
	binary.BigEndian.PutUint32(dst[8:12], uint32(n))
	return dst[:finalSize]
}

// IsCompressed reports whether buf begins with the LZ4 magic header.
func IsCompressed(buf []byte) bool {
	return len(buf) >= lz4HeaderSize &&
		buf[0] == lz4Magic[0] && buf[1] == lz4Magic[1] &&
		buf[2] == lz4Magic[2] && buf[3] == lz4Magic[3]
}

// Decompress reverses Compress. Bodies that are not compressed are
// returned unchanged.
func Decompress(buf []byte) ([]byte, error) {
	if !IsCompressed(buf) {
		return buf, nil
	}
	if len(buf) < lz4HeaderSize {
		return nil, ErrTruncated
	}

	originalSize := binary.BigEndian.Uint32(buf[4:8])
	compressedSize := binary.BigEndian.Uint32(buf[8:12])

	if originalSize == 0 || compressedSize == 0 {
		return nil, ErrSizeMismatch
	}
	if uint32(len(buf)) < uint32(lz4HeaderSize)+compressedSize {
		return nil, ErrSizeMismatch
	}

	dst := make([]byte, originalSize)
	n, err := lz4.UncompressBlock(buf[lz4HeaderSize:lz4HeaderSize+compressedSize], dst)
	if err != nil {
		return nil, err
	}
	return dst[:n], nil
}
