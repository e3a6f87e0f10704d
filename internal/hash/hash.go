package hash

import (
	"encoding/base64"
	"encoding/binary"
	"hash/crc32"

	"github.com/zeebo/xxh3"
)

var crc32cTable = crc32.MakeTable(crc32.Castagnoli)

// CRC32C returns the CRC32-Castagnoli checksum of data.
func CRC32C(data []byte) uint32 {
	return crc32.Checksum(data, crc32cTable)
}

// CRC32CBase64 returns the checksum in the form S3 expects: base64 of the
// big-endian bytes.
func CRC32CBase64(data []byte) string {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], CRC32C(data))
	return base64.StdEncoding.EncodeToString(b[:])
}

const chunk = 4096

// Uint32s hashes values as little-endian words with xxh3. The result does
// not depend on how values are chunked internally.
func Uint32s(values []uint32) uint64 {
	h := xxh3.New()
	buf := make([]byte, 0, chunk)
	for _, v := range values {
		buf = binary.LittleEndian.AppendUint32(buf, v)
		if len(buf) == chunk {
			_, _ = h.Write(buf)
			buf = buf[:0]
		}
	}
	_, _ = h.Write(buf)
	return h.Sum64()
}
