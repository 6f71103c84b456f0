package rlib

import (
	"encoding/binary"
	"encoding/hex"
	"math/bits"
)

// DigestSeed is the fixed seed used whenever this module hashes a
// decorated shader name into its filename digest or a pipeline-state
// cache key, matching the single hardcoded seed value the render
// pipeline has always used for this purpose.
const DigestSeed uint32 = 19081996

// Digest128 is a 128-bit MurmurHash3 (x64 variant) output.
type Digest128 struct {
	H1, H2 uint64
}

// String formats the digest as a lowercase hex string, the same form
// used for generated shader filenames and on-disk pipeline-state cache
// blob names.
func (d Digest128) String() string {
	var b [16]byte
	binary.BigEndian.PutUint64(b[0:8], d.H1)
	binary.BigEndian.PutUint64(b[8:16], d.H2)
	return hex.EncodeToString(b[:])
}

const (
	murmurC1 = 0x87c37b91114253d5
	murmurC2 = 0x4cf5ad432745937f
)

// HashString128 computes the 128-bit MurmurHash3 x64 digest of data using
// seed. This is the MurmurHash3_x64_128 algorithm, used unmodified so
// digests stay reproducible bit-for-bit across hosts.
func HashString128(data string, seed uint32) Digest128 {
	return hashBytes128([]byte(data), seed)
}

func hashBytes128(data []byte, seed uint32) Digest128 {
	length := len(data)
	nblocks := length / 16

	h1 := uint64(seed)
	h2 := uint64(seed)

	for i := 0; i < nblocks; i++ {
		block := data[i*16 : i*16+16]
		k1 := binary.LittleEndian.Uint64(block[0:8])
		k2 := binary.LittleEndian.Uint64(block[8:16])

		k1 *= murmurC1
		k1 = bits.RotateLeft64(k1, 31)
		k1 *= murmurC2
		h1 ^= k1

		h1 = bits.RotateLeft64(h1, 27)
		h1 += h2
		h1 = h1*5 + 0x52dce729

		k2 *= murmurC2
		k2 = bits.RotateLeft64(k2, 33)
		k2 *= murmurC1
		h2 ^= k2

		h2 = bits.RotateLeft64(h2, 31)
		h2 += h1
		h2 = h2*5 + 0x38495ab5
	}

	tail := data[nblocks*16:]
	var k1, k2 uint64
	switch len(tail) {
	case 15:
		k2 ^= uint64(tail[14]) << 48
		fallthrough
	case 14:
		k2 ^= uint64(tail[13]) << 40
		fallthrough
	case 13:
		k2 ^= uint64(tail[12]) << 32
		fallthrough
	case 12:
		k2 ^= uint64(tail[11]) << 24
		fallthrough
	case 11:
		k2 ^= uint64(tail[10]) << 16
		fallthrough
	case 10:
		k2 ^= uint64(tail[9]) << 8
		fallthrough
	case 9:
		k2 ^= uint64(tail[8])
		k2 *= murmurC2
		k2 = bits.RotateLeft64(k2, 33)
		k2 *= murmurC1
		h2 ^= k2
		fallthrough
	case 8:
		k1 ^= uint64(tail[7]) << 56
		fallthrough
	case 7:
		k1 ^= uint64(tail[6]) << 48
		fallthrough
	case 6:
		k1 ^= uint64(tail[5]) << 40
		fallthrough
	case 5:
		k1 ^= uint64(tail[4]) << 32
		fallthrough
	case 4:
		k1 ^= uint64(tail[3]) << 24
		fallthrough
	case 3:
		k1 ^= uint64(tail[2]) << 16
		fallthrough
	case 2:
		k1 ^= uint64(tail[1]) << 8
		fallthrough
	case 1:
		k1 ^= uint64(tail[0])
		k1 *= murmurC1
		k1 = bits.RotateLeft64(k1, 31)
		k1 *= murmurC2
		h1 ^= k1
	}

	h1 ^= uint64(length)
	h2 ^= uint64(length)

	h1 += h2
	h2 += h1
	h1 = fmix64(h1)
	h2 = fmix64(h2)
	h1 += h2
	h2 += h1

	return Digest128{H1: h1, H2: h2}
}

func fmix64(k uint64) uint64 {
	k ^= k >> 33
	k *= 0xff51afd7ed558ccd
	k ^= k >> 33
	k *= 0xc4ceb9fe1a85ec53
	k ^= k >> 33
	return k
}

// DigestFilename computes the generated-shader filename digest for a
// decorated shader name (pass name + stage suffix appended to the base
// shader name), using the fixed engine seed.
func DigestFilename(decoratedName string) string {
	return HashString128(decoratedName, DigestSeed).String()
}
