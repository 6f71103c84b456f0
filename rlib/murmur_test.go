package rlib

import "testing"

func TestHashString128EmptyWithZeroSeedIsZero(t *testing.T) {
	d := HashString128("", 0)
	if d.H1 != 0 || d.H2 != 0 {
		t.Fatalf("expected zero digest for empty input and zero seed, got %+v", d)
	}
}

func TestHashString128Deterministic(t *testing.T) {
	a := HashString128("Opaque_vertex", DigestSeed)
	b := HashString128("Opaque_vertex", DigestSeed)
	if a != b {
		t.Fatalf("expected identical digests for identical input, got %+v vs %+v", a, b)
	}
}

func TestHashString128DiffersByName(t *testing.T) {
	a := HashString128("Opaque_vertex", DigestSeed)
	b := HashString128("Opaque_pixel", DigestSeed)
	if a == b {
		t.Fatal("expected different shader names to produce different digests")
	}
}

func TestHashString128DiffersBySeed(t *testing.T) {
	a := HashString128("Opaque_vertex", DigestSeed)
	b := HashString128("Opaque_vertex", DigestSeed+1)
	if a == b {
		t.Fatal("expected different seeds to produce different digests")
	}
}

func TestDigestFilenameFormat(t *testing.T) {
	s := DigestFilename("Opaque_vertex")
	if len(s) != 32 {
		t.Fatalf("expected a 32-character hex digest, got %q (%d chars)", s, len(s))
	}
	for _, r := range s {
		if !((r >= '0' && r <= '9') || (r >= 'a' && r <= 'f')) {
			t.Fatalf("expected lowercase hex digits only, got %q", s)
		}
	}
}

// Exercises every tail-length branch of the block-remainder switch (1..15
// extra bytes past a full 16-byte block) so a refactor of that switch
// can't silently skip a case without a test failing.
func TestHashString128AllTailLengths(t *testing.T) {
	base := "0123456789abcdef" // exactly one block
	seen := map[Digest128]bool{}
	for n := 0; n <= 15; n++ {
		d := HashString128(base+base[:n], DigestSeed)
		if seen[d] {
			t.Fatalf("tail length %d collided with a previous digest", n)
		}
		seen[d] = true
	}
}
