package device

import "testing"

func TestDescriptorEqualityIsStructural(t *testing.T) {
	a := ImageDesc{Width: 1920, Height: 1080, MipCount: 1, SampleCount: 1, ArraySize: 1}
	b := ImageDesc{Width: 1920, Height: 1080, MipCount: 1, SampleCount: 1, ArraySize: 1}
	if !a.Equal(b) {
		t.Fatal("expected structurally identical ImageDesc values to be equal")
	}

	c := b
	c.Width = 1280
	if a.Equal(c) {
		t.Fatal("expected differing ImageDesc values to compare unequal")
	}
}

func TestBufferDescEqualityIgnoresNothingButFields(t *testing.T) {
	a := BufferDesc{SizeInBytes: 256, Stride: 16, IsStructured: true}
	b := BufferDesc{SizeInBytes: 256, Stride: 16, IsStructured: true}
	if !a.Equal(b) {
		t.Fatal("expected equal BufferDesc values to compare equal")
	}
	b.IsUAV = true
	if a.Equal(b) {
		t.Fatal("expected a UAV-flag difference to break equality")
	}
}

func TestSamplerDescEquality(t *testing.T) {
	a := SamplerDesc{MinFilter: 1, MagFilter: 1}
	b := SamplerDesc{MinFilter: 1, MagFilter: 1}
	if !a.Equal(b) {
		t.Fatal("expected equal SamplerDesc values to compare equal")
	}
}
