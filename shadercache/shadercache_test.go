package shadercache

import (
	"testing"

	"github.com/duskengine/render/device"
	"github.com/duskengine/render/vfs"
)

func TestGetOrUploadStageCachesByDigest(t *testing.T) {
	fs := vfs.NewMemFS()
	fs.Seed("sm6/abc123.bin", []byte{1, 2, 3, 4})

	c := New(fs, BackendSM6)
	s1 := c.GetOrUploadStage(device.CommandListGraphics, "abc123", false)
	if s1.IsFallback {
		t.Fatal("expected a real shader, got fallback")
	}
	if len(s1.Blob) != 4 {
		t.Fatalf("expected 4-byte blob, got %d", len(s1.Blob))
	}

	s2 := c.GetOrUploadStage(device.CommandListGraphics, "abc123", false)
	if s1 != s2 {
		t.Fatal("expected the second lookup to return the cached entry")
	}
	if c.Count() != 1 {
		t.Fatalf("expected exactly 1 cached entry, got %d", c.Count())
	}
}

func TestGetOrUploadStageMissingReturnsFallback(t *testing.T) {
	fs := vfs.NewMemFS()
	c := New(fs, BackendSM6)

	s := c.GetOrUploadStage(device.CommandListCompute, "doesnotexist", false)
	if !s.IsFallback {
		t.Fatal("expected a fallback shader for a missing blob")
	}
	if s.Stage != device.CommandListCompute {
		t.Fatalf("expected fallback stage to match requested stage, got %v", s.Stage)
	}
}

func TestForceReloadReplacesEntry(t *testing.T) {
	fs := vfs.NewMemFS()
	fs.Seed("sm6/x.bin", []byte{9})

	c := New(fs, BackendSM6)
	first := c.GetOrUploadStage(device.CommandListGraphics, "x", false)

	fs.Seed("sm6/x.bin", []byte{9, 9})
	reloaded := c.GetOrUploadStage(device.CommandListGraphics, "x", true)

	if len(reloaded.Blob) != 2 {
		t.Fatalf("expected force-reload to pick up the new blob, got len %d", len(reloaded.Blob))
	}
	if first == reloaded {
		t.Fatal("expected force-reload to produce a distinct Shader value")
	}
}
