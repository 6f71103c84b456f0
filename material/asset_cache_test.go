package material

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/duskengine/render/device"
	"github.com/duskengine/render/vfs"
)

// encodeBMP builds a minimal uncompressed 24-bit BMP file for width x
// height, enough for bmp.DecodeConfig to report its dimensions.
func encodeBMP(width, height int) []byte {
	rowSize := (width*3 + 3) &^ 3
	pixelBytes := rowSize * height
	const fileHeaderSize = 14
	const dibHeaderSize = 40
	pixelOffset := fileHeaderSize + dibHeaderSize

	var buf bytes.Buffer
	buf.WriteByte('B')
	buf.WriteByte('M')
	binary.Write(&buf, binary.LittleEndian, uint32(pixelOffset+pixelBytes))
	binary.Write(&buf, binary.LittleEndian, uint32(0))
	binary.Write(&buf, binary.LittleEndian, uint32(pixelOffset))

	binary.Write(&buf, binary.LittleEndian, uint32(dibHeaderSize))
	binary.Write(&buf, binary.LittleEndian, int32(width))
	binary.Write(&buf, binary.LittleEndian, int32(height))
	binary.Write(&buf, binary.LittleEndian, uint16(1))
	binary.Write(&buf, binary.LittleEndian, uint16(24))
	binary.Write(&buf, binary.LittleEndian, uint32(0))
	binary.Write(&buf, binary.LittleEndian, uint32(pixelBytes))
	binary.Write(&buf, binary.LittleEndian, int32(0))
	binary.Write(&buf, binary.LittleEndian, int32(0))
	binary.Write(&buf, binary.LittleEndian, uint32(0))
	binary.Write(&buf, binary.LittleEndian, uint32(0))

	buf.Write(make([]byte, pixelBytes))
	return buf.Bytes()
}

type fakeUploader struct {
	path          string
	width, height int
}

func (u *fakeUploader) UploadTexture2D(path string, width, height int) (device.Handle, error) {
	u.path, u.width, u.height = path, width, height
	return device.Handle(7), nil
}

func TestFileAssetCacheResolveTexture2DProbesBMPDimensions(t *testing.T) {
	fs := vfs.NewMemFS()
	fs.Seed("textures/albedo.bmp", encodeBMP(4, 2))

	up := &fakeUploader{}
	cache := NewFileAssetCache(fs, up)

	h, err := cache.ResolveTexture2D("textures/albedo.bmp")
	if err != nil {
		t.Fatalf("ResolveTexture2D: %v", err)
	}
	if h != device.Handle(7) {
		t.Errorf("expected handle 7, got %v", h)
	}
	if up.width != 4 || up.height != 2 {
		t.Errorf("expected probed dimensions 4x2, got %dx%d", up.width, up.height)
	}
	if up.path != "textures/albedo.bmp" {
		t.Errorf("unexpected path passed to uploader: %q", up.path)
	}
}

func TestFileAssetCacheResolveTexture2DMissingFile(t *testing.T) {
	fs := vfs.NewMemFS()
	cache := NewFileAssetCache(fs, &fakeUploader{})

	if _, err := cache.ResolveTexture2D("textures/missing.bmp"); err == nil {
		t.Fatal("expected an error for a missing texture file")
	}
}
