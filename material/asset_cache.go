package material

import (
	"fmt"
	"image"

	"golang.org/x/image/bmp"

	"github.com/duskengine/render/device"
	"github.com/duskengine/render/vfs"
)

// TextureUploader realizes a probed texture as a device-resident image.
// A host supplies a concrete implementation backed by its GPU upload
// path; FileAssetCache only validates the source file before handing it
// off.
type TextureUploader interface {
	UploadTexture2D(path string, width, height int) (device.Handle, error)
}

// FileAssetCache is a vfs-backed AssetCache. It opens each texture path
// through fs, probes its dimensions without decoding pixel data (full
// asset import is out of scope; only header-level validation happens
// here), and delegates the actual device upload to uploader.
type FileAssetCache struct {
	fs       vfs.FileSystem
	uploader TextureUploader
}

// NewFileAssetCache constructs a FileAssetCache over fs and uploader.
func NewFileAssetCache(fs vfs.FileSystem, uploader TextureUploader) *FileAssetCache {
	return &FileAssetCache{fs: fs, uploader: uploader}
}

// ResolveTexture2D implements AssetCache. It probes path's image
// dimensions and hands them to the uploader, which owns the actual GPU
// resource creation.
func (c *FileAssetCache) ResolveTexture2D(path string) (device.Handle, error) {
	f, err := c.fs.Open(path, vfs.ModeRead)
	if err != nil {
		return device.InvalidHandle, fmt.Errorf("material: open texture %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := probeDimensions(f)
	if err != nil {
		return device.InvalidHandle, fmt.Errorf("material: probe texture %q: %w", path, err)
	}

	return c.uploader.UploadTexture2D(path, cfg.Width, cfg.Height)
}

// probeDimensions reads just enough of f to report its pixel dimensions
// without decoding pixel data. BMP is tried first via
// golang.org/x/image/bmp, which the standard library has no decoder for;
// any other format falls back to the standard library's
// image.DecodeConfig, which dispatches by the registered format sniffers.
func probeDimensions(f vfs.File) (image.Config, error) {
	if cfg, err := bmp.DecodeConfig(f); err == nil {
		return cfg, nil
	}
	if _, err := f.Seek(0, 0); err != nil {
		return image.Config{}, err
	}
	return image.DecodeConfig(f)
}
