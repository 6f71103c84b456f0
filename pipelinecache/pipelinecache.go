// Package pipelinecache implements the per-worker pipeline-state cache:
// a small fixed-capacity, linear-probe table keyed by a 128-bit digest
// over a pipeline's shader bindings and fixed-function state, backed by
// an on-disk blob cache for cold-build avoidance across runs.
package pipelinecache

import (
	"encoding/binary"
	"fmt"
	"sync/atomic"

	"github.com/duskengine/render/config"
	"github.com/duskengine/render/device"
	"github.com/duskengine/render/rlib"
	"github.com/duskengine/render/rlog"
	"github.com/duskengine/render/vfs"
)

// MaxCacheElementCount bounds the number of live pipeline states a
// single worker's cache holds at once.
const MaxCacheElementCount = 32

// Key is the 128-bit digest identifying a unique pipeline configuration.
type Key = rlib.Digest128

// ComputeKey hashes a pipeline descriptor's shader bindings and
// fixed-function sort keys into a cache key. The packed byte layout is
// deterministic so the same descriptor always yields the same key
// regardless of which worker computes it.
func ComputeKey(desc device.PipelineDescriptor) Key {
	var buf []byte
	buf = append(buf, byte(desc.Shaders.PipelineKind))
	for _, name := range []string{
		desc.Shaders.Vertex, desc.Shaders.TessControl, desc.Shaders.TessEval,
		desc.Shaders.Pixel, desc.Shaders.Compute,
	} {
		h := rlib.HashString128(name, rlib.DigestSeed)
		var b [16]byte
		binary.LittleEndian.PutUint64(b[0:8], h.H1)
		binary.LittleEndian.PutUint64(b[8:16], h.H2)
		buf = append(buf, b[:]...)
	}
	buf = append(buf,
		desc.Rasterizer.CullMode, desc.Rasterizer.FillMode,
		boolByte(desc.Rasterizer.DoubleFace), boolByte(desc.Rasterizer.Wireframe),
		boolByte(desc.DepthStencil.DepthTestEnable), boolByte(desc.DepthStencil.DepthWriteEnable),
		desc.DepthStencil.DepthComparison, boolByte(desc.DepthStencil.StencilEnable),
		boolByte(desc.Blend.Enable), desc.Blend.SrcColor, desc.Blend.DstColor,
		desc.Blend.SrcAlpha, desc.Blend.DstAlpha, desc.Blend.ColorOpCode,
	)
	return rlib.HashString128(string(buf), rlib.DigestSeed)
}

func boolByte(b bool) byte {
	if b {
		return 1
	}
	return 0
}

type entry struct {
	key   Key
	state device.PipelineState
	used  bool
}

// Cache is a single worker's thread-local pipeline-state cache. It is
// never shared or locked across threads — each render-thread worker
// owns exactly one.
type Cache struct {
	dev     device.Device
	fs      vfs.FileSystem
	cfg     config.Vars
	entries [MaxCacheElementCount]entry
	count   int

	hits   atomic.Uint64
	misses atomic.Uint64

	blobWrites *blobWriteCounts
}

// New constructs a Cache that creates pipelines through dev and persists
// cold-build blobs through fs, honoring cfg.DisablePipelineCache.
func New(dev device.Device, fs vfs.FileSystem, cfg config.Vars) *Cache {
	return &Cache{dev: dev, fs: fs, cfg: cfg, blobWrites: newBlobWriteCounts()}
}

// GetOrCreate returns the cached pipeline state for desc, building and
// caching a new one on a miss. forceRebuild discards any existing
// matching entry before rebuilding.
func (c *Cache) GetOrCreate(desc device.PipelineDescriptor, forceRebuild bool) (device.PipelineState, error) {
	key := ComputeKey(desc)

	if !forceRebuild {
		if idx := c.find(key); idx >= 0 {
			c.hits.Add(1)
			return c.entries[idx].state, nil
		}
	}
	c.misses.Add(1)

	blobPath := fmt.Sprintf("GameData/cache/%s.bin", key.String())
	if !c.cfg.DisablePipelineCache {
		if blob, err := c.readBlob(blobPath); err == nil {
			desc.CachedPSOData = blob
		}
	}

	state, err := c.dev.CreatePipelineState(desc)
	if err != nil {
		return device.PipelineState{}, fmt.Errorf("pipelinecache: create pipeline state: %w", err)
	}

	if state.BuildWasCold && !c.cfg.DisablePipelineCache && len(state.Blob) > 0 {
		if n := c.blobWrites.recordWrite(blobPath); n > 1 {
			rlog.Logger().Debug("redundant pipeline blob write", "path", blobPath, "count", n)
		}
		if err := c.writeBlob(blobPath, state.Blob); err != nil {
			rlog.Logger().Error("failed to persist pipeline state blob", "path", blobPath, "error", err)
		}
	}

	c.store(key, state)
	return state, nil
}

func (c *Cache) find(key Key) int {
	for i := 0; i < c.count; i++ {
		if c.entries[i].used && c.entries[i].key == key {
			return i
		}
	}
	return -1
}

// store appends the entry, or overwrites an existing slot for the same
// key (the forceRebuild path). Overflow beyond MaxCacheElementCount
// evicts the oldest slot — the spec leaves eviction policy open for a
// fixed-size per-frame cache this small; least-recently-inserted is the
// simplest policy that keeps the table bounded.
func (c *Cache) store(key Key, state device.PipelineState) {
	if idx := c.find(key); idx >= 0 {
		c.entries[idx].state = state
		return
	}
	if c.count < MaxCacheElementCount {
		c.entries[c.count] = entry{key: key, state: state, used: true}
		c.count++
		return
	}
	copy(c.entries[:], c.entries[1:])
	c.entries[MaxCacheElementCount-1] = entry{key: key, state: state, used: true}
}

func (c *Cache) readBlob(path string) ([]byte, error) {
	f, err := c.fs.Open(path, vfs.ModeRead)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var sizeBuf [4]byte
	if _, err := f.Read(sizeBuf[:]); err != nil {
		return nil, err
	}
	size := binary.LittleEndian.Uint32(sizeBuf[:])
	blob := make([]byte, size)
	if _, err := f.Read(blob); err != nil {
		return nil, err
	}
	return blob, nil
}

func (c *Cache) writeBlob(path string, blob []byte) error {
	f, err := c.fs.Open(path, vfs.ModeWrite)
	if err != nil {
		return err
	}
	defer f.Close()

	var sizeBuf [4]byte
	binary.LittleEndian.PutUint32(sizeBuf[:], uint32(len(blob)))
	if _, err := f.Write(sizeBuf[:]); err != nil {
		return err
	}
	_, err = f.Write(blob)
	return err
}

// Stats returns (hits, misses) observed since construction.
func (c *Cache) Stats() (hits, misses uint64) {
	return c.hits.Load(), c.misses.Load()
}
