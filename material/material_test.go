package material

import (
	"testing"

	"github.com/duskengine/render/config"
	"github.com/duskengine/render/device"
	"github.com/duskengine/render/pipelinecache"
	"github.com/duskengine/render/vfs"
	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
)

type fakeDevice struct{ buildCount int }

func (fakeDevice) Device() gpucontext.Device             { return nil }
func (fakeDevice) Queue() gpucontext.Queue               { return nil }
func (fakeDevice) Adapter() gpucontext.Adapter           { return nil }
func (fakeDevice) SurfaceFormat() gputypes.TextureFormat { return gputypes.TextureFormatUndefined }

func (f *fakeDevice) CreateBuffer(device.BufferDesc) (device.Handle, error)   { return 1, nil }
func (f *fakeDevice) CreateImage(device.ImageDesc) (device.Handle, error)    { return 1, nil }
func (f *fakeDevice) CreateSampler(device.SamplerDesc) (device.Handle, error) { return 1, nil }
func (f *fakeDevice) CreateImageView(device.Handle, device.ImageViewFlags) (device.Handle, error) {
	return 1, nil
}
func (f *fakeDevice) CreateShader(device.CommandListKind, []byte) (device.Handle, error) {
	return 1, nil
}
func (f *fakeDevice) CreatePipelineState(desc device.PipelineDescriptor) (device.PipelineState, error) {
	f.buildCount++
	return device.PipelineState{Handle: device.Handle(f.buildCount), BuildWasCold: len(desc.CachedPSOData) == 0}, nil
}

func (f *fakeDevice) DestroyBuffer(device.Handle)        {}
func (f *fakeDevice) DestroyImage(device.Handle)         {}
func (f *fakeDevice) DestroySampler(device.Handle)       {}
func (f *fakeDevice) DestroyShader(device.Handle)        {}
func (f *fakeDevice) DestroyPipelineState(device.Handle) {}

func (f *fakeDevice) UpdateBuffer(device.Handle, uint64, []byte) error { return nil }
func (f *fakeDevice) CopyImage(device.Handle, device.Handle) error     { return nil }
func (f *fakeDevice) ResolveImage(device.Handle, device.Handle) error  { return nil }

func (f *fakeDevice) AllocateCommandList(device.CommandListKind) (device.Handle, error) {
	return 1, nil
}
func (f *fakeDevice) SubmitCommandLists([]device.Handle) error { return nil }

func (f *fakeDevice) Present() error                            { return nil }
func (f *fakeDevice) ResizeBackbuffer(uint32, uint32) error      { return nil }
func (f *fakeDevice) GetSwapchainBuffer() (device.Handle, error) { return 1, nil }

var _ device.Device = (*fakeDevice)(nil)

func newTestMaterial() (*Material, *pipelinecache.Cache) {
	m := New("brick_wall")
	m.Scenarios[Default] = ScenarioBinding{VertexPath: "brick_vs.hlsl", PixelPath: "brick_ps.hlsl"}
	m.Scenarios[DepthOnly] = ScenarioBinding{VertexPath: "brick_depth_vs.hlsl"}

	dev := &fakeDevice{}
	cfg := config.Default()
	cfg.DisablePipelineCache = true
	cache := pipelinecache.New(dev, vfs.NewMemFS(), cfg)
	return m, cache
}

func TestBindForScenarioDefaultRealizesPipeline(t *testing.T) {
	m, cache := newTestMaterial()
	bound, err := m.BindForScenario(Default, cache, 1)
	if err != nil {
		t.Fatalf("BindForScenario: %v", err)
	}
	if bound.Pipeline.Handle == device.InvalidHandle {
		t.Fatal("expected a realized pipeline handle")
	}
}

func TestBindForScenarioClearsInvalidateFlag(t *testing.T) {
	m, cache := newTestMaterial()
	m.InvalidateCache()
	if !m.invalidateCache {
		t.Fatal("expected invalidateCache to be set")
	}
	if _, err := m.BindForScenario(Default, cache, 1); err != nil {
		t.Fatalf("BindForScenario: %v", err)
	}
	if m.invalidateCache {
		t.Error("expected invalidateCache to be cleared after a successful bind")
	}
}

func TestBindForScenarioRejectsOutOfRangeScenario(t *testing.T) {
	m, cache := newTestMaterial()
	if _, err := m.BindForScenario(Scenario(99), cache, 1); err == nil {
		t.Fatal("expected an error for an out-of-range scenario")
	}
}

func TestSetParameterAsTexture2DMakesParameterMutable(t *testing.T) {
	m, _ := newTestMaterial()
	const hash = 0xABCD
	if m.IsParameterMutable(hash) {
		t.Fatal("expected parameter to not yet exist")
	}
	m.SetParameterAsTexture2D(hash, "textures/brick_albedo.png")
	if !m.IsParameterMutable(hash) {
		t.Fatal("expected parameter to be mutable after SetParameterAsTexture2D")
	}
}

type fakeAssetCache struct{ handle device.Handle }

func (c fakeAssetCache) ResolveTexture2D(path string) (device.Handle, error) { return c.handle, nil }

func TestUpdateResourceStreamingResolvesTexturesOnce(t *testing.T) {
	m, _ := newTestMaterial()
	const hash = 0x1
	m.SetParameterAsTexture2D(hash, "textures/albedo.png")

	cache := fakeAssetCache{handle: 42}
	if err := m.UpdateResourceStreaming(cache); err != nil {
		t.Fatalf("UpdateResourceStreaming: %v", err)
	}
	if got := m.mutableParameters[hash].CachedImage; got != 42 {
		t.Fatalf("expected resolved handle 42, got %v", got)
	}
}

func TestBindForScenarioExposesResolvedTextureHandles(t *testing.T) {
	m, cache := newTestMaterial()
	const hash = 0x2
	m.SetParameterAsTexture2D(hash, "textures/normal.png")
	m.mutableParameters[hash].CachedImage = 7

	bound, err := m.BindForScenario(Default, cache, 1)
	if err != nil {
		t.Fatalf("BindForScenario: %v", err)
	}
	if bound.Textures[hash] != 7 {
		t.Fatalf("expected bound texture handle 7, got %v", bound.Textures[hash])
	}
}
