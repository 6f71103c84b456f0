package framegraph

import (
	"testing"

	"github.com/duskengine/render/device"
	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
)

type fakeDevice struct{ nextHandle device.Handle }

func (*fakeDevice) Device() gpucontext.Device             { return nil }
func (*fakeDevice) Queue() gpucontext.Queue               { return nil }
func (*fakeDevice) Adapter() gpucontext.Adapter           { return nil }
func (*fakeDevice) SurfaceFormat() gputypes.TextureFormat { return gputypes.TextureFormatUndefined }

func (f *fakeDevice) next() device.Handle { f.nextHandle++; return f.nextHandle }

func (f *fakeDevice) CreateBuffer(device.BufferDesc) (device.Handle, error)   { return f.next(), nil }
func (f *fakeDevice) CreateImage(device.ImageDesc) (device.Handle, error)     { return f.next(), nil }
func (f *fakeDevice) CreateSampler(device.SamplerDesc) (device.Handle, error) { return f.next(), nil }
func (f *fakeDevice) CreateImageView(device.Handle, device.ImageViewFlags) (device.Handle, error) {
	return f.next(), nil
}
func (f *fakeDevice) CreateShader(device.CommandListKind, []byte) (device.Handle, error) {
	return f.next(), nil
}
func (f *fakeDevice) CreatePipelineState(device.PipelineDescriptor) (device.PipelineState, error) {
	return device.PipelineState{Handle: f.next()}, nil
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
	return f.next(), nil
}
func (f *fakeDevice) SubmitCommandLists([]device.Handle) error { return nil }

func (f *fakeDevice) Present() error                            { return nil }
func (f *fakeDevice) ResizeBackbuffer(uint32, uint32) error      { return nil }
func (f *fakeDevice) GetSwapchainBuffer() (device.Handle, error) { return f.next(), nil }

var _ device.Device = (*fakeDevice)(nil)

// Scenario F from the invariant suite: P1 writes X, P2 reads X but its
// own output has refcount 0, P3 is marked uncullable. Expect P2 culled,
// P1 surviving (P2's read keeps x's refcount above zero), P3 survives.
func TestCullRenderPassesScenarioF(t *testing.T) {
	b := NewBuilder()

	p1 := b.AddRenderPass("P1", nil)
	p2 := b.AddRenderPass("P2", nil)
	p3 := b.AddRenderPass("P3", nil)
	b.SetUncullablePass(p3)

	x, err := b.AllocateImage(device.ImageDesc{Width: 64, Height: 64}, 0)
	if err != nil {
		t.Fatalf("AllocateImage: %v", err)
	}
	if err := b.WriteImage(p1, x); err != nil {
		t.Fatalf("WriteImage (p1 writes x): %v", err)
	}
	if err := b.ReadImage(p2, x); err != nil {
		t.Fatalf("ReadImage (p2 reads x): %v", err)
	}

	// P2's own output has refcount 0: nobody ever reads it.
	y, err := b.AllocateImage(device.ImageDesc{Width: 64, Height: 64}, 0)
	if err != nil {
		t.Fatalf("AllocateImage (y): %v", err)
	}
	if err := b.WriteImage(p2, y); err != nil {
		t.Fatalf("WriteImage (p2 writes y): %v", err)
	}

	survivors := b.CullRenderPasses()
	survivorSet := map[PassHandle]bool{}
	for _, s := range survivors {
		survivorSet[s] = true
	}

	if survivorSet[p2] {
		t.Error("expected P2 to be culled (its output y has zero refcount)")
	}
	if !survivorSet[p3] {
		t.Error("expected P3 to survive (marked uncullable)")
	}
	if !survivorSet[p1] {
		t.Error("expected P1 to survive because P2 reads x, keeping x's refcount > 0")
	}
}

func TestCullRenderPassesDropsPassWithNoReaders(t *testing.T) {
	b := NewBuilder()
	p1 := b.AddRenderPass("Orphan", nil)

	x, err := b.AllocateImage(device.ImageDesc{Width: 1, Height: 1}, 0)
	if err != nil {
		t.Fatalf("AllocateImage: %v", err)
	}
	_ = x // never read by anyone, including p1 itself

	survivors := b.CullRenderPasses()
	for _, s := range survivors {
		if s == p1 {
			t.Fatal("expected an orphan pass with no non-zero-refcount resources to be culled")
		}
	}
}

func TestSchedulerDispatchIdempotentWhenEmpty(t *testing.T) {
	dev := &fakeDevice{}
	builder := NewBuilder()
	resources := NewResources(dev)
	sched := NewScheduler(dev, builder, resources, 2)

	if err := sched.Dispatch(PerViewData{}, VectorBufferData{}); err != nil {
		t.Fatalf("Dispatch with zero enqueued passes: %v", err)
	}
	if sched.State() != DispatcherReady {
		t.Fatalf("expected dispatcher to remain Ready, got %v", sched.State())
	}
}

func TestSchedulerDispatchRunsEnqueuedPasses(t *testing.T) {
	dev := &fakeDevice{}
	builder := NewBuilder()
	resources := NewResources(dev)
	sched := NewScheduler(dev, builder, resources, 2)

	executed := make(map[string]bool)
	p1 := builder.AddRenderPass("A", func(device.Handle) { executed["A"] = true })
	p2 := builder.AddRenderPass("B", func(device.Handle) { executed["B"] = true })
	sched.AddRenderPass(p1)
	sched.AddRenderPass(p2)

	if err := sched.Dispatch(PerViewData{}, VectorBufferData{}); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if !executed["A"] || !executed["B"] {
		t.Fatalf("expected both passes to execute, got %+v", executed)
	}
	if sched.State() != DispatcherReady {
		t.Fatalf("expected dispatcher back to Ready after dispatch, got %v", sched.State())
	}
}

func TestDispatchToBucketsGroupsByLayerTransition(t *testing.T) {
	cmds := []DrawCommand{
		{Layer: 0, ViewportLayer: 0, Instances: []InstanceData{{}}},
		{Layer: 0, ViewportLayer: 0, Instances: []InstanceData{{}}},
		{Layer: 1, ViewportLayer: 0, Instances: []InstanceData{{}}},
	}
	buckets, instanceBuf := DispatchToBuckets(cmds)
	if len(buckets) != 2 {
		t.Fatalf("expected 2 buckets, got %d", len(buckets))
	}
	if buckets[0].Begin != 0 || buckets[0].End != 2 {
		t.Fatalf("expected first bucket to span [0,2), got [%d,%d)", buckets[0].Begin, buckets[0].End)
	}
	if buckets[1].Begin != 2 || buckets[1].End != 3 {
		t.Fatalf("expected second bucket to span [2,3), got [%d,%d)", buckets[1].Begin, buckets[1].End)
	}
	if buckets[1].InstanceDataStartOffset != InstanceDataSize*2 {
		t.Fatalf("expected second bucket's offset to follow the first bucket's 2 instances, got %d", buckets[1].InstanceDataStartOffset)
	}
	if len(instanceBuf) != InstanceDataSize*3 {
		t.Fatalf("expected instance buffer sized for 3 instances, got %d bytes", len(instanceBuf))
	}
}

func TestResourcesRealizationReusesMatchingDescriptor(t *testing.T) {
	dev := &fakeDevice{}
	r := NewResources(dev)

	desc := device.ImageDesc{Width: 256, Height: 256}
	if err := r.RealizeImage(1, desc); err != nil {
		t.Fatalf("RealizeImage: %v", err)
	}
	first := r.GetImage(1)

	r.UnacquireResources()

	if err := r.RealizeImage(2, desc); err != nil {
		t.Fatalf("RealizeImage (reuse): %v", err)
	}
	second := r.GetImage(2)

	if first != second {
		t.Fatalf("expected a structurally-identical descriptor to reuse the pooled resource, got %v vs %v", first, second)
	}
}

func TestBuilderResetClearsTablesWithoutNewAllocationsSurviving(t *testing.T) {
	b := NewBuilder()
	h, err := b.AllocateImage(device.ImageDesc{Width: 8, Height: 8}, 0)
	if err != nil {
		t.Fatalf("AllocateImage: %v", err)
	}
	if h == InvalidHandle {
		t.Fatal("expected a valid handle")
	}

	b.Reset()
	if b.PassCount() != 0 {
		t.Fatalf("expected pass table to be empty after Reset, got %d", b.PassCount())
	}

	// A handle from the prior frame refers to nothing in the new frame's
	// (empty) table; allocating fresh starts back at handle 1.
	h2, err := b.AllocateImage(device.ImageDesc{Width: 4, Height: 4}, 0)
	if err != nil {
		t.Fatalf("AllocateImage after Reset: %v", err)
	}
	if h2 != 1 {
		t.Fatalf("expected the first post-reset handle to be 1, got %d", h2)
	}
}
