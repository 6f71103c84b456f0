package framegraph

import (
	"fmt"
	"sync/atomic"

	"github.com/duskengine/render/device"
)

// ImageFlags drive descriptor overrides applied at allocation time,
// letting a pass request "whatever the current viewport/screen size is"
// instead of hardcoding dimensions.
type ImageFlags uint8

const (
	UsePipelineDimensionsOne ImageFlags = 1 << iota
	UsePipelineDimensions
	UseScreenSize
	UsePipelineSamplerCount
	NoMultisample
	RequestPerMipResourceView
)

// PersistentKind names the fixed persistent-resource retrieval slots a
// pass can bind without declaring its own resource.
type PersistentKind uint8

const (
	PersistentSwapchain PersistentKind = iota
	PersistentPresent
	PersistentLastFrame
	PersistentSSRLastFrame
	PersistentPerView
	PersistentMaterialEditor
	PersistentVectorData
)

type imageEntry struct {
	desc     device.ImageDesc
	flags    ImageFlags
	refCount uint32
	lastWrittenBy PassHandle
}

type bufferEntry struct {
	desc          device.BufferDesc
	shaderStages  uint8
	refCount      uint32
	lastWrittenBy PassHandle
}

type samplerEntry struct {
	desc device.SamplerDesc
}

type passRecord struct {
	name          string
	uncullable    bool
	asyncCompute  bool
	deps          []PassHandle
	writtenImages []Handle
	writtenBuffers []Handle
	execute       func(cmdList device.Handle)
}

// Builder is the per-frame interface used by pass-setup callbacks. A new
// Builder (or a Reset one) is used for exactly one frame; after compile
// its tables are logically emptied by resetting counts to zero, not by
// deallocating the backing arrays.
type Builder struct {
	viewportW, viewportH uint32
	screenW, screenH     uint32
	msaaQuality          uint32
	imageQuality         float32

	images   []imageEntry
	buffers  []bufferEntry
	samplers []samplerEntry
	passes   []passRecord

	persistentImages  map[PersistentKind]Handle
	persistentBuffers map[PersistentKind]Handle
	persistentByHash  map[uint64]Handle

	// globalExec tracks each pass's cross-worker-visible execution state,
	// populated lazily as passes run.
	globalExec map[PassHandle]*atomic.Int32
}

// NewBuilder constructs an empty per-frame Builder.
func NewBuilder() *Builder {
	return &Builder{
		persistentImages:  make(map[PersistentKind]Handle),
		persistentBuffers: make(map[PersistentKind]Handle),
		persistentByHash:  make(map[uint64]Handle),
	}
}

// Reset clears all per-frame tables back to empty ahead of reuse for the
// next frame, without releasing the backing arrays' capacity.
func (b *Builder) Reset() {
	b.images = b.images[:0]
	b.buffers = b.buffers[:0]
	b.samplers = b.samplers[:0]
	b.passes = b.passes[:0]
}

// SetPipelineViewport records the viewport size used to resolve
// UsePipelineDimensions(One) image flags.
func (b *Builder) SetPipelineViewport(w, h uint32) { b.viewportW, b.viewportH = w, h }

// SetScreenSize records the current screen size used to resolve the
// UseScreenSize image flag.
func (b *Builder) SetScreenSize(w, h uint32) { b.screenW, b.screenH = w, h }

// SetMSAAQuality records the sample count used to resolve the
// UsePipelineSamplerCount image flag.
func (b *Builder) SetMSAAQuality(samples uint32) { b.msaaQuality = samples }

// SetImageQuality records the multiplier UsePipelineDimensions scales
// the viewport size by.
func (b *Builder) SetImageQuality(q float32) { b.imageQuality = q }

// AddRenderPass declares a new pass named name, executed by exec when the
// frame graph records it. The returned PassHandle is used as the
// uncullable/async-compute target and to report a newly-declared
// dependency edge via ReadImage/ReadBuffer.
func (b *Builder) AddRenderPass(name string, exec func(cmdList device.Handle)) PassHandle {
	b.passes = append(b.passes, passRecord{name: name, execute: exec})
	return PassHandle(len(b.passes))
}

// SetUncullablePass marks p as surviving culling regardless of its
// resources' reference counts.
func (b *Builder) SetUncullablePass(p PassHandle) {
	b.pass(p).uncullable = true
}

// SetAsyncComputePass marks p as eligible for the async compute queue.
func (b *Builder) SetAsyncComputePass(p PassHandle) {
	b.pass(p).asyncCompute = true
}

func (b *Builder) pass(p PassHandle) *passRecord {
	return &b.passes[p-1]
}

func (b *Builder) applyImageFlags(desc *device.ImageDesc, flags ImageFlags) {
	switch {
	case flags&UsePipelineDimensionsOne != 0:
		desc.Width, desc.Height = b.viewportW, b.viewportH
	case flags&UsePipelineDimensions != 0:
		q := b.imageQuality
		if q == 0 {
			q = 1
		}
		desc.Width = uint32(float32(b.viewportW) * q)
		desc.Height = uint32(float32(b.viewportH) * q)
	case flags&UseScreenSize != 0:
		desc.Width, desc.Height = b.screenW, b.screenH
	}
	if flags&UsePipelineSamplerCount != 0 {
		desc.SampleCount = b.msaaQuality
	}
	if flags&NoMultisample != 0 {
		desc.SampleCount = 1
	}
}

// AllocateImage returns a fresh transient image handle, applying
// flag-driven descriptor overrides before the descriptor is recorded.
func (b *Builder) AllocateImage(desc device.ImageDesc, flags ImageFlags) (Handle, error) {
	if len(b.images) >= MaxResourcesPerFrame {
		return InvalidHandle, fmt.Errorf("framegraph: image pool overflow (limit %d)", MaxResourcesPerFrame)
	}
	b.applyImageFlags(&desc, flags)
	b.images = append(b.images, imageEntry{desc: desc, flags: flags})
	return Handle(len(b.images)), nil
}

// CopyImage clones an existing image's descriptor into a fresh handle.
func (b *Builder) CopyImage(src Handle, flags ImageFlags) (Handle, device.ImageDesc, error) {
	srcEntry, err := b.imageEntry(src)
	if err != nil {
		return InvalidHandle, device.ImageDesc{}, err
	}
	desc := srcEntry.desc
	h, err := b.AllocateImage(desc, flags)
	return h, desc, err
}

// AllocateBuffer returns a fresh transient buffer handle.
func (b *Builder) AllocateBuffer(desc device.BufferDesc, shaderStages uint8) (Handle, error) {
	if len(b.buffers) >= MaxResourcesPerFrame {
		return InvalidHandle, fmt.Errorf("framegraph: buffer pool overflow (limit %d)", MaxResourcesPerFrame)
	}
	b.buffers = append(b.buffers, bufferEntry{desc: desc, shaderStages: shaderStages})
	return Handle(len(b.buffers)), nil
}

// AllocateSampler returns a fresh transient sampler handle.
func (b *Builder) AllocateSampler(desc device.SamplerDesc) (Handle, error) {
	if len(b.samplers) >= MaxResourcesPerFrame {
		return InvalidHandle, fmt.Errorf("framegraph: sampler pool overflow (limit %d)", MaxResourcesPerFrame)
	}
	b.samplers = append(b.samplers, samplerEntry{desc: desc})
	return Handle(len(b.samplers)), nil
}

func (b *Builder) imageEntry(h Handle) (*imageEntry, error) {
	if h == InvalidHandle || int(h) > len(b.images) {
		return nil, fmt.Errorf("framegraph: invalid image handle %d", h)
	}
	return &b.images[h-1], nil
}

func (b *Builder) bufferEntryFor(h Handle) (*bufferEntry, error) {
	if h == InvalidHandle || int(h) > len(b.buffers) {
		return nil, fmt.Errorf("framegraph: invalid buffer handle %d", h)
	}
	return &b.buffers[h-1], nil
}

// ReadReadOnlyImage bumps h's refcount without introducing a dependency
// edge: the reading pass does not need to wait on h's last writer.
func (b *Builder) ReadReadOnlyImage(h Handle) error {
	e, err := b.imageEntry(h)
	if err != nil {
		return err
	}
	e.refCount++
	return nil
}

// ReadImage bumps h's refcount (keeping its writer's pass alive through
// culling) and adds a dependency from the current pass on the pass that
// last wrote h. It does not itself mark current as h's writer — use
// WriteImage to declare that a pass produces a resource.
func (b *Builder) ReadImage(current PassHandle, h Handle) error {
	e, err := b.imageEntry(h)
	if err != nil {
		return err
	}
	e.refCount++
	if e.lastWrittenBy != InvalidPassHandle && e.lastWrittenBy != current {
		b.addDependency(current, e.lastWrittenBy)
	}
	return nil
}

// ReadBuffer is ReadImage's buffer-table counterpart.
func (b *Builder) ReadBuffer(current PassHandle, h Handle) error {
	e, err := b.bufferEntryFor(h)
	if err != nil {
		return err
	}
	e.refCount++
	if e.lastWrittenBy != InvalidPassHandle && e.lastWrittenBy != current {
		b.addDependency(current, e.lastWrittenBy)
	}
	return nil
}

// WriteImage declares that pass current produces h, without itself
// bumping h's refcount: h only keeps current alive through culling once
// some other pass reads it.
func (b *Builder) WriteImage(current PassHandle, h Handle) error {
	e, err := b.imageEntry(h)
	if err != nil {
		return err
	}
	e.lastWrittenBy = current
	b.pass(current).writtenImages = append(b.pass(current).writtenImages, h)
	return nil
}

// WriteBuffer is WriteImage's buffer-table counterpart.
func (b *Builder) WriteBuffer(current PassHandle, h Handle) error {
	e, err := b.bufferEntryFor(h)
	if err != nil {
		return err
	}
	e.lastWrittenBy = current
	b.pass(current).writtenBuffers = append(b.pass(current).writtenBuffers, h)
	return nil
}

func (b *Builder) addDependency(from, on PassHandle) {
	deps := b.pass(from).deps
	for _, d := range deps {
		if d == on {
			return
		}
	}
	b.pass(from).deps = append(b.pass(from).deps, on)
}

// RetrievePersistentImage binds an application-supplied persistent image
// resource by hash. Because persistent resources have no refcount
// tracking, this implicitly marks the current pass uncullable.
func (b *Builder) RetrievePersistentImage(current PassHandle, hash uint64) Handle {
	b.SetUncullablePass(current)
	return b.persistentByHash[hash]
}

// RetrievePersistentBuffer is RetrievePersistentImage's buffer counterpart.
func (b *Builder) RetrievePersistentBuffer(current PassHandle, hash uint64) Handle {
	b.SetUncullablePass(current)
	return b.persistentByHash[hash]
}

// BindPersistentResource registers a host-supplied persistent resource
// under hash, for later retrieval by RetrievePersistent{Image,Buffer}.
// Called only by the host, between frames.
func (b *Builder) BindPersistentResource(hash uint64, h Handle) {
	b.persistentByHash[hash] = h
}

// Retrieve returns the fixed persistent-registry handle for kind (the
// swapchain image, the present target, last frame's color buffer, and
// so on).
func (b *Builder) Retrieve(kind PersistentKind) Handle {
	if h, ok := b.persistentImages[kind]; ok {
		return h
	}
	return b.persistentBuffers[kind]
}

// CullRenderPasses drops every pass whose images and buffers all have
// zero refcount, unless it is marked uncullable. Dependencies of
// surviving passes are retained even if the dependency pass itself would
// otherwise be culled.
func (b *Builder) CullRenderPasses() []PassHandle {
	survives := make([]bool, len(b.passes)+1)
	for i := range b.passes {
		h := PassHandle(i + 1)
		survives[h] = b.passSurvives(h)
	}

	// Passes that are depended on by a surviving pass must also survive,
	// since the survivor's execution waits on their completion.
	changed := true
	for changed {
		changed = false
		for i, p := range b.passes {
			h := PassHandle(i + 1)
			if !survives[h] {
				continue
			}
			for _, dep := range p.deps {
				if !survives[dep] {
					survives[dep] = true
					changed = true
				}
			}
		}
	}

	var out []PassHandle
	for i := range b.passes {
		h := PassHandle(i + 1)
		if survives[h] {
			out = append(out, h)
		}
	}
	return out
}

func (b *Builder) passSurvives(h PassHandle) bool {
	p := b.pass(h)
	if p.uncullable {
		return true
	}
	for _, ih := range p.writtenImages {
		if e, err := b.imageEntry(ih); err == nil && e.refCount > 0 {
			return true
		}
	}
	for _, bh := range p.writtenBuffers {
		if e, err := b.bufferEntryFor(bh); err == nil && e.refCount > 0 {
			return true
		}
	}
	return false
}

// Dependencies returns the declared dependency set for pass p.
func (b *Builder) Dependencies(p PassHandle) []PassHandle {
	return b.pass(p).deps
}

// PassName returns the declared name of pass p.
func (b *Builder) PassName(p PassHandle) string {
	return b.pass(p).name
}

// PassCount returns the number of passes declared so far this frame.
func (b *Builder) PassCount() int { return len(b.passes) }
