package framegraph

import (
	"fmt"

	"github.com/duskengine/render/device"
)

// InstanceDataBufferSize is the fixed size, in bytes, of the shared
// per-frame instance-data buffer draw-command bucketing appends into.
const InstanceDataBufferSize = 16 * 1024

// InstanceData is one draw command's per-instance payload (a model
// matrix, in the minimal case this module models).
type InstanceData struct {
	Model [16]float32
}

// InstanceDataSize is the serialized byte size of one InstanceData value.
const InstanceDataSize = 16 * 4

type realizedEntry struct {
	handle device.Handle
	inUse  bool
}

// Resources is the per-frame realizer and transient-resource pool. It
// maps declared (Builder-issued) handles to concrete device resources,
// reusing a pooled resource whenever its descriptor structurally equals
// the one being realized.
type Resources struct {
	dev device.Device

	realizedImages   []struct {
		desc   device.ImageDesc
		entry  realizedEntry
	}
	realizedBuffers []struct {
		desc  device.BufferDesc
		entry realizedEntry
	}
	realizedSamplers []struct {
		desc  device.SamplerDesc
		entry realizedEntry
	}

	boundImages   map[Handle]device.Handle
	boundBuffers  map[Handle]device.Handle
	boundSamplers map[Handle]device.Handle

	persistentImages  map[Handle]device.Handle
	persistentBuffers map[Handle]device.Handle
}

// NewResources constructs a Resources realizer backed by dev.
func NewResources(dev device.Device) *Resources {
	return &Resources{
		dev:               dev,
		boundImages:       make(map[Handle]device.Handle),
		boundBuffers:      make(map[Handle]device.Handle),
		boundSamplers:     make(map[Handle]device.Handle),
		persistentImages:  make(map[Handle]device.Handle),
		persistentBuffers: make(map[Handle]device.Handle),
	}
}

// UnacquireResources clears every realized pool entry's in-use flag,
// called at the start of each compile so pooled resources from the prior
// frame become reusable again.
func (r *Resources) UnacquireResources() {
	for i := range r.realizedImages {
		r.realizedImages[i].entry.inUse = false
	}
	for i := range r.realizedBuffers {
		r.realizedBuffers[i].entry.inUse = false
	}
	for i := range r.realizedSamplers {
		r.realizedSamplers[i].entry.inUse = false
	}
	r.boundImages = make(map[Handle]device.Handle)
	r.boundBuffers = make(map[Handle]device.Handle)
	r.boundSamplers = make(map[Handle]device.Handle)
}

// RealizeImage finds a free pooled entry whose descriptor structurally
// equals desc, marking it in-use and binding h to it; otherwise it asks
// the device for a new image and registers it in the pool.
func (r *Resources) RealizeImage(h Handle, desc device.ImageDesc) error {
	for i := range r.realizedImages {
		e := &r.realizedImages[i]
		if !e.entry.inUse && e.desc.Equal(desc) {
			e.entry.inUse = true
			r.boundImages[h] = e.entry.handle
			return nil
		}
	}
	dh, err := r.dev.CreateImage(desc)
	if err != nil {
		return fmt.Errorf("framegraph: realize image: %w", err)
	}
	r.realizedImages = append(r.realizedImages, struct {
		desc  device.ImageDesc
		entry realizedEntry
	}{desc: desc, entry: realizedEntry{handle: dh, inUse: true}})
	r.boundImages[h] = dh
	return nil
}

// RealizeBuffer is RealizeImage's buffer-table counterpart.
func (r *Resources) RealizeBuffer(h Handle, desc device.BufferDesc) error {
	for i := range r.realizedBuffers {
		e := &r.realizedBuffers[i]
		if !e.entry.inUse && e.desc.Equal(desc) {
			e.entry.inUse = true
			r.boundBuffers[h] = e.entry.handle
			return nil
		}
	}
	dh, err := r.dev.CreateBuffer(desc)
	if err != nil {
		return fmt.Errorf("framegraph: realize buffer: %w", err)
	}
	r.realizedBuffers = append(r.realizedBuffers, struct {
		desc  device.BufferDesc
		entry realizedEntry
	}{desc: desc, entry: realizedEntry{handle: dh, inUse: true}})
	r.boundBuffers[h] = dh
	return nil
}

// RealizeSampler is RealizeImage's sampler-table counterpart.
func (r *Resources) RealizeSampler(h Handle, desc device.SamplerDesc) error {
	for i := range r.realizedSamplers {
		e := &r.realizedSamplers[i]
		if !e.entry.inUse && e.desc.Equal(desc) {
			e.entry.inUse = true
			r.boundSamplers[h] = e.entry.handle
			return nil
		}
	}
	dh, err := r.dev.CreateSampler(desc)
	if err != nil {
		return fmt.Errorf("framegraph: realize sampler: %w", err)
	}
	r.realizedSamplers = append(r.realizedSamplers, struct {
		desc  device.SamplerDesc
		entry realizedEntry
	}{desc: desc, entry: realizedEntry{handle: dh, inUse: true}})
	r.boundSamplers[h] = dh
	return nil
}

// GetImage returns the realized device handle bound to h.
func (r *Resources) GetImage(h Handle) device.Handle { return r.boundImages[h] }

// GetBuffer returns the realized device handle bound to h.
func (r *Resources) GetBuffer(h Handle) device.Handle { return r.boundBuffers[h] }

// GetSampler returns the realized device handle bound to h.
func (r *Resources) GetSampler(h Handle) device.Handle { return r.boundSamplers[h] }

// GetPersistentImage returns the persistent image bound to h, or
// device.InvalidHandle if the pass must handle an unbound persistent
// resource itself.
func (r *Resources) GetPersistentImage(h Handle) device.Handle { return r.persistentImages[h] }

// GetPersistentBuffer is GetPersistentImage's buffer counterpart.
func (r *Resources) GetPersistentBuffer(h Handle) device.Handle { return r.persistentBuffers[h] }

// DrawCommand is one sortable draw, bucketed by (Layer, ViewportLayer)
// transitions during dispatch_to_buckets.
type DrawCommand struct {
	Layer         uint32
	ViewportLayer uint32
	Instances     []InstanceData
}

// DrawBucket is a contiguous run of commands sharing a (Layer,
// ViewportLayer) pair, with its slice of the shared instance-data buffer.
type DrawBucket struct {
	Begin, End             int
	InstanceDataStartOffset int
	VectorsPerInstance      int
}

// DispatchToBuckets scans sorted commands, detecting (Layer,
// ViewportLayer) transitions, and returns one DrawBucket per run while
// appending each command's per-instance data into the shared
// instance-data buffer (capped at InstanceDataBufferSize bytes).
func DispatchToBuckets(cmds []DrawCommand) (buckets []DrawBucket, instanceBuf []byte) {
	instanceBuf = make([]byte, 0, InstanceDataBufferSize)

	start := 0
	bucketStartOffset := 0
	for i := 0; i < len(cmds); i++ {
		isLast := i == len(cmds)-1
		transitions := !isLast && (cmds[i+1].Layer != cmds[i].Layer || cmds[i+1].ViewportLayer != cmds[i].ViewportLayer)

		for range cmds[i].Instances {
			if len(instanceBuf)+InstanceDataSize > InstanceDataBufferSize {
				break
			}
			instanceBuf = append(instanceBuf, make([]byte, InstanceDataSize)...)
		}

		if isLast || transitions {
			buckets = append(buckets, DrawBucket{
				Begin:                   start,
				End:                     i + 1,
				InstanceDataStartOffset: bucketStartOffset,
				VectorsPerInstance:      1,
			})
			start = i + 1
			bucketStartOffset = len(instanceBuf)
		}
	}
	return buckets, instanceBuf
}
