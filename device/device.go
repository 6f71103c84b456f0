// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package device defines the GPU backend contract the render-graph core
// consumes. No concrete backend lives in this module: a host supplies an
// implementation (wgpu, a console SDK, a null device for headless tests)
// and hands it to the frame graph and caches.
package device

import (
	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
)

// Provider is the device/queue/adapter triple every backend must expose,
// aliased from gpucontext so a host's existing gpucontext.DeviceProvider
// satisfies this module's Device contract for free.
type Provider = gpucontext.DeviceProvider

// Handle is an opaque backend resource handle. Concrete backends define
// their own representation; the core only threads handles through.
type Handle uint64

// InvalidHandle marks the absence of a resource.
const InvalidHandle Handle = 0

// CommandListKind selects which queue a command list targets.
type CommandListKind uint8

const (
	CommandListGraphics CommandListKind = iota
	CommandListCompute
	CommandListCopy
)

// ImageViewFlags select which views realization requests for an image.
type ImageViewFlags uint8

const (
	CreateUAV ImageViewFlags = 1 << iota
	CreateSRV
	CreateRTVorDSV
	CoverWholeMipchain
)

// BufferDesc describes a GPU buffer. Equality is bit-for-bit structural:
// two descriptors with the same fields are interchangeable for resource
// pool reuse regardless of which call produced them.
type BufferDesc struct {
	SizeInBytes  uint64
	Stride       uint32
	ShaderStages uint8
	IsUAV        bool
	IsStructured bool
}

// Equal reports structural equality with other.
func (d BufferDesc) Equal(other BufferDesc) bool { return d == other }

// ImageDesc describes a GPU image/texture.
type ImageDesc struct {
	Width       uint32
	Height      uint32
	Depth       uint32
	MipCount    uint32
	SampleCount uint32
	ArraySize   uint32
	Format      gputypes.TextureFormat
	IsUAV       bool
	IsCube      bool
}

// Equal reports structural equality with other.
func (d ImageDesc) Equal(other ImageDesc) bool { return d == other }

// SamplerDesc describes a GPU sampler.
type SamplerDesc struct {
	MinFilter    uint8
	MagFilter    uint8
	MipFilter    uint8
	AddressModeU uint8
	AddressModeV uint8
	AddressModeW uint8
	Comparison   bool
}

// Equal reports structural equality with other.
func (d SamplerDesc) Equal(other SamplerDesc) bool { return d == other }

// RasterizerState, DepthStencilState, and BlendState are the sort keys
// the pipeline-state cache hashes over alongside the five shader-name
// hashes (vertex/tessControl/tessEval/pixel/compute).
type RasterizerState struct {
	CullMode    uint8
	FillMode    uint8
	DoubleFace  bool
	Wireframe   bool
	DepthBiasEx int32
}

type DepthStencilState struct {
	DepthTestEnable  bool
	DepthWriteEnable bool
	DepthComparison  uint8
	StencilEnable    bool
}

type BlendState struct {
	Enable      bool
	SrcColor    uint8
	DstColor    uint8
	SrcAlpha    uint8
	DstAlpha    uint8
	ColorOpCode uint8
}

// PipelineKind distinguishes a graphics pipeline from a compute one.
type PipelineKind uint8

const (
	PipelineGraphics PipelineKind = iota
	PipelineCompute
)

// ShaderBinding names the (up to five) shader stage filename digests
// that make up one pipeline. An empty digest means the stage is unused.
type ShaderBinding struct {
	Vertex       string
	TessControl  string
	TessEval     string
	Pixel        string
	Compute      string
	PipelineKind PipelineKind
}

// PipelineDescriptor is the full set of state the pipeline-state cache
// hashes into its 128-bit key, plus the CachedPSOData a cold build may
// seed from a persisted on-disk blob.
type PipelineDescriptor struct {
	Shaders        ShaderBinding
	Rasterizer     RasterizerState
	DepthStencil   DepthStencilState
	Blend          BlendState
	ColorRTCount   uint32
	HasDepthTarget bool
	CachedPSOData  []byte
}

// PipelineState is an opaque backend-created pipeline object.
type PipelineState struct {
	Handle Handle
	// BuildWasCold is true when no on-disk cache blob existed and the
	// device built the state from scratch; callers persist a fresh blob
	// in that case.
	BuildWasCold bool
	// Blob is the backend's serialized pipeline binary, populated only on
	// a cold build so it can be written to the on-disk PSO cache.
	Blob []byte
}

// Device is the full backend contract the render-graph core consumes: a
// Provider triple plus resource lifecycle, command recording, and
// presentation. A host implements this once per backend (wgpu, a
// console SDK, a headless null device for tests) and the core never
// imports a concrete backend package.
type Device interface {
	Provider

	CreateBuffer(desc BufferDesc) (Handle, error)
	CreateImage(desc ImageDesc) (Handle, error)
	CreateSampler(desc SamplerDesc) (Handle, error)
	CreateImageView(image Handle, flags ImageViewFlags) (Handle, error)
	CreateShader(stage CommandListKind, source []byte) (Handle, error)
	CreatePipelineState(desc PipelineDescriptor) (PipelineState, error)

	DestroyBuffer(Handle)
	DestroyImage(Handle)
	DestroySampler(Handle)
	DestroyShader(Handle)
	DestroyPipelineState(Handle)

	UpdateBuffer(h Handle, offset uint64, data []byte) error
	CopyImage(src, dst Handle) error
	ResolveImage(src, dst Handle) error

	AllocateCommandList(kind CommandListKind) (Handle, error)
	SubmitCommandLists(lists []Handle) error

	Present() error
	ResizeBackbuffer(width, height uint32) error
	GetSwapchainBuffer() (Handle, error)
}
