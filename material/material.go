// Package material implements the runtime side of a compiled material: its
// flags, its five scenario shader bindings, and the parameter table a host
// can mutate between frames. Compiling the .rlib source that describes a
// material is the rlib package's job; this package only consumes the
// result.
package material

import (
	"fmt"
	"sync"

	"github.com/duskengine/render/device"
	"github.com/duskengine/render/pipelinecache"
)

// Scenario selects which of a material's five declared shader bindings and
// pipeline configurations to bind.
type Scenario int

const (
	Default Scenario = iota
	DefaultEditor
	DefaultPicking
	DefaultPickingEditor
	DepthOnly
	scenarioCount
)

func (s Scenario) String() string {
	switch s {
	case Default:
		return "Default"
	case DefaultEditor:
		return "DefaultEditor"
	case DefaultPicking:
		return "DefaultPicking"
	case DefaultPickingEditor:
		return "DefaultPickingEditor"
	case DepthOnly:
		return "DepthOnly"
	default:
		return "Unknown"
	}
}

// ParameterKind distinguishes the two mutable-parameter payload shapes a
// material exposes to a host editor.
type ParameterKind uint8

const (
	ParamFloat3 ParameterKind = iota
	ParamTexture2D
)

// Parameter is one mutable material parameter, keyed externally by a
// stable hash of its declared name.
type Parameter struct {
	Kind         ParameterKind
	Float3       [3]float32
	TexturePath  string
	CachedImage  device.Handle
}

// ScenarioBinding names the vertex/pixel shader pair a scenario compiles
// against.
type ScenarioBinding struct {
	VertexPath string
	PixelPath  string
}

// Flags are the boolean render-state toggles a material declares.
type Flags struct {
	AlphaBlended    bool
	DoubleFace      bool
	AlphaToCoverage bool
	AlphaTested     bool
	Wireframe       bool
	Shadeless       bool
}

// Material is a compiled material's runtime state: its flags, its five
// scenario bindings, and its mutable-parameter table.
type Material struct {
	mu sync.Mutex

	Name              string
	Flags             Flags
	Scenarios         [scenarioCount]ScenarioBinding
	mutableParameters map[uint64]*Parameter

	invalidateCache bool
}

// New constructs an empty Material named name.
func New(name string) *Material {
	return &Material{Name: name, mutableParameters: make(map[uint64]*Parameter)}
}

// Deserialize populates m from a decoded material AST/descriptor. The
// decoding of the on-disk format is left to the caller (typically the
// render-library generator's output); Deserialize only installs already-
// parsed fields, resetting the cache-invalidation flag so the next bind
// rebuilds every scenario's pipeline state.
func Deserialize(name string, flags Flags, scenarios [scenarioCount]ScenarioBinding, params map[uint64]*Parameter) *Material {
	m := New(name)
	m.Flags = flags
	m.Scenarios = scenarios
	if params != nil {
		m.mutableParameters = params
	}
	m.invalidateCache = true
	return m
}

// IsParameterMutable reports whether hash names a declared mutable
// parameter.
func (m *Material) IsParameterMutable(hash uint64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.mutableParameters[hash]
	return ok
}

// SetParameterAsTexture2D rebinds the parameter named by hash to a texture
// path, clearing any cached image handle so the next resource-streaming
// pass re-resolves it.
func (m *Material) SetParameterAsTexture2D(hash uint64, path string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.mutableParameters[hash] = &Parameter{Kind: ParamTexture2D, TexturePath: path}
}

// InvalidateCache marks every scenario's pipeline state as needing a
// rebuild on the next BindForScenario call.
func (m *Material) InvalidateCache() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.invalidateCache = true
}

// AssetCache resolves a texture path to a realized device image, used by
// UpdateResourceStreaming. A host supplies a concrete implementation
// backed by its asset pipeline.
type AssetCache interface {
	ResolveTexture2D(path string) (device.Handle, error)
}

// UpdateResourceStreaming resolves every texture-kind mutable parameter's
// path through cache, caching the resolved handle until the path changes.
func (m *Material) UpdateResourceStreaming(cache AssetCache) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.mutableParameters {
		if p.Kind != ParamTexture2D || p.TexturePath == "" {
			continue
		}
		if p.CachedImage != device.InvalidHandle {
			continue
		}
		h, err := cache.ResolveTexture2D(p.TexturePath)
		if err != nil {
			return fmt.Errorf("material: resolve texture %q: %w", p.TexturePath, err)
		}
		p.CachedImage = h
	}
	return nil
}

// scenarioShaderDigest returns the shader reference BindForScenario feeds
// into the pipeline descriptor for one scenario's vertex/pixel pair: the
// bound path itself, not hashed. A missing path yields an empty string,
// matching an unused shader stage.
func scenarioShaderDigest(path string) string {
	if path == "" {
		return ""
	}
	return path
}

// depthStencilFor returns the depth-stencil state a scenario binds,
// following the binding algorithm: Default* scenarios test depth without
// writing it (the depth prepass already populated the buffer) using
// equality comparison; DepthOnly writes depth with a greater comparison.
func depthStencilFor(s Scenario) device.DepthStencilState {
	if s == DepthOnly {
		return device.DepthStencilState{
			DepthTestEnable:  true,
			DepthWriteEnable: true,
			DepthComparison:  depthComparisonGreater,
		}
	}
	return device.DepthStencilState{
		DepthTestEnable:  true,
		DepthWriteEnable: false,
		DepthComparison:  depthComparisonEqual,
	}
}

const (
	depthComparisonEqual   uint8 = 3
	depthComparisonGreater uint8 = 5
)

func (m *Material) rasterizerState() device.RasterizerState {
	rs := device.RasterizerState{
		CullMode:   cullModeBack,
		FillMode:   fillModeSolid,
		DoubleFace: m.Flags.DoubleFace,
		Wireframe:  m.Flags.Wireframe,
	}
	if m.Flags.DoubleFace {
		rs.CullMode = cullModeNone
	}
	if m.Flags.Wireframe {
		rs.FillMode = fillModeWireframe
	}
	return rs
}

const (
	cullModeBack uint8 = iota
	cullModeNone
)

const (
	fillModeSolid uint8 = iota
	fillModeWireframe
)

// StaticSampler is one of the two fixed samplers every material binds
// regardless of scenario.
type StaticSampler struct {
	Desc device.SamplerDesc
}

func staticSamplers() [2]StaticSampler {
	return [2]StaticSampler{
		{Desc: device.SamplerDesc{MinFilter: 1, MagFilter: 1, MipFilter: 1}},
		{Desc: device.SamplerDesc{MinFilter: 0, MagFilter: 0, MipFilter: 0, AddressModeU: 1, AddressModeV: 1}},
	}
}

// BoundMaterial is the result of binding a material for one scenario: the
// realized pipeline state, its two static samplers, and the resolved
// texture handles for every mutable texture parameter, keyed by the same
// hash the host used to declare them.
type BoundMaterial struct {
	Pipeline       device.PipelineState
	StaticSamplers [2]StaticSampler
	Textures       map[uint64]device.Handle
}

// BindForScenario assembles a pipeline descriptor for scenario, looks it
// up or builds it through cache, binds the material's two static
// samplers, and resolves every texture parameter's cached handle. It
// clears the material's invalidate-cache flag as the final step, per the
// binding algorithm.
func (m *Material) BindForScenario(scenario Scenario, cache *pipelinecache.Cache, sampleCount uint32) (BoundMaterial, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if int(scenario) < 0 || int(scenario) >= int(scenarioCount) {
		return BoundMaterial{}, fmt.Errorf("material: invalid scenario %d", scenario)
	}
	binding := m.Scenarios[scenario]

	desc := device.PipelineDescriptor{
		Shaders: device.ShaderBinding{
			Vertex:       scenarioShaderDigest(binding.VertexPath),
			Pixel:        scenarioShaderDigest(binding.PixelPath),
			PipelineKind: device.PipelineGraphics,
		},
		Rasterizer:   m.rasterizerState(),
		DepthStencil: depthStencilFor(scenario),
		Blend:        device.BlendState{Enable: m.Flags.AlphaBlended},
	}
	if scenario == DepthOnly {
		desc.ColorRTCount = 2
		desc.HasDepthTarget = true
	} else {
		desc.ColorRTCount = 1
		desc.HasDepthTarget = true
	}

	pso, err := cache.GetOrCreate(desc, m.invalidateCache)
	if err != nil {
		return BoundMaterial{}, fmt.Errorf("material: bind %q for %v: %w", m.Name, scenario, err)
	}

	textures := make(map[uint64]device.Handle, len(m.mutableParameters))
	for hash, p := range m.mutableParameters {
		if p.Kind == ParamTexture2D {
			textures[hash] = p.CachedImage
		}
	}

	m.invalidateCache = false

	return BoundMaterial{
		Pipeline:       pso,
		StaticSamplers: staticSamplers(),
		Textures:       textures,
	}, nil
}
