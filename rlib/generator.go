package rlib

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/duskengine/render/vfs"
)

// PipelineKind distinguishes a graphics pass from a compute dispatch, set
// while parsing a pass's render-pass properties.
type PipelineKind uint8

const (
	PipelineGraphics PipelineKind = iota
	PipelineCompute
)

// GeneratedShader is one compiled shader stage's output: its decorated
// filename digest, the human-readable engine name used for binding
// metadata, the pass it belongs to, and its full HLSL source.
type GeneratedShader struct {
	Stage          Stage
	FilenameDigest string
	EngineName     string
	PassName       string
	Source         string
}

// RenderPassInfo is the parsed form of one pass's kv-pair properties
// (§4.D "Pass processing"): its per-stage shader names, render targets,
// depth-stencil target, dispatch size, and pipeline kind.
type RenderPassInfo struct {
	Name              string
	StageShaderName   [5]string // indexed by Stage
	RenderTargets     []string
	DepthStencil      string
	DispatchX         int
	DispatchY         int
	DispatchZ         int
	PipelineKind      PipelineKind
	ShaderBindingExpr string
}

var stageKeys = [5]string{"vertex", "tsControl", "tsEval", "pixel", "compute"}
var stageSuffixes = [5]string{"vertex", "tesselationControl", "tesselationEvaluation", "pixel", "compute"}
var stageStructNames = [5]string{"Vertex", "TesselationControl", "TesselationEvaluation", "Pixel", "Compute"}

// Generator compiles a parsed Library AST node into HLSL shader sources,
// an engine-side metadata header, and (optionally) a reflection header
// for runtime property editing.
type Generator struct {
	p *Parser

	generateMetadata   bool
	generateReflection bool

	LibraryName      string
	GeneratedShaders []GeneratedShader
	RenderPassInfos  []RenderPassInfo
	Warnings         []Warning

	metadataBuf   strings.Builder
	reflectionBuf strings.Builder
	sharedBody    strings.Builder

	properties *TypeAST
	resources  *TypeAST
	shaders    map[string]Slice
	fs         vfs.FileSystem
}

// NewGenerator constructs a Generator over p's AST pool.
func NewGenerator(p *Parser, generateMetadata, generateReflection bool) *Generator {
	return &Generator{
		p:                  p,
		generateMetadata:   generateMetadata,
		generateReflection: generateReflection,
		shaders:            make(map[string]Slice),
	}
}

// MetadataHeader returns the accumulated engine-side metadata header text.
func (g *Generator) MetadataHeader() string { return g.metadataBuf.String() }

// ReflectionHeader returns the accumulated reflection header text.
func (g *Generator) ReflectionHeader() string { return g.reflectionBuf.String() }

// Generate processes a Library AST node: routing its children per §4.D's
// top-level dispatch and emitting one RenderPassInfo and up to five
// GeneratedShaders per declared pass.
func (g *Generator) Generate(lib *TypeAST) {
	g.LibraryName = g.p.Text(lib.Name)

	for i, childIdx := range lib.ChildTypes {
		if childIdx == InvalidTypeIndex {
			continue
		}
		child := g.p.GetType(childIdx)
		switch child.Kind {
		case NodeProperties:
			g.properties = child
		case NodeResources:
			g.resources = child
		case NodeShader:
			g.shaders[g.p.Text(child.Name)] = child.Values[0]
		case NodeSharedContent:
			g.sharedBody.WriteString(g.p.Text(child.Values[0]))
			g.sharedBody.WriteString("\n")
		case NodePass:
			g.processPass(g.p.Text(lib.Names[i]), child)
		}
	}
}

// processPass parses a pass's kv-pairs into a RenderPassInfo, generates
// each declared stage's shader, emits resource metadata, and (if a
// Properties block exists) a reflection struct for the pass.
func (g *Generator) processPass(name string, pass *TypeAST) {
	info := RenderPassInfo{Name: name}

	for i, key := range pass.Names {
		k := g.p.Text(key)
		value := g.p.Text(pass.Values[i])
		switch k {
		case "vertex":
			info.StageShaderName[0] = trimQuotes(value)
		case "tsControl":
			info.StageShaderName[1] = trimQuotes(value)
		case "tsEval":
			info.StageShaderName[2] = trimQuotes(value)
		case "pixel":
			info.StageShaderName[3] = trimQuotes(value)
		case "compute":
			info.StageShaderName[4] = trimQuotes(value)
			info.PipelineKind = PipelineCompute
		case "rendertargets":
			info.RenderTargets = parseBraceStringList(value)
		case "depthStencil":
			info.DepthStencil = trimQuotes(strings.TrimSpace(value))
		case "dispatch":
			xyz := parseBraceIntList(value)
			if len(xyz) == 3 {
				info.DispatchX, info.DispatchY, info.DispatchZ = xyz[0], xyz[1], xyz[2]
			}
		default:
			g.overrideProperty(k, pass.Values[i])
		}
	}

	overlap := make(map[string]bool, len(info.RenderTargets)+1)
	for _, rt := range info.RenderTargets {
		overlap[rt] = true
	}
	if info.DepthStencil != "" {
		overlap[info.DepthStencil] = true
	}

	bindingIdents := make([]string, 5)
	for s := 0; s < 5; s++ {
		shaderName := info.StageShaderName[s]
		if shaderName == "" {
			bindingIdents[s] = "nullptr"
			continue
		}
		shader, err := g.generateStage(&info, Stage(s), shaderName, overlap)
		if err != nil {
			panic(FatalError{Op: "generator", Msg: err.Error()})
		}
		g.GeneratedShaders = append(g.GeneratedShaders, shader)
		bindingIdents[s] = shader.FilenameDigest
	}
	info.ShaderBindingExpr = fmt.Sprintf("ShaderBinding(%s)", strings.Join(bindingIdents, ", "))

	if g.generateMetadata {
		g.emitResourceMetadata(name, overlap)
	}
	if g.generateReflection && g.properties != nil {
		g.emitReflectionStruct(name)
	}

	g.RenderPassInfos = append(g.RenderPassInfos, info)
}

// overrideProperty replaces an existing Properties entry's value in
// place, matching §4.D: "Unrecognized keys are treated as overrides of
// the library Properties." A key with no matching property is ignored.
func (g *Generator) overrideProperty(name string, value Slice) {
	if g.properties == nil {
		return
	}
	for i, n := range g.properties.Names {
		if g.p.Text(n) == name {
			g.properties.Values[i] = value
			return
		}
	}
}

// generateStage builds one stage's decorated name, filename digest, and
// full HLSL source, per §4.D's "Stage processing".
func (g *Generator) generateStage(info *RenderPassInfo, stage Stage, shaderName string, overlap map[string]bool) (GeneratedShader, error) {
	body, ok := g.shaders[shaderName]
	if !ok {
		return GeneratedShader{}, fmt.Errorf("pass %q: shader %q not found in library %q", info.Name, shaderName, g.LibraryName)
	}

	engineName := shaderName + info.Name
	decoratedName := shaderName + info.Name + stageSuffixes[stage]
	digest := DigestFilename(decoratedName)

	cflags, warnings := g.propertiesCFlags()
	g.Warnings = append(g.Warnings, warnings...)

	cbuffer, moreCflags, warnings := g.emitPropertiesCBuffer()
	g.Warnings = append(g.Warnings, warnings...)
	for k, v := range moreCflags {
		cflags[k] = v
	}

	resourceList, resourceWarnings := g.emitResourceList(cflags, overlap, len(info.RenderTargets))
	g.Warnings = append(g.Warnings, resourceWarnings...)

	pre, warnings := newPreprocessor(g, stage, cflags)
	preprocessedShared, w1 := pre.run(g.sharedBody.String())
	preprocessedBody, w2 := pre.run(g.p.Text(body))
	g.Warnings = append(g.Warnings, warnings...)
	g.Warnings = append(g.Warnings, w1...)
	g.Warnings = append(g.Warnings, w2...)

	var src strings.Builder
	src.WriteString(perViewAndWorldPreamble)
	src.WriteString(cbuffer)
	src.WriteString(resourceList)
	src.WriteString(preprocessedShared)

	structs, inputName, outputName := pre.emitStructs(stage)
	src.WriteString(structs)

	if stage == StageCompute {
		fmt.Fprintf(&src, "[numthreads(%d, %d, %d)]\n", maxInt(info.DispatchX, 1), maxInt(info.DispatchY, 1), maxInt(info.DispatchZ, 1))
	}

	returnType := "void"
	if outputName != "" {
		returnType = outputName
	}
	param := ""
	if inputName != "" {
		param = inputName + " input"
	}
	fmt.Fprintf(&src, "%s EntryPoint(%s)\n{\n", returnType, param)
	if outputName != "" {
		fmt.Fprintf(&src, "    %s output;\n", outputName)
	}
	src.WriteString(preprocessedBody)
	if outputName != "" {
		src.WriteString("\n    return output;\n")
	}
	src.WriteString("}\n")

	return GeneratedShader{
		Stage:          stage,
		FilenameDigest: digest,
		EngineName:     engineName,
		PassName:       info.Name,
		Source:         src.String(),
	}, nil
}

const perViewAndWorldPreamble = `cbuffer PerViewBuffer : register(b0) {
    float4x4 ViewProjection;
    float3 CameraPosition;
    float DeltaTime;
};
cbuffer PerWorldBuffer : register(b2) {
    float4x4 World;
};
`

// propertiesCFlags returns the compile-time cflag/cint constants declared
// in the library Properties block, without packing the runtime cbuffer
// (used ahead of cbuffer emission so the preprocessor can see overrides
// applied by earlier passes).
func (g *Generator) propertiesCFlags() (map[string]string, []Warning) {
	cflags := make(map[string]string)
	if g.properties == nil {
		return cflags, nil
	}
	for i, childIdx := range g.properties.ChildTypes {
		if childIdx == InvalidTypeIndex {
			continue
		}
		kind := g.p.GetType(childIdx).PrimitiveKind
		if kind == PrimCFlag || kind == PrimCInt {
			cflags[g.p.Text(g.properties.Names[i])] = trimQuotes(g.p.Text(g.properties.Values[i]))
		}
	}
	return cflags, nil
}

func trimQuotes(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return s[1 : len(s)-1]
	}
	return s
}

// parseBraceStringList parses `{ "A", "B" }` into []string{"A", "B"}.
func parseBraceStringList(s string) []string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "{")
	s = strings.TrimSuffix(s, "}")
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = trimQuotes(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

// parseBraceIntList parses `{ 8, 8, 1 }` into []int{8, 8, 1}.
func parseBraceIntList(s string) []int {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "{")
	s = strings.TrimSuffix(s, "}")
	var out []int
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil {
			continue
		}
		out = append(out, n)
	}
	return out
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
