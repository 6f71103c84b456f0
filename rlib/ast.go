package rlib

// MaxTypeCount bounds the number of AST nodes a single parse may produce.
// Exceeding it is a fatal parser error.
const MaxTypeCount = 96

// NodeKind tags the syntactic role of a TypeAST node.
type NodeKind uint8

const (
	NodeNone NodeKind = iota
	NodePrimitive
	NodeStruct
	NodeEnum
	NodeShader
	NodeSharedContent
	NodeResources
	NodeResourceEntry
	NodeProperties
	NodePass
	NodeLibrary
	NodeFont
	NodeMaterial
	NodeRenderScenario
	NodeShaderPermutation
	NodeMaterialParameter
)

// PrimitiveKind enumerates the HLSL primitive types the grammar knows
// about: scalars, vectors, matrices, typed textures (1D/2D/3D/Cube, array,
// and RW variants), structured/byte-address/append/consume buffers,
// samplers, and two engine-specific opaque types.
type PrimitiveKind uint8

const (
	PrimNone PrimitiveKind = iota
	PrimBool
	PrimInt
	PrimUint
	PrimFloat
	PrimFloat2
	PrimFloat3
	PrimFloat4
	PrimInt2
	PrimInt3
	PrimInt4
	PrimUint2
	PrimUint3
	PrimUint4
	PrimFloat3x3
	PrimFloat4x4
	PrimFloat3x4
	PrimFloat4x3
	PrimImage1D
	PrimImage2D
	PrimImage3D
	PrimImageCube
	PrimImageCubeArray
	PrimImage1DArray
	PrimImage2DArray
	PrimROImage1D
	PrimROImage2D
	PrimROImage3D
	PrimROImageCube
	PrimROImageCubeArray
	PrimROImage1DArray
	PrimROImage2DArray
	PrimRWImage1D
	PrimRWImage2D
	PrimRWImage3D
	PrimRWImage1DArray
	PrimRWImage2DArray
	PrimROBuffer
	PrimRWBuffer
	PrimROStructuredBuffer
	PrimRWStructuredBuffer
	PrimRawBuffer
	PrimRWRawBuffer
	PrimAppendBuffer
	PrimConsumeBuffer
	PrimSampler
	PrimSamplerComparison
	PrimCFlag
	PrimCInt
)

// primitiveInfo carries the canonical HLSL spelling and byte size for a
// primitive kind. A size of 0 means "opaque / not host-storable" — the
// generator treats it as a skip-with-warning sentinel when packing
// cbuffers.
type primitiveInfo struct {
	name string
	size uint32
}

var primitiveTable = map[PrimitiveKind]primitiveInfo{
	PrimBool:               {"bool", 4},
	PrimInt:                {"int", 4},
	PrimUint:                {"uint", 4},
	PrimFloat:              {"float", 4},
	PrimFloat2:             {"float2", 8},
	PrimFloat3:             {"float3", 12},
	PrimFloat4:             {"float4", 16},
	PrimInt2:               {"int2", 8},
	PrimInt3:               {"int3", 12},
	PrimInt4:               {"int4", 16},
	PrimUint2:              {"uint2", 8},
	PrimUint3:              {"uint3", 12},
	PrimUint4:              {"uint4", 16},
	PrimFloat3x3:           {"float3x3", 36},
	PrimFloat4x4:           {"float4x4", 64},
	PrimFloat3x4:           {"float3x4", 48},
	PrimFloat4x3:           {"float4x3", 48},
	PrimImage1D:            {"Texture1D", 0},
	PrimImage2D:            {"Texture2D", 0},
	PrimImage3D:            {"Texture3D", 0},
	PrimImageCube:          {"TextureCube", 0},
	PrimImageCubeArray:     {"TextureCubeArray", 0},
	PrimImage1DArray:       {"Texture1DArray", 0},
	PrimImage2DArray:       {"Texture2DArray", 0},
	PrimROImage1D:          {"ROTexture1D", 0},
	PrimROImage2D:          {"ROTexture2D", 0},
	PrimROImage3D:          {"ROTexture3D", 0},
	PrimROImageCube:        {"ROTextureCube", 0},
	PrimROImageCubeArray:   {"ROTextureCubeArray", 0},
	PrimROImage1DArray:     {"ROTexture1DArray", 0},
	PrimROImage2DArray:     {"ROTexture2DArray", 0},
	PrimRWImage1D:          {"RWTexture1D", 0},
	PrimRWImage2D:          {"RWTexture2D", 0},
	PrimRWImage3D:          {"RWTexture3D", 0},
	PrimRWImage1DArray:     {"RWTexture1DArray", 0},
	PrimRWImage2DArray:     {"RWTexture2DArray", 0},
	PrimROBuffer:           {"Buffer", 0},
	PrimRWBuffer:           {"RWBuffer", 0},
	PrimROStructuredBuffer: {"StructuredBuffer", 0},
	PrimRWStructuredBuffer: {"RWStructuredBuffer", 0},
	PrimRawBuffer:          {"ByteAddressBuffer", 0},
	PrimRWRawBuffer:        {"RWByteAddressBuffer", 0},
	PrimAppendBuffer:       {"AppendStructuredBuffer", 0},
	PrimConsumeBuffer:      {"ConsumeStructuredBuffer", 0},
	PrimSampler:            {"sampler", 0},
	PrimSamplerComparison:  {"SamplerComparisonState", 0},
	PrimCFlag:              {"cflag", 0},
	PrimCInt:               {"cint", 4},
}

// PrimitiveSize returns the byte size registered for kind, and whether it
// was found at all (as distinct from a registered size of 0).
func PrimitiveSize(kind PrimitiveKind) (uint32, bool) {
	info, ok := primitiveTable[kind]
	return info.size, ok
}

// PrimitiveName returns the canonical HLSL spelling for kind.
func PrimitiveName(kind PrimitiveKind) string {
	return primitiveTable[kind].name
}

// readOnlyPrimitives is the set used by the generator's resource-list
// emission to classify a resource entry as read-only.
var readOnlyPrimitives = map[PrimitiveKind]bool{
	PrimROBuffer:           true,
	PrimROStructuredBuffer: true,
	PrimImage1D:            true,
	PrimImage2D:            true,
	PrimImage3D:            true,
	PrimImageCube:          true,
	PrimImageCubeArray:     true,
	PrimImage1DArray:       true,
	PrimImage2DArray:       true,
	PrimROImage1D:          true,
	PrimROImage2D:          true,
	PrimROImage3D:          true,
	PrimROImageCube:        true,
	PrimROImageCubeArray:   true,
	PrimROImage1DArray:     true,
	PrimROImage2DArray:     true,
	PrimSampler:            true,
	PrimSamplerComparison:  true,
	PrimRawBuffer:          true,
}

// IsReadOnly reports whether kind is classified read-only for register
// assignment purposes (§4.D resource-list emission).
func IsReadOnly(kind PrimitiveKind) bool { return readOnlyPrimitives[kind] }

// IsImageKind reports whether kind denotes any texture/image primitive,
// read-only or read-write.
func IsImageKind(kind PrimitiveKind) bool {
	switch kind {
	case PrimImage1D, PrimImage2D, PrimImage3D, PrimImageCube, PrimImageCubeArray,
		PrimImage1DArray, PrimImage2DArray,
		PrimROImage1D, PrimROImage2D, PrimROImage3D, PrimROImageCube, PrimROImageCubeArray,
		PrimROImage1DArray, PrimROImage2DArray,
		PrimRWImage1D, PrimRWImage2D, PrimRWImage3D, PrimRWImage1DArray, PrimRWImage2DArray:
		return true
	}
	return false
}

// TypeAST is the uniform tagged node used for every syntactic element the
// parser produces. Nodes are referenced by index into the owning Parser's
// pool and are never individually freed.
type TypeAST struct {
	Kind          NodeKind
	PrimitiveKind PrimitiveKind
	Name          Slice

	// Names, ChildTypes, and Values are always the same length (invariant).
	// ChildTypes holds indices into the owning pool; InvalidTypeIndex marks
	// a typeless child.
	Names      []Slice
	ChildTypes []int
	Values     []Slice

	Exportable bool
}

// InvalidTypeIndex marks the absence of a child type reference.
const InvalidTypeIndex = -1

// AddChild appends a (name, childType, value) triple, preserving the
// equal-length invariant across Names/ChildTypes/Values.
func (t *TypeAST) AddChild(name Slice, childType int, value Slice) {
	t.Names = append(t.Names, name)
	t.ChildTypes = append(t.ChildTypes, childType)
	t.Values = append(t.Values, value)
}
