package rlib

import "golang.org/x/text/cases"

var semanticFold = cases.Fold()

// ScalarType is the HLSL scalar/vector type a semantic binds to when it
// appears in an input or output struct.
type ScalarType uint8

const (
	ScalarNone ScalarType = iota
	ScalarFloat
	ScalarFloat2
	ScalarFloat3
	ScalarFloat4
	ScalarFloatArray2
	ScalarUint
	ScalarUint3
	ScalarBool
)

func (t ScalarType) String() string {
	switch t {
	case ScalarFloat:
		return "float"
	case ScalarFloat2:
		return "float2"
	case ScalarFloat3:
		return "float3"
	case ScalarFloat4:
		return "float4"
	case ScalarFloatArray2:
		return "float[2]"
	case ScalarUint:
		return "uint"
	case ScalarUint3:
		return "uint3"
	case ScalarBool:
		return "bool"
	default:
		return ""
	}
}

// Stage indexes into a semantic's stage-access mask. Bit order matches
// the generator's concatenation order when building per-stage structs.
type Stage uint8

const (
	StageVertex Stage = iota
	StageTessControl
	StageTessEval
	StagePixel
	StageCompute
)

func stageBit(s Stage) uint8 { return 1 << uint8(s) }

// SemanticEntry is one row of the compile-time HLSL semantic table: the
// canonical spelling, its HLSL-side type, and a 5-bit stage-access mask
// where a set bit means "this stage writes it" (stage output) and a
// clear bit means "this stage reads it" (stage input).
type SemanticEntry struct {
	Name       string
	Scalar     ScalarType
	AccessMask uint8
}

// baseSemantics holds the 30 SV_* system-value semantics, spelled exactly
// as HLSL requires. Everything past this is an indexed per-channel
// semantic (POSITION0, TEXCOORD3, ...) generated by init() below.
var baseSemantics = []SemanticEntry{
	{"SV_ClipDistance", ScalarFloat, 0},
	{"SV_CullDistance", ScalarFloat, 0},
	{"SV_Coverage", ScalarUint, stageBit(StagePixel)},
	{"SV_Depth", ScalarFloat, stageBit(StagePixel)},
	{"SV_DispatchThreadID", ScalarUint3, 0},
	{"SV_DomainLocation", ScalarFloat3, 0},
	{"SV_GroupID", ScalarUint3, 0},
	{"SV_GroupIndex", ScalarUint, 0},
	{"SV_GroupThreadID", ScalarUint3, 0},
	{"SV_GSInstanceID", ScalarUint, 0},
	{"SV_InsideTessFactor", ScalarFloatArray2, stageBit(StageTessControl)},
	{"SV_InstanceID", ScalarUint, 0},
	{"SV_IsFrontFace", ScalarBool, 0},
	{"SV_OutputControlPointID", ScalarUint, 0},
	{"SV_Position", ScalarFloat4, stageBit(StageVertex)},
	{"SV_PrimitiveID", ScalarFloat4, stageBit(StagePixel)},
	{"SV_RenderTargetArrayIndex", ScalarFloat4, 0},
	{"SV_SampleIndex", ScalarFloat4, stageBit(StagePixel)},
	{"SV_StencilRef", ScalarFloat4, stageBit(StagePixel)},
	{"SV_Target0", ScalarFloat4, stageBit(StagePixel)},
	{"SV_Target1", ScalarFloat4, stageBit(StagePixel)},
	{"SV_Target2", ScalarFloat4, stageBit(StagePixel)},
	{"SV_Target3", ScalarFloat4, stageBit(StagePixel)},
	{"SV_Target4", ScalarFloat4, stageBit(StagePixel)},
	{"SV_Target5", ScalarFloat4, stageBit(StagePixel)},
	{"SV_Target6", ScalarFloat4, stageBit(StagePixel)},
	{"SV_Target7", ScalarFloat4, stageBit(StagePixel)},
	{"SV_TessFactor", ScalarFloat4, stageBit(StageTessControl) | stageBit(StagePixel)},
	{"SV_VertexID", ScalarUint, 0},
	{"SV_ViewportArrayIndex", ScalarUint, 0},
}

// indexedSemanticGroup describes one of the ten channel-indexed semantic
// families: a bare form plus eight numbered variants (NAME, NAME0..NAME7).
// The bare form is always a stage input (access 0); the numbered variants
// carry accessMask, which is the vertex-stage write bit for every group
// except DEPTH, whose numbered variants are pixel-stage outputs.
type indexedSemanticGroup struct {
	name       string
	scalar     ScalarType
	accessMask uint8
}

var indexedSemanticGroups = []indexedSemanticGroup{
	{"POSITION", ScalarFloat4, stageBit(StageVertex)},
	{"NORMAL", ScalarFloat4, stageBit(StageVertex)},
	{"TANGENT", ScalarFloat4, stageBit(StageVertex)},
	{"TEXCOORD", ScalarFloat2, stageBit(StageVertex)},
	{"COLOR", ScalarFloat4, stageBit(StageVertex)},
	{"DEPTH", ScalarFloat, stageBit(StagePixel)},
	{"BINORMAL", ScalarFloat4, stageBit(StageVertex)},
	{"BLENDINDICES", ScalarUint, stageBit(StageVertex)},
	{"BLENDWEIGHT", ScalarFloat, stageBit(StageVertex)},
	{"PSIZE", ScalarFloat, stageBit(StageVertex)},
}

var semanticTable []SemanticEntry
var semanticByName map[string]int

func init() {
	semanticTable = append(semanticTable, baseSemantics...)

	for _, group := range indexedSemanticGroups {
		semanticTable = append(semanticTable, SemanticEntry{Name: group.name, Scalar: group.scalar, AccessMask: 0})
		for i := 0; i <= 7; i++ {
			semanticTable = append(semanticTable, SemanticEntry{
				Name:       group.name + itoaSemantic(i),
				Scalar:     group.scalar,
				AccessMask: group.accessMask,
			})
		}
	}

	semanticByName = make(map[string]int, len(semanticTable))
	for i, e := range semanticTable {
		semanticByName[semanticFold.String(e.Name)] = i
	}
}

func itoaSemantic(n int) string {
	if n == 0 {
		return "0"
	}
	var digits []byte
	for n > 0 {
		digits = append([]byte{byte('0' + n%10)}, digits...)
		n /= 10
	}
	return string(digits)
}

// LookupSemantic resolves a `$Identifier` name against the semantic
// table, case-insensitively, returning its canonical entry. ok is false
// for unrecognized identifiers.
func LookupSemantic(name string) (entry SemanticEntry, ok bool) {
	idx, found := semanticByName[semanticFold.String(name)]
	if !found {
		return SemanticEntry{}, false
	}
	return semanticTable[idx], true
}

// IsStageOutput reports whether stage s writes (rather than reads) the
// given semantic's access mask.
func IsStageOutput(mask uint8, s Stage) bool {
	return mask&stageBit(s) != 0
}

// SemanticTableSize returns the number of entries in the compile-time
// semantic table.
func SemanticTableSize() int { return len(semanticTable) }
