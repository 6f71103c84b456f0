package rlib

import (
	"fmt"
)

// reflectionSpelling maps a primitive kind to its C-style struct field
// type, its IMGUI-style widget call, and the widget's trailing argument
// list — a single table standing in for the large per-type switch the
// original reflection emitter used.
type reflectionSpelling struct {
	fieldType  string
	widgetCall string
	widgetTail string
}

var reflectionTable = map[PrimitiveKind]reflectionSpelling{
	PrimBool:     {"bool", "Checkbox", ""},
	PrimInt:      {"i32", "InputInt", ""},
	PrimUint:     {"u32", "InputInt", ""},
	PrimFloat:    {"f32", "DragFloat", ""},
	PrimFloat2:   {"vec2", "DragFloat2", ""},
	PrimFloat3:   {"vec3", "DragFloat3", ""},
	PrimFloat4:   {"vec4", "DragFloat4", ""},
	PrimInt2:     {"vec2", "DragFloat2", ""},
	PrimInt3:     {"vec3", "DragFloat3", ""},
	PrimInt4:     {"vec4", "DragFloat4", ""},
	PrimFloat4x4: {"mat4x4", "", ""},
}

// emitReflectionStruct emits, for each runtime Properties field, a padded
// C-style struct field and (when the type has a mapped widget) an
// IMGUI-guarded widget call bound to it (§4.D "Reflection emission").
func (g *Generator) emitReflectionStruct(passName string) {
	if g.properties == nil {
		return
	}

	fmt.Fprintf(&g.reflectionBuf, "struct %sProperties {\n", passName)
	type fieldRef struct {
		name string
		kind PrimitiveKind
		size uint32
	}
	var fields []fieldRef
	total := uint32(0)

	for i, childIdx := range g.properties.ChildTypes {
		if childIdx == InvalidTypeIndex {
			continue
		}
		kind := g.p.GetType(childIdx).PrimitiveKind
		if kind == PrimCFlag || kind == PrimCInt {
			continue
		}
		spelling, ok := reflectionTable[kind]
		if !ok {
			continue
		}
		name := g.p.Text(g.properties.Names[i])
		value := g.p.Text(g.properties.Values[i])
		size, _ := PrimitiveSize(kind)

		if value != "" {
			fmt.Fprintf(&g.reflectionBuf, "    %s %s = %s;\n", spelling.fieldType, name, value)
		} else {
			fmt.Fprintf(&g.reflectionBuf, "    %s %s;\n", spelling.fieldType, name)
		}
		fields = append(fields, fieldRef{name, kind, size})
		total += size
	}

	if pad := paddingTo16(total); pad > 0 {
		fmt.Fprintf(&g.reflectionBuf, "    uint8_t __PADDING__[%d];\n", pad)
	}
	g.reflectionBuf.WriteString("};\n")

	g.reflectionBuf.WriteString("#if DUSK_USE_IMGUI\n")
	fmt.Fprintf(&g.reflectionBuf, "void Draw%sProperties(%sProperties* props) {\n", passName, passName)
	for _, f := range fields {
		spelling, ok := reflectionTable[f.kind]
		if !ok || spelling.widgetCall == "" {
			continue
		}
		fmt.Fprintf(&g.reflectionBuf, "    ImGui::%s(\"%s\", &props->%s);\n", spelling.widgetCall, f.name, f.name)
	}
	g.reflectionBuf.WriteString("}\n")
	g.reflectionBuf.WriteString("#endif\n")
}

func paddingTo16(size uint32) uint32 {
	rem := size % 16
	if rem == 0 {
		return 0
	}
	return 16 - rem
}
