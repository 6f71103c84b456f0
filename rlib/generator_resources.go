package rlib

import (
	"fmt"
	"strings"
)

// emitResourceList emits one `Type Name : register(rN);` declaration per
// library resource entry, assigning sampler/SRV/UAV registers in
// declaration order (§4.D "Resource-list emission"). cflags resolves a
// property-override `isMultisampled` value that names a cflag rather than
// a literal boolean. overlap is the pass's declared render targets and
// depth-stencil target; a resource whose name is in overlap is forced to
// a UAV register regardless of its declared classification (testable
// property #9), and UAV numbering starts past colorRTCount so a pass's
// own render targets keep their implicit u0..u(colorRTCount-1) slots
// (testable property #8).
func (g *Generator) emitResourceList(cflags map[string]string, overlap map[string]bool, colorRTCount int) (hlsl string, warnings []Warning) {
	if g.resources == nil {
		return "", nil
	}

	var b strings.Builder
	samplerN, srvN, uavN := 0, 0, colorRTCount

	for _, childIdx := range g.resources.ChildTypes {
		if childIdx == InvalidTypeIndex {
			continue
		}
		entry := g.p.GetType(childIdx)
		name := g.p.Text(entry.Name)
		kind := entry.PrimitiveKind

		swizzle := g.resourceSwizzle(entry)
		ms := g.resourceIsMultisampled(entry, cflags)

		typeName := PrimitiveName(kind)
		if ms {
			typeName += "MS"
		}
		if swizzle != "" {
			typeName += "<" + swizzle + ">"
		}

		readOnly := IsReadOnly(kind)
		if overlap[name] {
			readOnly = false
		}

		var reg string
		switch {
		case kind == PrimSampler || kind == PrimSamplerComparison:
			reg = fmt.Sprintf("s%d", samplerN)
			samplerN++
		case readOnly:
			reg = fmt.Sprintf("t%d", srvN)
			srvN++
		default:
			reg = fmt.Sprintf("u%d", uavN)
			uavN++
		}

		fmt.Fprintf(&b, "%s %s : register(%s);\n", typeName, name, reg)
	}
	return b.String(), warnings
}

func (g *Generator) resourceSwizzle(entry *TypeAST) string {
	for i, n := range entry.Names {
		if g.p.Text(n) == "swizzle" {
			idx := entry.ChildTypes[i]
			if idx != InvalidTypeIndex {
				return g.p.Text(g.p.GetType(idx).Name)
			}
		}
	}
	return ""
}

func (g *Generator) resourceIsMultisampled(entry *TypeAST, cflags map[string]string) bool {
	for i, n := range entry.Names {
		if g.p.Text(n) != "isMultisampled" {
			continue
		}
		v := trimQuotes(g.p.Text(entry.Values[i]))
		switch v {
		case "true":
			return true
		case "false":
			return false
		default:
			return cflags[v] == "true"
		}
	}
	return false
}

// emitResourceMetadata emits a `DUSK_STRING_HASH` constant per resource
// naming it `<PassName>_<ResourceName>_Hashcode`, overriding the
// read-only classification (§4.D "Resource metadata" / testable property
// #9) for any resource whose name is in overlap (the pass's declared
// render targets or depth-stencil target), and groups multiple writable
// image handles into one output struct when more than one exists.
func (g *Generator) emitResourceMetadata(passName string, overlap map[string]bool) {
	if g.resources == nil {
		return
	}

	var writableImages []string
	for _, childIdx := range g.resources.ChildTypes {
		if childIdx == InvalidTypeIndex {
			continue
		}
		entry := g.p.GetType(childIdx)
		name := g.p.Text(entry.Name)
		kind := entry.PrimitiveKind

		fmt.Fprintf(&g.metadataBuf, "#define %s_%s_Hashcode DUSK_STRING_HASH(\"%s\")\n", passName, name, name)

		readOnly := IsReadOnly(kind)
		if overlap[name] {
			readOnly = false
		}
		if !readOnly && IsImageKind(kind) {
			writableImages = append(writableImages, name)
		}
	}

	if len(writableImages) > 1 {
		fmt.Fprintf(&g.metadataBuf, "struct %sWritableImages {\n", passName)
		for _, name := range writableImages {
			fmt.Fprintf(&g.metadataBuf, "    uint32_t %s;\n", name)
		}
		g.metadataBuf.WriteString("};\n")
	}
}
