package rlib

import (
	"fmt"
	"sort"
	"strings"
)

type cbufferField struct {
	name     string
	typeName string
	size     uint32
}

// emitPropertiesCBuffer packs the library Properties block's runtime
// (non-compile-time) fields into 16-byte lines (§4.D "Constant-buffer
// emission") and returns the generated `PerPassBuffer` declaration at
// register b1, alongside any cflag/cint constants found (moved out of the
// buffer rather than emitted).
func (g *Generator) emitPropertiesCBuffer() (hlsl string, cflags map[string]string, warnings []Warning) {
	cflags = make(map[string]string)
	if g.properties == nil {
		return "", cflags, nil
	}

	var fields []cbufferField
	for i, childIdx := range g.properties.ChildTypes {
		if childIdx == InvalidTypeIndex {
			continue
		}
		name := g.p.Text(g.properties.Names[i])
		kind := g.p.GetType(childIdx).PrimitiveKind
		if kind == PrimCFlag || kind == PrimCInt {
			cflags[name] = trimQuotes(g.p.Text(g.properties.Values[i]))
			continue
		}
		size, ok := PrimitiveSize(kind)
		if !ok || size == 0 {
			warnings = append(warnings, Warning{Pass: g.LibraryName, Message: fmt.Sprintf("cbuffer: unknown or opaque primitive size for %q, skipped", name)})
			continue
		}
		fields = append(fields, cbufferField{name: name, typeName: PrimitiveName(kind), size: size})
	}
	if len(fields) == 0 {
		return "", cflags, warnings
	}

	lines := packCbufferLines(fields)

	var b strings.Builder
	b.WriteString("cbuffer PerPassBuffer : register(b1) {\n")
	for lineIdx, line := range lines {
		for _, f := range line.fields {
			fmt.Fprintf(&b, "    %s %s;\n", f.typeName, f.name)
		}
		if rem := 16 - line.used; rem > 0 {
			writeCbufferPadding(&b, rem, lineIdx)
		}
	}
	b.WriteString("};\n")
	return b.String(), cflags, warnings
}

type cbufferLine struct {
	fields []cbufferField
	used   uint32
}

// packCbufferLines runs a first-fit-decreasing bin pack of fields into
// 16-byte lines: fields are considered largest-first, each placed into
// the first line with enough remaining room, opening a new line only when
// none fits.
func packCbufferLines(fields []cbufferField) []cbufferLine {
	sorted := append([]cbufferField(nil), fields...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].size > sorted[j].size })

	var lines []cbufferLine
	for _, f := range sorted {
		placed := false
		for i := range lines {
			if lines[i].used+f.size <= 16 {
				lines[i].fields = append(lines[i].fields, f)
				lines[i].used += f.size
				placed = true
				break
			}
		}
		if !placed {
			lines = append(lines, cbufferLine{fields: []cbufferField{f}, used: f.size})
		}
	}
	return lines
}

// writeCbufferPadding emits a padding field for one packed line. The
// identifier is suffixed with lineIdx since a cbuffer needing padding on
// more than one line would otherwise declare __PADDING__ twice.
func writeCbufferPadding(b *strings.Builder, bytes uint32, lineIdx int) {
	if bytes%4 == 0 && bytes > 0 {
		n := bytes / 4
		if n == 1 {
			fmt.Fprintf(b, "    float __PADDING_%d__;\n", lineIdx)
		} else {
			fmt.Fprintf(b, "    float __PADDING_%d__[%d];\n", lineIdx, n)
		}
		return
	}
	fmt.Fprintf(b, "    uint8_t __PADDING_%d__[%d];\n", lineIdx, bytes)
}
