package rlib

import "testing"

const sampleLibrarySource = `
struct Vertex {
	float3 position;
	float2 uv;
}

lib BasicLit {
	properties {
		float4 tintColor = 1.0;
	}

	resources {
		Texture2D albedo;
		sampler linearSampler;
	}

	shader vs_main {
		float4 main() { return float4(0,0,0,1); }
	}

	pass Opaque {
		vertex = vs_main;
		cullMode = back;
	}
}

font Body {
	face = "fonts/body.ttf";
	size = 14;
}
`

func TestParserIsDeterministic(t *testing.T) {
	p1 := NewParser(sampleLibrarySource)
	p1.GenerateAST()

	p2 := NewParser(sampleLibrarySource)
	p2.GenerateAST()

	if p1.TypeCount() != p2.TypeCount() {
		t.Fatalf("type counts differ across identical parses: %d vs %d", p1.TypeCount(), p2.TypeCount())
	}
	for i := 0; i < p1.TypeCount(); i++ {
		a, b := p1.GetType(i), p2.GetType(i)
		if a.Kind != b.Kind || a.PrimitiveKind != b.PrimitiveKind {
			t.Fatalf("node %d kind mismatch: %+v vs %+v", i, a, b)
		}
		if p1.Text(a.Name) != p2.Text(b.Name) {
			t.Fatalf("node %d name mismatch: %q vs %q", i, p1.Text(a.Name), p2.Text(b.Name))
		}
		if len(a.Names) != len(b.Names) {
			t.Fatalf("node %d child count mismatch: %d vs %d", i, len(a.Names), len(b.Names))
		}
	}
}

func TestParserPrimitivesPrepopulated(t *testing.T) {
	p := NewParser("")
	if p.TypeCount() != len(primitiveOrder) {
		t.Fatalf("expected %d prepopulated primitives, got %d", len(primitiveOrder), p.TypeCount())
	}
	idx := p.lookupType("float4")
	if idx == InvalidTypeIndex {
		t.Fatal("expected float4 to resolve to a prepopulated primitive")
	}
	if p.GetType(idx).PrimitiveKind != PrimFloat4 {
		t.Fatalf("expected PrimFloat4, got %v", p.GetType(idx).PrimitiveKind)
	}
}

func TestParserStructAndLibrary(t *testing.T) {
	p := NewParser(sampleLibrarySource)
	p.GenerateAST()

	var structIdx, libIdx, fontIdx = InvalidTypeIndex, InvalidTypeIndex, InvalidTypeIndex
	for i := 0; i < p.TypeCount(); i++ {
		switch p.GetType(i).Kind {
		case NodeStruct:
			structIdx = i
		case NodeLibrary:
			libIdx = i
		case NodeFont:
			fontIdx = i
		}
	}
	if structIdx == InvalidTypeIndex {
		t.Fatal("expected a struct node")
	}
	if p.Text(p.GetType(structIdx).Name) != "Vertex" {
		t.Fatalf("expected struct named Vertex, got %q", p.Text(p.GetType(structIdx).Name))
	}
	if len(p.GetType(structIdx).Names) != 2 {
		t.Fatalf("expected 2 struct fields, got %d", len(p.GetType(structIdx).Names))
	}

	if libIdx == InvalidTypeIndex {
		t.Fatal("expected a library node")
	}
	lib := p.GetType(libIdx)
	if p.Text(lib.Name) != "BasicLit" {
		t.Fatalf("expected library named BasicLit, got %q", p.Text(lib.Name))
	}
	if len(lib.ChildTypes) != 4 {
		t.Fatalf("expected 4 library children (properties, resources, shader, pass), got %d", len(lib.ChildTypes))
	}

	if fontIdx == InvalidTypeIndex {
		t.Fatal("expected a font node")
	}
	font := p.GetType(fontIdx)
	if len(font.Names) != 2 {
		t.Fatalf("expected 2 font keys (face, size), got %d", len(font.Names))
	}
}

func TestParserResourcesSwizzleAndProperties(t *testing.T) {
	src := `
lib WithSwizzle {
	resources {
		StructuredBuffer<float4> particles {
			stride = 16;
		}
	}
}
`
	p := NewParser(src)
	p.GenerateAST()

	var resourcesIdx = InvalidTypeIndex
	for i := 0; i < p.TypeCount(); i++ {
		if p.GetType(i).Kind == NodeResources {
			resourcesIdx = i
		}
	}
	if resourcesIdx == InvalidTypeIndex {
		t.Fatal("expected a resources node")
	}
	resources := p.GetType(resourcesIdx)
	if len(resources.ChildTypes) != 1 {
		t.Fatalf("expected 1 resource entry, got %d", len(resources.ChildTypes))
	}
	entry := p.GetType(resources.ChildTypes[0])
	if p.Text(entry.Name) != "particles" {
		t.Fatalf("expected entry named particles, got %q", p.Text(entry.Name))
	}
	if len(entry.Names) != 2 {
		t.Fatalf("expected 2 entry children (swizzle, stride), got %d", len(entry.Names))
	}
	if p.Text(entry.Names[0]) != "swizzle" {
		t.Fatalf("expected first child to be the swizzle slot, got %q", p.Text(entry.Names[0]))
	}
}

func TestParserFatalsOnPoolOverflow(t *testing.T) {
	var b []byte
	for i := 0; i < MaxTypeCount+10; i++ {
		b = append(b, []byte("struct S"+itoa(i)+" { float3 position; }\n")...)
	}

	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("expected a panic when exceeding MaxTypeCount")
		}
		if _, ok := r.(FatalError); !ok {
			t.Fatalf("expected FatalError panic, got %T: %v", r, r)
		}
	}()

	p := NewParser(string(b))
	p.GenerateAST()
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	digits := []byte{}
	for n > 0 {
		digits = append([]byte{byte('0' + n%10)}, digits...)
		n /= 10
	}
	return string(digits)
}
