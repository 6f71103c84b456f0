package rlib

import "testing"

func TestLookupSemanticCaseInsensitive(t *testing.T) {
	for _, name := range []string{"sv_position", "SV_POSITION", "SV_Position", "sV_pOsItIoN"} {
		entry, ok := LookupSemantic(name)
		if !ok {
			t.Fatalf("expected %q to resolve", name)
		}
		if entry.Name != "SV_Position" {
			t.Fatalf("expected canonical name SV_Position, got %q", entry.Name)
		}
		if entry.Scalar != ScalarFloat4 {
			t.Fatalf("expected ScalarFloat4, got %v", entry.Scalar)
		}
	}
}

func TestLookupSemanticUnknown(t *testing.T) {
	if _, ok := LookupSemantic("NotARealSemantic"); ok {
		t.Fatal("expected unknown semantic to fail lookup")
	}
}

func TestSemanticStageAccess(t *testing.T) {
	entry, ok := LookupSemantic("SV_Position")
	if !ok {
		t.Fatal("expected SV_Position to resolve")
	}
	if !IsStageOutput(entry.AccessMask, StageVertex) {
		t.Fatal("expected SV_Position to be a vertex-stage output")
	}
	if IsStageOutput(entry.AccessMask, StagePixel) {
		t.Fatal("expected SV_Position to be a pixel-stage input, not output")
	}
}

func TestSemanticIndexedChannelsResolve(t *testing.T) {
	entry, ok := LookupSemantic("TEXCOORD0")
	if !ok {
		t.Fatal("expected TEXCOORD0 to resolve")
	}
	if entry.Scalar != ScalarFloat2 {
		t.Fatalf("expected ScalarFloat2, got %v", entry.Scalar)
	}

	target, ok := LookupSemantic("SV_Target3")
	if !ok {
		t.Fatal("expected SV_Target3 to resolve")
	}
	if !IsStageOutput(target.AccessMask, StagePixel) {
		t.Fatal("expected SV_Target3 to be a pixel-stage output")
	}
}

func TestSemanticTableSizeMatchesDocumentedBreadth(t *testing.T) {
	// The table is specified as a fixed compile-time table of 120
	// entries: 30 SV_* system values plus ten indexed channel families
	// (POSITION, NORMAL, TANGENT, TEXCOORD, COLOR, DEPTH, BINORMAL,
	// BLENDINDICES, BLENDWEIGHT, PSIZE), each contributing a bare form
	// plus eight numbered variants.
	if n := SemanticTableSize(); n != 120 {
		t.Fatalf("expected exactly 120 semantic entries, got %d", n)
	}
}
