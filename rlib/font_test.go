package rlib

import (
	"strings"
	"testing"

	"github.com/duskengine/render/vfs"
)

const fontSource = `
font BodyFace {
	face = "fonts/body.ttf";
	size = 14;
}

lib Empty {
	shader ps_main {
		$SV_Target0 = float4(1, 1, 1, 1);
	}

	pass Opaque {
		pixel = "ps_main";
	}
}
`

func TestGenerateFontsWithoutFileSystemWarnsAndEmitsDescriptor(t *testing.T) {
	p, g := generate(t, fontSource)
	g.GenerateFonts()
	_ = p

	if len(g.Warnings) == 0 {
		t.Fatal("expected a warning when no filesystem is configured")
	}
	if !strings.Contains(g.Warnings[len(g.Warnings)-1].Message, "no filesystem configured") {
		t.Errorf("unexpected warning message: %q", g.Warnings[len(g.Warnings)-1].Message)
	}

	reflection := g.ReflectionHeader()
	if !strings.Contains(reflection, "struct BodyFaceFontAsset {") {
		t.Errorf("expected a BodyFaceFontAsset struct:\n%s", reflection)
	}
	if !strings.Contains(reflection, `FacePath = "fonts/body.ttf";`) {
		t.Errorf("expected FacePath field:\n%s", reflection)
	}

	meta := g.MetadataHeader()
	if !strings.Contains(meta, "Font BodyFace:") {
		t.Errorf("expected a Font metadata comment line:\n%s", meta)
	}
}

func TestGenerateFontsMissingFaceFileWarns(t *testing.T) {
	_, g := generate(t, fontSource)
	g.SetFileSystem(vfs.NewMemFS())
	g.GenerateFonts()

	if len(g.Warnings) == 0 {
		t.Fatal("expected a warning when the face file does not exist")
	}
	last := g.Warnings[len(g.Warnings)-1]
	if last.Pass != "BodyFace" {
		t.Errorf("expected warning tagged with font name, got %q", last.Pass)
	}
}

func TestGenerateFontsNoFacePathWarns(t *testing.T) {
	_, g := generate(t, `
font Headless {
	size = 10;
}

lib Empty {
	shader ps_main {
		$SV_Target0 = float4(1, 1, 1, 1);
	}

	pass Opaque {
		pixel = "ps_main";
	}
}
`)
	g.GenerateFonts()

	if len(g.Warnings) != 1 || !strings.Contains(g.Warnings[0].Message, "no face path") {
		t.Fatalf("expected exactly one 'no face path' warning, got %+v", g.Warnings)
	}
}
