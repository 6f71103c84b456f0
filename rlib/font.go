package rlib

import (
	"bytes"
	"fmt"
	"io"

	gotextfont "github.com/go-text/typesetting/font"

	"github.com/duskengine/render/vfs"
)

// FontMetrics is the metadata-header-level summary of a Font AST node's
// referenced face (§3.11): no glyph outlines are loaded, only the header
// fields a binding layer needs to validate against at runtime.
type FontMetrics struct {
	Name       string
	FacePath   string
	SizePoints string
	UnitsPerEm uint16
	Ascent     float32
	Descent    float32
	GlyphCount int
}

// SetFileSystem gives the generator a filesystem to resolve Font AST
// nodes' face paths against. Without one, Font nodes still emit a
// FontAsset descriptor but with zeroed metrics and a warning, matching
// §4.D's "unresolved input degrades to a warning, not a fatal error"
// posture used elsewhere in the generator.
func (g *Generator) SetFileSystem(fs vfs.FileSystem) { g.fs = fs }

// GenerateFonts resolves every top-level Font node in the parser's pool.
// Font declarations sit alongside lib blocks rather than inside them, so
// this walks the whole pool rather than a single Library's children; call
// it once per parse, independent of Generate.
func (g *Generator) GenerateFonts() {
	for i := 0; i < g.p.TypeCount(); i++ {
		node := g.p.GetType(i)
		if node.Kind == NodeFont {
			g.processFont(g.p.Text(node.Name), node)
		}
	}
}

// processFont resolves one Font AST node into a FontMetrics entry,
// appending it to the metadata header as a comment block and to the
// reflection header as a FontAsset descriptor struct (§3.11).
func (g *Generator) processFont(name string, node *TypeAST) {
	m := FontMetrics{Name: name}
	for i, key := range node.Names {
		switch g.p.Text(key) {
		case "face":
			m.FacePath = trimQuotes(g.p.Text(node.Values[i]))
		case "size":
			m.SizePoints = trimQuotes(g.p.Text(node.Values[i]))
		}
	}

	if m.FacePath == "" {
		g.Warnings = append(g.Warnings, Warning{Pass: name, Message: "font block has no face path"})
		g.emitFontMetadata(m)
		return
	}

	metrics, err := g.loadFontMetrics(m.FacePath)
	if err != nil {
		g.Warnings = append(g.Warnings, Warning{Pass: name, Message: fmt.Sprintf("font %q: %s", m.FacePath, err)})
		g.emitFontMetadata(m)
		return
	}
	m.UnitsPerEm = metrics.UnitsPerEm
	m.Ascent = metrics.Ascent
	m.Descent = metrics.Descent
	m.GlyphCount = metrics.GlyphCount

	g.emitFontMetadata(m)
}

type fontFaceMetrics struct {
	UnitsPerEm uint16
	Ascent     float32
	Descent    float32
	GlyphCount int
}

// loadFontMetrics opens facePath through the generator's filesystem and
// parses just enough of the font file, via go-text/typesetting/font (the
// same package text/shaper_gotext.go uses for glyph shaping), to read its
// header-level metrics.
func (g *Generator) loadFontMetrics(facePath string) (fontFaceMetrics, error) {
	if g.fs == nil {
		return fontFaceMetrics{}, fmt.Errorf("no filesystem configured")
	}
	f, err := g.fs.Open(facePath, vfs.ModeRead)
	if err != nil {
		return fontFaceMetrics{}, err
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return fontFaceMetrics{}, err
	}

	face, err := gotextfont.ParseTTF(bytes.NewReader(data))
	if err != nil {
		return fontFaceMetrics{}, err
	}

	out := fontFaceMetrics{
		UnitsPerEm: face.Font.Upem(),
		GlyphCount: face.Font.NumGlyphs(),
	}
	if lm, ok := face.Font.LineMetrics(); ok {
		out.Ascent = lm.Ascent
		out.Descent = lm.Descent
	}
	return out, nil
}

// emitFontMetadata writes m's summary to the metadata header as a comment
// block and, when reflection is enabled, a FontAsset descriptor struct.
func (g *Generator) emitFontMetadata(m FontMetrics) {
	if g.generateMetadata {
		fmt.Fprintf(&g.metadataBuf, "// Font %s: face=%q size=%s unitsPerEm=%d ascent=%.2f descent=%.2f glyphs=%d\n",
			m.Name, m.FacePath, m.SizePoints, m.UnitsPerEm, m.Ascent, m.Descent, m.GlyphCount)
	}
	if g.generateReflection {
		fmt.Fprintf(&g.reflectionBuf, "struct %sFontAsset {\n", m.Name)
		fmt.Fprintf(&g.reflectionBuf, "    const char* FacePath = %q;\n", m.FacePath)
		fmt.Fprintf(&g.reflectionBuf, "    f32 SizePoints = %s;\n", fallbackZero(m.SizePoints))
		fmt.Fprintf(&g.reflectionBuf, "    u32 UnitsPerEm = %d;\n", m.UnitsPerEm)
		fmt.Fprintf(&g.reflectionBuf, "    f32 Ascent = %g;\n", m.Ascent)
		fmt.Fprintf(&g.reflectionBuf, "    f32 Descent = %g;\n", m.Descent)
		fmt.Fprintf(&g.reflectionBuf, "    i32 GlyphCount = %d;\n", m.GlyphCount)
		g.reflectionBuf.WriteString("};\n")
	}
}

func fallbackZero(s string) string {
	if s == "" {
		return "0"
	}
	return s
}
