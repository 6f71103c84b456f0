// Command rlibc compiles a render-library source file into its generated
// HLSL stage sources, an engine-side metadata header, and (optionally) a
// reflection header.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/duskengine/render/rlib"
	"github.com/duskengine/render/rlog"
	"github.com/duskengine/render/vfs"
)

func main() {
	inPath := flag.String("in", "", "path to the .rlib source file")
	outDir := flag.String("out", ".", "directory to write generated shader/header files into")
	wantMetadata := flag.Bool("metadata", true, "emit the engine-side metadata header")
	wantReflection := flag.Bool("reflection", true, "emit the IMGUI reflection header")
	verbose := flag.Bool("v", false, "enable debug logging")
	flag.Parse()

	if *verbose {
		rlog.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
	} else {
		rlog.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, nil)))
	}
	log := rlog.Logger()

	if *inPath == "" {
		fmt.Fprintln(os.Stderr, "rlibc: -in is required")
		os.Exit(2)
	}

	if err := run(*inPath, *outDir, *wantMetadata, *wantReflection, log); err != nil {
		log.Error("compile failed", "error", err)
		os.Exit(1)
	}
}

func run(inPath, outDir string, wantMetadata, wantReflection bool, log *slog.Logger) error {
	fs := vfs.OS{}
	f, err := fs.Open(inPath, vfs.ModeRead)
	if err != nil {
		return fmt.Errorf("open %q: %w", inPath, err)
	}
	defer f.Close()

	size, err := f.Size()
	if err != nil {
		return fmt.Errorf("stat %q: %w", inPath, err)
	}
	buf := make([]byte, size)
	if _, err := f.Read(buf); err != nil {
		return fmt.Errorf("read %q: %w", inPath, err)
	}

	p := rlib.NewParser(string(buf))
	p.GenerateAST()
	if p.Errored() {
		return fmt.Errorf("%q: parse error", inPath)
	}

	lib := findLibrary(p)
	if lib == nil {
		return fmt.Errorf("%q: no lib block found", inPath)
	}

	g := rlib.NewGenerator(p, wantMetadata, wantReflection)
	g.SetFileSystem(fs)
	g.Generate(lib)
	g.GenerateFonts()

	for _, w := range g.Warnings {
		log.Warn("generator warning", "pass", w.Pass, "message", w.Message)
	}

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("create output dir %q: %w", outDir, err)
	}

	base := strings.TrimSuffix(filepath.Base(inPath), filepath.Ext(inPath))
	for _, shader := range g.GeneratedShaders {
		name := fmt.Sprintf("%s.%s.hlsl", base, shader.FilenameDigest)
		if err := writeFile(fs, filepath.Join(outDir, name), []byte(shader.Source)); err != nil {
			return err
		}
		log.Info("wrote shader", "pass", shader.PassName, "stage", shader.Stage, "file", name)
	}

	if wantMetadata {
		if err := writeFile(fs, filepath.Join(outDir, base+".generated.h"), []byte(g.MetadataHeader())); err != nil {
			return err
		}
	}
	if wantReflection {
		if err := writeFile(fs, filepath.Join(outDir, base+".reflection.h"), []byte(g.ReflectionHeader())); err != nil {
			return err
		}
	}

	log.Info("compiled render library", "lib", g.LibraryName, "passes", len(g.RenderPassInfos), "shaders", len(g.GeneratedShaders))
	return nil
}

func findLibrary(p *rlib.Parser) *rlib.TypeAST {
	for i := 0; i < p.TypeCount(); i++ {
		if n := p.GetType(i); n.Kind == rlib.NodeLibrary {
			return n
		}
	}
	return nil
}

func writeFile(fs vfs.OS, path string, data []byte) error {
	f, err := fs.Open(path, vfs.ModeWrite)
	if err != nil {
		return fmt.Errorf("open %q for write: %w", path, err)
	}
	defer f.Close()
	if _, err := f.Write(data); err != nil {
		return fmt.Errorf("write %q: %w", path, err)
	}
	return nil
}
