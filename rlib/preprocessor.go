package rlib

import (
	"fmt"
	"strings"
)

// preprocessor re-lexes one shader stage's shared or per-stage body,
// substituting `$cflag`/`$cint` constants and `$Identifier` semantic
// references and passing `#`-directives through (with substitution
// applied to their conditions too), per §4.D "Preprocessing". It records
// which semantics the stage reads and writes along the way so emitStructs
// can assemble the stage's input/output structs once the body has been
// fully walked.
type preprocessor struct {
	g      *Generator
	stage  Stage
	cflags map[string]string

	inputOrder  []SemanticEntry
	outputOrder []SemanticEntry
	dataNames   map[string]string

	// nextIndex is shared across both input and output directions within
	// a stage: a semantic read and a semantic written by the same stage
	// still number SystemValue_0, SystemValue_1, ... in declaration order.
	nextIndex int

	proxyCount int
}

// newPreprocessor constructs a preprocessor for one stage's pass over a
// body, sharing the generator's warning-free constructor contract (errors
// surface as Warnings returned from run, never panics).
func newPreprocessor(g *Generator, stage Stage, cflags map[string]string) (*preprocessor, []Warning) {
	return &preprocessor{
		g:         g,
		stage:     stage,
		cflags:    cflags,
		dataNames: make(map[string]string),
	}, nil
}

// noSpaceBefore reports whether a substituted identifier immediately
// following prev should NOT gain a leading space: identifiers acquire a
// leading space unless the previous emitted token is one of
// `. ( { } + - * / = number , ;`, or this is the first token emitted.
func noSpaceBefore(prev Token, atStart bool) bool {
	if atStart {
		return true
	}
	switch prev.Kind {
	case TokenDot, TokenOpenParen, TokenOpenBrace, TokenCloseBrace,
		TokenPlus, TokenMinus, TokenAsterisk, TokenSlash, TokenEquals,
		TokenNumber, TokenComma, TokenSemicolon:
		return true
	}
	return false
}

// run preprocesses src, returning the substituted HLSL text.
func (p *preprocessor) run(src string) (string, []Warning) {
	var warnings []Warning
	var out strings.Builder

	lex := NewLexer(src)
	var prev Token
	haveOutput := false

	emit := func(text string, kind TokenKind) {
		if !noSpaceBefore(prev, !haveOutput) {
			out.WriteString(" ")
		}
		out.WriteString(text)
		prev = Token{Kind: kind}
		haveOutput = true
	}

	for {
		tok := lex.NextToken()
		if tok.Kind == TokenEndOfStream {
			break
		}

		switch tok.Kind {
		case TokenSharp:
			directive, w := p.preprocessDirectiveLine(lex, src)
			warnings = append(warnings, w...)
			if haveOutput {
				out.WriteString("\n")
			}
			out.WriteString(directive)
			out.WriteString("\n")
			prev = Token{Kind: TokenSemicolon}
			haveOutput = true

		case TokenDollar:
			nameTok := lex.NextToken()
			if nameTok.Kind != TokenIdentifier {
				continue
			}
			replacement, w := p.substitute(nameTok.Text.String(src))
			warnings = append(warnings, w...)
			emit(replacement, TokenIdentifier)

		case TokenSemicolon:
			emit(";", TokenSemicolon)
			out.WriteString("\n")
		case TokenOpenBrace:
			emit("{", TokenOpenBrace)
			out.WriteString("\n")
		case TokenCloseBrace:
			emit("}", TokenCloseBrace)
			out.WriteString("\n")

		default:
			emit(tok.Text.String(src), tok.Kind)
		}
	}

	return out.String(), warnings
}

// substitute resolves one `$Identifier` reference: a cflag/cint name
// substitutes literally, a recognized semantic name substitutes to an
// `input.`/`output.` struct-field reference (recording the semantic's use
// for emitStructs), and anything else is left as a bare identifier with a
// Warning.
func (p *preprocessor) substitute(name string) (string, []Warning) {
	if v, ok := p.cflags[name]; ok {
		return v, nil
	}
	if entry, ok := LookupSemantic(name); ok {
		return p.semanticRef(entry), nil
	}
	return name, []Warning{{Pass: p.g.LibraryName, Message: fmt.Sprintf("unresolved $%s: not a cflag or known semantic", name)}}
}

// semanticRef assigns (or reuses) entry's data name and returns the
// `input.SystemValue_N` / `output.SystemValue_N` reference for it. The
// data name is allocated from a single counter shared by both directions,
// so a stage that both reads and writes semantics numbers them
// SystemValue_0, SystemValue_1, ... across both structs.
func (p *preprocessor) semanticRef(entry SemanticEntry) string {
	key := strings.ToLower(entry.Name)
	if IsStageOutput(entry.AccessMask, p.stage) {
		dataName, ok := p.dataNames[key]
		if !ok {
			dataName = fmt.Sprintf("SystemValue_%d", p.nextIndex)
			p.nextIndex++
			p.dataNames[key] = dataName
			p.outputOrder = append(p.outputOrder, entry)
		}
		return "output." + dataName
	}
	dataName, ok := p.dataNames[key]
	if !ok {
		dataName = fmt.Sprintf("SystemValue_%d", p.nextIndex)
		p.nextIndex++
		p.dataNames[key] = dataName
		p.inputOrder = append(p.inputOrder, entry)
	}
	return "input." + dataName
}

// preprocessDirectiveLine consumes the remainder of a `#`-directive's
// physical line (lex.Pos() already sits just past the `#`) and returns
// its substituted replacement, which may span more than one output line
// (the #ifdef/#ifndef PROXY_N scheme below).
func (p *preprocessor) preprocessDirectiveLine(lex *Lexer, src string) (string, []Warning) {
	start := lex.Pos()
	end := start
	for end < len(src) && src[end] != '\n' {
		end++
	}
	line := strings.TrimSpace(src[start:end])
	lex.pos = end

	fields := strings.SplitN(line, " ", 2)
	keyword := fields[0]
	rest := ""
	if len(fields) > 1 {
		rest = strings.TrimSpace(fields[1])
	}

	switch keyword {
	case "ifdef", "ifndef":
		return p.rewriteIfdef(keyword, rest), nil
	case "if", "elif":
		substituted, warnings := p.substituteDirectiveTokens(rest)
		return fmt.Sprintf("#%s %s", keyword, substituted), warnings
	case "define":
		substituted, warnings := p.substituteDirectiveTokens(rest)
		return fmt.Sprintf("#define %s", substituted), warnings
	default:
		return "#" + line, nil
	}
}

// rewriteIfdef handles `#ifdef $flag` / `#ifndef $flag`: a $-prefixed
// flag is a compile-time cflag, not an actual preprocessor macro, so it is
// rewritten against a synthetic PROXY_N macro that is #defined only when
// the flag is true — `#ifndef PROXY_N` then correctly holds when the flag
// is false, without a second proxy scheme. A bare (non-`$`) name is an
// ordinary macro reference and passes through unchanged.
func (p *preprocessor) rewriteIfdef(keyword, rest string) string {
	name := strings.TrimPrefix(rest, "$")
	if name == rest {
		return "#" + keyword + " " + rest
	}

	value := p.cflags[name] == "true"
	proxy := fmt.Sprintf("PROXY_%d", p.proxyCount)
	p.proxyCount++

	var b strings.Builder
	if value {
		fmt.Fprintf(&b, "#define %s\n", proxy)
	}
	fmt.Fprintf(&b, "#%s %s", keyword, proxy)
	return b.String()
}

// substituteDirectiveTokens replaces every `$Identifier` occurrence in s
// with its cflag/cint literal value, leaving unresolved names bare (with
// a Warning) and copying everything else through untouched.
func (p *preprocessor) substituteDirectiveTokens(s string) (string, []Warning) {
	var warnings []Warning
	var b strings.Builder
	i := 0
	for i < len(s) {
		if s[i] == '$' {
			j := i + 1
			for j < len(s) && isAlphaNum(s[j]) {
				j++
			}
			name := s[i+1 : j]
			if v, ok := p.cflags[name]; ok {
				b.WriteString(v)
			} else {
				warnings = append(warnings, Warning{Pass: p.g.LibraryName, Message: fmt.Sprintf("unresolved $%s in preprocessor condition", name)})
				b.WriteString(name)
			}
			i = j
			continue
		}
		b.WriteByte(s[i])
		i++
	}
	return b.String(), warnings
}

// emitStructs builds the stage's input/output structs from the semantics
// recorded by run. Each field is named SystemValue_N from the shared
// per-stage counter, with the canonical HLSL semantic as its binding;
// the output struct name uses the literal "Ouput" (not "Output") to
// match this codebase's established naming for generated per-stage
// output structs.
func (p *preprocessor) emitStructs(stage Stage) (structsHLSL string, inputName string, outputName string) {
	var b strings.Builder

	if len(p.inputOrder) > 0 {
		inputName = stageStructNames[stage] + "Input"
		fmt.Fprintf(&b, "struct %s {\n", inputName)
		for _, entry := range p.inputOrder {
			dataName := p.dataNames[strings.ToLower(entry.Name)]
			fmt.Fprintf(&b, "    %s %s : %s;\n", entry.Scalar.String(), dataName, entry.Name)
		}
		b.WriteString("};\n")
	}

	if len(p.outputOrder) > 0 {
		outputName = stageStructNames[stage] + "Ouput"
		fmt.Fprintf(&b, "struct %s {\n", outputName)
		for _, entry := range p.outputOrder {
			dataName := p.dataNames[strings.ToLower(entry.Name)]
			fmt.Fprintf(&b, "    %s %s : %s;\n", entry.Scalar.String(), dataName, entry.Name)
		}
		b.WriteString("};\n")
	}

	return b.String(), inputName, outputName
}
