package rlib

import "strings"

// primitiveOrder fixes the pre-population order of the AST pool's builtin
// primitive nodes (§4.B "Initial state"), and therefore the offsets into
// primitiveNameBuf used to back their Name slices.
var primitiveOrder = []PrimitiveKind{
	PrimBool, PrimInt, PrimUint, PrimFloat,
	PrimFloat2, PrimFloat3, PrimFloat4,
	PrimInt2, PrimInt3, PrimInt4,
	PrimUint2, PrimUint3, PrimUint4,
	PrimFloat3x3, PrimFloat4x4, PrimFloat3x4, PrimFloat4x3,
	PrimImage1D, PrimImage2D, PrimImage3D, PrimImageCube, PrimImageCubeArray,
	PrimImage1DArray, PrimImage2DArray,
	PrimROImage1D, PrimROImage2D, PrimROImage3D, PrimROImageCube, PrimROImageCubeArray,
	PrimROImage1DArray, PrimROImage2DArray,
	PrimRWImage1D, PrimRWImage2D, PrimRWImage3D, PrimRWImage1DArray, PrimRWImage2DArray,
	PrimROBuffer, PrimRWBuffer, PrimROStructuredBuffer, PrimRWStructuredBuffer,
	PrimRawBuffer, PrimRWRawBuffer, PrimAppendBuffer, PrimConsumeBuffer,
	PrimSampler, PrimSamplerComparison, PrimCFlag, PrimCInt,
}

// primitiveNameBuf concatenates every primitive's canonical spelling so
// the parser can back primitive node names with ordinary Slices into an
// arena-owned buffer (§9: "slices into source text are {offset,len} into
// an arena-owned string buffer") rather than special-casing builtin names
// as a separate string type.
var primitiveNameBuf string
var primitiveNameOffsets []Slice

func init() {
	var b strings.Builder
	primitiveNameOffsets = make([]Slice, len(primitiveOrder))
	for i, kind := range primitiveOrder {
		name := PrimitiveName(kind)
		primitiveNameOffsets[i] = Slice{Offset: uint32(b.Len()), Len: uint32(len(name))}
		b.WriteString(name)
	}
	primitiveNameBuf = b.String()
}

// syntheticNameBuf holds identifiers the parser itself introduces rather
// than lexing from source (currently just the resource-entry swizzle
// child's key). It sits at the front of every Parser's arena buffer.
const syntheticNameBuf = "swizzle"

var swizzleNameSlice = Slice{Offset: 0, Len: uint32(len(syntheticNameBuf))}

// Parser builds a fixed-capacity AST pool from render-library source text.
// It owns every node it produces; nodes are referenced by index and are
// never individually freed — the whole pool is dropped with the Parser.
type Parser struct {
	lex  *Lexer
	text string // syntheticNameBuf + primitiveNameBuf + source: the arena every Slice resolves against
	base uint32 // where user source begins in text

	pool  [MaxTypeCount]TypeAST
	count int
}

// NewParser constructs a Parser over src and pre-populates the pool with
// one primitive node per PrimitiveKind, keyed by its canonical HLSL
// spelling, so name lookups resolve builtins without special-casing.
func NewParser(src string) *Parser {
	prefix := syntheticNameBuf + primitiveNameBuf
	p := &Parser{
		lex:  NewLexer(src),
		text: prefix + src,
		base: uint32(len(prefix)),
	}
	primBase := uint32(len(syntheticNameBuf))
	for i, kind := range primitiveOrder {
		name := primitiveNameOffsets[i]
		name.Offset += primBase
		p.pool[i] = TypeAST{
			Kind:          NodePrimitive,
			PrimitiveKind: kind,
			Name:          name,
			Exportable:    true,
		}
	}
	p.count = len(primitiveOrder)
	return p
}

// Text resolves a Slice against the parser's arena buffer.
func (p *Parser) Text(s Slice) string { return s.String(p.text) }

// Errored reports whether the underlying lexer observed a grammar
// mismatch during GenerateAST, per the recoverable-parse contract (§7):
// malformed constructs are skipped rather than aborting the parse, but
// callers that want to treat any mismatch as fatal can check this.
func (p *Parser) Errored() bool { return p.lex.Errored() }

// TypeCount returns the number of AST nodes in the pool, including the
// pre-populated primitives.
func (p *Parser) TypeCount() int { return p.count }

// GetType returns a pointer to the AST node at index i. The pointer is
// valid for the Parser's lifetime.
func (p *Parser) GetType(i int) *TypeAST { return &p.pool[i] }

// userSlice rebases a lexer-produced Slice (relative to the user source)
// into the parser's arena coordinates.
func (p *Parser) userSlice(s Slice) Slice {
	return Slice{Offset: s.Offset + p.base, Len: s.Len}
}

func (p *Parser) newNode(kind NodeKind) (int, *TypeAST) {
	if p.count >= MaxTypeCount {
		panic(FatalError{Op: "parser", Msg: "AST pool exceeded MaxTypeCount (96 nodes)"})
	}
	idx := p.count
	p.pool[idx] = TypeAST{Kind: kind, Exportable: true}
	p.count++
	return idx, &p.pool[idx]
}

// lookupType finds a pool entry (builtin or user-declared) by name,
// scanning the whole pool as built so far. Returns InvalidTypeIndex if
// nothing matches.
func (p *Parser) lookupType(name string) int {
	for i := 0; i < p.count; i++ {
		if p.Text(p.pool[i].Name) == name {
			return i
		}
	}
	return InvalidTypeIndex
}

// GenerateAST consumes the whole source, dispatching each top-level
// keyword to its production (§4.B grammar). Malformed top-level
// constructs are recoverable: a failed Expect inside a sub-parser simply
// returns, and the top-level loop continues at the next token (§7).
func (p *Parser) GenerateAST() {
	for {
		tok := p.lex.NextToken()
		switch tok.Kind {
		case TokenEndOfStream:
			return
		case TokenIdentifier:
			p.parseTopLevel(tok)
		default:
			// Stray punctuation between top-level declarations is ignored.
		}
	}
}

func (p *Parser) parseTopLevel(tok Token) {
	switch tok.Text.String(p.lex.src) {
	case "struct":
		p.parseStruct()
	case "enum":
		p.parseEnum()
	case "font":
		p.parseFont()
	case "lib":
		p.parseLibrary()
	case "material":
		p.parseMaterial()
	}
}

func (p *Parser) parseStruct() {
	ok, nameTok := p.lex.Expect(TokenIdentifier)
	if !ok {
		return
	}
	if ok, _ := p.lex.Expect(TokenOpenBrace); !ok {
		return
	}

	idx, node := p.newNode(NodeStruct)
	node.Name = p.userSlice(nameTok.Text)

	for {
		tok := p.lex.NextToken()
		if tok.Kind == TokenCloseBrace || tok.Kind == TokenEndOfStream {
			break
		}
		if tok.Kind == TokenIdentifier {
			p.parseVariable(tok, node, false)
		}
	}
	_ = idx
}

func (p *Parser) parseEnum() {
	ok, nameTok := p.lex.Expect(TokenIdentifier)
	if !ok {
		return
	}
	if ok, _ := p.lex.Expect(TokenOpenBrace); !ok {
		return
	}

	_, node := p.newNode(NodeEnum)
	node.Name = p.userSlice(nameTok.Text)

	for {
		tok := p.lex.NextToken()
		if tok.Kind == TokenCloseBrace || tok.Kind == TokenEndOfStream {
			break
		}
		if tok.Kind == TokenIdentifier {
			node.Names = append(node.Names, p.userSlice(tok.Text))
			node.ChildTypes = append(node.ChildTypes, InvalidTypeIndex)
			node.Values = append(node.Values, Slice{})
		}
	}
}

// parseVariable parses a single `TYPE NAME [= value] ;` member (struct
// fields, properties entries). When typeless is true, typeTok is itself
// the member's name and no type lookup is performed (material flags).
func (p *Parser) parseVariable(typeTok Token, owner *TypeAST, typeless bool) {
	var name Slice
	childIdx := InvalidTypeIndex

	if typeless {
		name = p.userSlice(typeTok.Text)
	} else {
		ok, nameTok := p.lex.Expect(TokenIdentifier)
		if !ok {
			return
		}
		name = p.userSlice(nameTok.Text)
		childIdx = p.lookupType(typeTok.Text.String(p.lex.src))
	}

	value := p.scanTerminatedValue()
	owner.Names = append(owner.Names, name)
	owner.ChildTypes = append(owner.ChildTypes, childIdx)
	owner.Values = append(owner.Values, value)
}

// scanTerminatedValue reads an optional `= value` up to (not including) a
// terminating semicolon, leaving the lexer positioned just after that
// semicolon. If no '=' is present the returned Slice is null.
func (p *Parser) scanTerminatedValue() Slice {
	tok := p.lex.NextToken()
	if tok.Kind != TokenEquals {
		for tok.Kind != TokenSemicolon && tok.Kind != TokenEndOfStream {
			tok = p.lex.NextToken()
		}
		return Slice{}
	}

	first := p.lex.NextToken()
	if first.Kind == TokenSemicolon || first.Kind == TokenEndOfStream {
		return Slice{}
	}
	start := first.Text.Offset
	last := first
	for last.Kind != TokenSemicolon && last.Kind != TokenEndOfStream {
		last = p.lex.NextToken()
	}
	return p.userSlice(Slice{Offset: start, Len: last.Text.Offset - start})
}

func (p *Parser) parseFont() {
	ok, nameTok := p.lex.Expect(TokenIdentifier)
	if !ok {
		return
	}
	if ok, _ := p.lex.Expect(TokenOpenBrace); !ok {
		return
	}

	_, node := p.newNode(NodeFont)
	node.Name = p.userSlice(nameTok.Text)

	for {
		tok := p.lex.NextToken()
		if tok.Kind == TokenCloseBrace || tok.Kind == TokenEndOfStream {
			break
		}
		if tok.Kind != TokenIdentifier {
			continue
		}
		key := p.userSlice(tok.Text)
		value := p.scanTerminatedValue()
		node.Names = append(node.Names, key)
		node.ChildTypes = append(node.ChildTypes, InvalidTypeIndex)
		node.Values = append(node.Values, value)
	}
}

func (p *Parser) parseMaterial() {
	ok, nameTok := p.lex.Expect(TokenString)
	if !ok {
		return
	}
	if ok, _ := p.lex.Expect(TokenOpenBrace); !ok {
		return
	}

	_, node := p.newNode(NodeMaterial)
	node.Name = p.userSlice(nameTok.Text)

	for {
		tok := p.lex.NextToken()
		if tok.Kind == TokenCloseBrace || tok.Kind == TokenEndOfStream {
			break
		}
		if tok.Kind != TokenIdentifier {
			continue
		}
		if tok.Text.String(p.lex.src) == "scenario" {
			p.parseScenario(node)
			continue
		}
		p.parseVariable(tok, node, true)
	}
}

func (p *Parser) parseScenario(owner *TypeAST) {
	ok, nameTok := p.lex.Expect(TokenString)
	if !ok {
		return
	}
	if ok, _ := p.lex.Expect(TokenOpenBrace); !ok {
		return
	}

	idx, node := p.newNode(NodeRenderScenario)
	node.Name = p.userSlice(nameTok.Text)

	for {
		tok := p.lex.NextToken()
		if tok.Kind == TokenCloseBrace || tok.Kind == TokenEndOfStream {
			break
		}
		if tok.Kind != TokenIdentifier {
			continue
		}
		stage := tok.Text.String(p.lex.src)
		if stage != "vertex" && stage != "pixel" {
			continue
		}
		if ok, _ := p.lex.Expect(TokenEquals); !ok {
			continue
		}
		ok, pathTok := p.lex.Expect(TokenString)
		if !ok {
			continue
		}
		p.lex.Expect(TokenSemicolon)

		permIdx, perm := p.newNode(NodeShaderPermutation)
		perm.Name = p.userSlice(tok.Text)
		perm.Values = append(perm.Values, p.userSlice(pathTok.Text))

		node.Names = append(node.Names, perm.Name)
		node.ChildTypes = append(node.ChildTypes, permIdx)
		node.Values = append(node.Values, perm.Values[0])
	}

	owner.Names = append(owner.Names, node.Name)
	owner.ChildTypes = append(owner.ChildTypes, idx)
	owner.Values = append(owner.Values, Slice{})
}

func (p *Parser) parseLibrary() {
	ok, nameTok := p.lex.Expect(TokenIdentifier)
	if !ok {
		return
	}
	if ok, _ := p.lex.Expect(TokenOpenBrace); !ok {
		return
	}

	idx, node := p.newNode(NodeLibrary)
	node.Name = p.userSlice(nameTok.Text)
	_ = idx

	for {
		tok := p.lex.NextToken()
		if tok.Kind == TokenCloseBrace || tok.Kind == TokenEndOfStream {
			break
		}
		if tok.Kind != TokenIdentifier {
			continue
		}
		switch tok.Text.String(p.lex.src) {
		case "shader":
			p.parseShaderBlock(NodeShader, node)
		case "shared":
			p.parseShaderBlock(NodeSharedContent, node)
		case "pass":
			p.parseRenderPass(node)
		case "properties":
			p.parseProperties(node)
		case "resources":
			p.parseResources(node)
		}
	}
}

// parseShaderBlock captures a shader/shared body as a single raw slice
// without lexing it (§4.B): brace nesting is tracked, but the body text
// is opaque to the parser. The generator re-lexes it later with
// compile-time constants in scope.
func (p *Parser) parseShaderBlock(kind NodeKind, owner *TypeAST) {
	tok := p.lex.NextToken()

	var name Token
	if tok.Kind == TokenIdentifier {
		name = tok
		if ok, _ := p.lex.Expect(TokenOpenBrace); !ok {
			return
		}
	} else if tok.Kind != TokenOpenBrace {
		return
	}

	idx, node := p.newNode(kind)
	if name.Kind == TokenIdentifier {
		node.Name = p.userSlice(name.Text)
	}

	first := p.lex.NextToken()
	start := first.Text.Offset
	depth := 1
	last := first
	for depth > 0 && last.Kind != TokenEndOfStream {
		if last.Kind == TokenOpenBrace {
			depth++
		} else if last.Kind == TokenCloseBrace {
			depth--
			if depth == 0 {
				break
			}
		}
		last = p.lex.NextToken()
	}
	// last is the matching close brace; exclude it from the body slice.
	body := p.userSlice(Slice{Offset: start, Len: last.Text.Offset - start})
	node.Values = append(node.Values, body)

	owner.Names = append(owner.Names, node.Name)
	owner.ChildTypes = append(owner.ChildTypes, idx)
	owner.Values = append(owner.Values, Slice{})
}

func (p *Parser) parseProperties(owner *TypeAST) {
	if ok, _ := p.lex.Expect(TokenOpenBrace); !ok {
		return
	}
	idx, node := p.newNode(NodeProperties)

	for {
		tok := p.lex.NextToken()
		if tok.Kind == TokenCloseBrace || tok.Kind == TokenEndOfStream {
			break
		}
		if tok.Kind == TokenIdentifier {
			p.parseVariable(tok, node, false)
		}
	}

	owner.Names = append(owner.Names, Slice{})
	owner.ChildTypes = append(owner.ChildTypes, idx)
	owner.Values = append(owner.Values, Slice{})
}

// parseRenderPass parses `pass IDENT { kv_pair* }`. Each kv_pair is
// either `IDENT = value ;` (an override/assignment) or
// `IDENT IDENT = value ;` (a property override with an explicit type,
// §4.B).
func (p *Parser) parseRenderPass(owner *TypeAST) {
	ok, nameTok := p.lex.Expect(TokenIdentifier)
	if !ok {
		return
	}
	if ok, _ := p.lex.Expect(TokenOpenBrace); !ok {
		return
	}

	idx, node := p.newNode(NodePass)
	node.Name = p.userSlice(nameTok.Text)

	for {
		first := p.lex.NextToken()
		if first.Kind == TokenCloseBrace || first.Kind == TokenEndOfStream {
			break
		}
		if first.Kind != TokenIdentifier {
			continue
		}

		second := p.lex.NextToken()
		var name Slice
		childIdx := InvalidTypeIndex
		switch second.Kind {
		case TokenIdentifier:
			// form (b): IDENT IDENT = value ;
			childIdx = p.lookupType(first.Text.String(p.lex.src))
			name = p.userSlice(second.Text)
			if ok, _ := p.lex.Expect(TokenEquals); !ok {
				continue
			}
		case TokenEquals:
			// form (a): IDENT = value ;
			name = p.userSlice(first.Text)
		default:
			continue
		}

		value := p.scanRawValueUntilSemicolon()
		node.Names = append(node.Names, name)
		node.ChildTypes = append(node.ChildTypes, childIdx)
		node.Values = append(node.Values, value)
	}

	owner.Names = append(owner.Names, node.Name)
	owner.ChildTypes = append(owner.ChildTypes, idx)
	owner.Values = append(owner.Values, Slice{})
}

// scanRawValueUntilSemicolon assumes '=' has already been consumed and
// reads the raw text up to (not including) the next semicolon.
func (p *Parser) scanRawValueUntilSemicolon() Slice {
	first := p.lex.NextToken()
	if first.Kind == TokenSemicolon || first.Kind == TokenEndOfStream {
		return Slice{}
	}
	start := first.Text.Offset
	last := first
	for last.Kind != TokenSemicolon && last.Kind != TokenEndOfStream {
		last = p.lex.NextToken()
	}
	return p.userSlice(Slice{Offset: start, Len: last.Text.Offset - start})
}

// parseResources parses `resources { resource_entry* }`. A resource_entry
// is `TYPE ['<' TYPE '>'] NAME ['{' (IDENT = value ;)* '}' | ';']`: the
// bracketed swizzle and the property block are this module's own
// formalization of the spec's informal description (§4.D mentions a
// `swizzle` child and an `isMultisampled` child without pinning down
// concrete syntax); see DESIGN.md.
func (p *Parser) parseResources(owner *TypeAST) {
	if ok, _ := p.lex.Expect(TokenOpenBrace); !ok {
		return
	}
	resIdx, resources := p.newNode(NodeResources)

	for {
		typeTok := p.lex.NextToken()
		if typeTok.Kind == TokenCloseBrace || typeTok.Kind == TokenEndOfStream {
			break
		}
		if typeTok.Kind != TokenIdentifier {
			continue
		}

		swizzleIdx, hasSwizzle := InvalidTypeIndex, false
		if matched, _ := p.lex.Accept(TokenOpenAngle); matched {
			ok, elemTok := p.lex.Expect(TokenIdentifier)
			if ok {
				swizzleIdx, hasSwizzle = p.lookupType(elemTok.Text.String(p.lex.src)), true
			}
			p.lex.Expect(TokenCloseAngle)
		}

		ok, nameTok := p.lex.Expect(TokenIdentifier)
		if !ok {
			continue
		}

		typeIdx := p.lookupType(typeTok.Text.String(p.lex.src))
		var primKind PrimitiveKind
		if typeIdx != InvalidTypeIndex {
			primKind = p.pool[typeIdx].PrimitiveKind
		}

		entryIdx, entry := p.newNode(NodeResourceEntry)
		entry.Name = p.userSlice(nameTok.Text)
		entry.PrimitiveKind = primKind

		if hasSwizzle {
			entry.AddChild(swizzleNameSlice, swizzleIdx, Slice{})
		}

		if matched, _ := p.lex.Accept(TokenOpenBrace); matched {
			for {
				kt := p.lex.NextToken()
				if kt.Kind == TokenCloseBrace || kt.Kind == TokenEndOfStream {
					break
				}
				if kt.Kind != TokenIdentifier {
					continue
				}
				key := p.userSlice(kt.Text)
				val := p.scanTerminatedValue()
				entry.AddChild(key, InvalidTypeIndex, val)
			}
		} else {
			p.lex.Expect(TokenSemicolon)
		}

		resources.Names = append(resources.Names, entry.Name)
		resources.ChildTypes = append(resources.ChildTypes, entryIdx)
		resources.Values = append(resources.Values, Slice{})
	}

	owner.Names = append(owner.Names, Slice{})
	owner.ChildTypes = append(owner.ChildTypes, resIdx)
	owner.Values = append(owner.Values, Slice{})
}
