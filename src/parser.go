package h2

import "fmt"

// Parser is a recursive-descent parser over a token stream. SPACE and
// NEWLINE are trivia everywhere except where the lexer already used them
// to decide AGENT_ID-ness (the parser itself never re-derives that) and
// at the end of a func_def body, which stops at the first SPACE or NEWLINE.
type Parser struct {
	tokens []Token
	pos    int
}

func newParser(tokens []Token) *Parser {
	return &Parser{tokens: tokens}
}

// ParseProgram runs the full directive-stripping, lexing, and parsing
// pipeline over source and returns the AST or the errors collected along
// the way.
func ParseProgram(source string) (*Program, []*phaseError) {
	limits, bodyLine, body, derrs := parseDirectives(source)
	if len(derrs) > 0 {
		return nil, derrs
	}

	lex := NewLexerAt(body, bodyLine)
	tokens, lerr := lex.Tokenize()
	if lerr != nil {
		le, _ := lerr.(*LexError)
		return nil, []*phaseError{newError(CodeArityMismatch, fmt.Sprintf("unexpected character %q", rune(le.Byte)), le.Span)}
	}

	p := newParser(tokens)
	prog, perr := p.parseProgramBody(limits)
	if perr != nil {
		return nil, []*phaseError{perr}
	}
	return prog, nil
}

func (p *Parser) cur() Token {
	return p.tokens[p.pos]
}

func (p *Parser) save() int { return p.pos }

func (p *Parser) restore(mark int) { p.pos = mark }

func (p *Parser) advance() Token {
	t := p.tokens[p.pos]
	if t.Kind != KindEOF {
		p.pos++
	}
	return t
}

// skipTrivia consumes SPACE and NEWLINE tokens, which are structurally
// insignificant below the directive prologue except where they end a
// func_def body (see parseFuncDefBody).
func (p *Parser) skipTrivia() {
	for p.cur().Kind == KindSpace || p.cur().Kind == KindNewline {
		p.pos++
	}
}

// skipSpacesOnly consumes SPACE but not NEWLINE; used where definition
// headers must stay on one logical line.
func (p *Parser) skipSpacesOnly() {
	for p.cur().Kind == KindSpace {
		p.pos++
	}
}

func (p *Parser) parseProgramBody(limits Limits) (*Program, *phaseError) {
	p.skipTrivia()

	var agents []*Agent
	if p.cur().Kind == KindAgentID {
		for p.cur().Kind == KindAgentID {
			agent, err := p.parseAgent()
			if err != nil {
				return nil, err
			}
			agents = append(agents, agent)
			p.skipTrivia()
		}
		if p.cur().Kind != KindEOF {
			return nil, errUnexpectedToken("agent ID or end of input", p.cur().Kind.String(), p.cur().Span)
		}
	} else {
		funcs, main, err := p.parseStatements()
		if err != nil {
			return nil, err
		}
		agents = append(agents, &Agent{ID: 0, Funcs: funcs, Main: main})
	}

	return &Program{Limits: limits, Agents: agents}, nil
}

func (p *Parser) parseAgent() (*Agent, *phaseError) {
	idTok := p.advance()
	if p.cur().Kind != KindColon {
		return nil, errUnexpectedToken("':'", p.cur().Kind.String(), p.cur().Span)
	}
	p.advance()

	funcs, main, err := p.parseStatements()
	if err != nil {
		return nil, err
	}
	return &Agent{ID: idTok.Num, Funcs: funcs, Main: main, Sp: idTok.Span}, nil
}

// parseStatements consumes statement* until EOF or the next agent header,
// building the agent's function table and concatenated main expression.
func (p *Parser) parseStatements() (map[byte]*FuncDef, Expression, *phaseError) {
	funcs := map[byte]*FuncDef{}
	var main Expression
	for {
		p.skipTrivia()
		k := p.cur().Kind
		if k == KindEOF || k == KindAgentID {
			break
		}
		if k == KindIdent && p.isFuncDefAhead() {
			fd, err := p.parseFuncDef()
			if err != nil {
				return funcs, main, err
			}
			if _, exists := funcs[fd.Name]; exists {
				return funcs, main, errDuplicateDefinition(fd.Name, fd.Sp)
			}
			funcs[fd.Name] = fd
			continue
		}
		term, err := p.parseTerm()
		if err != nil {
			return funcs, main, err
		}
		main = append(main, term)
	}
	return funcs, main, nil
}

// isFuncDefAhead probes, without committing, whether the IDENT at the
// current position begins a func_def: IDENT optionally followed by a
// pure parameter-letter list in parens, then ':'.
func (p *Parser) isFuncDefAhead() bool {
	mark := p.save()
	defer p.restore(mark)

	if p.cur().Kind != KindIdent {
		return false
	}
	p.advance()
	p.skipSpacesOnly()

	if p.cur().Kind == KindColon {
		return true
	}
	if p.cur().Kind != KindLParen {
		return false
	}
	p.advance()
	p.skipSpacesOnly()

	for p.cur().Kind != KindRParen {
		if p.cur().Kind != KindParam {
			return false
		}
		p.advance()
		p.skipSpacesOnly()
		if p.cur().Kind == KindComma {
			p.advance()
			p.skipSpacesOnly()
			continue
		}
		break
	}
	if p.cur().Kind != KindRParen {
		return false
	}
	p.advance()
	p.skipSpacesOnly()
	return p.cur().Kind == KindColon
}

func (p *Parser) parseFuncDef() (*FuncDef, *phaseError) {
	nameTok := p.advance()
	name := nameTok.Text[0]

	var params []byte
	p.skipSpacesOnly()
	if p.cur().Kind == KindLParen {
		p.advance()
		p.skipSpacesOnly()
		for p.cur().Kind != KindRParen {
			if p.cur().Kind != KindParam {
				return nil, errUnexpectedToken("parameter letter", p.cur().Kind.String(), p.cur().Span)
			}
			pt := p.advance()
			params = append(params, pt.Text[0])
			p.skipSpacesOnly()
			if p.cur().Kind == KindComma {
				p.advance()
				p.skipSpacesOnly()
				continue
			}
			break
		}
		if p.cur().Kind != KindRParen {
			return nil, errUnexpectedToken("')'", p.cur().Kind.String(), p.cur().Span)
		}
		p.advance()
		p.skipSpacesOnly()
	}

	if p.cur().Kind != KindColon {
		return nil, errUnexpectedToken("':'", p.cur().Kind.String(), p.cur().Span)
	}
	colonTok := p.advance()

	body, err := p.parseFuncDefBody()
	if err != nil {
		return nil, err
	}
	if len(body) == 0 {
		return nil, errUnexpectedToken("term", p.cur().Kind.String(), p.cur().Span)
	}

	sp := Span{Start: nameTok.Span.Start, End: colonTok.Span.End, Line: nameTok.Span.Line, Column: nameTok.Span.Column}
	if len(body) > 0 {
		sp.End = body.Span().End
	}

	paramTypes, terr := inferParamTypes(params, body)
	if terr != nil {
		return nil, terr
	}

	return &FuncDef{Name: name, Params: params, ParamTypes: paramTypes, Body: body, Sp: sp}, nil
}

// parseFuncDefBody consumes the term+ directly following a func_def's ':',
// stopping at the first SPACE or NEWLINE. A func_def's header and body
// always share one whitespace-delimited word (e.g. "a(X):sa(X-1)"); the
// main expression's own terms resume as a separate word at the outer
// statement level. This is how the grammar's otherwise-unbounded
// expression := term+ production is kept from swallowing every statement
// that follows a definition.
func (p *Parser) parseFuncDefBody() (Expression, *phaseError) {
	p.skipSpacesOnly()

	var expr Expression
	for {
		k := p.cur().Kind
		if k == KindEOF || k == KindAgentID || k == KindSpace || k == KindNewline {
			break
		}
		if k == KindIdent && p.isFuncDefAhead() {
			break
		}
		term, err := p.parseTerm()
		if err != nil {
			return expr, err
		}
		expr = append(expr, term)
	}
	return expr, nil
}

// parseExpression consumes term* until EOF, an agent header, the start of
// a new func_def, or a caller-supplied stop token (used for argument
// lists, where ',' and ')' end the expression).
func (p *Parser) parseExpression(stop func(Kind) bool) (Expression, *phaseError) {
	var expr Expression
	for {
		p.skipTrivia()
		k := p.cur().Kind
		if k == KindEOF || k == KindAgentID || stop(k) {
			break
		}
		if k == KindIdent && p.isFuncDefAhead() {
			break
		}
		term, err := p.parseTerm()
		if err != nil {
			return expr, err
		}
		expr = append(expr, term)
	}
	return expr, nil
}

func (p *Parser) parseTerm() (Term, *phaseError) {
	tok := p.cur()
	switch tok.Kind {
	case KindCommand:
		p.advance()
		return CommandTerm{Cmd: tok.Text[0], Sp: tok.Span}, nil
	case KindParam:
		p.advance()
		return ParamRefTerm{Letter: tok.Text[0], Sp: tok.Span}, nil
	case KindIdent:
		return p.parseCall()
	default:
		return nil, errUnexpectedToken("command, parameter, or identifier", tok.Kind.String(), tok.Span)
	}
}

func (p *Parser) parseCall() (Term, *phaseError) {
	nameTok := p.advance()
	name := nameTok.Text[0]
	end := nameTok.Span

	mark := p.save()
	p.skipSpacesOnly()

	var args []Arg
	if p.cur().Kind == KindLParen {
		p.advance()
		p.skipTrivia()
		if p.cur().Kind != KindRParen {
			for {
				arg, err := p.parseArgument()
				if err != nil {
					return nil, err
				}
				args = append(args, arg)
				p.skipTrivia()
				if p.cur().Kind == KindComma {
					p.advance()
					p.skipTrivia()
					continue
				}
				break
			}
		}
		if p.cur().Kind != KindRParen {
			return nil, errUnexpectedToken("')'", p.cur().Kind.String(), p.cur().Span)
		}
		rp := p.advance()
		end = rp.Span
	} else {
		p.restore(mark)
	}

	return FuncCallTerm{
		Name: name,
		Args: args,
		Sp:   Span{Start: nameTok.Span.Start, End: end.End, Line: nameTok.Span.Line, Column: nameTok.Span.Column},
	}, nil
}

var argStop = func(k Kind) bool { return k == KindComma || k == KindRParen }

// parseArgument disambiguates a call argument per the two-token look-ahead
// rule: NUMBER starts a NumExpr; PARAM whose next non-whitespace token is
// '+' or '-' starts a NumExpr; anything else is a CmdExpr running to ',' or ')'.
func (p *Parser) parseArgument() (Arg, *phaseError) {
	if p.isNumExprAhead() {
		ne, err := p.parseNumExpr()
		if err != nil {
			return nil, err
		}
		return NumArg{Num: ne, Sp: ne.Sp}, nil
	}

	expr, err := p.parseExpression(argStop)
	if err != nil {
		return nil, err
	}
	// A CmdExpr ending an argument must contain at least one term unless
	// the entire arg_list is empty — and parseArgument is only ever called
	// for a non-empty arg_list slot, so an empty expr here (a leading,
	// trailing, or doubled comma) is always a parse error.
	if len(expr) == 0 {
		return nil, errUnexpectedToken("term", p.cur().Kind.String(), p.cur().Span)
	}
	return CmdArg{Expr: expr, Sp: expr.Span()}, nil
}

func (p *Parser) isNumExprAhead() bool {
	k := p.cur().Kind
	if k == KindNumber {
		return true
	}
	if k == KindParam {
		mark := p.save()
		defer p.restore(mark)
		p.advance()
		p.skipTrivia()
		return p.cur().Kind == KindPlus || p.cur().Kind == KindMinus
	}
	return false
}

func (p *Parser) parseNumExpr() (NumExpr, *phaseError) {
	first, err := p.parseNumAtom()
	if err != nil {
		return NumExpr{}, err
	}
	start := first.Span()
	ne := NumExpr{First: first}
	last := start

	for {
		p.skipTrivia()
		k := p.cur().Kind
		if k != KindPlus && k != KindMinus {
			break
		}
		opTok := p.advance()
		op := OpAdd
		if opTok.Kind == KindMinus {
			op = OpSub
		}
		p.skipTrivia()
		atom, err := p.parseNumAtom()
		if err != nil {
			return NumExpr{}, err
		}
		ne.Rest = append(ne.Rest, NumOpAtom{Op: op, Atom: atom})
		last = atom.Span()
	}

	ne.Sp = Span{Start: start.Start, End: last.End, Line: start.Line, Column: start.Column}
	return ne, nil
}

func (p *Parser) parseNumAtom() (NumAtom, *phaseError) {
	tok := p.cur()
	switch tok.Kind {
	case KindNumber:
		p.advance()
		return LiteralAtom{Value: tok.Num, Sp: tok.Span}, nil
	case KindParam:
		p.advance()
		return ParamAtom{Letter: tok.Text[0], Sp: tok.Span}, nil
	default:
		return nil, errUnexpectedToken("number or parameter", tok.Kind.String(), tok.Span)
	}
}
