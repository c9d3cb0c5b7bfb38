package h2

import "testing"

func mustParse(t *testing.T, source string) *Program {
	t.Helper()
	prog, errs := ParseProgram(source)
	if len(errs) != 0 {
		t.Fatalf("unexpected parse errors for %q: %v", source, errs)
	}
	return prog
}

func mainCommandBytes(expr Expression) []byte {
	var out []byte
	for _, term := range expr {
		if ct, ok := term.(CommandTerm); ok {
			out = append(out, ct.Cmd)
		}
	}
	return out
}

func TestParseSingleAgentSimple(t *testing.T) {
	prog := mustParse(t, "srl")
	if len(prog.Agents) != 1 {
		t.Fatalf("expected 1 agent, got %d", len(prog.Agents))
	}
	agent := prog.Agents[0]
	if agent.ID != 0 {
		t.Fatalf("expected agent 0, got %d", agent.ID)
	}
	if got := string(mainCommandBytes(agent.Main)); got != "srl" {
		t.Fatalf("expected main commands %q, got %q", "srl", got)
	}
}

func TestParseFuncDefStopsAtWhitespace(t *testing.T) {
	prog := mustParse(t, "x:ss xx")
	agent := prog.Agents[0]
	fd, ok := agent.Funcs['x']
	if !ok {
		t.Fatal("expected a definition for 'x'")
	}
	if len(fd.Body) != 2 {
		t.Fatalf("expected x's body to contain exactly the 2 terms before the space, got %d: %v", len(fd.Body), fd.Body)
	}
	if len(agent.Main) != 2 {
		t.Fatalf("expected main to contain the 2 separate bare calls to x, got %d: %v", len(agent.Main), agent.Main)
	}
	for _, term := range agent.Main {
		call, ok := term.(FuncCallTerm)
		if !ok || call.Name != 'x' || len(call.Args) != 0 {
			t.Fatalf("expected a bare 0-arg call to x, got %#v", term)
		}
	}
}

func TestParseFuncDefWithArithmeticBody(t *testing.T) {
	prog := mustParse(t, "a(X):sa(X-1) a(4)")
	agent := prog.Agents[0]
	fd, ok := agent.Funcs['a']
	if !ok {
		t.Fatal("expected a definition for 'a'")
	}
	if len(fd.Body) != 2 {
		t.Fatalf("expected a's body to be exactly [s, a(X-1)], got %d terms: %v", len(fd.Body), fd.Body)
	}
	if fd.ParamTypes['X'] != TypeInt {
		t.Fatalf("expected X to infer as Int, got %v", fd.ParamTypes['X'])
	}
	if len(agent.Main) != 1 {
		t.Fatalf("expected main to be the single call a(4), got %d terms", len(agent.Main))
	}
	call, ok := agent.Main[0].(FuncCallTerm)
	if !ok || call.Name != 'a' || len(call.Args) != 1 {
		t.Fatalf("expected a single-arg call to a, got %#v", agent.Main[0])
	}
	if _, ok := call.Args[0].(NumArg); !ok {
		t.Fatalf("expected a NumArg, got %#v", call.Args[0])
	}
}

func TestParseMultiAgent(t *testing.T) {
	prog := mustParse(t, "0: srl\n1: lrs")
	if len(prog.Agents) != 2 {
		t.Fatalf("expected 2 agents, got %d", len(prog.Agents))
	}
	if prog.Agents[0].ID != 0 || string(mainCommandBytes(prog.Agents[0].Main)) != "srl" {
		t.Fatalf("unexpected agent 0: %+v", prog.Agents[0])
	}
	if prog.Agents[1].ID != 1 || string(mainCommandBytes(prog.Agents[1].Main)) != "lrs" {
		t.Fatalf("unexpected agent 1: %+v", prog.Agents[1])
	}
}

func TestParseRejectsSpacedAgentHeader(t *testing.T) {
	_, errs := ParseProgram("0 : srl")
	if len(errs) == 0 {
		t.Fatal("expected a parse error when ':' is not tight against the digits")
	}
	if errs[0].Code != CodeArityMismatch {
		t.Fatalf("expected a syntax error, got code %s", errs[0].Code)
	}
}

func TestParseDuplicateFuncDefIsError(t *testing.T) {
	_, errs := ParseProgram("x:s x:r")
	if len(errs) == 0 {
		t.Fatal("expected a duplicate-definition error")
	}
}

func TestParseArgumentDisambiguation(t *testing.T) {
	prog := mustParse(t, "f(X,Y):X f(s,Y+1)")
	agent := prog.Agents[0]
	call := agent.Main[0].(FuncCallTerm)
	if len(call.Args) != 2 {
		t.Fatalf("expected 2 args, got %d", len(call.Args))
	}
	if _, ok := call.Args[0].(CmdArg); !ok {
		t.Fatalf("expected first arg to be a CmdArg, got %#v", call.Args[0])
	}
	if _, ok := call.Args[1].(NumArg); !ok {
		t.Fatalf("expected second arg (PARAM followed by '+') to be a NumArg, got %#v", call.Args[1])
	}
}

func TestParseTypeConflictIsError(t *testing.T) {
	_, errs := ParseProgram("f(X):Xf(X-1)")
	if len(errs) != 1 || errs[0].Code != CodeParamTypeConflict {
		t.Fatalf("expected a single E010 error, got %v", errs)
	}
}

func TestParseUndersizedFuncBodyIsError(t *testing.T) {
	_, errs := ParseProgram("x: y:r")
	if len(errs) == 0 {
		t.Fatal("expected an error for a func_def with an empty body")
	}
}

func TestParseEmptyCallSyntax(t *testing.T) {
	prog := mustParse(t, "a(X):X a()")
	agent := prog.Agents[0]
	call := agent.Main[0].(FuncCallTerm)
	if call.Name != 'a' || len(call.Args) != 0 {
		t.Fatalf("expected a bare 0-arg call, got %#v", call)
	}
}

func TestParseTrailingCommaInArgListIsError(t *testing.T) {
	_, errs := ParseProgram("f(X,Y):X f(s,)")
	if len(errs) == 0 {
		t.Fatal("expected a parse error for a trailing comma in a non-empty arg_list")
	}
}

func TestParseLeadingCommaInArgListIsError(t *testing.T) {
	_, errs := ParseProgram("f(X,Y):X f(,s)")
	if len(errs) == 0 {
		t.Fatal("expected a parse error for a leading comma in a non-empty arg_list")
	}
}
