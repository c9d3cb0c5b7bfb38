package h2

import "fmt"

// binding is the value a parameter letter resolves to inside one call
// frame: either an eagerly-evaluated Int, or a lazy CmdSeq thunk captured
// together with the frame it must be expanded under (lexical substitution,
// not the callee's own frame).
type binding struct {
	isInt    bool
	intVal   int
	cmdExpr  Expression
	cmdFrame *bindingFrame
}

type bindingFrame struct {
	vals map[byte]binding
}

func (f *bindingFrame) lookup(letter byte) (binding, bool) {
	if f == nil {
		return binding{}, false
	}
	b, ok := f.vals[letter]
	return b, ok
}

// expander rewrites one agent's main Expression into a flat command
// vector, enforcing arity, type, numeric range, step, and depth rules.
type expander struct {
	funcs  map[byte]*FuncDef
	limits Limits
	depth  int
	step   int
	out    []byte
}

func newExpander(agent *Agent, limits Limits) *expander {
	return &expander{funcs: agent.Funcs, limits: limits}
}

// AgentResult is the expansion outcome for one agent, in agent declaration
// order.
type AgentResult struct {
	AgentID  int
	Commands []byte
}

// ExpandProgram expands every agent independently and in declaration
// order. A fatal error for one agent does not stop the others.
func ExpandProgram(prog *Program) ([]AgentResult, []*phaseError) {
	results := make([]AgentResult, len(prog.Agents))
	var errs []*phaseError
	for i, agent := range prog.Agents {
		out, err := expandAgent(agent, prog.Limits)
		results[i] = AgentResult{AgentID: agent.ID, Commands: out}
		if err != nil {
			errs = append(errs, err)
		}
	}
	return results, errs
}

func expandAgent(agent *Agent, limits Limits) ([]byte, *phaseError) {
	ex := newExpander(agent, limits)
	root := &bindingFrame{vals: map[byte]binding{}}
	err := ex.expandExpression(agent.Main, root)
	if err != nil {
		if isLimitCode(err.Code) && limits.OnLimit == OnLimitTruncate {
			return ex.out, nil
		}
		return ex.out, err
	}
	return ex.out, nil
}

func isLimitCode(code string) bool {
	return code == CodeMaxStepExceeded || code == CodeMaxDepthExceeded
}

func (ex *expander) expandExpression(expr Expression, frame *bindingFrame) *phaseError {
	for _, term := range expr {
		if err := ex.expandTerm(term, frame); err != nil {
			return err
		}
	}
	return nil
}

func (ex *expander) expandTerm(term Term, frame *bindingFrame) *phaseError {
	switch t := term.(type) {
	case CommandTerm:
		return ex.emit(t.Cmd, t.Sp)
	case ParamRefTerm:
		b, ok := frame.lookup(t.Letter)
		if !ok {
			return errTypeMismatch(fmt.Sprintf("parameter %q is not bound here", string(t.Letter)), t.Sp)
		}
		if b.isInt {
			return errTypeMismatch(fmt.Sprintf("parameter %q has type Int but is used as a command sequence", string(t.Letter)), t.Sp)
		}
		return ex.expandExpression(b.cmdExpr, b.cmdFrame)
	case FuncCallTerm:
		return ex.expandCall(t, frame)
	}
	return nil
}

func (ex *expander) emit(cmd byte, sp Span) *phaseError {
	if ex.step >= ex.limits.MaxStep {
		return errMaxStepExceeded(ex.limits.MaxStep, sp)
	}
	ex.out = append(ex.out, cmd)
	ex.step++
	return nil
}

func (ex *expander) expandCall(call FuncCallTerm, frame *bindingFrame) *phaseError {
	fd, ok := ex.funcs[call.Name]
	if !ok {
		return errUndefinedFunction(call.Name, len(call.Args) > 0, call.Sp)
	}

	// Empty-call exception (HOJ compatibility): a 0-arg call against an
	// n-ary function is not an arity error. Every formal defaults to its
	// type's zero value; since an Int default is always 0, the numeric
	// termination rule fires the moment such a parameter is bound.
	if len(call.Args) == 0 && len(fd.Params) > 0 {
		callFrame := &bindingFrame{vals: map[byte]binding{}}
		for _, letter := range fd.Params {
			if fd.ParamTypes[letter] == TypeInt {
				return nil
			}
			callFrame.vals[letter] = binding{cmdFrame: frame}
		}
		return ex.enter(fd, callFrame, call.Sp)
	}

	if len(call.Args) != len(fd.Params) {
		return errArityMismatch(call.Name, len(fd.Params), len(call.Args), call.Sp)
	}

	// Every argument is evaluated and type-checked before the numeric
	// termination rule is applied: an early Int argument evaluating <= 0
	// must not short-circuit evaluation of later arguments, since those
	// can still raise E007 (out of range) or E008 (type mismatch).
	callFrame := &bindingFrame{vals: map[byte]binding{}}
	terminate := false
	for i, letter := range fd.Params {
		wantInt := fd.ParamTypes[letter] == TypeInt
		switch a := call.Args[i].(type) {
		case NumArg:
			if !wantInt {
				return errTypeMismatch(fmt.Sprintf("parameter %q expects a command sequence, got a numeric expression", string(letter)), a.Sp)
			}
			val, err := ex.evalNumExpr(a.Num, frame)
			if err != nil {
				return err
			}
			callFrame.vals[letter] = binding{isInt: true, intVal: val}
			if val <= 0 {
				terminate = true
			}
		case CmdArg:
			if wantInt {
				return errTypeMismatch(fmt.Sprintf("parameter %q expects a numeric expression, got a command sequence", string(letter)), a.Sp)
			}
			callFrame.vals[letter] = binding{cmdExpr: a.Expr, cmdFrame: frame}
		}
	}
	if terminate {
		return nil
	}

	return ex.enter(fd, callFrame, call.Sp)
}

func (ex *expander) enter(fd *FuncDef, callFrame *bindingFrame, callSp Span) *phaseError {
	ex.depth++
	if ex.depth > ex.limits.MaxDepth {
		ex.depth--
		return errMaxDepthExceeded(ex.limits.MaxDepth, callSp)
	}
	err := ex.expandExpression(fd.Body, callFrame)
	ex.depth--
	return err
}

func (ex *expander) evalNumExpr(ne NumExpr, frame *bindingFrame) (int, *phaseError) {
	val, err := ex.evalNumAtom(ne.First, frame)
	if err != nil {
		return 0, err
	}
	if val < -255 || val > 255 {
		return 0, errNumericOutOfRange(val, ne.First.Span())
	}
	for _, ro := range ne.Rest {
		operand, err := ex.evalNumAtom(ro.Atom, frame)
		if err != nil {
			return 0, err
		}
		if ro.Op == OpAdd {
			val += operand
		} else {
			val -= operand
		}
		if val < -255 || val > 255 {
			return 0, errNumericOutOfRange(val, ne.Sp)
		}
	}
	return val, nil
}

func (ex *expander) evalNumAtom(a NumAtom, frame *bindingFrame) (int, *phaseError) {
	switch at := a.(type) {
	case LiteralAtom:
		return at.Value, nil
	case ParamAtom:
		b, ok := frame.lookup(at.Letter)
		if !ok || !b.isInt {
			return 0, errTypeMismatch(fmt.Sprintf("parameter %q is not bound to a numeric value here", string(at.Letter)), at.Sp)
		}
		return b.intVal, nil
	}
	return 0, nil
}
