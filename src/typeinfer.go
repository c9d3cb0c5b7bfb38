package h2

// evidenceKind tracks how a parameter letter has been observed to be used
// within one function body, before a single ParamType is settled on.
type evidenceKind int

const (
	evidenceNone evidenceKind = iota
	evidenceCmdSeq
	evidenceInt
	evidenceConflict
)

type evidenceRec struct {
	kind         evidenceKind
	conflictSpan Span
}

// inferParamTypes walks body once, classifying every occurrence of each
// declared parameter letter as CmdSeq or Int evidence, and returns the
// resulting type map or the first conflict found (E010).
func inferParamTypes(params []byte, body Expression) (map[byte]ParamType, *phaseError) {
	rec := map[byte]*evidenceRec{}

	observe := func(letter byte, kind evidenceKind, sp Span) {
		r, ok := rec[letter]
		if !ok {
			rec[letter] = &evidenceRec{kind: kind}
			return
		}
		if r.kind != evidenceConflict && r.kind != kind {
			r.kind = evidenceConflict
			r.conflictSpan = sp
		}
	}

	walkNumExpr := func(ne NumExpr) {
		if pa, ok := ne.First.(ParamAtom); ok {
			observe(pa.Letter, evidenceInt, pa.Sp)
		}
		for _, ro := range ne.Rest {
			if pa, ok := ro.Atom.(ParamAtom); ok {
				observe(pa.Letter, evidenceInt, pa.Sp)
			}
		}
	}

	var walkExpr func(Expression)
	walkArg := func(a Arg) {
		switch v := a.(type) {
		case CmdArg:
			walkExpr(v.Expr)
		case NumArg:
			walkNumExpr(v.Num)
		}
	}
	walkExpr = func(expr Expression) {
		for _, term := range expr {
			switch t := term.(type) {
			case ParamRefTerm:
				observe(t.Letter, evidenceCmdSeq, t.Sp)
			case FuncCallTerm:
				for _, a := range t.Args {
					walkArg(a)
				}
			}
		}
	}
	walkExpr(body)

	types := map[byte]ParamType{}
	for _, letter := range params {
		r, ok := rec[letter]
		if !ok || r.kind == evidenceNone {
			types[letter] = TypeCmdSeq
			continue
		}
		if r.kind == evidenceConflict {
			return nil, errTypeConflict(letter, r.conflictSpan)
		}
		if r.kind == evidenceInt {
			types[letter] = TypeInt
		} else {
			types[letter] = TypeCmdSeq
		}
	}
	return types, nil
}
