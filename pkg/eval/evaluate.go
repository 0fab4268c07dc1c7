package eval

import (
	"github.com/rillsh/rill/pkg/eval/errs"
	"github.com/rillsh/rill/pkg/eval/vals"
	"github.com/rillsh/rill/pkg/eval/vars"
	"github.com/rillsh/rill/pkg/parse"
)

// The evaluator walks the AST directly. Every function takes the current
// frame and returns (value, error); errors are exceptions, flow signals
// or cancellation, never silently dropped.

func evalChunk(fm *Frame, ch *parse.Chunk) (any, error) {
	var result any
	last := len(ch.Statements) - 1
	for i, st := range ch.Statements {
		v, err := evalStatement(fm, st)
		if err != nil {
			return nil, err
		}
		if i == last {
			result = v
		} else if s, ok := v.(vals.Stream); ok {
			// A discarded stream is closed, not drained.
			s.Close()
		}
	}
	return result, nil
}

func evalStatement(fm *Frame, st parse.Statement) (any, error) {
	switch st := st.(type) {
	case *parse.Pipeline:
		return evalPipeline(fm, st)
	case *parse.Let:
		return nil, evalLet(fm, st)
	case *parse.If:
		return evalIf(fm, st)
	case *parse.While:
		return nil, evalWhile(fm, st)
	case *parse.For:
		return nil, evalFor(fm, st)
	case *parse.Try:
		return evalTry(fm, st)
	default:
		return nil, fm.errorp(st, errs.BadValue{
			What: "statement", Valid: "a known statement kind", Actual: "unknown"})
	}
}

// evalPipeline evaluates stages left to right, each stage's output
// becoming the next stage's input stream. Stages are pull-based: a stage
// returning a lazy stream is only advanced when its consumer asks for the
// next element, so unbounded producers compose with bounded consumers in
// bounded memory.
func evalPipeline(fm *Frame, pl *parse.Pipeline) (any, error) {
	var v any
	for i, stage := range pl.Stages {
		stageFm := fm
		if i > 0 {
			stageFm = fm.fork()
			stageFm.input = inputStream(v)
		}
		next, err := evalExpr(stageFm, stage)
		if err != nil {
			if i > 0 {
				stageFm.input.Close()
			}
			return nil, err
		}
		v = next
	}
	return v, nil
}

// inputStream lifts a stage's output into the next stage's input stream:
// lists feed their elements, a nothing value feeds an empty stream, and
// any other single value feeds a one-element stream.
func inputStream(v any) vals.Stream {
	switch v := v.(type) {
	case nil:
		return vals.EmptyStream()
	case vals.Stream:
		return v
	case vals.List:
		return vals.ListStream(v)
	default:
		return vals.SingleStream(v)
	}
}

func evalLet(fm *Frame, ln *parse.Let) error {
	v, err := evalPipeline(fm, ln.Value)
	if err != nil {
		return err
	}
	// Binding materializes: a variable is multi-read, a stream is not.
	v, err = vals.CollectValue(v)
	if err != nil {
		return fm.errorp(ln.Value, err)
	}
	fm.local.Define(ln.Name, vars.FromInit(v))
	return nil
}

func evalIf(fm *Frame, ifn *parse.If) (any, error) {
	b, err := evalBool(fm, ifn.Cond, "condition")
	if err != nil {
		return nil, err
	}
	switch {
	case b:
		return evalChunkInChild(fm, ifn.Then)
	case ifn.ElseIf != nil:
		return evalIf(fm, ifn.ElseIf)
	case ifn.Else != nil:
		return evalChunkInChild(fm, ifn.Else)
	default:
		return nil, nil
	}
}

func evalWhile(fm *Frame, wn *parse.While) error {
	for {
		if fm.IsInterrupted() {
			return fm.cancelled(wn)
		}
		b, err := evalBool(fm, wn.Cond, "condition")
		if err != nil {
			return err
		}
		if !b {
			return nil
		}
		_, err = evalChunkInChild(fm, wn.Body)
		switch err {
		case nil, Continue:
		case Break:
			return nil
		default:
			return err
		}
	}
}

func evalFor(fm *Frame, fn *parse.For) error {
	iter, err := evalExpr(fm, fn.Iter)
	if err != nil {
		return err
	}
	st := inputStream(iter)
	defer st.Close()
	for {
		if fm.IsInterrupted() {
			return fm.cancelled(fn)
		}
		elem, err := st.Next()
		if err == vals.ErrEndOfStream {
			return nil
		} else if err != nil {
			return fm.errorp(fn.Iter, err)
		}
		body := fm.fork()
		body.local = NewNs(fm.local)
		body.local.Define(fn.VarName, vars.FromInit(elem))
		_, err = evalChunk(body, fn.Body)
		switch err {
		case nil, Continue:
		case Break:
			return nil
		default:
			return err
		}
	}
}

// evalTry catches exceptions raised anywhere in the body and hands them
// to the catch branch as a first-class error value. Flow signals and
// cancellation are not data errors and always propagate.
func evalTry(fm *Frame, tn *parse.Try) (any, error) {
	v, err := evalChunkInChild(fm, tn.Body)
	if err == nil {
		return v, nil
	}
	if isFlow(err) || IsCancelled(err) {
		return nil, err
	}
	exc, ok := err.(*Exception)
	if !ok {
		exc = fm.errorp(tn, err).(*Exception)
	}
	if tn.Catch == nil {
		return nil, nil
	}
	handler := fm.fork()
	handler.local = NewNs(fm.local)
	handler.local.Define(tn.CatchVar, vars.FromInit(exc))
	return evalChunk(handler, tn.Catch)
}

func evalChunkInChild(fm *Frame, ch *parse.Chunk) (any, error) {
	child := fm.fork()
	child.local = NewNs(fm.local)
	return evalChunk(child, ch)
}

func evalBool(fm *Frame, ex *parse.Expr, what string) (bool, error) {
	v, err := evalExpr(fm, ex)
	if err != nil {
		return false, err
	}
	b, ok := v.(bool)
	if !ok {
		return false, fm.errorp(ex, errs.TypeMismatch{
			What: what, Valid: "bool", Actual: vals.Kind(v)})
	}
	return b, nil
}

func evalExpr(fm *Frame, ex *parse.Expr) (any, error) {
	switch ex.Op {
	case "":
		return evalPrimary(fm, ex.Primary)
	case "and", "or":
		return evalShortCircuit(fm, ex)
	default:
		if ex.LHS == nil {
			return evalUnary(fm, ex)
		}
		return evalBinary(fm, ex)
	}
}

func evalShortCircuit(fm *Frame, ex *parse.Expr) (any, error) {
	lhs, err := evalBool(fm, ex.LHS, "operand of '"+ex.Op+"'")
	if err != nil {
		return nil, err
	}
	if ex.Op == "and" && !lhs {
		return false, nil
	}
	if ex.Op == "or" && lhs {
		return true, nil
	}
	return evalBool(fm, ex.RHS, "operand of '"+ex.Op+"'")
}

func evalPrimary(fm *Frame, pr *parse.Primary) (any, error) {
	switch pr.Type {
	case parse.LiteralPrimary:
		return pr.Value, nil
	case parse.VariablePrimary:
		return evalVariable(fm, pr)
	case parse.InterpPrimary:
		return evalInterp(fm, pr)
	case parse.ListPrimary:
		list := make(vals.List, 0, len(pr.Elements))
		for _, elem := range pr.Elements {
			v, err := evalExpr(fm, elem)
			if err != nil {
				return nil, err
			}
			v, err = vals.CollectValue(v)
			if err != nil {
				return nil, fm.errorp(elem, err)
			}
			list = append(list, v)
		}
		return list, nil
	case parse.RecordPrimary:
		rec := vals.NewRecord()
		for _, f := range pr.Fields {
			v, err := evalExpr(fm, f.Value)
			if err != nil {
				return nil, err
			}
			v, err = vals.CollectValue(v)
			if err != nil {
				return nil, fm.errorp(f.Value, err)
			}
			rec.Set(f.Key, v)
		}
		return rec, nil
	case parse.BlockPrimary:
		return &Closure{
			Params:   pr.Params,
			Body:     pr.Body,
			Captured: fm.local,
			SrcMeta:  fm.src,
			DefRange: pr.Range(),
		}, nil
	case parse.SubexprPrimary:
		v, err := evalPipeline(fm, pr.Pipeline)
		if err != nil {
			return nil, err
		}
		return collapseSubexpr(fm, pr, v)
	case parse.CallPrimary:
		return dispatchCall(fm, pr.Call)
	default:
		return nil, fm.errorp(pr, errs.BadValue{
			What: "expression", Valid: "a known expression kind", Actual: "unknown"})
	}
}

// collapseSubexpr turns the result of a parenthesized pipeline into a
// plain value: a stream is drained, and a zero- or one-element result
// collapses to nothing or the sole element.
func collapseSubexpr(fm *Frame, pr *parse.Primary, v any) (any, error) {
	s, ok := v.(vals.Stream)
	if !ok {
		return v, nil
	}
	list, err := vals.Collect(s)
	if err != nil {
		return nil, fm.errorp(pr, err)
	}
	switch len(list) {
	case 0:
		return nil, nil
	case 1:
		return list[0], nil
	default:
		return list, nil
	}
}

func evalVariable(fm *Frame, pr *parse.Primary) (any, error) {
	variable, ok := fm.local.Resolve(pr.VarName)
	if !ok {
		return nil, fm.errorp(pr, errs.UnboundName{Name: pr.VarName})
	}
	v := variable.Get()
	for _, field := range pr.Path {
		rec, ok := v.(*vals.Record)
		if !ok {
			return nil, fm.errorp(pr, errs.TypeMismatch{
				What: "value before ." + field, Valid: "record", Actual: vals.Kind(v)})
		}
		fv, ok := rec.Get(field)
		if !ok {
			return nil, fm.errorp(pr, errs.BadValue{
				What: "field " + field, Valid: "an existing field", Actual: "missing"})
		}
		v = fv
	}
	return v, nil
}

func evalInterp(fm *Frame, pr *parse.Primary) (any, error) {
	var sb []byte
	for _, seg := range pr.Segments {
		if seg.Pipeline == nil {
			sb = append(sb, seg.Text...)
			continue
		}
		v, err := evalPipeline(fm, seg.Pipeline)
		if err != nil {
			return nil, err
		}
		v, err = collapseSubexpr(fm, pr, v)
		if err != nil {
			return nil, err
		}
		sb = append(sb, ToString(v)...)
	}
	return string(sb), nil
}

// ToString converts a value to a string for interpolation: strings embed
// as-is, everything else by its representation.
func ToString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return vals.Repr(v)
}
