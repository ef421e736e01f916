package nectar

import (
	"context"
	"strings"
)

// RenderAsync parses and renders template source against data, awaiting
// asynchronous functions where their tags appear. Evaluation order is the
// same as Render: left to right, depth first, one call at a time. When an
// async call fails and the configuration holds a fallback for its name,
// the fallback value takes the call's place and rendering continues; any
// other failure aborts the render with no partial output.
func (e *Engine) RenderAsync(ctx context.Context, src string, data map[string]any) (string, error) {
	t, err := e.Compile(src)
	if err != nil {
		return "", err
	}
	return t.RenderAsync(ctx, data)
}

// RenderFileAsync is RenderAsync over the template file at path. Partials
// are searched from the file's directory.
func (e *Engine) RenderFileAsync(ctx context.Context, path string, data map[string]any) (string, error) {
	t, err := e.CompileFile(path)
	if err != nil {
		return "", err
	}
	return t.RenderAsync(ctx, data)
}

// RenderAsync executes the template in asynchronous mode. See
// Engine.RenderAsync for the fallback semantics.
func (t *Template) RenderAsync(ctx context.Context, data map[string]any) (string, error) {
	st := newRenderState(t.eng, t.src, t.dir, data)
	st.ctx = ctx
	st.async = true
	var sb strings.Builder
	if err := st.renderNodes(&sb, t.nodes); err != nil {
		return "", err
	}
	return sb.String(), nil
}

// evalCall evaluates a function or method call node and returns its raw
// result. Used both for emitting call tags and for nested call arguments.
func (st *renderState) evalCall(n Node) (any, error) {
	switch node := n.(type) {
	case *FuncNode:
		args, err := st.evalArgs(node.Args)
		if err != nil {
			return nil, err
		}
		return st.callFunc(node.Pos, node.Name, args)
	case *MethodNode:
		args, err := st.evalArgs(node.Args)
		if err != nil {
			return nil, err
		}
		return st.callMethod(node.Pos, node.Path, node.Method, args)
	default:
		return nil, newError(ErrRender, "not a callable node").withPos(st.src, n.pos())
	}
}

// evalArgs resolves an argument list left to right. Paths are exported to
// plain Go values; nested calls run first, with the same dispatch rules as
// top-level calls.
func (st *renderState) evalArgs(args []Arg) ([]any, error) {
	if len(args) == 0 {
		return nil, nil
	}
	out := make([]any, len(args))
	for i, a := range args {
		switch arg := a.(type) {
		case *LitArg:
			out[i] = arg.Val
		case *PathArg:
			out[i] = st.lookup(arg.Path).Export()
		case *CallArg:
			res, err := st.evalCall(arg.Call)
			if err != nil {
				return nil, err
			}
			out[i] = res
		}
	}
	return out, nil
}

// callFunc dispatches a registry function. In asynchronous mode an async
// entry is awaited in place and its failure may be replaced by the
// configured fallback for the name; synchronous entries keep their hard
// error behavior in both modes.
func (st *renderState) callFunc(pos int, name string, args []any) (any, error) {
	if st.async && st.eng.funcs.HasAsync(name) {
		res, err := st.eng.funcs.CallAsync(st.ctx, name, args)
		if err != nil {
			if fb, ok := st.eng.fallback(name); ok {
				st.eng.logger.Warn("async function failed, using fallback",
					"function", name, "error", err)
				return fb, nil
			}
			return nil, st.attach(err, pos)
		}
		return res, nil
	}
	res, err := st.eng.funcs.Call(name, args)
	if err != nil {
		return nil, st.attach(err, pos)
	}
	return res, nil
}

// callMethod dispatches a method call against the capability set declared
// by the receiver. Members outside the set are never invoked.
func (st *renderState) callMethod(pos int, path []string, method string, args []any) (any, error) {
	target := strings.Join(path, ".")
	recv := st.lookup(path)
	if recv.Kind() == KindNone {
		return nil, newError(ErrRender, "method receiver %q is not in the context", target).withPos(st.src, pos)
	}
	obj, ok := recv.capable()
	if !ok {
		return nil, newError(ErrMethod, "a %s value has no callable methods", recv.Kind()).withPos(st.src, pos)
	}
	member, ok := obj.Capabilities()[method]
	if !ok {
		return nil, newError(ErrMethod, "method %q is not exposed by %q", method, target).withPos(st.src, pos)
	}

	if st.async && member.AsyncFn != nil {
		res, err := member.AsyncFn(st.ctx, args...)
		if err != nil {
			if fb, ok := st.eng.fallback(method); ok {
				st.eng.logger.Warn("async method failed, using fallback",
					"receiver", target, "method", method, "error", err)
				return fb, nil
			}
			return nil, newError(ErrMethod, "method %q failed", method).withCause(err).withPos(st.src, pos)
		}
		return res, nil
	}
	if member.Fn == nil {
		return nil, newError(ErrRender, "method %q requires asynchronous rendering", method).withPos(st.src, pos)
	}
	res, err := member.Fn(args...)
	if err != nil {
		return nil, newError(ErrMethod, "method %q failed", method).withCause(err).withPos(st.src, pos)
	}
	return res, nil
}
