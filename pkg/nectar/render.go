package nectar

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// frame is one level of the name-resolution stack. dot is the value a bare
// "." resolves to; vars are the names the frame contributes.
type frame struct {
	dot  Value
	vars map[string]Value
}

// renderState carries one render walk. A state is never shared between
// goroutines; the engine-level structures it points at are concurrent-safe.
type renderState struct {
	eng    *Engine
	ctx    context.Context
	async  bool
	src    string
	dir    string
	frames []frame
	depth  int
}

func newRenderState(eng *Engine, src, dir string, data map[string]any) *renderState {
	root := valueOf(data)
	vars, _ := root.asMap()
	return &renderState{
		eng:    eng,
		src:    src,
		dir:    dir,
		frames: []frame{{dot: root, vars: vars}},
	}
}

// lookup resolves a dotted path against the frame stack, innermost first.
// The frame that defines the first segment owns the rest of the path; a
// failed descent does not fall through to outer frames. A nil path is the
// current element.
func (st *renderState) lookup(path []string) Value {
	if len(path) == 0 {
		return st.frames[len(st.frames)-1].dot
	}
	for i := len(st.frames) - 1; i >= 0; i-- {
		v, ok := st.frames[i].vars[path[0]]
		if !ok {
			continue
		}
		for _, seg := range path[1:] {
			v, ok = v.getAttr(seg)
			if !ok {
				return Value{}
			}
		}
		return v
	}
	return Value{}
}

func (st *renderState) renderNodes(sb *strings.Builder, nodes []Node) error {
	for _, n := range nodes {
		if err := st.renderNode(sb, n); err != nil {
			return err
		}
	}
	return nil
}

func (st *renderState) renderNode(sb *strings.Builder, n Node) error {
	switch node := n.(type) {
	case *TextNode:
		sb.WriteString(node.Text)
	case *VarNode:
		s := st.lookup(node.Path).String()
		if node.Raw {
			sb.WriteString(s)
		} else {
			writeEscaped(sb, s)
		}
	case *SectionNode:
		return st.renderSection(sb, node)
	case *FuncNode, *MethodNode:
		res, err := st.evalCall(n)
		if err != nil {
			return err
		}
		// Only variable tags pass through the escaper.
		sb.WriteString(valueOf(res).String())
	case *PartialNode:
		return st.renderPartial(sb, node)
	}
	return nil
}

func (st *renderState) renderSection(sb *strings.Builder, node *SectionNode) error {
	v := st.lookup(node.Path)
	if node.Inverted {
		if !v.IsTrue() {
			return st.renderNodes(sb, node.Body)
		}
		return nil
	}
	if seq, ok := v.asSeq(); ok {
		for _, el := range seq {
			vars, _ := el.asMap()
			st.frames = append(st.frames, frame{dot: el, vars: vars})
			err := st.renderNodes(sb, node.Body)
			st.frames = st.frames[:len(st.frames)-1]
			if err != nil {
				return err
			}
		}
		return nil
	}
	if v.IsTrue() {
		return st.renderNodes(sb, node.Body)
	}
	return nil
}

func (st *renderState) renderPartial(sb *strings.Builder, node *PartialNode) error {
	if st.eng.partials == nil {
		return newError(ErrRender, "partial %q: no template directory is configured", node.Name).withPos(st.src, node.Pos)
	}
	limit := st.eng.maxPartialDepth()
	if st.depth >= limit {
		return newError(ErrRender, "partial %q exceeds the nesting limit of %d", node.Name, limit).withPos(st.src, node.Pos)
	}
	content, path, err := st.eng.partials.Load(node.Name, st.dir)
	if err != nil {
		return st.attach(err, node.Pos)
	}
	nodes, err := Parse(content)
	if err != nil {
		var terr *Error
		if errors.As(err, &terr) {
			// The position already points into the partial's own source.
			terr.Message = fmt.Sprintf("in partial %q: %s", node.Name, terr.Message)
		}
		return err
	}

	prevSrc, prevDir := st.src, st.dir
	st.src, st.dir = content, filepath.Dir(path)
	st.depth++
	err = st.renderNodes(sb, nodes)
	st.depth--
	st.src, st.dir = prevSrc, prevDir
	return err
}

// attach fills in the position of a template error that was built without
// one, using the current template source.
func (st *renderState) attach(err error, pos int) error {
	var terr *Error
	if errors.As(err, &terr) && terr.Pos < 0 {
		terr.Pos = pos
		terr.Context = excerpt(st.src, pos)
	}
	return err
}

// writeEscaped writes s to sb with the five HTML-significant characters
// replaced by entities.
func writeEscaped(sb *strings.Builder, s string) {
	if !strings.ContainsAny(s, `&<>"'`) {
		sb.WriteString(s)
		return
	}
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '&':
			sb.WriteString("&amp;")
		case '<':
			sb.WriteString("&lt;")
		case '>':
			sb.WriteString("&gt;")
		case '"':
			sb.WriteString("&quot;")
		case '\'':
			sb.WriteString("&#39;")
		default:
			sb.WriteByte(s[i])
		}
	}
}

// EscapeHTML returns s with the characters & < > " ' replaced by HTML
// entities. It is the escaper applied to {{...}} interpolations.
func EscapeHTML(s string) string {
	var sb strings.Builder
	writeEscaped(&sb, s)
	return sb.String()
}
