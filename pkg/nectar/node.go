package nectar

// Node is one element of a compiled template tree. Nodes are built by Parse
// and never modified afterwards, so a compiled tree may be shared by any
// number of concurrent renders. Pos is the byte offset of the node's
// opening delimiter in the template source.
type Node interface {
	pos() int
}

// TextNode is a run of literal template text, emitted verbatim.
type TextNode struct {
	Pos  int
	Text string
}

// VarNode interpolates the context value at Path. A nil Path addresses the
// current element ("."). Raw suppresses HTML escaping.
type VarNode struct {
	Pos  int
	Path []string
	Raw  bool
}

// SectionNode gates or repeats its body on the value at Path. A sequence
// value renders the body once per element; any other truthy value renders
// it once. An inverted section renders the body exactly when the normal
// form would render nothing.
type SectionNode struct {
	Pos      int
	Path     []string
	Inverted bool
	Body     []Node
}

// FuncNode calls the registered function Name. Its result is emitted
// without escaping.
type FuncNode struct {
	Pos  int
	Name string
	Args []Arg
}

// MethodNode calls Method on the context object at Path. The object must
// declare the method in its capability set.
type MethodNode struct {
	Pos    int
	Path   []string
	Method string
	Args   []Arg
}

// PartialNode includes the partial Name, rendered in the caller's scope.
type PartialNode struct {
	Pos  int
	Name string
}

func (n *TextNode) pos() int    { return n.Pos }
func (n *VarNode) pos() int     { return n.Pos }
func (n *SectionNode) pos() int { return n.Pos }
func (n *FuncNode) pos() int    { return n.Pos }
func (n *MethodNode) pos() int  { return n.Pos }
func (n *PartialNode) pos() int { return n.Pos }

// Arg is one argument in a function or method call.
type Arg interface {
	arg()
}

// LitArg is a literal argument: a string, int64, float64 or bool.
type LitArg struct {
	Val any
}

// PathArg resolves a context path when the call is evaluated. A nil Path
// addresses the current element.
type PathArg struct {
	Path []string
}

// CallArg nests another call whose result becomes the argument value.
type CallArg struct {
	Call Node
}

func (*LitArg) arg()  {}
func (*PathArg) arg() {}
func (*CallArg) arg() {}
