package main

import (
	"fmt"
	"io"
	"strings"
)

// NodeKind identifies a grammar production. Terminal kinds keep their
// spelling in Node.Text.
type NodeKind string

const (
	NodeProgram      NodeKind = "Program"
	NodeFunctionTail NodeKind = "FunctionTail"
	NodeFunction     NodeKind = "Function"
	NodeParams       NodeKind = "Params"
	NodeParamList    NodeKind = "ParamList"
	NodeParamTail    NodeKind = "ParamTail"
	NodeBody         NodeKind = "Body"
	NodeStmtList     NodeKind = "StmtList"
	NodeStmt         NodeKind = "Stmt"
	NodeIf           NodeKind = "IfStmt"
	NodeReturn       NodeKind = "ReturnStmt"
	NodeVarDecl      NodeKind = "VarDecl"
	NodeVarDef       NodeKind = "VarDef"
	NodeAssign       NodeKind = "Assign"
	NodePass         NodeKind = "Pass"
	NodeCall         NodeKind = "Call"
	NodeExpr         NodeKind = "Expr"
	NodeTerm         NodeKind = "Term"
	NodeFactor       NodeKind = "Factor"

	// Terminals
	NodeType       NodeKind = "Type"
	NodeIdentifier NodeKind = "Identifier"
	NodeBasic      NodeKind = "Basic"     // literal or bare identifier
	NodeOperator   NodeKind = "Operator"  // binary operator symbol
	NodeDelimiter  NodeKind = "Delimiter" // "(" or ")" around a grouped Factor
	NodeEpsilon    NodeKind = "ε"
)

// Node is an ordered n-ary tree node shared by the parser and the generator.
//
// Arity by kind:
//
//	Program      Function FunctionTail
//	FunctionTail Function FunctionTail | ε
//	Function     Type Identifier Params Body
//	Params       ParamList
//	ParamList    Type Identifier ParamTail | ε   (ParamTail alike)
//	Body         StmtList
//	StmtList     Stmt StmtList | ε
//	Stmt         IfStmt | ReturnStmt | VarDef | Assign | Pass | VarDecl | Expr
//	IfStmt       Expr StmtList StmtList
//	ReturnStmt   Expr
//	VarDecl      Type Identifier
//	VarDef       Type Identifier Expr
//	Assign       Identifier Expr
//	Call         Identifier Expr*
//	Expr         Term [Operator Expr]
//	Term         Factor [Operator Term]
//	Factor       Delimiter Expr Delimiter | Call | Basic
type Node struct {
	Kind     NodeKind
	Text     string
	Children []*Node
	Line     int // first source line; set on Function and Stmt nodes

	// Storage is written by the generator once the node's value has a home:
	// a scratch register name ("r8") or a frame slot ("16(%rbp)").
	Storage string
}

func newNode(kind NodeKind, children ...*Node) *Node {
	return &Node{Kind: kind, Children: children}
}

func newLeaf(kind NodeKind, text string) *Node {
	return &Node{Kind: kind, Text: text}
}

func epsilon() *Node {
	return newLeaf(NodeEpsilon, "ε")
}

// IsTerminal reports whether the node holds source text rather than children.
func (n *Node) IsTerminal() bool {
	switch n.Kind {
	case NodeType, NodeIdentifier, NodeBasic, NodeOperator, NodeDelimiter, NodeEpsilon:
		return true
	}
	return false
}

// IsEmpty reports whether the node is the empty production.
func (n *Node) IsEmpty() bool {
	return len(n.Children) == 1 && n.Children[0].Kind == NodeEpsilon
}

// Tag is the node's label: the spelling for terminals, the production
// name otherwise.
func (n *Node) Tag() string {
	if n.IsTerminal() {
		return n.Text
	}
	return string(n.Kind)
}

// Print writes an indented box-drawing view of the tree.
func (n *Node) Print(w io.Writer) {
	n.print(w, "", true, true)
}

func (n *Node) print(w io.Writer, prefix string, root, last bool) {
	label := n.Tag()
	if n.Storage != "" {
		label += "  [" + n.Storage + "]"
	}
	childPrefix := prefix
	switch {
	case root:
		fmt.Fprintln(w, label)
	case last:
		fmt.Fprintf(w, "%s└─ %s\n", prefix, label)
		childPrefix += "   "
	default:
		fmt.Fprintf(w, "%s├─ %s\n", prefix, label)
		childPrefix += "|  "
	}
	for i, child := range n.Children {
		child.print(w, childPrefix, false, i == len(n.Children)-1)
	}
}

// ToSExpr renders a condensed s-expression: right-recursive lists are
// flattened and single-child Expr/Term/Factor wrappers are elided.
func ToSExpr(node *Node) string {
	if node == nil {
		return ""
	}

	switch node.Kind {
	case NodeProgram:
		parts := []string{"program"}
		for _, fn := range functions(node) {
			parts = append(parts, ToSExpr(fn))
		}
		return "(" + strings.Join(parts, " ") + ")"
	case NodeFunction:
		return fmt.Sprintf("(func %q %q %s %s)",
			node.Children[0].Text, node.Children[1].Text,
			ToSExpr(node.Children[2]), ToSExpr(node.Children[3]))
	case NodeParams:
		parts := []string{"params"}
		for _, p := range params(node) {
			parts = append(parts, fmt.Sprintf("(param %q %q)", p.typ, p.name))
		}
		return "(" + strings.Join(parts, " ") + ")"
	case NodeBody:
		return ToSExpr(node.Children[0])
	case NodeStmtList:
		parts := []string{"block"}
		for _, stmt := range statements(node) {
			parts = append(parts, ToSExpr(stmt))
		}
		return "(" + strings.Join(parts, " ") + ")"
	case NodeStmt:
		return ToSExpr(node.Children[0])
	case NodeIf:
		return "(if " + ToSExpr(node.Children[0]) + " " +
			ToSExpr(node.Children[1]) + " " + ToSExpr(node.Children[2]) + ")"
	case NodeReturn:
		return "(return " + ToSExpr(node.Children[0]) + ")"
	case NodeVarDecl:
		return fmt.Sprintf("(var-decl %q %q)", node.Children[0].Text, node.Children[1].Text)
	case NodeVarDef:
		return fmt.Sprintf("(var-def %q %q %s)", node.Children[0].Text, node.Children[1].Text, ToSExpr(node.Children[2]))
	case NodeAssign:
		return fmt.Sprintf("(assign %q %s)", node.Children[0].Text, ToSExpr(node.Children[1]))
	case NodePass:
		return "(pass)"
	case NodeCall:
		result := fmt.Sprintf("(call %q", node.Children[0].Text)
		for _, arg := range node.Children[1:] {
			result += " " + ToSExpr(arg)
		}
		return result + ")"
	case NodeExpr, NodeTerm:
		if len(node.Children) == 1 {
			return ToSExpr(node.Children[0])
		}
		return fmt.Sprintf("(binary %q %s %s)", node.Children[1].Text,
			ToSExpr(node.Children[0]), ToSExpr(node.Children[2]))
	case NodeFactor:
		if len(node.Children) == 3 {
			return "(group " + ToSExpr(node.Children[1]) + ")"
		}
		return ToSExpr(node.Children[0])
	case NodeBasic:
		switch {
		case isInteger(node.Text):
			return node.Text
		case node.Text != "" && isDigit([]rune(node.Text)[0]):
			return fmt.Sprintf("(number %q)", node.Text)
		default:
			return fmt.Sprintf("(ident %q)", node.Text)
		}
	case NodeType, NodeIdentifier, NodeOperator, NodeDelimiter:
		return fmt.Sprintf("%q", node.Text)
	case NodeFunctionTail, NodeParamList, NodeParamTail, NodeEpsilon:
		// Only reachable through the list walkers above.
		return ""
	}
	return ""
}

func isInteger(s string) bool {
	if s == "" {
		return false
	}
	for _, ch := range s {
		if !isDigit(ch) {
			return false
		}
	}
	return true
}

// functions walks Program/FunctionTail and returns the Function nodes in
// source order.
func functions(program *Node) []*Node {
	fns := []*Node{program.Children[0]}
	for tail := program.Children[1]; !tail.IsEmpty(); tail = tail.Children[1] {
		fns = append(fns, tail.Children[0])
	}
	return fns
}

type param struct {
	typ  string
	name string
}

// params walks a Params node's ParamList/ParamTail chain.
func params(node *Node) []param {
	var out []param
	for list := node.Children[0]; !list.IsEmpty(); list = list.Children[2] {
		out = append(out, param{typ: list.Children[0].Text, name: list.Children[1].Text})
	}
	return out
}

// statements walks a StmtList chain and returns each Stmt.
func statements(list *Node) []*Node {
	var out []*Node
	for ; !list.IsEmpty(); list = list.Children[1] {
		out = append(out, list.Children[0])
	}
	return out
}

// LeafKind classifies an element of a flattened expression.
type LeafKind int

const (
	LeafValue      LeafKind = iota // literal or variable name
	LeafOperator                   // + - * / and comparisons
	LeafGroupOpen                  // (
	LeafGroupClose                 // )
	LeafCallee                     // name of the function about to be called
	LeafCallOpen                   // start of an argument list
	LeafCallClose                  // end of an argument list
	LeafArgSep                     // ,
)

func (l LeafKind) String() string {
	switch l {
	case LeafValue:
		return "value"
	case LeafOperator:
		return "operator"
	case LeafGroupOpen:
		return "group-open"
	case LeafGroupClose:
		return "group-close"
	case LeafCallee:
		return "callee"
	case LeafCallOpen:
		return "call-open"
	case LeafCallClose:
		return "call-close"
	case LeafArgSep:
		return "arg-sep"
	}
	return fmt.Sprintf("LeafKind(%d)", int(l))
}

// Leaf is one element of the sequence evaluated by the precedence climber.
type Leaf struct {
	Kind LeafKind
	Text string
}

func (l Leaf) String() string {
	return l.Text
}

// Flatten returns the ordered leaves of an Expr subtree.
//
// A right operand that itself holds an operator is wrapped in grouping
// markers, so the flat sequence evaluates with the tree's right
// associativity: 10 - 3 - 2 becomes 10 - ( 3 - 2 ).
func Flatten(node *Node) []Leaf {
	var leaves []Leaf
	flatten(node, &leaves)
	return leaves
}

func flatten(node *Node, leaves *[]Leaf) {
	switch node.Kind {
	case NodeExpr, NodeTerm:
		flatten(node.Children[0], leaves)
		if len(node.Children) == 1 {
			return
		}
		*leaves = append(*leaves, Leaf{Kind: LeafOperator, Text: node.Children[1].Text})
		right := node.Children[2]
		if len(right.Children) == 3 {
			*leaves = append(*leaves, Leaf{Kind: LeafGroupOpen, Text: "("})
			flatten(right, leaves)
			*leaves = append(*leaves, Leaf{Kind: LeafGroupClose, Text: ")"})
		} else {
			flatten(right, leaves)
		}
	case NodeFactor:
		if len(node.Children) == 3 {
			*leaves = append(*leaves, Leaf{Kind: LeafGroupOpen, Text: "("})
			flatten(node.Children[1], leaves)
			*leaves = append(*leaves, Leaf{Kind: LeafGroupClose, Text: ")"})
			return
		}
		flatten(node.Children[0], leaves)
	case NodeCall:
		*leaves = append(*leaves,
			Leaf{Kind: LeafCallee, Text: node.Children[0].Text},
			Leaf{Kind: LeafCallOpen, Text: "("})
		for i, arg := range node.Children[1:] {
			if i > 0 {
				*leaves = append(*leaves, Leaf{Kind: LeafArgSep, Text: ","})
			}
			flatten(arg, leaves)
		}
		*leaves = append(*leaves, Leaf{Kind: LeafCallClose, Text: ")"})
	case NodeBasic:
		*leaves = append(*leaves, Leaf{Kind: LeafValue, Text: node.Text})
	}
}
