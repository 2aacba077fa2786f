package jsfunc

import (
	"fmt"
	"io"
	"reflect"
	"strings"

	"github.com/robertkrimen/otto/ast"
	parserFile "github.com/robertkrimen/otto/file"
	"github.com/robertkrimen/otto/token"
)

// DumpTemplate writes an indented outline of a template's syntax tree, one
// node per line, with the node's source text when it fits on one line.
func DumpTemplate(w io.Writer, tmpl *FunctionTemplate) error {
	if tmpl == nil || tmpl.root == nil {
		return fmt.Errorf("template has no syntax tree")
	}
	walker := &printer{
		w:    w,
		file: tmpl.file,
	}
	ast.Walk(walker, tmpl.root)
	return walker.err
}

type printer struct {
	w      io.Writer
	file   *parserFile.File
	indent int
	err    error
}

func (p *printer) Enter(n ast.Node) (v ast.Visitor) {
	if p.err != nil {
		return nil
	}
	if rv := reflect.ValueOf(n); rv.Kind() == reflect.Pointer && rv.IsNil() {
		// optional children (e.g. the name of an anonymous function)
		return nil
	}

	line := strings.Repeat("|   ", p.indent) + reflect.TypeOf(n).String()
	if op, ok := operatorOf(n); ok {
		line += " (" + op.String() + ")"
	}
	if subSrc := p.sourceOf(n); subSrc != "" {
		line += "  " + subSrc
	}
	_, p.err = fmt.Fprintln(p.w, line)

	p.indent++
	return p
}

func (p *printer) Exit(n ast.Node) {
	p.indent--
}

func (p *printer) sourceOf(n ast.Node) string {
	if p.file == nil {
		return ""
	}
	src := p.file.Source()
	start := int(n.Idx0()) - p.file.Base()
	end := int(n.Idx1()) - p.file.Base()
	if start < 0 || end > len(src) || start >= end {
		return ""
	}
	subSrc := src[start:end]
	if strings.Contains(subSrc, "\n") {
		return ""
	}
	return subSrc
}

func operatorOf(n ast.Node) (token.Token, bool) {
	switch n := n.(type) {
	case *ast.BinaryExpression:
		return n.Operator, true
	case *ast.AssignExpression:
		return n.Operator, true
	case *ast.UnaryExpression:
		return n.Operator, true
	default:
		return 0, false
	}
}
