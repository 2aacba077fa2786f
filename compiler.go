package jsfunc

import (
	"fmt"
	"strings"

	"github.com/robertkrimen/otto/ast"
	parserFile "github.com/robertkrimen/otto/file"
	"github.com/robertkrimen/otto/parser"
)

type CompileMode uint8

const (
	// CompileFuncExpr expects the source to be exactly one function expression.
	CompileFuncExpr CompileMode = iota
	// CompileProgram compiles a whole script as the body of a zero-argument function.
	CompileProgram
)

// FunctionTemplate is the compiled form of a function: everything a closure
// needs except its environments.
type FunctionTemplate struct {
	Name     string
	Params   []string
	Body     ast.Statement
	Source   string
	Strict   bool
	Filename string

	file *parserFile.File
	root ast.Node
}

// Compiler turns source text into a template or fails with *SyntaxError.
type Compiler interface {
	Compile(src string, filename string, mode CompileMode) (*FunctionTemplate, error)
}

// OttoCompiler is the default Compiler, backed by the otto parser.
type OttoCompiler struct{}

func (OttoCompiler) Compile(src string, filename string, mode CompileMode) (*FunctionTemplate, error) {
	text := src
	if mode == CompileFuncExpr {
		text = "(" + src + ")"
	}

	program, err := parser.ParseFile(nil, filename, text, 0)
	if err != nil {
		return nil, &SyntaxError{Msg: trimParseError(filename, err)}
	}

	err = fixAndCheck(program.File, program)
	if err != nil {
		return nil, &SyntaxError{Msg: err.Error()}
	}

	switch mode {
	case CompileFuncExpr:
		literal := singleFunctionExpression(program)
		if literal == nil {
			return nil, &SyntaxError{Msg: "source is not a single function expression"}
		}
		tmpl := &FunctionTemplate{
			Params:   paramNames(literal.ParameterList),
			Body:     literal.Body,
			Source:   src,
			Strict:   isStrictBody(literal.Body),
			Filename: filename,
			file:     program.File,
			root:     literal,
		}
		if literal.Name != nil {
			tmpl.Name = literal.Name.Name
		}
		return tmpl, nil

	case CompileProgram:
		return &FunctionTemplate{
			Body:     &ast.BlockStatement{List: program.Body},
			Source:   src,
			Strict:   hasUseStrict(program.Body),
			Filename: filename,
			file:     program.File,
			root:     program,
		}, nil

	default:
		return nil, fmt.Errorf("invalid compile mode %d", mode)
	}
}

// trimParseError drops the "<file>: Line l:c" prefix from otto's messages;
// positions refer to the wrapped source and would only mislead.
func trimParseError(path string, err error) string {
	msg := err.Error()
	msg, found := strings.CutPrefix(msg, path)
	if found {
		msg, _ = strings.CutPrefix(msg, ": ")
		if strings.HasPrefix(msg, "Line ") {
			_, msg, _ = strings.Cut(msg, " ")
			_, msg, _ = strings.Cut(msg, " ")
		}
	}
	return msg
}

func singleFunctionExpression(program *ast.Program) *ast.FunctionLiteral {
	if len(program.Body) != 1 {
		return nil
	}
	es, isES := program.Body[0].(*ast.ExpressionStatement)
	if !isES {
		return nil
	}
	literal, isLit := es.Expression.(*ast.FunctionLiteral)
	if !isLit {
		return nil
	}
	return literal
}

func paramNames(params *ast.ParameterList) []string {
	if params == nil {
		return nil
	}
	names := make([]string, len(params.List))
	for i, ident := range params.List {
		names[i] = ident.Name
	}
	return names
}

func isStrictBody(body ast.Statement) bool {
	block, isBlock := body.(*ast.BlockStatement)
	return isBlock && hasUseStrict(block.List)
}

func hasUseStrict(body []ast.Statement) bool {
	if len(body) == 0 {
		return false
	}

	es, isES := body[0].(*ast.ExpressionStatement)
	if !isES {
		return false
	}

	lit, isLiteral := es.Expression.(*ast.StringLiteral)
	if !isLiteral {
		return false
	}

	return lit.Value == "use strict"
}

func fixAndCheck(file *parserFile.File, node ast.Node) error {
	chk := &checker{
		file: file,
	}
	ast.Walk(chk, node)
	if len(chk.errs) > 0 {
		return multiSyntaxErrors(chk.errs)
	}
	return nil
}

// checker reports the early errors of strict mode code that the parser
// accepts.
type checker struct {
	file *parserFile.File
	errs []error
	ctx  []checkerContext
}
type checkerContext struct {
	node      ast.Node
	setStrict bool
}

type multiSyntaxErrors []error

func (mserr multiSyntaxErrors) Error() string {
	switch len(mserr) {
	case 0:
		return "no syntax errors"
	case 1:
		return mserr[0].Error()
	default:
		lines := make([]string, 1+len(mserr))
		lines[0] = fmt.Sprintf("%d syntax errors:", len(mserr))
		for i, err := range mserr {
			lines[1+i] = fmt.Sprintf("%3d. %s", i+1, err.Error())
		}
		return strings.Join(lines, "\n")
	}
}

func (c *checker) isStrictHere() bool {
	cl := len(c.ctx)
	for i := 0; i < cl; i++ {
		item := c.ctx[cl-1-i]
		if item.setStrict {
			return true
		}
	}
	return false
}

func (c *checker) emitErr(msg string) {
	if c.file == nil {
		c.errs = append(c.errs, fmt.Errorf("?: %s", msg))
		return
	}
	c.errs = append(c.errs, fmt.Errorf("%s: %s", c.file.Name(), msg))
}

func (c *checker) Enter(node ast.Node) (v ast.Visitor) {
	c.ctx = append(c.ctx, checkerContext{
		node:      node,
		setStrict: false,
	})
	cur := &c.ctx[len(c.ctx)-1]

	switch node := node.(type) {
	case *ast.Program:
		// NOTE This avoids a corner case that is not correctly managed by the parser library
		// program.Idx0() would panic
		if len(node.Body) == 0 {
			node.Body = []ast.Statement{
				&ast.EmptyStatement{},
			}
		}
		cur.setStrict = hasUseStrict(node.Body)

	case *ast.FunctionLiteral:
		cur.setStrict = isStrictBody(node.Body)
		if c.isStrictHere() {
			c.checkStrictParams(node.ParameterList)
		}

	case *ast.VariableExpression:
		if c.isStrictHere() && isStrictRestrictedName(node.Name) {
			c.emitErr(fmt.Sprintf("variable can't be named %s in strict mode", node.Name))
		}

	case *ast.WithStatement:
		if c.isStrictHere() {
			c.emitErr("with statement can't appear in strict mode")
		}

	case *ast.ForStatement:
		c.forbidFuncDecl(node.Body)
	case *ast.ForInStatement:
		c.forbidFuncDecl(node.Body)
	case *ast.WhileStatement:
		c.forbidFuncDecl(node.Body)
	case *ast.DoWhileStatement:
		c.forbidFuncDecl(node.Body)
	}

	// keep using the same visitor
	return c
}

func (c *checker) checkStrictParams(params *ast.ParameterList) {
	seen := make(map[string]struct{})
	for _, name := range paramNames(params) {
		if isStrictRestrictedName(name) {
			c.emitErr(fmt.Sprintf("parameter can't be named %s in strict mode", name))
		}
		if _, dup := seen[name]; dup {
			c.emitErr(fmt.Sprintf("duplicate parameter name %s in strict mode", name))
		}
		seen[name] = struct{}{}
	}
}

func (c *checker) forbidFuncDecl(node ast.Node) {
	_, isFnDecl := node.(*ast.FunctionLiteral)
	_, isFnStmt := node.(*ast.FunctionStatement)
	if isFnDecl || isFnStmt {
		c.emitErr("function declaration cannot appear in statement position")
	}
}

var strictReservedKw = []string{
	"implements",
	"let",
	"private",
	"public",
	"interface",
	"package",
	"protected",
	"static",
	"yield",
}

// Returns true iff the given name can't be bound in strict mode code.
func isStrictRestrictedName(s string) bool {
	if s == "eval" || s == "arguments" {
		return true
	}
	for _, kw := range strictReservedKw {
		if kw == s {
			return true
		}
	}
	return false
}

func (c *checker) Exit(node ast.Node) {
	if c.ctx[len(c.ctx)-1].node != node {
		panic("bug: fixAndCheck: inconsistent context")
	}

	c.ctx = c.ctx[:len(c.ctx)-1]
}
