package tsparser

import (
	"context"
	"fmt"
	"io"
	"strings"

	ts "github.com/smacker/go-tree-sitter"
	javascript "github.com/smacker/go-tree-sitter/javascript"
)

// SyntaxError lists the places where tree-sitter had to recover from
// invalid input.
type SyntaxError struct {
	Path      string
	Positions []Position
}

type Position struct {
	Row, Column uint32
	// Missing is set when the parser inserted a node that the source lacks
	Missing bool
	Kind    string
}

func (e *SyntaxError) Error() string {
	items := make([]string, len(e.Positions))
	for i, pos := range e.Positions {
		what := "unexpected"
		if pos.Missing {
			what = "missing"
		}
		items[i] = fmt.Sprintf("%d:%d: %s %s", pos.Row+1, pos.Column+1, what, pos.Kind)
	}
	return fmt.Sprintf("%s: syntax error: %s", e.Path, strings.Join(items, "; "))
}

func ParseReader(path string, rdr io.Reader) (err error) {
	bytes, err := io.ReadAll(rdr)
	if err == nil {
		err = ParseBytes(path, bytes)
	}
	return
}

// ParseBytes parses a JavaScript source and fails with *SyntaxError if the
// source contains any error.
func ParseBytes(path string, bytes []byte) (err error) {
	parser := ts.NewParser()
	parser.SetLanguage(javascript.GetLanguage())

	ctx := context.TODO()
	tree, err := parser.ParseCtx(ctx, nil, bytes)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}

	root := tree.RootNode()
	if !root.HasError() {
		return nil
	}
	serr := &SyntaxError{Path: path}
	collectErrors(root, &serr.Positions)
	if len(serr.Positions) == 0 {
		// HasError without a located node; report the whole source
		serr.Positions = append(serr.Positions, Position{Kind: root.Type()})
	}
	return serr
}

// Check is ParseBytes over a string.
func Check(path string, src string) error {
	return ParseBytes(path, []byte(src))
}

func collectErrors(node *ts.Node, out *[]Position) {
	if node == nil {
		return
	}
	if node.IsError() || node.IsMissing() {
		pt := node.StartPoint()
		*out = append(*out, Position{
			Row:     pt.Row,
			Column:  pt.Column,
			Missing: node.IsMissing(),
			Kind:    node.Type(),
		})
		if node.IsMissing() {
			return
		}
	}
	if !node.HasError() {
		return
	}
	count := int(node.ChildCount())
	for i := 0; i < count; i++ {
		collectErrors(node.Child(i), out)
	}
}
