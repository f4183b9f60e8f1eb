package dslparser

import "errors"

// The four failure cases the flow expression parser reports.
// EmptyExpression is purely syntactic and is raised by the Parser itself;
// the other three require a Registry snapshot and are raised by Builder.
var (
	ErrEmptyExpression = errors.New("dslparser: empty expression")
	ErrNotAnExpression = errors.New("dslparser: statement does not evaluate to an Op expression")
	ErrUnknownOp       = errors.New("dslparser: unknown op name")
	ErrNotAnOp         = errors.New("dslparser: identifier does not resolve to an Op")
)
