package normalize

import (
	"encoding/xml"
	"errors"
	"fmt"
)

// Stage names the normalization step that failed
type Stage string

const (
	StageRead      Stage = "read"
	StageTransform Stage = "transform"
	StageParse     Stage = "parse"
)

// Error reports a normalization failure for one file
type Error struct {
	File  string
	Stage Stage
	// Line is the input line of a syntax error, 0 when unknown
	Line int
	Err  error
}

func (e *Error) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s: %s failed at line %d: %v", e.File, e.Stage, e.Line, e.Err)
	}
	return fmt.Sprintf("%s: %s failed: %v", e.File, e.Stage, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(file string, stage Stage, err error) *Error {
	nerr := &Error{File: file, Stage: stage, Err: err}
	var syn *xml.SyntaxError
	if errors.As(err, &syn) {
		nerr.Line = syn.Line
	}
	return nerr
}
