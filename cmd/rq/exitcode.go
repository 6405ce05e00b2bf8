package main

import (
	"errors"

	"github.com/coregx/rq/ast"
	"github.com/coregx/rq/automaton"
	"github.com/coregx/rq/errs"
)

// Exit codes, following spec.md §6's "exit code 0 on success, nonzero
// (with a classified error class in the message) otherwise": rq reuses
// one nonzero code per error kind rather than a single generic 1, so a
// calling script can distinguish "bad query" from "bad document" from
// "I/O failure" without parsing the message.
const (
	exitOK             = 0
	exitParseError     = 2
	exitCompileError   = 3
	exitMalformedInput = 4
	exitInputError     = 5
	exitSinkError      = 6
	exitUsageError     = 64 // EX_USAGE, a convention the teacher's CLIs don't set but coreutils does
)

func exitCodeFor(err error) int {
	var syntaxErr *ast.SyntaxError
	if errors.As(err, &syntaxErr) {
		return exitParseError
	}

	var compileErr *automaton.CompileError
	if errors.As(err, &compileErr) {
		return exitCompileError
	}

	var inputErr *errs.InputError
	if errors.As(err, &inputErr) {
		return exitInputError
	}

	var sinkErr *errs.SinkError
	if errors.As(err, &sinkErr) {
		return exitSinkError
	}

	var depthBelowZero *errs.DepthBelowZero
	var depthAboveLimit *errs.DepthAboveLimit
	var malformedQuotes *errs.MalformedStringQuotes
	switch {
	case errors.As(err, &depthBelowZero),
		errors.As(err, &depthAboveLimit),
		errors.As(err, &malformedQuotes),
		errors.Is(err, errs.ErrMissingClosingCharacter),
		errors.Is(err, errs.ErrMissingItem):
		return exitMalformedInput
	}

	if errors.Is(err, ErrUnknownMode) || errors.Is(err, ErrUnknownInputMode) {
		return exitUsageError
	}

	return 1
}
