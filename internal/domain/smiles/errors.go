package smiles

import (
	stderrors "errors"
	"fmt"

	"github.com/turtacn/keyip-smiles/pkg/errors"
)

// ErrorKind classifies fatal parse failures.
type ErrorKind int

const (
	KindSyntax ErrorKind = iota + 1
	KindUnknownElement
	KindBracket
	KindBranch
	KindRingClosure
	KindDangling
	KindSmartsNotAllowed
	KindAromaticity
	KindReaction
	KindIonicBond
)

var kindCodes = map[ErrorKind]errors.ErrorCode{
	KindSyntax:           errors.CodeSmilesSyntax,
	KindUnknownElement:   errors.CodeSmilesUnknownElement,
	KindBracket:          errors.CodeSmilesBracket,
	KindBranch:           errors.CodeSmilesBranch,
	KindRingClosure:      errors.CodeSmilesRingClosure,
	KindDangling:         errors.CodeSmilesDangling,
	KindSmartsNotAllowed: errors.CodeSmilesSmartsNotAllowed,
	KindAromaticity:      errors.CodeSmilesAromaticity,
	KindReaction:         errors.CodeSmilesReaction,
	KindIonicBond:        errors.CodeSmilesIonicBond,
}

// Code returns the application error code of the kind.
func (k ErrorKind) Code() errors.ErrorCode {
	if c, ok := kindCodes[k]; ok {
		return c
	}
	return errors.CodeSmilesSyntax
}

// ParseError is a fatal parse failure.  Offset is the byte position of the
// offending character in the input, or -1 when the failure is not tied to a
// single position.  A failed parse leaves the molecule partially populated;
// callers must discard it.
type ParseError struct {
	Kind   ErrorKind
	Offset int
	Msg    string
}

func (e *ParseError) Error() string {
	if e.Offset < 0 {
		return "smiles: " + e.Msg
	}
	return fmt.Sprintf("smiles: %s at offset %d", e.Msg, e.Offset)
}

func newParseError(kind ErrorKind, offset int, format string, args ...interface{}) *ParseError {
	return &ParseError{Kind: kind, Offset: offset, Msg: fmt.Sprintf(format, args...)}
}

// AsParseError extracts a *ParseError from err's chain.
func AsParseError(err error) (*ParseError, bool) {
	var pe *ParseError
	if stderrors.As(err, &pe) {
		return pe, true
	}
	return nil, false
}

// ToAppError converts a parse failure into an *errors.AppError carrying the
// matching SMI_* code.  Errors that are not parse failures are wrapped as
// internal errors; nil stays nil.
func ToAppError(err error) *errors.AppError {
	if err == nil {
		return nil
	}
	var ae *errors.AppError
	if stderrors.As(err, &ae) {
		return ae
	}
	pe, ok := AsParseError(err)
	if !ok {
		return errors.Wrap(err, errors.CodeInternal, "unexpected parser failure")
	}
	app := errors.New(pe.Kind.Code(), pe.Msg).WithCause(pe)
	if pe.Offset >= 0 {
		app = app.WithDetail(fmt.Sprintf("offset=%d", pe.Offset))
	}
	return app
}
