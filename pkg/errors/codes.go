package errors

import (
	"net/http"
	"strings"
)

// ErrorCode is a string representation of a specific error condition.
// The prefix before the underscore names the module that owns the code.
type ErrorCode string

func (c ErrorCode) String() string {
	return string(c)
}

// Common error codes.
const (
	CodeOK             ErrorCode = "OK"
	CodeUnknown        ErrorCode = "COMMON_000"
	CodeInternal       ErrorCode = "COMMON_001"
	CodeInvalidParam   ErrorCode = "COMMON_002"
	CodeUnauthorized   ErrorCode = "COMMON_003"
	CodeNotFound       ErrorCode = "COMMON_005"
	CodeRateLimited    ErrorCode = "COMMON_007"
	CodeUnavailable    ErrorCode = "COMMON_008"
	CodeTimeout        ErrorCode = "COMMON_009"
	CodeSerialization  ErrorCode = "COMMON_011"
	CodeCacheError     ErrorCode = "COMMON_013"
	CodeNotImplemented ErrorCode = "COMMON_016"
	CodeConfigInvalid  ErrorCode = "COMMON_017"
)

// SMILES / SMARTS parse error codes.  Every structural failure of the parser
// maps onto exactly one of these.
const (
	CodeSmilesSyntax           ErrorCode = "SMI_001"
	CodeSmilesUnknownElement   ErrorCode = "SMI_002"
	CodeSmilesBracket          ErrorCode = "SMI_003"
	CodeSmilesBranch           ErrorCode = "SMI_004"
	CodeSmilesRingClosure      ErrorCode = "SMI_005"
	CodeSmilesDangling         ErrorCode = "SMI_006"
	CodeSmilesSmartsNotAllowed ErrorCode = "SMI_007"
	CodeSmilesAromaticity      ErrorCode = "SMI_008"
	CodeSmilesReaction         ErrorCode = "SMI_009"
	CodeSmilesIonicBond        ErrorCode = "SMI_010"
	CodeInputTooLarge          ErrorCode = "SMI_011"
)

// ErrorCodeHTTPStatus maps ErrorCodes to HTTP status codes.
var ErrorCodeHTTPStatus = map[ErrorCode]int{
	CodeOK:             http.StatusOK,
	CodeUnknown:        http.StatusInternalServerError,
	CodeInternal:       http.StatusInternalServerError,
	CodeInvalidParam:   http.StatusBadRequest,
	CodeUnauthorized:   http.StatusUnauthorized,
	CodeNotFound:       http.StatusNotFound,
	CodeRateLimited:    http.StatusTooManyRequests,
	CodeUnavailable:    http.StatusServiceUnavailable,
	CodeTimeout:        http.StatusGatewayTimeout,
	CodeSerialization:  http.StatusInternalServerError,
	CodeCacheError:     http.StatusInternalServerError,
	CodeNotImplemented: http.StatusNotImplemented,
	CodeConfigInvalid:  http.StatusInternalServerError,

	CodeSmilesSyntax:           http.StatusUnprocessableEntity,
	CodeSmilesUnknownElement:   http.StatusUnprocessableEntity,
	CodeSmilesBracket:          http.StatusUnprocessableEntity,
	CodeSmilesBranch:           http.StatusUnprocessableEntity,
	CodeSmilesRingClosure:      http.StatusUnprocessableEntity,
	CodeSmilesDangling:         http.StatusUnprocessableEntity,
	CodeSmilesSmartsNotAllowed: http.StatusUnprocessableEntity,
	CodeSmilesAromaticity:      http.StatusUnprocessableEntity,
	CodeSmilesReaction:         http.StatusUnprocessableEntity,
	CodeSmilesIonicBond:        http.StatusUnprocessableEntity,
	CodeInputTooLarge:          http.StatusRequestEntityTooLarge,
}

// ErrorCodeMessage maps ErrorCodes to default messages.
var ErrorCodeMessage = map[ErrorCode]string{
	CodeOK:             "ok",
	CodeUnknown:        "unknown error",
	CodeInternal:       "internal server error",
	CodeInvalidParam:   "bad request",
	CodeUnauthorized:   "unauthorized",
	CodeNotFound:       "resource not found",
	CodeRateLimited:    "rate limit exceeded",
	CodeUnavailable:    "service unavailable",
	CodeTimeout:        "request timeout",
	CodeSerialization:  "serialization failed",
	CodeCacheError:     "cache error",
	CodeNotImplemented: "not implemented",
	CodeConfigInvalid:  "invalid configuration",

	CodeSmilesSyntax:           "SMILES syntax error",
	CodeSmilesUnknownElement:   "unknown element label",
	CodeSmilesBracket:          "malformed bracket atom",
	CodeSmilesBranch:           "unbalanced branch",
	CodeSmilesRingClosure:      "invalid ring closure",
	CodeSmilesDangling:         "dangling bond or ring closure",
	CodeSmilesSmartsNotAllowed: "SMARTS feature in SMILES input",
	CodeSmilesAromaticity:      "aromatic bond assignment failed",
	CodeSmilesReaction:         "malformed reaction SMILES",
	CodeSmilesIonicBond:        "covalent bond to ionic atom",
	CodeInputTooLarge:          "input exceeds size limit",
}

// HTTPStatusForCode returns the HTTP status code for an ErrorCode.
func HTTPStatusForCode(code ErrorCode) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// DefaultMessageForCode returns the default message for an ErrorCode.
func DefaultMessageForCode(code ErrorCode) string {
	if msg, ok := ErrorCodeMessage[code]; ok {
		return msg
	}
	return "unknown error"
}

// IsClientError returns true if the ErrorCode corresponds to a 4xx HTTP status.
func IsClientError(code ErrorCode) bool {
	status := HTTPStatusForCode(code)
	return status >= 400 && status < 500
}

// ModuleForCode returns the module prefix of an ErrorCode.
func ModuleForCode(code ErrorCode) string {
	parts := strings.Split(string(code), "_")
	if len(parts) > 1 && parts[0] != "" {
		return parts[0]
	}
	return "UNKNOWN"
}
