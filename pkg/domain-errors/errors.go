// Package domainerrors carries the error taxonomy shared by the verification
// pipeline, the registry, and the HTTP transport. Every failure a caller can
// observe is tagged with a Code so transports and tests never string-match.
package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code identifies a failure family.
type Code string

const (
	// CodeStructural covers malformed input and missing required JSON fields.
	CodeStructural Code = "structural"

	// CodeValidation covers issuer-supplied fields that parse but violate
	// their syntactic rules (precision range, name or ticker pattern).
	CodeValidation Code = "validation"

	// CodeCommitment means the asset id does not match the value derived
	// from the issuance prevout and the contract hash.
	CodeCommitment Code = "commitment"

	// CodeFieldMismatch means the flattened fields diverge from the ones
	// committed inside the contract document.
	CodeFieldMismatch Code = "field_mismatch"

	// CodePolicy marks operations that are deliberately unsupported, such
	// as signed field updates.
	CodePolicy Code = "policy"

	// CodeCrypto covers malformed public keys and signatures.
	CodeCrypto Code = "crypto"

	// CodeChainVerification means the claimed issuance could not be
	// confirmed against the chain query backend.
	CodeChainVerification Code = "chain_verification"

	// CodeDomainLink covers the domain challenge: bad syntax, transport
	// errors, non-success statuses, and proof body mismatches.
	CodeDomainLink Code = "domain_link"

	// CodeIO covers filesystem failures in the registry.
	CodeIO Code = "io"

	// CodeHook means the post-commit hook exited nonzero. The record is
	// already persisted when this code is reported.
	CodeHook Code = "hook"

	CodeNotFound   Code = "not_found"
	CodeBadRequest Code = "bad_request"
	CodeInternal   Code = "internal"
)

// Error is the concrete error type carried across package boundaries.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New builds an error with a code and a message.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Newf builds an error with a formatted message.
func Newf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code and context to an underlying error. The wrapped error
// stays reachable through errors.Is / errors.As.
func Wrap(code Code, message string, err error) *Error {
	return &Error{Code: code, Message: message, Err: err}
}

// HasCode reports whether any error in the chain carries the given code.
func HasCode(err error, code Code) bool {
	for err != nil {
		var de *Error
		if !errors.As(err, &de) {
			return false
		}
		if de.Code == code {
			return true
		}
		err = de.Err
	}
	return false
}

// CodeOf returns the outermost code in the chain, or CodeInternal when the
// error is untagged.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// ToHTTPStatus maps a code to the status the HTTP transport should answer.
func ToHTTPStatus(code Code) int {
	switch code {
	case CodeNotFound:
		return http.StatusNotFound
	case CodeStructural, CodeValidation, CodeCommitment, CodeFieldMismatch,
		CodeCrypto, CodeChainVerification, CodeDomainLink, CodeBadRequest:
		return http.StatusBadRequest
	case CodePolicy:
		return http.StatusForbidden
	case CodeIO, CodeHook, CodeInternal:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}
