/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package issuecredential

import (
	"errors"
	"fmt"
)

// ProblemCode is the code carried by a problem-report message.
type ProblemCode string

const (
	// ProblemIssuanceAbandoned the exchange cannot continue.
	ProblemIssuanceAbandoned ProblemCode = "issuance-abandoned"
	// ProblemInvalidOffer the offer could not be processed.
	ProblemInvalidOffer ProblemCode = "invalid-credential-offer"
	// ProblemInvalidRequest the request could not be processed.
	ProblemInvalidRequest ProblemCode = "invalid-credential-request"
	// ProblemInvalidCredential the issued credential could not be processed.
	ProblemInvalidCredential ProblemCode = "invalid-credential"
	// ProblemOfferDeclined the holder declined the offer.
	ProblemOfferDeclined ProblemCode = "offer-declined"
)

var (
	// ErrRecordNotFound no exchange record matches.
	ErrRecordNotFound = errors.New("credential exchange record not found")
	// ErrInvalidTransition the record state does not allow the requested operation.
	ErrInvalidTransition = errors.New("invalid state transition")
	// ErrDuplicateMessage the inbound message belongs to a phase the exchange already passed.
	ErrDuplicateMessage = errors.New("duplicate message")
	// ErrMissingAttachment a declared format has no attachment in the message.
	ErrMissingAttachment = errors.New("missing attachment for declared format")
	// ErrUnsupportedFormat no format service handles the requested format.
	ErrUnsupportedFormat = errors.New("unsupported credential format")
	// ErrUnsupportedVersion no protocol service is registered for the version.
	ErrUnsupportedVersion = errors.New("unsupported protocol version")
	// ErrUnsupportedMessage the message type is not part of the protocol.
	ErrUnsupportedMessage = errors.New("unsupported message type")
	// ErrMissingProposalPayload the caller did not provide any format payload.
	ErrMissingProposalPayload = errors.New("missing credential format payload")
	// ErrMissingIssuerService the indy issuer signing capability is not configured.
	ErrMissingIssuerService = errors.New("missing indy issuer service")
	// ErrMissingCredentialDefinition no credential definition id could be resolved.
	ErrMissingCredentialDefinition = errors.New("missing credential definition id")
	// ErrMissingOffer no offer attachment is resolvable from the message history.
	ErrMissingOffer = errors.New("missing credential offer")
	// ErrConnectionMismatch the inbound message arrived on another connection than the one of its exchange.
	ErrConnectionMismatch = errors.New("message connection does not match the exchange")
	// ErrNoReplyRoute the exchange has neither a connection nor a reply service.
	ErrNoReplyRoute = errors.New("no connection or service to reply to")
)

// ProblemReportError is a reportable failure. The exchange moves to the abandoned state and the
// other party receives a problem report with Code.
type ProblemReportError struct {
	Code    ProblemCode
	Message string
	Err     error
}

// NewProblemReportError returns a problem report error with a formatted message.
func NewProblemReportError(code ProblemCode, err error, format string, args ...interface{}) *ProblemReportError {
	return &ProblemReportError{Code: code, Message: fmt.Sprintf(format, args...), Err: err}
}

func (e *ProblemReportError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}

	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *ProblemReportError) Unwrap() error {
	return e.Err
}

// ValidationError is returned for malformed caller input. No state is changed.
type ValidationError struct {
	Err error
}

func newValidationError(err error) *ValidationError {
	return &ValidationError{Err: err}
}

func (e *ValidationError) Error() string {
	return "validation: " + e.Err.Error()
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// IsValidationError reports whether err is a ValidationError.
func IsValidationError(err error) bool {
	var v *ValidationError

	return errors.As(err, &v)
}
