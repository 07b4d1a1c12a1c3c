/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package issuecredential

import (
	"github.com/hyperledger/aries-credentials-go/pkg/didcomm/common/service"
	protocol "github.com/hyperledger/aries-credentials-go/pkg/didcomm/protocol/issuecredential"
)

// ProposeCredentialArgs model
//
// This is used for sending a proposal to the Issuer.
type ProposeCredentialArgs struct {
	// ProtocolVersion is v1 or v2. Defaults to v2.
	ProtocolVersion protocol.ProtocolVersion `json:"protocolVersion,omitempty"`
	// ProposeCredential contains the connection and the proposed credential formats.
	ProposeCredential *protocol.CreateProposalOptions `json:"proposeCredential"`
}

// OfferCredentialArgs model
//
// This is used for sending an offer to the Holder, or for creating one without sending it.
type OfferCredentialArgs struct {
	// ProtocolVersion is v1 or v2. Defaults to v2.
	ProtocolVersion protocol.ProtocolVersion `json:"protocolVersion,omitempty"`
	// OfferCredential contains the connection or the issuer service, and the offered credential formats.
	OfferCredential *protocol.CreateOfferOptions `json:"offerCredential"`
}

// ResponseArgs model
//
// This is used for answering the message received in an exchange.
type ResponseArgs struct {
	// RecordID is the credential exchange record id.
	RecordID string `json:"recordId"`
	// Options overrides the formats, the comment or the auto accept policy of the response.
	Options *protocol.ResponseOptions `json:"options,omitempty"`
}

// DeclineOfferArgs model
//
// This is used when the Holder does not want the offered credential.
type DeclineOfferArgs struct {
	// RecordID is the credential exchange record id.
	RecordID string `json:"recordId"`
	// Reason is sent to the Issuer.
	Reason string `json:"reason,omitempty"`
}

// ProblemReportArgs model
//
// This is used for abandoning an exchange.
type ProblemReportArgs struct {
	// RecordID is the credential exchange record id.
	RecordID string `json:"recordId"`
	// Description is sent to the other party.
	Description string `json:"description,omitempty"`
}

// RecordIDArgs model
//
// This is used for the calls that only take a record id.
type RecordIDArgs struct {
	// RecordID is the credential exchange record id.
	RecordID string `json:"recordId"`
}

// RecordsArgs model
//
// This is used for listing records. The query keys are threadId, connectionId, state, role and protocolVersion.
type RecordsArgs struct {
	Query map[string]string `json:"query,omitempty"`
}

// RecordResponse model
//
// Represents the record of an exchange after a command.
type RecordResponse struct {
	Record *protocol.Record `json:"record"`
}

// CreateOfferResponse model
//
// Represents an offer that was not sent, with its record.
type CreateOfferResponse struct {
	Record  *protocol.Record      `json:"record"`
	Message service.DIDCommMsgMap `json:"message"`
}

// RecordsResponse model
//
// Represents a list of exchange records.
type RecordsResponse struct {
	Records []*protocol.Record `json:"records"`
}

// DeleteRecordResponse model
//
// Represents a DeleteRecord response message.
type DeleteRecordResponse struct{}
