/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package issuecredential

import (
	protocolcmd "github.com/hyperledger/aries-credentials-go/pkg/controller/command/issuecredential"
	protocol "github.com/hyperledger/aries-credentials-go/pkg/didcomm/protocol/issuecredential"
)

// issueCredentialProposeCredentialRequest model
//
// This is used for operation to send a proposal
//
// swagger:parameters issueCredentialProposeCredential
type issueCredentialProposeCredentialRequest struct { // nolint: unused,deadcode
	// in: body
	// required: true
	Body protocolcmd.ProposeCredentialArgs
}

// issueCredentialOfferCredentialRequest model
//
// This is used for operation to send or create an offer
//
// swagger:parameters issueCredentialOfferCredential issueCredentialCreateOffer
type issueCredentialOfferCredentialRequest struct { // nolint: unused,deadcode
	// in: body
	// required: true
	Body protocolcmd.OfferCredentialArgs
}

// issueCredentialResponseRequest model
//
// This is used for the operations answering the last message of an exchange
//
// swagger:parameters issueCredentialAcceptProposal issueCredentialNegotiateProposal issueCredentialAcceptOffer issueCredentialNegotiateOffer issueCredentialAcceptRequest
type issueCredentialResponseRequest struct { // nolint: unused,deadcode
	// Credential exchange record ID
	//
	// in: path
	// required: true
	ID string `json:"id"`

	// in: body
	Body struct {
		// Options overrides the formats, the comment or the auto accept policy of the response.
		Options *protocol.ResponseOptions `json:"options,omitempty"`
	}
}

// issueCredentialDeclineOfferRequest model
//
// This is used for operation to decline an offer
//
// swagger:parameters issueCredentialDeclineOffer
type issueCredentialDeclineOfferRequest struct { // nolint: unused,deadcode
	// Credential exchange record ID
	//
	// in: path
	// required: true
	ID string `json:"id"`

	// in: body
	Body struct {
		Reason string `json:"reason,omitempty"`
	}
}

// issueCredentialProblemReportRequest model
//
// This is used for operation to abandon an exchange
//
// swagger:parameters issueCredentialProblemReport
type issueCredentialProblemReportRequest struct { // nolint: unused,deadcode
	// Credential exchange record ID
	//
	// in: path
	// required: true
	ID string `json:"id"`

	// in: body
	Body struct {
		Description string `json:"description,omitempty"`
	}
}

// issueCredentialRecordIDRequest model
//
// This is used for the operations on a single record
//
// swagger:parameters issueCredentialAcceptCredential issueCredentialRecord issueCredentialDeleteRecord
type issueCredentialRecordIDRequest struct { // nolint: unused,deadcode
	// Credential exchange record ID
	//
	// in: path
	// required: true
	ID string `json:"id"`
}

// issueCredentialRecordsRequest model
//
// This is used for operation to list records
//
// swagger:parameters issueCredentialRecords
type issueCredentialRecordsRequest struct { // nolint: unused,deadcode
	// in: query
	ThreadID string `json:"threadId"`
	// in: query
	ConnectionID string `json:"connectionId"`
	// in: query
	State string `json:"state"`
	// in: query
	Role string `json:"role"`
	// in: query
	ProtocolVersion string `json:"protocolVersion"`
}

// issueCredentialRecordResponse model
//
// Represents the record of an exchange after an operation
//
// swagger:response issueCredentialRecordResponse
type issueCredentialRecordResponse struct { // nolint: unused,deadcode
	// in: body
	Body protocolcmd.RecordResponse
}

// issueCredentialCreateOfferResponse model
//
// Represents an offer that was not sent
//
// swagger:response issueCredentialCreateOfferResponse
type issueCredentialCreateOfferResponse struct { // nolint: unused,deadcode
	// in: body
	Body protocolcmd.CreateOfferResponse
}

// issueCredentialRecordsResponse model
//
// Represents a list of exchange records
//
// swagger:response issueCredentialRecordsResponse
type issueCredentialRecordsResponse struct { // nolint: unused,deadcode
	// in: body
	Body protocolcmd.RecordsResponse
}
