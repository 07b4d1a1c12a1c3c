/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package issuecredential

import "github.com/hyperledger/aries-credentials-go/pkg/didcomm/protocol/decorator"

// ProposeCredentialV2 is an optional message sent by the potential Holder to the Issuer
// to initiate the protocol or in response to a offer-credential message when the Holder
// wants some adjustments made to the credential data offered by Issuer.
type ProposeCredentialV2 struct {
	Type   string            `json:"@type,omitempty"`
	ID     string            `json:"@id,omitempty"`
	Thread *decorator.Thread `json:"~thread,omitempty"`
	// Comment is an optional field that provides human readable information about this Credential Proposal.
	Comment string `json:"comment,omitempty"`
	// CredentialPreview is an optional object that represents the credential data that the Holder wants to receive.
	CredentialPreview *CredentialPreview `json:"credential_preview,omitempty"`
	// Formats contains an entry for each filters~attach array entry, providing the value of the attachment @id
	// and the verifiable credential format and version of the attachment.
	Formats []Format `json:"formats,omitempty"`
	// FiltersAttach is an array of attachments that further define the credential being proposed.
	FiltersAttach []decorator.Attachment `json:"filters~attach,omitempty"`
	// Attachments are linked attachments referenced by preview attributes.
	Attachments []decorator.Attachment `json:"~attach,omitempty"`
}

// OfferCredentialV2 is a message sent by the Issuer to the potential Holder,
// describing the credential they intend to offer.
type OfferCredentialV2 struct {
	Type   string            `json:"@type,omitempty"`
	ID     string            `json:"@id,omitempty"`
	Thread *decorator.Thread `json:"~thread,omitempty"`
	// Comment is an optional field that provides human readable information about this Credential Offer,
	// so the offer can be evaluated by human judgment.
	Comment string `json:"comment,omitempty"`
	// CredentialPreview represents the credential data that Issuer is willing to issue.
	CredentialPreview *CredentialPreview `json:"credential_preview,omitempty"`
	// Formats contains an entry for each offers~attach array entry.
	Formats []Format `json:"formats,omitempty"`
	// OffersAttach is a slice of attachments that further define the credential being offered.
	OffersAttach []decorator.Attachment `json:"offers~attach,omitempty"`
	Attachments  []decorator.Attachment `json:"~attach,omitempty"`
	// Service is set on connection-less offers and tells the holder where to send the request.
	Service *decorator.Service `json:"~service,omitempty"`
}

// RequestCredentialV2 is a message sent by the potential Holder to the Issuer,
// to request the issuance of a credential.
type RequestCredentialV2 struct {
	Type    string            `json:"@type,omitempty"`
	ID      string            `json:"@id,omitempty"`
	Thread  *decorator.Thread `json:"~thread,omitempty"`
	Comment string            `json:"comment,omitempty"`
	// Formats contains an entry for each requests~attach array entry.
	Formats []Format `json:"formats,omitempty"`
	// RequestsAttach is a slice of attachments defining the requested formats for the credential.
	RequestsAttach []decorator.Attachment `json:"requests~attach,omitempty"`
	Service        *decorator.Service     `json:"~service,omitempty"`
}

// IssueCredentialV2 contains as attached payload the credentials being issued and is
// sent in response to a valid Request Credential message.
type IssueCredentialV2 struct {
	Type    string            `json:"@type,omitempty"`
	ID      string            `json:"@id,omitempty"`
	Thread  *decorator.Thread `json:"~thread,omitempty"`
	Comment string            `json:"comment,omitempty"`
	// Formats contains an entry for each credentials~attach array entry.
	Formats []Format `json:"formats,omitempty"`
	// CredentialsAttach is a slice of attachments containing the issued credentials.
	CredentialsAttach []decorator.Attachment `json:"credentials~attach,omitempty"`
	PleaseAck         *decorator.PleaseAck   `json:"~please_ack,omitempty"`
	Service           *decorator.Service     `json:"~service,omitempty"`
}

// ProposeCredentialV1 is the 1.0 proposal. The Indy filter travels inline instead of as an attachment.
type ProposeCredentialV1 struct {
	Type               string                 `json:"@type,omitempty"`
	ID                 string                 `json:"@id,omitempty"`
	Thread             *decorator.Thread      `json:"~thread,omitempty"`
	Comment            string                 `json:"comment,omitempty"`
	CredentialProposal *CredentialPreview     `json:"credential_proposal,omitempty"`
	SchemaIssuerDID    string                 `json:"schema_issuer_did,omitempty"`
	SchemaID           string                 `json:"schema_id,omitempty"`
	SchemaName         string                 `json:"schema_name,omitempty"`
	SchemaVersion      string                 `json:"schema_version,omitempty"`
	CredDefID          string                 `json:"cred_def_id,omitempty"`
	IssuerDID          string                 `json:"issuer_did,omitempty"`
	Attachments        []decorator.Attachment `json:"~attach,omitempty"`
}

// OfferCredentialV1 is the 1.0 offer.
type OfferCredentialV1 struct {
	Type              string                 `json:"@type,omitempty"`
	ID                string                 `json:"@id,omitempty"`
	Thread            *decorator.Thread      `json:"~thread,omitempty"`
	Comment           string                 `json:"comment,omitempty"`
	CredentialPreview *CredentialPreview     `json:"credential_preview,omitempty"`
	OffersAttach      []decorator.Attachment `json:"offers~attach,omitempty"`
	Attachments       []decorator.Attachment `json:"~attach,omitempty"`
	Service           *decorator.Service     `json:"~service,omitempty"`
}

// RequestCredentialV1 is the 1.0 request.
type RequestCredentialV1 struct {
	Type           string                 `json:"@type,omitempty"`
	ID             string                 `json:"@id,omitempty"`
	Thread         *decorator.Thread      `json:"~thread,omitempty"`
	Comment        string                 `json:"comment,omitempty"`
	RequestsAttach []decorator.Attachment `json:"requests~attach,omitempty"`
	Service        *decorator.Service     `json:"~service,omitempty"`
}

// IssueCredentialV1 is the 1.0 credential message.
type IssueCredentialV1 struct {
	Type              string                 `json:"@type,omitempty"`
	ID                string                 `json:"@id,omitempty"`
	Thread            *decorator.Thread      `json:"~thread,omitempty"`
	Comment           string                 `json:"comment,omitempty"`
	CredentialsAttach []decorator.Attachment `json:"credentials~attach,omitempty"`
	PleaseAck         *decorator.PleaseAck   `json:"~please_ack,omitempty"`
	Service           *decorator.Service     `json:"~service,omitempty"`
}

// Ack acknowledges the issued credential. Shared by both versions.
type Ack struct {
	Type   string            `json:"@type,omitempty"`
	ID     string            `json:"@id,omitempty"`
	Thread *decorator.Thread `json:"~thread,omitempty"`
	Status string            `json:"status,omitempty"`
}

// ProblemReport ends the exchange. Shared by both versions.
type ProblemReport struct {
	Type        string             `json:"@type,omitempty"`
	ID          string             `json:"@id,omitempty"`
	Thread      *decorator.Thread  `json:"~thread,omitempty"`
	Description ProblemDescription `json:"description"`
}

// ProblemDescription is the description block of a problem report.
type ProblemDescription struct {
	Code string `json:"code"`
	En   string `json:"en,omitempty"`
}
