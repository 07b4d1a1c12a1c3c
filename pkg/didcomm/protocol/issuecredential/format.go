/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package issuecredential

import (
	"context"

	"github.com/hyperledger/aries-credentials-go/pkg/didcomm/protocol/decorator"
)

// Format identifiers used in the formats array of 2.0 messages.
const (
	IndyProposeFormat = "hlindy/cred-filter@v2.0"
	IndyOfferFormat   = "hlindy/cred-abstract@v2.0"
	IndyRequestFormat = "hlindy/cred-req@v2.0"
	IndyIssueFormat   = "hlindy/cred@v2.0"

	LDProofVCDetailFormat = "aries/ld-proof-vc-detail@v1.0"
	LDProofVCFormat       = "aries/ld-proof-vc@v1.0"
)

// Format joins an attachment to its format identifier.
type Format struct {
	AttachID string `json:"attach_id"`
	Format   string `json:"format"`
}

// CredentialFormats carries the format-specific payloads of an API call. At least one is set
// for proposals and offers.
type CredentialFormats struct {
	Indy   *IndyCredentialFormat   `json:"indy,omitempty"`
	JSONLD *JSONLDCredentialFormat `json:"jsonld,omitempty"`
}

// Empty reports whether no format payload is set.
func (f *CredentialFormats) Empty() bool {
	return f == nil || (f.Indy == nil && f.JSONLD == nil)
}

// IndyCredentialFormat is the Indy payload of an API call.
type IndyCredentialFormat struct {
	CredentialDefinitionID string                `json:"credentialDefinitionId,omitempty"`
	SchemaID               string                `json:"schemaId,omitempty"`
	SchemaIssuerDID        string                `json:"schemaIssuerDid,omitempty"`
	SchemaName             string                `json:"schemaName,omitempty"`
	SchemaVersion          string                `json:"schemaVersion,omitempty"`
	IssuerDID              string                `json:"issuerDid,omitempty"`
	Attributes             []CredentialAttribute `json:"attributes,omitempty"`
	LinkedAttachments      []LinkedAttachment    `json:"linkedAttachments,omitempty"`
	// HolderDID is used when the holder builds the credential request.
	HolderDID string `json:"holderDid,omitempty"`
}

// LinkedAttachment is a binary attachment referenced by a preview attribute.
type LinkedAttachment struct {
	AttributeName string               `json:"attributeName"`
	Attachment    decorator.Attachment `json:"attachment"`
}

// JSONLDCredentialFormat is the ld-proof-vc-detail payload of an API call.
type JSONLDCredentialFormat struct {
	Credential map[string]interface{} `json:"credential"`
	Options    *LDProofOptions        `json:"options"`
}

// LDProofOptions are the proof options of an ld-proof-vc-detail.
type LDProofOptions struct {
	ProofPurpose     string            `json:"proofPurpose,omitempty"`
	Created          string            `json:"created,omitempty"`
	Domain           string            `json:"domain,omitempty"`
	Challenge        string            `json:"challenge,omitempty"`
	CredentialStatus *CredentialStatus `json:"credentialStatus,omitempty"`
	ProofType        string            `json:"proofType"`
}

// CredentialStatus requested status type of the issued credential.
type CredentialStatus struct {
	Type string `json:"type"`
}

// FormatAttachment is the output of a format service for one message.
type FormatAttachment struct {
	Format     Format
	Attachment *decorator.Attachment
	// Preview is set by formats that describe attributes (Indy).
	Preview *CredentialPreview
	// LinkedAttachments are appended to the message ~attach list.
	LinkedAttachments []decorator.Attachment
}

// AutoRespondInput is what a format service inspects to approve the content of a phase.
// Attachments are the ones of the evaluated format, nil when the message did not carry one.
type AutoRespondInput struct {
	Record *Record
	// Preview of the message being evaluated.
	Preview    *CredentialPreview
	Proposal   *decorator.Attachment
	Offer      *decorator.Attachment
	Request    *decorator.Attachment
	Credential *decorator.Attachment
}

// FormatService builds and parses the format-specific attachments of each phase.
// Implementations keep no exchange state; everything lives in the Record.
type FormatService interface {
	// Type of the credential format.
	Type() FormatType
	// Supports reports whether a formats[].format identifier belongs to this service.
	// Identifiers are matched by substring so versioned identifiers of every phase are recognized.
	Supports(format string) bool
	// HasPayload reports whether the API call carries a payload for this format.
	HasPayload(formats *CredentialFormats) bool

	CreateProposal(ctx context.Context, rec *Record, formats *CredentialFormats) (*FormatAttachment, error)
	ProcessProposal(ctx context.Context, rec *Record, proposal *decorator.Attachment) error
	CreateOffer(ctx context.Context, rec *Record, formats *CredentialFormats,
		proposal *decorator.Attachment) (*FormatAttachment, error)
	ProcessOffer(ctx context.Context, rec *Record, offer *decorator.Attachment) error
	CreateRequest(ctx context.Context, rec *Record, formats *CredentialFormats,
		offer *decorator.Attachment) (*FormatAttachment, error)
	ProcessRequest(ctx context.Context, rec *Record, request *decorator.Attachment) error
	CreateCredential(ctx context.Context, rec *Record, formats *CredentialFormats,
		offer, request *decorator.Attachment) (*FormatAttachment, error)
	// ProcessCredential stores the issued credential and returns the id of the stored credential.
	ProcessCredential(ctx context.Context, rec *Record, credential *decorator.Attachment) (string, error)

	ShouldAutoRespondToProposal(in *AutoRespondInput) bool
	ShouldAutoRespondToOffer(in *AutoRespondInput) bool
	ShouldAutoRespondToRequest(in *AutoRespondInput) bool
	ShouldAutoRespondToCredential(in *AutoRespondInput) bool
}

// FindAttachment returns the attachment of formats/attachments that belongs to svc, or nil.
func FindAttachment(formats []Format, attachments []decorator.Attachment, svc FormatService) *decorator.Attachment {
	for _, f := range formats {
		if !svc.Supports(f.Format) {
			continue
		}

		for i := range attachments {
			if attachments[i].ID == f.AttachID {
				return &attachments[i]
			}
		}
	}

	return nil
}
