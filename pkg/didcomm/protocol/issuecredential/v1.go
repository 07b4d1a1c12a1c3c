/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package issuecredential

import (
	"fmt"

	"github.com/hyperledger/aries-credentials-go/pkg/didcomm/common/service"
	"github.com/hyperledger/aries-credentials-go/pkg/didcomm/protocol/decorator"
)

// Message types of issue-credential 1.0.
const (
	SpecV1 = "https://didcomm.org/issue-credential/1.0/"

	ProposeCredentialMsgTypeV1 = SpecV1 + ProposeCredentialMsgName
	OfferCredentialMsgTypeV1   = SpecV1 + OfferCredentialMsgName
	RequestCredentialMsgTypeV1 = SpecV1 + RequestCredentialMsgName
	IssueCredentialMsgTypeV1   = SpecV1 + IssueCredentialMsgName
	AckMsgTypeV1               = SpecV1 + AckMsgName
	ProblemReportMsgTypeV1     = SpecV1 + ProblemReportMsgName
	CredentialPreviewMsgTypeV1 = SpecV1 + CredentialPreviewMsgName
)

// Attachment ids of the 1.0 messages.
const (
	v1FilterAttachID     = "libindy-cred-filter-0"
	v1OfferAttachID      = "libindy-cred-offer-0"
	v1RequestAttachID    = "libindy-cred-request-0"
	v1CredentialAttachID = "libindy-cred-0"
)

// v1Filter is the indy filter a 1.0 proposal carries inline.
type v1Filter struct {
	SchemaIssuerDID string `json:"schema_issuer_did,omitempty"`
	SchemaID        string `json:"schema_id,omitempty"`
	SchemaName      string `json:"schema_name,omitempty"`
	SchemaVersion   string `json:"schema_version,omitempty"`
	CredDefID       string `json:"cred_def_id,omitempty"`
	IssuerDID       string `json:"issuer_did,omitempty"`
}

// v1Codec speaks issue-credential 1.0. The version has no formats array: the single indy
// attachment of each message is mapped to and from the format identifiers of 2.0.
type v1Codec struct{}

func (v1Codec) version() ProtocolVersion {
	return V1
}

func (v1Codec) supports(t FormatType) bool {
	return t == FormatIndy
}

func (v1Codec) messageType(name string) string {
	return SpecV1 + name
}

func (c v1Codec) encode(out *outboundMessage) (service.DIDCommMsgMap, error) {
	att, err := c.single(out)
	if err != nil {
		return nil, err
	}

	preview := previewOf(out.preview, CredentialPreviewMsgTypeV1)

	var msg interface{}

	switch out.phase {
	case PhaseProposal:
		m := &ProposeCredentialV1{
			Type: ProposeCredentialMsgTypeV1, ID: out.id, Thread: out.thread, Comment: out.comment,
			CredentialProposal: preview, Attachments: out.linked,
		}

		if att != nil {
			filter := v1Filter{}
			if err = att.Decode(&filter); err != nil {
				return nil, fmt.Errorf("encode %s: %w", ProposeCredentialMsgTypeV1, err)
			}

			m.SchemaIssuerDID, m.SchemaID, m.SchemaName = filter.SchemaIssuerDID, filter.SchemaID, filter.SchemaName
			m.SchemaVersion, m.CredDefID, m.IssuerDID = filter.SchemaVersion, filter.CredDefID, filter.IssuerDID
		}

		msg = m
	case PhaseOffer:
		msg = &OfferCredentialV1{
			Type: OfferCredentialMsgTypeV1, ID: out.id, Thread: out.thread, Comment: out.comment,
			CredentialPreview: preview, OffersAttach: withID(att, v1OfferAttachID), Attachments: out.linked,
			Service: out.service,
		}
	case PhaseRequest:
		msg = &RequestCredentialV1{
			Type: RequestCredentialMsgTypeV1, ID: out.id, Thread: out.thread, Comment: out.comment,
			RequestsAttach: withID(att, v1RequestAttachID), Service: out.service,
		}
	case PhaseCredential:
		msg = &IssueCredentialV1{
			Type: IssueCredentialMsgTypeV1, ID: out.id, Thread: out.thread, Comment: out.comment,
			CredentialsAttach: withID(att, v1CredentialAttachID), PleaseAck: pleaseAck(out.pleaseAck),
			Service: out.service,
		}
	default:
		return nil, fmt.Errorf("encode: unknown phase %q", out.phase)
	}

	return service.NewDIDCommMsgMap(msg)
}

// single returns the only attachment a 1.0 message can carry.
func (c v1Codec) single(out *outboundMessage) (*decorator.Attachment, error) {
	switch len(out.attachments) {
	case 0:
		return nil, nil
	case 1:
		return out.attachments[0].Attachment, nil
	default:
		return nil, newValidationError(fmt.Errorf("%w: %s carries a single credential format",
			ErrUnsupportedFormat, SpecV1))
	}
}

func (c v1Codec) decode(phase Phase, msg service.DIDCommMsg) (*inboundMessage, error) {
	in, err := newInboundMessage(phase, msg)
	if err != nil {
		return nil, err
	}

	switch phase {
	case PhaseProposal:
		m := ProposeCredentialV1{}
		if err = msg.Decode(&m); err != nil {
			return nil, fmt.Errorf("decode %s: %w", ProposeCredentialMsgTypeV1, err)
		}

		filter, err := decorator.NewJSONAttachment(v1FilterAttachID, &v1Filter{
			SchemaIssuerDID: m.SchemaIssuerDID, SchemaID: m.SchemaID, SchemaName: m.SchemaName,
			SchemaVersion: m.SchemaVersion, CredDefID: m.CredDefID, IssuerDID: m.IssuerDID,
		})
		if err != nil {
			return nil, err
		}

		in.comment, in.preview, in.linked = m.Comment, m.CredentialProposal, m.Attachments
		in.attachments = []decorator.Attachment{*filter}
		in.formats = []Format{{AttachID: v1FilterAttachID, Format: IndyProposeFormat}}
	case PhaseOffer:
		m := OfferCredentialV1{}
		if err = msg.Decode(&m); err != nil {
			return nil, fmt.Errorf("decode %s: %w", OfferCredentialMsgTypeV1, err)
		}

		in.comment, in.preview, in.linked, in.service = m.Comment, m.CredentialPreview, m.Attachments, m.Service
		in.attachments, in.formats = m.OffersAttach, indyFormats(m.OffersAttach, IndyOfferFormat)
	case PhaseRequest:
		m := RequestCredentialV1{}
		if err = msg.Decode(&m); err != nil {
			return nil, fmt.Errorf("decode %s: %w", RequestCredentialMsgTypeV1, err)
		}

		in.comment, in.service = m.Comment, m.Service
		in.attachments, in.formats = m.RequestsAttach, indyFormats(m.RequestsAttach, IndyRequestFormat)
	case PhaseCredential:
		m := IssueCredentialV1{}
		if err = msg.Decode(&m); err != nil {
			return nil, fmt.Errorf("decode %s: %w", IssueCredentialMsgTypeV1, err)
		}

		in.comment, in.service = m.Comment, m.Service
		in.attachments, in.formats = m.CredentialsAttach, indyFormats(m.CredentialsAttach, IndyIssueFormat)
	default:
		return nil, fmt.Errorf("decode: unknown phase %q", phase)
	}

	return in, nil
}

func withID(att *decorator.Attachment, id string) []decorator.Attachment {
	if att == nil {
		return nil
	}

	c := *att
	c.ID = id

	return []decorator.Attachment{c}
}

// indyFormats declares the first attachment of a 1.0 message as the indy payload of the phase.
func indyFormats(atts []decorator.Attachment, format string) []Format {
	if len(atts) == 0 {
		return nil
	}

	return []Format{{AttachID: atts[0].ID, Format: format}}
}
