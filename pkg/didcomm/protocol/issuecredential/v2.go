/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package issuecredential

import (
	"fmt"

	"github.com/hyperledger/aries-credentials-go/pkg/didcomm/common/service"
)

// Message types of issue-credential 2.0.
const (
	SpecV2 = "https://didcomm.org/issue-credential/2.0/"

	ProposeCredentialMsgTypeV2 = SpecV2 + ProposeCredentialMsgName
	OfferCredentialMsgTypeV2   = SpecV2 + OfferCredentialMsgName
	RequestCredentialMsgTypeV2 = SpecV2 + RequestCredentialMsgName
	IssueCredentialMsgTypeV2   = SpecV2 + IssueCredentialMsgName
	AckMsgTypeV2               = SpecV2 + AckMsgName
	ProblemReportMsgTypeV2     = SpecV2 + ProblemReportMsgName
	CredentialPreviewMsgTypeV2 = SpecV2 + CredentialPreviewMsgName
)

type v2Codec struct{}

func (v2Codec) version() ProtocolVersion {
	return V2
}

func (v2Codec) supports(FormatType) bool {
	return true
}

func (v2Codec) messageType(name string) string {
	return SpecV2 + name
}

func (c v2Codec) encode(out *outboundMessage) (service.DIDCommMsgMap, error) {
	formats, atts := out.split()
	preview := previewOf(out.preview, CredentialPreviewMsgTypeV2)

	var msg interface{}

	switch out.phase {
	case PhaseProposal:
		msg = &ProposeCredentialV2{
			Type: ProposeCredentialMsgTypeV2, ID: out.id, Thread: out.thread, Comment: out.comment,
			CredentialPreview: preview, Formats: formats, FiltersAttach: atts, Attachments: out.linked,
		}
	case PhaseOffer:
		msg = &OfferCredentialV2{
			Type: OfferCredentialMsgTypeV2, ID: out.id, Thread: out.thread, Comment: out.comment,
			CredentialPreview: preview, Formats: formats, OffersAttach: atts, Attachments: out.linked,
			Service: out.service,
		}
	case PhaseRequest:
		msg = &RequestCredentialV2{
			Type: RequestCredentialMsgTypeV2, ID: out.id, Thread: out.thread, Comment: out.comment,
			Formats: formats, RequestsAttach: atts, Service: out.service,
		}
	case PhaseCredential:
		msg = &IssueCredentialV2{
			Type: IssueCredentialMsgTypeV2, ID: out.id, Thread: out.thread, Comment: out.comment,
			Formats: formats, CredentialsAttach: atts, PleaseAck: pleaseAck(out.pleaseAck), Service: out.service,
		}
	default:
		return nil, fmt.Errorf("encode: unknown phase %q", out.phase)
	}

	return service.NewDIDCommMsgMap(msg)
}

func (c v2Codec) decode(phase Phase, msg service.DIDCommMsg) (*inboundMessage, error) {
	in, err := newInboundMessage(phase, msg)
	if err != nil {
		return nil, err
	}

	switch phase {
	case PhaseProposal:
		m := ProposeCredentialV2{}
		if err = msg.Decode(&m); err != nil {
			return nil, fmt.Errorf("decode %s: %w", ProposeCredentialMsgTypeV2, err)
		}

		in.comment, in.preview, in.formats = m.Comment, m.CredentialPreview, m.Formats
		in.attachments, in.linked = m.FiltersAttach, m.Attachments
	case PhaseOffer:
		m := OfferCredentialV2{}
		if err = msg.Decode(&m); err != nil {
			return nil, fmt.Errorf("decode %s: %w", OfferCredentialMsgTypeV2, err)
		}

		in.comment, in.preview, in.formats = m.Comment, m.CredentialPreview, m.Formats
		in.attachments, in.linked, in.service = m.OffersAttach, m.Attachments, m.Service
	case PhaseRequest:
		m := RequestCredentialV2{}
		if err = msg.Decode(&m); err != nil {
			return nil, fmt.Errorf("decode %s: %w", RequestCredentialMsgTypeV2, err)
		}

		in.comment, in.formats, in.attachments, in.service = m.Comment, m.Formats, m.RequestsAttach, m.Service
	case PhaseCredential:
		m := IssueCredentialV2{}
		if err = msg.Decode(&m); err != nil {
			return nil, fmt.Errorf("decode %s: %w", IssueCredentialMsgTypeV2, err)
		}

		in.comment, in.formats, in.attachments, in.service = m.Comment, m.Formats, m.CredentialsAttach, m.Service
	default:
		return nil, fmt.Errorf("decode: unknown phase %q", phase)
	}

	return in, nil
}
