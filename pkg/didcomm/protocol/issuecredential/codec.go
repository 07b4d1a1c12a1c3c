/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package issuecredential

import (
	"fmt"
	"strings"

	"github.com/hyperledger/aries-credentials-go/pkg/didcomm/common/service"
	"github.com/hyperledger/aries-credentials-go/pkg/didcomm/protocol/decorator"
)

// Message names shared by both protocol versions.
const (
	ProposeCredentialMsgName = "propose-credential"
	OfferCredentialMsgName   = "offer-credential"
	RequestCredentialMsgName = "request-credential"
	IssueCredentialMsgName   = "issue-credential"
	AckMsgName               = "ack"
	ProblemReportMsgName     = "problem-report"
	CredentialPreviewMsgName = "credential-preview"
)

// VersionOf returns the protocol version of a message type, if it belongs to issue-credential.
func VersionOf(msgType string) (ProtocolVersion, bool) {
	switch {
	case strings.HasPrefix(msgType, SpecV1):
		return V1, true
	case strings.HasPrefix(msgType, SpecV2):
		return V2, true
	default:
		return "", false
	}
}

// messageName returns the name part of a message type.
func messageName(msgType string) string {
	return msgType[strings.LastIndex(msgType, "/")+1:]
}

// outboundMessage is the version independent content of a message being built.
type outboundMessage struct {
	phase       Phase
	id          string
	thread      *decorator.Thread
	comment     string
	preview     *CredentialPreview
	attachments []*FormatAttachment
	linked      []decorator.Attachment
	service     *decorator.Service
	pleaseAck   bool
}

func (o *outboundMessage) add(fa *FormatAttachment) {
	o.attachments = append(o.attachments, fa)

	if fa.Preview != nil && o.preview == nil {
		o.preview = fa.Preview
	}

	o.linked = append(o.linked, fa.LinkedAttachments...)
}

// split returns the formats array and its attachments.
func (o *outboundMessage) split() ([]Format, []decorator.Attachment) {
	formats := make([]Format, 0, len(o.attachments))
	atts := make([]decorator.Attachment, 0, len(o.attachments))

	for _, fa := range o.attachments {
		formats = append(formats, fa.Format)
		atts = append(atts, *fa.Attachment)
	}

	return formats, atts
}

// inboundMessage is the version independent content of a received or stored message.
type inboundMessage struct {
	phase          Phase
	raw            service.DIDCommMsgMap
	id             string
	threadID       string
	parentThreadID string
	comment        string
	preview        *CredentialPreview
	formats        []Format
	attachments    []decorator.Attachment
	linked         []decorator.Attachment
	service        *decorator.Service
}

func newInboundMessage(phase Phase, msg service.DIDCommMsg) (*inboundMessage, error) {
	thid, err := msg.ThreadID()
	if err != nil {
		return nil, fmt.Errorf("threadID: %w", err)
	}

	return &inboundMessage{
		phase:          phase,
		raw:            msg.Clone(),
		id:             msg.ID(),
		threadID:       thid,
		parentThreadID: msg.ParentThreadID(),
	}, nil
}

// attachment returns the attachment the formats array declares for svc, or nil.
func (m *inboundMessage) attachment(svc FormatService) *decorator.Attachment {
	if m == nil {
		return nil
	}

	return FindAttachment(m.formats, m.attachments, svc)
}

// validate checks that every declared format has exactly one attachment.
func (m *inboundMessage) validate() error {
	seen := map[string]bool{}

	for _, f := range m.formats {
		if seen[f.AttachID] {
			return NewProblemReportError(ProblemIssuanceAbandoned, nil, "attachment id %q declared twice", f.AttachID)
		}

		seen[f.AttachID] = true
	}

	ids := map[string]bool{}
	for i := range m.attachments {
		ids[m.attachments[i].ID] = true
	}

	for _, f := range m.formats {
		if !ids[f.AttachID] {
			return NewProblemReportError(ProblemIssuanceAbandoned, ErrMissingAttachment,
				"format %s declares attachment %q", f.Format, f.AttachID)
		}
	}

	return nil
}

// messageCodec maps protocol messages of one version to their version independent content.
type messageCodec interface {
	version() ProtocolVersion
	// supports reports whether a credential format can be carried by this version.
	supports(t FormatType) bool
	messageType(name string) string
	encode(out *outboundMessage) (service.DIDCommMsgMap, error)
	decode(phase Phase, msg service.DIDCommMsg) (*inboundMessage, error)
}

func previewOf(p *CredentialPreview, msgType string) *CredentialPreview {
	if p == nil {
		return nil
	}

	return &CredentialPreview{Type: msgType, Attributes: p.Attributes}
}

func pleaseAck(on bool) *decorator.PleaseAck {
	if !on {
		return nil
	}

	return &decorator.PleaseAck{On: []string{"RECEIPT"}}
}
