/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package issuecredential

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"golang.org/x/exp/maps"

	"github.com/hyperledger/aries-credentials-go/pkg/didcomm/common/service"
	"github.com/hyperledger/aries-credentials-go/pkg/didcomm/protocol/decorator"
)

// ProtocolVersion identifies the message-schema generation of the protocol.
type ProtocolVersion string

const (
	// V1 issue-credential 1.0, single format (Indy).
	V1 ProtocolVersion = "v1"
	// V2 issue-credential 2.0, multi-format.
	V2 ProtocolVersion = "v2"
)

// Role of the local agent in an exchange.
type Role string

const (
	// RoleHolder receives the credential.
	RoleHolder Role = "holder"
	// RoleIssuer issues the credential.
	RoleIssuer Role = "issuer"
)

// FormatType identifies a credential format.
type FormatType string

const (
	// FormatIndy Indy anonymous credentials.
	FormatIndy FormatType = "indy"
	// FormatJSONLD W3C JSON-LD linked-data credentials.
	FormatJSONLD FormatType = "jsonld"
)

// Phase of the exchange a protocol message belongs to.
type Phase string

const (
	// PhaseProposal propose-credential.
	PhaseProposal Phase = "proposal"
	// PhaseOffer offer-credential.
	PhaseOffer Phase = "offer"
	// PhaseRequest request-credential.
	PhaseRequest Phase = "request"
	// PhaseCredential issue-credential.
	PhaseCredential Phase = "credential"
)

const defaultMimeType = "text/plain"

// Binding links an exchange to the format-specific record produced by a format service.
type Binding struct {
	FormatType     FormatType `json:"formatType"`
	FormatRecordID string     `json:"formatRecordId"`
}

// CredentialAttribute is a name/value/mime-type triple of a credential preview.
type CredentialAttribute struct {
	Name     string `json:"name"`
	MimeType string `json:"mime-type,omitempty"`
	Value    string `json:"value"`
}

// CredentialPreview is the list of attributes proposed or offered.
type CredentialPreview struct {
	Type       string                `json:"@type,omitempty"`
	Attributes []CredentialAttribute `json:"attributes"`
}

// AttributesEqual reports whether both attribute lists hold the same (name, value) pairs.
// Order is ignored; an empty mime type is treated as text/plain.
func AttributesEqual(a, b []CredentialAttribute) bool {
	if len(a) != len(b) {
		return false
	}

	key := func(attr CredentialAttribute) string {
		mime := attr.MimeType
		if mime == "" {
			mime = defaultMimeType
		}

		return strings.ToLower(mime) + "\x00" + attr.Name + "\x00" + attr.Value
	}

	counts := make(map[string]int, len(a))
	for _, attr := range a {
		counts[key(attr)]++
	}

	for _, attr := range b {
		k := key(attr)
		if counts[k] == 0 {
			return false
		}

		counts[k]--
	}

	return true
}

// Record is the persisted aggregate of one credential exchange.
type Record struct {
	ID             string `json:"id"`
	ThreadID       string `json:"threadId"`
	ParentThreadID string `json:"parentThreadId,omitempty"`

	ProtocolVersion ProtocolVersion `json:"protocolVersion"`
	Role            Role            `json:"role"`
	State           State           `json:"state"`

	ConnectionID string             `json:"connectionId,omitempty"`
	Service      *decorator.Service `json:"service,omitempty"`
	Bindings     []Binding          `json:"credentials,omitempty"`

	CredentialAttributes []CredentialAttribute `json:"credentialAttributes,omitempty"`
	LinkedAttachments    []decorator.Attachment `json:"linkedAttachments,omitempty"`
	CredentialID         string                 `json:"credentialId,omitempty"`
	ErrorMessage         string                 `json:"errorMessage,omitempty"`

	AutoAcceptCredential AutoAccept `json:"autoAcceptCredential,omitempty"`

	Metadata map[string]json.RawMessage       `json:"metadata,omitempty"`
	Messages map[Phase]service.DIDCommMsgMap `json:"messages,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// SetMetadata stores v under key.
func (r *Record) SetMetadata(key string, v interface{}) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal metadata %s: %w", key, err)
	}

	if r.Metadata == nil {
		r.Metadata = map[string]json.RawMessage{}
	}

	r.Metadata[key] = raw

	return nil
}

// GetMetadata reads the value stored under key into v. It reports false if the key is absent.
func (r *Record) GetMetadata(key string, v interface{}) (bool, error) {
	raw, ok := r.Metadata[key]
	if !ok {
		return false, nil
	}

	if err := json.Unmarshal(raw, v); err != nil {
		return true, fmt.Errorf("unmarshal metadata %s: %w", key, err)
	}

	return true, nil
}

// SetBinding binds a format record to the exchange. There is at most one binding per format type.
func (r *Record) SetBinding(formatType FormatType, formatRecordID string) {
	for i := range r.Bindings {
		if r.Bindings[i].FormatType == formatType {
			r.Bindings[i].FormatRecordID = formatRecordID

			return
		}
	}

	r.Bindings = append(r.Bindings, Binding{FormatType: formatType, FormatRecordID: formatRecordID})
}

// Binding returns the format record id bound for formatType.
func (r *Record) Binding(formatType FormatType) (string, bool) {
	for _, b := range r.Bindings {
		if b.FormatType == formatType {
			return b.FormatRecordID, true
		}
	}

	return "", false
}

// Message returns the last message of the given phase exchanged on this thread, or nil.
func (r *Record) Message(phase Phase) service.DIDCommMsgMap {
	return r.Messages[phase]
}

func (r *Record) setMessage(phase Phase, msg service.DIDCommMsgMap) {
	if r.Messages == nil {
		r.Messages = map[Phase]service.DIDCommMsgMap{}
	}

	r.Messages[phase] = msg
}

// clone returns a copy of the record whose maps and slices can be changed without affecting r.
func (r *Record) clone() *Record {
	c := *r
	c.Bindings = append([]Binding(nil), r.Bindings...)
	c.CredentialAttributes = append([]CredentialAttribute(nil), r.CredentialAttributes...)
	c.LinkedAttachments = append([]decorator.Attachment(nil), r.LinkedAttachments...)
	c.Metadata = maps.Clone(r.Metadata)
	c.Messages = maps.Clone(r.Messages)

	return &c
}
