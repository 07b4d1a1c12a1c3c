/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package decorator

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/piprate/json-gold/ld"
)

// MimeTypeJSON is the mime type of attachments produced by NewJSONAttachment.
const MimeTypeJSON = "application/json"

var errNoContents = errors.New("no contents in this attachment")

// Attachment is intended to provide the possibility to include files, links or even JSON payload to the message.
// To find out more please visit https://github.com/hyperledger/aries-rfcs/tree/master/concepts/0017-attachments
type Attachment struct {
	// ID is a JSON-LD construct that uniquely identifies attached content within the scope of a given message.
	// Recommended on appended attachment descriptors. Possible but generally unused on embedded attachment descriptors.
	// Never required if no references to the attachment exist; if omitted, then there is no way
	// to refer to the attachment later in the thread, in error messages, and so forth.
	// Because @id is used to compose URIs, it is recommended that this name be brief and avoid spaces
	// and other characters that require URI escaping.
	ID string `json:"@id,omitempty"`
	// Description is an optional human-readable description of the content.
	Description string `json:"description,omitempty"`
	// FileName is a hint about the name that might be used if this attachment is persisted as a file.
	// It is not required, and need not be unique. If this field is present and mime-type is not,
	// the extension on the filename may be used to infer a MIME type.
	FileName string `json:"filename,omitempty"`
	// MimeType describes the MIME type of the attached content. Optional but recommended.
	MimeType string `json:"mime-type,omitempty"`
	// LastModTime is a hint about when the content in this attachment was last modified.
	LastModTime *time.Time `json:"lastmod_time,omitempty"`
	// ByteCount is an optional, and mostly relevant when content is included by reference instead of by value.
	// Lets the receiver guess how expensive it will be, in time, bandwidth, and storage, to fully fetch the attachment.
	ByteCount int64 `json:"byte_count,omitempty"`
	// Data is a JSON object that gives access to the actual content of the attachment.
	Data AttachmentData `json:"data,omitempty"`

	decoded []byte
}

// AttachmentData contains attachment payload.
type AttachmentData struct {
	// Sha256 is a hash of the content. Optional. Used as an integrity check if content is inlined.
	// if content is only referenced, then including this field makes the content tamper-evident.
	// This may be redundant, if the content is stored in an inherently immutable container like
	// content-addressable storage. This may also be undesirable, if dynamic content at a specified
	// link is beneficial. Including a hash without including a way to fetch the content via link
	// is a form of proof of existence.
	Sha256 string `json:"sha256,omitempty"`
	// Links is a list of zero or more locations at which the content may be fetched.
	Links []string `json:"links,omitempty"`
	// Base64 encoded data, when representing arbitrary content inline instead of via links. Optional.
	Base64 string `json:"base64,omitempty"`
	// JSON is a directly embedded JSON data, when representing content inline instead of via links,
	// and when the content is natively conveyable as JSON. Optional.
	JSON interface{} `json:"json,omitempty"`
}

// DecodeError is returned when an attachment payload is not valid base64 or not valid JSON.
type DecodeError struct {
	AttachmentID string
	Err          error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode attachment %q: %v", e.AttachmentID, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Fetch this attachment's contents.
func (d *AttachmentData) Fetch() ([]byte, error) {
	if d.JSON != nil {
		bits, err := json.Marshal(d.JSON)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal json contents : %w", err)
		}

		return bits, nil
	}

	if d.Base64 != "" {
		bits, err := base64.StdEncoding.DecodeString(d.Base64)
		if err != nil {
			return nil, fmt.Errorf("failed to base64 decode attachment contents : %w", err)
		}

		return bits, nil
	}

	return nil, errNoContents
}

// NewJSONAttachment encodes v as base64 JSON and wraps it into an attachment with the given id.
func NewJSONAttachment(id string, v interface{}) (*Attachment, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal attachment payload: %w", err)
	}

	return &Attachment{
		ID:       id,
		MimeType: MimeTypeJSON,
		Data:     AttachmentData{Base64: base64.StdEncoding.EncodeToString(raw)},
		decoded:  raw,
	}, nil
}

// Bytes returns the raw payload of the attachment. The result is memoized after the first call.
func (a *Attachment) Bytes() ([]byte, error) {
	if a.decoded != nil {
		return a.decoded, nil
	}

	raw, err := a.Data.Fetch()
	if err != nil {
		return nil, &DecodeError{AttachmentID: a.ID, Err: err}
	}

	a.decoded = raw

	return raw, nil
}

// Decode unmarshals the attachment payload into v.
func (a *Attachment) Decode(v interface{}) error {
	raw, err := a.Bytes()
	if err != nil {
		return err
	}

	if err = json.Unmarshal(raw, v); err != nil {
		return &DecodeError{AttachmentID: a.ID, Err: err}
	}

	return nil
}

// AttachmentsEqual reports whether both attachments carry deep-equal JSON payloads, ignoring key order.
// Attachments that fail to decode are never equal.
func AttachmentsEqual(a, b *Attachment) bool {
	if a == nil || b == nil {
		return false
	}

	var left, right interface{}

	if err := a.Decode(&left); err != nil {
		return false
	}

	if err := b.Decode(&right); err != nil {
		return false
	}

	return ld.DeepCompare(left, right, true)
}
