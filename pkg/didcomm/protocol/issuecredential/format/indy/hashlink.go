/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package indy

import (
	"fmt"

	"github.com/multiformats/go-multibase"
	"github.com/multiformats/go-multihash"
	"github.com/pkg/errors"

	"github.com/hyperledger/aries-credentials-go/pkg/didcomm/protocol/decorator"
	"github.com/hyperledger/aries-credentials-go/pkg/didcomm/protocol/issuecredential"
)

const hashlinkPrefix = "hl:"

// Hashlink returns the hl: reference of data: a base58btc multibase of its sha2-256 multihash.
func Hashlink(data []byte) (string, error) {
	mh, err := multihash.Sum(data, multihash.SHA2_256, -1)
	if err != nil {
		return "", errors.Wrap(err, "multihash")
	}

	encoded, err := multibase.Encode(multibase.Base58BTC, mh)
	if err != nil {
		return "", errors.Wrap(err, "multibase")
	}

	return hashlinkPrefix + encoded, nil
}

// LinkAttachments adds one preview attribute per linked attachment whose value is the hashlink of
// the attachment content. The attachments are returned to be carried next to the message.
func LinkAttachments(attributes []issuecredential.CredentialAttribute,
	linked []issuecredential.LinkedAttachment) ([]issuecredential.CredentialAttribute, []decorator.Attachment, error) {
	if len(linked) == 0 {
		return attributes, nil, nil
	}

	out := append([]issuecredential.CredentialAttribute(nil), attributes...)
	atts := make([]decorator.Attachment, 0, len(linked))

	for i := range linked {
		l := &linked[i]

		for _, attr := range out {
			if attr.Name == l.AttributeName {
				return nil, nil, fmt.Errorf("linked attachment %q: attribute already in preview", l.AttributeName)
			}
		}

		raw, err := l.Attachment.Bytes()
		if err != nil {
			return nil, nil, err
		}

		link, err := Hashlink(raw)
		if err != nil {
			return nil, nil, err
		}

		out = append(out, issuecredential.CredentialAttribute{
			Name:     l.AttributeName,
			MimeType: l.Attachment.MimeType,
			Value:    link,
		})
		atts = append(atts, l.Attachment)
	}

	return out, atts, nil
}
