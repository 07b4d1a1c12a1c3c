/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package transport

import "strings"

const (
	// MediaTypeV1PlaintextPayload is the media type for DIDComm V1 plaintext messages as per Aries RFC 0044.
	MediaTypeV1PlaintextPayload = "application/json;flavor=didcomm-msg"
	// MediaTypeJSON is accepted from agents that do not send the didcomm flavor.
	MediaTypeJSON = "application/json"
)

// IsPlaintextMediaType reports whether the given Content-Type carries a plaintext DIDComm message.
func IsPlaintextMediaType(contentType string) bool {
	mediaType := strings.ToLower(strings.ReplaceAll(contentType, " ", ""))

	return mediaType == MediaTypeV1PlaintextPayload || mediaType == MediaTypeJSON ||
		strings.HasPrefix(mediaType, MediaTypeJSON+";charset=")
}
