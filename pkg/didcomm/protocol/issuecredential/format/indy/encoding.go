/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package indy

import (
	"crypto/sha256"
	"math"
	"math/big"
	"strconv"

	"github.com/hyperledger/aries-credentials-go/pkg/didcomm/protocol/issuecredential"
)

// EncodeValue returns the encoding of a raw attribute value: 32-bit integers are kept as their
// decimal form, anything else becomes the decimal form of its SHA-256 digest.
func EncodeValue(raw string) string {
	if n, err := strconv.ParseInt(raw, 10, 64); err == nil && n >= math.MinInt32 && n <= math.MaxInt32 {
		return strconv.FormatInt(n, 10)
	}

	digest := sha256.Sum256([]byte(raw))

	return new(big.Int).SetBytes(digest[:]).String()
}

// EncodeAttributes returns the credential values of attributes.
func EncodeAttributes(attributes []issuecredential.CredentialAttribute) CredentialValues {
	values := make(CredentialValues, len(attributes))

	for _, attr := range attributes {
		values[attr.Name] = AttributeValue{Raw: attr.Value, Encoded: EncodeValue(attr.Value)}
	}

	return values
}

// ValuesMatch reports whether both value sets have the same names with the same raw and encoded values.
func ValuesMatch(a, b CredentialValues) bool {
	if len(a) != len(b) {
		return false
	}

	for name, va := range a {
		vb, ok := b[name]
		if !ok || va != vb {
			return false
		}
	}

	return true
}
