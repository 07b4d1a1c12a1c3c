/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package verifiable

import (
	"encoding/json"

	"github.com/hyperledger/aries-credentials-go/pkg/store/verifiable"
)

// Credential is model for verifiable credential.
type Credential struct {
	VerifiableCredential json.RawMessage `json:"verifiableCredential,omitempty"`
}

// IDArg model
//
// This is used for querying by ID from input json.
type IDArg struct {
	// ID
	ID string `json:"id"`
}

// NameArg model
//
// This is used for querying or removing by name from input json.
type NameArg struct {
	// Name
	Name string `json:"name"`
}

// CredentialRecordResult holds the credential records.
type CredentialRecordResult struct {
	// Result
	Result []*verifiable.Record `json:"result,omitempty"`
}
