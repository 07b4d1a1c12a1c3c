/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package verifiable

import (
	"github.com/hyperledger/aries-credentials-go/pkg/controller/command/verifiable"
	verifiablestore "github.com/hyperledger/aries-credentials-go/pkg/store/verifiable"
)

// getCredentialReq model
//
// This is used to retrieve the verifiable credential.
//
// swagger:parameters getCredentialReq
type getCredentialReq struct { // nolint: unused,deadcode
	// VC ID - pass base64 version of the ID
	//
	// in: path
	// required: true
	ID string `json:"id"`
}

// credentialRes model
//
// This is used for returning the verifiable credential.
//
// swagger:response credentialRes
type credentialRes struct { // nolint: unused,deadcode
	// in: body
	verifiable.Credential
}

// getCredentialByNameReq model
//
// This is used to retrieve the verifiable credential by name.
//
// swagger:parameters getCredentialByNameReq removeCredentialByNameReq
type getCredentialByNameReq struct { // nolint: unused,deadcode
	// VC Name
	//
	// in: path
	// required: true
	Name string `json:"name"`
}

// credentialRecord model
//
// This is used to return credential record.
//
// swagger:response credentialRecord
type credentialRecord struct { // nolint: unused,deadcode
	// in: body
	verifiablestore.Record
}

// credentialRecordResult model
//
// This is used to return credential records.
//
// swagger:response credentialRecordResult
type credentialRecordResult struct { // nolint: unused,deadcode
	// in: body
	Result []*verifiablestore.Record `json:"result,omitempty"`
}

// emptyRes model
//
// swagger:response emptyRes
type emptyRes struct{} // nolint: unused,deadcode
