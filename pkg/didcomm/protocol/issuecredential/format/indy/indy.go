/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package indy

import (
	"context"
	"encoding/json"
	"errors"
)

// MetadataKeyRequest is the record metadata key holding the credential request metadata the holder
// needs to store the issued credential.
const MetadataKeyRequest = "_internal/indyRequest"

var (
	// ErrNotFound is returned by a Ledger when the object does not exist.
	ErrNotFound = errors.New("ledger object not found")
	// ErrMissingHolderService the indy holder capability is not configured.
	ErrMissingHolderService = errors.New("missing indy holder service")
	// ErrMissingLedger the ledger client is not configured.
	ErrMissingLedger = errors.New("missing indy ledger")
)

// Filter is the hlindy/cred-filter payload of a proposal.
type Filter struct {
	SchemaIssuerDID string `json:"schema_issuer_did,omitempty"`
	SchemaID        string `json:"schema_id,omitempty"`
	SchemaName      string `json:"schema_name,omitempty"`
	SchemaVersion   string `json:"schema_version,omitempty"`
	CredDefID       string `json:"cred_def_id,omitempty"`
	IssuerDID       string `json:"issuer_did,omitempty"`
}

// CredentialOffer is the hlindy/cred-abstract payload of an offer.
type CredentialOffer struct {
	SchemaID            string                 `json:"schema_id"`
	CredDefID           string                 `json:"cred_def_id"`
	KeyCorrectnessProof map[string]interface{} `json:"key_correctness_proof,omitempty"`
	Nonce               string                 `json:"nonce"`
}

// CredentialRequest is the hlindy/cred-req payload of a request.
type CredentialRequest struct {
	ProverDID                 string          `json:"prover_did,omitempty"`
	CredDefID                 string          `json:"cred_def_id"`
	BlindedMS                 json.RawMessage `json:"blinded_ms,omitempty"`
	BlindedMSCorrectnessProof json.RawMessage `json:"blinded_ms_correctness_proof,omitempty"`
	Nonce                     string          `json:"nonce"`
}

// AttributeValue is the raw and encoded value of a credential attribute.
type AttributeValue struct {
	Raw     string `json:"raw"`
	Encoded string `json:"encoded"`
}

// CredentialValues maps attribute names to their values.
type CredentialValues map[string]AttributeValue

// Credential is the hlindy/cred payload of an issued credential.
type Credential struct {
	SchemaID                  string           `json:"schema_id"`
	CredDefID                 string           `json:"cred_def_id"`
	RevRegID                  string           `json:"rev_reg_id,omitempty"`
	Values                    CredentialValues `json:"values"`
	Signature                 json.RawMessage  `json:"signature,omitempty"`
	SignatureCorrectnessProof json.RawMessage  `json:"signature_correctness_proof,omitempty"`
}

// CredentialDefinition is a credential definition published on the ledger.
type CredentialDefinition struct {
	ID       string          `json:"id"`
	SchemaID string          `json:"schemaId"`
	Type     string          `json:"type"`
	Tag      string          `json:"tag"`
	Value    json.RawMessage `json:"value,omitempty"`
	Ver      string          `json:"ver"`
}

// Schema is a credential schema published on the ledger.
type Schema struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Version   string   `json:"version"`
	AttrNames []string `json:"attrNames"`
	SeqNo     int      `json:"seqNo,omitempty"`
	Ver       string   `json:"ver"`
}

// requestMetadata is kept in the record between the request and the credential.
type requestMetadata struct {
	CredDefID string          `json:"credDefId"`
	Metadata  json.RawMessage `json:"metadata"`
}

// Ledger reads published objects.
type Ledger interface {
	GetCredentialDefinition(ctx context.Context, id string) (*CredentialDefinition, error)
	GetSchema(ctx context.Context, id string) (*Schema, error)
}

// Issuer is the issuer side of the anonymous credential wallet.
type Issuer interface {
	CreateCredentialOffer(ctx context.Context, credDefID string) (*CredentialOffer, error)
	CreateCredential(ctx context.Context, offer *CredentialOffer, request *CredentialRequest,
		values CredentialValues) (*Credential, error)
}

// Holder is the holder side of the anonymous credential wallet.
type Holder interface {
	// CreateCredentialRequest returns the request and the metadata needed later by StoreCredential.
	CreateCredentialRequest(ctx context.Context, holderDID string, offer *CredentialOffer,
		credDef *CredentialDefinition) (*CredentialRequest, json.RawMessage, error)
	// StoreCredential stores the credential under credentialID and returns the id it was stored with.
	StoreCredential(ctx context.Context, credentialID string, credential *Credential,
		requestMetadata json.RawMessage, credDef *CredentialDefinition) (string, error)
}
