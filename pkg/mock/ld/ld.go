/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package ld

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/google/uuid"

	"github.com/hyperledger/aries-credentials-go/pkg/didcomm/protocol/issuecredential"
	"github.com/hyperledger/aries-credentials-go/pkg/didcomm/protocol/issuecredential/format/jsonld"
)

// MockSigner adds a fake linked-data proof to credentials.
type MockSigner struct {
	VerificationMethod string
	ErrSign            error
}

// SignCredential mock.
func (s *MockSigner) SignCredential(_ context.Context, credential map[string]interface{},
	opts *issuecredential.LDProofOptions) (map[string]interface{}, error) {
	if s.ErrSign != nil {
		return nil, s.ErrSign
	}

	vc := make(map[string]interface{}, len(credential)+1)
	for k, v := range credential {
		vc[k] = v
	}

	proof := map[string]interface{}{
		"type":               opts.ProofType,
		"proofPurpose":       "assertionMethod",
		"verificationMethod": s.VerificationMethod,
		"jws":                "eyJhbGciOiJFZERTQSJ9..mock",
	}

	if opts.ProofPurpose != "" {
		proof["proofPurpose"] = opts.ProofPurpose
	}

	if opts.Created != "" {
		proof["created"] = opts.Created
	}

	vc["proof"] = proof

	return vc, nil
}

// MockCredentialStore keeps saved credentials in memory.
type MockCredentialStore struct {
	mu      sync.Mutex
	Saved   map[string]json.RawMessage
	Names   map[string]string
	ErrSave error
}

// SaveCredential mock.
func (s *MockCredentialStore) SaveCredential(name string, vc json.RawMessage) (string, error) {
	if s.ErrSave != nil {
		return "", s.ErrSave
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Saved == nil {
		s.Saved = map[string]json.RawMessage{}
		s.Names = map[string]string{}
	}

	id := uuid.NewString()
	s.Saved[id] = vc
	s.Names[name] = id

	return id, nil
}

// MockProvider provides the JSON-LD collaborators.
type MockProvider struct {
	SignerValue jsonld.Signer
	StoreValue  jsonld.CredentialStore
}

// LDSigner returns the signer.
func (p *MockProvider) LDSigner() jsonld.Signer {
	return p.SignerValue
}

// CredentialStore returns the credential store.
func (p *MockProvider) CredentialStore() jsonld.CredentialStore {
	return p.StoreValue
}
