/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package indy

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/hyperledger/aries-credentials-go/pkg/didcomm/protocol/issuecredential/format/indy"
)

// MockLedger is an in-memory ledger.
type MockLedger struct {
	mu       sync.Mutex
	CredDefs map[string]*indy.CredentialDefinition
	Schemas  map[string]*indy.Schema
	ErrGet   error
	calls    int
}

// NewMockLedger returns a ledger holding the given credential definitions.
func NewMockLedger(credDefs ...*indy.CredentialDefinition) *MockLedger {
	l := &MockLedger{CredDefs: map[string]*indy.CredentialDefinition{}, Schemas: map[string]*indy.Schema{}}

	for _, d := range credDefs {
		l.CredDefs[d.ID] = d
	}

	return l
}

// GetCredentialDefinition mock.
func (l *MockLedger) GetCredentialDefinition(_ context.Context, id string) (*indy.CredentialDefinition, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.calls++

	if l.ErrGet != nil {
		return nil, l.ErrGet
	}

	d, ok := l.CredDefs[id]
	if !ok {
		return nil, fmt.Errorf("credential definition %s: %w", id, indy.ErrNotFound)
	}

	return d, nil
}

// GetSchema mock.
func (l *MockLedger) GetSchema(_ context.Context, id string) (*indy.Schema, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.calls++

	if l.ErrGet != nil {
		return nil, l.ErrGet
	}

	s, ok := l.Schemas[id]
	if !ok {
		return nil, fmt.Errorf("schema %s: %w", id, indy.ErrNotFound)
	}

	return s, nil
}

// Calls returns the number of lookups the ledger served.
func (l *MockLedger) Calls() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.calls
}

// MockIssuer issues unsigned credentials.
type MockIssuer struct {
	SchemaID      string
	ErrOffer      error
	ErrCredential error
}

// CreateCredentialOffer mock.
func (m *MockIssuer) CreateCredentialOffer(_ context.Context, credDefID string) (*indy.CredentialOffer, error) {
	if m.ErrOffer != nil {
		return nil, m.ErrOffer
	}

	return &indy.CredentialOffer{SchemaID: m.SchemaID, CredDefID: credDefID, Nonce: uuid.NewString()}, nil
}

// CreateCredential mock.
func (m *MockIssuer) CreateCredential(_ context.Context, offer *indy.CredentialOffer, _ *indy.CredentialRequest,
	values indy.CredentialValues) (*indy.Credential, error) {
	if m.ErrCredential != nil {
		return nil, m.ErrCredential
	}

	return &indy.Credential{
		SchemaID:  offer.SchemaID,
		CredDefID: offer.CredDefID,
		Values:    values,
		Signature: json.RawMessage(`{"p_credential":{}}`),
	}, nil
}

// MockHolder keeps stored credentials in memory.
type MockHolder struct {
	mu        sync.Mutex
	Stored    map[string]*indy.Credential
	ErrCreate error
	ErrStore  error
}

// CreateCredentialRequest mock.
func (m *MockHolder) CreateCredentialRequest(_ context.Context, holderDID string, offer *indy.CredentialOffer,
	_ *indy.CredentialDefinition) (*indy.CredentialRequest, json.RawMessage, error) {
	if m.ErrCreate != nil {
		return nil, nil, m.ErrCreate
	}

	request := &indy.CredentialRequest{ProverDID: holderDID, CredDefID: offer.CredDefID, Nonce: uuid.NewString()}

	return request, json.RawMessage(fmt.Sprintf(`{"nonce":%q}`, request.Nonce)), nil
}

// StoreCredential mock.
func (m *MockHolder) StoreCredential(_ context.Context, credentialID string, credential *indy.Credential,
	_ json.RawMessage, _ *indy.CredentialDefinition) (string, error) {
	if m.ErrStore != nil {
		return "", m.ErrStore
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.Stored == nil {
		m.Stored = map[string]*indy.Credential{}
	}

	m.Stored[credentialID] = credential

	return credentialID, nil
}

// MockProvider provides the indy collaborators.
type MockProvider struct {
	LedgerValue indy.Ledger
	IssuerValue indy.Issuer
	HolderValue indy.Holder
}

// Ledger returns the ledger.
func (p *MockProvider) Ledger() indy.Ledger {
	return p.LedgerValue
}

// IndyIssuer returns the issuer wallet.
func (p *MockProvider) IndyIssuer() indy.Issuer {
	return p.IssuerValue
}

// IndyHolder returns the holder wallet.
func (p *MockProvider) IndyHolder() indy.Holder {
	return p.HolderValue
}
