/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package context creates a framework Provider context holding the stores, the messenger and the credential
// format services of an agent, and provides simple accessor methods to them.
package context

import (
	"fmt"

	"github.com/hyperledger/aries-framework-go/component/storageutil/mem"
	"github.com/hyperledger/aries-framework-go/spi/storage"

	"github.com/hyperledger/aries-credentials-go/pkg/didcomm/common/service"
	"github.com/hyperledger/aries-credentials-go/pkg/didcomm/messenger"
	"github.com/hyperledger/aries-credentials-go/pkg/didcomm/protocol/issuecredential"
	"github.com/hyperledger/aries-credentials-go/pkg/didcomm/protocol/issuecredential/format/indy"
	"github.com/hyperledger/aries-credentials-go/pkg/didcomm/protocol/issuecredential/format/jsonld"
	"github.com/hyperledger/aries-credentials-go/pkg/didcomm/transport"
	"github.com/hyperledger/aries-credentials-go/pkg/didcomm/transport/http"
	"github.com/hyperledger/aries-credentials-go/pkg/store/connection"
	"github.com/hyperledger/aries-credentials-go/pkg/store/verifiable"
)

// Provider supplies the framework configuration to client objects.
type Provider struct {
	storeProvider      storage.Provider
	messenger          service.Messenger
	outboundTransport  transport.OutboundTransport
	connectionLookup   service.ConnectionLookup
	connectionRecorder *connection.Recorder
	credentialStore    jsonld.CredentialStore
	ledger             indy.Ledger
	indyIssuer         indy.Issuer
	indyHolder         indy.Holder
	ldSigner           jsonld.Signer
	indyOpts           []indy.Option
	jsonldOpts         []jsonld.Option
	formatServices     []issuecredential.FormatService
}

// ProviderOption configures the framework.
type ProviderOption func(opts *Provider) error

// New instantiates a new context provider. The Indy format is enabled by a ledger, the JSON-LD format by
// a signer or a credential store, unless format services are given explicitly. Without a messenger, an
// outbound transport is used to deliver the messages to the endpoints of the connections.
func New(opts ...ProviderOption) (*Provider, error) {
	ctxProvider := Provider{}

	for _, opt := range opts {
		err := opt(&ctxProvider)
		if err != nil {
			return nil, fmt.Errorf("option failed: %w", err)
		}
	}

	if ctxProvider.storeProvider == nil {
		ctxProvider.storeProvider = mem.NewProvider()
	}

	if ctxProvider.connectionLookup == nil {
		recorder, err := connection.NewRecorder(&ctxProvider)
		if err != nil {
			return nil, fmt.Errorf("initialize context connection recorder: %w", err)
		}

		ctxProvider.connectionRecorder = recorder
		ctxProvider.connectionLookup = recorder.Lookup
	}

	if ctxProvider.messenger == nil && ctxProvider.outboundTransport != nil {
		msgr, err := messenger.NewMessenger(&ctxProvider)
		if err != nil {
			return nil, fmt.Errorf("initialize context messenger: %w", err)
		}

		ctxProvider.messenger = msgr
	}

	if ctxProvider.credentialStore == nil && ctxProvider.ldSigner != nil {
		store, err := verifiable.New(&ctxProvider)
		if err != nil {
			return nil, fmt.Errorf("initialize context verifiable store: %w", err)
		}

		ctxProvider.credentialStore = store
	}

	if len(ctxProvider.formatServices) == 0 {
		if err := ctxProvider.initFormatServices(); err != nil {
			return nil, err
		}
	}

	return &ctxProvider, nil
}

func (p *Provider) initFormatServices() error {
	if p.ledger != nil {
		p.formatServices = append(p.formatServices, indy.New(p, p.indyOpts...))
	}

	if p.ldSigner != nil || p.credentialStore != nil {
		svc, err := jsonld.New(p, p.jsonldOpts...)
		if err != nil {
			return fmt.Errorf("initialize context json-ld format: %w", err)
		}

		p.formatServices = append(p.formatServices, svc)
	}

	return nil
}

// StorageProvider return a storage provider.
func (p *Provider) StorageProvider() storage.Provider {
	return p.storeProvider
}

// Messenger returns the messenger sending the outbound protocol messages.
func (p *Provider) Messenger() service.Messenger {
	return p.messenger
}

// OutboundTransport returns the transport posting messages to other agents.
func (p *Provider) OutboundTransport() transport.OutboundTransport {
	return p.outboundTransport
}

// ConnectionLookup returns the lookup of established connections.
func (p *Provider) ConnectionLookup() service.ConnectionLookup {
	return p.connectionLookup
}

// ConnectionRecorder returns the connection store of the context. It is nil when the lookup was given
// with WithConnectionLookup.
func (p *Provider) ConnectionRecorder() *connection.Recorder {
	return p.connectionRecorder
}

// CredentialStore returns the store of the received JSON-LD credentials.
func (p *Provider) CredentialStore() jsonld.CredentialStore {
	return p.credentialStore
}

// Ledger returns the Indy ledger.
func (p *Provider) Ledger() indy.Ledger {
	return p.ledger
}

// IndyIssuer returns the Indy issuer.
func (p *Provider) IndyIssuer() indy.Issuer {
	return p.indyIssuer
}

// IndyHolder returns the Indy holder.
func (p *Provider) IndyHolder() indy.Holder {
	return p.indyHolder
}

// LDSigner returns the linked data proof signer.
func (p *Provider) LDSigner() jsonld.Signer {
	return p.ldSigner
}

// FormatServices returns the credential format services.
func (p *Provider) FormatServices() []issuecredential.FormatService {
	return p.formatServices
}

// WithStorageProvider injects a storage provider into the context.
func WithStorageProvider(s storage.Provider) ProviderOption {
	return func(opts *Provider) error {
		opts.storeProvider = s
		return nil
	}
}

// WithMessenger injects a messenger into the context.
func WithMessenger(m service.Messenger) ProviderOption {
	return func(opts *Provider) error {
		opts.messenger = m
		return nil
	}
}

// WithOutboundTransport injects the transport the messenger of the context sends messages with.
func WithOutboundTransport(t transport.OutboundTransport) ProviderOption {
	return func(opts *Provider) error {
		opts.outboundTransport = t
		return nil
	}
}

// WithHTTPTransport sends the messages as plaintext DIDComm over HTTP.
func WithHTTPTransport(opts ...http.OutboundHTTPOpt) ProviderOption {
	return func(p *Provider) error {
		outbound, err := http.NewOutbound(opts...)
		if err != nil {
			return fmt.Errorf("http outbound transport: %w", err)
		}

		p.outboundTransport = outbound

		return nil
	}
}

// WithConnectionLookup replaces the connection store of the context.
func WithConnectionLookup(l service.ConnectionLookup) ProviderOption {
	return func(opts *Provider) error {
		opts.connectionLookup = l
		return nil
	}
}

// WithIndy injects the Indy ledger, issuer and holder into the context.
func WithIndy(ledger indy.Ledger, issuer indy.Issuer, holder indy.Holder, opts ...indy.Option) ProviderOption {
	return func(p *Provider) error {
		if ledger == nil {
			return fmt.Errorf("indy ledger is required")
		}

		p.ledger = ledger
		p.indyIssuer = issuer
		p.indyHolder = holder
		p.indyOpts = opts

		return nil
	}
}

// WithJSONLD injects the linked data proof signer into the context.
func WithJSONLD(signer jsonld.Signer, opts ...jsonld.Option) ProviderOption {
	return func(p *Provider) error {
		p.ldSigner = signer
		p.jsonldOpts = opts

		return nil
	}
}

// WithCredentialStore replaces the verifiable credential store of the context.
func WithCredentialStore(s jsonld.CredentialStore) ProviderOption {
	return func(opts *Provider) error {
		opts.credentialStore = s
		return nil
	}
}

// WithFormatServices replaces the format services built from the Indy and JSON-LD options.
func WithFormatServices(formats ...issuecredential.FormatService) ProviderOption {
	return func(opts *Provider) error {
		opts.formatServices = formats
		return nil
	}
}
