/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package issuecredential

import (
	"context"
	"errors"
	"fmt"

	"github.com/hyperledger/aries-framework-go/component/log"
	"github.com/hyperledger/aries-framework-go/component/storageutil/mem"
	"github.com/hyperledger/aries-framework-go/spi/storage"

	"github.com/hyperledger/aries-credentials-go/pkg/didcomm/common/service"
	"github.com/hyperledger/aries-credentials-go/pkg/didcomm/protocol/issuecredential"
)

var logger = log.New("aries-framework/client/issuecredential")

var (
	errEmptyProposal = errors.New("received an empty proposal")
	errEmptyOffer    = errors.New("received an empty offer")
	errNoService     = errors.New("no issue-credential protocol service is configured")
)

type (
	// Record is the state of one credential exchange.
	Record = issuecredential.Record
	// ProposeCredentialOptions are the inputs of ProposeCredential.
	ProposeCredentialOptions = issuecredential.CreateProposalOptions
	// OfferCredentialOptions are the inputs of OfferCredential and CreateOffer.
	OfferCredentialOptions = issuecredential.CreateOfferOptions
	// ResponseOptions are the inputs of the accept and negotiate calls.
	ResponseOptions = issuecredential.ResponseOptions
	// Middleware wraps the handling of received messages.
	Middleware = issuecredential.Middleware
)

// Provider contains dependencies for the issuecredential client.
// A nil StorageProvider selects in-memory storage.
type Provider interface {
	StorageProvider() storage.Provider
	ConnectionLookup() service.ConnectionLookup
	Messenger() service.Messenger
	FormatServices() []issuecredential.FormatService
}

type protocolProvider struct {
	storage storage.Provider
	lookup  service.ConnectionLookup
	formats []issuecredential.FormatService
}

func (p *protocolProvider) StorageProvider() storage.Provider { return p.storage }

func (p *protocolProvider) ConnectionLookup() service.ConnectionLookup { return p.lookup }

func (p *protocolProvider) FormatServices() []issuecredential.FormatService { return p.formats }

// Client enable access to issuecredential API.
type Client struct {
	services  issuecredential.Services
	handler   *issuecredential.InboundHandler
	messenger service.Messenger
}

// New return new instance of the issuecredential client. A protocol version is available when at
// least one of its formats is configured.
func New(ctx Provider, opts ...issuecredential.Option) (*Client, error) {
	store := ctx.StorageProvider()
	if store == nil {
		store = mem.NewProvider()
	}

	p := &protocolProvider{storage: store, lookup: ctx.ConnectionLookup(), formats: ctx.FormatServices()}

	v1, err := newService(issuecredential.NewV1, p, opts...)
	if err != nil {
		return nil, err
	}

	v2, err := newService(issuecredential.NewV2, p, opts...)
	if err != nil {
		return nil, err
	}

	if v1 == nil && v2 == nil {
		return nil, errNoService
	}

	services := issuecredential.Services{}

	if v1 != nil {
		services.V1 = v1
	}

	if v2 != nil {
		services.V2 = v2
	}

	return &Client{
		services:  services,
		handler:   issuecredential.NewInboundHandler(services, ctx.Messenger()),
		messenger: ctx.Messenger(),
	}, nil
}

func newService(fn func(issuecredential.Provider, ...issuecredential.Option) (*issuecredential.Service, error),
	p issuecredential.Provider, opts ...issuecredential.Option) (*issuecredential.Service, error) {
	svc, err := fn(p, opts...)
	if errors.Is(err, issuecredential.ErrUnsupportedFormat) {
		logger.Infof("protocol version disabled: %v", err)

		return nil, nil
	}

	if err != nil {
		return nil, fmt.Errorf("create protocol service: %w", err)
	}

	return svc, nil
}

// ProposeCredential is used by the Holder to start an exchange with a proposal.
func (c *Client) ProposeCredential(ctx context.Context, version issuecredential.ProtocolVersion,
	opts *ProposeCredentialOptions) (*Record, error) {
	if opts == nil {
		return nil, errEmptyProposal
	}

	svc, err := c.services.ForVersion(version)
	if err != nil {
		return nil, err
	}

	return c.send(ctx)(svc.CreateProposal(ctx, opts))
}

// AcceptProposal is used by the Issuer to answer a proposal with an offer.
func (c *Client) AcceptProposal(ctx context.Context, recordID string, opts *ResponseOptions) (*Record, error) {
	svc, err := c.serviceOf(recordID)
	if err != nil {
		return nil, err
	}

	return c.send(ctx)(svc.AcceptProposal(ctx, recordID, opts))
}

// NegotiateProposal is used by the Issuer to answer a proposal with a different offer.
func (c *Client) NegotiateProposal(ctx context.Context, recordID string, opts *ResponseOptions) (*Record, error) {
	svc, err := c.serviceOf(recordID)
	if err != nil {
		return nil, err
	}

	return c.send(ctx)(svc.NegotiateProposal(ctx, recordID, opts))
}

// OfferCredential is used by the Issuer to start an exchange with an offer over a connection.
func (c *Client) OfferCredential(ctx context.Context, version issuecredential.ProtocolVersion,
	opts *OfferCredentialOptions) (*Record, error) {
	if opts == nil {
		return nil, errEmptyOffer
	}

	svc, err := c.services.ForVersion(version)
	if err != nil {
		return nil, err
	}

	return c.send(ctx)(svc.CreateOffer(ctx, opts))
}

// CreateOffer creates an offer without sending it, typically to deliver it out-of-band.
// Without a connection the offer must carry the Issuer service.
func (c *Client) CreateOffer(ctx context.Context, version issuecredential.ProtocolVersion,
	opts *OfferCredentialOptions) (*Record, service.DIDCommMsgMap, error) {
	if opts == nil {
		return nil, nil, errEmptyOffer
	}

	svc, err := c.services.ForVersion(version)
	if err != nil {
		return nil, nil, err
	}

	return svc.CreateOffer(ctx, opts)
}

// AcceptOffer is used by the Holder to answer an offer with a request.
func (c *Client) AcceptOffer(ctx context.Context, recordID string, opts *ResponseOptions) (*Record, error) {
	svc, err := c.serviceOf(recordID)
	if err != nil {
		return nil, err
	}

	return c.send(ctx)(svc.AcceptOffer(ctx, recordID, opts))
}

// NegotiateOffer is used by the Holder to answer an offer with a different proposal.
func (c *Client) NegotiateOffer(ctx context.Context, recordID string, opts *ResponseOptions) (*Record, error) {
	svc, err := c.serviceOf(recordID)
	if err != nil {
		return nil, err
	}

	return c.send(ctx)(svc.NegotiateOffer(ctx, recordID, opts))
}

// DeclineOffer is used by the Holder to refuse an offer. The Issuer receives a problem report.
func (c *Client) DeclineOffer(ctx context.Context, recordID, reason string) (*Record, error) {
	svc, err := c.serviceOf(recordID)
	if err != nil {
		return nil, err
	}

	return c.send(ctx)(svc.DeclineOffer(ctx, recordID, reason))
}

// AcceptRequest is used by the Issuer to issue the requested credential.
func (c *Client) AcceptRequest(ctx context.Context, recordID string, opts *ResponseOptions) (*Record, error) {
	svc, err := c.serviceOf(recordID)
	if err != nil {
		return nil, err
	}

	return c.send(ctx)(svc.AcceptRequest(ctx, recordID, opts))
}

// AcceptCredential is used by the Holder to acknowledge the received credential.
func (c *Client) AcceptCredential(ctx context.Context, recordID string) (*Record, error) {
	svc, err := c.serviceOf(recordID)
	if err != nil {
		return nil, err
	}

	return c.send(ctx)(svc.AcceptCredential(ctx, recordID))
}

// SendProblemReport abandons the exchange and tells the other party why.
func (c *Client) SendProblemReport(ctx context.Context, recordID, description string) (*Record, error) {
	svc, err := c.serviceOf(recordID)
	if err != nil {
		return nil, err
	}

	return c.send(ctx)(svc.CreateProblemReport(ctx, recordID, description))
}

// GetByID returns the exchange record with id.
func (c *Client) GetByID(id string) (*Record, error) {
	svc, err := c.records()
	if err != nil {
		return nil, err
	}

	return svc.GetByID(id)
}

// GetAll returns every exchange record.
func (c *Client) GetAll() ([]*Record, error) {
	svc, err := c.records()
	if err != nil {
		return nil, err
	}

	return svc.GetAll()
}

// FindAllByQuery returns the exchange records matching query.
func (c *Client) FindAllByQuery(query map[string]string) ([]*Record, error) {
	svc, err := c.records()
	if err != nil {
		return nil, err
	}

	return svc.FindByQuery(query)
}

// DeleteByID removes the exchange record with id.
func (c *Client) DeleteByID(id string) error {
	svc, err := c.serviceOf(id)
	if err != nil {
		return err
	}

	return svc.DeleteByID(id)
}

// HandleInbound processes a message received on connectionID.
func (c *Client) HandleInbound(ctx context.Context, msg service.DIDCommMsg, connectionID string) error {
	return c.handler.HandleInbound(ctx, msg, connectionID)
}

// Accept reports whether msgType is handled by the client.
func (c *Client) Accept(msgType string) bool {
	return c.handler.Accept(msgType)
}

// Use installs middleware around the handling of received messages.
func (c *Client) Use(items ...Middleware) {
	c.handler.Use(items...)
}

// RegisterMsgEvent registers ch for the state changes of every protocol version.
func (c *Client) RegisterMsgEvent(ch chan<- service.StateMsg) error {
	for _, svc := range c.configured() {
		if err := svc.RegisterMsgEvent(ch); err != nil {
			return err
		}
	}

	return nil
}

// UnregisterMsgEvent stops sending state changes to ch.
func (c *Client) UnregisterMsgEvent(ch chan<- service.StateMsg) error {
	for _, svc := range c.configured() {
		if err := svc.UnregisterMsgEvent(ch); err != nil {
			return err
		}
	}

	return nil
}

// send returns a function delivering the message produced by a protocol call.
func (c *Client) send(ctx context.Context) func(*Record, service.DIDCommMsgMap, error) (*Record, error) {
	return func(rec *Record, msg service.DIDCommMsgMap, err error) (*Record, error) {
		if err != nil {
			return rec, err
		}

		if err = issuecredential.Send(ctx, c.messenger, rec, msg); err != nil {
			return rec, fmt.Errorf("send %s: %w", msg.Type(), err)
		}

		return rec, nil
	}
}

func (c *Client) serviceOf(recordID string) (issuecredential.ProtocolService, error) {
	svc, err := c.records()
	if err != nil {
		return nil, err
	}

	rec, err := svc.GetByID(recordID)
	if err != nil {
		return nil, err
	}

	return c.services.ForVersion(rec.ProtocolVersion)
}

// records returns a configured service. Every version shares the record store.
func (c *Client) records() (issuecredential.ProtocolService, error) {
	services := c.configured()
	if len(services) == 0 {
		return nil, errNoService
	}

	return services[0], nil
}

func (c *Client) configured() []issuecredential.ProtocolService {
	var services []issuecredential.ProtocolService

	if c.services.V2 != nil {
		services = append(services, c.services.V2)
	}

	if c.services.V1 != nil {
		services = append(services, c.services.V1)
	}

	return services
}
