/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package indy

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hyperledger/aries-framework-go/component/log"
	"github.com/pkg/errors"

	"github.com/hyperledger/aries-credentials-go/pkg/didcomm/protocol/decorator"
	"github.com/hyperledger/aries-credentials-go/pkg/didcomm/protocol/issuecredential"
)

const formatTag = "indy"

var logger = log.New("aries-framework/issuecredential/format/indy")

// Provider contains dependencies for the indy format service. Issuer-only agents return a nil
// Holder and holder-only agents a nil Issuer.
type Provider interface {
	Ledger() Ledger
	IndyIssuer() Issuer
	IndyHolder() Holder
}

type options struct {
	ledgerOpts []LedgerOption
}

// Option configures the indy format service.
type Option func(*options)

// WithLedgerCache sets the size and the expiration of the ledger cache.
func WithLedgerCache(size int, ttl time.Duration) Option {
	return func(o *options) {
		o.ledgerOpts = append(o.ledgerOpts, WithCache(size, ttl))
	}
}

// WithLedgerRetry sets how many times a failed ledger lookup is retried.
func WithLedgerRetry(maxRetries uint64) Option {
	return func(o *options) {
		o.ledgerOpts = append(o.ledgerOpts, WithRetry(maxRetries, defaultRetryInterval))
	}
}

// Service is the hlindy credential format service.
type Service struct {
	ledger Ledger
	issuer Issuer
	holder Holder
}

// New returns the indy format service.
func New(p Provider, opts ...Option) *Service {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	s := &Service{issuer: p.IndyIssuer(), holder: p.IndyHolder()}

	if l := p.Ledger(); l != nil {
		s.ledger = NewCachingLedger(l, o.ledgerOpts...)
	}

	return s
}

// Type returns the indy format type.
func (s *Service) Type() issuecredential.FormatType {
	return issuecredential.FormatIndy
}

// Supports reports whether format is an indy format identifier.
func (s *Service) Supports(format string) bool {
	return strings.Contains(format, formatTag)
}

// HasPayload reports whether formats carries an indy payload.
func (s *Service) HasPayload(formats *issuecredential.CredentialFormats) bool {
	return formats != nil && formats.Indy != nil
}

// CreateProposal returns the cred-filter of the proposal. Linked attachments are added to the preview.
func (s *Service) CreateProposal(_ context.Context, _ *issuecredential.Record,
	formats *issuecredential.CredentialFormats) (*issuecredential.FormatAttachment, error) {
	if !s.HasPayload(formats) {
		return nil, issuecredential.ErrMissingProposalPayload
	}

	p := formats.Indy

	attributes, linked, err := LinkAttachments(p.Attributes, p.LinkedAttachments)
	if err != nil {
		return nil, err
	}

	return s.attachment(issuecredential.IndyProposeFormat, "", &Filter{
		SchemaIssuerDID: p.SchemaIssuerDID,
		SchemaID:        p.SchemaID,
		SchemaName:      p.SchemaName,
		SchemaVersion:   p.SchemaVersion,
		CredDefID:       p.CredentialDefinitionID,
		IssuerDID:       p.IssuerDID,
	}, attributes, linked)
}

// ProcessProposal checks the cred-filter of a received proposal.
func (s *Service) ProcessProposal(_ context.Context, _ *issuecredential.Record, proposal *decorator.Attachment) error {
	_, err := decodeFilter(proposal)

	return err
}

// CreateOffer creates the credential offer. The credential definition comes from the API payload or
// from the proposal being answered.
func (s *Service) CreateOffer(ctx context.Context, rec *issuecredential.Record,
	formats *issuecredential.CredentialFormats, proposal *decorator.Attachment) (*issuecredential.FormatAttachment, error) {
	if s.issuer == nil {
		return nil, issuecredential.ErrMissingIssuerService
	}

	var credDefID string

	if formats != nil && formats.Indy != nil {
		credDefID = formats.Indy.CredentialDefinitionID
	}

	attachID := ""

	if proposal != nil {
		filter, err := decodeFilter(proposal)
		if err != nil {
			return nil, err
		}

		if credDefID == "" {
			credDefID = filter.CredDefID
		}

		attachID = proposal.ID
	}

	if credDefID == "" {
		return nil, issuecredential.ErrMissingCredentialDefinition
	}

	offer, err := s.issuer.CreateCredentialOffer(ctx, credDefID)
	if err != nil {
		return nil, errors.Wrapf(err, "create offer for %s", credDefID)
	}

	attributes := rec.CredentialAttributes

	var linked []decorator.Attachment

	if formats != nil && formats.Indy != nil && len(formats.Indy.Attributes) > 0 {
		attributes, linked, err = LinkAttachments(formats.Indy.Attributes, formats.Indy.LinkedAttachments)
		if err != nil {
			return nil, err
		}
	}

	return s.attachment(issuecredential.IndyOfferFormat, attachID, offer, attributes, linked)
}

// ProcessOffer checks the credential offer of a received offer.
func (s *Service) ProcessOffer(_ context.Context, _ *issuecredential.Record, offer *decorator.Attachment) error {
	o := &CredentialOffer{}
	if err := offer.Decode(o); err != nil {
		return err
	}

	if o.CredDefID == "" {
		return issuecredential.NewProblemReportError(issuecredential.ProblemInvalidOffer,
			issuecredential.ErrMissingCredentialDefinition, "offer %s", offer.ID)
	}

	return nil
}

// CreateRequest creates the credential request for the offer and keeps the request metadata in the record.
func (s *Service) CreateRequest(ctx context.Context, rec *issuecredential.Record,
	formats *issuecredential.CredentialFormats, offer *decorator.Attachment) (*issuecredential.FormatAttachment, error) {
	if offer == nil {
		return nil, issuecredential.ErrMissingOffer
	}

	if s.holder == nil {
		return nil, ErrMissingHolderService
	}

	o := &CredentialOffer{}
	if err := offer.Decode(o); err != nil {
		return nil, err
	}

	credDef, err := s.credentialDefinition(ctx, o.CredDefID)
	if err != nil {
		return nil, err
	}

	var holderDID string
	if formats != nil && formats.Indy != nil {
		holderDID = formats.Indy.HolderDID
	}

	request, metadata, err := s.holder.CreateCredentialRequest(ctx, holderDID, o, credDef)
	if err != nil {
		return nil, errors.Wrap(err, "create credential request")
	}

	if err = rec.SetMetadata(MetadataKeyRequest, &requestMetadata{CredDefID: o.CredDefID, Metadata: metadata}); err != nil {
		return nil, err
	}

	return s.attachment(issuecredential.IndyRequestFormat, offer.ID, request, nil, nil)
}

// ProcessRequest checks the credential request of a received request.
func (s *Service) ProcessRequest(_ context.Context, _ *issuecredential.Record, request *decorator.Attachment) error {
	r := &CredentialRequest{}
	if err := request.Decode(r); err != nil {
		return err
	}

	if r.CredDefID == "" {
		return issuecredential.NewProblemReportError(issuecredential.ProblemInvalidRequest,
			issuecredential.ErrMissingCredentialDefinition, "request %s", request.ID)
	}

	return nil
}

// CreateCredential issues the credential with the attribute values of the record.
func (s *Service) CreateCredential(ctx context.Context, rec *issuecredential.Record,
	_ *issuecredential.CredentialFormats, offer, request *decorator.Attachment) (*issuecredential.FormatAttachment, error) {
	if s.issuer == nil {
		return nil, issuecredential.ErrMissingIssuerService
	}

	if offer == nil || request == nil || len(rec.CredentialAttributes) == 0 {
		return nil, issuecredential.NewProblemReportError(issuecredential.ProblemIssuanceAbandoned, nil,
			"missing offer, request or attribute values for exchange %s", rec.ID)
	}

	o, r := &CredentialOffer{}, &CredentialRequest{}

	if err := offer.Decode(o); err != nil {
		return nil, err
	}

	if err := request.Decode(r); err != nil {
		return nil, err
	}

	credential, err := s.issuer.CreateCredential(ctx, o, r, EncodeAttributes(rec.CredentialAttributes))
	if err != nil {
		return nil, errors.Wrapf(err, "issue credential for %s", o.CredDefID)
	}

	return s.attachment(issuecredential.IndyIssueFormat, request.ID, credential, nil, nil)
}

// ProcessCredential stores the received credential in the holder wallet.
func (s *Service) ProcessCredential(ctx context.Context, rec *issuecredential.Record,
	credential *decorator.Attachment) (string, error) {
	meta := &requestMetadata{}

	found, err := rec.GetMetadata(MetadataKeyRequest, meta)
	if err != nil {
		return "", err
	}

	if !found {
		return "", issuecredential.NewProblemReportError(issuecredential.ProblemIssuanceAbandoned, nil,
			"missing request metadata for exchange %s", rec.ID)
	}

	c := &Credential{}
	if err = credential.Decode(c); err != nil {
		return "", err
	}

	if c.CredDefID != meta.CredDefID {
		return "", issuecredential.NewProblemReportError(issuecredential.ProblemInvalidCredential, nil,
			"credential definition %q does not match the requested %q", c.CredDefID, meta.CredDefID)
	}

	if s.holder == nil {
		return "", issuecredential.NewProblemReportError(issuecredential.ProblemIssuanceAbandoned,
			ErrMissingHolderService, "exchange %s", rec.ID)
	}

	credDef, err := s.credentialDefinition(ctx, c.CredDefID)
	if err != nil {
		return "", err
	}

	id, err := s.holder.StoreCredential(ctx, uuid.NewString(), c, meta.Metadata, credDef)
	if err != nil {
		return "", errors.Wrap(err, "store credential")
	}

	logger.Infof("indy credential %s stored for exchange %s", id, rec.ID)

	return id, nil
}

// ShouldAutoRespondToProposal approves a proposal repeating the values and credential definition
// of the offer it answers.
func (s *Service) ShouldAutoRespondToProposal(in *issuecredential.AutoRespondInput) bool {
	filter, err := decodeFilter(in.Proposal)
	if err != nil || in.Offer == nil {
		return false
	}

	o := &CredentialOffer{}
	if err = in.Offer.Decode(o); err != nil {
		return false
	}

	return previewMatches(in) && filter.CredDefID == o.CredDefID
}

// ShouldAutoRespondToOffer approves an offer repeating the values and credential definition
// of the proposal it answers.
func (s *Service) ShouldAutoRespondToOffer(in *issuecredential.AutoRespondInput) bool {
	if in.Offer == nil || in.Proposal == nil {
		return false
	}

	o := &CredentialOffer{}
	if err := in.Offer.Decode(o); err != nil {
		return false
	}

	filter, err := decodeFilter(in.Proposal)
	if err != nil {
		return false
	}

	return previewMatches(in) && filter.CredDefID == o.CredDefID
}

// ShouldAutoRespondToRequest approves a request for the credential definition of the offer, or of
// the proposal when no offer preceded it.
func (s *Service) ShouldAutoRespondToRequest(in *issuecredential.AutoRespondInput) bool {
	if in.Request == nil {
		return false
	}

	r := &CredentialRequest{}
	if err := in.Request.Decode(r); err != nil {
		return false
	}

	switch {
	case in.Offer != nil:
		o := &CredentialOffer{}

		return in.Offer.Decode(o) == nil && o.CredDefID == r.CredDefID
	case in.Proposal != nil:
		filter, err := decodeFilter(in.Proposal)

		return err == nil && filter.CredDefID == r.CredDefID
	default:
		return false
	}
}

// ShouldAutoRespondToCredential approves a credential carrying the attribute values of the exchange.
func (s *Service) ShouldAutoRespondToCredential(in *issuecredential.AutoRespondInput) bool {
	if in.Credential == nil || len(in.Record.CredentialAttributes) == 0 {
		return false
	}

	c := &Credential{}
	if err := in.Credential.Decode(c); err != nil {
		return false
	}

	return ValuesMatch(c.Values, EncodeAttributes(in.Record.CredentialAttributes))
}

func (s *Service) credentialDefinition(ctx context.Context, id string) (*CredentialDefinition, error) {
	if s.ledger == nil {
		return nil, ErrMissingLedger
	}

	credDef, err := s.ledger.GetCredentialDefinition(ctx, id)
	if err != nil {
		return nil, errors.Wrapf(err, "resolve credential definition %s", id)
	}

	return credDef, nil
}

func (s *Service) attachment(format, attachID string, payload interface{},
	attributes []issuecredential.CredentialAttribute, linked []decorator.Attachment) (*issuecredential.FormatAttachment, error) {
	if attachID == "" {
		attachID = uuid.NewString()
	}

	att, err := decorator.NewJSONAttachment(attachID, payload)
	if err != nil {
		return nil, err
	}

	fa := &issuecredential.FormatAttachment{
		Format:            issuecredential.Format{AttachID: attachID, Format: format},
		Attachment:        att,
		LinkedAttachments: linked,
	}

	if len(attributes) > 0 {
		fa.Preview = &issuecredential.CredentialPreview{Attributes: attributes}
	}

	return fa, nil
}

func decodeFilter(att *decorator.Attachment) (*Filter, error) {
	if att == nil {
		return nil, issuecredential.ErrMissingAttachment
	}

	filter := &Filter{}
	if err := att.Decode(filter); err != nil {
		return nil, err
	}

	return filter, nil
}

// previewMatches reports whether the evaluated preview holds the attribute values of the exchange.
func previewMatches(in *issuecredential.AutoRespondInput) bool {
	if in.Preview == nil || len(in.Record.CredentialAttributes) == 0 {
		return false
	}

	return ValuesMatch(EncodeAttributes(in.Preview.Attributes), EncodeAttributes(in.Record.CredentialAttributes))
}
