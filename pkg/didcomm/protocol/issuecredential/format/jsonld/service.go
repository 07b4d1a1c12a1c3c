/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package jsonld

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/google/uuid"
	"github.com/hyperledger/aries-framework-go/component/log"
	"github.com/piprate/json-gold/ld"
	"github.com/pkg/errors"

	"github.com/hyperledger/aries-credentials-go/pkg/didcomm/protocol/decorator"
	"github.com/hyperledger/aries-credentials-go/pkg/didcomm/protocol/issuecredential"
)

const (
	formatTag = "aries/ld-proof-vc"
	// ProposalAttachID is the attachment id of a JSON-LD proposal.
	ProposalAttachID = "ld_proof"

	proofKey = "proof"
)

var logger = log.New("aries-framework/issuecredential/format/jsonld")

var (
	// ErrMissingSigner the linked-data signer is not configured.
	ErrMissingSigner = errors.New("missing linked data signer")
	// ErrMissingCredentialStore the verifiable credential store is not configured.
	ErrMissingCredentialStore = errors.New("missing verifiable credential store")
)

// Signer adds a linked-data proof to a credential.
type Signer interface {
	SignCredential(ctx context.Context, credential map[string]interface{},
		opts *issuecredential.LDProofOptions) (map[string]interface{}, error)
}

// CredentialStore saves received verifiable credentials.
type CredentialStore interface {
	// SaveCredential saves vc under name and returns the id of the stored credential.
	SaveCredential(name string, vc json.RawMessage) (string, error)
}

// Provider contains dependencies for the JSON-LD format service.
type Provider interface {
	LDSigner() Signer
	CredentialStore() CredentialStore
}

type options struct {
	schema string
}

// Option configures the JSON-LD format service.
type Option func(*options)

// WithSchema replaces the JSON schema credential details are validated against.
func WithSchema(schema string) Option {
	return func(o *options) {
		o.schema = schema
	}
}

// Service is the ld-proof-vc credential format service.
type Service struct {
	signer    Signer
	store     CredentialStore
	validator *detailValidator
}

// New returns the JSON-LD format service.
func New(p Provider, opts ...Option) (*Service, error) {
	o := &options{schema: DefaultDetailSchema}
	for _, opt := range opts {
		opt(o)
	}

	v, err := newDetailValidator(o.schema)
	if err != nil {
		return nil, err
	}

	return &Service{signer: p.LDSigner(), store: p.CredentialStore(), validator: v}, nil
}

// Type returns the JSON-LD format type.
func (s *Service) Type() issuecredential.FormatType {
	return issuecredential.FormatJSONLD
}

// Supports reports whether format is an ld-proof-vc format identifier.
func (s *Service) Supports(format string) bool {
	return strings.Contains(format, formatTag)
}

// HasPayload reports whether formats carries a JSON-LD payload.
func (s *Service) HasPayload(formats *issuecredential.CredentialFormats) bool {
	return formats != nil && formats.JSONLD != nil
}

// CreateProposal returns the credential detail of the proposal.
func (s *Service) CreateProposal(_ context.Context, _ *issuecredential.Record,
	formats *issuecredential.CredentialFormats) (*issuecredential.FormatAttachment, error) {
	if !s.HasPayload(formats) {
		return nil, issuecredential.ErrMissingProposalPayload
	}

	if err := s.validator.validate(formats.JSONLD); err != nil {
		return nil, err
	}

	return attachment(issuecredential.LDProofVCDetailFormat, ProposalAttachID, formats.JSONLD)
}

// ProcessProposal checks the credential detail of a received proposal.
func (s *Service) ProcessProposal(_ context.Context, rec *issuecredential.Record,
	proposal *decorator.Attachment) error {
	_, err := s.processDetail(rec, proposal, issuecredential.ProblemIssuanceAbandoned)

	return err
}

// CreateOffer offers the credential detail of the API payload, or the proposed one.
func (s *Service) CreateOffer(_ context.Context, _ *issuecredential.Record,
	formats *issuecredential.CredentialFormats, proposal *decorator.Attachment) (*issuecredential.FormatAttachment, error) {
	var attachID string

	if proposal != nil {
		attachID = proposal.ID
	}

	detail, err := s.detail(formats, proposal)
	if err != nil {
		return nil, err
	}

	return attachment(issuecredential.LDProofVCDetailFormat, attachID, detail)
}

// ProcessOffer checks the credential detail of a received offer.
func (s *Service) ProcessOffer(_ context.Context, rec *issuecredential.Record, offer *decorator.Attachment) error {
	_, err := s.processDetail(rec, offer, issuecredential.ProblemInvalidOffer)

	return err
}

// CreateRequest requests the credential detail of the API payload, or the offered one.
func (s *Service) CreateRequest(_ context.Context, _ *issuecredential.Record,
	formats *issuecredential.CredentialFormats, offer *decorator.Attachment) (*issuecredential.FormatAttachment, error) {
	if offer == nil && !s.HasPayload(formats) {
		return nil, issuecredential.ErrMissingOffer
	}

	var attachID string

	if offer != nil {
		attachID = offer.ID
	}

	detail, err := s.detail(formats, offer)
	if err != nil {
		return nil, err
	}

	return attachment(issuecredential.LDProofVCDetailFormat, attachID, detail)
}

// ProcessRequest checks the credential detail of a received request.
func (s *Service) ProcessRequest(_ context.Context, rec *issuecredential.Record, request *decorator.Attachment) error {
	_, err := s.processDetail(rec, request, issuecredential.ProblemInvalidRequest)

	return err
}

// CreateCredential signs the requested credential.
func (s *Service) CreateCredential(ctx context.Context, rec *issuecredential.Record,
	_ *issuecredential.CredentialFormats, _, request *decorator.Attachment) (*issuecredential.FormatAttachment, error) {
	if request == nil {
		return nil, issuecredential.NewProblemReportError(issuecredential.ProblemIssuanceAbandoned,
			issuecredential.ErrMissingAttachment, "missing request detail for exchange %s", rec.ID)
	}

	if s.signer == nil {
		return nil, ErrMissingSigner
	}

	detail, err := s.processDetail(rec, request, issuecredential.ProblemInvalidRequest)
	if err != nil {
		return nil, err
	}

	vc, err := s.signer.SignCredential(ctx, detail.Credential, detail.Options)
	if err != nil {
		return nil, errors.Wrapf(err, "sign credential for exchange %s", rec.ID)
	}

	return attachment(issuecredential.LDProofVCFormat, request.ID, vc)
}

// ProcessCredential saves the received verifiable credential.
func (s *Service) ProcessCredential(_ context.Context, rec *issuecredential.Record,
	credential *decorator.Attachment) (string, error) {
	vc := map[string]interface{}{}
	if err := credential.Decode(&vc); err != nil {
		return "", err
	}

	unsigned, proofType := splitProof(vc)
	if proofType == "" {
		return "", issuecredential.NewProblemReportError(issuecredential.ProblemInvalidCredential, nil,
			"credential %s has no proof", credential.ID)
	}

	err := s.validator.validate(&issuecredential.JSONLDCredentialFormat{
		Credential: unsigned,
		Options:    &issuecredential.LDProofOptions{ProofType: proofType},
	})
	if err != nil {
		return "", issuecredential.NewProblemReportError(issuecredential.ProblemInvalidCredential, err,
			"credential %s", credential.ID)
	}

	if s.store == nil {
		return "", issuecredential.NewProblemReportError(issuecredential.ProblemIssuanceAbandoned,
			ErrMissingCredentialStore, "exchange %s", rec.ID)
	}

	raw, err := credential.Bytes()
	if err != nil {
		return "", err
	}

	id, err := s.store.SaveCredential(rec.ID, raw)
	if err != nil {
		return "", errors.Wrap(err, "save verifiable credential")
	}

	logger.Infof("verifiable credential %s stored for exchange %s", id, rec.ID)

	return id, nil
}

// ShouldAutoRespondToProposal approves a proposal repeating the offered detail.
func (s *Service) ShouldAutoRespondToProposal(in *issuecredential.AutoRespondInput) bool {
	return decorator.AttachmentsEqual(in.Proposal, in.Offer)
}

// ShouldAutoRespondToOffer approves an offer repeating the proposed detail.
func (s *Service) ShouldAutoRespondToOffer(in *issuecredential.AutoRespondInput) bool {
	return decorator.AttachmentsEqual(in.Offer, in.Proposal)
}

// ShouldAutoRespondToRequest approves a request repeating the offered detail, or the proposed one
// when no offer preceded it.
func (s *Service) ShouldAutoRespondToRequest(in *issuecredential.AutoRespondInput) bool {
	if in.Offer != nil {
		return decorator.AttachmentsEqual(in.Request, in.Offer)
	}

	return decorator.AttachmentsEqual(in.Request, in.Proposal)
}

// ShouldAutoRespondToCredential approves a credential that is the requested one plus a proof of the
// requested type.
func (s *Service) ShouldAutoRespondToCredential(in *issuecredential.AutoRespondInput) bool {
	if in.Credential == nil || in.Request == nil {
		return false
	}

	detail := &issuecredential.JSONLDCredentialFormat{}
	if err := in.Request.Decode(detail); err != nil || detail.Options == nil {
		return false
	}

	vc := map[string]interface{}{}
	if err := in.Credential.Decode(&vc); err != nil {
		return false
	}

	unsigned, proofType := splitProof(vc)

	return proofType == detail.Options.ProofType && ld.DeepCompare(unsigned, detail.Credential, false)
}

// detail returns the API payload or the detail of att, validated.
func (s *Service) detail(formats *issuecredential.CredentialFormats,
	att *decorator.Attachment) (*issuecredential.JSONLDCredentialFormat, error) {
	var detail *issuecredential.JSONLDCredentialFormat

	switch {
	case s.HasPayload(formats):
		detail = formats.JSONLD
	case att != nil:
		detail = &issuecredential.JSONLDCredentialFormat{}
		if err := att.Decode(detail); err != nil {
			return nil, err
		}
	default:
		return nil, issuecredential.ErrMissingProposalPayload
	}

	if err := s.validator.validate(detail); err != nil {
		return nil, err
	}

	return detail, nil
}

// processDetail decodes and validates a received detail. Schema violations are reported with code.
func (s *Service) processDetail(rec *issuecredential.Record, att *decorator.Attachment,
	code issuecredential.ProblemCode) (*issuecredential.JSONLDCredentialFormat, error) {
	if att == nil {
		return nil, issuecredential.ErrMissingAttachment
	}

	var raw interface{}
	if err := att.Decode(&raw); err != nil {
		return nil, err
	}

	if err := s.validator.validate(raw); err != nil {
		return nil, issuecredential.NewProblemReportError(code, err, "exchange %s", rec.ID)
	}

	detail := &issuecredential.JSONLDCredentialFormat{}
	if err := att.Decode(detail); err != nil {
		return nil, err
	}

	return detail, nil
}

func attachment(format, attachID string, payload interface{}) (*issuecredential.FormatAttachment, error) {
	if attachID == "" {
		attachID = uuid.NewString()
	}

	att, err := decorator.NewJSONAttachment(attachID, payload)
	if err != nil {
		return nil, err
	}

	return &issuecredential.FormatAttachment{
		Format:     issuecredential.Format{AttachID: attachID, Format: format},
		Attachment: att,
	}, nil
}

// splitProof returns vc without its proof, and the type of the proof or of the first proof of a set.
func splitProof(vc map[string]interface{}) (map[string]interface{}, string) {
	unsigned := make(map[string]interface{}, len(vc))

	for k, v := range vc {
		if k != proofKey {
			unsigned[k] = v
		}
	}

	proof := vc[proofKey]
	if proofs, ok := proof.([]interface{}); ok && len(proofs) > 0 {
		proof = proofs[0]
	}

	p, ok := proof.(map[string]interface{})
	if !ok {
		return unsigned, ""
	}

	proofType, _ := p["type"].(string)

	return unsigned, proofType
}
