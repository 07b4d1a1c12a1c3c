/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package issuecredential

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hyperledger/aries-framework-go/component/log"
	"github.com/hyperledger/aries-framework-go/spi/storage"

	"github.com/hyperledger/aries-credentials-go/pkg/didcomm/common/service"
	"github.com/hyperledger/aries-credentials-go/pkg/didcomm/protocol/decorator"
)

// Name defines the protocol name.
const Name = "issue-credential"

// nolint:gochecknoglobals
var logger = log.New("aries-framework/issuecredential/service")

// Provider contains dependencies for the protocol services.
type Provider interface {
	StorageProvider() storage.Provider
	ConnectionLookup() service.ConnectionLookup
	FormatServices() []FormatService
}

type options struct {
	autoAccept AutoAccept
	now        func() time.Time
}

// Option configures a protocol service.
type Option func(*options)

// WithAutoAccept sets the agent default auto-accept policy.
func WithAutoAccept(a AutoAccept) Option {
	return func(o *options) {
		o.autoAccept = a
	}
}

// WithClock replaces the clock used for record timestamps.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

// CreateProposalOptions are the inputs of a proposal that starts an exchange.
type CreateProposalOptions struct {
	ConnectionID         string            `json:"connectionId"`
	CredentialFormats    CredentialFormats `json:"credentialFormats"`
	Comment              string            `json:"comment,omitempty"`
	AutoAcceptCredential AutoAccept        `json:"autoAcceptCredential,omitempty"`
}

// CreateOfferOptions are the inputs of an offer that starts an exchange.
// Without ConnectionID the offer is connection-less and Service tells the holder where to reply.
type CreateOfferOptions struct {
	ConnectionID         string             `json:"connectionId,omitempty"`
	Service              *decorator.Service `json:"service,omitempty"`
	CredentialFormats    CredentialFormats  `json:"credentialFormats"`
	Comment              string             `json:"comment,omitempty"`
	AutoAcceptCredential AutoAccept         `json:"autoAcceptCredential,omitempty"`
}

// ResponseOptions are the inputs of a message sent in response to the other party.
type ResponseOptions struct {
	CredentialFormats    CredentialFormats  `json:"credentialFormats"`
	Comment              string             `json:"comment,omitempty"`
	AutoAcceptCredential AutoAccept         `json:"autoAcceptCredential,omitempty"`
	Service              *decorator.Service `json:"service,omitempty"`
}

// ProtocolService runs the exchanges of one protocol version.
type ProtocolService interface {
	service.Event

	Version() ProtocolVersion
	Accept(msgType string) bool

	CreateProposal(ctx context.Context, opts *CreateProposalOptions) (*Record, service.DIDCommMsgMap, error)
	ProcessProposal(ctx context.Context, msg service.DIDCommMsg, connectionID string) (*Record, error)
	AcceptProposal(ctx context.Context, recordID string, opts *ResponseOptions) (*Record, service.DIDCommMsgMap, error)
	NegotiateProposal(ctx context.Context, recordID string,
		opts *ResponseOptions) (*Record, service.DIDCommMsgMap, error)
	CreateOffer(ctx context.Context, opts *CreateOfferOptions) (*Record, service.DIDCommMsgMap, error)
	ProcessOffer(ctx context.Context, msg service.DIDCommMsg, connectionID string) (*Record, error)
	AcceptOffer(ctx context.Context, recordID string, opts *ResponseOptions) (*Record, service.DIDCommMsgMap, error)
	NegotiateOffer(ctx context.Context, recordID string, opts *ResponseOptions) (*Record, service.DIDCommMsgMap, error)
	DeclineOffer(ctx context.Context, recordID, reason string) (*Record, service.DIDCommMsgMap, error)
	ProcessRequest(ctx context.Context, msg service.DIDCommMsg, connectionID string) (*Record, error)
	AcceptRequest(ctx context.Context, recordID string, opts *ResponseOptions) (*Record, service.DIDCommMsgMap, error)
	ProcessCredential(ctx context.Context, msg service.DIDCommMsg, connectionID string) (*Record, error)
	AcceptCredential(ctx context.Context, recordID string) (*Record, service.DIDCommMsgMap, error)
	ProcessAck(ctx context.Context, msg service.DIDCommMsg) (*Record, error)
	CreateProblemReport(ctx context.Context, recordID, description string) (*Record, service.DIDCommMsgMap, error)
	ProcessProblemReport(ctx context.Context, msg service.DIDCommMsg) (*Record, error)
	BuildProblemReport(rec *Record, perr *ProblemReportError) (service.DIDCommMsgMap, error)

	ShouldAutoRespondToProposal(rec *Record) (bool, error)
	ShouldAutoRespondToOffer(rec *Record) (bool, error)
	ShouldAutoRespondToRequest(rec *Record) (bool, error)
	ShouldAutoRespondToCredential(rec *Record) (bool, error)

	GetByID(id string) (*Record, error)
	GetAll() ([]*Record, error)
	FindByQuery(query map[string]string) ([]*Record, error)
	FindByThreadID(threadID string) (*Record, error)
	DeleteByID(id string) error
}

// Service is the protocol service of one version. Exchanges on different threads run concurrently;
// work on a single thread is serialized.
type Service struct {
	service.Message
	codec      messageCodec
	formats    []FormatService
	repo       *Repository
	lookup     service.ConnectionLookup
	locks      *threadLocker
	autoAccept AutoAccept
	now        func() time.Time
}

// NewV1 returns the issue-credential 1.0 service. Only the indy format is used.
func NewV1(p Provider, opts ...Option) (*Service, error) {
	return newService(v1Codec{}, p, opts...)
}

// NewV2 returns the issue-credential 2.0 service.
func NewV2(p Provider, opts ...Option) (*Service, error) {
	return newService(v2Codec{}, p, opts...)
}

func newService(codec messageCodec, p Provider, opts ...Option) (*Service, error) {
	o := &options{now: time.Now}
	for _, opt := range opts {
		opt(o)
	}

	repo, err := NewRepository(p.StorageProvider())
	if err != nil {
		return nil, err
	}

	var formats []FormatService

	for _, f := range p.FormatServices() {
		if codec.supports(f.Type()) {
			formats = append(formats, f)
		}
	}

	if len(formats) == 0 {
		return nil, fmt.Errorf("%w: no format service for %s", ErrUnsupportedFormat, codec.version())
	}

	return &Service{
		codec:      codec,
		formats:    formats,
		repo:       repo,
		lookup:     p.ConnectionLookup(),
		locks:      newThreadLocker(),
		autoAccept: o.autoAccept,
		now:        o.now,
	}, nil
}

// Name returns the protocol name.
func (s *Service) Name() string {
	return Name
}

// Version returns the protocol version the service speaks.
func (s *Service) Version() ProtocolVersion {
	return s.codec.version()
}

// Accept reports whether the service handles msgType.
func (s *Service) Accept(msgType string) bool {
	v, ok := VersionOf(msgType)
	if !ok || v != s.codec.version() {
		return false
	}

	switch messageName(msgType) {
	case ProposeCredentialMsgName, OfferCredentialMsgName, RequestCredentialMsgName,
		IssueCredentialMsgName, AckMsgName, ProblemReportMsgName:
		return true
	}

	return false
}

// GetByID returns the exchange record with id.
func (s *Service) GetByID(id string) (*Record, error) {
	return s.repo.Get(id)
}

// GetAll returns every exchange record.
func (s *Service) GetAll() ([]*Record, error) {
	return s.repo.GetAll()
}

// FindByQuery returns the exchange records matching query.
func (s *Service) FindByQuery(query map[string]string) ([]*Record, error) {
	return s.repo.FindByQuery(query)
}

// FindByThreadID returns the exchange record of a thread.
func (s *Service) FindByThreadID(threadID string) (*Record, error) {
	return s.repo.FindByThreadID(threadID)
}

// DeleteByID removes the exchange record with id.
func (s *Service) DeleteByID(id string) error {
	rec, err := s.repo.Get(id)
	if err != nil {
		return err
	}

	unlock := s.locks.lock(rec.ThreadID)
	defer unlock()

	return s.repo.Delete(id)
}

// BuildProblemReport returns the problem report telling the other party why the exchange ended.
func (s *Service) BuildProblemReport(rec *Record, perr *ProblemReportError) (service.DIDCommMsgMap, error) {
	return service.NewDIDCommMsgMap(&ProblemReport{
		Type:   s.codec.messageType(ProblemReportMsgName),
		ID:     uuid.NewString(),
		Thread: &decorator.Thread{ID: rec.ThreadID, PID: rec.ParentThreadID},
		Description: ProblemDescription{
			Code: string(perr.Code),
			En:   perr.Error(),
		},
	})
}

func (s *Service) newRecord(role Role, threadID, connectionID string, autoAccept AutoAccept) *Record {
	now := s.now()

	return &Record{
		ID:                   uuid.NewString(),
		ThreadID:             threadID,
		ProtocolVersion:      s.codec.version(),
		Role:                 role,
		State:                StateStart,
		ConnectionID:         connectionID,
		AutoAcceptCredential: autoAccept,
		CreatedAt:            now,
		UpdatedAt:            now,
	}
}

// acquire loads a record and locks its thread. The returned function releases the lock.
func (s *Service) acquire(recordID string) (*Record, func(), error) {
	rec, err := s.repo.Get(recordID)
	if err != nil {
		return nil, nil, err
	}

	unlock := s.locks.lock(rec.ThreadID)

	// reload, the record may have changed while waiting for the lock
	rec, err = s.repo.Get(recordID)
	if err != nil {
		unlock()

		return nil, nil, err
	}

	if rec.ProtocolVersion != s.codec.version() {
		unlock()

		return nil, nil, fmt.Errorf("%w: record %s uses %s", ErrUnsupportedVersion, rec.ID, rec.ProtocolVersion)
	}

	return rec, unlock, nil
}

func (s *Service) checkTransition(rec *Record, next State) error {
	if !rec.State.CanTransitionTo(next) || !next.AllowedFor(rec.Role) {
		return fmt.Errorf("%w: %s cannot move from %q to %q", ErrInvalidTransition, rec.Role, rec.State, next)
	}

	return nil
}

// transition moves rec to next, persists it and emits the state event.
func (s *Service) transition(rec *Record, next State, msg service.DIDCommMsg) error {
	if err := s.checkTransition(rec, next); err != nil {
		return err
	}

	return s.save(rec, next, msg)
}

// abandon ends the exchange. Any non terminal state may be abandoned.
func (s *Service) abandon(rec *Record, reason string, msg service.DIDCommMsg) error {
	if rec.State.IsTerminal() {
		return fmt.Errorf("%w: exchange %s is %s", ErrInvalidTransition, rec.ID, rec.State)
	}

	rec.ErrorMessage = reason

	return s.save(rec, StateAbandoned, msg)
}

func (s *Service) save(rec *Record, next State, msg service.DIDCommMsg) error {
	prev := rec.State
	rec.State = next
	rec.UpdatedAt = s.now()

	if err := s.repo.Save(rec); err != nil {
		rec.State = prev

		return err
	}

	logger.Debugf("exchange %s (%s %s): %q -> %q", rec.ID, rec.ProtocolVersion, rec.Role, prev, next)

	dropped := s.Notify(service.StateMsg{
		ProtocolName: Name,
		Type:         service.PostState,
		StateID:      string(next),
		Msg:          msg,
		Properties:   &StateChanged{Record: rec.clone(), PreviousState: prev},
	})
	if dropped > 0 {
		logger.Warnf("exchange %s: state %q not delivered to %d subscribers", rec.ID, next, dropped)
	}

	return nil
}

func (s *Service) checkConnection(ctx context.Context, connectionID string) error {
	if s.lookup == nil {
		return nil
	}

	_, err := s.lookup.GetConnection(ctx, connectionID)
	if errors.Is(err, service.ErrConnectionNotFound) {
		return newValidationError(fmt.Errorf("connection %s: %w", connectionID, err))
	}

	if err != nil {
		return fmt.Errorf("lookup connection %s: %w", connectionID, err)
	}

	return nil
}

// formatsFor returns the format services that have a payload in formats.
func (s *Service) formatsFor(formats *CredentialFormats) ([]FormatService, error) {
	var selected []FormatService

	for _, f := range s.formats {
		if f.HasPayload(formats) {
			selected = append(selected, f)
		}
	}

	if formats.Indy != nil && !containsType(selected, FormatIndy) ||
		formats.JSONLD != nil && !containsType(selected, FormatJSONLD) {
		return nil, newValidationError(fmt.Errorf("%w for %s", ErrUnsupportedFormat, s.codec.version()))
	}

	return selected, nil
}

// formatsIn returns the format services that have an attachment in msg.
func (s *Service) formatsIn(msg *inboundMessage) []FormatService {
	var selected []FormatService

	for _, f := range s.formats {
		if msg.attachment(f) != nil {
			selected = append(selected, f)
		}
	}

	return selected
}

func (s *Service) formatFor(format string) FormatService {
	for _, f := range s.formats {
		if f.Supports(format) {
			return f
		}
	}

	return nil
}

// stored decodes the message of phase kept in rec, or returns nil when there is none.
func (s *Service) stored(rec *Record, phase Phase) (*inboundMessage, error) {
	raw := rec.Message(phase)
	if raw == nil {
		return nil, nil
	}

	msg, err := s.codec.decode(phase, raw)
	if err != nil {
		return nil, fmt.Errorf("stored %s of %s: %w", phase, rec.ID, err)
	}

	return msg, nil
}

func containsType(formats []FormatService, t FormatType) bool {
	for _, f := range formats {
		if f.Type() == t {
			return true
		}
	}

	return false
}

func mergeFormats(a, b []FormatService) []FormatService {
	merged := append([]FormatService(nil), a...)

	for _, f := range b {
		if !containsType(merged, f.Type()) {
			merged = append(merged, f)
		}
	}

	return merged
}

// reportable returns the problem report error carried by err. Malformed attachments are reported with code.
func reportable(err error, code ProblemCode) *ProblemReportError {
	var perr *ProblemReportError
	if errors.As(err, &perr) {
		return perr
	}

	var derr *decorator.DecodeError
	if errors.As(err, &derr) {
		return &ProblemReportError{Code: code, Message: "malformed attachment", Err: err}
	}

	return nil
}

func isDuplicate(rec *Record, phase Phase, msgID string, target State) bool {
	if stored := rec.Message(phase); stored != nil && msgID != "" && stored.ID() == msgID {
		return true
	}

	return rec.State == target || rec.State.passed(target)
}

func ensureResponse(opts *ResponseOptions) *ResponseOptions {
	if opts == nil {
		return &ResponseOptions{}
	}

	return opts
}

// Services holds the protocol service of each version.
type Services struct {
	V1 ProtocolService
	V2 ProtocolService
}

// ForVersion returns the protocol service of v.
func (s Services) ForVersion(v ProtocolVersion) (ProtocolService, error) {
	var svc ProtocolService

	switch v {
	case V1:
		svc = s.V1
	case V2:
		svc = s.V2
	}

	if svc == nil {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedVersion, v)
	}

	return svc, nil
}

// ForMessage returns the protocol service of the version of msgType.
func (s Services) ForMessage(msgType string) (ProtocolService, error) {
	v, ok := VersionOf(msgType)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedMessage, msgType)
	}

	return s.ForVersion(v)
}
