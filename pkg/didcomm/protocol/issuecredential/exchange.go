/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package issuecredential

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/hyperledger/aries-credentials-go/pkg/didcomm/common/service"
	"github.com/hyperledger/aries-credentials-go/pkg/didcomm/protocol/decorator"
)

// applyFunc runs the format service part of an inbound message.
type applyFunc func(ctx context.Context, f FormatService, rec *Record, att *decorator.Attachment) error

// inboundStep describes how an inbound message of a phase moves an exchange.
type inboundStep struct {
	phase  Phase
	target State
	// role of the record created when the message starts an exchange; empty when it cannot.
	startRole Role
	problem   ProblemCode
	apply     applyFunc
}

// CreateProposal starts an exchange as holder.
func (s *Service) CreateProposal(ctx context.Context,
	opts *CreateProposalOptions) (*Record, service.DIDCommMsgMap, error) {
	if opts == nil || opts.CredentialFormats.Empty() {
		return nil, nil, newValidationError(ErrMissingProposalPayload)
	}

	formats, err := s.formatsFor(&opts.CredentialFormats)
	if err != nil {
		return nil, nil, err
	}

	if err = s.checkConnection(ctx, opts.ConnectionID); err != nil {
		return nil, nil, err
	}

	msgID := uuid.NewString()
	rec := s.newRecord(RoleHolder, msgID, opts.ConnectionID, opts.AutoAcceptCredential)
	out := &outboundMessage{phase: PhaseProposal, id: msgID, comment: opts.Comment}

	for _, f := range formats {
		fa, err := f.CreateProposal(ctx, rec, &opts.CredentialFormats)
		if err != nil {
			return nil, nil, fmt.Errorf("%s proposal: %w", f.Type(), err)
		}

		out.add(fa)
		rec.SetBinding(f.Type(), rec.ID)
	}

	return s.send(rec, out, StateProposalSent)
}

// ProcessProposal handles a proposal received by the issuer.
func (s *Service) ProcessProposal(ctx context.Context, msg service.DIDCommMsg, connectionID string) (*Record, error) {
	return s.process(ctx, msg, connectionID, &inboundStep{
		phase:     PhaseProposal,
		target:    StateProposalReceived,
		startRole: RoleIssuer,
		problem:   ProblemIssuanceAbandoned,
		apply: func(ctx context.Context, f FormatService, rec *Record, att *decorator.Attachment) error {
			return f.ProcessProposal(ctx, rec, att)
		},
	})
}

// AcceptProposal answers a proposal with an offer built from it.
func (s *Service) AcceptProposal(ctx context.Context, recordID string,
	opts *ResponseOptions) (*Record, service.DIDCommMsgMap, error) {
	return s.offer(ctx, recordID, ensureResponse(opts), false)
}

// NegotiateProposal answers a proposal with an offer carrying different content.
func (s *Service) NegotiateProposal(ctx context.Context, recordID string,
	opts *ResponseOptions) (*Record, service.DIDCommMsgMap, error) {
	opts = ensureResponse(opts)
	if opts.CredentialFormats.Empty() {
		return nil, nil, newValidationError(ErrMissingProposalPayload)
	}

	return s.offer(ctx, recordID, opts, true)
}

func (s *Service) offer(ctx context.Context, recordID string, opts *ResponseOptions,
	negotiate bool) (*Record, service.DIDCommMsgMap, error) {
	requested, err := s.formatsFor(&opts.CredentialFormats)
	if err != nil {
		return nil, nil, err
	}

	rec, unlock, err := s.acquire(recordID)
	if err != nil {
		return nil, nil, err
	}

	defer unlock()

	if err = s.checkTransition(rec, StateOfferSent); err != nil {
		return nil, nil, err
	}

	proposal, err := s.stored(rec, PhaseProposal)
	if err != nil {
		return nil, nil, err
	}

	formats := s.formatsIn(proposal)
	if negotiate {
		formats = mergeFormats(requested, formats)
	}

	if len(formats) == 0 {
		return nil, nil, newValidationError(ErrMissingProposalPayload)
	}

	rec = rec.clone()
	rec.adopt(proposal)

	out := s.reply(rec, PhaseOffer, opts.Comment, opts.Service)

	for _, f := range formats {
		var att *decorator.Attachment
		if !negotiate || !f.HasPayload(&opts.CredentialFormats) {
			att = proposal.attachment(f)
		}

		fa, err := f.CreateOffer(ctx, rec, &opts.CredentialFormats, att)
		if err != nil {
			return s.failOutbound(rec, fmt.Errorf("%s offer: %w", f.Type(), err))
		}

		out.add(fa)
	}

	s.override(rec, opts.AutoAcceptCredential)

	return s.send(rec, out, StateOfferSent)
}

// CreateOffer starts an exchange as issuer. Without a connection the offer is meant to be
// delivered out of band and carries the issuer service.
func (s *Service) CreateOffer(ctx context.Context, opts *CreateOfferOptions) (*Record, service.DIDCommMsgMap, error) {
	if opts == nil || opts.CredentialFormats.Empty() {
		return nil, nil, newValidationError(ErrMissingProposalPayload)
	}

	if opts.ConnectionID == "" && opts.Service == nil {
		return nil, nil, newValidationError(ErrNoReplyRoute)
	}

	formats, err := s.formatsFor(&opts.CredentialFormats)
	if err != nil {
		return nil, nil, err
	}

	if opts.ConnectionID != "" {
		if err = s.checkConnection(ctx, opts.ConnectionID); err != nil {
			return nil, nil, err
		}
	}

	msgID := uuid.NewString()
	rec := s.newRecord(RoleIssuer, msgID, opts.ConnectionID, opts.AutoAcceptCredential)
	out := &outboundMessage{phase: PhaseOffer, id: msgID, comment: opts.Comment, service: opts.Service}

	for _, f := range formats {
		fa, err := f.CreateOffer(ctx, rec, &opts.CredentialFormats, nil)
		if err != nil {
			return nil, nil, fmt.Errorf("%s offer: %w", f.Type(), err)
		}

		out.add(fa)
		rec.SetBinding(f.Type(), rec.ID)
	}

	return s.send(rec, out, StateOfferSent)
}

// ProcessOffer handles an offer received by the holder.
func (s *Service) ProcessOffer(ctx context.Context, msg service.DIDCommMsg, connectionID string) (*Record, error) {
	return s.process(ctx, msg, connectionID, &inboundStep{
		phase:     PhaseOffer,
		target:    StateOfferReceived,
		startRole: RoleHolder,
		problem:   ProblemInvalidOffer,
		apply: func(ctx context.Context, f FormatService, rec *Record, att *decorator.Attachment) error {
			return f.ProcessOffer(ctx, rec, att)
		},
	})
}

// AcceptOffer answers an offer with a credential request.
func (s *Service) AcceptOffer(ctx context.Context, recordID string,
	opts *ResponseOptions) (*Record, service.DIDCommMsgMap, error) {
	opts = ensureResponse(opts)

	rec, unlock, err := s.acquire(recordID)
	if err != nil {
		return nil, nil, err
	}

	defer unlock()

	if err = s.checkTransition(rec, StateRequestSent); err != nil {
		return nil, nil, err
	}

	offer, err := s.stored(rec, PhaseOffer)
	if err != nil {
		return nil, nil, err
	}

	formats := s.formatsIn(offer)
	if len(formats) == 0 {
		return nil, nil, ErrMissingOffer
	}

	rec = rec.clone()
	rec.adopt(offer)

	out := s.reply(rec, PhaseRequest, opts.Comment, opts.Service)

	for _, f := range formats {
		fa, err := f.CreateRequest(ctx, rec, &opts.CredentialFormats, offer.attachment(f))
		if err != nil {
			return s.failOutbound(rec, fmt.Errorf("%s request: %w", f.Type(), err))
		}

		out.add(fa)
	}

	s.override(rec, opts.AutoAcceptCredential)

	return s.send(rec, out, StateRequestSent)
}

// NegotiateOffer answers an offer with a new proposal.
func (s *Service) NegotiateOffer(ctx context.Context, recordID string,
	opts *ResponseOptions) (*Record, service.DIDCommMsgMap, error) {
	opts = ensureResponse(opts)
	if opts.CredentialFormats.Empty() {
		return nil, nil, newValidationError(ErrMissingProposalPayload)
	}

	formats, err := s.formatsFor(&opts.CredentialFormats)
	if err != nil {
		return nil, nil, err
	}

	rec, unlock, err := s.acquire(recordID)
	if err != nil {
		return nil, nil, err
	}

	defer unlock()

	if err = s.checkTransition(rec, StateProposalSent); err != nil {
		return nil, nil, err
	}

	rec = rec.clone()
	out := s.reply(rec, PhaseProposal, opts.Comment, nil)

	for _, f := range formats {
		fa, err := f.CreateProposal(ctx, rec, &opts.CredentialFormats)
		if err != nil {
			return s.failOutbound(rec, fmt.Errorf("%s proposal: %w", f.Type(), err))
		}

		out.add(fa)
		rec.SetBinding(f.Type(), rec.ID)
	}

	s.override(rec, opts.AutoAcceptCredential)

	return s.send(rec, out, StateProposalSent)
}

// DeclineOffer abandons the exchange and returns the problem report telling the issuer.
func (s *Service) DeclineOffer(ctx context.Context, recordID, reason string) (*Record, service.DIDCommMsgMap, error) {
	if reason == "" {
		reason = "offer declined"
	}

	return s.problemReport(ctx, recordID, ProblemOfferDeclined, reason, StateOfferReceived)
}

// ProcessRequest handles a request received by the issuer.
func (s *Service) ProcessRequest(ctx context.Context, msg service.DIDCommMsg, connectionID string) (*Record, error) {
	return s.process(ctx, msg, connectionID, &inboundStep{
		phase:   PhaseRequest,
		target:  StateRequestReceived,
		problem: ProblemInvalidRequest,
		apply: func(ctx context.Context, f FormatService, rec *Record, att *decorator.Attachment) error {
			return f.ProcessRequest(ctx, rec, att)
		},
	})
}

// AcceptRequest issues the credential.
func (s *Service) AcceptRequest(ctx context.Context, recordID string,
	opts *ResponseOptions) (*Record, service.DIDCommMsgMap, error) {
	opts = ensureResponse(opts)

	rec, unlock, err := s.acquire(recordID)
	if err != nil {
		return nil, nil, err
	}

	defer unlock()

	if err = s.checkTransition(rec, StateCredentialIssued); err != nil {
		return nil, nil, err
	}

	request, err := s.stored(rec, PhaseRequest)
	if err != nil {
		return nil, nil, err
	}

	offer, err := s.stored(rec, PhaseOffer)
	if err != nil {
		return nil, nil, err
	}

	rec = rec.clone()
	out := s.reply(rec, PhaseCredential, opts.Comment, opts.Service)
	out.pleaseAck = true

	for _, f := range s.formatsIn(request) {
		fa, err := f.CreateCredential(ctx, rec, &opts.CredentialFormats, offer.attachment(f), request.attachment(f))
		if err != nil {
			return s.failOutbound(rec, fmt.Errorf("%s credential: %w", f.Type(), err))
		}

		out.add(fa)
	}

	return s.send(rec, out, StateCredentialIssued)
}

// ProcessCredential handles the credential received by the holder.
func (s *Service) ProcessCredential(ctx context.Context, msg service.DIDCommMsg, connectionID string) (*Record, error) {
	return s.process(ctx, msg, connectionID, &inboundStep{
		phase:   PhaseCredential,
		target:  StateCredentialReceived,
		problem: ProblemInvalidCredential,
		apply: func(ctx context.Context, f FormatService, rec *Record, att *decorator.Attachment) error {
			id, err := f.ProcessCredential(ctx, rec, att)
			if err != nil {
				return err
			}

			rec.SetBinding(f.Type(), id)

			if rec.CredentialID == "" {
				rec.CredentialID = id
			}

			return nil
		},
	})
}

// AcceptCredential acknowledges the credential and completes the exchange.
func (s *Service) AcceptCredential(_ context.Context, recordID string) (*Record, service.DIDCommMsgMap, error) {
	rec, unlock, err := s.acquire(recordID)
	if err != nil {
		return nil, nil, err
	}

	defer unlock()

	if err = s.checkTransition(rec, StateDone); err != nil {
		return nil, nil, err
	}

	ack, err := service.NewDIDCommMsgMap(&Ack{
		Type:   s.codec.messageType(AckMsgName),
		ID:     uuid.NewString(),
		Thread: &decorator.Thread{ID: rec.ThreadID, PID: rec.ParentThreadID},
		Status: "OK",
	})
	if err != nil {
		return nil, nil, err
	}

	rec = rec.clone()

	if err = s.transition(rec, StateDone, ack); err != nil {
		return nil, nil, err
	}

	return rec, ack, nil
}

// ProcessAck completes the exchange on the issuer side.
func (s *Service) ProcessAck(_ context.Context, msg service.DIDCommMsg) (*Record, error) {
	thid, err := msg.ThreadID()
	if err != nil {
		return nil, fmt.Errorf("ack: %w", err)
	}

	unlock := s.locks.lock(thid)
	defer unlock()

	rec, err := s.repo.FindByThreadID(thid)
	if err != nil {
		return nil, err
	}

	if rec.State == StateDone {
		return rec, ErrDuplicateMessage
	}

	rec = rec.clone()

	if err = s.transition(rec, StateDone, msg); err != nil {
		return rec, err
	}

	return rec, nil
}

// CreateProblemReport abandons the exchange and returns the problem report for the other party.
func (s *Service) CreateProblemReport(ctx context.Context, recordID,
	description string) (*Record, service.DIDCommMsgMap, error) {
	return s.problemReport(ctx, recordID, ProblemIssuanceAbandoned, description, "")
}

func (s *Service) problemReport(_ context.Context, recordID string, code ProblemCode, description string,
	from State) (*Record, service.DIDCommMsgMap, error) {
	rec, unlock, err := s.acquire(recordID)
	if err != nil {
		return nil, nil, err
	}

	defer unlock()

	if from != "" && rec.State != from {
		return nil, nil, fmt.Errorf("%w: exchange %s is %q", ErrInvalidTransition, rec.ID, rec.State)
	}

	perr := &ProblemReportError{Code: code, Message: description}

	report, err := s.BuildProblemReport(rec, perr)
	if err != nil {
		return nil, nil, err
	}

	rec = rec.clone()

	if err = s.abandon(rec, perr.Error(), report); err != nil {
		return nil, nil, err
	}

	return rec, report, nil
}

// ProcessProblemReport abandons the exchange the other party reported a problem for.
func (s *Service) ProcessProblemReport(_ context.Context, msg service.DIDCommMsg) (*Record, error) {
	thid, err := msg.ThreadID()
	if err != nil {
		return nil, fmt.Errorf("problem report: %w", err)
	}

	report := ProblemReport{}
	if err = msg.Decode(&report); err != nil {
		return nil, fmt.Errorf("decode problem report: %w", err)
	}

	unlock := s.locks.lock(thid)
	defer unlock()

	rec, err := s.repo.FindByThreadID(thid)
	if err != nil {
		return nil, err
	}

	if rec.State == StateAbandoned {
		return rec, ErrDuplicateMessage
	}

	reason := report.Description.Code
	if report.Description.En != "" {
		reason = report.Description.En
	}

	rec = rec.clone()

	if err = s.abandon(rec, reason, msg); err != nil {
		return rec, err
	}

	return rec, nil
}

// process runs an inbound message of a phase.
func (s *Service) process(ctx context.Context, msg service.DIDCommMsg, connectionID string,
	step *inboundStep) (*Record, error) {
	in, err := s.codec.decode(step.phase, msg)
	if err != nil {
		return nil, err
	}

	unlock := s.locks.lock(in.threadID)
	defer unlock()

	rec, err := s.repo.FindByThreadID(in.threadID)

	switch {
	case errors.Is(err, ErrRecordNotFound) && step.startRole != "":
		rec = s.newRecord(step.startRole, in.threadID, connectionID, AutoAcceptUnset)
		rec.ParentThreadID = in.parentThreadID
	case err != nil:
		return nil, err
	case rec.ConnectionID != "" && rec.ConnectionID != connectionID:
		logger.Warnf("exchange %s: %s %s arrived on connection %q", rec.ID, step.phase, in.id, connectionID)

		return nil, fmt.Errorf("%w: exchange %s", ErrConnectionMismatch, rec.ID)
	case isDuplicate(rec, step.phase, in.id, step.target):
		logger.Warnf("exchange %s: duplicate %s %s in state %q", rec.ID, step.phase, in.id, rec.State)

		return rec, ErrDuplicateMessage
	default:
		rec = rec.clone()
	}

	if err = s.checkTransition(rec, step.target); err != nil {
		return rec, err
	}

	if rec.ConnectionID == "" {
		rec.ConnectionID = connectionID
	}

	if in.service != nil {
		rec.Service = in.service
	}

	if err = s.applyFormats(ctx, rec, in, step); err != nil {
		perr := reportable(err, step.problem)
		if perr == nil {
			return nil, err
		}

		rec.setMessage(step.phase, in.raw)

		if err = s.abandon(rec, perr.Error(), msg); err != nil {
			return nil, err
		}

		return rec, perr
	}

	// the values of a received preview are adopted on accept, after the auto-accept vote.
	if len(rec.CredentialAttributes) == 0 {
		rec.adopt(in)
	}

	rec.setMessage(step.phase, in.raw)

	if err = s.transition(rec, step.target, msg); err != nil {
		return nil, err
	}

	return rec, nil
}

func (s *Service) applyFormats(ctx context.Context, rec *Record, in *inboundMessage, step *inboundStep) error {
	if err := in.validate(); err != nil {
		return err
	}

	if len(in.formats) == 0 {
		return NewProblemReportError(step.problem, ErrMissingAttachment, "%s carries no credential format", step.phase)
	}

	for _, f := range in.formats {
		svc := s.formatFor(f.Format)
		if svc == nil {
			return NewProblemReportError(ProblemIssuanceAbandoned, ErrUnsupportedFormat, "format %s", f.Format)
		}

		if err := step.apply(ctx, svc, rec, in.attachment(svc)); err != nil {
			return fmt.Errorf("%s %s: %w", svc.Type(), step.phase, err)
		}

		if step.startRole != "" {
			if _, ok := rec.Binding(svc.Type()); !ok {
				rec.SetBinding(svc.Type(), rec.ID)
			}
		}
	}

	return nil
}

// reply returns the outbound message of a phase continuing the thread of rec.
func (s *Service) reply(rec *Record, phase Phase, comment string, own *decorator.Service) *outboundMessage {
	return &outboundMessage{
		phase:   phase,
		id:      uuid.NewString(),
		thread:  &decorator.Thread{ID: rec.ThreadID, PID: rec.ParentThreadID},
		comment: comment,
		service: own,
	}
}

// send encodes out, stores it in rec and moves rec to next.
func (s *Service) send(rec *Record, out *outboundMessage, next State) (*Record, service.DIDCommMsgMap, error) {
	msg, err := s.codec.encode(out)
	if err != nil {
		return nil, nil, err
	}

	if out.preview != nil {
		rec.CredentialAttributes = out.preview.Attributes
	}

	if len(out.linked) > 0 {
		rec.LinkedAttachments = out.linked
	}

	rec.setMessage(out.phase, msg)

	if err = s.transition(rec, next, msg); err != nil {
		return nil, nil, err
	}

	return rec, msg, nil
}

// adopt takes the preview and linked attachments of a received message as the values of the exchange.
func (r *Record) adopt(in *inboundMessage) {
	if in == nil {
		return
	}

	if in.preview != nil {
		r.CredentialAttributes = in.preview.Attributes
	}

	if len(in.linked) > 0 {
		r.LinkedAttachments = in.linked
	}
}

// failOutbound abandons the exchange when a format service reports a problem.
func (s *Service) failOutbound(rec *Record, err error) (*Record, service.DIDCommMsgMap, error) {
	perr := reportable(err, ProblemIssuanceAbandoned)
	if perr == nil {
		return nil, nil, err
	}

	if abandonErr := s.abandon(rec, perr.Error(), nil); abandonErr != nil {
		return nil, nil, abandonErr
	}

	return rec, nil, perr
}

func (s *Service) override(rec *Record, autoAccept AutoAccept) {
	if autoAccept != AutoAcceptUnset {
		rec.AutoAcceptCredential = autoAccept
	}
}

// ShouldAutoRespondToProposal reports whether the issuer answers the stored proposal without approval.
func (s *Service) ShouldAutoRespondToProposal(rec *Record) (bool, error) {
	return s.shouldAutoRespond(rec, PhaseProposal, FormatService.ShouldAutoRespondToProposal)
}

// ShouldAutoRespondToOffer reports whether the holder answers the stored offer without approval.
func (s *Service) ShouldAutoRespondToOffer(rec *Record) (bool, error) {
	return s.shouldAutoRespond(rec, PhaseOffer, FormatService.ShouldAutoRespondToOffer)
}

// ShouldAutoRespondToRequest reports whether the issuer issues the credential without approval.
func (s *Service) ShouldAutoRespondToRequest(rec *Record) (bool, error) {
	return s.shouldAutoRespond(rec, PhaseRequest, FormatService.ShouldAutoRespondToRequest)
}

// ShouldAutoRespondToCredential reports whether the holder acknowledges the credential without approval.
func (s *Service) ShouldAutoRespondToCredential(rec *Record) (bool, error) {
	return s.shouldAutoRespond(rec, PhaseCredential, FormatService.ShouldAutoRespondToCredential)
}

func (s *Service) shouldAutoRespond(rec *Record, phase Phase,
	vote func(FormatService, *AutoRespondInput) bool) (bool, error) {
	policy := ComposeAutoAccept(rec.AutoAcceptCredential, s.autoAccept)
	if policy != AutoAcceptContentApproved {
		return Decide(policy), nil
	}

	msgs := map[Phase]*inboundMessage{}

	for _, p := range []Phase{PhaseProposal, PhaseOffer, PhaseRequest, PhaseCredential} {
		m, err := s.stored(rec, p)
		if err != nil {
			return false, err
		}

		msgs[p] = m
	}

	evaluated := msgs[phase]
	if evaluated == nil {
		return false, nil
	}

	var votes []bool

	for _, f := range s.formatsIn(evaluated) {
		votes = append(votes, vote(f, &AutoRespondInput{
			Record:     rec,
			Preview:    evaluated.preview,
			Proposal:   msgs[PhaseProposal].attachment(f),
			Offer:      msgs[PhaseOffer].attachment(f),
			Request:    msgs[PhaseRequest].attachment(f),
			Credential: msgs[PhaseCredential].attachment(f),
		}))
	}

	return Decide(policy, votes...), nil
}
