/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package issuecredential

import (
	"context"
	"errors"
	"fmt"

	"github.com/hyperledger/aries-credentials-go/pkg/didcomm/common/service"
)

// InboundHandler dispatches received issue-credential messages to the protocol service of their
// version, runs the middleware chain and sends the automatic responses.
type InboundHandler struct {
	services   Services
	messenger  service.Messenger
	middleware Handler
}

// NewInboundHandler returns the inbound handler of services.
func NewInboundHandler(services Services, messenger service.Messenger) *InboundHandler {
	h := &InboundHandler{services: services, messenger: messenger}
	h.middleware = HandlerFunc(h.autoRespond)

	return h
}

// Use allows providing middlewares. They run after a message is processed and before the
// automatic response.
func (h *InboundHandler) Use(items ...Middleware) {
	var handler Handler = HandlerFunc(h.autoRespond)
	for i := len(items) - 1; i >= 0; i-- {
		handler = items[i](handler)
	}

	h.middleware = handler
}

// Accept reports whether msgType is an issue-credential message of a configured version.
func (h *InboundHandler) Accept(msgType string) bool {
	svc, err := h.services.ForMessage(msgType)
	if err != nil {
		return false
	}

	return svc.Accept(msgType)
}

// HandleInbound handles a message received on connectionID. Only messages that are not part of the
// protocol return an error. Rejected messages are answered with a problem report; failures of the
// agent, of the middleware and of the automatic response are logged.
func (h *InboundHandler) HandleInbound(ctx context.Context, msg service.DIDCommMsg, connectionID string) error {
	logger.Debugf("handling inbound %s %s", msg.Type(), msg.ID())

	svc, err := h.services.ForMessage(msg.Type())
	if err != nil {
		return err
	}

	if !svc.Accept(msg.Type()) {
		return fmt.Errorf("%w: %s", ErrUnsupportedMessage, msg.Type())
	}

	var rec *Record

	switch messageName(msg.Type()) {
	case ProposeCredentialMsgName:
		rec, err = svc.ProcessProposal(ctx, msg, connectionID)
	case OfferCredentialMsgName:
		rec, err = svc.ProcessOffer(ctx, msg, connectionID)
	case RequestCredentialMsgName:
		rec, err = svc.ProcessRequest(ctx, msg, connectionID)
	case IssueCredentialMsgName:
		rec, err = svc.ProcessCredential(ctx, msg, connectionID)
	case AckMsgName:
		rec, err = svc.ProcessAck(ctx, msg)
	case ProblemReportMsgName:
		rec, err = svc.ProcessProblemReport(ctx, msg)
	}

	if err != nil {
		h.handleError(ctx, svc, rec, msg, err)

		return nil
	}

	err = h.middleware.Handle(ctx, &metadata{msg: msg, rec: rec, connectionID: connectionID, svc: svc})
	if err != nil {
		logger.Errorf("exchange %s: handling %s %s: %v", rec.ID, msg.Type(), msg.ID(), err)
	}

	return nil
}

func (h *InboundHandler) handleError(ctx context.Context, svc ProtocolService, rec *Record,
	msg service.DIDCommMsg, err error) {
	var perr *ProblemReportError

	switch {
	case errors.Is(err, ErrDuplicateMessage):
		logger.Warnf("ignoring duplicate %s %s", msg.Type(), msg.ID())
	case errors.As(err, &perr) && rec != nil:
		logger.Warnf("exchange %s abandoned: %v", rec.ID, perr)

		if err = h.sendProblemReport(ctx, svc, rec, perr); err != nil {
			logger.Errorf("problem report for %s: %v", rec.ID, err)
		}
	case errors.Is(err, ErrRecordNotFound), errors.Is(err, ErrInvalidTransition),
		errors.Is(err, ErrConnectionMismatch), errors.As(err, &perr):
		logger.Warnf("dropping %s %s: %v", msg.Type(), msg.ID(), err)
	default:
		logger.Errorf("handle %s %s: %v", msg.Type(), msg.ID(), err)
	}
}

// autoRespond answers the received message when the auto-accept policy of the exchange allows it.
func (h *InboundHandler) autoRespond(ctx context.Context, md Metadata) error {
	rec, svc := md.Record(), md.Service()

	var (
		should  func(*Record) (bool, error)
		respond func() (*Record, service.DIDCommMsgMap, error)
	)

	switch rec.State {
	case StateProposalReceived:
		should = svc.ShouldAutoRespondToProposal
		respond = func() (*Record, service.DIDCommMsgMap, error) { return svc.AcceptProposal(ctx, rec.ID, nil) }
	case StateOfferReceived:
		should = svc.ShouldAutoRespondToOffer
		respond = func() (*Record, service.DIDCommMsgMap, error) { return svc.AcceptOffer(ctx, rec.ID, nil) }
	case StateRequestReceived:
		should = svc.ShouldAutoRespondToRequest
		respond = func() (*Record, service.DIDCommMsgMap, error) { return svc.AcceptRequest(ctx, rec.ID, nil) }
	case StateCredentialReceived:
		should = svc.ShouldAutoRespondToCredential
		respond = func() (*Record, service.DIDCommMsgMap, error) { return svc.AcceptCredential(ctx, rec.ID) }
	default:
		return nil
	}

	ok, err := should(rec)
	if err != nil {
		return fmt.Errorf("auto-accept %s: %w", rec.ID, err)
	}

	if !ok {
		logger.Debugf("exchange %s waits in %q for the application", rec.ID, rec.State)

		return nil
	}

	updated, reply, err := respond()

	var perr *ProblemReportError
	if errors.As(err, &perr) && updated != nil {
		return h.sendProblemReport(ctx, svc, updated, perr)
	}

	if err != nil {
		return fmt.Errorf("auto-respond %s: %w", rec.ID, err)
	}

	return Send(ctx, h.messenger, updated, reply)
}

func (h *InboundHandler) sendProblemReport(ctx context.Context, svc ProtocolService, rec *Record,
	perr *ProblemReportError) error {
	report, err := svc.BuildProblemReport(rec, perr)
	if err != nil {
		return err
	}

	if err = Send(ctx, h.messenger, rec, report); err != nil {
		logger.Errorf("problem report for %s not sent: %v", rec.ID, err)
	}

	return nil
}

// Send delivers msg to the other party of rec: over its connection, or to the service the other
// party advertised for connection-less exchanges.
func Send(ctx context.Context, messenger service.Messenger, rec *Record, msg service.DIDCommMsgMap) error {
	switch {
	case rec.ConnectionID != "":
		return messenger.Send(ctx, msg, rec.ConnectionID)
	case rec.Service != nil:
		return messenger.SendToService(ctx, msg, rec.Service)
	default:
		return fmt.Errorf("exchange %s: %w", rec.ID, ErrNoReplyRoute)
	}
}
