/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package issuecredential

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/hyperledger/aries-framework-go/component/log"

	"github.com/hyperledger/aries-credentials-go/pkg/client/issuecredential"
	"github.com/hyperledger/aries-credentials-go/pkg/controller/command"
	"github.com/hyperledger/aries-credentials-go/pkg/controller/internal/cmdutil"
	"github.com/hyperledger/aries-credentials-go/pkg/controller/webnotifier"
	"github.com/hyperledger/aries-credentials-go/pkg/didcomm/common/service"
	protocol "github.com/hyperledger/aries-credentials-go/pkg/didcomm/protocol/issuecredential"
	"github.com/hyperledger/aries-credentials-go/pkg/internal/logutil"
)

var logger = log.New("aries-framework/controller/issuecredential")

const (
	// InvalidRequestErrorCode is typically a code for validation errors
	// for invalid issue credential controller requests.
	InvalidRequestErrorCode = command.Code(iota + command.IssueCredential)
	// ProposeCredentialErrorCode is for failures in propose credential command.
	ProposeCredentialErrorCode
	// AcceptProposalErrorCode is for failures in accept proposal command.
	AcceptProposalErrorCode
	// NegotiateProposalErrorCode is for failures in negotiate proposal command.
	NegotiateProposalErrorCode
	// OfferCredentialErrorCode is for failures in offer credential command.
	OfferCredentialErrorCode
	// CreateOfferErrorCode is for failures in create offer command.
	CreateOfferErrorCode
	// AcceptOfferErrorCode is for failures in accept offer command.
	AcceptOfferErrorCode
	// NegotiateOfferErrorCode is for failures in negotiate offer command.
	NegotiateOfferErrorCode
	// DeclineOfferErrorCode is for failures in decline offer command.
	DeclineOfferErrorCode
	// AcceptRequestErrorCode is for failures in accept request command.
	AcceptRequestErrorCode
	// AcceptCredentialErrorCode is for failures in accept credential command.
	AcceptCredentialErrorCode
	// SendProblemReportErrorCode is for failures in send problem report command.
	SendProblemReportErrorCode
	// GetRecordErrorCode is for failures in get record command.
	GetRecordErrorCode
	// GetRecordsErrorCode is for failures in get records command.
	GetRecordsErrorCode
	// DeleteRecordErrorCode is for failures in delete record command.
	DeleteRecordErrorCode
)

// constants for issue credential commands.
const (
	// command name.
	CommandName = "issuecredential"

	ProposeCredential = "ProposeCredential"
	AcceptProposal    = "AcceptProposal"
	NegotiateProposal = "NegotiateProposal"
	OfferCredential   = "OfferCredential"
	CreateOffer       = "CreateOffer"
	AcceptOffer       = "AcceptOffer"
	NegotiateOffer    = "NegotiateOffer"
	DeclineOffer      = "DeclineOffer"
	AcceptRequest     = "AcceptRequest"
	AcceptCredential  = "AcceptCredential"
	SendProblemReport = "SendProblemReport"
	GetRecord         = "GetRecord"
	GetRecords        = "GetRecords"
	DeleteRecord      = "DeleteRecord"
)

const (
	// error messages.
	errEmptyRecordID          = "empty RecordID"
	errEmptyProposeCredential = "empty ProposeCredential"
	errEmptyOfferCredential   = "empty OfferCredential"
	errEmptyResponseOptions   = "empty Options"
	// log constants.
	successString = "success"

	// StatesTopic is the topic of the state changes sent to the notifier.
	StatesTopic = protocol.Name + "_states"

	stateChannelSize = 64
)

// Command is controller command for issue credential.
type Command struct {
	client *issuecredential.Client
}

// New returns new issue credential controller command instance. State changes of the exchanges are
// published to notifier under StatesTopic.
func New(ctx issuecredential.Provider, notifier command.Notifier, opts ...protocol.Option) (*Command, error) {
	client, err := issuecredential.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("cannot create a client: %w", err)
	}

	if notifier != nil {
		// creates state channel
		states := make(chan service.StateMsg, stateChannelSize)
		// registers state channel to listen for events
		if err = client.RegisterMsgEvent(states); err != nil {
			return nil, fmt.Errorf("register msg event: %w", err)
		}

		webnotifier.NewObserver(notifier).RegisterStateMsg(StatesTopic, states)
	}

	return &Command{client: client}, nil
}

// Client returns the client the command runs on, typically to deliver inbound messages.
func (c *Command) Client() *issuecredential.Client {
	return c.client
}

// GetHandlers returns list of all commands supported by this controller command.
func (c *Command) GetHandlers() []command.Handler {
	return []command.Handler{
		cmdutil.NewCommandHandler(CommandName, ProposeCredential, c.ProposeCredential),
		cmdutil.NewCommandHandler(CommandName, AcceptProposal, c.AcceptProposal),
		cmdutil.NewCommandHandler(CommandName, NegotiateProposal, c.NegotiateProposal),
		cmdutil.NewCommandHandler(CommandName, OfferCredential, c.OfferCredential),
		cmdutil.NewCommandHandler(CommandName, CreateOffer, c.CreateOffer),
		cmdutil.NewCommandHandler(CommandName, AcceptOffer, c.AcceptOffer),
		cmdutil.NewCommandHandler(CommandName, NegotiateOffer, c.NegotiateOffer),
		cmdutil.NewCommandHandler(CommandName, DeclineOffer, c.DeclineOffer),
		cmdutil.NewCommandHandler(CommandName, AcceptRequest, c.AcceptRequest),
		cmdutil.NewCommandHandler(CommandName, AcceptCredential, c.AcceptCredential),
		cmdutil.NewCommandHandler(CommandName, SendProblemReport, c.SendProblemReport),
		cmdutil.NewCommandHandler(CommandName, GetRecord, c.GetRecord),
		cmdutil.NewCommandHandler(CommandName, GetRecords, c.GetRecords),
		cmdutil.NewCommandHandler(CommandName, DeleteRecord, c.DeleteRecord),
	}
}

// ProposeCredential is used by the Holder to start an exchange with a proposal.
func (c *Command) ProposeCredential(rw io.Writer, req io.Reader) command.Error {
	var args ProposeCredentialArgs

	if err := json.NewDecoder(req).Decode(&args); err != nil {
		logutil.LogInfo(logger, CommandName, ProposeCredential, err.Error())
		return command.NewValidationError(InvalidRequestErrorCode, err)
	}

	if args.ProposeCredential == nil {
		logutil.LogDebug(logger, CommandName, ProposeCredential, errEmptyProposeCredential)
		return command.NewValidationError(InvalidRequestErrorCode, errors.New(errEmptyProposeCredential))
	}

	rec, err := c.client.ProposeCredential(context.Background(), version(args.ProtocolVersion), args.ProposeCredential)
	if err != nil {
		return failure(ProposeCredential, ProposeCredentialErrorCode, err)
	}

	command.WriteNillableResponse(rw, &RecordResponse{Record: rec}, logger)

	logutil.LogDebug(logger, CommandName, ProposeCredential, successString,
		logutil.CreateKeyValueString("recordID", rec.ID))

	return nil
}

// AcceptProposal is used by the Issuer to answer a proposal with an offer.
func (c *Command) AcceptProposal(rw io.Writer, req io.Reader) command.Error {
	var args ResponseArgs

	if err := decodeRecordArgs(AcceptProposal, req, &args, &args.RecordID); err != nil {
		return err
	}

	rec, err := c.client.AcceptProposal(context.Background(), args.RecordID, args.Options)

	return respond(rw, AcceptProposal, AcceptProposalErrorCode, rec, err)
}

// NegotiateProposal is used by the Issuer to answer a proposal with a different offer.
func (c *Command) NegotiateProposal(rw io.Writer, req io.Reader) command.Error {
	var args ResponseArgs

	if err := decodeRecordArgs(NegotiateProposal, req, &args, &args.RecordID); err != nil {
		return err
	}

	if args.Options == nil {
		logutil.LogDebug(logger, CommandName, NegotiateProposal, errEmptyResponseOptions)
		return command.NewValidationError(InvalidRequestErrorCode, errors.New(errEmptyResponseOptions))
	}

	rec, err := c.client.NegotiateProposal(context.Background(), args.RecordID, args.Options)

	return respond(rw, NegotiateProposal, NegotiateProposalErrorCode, rec, err)
}

// OfferCredential is used by the Issuer to start an exchange with an offer over a connection.
func (c *Command) OfferCredential(rw io.Writer, req io.Reader) command.Error {
	var args OfferCredentialArgs

	if err := decodeOffer(OfferCredential, req, &args); err != nil {
		return err
	}

	rec, err := c.client.OfferCredential(context.Background(), version(args.ProtocolVersion), args.OfferCredential)

	return respond(rw, OfferCredential, OfferCredentialErrorCode, rec, err)
}

// CreateOffer is used by the Issuer to create an offer without sending it, typically for an
// out-of-band invitation.
func (c *Command) CreateOffer(rw io.Writer, req io.Reader) command.Error {
	var args OfferCredentialArgs

	if err := decodeOffer(CreateOffer, req, &args); err != nil {
		return err
	}

	rec, msg, err := c.client.CreateOffer(context.Background(), version(args.ProtocolVersion), args.OfferCredential)
	if err != nil {
		return failure(CreateOffer, CreateOfferErrorCode, err)
	}

	command.WriteNillableResponse(rw, &CreateOfferResponse{Record: rec, Message: msg}, logger)

	logutil.LogDebug(logger, CommandName, CreateOffer, successString,
		logutil.CreateKeyValueString("recordID", rec.ID))

	return nil
}

// AcceptOffer is used by the Holder to answer an offer with a request.
func (c *Command) AcceptOffer(rw io.Writer, req io.Reader) command.Error {
	var args ResponseArgs

	if err := decodeRecordArgs(AcceptOffer, req, &args, &args.RecordID); err != nil {
		return err
	}

	rec, err := c.client.AcceptOffer(context.Background(), args.RecordID, args.Options)

	return respond(rw, AcceptOffer, AcceptOfferErrorCode, rec, err)
}

// NegotiateOffer is used by the Holder to answer an offer with a different proposal.
func (c *Command) NegotiateOffer(rw io.Writer, req io.Reader) command.Error {
	var args ResponseArgs

	if err := decodeRecordArgs(NegotiateOffer, req, &args, &args.RecordID); err != nil {
		return err
	}

	if args.Options == nil {
		logutil.LogDebug(logger, CommandName, NegotiateOffer, errEmptyResponseOptions)
		return command.NewValidationError(InvalidRequestErrorCode, errors.New(errEmptyResponseOptions))
	}

	rec, err := c.client.NegotiateOffer(context.Background(), args.RecordID, args.Options)

	return respond(rw, NegotiateOffer, NegotiateOfferErrorCode, rec, err)
}

// DeclineOffer is used by the Holder to refuse an offer.
func (c *Command) DeclineOffer(rw io.Writer, req io.Reader) command.Error {
	var args DeclineOfferArgs

	if err := decodeRecordArgs(DeclineOffer, req, &args, &args.RecordID); err != nil {
		return err
	}

	rec, err := c.client.DeclineOffer(context.Background(), args.RecordID, args.Reason)

	return respond(rw, DeclineOffer, DeclineOfferErrorCode, rec, err)
}

// AcceptRequest is used by the Issuer to issue the requested credential.
func (c *Command) AcceptRequest(rw io.Writer, req io.Reader) command.Error {
	var args ResponseArgs

	if err := decodeRecordArgs(AcceptRequest, req, &args, &args.RecordID); err != nil {
		return err
	}

	rec, err := c.client.AcceptRequest(context.Background(), args.RecordID, args.Options)

	return respond(rw, AcceptRequest, AcceptRequestErrorCode, rec, err)
}

// AcceptCredential is used by the Holder to acknowledge the received credential.
func (c *Command) AcceptCredential(rw io.Writer, req io.Reader) command.Error {
	var args RecordIDArgs

	if err := decodeRecordArgs(AcceptCredential, req, &args, &args.RecordID); err != nil {
		return err
	}

	rec, err := c.client.AcceptCredential(context.Background(), args.RecordID)

	return respond(rw, AcceptCredential, AcceptCredentialErrorCode, rec, err)
}

// SendProblemReport abandons an exchange and tells the other party why.
func (c *Command) SendProblemReport(rw io.Writer, req io.Reader) command.Error {
	var args ProblemReportArgs

	if err := decodeRecordArgs(SendProblemReport, req, &args, &args.RecordID); err != nil {
		return err
	}

	rec, err := c.client.SendProblemReport(context.Background(), args.RecordID, args.Description)

	return respond(rw, SendProblemReport, SendProblemReportErrorCode, rec, err)
}

// GetRecord returns the exchange record with the given id.
func (c *Command) GetRecord(rw io.Writer, req io.Reader) command.Error {
	var args RecordIDArgs

	if err := decodeRecordArgs(GetRecord, req, &args, &args.RecordID); err != nil {
		return err
	}

	rec, err := c.client.GetByID(args.RecordID)

	return respond(rw, GetRecord, GetRecordErrorCode, rec, err)
}

// GetRecords returns the exchange records matching the query, or all of them.
func (c *Command) GetRecords(rw io.Writer, req io.Reader) command.Error {
	var args RecordsArgs

	if err := json.NewDecoder(req).Decode(&args); err != nil {
		logutil.LogInfo(logger, CommandName, GetRecords, err.Error())
		return command.NewValidationError(InvalidRequestErrorCode, err)
	}

	var (
		records []*protocol.Record
		err     error
	)

	if len(args.Query) == 0 {
		records, err = c.client.GetAll()
	} else {
		records, err = c.client.FindAllByQuery(args.Query)
	}

	if err != nil {
		return failure(GetRecords, GetRecordsErrorCode, err)
	}

	command.WriteNillableResponse(rw, &RecordsResponse{Records: records}, logger)

	logutil.LogDebug(logger, CommandName, GetRecords, successString)

	return nil
}

// DeleteRecord removes the exchange record with the given id.
func (c *Command) DeleteRecord(rw io.Writer, req io.Reader) command.Error {
	var args RecordIDArgs

	if err := decodeRecordArgs(DeleteRecord, req, &args, &args.RecordID); err != nil {
		return err
	}

	if err := c.client.DeleteByID(args.RecordID); err != nil {
		return failure(DeleteRecord, DeleteRecordErrorCode, err)
	}

	command.WriteNillableResponse(rw, &DeleteRecordResponse{}, logger)

	logutil.LogDebug(logger, CommandName, DeleteRecord, successString,
		logutil.CreateKeyValueString("recordID", args.RecordID))

	return nil
}

func decodeRecordArgs(action string, req io.Reader, args interface{}, recordID *string) command.Error {
	if err := json.NewDecoder(req).Decode(args); err != nil {
		logutil.LogInfo(logger, CommandName, action, err.Error())
		return command.NewValidationError(InvalidRequestErrorCode, err)
	}

	if *recordID == "" {
		logutil.LogDebug(logger, CommandName, action, errEmptyRecordID)
		return command.NewValidationError(InvalidRequestErrorCode, errors.New(errEmptyRecordID))
	}

	return nil
}

func decodeOffer(action string, req io.Reader, args *OfferCredentialArgs) command.Error {
	if err := json.NewDecoder(req).Decode(args); err != nil {
		logutil.LogInfo(logger, CommandName, action, err.Error())
		return command.NewValidationError(InvalidRequestErrorCode, err)
	}

	if args.OfferCredential == nil {
		logutil.LogDebug(logger, CommandName, action, errEmptyOfferCredential)
		return command.NewValidationError(InvalidRequestErrorCode, errors.New(errEmptyOfferCredential))
	}

	return nil
}

func respond(rw io.Writer, action string, code command.Code, rec *protocol.Record, err error) command.Error {
	if err != nil {
		return failure(action, code, err)
	}

	command.WriteNillableResponse(rw, &RecordResponse{Record: rec}, logger)

	logutil.LogDebug(logger, CommandName, action, successString, logutil.CreateKeyValueString("recordID", rec.ID))

	return nil
}

// failure maps err to a command error: caller mistakes are validation errors.
func failure(action string, code command.Code, err error) command.Error {
	logutil.LogError(logger, CommandName, action, err.Error())

	if protocol.IsValidationError(err) || errors.Is(err, protocol.ErrRecordNotFound) ||
		errors.Is(err, protocol.ErrUnsupportedVersion) || errors.Is(err, protocol.ErrInvalidTransition) {
		return command.NewValidationError(code, err)
	}

	return command.NewExecuteError(code, err)
}

func version(v protocol.ProtocolVersion) protocol.ProtocolVersion {
	if v == "" {
		return protocol.V2
	}

	return v
}
