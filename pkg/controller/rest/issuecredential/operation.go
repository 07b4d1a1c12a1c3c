/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package issuecredential

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/gorilla/mux"

	client "github.com/hyperledger/aries-credentials-go/pkg/client/issuecredential"
	"github.com/hyperledger/aries-credentials-go/pkg/controller/command"
	protocolcmd "github.com/hyperledger/aries-credentials-go/pkg/controller/command/issuecredential"
	"github.com/hyperledger/aries-credentials-go/pkg/controller/internal/cmdutil"
	"github.com/hyperledger/aries-credentials-go/pkg/controller/rest"
	protocol "github.com/hyperledger/aries-credentials-go/pkg/didcomm/protocol/issuecredential"
)

const (
	operationID       = "/issuecredential"
	proposeCredential = operationID + "/propose-credential"
	offerCredential   = operationID + "/offer-credential"
	createOffer       = operationID + "/create-offer"
	records           = operationID + "/records"
	record            = records + "/{id}"
	acceptProposal    = operationID + "/{id}/accept-proposal"
	negotiateProposal = operationID + "/{id}/negotiate-proposal"
	acceptOffer       = operationID + "/{id}/accept-offer"
	negotiateOffer    = operationID + "/{id}/negotiate-offer"
	declineOffer      = operationID + "/{id}/decline-offer"
	acceptRequest     = operationID + "/{id}/accept-request"
	acceptCredential  = operationID + "/{id}/accept-credential"
	problemReport     = operationID + "/{id}/problem-report"

	recordIDKey = "recordId"
)

// Operation is controller REST service controller for issue credential.
type Operation struct {
	command  *protocolcmd.Command
	handlers []rest.Handler
}

// New returns new issue credential rest client protocol instance.
func New(ctx client.Provider, notifier command.Notifier, opts ...protocol.Option) (*Operation, error) {
	cmd, err := protocolcmd.New(ctx, notifier, opts...)
	if err != nil {
		return nil, fmt.Errorf("issue credential command : %w", err)
	}

	o := &Operation{command: cmd}
	o.registerHandler()

	return o, nil
}

// Command returns the command the operation runs on.
func (c *Operation) Command() *protocolcmd.Command {
	return c.command
}

// GetRESTHandlers get all controller API handler available for this protocol service.
func (c *Operation) GetRESTHandlers() []rest.Handler {
	return c.handlers
}

// registerHandler register handlers to be exposed from this protocol service as REST API endpoints.
func (c *Operation) registerHandler() {
	c.handlers = []rest.Handler{
		cmdutil.NewHTTPHandler(proposeCredential, http.MethodPost, c.ProposeCredential),
		cmdutil.NewHTTPHandler(offerCredential, http.MethodPost, c.OfferCredential),
		cmdutil.NewHTTPHandler(createOffer, http.MethodPost, c.CreateOffer),
		cmdutil.NewHTTPHandler(records, http.MethodGet, c.GetRecords),
		cmdutil.NewHTTPHandler(record, http.MethodGet, c.GetRecord),
		cmdutil.NewHTTPHandler(record, http.MethodDelete, c.DeleteRecord),
		cmdutil.NewHTTPHandler(acceptProposal, http.MethodPost, c.AcceptProposal),
		cmdutil.NewHTTPHandler(negotiateProposal, http.MethodPost, c.NegotiateProposal),
		cmdutil.NewHTTPHandler(acceptOffer, http.MethodPost, c.AcceptOffer),
		cmdutil.NewHTTPHandler(negotiateOffer, http.MethodPost, c.NegotiateOffer),
		cmdutil.NewHTTPHandler(declineOffer, http.MethodPost, c.DeclineOffer),
		cmdutil.NewHTTPHandler(acceptRequest, http.MethodPost, c.AcceptRequest),
		cmdutil.NewHTTPHandler(acceptCredential, http.MethodPost, c.AcceptCredential),
		cmdutil.NewHTTPHandler(problemReport, http.MethodPost, c.SendProblemReport),
	}
}

// ProposeCredential swagger:route POST /issuecredential/propose-credential issue-credential issueCredentialProposeCredential
//
// Sends a credential proposal.
//
// Responses:
//    default: genericError
//        200: issueCredentialRecordResponse
func (c *Operation) ProposeCredential(rw http.ResponseWriter, req *http.Request) {
	rest.Execute(c.command.ProposeCredential, rw, req.Body)
}

// OfferCredential swagger:route POST /issuecredential/offer-credential issue-credential issueCredentialOfferCredential
//
// Sends a credential offer.
//
// Responses:
//    default: genericError
//        200: issueCredentialRecordResponse
func (c *Operation) OfferCredential(rw http.ResponseWriter, req *http.Request) {
	rest.Execute(c.command.OfferCredential, rw, req.Body)
}

// CreateOffer swagger:route POST /issuecredential/create-offer issue-credential issueCredentialCreateOffer
//
// Creates a credential offer without sending it.
//
// Responses:
//    default: genericError
//        200: issueCredentialCreateOfferResponse
func (c *Operation) CreateOffer(rw http.ResponseWriter, req *http.Request) {
	rest.Execute(c.command.CreateOffer, rw, req.Body)
}

// GetRecords swagger:route GET /issuecredential/records issue-credential issueCredentialRecords
//
// Returns the exchange records. Query parameters filter on threadId, connectionId, state, role and protocolVersion.
//
// Responses:
//    default: genericError
//        200: issueCredentialRecordsResponse
func (c *Operation) GetRecords(rw http.ResponseWriter, req *http.Request) {
	query := map[string]string{}

	for key, values := range req.URL.Query() {
		if len(values) > 0 {
			query[key] = values[0]
		}
	}

	payload, err := json.Marshal(&protocolcmd.RecordsArgs{Query: query})
	if err != nil {
		rest.SendHTTPStatusError(rw, http.StatusInternalServerError, protocolcmd.GetRecordsErrorCode, err)

		return
	}

	rest.Execute(c.command.GetRecords, rw, bytes.NewReader(payload))
}

// GetRecord swagger:route GET /issuecredential/records/{id} issue-credential issueCredentialRecord
//
// Returns an exchange record.
//
// Responses:
//    default: genericError
//        200: issueCredentialRecordResponse
func (c *Operation) GetRecord(rw http.ResponseWriter, req *http.Request) {
	withRecordID(c.command.GetRecord, rw, req)
}

// DeleteRecord swagger:route DELETE /issuecredential/records/{id} issue-credential issueCredentialDeleteRecord
//
// Removes an exchange record.
//
// Responses:
//    default: genericError
func (c *Operation) DeleteRecord(rw http.ResponseWriter, req *http.Request) {
	withRecordID(c.command.DeleteRecord, rw, req)
}

// AcceptProposal swagger:route POST /issuecredential/{id}/accept-proposal issue-credential issueCredentialAcceptProposal
//
// Accepts a proposal with an offer.
//
// Responses:
//    default: genericError
//        200: issueCredentialRecordResponse
func (c *Operation) AcceptProposal(rw http.ResponseWriter, req *http.Request) {
	withRecordID(c.command.AcceptProposal, rw, req)
}

// NegotiateProposal swagger:route POST /issuecredential/{id}/negotiate-proposal issue-credential issueCredentialNegotiateProposal
//
// Answers a proposal with a different offer.
//
// Responses:
//    default: genericError
//        200: issueCredentialRecordResponse
func (c *Operation) NegotiateProposal(rw http.ResponseWriter, req *http.Request) {
	withRecordID(c.command.NegotiateProposal, rw, req)
}

// AcceptOffer swagger:route POST /issuecredential/{id}/accept-offer issue-credential issueCredentialAcceptOffer
//
// Accepts an offer with a request.
//
// Responses:
//    default: genericError
//        200: issueCredentialRecordResponse
func (c *Operation) AcceptOffer(rw http.ResponseWriter, req *http.Request) {
	withRecordID(c.command.AcceptOffer, rw, req)
}

// NegotiateOffer swagger:route POST /issuecredential/{id}/negotiate-offer issue-credential issueCredentialNegotiateOffer
//
// Answers an offer with a different proposal.
//
// Responses:
//    default: genericError
//        200: issueCredentialRecordResponse
func (c *Operation) NegotiateOffer(rw http.ResponseWriter, req *http.Request) {
	withRecordID(c.command.NegotiateOffer, rw, req)
}

// DeclineOffer swagger:route POST /issuecredential/{id}/decline-offer issue-credential issueCredentialDeclineOffer
//
// Declines an offer.
//
// Responses:
//    default: genericError
//        200: issueCredentialRecordResponse
func (c *Operation) DeclineOffer(rw http.ResponseWriter, req *http.Request) {
	withRecordID(c.command.DeclineOffer, rw, req)
}

// AcceptRequest swagger:route POST /issuecredential/{id}/accept-request issue-credential issueCredentialAcceptRequest
//
// Issues the requested credential.
//
// Responses:
//    default: genericError
//        200: issueCredentialRecordResponse
func (c *Operation) AcceptRequest(rw http.ResponseWriter, req *http.Request) {
	withRecordID(c.command.AcceptRequest, rw, req)
}

// AcceptCredential swagger:route POST /issuecredential/{id}/accept-credential issue-credential issueCredentialAcceptCredential
//
// Acknowledges a received credential.
//
// Responses:
//    default: genericError
//        200: issueCredentialRecordResponse
func (c *Operation) AcceptCredential(rw http.ResponseWriter, req *http.Request) {
	withRecordID(c.command.AcceptCredential, rw, req)
}

// SendProblemReport swagger:route POST /issuecredential/{id}/problem-report issue-credential issueCredentialProblemReport
//
// Abandons an exchange.
//
// Responses:
//    default: genericError
//        200: issueCredentialRecordResponse
func (c *Operation) SendProblemReport(rw http.ResponseWriter, req *http.Request) {
	withRecordID(c.command.SendProblemReport, rw, req)
}

// withRecordID runs exec with the JSON object of the request body and the record id of the path.
func withRecordID(exec command.Exec, rw http.ResponseWriter, req *http.Request) {
	args := map[string]interface{}{}

	if req.Body != nil {
		body, err := io.ReadAll(req.Body)
		if err != nil {
			rest.SendHTTPStatusError(rw, http.StatusBadRequest, protocolcmd.InvalidRequestErrorCode, err)

			return
		}

		if len(bytes.TrimSpace(body)) > 0 {
			if err = json.Unmarshal(body, &args); err != nil {
				rest.SendHTTPStatusError(rw, http.StatusBadRequest, protocolcmd.InvalidRequestErrorCode,
					fmt.Errorf("request body is not a JSON object: %w", err))

				return
			}
		}
	}

	args[recordIDKey] = mux.Vars(req)["id"]

	payload, err := json.Marshal(args)
	if err != nil {
		rest.SendHTTPStatusError(rw, http.StatusInternalServerError, protocolcmd.InvalidRequestErrorCode, err)

		return
	}

	rest.Execute(exec, rw, bytes.NewReader(payload))
}
