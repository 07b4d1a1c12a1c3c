/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package verifiable

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/hyperledger/aries-framework-go/spi/storage"

	"github.com/hyperledger/aries-credentials-go/pkg/controller/command"
	"github.com/hyperledger/aries-credentials-go/pkg/controller/command/verifiable"
	"github.com/hyperledger/aries-credentials-go/pkg/controller/internal/cmdutil"
	"github.com/hyperledger/aries-credentials-go/pkg/controller/rest"
)

const (
	verifiableOperationID      = "/verifiable"
	verifiableCredentialPath   = verifiableOperationID + "/credential"
	getCredentialPath          = verifiableCredentialPath + "/{id}"
	getCredentialByNamePath    = verifiableCredentialPath + "/name/{name}"
	getCredentialsPath         = verifiableOperationID + "/credentials"
	removeCredentialByNamePath = verifiableCredentialPath + "/remove/name/{name}"
)

type provider interface {
	StorageProvider() storage.Provider
}

// Operation contains basic common operations provided by controller REST API.
type Operation struct {
	handlers []rest.Handler
	command  *verifiable.Command
}

// New returns new verifiable credential rest client instance.
func New(p provider) (*Operation, error) {
	cmd, err := verifiable.New(p)
	if err != nil {
		return nil, fmt.Errorf("verifiable new: %w", err)
	}

	o := &Operation{command: cmd}
	o.registerHandler()

	return o, nil
}

// GetRESTHandlers get all controller API handler available for this service.
func (o *Operation) GetRESTHandlers() []rest.Handler {
	return o.handlers
}

// registerHandler register handlers to be exposed from this protocol service as REST API endpoints.
func (o *Operation) registerHandler() {
	o.handlers = []rest.Handler{
		cmdutil.NewHTTPHandler(getCredentialPath, http.MethodGet, o.GetCredential),
		cmdutil.NewHTTPHandler(getCredentialByNamePath, http.MethodGet, o.GetCredentialByName),
		cmdutil.NewHTTPHandler(getCredentialsPath, http.MethodGet, o.GetCredentials),
		cmdutil.NewHTTPHandler(removeCredentialByNamePath, http.MethodPost, o.RemoveCredentialByName),
	}
}

// GetCredential swagger:route GET /verifiable/credential/{id} verifiable getCredentialReq
//
// Retrieves the verifiable credential. The id is base64 url encoded.
//
// Responses:
//    default: genericError
//        200: credentialRes
func (o *Operation) GetCredential(rw http.ResponseWriter, req *http.Request) {
	id, ok := decodeID(rw, mux.Vars(req)["id"])
	if !ok {
		return
	}

	execute(o.command.GetCredential, rw, &verifiable.IDArg{ID: id})
}

// GetCredentialByName swagger:route GET /verifiable/credential/name/{name} verifiable getCredentialByNameReq
//
// Retrieves the verifiable credential record by name.
//
// Responses:
//    default: genericError
//        200: credentialRecord
func (o *Operation) GetCredentialByName(rw http.ResponseWriter, req *http.Request) {
	execute(o.command.GetCredentialByName, rw, &verifiable.NameArg{Name: mux.Vars(req)["name"]})
}

// GetCredentials swagger:route GET /verifiable/credentials verifiable getCredentials
//
// Retrieves the verifiable credential records.
//
// Responses:
//    default: genericError
//        200: credentialRecordResult
func (o *Operation) GetCredentials(rw http.ResponseWriter, req *http.Request) {
	rest.Execute(o.command.GetCredentials, rw, req.Body)
}

// RemoveCredentialByName swagger:route POST /verifiable/credential/remove/name/{name} verifiable removeCredentialByNameReq
//
// Removes a verifiable credential by name.
//
// Responses:
//    default: genericError
//        200: emptyRes
func (o *Operation) RemoveCredentialByName(rw http.ResponseWriter, req *http.Request) {
	execute(o.command.RemoveCredentialByName, rw, &verifiable.NameArg{Name: mux.Vars(req)["name"]})
}

func execute(exec command.Exec, rw http.ResponseWriter, args interface{}) {
	payload, err := json.Marshal(args)
	if err != nil {
		rest.SendHTTPStatusError(rw, http.StatusInternalServerError, verifiable.InvalidRequestErrorCode, err)

		return
	}

	rest.Execute(exec, rw, bytes.NewReader(payload))
}

func decodeID(rw http.ResponseWriter, encoded string) (string, bool) {
	id, err := base64.URLEncoding.DecodeString(encoded)
	if err != nil {
		rest.SendHTTPStatusError(rw, http.StatusBadRequest, verifiable.InvalidRequestErrorCode, err)

		return "", false
	}

	return string(id), true
}
