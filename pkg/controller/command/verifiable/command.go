/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package verifiable

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/hyperledger/aries-framework-go/component/log"
	"github.com/hyperledger/aries-framework-go/spi/storage"

	"github.com/hyperledger/aries-credentials-go/pkg/controller/command"
	"github.com/hyperledger/aries-credentials-go/pkg/controller/internal/cmdutil"
	"github.com/hyperledger/aries-credentials-go/pkg/internal/logutil"
	verifiablestore "github.com/hyperledger/aries-credentials-go/pkg/store/verifiable"
)

var logger = log.New("aries-framework/command/verifiable")

// Error codes.
const (
	// InvalidRequestErrorCode is typically a code for invalid requests.
	InvalidRequestErrorCode = command.Code(iota + command.VC)

	// GetCredentialErrorCode for get vc error.
	GetCredentialErrorCode

	// GetCredentialByNameErrorCode for get vc by name error.
	GetCredentialByNameErrorCode

	// GetCredentialsErrorCode for get vc records error.
	GetCredentialsErrorCode

	// RemoveCredentialByNameErrorCode for remove vc by name error.
	RemoveCredentialByNameErrorCode
)

const (
	// CommandName is the name of the verifiable credential commands.
	CommandName = "verifiable"

	// command methods.
	GetCredentialCommandMethod          = "GetCredential"
	GetCredentialByNameCommandMethod    = "GetCredentialByName"
	GetCredentialsCommandMethod         = "GetCredentials"
	RemoveCredentialByNameCommandMethod = "RemoveCredentialByName"

	// error messages.
	errEmptyCredentialName = "credential name is mandatory"
	errEmptyCredentialID   = "credential id is mandatory"

	// log constants.
	vcID   = "vcID"
	vcName = "vcName"
)

type provider interface {
	StorageProvider() storage.Provider
}

// Command contains command operations on the credentials received through JSON-LD exchanges.
type Command struct {
	verifiableStore *verifiablestore.Store
}

// New returns new verifiable credential controller command instance.
func New(p provider) (*Command, error) {
	verifiableStore, err := verifiablestore.New(p)
	if err != nil {
		return nil, fmt.Errorf("new vc store : %w", err)
	}

	return &Command{verifiableStore: verifiableStore}, nil
}

// GetHandlers returns list of all commands supported by this controller command.
func (o *Command) GetHandlers() []command.Handler {
	return []command.Handler{
		cmdutil.NewCommandHandler(CommandName, GetCredentialCommandMethod, o.GetCredential),
		cmdutil.NewCommandHandler(CommandName, GetCredentialByNameCommandMethod, o.GetCredentialByName),
		cmdutil.NewCommandHandler(CommandName, GetCredentialsCommandMethod, o.GetCredentials),
		cmdutil.NewCommandHandler(CommandName, RemoveCredentialByNameCommandMethod, o.RemoveCredentialByName),
	}
}

// GetCredential retrieves the verifiable credential from the store.
func (o *Command) GetCredential(rw io.Writer, req io.Reader) command.Error {
	var request IDArg

	err := json.NewDecoder(req).Decode(&request)
	if err != nil {
		logutil.LogInfo(logger, CommandName, GetCredentialCommandMethod, err.Error())
		return command.NewValidationError(InvalidRequestErrorCode, fmt.Errorf("request decode : %w", err))
	}

	if request.ID == "" {
		logutil.LogDebug(logger, CommandName, GetCredentialCommandMethod, errEmptyCredentialID)
		return command.NewValidationError(InvalidRequestErrorCode, errors.New(errEmptyCredentialID))
	}

	vc, err := o.verifiableStore.GetCredential(request.ID)
	if err != nil {
		logutil.LogError(logger, CommandName, GetCredentialCommandMethod, "get vc : "+err.Error(),
			logutil.CreateKeyValueString(vcID, request.ID))

		return storeError(GetCredentialErrorCode, fmt.Errorf("get vc : %w", err))
	}

	command.WriteNillableResponse(rw, &Credential{VerifiableCredential: vc}, logger)

	logutil.LogDebug(logger, CommandName, GetCredentialCommandMethod, "success",
		logutil.CreateKeyValueString(vcID, request.ID))

	return nil
}

// GetCredentialByName retrieves the verifiable credential record by name from the store.
func (o *Command) GetCredentialByName(rw io.Writer, req io.Reader) command.Error {
	var request NameArg

	err := json.NewDecoder(req).Decode(&request)
	if err != nil {
		logutil.LogInfo(logger, CommandName, GetCredentialByNameCommandMethod, err.Error())
		return command.NewValidationError(InvalidRequestErrorCode, fmt.Errorf("request decode : %w", err))
	}

	if request.Name == "" {
		logutil.LogDebug(logger, CommandName, GetCredentialByNameCommandMethod, errEmptyCredentialName)
		return command.NewValidationError(InvalidRequestErrorCode, errors.New(errEmptyCredentialName))
	}

	id, err := o.verifiableStore.GetCredentialIDByName(request.Name)
	if err != nil {
		logutil.LogError(logger, CommandName, GetCredentialByNameCommandMethod, "get vc by name : "+err.Error(),
			logutil.CreateKeyValueString(vcName, request.Name))

		return storeError(GetCredentialByNameErrorCode, fmt.Errorf("get vc by name : %w", err))
	}

	command.WriteNillableResponse(rw, &verifiablestore.Record{
		Name: request.Name,
		ID:   id,
	}, logger)

	logutil.LogDebug(logger, CommandName, GetCredentialByNameCommandMethod, "success",
		logutil.CreateKeyValueString(vcName, request.Name))

	return nil
}

// GetCredentials retrieves the verifiable credential records containing name and vcID.
func (o *Command) GetCredentials(rw io.Writer, _ io.Reader) command.Error {
	vcRecords, err := o.verifiableStore.GetCredentials()
	if err != nil {
		logutil.LogError(logger, CommandName, GetCredentialsCommandMethod, "get vc records : "+err.Error())

		return command.NewExecuteError(GetCredentialsErrorCode, fmt.Errorf("get vc records : %w", err))
	}

	command.WriteNillableResponse(rw, &CredentialRecordResult{Result: vcRecords}, logger)

	logutil.LogDebug(logger, CommandName, GetCredentialsCommandMethod, "success")

	return nil
}

// RemoveCredentialByName removes the verifiable credential and its name mapping from the store.
func (o *Command) RemoveCredentialByName(rw io.Writer, req io.Reader) command.Error {
	var request NameArg

	err := json.NewDecoder(req).Decode(&request)
	if err != nil {
		logutil.LogInfo(logger, CommandName, RemoveCredentialByNameCommandMethod, err.Error())
		return command.NewValidationError(InvalidRequestErrorCode, fmt.Errorf("request decode : %w", err))
	}

	if request.Name == "" {
		logutil.LogDebug(logger, CommandName, RemoveCredentialByNameCommandMethod, errEmptyCredentialName)
		return command.NewValidationError(InvalidRequestErrorCode, errors.New(errEmptyCredentialName))
	}

	if err = o.verifiableStore.RemoveCredentialByName(request.Name); err != nil {
		logutil.LogError(logger, CommandName, RemoveCredentialByNameCommandMethod, "remove vc : "+err.Error(),
			logutil.CreateKeyValueString(vcName, request.Name))

		return storeError(RemoveCredentialByNameErrorCode, fmt.Errorf("remove vc : %w", err))
	}

	command.WriteNillableResponse(rw, nil, logger)

	logutil.LogDebug(logger, CommandName, RemoveCredentialByNameCommandMethod, "success",
		logutil.CreateKeyValueString(vcName, request.Name))

	return nil
}

// storeError reports unknown credentials as validation errors.
func storeError(code command.Code, err error) command.Error {
	if errors.Is(err, storage.ErrDataNotFound) {
		return command.NewValidationError(code, err)
	}

	return command.NewExecuteError(code, err)
}
