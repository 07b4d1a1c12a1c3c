/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package http

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/hyperledger/aries-credentials-go/pkg/didcomm/common/service"
	"github.com/hyperledger/aries-credentials-go/pkg/didcomm/transport"
)

const (
	// DefaultInboundPath is the path prefix of the inbound endpoint.
	// Messages are posted to <prefix>/<connection id>.
	DefaultInboundPath = "/didcomm"

	connectionIDVar = "connectionID"
	maxPayloadSize  = 1 << 20
)

// NewInboundHandler will create a new handler to enforce DIDComm HTTP transport specs then routes processing to
// the mandatory 'msgHandler' argument. The handler serves POST requests on pathPrefix/{connectionID}; the
// connection id is the receiving agent's id of the connection the message belongs to.
// The message is handled asynchronously once it was parsed, the sender gets 202 Accepted.
func NewInboundHandler(pathPrefix string, msgHandler transport.InboundMessageHandler) (http.Handler, error) {
	if msgHandler == nil {
		return nil, errors.New("creating inbound handler: message handler is nil")
	}

	if pathPrefix == "" {
		pathPrefix = DefaultInboundPath
	}

	router := mux.NewRouter()
	router.HandleFunc(pathPrefix+"/{"+connectionIDVar+"}", func(w http.ResponseWriter, r *http.Request) {
		processPOSTRequest(w, r, msgHandler)
	})

	return router, nil
}

func processPOSTRequest(w http.ResponseWriter, r *http.Request, msgHandler transport.InboundMessageHandler) {
	if valid := validateHTTPMethod(w, r); !valid {
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxPayloadSize+1))
	if err != nil {
		logger.Errorf("Error reading request body: %s - returning Code: %d", err, http.StatusInternalServerError)
		http.Error(w, "Failed to read payload", http.StatusInternalServerError)

		return
	}

	if valid := validatePayload(w, body); !valid {
		return
	}

	msg, err := service.ParseDIDCommMsgMap(body)
	if err != nil {
		http.Error(w, fmt.Sprintf("Invalid didcomm message: %v", err), http.StatusBadRequest)
		return
	}

	connectionID := mux.Vars(r)[connectionIDVar]

	w.WriteHeader(http.StatusAccepted)

	go func() {
		if handleErr := msgHandler.HandleInbound(context.Background(), msg, connectionID); handleErr != nil {
			logger.Errorf("HTTP Transport - handling message %s of type %s on connection %s: %v",
				msg.ID(), msg.Type(), connectionID, handleErr)
		}
	}()
}

// validatePayload rejects empty and oversized payloads.
func validatePayload(w http.ResponseWriter, body []byte) bool {
	if len(body) == 0 {
		http.Error(w, "Empty payload", http.StatusBadRequest)
		return false
	}

	if len(body) > maxPayloadSize {
		http.Error(w, "Payload too large", http.StatusRequestEntityTooLarge)
		return false
	}

	return true
}

// validateHTTPMethod validate HTTP method and content-type.
func validateHTTPMethod(w http.ResponseWriter, r *http.Request) bool {
	if r.Method != http.MethodPost {
		http.Error(w, "HTTP Method not allowed", http.StatusMethodNotAllowed)
		return false
	}

	ct := r.Header.Get("Content-type")
	if !transport.IsPlaintextMediaType(ct) {
		http.Error(w, fmt.Sprintf("Unsupported Content-type \"%s\"", ct), http.StatusUnsupportedMediaType)
		return false
	}

	return true
}
