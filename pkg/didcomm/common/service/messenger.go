/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package service

import (
	"context"

	"github.com/hyperledger/aries-credentials-go/pkg/didcomm/protocol/decorator"
)

// The messenger is responsible for delivering protocol messages to the other agent.
// Each message that we are going to send should be DIDCommMsgMap type.
// e.g we have type model.Ack{Type: "type", ID: "id"}
// it should be converted to: map[@id:id @type:type]
// NOTE: Threading (~thread) is set by the protocol before the message reaches the messenger.

// Messenger provides methods for the communication.
type Messenger interface {
	// Send sends the message over an existing connection.
	Send(ctx context.Context, msg DIDCommMsgMap, connectionID string) error
	// SendToService sends the message to the endpoint advertised by a `~service` decorator.
	// Used by connection-less exchanges.
	SendToService(ctx context.Context, msg DIDCommMsgMap, svc *decorator.Service) error
}
