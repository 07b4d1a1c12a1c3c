/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package transport

import (
	"context"

	"github.com/hyperledger/aries-credentials-go/pkg/didcomm/common/service"
)

// OutboundTransport interface definition for transport layer
// This is the client side of the agent.
type OutboundTransport interface {
	// Send posts the message payload to the destination endpoint.
	Send(ctx context.Context, data []byte, destination string) error
}

// InboundMessageHandler handles the messages received by an inbound transport on the given connection.
type InboundMessageHandler interface {
	HandleInbound(ctx context.Context, msg service.DIDCommMsg, connectionID string) error
}
