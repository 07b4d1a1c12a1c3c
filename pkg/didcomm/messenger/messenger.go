/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package messenger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/hyperledger/aries-framework-go/component/log"

	"github.com/hyperledger/aries-credentials-go/pkg/didcomm/common/service"
	"github.com/hyperledger/aries-credentials-go/pkg/didcomm/protocol/decorator"
	"github.com/hyperledger/aries-credentials-go/pkg/didcomm/transport"
)

var logger = log.New("aries-framework/pkg/didcomm/messenger")

var (
	// ErrNoEndpoint is returned when the destination does not advertise a service endpoint.
	ErrNoEndpoint = errors.New("destination has no service endpoint")
	// errNoID is returned for messages without an @id.
	errNoID = errors.New("message-id is absent and can't be sent")
)

// Provider contains dependencies for the Messenger.
type Provider interface {
	ConnectionLookup() service.ConnectionLookup
	OutboundTransport() transport.OutboundTransport
}

// Messenger delivers protocol messages to the service endpoint of the other agent.
type Messenger struct {
	lookup    service.ConnectionLookup
	transport transport.OutboundTransport
}

var _ service.Messenger = (*Messenger)(nil)

// NewMessenger returns a new instance of the Messenger.
func NewMessenger(ctx Provider) (*Messenger, error) {
	if ctx.ConnectionLookup() == nil {
		return nil, errors.New("messenger: connection lookup is required")
	}

	if ctx.OutboundTransport() == nil {
		return nil, errors.New("messenger: outbound transport is required")
	}

	return &Messenger{
		lookup:    ctx.ConnectionLookup(),
		transport: ctx.OutboundTransport(),
	}, nil
}

// Send sends the message to the endpoint of the connection.
// The ~thread decorator set by the protocol is kept as is.
func (m *Messenger) Send(ctx context.Context, msg service.DIDCommMsgMap, connectionID string) error {
	conn, err := m.lookup.GetConnection(ctx, connectionID)
	if err != nil {
		return fmt.Errorf("get connection: %w", err)
	}

	if conn.ServiceEndpoint == "" {
		return fmt.Errorf("connection %s: %w", connectionID, ErrNoEndpoint)
	}

	return m.send(ctx, msg, conn.ServiceEndpoint)
}

// SendToService sends the message to the endpoint advertised by a `~service` decorator.
func (m *Messenger) SendToService(ctx context.Context, msg service.DIDCommMsgMap, svc *decorator.Service) error {
	if svc == nil || svc.ServiceEndpoint == "" {
		return fmt.Errorf("service decorator: %w", ErrNoEndpoint)
	}

	return m.send(ctx, msg, svc.ServiceEndpoint)
}

func (m *Messenger) send(ctx context.Context, msg service.DIDCommMsgMap, endpoint string) error {
	// an outgoing message cannot be without id
	if msg.ID() == "" {
		return errNoID
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	if err = m.transport.Send(ctx, payload, endpoint); err != nil {
		return fmt.Errorf("send message %s: %w", msg.ID(), err)
	}

	logger.Debugf("sent message %s of type %s to %s", msg.ID(), msg.Type(), endpoint)

	return nil
}
