/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package issuecredential

import (
	"context"

	"github.com/hyperledger/aries-credentials-go/pkg/didcomm/common/service"
)

// Handler describes middleware interface.
type Handler interface {
	Handle(ctx context.Context, metadata Metadata) error
}

// Middleware function receives next handler and returns handler that needs to be executed.
type Middleware func(next Handler) Handler

// HandlerFunc is a helper type which implements the middleware Handler interface.
type HandlerFunc func(ctx context.Context, metadata Metadata) error

// Handle implements function to satisfy the Handler interface.
func (hf HandlerFunc) Handle(ctx context.Context, metadata Metadata) error {
	return hf(ctx, metadata)
}

// Metadata provides helpful information for the processing of an inbound message.
type Metadata interface {
	// Message contains the original inbound message.
	Message() service.DIDCommMsg
	// Record is the exchange after the message was processed.
	Record() *Record
	// ConnectionID the message arrived on, empty for connection-less messages.
	ConnectionID() string
	// Service is the protocol service that processed the message.
	Service() ProtocolService
}

type metadata struct {
	msg          service.DIDCommMsg
	rec          *Record
	connectionID string
	svc          ProtocolService
}

func (md *metadata) Message() service.DIDCommMsg {
	return md.msg
}

func (md *metadata) Record() *Record {
	return md.rec
}

func (md *metadata) ConnectionID() string {
	return md.connectionID
}

func (md *metadata) Service() ProtocolService {
	return md.svc
}
