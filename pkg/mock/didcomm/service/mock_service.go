/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package service

import (
	"context"
	"sync"

	"github.com/hyperledger/aries-credentials-go/pkg/didcomm/common/service"
	"github.com/hyperledger/aries-credentials-go/pkg/didcomm/protocol/decorator"
)

// SentMessage is a message handed to the MockMessenger.
type SentMessage struct {
	Msg          service.DIDCommMsgMap
	ConnectionID string
	Service      *decorator.Service
}

// MockMessenger mock implementation of messenger. It records every message it is asked to send.
type MockMessenger struct {
	mu                sync.Mutex
	sent              []SentMessage
	ErrSend           error
	ErrSendToService  error
	SendFunc          func(ctx context.Context, msg service.DIDCommMsgMap, connectionID string) error
	SendToServiceFunc func(ctx context.Context, msg service.DIDCommMsgMap, svc *decorator.Service) error
}

// Send mock messenger Send.
func (m *MockMessenger) Send(ctx context.Context, msg service.DIDCommMsgMap, connectionID string) error {
	if m.ErrSend != nil {
		return m.ErrSend
	}

	m.record(SentMessage{Msg: msg, ConnectionID: connectionID})

	if m.SendFunc != nil {
		return m.SendFunc(ctx, msg, connectionID)
	}

	return nil
}

// SendToService mock messenger SendToService.
func (m *MockMessenger) SendToService(ctx context.Context, msg service.DIDCommMsgMap, svc *decorator.Service) error {
	if m.ErrSendToService != nil {
		return m.ErrSendToService
	}

	m.record(SentMessage{Msg: msg, Service: svc})

	if m.SendToServiceFunc != nil {
		return m.SendToServiceFunc(ctx, msg, svc)
	}

	return nil
}

// Sent returns the recorded messages.
func (m *MockMessenger) Sent() []SentMessage {
	m.mu.Lock()
	defer m.mu.Unlock()

	return append([]SentMessage(nil), m.sent...)
}

// Last returns the last recorded message, if any.
func (m *MockMessenger) Last() (SentMessage, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.sent) == 0 {
		return SentMessage{}, false
	}

	return m.sent[len(m.sent)-1], true
}

func (m *MockMessenger) record(s SentMessage) {
	m.mu.Lock()
	m.sent = append(m.sent, s)
	m.mu.Unlock()
}
