/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package webnotifier

import (
	"encoding/json"

	"github.com/hyperledger/aries-credentials-go/pkg/controller/command"
	"github.com/hyperledger/aries-credentials-go/pkg/didcomm/common/service"
)

const (
	preState  = "pre_state"
	postState = "post_state"
)

// StateMsg is the notification of a state change.
type StateMsg struct {
	ProtocolName string                 `json:"protocol_name"`
	Message      service.DIDCommMsgMap  `json:"message,omitempty"`
	StateID      string                 `json:"state_id"`
	Type         string                 `json:"type"`
	Properties   map[string]interface{} `json:"properties,omitempty"`
}

// Observer forwards the events of a channel to a notifier.
type Observer struct {
	notifier command.Notifier
}

// NewObserver returns an observer publishing to notifier.
func NewObserver(notifier command.Notifier) *Observer {
	return &Observer{notifier: notifier}
}

// RegisterStateMsg publishes the state changes read from ch under topic until ch is closed.
func (o *Observer) RegisterStateMsg(topic string, ch <-chan service.StateMsg) {
	go func() {
		for msg := range ch {
			o.notify(topic, toStateMsg(msg))
		}
	}()
}

func (o *Observer) notify(topic string, v interface{}) {
	payload, err := json.Marshal(v)
	if err != nil {
		logger.Errorf("%s: marshal notification: %v", topic, err)

		return
	}

	if err = o.notifier.Notify(topic, payload); err != nil {
		logger.Errorf("%s: notify: %v", topic, err)
	}
}

func toStateMsg(msg service.StateMsg) *StateMsg {
	s := &StateMsg{ProtocolName: msg.ProtocolName, StateID: msg.StateID, Type: postState}

	if msg.Type == service.PreState {
		s.Type = preState
	}

	if msg.Msg != nil {
		s.Message = msg.Msg.Clone()
	}

	if msg.Properties != nil {
		s.Properties = msg.Properties.All()
	}

	return s
}
