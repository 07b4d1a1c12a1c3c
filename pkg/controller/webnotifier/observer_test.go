/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package webnotifier

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	mockwebhook "github.com/hyperledger/aries-credentials-go/pkg/controller/internal/mocks/webhook"
	"github.com/hyperledger/aries-credentials-go/pkg/didcomm/common/service"
)

type properties map[string]interface{}

func (p properties) All() map[string]interface{} {
	return p
}

type notification struct {
	topic   string
	message []byte
}

func TestObserver_RegisterStateMsg(t *testing.T) {
	const topic = "issuecredential_states"

	received := make(chan notification, 2)

	notifier := mockwebhook.NewMockWebhookNotifier()
	notifier.NotifyFunc = func(topic string, message []byte) error {
		received <- notification{topic: topic, message: message}

		return errors.New("webhook down")
	}

	states := make(chan service.StateMsg)
	NewObserver(notifier).RegisterStateMsg(topic, states)

	states <- service.StateMsg{
		ProtocolName: "issuecredential",
		Type:         service.PostState,
		StateID:      "offer-sent",
		Msg:          service.DIDCommMsgMap{"@id": "msg-1", "@type": "offer"},
		Properties:   properties{"recordID": "rec-1"},
	}

	states <- service.StateMsg{ProtocolName: "issuecredential", Type: service.PreState, StateID: "done"}

	close(states)

	for _, expected := range []StateMsg{
		{
			ProtocolName: "issuecredential",
			StateID:      "offer-sent",
			Type:         postState,
			Message:      service.DIDCommMsgMap{"@id": "msg-1", "@type": "offer"},
			Properties:   map[string]interface{}{"recordID": "rec-1"},
		},
		{ProtocolName: "issuecredential", StateID: "done", Type: preState},
	} {
		select {
		case n := <-received:
			require.Equal(t, topic, n.topic)

			src, err := json.Marshal(expected)
			require.NoError(t, err)
			require.JSONEq(t, string(src), string(n.message))
		case <-time.After(time.Second):
			require.Fail(t, "state was not notified")
		}
	}
}
