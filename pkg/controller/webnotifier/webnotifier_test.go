/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package webnotifier

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	t.Run("New WebNotifier (populated)", func(t *testing.T) {
		n := New("/ws", []string{"http://localhost:8080"})
		require.Len(t, n.notifiers, 2)
		require.Len(t, n.GetRESTHandlers(), 1)
		require.Equal(t, "/ws", n.GetRESTHandlers()[0].Path())
		require.Equal(t, http.MethodGet, n.GetRESTHandlers()[0].Method())
	})

	t.Run("New WebNotifier (nil)", func(t *testing.T) {
		n := New("", nil)
		require.Len(t, n.notifiers, 2)
		require.Len(t, n.GetRESTHandlers(), 1)
	})
}

func TestNotify(t *testing.T) {
	h, url := startWebhook(t, http.StatusOK)

	n := New("/ws", []string{url})
	require.NoError(t, n.Notify("example", []byte(`{"state_id":"done"}`)))
	require.Len(t, h.received, 1)

	n = New("/ws", []string{url, "http://%zz"})
	require.Error(t, n.Notify("example", []byte(`{}`)))
}

func TestPrepareTopicMessage(t *testing.T) {
	msg, err := PrepareTopicMessage("example", []byte(`{"a":1}`))
	require.NoError(t, err)
	require.Contains(t, string(msg), `"topic":"example"`)
	require.Contains(t, string(msg), `"message":{"a":1}`)
}
