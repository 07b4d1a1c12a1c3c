/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package webnotifier

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/hyperledger/aries-framework-go/component/log"

	"github.com/hyperledger/aries-credentials-go/pkg/controller/command"
	"github.com/hyperledger/aries-credentials-go/pkg/controller/rest"
)

var logger = log.New("aries-framework/webnotifier")

const (
	notificationSendTimeout = 10 * time.Second
	emptyTopicErrMsg        = "cannot notify with an empty topic"
	emptyMessageErrMsg      = "cannot notify with an empty message"
	failedToCreateErrMsg    = "failed to create topic message : %w"
)

// WebNotifier sends notifications to the webhooks and to the websocket clients.
type WebNotifier struct {
	notifiers []command.Notifier
	handlers  []rest.Handler
}

// New returns a notifier for webhookURLs serving websocket clients on wsPath.
func New(wsPath string, webhookURLs []string) *WebNotifier {
	ws := NewWSNotifier(wsPath)

	return &WebNotifier{
		notifiers: []command.Notifier{NewHTTPNotifier(webhookURLs), ws},
		handlers:  ws.GetRESTHandlers(),
	}
}

// Notify sends the message to every subscriber. All failures are returned.
func (n *WebNotifier) Notify(topic string, message []byte) error {
	var allErrs error

	for _, notifier := range n.notifiers {
		allErrs = appendError(allErrs, notifier.Notify(topic, message))
	}

	return allErrs
}

// GetRESTHandlers returns the websocket endpoint.
func (n *WebNotifier) GetRESTHandlers() []rest.Handler {
	return n.handlers
}

// topic is the envelope of every notification.
type topic struct {
	ID      string          `json:"id"`
	Topic   string          `json:"topic"`
	Message json.RawMessage `json:"message"`
}

// PrepareTopicMessage wraps message into the notification envelope of topic.
func PrepareTopicMessage(name string, message []byte) ([]byte, error) {
	return json.Marshal(&topic{
		ID:      name + "-" + time.Now().UTC().Format(time.RFC3339Nano),
		Topic:   name,
		Message: message,
	})
}

func appendError(errs, err error) error {
	if err == nil {
		return errs
	}

	if errs == nil {
		return err
	}

	return errors.Join(errs, err)
}

func validate(topic string, message []byte) error {
	if topic == "" {
		return errors.New(emptyTopicErrMsg)
	}

	if len(message) == 0 {
		return errors.New(emptyMessageErrMsg)
	}

	return nil
}

func prepare(topic string, message []byte) ([]byte, error) {
	if err := validate(topic, message); err != nil {
		return nil, err
	}

	topicMsg, err := PrepareTopicMessage(topic, message)
	if err != nil {
		return nil, fmt.Errorf(failedToCreateErrMsg, err)
	}

	return topicMsg, nil
}
