/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package webhook

import "sync"

// Notification is a message published through the mock notifier.
type Notification struct {
	Topic   string
	Message []byte
}

// NewMockWebhookNotifier returns mock webhook notifier implementation.
func NewMockWebhookNotifier() *Notifier {
	return &Notifier{}
}

// Notifier is mock implementation of webhook notifier. Published messages are kept unless
// NotifyFunc is set.
type Notifier struct {
	NotifyFunc func(topic string, message []byte) error

	mu        sync.Mutex
	published []Notification
}

// Notify is mock implementation of webhook notifier Notify().
func (n *Notifier) Notify(topic string, message []byte) error {
	if n.NotifyFunc != nil {
		return n.NotifyFunc(topic, message)
	}

	n.mu.Lock()
	n.published = append(n.published, Notification{Topic: topic, Message: message})
	n.mu.Unlock()

	return nil
}

// Published returns the notifications received so far.
func (n *Notifier) Published() []Notification {
	n.mu.Lock()
	defer n.mu.Unlock()

	return append([]Notification(nil), n.published...)
}
