/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package decorator

import (
	"time"
)

const (
	// TransportReturnRouteNone return route option none.
	TransportReturnRouteNone = "none"
	// TransportReturnRouteAll return route option all.
	TransportReturnRouteAll = "all"
)

// Thread thread data.
type Thread struct {
	ID             string         `json:"thid,omitempty"`
	PID            string         `json:"pthid,omitempty"`
	SenderOrder    int            `json:"sender_order,omitempty"`
	ReceivedOrders map[string]int `json:"received_orders,omitempty"`
}

// Timing keeps expiration time.
type Timing struct {
	ExpiresTime *time.Time `json:"expires_time,omitempty"`
}

// Service is the `~service` decorator used by connection-less exchanges to tell
// the other party where to send the reply.
type Service struct {
	RecipientKeys   []string `json:"recipientKeys"`
	RoutingKeys     []string `json:"routingKeys,omitempty"`
	ServiceEndpoint string   `json:"serviceEndpoint"`
}

// PleaseAck asks the recipient to acknowledge the message.
type PleaseAck struct {
	On []string `json:"on,omitempty"`
}

// Transport transport decorator.
type Transport struct {
	ReturnRoute *ReturnRoute `json:"~transport,omitempty"`
}

// ReturnRoute works with Transport decorator. Acceptable values - "none", "all" or "thread".
type ReturnRoute struct {
	Value string `json:"~return_route,omitempty"`
}
