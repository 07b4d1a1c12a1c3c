/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package service

import (
	"context"
	"errors"
)

// ErrConnectionNotFound is returned by ConnectionLookup when no connection matches the given id.
var ErrConnectionNotFound = errors.New("connection not found")

// ConnectionRecord defines a didcomm connection between two agents.
type ConnectionRecord struct {
	ConnectionID    string
	ThreadID        string
	TheirLabel      string
	TheirDID        string
	MyDID           string
	ServiceEndpoint string
}

// ConnectionLookup resolves established connections.
type ConnectionLookup interface {
	// GetConnection returns the connection with the given id or ErrConnectionNotFound.
	GetConnection(ctx context.Context, connectionID string) (*ConnectionRecord, error)
}
