/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package issuecredential

const (
	recordPropKey        = "record"
	recordIDPropKey      = "recordID"
	threadIDPropKey      = "threadID"
	previousStatePropKey = "previousState"
	errorPropKey         = "error"
)

// StateChanged is attached to every state event. Record is a snapshot taken after the change.
type StateChanged struct {
	Record        *Record
	PreviousState State
}

// All implements EventProperties interface.
func (e *StateChanged) All() map[string]interface{} {
	props := map[string]interface{}{
		recordPropKey:        e.Record,
		recordIDPropKey:      e.Record.ID,
		threadIDPropKey:      e.Record.ThreadID,
		previousStatePropKey: e.PreviousState,
	}

	if e.Record.ErrorMessage != "" {
		props[errorPropKey] = e.Record.ErrorMessage
	}

	return props
}
