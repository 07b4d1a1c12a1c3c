/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package service

// StateMsgType state msg type.
type StateMsgType int

const (
	// PreState pre state.
	PreState StateMsgType = iota
	// PostState post state.
	PostState
)

// StateMsg is used in MsgEvent to pass the state details to the consumer. Refer service.Event.RegisterMsgEvent
// for more details.
type StateMsg struct {
	// Name of the protocol.
	ProtocolName string
	// type of the message (pre or post), refer service.StateMsgType
	Type StateMsgType
	// current state. Refer protocol RFC for possible states.
	StateID string
	// DIDComm message that caused the state change, if any.
	Msg DIDCommMsg
	// Properties contains value based on specific protocol. The consumers need to call the protocol client
	// functions to get the data.
	//
	// Clients function to retrieve data based on protocol.
	//   - Issue Credential :  issuecredential.StateChanged
	Properties EventProperties
}

// EventProperties type for event related data.
// NOTE: Properties always should be serializable.
type EventProperties interface {
	All() map[string]interface{}
}

// Event event related apis.
type Event interface {
	// RegisterMsgEvent on protocol messages. Service will not expect any callback on these events.
	RegisterMsgEvent(ch chan<- StateMsg) error
	// UnregisterMsgEvent on protocol messages. Refer RegisterMsgEvent().
	UnregisterMsgEvent(ch chan<- StateMsg) error
}
