/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package service

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"time"

	"github.com/mitchellh/mapstructure"
)

const (
	jsonID             = "@id"
	jsonType           = "@type"
	jsonThread         = "~thread"
	jsonThreadID       = "thid"
	jsonParentThreadID = "pthid"
	jsonMetadata       = "_internal_metadata"
	jsonTagName        = "json"
)

var (
	// ErrThreadIDNotFound is returned when the message carries neither a thread id nor an id.
	ErrThreadIDNotFound = errors.New("threadID not found")
	// ErrInvalidMessage is returned when the message is not a JSON object.
	ErrInvalidMessage = errors.New("message is not a JSON object")
)

// DIDCommMsg describes message interface.
type DIDCommMsg interface {
	ID() string
	Type() string
	ThreadID() (string, error)
	ParentThreadID() string
	Clone() DIDCommMsgMap
	Metadata() map[string]interface{}
	Decode(v interface{}) error
}

// DIDCommMsgMap did comm msg.
type DIDCommMsgMap map[string]interface{}

// ParseDIDCommMsgMap returns DIDCommMsg with Header.
func ParseDIDCommMsgMap(payload []byte) (DIDCommMsgMap, error) {
	var msg DIDCommMsgMap

	if err := json.Unmarshal(payload, &msg); err != nil {
		return nil, fmt.Errorf("invalid payload data format: %w", err)
	}

	if msg == nil {
		return nil, ErrInvalidMessage
	}

	return msg, nil
}

// NewDIDCommMsgMap converts structure(model) to DIDCommMsgMap.
// The structure goes through its JSON representation so json tags and omitempty are honored.
func NewDIDCommMsgMap(v interface{}) (DIDCommMsgMap, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal message: %w", err)
	}

	return ParseDIDCommMsgMap(raw)
}

// ID returns message ID.
func (m DIDCommMsgMap) ID() string {
	if m == nil {
		return ""
	}

	res, _ := m[jsonID].(string) // nolint: errcheck

	return res
}

// Type returns the message type.
func (m DIDCommMsgMap) Type() string {
	if m == nil {
		return ""
	}

	res, _ := m[jsonType].(string) // nolint: errcheck

	return res
}

// ThreadID returns msg ~thread.thid if there is no ~thread.thid returns msg @id
// message is invalid if ~thread.thid exist and @id is absent.
func (m DIDCommMsgMap) ThreadID() (string, error) {
	if m == nil {
		return "", ErrThreadIDNotFound
	}

	thid := m.threadField(jsonThreadID)
	msgID := m.ID()

	if thid != "" && msgID != "" {
		return thid, nil
	}

	if thid == "" && msgID != "" {
		return msgID, nil
	}

	return "", ErrThreadIDNotFound
}

// ParentThreadID returns msg ~thread.pthid if there is no ~thread.pthid returns empty string.
func (m DIDCommMsgMap) ParentThreadID() string {
	if m == nil {
		return ""
	}

	return m.threadField(jsonParentThreadID)
}

func (m DIDCommMsgMap) threadField(name string) string {
	thread, ok := m[jsonThread].(map[string]interface{})
	if !ok {
		return ""
	}

	res, _ := thread[name].(string) // nolint: errcheck

	return res
}

// Metadata returns message metadata.
func (m DIDCommMsgMap) Metadata() map[string]interface{} {
	if m[jsonMetadata] == nil {
		return map[string]interface{}{}
	}

	metadata, ok := m[jsonMetadata].(map[string]interface{})
	if !ok {
		return map[string]interface{}{}
	}

	return metadata
}

// Clone copies first level keys-values into another map (DIDCommMsgMap).
func (m DIDCommMsgMap) Clone() DIDCommMsgMap {
	if m == nil {
		return nil
	}

	msg := DIDCommMsgMap{}
	for k, v := range m {
		msg[k] = v
	}

	return msg
}

// Decode converts message to  struct.
func (m DIDCommMsgMap) Decode(v interface{}) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       decodeHook,
		WeaklyTypedInput: true,
		Result:           v,
		TagName:          jsonTagName,
	})
	if err != nil {
		return err
	}

	return decoder.Decode(m)
}

func decodeHook(rt1, rt2 reflect.Type, v interface{}) (interface{}, error) {
	if rt1.Kind() != reflect.String {
		return v, nil
	}

	if rt2 == reflect.TypeOf(time.Time{}) {
		return time.Parse(time.RFC3339, v.(string))
	}

	if rt2.Kind() == reflect.Slice && rt2.Elem().Kind() == reflect.Uint8 {
		return base64.StdEncoding.DecodeString(v.(string))
	}

	return v, nil
}
