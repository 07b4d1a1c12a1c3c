/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package command

import (
	"encoding/json"
	"io"
	"reflect"

	"github.com/hyperledger/aries-framework-go/spi/log"
)

// WriteNillableResponse writes v to w as JSON. A nil v, including a nil pointer, map or slice held in
// an interface, is written as an empty object.
func WriteNillableResponse(w io.Writer, v interface{}, l log.Logger) {
	obj := v
	if isNil(v) {
		obj = map[string]interface{}{}
	}

	if err := json.NewEncoder(w).Encode(obj); err != nil {
		l.Errorf("Unable to send error response, %s", err)
	}
}

func isNil(v interface{}) bool {
	if v == nil {
		return true
	}

	switch rv := reflect.ValueOf(v); rv.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Interface:
		return rv.IsNil()
	default:
		return false
	}
}
