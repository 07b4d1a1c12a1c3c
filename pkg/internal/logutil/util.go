/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package logutil

import (
	"fmt"
	"strings"

	"github.com/hyperledger/aries-framework-go/spi/log"
)

// LogError logs a failed controller command.
func LogError(logger log.Logger, command, action, errMsg string, data ...string) {
	logger.Errorf("command=[%s] action=[%s]%s errMsg=[%s]", command, action, fields(data), errMsg)
}

// LogDebug logs the progress of a controller command.
func LogDebug(logger log.Logger, command, action, msg string, data ...string) {
	logger.Debugf("command=[%s] action=[%s]%s msg=[%s]", command, action, fields(data), msg)
}

// LogInfo logs a rejected or notable controller command.
func LogInfo(logger log.Logger, command, action, msg string, data ...string) {
	logger.Infof("command=[%s] action=[%s]%s msg=[%s]", command, action, fields(data), msg)
}

// CreateKeyValueString creates a key=[value] field for the log functions.
func CreateKeyValueString(key, val string) string {
	return fmt.Sprintf("%s=[%s]", key, val)
}

func fields(data []string) string {
	if len(data) == 0 {
		return ""
	}

	return " " + strings.Join(data, " ")
}
