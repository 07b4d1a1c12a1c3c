/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package issuecredential

// AutoAccept controls whether an exchange advances without application approval.
type AutoAccept string

const (
	// AutoAcceptUnset defers to the next level of configuration.
	AutoAcceptUnset AutoAccept = ""
	// AutoAcceptAlways advances every phase.
	AutoAcceptAlways AutoAccept = "always"
	// AutoAcceptContentApproved advances when every format approves the content.
	AutoAcceptContentApproved AutoAccept = "contentApproved"
	// AutoAcceptNever waits for the application.
	AutoAcceptNever AutoAccept = "never"
)

// ComposeAutoAccept returns the effective policy of an exchange: the record override wins,
// then the agent default, then AutoAcceptNever.
func ComposeAutoAccept(recordOverride, agentDefault AutoAccept) AutoAccept {
	if recordOverride != AutoAcceptUnset {
		return recordOverride
	}

	if agentDefault != AutoAcceptUnset {
		return agentDefault
	}

	return AutoAcceptNever
}

// Decide combines the per-format votes of a phase under policy.
// ContentApproved requires every vote to be true, and at least one vote.
func Decide(policy AutoAccept, votes ...bool) bool {
	switch policy {
	case AutoAcceptAlways:
		return true
	case AutoAcceptContentApproved:
		if len(votes) == 0 {
			return false
		}

		for _, v := range votes {
			if !v {
				return false
			}
		}

		return true
	default:
		return false
	}
}
