/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package issuecredential

import (
	"golang.org/x/exp/slices"
)

// State is the state of a credential exchange.
type State string

const (
	// StateStart is the implicit state of an exchange that has no record yet.
	StateStart State = ""
	// StateDone terminal state of a successful exchange.
	StateDone State = "done"
	// StateAbandoned terminal state of an exchange ended by a problem report.
	StateAbandoned State = "abandoned"

	// states for Issuer

	// StateProposalReceived the issuer received a proposal.
	StateProposalReceived State = "proposal-received"
	// StateOfferSent the issuer sent an offer.
	StateOfferSent State = "offer-sent"
	// StateRequestReceived the issuer received a request.
	StateRequestReceived State = "request-received"
	// StateCredentialIssued the issuer sent the credential.
	StateCredentialIssued State = "credential-issued"

	// states for Holder

	// StateProposalSent the holder sent a proposal.
	StateProposalSent State = "proposal-sent"
	// StateOfferReceived the holder received an offer.
	StateOfferReceived State = "offer-received"
	// StateRequestSent the holder sent a request.
	StateRequestSent State = "request-sent"
	// StateCredentialReceived the holder received the credential.
	StateCredentialReceived State = "credential-received"
)

// nolint:gochecknoglobals
var (
	transitions = map[State][]State{
		StateStart: {
			StateProposalSent, StateProposalReceived, StateOfferSent, StateOfferReceived,
		},
		StateProposalSent:       {StateOfferReceived, StateAbandoned},
		StateProposalReceived:   {StateOfferSent, StateAbandoned},
		StateOfferSent:          {StateProposalReceived, StateRequestReceived, StateAbandoned},
		StateOfferReceived:      {StateProposalSent, StateRequestSent, StateAbandoned},
		StateRequestSent:        {StateCredentialReceived, StateAbandoned},
		StateRequestReceived:    {StateCredentialIssued, StateAbandoned},
		StateCredentialIssued:   {StateDone, StateAbandoned},
		StateCredentialReceived: {StateDone, StateAbandoned},
	}

	roleStates = map[Role][]State{
		RoleIssuer: {
			StateProposalReceived, StateOfferSent, StateRequestReceived, StateCredentialIssued,
			StateDone, StateAbandoned,
		},
		RoleHolder: {
			StateProposalSent, StateOfferReceived, StateRequestSent, StateCredentialReceived,
			StateDone, StateAbandoned,
		},
	}

	// position of each state along the exchange, used to detect messages for phases already passed.
	stateRank = map[State]int{
		StateStart:              0,
		StateProposalSent:       1,
		StateProposalReceived:   1,
		StateOfferSent:          2,
		StateOfferReceived:      2,
		StateRequestSent:        3,
		StateRequestReceived:    3,
		StateCredentialIssued:   4,
		StateCredentialReceived: 4,
		StateDone:               5,
		StateAbandoned:          5,
	}
)

// CanTransitionTo reports whether an exchange in state s may move to next.
func (s State) CanTransitionTo(next State) bool {
	return slices.Contains(transitions[s], next)
}

// IsTerminal reports whether no further protocol messages are accepted in this state.
func (s State) IsTerminal() bool {
	return s == StateDone || s == StateAbandoned
}

// AllowedFor reports whether a party playing role may occupy state s.
func (s State) AllowedFor(role Role) bool {
	return slices.Contains(roleStates[role], s)
}

// passed reports whether an exchange in state s is already beyond target and cannot go back to it.
func (s State) passed(target State) bool {
	if s == StateAbandoned {
		return false
	}

	return stateRank[s] > stateRank[target] && !s.CanTransitionTo(target)
}
