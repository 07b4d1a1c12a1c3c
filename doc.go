/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package aries runs the issue-credential protocol of a DIDComm agent: the negotiation of Indy and
// JSON-LD verifiable credentials between a holder and an issuer over issue-credential 1.0 and 2.0.
//
// Packages for end developer usage
//
// pkg/framework/context: builds the provider holding the stores, the messenger and the credential
// format services of the agent.
//
// pkg/client/issuecredential: propose, offer, request and issue credentials, and handle the messages
// received from the other agent.
//
// pkg/controller: command and REST bindings of the client.
//
// Basic workflow
//
//	1) Create a context with the options of the formats the agent supports (WithIndy, WithJSONLD).
//	2) Create a client with issuecredential.New, passing the context.
//	3) Hand the messages received from other agents to Client.HandleInbound.
//	4) Register for state events and advance the exchanges waiting for the application.
package aries
